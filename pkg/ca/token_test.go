/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ca

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// highSSigner always produces signatures with a high s value
type highSSigner struct {
	*ecdsa.PrivateKey
}

func (s *highSSigner) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	r, sv, err := ecdsa.Sign(rand, s.PrivateKey, digest)
	if err != nil {
		return nil, err
	}
	n := s.Curve.Params().N
	if sv.Cmp(new(big.Int).Rsh(n, 1)) <= 0 {
		sv = new(big.Int).Sub(n, sv)
	}
	return marshalECDSASignature(r, sv)
}

func TestCreateToken(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	cert := []byte("-----BEGIN CERTIFICATE-----\nfake\n-----END CERTIFICATE-----\n")
	body := []byte(`{"id":"user1"}`)

	for _, signer := range []crypto.Signer{key, &highSSigner{key}} {
		token, err := createToken(signer, cert, "POST", "/api/v1/register", body)
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		require.Len(t, parts, 2)
		assert.Equal(t, base64.StdEncoding.EncodeToString(cert), parts[0])

		sig, err := base64.StdEncoding.DecodeString(parts[1])
		require.NoError(t, err)

		payload := "POST." + b64Encode([]byte("/api/v1/register")) + "." + b64Encode(body) + "." + parts[0]
		digest := sha256.Sum256([]byte(payload))
		assert.True(t, ecdsa.VerifyASN1(&key.PublicKey, digest[:], sig))

		_, s, err := unmarshalECDSASignature(sig)
		require.NoError(t, err)
		assert.True(t, s.Cmp(new(big.Int).Rsh(elliptic.P256().Params().N, 1)) <= 0, "s must be low")
	}
}

type rsaLikeSigner struct{ crypto.Signer }

func (rsaLikeSigner) Public() crypto.PublicKey { return "not ecdsa" }

func TestCreateTokenUnsupportedKey(t *testing.T) {
	_, err := createToken(rsaLikeSigner{}, []byte("cert"), "POST", "/", nil)
	assert.Error(t, err)
}

func TestUnmarshalECDSASignatureInvalid(t *testing.T) {
	_, _, err := unmarshalECDSASignature([]byte{0x30, 0x01, 0x00})
	assert.Error(t, err)

	sig, err := marshalECDSASignature(big.NewInt(0), big.NewInt(1))
	require.NoError(t, err)
	_, _, err = unmarshalECDSASignature(sig)
	assert.Error(t, err)
}

func TestNormalizeURL(t *testing.T) {
	for in, want := range map[string]string{
		"https://ca.org1.example.com:7054":  "https://ca.org1.example.com:7054",
		"https://ca.org1.example.com:7054/": "https://ca.org1.example.com:7054",
		"http://localhost:7054":             "http://localhost:7054",
		"localhost:7054":                    "http://localhost:7054",
		" ftp://localhost:7054 ":            "http://localhost:7054",
	} {
		u, err := NormalizeURL(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, u.String(), in)
	}

	_, err := NormalizeURL("")
	assert.Error(t, err)
	_, err = NormalizeURL("http://localhost:port")
	assert.Error(t, err)
}
