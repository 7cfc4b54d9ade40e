/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ca

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"math/big"

	"github.com/pkg/errors"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// createToken creates the token used in the authorization header of
// requests made on behalf of an enrolled identity:
//
//	<b64 certificate>.<b64 signature>
//
// The signature covers method, URI, body and certificate so the server can
// bind the request to the certificate holder.
func createToken(key crypto.Signer, cert []byte, method, uri string, body []byte) (string, error) {
	pub, ok := key.Public().(*ecdsa.PublicKey)
	if !ok {
		return "", errors.Errorf("unsupported registrar key type %T", key.Public())
	}

	b64body := b64Encode(body)
	b64cert := b64Encode(cert)
	b64uri := b64Encode([]byte(uri))
	payload := method + "." + b64uri + "." + b64body + "." + b64cert

	digest := sha256.Sum256([]byte(payload))
	sig, err := key.Sign(rand.Reader, digest[:], crypto.SHA256)
	if err != nil {
		return "", errors.Wrap(err, "signature generation failure")
	}
	if len(sig) == 0 {
		return "", errors.New("signature creation failed, signature must be different than nil")
	}

	sig, err = toLowS(pub, sig)
	if err != nil {
		return "", err
	}

	return b64cert + "." + b64Encode(sig), nil
}

// toLowS rewrites a DER ECDSA signature so that s <= N/2, which Fabric
// verifiers require
func toLowS(pub *ecdsa.PublicKey, sig []byte) ([]byte, error) {
	r, s, err := unmarshalECDSASignature(sig)
	if err != nil {
		return nil, err
	}

	n := pub.Curve.Params().N
	halfOrder := new(big.Int).Rsh(n, 1)
	if s.Cmp(halfOrder) <= 0 {
		return sig, nil
	}
	s.Sub(n, s)

	return marshalECDSASignature(r, s)
}

func unmarshalECDSASignature(sig []byte) (*big.Int, *big.Int, error) {
	var (
		r, s  = new(big.Int), new(big.Int)
		inner cryptobyte.String
	)
	input := cryptobyte.String(sig)
	if !input.ReadASN1(&inner, cbasn1.SEQUENCE) ||
		!input.Empty() ||
		!inner.ReadASN1Integer(r) ||
		!inner.ReadASN1Integer(s) ||
		!inner.Empty() {
		return nil, nil, errors.New("invalid ECDSA signature encoding")
	}
	if r.Sign() <= 0 || s.Sign() <= 0 {
		return nil, nil, errors.New("invalid ECDSA signature: r and s must be positive")
	}
	return r, s, nil
}

func marshalECDSASignature(r, s *big.Int) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(r)
		b.AddASN1BigInt(s)
	})
	return b.Bytes()
}

// MarshalECDSASignature encodes raw r and s values as an ASN.1 DER
// signature with a low s value
func MarshalECDSASignature(pub *ecdsa.PublicKey, r, s *big.Int) ([]byte, error) {
	sig, err := marshalECDSASignature(r, s)
	if err != nil {
		return nil, err
	}
	return toLowS(pub, sig)
}

func b64Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
