/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	pb_msp "github.com/hyperledger/fabric-protos-go-apiv2/msp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func newTestCredentials(t *testing.T, cn string) (string, string, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	keyPEM, err := EncodePrivateKeyPEM(key)
	require.NoError(t, err)
	return string(certPEM), string(keyPEM), key
}

func TestX509ProviderUserContext(t *testing.T) {
	certPEM, keyPEM, key := newTestCredentials(t, "admin")
	provider, err := DefaultProviderRegistry().Provider(X509Type)
	require.NoError(t, err)

	actor, err := provider.UserContext(context.Background(), NewX509Identity("Org1MSP", certPEM, keyPEM), "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", actor.EnrollmentID())
	assert.Equal(t, "Org1MSP", actor.MSPID())
	assert.Equal(t, []byte(certPEM), actor.EnrollmentCertificate())
	assert.True(t, key.PublicKey.Equal(actor.PrivateKey().Public()))

	serialized, err := actor.Serialize()
	require.NoError(t, err)
	sid := &pb_msp.SerializedIdentity{}
	require.NoError(t, proto.Unmarshal(serialized, sid))
	assert.Equal(t, "Org1MSP", sid.Mspid)
	assert.Equal(t, []byte(certPEM), sid.IdBytes)
}

func TestX509ProviderInvalidCredentials(t *testing.T) {
	certPEM, keyPEM, _ := newTestCredentials(t, "admin")
	provider := NewX509Provider()
	ctx := context.Background()

	_, err := provider.UserContext(ctx, NewX509Identity("msp", "not a cert", keyPEM), "admin")
	assert.Error(t, err)

	_, err = provider.UserContext(ctx, NewX509Identity("msp", certPEM, "not a key"), "admin")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), keyPEM)

	_, err = provider.UserContext(ctx, NewHsmx509Identity("msp", certPEM), "admin")
	assert.Error(t, err)
}

func TestParsePrivateKeyPEM(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	// SEC 1 encoding is accepted too
	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	signer, err := ParsePrivateKeyPEM(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}))
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(signer.Public()))

	_, err = ParsePrivateKeyPEM(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte("junk")}))
	assert.Error(t, err)
}

func TestPublicKeyBytes(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	raw, err := PublicKeyBytes(&key.PublicKey)
	require.NoError(t, err)
	assert.Len(t, raw, 65)
	assert.Equal(t, byte(0x04), raw[0])

	id, err := ski(&key.PublicKey)
	require.NoError(t, err)
	expected := sha256.Sum256(raw)
	assert.Equal(t, expected[:], id)

	_, err = PublicKeyBytes("not a key")
	assert.Error(t, err)
}

func TestProviderRegistry(t *testing.T) {
	registry := NewProviderRegistry(NewX509Provider())
	assert.Equal(t, []string{X509Type}, registry.Types())

	_, err := registry.Provider("idemix")
	assert.ErrorIs(t, err, ErrUnknownIdentityType)

	registry.Register(NewHSMX509Provider(HSMOptions{}))
	_, err = registry.Provider(HSMX509Type)
	assert.NoError(t, err)
}

func TestHSMProviderUnconfigured(t *testing.T) {
	certPEM, _, _ := newTestCredentials(t, "admin")
	provider := NewHSMX509Provider(HSMOptions{})
	defer provider.Close()

	_, err := provider.UserContext(context.Background(), NewHsmx509Identity("msp", certPEM), "admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no PKCS#11 library configured")

	_, err = provider.UserContext(context.Background(), NewX509Identity("msp", certPEM, ""), "admin")
	assert.Error(t, err)

	provider = NewHSMX509Provider(HSMOptions{Lib: "/nonexistent/libsofthsm2.so"})
	_, err = provider.UserContext(context.Background(), NewHsmx509Identity("msp", certPEM), "admin")
	assert.Error(t, err)
}
