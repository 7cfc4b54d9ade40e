/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"

	"github.com/pkg/errors"
)

// X509Provider resolves X.509 identities holding a PEM private key
type X509Provider struct{}

// NewX509Provider returns the X.509 identity provider
func NewX509Provider() *X509Provider {
	return &X509Provider{}
}

// Type returns X.509
func (p *X509Provider) Type() string {
	return X509Type
}

// UserContext parses the credentials of the identity into an actor
func (p *X509Provider) UserContext(_ context.Context, identity Identity, label string) (*Actor, error) {
	id, ok := identity.(*X509Identity)
	if !ok {
		return nil, errors.Errorf("identity [%s] is not an X.509 identity", label)
	}
	cert, err := certificateBytes(id.Certificate())
	if err != nil {
		return nil, errors.WithMessagef(err, "identity [%s]", label)
	}
	key, err := ParsePrivateKeyPEM([]byte(id.Key()))
	if err != nil {
		return nil, errors.WithMessagef(err, "identity [%s]", label)
	}
	return NewActor(label, id.MSPID(), cert, key), nil
}

func certificateBytes(certPEM string) ([]byte, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, errors.New("certificate is not PEM encoded")
	}
	return []byte(certPEM), nil
}

func parseCertificate(certPEM []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil {
		return nil, errors.New("certificate is not PEM encoded")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse certificate")
	}
	return cert, nil
}

// PublicKeyBytes returns the uncompressed point of an EC public key
func PublicKeyBytes(pub crypto.PublicKey) ([]byte, error) {
	ecPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.Errorf("unsupported public key type %T", pub)
	}
	key, err := ecPub.ECDH()
	if err != nil {
		return nil, errors.Wrap(err, "invalid EC public key")
	}
	return key.Bytes(), nil
}

// ParsePrivateKeyPEM parses a PKCS#8 or SEC 1 EC private key
func ParsePrivateKeyPEM(keyPEM []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, errors.New("private key is not PEM encoded")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, errors.New("private key cannot sign")
		}
		return signer, nil
	}
	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse private key")
	}
	return key, nil
}

// EncodePrivateKeyPEM encodes a private key as PKCS#8 PEM
func EncodePrivateKeyPEM(key crypto.Signer) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal private key")
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}
