/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package endpoint

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hyperledger/fabric-ca-enroll/pkg/util/pathvar"
)

// IsTLSEnabled is a generic function that expects a URL and verifies if it has
// a prefix HTTPS to return true for TLS Enabled URLs or false otherwise
func IsTLSEnabled(url string) bool {
	return strings.HasPrefix(strings.ToLower(url), "https://")
}

// MutualTLSConfig Mutual TLS configurations
type MutualTLSConfig struct {
	Pem []string
	// Certfiles root certificates for TLS validation (Comma separated path list)
	Path string

	//Client TLS information
	Client TLSKeyPair
}

// TLSKeyPair contains the private key and certificate for TLS encryption
type TLSKeyPair struct {
	Key  TLSConfig
	Cert TLSConfig
}

// TLSConfig holds a PEM either inline or as a file path.
// If both Path and Pem are available, Pem takes precedence.
type TLSConfig struct {
	Path string
	// Certificate actual content
	Pem string
	//bytes from Pem/Path
	bytes []byte
}

// Bytes returns the tls certificate as a byte array
func (cfg *TLSConfig) Bytes() []byte {
	return cfg.bytes
}

//LoadBytes preloads bytes from Pem/Path
//Pem takes precedence over Path
func (cfg *TLSConfig) LoadBytes() error {
	var err error
	if cfg.Pem != "" {
		cfg.bytes = []byte(cfg.Pem)
	} else if cfg.Path != "" {
		cfg.bytes, err = os.ReadFile(pathvar.Subst(cfg.Path))
		if err != nil {
			return errors.Wrapf(err, "failed to load pem bytes from path %s", cfg.Path)
		}
	}
	return nil
}

// TLSCert returns the tls certificate as a *x509.Certificate by loading it either from the embedded Pem or Path
func (cfg *TLSConfig) TLSCert() (*x509.Certificate, bool, error) {
	block, _ := pem.Decode(cfg.bytes)

	if block != nil {
		pub, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, false, errors.Wrap(err, "certificate parsing failed")
		}

		return pub, true, nil
	}

	//no cert found and there is no error
	return nil, false, nil
}

// CertPool builds a pool from the inline PEMs and the comma separated
// certificate files. It also returns the number of certificates added.
func (m *MutualTLSConfig) CertPool() (*x509.CertPool, int, error) {
	pool := x509.NewCertPool()
	count := 0

	add := func(pemBytes []byte, source string) error {
		for len(pemBytes) > 0 {
			var block *pem.Block
			block, pemBytes = pem.Decode(pemBytes)
			if block == nil {
				break
			}
			if block.Type != "CERTIFICATE" {
				continue
			}
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return errors.Wrapf(err, "invalid TLS CA certificate in %s", source)
			}
			pool.AddCert(cert)
			count++
		}
		return nil
	}

	for i, p := range m.Pem {
		if err := add([]byte(p), "pem entry "+strconv.Itoa(i)); err != nil {
			return nil, 0, err
		}
	}

	for _, path := range strings.Split(m.Path, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		cfg := TLSConfig{Path: path}
		if err := cfg.LoadBytes(); err != nil {
			return nil, 0, err
		}
		if err := add(cfg.Bytes(), path); err != nil {
			return nil, 0, err
		}
	}

	return pool, count, nil
}

// ClientCertificate loads the client key pair used for mutual TLS. It
// returns nil when no client certificate is configured.
func (m *MutualTLSConfig) ClientCertificate() (*tls.Certificate, error) {
	if err := m.Client.Cert.LoadBytes(); err != nil {
		return nil, err
	}
	if err := m.Client.Key.LoadBytes(); err != nil {
		return nil, err
	}
	if len(m.Client.Cert.Bytes()) == 0 && len(m.Client.Key.Bytes()) == 0 {
		return nil, nil
	}

	cert, err := tls.X509KeyPair(m.Client.Cert.Bytes(), m.Client.Key.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load client TLS key pair")
	}
	return &cert, nil
}
