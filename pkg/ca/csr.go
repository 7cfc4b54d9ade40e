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

	"github.com/cloudflare/cfssl/csr"
	"github.com/pkg/errors"
)

// generateCSR creates a P-256 key and a CSR for the enrollment ID
func (c *Client) generateCSR(req *EnrollmentRequest) ([]byte, crypto.Signer, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to generate key")
	}

	cr := &csr.CertificateRequest{
		CN:    req.EnrollmentID,
		Hosts: c.csrHosts,
	}
	if req.CSR != nil {
		if req.CSR.CN != "" {
			cr.CN = req.CSR.CN
		}
		if req.CSR.Hosts != nil {
			cr.Hosts = req.CSR.Hosts
		}
	}

	csrPEM, err := csr.Generate(key, cr)
	if err != nil {
		logger.Debugf("failed generating CSR: %s", err)
		return nil, nil, errors.Wrap(err, "failed to generate CSR")
	}

	return csrPEM, key, nil
}
