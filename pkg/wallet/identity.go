/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import "encoding/json"

const (
	// X509Type is the identity type of a software held X.509 identity
	X509Type = "X.509"
	// HSMX509Type is the identity type of an X.509 identity whose key is
	// held by a PKCS#11 token
	HSMX509Type = "HSM-X.509"

	identityVersion = 1
)

// Identity represents a specific identity format
type Identity interface {
	Type() string
	MSPID() string
	Certificate() string
	toJSON() ([]byte, error)
	fromJSON(data []byte) (Identity, error)
}

type credentials struct {
	Certificate string `json:"certificate"`
	Key         string `json:"privateKey,omitempty"`
}

// X509Identity represents an X509 identity
type X509Identity struct {
	Version     int         `json:"version"`
	MspID       string      `json:"mspId"`
	IDType      string      `json:"type"`
	Credentials credentials `json:"credentials"`
}

// NewX509Identity creates an X509 identity for storage in a wallet
func NewX509Identity(mspid string, cert string, key string) *X509Identity {
	return &X509Identity{identityVersion, mspid, X509Type, credentials{cert, key}}
}

// Type returns X.509 for this identity type
func (x *X509Identity) Type() string {
	return X509Type
}

// MSPID returns the MSP the identity belongs to
func (x *X509Identity) MSPID() string {
	return x.MspID
}

// Certificate returns the X509 certificate PEM
func (x *X509Identity) Certificate() string {
	return x.Credentials.Certificate
}

// Key returns the private key PEM
func (x *X509Identity) Key() string {
	return x.Credentials.Key
}

func (x *X509Identity) toJSON() ([]byte, error) {
	return json.Marshal(x)
}

func (x *X509Identity) fromJSON(data []byte) (Identity, error) {
	if err := json.Unmarshal(data, x); err != nil {
		return nil, err
	}
	return x, nil
}

// Hsmx509Identity represents an X509 identity whose private key never
// leaves the HSM. Only the certificate is stored.
type Hsmx509Identity struct {
	Version     int         `json:"version"`
	MspID       string      `json:"mspId"`
	IDType      string      `json:"type"`
	Credentials credentials `json:"credentials"`
}

// NewHsmx509Identity creates an HSM backed X509 identity for storage in a wallet
func NewHsmx509Identity(mspid string, cert string) *Hsmx509Identity {
	return &Hsmx509Identity{identityVersion, mspid, HSMX509Type, credentials{Certificate: cert}}
}

// Type returns HSM-X.509 for this identity type
func (x *Hsmx509Identity) Type() string {
	return HSMX509Type
}

// MSPID returns the MSP the identity belongs to
func (x *Hsmx509Identity) MSPID() string {
	return x.MspID
}

// Certificate returns the X509 certificate PEM
func (x *Hsmx509Identity) Certificate() string {
	return x.Credentials.Certificate
}

func (x *Hsmx509Identity) toJSON() ([]byte, error) {
	return json.Marshal(x)
}

func (x *Hsmx509Identity) fromJSON(data []byte) (Identity, error) {
	if err := json.Unmarshal(data, x); err != nil {
		return nil, err
	}
	return x, nil
}
