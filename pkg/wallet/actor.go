/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"crypto"

	pb_msp "github.com/hyperledger/fabric-protos-go-apiv2/msp"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
)

// Actor is a wallet identity resolved into a signing identity. It can act
// as registrar towards the CA.
type Actor struct {
	id                    string
	mspID                 string
	enrollmentCertificate []byte
	privateKey            crypto.Signer
}

// NewActor creates an actor from its parts
func NewActor(id, mspID string, cert []byte, key crypto.Signer) *Actor {
	return &Actor{id: id, mspID: mspID, enrollmentCertificate: cert, privateKey: key}
}

// EnrollmentID returns the enrollment ID of the actor
func (u *Actor) EnrollmentID() string {
	return u.id
}

// MSPID returns the MSP the actor belongs to
func (u *Actor) MSPID() string {
	return u.mspID
}

// EnrollmentCertificate Returns the underlying ECert representing this actor's identity.
func (u *Actor) EnrollmentCertificate() []byte {
	return u.enrollmentCertificate
}

// PrivateKey returns the signer for the actor's key
func (u *Actor) PrivateKey() crypto.Signer {
	return u.privateKey
}

// Serialize converts an identity to bytes
func (u *Actor) Serialize() ([]byte, error) {
	serializedIdentity := &pb_msp.SerializedIdentity{
		Mspid:   u.mspID,
		IdBytes: u.enrollmentCertificate,
	}
	identity, err := proto.Marshal(serializedIdentity)
	if err != nil {
		return nil, errors.Wrap(err, "marshal serializedIdentity failed")
	}
	return identity, nil
}
