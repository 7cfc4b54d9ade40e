/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ca

import (
	"crypto"

	"github.com/cloudflare/cfssl/signer"

	"github.com/hyperledger/fabric-ca-enroll/pkg/core/config/endpoint"
)

// ConnectionProfile is the part of a network connection profile that
// describes certificate authorities and the organizations owning them.
type ConnectionProfile struct {
	Organizations          map[string]OrganizationConfig
	CertificateAuthorities map[string]CAConfig
}

// OrganizationConfig provides the definition of an organization in the network
type OrganizationConfig struct {
	MSPID                  string
	CertificateAuthorities []string
}

// CAConfig defines a CA configuration in the connection profile
type CAConfig struct {
	URL         string
	CAName      string
	TLSCACerts  endpoint.MutualTLSConfig
	HTTPOptions HTTPOptions
	Registrar   EnrollCredentials
}

// HTTPOptions are the transport settings of a CA entry
type HTTPOptions struct {
	// Verify enables TLS server certificate verification
	Verify bool
}

// EnrollCredentials holds credentials used for enrollment
type EnrollCredentials struct {
	EnrollID     string
	EnrollSecret string
}

// CSRInfo is Certificate Signing Request (CSR) Information
type CSRInfo struct {
	CN    string
	Hosts []string
}

// AttributeRequest is a request for an attribute.
type AttributeRequest struct {
	Name     string `json:"name"`
	Optional bool   `json:"optional,omitempty"`
}

// EnrollmentRequest is a request to enroll an identity
type EnrollmentRequest struct {
	// The identity name to enroll
	EnrollmentID string
	// The secret returned via Register
	Secret string
	// Profile is the name of the signing profile to use in issuing the certificate
	Profile string
	// Label is the label to use in HSM operations
	Label string
	// CSR is Certificate Signing Request info
	CSR *CSRInfo
	// AttrReqs are requests for attributes to add to the certificate.
	AttrReqs []*AttributeRequest
}

// Enrollment is the outcome of a successful enroll call. It lives only
// until it is persisted as an identity.
type Enrollment struct {
	// Certificate is the PEM encoded enrollment certificate
	Certificate []byte
	// Key is the private key generated for the CSR
	Key crypto.Signer
	// CAName is the name of the CA that issued the certificate
	CAName string
	// CAChain is the PEM encoded chain of the issuing CA
	CAChain []byte
}

// Attribute defines additional attributes that may be passed along during registration
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	ECert bool   `json:"ecert,omitempty"`
}

// RegistrationRequest defines the attributes required to register a user with the CA
type RegistrationRequest struct {
	// Name is the unique name of the identity
	Name string `json:"id"`
	// Type of identity being registered (e.g. "peer, app, user")
	Type string `json:"type,omitempty"`
	// Secret is an optional password. If not specified,
	// a random secret is generated. In both cases, the secret
	// is returned from registration.
	Secret string `json:"secret,omitempty"`
	// MaxEnrollments is the number of times the secret can  be reused to enroll.
	// if omitted, this defaults to max_enrollments configured on the server
	MaxEnrollments int `json:"max_enrollments,omitempty"`
	// The identity's affiliation e.g. org1.department1
	Affiliation string `json:"affiliation"`
	// Optional attributes associated with this identity
	Attributes []Attribute `json:"attrs,omitempty"`
	// CAName is the name of the CA to connect to
	CAName string `json:"caname,omitempty"`
}

// Registrar is an enrolled identity with the authority to register others
type Registrar interface {
	EnrollmentID() string
	EnrollmentCertificate() []byte
	PrivateKey() crypto.Signer
}

// EnrollmentRequestNet is the body of the enroll call
type EnrollmentRequestNet struct {
	signer.SignRequest
	CAName   string              `json:"caname,omitempty"`
	AttrReqs []*AttributeRequest `json:"attr_reqs,omitempty"`
}

// EnrollmentResponseNet is the result of the enroll call
type EnrollmentResponseNet struct {
	// Base64 encoded PEM-encoded ECert
	Cert string
	// The server information
	ServerInfo ServerInfoResponseNet
}

// ServerInfoResponseNet describes the issuing CA
type ServerInfoResponseNet struct {
	// CAName is a unique name associated with fabric-ca-server's CA
	CAName string
	// Base64 encoding of PEM-encoded certificate chain
	CAChain string
	// Version of the server
	Version string
}

// RegistrationResponseNet is the result of the register call
type RegistrationResponseNet struct {
	Secret string `json:"secret" mapstructure:"secret"`
}
