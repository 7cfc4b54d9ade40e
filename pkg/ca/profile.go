/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ca

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/errors/status"
	"github.com/hyperledger/fabric-ca-enroll/pkg/common/providers/core"
	"github.com/hyperledger/fabric-ca-enroll/pkg/core/config/endpoint"
	"github.com/hyperledger/fabric-ca-enroll/pkg/core/config/lookup"
)

// caConfigNet is a CA entry as written in the connection profile
type caConfigNet struct {
	URL         string
	CAName      string
	TLSCACerts  endpoint.MutualTLSConfig
	HTTPOptions map[string]interface{}
	Registrar   EnrollCredentials
}

type organizationConfigNet struct {
	MSPID                  string
	CertificateAuthorities []string
}

// ProfileFromBackend reads the certificateAuthorities and organizations
// sections of a connection profile
func ProfileFromBackend(backends ...core.ConfigBackend) (*ConnectionProfile, error) {
	l := lookup.New(backends...)

	cas := map[string]caConfigNet{}
	if err := l.UnmarshalKey("certificateAuthorities", &cas); err != nil {
		return nil, status.Wrap(err, status.ConfigStatus, status.ConfigurationError, "failed to parse certificateAuthorities")
	}

	orgs := map[string]organizationConfigNet{}
	if err := l.UnmarshalKey("organizations", &orgs); err != nil {
		return nil, status.Wrap(err, status.ConfigStatus, status.ConfigurationError, "failed to parse organizations")
	}

	profile := &ConnectionProfile{
		Organizations:          make(map[string]OrganizationConfig, len(orgs)),
		CertificateAuthorities: make(map[string]CAConfig, len(cas)),
	}
	for host, c := range cas {
		profile.CertificateAuthorities[strings.ToLower(host)] = CAConfig{
			URL:         c.URL,
			CAName:      c.CAName,
			TLSCACerts:  c.TLSCACerts,
			HTTPOptions: HTTPOptions{Verify: verifyOption(c.HTTPOptions)},
			Registrar:   c.Registrar,
		}
	}
	for name, o := range orgs {
		profile.Organizations[strings.ToLower(name)] = OrganizationConfig(o)
	}
	return profile, nil
}

// verification stays enabled unless the entry turns it off
func verifyOption(opts map[string]interface{}) bool {
	for k, v := range opts {
		if strings.EqualFold(k, "verify") {
			return cast.ToBool(v)
		}
	}
	return true
}

// CAConfig returns the entry for the given CA host name
func (p *ConnectionProfile) CAConfig(caHostName string) (*CAConfig, bool) {
	if p == nil {
		return nil, false
	}
	c, ok := p.CertificateAuthorities[strings.ToLower(caHostName)]
	if !ok {
		return nil, false
	}
	return &c, true
}

// MSPID returns the MSP ID of the organization
func (p *ConnectionProfile) MSPID(org string) (string, error) {
	if p == nil {
		return "", errors.New("connection profile is nil")
	}
	o, ok := p.Organizations[strings.ToLower(org)]
	if !ok || o.MSPID == "" {
		return "", status.New(status.ConfigStatus, status.ConfigurationError.ToInt32(),
			"MSP ID not found for organization "+org, nil)
	}
	return o.MSPID, nil
}

// CAHostForOrganization returns the first CA of the organization
func (p *ConnectionProfile) CAHostForOrganization(org string) (string, error) {
	if p != nil {
		if o, ok := p.Organizations[strings.ToLower(org)]; ok && len(o.CertificateAuthorities) > 0 {
			return o.CertificateAuthorities[0], nil
		}
	}
	return "", status.New(status.ConfigStatus, status.ConfigurationError.ToInt32(),
		"no certificate authority configured for organization "+org, nil)
}
