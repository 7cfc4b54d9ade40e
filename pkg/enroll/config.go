/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package enroll

import (
	"github.com/hyperledger/fabric-ca-enroll/pkg/ca"
	"github.com/hyperledger/fabric-ca-enroll/pkg/common/errors/status"
	"github.com/hyperledger/fabric-ca-enroll/pkg/common/providers/core"
	"github.com/hyperledger/fabric-ca-enroll/pkg/core/config/lookup"
)

const (
	defaultAdminID       = "admin"
	defaultClientType    = "client"
	defaultRoleAttribute = "role"
)

// Config holds the deployment constants of the enrollment workflows
type Config struct {
	// CAHost is the connection profile entry of the CA to use
	CAHost string
	// AdminID and AdminSecret are the bootstrap credentials of the CA
	// administrator
	AdminID     string
	AdminSecret string
	// AdminLabel is the wallet label reserved for the administrator,
	// AdminID by default
	AdminLabel string
	MSPID      string
	// DefaultAffiliation is used when a request carries no affiliation
	DefaultAffiliation string
	// ClientType is the identity type registered for users
	ClientType string
	// RoleAttribute is the certificate attribute carrying the user role
	RoleAttribute string
	// Policy is an optional admission expression over role, affiliation
	// and userId
	Policy string
}

// ConfigFromBackend reads the enrollment section. Missing values are taken
// from the connection profile: the CA and MSP of client.organization and
// the registrar credentials of that CA.
func ConfigFromBackend(backends ...core.ConfigBackend) (*Config, error) {
	l := lookup.New(backends...)

	cfg := &Config{}
	if err := l.UnmarshalKey("enrollment", cfg); err != nil {
		return nil, status.Wrap(err, status.ConfigStatus, status.ConfigurationError, "failed to parse enrollment configuration")
	}

	org := l.GetString("client.organization")
	if org != "" && (cfg.CAHost == "" || cfg.MSPID == "" || cfg.AdminSecret == "") {
		profile, err := ca.ProfileFromBackend(backends...)
		if err != nil {
			return nil, err
		}
		if cfg.MSPID == "" {
			cfg.MSPID, _ = profile.MSPID(org)
		}
		if cfg.CAHost == "" {
			cfg.CAHost, _ = profile.CAHostForOrganization(org)
		}
		if caConfig, ok := profile.CAConfig(cfg.CAHost); ok {
			if cfg.AdminID == "" {
				cfg.AdminID = caConfig.Registrar.EnrollID
			}
			if cfg.AdminSecret == "" {
				cfg.AdminSecret = caConfig.Registrar.EnrollSecret
			}
		}
	}

	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.AdminID == "" {
		c.AdminID = defaultAdminID
	}
	if c.AdminLabel == "" {
		c.AdminLabel = c.AdminID
	}
	if c.ClientType == "" {
		c.ClientType = defaultClientType
	}
	if c.RoleAttribute == "" {
		c.RoleAttribute = defaultRoleAttribute
	}
}

// Validate checks the values both workflows depend on
func (c *Config) Validate() error {
	if c.MSPID == "" {
		return status.New(status.ConfigStatus, status.ConfigurationError.ToInt32(), "enrollment MSP ID is not configured", nil)
	}
	if c.AdminLabel == "" {
		return status.New(status.ConfigStatus, status.ConfigurationError.ToInt32(), "admin label is not configured", nil)
	}
	return nil
}
