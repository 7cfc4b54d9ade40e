/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"github.com/hyperledger/fabric-ca-enroll/pkg/common/providers/core"
	"github.com/hyperledger/fabric-ca-enroll/pkg/core/config/lookup"
)

// Config defines a metric configuration used along the operation system config
type Config struct {
	// Provider : prometheus or disabled
	Provider string
}

// ConfigFromBackend reads the metrics section
func ConfigFromBackend(backends ...core.ConfigBackend) *Config {
	return &Config{
		Provider: lookup.New(backends...).GetLowerString("metrics.provider"),
	}
}
