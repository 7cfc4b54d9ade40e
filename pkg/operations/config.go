/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operations

import (
	"time"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/providers/core"
	"github.com/hyperledger/fabric-ca-enroll/pkg/core/config/lookup"
)

const (
	defaultListenAddress   = "127.0.0.1:9443"
	defaultRequestTimeout  = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Config holds the operations server settings
type Config struct {
	ListenAddress string
	// RequestTimeout bounds each enrollment request, including CA calls
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	// AuthToken is the bearer token required by the identity endpoints.
	// Empty leaves them open to anyone who reaches the listener.
	AuthToken string
}

// ConfigFromBackend reads the operations section
func ConfigFromBackend(backends ...core.ConfigBackend) *Config {
	l := lookup.New(backends...)
	cfg := &Config{
		ListenAddress:   l.GetStringOr("operations.listenAddress", defaultListenAddress),
		RequestTimeout:  l.GetDurationOr("operations.requestTimeout", defaultRequestTimeout),
		ShutdownTimeout: l.GetDurationOr("operations.shutdownTimeout", defaultShutdownTimeout),
		AuthToken:       l.GetStringOr("operations.authToken", ""),
	}
	return cfg
}
