/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package retry

import (
	"net/http"
	"time"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/errors/status"
)

const (
	// DefaultAttempts number of retry attempts made by default
	DefaultAttempts = 3
	// DefaultInitialBackoff default initial backoff
	DefaultInitialBackoff = 500 * time.Millisecond
	// DefaultMaxBackoff default maximum backoff
	DefaultMaxBackoff = 10 * time.Second
	// DefaultBackoffFactor default backoff factor
	DefaultBackoffFactor = 2.0
)

// DefaultOpts default retry options
var DefaultOpts = Opts{
	Attempts:       DefaultAttempts,
	InitialBackoff: DefaultInitialBackoff,
	MaxBackoff:     DefaultMaxBackoff,
	BackoffFactor:  DefaultBackoffFactor,
	RetryableCodes: DefaultRetryableCodes,
}

// DefaultRetryableCodes these are the error codes, grouped by source of error,
// that are considered to be transient error conditions by default. A CA
// that answers with its own error list is never retried.
var DefaultRetryableCodes = map[status.Group][]status.Code{
	status.HTTPTransportStatus: {
		status.ConnectionFailed,
		status.Code(http.StatusBadGateway),
		status.Code(http.StatusServiceUnavailable),
		status.Code(http.StatusGatewayTimeout),
	},
	status.FabricCAServerStatus: {
		status.Code(http.StatusBadGateway),
		status.Code(http.StatusServiceUnavailable),
		status.Code(http.StatusGatewayTimeout),
	},
}
