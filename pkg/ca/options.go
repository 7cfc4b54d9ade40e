/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ca

import (
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/errors/retry"
	"github.com/hyperledger/fabric-ca-enroll/pkg/common/providers/core"
	"github.com/hyperledger/fabric-ca-enroll/pkg/core/config/lookup"
)

const defaultTimeout = 30 * time.Second

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	csrHosts   []string
	retry      retry.Opts
}

// Option configures the CA client
type Option func(opts *options) error

// WithHTTPClient uses the given client instead of one built from the
// connection profile TLS settings
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) error {
		if client == nil {
			return errors.New("HTTP client is nil")
		}
		o.httpClient = client
		return nil
	}
}

// WithTimeout bounds each request to the CA
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) error {
		if timeout <= 0 {
			return errors.Errorf("invalid timeout %s", timeout)
		}
		o.timeout = timeout
		return nil
	}
}

// WithCSRHosts sets the SANs requested in every CSR. The local host name
// is requested otherwise.
func WithCSRHosts(hosts ...string) Option {
	return func(o *options) error {
		o.csrHosts = hosts
		return nil
	}
}

// WithRetry retries requests that failed with a transient error, such as a
// refused connection or a 503 from a proxy. Requests are not retried by
// default.
func WithRetry(opts retry.Opts) Option {
	return func(o *options) error {
		if opts.Attempts < 0 {
			return errors.Errorf("invalid retry attempts %d", opts.Attempts)
		}
		o.retry = opts
		return nil
	}
}

// RetryOptsFromBackend reads client.caRetry. Unset fields take the retry
// package defaults; attempts default to 0.
func RetryOptsFromBackend(backends ...core.ConfigBackend) (retry.Opts, error) {
	opts := retry.Opts{
		InitialBackoff: retry.DefaultInitialBackoff,
		MaxBackoff:     retry.DefaultMaxBackoff,
		BackoffFactor:  retry.DefaultBackoffFactor,
	}
	if err := lookup.New(backends...).UnmarshalKey("client.caRetry", &opts); err != nil {
		return retry.Opts{}, errors.Wrap(err, "failed to parse client.caRetry")
	}
	return opts, nil
}
