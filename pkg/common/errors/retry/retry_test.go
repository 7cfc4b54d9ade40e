/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package retry

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/errors/status"
)

func TestRetryRequired(t *testing.T) {
	attempts := 3
	transientErr := status.New(status.HTTPTransportStatus, status.ConnectionFailed.ToInt32(), "", nil)
	nonTransientErr := status.New(status.FabricCAServerStatus, 20, "Authentication failure", nil)
	unknownErr := fmt.Errorf("Unknown")

	r := New(Opts{
		Attempts:       attempts,
		BackoffFactor:  2,
		InitialBackoff: 1 * time.Millisecond,
		MaxBackoff:     1 * time.Second,
	})
	for i := 1; i <= attempts; i++ {
		_, ok := r.Required(transientErr)
		assert.True(t, ok, "Expected retry to be required on transient error")
	}
	_, ok := r.Required(transientErr)
	assert.False(t, ok, "Expected retry to not be required after exhausting attempts")

	r = WithDefaults()
	_, ok = r.Required(nonTransientErr)
	assert.False(t, ok, "Expected retry to not be required on non-transient error")
	_, ok = r.Required(status.New(status.FabricCAServerStatus, http.StatusServiceUnavailable, "", nil))
	assert.True(t, ok)

	r = WithAttempts(2)
	_, ok = r.Required(unknownErr)
	assert.False(t, ok, "Expected retry to not be required on unknown error")

	r = WithAttempts(0)
	_, ok = r.Required(transientErr)
	assert.False(t, ok, "Expected retry to be disabled")
}

func TestBackoffPeriod(t *testing.T) {
	testAttempts := 10
	testBackoffFactor := 3.34
	testInitialBackoff := 2 * time.Second
	floatInitBackoff := float64(testInitialBackoff)
	testMaxBackoff := 30 * time.Second
	r := New(Opts{
		Attempts:       testAttempts,
		BackoffFactor:  testBackoffFactor,
		InitialBackoff: testInitialBackoff,
		MaxBackoff:     testMaxBackoff,
	})
	i := r.(*impl)
	assert.Equal(t, testInitialBackoff, i.backoffPeriod(), "Expected initial backoff on first attempt")
	i.retries = 1
	assert.Equal(t, time.Duration(floatInitBackoff*testBackoffFactor), i.backoffPeriod(),
		"Expected initial backoff multiplied by backoff factor on second attempt")
	i.retries = 2
	assert.Equal(t, time.Duration(floatInitBackoff*testBackoffFactor*testBackoffFactor),
		i.backoffPeriod(), "Expected exponential backoff")
	i.retries = 3
	assert.Equal(t, testMaxBackoff, i.backoffPeriod(), "Expected max backoff")

	backoff, ok := New(Opts{Attempts: 1, InitialBackoff: time.Second, MaxBackoff: time.Minute, BackoffFactor: 2}).
		Required(status.New(status.HTTPTransportStatus, status.ConnectionFailed.ToInt32(), "", nil))
	assert.True(t, ok)
	assert.Equal(t, time.Second, backoff)
}
