/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/errors/multi"
	"github.com/hyperledger/fabric-ca-enroll/pkg/common/errors/status"
)

func testOpts() Opts {
	return Opts{
		Attempts:       3,
		BackoffFactor:  2,
		InitialBackoff: 1 * time.Millisecond,
		MaxBackoff:     1 * time.Second,
	}
}

func transient() error {
	return status.New(status.HTTPTransportStatus, status.ConnectionFailed.ToInt32(), "connection refused", nil)
}

func TestInvokeSuccess(t *testing.T) {
	attempt := 0
	expectedResp := "invoked"
	invoker := NewInvoker(New(testOpts()))
	resp, err := invoker.Invoke(context.Background(),
		func() (interface{}, error) {
			attempt++
			if attempt == 1 {
				return nil, transient()
			}
			return expectedResp, nil
		},
	)

	assert.NoError(t, err, "Not expecting error")
	assert.Equal(t, expectedResp, resp)
	assert.Equal(t, 2, attempt)
}

func TestInvokeError(t *testing.T) {
	attempt := 0
	expectedResp := "invoked"
	exepectedErr := status.New(status.FabricCAServerStatus, 74, "Identity 'alice' is already registered", nil)
	invoker := NewInvoker(New(testOpts()))
	resp, err := invoker.Invoke(context.Background(),
		func() (interface{}, error) {
			attempt++
			if attempt == 1 {
				return nil, transient()
			}
			if attempt == 2 {
				return nil, exepectedErr
			}
			return expectedResp, nil
		},
	)

	assert.EqualError(t, err, exepectedErr.Error())
	assert.Nil(t, resp)
	assert.Equal(t, 2, attempt)
}

func TestInvokeMultiErrors(t *testing.T) {
	attempt := 0
	invoker := NewInvoker(New(testOpts()))
	_, err := invoker.Invoke(context.Background(),
		func() (interface{}, error) {
			attempt++
			return nil, multi.New(status.New(status.FabricCAServerStatus, 20, "", nil), transient())
		},
	)

	assert.Error(t, err)
	assert.Equal(t, 4, attempt)
}

func TestInvokeWithBeforeRetry(t *testing.T) {
	beforeRetryHandlerCalled := 0
	attempt := 0
	expectedResp := "invoked"
	invoker := NewInvoker(New(testOpts()), WithBeforeRetry(
		func(err error) {
			beforeRetryHandlerCalled++
		},
	))
	resp, err := invoker.Invoke(context.Background(),
		func() (interface{}, error) {
			attempt++
			if attempt == 1 {
				return nil, transient()
			}
			return expectedResp, nil
		},
	)

	assert.NoError(t, err, "Not expecting error")
	assert.Equal(t, expectedResp, resp)
	assert.Equal(t, 2, attempt)
	assert.Equal(t, 1, beforeRetryHandlerCalled)
}

func TestInvokeCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	invoker := NewInvoker(New(Opts{Attempts: 3, InitialBackoff: time.Hour, MaxBackoff: time.Hour, BackoffFactor: 1}), WithBeforeRetry(
		func(error) { cancel() },
	))

	_, err := invoker.Invoke(ctx, func() (interface{}, error) { return nil, transient() })
	assert.True(t, status.Is(err, status.Timeout))
	assert.ErrorIs(t, err, context.Canceled)
}
