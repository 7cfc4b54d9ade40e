/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package enroll

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/errors/status"
	"github.com/hyperledger/fabric-ca-enroll/pkg/enroll/mocks"
	"github.com/hyperledger/fabric-ca-enroll/pkg/wallet"
)

func newLockTestEnroller(t *testing.T) *Enroller {
	t.Helper()
	mockCtrl := gomock.NewController(t)
	e, err := New(&Config{
		AdminID:            "admin",
		AdminSecret:        "adminpw",
		MSPID:              "Org1MSP",
		DefaultAffiliation: "org1.department1",
	}, mocks.NewMockCAClient(mockCtrl), wallet.NewInMemoryWallet())
	require.NoError(t, err)
	return e
}

func TestLocksReleasedAfterFailedAttempts(t *testing.T) {
	e := newLockTestEnroller(t)
	ctx := context.Background()

	// no admin in the wallet, so every attempt fails after taking the lock
	for i := 0; i < 10000; i++ {
		_, err := e.EnsureUserEnrolled(ctx, &UserRequest{UserID: fmt.Sprintf("user%d", i), Role: "client"})
		require.Error(t, err)
		require.True(t, status.Is(err, status.PreconditionFailed))
	}
	assert.Equal(t, 0, e.locks.Len())
}

func TestLockTimeoutReleasesEntry(t *testing.T) {
	e := newLockTestEnroller(t)

	release, err := e.lock(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, e.locks.Len())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = e.EnsureUserEnrolled(ctx, &UserRequest{UserID: "alice", Role: "client"})
	require.Error(t, err)
	assert.True(t, status.Is(err, status.Timeout))
	assert.Equal(t, 1, e.locks.Len(), "entry is kept for the holder")

	release()
	release()
	assert.Equal(t, 0, e.locks.Len())
}

func TestLockHandOver(t *testing.T) {
	e := newLockTestEnroller(t)

	release, err := e.lock(context.Background(), "alice")
	require.NoError(t, err)

	acquired := make(chan func())
	go func() {
		next, err := e.lock(context.Background(), "alice")
		assert.NoError(t, err)
		acquired <- next
	}()

	select {
	case <-acquired:
		t.Fatal("second caller acquired a held lock")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	var next func()
	select {
	case next = <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("second caller never acquired the lock")
	}
	assert.Equal(t, 1, e.locks.Len(), "waiter keeps the entry alive")

	next()
	assert.Equal(t, 0, e.locks.Len())
}
