/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedStore holds the first Get after the backend read until proceed is closed
type gatedStore struct {
	Store
	once    sync.Once
	read    chan struct{}
	proceed chan struct{}
}

func (g *gatedStore) Get(ctx context.Context, label string) ([]byte, error) {
	content, err := g.Store.Get(ctx, label)
	g.once.Do(func() {
		close(g.read)
		<-g.proceed
	})
	return content, err
}

func TestCachedStoreReadDuringPut(t *testing.T) {
	ctx := context.Background()
	backend := NewInMemoryStore()
	require.NoError(t, backend.Put(ctx, "alice", []byte("v1")))

	gated := &gatedStore{Store: backend, read: make(chan struct{}), proceed: make(chan struct{})}
	store, err := NewCachedStore(gated, 0)
	require.NoError(t, err)
	defer store.(*cachedStore).Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		content, err := store.Get(ctx, "alice")
		assert.NoError(t, err)
		assert.Equal(t, []byte("v1"), content)
	}()
	<-gated.read

	putDone := make(chan struct{})
	go func() {
		defer wg.Done()
		defer close(putDone)
		assert.NoError(t, store.Put(ctx, "alice", []byte("v2")))
	}()

	select {
	case <-putDone:
		t.Fatal("write completed while a cache fill of the older content was in progress")
	case <-time.After(50 * time.Millisecond):
	}
	close(gated.proceed)
	wg.Wait()

	content, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), content)
}

func TestCachedStoreWritesInvalidate(t *testing.T) {
	ctx := context.Background()
	store, err := NewCachedStore(NewInMemoryStore(), 0)
	require.NoError(t, err)

	require.NoError(t, store.Insert(ctx, "bob", []byte("v1")))
	content, err := store.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), content)

	require.NoError(t, store.Put(ctx, "bob", []byte("v2")))
	content, err = store.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), content)

	require.NoError(t, store.Remove(ctx, "bob"))
	_, err = store.Get(ctx, "bob")
	assert.True(t, IsNotFound(err))

	exists, err := store.Exists(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, exists)
}
