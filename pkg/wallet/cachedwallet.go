/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"
)

const (
	defaultCacheCounters    = 1e4
	defaultCacheMaxCost     = 1 << 20
	defaultCacheBufferItems = 64
)

// cachedStore is a read-through cache in front of a slower store. Writes
// only invalidate. Backend writes and cache fills on a miss hold mutex, so
// a read that started before a write cannot cache the older content.
type cachedStore struct {
	Store
	cache *ristretto.Cache[string, []byte]
	mutex sync.Mutex
}

// NewCachedStore wraps store with a ristretto cache bounded by maxCost
// bytes (1 MiB when maxCost <= 0)
func NewCachedStore(store Store, maxCost int64) (Store, error) {
	if maxCost <= 0 {
		maxCost = defaultCacheMaxCost
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: defaultCacheCounters,
		MaxCost:     maxCost,
		BufferItems: defaultCacheBufferItems,
		Cost: func(value []byte) int64 {
			return int64(len(value))
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create wallet cache")
	}
	return &cachedStore{Store: store, cache: cache}, nil
}

func (c *cachedStore) invalidate(label string) {
	c.cache.Del(label)
	c.cache.Wait()
}

func (c *cachedStore) Put(ctx context.Context, label string, content []byte) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.invalidate(label)
	return c.Store.Put(ctx, label, content)
}

func (c *cachedStore) Insert(ctx context.Context, label string, content []byte) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.invalidate(label)
	return c.Store.Insert(ctx, label, content)
}

func (c *cachedStore) Get(ctx context.Context, label string) ([]byte, error) {
	if content, ok := c.cache.Get(label); ok {
		return content, nil
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	content, err := c.Store.Get(ctx, label)
	if err != nil {
		return nil, err
	}
	c.cache.Set(label, content, 0)
	c.cache.Wait()
	return content, nil
}

func (c *cachedStore) Exists(ctx context.Context, label string) (bool, error) {
	if _, ok := c.cache.Get(label); ok {
		return true, nil
	}
	return c.Store.Exists(ctx, label)
}

func (c *cachedStore) Remove(ctx context.Context, label string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer c.invalidate(label)
	return c.Store.Remove(ctx, label)
}

func (c *cachedStore) Close() error {
	c.cache.Close()
	if closer, ok := c.Store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
