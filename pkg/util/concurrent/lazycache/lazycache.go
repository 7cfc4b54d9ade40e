/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package lazycache

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/logging"
	"github.com/hyperledger/fabric-ca-enroll/pkg/util/concurrent/futurevalue"
)

var logger = logging.NewLogger("enroll/common")

// EntryInitializer creates a cache value for the given key
type EntryInitializer[K comparable, V any] func(key K) (V, error)

type closable interface {
	Close()
}

// Cache implements a lazy initializing cache. A cache entry is created
// the first time a value is accessed (via Get or MustGet) by invoking
// the provided Initializer. If the Initializer returns an error then the
// entry will not be added.
type Cache[K comparable, V any] struct {
	// name is useful for debugging
	name        string
	m           sync.Map
	initializer EntryInitializer[K, V]
	closed      atomic.Bool

	refMutex sync.Mutex
	refs     map[K]int
}

// New creates a new lazy cache with the given name
// (Note that the name is only used for debugging purpose)
func New[K comparable, V any](name string, initializer EntryInitializer[K, V]) *Cache[K, V] {
	return &Cache[K, V]{
		name:        name,
		initializer: initializer,
	}
}

// Name returns the name of the cache (useful for debugging)
func (c *Cache[K, V]) Name() string {
	return c.name
}

// Get returns the value for the given key. If the
// key doesn't exist then the initializer is invoked
// to create the value, and the key is inserted. If the
// initializer returns an error then the key is removed
// from the cache.
func (c *Cache[K, V]) Get(key K) (V, error) {
	f, ok := c.m.Load(key)
	if ok {
		return f.(*futurevalue.Value[V]).Get()
	}

	// The key wasn't found. Attempt to add one.
	newFuture := futurevalue.New(
		func() (V, error) {
			if c.closed.Load() {
				var empty V
				return empty, errors.Errorf("%s - cache is closed", c.name)
			}
			return c.initializer(key)
		},
	)

	f, loaded := c.m.LoadOrStore(key, newFuture)
	if loaded {
		// Another goroutine has added the key before us. Return the value.
		return f.(*futurevalue.Value[V]).Get()
	}

	// We added the key. It must be initialized.
	value, err := newFuture.Initialize()
	if err != nil {
		logger.Debugf("%s - Failed to initialize key [%v]: %s. Deleting key.", c.name, key, err)
		c.m.Delete(key)
	}
	return value, err
}

// MustGet returns the value for the given key. If an error is returned
// during initialization of the value then this function will panic.
func (c *Cache[K, V]) MustGet(key K) V {
	value, err := c.Get(key)
	if err != nil {
		panic(fmt.Sprintf("error returned from Get: %s", err))
	}
	return value
}

// Acquire returns the value for key like Get and holds a reference to the
// entry until the returned release is called. The entry is deleted when
// its last reference is released, so entries taken only through Acquire
// live as long as someone holds them. Release is idempotent.
func (c *Cache[K, V]) Acquire(key K) (V, func(), error) {
	c.refMutex.Lock()
	defer c.refMutex.Unlock()

	value, err := c.Get(key)
	if err != nil {
		return value, func() {}, err
	}
	if c.refs == nil {
		c.refs = make(map[K]int)
	}
	c.refs[key]++

	var once sync.Once
	return value, func() { once.Do(func() { c.release(key) }) }, nil
}

func (c *Cache[K, V]) release(key K) {
	c.refMutex.Lock()
	defer c.refMutex.Unlock()

	c.refs[key]--
	if c.refs[key] > 0 {
		return
	}
	delete(c.refs, key)
	c.Delete(key)
}

// Delete removes the entry for the given key. Values that implement
// Close are closed.
func (c *Cache[K, V]) Delete(key K) {
	if f, ok := c.m.LoadAndDelete(key); ok {
		c.close(key, f.(*futurevalue.Value[V]))
	}
}

// Len returns the number of entries in the cache
func (c *Cache[K, V]) Len() int {
	n := 0
	c.m.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// Close does the following:
// - calls Close on all values that implement a Close() function
// - deletes all entries from the cache
// - prevents further calls to the cache
func (c *Cache[K, V]) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		// Already closed
		return
	}

	logger.Debugf("%s - Closing cache", c.name)

	c.m.Range(func(key interface{}, value interface{}) bool {
		c.m.Delete(key)
		c.close(key.(K), value.(*futurevalue.Value[V]))
		return true
	})
}

func (c *Cache[K, V]) close(key K, f *futurevalue.Value[V]) {
	if !f.IsSet() {
		logger.Debugf("%s - Reference for [%v] is not set", c.name, key)
		return
	}
	value, err := f.Get()
	if err != nil {
		return
	}
	if clos, ok := any(value).(closable); ok {
		logger.Debugf("%s - Invoking Close on value for key [%v].", c.name, key)
		clos.Close()
	}
}
