/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package futurevalue

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Initializer initializes the value
type Initializer[V any] func() (V, error)

// valueHolder holds the actual value
type valueHolder[V any] struct {
	value V
	err   error
}

// Value implements a Future Value in which a reference is initialized once
// (and only once) using the Initialize function. Only one Go routine can call
// Initialize whereas multiple Go routines may invoke Get, and will wait
// until the reference has been initialized.
// Regardless of whether Initialize returns success or error,
// the value cannot be initialized again.
type Value[V any] struct {
	mutex       sync.RWMutex
	ref         atomic.Pointer[valueHolder[V]]
	initializer Initializer[V]
}

// New returns a new future value
func New[V any](initializer Initializer[V]) *Value[V] {
	f := &Value[V]{
		initializer: initializer,
	}
	f.mutex.Lock()
	return f
}

// Initialize initializes the future value.
// This function must be called only once. Subsequent
// calls may result in deadlock.
func (f *Value[V]) Initialize() (V, error) {
	value, err := f.initializer()
	f.ref.Store(&valueHolder[V]{value: value, err: err})
	f.mutex.Unlock()

	return value, err
}

// Get returns the value and/or error that occurred during initialization.
func (f *Value[V]) Get() (V, error) {
	// Try outside of a lock
	if holder := f.ref.Load(); holder != nil {
		return holder.value, holder.err
	}

	f.mutex.RLock()
	defer f.mutex.RUnlock()

	holder := f.ref.Load()
	return holder.value, holder.err
}

// MustGet returns the value. If an error resulted
// during initialization then this function will panic.
func (f *Value[V]) MustGet() V {
	value, err := f.Get()
	if err != nil {
		panic(fmt.Sprintf("get returned error: %s", err))
	}
	return value
}

// IsSet returns true if the value has been set, otherwise false is returned
func (f *Value[V]) IsSet() bool {
	return f.ref.Load() != nil
}
