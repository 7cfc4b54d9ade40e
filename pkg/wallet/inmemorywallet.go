/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// inMemoryWalletStore keeps serialized identities in a map. It is not
// backed by a persistent store.
type inMemoryWalletStore struct {
	mutex   sync.RWMutex
	storage map[string][]byte
}

// NewInMemoryWallet creates an instance of a wallet, held in memory.
func NewInMemoryWallet(opts ...Option) *Wallet {
	return NewWalletWithStore(NewInMemoryStore(), opts...)
}

// NewInMemoryStore creates an empty in memory store
func NewInMemoryStore() Store {
	return &inMemoryWalletStore{storage: make(map[string][]byte, 10)}
}

func (s *inMemoryWalletStore) Put(_ context.Context, label string, content []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.storage[label] = append([]byte(nil), content...)
	return nil
}

func (s *inMemoryWalletStore) Insert(_ context.Context, label string, content []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.storage[label]; ok {
		return errors.Wrapf(ErrAlreadyExists, "label [%s]", label)
	}
	s.storage[label] = append([]byte(nil), content...)
	return nil
}

func (s *inMemoryWalletStore) Get(_ context.Context, label string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	content, ok := s.storage[label]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "label [%s]", label)
	}
	return append([]byte(nil), content...), nil
}

func (s *inMemoryWalletStore) Exists(_ context.Context, label string) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, ok := s.storage[label]
	return ok, nil
}

func (s *inMemoryWalletStore) List(context.Context) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	labels := make([]string, 0, len(s.storage))
	for label := range s.storage {
		labels = append(labels, label)
	}
	return labels, nil
}

func (s *inMemoryWalletStore) Remove(_ context.Context, label string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.storage, label)
	return nil
}
