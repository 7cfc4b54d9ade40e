/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// ErrUnknownIdentityType is returned when no provider handles an identity type
var ErrUnknownIdentityType = errors.New("no identity provider for identity type")

// IdentityProvider turns a stored identity into an actor able to sign on
// behalf of that identity
type IdentityProvider interface {
	Type() string
	UserContext(ctx context.Context, identity Identity, label string) (*Actor, error)
}

// ProviderRegistry is the table of identity providers keyed by identity type
type ProviderRegistry struct {
	mutex     sync.RWMutex
	providers map[string]IdentityProvider
}

// NewProviderRegistry creates a registry holding the given providers
func NewProviderRegistry(providers ...IdentityProvider) *ProviderRegistry {
	r := &ProviderRegistry{providers: make(map[string]IdentityProvider, len(providers))}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// DefaultProviderRegistry holds the X.509 provider and an HSM provider
// without a PKCS#11 library. Use NewHSMX509Provider with options and
// Register to enable HSM identities.
func DefaultProviderRegistry() *ProviderRegistry {
	return NewProviderRegistry(NewX509Provider(), NewHSMX509Provider(HSMOptions{}))
}

// Register adds or replaces the provider for its identity type
func (r *ProviderRegistry) Register(p IdentityProvider) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.providers[p.Type()] = p
}

// Provider returns the provider for the identity type
func (r *ProviderRegistry) Provider(idType string) (IdentityProvider, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	p, ok := r.providers[idType]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownIdentityType, "type [%s]", idType)
	}
	return p, nil
}

// Types returns the registered identity types, sorted
func (r *ProviderRegistry) Types() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	types := make([]string, 0, len(r.providers))
	for t := range r.providers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Close releases providers holding external resources
func (r *ProviderRegistry) Close() {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	for _, p := range r.providers {
		if c, ok := p.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
