/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/logging"
)

var logger = logging.NewLogger("enroll/wallet")

// A Wallet stores identity information used to connect to a Hyperledger Fabric network.
// Instances are created using factory methods on the implementing objects.
type Wallet struct {
	store    Store
	registry *ProviderRegistry
}

// Option configures a wallet
type Option func(w *Wallet)

// WithProviderRegistry replaces the default identity provider registry
func WithProviderRegistry(registry *ProviderRegistry) Option {
	return func(w *Wallet) {
		w.registry = registry
	}
}

// NewWalletWithStore creates a wallet over a custom store
func NewWalletWithStore(store Store, opts ...Option) *Wallet {
	w := &Wallet{store: store}
	for _, opt := range opts {
		opt(w)
	}
	if w.registry == nil {
		w.registry = DefaultProviderRegistry()
	}
	return w
}

// Put an identity into the wallet, replacing any identity with the same label
//  Parameters:
//  label specifies the name to be associated with the identity.
//  id specifies the identity to store in the wallet.
//
func (w *Wallet) Put(ctx context.Context, label string, id Identity) error {
	content, err := w.encode(label, id)
	if err != nil {
		return err
	}
	return w.store.Put(ctx, label, content)
}

// Insert puts an identity into the wallet only if the label is free.
// ErrAlreadyExists is returned otherwise and the stored identity is left
// untouched.
func (w *Wallet) Insert(ctx context.Context, label string, id Identity) error {
	content, err := w.encode(label, id)
	if err != nil {
		return err
	}
	return w.store.Insert(ctx, label, content)
}

func (w *Wallet) encode(label string, id Identity) ([]byte, error) {
	if err := ValidateLabel(label); err != nil {
		return nil, err
	}
	if id == nil {
		return nil, errors.Errorf("no identity given for label [%s]", label)
	}
	return id.toJSON()
}

// Get an identity from the wallet. The implementation class of the identity object will vary depending on its type.
//  Parameters:
//  label specifies the name of the identity in the wallet.
//
//  Returns:
//  The identity object, or an error satisfying IsNotFound.
func (w *Wallet) Get(ctx context.Context, label string) (Identity, error) {
	if err := ValidateLabel(label); err != nil {
		return nil, err
	}
	content, err := w.store.Get(ctx, label)
	if err != nil {
		return nil, err
	}
	return decodeIdentity(content)
}

func decodeIdentity(content []byte) (Identity, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, errors.Wrap(err, "Invalid identity format")
	}

	idType, ok := data["type"].(string)
	if !ok {
		return nil, errors.New("Invalid identity format: missing type property")
	}

	var id Identity
	switch idType {
	case X509Type:
		id = &X509Identity{}
	case HSMX509Type:
		id = &Hsmx509Identity{}
	default:
		return nil, errors.New("Invalid identity format: unsupported identity type: " + idType)
	}

	return id.fromJSON(content)
}

// List returns the labels of all identities in the wallet, sorted.
func (w *Wallet) List(ctx context.Context) ([]string, error) {
	labels, err := w.store.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(labels)
	return labels, nil
}

// Exists tests whether the wallet contains an identity for the given label.
func (w *Wallet) Exists(ctx context.Context, label string) (bool, error) {
	if err := ValidateLabel(label); err != nil {
		return false, err
	}
	return w.store.Exists(ctx, label)
}

// Remove an identity from the wallet. If the identity does not exist, this method does nothing.
func (w *Wallet) Remove(ctx context.Context, label string) error {
	if err := ValidateLabel(label); err != nil {
		return err
	}
	return w.store.Remove(ctx, label)
}

// ProviderRegistry returns the identity providers used to turn stored
// identities into signing actors
func (w *Wallet) ProviderRegistry() *ProviderRegistry {
	return w.registry
}

// Close releases the store and provider resources
func (w *Wallet) Close() error {
	w.registry.Close()
	if c, ok := w.store.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
