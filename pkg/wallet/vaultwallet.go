/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"path"
	"strings"

	"github.com/hashicorp/vault/api"
	"github.com/pkg/errors"
)

const defaultVaultMount = "secret"

// VaultOptions locate the KV version 2 secrets engine holding the wallet
type VaultOptions struct {
	Address string
	Token   string
	// Mount is the KV engine mount, "secret" by default
	Mount string
	// Path is the folder under the mount holding one secret per identity
	Path string
}

// vaultWalletStore stores identity information as KV v2 secrets.
// Insert uses check-and-set with version 0, which Vault only accepts when
// the secret does not exist.
type vaultWalletStore struct {
	mount  string
	path   string
	client *api.Logical
}

// NewVaultWallet creates an instance of a wallet, backed by key/values in Vault
func NewVaultWallet(opts VaultOptions, walletOpts ...Option) (*Wallet, error) {
	store, err := NewVaultStore(opts)
	if err != nil {
		return nil, err
	}
	return NewWalletWithStore(store, walletOpts...), nil
}

// NewVaultStore creates a store over a Vault KV v2 engine
func NewVaultStore(opts VaultOptions) (Store, error) {
	if opts.Path == "" {
		return nil, errors.New("vault wallet path is empty")
	}
	if opts.Token == "" {
		return nil, errors.New("token is empty")
	}

	vaultConfig := api.DefaultConfig()
	if opts.Address != "" {
		vaultConfig.Address = opts.Address
	}
	if vaultConfig.Error != nil {
		return nil, errors.Wrap(vaultConfig.Error, "invalid Vault configuration")
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, errors.Wrap(err, "can't create Vault client")
	}
	client.SetToken(opts.Token)

	mount := strings.Trim(opts.Mount, "/")
	if mount == "" {
		mount = defaultVaultMount
	}
	return &vaultWalletStore{mount: mount, path: strings.Trim(opts.Path, "/"), client: client.Logical()}, nil
}

func (vs *vaultWalletStore) dataPath(label string) string {
	return path.Join(vs.mount, "data", vs.path, label)
}

func (vs *vaultWalletStore) metadataPath(label string) string {
	return path.Join(vs.mount, "metadata", vs.path, label)
}

// Put an identity into the wallet.
func (vs *vaultWalletStore) Put(ctx context.Context, label string, content []byte) error {
	return vs.write(ctx, label, content, nil)
}

// Insert an identity only if the secret has no version yet
func (vs *vaultWalletStore) Insert(ctx context.Context, label string, content []byte) error {
	return vs.write(ctx, label, content, map[string]interface{}{"cas": 0})
}

func (vs *vaultWalletStore) write(ctx context.Context, label string, content []byte, options map[string]interface{}) error {
	var data map[string]interface{}
	if err := json.Unmarshal(content, &data); err != nil {
		return errors.Wrap(err, "identity content is not a JSON object")
	}
	body := map[string]interface{}{"data": data}
	if options != nil {
		body["options"] = options
	}

	if _, err := vs.client.WriteWithContext(ctx, vs.dataPath(label), body); err != nil {
		if options != nil && isCheckAndSetFailure(err) {
			return errors.Wrapf(ErrAlreadyExists, "label [%s]", label)
		}
		return errors.Wrapf(err, "can't write identity [%s] to Vault", label)
	}
	return nil
}

func isCheckAndSetFailure(err error) bool {
	var respErr *api.ResponseError
	if !errors.As(err, &respErr) || respErr.StatusCode != http.StatusBadRequest {
		return false
	}
	for _, e := range respErr.Errors {
		if strings.Contains(e, "check-and-set") {
			return true
		}
	}
	return false
}

// Get an identity from the wallet.
func (vs *vaultWalletStore) Get(ctx context.Context, label string) ([]byte, error) {
	secret, err := vs.client.ReadWithContext(ctx, vs.dataPath(label))
	if err != nil {
		return nil, errors.Wrapf(err, "can't read identity [%s] from Vault", label)
	}
	if secret == nil || secret.Data == nil {
		return nil, errors.Wrapf(ErrNotFound, "label [%s]", label)
	}
	// a deleted version is returned with null data
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok || data == nil {
		return nil, errors.Wrapf(ErrNotFound, "label [%s]", label)
	}

	serializedIdentity, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "Can't to serialize identity")
	}
	return serializedIdentity, nil
}

// Remove deletes all versions and the metadata of the identity secret.
func (vs *vaultWalletStore) Remove(ctx context.Context, label string) error {
	if _, err := vs.client.DeleteWithContext(ctx, vs.metadataPath(label)); err != nil {
		return errors.Wrapf(err, "can't delete identity [%s] from Vault", label)
	}
	return nil
}

// Exists tests the existence of an identity in the wallet.
func (vs *vaultWalletStore) Exists(ctx context.Context, label string) (bool, error) {
	_, err := vs.Get(ctx, label)
	if err == nil {
		return true, nil
	}
	if IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// List all of the labels in the wallet.
func (vs *vaultWalletStore) List(ctx context.Context) ([]string, error) {
	data, err := vs.client.ListWithContext(ctx, path.Join(vs.mount, "metadata", vs.path))
	if err != nil {
		return nil, errors.Wrap(err, "can't list identities in Vault")
	}
	labels := []string{}
	if data == nil || data.Data == nil {
		return labels, nil
	}

	keys, ok := data.Data["keys"].([]interface{})
	if !ok {
		return nil, errors.New("can't to cast empty interfaces array from Vault to strings array")
	}
	for _, keyvalue := range keys {
		keyvalueStr, ok := keyvalue.(string)
		if !ok {
			return nil, errors.New("can't to cast value from Vault to string")
		}
		// folders end with a slash
		if strings.HasSuffix(keyvalueStr, "/") {
			continue
		}
		labels = append(labels, keyvalueStr)
	}
	return labels, nil
}
