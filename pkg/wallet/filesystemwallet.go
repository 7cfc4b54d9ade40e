/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/hyperledger/fabric-ca-enroll/pkg/util/pathvar"
)

const dataFileExtension string = ".id"

// fileSystemWalletStore stores one .id file per identity, the layout used
// by the Fabric gateway SDKs
type fileSystemWalletStore struct {
	path string
}

// NewFileSystemWallet creates an instance of a wallet, backed by files on the filesystem
//  Parameters:
//  path specifies where on the filesystem to store the wallet.
//
//  Returns:
//  A Wallet object.
func NewFileSystemWallet(path string, opts ...Option) (*Wallet, error) {
	store, err := NewFileSystemStore(path)
	if err != nil {
		return nil, err
	}
	return NewWalletWithStore(store, opts...), nil
}

// NewFileSystemStore creates the directory if needed and returns a store over it
func NewFileSystemStore(path string) (Store, error) {
	if path == "" {
		return nil, errors.New("wallet path is empty")
	}
	cleanPath := filepath.Clean(pathvar.Subst(path))
	if err := os.MkdirAll(cleanPath, 0700); err != nil {
		return nil, errors.Wrapf(err, "failed to create wallet directory [%s]", cleanPath)
	}
	return &fileSystemWalletStore{cleanPath}, nil
}

func (fsw *fileSystemWalletStore) pathname(label string) string {
	return filepath.Join(fsw.path, label) + dataFileExtension
}

// Put writes a temporary file and renames it over the identity file
func (fsw *fileSystemWalletStore) Put(_ context.Context, label string, content []byte) error {
	tmp, err := fsw.writeTemp(content)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, fsw.pathname(label)); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "failed to write identity [%s]", label)
	}
	return nil
}

// Insert hard links a fully written temporary file to the identity file.
// Link fails if the target exists, so no reader sees a partial file and no
// writer replaces an existing identity.
func (fsw *fileSystemWalletStore) Insert(_ context.Context, label string, content []byte) error {
	tmp, err := fsw.writeTemp(content)
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp)
	}()

	if err := os.Link(tmp, fsw.pathname(label)); err != nil {
		if os.IsExist(err) {
			return errors.Wrapf(ErrAlreadyExists, "label [%s]", label)
		}
		return errors.Wrapf(err, "failed to write identity [%s]", label)
	}
	return nil
}

func (fsw *fileSystemWalletStore) writeTemp(content []byte) (string, error) {
	f, err := os.CreateTemp(fsw.path, ".tmp-*")
	if err != nil {
		return "", errors.Wrap(err, "failed to create temporary identity file")
	}
	name := f.Name()

	if _, err := f.Write(content); err != nil {
		_ = f.Close() // ignore error; Write error takes precedence
		_ = os.Remove(name)
		return "", errors.Wrap(err, "failed to write temporary identity file")
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", errors.Wrap(err, "failed to sync temporary identity file")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", errors.Wrap(err, "failed to close temporary identity file")
	}
	return name, nil
}

// Get an identity from the wallet.
func (fsw *fileSystemWalletStore) Get(_ context.Context, label string) ([]byte, error) {
	content, err := os.ReadFile(fsw.pathname(label))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "label [%s]", label)
		}
		return nil, errors.Wrapf(err, "failed to read identity [%s]", label)
	}
	return content, nil
}

// Remove an identity from the wallet. If the identity does not exist, this method does nothing.
func (fsw *fileSystemWalletStore) Remove(_ context.Context, label string) error {
	if err := os.Remove(fsw.pathname(label)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove identity [%s]", label)
	}
	return nil
}

// Exists tests the existence of an identity in the wallet.
func (fsw *fileSystemWalletStore) Exists(_ context.Context, label string) (bool, error) {
	_, err := os.Stat(fsw.pathname(label))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "failed to stat identity [%s]", label)
}

// List all of the labels in the wallet.
func (fsw *fileSystemWalletStore) List(context.Context) ([]string, error) {
	files, err := os.ReadDir(fsw.path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read wallet directory [%s]", fsw.path)
	}

	labels := []string{}
	for _, file := range files {
		name := file.Name()
		if file.Type().IsRegular() && filepath.Ext(name) == dataFileExtension && !strings.HasPrefix(name, ".") {
			labels = append(labels, strings.TrimSuffix(name, dataFileExtension))
		}
	}
	return labels, nil
}
