/*
Copyright 2020 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when no identity is stored under a label
	ErrNotFound = errors.New("identity not found")
	// ErrAlreadyExists is returned by Insert when the label is taken
	ErrAlreadyExists = errors.New("identity already exists")
)

// Store is the persistence behind a Wallet. Content is the serialized
// identity. Implementations must be safe for concurrent use, and Insert
// must be atomic with respect to every other writer of the same backend.
type Store interface {
	// Put writes content under label, replacing any existing content
	Put(ctx context.Context, label string, content []byte) error
	// Insert writes content under label only if the label is absent,
	// otherwise it returns ErrAlreadyExists
	Insert(ctx context.Context, label string, content []byte) error
	// Get returns the content stored under label or ErrNotFound
	Get(ctx context.Context, label string) ([]byte, error)
	// Exists tests whether label is present
	Exists(ctx context.Context, label string) (bool, error)
	// List returns all labels
	List(ctx context.Context) ([]string, error)
	// Remove deletes label. Removing an absent label is not an error.
	Remove(ctx context.Context, label string) error
}

// IsNotFound reports whether err means the identity is absent
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists reports whether err means the label is already taken
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// ValidateLabel rejects labels that cannot be stored. Labels end up in
// file names, URL paths and SQL keys.
func ValidateLabel(label string) error {
	if label == "" {
		return errors.New("identity label is empty")
	}
	if strings.ContainsAny(label, `/\`) || label == "." || label == ".." {
		return errors.Errorf("invalid identity label [%s]", label)
	}
	return nil
}
