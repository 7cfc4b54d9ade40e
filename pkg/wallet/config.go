/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"strings"

	"github.com/hyperledger/fabric-ca-enroll/pkg/common/errors/status"
	"github.com/hyperledger/fabric-ca-enroll/pkg/common/providers/core"
	"github.com/hyperledger/fabric-ca-enroll/pkg/core/config/lookup"
	"github.com/hyperledger/fabric-ca-enroll/pkg/util/pathvar"
)

// Store types
const (
	MemoryType     = "memory"
	FilesystemType = "filesystem"
	VaultType      = "vault"
	SQLiteType     = SQLite
	PostgresType   = Postgres
)

// Config is the wallet section of the configuration
type Config struct {
	Type       string
	Filesystem struct {
		Path string
	}
	Vault VaultOptions
	SQL   struct {
		DataSource   string
		Table        string
		MaxOpenConns int
	}
	Cache struct {
		Enabled bool
		MaxCost int64
	}
	HSM HSMOptions
}

// ConfigFromBackend reads the wallet section
func ConfigFromBackend(backends ...core.ConfigBackend) (*Config, error) {
	cfg := &Config{}
	if err := lookup.New(backends...).UnmarshalKey("wallet", cfg); err != nil {
		return nil, status.Wrap(err, status.ConfigStatus, status.ConfigurationError, "failed to parse wallet configuration")
	}
	cfg.Type = strings.ToLower(cfg.Type)
	if cfg.Type == "" {
		cfg.Type = MemoryType
	}
	return cfg, nil
}

// New creates the wallet described by cfg
func New(ctx context.Context, cfg *Config) (*Wallet, error) {
	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, status.Wrap(err, status.ConfigStatus, status.ConfigurationError, "failed to create "+cfg.Type+" wallet")
	}

	if cfg.Cache.Enabled {
		cached, err := NewCachedStore(store, cfg.Cache.MaxCost)
		if err != nil {
			return nil, status.Wrap(err, status.ConfigStatus, status.ConfigurationError, "failed to create wallet cache")
		}
		store = cached
	}

	registry := NewProviderRegistry(NewX509Provider(), NewHSMX509Provider(cfg.HSM))
	logger.Debugf("Created %s wallet", cfg.Type)
	return NewWalletWithStore(store, WithProviderRegistry(registry)), nil
}

func newStore(ctx context.Context, cfg *Config) (Store, error) {
	switch cfg.Type {
	case MemoryType:
		return NewInMemoryStore(), nil
	case FilesystemType:
		return NewFileSystemStore(cfg.Filesystem.Path)
	case VaultType:
		opts := cfg.Vault
		opts.Token = pathvar.Subst(opts.Token)
		return NewVaultStore(opts)
	case SQLiteType, PostgresType:
		return OpenSQLStore(ctx, SQLOptions{
			Driver:       cfg.Type,
			DataSource:   pathvar.Subst(cfg.SQL.DataSource),
			Table:        cfg.SQL.Table,
			MaxOpenConns: cfg.SQL.MaxOpenConns,
		})
	default:
		return nil, status.New(status.ConfigStatus, status.ConfigurationError.ToInt32(), "unsupported wallet type ["+cfg.Type+"]", nil)
	}
}
