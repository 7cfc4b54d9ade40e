/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	// registers the "pgx" database/sql driver
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	// registers the "sqlite" database/sql driver
	_ "modernc.org/sqlite"
)

const (
	// SQLite persistence, modernc.org/sqlite
	SQLite = "sqlite"
	// Postgres persistence, jackc/pgx
	Postgres = "postgres"

	defaultTable = "wallet_identities"
)

var tableNameRegexp = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SQLOptions configure a SQL backed wallet
type SQLOptions struct {
	// Driver is "sqlite" or "postgres"
	Driver       string
	DataSource   string
	Table        string
	MaxOpenConns int
}

type sqlWalletStore struct {
	db    *sql.DB
	table string
	owned bool
}

// NewSQLWallet opens the database and creates a wallet over it
func NewSQLWallet(ctx context.Context, opts SQLOptions, walletOpts ...Option) (*Wallet, error) {
	store, err := OpenSQLStore(ctx, opts)
	if err != nil {
		return nil, err
	}
	return NewWalletWithStore(store, walletOpts...), nil
}

// OpenSQLStore opens the database, creates the schema and returns a
// store that closes the database when closed
func OpenSQLStore(ctx context.Context, opts SQLOptions) (Store, error) {
	driverName, err := sqlDriverName(opts.Driver)
	if err != nil {
		return nil, err
	}
	if opts.DataSource == "" {
		return nil, errors.Errorf("no data source given for %s wallet", opts.Driver)
	}

	db, err := sql.Open(driverName, opts.DataSource)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s wallet", opts.Driver)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "failed to connect to %s wallet", opts.Driver)
	}

	store, err := newSQLStore(ctx, db, opts.Table, true)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	store.owned = true
	logger.Debugf("Opened %s wallet, table %s", opts.Driver, store.table)
	return store, nil
}

// NewSQLStore returns a store over an open database. The caller keeps
// ownership of db.
func NewSQLStore(ctx context.Context, db *sql.DB, table string, createSchema bool) (Store, error) {
	return newSQLStore(ctx, db, table, createSchema)
}

func newSQLStore(ctx context.Context, db *sql.DB, table string, createSchema bool) (*sqlWalletStore, error) {
	if table == "" {
		table = defaultTable
	}
	if !tableNameRegexp.MatchString(table) {
		return nil, errors.Errorf("invalid table name [%s]", table)
	}
	s := &sqlWalletStore{db: db, table: table}
	if createSchema {
		if _, err := db.ExecContext(ctx, s.schema()); err != nil {
			return nil, errors.Wrap(err, "failed to create schema")
		}
	}
	return s, nil
}

func sqlDriverName(persistence string) (string, error) {
	switch persistence {
	case SQLite:
		return "sqlite", nil
	case Postgres:
		return "pgx", nil
	default:
		return "", errors.Errorf("unsupported SQL driver [%s]", persistence)
	}
}

func (s *sqlWalletStore) schema() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		label TEXT PRIMARY KEY,
		identity TEXT NOT NULL
	)`, s.table)
}

func (s *sqlWalletStore) Put(ctx context.Context, label string, content []byte) error {
	query := fmt.Sprintf("INSERT INTO %s (label, identity) VALUES ($1, $2) ON CONFLICT (label) DO UPDATE SET identity = excluded.identity", s.table)
	logger.Debug(query)
	if _, err := s.db.ExecContext(ctx, query, label, string(content)); err != nil {
		return errors.Wrapf(err, "failed to store identity [%s]", label)
	}
	return nil
}

func (s *sqlWalletStore) Insert(ctx context.Context, label string, content []byte) error {
	query := fmt.Sprintf("INSERT INTO %s (label, identity) VALUES ($1, $2) ON CONFLICT (label) DO NOTHING", s.table)
	logger.Debug(query)
	result, err := s.db.ExecContext(ctx, query, label, string(content))
	if err != nil {
		return errors.Wrapf(err, "failed to store identity [%s]", label)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "failed to store identity [%s]", label)
	}
	if n == 0 {
		return errors.Wrapf(ErrAlreadyExists, "label [%s]", label)
	}
	return nil
}

func (s *sqlWalletStore) Get(ctx context.Context, label string) ([]byte, error) {
	query := fmt.Sprintf("SELECT identity FROM %s WHERE label = $1", s.table)
	logger.Debug(query)
	var content string
	if err := s.db.QueryRowContext(ctx, query, label).Scan(&content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(ErrNotFound, "label [%s]", label)
		}
		return nil, errors.Wrapf(err, "failed to read identity [%s]", label)
	}
	return []byte(content), nil
}

func (s *sqlWalletStore) Exists(ctx context.Context, label string) (bool, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE label = $1", s.table)
	logger.Debug(query)
	var count int
	if err := s.db.QueryRowContext(ctx, query, label).Scan(&count); err != nil {
		return false, errors.Wrapf(err, "failed to read identity [%s]", label)
	}
	return count > 0, nil
}

func (s *sqlWalletStore) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT label FROM %s ORDER BY label", s.table)
	logger.Debug(query)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list identities")
	}
	defer func() {
		_ = rows.Close()
	}()

	labels := []string{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, errors.Wrap(err, "failed to list identities")
		}
		labels = append(labels, label)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to list identities")
	}
	return labels, nil
}

func (s *sqlWalletStore) Remove(ctx context.Context, label string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE label = $1", s.table)
	logger.Debug(query)
	if _, err := s.db.ExecContext(ctx, query, label); err != nil {
		return errors.Wrapf(err, "failed to remove identity [%s]", label)
	}
	return nil
}

func (s *sqlWalletStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
