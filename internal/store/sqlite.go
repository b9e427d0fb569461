package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Store persists holdings, instrument metadata and cached price history in SQLite.
// Every operation acquires its own connection from the pool and releases it when done.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (or creates) the SQLite database and runs migrations.
func Open(dbPath string, log zerolog.Logger) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	s := &Store{db: db, log: log.With().Str("component", "store").Logger()}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s.log.Info().Str("path", dbPath).Msg("sqlite store opened")
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stocks (
			symbol      TEXT PRIMARY KEY,
			name        TEXT,
			sector      TEXT,
			last_update TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS stock_prices (
			symbol TEXT NOT NULL,
			date   TEXT NOT NULL,
			close  REAL NOT NULL,
			PRIMARY KEY (symbol, date)
		)`,

		`CREATE TABLE IF NOT EXISTS mutual_funds (
			scheme_code TEXT PRIMARY KEY,
			name        TEXT,
			category    TEXT,
			risk_level  TEXT,
			last_update TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS mf_navs (
			scheme_code TEXT NOT NULL,
			date        TEXT NOT NULL,
			nav         REAL NOT NULL,
			PRIMARY KEY (scheme_code, date)
		)`,

		`CREATE TABLE IF NOT EXISTS user_portfolio (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol    TEXT NOT NULL,
			quantity  REAL NOT NULL,
			buy_price REAL NOT NULL,
			buy_date  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_portfolio_symbol ON user_portfolio(symbol)`,
	}

	return s.withConn(ctx, func(conn *sql.Conn) error {
		for _, stmt := range stmts {
			if _, err := conn.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("exec %q: %w", stmt[:40], err)
			}
		}
		return nil
	})
}

// withConn scopes a pooled connection to a single operation.
func (s *Store) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()
	return fn(conn)
}

// withTx runs fn inside a transaction on a scoped connection.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.log.Info().Msg("closing sqlite store")
	return s.db.Close()
}
