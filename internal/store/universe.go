package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"PortfoLink/internal/model"
)

// UpsertInstruments inserts or replaces stock metadata.
func (s *Store) UpsertInstruments(ctx context.Context, instruments []model.Instrument) error {
	today := time.Now().Format(model.DateLayout)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO stocks
			(symbol, name, sector, last_update) VALUES (?,?,?,?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, in := range instruments {
			sector := in.Sector
			if sector == "" {
				sector = "Unknown"
			}
			name := in.Name
			if name == "" {
				name = in.Symbol
			}
			if _, err := stmt.ExecContext(ctx, in.Symbol, name, sector, today); err != nil {
				return fmt.Errorf("upsert %s: %w", in.Symbol, err)
			}
		}
		return nil
	})
}

// ListUniverse returns stock metadata ordered by symbol, optionally restricted to sectors.
func (s *Store) ListUniverse(ctx context.Context, sectors []string) ([]model.Instrument, error) {
	query := `SELECT symbol, name, sector FROM stocks`
	args := make([]any, 0, len(sectors))
	if len(sectors) > 0 {
		query += ` WHERE sector IN (?` + strings.Repeat(",?", len(sectors)-1) + `)`
		for _, sec := range sectors {
			args = append(args, sec)
		}
	}
	query += ` ORDER BY symbol`

	var out []model.Instrument
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var in model.Instrument
			if err := rows.Scan(&in.Symbol, &in.Name, &in.Sector); err != nil {
				return err
			}
			out = append(out, in)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list universe: %w", err)
	}
	return out, nil
}

// UpsertFunds inserts or replaces mutual fund metadata.
func (s *Store) UpsertFunds(ctx context.Context, funds []model.Fund) error {
	today := time.Now().Format(model.DateLayout)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO mutual_funds
			(scheme_code, name, category, risk_level, last_update) VALUES (?,?,?,?,?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, f := range funds {
			if _, err := stmt.ExecContext(ctx, f.Code, f.Name, nullString(f.Category), f.RiskLevel, today); err != nil {
				return fmt.Errorf("upsert fund %s: %w", f.Code, err)
			}
		}
		return nil
	})
}

// ListFunds returns all mutual funds ordered by scheme code.
func (s *Store) ListFunds(ctx context.Context) ([]model.Fund, error) {
	var out []model.Fund
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			`SELECT scheme_code, name, category, risk_level FROM mutual_funds ORDER BY scheme_code`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				f        model.Fund
				category sql.NullString
				risk     sql.NullString
			)
			if err := rows.Scan(&f.Code, &f.Name, &category, &risk); err != nil {
				return err
			}
			f.Category, f.RiskLevel = category.String, risk.String
			out = append(out, f)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list funds: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
