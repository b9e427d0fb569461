package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"PortfoLink/internal/model"
)

// AddLot records a validated lot and returns it with its assigned ID.
func (s *Store) AddLot(ctx context.Context, lot model.Lot) (model.Lot, error) {
	if err := lot.Validate(); err != nil {
		return model.Lot{}, err
	}
	if lot.BuyDate.IsZero() {
		lot.BuyDate = model.Truncate(time.Now())
	}

	err := s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, `INSERT INTO user_portfolio
			(symbol, quantity, buy_price, buy_date)
			VALUES (?,?,?,?)`,
			lot.Symbol, lot.Quantity, lot.BuyPrice, lot.BuyDate.Format(model.DateLayout),
		)
		if err != nil {
			return err
		}
		lot.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return model.Lot{}, fmt.Errorf("add lot: %w", err)
	}
	return lot, nil
}

// ListLots returns every recorded lot in insertion order.
func (s *Store) ListLots(ctx context.Context) ([]model.Lot, error) {
	var lots []model.Lot
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			`SELECT id, symbol, quantity, buy_price, buy_date FROM user_portfolio ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				lot  model.Lot
				date string
			)
			if err := rows.Scan(&lot.ID, &lot.Symbol, &lot.Quantity, &lot.BuyPrice, &date); err != nil {
				return err
			}
			if lot.BuyDate, err = time.Parse(model.DateLayout, date); err != nil {
				return fmt.Errorf("lot %d: bad buy_date %q: %w", lot.ID, date, err)
			}
			lots = append(lots, lot)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	return lots, nil
}
