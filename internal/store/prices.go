package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"PortfoLink/internal/model"
)

// SavePrices writes closes for a symbol, replacing existing rows for the same dates.
func (s *Store) SavePrices(ctx context.Context, series model.PriceSeries) error {
	return s.savePoints(ctx,
		`INSERT OR REPLACE INTO stock_prices (symbol, date, close) VALUES (?,?,?)`,
		series)
}

// SaveNAVQuotes writes one NAV per scheme, as published in a daily feed.
func (s *Store) SaveNAVQuotes(ctx context.Context, quotes []model.NAVQuote) error {
	if len(quotes) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO mf_navs (scheme_code, date, nav) VALUES (?,?,?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, q := range quotes {
			if _, err := stmt.ExecContext(ctx, q.Code, q.Date.Format(model.DateLayout), q.NAV); err != nil {
				return fmt.Errorf("save nav %s: %w", q.Code, err)
			}
		}
		return nil
	})
}

func (s *Store) savePoints(ctx context.Context, query string, series model.PriceSeries) error {
	if series.Len() == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, p := range series.Points {
			if _, err := stmt.ExecContext(ctx, series.Symbol, p.Date.Format(model.DateLayout), p.Price); err != nil {
				return fmt.Errorf("save %s %s: %w", series.Symbol, p.Date.Format(model.DateLayout), err)
			}
		}
		return nil
	})
}

// LoadPrices returns cached closes for a symbol on or after since, in date order.
func (s *Store) LoadPrices(ctx context.Context, symbol string, since time.Time) (model.PriceSeries, error) {
	return s.loadPoints(ctx,
		`SELECT date, close FROM stock_prices WHERE symbol = ? AND date >= ? ORDER BY date`,
		symbol, since)
}

// LoadNAVs returns cached NAVs for a scheme on or after since, in date order.
func (s *Store) LoadNAVs(ctx context.Context, code string, since time.Time) (model.PriceSeries, error) {
	return s.loadPoints(ctx,
		`SELECT date, nav FROM mf_navs WHERE scheme_code = ? AND date >= ? ORDER BY date`,
		code, since)
}

func (s *Store) loadPoints(ctx context.Context, query, symbol string, since time.Time) (model.PriceSeries, error) {
	series := model.PriceSeries{Symbol: symbol}
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, symbol, since.Format(model.DateLayout))
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				date  string
				price float64
			)
			if err := rows.Scan(&date, &price); err != nil {
				return err
			}
			d, err := time.Parse(model.DateLayout, date)
			if err != nil {
				return fmt.Errorf("bad date %q: %w", date, err)
			}
			series.Points = append(series.Points, model.PricePoint{Date: d, Price: price})
		}
		return rows.Err()
	})
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("load %s: %w", symbol, err)
	}
	return series, nil
}
