package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidLot is returned when a lot fails validation.
var ErrInvalidLot = errors.New("invalid lot")

// DateLayout is the calendar date format used for storage and user input.
const DateLayout = "2006-01-02"

// Lot is a single purchase record within a holding.
type Lot struct {
	ID       int64     `json:"id"`
	Symbol   string    `json:"symbol"`
	Quantity float64   `json:"quantity"`
	BuyPrice float64   `json:"buy_price"`
	BuyDate  time.Time `json:"buy_date"`
}

// NewLot normalises the symbol, defaults the buy date to today and validates the lot.
func NewLot(symbol string, quantity, buyPrice float64, buyDate *time.Time, now time.Time) (Lot, error) {
	lot := Lot{
		Symbol:   strings.ToUpper(strings.TrimSpace(symbol)),
		Quantity: quantity,
		BuyPrice: buyPrice,
	}
	if buyDate != nil {
		lot.BuyDate = Truncate(*buyDate)
	} else {
		lot.BuyDate = Truncate(now)
	}
	return lot, lot.Validate()
}

// Validate checks the lot invariants.
func (l Lot) Validate() error {
	switch {
	case l.Symbol == "":
		return fmt.Errorf("%w: symbol is required", ErrInvalidLot)
	case !(l.Quantity > 0):
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidLot)
	case !(l.BuyPrice > 0):
		return fmt.Errorf("%w: buy price must be positive", ErrInvalidLot)
	}
	return nil
}

// Invested returns quantity times buy price.
func (l Lot) Invested() float64 { return l.Quantity * l.BuyPrice }

// Truncate drops the time-of-day part, keeping the calendar date in UTC.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
