package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfoLink/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddLot_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	now := time.Now()
	lot, err := model.NewLot(" reliance.ns ", 10, 2450.5, nil, now)
	require.NoError(t, err)

	saved, err := s.AddLot(ctx, lot)
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)

	lots, err := s.ListLots(ctx)
	require.NoError(t, err)
	require.Len(t, lots, 1)

	got := lots[0]
	assert.Equal(t, "RELIANCE.NS", got.Symbol)
	assert.Equal(t, 10.0, got.Quantity)
	assert.Equal(t, 2450.5, got.BuyPrice)
	assert.Equal(t, now.Format(model.DateLayout), got.BuyDate.Format(model.DateLayout), "buy date defaults to today")
}

func TestAddLot_ExplicitDateAndOrder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	d := time.Date(2022, 3, 15, 14, 30, 0, 0, time.UTC)
	first, err := model.NewLot("TCS.NS", 2, 3300, &d, time.Now())
	require.NoError(t, err)
	second, err := model.NewLot("INFY.NS", 5, 1400, nil, time.Now())
	require.NoError(t, err)

	_, err = s.AddLot(ctx, first)
	require.NoError(t, err)
	_, err = s.AddLot(ctx, second)
	require.NoError(t, err)

	lots, err := s.ListLots(ctx)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, "TCS.NS", lots[0].Symbol)
	assert.Equal(t, "2022-03-15", lots[0].BuyDate.Format(model.DateLayout))
	assert.Equal(t, "INFY.NS", lots[1].Symbol)
}

func TestAddLot_RejectsInvalid(t *testing.T) {
	s := openTestStore(t)
	_, err := s.AddLot(context.Background(), model.Lot{Symbol: "X", Quantity: 0, BuyPrice: 1})
	assert.ErrorIs(t, err, model.ErrInvalidLot)
}

func TestListLots_Empty(t *testing.T) {
	lots, err := openTestStore(t).ListLots(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lots)
}

func TestUniverse_SectorFilter(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.UpsertInstruments(ctx, []model.Instrument{
		{Symbol: "TCS.NS", Name: "TCS", Sector: "Technology"},
		{Symbol: "HDFCBANK.NS", Name: "HDFC Bank", Sector: "Banking"},
		{Symbol: "MYSTERY.NS"},
	}))

	all, err := s.ListUniverse(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Unknown", all[2].Sector)
	assert.Equal(t, "MYSTERY.NS", all[2].Name)

	tech, err := s.ListUniverse(ctx, []string{"Technology", "Pharma"})
	require.NoError(t, err)
	require.Len(t, tech, 1)
	assert.Equal(t, "TCS.NS", tech[0].Symbol)
}

func TestFunds_UpsertAndList(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.UpsertFunds(ctx, []model.Fund{
		{Code: "120503", Name: "Axis ELSS", Category: "Equity Scheme - ELSS", RiskLevel: "Medium"},
		{Code: "119551", Name: "Some Liquid Fund", RiskLevel: "Low"},
	}))
	// replace keeps a single row per code
	require.NoError(t, s.UpsertFunds(ctx, []model.Fund{
		{Code: "120503", Name: "Axis ELSS Tax Saver", Category: "Equity Scheme - ELSS", RiskLevel: "High"},
	}))

	funds, err := s.ListFunds(ctx)
	require.NoError(t, err)
	require.Len(t, funds, 2)
	assert.Equal(t, "119551", funds[0].Code)
	assert.Equal(t, "", funds[0].Category)
	assert.Equal(t, "Axis ELSS Tax Saver", funds[1].Name)
	assert.Equal(t, "High", funds[1].RiskLevel)
}

func TestPrices_SaveLoad(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	d := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	series := model.PriceSeries{Symbol: "TCS.NS", Points: []model.PricePoint{
		{Date: d, Price: 100},
		{Date: d.AddDate(0, 0, 1), Price: 101},
		{Date: d.AddDate(0, 0, 2), Price: 102},
	}}
	require.NoError(t, s.SavePrices(ctx, series))
	// overlapping write replaces
	require.NoError(t, s.SavePrices(ctx, model.PriceSeries{Symbol: "TCS.NS", Points: []model.PricePoint{
		{Date: d.AddDate(0, 0, 2), Price: 103},
	}}))

	got, err := s.LoadPrices(ctx, "TCS.NS", d.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, 101.0, got.Points[0].Price)
	assert.Equal(t, 103.0, got.Points[1].Price)

	none, err := s.LoadPrices(ctx, "INFY.NS", d)
	require.NoError(t, err)
	assert.Equal(t, 0, none.Len())
}

func TestNAVQuotes_Save(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	d := time.Date(2025, 10, 17, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveNAVQuotes(ctx, nil))
	require.NoError(t, s.SaveNAVQuotes(ctx, []model.NAVQuote{
		{Code: "119551", Date: d, NAV: 105.8},
		{Code: "119552", Date: d, NAV: 12.4},
	}))
	require.NoError(t, s.SaveNAVQuotes(ctx, []model.NAVQuote{{Code: "119551", Date: d, NAV: 106}}))

	got, err := s.LoadNAVs(ctx, "119551", d)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, 106.0, got.Last().Price)
}
