package fund

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfoLink/internal/model"
)

const sampleFeed = `Scheme Code;ISIN Div Payout/ ISIN Growth;ISIN Div Reinvestment;Scheme Name;Net Asset Value;Date

Open Ended Schemes(Debt Scheme - Banking and PSU Fund)

Aditya Birla Sun Life Mutual Fund

119551;INF209KA12Z1;INF209KA13Z9;Aditya Birla Sun Life Banking & PSU Debt Fund - DIRECT - IDCW;105.8006;17-Oct-2025
108272;INF209K01LV7;-;Aditya Birla Sun Life Banking & PSU Debt Fund - Regular - Growth;N.A.;17-Oct-2025

Open Ended Schemes(Equity Scheme - Large Cap Fund)

HDFC Mutual Fund

119018;INF179K01XQ0;-;HDFC Large Cap Fund - Growth Option - Direct Plan;1234.56;16-Oct-2025
119019;INF179K01XR8;-;HDFC Large Cap Fund - IDCW;45.1;not-a-date
`

func TestParseNAVAll(t *testing.T) {
	feed, err := ParseNAVAll(strings.NewReader(sampleFeed))
	require.NoError(t, err)

	require.Len(t, feed.Funds, 2)
	assert.Equal(t, 2, feed.Skipped)

	assert.Equal(t, model.Fund{
		Code:      "119551",
		Name:      "Aditya Birla Sun Life Banking & PSU Debt Fund - DIRECT - IDCW",
		Category:  "Debt Scheme - Banking and PSU Fund",
		RiskLevel: "Medium",
	}, feed.Funds[0])
	assert.Equal(t, "Equity Scheme - Large Cap Fund", feed.Funds[1].Category)

	require.Len(t, feed.Quotes, 2)
	assert.Equal(t, model.NAVQuote{Code: "119018", Date: time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC), NAV: 1234.56}, feed.Quotes[1])
}

func TestParseNAVAll_ReorderedHeader(t *testing.T) {
	in := "Scheme Name;Date;Scheme Code;Net Asset Value\nFoo Fund;01-Jan-2025;1001;10.5\n"
	feed, err := ParseNAVAll(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, feed.Funds, 1)
	assert.Equal(t, "1001", feed.Funds[0].Code)
	assert.Equal(t, "Foo Fund", feed.Funds[0].Name)
	assert.Empty(t, feed.Funds[0].Category)
	assert.Equal(t, 10.5, feed.Quotes[0].NAV)
}

type memStore struct {
	funds  []model.Fund
	quotes []model.NAVQuote
	err    error
}

func (m *memStore) UpsertFunds(_ context.Context, funds []model.Fund) error {
	if m.err != nil {
		return m.err
	}
	m.funds = append(m.funds, funds...)
	return nil
}

func (m *memStore) SaveNAVQuotes(_ context.Context, quotes []model.NAVQuote) error {
	m.quotes = append(m.quotes, quotes...)
	return nil
}

func TestManager_Sync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleFeed)
	}))
	defer srv.Close()

	st := &memStore{}
	m := NewManager(srv.URL, srv.Client(), st, zerolog.Nop())
	res, err := m.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Funds)
	assert.Equal(t, 2, res.Skipped)
	assert.Len(t, st.funds, 2)
	assert.Len(t, st.quotes, 2)
	assert.Equal(t, res, m.LastSync())
}

func TestManager_SyncErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := NewManager(srv.URL, srv.Client(), &memStore{}, zerolog.Nop())
	_, err := m.Sync(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.True(t, m.LastSync().At.IsZero())

	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleFeed)
	}))
	defer ok.Close()
	m = NewManager(ok.URL, ok.Client(), &memStore{err: assert.AnError}, zerolog.Nop())
	_, err = m.Sync(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestNewManager_Defaults(t *testing.T) {
	m := NewManager("", nil, &memStore{}, zerolog.Nop())
	assert.Equal(t, DefaultNAVAllURL, m.URL)
	assert.NotNil(t, m.Client)
}
