package fund

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"PortfoLink/internal/model"
)

// Store persists fund metadata and NAVs.
type Store interface {
	UpsertFunds(ctx context.Context, funds []model.Fund) error
	SaveNAVQuotes(ctx context.Context, quotes []model.NAVQuote) error
}

// SyncResult summarises one feed ingestion.
type SyncResult struct {
	Funds   int       `json:"funds"`
	Skipped int       `json:"skipped"`
	At      time.Time `json:"at"`
}

// Manager downloads the NAVAll feed and stores it. Syncs are serialised.
type Manager struct {
	URL    string
	Client *http.Client

	mu    sync.Mutex
	store Store
	last  SyncResult
	log   zerolog.Logger
}

// NewManager creates a Manager. An empty url selects DefaultNAVAllURL.
func NewManager(url string, client *http.Client, store Store, log zerolog.Logger) *Manager {
	if url == "" {
		url = DefaultNAVAllURL
	}
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Manager{
		URL:    url,
		Client: client,
		store:  store,
		log:    log.With().Str("component", "fund").Logger(),
	}
}

// Sync fetches the feed and upserts every scheme with its latest NAV.
func (m *Manager) Sync(ctx context.Context) (SyncResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	feed, err := m.download(ctx)
	if err != nil {
		return SyncResult{}, err
	}
	if err := m.store.UpsertFunds(ctx, feed.Funds); err != nil {
		return SyncResult{}, fmt.Errorf("store funds: %w", err)
	}
	if err := m.store.SaveNAVQuotes(ctx, feed.Quotes); err != nil {
		return SyncResult{}, fmt.Errorf("store navs: %w", err)
	}

	m.last = SyncResult{Funds: len(feed.Funds), Skipped: feed.Skipped, At: time.Now()}
	m.log.Info().Int("funds", m.last.Funds).Int("skipped", m.last.Skipped).Msg("fund feed synced")
	return m.last, nil
}

// LastSync returns the result of the most recent successful sync.
func (m *Manager) LastSync() SyncResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *Manager) download(ctx context.Context) (*Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch navall: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("navall returned status %d: %s", resp.StatusCode, string(body))
	}
	return ParseNAVAll(resp.Body)
}
