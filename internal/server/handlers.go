package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"PortfoLink/internal/app"
	"PortfoLink/internal/export"
	"PortfoLink/internal/model"
	"PortfoLink/internal/portfolio"
	"PortfoLink/internal/strategy"
)

// DefaultSimulationAmount is the cash simulated when no amount is given.
const DefaultSimulationAmount = 100000

type addLotRequest struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	BuyPrice float64 `json:"buy_price"`
	BuyDate  string  `json:"buy_date"` // YYYY-MM-DD, empty for today
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "portfolink",
	})
}

func (s *Server) handleListLots(w http.ResponseWriter, r *http.Request) {
	lots, err := s.svc.ListLots(r.Context())
	if err != nil {
		s.serverError(w, "list lots", err)
		return
	}
	if lots == nil {
		lots = []model.Lot{}
	}
	s.writeJSON(w, http.StatusOK, lots)
}

func (s *Server) handleAddLot(w http.ResponseWriter, r *http.Request) {
	var req addLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var buyDate *time.Time
	if req.BuyDate != "" {
		d, err := time.Parse(model.DateLayout, req.BuyDate)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "buy_date must be YYYY-MM-DD")
			return
		}
		buyDate = &d
	}

	lot, err := s.svc.AddLot(r.Context(), req.Symbol, req.Quantity, req.BuyPrice, buyDate)
	if errors.Is(err, model.ErrInvalidLot) {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.serverError(w, "add lot", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, lot)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Portfolio(r.Context())
	if errors.Is(err, portfolio.ErrNoHoldings) {
		s.writeError(w, http.StatusNotFound, "no holdings yet; add a lot with POST /api/lots")
		return
	}
	if err != nil {
		s.serverError(w, "portfolio", err)
		return
	}
	if wantCSV(r) {
		s.writeCSV(w, "portfolio", func(w http.ResponseWriter) error { return export.WritePortfolio(w, report) })
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	profile, topN, ok := s.parseProfile(w, r)
	if !ok {
		return
	}
	picks, err := s.svc.Recommend(r.Context(), profile, topN)
	if errors.Is(err, strategy.ErrEmptyUniverse) {
		s.writeError(w, http.StatusServiceUnavailable, "instrument universe is empty; run a sync first")
		return
	}
	if err != nil {
		s.serverError(w, "recommend", err)
		return
	}
	if wantCSV(r) {
		s.writeCSV(w, "recommendations", func(w http.ResponseWriter) error { return export.WriteRecommendations(w, picks) })
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"profile": profile, "candidates": nonNil(picks)})
}

func (s *Server) handleFunds(w http.ResponseWriter, r *http.Request) {
	profile, topN, ok := s.parseProfile(w, r)
	if !ok {
		return
	}
	picks, err := s.svc.RecommendFunds(r.Context(), profile, topN)
	if err != nil {
		s.serverError(w, "recommend funds", err)
		return
	}
	if wantCSV(r) {
		s.writeCSV(w, "funds", func(w http.ResponseWriter) error { return export.WriteFunds(w, picks) })
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"profile": profile, "candidates": nonNil(picks)})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	profile, topN, ok := s.parseProfile(w, r)
	if !ok {
		return
	}
	amount := float64(DefaultSimulationAmount)
	if v := r.URL.Query().Get("amount"); v != "" {
		a, err := strconv.ParseFloat(v, 64)
		if err != nil || !(a > 0) {
			s.writeError(w, http.StatusBadRequest, "amount must be a positive number")
			return
		}
		amount = a
	}

	sim, err := s.svc.Simulate(r.Context(), profile, topN, amount)
	switch {
	case errors.Is(err, strategy.ErrEmptyUniverse):
		s.writeError(w, http.StatusServiceUnavailable, "instrument universe is empty; run a sync first")
		return
	case errors.Is(err, app.ErrNoCandidates):
		s.writeError(w, http.StatusNotFound, "no instrument matches this profile")
		return
	case err != nil:
		s.serverError(w, "simulate", err)
		return
	}
	if wantCSV(r) {
		s.writeCSV(w, "simulation", func(w http.ResponseWriter) error { return export.WriteSimulation(w, sim) })
		return
	}
	s.writeJSON(w, http.StatusOK, sim)
}

// parseProfile reads horizon, risk, sectors and top_n from the query.
// Horizon and risk default to medium; sectors may be repeated or comma separated.
func (s *Server) parseProfile(w http.ResponseWriter, r *http.Request) (model.Profile, int, bool) {
	q := r.URL.Query()
	horizon := q.Get("horizon")
	if horizon == "" {
		horizon = string(model.HorizonMedium)
	}
	risk := q.Get("risk")
	if risk == "" {
		risk = string(model.RiskMedium)
	}
	var sectors []string
	for _, v := range q["sectors"] {
		sectors = append(sectors, strings.Split(v, ",")...)
	}

	profile, err := model.NewProfile(horizon, risk, sectors)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return model.Profile{}, 0, false
	}

	topN := 0
	if v := q.Get("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "top_n must be a positive integer")
			return model.Profile{}, 0, false
		}
		topN = n
	}
	return profile, topN, true
}

func wantCSV(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("format"), "csv")
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.log.Error().Err(err).Str("op", op).Msg("request failed")
	s.writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) writeCSV(w http.ResponseWriter, name string, fn func(w http.ResponseWriter) error) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, name))
	if err := fn(w); err != nil {
		s.log.Error().Err(err).Str("export", name).Msg("failed to write CSV response")
	}
}
