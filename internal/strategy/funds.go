package strategy

import (
	"sort"
	"strings"

	"PortfoLink/internal/model"
)

// Fund scores for the category heuristic used when no NAV history is scored.
const (
	fundBaseScore   = 1.0
	fundEquityBonus = 1.0
	fundDebtBonus   = 0.2
)

// ScoreFunds ranks funds by category with a risk-level match, best first.
// Low-risk profiles skip high-risk funds and high-risk profiles skip low-risk funds.
func ScoreFunds(profile model.Profile, funds []model.Fund, topN int) []model.FundCandidate {
	out := make([]model.FundCandidate, 0, len(funds))
	for _, f := range funds {
		level := strings.ToLower(strings.TrimSpace(f.RiskLevel))
		if profile.Risk == model.RiskLow && level == "high" {
			continue
		}
		if profile.Risk == model.RiskHigh && level == "low" {
			continue
		}

		score := fundBaseScore
		if strings.Contains(f.Category, "Equity") {
			score += fundEquityBonus
		}
		if strings.Contains(f.Category, "Debt") {
			score += fundDebtBonus
		}
		out = append(out, model.FundCandidate{Code: f.Code, Name: f.Name, Category: f.Category, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}
