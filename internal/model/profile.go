package model

import (
	"fmt"
	"strings"
)

// Horizon is the investment horizon of a profile.
type Horizon string

const (
	HorizonShort  Horizon = "short"
	HorizonMedium Horizon = "medium"
	HorizonLong   Horizon = "long"
)

// Risk is the risk appetite of a profile.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// Profile captures the user's preferences for recommendations.
type Profile struct {
	Horizon Horizon  `json:"horizon"`
	Risk    Risk     `json:"risk"`
	Sectors []string `json:"sectors"`
}

// ParseHorizon parses a horizon name, case-insensitively.
func ParseHorizon(s string) (Horizon, error) {
	switch h := Horizon(strings.ToLower(strings.TrimSpace(s))); h {
	case HorizonShort, HorizonMedium, HorizonLong:
		return h, nil
	}
	return "", fmt.Errorf("unknown horizon %q (want short, medium or long)", s)
}

// ParseRisk parses a risk appetite name, case-insensitively.
func ParseRisk(s string) (Risk, error) {
	switch r := Risk(strings.ToLower(strings.TrimSpace(s))); r {
	case RiskLow, RiskMedium, RiskHigh:
		return r, nil
	}
	return "", fmt.Errorf("unknown risk %q (want low, medium or high)", s)
}

// NewProfile builds a validated profile. Blank sector names are dropped.
func NewProfile(horizon, risk string, sectors []string) (Profile, error) {
	h, err := ParseHorizon(horizon)
	if err != nil {
		return Profile{}, err
	}
	r, err := ParseRisk(risk)
	if err != nil {
		return Profile{}, err
	}
	p := Profile{Horizon: h, Risk: r}
	for _, s := range sectors {
		if s = strings.TrimSpace(s); s != "" {
			p.Sectors = append(p.Sectors, s)
		}
	}
	return p, nil
}

// AllowsSector reports whether the sector passes the profile's sector filter.
func (p Profile) AllowsSector(sector string) bool {
	if len(p.Sectors) == 0 {
		return true
	}
	for _, s := range p.Sectors {
		if s == sector {
			return true
		}
	}
	return false
}

// Period maps the horizon to the lookback used for metrics.
func (h Horizon) Period() Period {
	switch h {
	case HorizonMedium:
		return Period3Years
	case HorizonLong:
		return Period5Years
	default:
		return Period1Year
	}
}
