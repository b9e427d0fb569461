package model

import (
	"fmt"
	"sort"
	"time"
)

// PricePoint is a single daily close (or NAV) observation.
type PricePoint struct {
	Date  time.Time
	Price float64
}

// PriceSeries holds a time-ordered sequence of closes for one symbol.
// Dates are strictly increasing and prices positive.
type PriceSeries struct {
	Symbol    string
	Points    []PricePoint
	FetchedAt time.Time
}

// Len returns the number of observations.
func (s PriceSeries) Len() int { return len(s.Points) }

// Prices returns the closes in date order.
func (s PriceSeries) Prices() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Price
	}
	return out
}

// First returns the earliest observation. The series must not be empty.
func (s PriceSeries) First() PricePoint { return s.Points[0] }

// Last returns the latest observation. The series must not be empty.
func (s PriceSeries) Last() PricePoint { return s.Points[len(s.Points)-1] }

// Period is a lookback window for price history requests.
type Period string

const (
	Period1Month  Period = "1mo"
	Period3Months Period = "3mo"
	Period6Months Period = "6mo"
	Period1Year   Period = "1y"
	Period3Years  Period = "3y"
	Period5Years  Period = "5y"
)

var periodDays = map[Period]int{
	Period1Month:  31,
	Period3Months: 92,
	Period6Months: 183,
	Period1Year:   366,
	Period3Years:  3*365 + 1,
	Period5Years:  5*365 + 2,
}

// ParsePeriod validates a period string such as "1y".
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if _, ok := periodDays[p]; !ok {
		return "", fmt.Errorf("unknown period %q", s)
	}
	return p, nil
}

// Days returns the number of calendar days covered by the period.
func (p Period) Days() int {
	if d, ok := periodDays[p]; ok {
		return d
	}
	return periodDays[Period1Year]
}

// Since returns the first calendar day covered by the period ending at now.
func (p Period) Since(now time.Time) time.Time {
	return now.AddDate(0, 0, -p.Days())
}

// Clean returns a copy of the series sorted by date with non-positive prices
// dropped and duplicate dates collapsed to the last observation.
func (s PriceSeries) Clean() PriceSeries {
	pts := make([]PricePoint, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Price > 0 {
			pts = append(pts, PricePoint{Date: Truncate(p.Date), Price: p.Price})
		}
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })

	out := pts[:0]
	for _, p := range pts {
		if n := len(out); n > 0 && out[n-1].Date.Equal(p.Date) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return PriceSeries{Symbol: s.Symbol, Points: out, FetchedAt: s.FetchedAt}
}
