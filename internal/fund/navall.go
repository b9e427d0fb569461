// Package fund ingests mutual fund schemes and NAVs from the AMFI NAVAll feed.
package fund

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"PortfoLink/internal/model"
)

// DefaultNAVAllURL is the public AMFI daily NAV file.
const DefaultNAVAllURL = "https://www.amfiindia.com/spages/NAVAll.txt"

// DefaultRiskLevel is assigned to every scheme; the feed carries no risk data.
const DefaultRiskLevel = "Medium"

const navDateLayout = "02-Jan-2006"

// Feed is the parsed content of a NAVAll file.
type Feed struct {
	Funds   []model.Fund
	Quotes  []model.NAVQuote
	Skipped int // scheme rows with an unusable NAV or date
}

type columns struct {
	code, name, nav, date int
}

var defaultColumns = columns{code: 0, name: 3, nav: 4, date: 5}

// ParseNAVAll reads a semicolon-delimited NAVAll file. Scheme rows are
// grouped under section lines such as "Open Ended Schemes(Equity Scheme - Large Cap Fund)";
// the text in parentheses becomes the category of the rows that follow.
// Fund house lines and blanks are ignored.
func ParseNAVAll(r io.Reader) (*Feed, error) {
	feed := &Feed{}
	cols := defaultColumns
	category := ""

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !strings.Contains(line, ";") {
			if c, ok := sectionCategory(line); ok {
				category = c
			}
			continue
		}

		fields := strings.Split(line, ";")
		if h, ok := headerColumns(fields); ok {
			cols = h
			continue
		}
		if len(fields) <= max(cols.code, cols.name, cols.nav, cols.date) {
			feed.Skipped++
			continue
		}

		code := strings.TrimSpace(fields[cols.code])
		if _, err := strconv.Atoi(code); err != nil {
			feed.Skipped++
			continue
		}
		nav, err := strconv.ParseFloat(strings.TrimSpace(fields[cols.nav]), 64)
		if err != nil || nav <= 0 {
			feed.Skipped++
			continue
		}
		date, err := time.Parse(navDateLayout, strings.TrimSpace(fields[cols.date]))
		if err != nil {
			feed.Skipped++
			continue
		}

		feed.Funds = append(feed.Funds, model.Fund{
			Code:      code,
			Name:      strings.TrimSpace(fields[cols.name]),
			Category:  category,
			RiskLevel: DefaultRiskLevel,
		})
		feed.Quotes = append(feed.Quotes, model.NAVQuote{Code: code, Date: date, NAV: nav})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read navall: %w", err)
	}
	return feed, nil
}

func sectionCategory(line string) (string, bool) {
	open := strings.Index(line, "(")
	if open < 0 || !strings.HasSuffix(line, ")") {
		return "", false
	}
	c := strings.TrimSpace(line[open+1 : len(line)-1])
	return c, c != ""
}

// headerColumns locates the columns of a header row. ok is false when the
// row has no "Scheme Code" column.
func headerColumns(fields []string) (cols columns, ok bool) {
	cols = defaultColumns
	for i, f := range fields {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "scheme code":
			cols.code, ok = i, true
		case "scheme name":
			cols.name = i
		case "net asset value":
			cols.nav = i
		case "date":
			cols.date = i
		}
	}
	return cols, ok
}
