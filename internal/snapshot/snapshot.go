// Package snapshot assembles the latest-indicators-per-symbol table.
package snapshot

import (
	"sort"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/pkg/utils"
)

// Row is one symbol's most recent indicator row. Stale marks rows whose date is earlier
// than the run's as-of date (suspended or delisted symbols).
type Row struct {
	entity.IndicatorRow
	Name    string `json:"name"`
	IsIndex bool   `json:"is_index"`
	Stale   bool   `json:"stale"`
}

// Build keeps the latest row per symbol, flags stale rows and orders the result by
// rs_rating descending with null ratings last, then by symbol.
func Build(rows []entity.IndicatorRow, asOf time.Time) []Row {
	asOf = utils.TruncateDay(asOf)

	latest := make(map[string]entity.IndicatorRow, len(rows))
	for _, r := range rows {
		cur, ok := latest[r.Symbol]
		if !ok || r.Date.After(cur.Date) {
			latest[r.Symbol] = r
		}
	}

	out := make([]Row, 0, len(latest))
	for _, r := range latest {
		out = append(out, Row{
			IndicatorRow: r,
			Stale:        !utils.TruncateDay(r.Date).Equal(asOf),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].RSRating, out[j].RSRating
		switch {
		case a != nil && b != nil && *a != *b:
			return *a > *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// Annotate fills name and index flags from the stock universe.
func Annotate(rows []Row, stocks []entity.Stock) {
	bySymbol := make(map[string]entity.Stock, len(stocks))
	for _, s := range stocks {
		bySymbol[s.Symbol] = s
	}
	for i := range rows {
		if s, ok := bySymbol[rows[i].Symbol]; ok {
			rows[i].Name = s.Name
			rows[i].IsIndex = s.IsIndex
		}
	}
}

// Stocks returns the non-index rows.
func Stocks(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if !r.IsIndex {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the row for symbol, if present.
func Find(rows []Row, symbol string) (Row, bool) {
	for _, r := range rows {
		if r.Symbol == symbol {
			return r, true
		}
	}
	return Row{}, false
}
