// Package ranker turns per-date raw relative strength into a 0-100 percentile rating.
package ranker

import (
	"sort"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/pkg/utils"
)

const ratingPlaces = 1

// Entry is one symbol's raw strength on one date.
type Entry struct {
	Symbol string
	Raw    *float64
}

// Rank returns the rating of every symbol with a non-null raw value. A symbol's rating is
// the fraction of the population at or above its minimum tie rank, so tied symbols share
// the lower rating and the strongest symbol gets 100. Symbols with a null raw value are
// absent from the result.
func Rank(entries []Entry) map[string]float64 {
	values := make([]float64, 0, len(entries))
	for _, e := range entries {
		if e.Raw != nil {
			values = append(values, *e.Raw)
		}
	}
	out := make(map[string]float64, len(values))
	if len(values) == 0 {
		return out
	}
	sort.Float64s(values)

	n := float64(len(values))
	for _, e := range entries {
		if e.Raw == nil {
			continue
		}
		// Number of values strictly below this one, plus one.
		minRank := sort.SearchFloat64s(values, *e.Raw) + 1
		out[e.Symbol] = utils.Round(float64(minRank)/n*100, ratingPlaces)
	}
	return out
}

// RankRows groups rows by date and ranks each date separately, returning one rating update
// per row. Rows whose raw strength is null get a nil rating.
func RankRows(rows []entity.IndicatorRow) []entity.RatingUpdate {
	byDate := make(map[time.Time][]entity.IndicatorRow)
	var dates []time.Time
	for _, r := range rows {
		d := utils.TruncateDay(r.Date)
		if _, ok := byDate[d]; !ok {
			dates = append(dates, d)
		}
		byDate[d] = append(byDate[d], r)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	updates := make([]entity.RatingUpdate, 0, len(rows))
	for _, d := range dates {
		group := byDate[d]
		entries := make([]Entry, len(group))
		for i, r := range group {
			entries[i] = Entry{Symbol: r.Symbol, Raw: r.RSRaw}
		}
		ratings := Rank(entries)
		for _, r := range group {
			u := entity.RatingUpdate{Symbol: r.Symbol, Date: d}
			if v, ok := ratings[r.Symbol]; ok {
				u.Rating = utils.ToPointer(v)
			}
			updates = append(updates, u)
		}
	}
	return updates
}
