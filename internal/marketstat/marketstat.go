// Package marketstat summarises market breadth from a daily snapshot.
package marketstat

import (
	"sort"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/snapshot"
	"golang-stock-indicator/pkg/utils"
)

const (
	limitMovePct = 9.9
	bigMovePct   = 5.0
	hundredM     = 1e8
)

// Compute builds the breadth statistics for date from the non-index snapshot rows dated on
// that day. Rows from earlier dates are only counted as stale.
func Compute(rows []snapshot.Row, date time.Time) entity.MarketDailyStat {
	date = utils.TruncateDay(date)
	stat := entity.MarketDailyStat{Date: date}

	var pcts []float64
	var volume, amount float64
	for _, r := range rows {
		if r.IsIndex {
			continue
		}
		if !utils.TruncateDay(r.Date).Equal(date) {
			stat.StaleSymbols++
			continue
		}
		stat.Total++
		volume += float64(r.Volume)
		amount += r.Amount

		if r.PctChange != nil {
			p := *r.PctChange
			pcts = append(pcts, p)
			switch {
			case p > 0:
				stat.Up++
			case p < 0:
				stat.Down++
			default:
				stat.Flat++
			}
			if p >= limitMovePct {
				stat.LimitUp++
			}
			if p <= -limitMovePct {
				stat.LimitDown++
			}
			if p >= bigMovePct {
				stat.BigUp++
			}
			if p <= -bigMovePct {
				stat.BigDown++
			}
		}

		if r.RSRating != nil {
			switch rs := *r.RSRating; {
			case rs >= 90:
				stat.RS90Plus++
			case rs >= 80:
				stat.RS80To90++
			case rs >= 70:
				stat.RS70To80++
			case rs >= 60:
				stat.RS60To70++
			default:
				stat.RSBelow60++
			}
		}

		if above(r.Close, r.MA20) {
			stat.AboveMA20++
		}
		if above(r.Close, r.MA50) {
			stat.AboveMA50++
		}
		if above(r.Close, r.MA200) {
			stat.AboveMA200++
		}
	}

	stat.VolumeSum = utils.Round(volume/hundredM, 2)
	stat.AmountSum = utils.Round(amount/hundredM, 2)

	if len(pcts) > 0 {
		var sum float64
		for _, p := range pcts {
			sum += p
		}
		stat.MeanPct = utils.ToPointer(utils.Round(sum/float64(len(pcts)), 2))
		stat.MedianPct = utils.ToPointer(utils.Round(median(pcts), 2))
	}

	if stat.Total > 0 {
		stat.AboveMA20Pct = percent(stat.AboveMA20, stat.Total)
		stat.AboveMA50Pct = percent(stat.AboveMA50, stat.Total)
		stat.AboveMA200Pct = percent(stat.AboveMA200, stat.Total)
	}
	return stat
}

func above(price float64, ma *float64) bool {
	return ma != nil && price > *ma
}

func percent(n, total int) *float64 {
	return utils.ToPointer(utils.Round(float64(n)/float64(total)*100, 2))
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
