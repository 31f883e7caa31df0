// Package screening evaluates the 13 CANSLIM-style trend conditions over a daily snapshot.
package screening

import (
	"sort"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/snapshot"
	"golang-stock-indicator/pkg/utils"
)

// ConditionCount is the number of screening conditions.
const ConditionCount = 13

// Tier classifies a result by how many conditions it satisfies.
type Tier string

const (
	TierPerfect   Tier = "PERFECT"
	TierExcellent Tier = "EXCELLENT"
	TierNone      Tier = ""
)

// Thresholds holds the screening limits. MarketCap is in units of 100M CNY.
type Thresholds struct {
	Low52WPct        float64 `mapstructure:"low_52w_pct" json:"low_52w_pct"`
	High52WPct       float64 `mapstructure:"high_52w_pct" json:"high_52w_pct"`
	RSRating         float64 `mapstructure:"rs_rating" json:"rs_rating"`
	PriceMin         float64 `mapstructure:"price_min" json:"price_min"`
	MarketCap        float64 `mapstructure:"market_cap" json:"market_cap"`
	VolumeMin        float64 `mapstructure:"volume_min" json:"volume_min"`
	AmountMin        float64 `mapstructure:"amount_min" json:"amount_min"`
	VolumeMAMin      float64 `mapstructure:"volume_ma_min" json:"volume_ma_min"`
	OutperformFactor float64 `mapstructure:"outperform_factor" json:"outperform_factor"`
}

// DefaultThresholds returns the standard limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Low52WPct:        30,
		High52WPct:       80,
		RSRating:         70,
		PriceMin:         10,
		MarketCap:        30,
		VolumeMin:        500000,
		AmountMin:        200000000,
		VolumeMAMin:      500000,
		OutperformFactor: 2,
	}
}

// Condition describes one screening condition.
type Condition struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Conditions lists the conditions in evaluation order.
var Conditions = [ConditionCount]Condition{
	{"C1", "close > MA50"},
	{"C2", "close > MA150"},
	{"C3", "MA150 > MA200"},
	{"C4", "MA10 > MA20"},
	{"C5", "at least 30% above 52-week low"},
	{"C6", "within 20% of 52-week high"},
	{"C7", "RS rating >= 70"},
	{"C8", "close >= 10"},
	{"C9", "market cap >= 3B"},
	{"C10", "volume >= 500K shares"},
	{"C11", "amount >= 200M"},
	{"C12", "volume MA10/30/60/90 >= 500K"},
	{"C13", "outperforms benchmark 2x over 1/3/6 months"},
}

// Result is the evaluation of one symbol.
type Result struct {
	Symbol    string               `json:"symbol"`
	Name      string               `json:"name"`
	Date      time.Time            `json:"date"`
	Close     float64              `json:"close"`
	RSRating  *float64             `json:"rs_rating"`
	MarketCap *float64             `json:"market_cap"`
	Passed    [ConditionCount]bool `json:"passed"`
	Satisfied int                  `json:"satisfied"`
	Tier      Tier                 `json:"tier"`
	Row       entity.IndicatorRow  `json:"-"`
}

// ConditionStat is how many results satisfy one condition.
type ConditionStat struct {
	Condition
	Satisfied int     `json:"satisfied"`
	Percent   float64 `json:"percent"`
}

// Screen evaluates every non-index row. Stock metadata provides names and float shares for
// the market-cap condition; benchmark is the index row used by C13 and may be nil, in which
// case C13 fails for everyone. Results are ordered by satisfied count, then rs_rating, then
// symbol.
func Screen(rows []snapshot.Row, stocks []entity.Stock, benchmark *snapshot.Row, th Thresholds) []Result {
	meta := make(map[string]entity.Stock, len(stocks))
	for _, s := range stocks {
		meta[s.Symbol] = s
	}

	results := make([]Result, 0, len(rows))
	for _, r := range rows {
		stock, known := meta[r.Symbol]
		if r.IsIndex || (known && stock.IsIndex) {
			continue
		}
		res := evaluate(r.IndicatorRow, stock.FloatShare, benchmark, th)
		res.Name = r.Name
		if known {
			res.Name = stock.Name
		}
		results = append(results, res)
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Satisfied != b.Satisfied {
			return a.Satisfied > b.Satisfied
		}
		ra, rb := ratingOrMinus(a.RSRating), ratingOrMinus(b.RSRating)
		if ra != rb {
			return ra > rb
		}
		return a.Symbol < b.Symbol
	})
	return results
}

func evaluate(r entity.IndicatorRow, floatShare *float64, benchmark *snapshot.Row, th Thresholds) Result {
	price := &r.Close
	volume := float64(r.Volume)

	var marketCap *float64
	if floatShare != nil {
		marketCap = utils.ToPointer(utils.Round(r.Close * *floatShare / 1e8, 2))
	}

	var passed [ConditionCount]bool
	passed[0] = greater(price, r.MA50)
	passed[1] = greater(price, r.MA150)
	passed[2] = greater(r.MA150, r.MA200)
	passed[3] = greater(r.MA10, r.MA20)
	if r.Low52W != nil && *r.Low52W > 0 {
		passed[4] = (r.Close-*r.Low52W) / *r.Low52W * 100 >= th.Low52WPct
	}
	if r.High52W != nil && *r.High52W > 0 {
		passed[5] = r.Close / *r.High52W * 100 >= th.High52WPct
	}
	passed[6] = atLeast(r.RSRating, th.RSRating)
	passed[7] = r.Close >= th.PriceMin
	passed[8] = atLeast(marketCap, th.MarketCap)
	passed[9] = volume >= th.VolumeMin
	passed[10] = r.Amount >= th.AmountMin
	passed[11] = atLeast(r.VolumeMA10, th.VolumeMAMin) &&
		atLeast(r.VolumeMA30, th.VolumeMAMin) &&
		atLeast(r.VolumeMA60, th.VolumeMAMin) &&
		atLeast(r.VolumeMA90, th.VolumeMAMin)
	passed[12] = benchmark != nil &&
		outperforms(r.Change20D, benchmark.Change20D, th.OutperformFactor) &&
		outperforms(r.Change60D, benchmark.Change60D, th.OutperformFactor) &&
		outperforms(r.Change180D, benchmark.Change180D, th.OutperformFactor)

	satisfied := 0
	for _, ok := range passed {
		if ok {
			satisfied++
		}
	}

	return Result{
		Symbol:    r.Symbol,
		Date:      r.Date,
		Close:     r.Close,
		RSRating:  r.RSRating,
		MarketCap: marketCap,
		Passed:    passed,
		Satisfied: satisfied,
		Tier:      TierOf(satisfied),
		Row:       r,
	}
}

// TierOf maps a satisfied count to its tier.
func TierOf(satisfied int) Tier {
	switch satisfied {
	case ConditionCount:
		return TierPerfect
	case ConditionCount - 1:
		return TierExcellent
	}
	return TierNone
}

// Analyze counts, per condition, how many results satisfy it.
func Analyze(results []Result) []ConditionStat {
	stats := make([]ConditionStat, ConditionCount)
	for i, c := range Conditions {
		stats[i].Condition = c
	}
	for _, r := range results {
		for i, ok := range r.Passed {
			if ok {
				stats[i].Satisfied++
			}
		}
	}
	if len(results) > 0 {
		for i := range stats {
			stats[i].Percent = utils.Round(float64(stats[i].Satisfied)/float64(len(results))*100, 2)
		}
	}
	return stats
}

// WithTier filters results to one tier.
func WithTier(results []Result, tier Tier) []Result {
	out := make([]Result, 0)
	for _, r := range results {
		if r.Tier == tier {
			out = append(out, r)
		}
	}
	return out
}

// AtLeast filters results satisfying at least n conditions.
func AtLeast(results []Result, n int) []Result {
	out := make([]Result, 0)
	for _, r := range results {
		if r.Satisfied >= n {
			out = append(out, r)
		}
	}
	return out
}

func greater(a, b *float64) bool {
	return a != nil && b != nil && *a > *b
}

func atLeast(v *float64, limit float64) bool {
	return v != nil && *v >= limit
}

func outperforms(stock, benchmark *float64, factor float64) bool {
	if stock == nil || benchmark == nil || *benchmark == 0 {
		return false
	}
	return *stock >= *benchmark*factor
}

func ratingOrMinus(v *float64) float64 {
	if v == nil {
		return -1
	}
	return *v
}
