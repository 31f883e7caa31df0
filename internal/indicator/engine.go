package indicator

import (
	"math"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/series"
)

// Decimal places per field group.
const (
	pricePlaces  = 2
	oscPlaces    = 4
	RatingPlaces = 1
)

// rsWeights are the horizon weights of the raw relative strength score.
var rsWeights = []struct {
	period int
	weight float64
}{
	{20, 0.4},
	{60, 0.3},
	{120, 0.2},
	{250, 0.1},
}

// Engine computes indicator rows from a bar history. It holds no state between calls.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and returns an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine's window configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Compute returns one row per bar, in ascending date order. Fields whose window is not yet
// filled are nil. rs_rating is left nil; it is a cross-sectional value set by the ranker.
func (e *Engine) Compute(bars []entity.Bar) []entity.IndicatorRow {
	sorted := make([]entity.Bar, len(bars))
	copy(sorted, bars)
	series.SortByDate(sorted)

	n := len(sorted)
	rows := make([]entity.IndicatorRow, n)
	if n == 0 {
		return rows
	}

	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range sorted {
		closes[i], highs[i], lows[i], volumes[i] = b.Close, b.High, b.Low, float64(b.Volume)
		rows[i] = entity.IndicatorRow{
			Symbol:    b.Symbol,
			Date:      b.Date,
			Close:     b.Close,
			Volume:    b.Volume,
			Amount:    b.Amount,
			PctChange: b.PctChange,
		}
	}

	for _, w := range e.cfg.MA {
		fill(rows, maColumns[w], rollingMean(closes, w), pricePlaces)
	}
	for _, w := range e.cfg.RSI {
		fill(rows, rsiColumns[w], rsi(closes, w), pricePlaces)
	}
	for _, p := range e.cfg.Returns {
		fill(rows, returnColumns[p], pctChange(closes, p), pricePlaces)
	}

	var volMA5 []float64
	for _, w := range e.cfg.VolumeMA {
		ma := rollingMean(volumes, w)
		if w == 5 {
			volMA5 = ma
		}
		fill(rows, volumeMAColumns[w], ma, pricePlaces)
	}
	if volMA5 == nil {
		volMA5 = rollingMean(volumes, 5)
	}
	ratio := nanSeries(n)
	for i := range ratio {
		if volMA5[i] != 0 {
			ratio[i] = volumes[i] / volMA5[i]
		}
	}
	fill(rows, func(v *entity.IndicatorValues) **float64 { return &v.VolumeRatio5D }, ratio, pricePlaces)

	for _, w := range e.cfg.Extremes {
		cols := extremesColumns[w]
		fill(rows, cols.high, rollingExtreme(highs, w, true, e.cfg.PartialExtremes), pricePlaces)
		fill(rows, cols.low, rollingExtreme(lows, w, false, e.cfg.PartialExtremes), pricePlaces)
	}
	fill(rows, func(v *entity.IndicatorValues) **float64 { return &v.High52W },
		rollingExtreme(highs, e.cfg.Week52, true, e.cfg.PartialExtremes), pricePlaces)
	fill(rows, func(v *entity.IndicatorValues) **float64 { return &v.Low52W },
		rollingExtreme(lows, e.cfg.Week52, false, e.cfg.PartialExtremes), pricePlaces)

	e.macd(rows, closes)
	e.kdj(rows, closes, highs, lows)
	fill(rows, func(v *entity.IndicatorValues) **float64 { return &v.RSRaw }, rsRaw(closes), oscPlaces)

	return rows
}

func (e *Engine) macd(rows []entity.IndicatorRow, closes []float64) {
	m := e.cfg.MACD
	fast, slow := ema(closes, m.Fast), ema(closes, m.Slow)

	dif := make([]float64, len(closes))
	for i := range dif {
		dif[i] = fast[i] - slow[i]
	}
	dea := ema(dif, m.Signal)

	difStart := m.Slow - 1
	deaStart := m.Slow + m.Signal - 2
	for i := range rows {
		v := &rows[i].IndicatorValues
		if i >= difStart {
			v.MACDDif = value(dif[i], oscPlaces)
		}
		if i >= deaStart {
			v.MACDDea = value(dea[i], oscPlaces)
			v.MACDHist = value(dif[i]-dea[i], oscPlaces)
		}
	}
}

// kdj smooths RSV with alpha 1/3, seeding K and D with the first valid RSV. A bar whose
// n-bar range is zero has no RSV; it is left nil and the smoothing state carries over.
func (e *Engine) kdj(rows []entity.IndicatorRow, closes, highs, lows []float64) {
	const alpha = 1.0 / 3
	lowest := rollingExtreme(lows, e.cfg.KDJ, false, false)
	highest := rollingExtreme(highs, e.cfg.KDJ, true, false)

	var k, d float64
	seeded := false
	for i := range rows {
		if math.IsNaN(lowest[i]) || math.IsNaN(highest[i]) {
			continue
		}
		span := highest[i] - lowest[i]
		if span == 0 {
			continue
		}
		rsv := (closes[i] - lowest[i]) / span * 100
		if !seeded {
			k, d, seeded = rsv, rsv, true
		} else {
			k = alpha*rsv + (1-alpha)*k
			d = alpha*k + (1-alpha)*d
		}

		v := &rows[i].IndicatorValues
		v.KDJK = value(k, oscPlaces)
		v.KDJD = value(d, oscPlaces)
		v.KDJJ = value(3*k-2*d, oscPlaces)
	}
}

// rsRaw weights fractional returns over 20/60/120/250 bars. It is NaN unless every
// horizon is available.
func rsRaw(closes []float64) []float64 {
	out := nanSeries(len(closes))
	for i := range closes {
		var score float64
		ok := true
		for _, h := range rsWeights {
			if i < h.period || closes[i-h.period] == 0 {
				ok = false
				break
			}
			score += h.weight * (closes[i]/closes[i-h.period] - 1)
		}
		if ok {
			out[i] = score
		}
	}
	return out
}
