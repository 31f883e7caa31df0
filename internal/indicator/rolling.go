package indicator

import (
	"math"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/pkg/utils"
)

// Intermediate series use NaN for "no value"; value maps it back to nil.

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// rollingMean is the trailing mean over w values, NaN for the first w-1 positions.
func rollingMean(values []float64, w int) []float64 {
	out := nanSeries(len(values))
	if w <= 0 {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= w {
			sum -= values[i-w]
		}
		if i >= w-1 {
			out[i] = sum / float64(w)
		}
	}
	return out
}

// rsi averages the trailing w close-to-close deltas, so the first value appears at index w.
func rsi(closes []float64, w int) []float64 {
	out := nanSeries(len(closes))
	if w <= 0 {
		return out
	}
	for i := w; i < len(closes); i++ {
		var gain, loss float64
		for j := i - w + 1; j <= i; j++ {
			d := closes[j] - closes[j-1]
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
		}
		avgGain, avgLoss := gain/float64(w), loss/float64(w)
		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		out[i] = 100 - 100/(1+avgGain/avgLoss)
	}
	return out
}

// ema is seeded with the first value: ema[0] = x[0], ema[t] = a*x[t] + (1-a)*ema[t-1].
func ema(values []float64, span int) []float64 {
	return smooth(values, 2/(float64(span)+1))
}

func smooth(values []float64, alpha float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if i == 0 {
			out[i] = v
			continue
		}
		out[i] = alpha*v + (1-alpha)*out[i-1]
	}
	return out
}

// rollingExtreme returns the trailing max (or min) over w values using a monotonic deque.
// With partial set, positions before the first full window use what is available.
func rollingExtreme(values []float64, w int, max, partial bool) []float64 {
	out := nanSeries(len(values))
	if w <= 0 {
		return out
	}
	better := func(a, b float64) bool {
		if max {
			return a >= b
		}
		return a <= b
	}

	deque := make([]int, 0, w)
	for i, v := range values {
		for len(deque) > 0 && better(v, values[deque[len(deque)-1]]) {
			deque = deque[:len(deque)-1]
		}
		deque = append(deque, i)
		if deque[0] <= i-w {
			deque = deque[1:]
		}
		if i >= w-1 || partial {
			out[i] = values[deque[0]]
		}
	}
	return out
}

// pctChange is (x[t]/x[t-p] - 1) * 100.
func pctChange(values []float64, p int) []float64 {
	out := nanSeries(len(values))
	if p <= 0 {
		return out
	}
	for i := p; i < len(values); i++ {
		if values[i-p] == 0 {
			continue
		}
		out[i] = (values[i]/values[i-p] - 1) * 100
	}
	return out
}

// value rounds v, mapping NaN and infinities to nil.
func value(v float64, places int32) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	r := utils.Round(v, places)
	return &r
}

func fill(rows []entity.IndicatorRow, col column, values []float64, places int32) {
	for i := range rows {
		*col(&rows[i].IndicatorValues) = value(values[i], places)
	}
}
