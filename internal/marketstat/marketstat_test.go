package marketstat

import (
	"testing"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var statDate = time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)

func f(v float64) *float64 { return &v }

func stock(symbol string, pct, rs *float64, price float64, ma20 *float64) snapshot.Row {
	r := entity.IndicatorRow{Symbol: symbol, Date: statDate, Close: price, Volume: 50000000, Amount: 1e8, PctChange: pct}
	r.RSRating = rs
	r.MA20 = ma20
	return snapshot.Row{IndicatorRow: r}
}

func TestCompute(t *testing.T) {
	stale := stock("600005.SH", f(1), f(99), 10, nil)
	stale.Date = statDate.AddDate(0, 0, -7)
	index := stock("000300.SH", f(1), nil, 4000, nil)
	index.IsIndex = true

	got := Compute([]snapshot.Row{
		stock("600000.SH", f(10.01), f(95), 11, f(10)),
		stock("600001.SH", f(-9.95), f(85), 9, f(10)),
		stock("600002.SH", f(5.5), f(72), 12, f(10)),
		stock("600003.SH", f(0), f(60), 10, f(10)),
		stock("600004.SH", f(-1), f(20), 8, nil),
		stock("600006.SH", nil, nil, 8, nil),
		stale,
		index,
	}, statDate)

	assert.Equal(t, statDate, got.Date)
	assert.Equal(t, 6, got.Total)
	assert.Equal(t, 1, got.StaleSymbols)
	assert.Equal(t, 2, got.Up)
	assert.Equal(t, 2, got.Down)
	assert.Equal(t, 1, got.Flat)
	assert.Equal(t, 1, got.LimitUp)
	assert.Equal(t, 1, got.LimitDown)
	assert.Equal(t, 2, got.BigUp)
	assert.Equal(t, 1, got.BigDown)

	require.NotNil(t, got.MeanPct)
	assert.Equal(t, 0.91, *got.MeanPct)
	assert.Equal(t, 0.0, *got.MedianPct)

	assert.Equal(t, 3.0, got.VolumeSum)
	assert.Equal(t, 6.0, got.AmountSum)

	assert.Equal(t, 1, got.RS90Plus)
	assert.Equal(t, 1, got.RS80To90)
	assert.Equal(t, 1, got.RS70To80)
	assert.Equal(t, 1, got.RS60To70)
	assert.Equal(t, 1, got.RSBelow60)

	assert.Equal(t, 2, got.AboveMA20)
	assert.Equal(t, 33.33, *got.AboveMA20Pct)
	assert.Equal(t, 0, got.AboveMA200)
	assert.Equal(t, 0.0, *got.AboveMA200Pct)
}

func TestComputeEmpty(t *testing.T) {
	got := Compute(nil, statDate)
	assert.Zero(t, got.Total)
	assert.Nil(t, got.MeanPct)
	assert.Nil(t, got.AboveMA20Pct)
}
