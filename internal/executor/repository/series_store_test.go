package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/indicator"
	"golang-stock-indicator/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	epoch   = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	farPast = time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	farNext = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
)

func day(n int) time.Time { return epoch.AddDate(0, 0, n) }

func bar(n int, price float64) entity.Bar {
	return entity.Bar{Date: day(n), Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 1000, Amount: price * 1000}
}

func indicatorRow(symbol string, n int, raw *float64) entity.IndicatorRow {
	r := entity.IndicatorRow{Symbol: symbol, Date: day(n), Close: float64(10 + n), Volume: 1000}
	r.RSRaw = raw
	r.MA5 = utils.ToPointer(float64(n))
	return r
}

func barStores(t *testing.T) map[string]BarRepository {
	return map[string]BarRepository{
		"memory":  NewMemoryBarRepository(),
		"parquet": NewParquetBarRepository(t.TempDir()),
	}
}

func indicatorStores(t *testing.T) map[string]IndicatorRepository {
	return map[string]IndicatorRepository{
		"memory":  NewMemoryIndicatorRepository(),
		"parquet": NewParquetIndicatorRepository(t.TempDir()),
	}
}

func TestBarStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, store := range barStores(t) {
		t.Run(name, func(t *testing.T) {
			latest, err := store.GetLatestDate(ctx, "600000.SH")
			require.NoError(t, err)
			assert.Nil(t, latest)

			empty, err := store.GetSeries(ctx, "600000.SH", farPast, farNext)
			require.NoError(t, err)
			assert.Empty(t, empty)

			require.NoError(t, store.UpsertSeries(ctx, "600000.SH", []entity.Bar{bar(2, 12), bar(0, 10), bar(1, 11)}))
			require.NoError(t, store.UpsertSeries(ctx, "600000.SH", []entity.Bar{bar(2, 20), bar(3, 13)}))

			got, err := store.GetSeries(ctx, "600000.SH", farPast, farNext)
			require.NoError(t, err)
			require.Len(t, got, 4)
			for i, want := range []float64{10, 11, 20, 13} {
				assert.Equal(t, day(i), got[i].Date)
				assert.Equal(t, want, got[i].Close)
				assert.Equal(t, "600000.SH", got[i].Symbol)
			}

			window, err := store.GetSeries(ctx, "600000.SH", day(1), day(2))
			require.NoError(t, err)
			assert.Len(t, window, 2)

			latest, err = store.GetLatestDate(ctx, "600000.SH")
			require.NoError(t, err)
			require.NotNil(t, latest)
			assert.Equal(t, day(3), *latest)

			other, err := store.GetSeries(ctx, "000001.SZ", farPast, farNext)
			require.NoError(t, err)
			assert.Empty(t, other)
		})
	}
}

func TestIndicatorStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, store := range indicatorStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.UpsertSeries(ctx, "600000.SH", []entity.IndicatorRow{
				indicatorRow("600000.SH", 0, utils.ToPointer(0.1)),
				indicatorRow("600000.SH", 1, utils.ToPointer(0.2)),
			}))
			require.NoError(t, store.UpsertSeries(ctx, "000001.SZ", []entity.IndicatorRow{
				indicatorRow("000001.SZ", 0, nil),
			}))

			rows, err := store.FindByDateRange(ctx, day(0), day(0))
			require.NoError(t, err)
			assert.Len(t, rows, 2)

			rating := utils.ToPointer(75.0)
			require.NoError(t, store.UpdateRatings(ctx, []entity.RatingUpdate{
				{Symbol: "600000.SH", Date: day(1), Rating: rating},
				{Symbol: "600000.SH", Date: day(9), Rating: rating},
				{Symbol: "300750.SZ", Date: day(1), Rating: rating},
			}))

			series, err := store.GetSeries(ctx, "600000.SH", farPast, farNext)
			require.NoError(t, err)
			require.Len(t, series, 2)
			assert.Nil(t, series[0].RSRating)
			require.NotNil(t, series[1].RSRating)
			assert.Equal(t, 75.0, *series[1].RSRating)
			assert.Equal(t, 0.2, *series[1].RSRaw)
			assert.Equal(t, 1.0, *series[1].MA5)
			assert.Nil(t, series[1].RSI6)

			latest, err := store.FindLatest(ctx)
			require.NoError(t, err)
			require.Len(t, latest, 2)
			bySymbol := map[string]time.Time{}
			for _, r := range latest {
				bySymbol[r.Symbol] = r.Date
			}
			assert.Equal(t, day(1), bySymbol["600000.SH"])
			assert.Equal(t, day(0), bySymbol["000001.SZ"])
		})
	}
}

func TestParquetStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewParquetBarRepository(dir)
	ctx := context.Background()

	require.NoError(t, store.UpsertSeries(ctx, "600000.SH", []entity.Bar{bar(0, 10)}))
	require.NoError(t, store.UpsertSeries(ctx, "600000.SH", []entity.Bar{bar(1, 11)}))

	entries, err := os.ReadDir(filepath.Join(dir, "bars"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "600000.SH.parquet", entries[0].Name())

	reopened := NewParquetBarRepository(dir)
	got, err := reopened.GetSeries(ctx, "600000.SH", farPast, farNext)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestIndicatorStoresKeepShortHistoryNulls(t *testing.T) {
	engine, err := indicator.NewEngine(indicator.DefaultConfig())
	require.NoError(t, err)

	bars := make([]entity.Bar, 5)
	for i := range bars {
		bars[i] = bar(i, 10)
		bars[i].Symbol = "688981.SH"
	}
	computed := engine.Compute(bars)
	require.Len(t, computed, 5)

	ctx := context.Background()
	for name, store := range indicatorStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.UpsertSeries(ctx, "688981.SH", computed))

			got, err := store.GetSeries(ctx, "688981.SH", farPast, farNext)
			require.NoError(t, err)
			require.Len(t, got, 5)

			last := got[4]
			require.NotNil(t, last.MA5)
			assert.Equal(t, 10.0, *last.MA5)
			assert.Nil(t, last.MA20)
			assert.Nil(t, last.MA250)
			assert.Nil(t, last.High52W)
			assert.Nil(t, last.Change20D)
			assert.Nil(t, last.RSRaw)
			assert.Nil(t, last.RSRating)
			assert.Nil(t, got[0].Change1D)

			rows, err := store.FindByDateRange(ctx, farPast, farNext)
			require.NoError(t, err)
			for _, r := range rows {
				assert.Nil(t, r.RSRaw, "short history must stay out of the ranking population")
			}
		})
	}
}
