package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/series"
	"golang-stock-indicator/pkg/utils"
)

// memorySeries is a process-local series store used for local runs and tests.
type memorySeries[T series.Dated] struct {
	mu   sync.RWMutex
	data map[string][]T
}

func newMemorySeries[T series.Dated]() *memorySeries[T] {
	return &memorySeries[T]{data: make(map[string][]T)}
}

func (m *memorySeries[T]) get(symbol string, start, end time.Time) []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return series.Window(m.data[symbol], start, end)
}

func (m *memorySeries[T]) latest(symbol string) *time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return series.Latest(m.data[symbol])
}

func (m *memorySeries[T]) upsert(symbol string, rows []T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[symbol] = series.Merge(m.data[symbol], rows)
}

// NewMemoryBarRepository returns an in-memory BarRepository.
func NewMemoryBarRepository() BarRepository {
	return &memoryBarRepository{store: newMemorySeries[entity.Bar]()}
}

type memoryBarRepository struct {
	store *memorySeries[entity.Bar]
}

func (r *memoryBarRepository) GetSeries(_ context.Context, symbol string, start, end time.Time) ([]entity.Bar, error) {
	return r.store.get(symbol, start, end), nil
}

func (r *memoryBarRepository) GetLatestDate(_ context.Context, symbol string) (*time.Time, error) {
	return r.store.latest(symbol), nil
}

func (r *memoryBarRepository) UpsertSeries(_ context.Context, symbol string, bars []entity.Bar) error {
	rows := make([]entity.Bar, len(bars))
	for i, b := range bars {
		b.Symbol = symbol
		b.Date = utils.TruncateDay(b.Date)
		rows[i] = b
	}
	r.store.upsert(symbol, rows)
	return nil
}

// NewMemoryIndicatorRepository returns an in-memory IndicatorRepository.
func NewMemoryIndicatorRepository() IndicatorRepository {
	return &memoryIndicatorRepository{store: newMemorySeries[entity.IndicatorRow]()}
}

type memoryIndicatorRepository struct {
	store *memorySeries[entity.IndicatorRow]
}

func (r *memoryIndicatorRepository) GetSeries(_ context.Context, symbol string, start, end time.Time) ([]entity.IndicatorRow, error) {
	return r.store.get(symbol, start, end), nil
}

func (r *memoryIndicatorRepository) GetLatestDate(_ context.Context, symbol string) (*time.Time, error) {
	return r.store.latest(symbol), nil
}

func (r *memoryIndicatorRepository) UpsertSeries(_ context.Context, symbol string, rows []entity.IndicatorRow) error {
	out := make([]entity.IndicatorRow, len(rows))
	for i, row := range rows {
		row.Symbol = symbol
		row.Date = utils.TruncateDay(row.Date)
		out[i] = row
	}
	r.store.upsert(symbol, out)
	return nil
}

func (r *memoryIndicatorRepository) FindByDateRange(_ context.Context, start, end time.Time) ([]entity.IndicatorRow, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []entity.IndicatorRow
	for _, symbol := range r.symbols() {
		out = append(out, series.Window(r.store.data[symbol], start, end)...)
	}
	return out, nil
}

func (r *memoryIndicatorRepository) UpdateRatings(_ context.Context, updates []entity.RatingUpdate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, u := range updates {
		rows := r.store.data[u.Symbol]
		d := utils.TruncateDay(u.Date)
		for i := range rows {
			if rows[i].Date.Equal(d) {
				rows[i].RSRating = u.Rating
				break
			}
		}
	}
	return nil
}

func (r *memoryIndicatorRepository) FindLatest(_ context.Context) ([]entity.IndicatorRow, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []entity.IndicatorRow
	for _, symbol := range r.symbols() {
		if rows := r.store.data[symbol]; len(rows) > 0 {
			out = append(out, rows[len(rows)-1])
		}
	}
	return out, nil
}

// symbols must be called with the lock held.
func (r *memoryIndicatorRepository) symbols() []string {
	out := make([]string, 0, len(r.store.data))
	for s := range r.store.data {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
