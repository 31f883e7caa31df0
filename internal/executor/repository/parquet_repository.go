package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/series"
	"golang-stock-indicator/pkg/utils"

	"github.com/parquet-go/parquet-go"
)

const parquetExt = ".parquet"

type barRecord struct {
	Date          string   `parquet:"date"`
	Open          float64  `parquet:"open"`
	High          float64  `parquet:"high"`
	Low           float64  `parquet:"low"`
	Close         float64  `parquet:"close"`
	Volume        int64    `parquet:"volume"`
	Amount        float64  `parquet:"amount"`
	PreviousClose *float64 `parquet:"previous_close,optional"`
	Turnover      *float64 `parquet:"turnover,optional"`
	ChangeAmount  *float64 `parquet:"change_amount,optional"`
	PctChange     *float64 `parquet:"pct_change,optional"`
	Amplitude     *float64 `parquet:"amplitude,optional"`
	Abnormal      bool     `parquet:"abnormal"`
	Halted        bool     `parquet:"halted"`
}

func toBarRecord(b entity.Bar) barRecord {
	return barRecord{
		Date: utils.FormatDate(b.Date), Open: b.Open, High: b.High, Low: b.Low, Close: b.Close,
		Volume: b.Volume, Amount: b.Amount, PreviousClose: b.PreviousClose, Turnover: b.Turnover,
		ChangeAmount: b.ChangeAmount, PctChange: b.PctChange, Amplitude: b.Amplitude,
		Abnormal: b.Abnormal, Halted: b.Halted,
	}
}

func fromBarRecord(symbol string, r barRecord) (entity.Bar, error) {
	d, err := utils.ParseDate(r.Date)
	if err != nil {
		return entity.Bar{}, err
	}
	return entity.Bar{
		Symbol: symbol, Date: d, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close,
		Volume: r.Volume, Amount: r.Amount, PreviousClose: r.PreviousClose, Turnover: r.Turnover,
		ChangeAmount: r.ChangeAmount, PctChange: r.PctChange, Amplitude: r.Amplitude,
		Abnormal: r.Abnormal, Halted: r.Halted,
	}, nil
}

func toIndicatorRecord(r entity.IndicatorRow) indicatorRecord {
	rec := indicatorRecord{
		Date: utils.FormatDate(r.Date), Close: r.Close, Volume: r.Volume, Amount: r.Amount,
		PctChange: r.PctChange,
	}
	rec.setValues(r.IndicatorValues)
	return rec
}

func fromIndicatorRecord(symbol string, r indicatorRecord) (entity.IndicatorRow, error) {
	d, err := utils.ParseDate(r.Date)
	if err != nil {
		return entity.IndicatorRow{}, err
	}
	return entity.IndicatorRow{
		Symbol: symbol, Date: d, Close: r.Close, Volume: r.Volume, Amount: r.Amount,
		PctChange: r.PctChange, IndicatorValues: r.values(),
	}, nil
}

// parquetSeries keeps one parquet file per symbol under dir. Writes go through a temp file
// in the same directory and a rename, so readers never observe a partial file.
type parquetSeries[T series.Dated, R any] struct {
	dir        string
	toRecord   func(T) R
	fromRecord func(string, R) (T, error)
	locks      sync.Map
}

func (p *parquetSeries[T, R]) lock(symbol string) *sync.Mutex {
	mu, _ := p.locks.LoadOrStore(symbol, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (p *parquetSeries[T, R]) path(symbol string) string {
	return filepath.Join(p.dir, symbol+parquetExt)
}

func (p *parquetSeries[T, R]) read(symbol string) ([]T, error) {
	if _, err := os.Stat(p.path(symbol)); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	records, err := parquet.ReadFile[R](p.path(symbol))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.path(symbol), err)
	}
	out := make([]T, 0, len(records))
	for _, rec := range records {
		row, err := p.fromRecord(symbol, rec)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", p.path(symbol), err)
		}
		out = append(out, row)
	}
	series.SortByDate(out)
	return out, nil
}

func (p *parquetSeries[T, R]) write(symbol string, rows []T) error {
	records := make([]R, len(rows))
	for i, row := range rows {
		records[i] = p.toRecord(row)
	}
	return writeParquetAtomic(p.path(symbol), records)
}

func (p *parquetSeries[T, R]) get(symbol string, start, end time.Time) ([]T, error) {
	mu := p.lock(symbol)
	mu.Lock()
	defer mu.Unlock()

	rows, err := p.read(symbol)
	if err != nil {
		return nil, err
	}
	return series.Window(rows, start, end), nil
}

func (p *parquetSeries[T, R]) latest(symbol string) (*time.Time, error) {
	rows, err := p.get(symbol, time.Time{}, time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return nil, err
	}
	return series.Latest(rows), nil
}

func (p *parquetSeries[T, R]) upsert(symbol string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	mu := p.lock(symbol)
	mu.Lock()
	defer mu.Unlock()

	existing, err := p.read(symbol)
	if err != nil {
		return err
	}
	return p.write(symbol, series.Merge(existing, rows))
}

// update rewrites symbol's series through fn under the symbol lock.
func (p *parquetSeries[T, R]) update(symbol string, fn func([]T) []T) error {
	mu := p.lock(symbol)
	mu.Lock()
	defer mu.Unlock()

	existing, err := p.read(symbol)
	if err != nil || len(existing) == 0 {
		return err
	}
	return p.write(symbol, fn(existing))
}

func (p *parquetSeries[T, R]) symbols() ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", p.dir, err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, parquetExt) {
			continue
		}
		out = append(out, strings.TrimSuffix(name, parquetExt))
	}
	sort.Strings(out)
	return out, nil
}

func writeParquetAtomic[R any](target string, records []R) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if err := parquet.Write(tmpFile, records); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write parquet %s: %w", target, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// NewParquetBarRepository stores bars as <dataDir>/bars/<symbol>.parquet.
func NewParquetBarRepository(dataDir string) BarRepository {
	return &parquetBarRepository{files: &parquetSeries[entity.Bar, barRecord]{
		dir:        filepath.Join(dataDir, "bars"),
		toRecord:   toBarRecord,
		fromRecord: fromBarRecord,
	}}
}

type parquetBarRepository struct {
	files *parquetSeries[entity.Bar, barRecord]
}

func (r *parquetBarRepository) GetSeries(_ context.Context, symbol string, start, end time.Time) ([]entity.Bar, error) {
	return r.files.get(symbol, start, end)
}

func (r *parquetBarRepository) GetLatestDate(_ context.Context, symbol string) (*time.Time, error) {
	return r.files.latest(symbol)
}

func (r *parquetBarRepository) UpsertSeries(_ context.Context, symbol string, bars []entity.Bar) error {
	return r.files.upsert(symbol, bars)
}

// NewParquetIndicatorRepository stores indicator rows as <dataDir>/indicators/<symbol>.parquet.
func NewParquetIndicatorRepository(dataDir string) IndicatorRepository {
	return &parquetIndicatorRepository{files: &parquetSeries[entity.IndicatorRow, indicatorRecord]{
		dir:        filepath.Join(dataDir, "indicators"),
		toRecord:   toIndicatorRecord,
		fromRecord: fromIndicatorRecord,
	}}
}

type parquetIndicatorRepository struct {
	files *parquetSeries[entity.IndicatorRow, indicatorRecord]
}

func (r *parquetIndicatorRepository) GetSeries(_ context.Context, symbol string, start, end time.Time) ([]entity.IndicatorRow, error) {
	return r.files.get(symbol, start, end)
}

func (r *parquetIndicatorRepository) GetLatestDate(_ context.Context, symbol string) (*time.Time, error) {
	return r.files.latest(symbol)
}

func (r *parquetIndicatorRepository) UpsertSeries(_ context.Context, symbol string, rows []entity.IndicatorRow) error {
	return r.files.upsert(symbol, rows)
}

func (r *parquetIndicatorRepository) FindByDateRange(ctx context.Context, start, end time.Time) ([]entity.IndicatorRow, error) {
	symbols, err := r.files.symbols()
	if err != nil {
		return nil, err
	}
	var out []entity.IndicatorRow
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := r.files.get(symbol, start, end)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (r *parquetIndicatorRepository) UpdateRatings(ctx context.Context, updates []entity.RatingUpdate) error {
	bySymbol := make(map[string]map[time.Time]*float64)
	for _, u := range updates {
		if bySymbol[u.Symbol] == nil {
			bySymbol[u.Symbol] = make(map[time.Time]*float64)
		}
		bySymbol[u.Symbol][utils.TruncateDay(u.Date)] = u.Rating
	}

	for symbol, ratings := range bySymbol {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := r.files.update(symbol, func(rows []entity.IndicatorRow) []entity.IndicatorRow {
			for i := range rows {
				if rating, ok := ratings[utils.TruncateDay(rows[i].Date)]; ok {
					rows[i].RSRating = rating
				}
			}
			return rows
		})
		if err != nil {
			return fmt.Errorf("failed to update ratings for %s: %w", symbol, err)
		}
	}
	return nil
}

func (r *parquetIndicatorRepository) FindLatest(ctx context.Context) ([]entity.IndicatorRow, error) {
	symbols, err := r.files.symbols()
	if err != nil {
		return nil, err
	}
	var out []entity.IndicatorRow
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mu := r.files.lock(symbol)
		mu.Lock()
		rows, err := r.files.read(symbol)
		mu.Unlock()
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			out = append(out, rows[len(rows)-1])
		}
	}
	return out, nil
}
