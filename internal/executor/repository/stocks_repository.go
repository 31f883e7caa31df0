package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang-stock-indicator/internal/entity"

	"github.com/parquet-go/parquet-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StocksRepository stores the symbol universe.
type StocksRepository interface {
	// GetStocks returns every active stock and index, ordered by symbol.
	GetStocks(ctx context.Context) ([]entity.Stock, error)
	// FindBySymbols returns the stocks among symbols that are known, in any state.
	FindBySymbols(ctx context.Context, symbols []string) ([]entity.Stock, error)
	// Upsert inserts or refreshes stocks keyed by symbol.
	Upsert(ctx context.Context, stocks []entity.Stock) error
	// DeactivateMissing marks non-index stocks absent from keep as inactive.
	DeactivateMissing(ctx context.Context, keep []string) (int64, error)
}

type stocksRepository struct {
	db *gorm.DB
}

func NewStocksRepository(db *gorm.DB) StocksRepository {
	return &stocksRepository{db: db}
}

func (s *stocksRepository) GetStocks(ctx context.Context) ([]entity.Stock, error) {
	var stocks []entity.Stock
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("symbol ASC").Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

func (s *stocksRepository) FindBySymbols(ctx context.Context, symbols []string) ([]entity.Stock, error) {
	var stocks []entity.Stock
	if len(symbols) == 0 {
		return stocks, nil
	}
	if err := s.db.WithContext(ctx).Where("symbol IN ?", symbols).Order("symbol ASC").Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

func (s *stocksRepository) Upsert(ctx context.Context, stocks []entity.Stock) error {
	if len(stocks) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}},
			DoUpdates: clause.AssignmentColumns([]string{"code", "name", "exchange", "is_index", "float_share", "is_active", "updated_at"}),
		}).
		CreateInBatches(stocks, upsertBatchSize).Error
	if err != nil {
		return fmt.Errorf("failed to upsert stocks: %w", err)
	}
	return nil
}

func (s *stocksRepository) DeactivateMissing(ctx context.Context, keep []string) (int64, error) {
	q := s.db.WithContext(ctx).Model(&entity.Stock{}).Where("is_index = ? AND is_active = ?", false, true)
	if len(keep) > 0 {
		q = q.Where("symbol NOT IN ?", keep)
	}
	res := q.Update("is_active", false)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to deactivate delisted stocks: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// NewMemoryStocksRepository returns a StocksRepository seeded with stocks.
func NewMemoryStocksRepository(stocks ...entity.Stock) StocksRepository {
	r := &fileStocksRepository{}
	r.stocks = mergeStocks(nil, stocks)
	return r
}

// NewParquetStocksRepository keeps the universe in <dataDir>/stocks.parquet.
func NewParquetStocksRepository(dataDir string) StocksRepository {
	return &fileStocksRepository{path: filepath.Join(dataDir, "stocks"+parquetExt)}
}

type stockRecord struct {
	Symbol     string   `parquet:"symbol"`
	Code       string   `parquet:"code"`
	Name       string   `parquet:"name"`
	Exchange   string   `parquet:"exchange"`
	IsIndex    bool     `parquet:"is_index"`
	FloatShare *float64 `parquet:"float_share,optional"`
	IsActive   bool     `parquet:"is_active"`
}

// fileStocksRepository holds the universe in memory and, when path is set, mirrors it to a
// parquet file after every write.
type fileStocksRepository struct {
	mu     sync.RWMutex
	path   string
	loaded bool
	stocks []entity.Stock
}

func (r *fileStocksRepository) load() error {
	if r.loaded || r.path == "" {
		return nil
	}
	if _, err := os.Stat(r.path); errors.Is(err, fs.ErrNotExist) {
		r.loaded = true
		return nil
	}
	records, err := parquet.ReadFile[stockRecord](r.path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", r.path, err)
	}
	r.stocks = make([]entity.Stock, len(records))
	for i, rec := range records {
		r.stocks[i] = entity.Stock{
			Symbol: rec.Symbol, Code: rec.Code, Name: rec.Name, Exchange: rec.Exchange,
			IsIndex: rec.IsIndex, FloatShare: rec.FloatShare, IsActive: rec.IsActive,
		}
	}
	r.loaded = true
	return nil
}

func (r *fileStocksRepository) flush() error {
	if r.path == "" {
		return nil
	}
	records := make([]stockRecord, len(r.stocks))
	for i, s := range r.stocks {
		records[i] = stockRecord{
			Symbol: s.Symbol, Code: s.Code, Name: s.Name, Exchange: s.Exchange,
			IsIndex: s.IsIndex, FloatShare: s.FloatShare, IsActive: s.IsActive,
		}
	}
	return writeParquetAtomic(r.path, records)
}

func (r *fileStocksRepository) GetStocks(_ context.Context) ([]entity.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(); err != nil {
		return nil, err
	}
	var out []entity.Stock
	for _, s := range r.stocks {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fileStocksRepository) FindBySymbols(_ context.Context, symbols []string) ([]entity.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(); err != nil {
		return nil, err
	}
	want := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		want[s] = struct{}{}
	}
	var out []entity.Stock
	for _, s := range r.stocks {
		if _, ok := want[s.Symbol]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fileStocksRepository) Upsert(_ context.Context, stocks []entity.Stock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(); err != nil {
		return err
	}
	r.stocks = mergeStocks(r.stocks, stocks)
	return r.flush()
}

func (r *fileStocksRepository) DeactivateMissing(_ context.Context, keep []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(); err != nil {
		return 0, err
	}
	kept := make(map[string]struct{}, len(keep))
	for _, s := range keep {
		kept[s] = struct{}{}
	}
	var n int64
	for i := range r.stocks {
		if _, ok := kept[r.stocks[i].Symbol]; ok || r.stocks[i].IsIndex || !r.stocks[i].IsActive {
			continue
		}
		r.stocks[i].IsActive = false
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return n, r.flush()
}

func mergeStocks(existing, incoming []entity.Stock) []entity.Stock {
	bySymbol := make(map[string]entity.Stock, len(existing)+len(incoming))
	for _, s := range existing {
		bySymbol[s.Symbol] = s
	}
	for _, s := range incoming {
		bySymbol[s.Symbol] = s
	}
	out := make([]entity.Stock, 0, len(bySymbol))
	for _, s := range bySymbol {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
