package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// MarketStatRepository stores one breadth summary per trading date.
type MarketStatRepository interface {
	Upsert(ctx context.Context, stat *entity.MarketDailyStat) error
	FindByDate(ctx context.Context, date time.Time) (*entity.MarketDailyStat, error)
}

func NewMarketStatRepository(db *gorm.DB) MarketStatRepository {
	return &marketStatRepository{db: db}
}

type marketStatRepository struct {
	db *gorm.DB
}

func (r *marketStatRepository) Upsert(ctx context.Context, stat *entity.MarketDailyStat) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "date"}}, UpdateAll: true}).
		Create(stat).Error
	if err != nil {
		return fmt.Errorf("failed to upsert market stat for %s: %w", utils.FormatDate(stat.Date), err)
	}
	return nil
}

func (r *marketStatRepository) FindByDate(ctx context.Context, date time.Time) (*entity.MarketDailyStat, error) {
	var stat entity.MarketDailyStat
	err := r.db.WithContext(ctx).Where("date = ?", utils.TruncateDay(date)).First(&stat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find market stat for %s: %w", utils.FormatDate(date), err)
	}
	return &stat, nil
}

// NewMemoryMarketStatRepository returns a process-local MarketStatRepository.
func NewMemoryMarketStatRepository() MarketStatRepository {
	return &memoryMarketStatRepository{stats: make(map[time.Time]entity.MarketDailyStat)}
}

type memoryMarketStatRepository struct {
	mu    sync.RWMutex
	stats map[time.Time]entity.MarketDailyStat
}

func (r *memoryMarketStatRepository) Upsert(_ context.Context, stat *entity.MarketDailyStat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats[utils.TruncateDay(stat.Date)] = *stat
	return nil
}

func (r *memoryMarketStatRepository) FindByDate(_ context.Context, date time.Time) (*entity.MarketDailyStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stat, ok := r.stats[utils.TruncateDay(date)]
	if !ok {
		return nil, ErrNotFound
	}
	return &stat, nil
}
