package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang-stock-indicator/internal/entity"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested market record does not exist.
var ErrNotFound = errors.New("record not found")

// MarketRepository reads what the executor has written to the row store.
type MarketRepository interface {
	FindLatestIndicators(ctx context.Context) ([]entity.IndicatorRow, error)
	FindIndicators(ctx context.Context, symbol string, start, end time.Time) ([]entity.IndicatorRow, error)
	FindMarketStat(ctx context.Context, date time.Time) (*entity.MarketDailyStat, error)
	FindActiveStocks(ctx context.Context) ([]entity.Stock, error)
}

// NewMarketRepository creates a new GORM-based market repository.
func NewMarketRepository(db *gorm.DB) MarketRepository {
	return &marketRepository{db: db}
}

type marketRepository struct {
	db *gorm.DB
}

func (r *marketRepository) FindLatestIndicators(ctx context.Context) ([]entity.IndicatorRow, error) {
	var rows []entity.IndicatorRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (symbol) * FROM daily_indicators ORDER BY symbol, date DESC`).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find latest indicators: %w", err)
	}
	return rows, nil
}

func (r *marketRepository) FindIndicators(ctx context.Context, symbol string, start, end time.Time) ([]entity.IndicatorRow, error) {
	var rows []entity.IndicatorRow
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND date BETWEEN ? AND ?", symbol, start, end).
		Order("date").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find indicators for %s: %w", symbol, err)
	}
	return rows, nil
}

func (r *marketRepository) FindMarketStat(ctx context.Context, date time.Time) (*entity.MarketDailyStat, error) {
	var stat entity.MarketDailyStat
	err := r.db.WithContext(ctx).Where("date = ?", date).First(&stat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find market stat: %w", err)
	}
	return &stat, nil
}

func (r *marketRepository) FindActiveStocks(ctx context.Context) ([]entity.Stock, error) {
	var stocks []entity.Stock
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("symbol").Find(&stocks).Error; err != nil {
		return nil, fmt.Errorf("failed to find stocks: %w", err)
	}
	return stocks, nil
}
