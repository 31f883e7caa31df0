package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang-stock-indicator/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const upsertBatchSize = 500

// BarRepository stores daily bars keyed by (symbol, date).
type BarRepository interface {
	// GetSeries returns the bars of symbol dated in [start, end], ascending.
	GetSeries(ctx context.Context, symbol string, start, end time.Time) ([]entity.Bar, error)
	// GetLatestDate returns the most recent stored date, or nil when symbol has no bars.
	GetLatestDate(ctx context.Context, symbol string) (*time.Time, error)
	// UpsertSeries merges bars into the stored series; on a date collision the new bar wins.
	UpsertSeries(ctx context.Context, symbol string, bars []entity.Bar) error
}

// NewBarRepository creates a new GORM-based bar repository.
func NewBarRepository(db *gorm.DB) BarRepository {
	return &barRepository{db: db}
}

type barRepository struct {
	db *gorm.DB
}

func (r *barRepository) GetSeries(ctx context.Context, symbol string, start, end time.Time) ([]entity.Bar, error) {
	var bars []entity.Bar
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND date BETWEEN ? AND ?", symbol, start, end).
		Order("date ASC").
		Find(&bars).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get bars for %s: %w", symbol, err)
	}
	return bars, nil
}

func (r *barRepository) GetLatestDate(ctx context.Context, symbol string) (*time.Time, error) {
	return latestDate(ctx, r.db, &entity.Bar{}, symbol)
}

func (r *barRepository) UpsertSeries(ctx context.Context, symbol string, bars []entity.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	rows := make([]entity.Bar, len(bars))
	for i, b := range bars {
		b.Symbol = symbol
		rows[i] = b
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}, {Name: "date"}},
			UpdateAll: true,
		}).
		CreateInBatches(rows, upsertBatchSize).Error
	if err != nil {
		return fmt.Errorf("failed to upsert bars for %s: %w", symbol, err)
	}
	return nil
}

func latestDate(ctx context.Context, db *gorm.DB, model interface{}, symbol string) (*time.Time, error) {
	var latest sql.NullTime
	err := db.WithContext(ctx).Model(model).
		Select("MAX(date)").
		Where("symbol = ?", symbol).
		Scan(&latest).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get latest date for %s: %w", symbol, err)
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}
