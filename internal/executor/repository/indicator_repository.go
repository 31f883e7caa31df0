package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang-stock-indicator/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ratingBatchSize keeps each rating UPDATE well under the postgres bind parameter limit.
const ratingBatchSize = 2000

// IndicatorRepository stores indicator rows keyed by (symbol, date) and serves the
// cross-sectional reads of the ranker and the snapshot builder.
type IndicatorRepository interface {
	GetSeries(ctx context.Context, symbol string, start, end time.Time) ([]entity.IndicatorRow, error)
	GetLatestDate(ctx context.Context, symbol string) (*time.Time, error)
	UpsertSeries(ctx context.Context, symbol string, rows []entity.IndicatorRow) error
	// FindByDateRange returns every symbol's rows dated in [start, end].
	FindByDateRange(ctx context.Context, start, end time.Time) ([]entity.IndicatorRow, error)
	// UpdateRatings sets rs_rating on existing rows; missing rows are ignored.
	UpdateRatings(ctx context.Context, updates []entity.RatingUpdate) error
	// FindLatest returns the most recent row of every symbol.
	FindLatest(ctx context.Context) ([]entity.IndicatorRow, error)
}

// NewIndicatorRepository creates a new GORM-based indicator repository.
func NewIndicatorRepository(db *gorm.DB) IndicatorRepository {
	return &indicatorRepository{db: db}
}

type indicatorRepository struct {
	db *gorm.DB
}

func (r *indicatorRepository) GetSeries(ctx context.Context, symbol string, start, end time.Time) ([]entity.IndicatorRow, error) {
	var rows []entity.IndicatorRow
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND date BETWEEN ? AND ?", symbol, start, end).
		Order("date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get indicators for %s: %w", symbol, err)
	}
	return rows, nil
}

func (r *indicatorRepository) GetLatestDate(ctx context.Context, symbol string) (*time.Time, error) {
	return latestDate(ctx, r.db, &entity.IndicatorRow{}, symbol)
}

func (r *indicatorRepository) UpsertSeries(ctx context.Context, symbol string, rows []entity.IndicatorRow) error {
	if len(rows) == 0 {
		return nil
	}
	out := make([]entity.IndicatorRow, len(rows))
	for i, row := range rows {
		row.Symbol = symbol
		out[i] = row
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}, {Name: "date"}},
			UpdateAll: true,
		}).
		CreateInBatches(out, upsertBatchSize).Error
	if err != nil {
		return fmt.Errorf("failed to upsert indicators for %s: %w", symbol, err)
	}
	return nil
}

func (r *indicatorRepository) FindByDateRange(ctx context.Context, start, end time.Time) ([]entity.IndicatorRow, error) {
	var rows []entity.IndicatorRow
	err := r.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", start, end).
		Order("date ASC, symbol ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find indicators between %s and %s: %w", start.Format(time.DateOnly), end.Format(time.DateOnly), err)
	}
	return rows, nil
}

func (r *indicatorRepository) UpdateRatings(ctx context.Context, updates []entity.RatingUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(updates); start += ratingBatchSize {
			end := min(start+ratingBatchSize, len(updates))
			query, args := ratingUpdateSQL(updates[start:end])
			if err := tx.Exec(query, args...).Error; err != nil {
				return fmt.Errorf("failed to update rs_rating batch at %d: %w", start, err)
			}
		}
		return nil
	})
}

// ratingUpdateSQL builds one UPDATE ... FROM (VALUES ...) statement for a batch of ratings.
func ratingUpdateSQL(updates []entity.RatingUpdate) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString("UPDATE daily_indicators AS d SET rs_rating = v.rs_rating FROM (VALUES ")
	args := make([]interface{}, 0, len(updates)*3)
	for i, u := range updates {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?::text, ?::date, ?::double precision)")
		args = append(args, u.Symbol, u.Date.Format(time.DateOnly), u.Rating)
	}
	sb.WriteString(") AS v(symbol, date, rs_rating) WHERE d.symbol = v.symbol AND d.date = v.date")
	return sb.String(), args
}

func (r *indicatorRepository) FindLatest(ctx context.Context) ([]entity.IndicatorRow, error) {
	var rows []entity.IndicatorRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (symbol) * FROM daily_indicators ORDER BY symbol, date DESC`).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find latest indicators: %w", err)
	}
	return rows, nil
}
