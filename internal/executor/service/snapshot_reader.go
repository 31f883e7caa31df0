package service

import (
	"context"
	"fmt"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/executor/repository"
	"golang-stock-indicator/internal/snapshot"
	"golang-stock-indicator/pkg/utils"
)

// snapshotReader assembles the current snapshot from the indicator store for the
// services that run after the pipeline.
type snapshotReader struct {
	indicatorRepo repository.IndicatorRepository
	stocksRepo    repository.StocksRepository
	indexes       []string
}

// latest returns the snapshot as of the most recent stored date.
func (r snapshotReader) latest(ctx context.Context) ([]snapshot.Row, time.Time, []entity.Stock, error) {
	universe, err := loadUniverse(ctx, r.stocksRepo, r.indexes)
	if err != nil {
		return nil, time.Time{}, nil, fmt.Errorf("failed to load universe: %w", err)
	}
	rows, err := r.indicatorRepo.FindLatest(ctx)
	if err != nil {
		return nil, time.Time{}, nil, fmt.Errorf("failed to load latest indicators: %w", err)
	}

	var asOf time.Time
	for _, row := range rows {
		if row.Date.After(asOf) {
			asOf = utils.TruncateDay(row.Date)
		}
	}
	snap := snapshot.Build(rows, asOf)
	snapshot.Annotate(snap, universe)
	return snap, asOf, universe, nil
}

// on returns the rows dated exactly on date.
func (r snapshotReader) on(ctx context.Context, date time.Time) ([]snapshot.Row, []entity.Stock, error) {
	universe, err := loadUniverse(ctx, r.stocksRepo, r.indexes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load universe: %w", err)
	}
	rows, err := r.indicatorRepo.FindByDateRange(ctx, date, date)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load indicators for %s: %w", utils.FormatDate(date), err)
	}
	snap := snapshot.Build(rows, date)
	snapshot.Annotate(snap, universe)
	return snap, universe, nil
}

// fresh drops rows that are not dated on the snapshot's as-of date.
func fresh(rows []snapshot.Row) []snapshot.Row {
	out := make([]snapshot.Row, 0, len(rows))
	for _, r := range rows {
		if !r.Stale {
			out = append(out, r)
		}
	}
	return out
}
