package dto

import (
	"time"
)

// SymbolStatus is the per-symbol outcome of a pipeline run.
type SymbolStatus string

const (
	SymbolUpdated SymbolStatus = "UPDATED"
	SymbolSkipped SymbolStatus = "SKIPPED"
	SymbolFailed  SymbolStatus = "FAILED"
)

// RunRequest parameterises one pipeline run. It is also the INDICATOR_PIPELINE job payload.
// An empty AsOf (YYYY-MM-DD) means the configured date or the latest trading day; empty
// Symbols means the whole active universe.
type RunRequest struct {
	AsOf      string   `json:"as_of,omitempty"`
	ForceFull bool     `json:"force_full,omitempty"`
	Symbols   []string `json:"symbols,omitempty"`
	SkipRank  bool     `json:"skip_rank,omitempty"`
}

// SymbolResult is what happened to one symbol.
type SymbolResult struct {
	Symbol  string       `json:"symbol"`
	Status  SymbolStatus `json:"status"`
	Reason  string       `json:"reason,omitempty"`
	Bars    int          `json:"bars"`
	Rows    int          `json:"rows"`
	Start   *time.Time   `json:"start,omitempty"`
	Elapsed string       `json:"elapsed"`
}

// RunSummary is the outcome of a pipeline run.
type RunSummary struct {
	RunID         string         `json:"run_id"`
	AsOf          string         `json:"as_of"`
	Updated       int            `json:"updated"`
	Skipped       int            `json:"skipped"`
	Failed        int            `json:"failed"`
	FailedSymbols []string       `json:"failed_symbols"`
	RankedDates   int            `json:"ranked_dates"`
	SnapshotRows  int            `json:"snapshot_rows"`
	SnapshotFiles []string       `json:"snapshot_files,omitempty"`
	Duration      string         `json:"duration"`
	Results       []SymbolResult `json:"-"`
}

// RankRequest re-ranks every stored date in [Start, End].
type RankRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ScreeningRequest is the SCREENING_REPORT job payload.
type ScreeningRequest struct {
	Top int `json:"top,omitempty"` // results listed in the notification
}

// ScreeningSummary is the outcome of a screening run.
type ScreeningSummary struct {
	Date       string `json:"date"`
	Screened   int    `json:"screened"`
	Perfect    int    `json:"perfect"`
	Excellent  int    `json:"excellent"`
	ReportPath string `json:"report_path"`
}

// SyncSummary is the outcome of a stock universe refresh.
type SyncSummary struct {
	Listed      int   `json:"listed"`
	Indexes     int   `json:"indexes"`
	Deactivated int64 `json:"deactivated"`
}

// MarketStatsRequest is the MARKET_STATS job payload. An empty Date means the latest
// stored trading date.
type MarketStatsRequest struct {
	Date string `json:"date,omitempty"`
}
