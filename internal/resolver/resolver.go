// Package resolver decides, per symbol, which date window a run must (re)fetch or (re)compute.
package resolver

import (
	"time"

	"golang-stock-indicator/pkg/utils"
)

const (
	DefaultLookbackDays = 10
	DefaultMinGapDays   = 1
)

// DefaultGenesis is the first date of a full backfill.
var DefaultGenesis = time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)

// Config controls incremental recomputation.
type Config struct {
	LookbackDays int
	MinGapDays   int
	ForceFull    bool
	Genesis      time.Time
}

// Reason explains a Decision.
type Reason string

const (
	ReasonFull        Reason = "full_backfill"
	ReasonForced      Reason = "force_full"
	ReasonIncremental Reason = "incremental"
	ReasonCurrent     Reason = "already_current"
)

// Decision is the outcome for one symbol.
type Decision struct {
	Skip   bool
	Full   bool
	Start  time.Time
	End    time.Time
	Reason Reason
}

// Resolve returns the window to recompute given the latest persisted date (nil if
// the symbol has nothing stored) and the as-of date.
func Resolve(latest *time.Time, asOf time.Time, cfg Config) Decision {
	asOf = utils.TruncateDay(asOf)
	genesis := cfg.Genesis
	if genesis.IsZero() {
		genesis = DefaultGenesis
	}

	if cfg.ForceFull || latest == nil {
		reason := ReasonFull
		if cfg.ForceFull {
			reason = ReasonForced
		}
		return Decision{Full: true, Start: utils.TruncateDay(genesis), End: asOf, Reason: reason}
	}

	last := utils.TruncateDay(*latest)
	if utils.DaysBetween(last, asOf) <= cfg.MinGapDays {
		return Decision{Skip: true, Reason: ReasonCurrent}
	}

	start := last.AddDate(0, 0, -cfg.LookbackDays)
	if start.Before(genesis) {
		start = utils.TruncateDay(genesis)
	}
	return Decision{Start: start, End: asOf, Reason: ReasonIncremental}
}
