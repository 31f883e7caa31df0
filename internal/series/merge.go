// Package series holds the date-keyed operations shared by bar and indicator stores.
package series

import (
	"sort"
	"time"

	"golang-stock-indicator/pkg/utils"
)

// Dated is anything keyed by a trading date within one symbol's series.
type Dated interface {
	GetDate() time.Time
}

// Merge combines a persisted series with freshly computed rows. Rows are keyed by
// calendar date; on overlap the incoming row wins. Dates only present in existing
// are kept. The result is ascending and free of duplicate dates.
func Merge[T Dated](existing, incoming []T) []T {
	byDate := make(map[time.Time]T, len(existing)+len(incoming))
	for _, row := range existing {
		byDate[utils.TruncateDay(row.GetDate())] = row
	}
	for _, row := range incoming {
		byDate[utils.TruncateDay(row.GetDate())] = row
	}

	out := make([]T, 0, len(byDate))
	for _, row := range byDate {
		out = append(out, row)
	}
	SortByDate(out)
	return out
}

// SortByDate sorts rows ascending by date in place.
func SortByDate[T Dated](rows []T) {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].GetDate().Before(rows[j].GetDate())
	})
}

// Window returns the rows whose date lies in [start, end], keeping order.
func Window[T Dated](rows []T, start, end time.Time) []T {
	start, end = utils.TruncateDay(start), utils.TruncateDay(end)
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		d := utils.TruncateDay(row.GetDate())
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// Latest returns the most recent date in rows, or nil when rows is empty.
func Latest[T Dated](rows []T) *time.Time {
	var latest *time.Time
	for _, row := range rows {
		d := utils.TruncateDay(row.GetDate())
		if latest == nil || d.After(*latest) {
			latest = &d
		}
	}
	return latest
}
