package telegram

import (
	"fmt"
	"strings"
	"testing"

	"golang-stock-indicator/internal/executor/dto"
	"golang-stock-indicator/internal/screening"
	"golang-stock-indicator/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRunSummary(t *testing.T) {
	msg := FormatRunSummary(dto.RunSummary{
		RunID:         "run-1",
		AsOf:          "2025-11-03",
		Updated:       5100,
		Skipped:       12,
		Failed:        2,
		FailedSymbols: []string{"600001.SH", "000002.SZ"},
		RankedDates:   11,
		SnapshotRows:  5114,
	})

	assert.True(t, strings.HasPrefix(msg, "⚠️ *Indicator Pipeline* `2025-11-03`"))
	assert.Contains(t, msg, "Updated: 5100")
	assert.Contains(t, msg, "Failed: 2")
	assert.Contains(t, msg, "`600001.SH, 000002.SZ`")
	assert.Contains(t, msg, "run-1")
}

func TestFormatRunSummaryTruncatesFailedSymbols(t *testing.T) {
	var failed []string
	for i := 0; i < 25; i++ {
		failed = append(failed, fmt.Sprintf("6000%02d.SH", i))
	}
	msg := FormatRunSummary(dto.RunSummary{Failed: 25, FailedSymbols: failed})
	assert.Contains(t, msg, "and 5 more")
	assert.NotContains(t, msg, "600024.SH")
}

func TestFormatScreeningResultsSplitsLongMessages(t *testing.T) {
	results := make([]screening.Result, 200)
	for i := range results {
		results[i] = screening.Result{
			Symbol:    fmt.Sprintf("600%03d.SH", i),
			Name:      strings.Repeat("名", 20),
			Close:     12.3,
			RSRating:  utils.ToPointer(88.0),
			Satisfied: 11,
		}
	}

	messages := FormatScreeningResults(dto.ScreeningSummary{Date: "2025-11-03", Screened: 200}, results, 200)
	require.Greater(t, len(messages), 1)
	for _, m := range messages {
		assert.LessOrEqual(t, len(m), maxMessageLen)
	}
	assert.Contains(t, messages[1], "Part 2")
}

func TestFormatScreeningResultsEmpty(t *testing.T) {
	messages := FormatScreeningResults(dto.ScreeningSummary{Date: "2025-11-03"}, nil, 0)
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "No stock passed")
}
