package telegram

import (
	"fmt"
	"strings"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/executor/dto"
	"golang-stock-indicator/internal/screening"
	"golang-stock-indicator/pkg/utils"
)

const (
	maxMessageLen     = 4090
	maxFailedSymbols  = 20
	defaultTopResults = 20
)

// FormatRunSummary formats a pipeline run summary as a Markdown message.
func FormatRunSummary(summary dto.RunSummary) string {
	var sb strings.Builder

	icon := "✅"
	if summary.Failed > 0 {
		icon = "⚠️"
	}
	sb.WriteString(fmt.Sprintf("%s *Indicator Pipeline* `%s`\n\n", icon, summary.AsOf))
	sb.WriteString(fmt.Sprintf("🟢 Updated: %d\n", summary.Updated))
	sb.WriteString(fmt.Sprintf("⏭ Skipped: %d\n", summary.Skipped))
	sb.WriteString(fmt.Sprintf("🔴 Failed: %d\n", summary.Failed))
	sb.WriteString(fmt.Sprintf("📅 Ranked dates: %d\n", summary.RankedDates))
	sb.WriteString(fmt.Sprintf("📊 Snapshot rows: %d\n", summary.SnapshotRows))
	if summary.Duration != "" {
		sb.WriteString(fmt.Sprintf("⏱ Duration: %s\n", summary.Duration))
	}

	if len(summary.FailedSymbols) > 0 {
		shown := summary.FailedSymbols
		if len(shown) > maxFailedSymbols {
			shown = shown[:maxFailedSymbols]
		}
		sb.WriteString(fmt.Sprintf("\n❌ *Failed symbols:* `%s`", strings.Join(shown, ", ")))
		if rest := len(summary.FailedSymbols) - len(shown); rest > 0 {
			sb.WriteString(fmt.Sprintf(" and %d more", rest))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("\n🆔 _%s_\n", summary.RunID))
	return sb.String()
}

// FormatScreeningResults formats the best screening results into one or more Markdown
// messages, each within Telegram's length limit.
func FormatScreeningResults(summary dto.ScreeningSummary, results []screening.Result, top int) []string {
	if top <= 0 {
		top = defaultTopResults
	}
	if len(results) > top {
		results = results[:top]
	}

	var messages []string
	var current strings.Builder
	part := 1

	startNewPart := func() {
		current.Reset()
		if part == 1 {
			current.WriteString(fmt.Sprintf("🔎 *CANSLIM Screening* `%s`\n", summary.Date))
			current.WriteString(fmt.Sprintf("Screened %d | 💎 Perfect %d | ⭐ Excellent %d\n\n", summary.Screened, summary.Perfect, summary.Excellent))
		} else {
			current.WriteString(fmt.Sprintf("---*CANSLIM Screening Part %d*---\n\n", part))
		}
	}
	startNewPart()

	if len(results) == 0 {
		current.WriteString("_No stock passed the screen today._\n")
	}

	for i, r := range results {
		var entry strings.Builder
		tierIcon := "▫️"
		switch r.Tier {
		case screening.TierPerfect:
			tierIcon = "💎"
		case screening.TierExcellent:
			tierIcon = "⭐"
		}
		entry.WriteString(fmt.Sprintf("%s %d. *%s* %s\n", tierIcon, i+1, r.Symbol, r.Name))
		entry.WriteString(fmt.Sprintf("   Close %.2f | RS %s | %d/%d\n", r.Close, formatOptional(r.RSRating, 1), r.Satisfied, screening.ConditionCount))
		if missed := missedConditions(r); missed != "" {
			entry.WriteString(fmt.Sprintf("   Missed: %s\n", missed))
		}

		if current.Len()+entry.Len() > maxMessageLen {
			messages = append(messages, current.String())
			part++
			startNewPart()
		}
		current.WriteString(entry.String())
	}

	return append(messages, current.String())
}

// FormatMarketStat formats the daily breadth summary.
func FormatMarketStat(stat entity.MarketDailyStat) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📈 *Market Breadth* `%s`\n\n", utils.FormatDate(stat.Date)))
	sb.WriteString(fmt.Sprintf("🟢 Up %d | 🔴 Down %d | ⚪ Flat %d\n", stat.Up, stat.Down, stat.Flat))
	sb.WriteString(fmt.Sprintf("🚀 Limit up %d | 🧊 Limit down %d\n", stat.LimitUp, stat.LimitDown))
	sb.WriteString(fmt.Sprintf("Mean %s%% | Median %s%%\n", formatOptional(stat.MeanPct, 2), formatOptional(stat.MedianPct, 2)))
	sb.WriteString(fmt.Sprintf("Amount %.2f (100M CNY)\n\n", stat.AmountSum))
	sb.WriteString(fmt.Sprintf("RS ≥90: %d | 80-90: %d | 70-80: %d\n", stat.RS90Plus, stat.RS80To90, stat.RS70To80))
	sb.WriteString(fmt.Sprintf("Above MA20 %s%% | MA50 %s%% | MA200 %s%%\n",
		formatOptional(stat.AboveMA20Pct, 2), formatOptional(stat.AboveMA50Pct, 2), formatOptional(stat.AboveMA200Pct, 2)))
	if stat.StaleSymbols > 0 {
		sb.WriteString(fmt.Sprintf("\n_%d symbols without a bar today_\n", stat.StaleSymbols))
	}
	return sb.String()
}

// FormatErrorAlertMessage formats a job failure alert.
func FormatErrorAlertMessage(at time.Time, errType string, errMsg string, data string) string {
	return fmt.Sprintf("📛 [ERROR ALERT]\n%s\n🔧 %s\n⚠️ %s\n\n📄 Data: %s\n",
		at.Format("2006-01-02 15:04:05"), errType, errMsg, data)
}

func missedConditions(r screening.Result) string {
	var missed []string
	for i, ok := range r.Passed {
		if !ok {
			missed = append(missed, screening.Conditions[i].Code)
		}
	}
	return strings.Join(missed, ",")
}

func formatOptional(v *float64, places int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f", places, *v)
}
