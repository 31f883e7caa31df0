package utils

import (
	"log"
	"time"
)

// DateLayout is the calendar-date format used across stores, configs and the API.
const DateLayout = "2006-01-02"

var cstLocation = loadCST()

func loadCST() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		log.Printf("Failed to load Asia/Shanghai, using fixed UTC+8: %v", err)
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

// TimeNowCST returns the current time in China Standard Time.
func TimeNowCST() time.Time {
	return time.Now().In(cstLocation)
}

// TruncateDay drops the clock part, keeping the calendar date as UTC midnight.
// Bar and indicator dates are always stored in this form.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses YYYY-MM-DD into a UTC-midnight date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(TruncateDay(b).Sub(TruncateDay(a)).Hours() / 24)
}
