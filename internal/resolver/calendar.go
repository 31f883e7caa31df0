package resolver

import (
	"time"

	"golang-stock-indicator/pkg/utils"
)

// Calendar is a weekday trading calendar with explicit exchange holidays.
type Calendar struct {
	holidays map[time.Time]struct{}
}

// NewCalendar builds a calendar from YYYY-MM-DD holiday strings.
func NewCalendar(holidays []string) (*Calendar, error) {
	c := &Calendar{holidays: make(map[time.Time]struct{}, len(holidays))}
	for _, h := range holidays {
		d, err := utils.ParseDate(h)
		if err != nil {
			return nil, err
		}
		c.holidays[d] = struct{}{}
	}
	return c, nil
}

// IsTradingDay reports whether the exchange is open on d.
func (c *Calendar) IsTradingDay(d time.Time) bool {
	d = utils.TruncateDay(d)
	if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		return false
	}
	_, holiday := c.holidays[d]
	return !holiday
}

// LatestTradingDay returns the most recent trading day on or before d.
func (c *Calendar) LatestTradingDay(d time.Time) time.Time {
	d = utils.TruncateDay(d)
	for i := 0; i < 31 && !c.IsTradingDay(d); i++ {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
