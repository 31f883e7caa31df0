package entity

import (
	"time"
)

// MarketDailyStat is the whole-market breadth summary for one trading date.
type MarketDailyStat struct {
	Date          time.Time `gorm:"column:date;type:date;primaryKey" json:"date"`
	Total         int       `gorm:"column:total" json:"total"`
	Up            int       `gorm:"column:up" json:"up"`
	Down          int       `gorm:"column:down" json:"down"`
	Flat          int       `gorm:"column:flat" json:"flat"`
	LimitUp       int       `gorm:"column:limit_up" json:"limit_up"`
	LimitDown     int       `gorm:"column:limit_down" json:"limit_down"`
	BigUp         int       `gorm:"column:big_up" json:"big_up"`
	BigDown       int       `gorm:"column:big_down" json:"big_down"`
	MeanPct       *float64  `gorm:"column:mean_pct" json:"mean_pct"`
	MedianPct     *float64  `gorm:"column:median_pct" json:"median_pct"`
	VolumeSum     float64   `gorm:"column:volume_sum" json:"volume_sum"` // 100M shares
	AmountSum     float64   `gorm:"column:amount_sum" json:"amount_sum"` // 100M CNY
	RS90Plus      int       `gorm:"column:rs_90_plus" json:"rs_90_plus"`
	RS80To90      int       `gorm:"column:rs_80_90" json:"rs_80_90"`
	RS70To80      int       `gorm:"column:rs_70_80" json:"rs_70_80"`
	RS60To70      int       `gorm:"column:rs_60_70" json:"rs_60_70"`
	RSBelow60     int       `gorm:"column:rs_below_60" json:"rs_below_60"`
	AboveMA20     int       `gorm:"column:above_ma20" json:"above_ma20"`
	AboveMA50     int       `gorm:"column:above_ma50" json:"above_ma50"`
	AboveMA200    int       `gorm:"column:above_ma200" json:"above_ma200"`
	AboveMA20Pct  *float64  `gorm:"column:above_ma20_pct" json:"above_ma20_pct"`
	AboveMA50Pct  *float64  `gorm:"column:above_ma50_pct" json:"above_ma50_pct"`
	AboveMA200Pct *float64  `gorm:"column:above_ma200_pct" json:"above_ma200_pct"`
	StaleSymbols  int       `gorm:"column:stale_symbols" json:"stale_symbols"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (MarketDailyStat) TableName() string {
	return "market_daily_stats"
}
