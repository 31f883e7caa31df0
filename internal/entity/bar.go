package entity

import (
	"time"
)

// Bar is one trading day of OHLCV data for one symbol.
type Bar struct {
	Symbol        string    `gorm:"column:symbol;primaryKey" json:"symbol"`
	Date          time.Time `gorm:"column:date;type:date;primaryKey" json:"date"`
	Open          float64   `gorm:"column:open" json:"open"`
	High          float64   `gorm:"column:high" json:"high"`
	Low           float64   `gorm:"column:low" json:"low"`
	Close         float64   `gorm:"column:close" json:"close"`
	Volume        int64     `gorm:"column:volume" json:"volume"`
	Amount        float64   `gorm:"column:amount" json:"amount"`
	PreviousClose *float64  `gorm:"column:previous_close" json:"previous_close"`
	Turnover      *float64  `gorm:"column:turnover" json:"turnover"`

	// Derived from the bar and its predecessor.
	ChangeAmount *float64 `gorm:"column:change_amount" json:"change_amount"`
	PctChange    *float64 `gorm:"column:pct_change" json:"pct_change"`
	Amplitude    *float64 `gorm:"column:amplitude" json:"amplitude"`
	Abnormal     bool     `gorm:"column:abnormal" json:"abnormal"`
	Halted       bool     `gorm:"column:halted" json:"halted"`

	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (Bar) TableName() string {
	return "daily_bars"
}

// GetDate returns the bar's trading date.
func (b Bar) GetDate() time.Time {
	return b.Date
}
