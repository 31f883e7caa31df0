package entity

import (
	"strings"
	"time"
)

const (
	ExchangeShanghai = "SH"
	ExchangeShenzhen = "SZ"
)

// Stock is one entry of the symbol universe, stocks and indexes alike.
type Stock struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Symbol     string    `gorm:"column:symbol;uniqueIndex;not null" json:"symbol"`
	Code       string    `gorm:"column:code;not null" json:"code"`
	Name       string    `gorm:"column:name;not null" json:"name"`
	Exchange   string    `gorm:"column:exchange;not null" json:"exchange"`
	IsIndex    bool      `gorm:"column:is_index" json:"is_index"`
	FloatShare *float64  `gorm:"column:float_share" json:"float_share"`
	IsActive   bool      `gorm:"column:is_active" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Stock) TableName() string {
	return "stocks"
}

// ExchangeOf maps a six-digit stock code to its exchange. Empty means the
// code is outside the supported boards.
func ExchangeOf(code string) string {
	switch {
	case strings.HasPrefix(code, "60"), strings.HasPrefix(code, "68"), strings.HasPrefix(code, "9"):
		return ExchangeShanghai
	case strings.HasPrefix(code, "00"), strings.HasPrefix(code, "30"), strings.HasPrefix(code, "20"):
		return ExchangeShenzhen
	default:
		return ""
	}
}

// SplitSymbol splits "600000.SH" into code and exchange.
func SplitSymbol(symbol string) (code, exchange string, ok bool) {
	code, exchange, ok = strings.Cut(symbol, ".")
	if !ok || len(code) != 6 || (exchange != ExchangeShanghai && exchange != ExchangeShenzhen) {
		return "", "", false
	}
	return code, exchange, true
}
