// Package indicator computes the fixed technical indicator schema over a symbol's bar history.
package indicator

import (
	"fmt"

	"golang-stock-indicator/internal/entity"
)

// MACDConfig holds the MACD spans.
type MACDConfig struct {
	Fast   int `mapstructure:"fast"`
	Slow   int `mapstructure:"slow"`
	Signal int `mapstructure:"signal"`
}

// Config lists the windows to compute. Every window must map to a column of
// entity.IndicatorValues.
type Config struct {
	MA              []int      `mapstructure:"ma"`
	RSI             []int      `mapstructure:"rsi"`
	VolumeMA        []int      `mapstructure:"volume_ma"`
	Returns         []int      `mapstructure:"returns"`
	Extremes        []int      `mapstructure:"extremes"`
	Week52          int        `mapstructure:"week52"`
	KDJ             int        `mapstructure:"kdj"`
	MACD            MACDConfig `mapstructure:"macd"`
	PartialExtremes bool       `mapstructure:"-"`
}

// DefaultConfig returns the full window set.
func DefaultConfig() Config {
	return Config{
		MA:       []int{5, 10, 20, 30, 50, 60, 120, 150, 200, 250},
		RSI:      []int{6, 12, 14, 24},
		VolumeMA: []int{5, 10, 20, 30, 60, 90},
		Returns:  []int{1, 5, 10, 20, 25, 30, 60, 120, 180, 250},
		Extremes: []int{20, 60, 120, 250},
		Week52:   252,
		KDJ:      9,
		MACD:     MACDConfig{Fast: 12, Slow: 26, Signal: 9},
	}
}

type column func(*entity.IndicatorValues) **float64

var maColumns = map[int]column{
	5:   func(v *entity.IndicatorValues) **float64 { return &v.MA5 },
	10:  func(v *entity.IndicatorValues) **float64 { return &v.MA10 },
	20:  func(v *entity.IndicatorValues) **float64 { return &v.MA20 },
	30:  func(v *entity.IndicatorValues) **float64 { return &v.MA30 },
	50:  func(v *entity.IndicatorValues) **float64 { return &v.MA50 },
	60:  func(v *entity.IndicatorValues) **float64 { return &v.MA60 },
	120: func(v *entity.IndicatorValues) **float64 { return &v.MA120 },
	150: func(v *entity.IndicatorValues) **float64 { return &v.MA150 },
	200: func(v *entity.IndicatorValues) **float64 { return &v.MA200 },
	250: func(v *entity.IndicatorValues) **float64 { return &v.MA250 },
}

var rsiColumns = map[int]column{
	6:  func(v *entity.IndicatorValues) **float64 { return &v.RSI6 },
	12: func(v *entity.IndicatorValues) **float64 { return &v.RSI12 },
	14: func(v *entity.IndicatorValues) **float64 { return &v.RSI14 },
	24: func(v *entity.IndicatorValues) **float64 { return &v.RSI24 },
}

var volumeMAColumns = map[int]column{
	5:  func(v *entity.IndicatorValues) **float64 { return &v.VolumeMA5 },
	10: func(v *entity.IndicatorValues) **float64 { return &v.VolumeMA10 },
	20: func(v *entity.IndicatorValues) **float64 { return &v.VolumeMA20 },
	30: func(v *entity.IndicatorValues) **float64 { return &v.VolumeMA30 },
	60: func(v *entity.IndicatorValues) **float64 { return &v.VolumeMA60 },
	90: func(v *entity.IndicatorValues) **float64 { return &v.VolumeMA90 },
}

var returnColumns = map[int]column{
	1:   func(v *entity.IndicatorValues) **float64 { return &v.Change1D },
	5:   func(v *entity.IndicatorValues) **float64 { return &v.Change5D },
	10:  func(v *entity.IndicatorValues) **float64 { return &v.Change10D },
	20:  func(v *entity.IndicatorValues) **float64 { return &v.Change20D },
	25:  func(v *entity.IndicatorValues) **float64 { return &v.Change25D },
	30:  func(v *entity.IndicatorValues) **float64 { return &v.Change30D },
	60:  func(v *entity.IndicatorValues) **float64 { return &v.Change60D },
	120: func(v *entity.IndicatorValues) **float64 { return &v.Change120D },
	180: func(v *entity.IndicatorValues) **float64 { return &v.Change180D },
	250: func(v *entity.IndicatorValues) **float64 { return &v.Change250D },
}

type extremeColumns struct {
	high column
	low  column
}

var extremesColumns = map[int]extremeColumns{
	20: {
		high: func(v *entity.IndicatorValues) **float64 { return &v.High20D },
		low:  func(v *entity.IndicatorValues) **float64 { return &v.Low20D },
	},
	60: {
		high: func(v *entity.IndicatorValues) **float64 { return &v.High60D },
		low:  func(v *entity.IndicatorValues) **float64 { return &v.Low60D },
	},
	120: {
		high: func(v *entity.IndicatorValues) **float64 { return &v.High120D },
		low:  func(v *entity.IndicatorValues) **float64 { return &v.Low120D },
	},
	250: {
		high: func(v *entity.IndicatorValues) **float64 { return &v.High250D },
		low:  func(v *entity.IndicatorValues) **float64 { return &v.Low250D },
	},
}

// Validate rejects windows that have no column in the schema and non-positive spans.
func (c Config) Validate() error {
	groups := []struct {
		name    string
		windows []int
		has     func(int) bool
	}{
		{"ma", c.MA, func(w int) bool { _, ok := maColumns[w]; return ok }},
		{"rsi", c.RSI, func(w int) bool { _, ok := rsiColumns[w]; return ok }},
		{"volume_ma", c.VolumeMA, func(w int) bool { _, ok := volumeMAColumns[w]; return ok }},
		{"returns", c.Returns, func(w int) bool { _, ok := returnColumns[w]; return ok }},
		{"extremes", c.Extremes, func(w int) bool { _, ok := extremesColumns[w]; return ok }},
	}
	for _, g := range groups {
		for _, w := range g.windows {
			if !g.has(w) {
				return fmt.Errorf("indicator window %s=%d has no column in the indicator schema", g.name, w)
			}
		}
	}

	if c.Week52 <= 0 {
		return fmt.Errorf("indicator window week52 must be positive, got %d", c.Week52)
	}
	if c.KDJ <= 0 {
		return fmt.Errorf("indicator window kdj must be positive, got %d", c.KDJ)
	}
	if c.MACD.Fast <= 0 || c.MACD.Signal <= 0 || c.MACD.Slow <= c.MACD.Fast {
		return fmt.Errorf("invalid macd spans fast=%d slow=%d signal=%d", c.MACD.Fast, c.MACD.Slow, c.MACD.Signal)
	}
	return nil
}
