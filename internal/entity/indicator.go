package entity

import (
	"time"
)

// IndicatorValues is the fixed indicator schema. Every field is nullable: nil means the
// symbol did not yet have enough history for that window on that date.
type IndicatorValues struct {
	MA5   *float64 `gorm:"column:ma5" json:"ma5"`
	MA10  *float64 `gorm:"column:ma10" json:"ma10"`
	MA20  *float64 `gorm:"column:ma20" json:"ma20"`
	MA30  *float64 `gorm:"column:ma30" json:"ma30"`
	MA50  *float64 `gorm:"column:ma50" json:"ma50"`
	MA60  *float64 `gorm:"column:ma60" json:"ma60"`
	MA120 *float64 `gorm:"column:ma120" json:"ma120"`
	MA150 *float64 `gorm:"column:ma150" json:"ma150"`
	MA200 *float64 `gorm:"column:ma200" json:"ma200"`
	MA250 *float64 `gorm:"column:ma250" json:"ma250"`

	RSI6  *float64 `gorm:"column:rsi6" json:"rsi6"`
	RSI12 *float64 `gorm:"column:rsi12" json:"rsi12"`
	RSI14 *float64 `gorm:"column:rsi14" json:"rsi14"`
	RSI24 *float64 `gorm:"column:rsi24" json:"rsi24"`

	MACDDif  *float64 `gorm:"column:macd_dif" json:"macd_dif"`
	MACDDea  *float64 `gorm:"column:macd_dea" json:"macd_dea"`
	MACDHist *float64 `gorm:"column:macd_hist" json:"macd_hist"`

	KDJK *float64 `gorm:"column:kdj_k" json:"kdj_k"`
	KDJD *float64 `gorm:"column:kdj_d" json:"kdj_d"`
	KDJJ *float64 `gorm:"column:kdj_j" json:"kdj_j"`

	Change1D   *float64 `gorm:"column:change_1d" json:"change_1d"`
	Change5D   *float64 `gorm:"column:change_5d" json:"change_5d"`
	Change10D  *float64 `gorm:"column:change_10d" json:"change_10d"`
	Change20D  *float64 `gorm:"column:change_20d" json:"change_20d"`
	Change25D  *float64 `gorm:"column:change_25d" json:"change_25d"`
	Change30D  *float64 `gorm:"column:change_30d" json:"change_30d"`
	Change60D  *float64 `gorm:"column:change_60d" json:"change_60d"`
	Change120D *float64 `gorm:"column:change_120d" json:"change_120d"`
	Change180D *float64 `gorm:"column:change_180d" json:"change_180d"`
	Change250D *float64 `gorm:"column:change_250d" json:"change_250d"`

	VolumeMA5     *float64 `gorm:"column:volume_ma5" json:"volume_ma5"`
	VolumeMA10    *float64 `gorm:"column:volume_ma10" json:"volume_ma10"`
	VolumeMA20    *float64 `gorm:"column:volume_ma20" json:"volume_ma20"`
	VolumeMA30    *float64 `gorm:"column:volume_ma30" json:"volume_ma30"`
	VolumeMA60    *float64 `gorm:"column:volume_ma60" json:"volume_ma60"`
	VolumeMA90    *float64 `gorm:"column:volume_ma90" json:"volume_ma90"`
	VolumeRatio5D *float64 `gorm:"column:volume_ratio_5d" json:"volume_ratio_5d"`

	High20D  *float64 `gorm:"column:high_20d" json:"high_20d"`
	Low20D   *float64 `gorm:"column:low_20d" json:"low_20d"`
	High60D  *float64 `gorm:"column:high_60d" json:"high_60d"`
	Low60D   *float64 `gorm:"column:low_60d" json:"low_60d"`
	High120D *float64 `gorm:"column:high_120d" json:"high_120d"`
	Low120D  *float64 `gorm:"column:low_120d" json:"low_120d"`
	High250D *float64 `gorm:"column:high_250d" json:"high_250d"`
	Low250D  *float64 `gorm:"column:low_250d" json:"low_250d"`
	High52W  *float64 `gorm:"column:high_52w" json:"high_52w"`
	Low52W   *float64 `gorm:"column:low_52w" json:"low_52w"`

	RSRaw    *float64 `gorm:"column:rs_raw" json:"rs_raw"`
	RSRating *float64 `gorm:"column:rs_rating" json:"rs_rating"`
}

// IndicatorRow is one trading day of computed indicators for one symbol.
type IndicatorRow struct {
	Symbol    string    `gorm:"column:symbol;primaryKey" json:"symbol"`
	Date      time.Time `gorm:"column:date;type:date;primaryKey" json:"date"`
	Close     float64   `gorm:"column:close" json:"close"`
	Volume    int64     `gorm:"column:volume" json:"volume"`
	Amount    float64   `gorm:"column:amount" json:"amount"`
	PctChange *float64  `gorm:"column:pct_change" json:"pct_change"`

	IndicatorValues

	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (IndicatorRow) TableName() string {
	return "daily_indicators"
}

// GetDate returns the row's trading date.
func (r IndicatorRow) GetDate() time.Time {
	return r.Date
}

// RatingUpdate carries one second-phase rs_rating write.
type RatingUpdate struct {
	Symbol string
	Date   time.Time
	Rating *float64
}
