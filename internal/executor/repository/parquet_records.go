package repository

import (
	"golang-stock-indicator/internal/entity"
)

// Indicator values are stored as top-level optional columns. parquet-go does not restore nil
// pointers inside an embedded struct on read, so the records below list every column flat.

type indicatorRecord struct {
	Date      string   `parquet:"date"`
	Close     float64  `parquet:"close"`
	Volume    int64    `parquet:"volume"`
	Amount    float64  `parquet:"amount"`
	PctChange *float64 `parquet:"pct_change,optional"`

	MA5   *float64 `parquet:"ma5,optional"`
	MA10  *float64 `parquet:"ma10,optional"`
	MA20  *float64 `parquet:"ma20,optional"`
	MA30  *float64 `parquet:"ma30,optional"`
	MA50  *float64 `parquet:"ma50,optional"`
	MA60  *float64 `parquet:"ma60,optional"`
	MA120 *float64 `parquet:"ma120,optional"`
	MA150 *float64 `parquet:"ma150,optional"`
	MA200 *float64 `parquet:"ma200,optional"`
	MA250 *float64 `parquet:"ma250,optional"`

	RSI6  *float64 `parquet:"rsi6,optional"`
	RSI12 *float64 `parquet:"rsi12,optional"`
	RSI14 *float64 `parquet:"rsi14,optional"`
	RSI24 *float64 `parquet:"rsi24,optional"`

	MACDDif  *float64 `parquet:"macd_dif,optional"`
	MACDDea  *float64 `parquet:"macd_dea,optional"`
	MACDHist *float64 `parquet:"macd_hist,optional"`

	KDJK *float64 `parquet:"kdj_k,optional"`
	KDJD *float64 `parquet:"kdj_d,optional"`
	KDJJ *float64 `parquet:"kdj_j,optional"`

	Change1D   *float64 `parquet:"change_1d,optional"`
	Change5D   *float64 `parquet:"change_5d,optional"`
	Change10D  *float64 `parquet:"change_10d,optional"`
	Change20D  *float64 `parquet:"change_20d,optional"`
	Change25D  *float64 `parquet:"change_25d,optional"`
	Change30D  *float64 `parquet:"change_30d,optional"`
	Change60D  *float64 `parquet:"change_60d,optional"`
	Change120D *float64 `parquet:"change_120d,optional"`
	Change180D *float64 `parquet:"change_180d,optional"`
	Change250D *float64 `parquet:"change_250d,optional"`

	VolumeMA5     *float64 `parquet:"volume_ma5,optional"`
	VolumeMA10    *float64 `parquet:"volume_ma10,optional"`
	VolumeMA20    *float64 `parquet:"volume_ma20,optional"`
	VolumeMA30    *float64 `parquet:"volume_ma30,optional"`
	VolumeMA60    *float64 `parquet:"volume_ma60,optional"`
	VolumeMA90    *float64 `parquet:"volume_ma90,optional"`
	VolumeRatio5D *float64 `parquet:"volume_ratio_5d,optional"`

	High20D  *float64 `parquet:"high_20d,optional"`
	Low20D   *float64 `parquet:"low_20d,optional"`
	High60D  *float64 `parquet:"high_60d,optional"`
	Low60D   *float64 `parquet:"low_60d,optional"`
	High120D *float64 `parquet:"high_120d,optional"`
	Low120D  *float64 `parquet:"low_120d,optional"`
	High250D *float64 `parquet:"high_250d,optional"`
	Low250D  *float64 `parquet:"low_250d,optional"`
	High52W  *float64 `parquet:"high_52w,optional"`
	Low52W   *float64 `parquet:"low_52w,optional"`

	RSRaw    *float64 `parquet:"rs_raw,optional"`
	RSRating *float64 `parquet:"rs_rating,optional"`
}

func (r *indicatorRecord) setValues(v entity.IndicatorValues) {
	r.MA5 = v.MA5
	r.MA10 = v.MA10
	r.MA20 = v.MA20
	r.MA30 = v.MA30
	r.MA50 = v.MA50
	r.MA60 = v.MA60
	r.MA120 = v.MA120
	r.MA150 = v.MA150
	r.MA200 = v.MA200
	r.MA250 = v.MA250
	r.RSI6 = v.RSI6
	r.RSI12 = v.RSI12
	r.RSI14 = v.RSI14
	r.RSI24 = v.RSI24
	r.MACDDif = v.MACDDif
	r.MACDDea = v.MACDDea
	r.MACDHist = v.MACDHist
	r.KDJK = v.KDJK
	r.KDJD = v.KDJD
	r.KDJJ = v.KDJJ
	r.Change1D = v.Change1D
	r.Change5D = v.Change5D
	r.Change10D = v.Change10D
	r.Change20D = v.Change20D
	r.Change25D = v.Change25D
	r.Change30D = v.Change30D
	r.Change60D = v.Change60D
	r.Change120D = v.Change120D
	r.Change180D = v.Change180D
	r.Change250D = v.Change250D
	r.VolumeMA5 = v.VolumeMA5
	r.VolumeMA10 = v.VolumeMA10
	r.VolumeMA20 = v.VolumeMA20
	r.VolumeMA30 = v.VolumeMA30
	r.VolumeMA60 = v.VolumeMA60
	r.VolumeMA90 = v.VolumeMA90
	r.VolumeRatio5D = v.VolumeRatio5D
	r.High20D = v.High20D
	r.Low20D = v.Low20D
	r.High60D = v.High60D
	r.Low60D = v.Low60D
	r.High120D = v.High120D
	r.Low120D = v.Low120D
	r.High250D = v.High250D
	r.Low250D = v.Low250D
	r.High52W = v.High52W
	r.Low52W = v.Low52W
	r.RSRaw = v.RSRaw
	r.RSRating = v.RSRating
}

func (r indicatorRecord) values() entity.IndicatorValues {
	return entity.IndicatorValues{
		MA5:           r.MA5,
		MA10:          r.MA10,
		MA20:          r.MA20,
		MA30:          r.MA30,
		MA50:          r.MA50,
		MA60:          r.MA60,
		MA120:         r.MA120,
		MA150:         r.MA150,
		MA200:         r.MA200,
		MA250:         r.MA250,
		RSI6:          r.RSI6,
		RSI12:         r.RSI12,
		RSI14:         r.RSI14,
		RSI24:         r.RSI24,
		MACDDif:       r.MACDDif,
		MACDDea:       r.MACDDea,
		MACDHist:      r.MACDHist,
		KDJK:          r.KDJK,
		KDJD:          r.KDJD,
		KDJJ:          r.KDJJ,
		Change1D:      r.Change1D,
		Change5D:      r.Change5D,
		Change10D:     r.Change10D,
		Change20D:     r.Change20D,
		Change25D:     r.Change25D,
		Change30D:     r.Change30D,
		Change60D:     r.Change60D,
		Change120D:    r.Change120D,
		Change180D:    r.Change180D,
		Change250D:    r.Change250D,
		VolumeMA5:     r.VolumeMA5,
		VolumeMA10:    r.VolumeMA10,
		VolumeMA20:    r.VolumeMA20,
		VolumeMA30:    r.VolumeMA30,
		VolumeMA60:    r.VolumeMA60,
		VolumeMA90:    r.VolumeMA90,
		VolumeRatio5D: r.VolumeRatio5D,
		High20D:       r.High20D,
		Low20D:        r.Low20D,
		High60D:       r.High60D,
		Low60D:        r.Low60D,
		High120D:      r.High120D,
		Low120D:       r.Low120D,
		High250D:      r.High250D,
		Low250D:       r.Low250D,
		High52W:       r.High52W,
		Low52W:        r.Low52W,
		RSRaw:         r.RSRaw,
		RSRating:      r.RSRating,
	}
}

type snapshotRecord struct {
	Symbol    string   `parquet:"symbol"`
	Name      string   `parquet:"name"`
	IsIndex   bool     `parquet:"is_index"`
	Stale     bool     `parquet:"stale"`
	Date      string   `parquet:"date"`
	Close     float64  `parquet:"close"`
	Volume    int64    `parquet:"volume"`
	Amount    float64  `parquet:"amount"`
	PctChange *float64 `parquet:"pct_change,optional"`

	MA5   *float64 `parquet:"ma5,optional"`
	MA10  *float64 `parquet:"ma10,optional"`
	MA20  *float64 `parquet:"ma20,optional"`
	MA30  *float64 `parquet:"ma30,optional"`
	MA50  *float64 `parquet:"ma50,optional"`
	MA60  *float64 `parquet:"ma60,optional"`
	MA120 *float64 `parquet:"ma120,optional"`
	MA150 *float64 `parquet:"ma150,optional"`
	MA200 *float64 `parquet:"ma200,optional"`
	MA250 *float64 `parquet:"ma250,optional"`

	RSI6  *float64 `parquet:"rsi6,optional"`
	RSI12 *float64 `parquet:"rsi12,optional"`
	RSI14 *float64 `parquet:"rsi14,optional"`
	RSI24 *float64 `parquet:"rsi24,optional"`

	MACDDif  *float64 `parquet:"macd_dif,optional"`
	MACDDea  *float64 `parquet:"macd_dea,optional"`
	MACDHist *float64 `parquet:"macd_hist,optional"`

	KDJK *float64 `parquet:"kdj_k,optional"`
	KDJD *float64 `parquet:"kdj_d,optional"`
	KDJJ *float64 `parquet:"kdj_j,optional"`

	Change1D   *float64 `parquet:"change_1d,optional"`
	Change5D   *float64 `parquet:"change_5d,optional"`
	Change10D  *float64 `parquet:"change_10d,optional"`
	Change20D  *float64 `parquet:"change_20d,optional"`
	Change25D  *float64 `parquet:"change_25d,optional"`
	Change30D  *float64 `parquet:"change_30d,optional"`
	Change60D  *float64 `parquet:"change_60d,optional"`
	Change120D *float64 `parquet:"change_120d,optional"`
	Change180D *float64 `parquet:"change_180d,optional"`
	Change250D *float64 `parquet:"change_250d,optional"`

	VolumeMA5     *float64 `parquet:"volume_ma5,optional"`
	VolumeMA10    *float64 `parquet:"volume_ma10,optional"`
	VolumeMA20    *float64 `parquet:"volume_ma20,optional"`
	VolumeMA30    *float64 `parquet:"volume_ma30,optional"`
	VolumeMA60    *float64 `parquet:"volume_ma60,optional"`
	VolumeMA90    *float64 `parquet:"volume_ma90,optional"`
	VolumeRatio5D *float64 `parquet:"volume_ratio_5d,optional"`

	High20D  *float64 `parquet:"high_20d,optional"`
	Low20D   *float64 `parquet:"low_20d,optional"`
	High60D  *float64 `parquet:"high_60d,optional"`
	Low60D   *float64 `parquet:"low_60d,optional"`
	High120D *float64 `parquet:"high_120d,optional"`
	Low120D  *float64 `parquet:"low_120d,optional"`
	High250D *float64 `parquet:"high_250d,optional"`
	Low250D  *float64 `parquet:"low_250d,optional"`
	High52W  *float64 `parquet:"high_52w,optional"`
	Low52W   *float64 `parquet:"low_52w,optional"`

	RSRaw    *float64 `parquet:"rs_raw,optional"`
	RSRating *float64 `parquet:"rs_rating,optional"`
}

func (r *snapshotRecord) setValues(v entity.IndicatorValues) {
	r.MA5 = v.MA5
	r.MA10 = v.MA10
	r.MA20 = v.MA20
	r.MA30 = v.MA30
	r.MA50 = v.MA50
	r.MA60 = v.MA60
	r.MA120 = v.MA120
	r.MA150 = v.MA150
	r.MA200 = v.MA200
	r.MA250 = v.MA250
	r.RSI6 = v.RSI6
	r.RSI12 = v.RSI12
	r.RSI14 = v.RSI14
	r.RSI24 = v.RSI24
	r.MACDDif = v.MACDDif
	r.MACDDea = v.MACDDea
	r.MACDHist = v.MACDHist
	r.KDJK = v.KDJK
	r.KDJD = v.KDJD
	r.KDJJ = v.KDJJ
	r.Change1D = v.Change1D
	r.Change5D = v.Change5D
	r.Change10D = v.Change10D
	r.Change20D = v.Change20D
	r.Change25D = v.Change25D
	r.Change30D = v.Change30D
	r.Change60D = v.Change60D
	r.Change120D = v.Change120D
	r.Change180D = v.Change180D
	r.Change250D = v.Change250D
	r.VolumeMA5 = v.VolumeMA5
	r.VolumeMA10 = v.VolumeMA10
	r.VolumeMA20 = v.VolumeMA20
	r.VolumeMA30 = v.VolumeMA30
	r.VolumeMA60 = v.VolumeMA60
	r.VolumeMA90 = v.VolumeMA90
	r.VolumeRatio5D = v.VolumeRatio5D
	r.High20D = v.High20D
	r.Low20D = v.Low20D
	r.High60D = v.High60D
	r.Low60D = v.Low60D
	r.High120D = v.High120D
	r.Low120D = v.Low120D
	r.High250D = v.High250D
	r.Low250D = v.Low250D
	r.High52W = v.High52W
	r.Low52W = v.Low52W
	r.RSRaw = v.RSRaw
	r.RSRating = v.RSRating
}

func (r snapshotRecord) values() entity.IndicatorValues {
	return entity.IndicatorValues{
		MA5:           r.MA5,
		MA10:          r.MA10,
		MA20:          r.MA20,
		MA30:          r.MA30,
		MA50:          r.MA50,
		MA60:          r.MA60,
		MA120:         r.MA120,
		MA150:         r.MA150,
		MA200:         r.MA200,
		MA250:         r.MA250,
		RSI6:          r.RSI6,
		RSI12:         r.RSI12,
		RSI14:         r.RSI14,
		RSI24:         r.RSI24,
		MACDDif:       r.MACDDif,
		MACDDea:       r.MACDDea,
		MACDHist:      r.MACDHist,
		KDJK:          r.KDJK,
		KDJD:          r.KDJD,
		KDJJ:          r.KDJJ,
		Change1D:      r.Change1D,
		Change5D:      r.Change5D,
		Change10D:     r.Change10D,
		Change20D:     r.Change20D,
		Change25D:     r.Change25D,
		Change30D:     r.Change30D,
		Change60D:     r.Change60D,
		Change120D:    r.Change120D,
		Change180D:    r.Change180D,
		Change250D:    r.Change250D,
		VolumeMA5:     r.VolumeMA5,
		VolumeMA10:    r.VolumeMA10,
		VolumeMA20:    r.VolumeMA20,
		VolumeMA30:    r.VolumeMA30,
		VolumeMA60:    r.VolumeMA60,
		VolumeMA90:    r.VolumeMA90,
		VolumeRatio5D: r.VolumeRatio5D,
		High20D:       r.High20D,
		Low20D:        r.Low20D,
		High60D:       r.High60D,
		Low60D:        r.Low60D,
		High120D:      r.High120D,
		Low120D:       r.Low120D,
		High250D:      r.High250D,
		Low250D:       r.Low250D,
		High52W:       r.High52W,
		Low52W:        r.Low52W,
		RSRaw:         r.RSRaw,
		RSRating:      r.RSRating,
	}
}
