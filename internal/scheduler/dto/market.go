package dto

import (
	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/screening"
	"golang-stock-indicator/internal/snapshot"
)

// SnapshotResponse is the latest row of every symbol.
type SnapshotResponse struct {
	AsOf  string         `json:"as_of"`
	Count int            `json:"count"`
	Rows  []snapshot.Row `json:"rows"`
}

// ScreeningResponse is the CANSLIM screen of the latest snapshot.
type ScreeningResponse struct {
	Date       string                    `json:"date"`
	Screened   int                       `json:"screened"`
	Perfect    int                       `json:"perfect"`
	Excellent  int                       `json:"excellent"`
	Results    []screening.Result        `json:"results"`
	Conditions []screening.ConditionStat `json:"conditions"`
}

// IndicatorsResponse is one symbol's indicator history.
type IndicatorsResponse struct {
	Symbol string                `json:"symbol"`
	Start  string                `json:"start"`
	End    string                `json:"end"`
	Rows   []entity.IndicatorRow `json:"rows"`
}
