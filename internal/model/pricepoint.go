package model

import "time"

// PricePoint is one OHLC bar of a simulated series. Prices are in the
// instrument's quote currency (RM per tonne for FCPO).
// Series are ordered chronologically and never mutated once produced.
type PricePoint struct {
	TS    time.Time `json:"ts"` // bar start time (UTC)
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// ChartPoint is a visible bar merged with the comparison close at the
// same index. Comparison is nil when no comparison value exists there.
type ChartPoint struct {
	PricePoint
	Comparison *float64 `json:"comparison,omitempty"`
}

// PriceInfo summarizes the latest bar of the full series.
type PriceInfo struct {
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}
