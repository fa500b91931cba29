package model

import "time"

// TimeframeID identifies a selectable history length.
type TimeframeID string

const (
	TF1D TimeframeID = "1D"
	TF5D TimeframeID = "5D"
	TF1M TimeframeID = "1M"
	TF3M TimeframeID = "3M"
	TF6M TimeframeID = "6M"
	TF1Y TimeframeID = "1Y"

	DefaultTimeframe = TF1M
)

// Timeframe describes how a series for a TimeframeID is shaped:
// Points bars spaced Step apart, with per-bar volatility Volatility
// (fraction of price, one standard deviation).
type Timeframe struct {
	ID         TimeframeID   `json:"id" yaml:"id"`
	Label      string        `json:"label" yaml:"label"`
	Step       time.Duration `json:"step" yaml:"step"`
	Points     int           `json:"points" yaml:"points"`
	Volatility float64       `json:"volatility" yaml:"volatility"`
}

// Span returns the wall-clock length covered by the series.
func (t Timeframe) Span() time.Duration {
	if t.Points <= 1 {
		return 0
	}
	return time.Duration(t.Points-1) * t.Step
}

// ComparisonID identifies a comparison overlay. ComparisonNone disables it.
type ComparisonID string

const (
	ComparisonNone  ComparisonID = "NONE"
	ComparisonSoy   ComparisonID = "SOY"
	ComparisonBrent ComparisonID = "BRENT"
	ComparisonKLCI  ComparisonID = "KLCI"
)

// ComparisonOption describes a comparison instrument. BasePrice is the
// level its simulated series starts near; Correlation is the correlation
// of its bar returns with FCPO returns, in [-1, 1].
type ComparisonOption struct {
	ID          ComparisonID `json:"id" yaml:"id"`
	Label       string       `json:"label" yaml:"label"`
	BasePrice   float64      `json:"base_price,omitempty" yaml:"base_price"`
	Correlation float64      `json:"correlation,omitempty" yaml:"correlation"`
	Volatility  float64      `json:"volatility,omitempty" yaml:"volatility"`
}
