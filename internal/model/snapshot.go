package model

import "time"

// MinVisible is the smallest visible window width zoom-in will produce.
const MinVisible = 10

// Window is the half-open index range [Start, End) of the series that is
// currently visible. 0 <= Start <= End <= len(series).
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Width returns End - Start.
func (w Window) Width() int {
	return w.End - w.Start
}

// Capabilities reports which navigation commands would change the window.
type Capabilities struct {
	CanZoomIn   bool `json:"can_zoom_in"`
	CanZoomOut  bool `json:"can_zoom_out"`
	CanPanLeft  bool `json:"can_pan_left"`
	CanPanRight bool `json:"can_pan_right"`
}

// Snapshot is an immutable copy of the dashboard state at one version.
// Series slices are shared between snapshots and must not be modified.
type Snapshot struct {
	Version           uint64       `json:"version"`
	Timeframe         TimeframeID  `json:"timeframe"`
	Comparison        ComparisonID `json:"comparison"`
	Series            []PricePoint `json:"series"`
	ComparisonSeries  []PricePoint `json:"comparison_series,omitempty"`
	Window            Window       `json:"window"`
	PriceInfo         PriceInfo    `json:"price_info"`
	Loading           bool         `json:"loading"`
	ComparisonLoading bool         `json:"comparison_loading"`
	Error             string       `json:"error,omitempty"`
	UpdatedAt         time.Time    `json:"updated_at"`
}
