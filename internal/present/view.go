// Package present turns a dashboard snapshot into the view model the page
// renders: header, selectors, navigation controls, chart area and footer.
// Build is pure; Render writes the view as HTML.
package present

import (
	"time"

	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/catalog"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/chart"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/markethours"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/model"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/view"
)

const (
	Title              = "Crude Palm Oil Futures (FCPO)"
	Subtitle           = "Real-time simulated price data"
	Footer             = "FCPO Futures Price Tracker | Data is simulated for demonstration purposes."
	EmptyRangeMessage  = "No data in the selected range. Try panning or resetting the view."
	SinglePointMessage = "Only one bar is visible. Zoom out or pan to draw the chart."
)

// Header is the title block with the latest price.
type Header struct {
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle"`
	Price           string `json:"price"`
	Change          string `json:"change"`
	ChangePercent   string `json:"change_percent"`
	Positive        bool   `json:"positive"`
	Skeleton        bool   `json:"skeleton"`
	RefreshDisabled bool   `json:"refresh_disabled"`
	MarketOpen      bool   `json:"market_open"`
	MarketStatus    string `json:"market_status"`
}

// Option is one selector entry.
type Option struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// Controls carries the enablement of the navigation buttons.
type Controls struct {
	model.Capabilities
	CanReset bool `json:"can_reset"`
}

// ChartArea is what the chart panel shows. At most one of Error,
// EmptyMessage and Points is set; Overlay may accompany any of them.
// Image is set when enough points are visible to draw the chart image.
type ChartArea struct {
	Overlay         bool               `json:"overlay"`
	Error           string             `json:"error,omitempty"`
	EmptyMessage    string             `json:"empty_message,omitempty"`
	ShowChart       bool               `json:"show_chart"`
	Image           bool               `json:"image"`
	Points          []model.ChartPoint `json:"points,omitempty"`
	ComparisonLabel string             `json:"comparison_label,omitempty"`
}

// View is the complete page model for one snapshot.
type View struct {
	Version      uint64       `json:"version"`
	Header       Header       `json:"header"`
	Timeframes   []Option     `json:"timeframes"`
	Comparisons  []Option     `json:"comparisons"`
	Controls     Controls     `json:"controls"`
	Window       model.Window `json:"window"`
	SeriesLength int          `json:"series_length"`
	Chart        ChartArea    `json:"chart"`
	Footer       string       `json:"footer"`
}

// Build derives the View for s. now drives the market status line.
func Build(s model.Snapshot, cat *catalog.Catalog, now time.Time) View {
	n := len(s.Series)
	v := View{
		Version:      s.Version,
		Window:       s.Window,
		SeriesLength: n,
		Footer:       Footer,
		Header: Header{
			Title:           Title,
			Subtitle:        Subtitle,
			Skeleton:        s.Loading,
			RefreshDisabled: s.Loading,
			Positive:        s.PriceInfo.Change >= 0,
			MarketOpen:      markethours.IsMarketOpen(now),
			MarketStatus:    markethours.StatusString(now),
		},
		Controls: Controls{
			Capabilities: view.CapabilitiesOf(s.Window, n),
			CanReset:     n > 0,
		},
	}
	if !s.Loading {
		v.Header.Price = FormatCurrency(s.PriceInfo.Price)
		v.Header.Change = FormatChange(s.PriceInfo.Change)
		v.Header.ChangePercent = FormatPercent(s.PriceInfo.ChangePercent)
	}

	for _, tf := range cat.Timeframes {
		v.Timeframes = append(v.Timeframes, Option{ID: string(tf.ID), Label: tf.Label, Active: tf.ID == s.Timeframe})
	}
	for _, opt := range cat.Comparisons {
		v.Comparisons = append(v.Comparisons, Option{ID: string(opt.ID), Label: opt.Label, Active: opt.ID == s.Comparison})
	}

	v.Chart = buildChart(s, cat)
	return v
}

func buildChart(s model.Snapshot, cat *catalog.Catalog) ChartArea {
	area := ChartArea{Overlay: s.Loading || s.ComparisonLoading}
	if s.Error != "" {
		area.Error = s.Error
		return area
	}
	if s.Loading {
		return area
	}

	points := view.Visible(s)
	if len(points) > 0 {
		area.ShowChart = true
		area.Image = len(points) >= chart.MinPoints
		area.Points = points
		if s.Comparison != model.ComparisonNone {
			area.ComparisonLabel = cat.ComparisonLabel(s.Comparison)
		}
		return area
	}
	if len(s.Series) > 0 {
		area.EmptyMessage = EmptyRangeMessage
	}
	return area
}
