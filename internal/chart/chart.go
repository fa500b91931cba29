// Package chart renders the visible price window as an SVG or PNG line
// chart. FCPO closes use the left axis; the comparison instrument, when
// present, is drawn on the right axis since its price level is unrelated.
package chart

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/model"
)

// MinPoints is the fewest points Render will draw.
const MinPoints = 2

// ErrNotEnoughPoints is returned when fewer than MinPoints points are visible.
var ErrNotEnoughPoints = errors.New("chart: need at least two points")

// Format selects the output encoding.
type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// Options controls chart geometry.
type Options struct {
	Width  int
	Height int
	Title  string
}

// DefaultOptions is used by the HTTP handlers.
var DefaultOptions = Options{Width: 960, Height: 360}

var (
	priceColor      = drawing.ColorFromHex("2563eb")
	comparisonColor = drawing.ColorFromHex("f59e0b")
)

// Render draws points to w. comparisonLabel names the secondary series; it
// is ignored when fewer than two points carry a comparison value.
func Render(w io.Writer, points []model.ChartPoint, comparisonLabel string, format Format, opts Options) error {
	if len(points) < MinPoints {
		return ErrNotEnoughPoints
	}

	xs := make([]time.Time, len(points))
	closes := make([]float64, len(points))
	var cxs []time.Time
	var cys []float64
	for i, p := range points {
		xs[i] = p.TS
		closes[i] = p.Close
		if p.Comparison != nil {
			cxs = append(cxs, p.TS)
			cys = append(cys, *p.Comparison)
		}
	}

	ch := gochart.Chart{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 20, Left: 16, Right: 16, Bottom: 12}},
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeValueFormatterWithFormat(timeLayout(xs)),
		},
		YAxis: gochart.YAxis{
			Name:  "FCPO (RM)",
			Range: flatRange(closes),
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    "FCPO",
				Style:   gochart.Style{StrokeColor: priceColor, StrokeWidth: 2},
				XValues: xs,
				YValues: closes,
			},
		},
	}

	if len(cys) >= 2 {
		name := comparisonLabel
		if name == "" {
			name = "Comparison"
		}
		ch.YAxisSecondary = gochart.YAxis{Name: name, Range: flatRange(cys)}
		ch.Series = append(ch.Series, gochart.TimeSeries{
			Name:    name,
			YAxis:   gochart.YAxisSecondary,
			Style:   gochart.Style{StrokeColor: comparisonColor, StrokeWidth: 1.5, StrokeDashArray: []float64{5, 3}},
			XValues: cxs,
			YValues: cys,
		})
		ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	}

	provider := gochart.SVG
	if format == PNG {
		provider = gochart.PNG
	}
	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("chart: render %s: %w", format, err)
	}
	return nil
}

// ParseFormat maps "svg"/"png" (any case) to a Format.
func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(s)) {
	case SVG:
		return SVG, true
	case PNG:
		return PNG, true
	}
	return "", false
}

// timeLayout picks an axis label layout from the visible span.
func timeLayout(xs []time.Time) string {
	span := xs[len(xs)-1].Sub(xs[0])
	switch {
	case span <= 24*time.Hour:
		return "15:04"
	case span <= 7*24*time.Hour:
		return "Jan 2 15:04"
	default:
		return "Jan 2"
	}
}

// flatRange returns a padded range when every value is equal, which
// go-chart cannot scale on its own. Otherwise it returns nil (auto).
func flatRange(vs []float64) gochart.Range {
	lo, hi := vs[0], vs[0]
	for _, v := range vs[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi > lo {
		return nil
	}
	return &gochart.ContinuousRange{Min: lo - 1, Max: hi + 1}
}
