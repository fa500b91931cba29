package present

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/catalog"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/model"
)

var wednesdayNoon = time.Date(2026, 3, 4, 11, 0, 0, 0, time.FixedZone("MYT", 8*3600))

func series(n int) []model.PricePoint {
	out := make([]model.PricePoint, n)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		c := 3900 + float64(i)
		out[i] = model.PricePoint{TS: t0.Add(time.Duration(i) * time.Hour), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return out
}

func loaded(n int) model.Snapshot {
	return model.Snapshot{
		Version:    3,
		Timeframe:  model.TF1M,
		Comparison: model.ComparisonNone,
		Series:     series(n),
		Window:     model.Window{Start: 0, End: n},
		PriceInfo:  model.PriceInfo{Price: 3912.5, Change: 12, ChangePercent: 0.3086},
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"currency", FormatCurrency(3912.5), "RM 3,912.50"},
		{"currency zero", FormatCurrency(0), "RM 0.00"},
		{"currency negative", FormatCurrency(-12), "-RM 12.00"},
		{"change up", FormatChange(12), "+12.00"},
		{"change zero", FormatChange(0), "+0.00"},
		{"change down", FormatChange(-7.456), "-7.46"},
		{"percent up", FormatPercent(0.3086), "+0.31%"},
		{"percent down", FormatPercent(-1.5), "-1.50%"},
		{"percent zero", FormatPercent(0), "+0.00%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.got, tt.name)
	}
}

func TestBuild_Loaded(t *testing.T) {
	v := Build(loaded(30), catalog.Default(), wednesdayNoon)

	assert.Equal(t, Title, v.Header.Title)
	assert.Equal(t, Subtitle, v.Header.Subtitle)
	assert.Equal(t, Footer, v.Footer)
	assert.Equal(t, "RM 3,912.50", v.Header.Price)
	assert.Equal(t, "+12.00", v.Header.Change)
	assert.Equal(t, "+0.31%", v.Header.ChangePercent)
	assert.True(t, v.Header.Positive)
	assert.False(t, v.Header.Skeleton)
	assert.False(t, v.Header.RefreshDisabled)
	assert.True(t, v.Header.MarketOpen)
	assert.True(t, strings.HasPrefix(v.Header.MarketStatus, "Market Open"))

	assert.True(t, v.Chart.ShowChart)
	assert.True(t, v.Chart.Image)
	assert.Len(t, v.Chart.Points, 30)
	assert.Empty(t, v.Chart.ComparisonLabel)
	assert.False(t, v.Chart.Overlay)

	assert.True(t, v.Controls.CanZoomIn)
	assert.False(t, v.Controls.CanZoomOut)
	assert.True(t, v.Controls.CanReset)

	var active []string
	for _, o := range v.Timeframes {
		if o.Active {
			active = append(active, o.ID)
		}
	}
	assert.Equal(t, []string{"1M"}, active)
	require.NotEmpty(t, v.Comparisons)
	assert.True(t, v.Comparisons[0].Active)
}

func TestBuild_NegativeChange(t *testing.T) {
	s := loaded(30)
	s.PriceInfo = model.PriceInfo{Price: 3880, Change: -20, ChangePercent: -0.51}
	v := Build(s, catalog.Default(), wednesdayNoon)
	assert.False(t, v.Header.Positive)
	assert.Equal(t, "-20.00", v.Header.Change)
	assert.Equal(t, "-0.51%", v.Header.ChangePercent)
}

func TestBuild_Loading(t *testing.T) {
	s := loaded(30)
	s.Loading = true
	v := Build(s, catalog.Default(), wednesdayNoon)

	assert.True(t, v.Header.Skeleton)
	assert.True(t, v.Header.RefreshDisabled)
	assert.Empty(t, v.Header.Price)
	assert.True(t, v.Chart.Overlay)
	assert.False(t, v.Chart.ShowChart)
	assert.Empty(t, v.Chart.EmptyMessage)
}

func TestBuild_ComparisonLoadingKeepsChart(t *testing.T) {
	s := loaded(30)
	s.Comparison = model.ComparisonSoy
	s.ComparisonLoading = true
	v := Build(s, catalog.Default(), wednesdayNoon)

	assert.True(t, v.Chart.Overlay)
	assert.True(t, v.Chart.ShowChart)
	assert.Equal(t, "Soybean Oil (ZL)", v.Chart.ComparisonLabel)
}

func TestBuild_Error(t *testing.T) {
	s := loaded(0)
	s.Error = "Failed to fetch price data. Please try again later."
	v := Build(s, catalog.Default(), wednesdayNoon)

	assert.Equal(t, s.Error, v.Chart.Error)
	assert.False(t, v.Chart.ShowChart)
	assert.Empty(t, v.Chart.EmptyMessage)
	assert.False(t, v.Controls.CanReset)
}

func TestBuild_EmptyWindow(t *testing.T) {
	s := loaded(30)
	s.Window = model.Window{Start: 5, End: 5}
	v := Build(s, catalog.Default(), wednesdayNoon)

	assert.False(t, v.Chart.ShowChart)
	assert.Equal(t, EmptyRangeMessage, v.Chart.EmptyMessage)
}

func TestBuild_EmptySeriesShowsNothing(t *testing.T) {
	v := Build(loaded(0), catalog.Default(), wednesdayNoon)
	assert.False(t, v.Chart.ShowChart)
	assert.Empty(t, v.Chart.EmptyMessage)
	assert.Empty(t, v.Chart.Error)
}

func TestBuild_ComparisonPoints(t *testing.T) {
	s := loaded(20)
	s.Comparison = model.ComparisonBrent
	s.ComparisonSeries = series(20)
	s.Window = model.Window{Start: 5, End: 15}
	v := Build(s, catalog.Default(), wednesdayNoon)

	require.Len(t, v.Chart.Points, 10)
	require.NotNil(t, v.Chart.Points[0].Comparison)
	assert.Equal(t, s.ComparisonSeries[5].Close, *v.Chart.Points[0].Comparison)
	assert.Equal(t, "Brent Crude", v.Chart.ComparisonLabel)
}

func TestBuild_SinglePointHasNoImage(t *testing.T) {
	s := loaded(30)
	s.Window = model.Window{Start: 29, End: 30}
	v := Build(s, catalog.Default(), wednesdayNoon)

	assert.True(t, v.Chart.ShowChart)
	assert.False(t, v.Chart.Image)
	assert.Len(t, v.Chart.Points, 1)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, v))
	assert.NotContains(t, buf.String(), "/api/chart.svg")
	assert.Contains(t, buf.String(), "Only one bar is visible.")
}

func TestBuild_NoneIgnoresLeftoverComparison(t *testing.T) {
	s := loaded(20)
	s.Comparison = model.ComparisonNone
	s.ComparisonSeries = series(20)
	v := Build(s, catalog.Default(), wednesdayNoon)

	require.Len(t, v.Chart.Points, 20)
	for i, p := range v.Chart.Points {
		assert.Nil(t, p.Comparison, "point %d", i)
	}
	assert.Empty(t, v.Chart.ComparisonLabel)
}

func TestRender_ScriptHandlesBatchedFrames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Build(loaded(30), catalog.Default(), wednesdayNoon)))
	html := buf.String()
	assert.Contains(t, html, "split('\\n')")
	assert.NotContains(t, html, "JSON.parse(e.data)")
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Build(loaded(30), catalog.Default(), wednesdayNoon)))
	html := buf.String()

	assert.Contains(t, html, "Crude Palm Oil Futures (FCPO)")
	assert.Contains(t, html, "RM 3,912.50")
	assert.Contains(t, html, "/api/chart.svg?v=3")
	assert.Contains(t, html, "Data is simulated for demonstration purposes.")
}

func TestRender_ErrorAndEmpty(t *testing.T) {
	s := loaded(30)
	s.Window = model.Window{Start: 30, End: 30}
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Build(s, catalog.Default(), wednesdayNoon)))
	assert.Contains(t, buf.String(), "No data in the selected range.")
	assert.NotContains(t, buf.String(), "/api/chart.svg")
}
