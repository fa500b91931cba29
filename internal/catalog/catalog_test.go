package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/model"
)

func TestDefault_IsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	tf, err := c.Timeframe(model.DefaultTimeframe)
	require.NoError(t, err)
	assert.Equal(t, 30, tf.Points)
	assert.Equal(t, 24*time.Hour, tf.Step)

	assert.Equal(t, "Brent Crude", c.ComparisonLabel(model.ComparisonBrent))
	assert.Equal(t, "", c.ComparisonLabel("GOLD"))
}

func TestLookup_Unknown(t *testing.T) {
	c := Default()
	_, err := c.Timeframe("2W")
	assert.ErrorIs(t, err, ErrUnknownTimeframe)
	_, err = c.Comparison("GOLD")
	assert.ErrorIs(t, err, ErrUnknownComparison)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	body := `
timeframes:
  - id: 1D
    label: Today
    step: 15m
    points: 24
    volatility: 0.002
comparisons:
  - id: NONE
    label: None
  - id: SOY
    label: Soy
    base_price: 44
    correlation: 0.9
    volatility: 0.01
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.Timeframes, 1)
	assert.Equal(t, 15*time.Minute, c.Timeframes[0].Step)
	assert.Equal(t, "Today", c.Timeframes[0].Label)
	assert.Equal(t, 0.9, c.Comparisons[1].Correlation)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		mod  func(c *Catalog)
	}{
		{"no timeframes", func(c *Catalog) { c.Timeframes = nil }},
		{"duplicate timeframe", func(c *Catalog) { c.Timeframes = append(c.Timeframes, c.Timeframes[0]) }},
		{"zero step", func(c *Catalog) { c.Timeframes[0].Step = 0 }},
		{"missing none", func(c *Catalog) { c.Comparisons = c.Comparisons[1:] }},
		{"bad correlation", func(c *Catalog) { c.Comparisons[1].Correlation = 1.5 }},
		{"bad base price", func(c *Catalog) { c.Comparisons[2].BasePrice = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mod(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadOrDefault_Empty(t *testing.T) {
	c, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Len(t, c.Timeframes, 6)
}
