// Package catalog holds the selectable timeframes and comparison options.
// The built-in set can be replaced from a YAML file.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/model"
)

var (
	ErrUnknownTimeframe  = errors.New("unknown timeframe")
	ErrUnknownComparison = errors.New("unknown comparison option")
)

// Catalog is the ordered list of timeframes and comparison options.
type Catalog struct {
	Timeframes  []model.Timeframe        `json:"timeframes" yaml:"timeframes"`
	Comparisons []model.ComparisonOption `json:"comparisons" yaml:"comparisons"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{
		Timeframes: []model.Timeframe{
			{ID: model.TF1D, Label: "1D", Step: 5 * time.Minute, Points: 78, Volatility: 0.0015},
			{ID: model.TF5D, Label: "5D", Step: 30 * time.Minute, Points: 65, Volatility: 0.003},
			{ID: model.TF1M, Label: "1M", Step: 24 * time.Hour, Points: 30, Volatility: 0.012},
			{ID: model.TF3M, Label: "3M", Step: 24 * time.Hour, Points: 90, Volatility: 0.012},
			{ID: model.TF6M, Label: "6M", Step: 24 * time.Hour, Points: 180, Volatility: 0.012},
			{ID: model.TF1Y, Label: "1Y", Step: 24 * time.Hour, Points: 365, Volatility: 0.012},
		},
		Comparisons: []model.ComparisonOption{
			{ID: model.ComparisonNone, Label: "None"},
			{ID: model.ComparisonSoy, Label: "Soybean Oil (ZL)", BasePrice: 45.2, Correlation: 0.8, Volatility: 0.014},
			{ID: model.ComparisonBrent, Label: "Brent Crude", BasePrice: 82.5, Correlation: 0.5, Volatility: 0.018},
			{ID: model.ComparisonKLCI, Label: "FBM KLCI", BasePrice: 1605, Correlation: 0.2, Volatility: 0.007},
		},
	}
}

// Load reads a catalog from a YAML file and validates it.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadOrDefault returns Default when path is empty, else Load(path).
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks ids are unique, shapes are positive and NONE is present.
func (c *Catalog) Validate() error {
	if len(c.Timeframes) == 0 {
		return errors.New("catalog: no timeframes")
	}
	seen := make(map[model.TimeframeID]bool, len(c.Timeframes))
	for _, tf := range c.Timeframes {
		if tf.ID == "" {
			return errors.New("catalog: timeframe with empty id")
		}
		if seen[tf.ID] {
			return fmt.Errorf("catalog: duplicate timeframe %q", tf.ID)
		}
		seen[tf.ID] = true
		if tf.Step <= 0 || tf.Points < 0 || tf.Volatility < 0 {
			return fmt.Errorf("catalog: timeframe %q: step, points and volatility must be positive", tf.ID)
		}
	}

	hasNone := false
	cseen := make(map[model.ComparisonID]bool, len(c.Comparisons))
	for _, opt := range c.Comparisons {
		if cseen[opt.ID] {
			return fmt.Errorf("catalog: duplicate comparison %q", opt.ID)
		}
		cseen[opt.ID] = true
		if opt.ID == model.ComparisonNone {
			hasNone = true
			continue
		}
		if opt.BasePrice <= 0 {
			return fmt.Errorf("catalog: comparison %q: base_price must be positive", opt.ID)
		}
		if opt.Correlation < -1 || opt.Correlation > 1 {
			return fmt.Errorf("catalog: comparison %q: correlation out of [-1, 1]", opt.ID)
		}
	}
	if !hasNone {
		return fmt.Errorf("catalog: missing %q comparison option", model.ComparisonNone)
	}
	return nil
}

// Timeframe looks up a timeframe by id.
func (c *Catalog) Timeframe(id model.TimeframeID) (model.Timeframe, error) {
	for _, tf := range c.Timeframes {
		if tf.ID == id {
			return tf, nil
		}
	}
	return model.Timeframe{}, fmt.Errorf("%w: %q", ErrUnknownTimeframe, id)
}

// Comparison looks up a comparison option by id.
func (c *Catalog) Comparison(id model.ComparisonID) (model.ComparisonOption, error) {
	for _, opt := range c.Comparisons {
		if opt.ID == id {
			return opt, nil
		}
	}
	return model.ComparisonOption{}, fmt.Errorf("%w: %q", ErrUnknownComparison, id)
}

// ComparisonLabel returns the display label for id, or "" when unknown.
func (c *Catalog) ComparisonLabel(id model.ComparisonID) string {
	opt, err := c.Comparison(id)
	if err != nil {
		return ""
	}
	return opt.Label
}
