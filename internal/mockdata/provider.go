// Package mockdata generates simulated FCPO price series and correlated
// comparison series. Every call waits for a configurable latency and may
// fail at a configurable rate so the dashboard's loading and error paths
// behave as they would against a remote source.
package mockdata

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/catalog"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/model"
)

// DefaultBasePrice is the FCPO level (RM per tonne) series start near.
const DefaultBasePrice = 3900.0

// ErrSimulatedFailure is returned when failure injection rejects a call.
var ErrSimulatedFailure = errors.New("simulated fetch failure")

// Options configures a Provider.
type Options struct {
	PriceLatency      time.Duration
	ComparisonLatency time.Duration
	FailureRate       float64 // probability in [0, 1] that a call fails
	Seed              int64   // 0 = seeded from the clock
	BasePrice         float64 // 0 = DefaultBasePrice
	Now               func() time.Time
}

// Provider implements model.SeriesSource over a seeded random walk.
// Safe for concurrent use.
type Provider struct {
	cat  *catalog.Catalog
	opts Options

	mu  sync.Mutex
	rng *rand.Rand
}

var _ model.SeriesSource = (*Provider)(nil)

// New creates a Provider that shapes series according to cat.
func New(cat *catalog.Catalog, opts Options) *Provider {
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.BasePrice <= 0 {
		opts.BasePrice = DefaultBasePrice
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Provider{
		cat:  cat,
		opts: opts,
		rng:  rand.New(rand.NewSource(opts.Seed)),
	}
}

// PriceSeries returns a new FCPO series for tf after PriceLatency.
func (p *Provider) PriceSeries(ctx context.Context, tf model.TimeframeID) ([]model.PricePoint, error) {
	spec, err := p.cat.Timeframe(tf)
	if err != nil {
		return nil, err
	}
	if err := wait(ctx, p.opts.PriceLatency); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failLocked() {
		return nil, fmt.Errorf("price series %s: %w", tf, ErrSimulatedFailure)
	}
	return generateSeries(p.rng, spec, p.opts.BasePrice, p.opts.Now()), nil
}

// ComparisonSeries returns a series for opt aligned with base after
// ComparisonLatency. ComparisonNone yields nil without waiting.
func (p *Provider) ComparisonSeries(ctx context.Context, tf model.TimeframeID, opt model.ComparisonID, base []model.PricePoint) ([]model.PricePoint, error) {
	if opt == model.ComparisonNone {
		return nil, nil
	}
	if _, err := p.cat.Timeframe(tf); err != nil {
		return nil, err
	}
	spec, err := p.cat.Comparison(opt)
	if err != nil {
		return nil, err
	}
	if err := wait(ctx, p.opts.ComparisonLatency); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failLocked() {
		return nil, fmt.Errorf("comparison series %s/%s: %w", tf, opt, ErrSimulatedFailure)
	}
	return generateComparison(p.rng, spec, base), nil
}

func (p *Provider) failLocked() bool {
	if p.opts.FailureRate <= 0 {
		return false
	}
	return p.rng.Float64() < p.opts.FailureRate
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
