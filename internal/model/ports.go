package model

import "context"

// ── Port Interfaces ──
// These interfaces decouple the dashboard state from concrete data sources
// and event sinks. The mock generator and the Redis mirror each satisfy one.

// SeriesSource produces price series. Calls may block for a simulated
// latency and may fail; both honor ctx cancellation.
type SeriesSource interface {
	// PriceSeries returns a freshly generated FCPO series for tf.
	PriceSeries(ctx context.Context, tf TimeframeID) ([]PricePoint, error)

	// ComparisonSeries returns a series for opt aligned index-for-index
	// with base. Returns nil, nil for ComparisonNone.
	ComparisonSeries(ctx context.Context, tf TimeframeID, opt ComparisonID, base []PricePoint) ([]PricePoint, error)
}

// SnapshotPublisher forwards dashboard snapshots to an external sink.
type SnapshotPublisher interface {
	// Run consumes snapshots until ctx is cancelled or snaps is closed.
	Run(ctx context.Context, snaps <-chan Snapshot)

	// Close releases underlying resources.
	Close() error
}
