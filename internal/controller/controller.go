// Package controller owns the dashboard view state: the active timeframe
// and comparison, the current price and comparison series, the visible
// window, the derived PriceInfo and the loading and error flags.
//
// All mutation happens under one mutex. Fetches run on their own
// goroutines and resolve back into the state under that mutex. Every
// change is published as an immutable model.Snapshot.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/bus"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/catalog"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/logger"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/metrics"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/model"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/view"
)

// FetchErrorMessage is shown when the price series cannot be loaded.
const FetchErrorMessage = "Failed to fetch price data. Please try again later."

const (
	kindPrice      = "price"
	kindComparison = "comparison"
)

// Options configures a Controller. Zero values are usable.
type Options struct {
	DefaultTimeframe model.TimeframeID

	// DiscardStale drops results of fetches superseded by a newer request
	// and cancels the superseded fetch. When false, a late result still
	// overwrites the state.
	DiscardStale bool

	SubscriberBuffer int

	Metrics *metrics.Metrics
	Health  *metrics.HealthStatus
	Logger  *slog.Logger

	// OnFetch, if set, receives the duration of every completed fetch.
	OnFetch func(kind string, d time.Duration, err error)
}

// Controller is the single dashboard state machine.
type Controller struct {
	src  model.SeriesSource
	cat  *catalog.Catalog
	opts Options
	log  *slog.Logger
	bus  *bus.FanOut[model.Snapshot]

	mu          sync.Mutex
	baseCtx     context.Context
	stop        context.CancelFunc // cancels baseCtx and every fetch derived from it
	state       model.Snapshot
	priceGen    uint64
	compGen     uint64
	priceCancel context.CancelFunc
	compCancel  context.CancelFunc
	closed      bool

	wg sync.WaitGroup
}

// New creates a Controller in its initial state: default timeframe,
// comparison NONE, empty series and the loading flag set.
func New(src model.SeriesSource, cat *catalog.Catalog, opts Options) *Controller {
	if opts.DefaultTimeframe == "" {
		opts.DefaultTimeframe = model.DefaultTimeframe
	}
	if opts.SubscriberBuffer <= 0 {
		opts.SubscriberBuffer = 64
	}
	lg := opts.Logger
	if lg == nil {
		lg = slog.Default()
	}

	baseCtx, stop := context.WithCancel(context.Background())
	c := &Controller{
		src:     src,
		cat:     cat,
		opts:    opts,
		log:     lg.With(slog.String("component", "controller")),
		bus:     bus.New[model.Snapshot](opts.SubscriberBuffer),
		baseCtx: baseCtx,
		stop:    stop,
		state: model.Snapshot{
			Timeframe:  opts.DefaultTimeframe,
			Comparison: model.ComparisonNone,
			Series:     []model.PricePoint{},
			Loading:    true,
			UpdatedAt:  time.Now().UTC(),
		},
	}
	if opts.Metrics != nil {
		c.bus.OnDrop = func(idx int) {
			opts.Metrics.FanoutDropsTotal.WithLabelValues(strconv.Itoa(idx)).Inc()
		}
	}
	return c
}

// Start issues the initial fetch for the default timeframe. Fetches are
// bound to ctx; cancelling it abandons in-flight requests.
func (c *Controller) Start(ctx context.Context) error {
	if _, err := c.cat.Timeframe(c.opts.DefaultTimeframe); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stop()
	c.baseCtx, c.stop = context.WithCancel(ctx)
	c.startPriceFetchLocked()
	c.runComparisonEffectLocked()
	c.publishLocked()
	return nil
}

// Subscribe returns a channel that receives every published snapshot.
func (c *Controller) Subscribe() <-chan model.Snapshot {
	return c.bus.Subscribe()
}

// ChannelStats reports subscriber channel occupancy.
func (c *Controller) ChannelStats() []bus.ChannelStat {
	return c.bus.ChannelStats()
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Catalog returns the catalog the controller validates selections against.
func (c *Controller) Catalog() *catalog.Catalog {
	return c.cat
}

// SetTimeframe selects tf and requests a new series for it.
func (c *Controller) SetTimeframe(tf model.TimeframeID) error {
	if _, err := c.cat.Timeframe(tf); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.state.Timeframe = tf
	c.startPriceFetchLocked()
	c.runComparisonEffectLocked()
	c.publishLocked()
	return nil
}

// Refresh requests a new series for the current timeframe.
func (c *Controller) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.startPriceFetchLocked()
	c.publishLocked()
	return nil
}

// SetComparison selects opt. NONE clears comparison data immediately;
// anything else requests a comparison series for the current base series.
func (c *Controller) SetComparison(opt model.ComparisonID) error {
	if _, err := c.cat.Comparison(opt); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.state.Comparison = opt
	c.runComparisonEffectLocked()
	c.publishLocked()
	return nil
}

// Navigate applies a window command against the current series length.
// It returns the resulting window and whether it changed.
func (c *Controller) Navigate(op view.Op) (model.Window, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.state.Series)
	next := view.Apply(op, c.state.Window, n)
	changed := next != c.state.Window

	if m := c.opts.Metrics; m != nil {
		effect := "noop"
		if changed {
			effect = "changed"
		}
		m.NavOpsTotal.WithLabelValues(string(op), effect).Inc()
	}
	if !changed {
		return next, false
	}
	c.state.Window = next
	c.publishLocked()
	return next, true
}

func (c *Controller) ZoomIn() (model.Window, bool)   { return c.Navigate(view.OpZoomIn) }
func (c *Controller) ZoomOut() (model.Window, bool)  { return c.Navigate(view.OpZoomOut) }
func (c *Controller) PanLeft() (model.Window, bool)  { return c.Navigate(view.OpPanLeft) }
func (c *Controller) PanRight() (model.Window, bool) { return c.Navigate(view.OpPanRight) }
func (c *Controller) Reset() (model.Window, bool)    { return c.Navigate(view.OpReset) }

// Capabilities reports which navigation commands would change the window.
func (c *Controller) Capabilities() model.Capabilities {
	c.mu.Lock()
	defer c.mu.Unlock()
	return view.CapabilitiesOf(c.state.Window, len(c.state.Series))
}

// Wait blocks until every in-flight fetch has resolved.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels every in-flight fetch, superseded ones included, waits
// for them and closes all subscriber channels. Commands after Close return ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stop()
	c.mu.Unlock()

	c.wg.Wait()
	c.bus.Close()
}

// ErrClosed is returned by commands issued after Close.
var ErrClosed = errors.New("controller closed")

// ── fetch orchestration ──

func (c *Controller) startPriceFetchLocked() {
	c.priceGen++
	gen := c.priceGen
	if c.opts.DiscardStale && c.priceCancel != nil {
		c.priceCancel()
	}
	ctx, cancel := context.WithCancel(c.baseCtx)
	c.priceCancel = cancel

	tf := c.state.Timeframe
	c.state.Loading = true
	c.state.Error = ""

	ctx = logger.WithTraceID(ctx, logger.NewTraceID("price"))
	c.log.Debug("price fetch started", append(logger.LogWithTrace(ctx),
		slog.String("timeframe", string(tf)), slog.Uint64("gen", gen))...)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		start := time.Now()
		series, err := c.src.PriceSeries(ctx, tf)
		c.observeFetch(kindPrice, time.Since(start), err)
		c.applyPrice(ctx, gen, tf, series, err)
	}()
}

func (c *Controller) applyPrice(ctx context.Context, gen uint64, tf model.TimeframeID, series []model.PricePoint, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	attrs := append(logger.LogWithTrace(ctx), slog.String("timeframe", string(tf)), slog.Uint64("gen", gen))
	if gen != c.priceGen {
		if c.opts.DiscardStale {
			c.countStale(kindPrice, "dropped")
			c.log.Info("stale price result dropped", attrs...)
			return
		}
		c.countStale(kindPrice, "applied")
		c.log.Warn("stale price result applied", append(attrs, slog.Bool("stale", true))...)
	}

	c.state.Loading = false
	if err != nil {
		c.state.Error = FetchErrorMessage
		c.log.Error("price fetch failed", append(attrs, slog.String("error", err.Error()))...)
		if c.opts.Health != nil {
			c.opts.Health.SetFetchResult(false, time.Now())
		}
		c.publishLocked()
		return
	}

	c.state.Series = series
	if info, ok := view.Summarize(series); ok {
		c.state.PriceInfo = info
	}
	c.state.Window = view.Reset(len(series))
	if c.opts.Health != nil {
		c.opts.Health.SetFetchResult(true, time.Now())
	}
	if m := c.opts.Metrics; m != nil {
		m.SeriesLength.Set(float64(len(series)))
	}
	c.log.Info("price series loaded", append(attrs, slog.Int("points", len(series)))...)

	// A new base series re-runs the comparison effect.
	c.runComparisonEffectLocked()
	c.publishLocked()
}

// runComparisonEffectLocked clears or re-requests comparison data for the
// current (timeframe, comparison, series) triple.
func (c *Controller) runComparisonEffectLocked() {
	c.compGen++
	gen := c.compGen
	if c.opts.DiscardStale && c.compCancel != nil {
		c.compCancel()
		c.compCancel = nil
		c.state.ComparisonLoading = false
	}

	opt := c.state.Comparison
	base := c.state.Series
	if opt == model.ComparisonNone || len(base) == 0 {
		c.state.ComparisonSeries = nil
		return
	}

	ctx, cancel := context.WithCancel(c.baseCtx)
	c.compCancel = cancel
	tf := c.state.Timeframe
	c.state.ComparisonLoading = true

	ctx = logger.WithTraceID(ctx, logger.NewTraceID("comparison"))
	c.log.Debug("comparison fetch started", append(logger.LogWithTrace(ctx),
		slog.String("timeframe", string(tf)), slog.String("comparison", string(opt)), slog.Uint64("gen", gen))...)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		start := time.Now()
		series, err := c.src.ComparisonSeries(ctx, tf, opt, base)
		c.observeFetch(kindComparison, time.Since(start), err)
		c.applyComparison(ctx, gen, opt, series, err)
	}()
}

func (c *Controller) applyComparison(ctx context.Context, gen uint64, opt model.ComparisonID, series []model.PricePoint, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	attrs := append(logger.LogWithTrace(ctx), slog.String("comparison", string(opt)), slog.Uint64("gen", gen))
	if gen != c.compGen {
		if c.opts.DiscardStale {
			c.countStale(kindComparison, "dropped")
			c.log.Info("stale comparison result dropped", attrs...)
			return
		}
		c.countStale(kindComparison, "applied")
		c.log.Warn("stale comparison result applied", append(attrs, slog.Bool("stale", true))...)
	}

	c.state.ComparisonLoading = false
	if err != nil {
		c.state.ComparisonSeries = nil
		c.log.Error("comparison fetch failed", append(attrs, slog.String("error", err.Error()))...)
	} else {
		c.state.ComparisonSeries = series
	}
	c.publishLocked()
}

func (c *Controller) observeFetch(kind string, d time.Duration, err error) {
	if m := c.opts.Metrics; m != nil {
		outcome := "ok"
		switch {
		case errors.Is(err, context.Canceled):
			outcome = "canceled"
		case err != nil:
			outcome = "error"
		}
		m.FetchesTotal.WithLabelValues(kind, outcome).Inc()
		m.FetchDur.WithLabelValues(kind).Observe(d.Seconds())
	}
	if c.opts.OnFetch != nil {
		c.opts.OnFetch(kind, d, err)
	}
}

func (c *Controller) countStale(kind, action string) {
	if m := c.opts.Metrics; m != nil {
		m.StaleResults.WithLabelValues(kind, action).Inc()
	}
}

func (c *Controller) publishLocked() {
	c.state.Version++
	c.state.UpdatedAt = time.Now().UTC()
	if m := c.opts.Metrics; m != nil {
		m.SnapshotsTotal.Inc()
		m.VisibleWidth.Set(float64(c.state.Window.Width()))
	}
	if c.opts.Health != nil {
		c.opts.Health.SetLastSnapshotTime(c.state.UpdatedAt)
	}
	c.bus.Publish(c.state)
}
