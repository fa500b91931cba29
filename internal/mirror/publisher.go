// Package mirror publishes dashboard snapshots to Redis Pub/Sub so other
// processes can follow the view. Publishing is best effort: failures are
// logged and counted and never reach the dashboard.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/metrics"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/model"
)

const (
	// DefaultChannel is the Pub/Sub channel snapshot events go to.
	DefaultChannel = "dashboard:view"

	defaultMaxFailures  = 5
	defaultResetTimeout = 10 * time.Second
	publishTimeout      = 2 * time.Second
)

// Config configures the Redis connection.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
	Channel  string
}

// Client is the subset of the Redis client the publisher needs.
type Client interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
	Close() error
}

// Event is the mirrored form of a snapshot. Series are summarized by
// length; subscribers that need points fetch them over HTTP.
type Event struct {
	Version           uint64             `json:"version"`
	Timeframe         model.TimeframeID  `json:"timeframe"`
	Comparison        model.ComparisonID `json:"comparison"`
	SeriesLength      int                `json:"series_length"`
	Window            model.Window       `json:"window"`
	PriceInfo         model.PriceInfo    `json:"price_info"`
	Loading           bool               `json:"loading"`
	ComparisonLoading bool               `json:"comparison_loading"`
	Error             string             `json:"error,omitempty"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// EventOf converts a snapshot to its mirrored form.
func EventOf(s model.Snapshot) Event {
	return Event{
		Version:           s.Version,
		Timeframe:         s.Timeframe,
		Comparison:        s.Comparison,
		SeriesLength:      len(s.Series),
		Window:            s.Window,
		PriceInfo:         s.PriceInfo,
		Loading:           s.Loading,
		ComparisonLoading: s.ComparisonLoading,
		Error:             s.Error,
		UpdatedAt:         s.UpdatedAt,
	}
}

// Publisher forwards snapshot events to Redis through a circuit breaker.
type Publisher struct {
	client  Client
	channel string
	cb      *CircuitBreaker
	metrics *metrics.Metrics
}

var _ model.SnapshotPublisher = (*Publisher)(nil)

// Dial connects to Redis, pings it and returns a Publisher.
func Dial(ctx context.Context, cfg Config, m *metrics.Metrics) (*Publisher, *goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[mirror] connected to %s", cfg.Addr)
	return NewPublisher(rdb, cfg.Channel, m), rdb, nil
}

// NewPublisher wraps client. An empty channel uses DefaultChannel; m may be nil.
func NewPublisher(client Client, channel string, m *metrics.Metrics) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	p := &Publisher{
		client:  client,
		channel: channel,
		cb:      NewCircuitBreaker(defaultMaxFailures, defaultResetTimeout),
		metrics: m,
	}
	p.cb.OnStateChange = func(from, to State) {
		log.Printf("[mirror] circuit breaker %s -> %s", from, to)
		if p.metrics != nil {
			p.metrics.RedisCircuitBreakerState.Set(float64(to))
			if to == StateOpen {
				p.metrics.RedisCircuitBreakerTrips.Inc()
			}
		}
	}
	return p
}

// Run publishes each snapshot until ctx is cancelled or snaps is closed.
func (p *Publisher) Run(ctx context.Context, snaps <-chan model.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-snaps:
			if !ok {
				return
			}
			p.Publish(ctx, s)
		}
	}
}

// Publish sends one snapshot event and returns the outcome label.
func (p *Publisher) Publish(ctx context.Context, s model.Snapshot) string {
	payload, err := json.Marshal(EventOf(s))
	if err != nil {
		log.Printf("[mirror] marshal v%d: %v", s.Version, err)
		p.count("error")
		return "error"
	}

	err = p.cb.Execute(func() error {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		return p.client.Publish(pubCtx, p.channel, payload).Err()
	})

	outcome := "ok"
	switch {
	case err == ErrCircuitOpen:
		outcome = "circuit_open"
	case err != nil:
		outcome = "error"
		log.Printf("[mirror] WARNING: publish v%d to %s: %v", s.Version, p.channel, err)
	}
	p.count(outcome)
	return outcome
}

// Breaker exposes the circuit breaker state for health reporting.
func (p *Publisher) Breaker() *CircuitBreaker { return p.cb }

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}

func (p *Publisher) count(outcome string) {
	if p.metrics != nil {
		p.metrics.MirrorPublishTotal.WithLabelValues(outcome).Inc()
	}
}
