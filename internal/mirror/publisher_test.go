package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/metrics"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/model"
)

type fakeClient struct {
	mu       sync.Mutex
	err      error
	channels []string
	payloads [][]byte
	closed   bool
}

func (f *fakeClient) Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return goredis.NewIntResult(0, f.err)
	}
	f.channels = append(f.channels, channel)
	f.payloads = append(f.payloads, message.([]byte))
	return goredis.NewIntResult(1, nil)
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func (f *fakeClient) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func snapshot(v uint64) model.Snapshot {
	return model.Snapshot{
		Version:    v,
		Timeframe:  model.TF1M,
		Comparison: model.ComparisonSoy,
		Series:     make([]model.PricePoint, 30),
		Window:     model.Window{Start: 3, End: 27},
		PriceInfo:  model.PriceInfo{Price: 3912, Change: 12, ChangePercent: 0.31},
		UpdatedAt:  time.Date(2026, 3, 4, 3, 0, 0, 0, time.UTC),
	}
}

func TestPublish_Event(t *testing.T) {
	fc := &fakeClient{}
	m := metrics.NewMetricsWith(prometheus.NewRegistry())
	p := NewPublisher(fc, "", m)

	assert.Equal(t, "ok", p.Publish(context.Background(), snapshot(7)))
	require.Equal(t, []string{DefaultChannel}, fc.channels)

	var ev Event
	require.NoError(t, json.Unmarshal(fc.payloads[0], &ev))
	assert.Equal(t, uint64(7), ev.Version)
	assert.Equal(t, 30, ev.SeriesLength)
	assert.Equal(t, model.Window{Start: 3, End: 27}, ev.Window)
	assert.Equal(t, model.ComparisonSoy, ev.Comparison)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MirrorPublishTotal.WithLabelValues("ok")))
}

func TestPublish_BreakerOpensAfterFailures(t *testing.T) {
	fc := &fakeClient{err: errors.New("connection refused")}
	m := metrics.NewMetricsWith(prometheus.NewRegistry())
	p := NewPublisher(fc, "custom", m)

	for i := 0; i < defaultMaxFailures; i++ {
		assert.Equal(t, "error", p.Publish(context.Background(), snapshot(uint64(i))))
	}
	assert.Equal(t, StateOpen, p.Breaker().CurrentState())
	assert.Equal(t, "circuit_open", p.Publish(context.Background(), snapshot(99)))

	assert.Equal(t, float64(defaultMaxFailures), testutil.ToFloat64(m.MirrorPublishTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MirrorPublishTotal.WithLabelValues("circuit_open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RedisCircuitBreakerTrips))
	assert.Equal(t, float64(StateOpen), testutil.ToFloat64(m.RedisCircuitBreakerState))
}

func TestRun_DrainsUntilClosed(t *testing.T) {
	fc := &fakeClient{}
	p := NewPublisher(fc, "", nil)

	ch := make(chan model.Snapshot, 3)
	ch <- snapshot(1)
	ch <- snapshot(2)
	ch <- snapshot(3)
	close(ch)

	done := make(chan struct{})
	go func() {
		p.Run(context.Background(), ch)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after channel close")
	}
	assert.Equal(t, 3, fc.count())
}

func TestRun_StopsOnCancel(t *testing.T) {
	p := NewPublisher(&fakeClient{}, "", nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, make(chan model.Snapshot))
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestClose(t *testing.T) {
	fc := &fakeClient{}
	require.NoError(t, NewPublisher(fc, "", nil).Close())
	assert.True(t, fc.closed)
}
