package gateway

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/robfig/cron/v3"

	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/bus"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/catalog"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/markethours"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/metrics"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/model"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/present"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/view"
)

// Dashboard is the view-state controller as seen by the gateway.
type Dashboard interface {
	Snapshot() model.Snapshot
	Catalog() *catalog.Catalog
	SetTimeframe(tf model.TimeframeID) error
	SetComparison(opt model.ComparisonID) error
	Refresh() error
	Navigate(op view.Op) (model.Window, bool)
	ChannelStats() []bus.ChannelStat
}

const replayCapacity = 500

// Hub manages WebSocket clients and fans view envelopes out to them.
// It delegates envelope construction to Broadcaster.
type Hub struct {
	dash    Dashboard
	metrics *metrics.Metrics
	start   time.Time
	now     func() time.Time

	mu      sync.RWMutex
	clients map[*Client]bool
	seq     int64

	replay *ReplayBuffer

	// FetchLatency holds series fetch durations in milliseconds.
	FetchLatency *LatencyTracker

	Broadcaster *Broadcaster
}

// NewHub creates a Hub serving dash. m may be nil.
func NewHub(dash Dashboard, m *metrics.Metrics, start time.Time) *Hub {
	h := &Hub{
		dash:         dash,
		metrics:      m,
		start:        start,
		now:          time.Now,
		clients:      make(map[*Client]bool),
		replay:       NewReplayBuffer(replayCapacity),
		FetchLatency: NewLatencyTracker(10000),
	}
	h.Broadcaster = NewBroadcaster(h)
	return h
}

// RecordFetch is a controller OnFetch hook feeding FetchLatency.
func (h *Hub) RecordFetch(kind string, d time.Duration, err error) {
	if err == nil {
		h.FetchLatency.Record(d)
	}
}

// Run broadcasts every snapshot received on snaps as a view envelope.
// Blocks until ctx is cancelled or snaps is closed.
func (h *Hub) Run(ctx context.Context, snaps <-chan model.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-snaps:
			if !ok {
				return
			}
			h.Broadcaster.BroadcastView(h.buildView(s))
		}
	}
}

// CurrentView builds the view for the controller's current state.
func (h *Hub) CurrentView() present.View {
	return h.buildView(h.dash.Snapshot())
}

func (h *Hub) buildView(s model.Snapshot) present.View {
	return present.Build(s, h.dash.Catalog(), h.now())
}

// HandleWSRequest registers an upgraded connection. enc selects the frame
// encoding; lastSeq > 0 replays buffered envelopes after that seq first.
func (h *Hub) HandleWSRequest(conn *websocket.Conn, enc Encoding, lastSeq int64) {
	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
		enc:  enc,
	}

	conn.EnableWriteCompression(true)

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.setClientGauge(count)

	log.Printf("[gateway] ws client connected enc=%s (%d total)", enc, count)

	client.sendInitialState(lastSeq)
	go client.writePump()
	go client.readPump()
}

// RemoveClient removes a client from the hub.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()
	close(c.send)
	h.setClientGauge(count)
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Seq returns the sequence number of the latest view envelope.
func (h *Hub) Seq() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.seq
}

// GetReplayRange returns buffered JSON envelopes with seq in [fromSeq, toSeq].
// Used by /api/missed for client gap backfill.
func (h *Hub) GetReplayRange(fromSeq, toSeq int64) [][]byte {
	entries := h.replay.Range(fromSeq, toSeq)
	result := make([][]byte, len(entries))
	for i, e := range entries {
		result[i] = e.Data
	}
	return result
}

// OldestSeq returns the oldest seq still replayable.
func (h *Hub) OldestSeq() int64 {
	return h.replay.Oldest()
}

func (h *Hub) setClientGauge(n int) {
	if h.metrics != nil {
		h.metrics.WSClients.Set(float64(n))
	}
}

// StartMetricsBroadcast schedules a metrics envelope to all WS clients on
// the cron spec (e.g. "@every 5s"). The scheduler stops when ctx is done.
func (h *Hub) StartMetricsBroadcast(ctx context.Context, spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, h.BroadcastMetrics); err != nil {
		return err
	}
	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}

// BroadcastMetrics sends one metrics envelope to every client and refreshes
// the market and channel gauges.
func (h *Hub) BroadcastMetrics() {
	now := h.now()
	m := h.CollectMetrics()
	open := markethours.IsMarketOpen(now)

	if h.metrics != nil {
		if open {
			h.metrics.MarketState.Set(1)
		} else {
			h.metrics.MarketState.Set(0)
		}
		for i, st := range h.dash.ChannelStats() {
			if st.Cap > 0 {
				h.metrics.ChannelSaturationPct.WithLabelValues("snapshots_" + strconv.Itoa(i)).
					Set(float64(st.Len) / float64(st.Cap) * 100)
			}
		}
	}

	h.Broadcaster.BroadcastEvent(MetricsEvent{
		Type:         "metrics",
		Metrics:      m,
		MarketOpen:   open,
		MarketStatus: markethours.StatusString(now),
	})
}

// CollectMetrics returns process metrics plus gateway counters.
func (h *Hub) CollectMetrics() SystemMetrics {
	m := CollectMetrics(h.start)
	m.FetchP50, m.FetchP95, m.FetchP99 = h.FetchLatency.Percentiles()
	m.WSClients = h.ClientCount()
	m.ViewSeq = h.Seq()
	return m
}
