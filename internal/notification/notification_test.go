package notification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/model"
)

type recorder struct {
	mu     sync.Mutex
	alerts []Alert
	err    error
}

func (r *recorder) Send(ctx context.Context, a Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
	return r.err
}

func (r *recorder) sent() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Alert(nil), r.alerts...)
}

func TestWatcher_Observe(t *testing.T) {
	w := NewWatcher(&recorder{})
	steps := []struct {
		name  string
		snap  model.Snapshot
		send  bool
		level AlertLevel
	}{
		{"loading", model.Snapshot{Timeframe: model.TF1M, Loading: true}, false, ""},
		{"loaded", model.Snapshot{Timeframe: model.TF1M}, false, ""},
		{"failed", model.Snapshot{Timeframe: model.TF1M, Error: "boom"}, true, AlertWarning},
		{"still failing", model.Snapshot{Timeframe: model.TF1M, Error: "boom"}, false, ""},
		{"retrying", model.Snapshot{Timeframe: model.TF1M, Loading: true}, false, ""},
		{"recovered", model.Snapshot{Timeframe: model.TF1M}, true, AlertInfo},
		{"steady", model.Snapshot{Timeframe: model.TF1M}, false, ""},
	}
	for _, st := range steps {
		a, ok := w.Observe(st.snap)
		assert.Equal(t, st.send, ok, st.name)
		if ok {
			assert.Equal(t, st.level, a.Level, st.name)
			assert.Equal(t, "1M", a.Timeframe, st.name)
		}
	}
}

func TestWatcher_Run(t *testing.T) {
	rec := &recorder{err: errors.New("down")}
	w := NewWatcher(rec)
	snaps := make(chan model.Snapshot, 3)
	snaps <- model.Snapshot{Timeframe: model.TF3M, Error: "Failed"}
	snaps <- model.Snapshot{Timeframe: model.TF3M, Error: "Failed"}
	snaps <- model.Snapshot{Timeframe: model.TF3M}
	close(snaps)

	done := make(chan struct{})
	go func() {
		w.Run(context.Background(), snaps)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after channel close")
	}

	got := rec.sent()
	require.Len(t, got, 2)
	assert.Equal(t, AlertWarning, got[0].Level)
	assert.Equal(t, "Failed", got[0].Message)
	assert.Equal(t, AlertInfo, got[1].Level)
}

func TestMulti_JoinsErrors(t *testing.T) {
	ok := &recorder{}
	bad := &recorder{err: errors.New("nope")}
	err := Multi{NewLogNotifier(), bad, ok}.Send(context.Background(), Alert{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
	assert.Len(t, ok.sent(), 1)
}

func TestWebhookNotifier(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	n.now = func() time.Time { return time.Date(2026, 3, 4, 3, 0, 0, 0, time.UTC) }
	require.NoError(t, n.Send(context.Background(), Alert{Level: AlertWarning, Title: "Price fetch failed", Message: "m", Timeframe: "1Y"}))

	assert.Equal(t, "WARNING", got["level"])
	assert.Equal(t, "Price fetch failed", got["title"])
	assert.Equal(t, "1Y", got["timeframe"])
	assert.Equal(t, "fcpo-dashboard", got["source"])
	assert.Equal(t, "2026-03-04T03:00:00Z", got["ts"])
}

func TestWebhookNotifier_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL).Send(context.Background(), Alert{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestTelegramNotifier(t *testing.T) {
	var path string
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42")
	n.baseURL = srv.URL
	require.NoError(t, n.Send(context.Background(), Alert{Level: AlertCritical, Title: "Down", Message: "a.b", Timeframe: "1M"}))

	assert.Equal(t, "/botTOKEN/sendMessage", path)
	assert.Equal(t, "42", body["chat_id"])
	text, _ := body["text"].(string)
	assert.True(t, strings.Contains(text, `Down \(1M\)`), text)
	assert.True(t, strings.Contains(text, `a\.b`), text)
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, "RM 3,912", escapeMarkdown("RM 3,912"))
	assert.Equal(t, `\+0\.31%`, escapeMarkdown("+0.31%"))
}
