package notification

import (
	"context"
	"log"
	"time"

	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/model"
)

const sendTimeout = 15 * time.Second

// Watcher raises a WARNING when a snapshot first carries a base-fetch
// error and an INFO once a later snapshot clears it. Repeated snapshots
// in the same state send nothing.
type Watcher struct {
	n       Notifier
	failing bool
}

// NewWatcher creates a Watcher delivering through n.
func NewWatcher(n Notifier) *Watcher {
	return &Watcher{n: n}
}

// Run consumes snapshots until ctx is cancelled or snaps is closed.
func (w *Watcher) Run(ctx context.Context, snaps <-chan model.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-snaps:
			if !ok {
				return
			}
			alert, send := w.Observe(s)
			if !send {
				continue
			}
			sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
			if err := w.n.Send(sendCtx, alert); err != nil {
				log.Printf("[notify] delivery failed: %v", err)
			}
			cancel()
		}
	}
}

// Observe folds s into the watcher state and returns the alert to send,
// if any.
func (w *Watcher) Observe(s model.Snapshot) (Alert, bool) {
	switch {
	case s.Error != "" && !w.failing:
		w.failing = true
		return Alert{
			Level:     AlertWarning,
			Title:     "Price fetch failed",
			Message:   s.Error,
			Timeframe: string(s.Timeframe),
		}, true
	case s.Error == "" && w.failing && !s.Loading:
		w.failing = false
		return Alert{
			Level:     AlertInfo,
			Title:     "Price fetch recovered",
			Message:   "Price data is loading again.",
			Timeframe: string(s.Timeframe),
		}, true
	}
	return Alert{}, false
}
