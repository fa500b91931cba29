package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/chart"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/controller"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/metrics"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/model"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/present"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/view"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	SetCORS(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// commandStatus maps a controller error to an HTTP status.
func commandStatus(err error) int {
	switch {
	case isBadSelection(err), errors.Is(err, errUnknownCommand):
		return http.StatusBadRequest
	case errors.Is(err, controller.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RegisterRoutes registers all HTTP routes on the provided mux.
// health may be nil.
func RegisterRoutes(mux *http.ServeMux, hub *Hub, health *metrics.HealthStatus) {
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade error: %v", err)
			return
		}
		lastSeq, _ := strconv.ParseInt(r.URL.Query().Get("last_seq"), 10, 64)
		hub.HandleWSRequest(conn, ParseEncoding(r.URL.Query().Get("enc")), lastSeq)
	})

	// Page
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := present.Render(&buf, hub.CurrentView()); err != nil {
			log.Printf("[gateway] render page: %v", err)
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
	})

	// REST: view model and catalog
	mux.HandleFunc("GET /api/view", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, hub.CurrentView())
	})
	mux.HandleFunc("GET /api/catalog", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, hub.dash.Catalog())
	})

	// REST: commands
	mux.HandleFunc("POST /api/timeframe", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Timeframe string `json:"timeframe"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		hub.respond(w, Command{Type: CmdTimeframe, Timeframe: req.Timeframe})
	})
	mux.HandleFunc("POST /api/comparison", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Option string `json:"option"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		hub.respond(w, Command{Type: CmdComparison, Option: req.Option})
	})
	mux.HandleFunc("POST /api/refresh", func(w http.ResponseWriter, r *http.Request) {
		hub.respond(w, Command{Type: CmdRefresh})
	})
	mux.HandleFunc("POST /api/nav/{op}", func(w http.ResponseWriter, r *http.Request) {
		op, ok := view.ParseOp(r.PathValue("op"))
		if !ok {
			writeError(w, http.StatusNotFound, "unknown navigation op")
			return
		}
		w2, changed := hub.dash.Navigate(op)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"window":       w2,
			"changed":      changed,
			"capabilities": view.CapabilitiesOf(w2, len(hub.dash.Snapshot().Series)),
		})
	})
	mux.HandleFunc("OPTIONS /api/", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.WriteHeader(http.StatusOK)
	})

	// Chart images
	mux.HandleFunc("GET /api/chart.svg", hub.chartHandler(chart.SVG))
	mux.HandleFunc("GET /api/chart.png", hub.chartHandler(chart.PNG))
	mux.HandleFunc("GET /api/chart", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("format")
		if name == "" {
			name = string(chart.SVG)
		}
		format, ok := chart.ParseFormat(name)
		if !ok {
			writeError(w, http.StatusBadRequest, "format must be svg or png")
			return
		}
		hub.chartHandler(format)(w, r)
	})

	// REST: replay for gap backfill
	mux.HandleFunc("GET /api/missed", func(w http.ResponseWriter, r *http.Request) {
		from, err1 := strconv.ParseInt(r.URL.Query().Get("from"), 10, 64)
		to, err2 := strconv.ParseInt(r.URL.Query().Get("to"), 10, 64)
		if err1 != nil || err2 != nil || from > to {
			writeError(w, http.StatusBadRequest, "from and to must be integers with from <= to")
			return
		}
		envs := hub.GetReplayRange(from, to)
		out := make([]json.RawMessage, len(envs))
		for i, e := range envs {
			out[i] = e
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"from":      from,
			"to":        to,
			"seq":       hub.Seq(),
			"oldest":    hub.OldestSeq(),
			"envelopes": out,
		})
	})

	// REST: system metrics snapshot
	mux.HandleFunc("GET /api/metrics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, hub.CollectMetrics())
	})

	// Health endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		var report *metrics.Report
		if health != nil {
			rep, c := health.Report()
			report, status, code = &rep, rep.Status, c
		}
		writeJSON(w, code, map[string]interface{}{
			"status":     status,
			"detail":     report,
			"ws_clients": hub.ClientCount(),
			"uptime_sec": int64(time.Since(hub.start).Seconds()),
			"ts":         time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}

// respond executes cmd and writes the ack or error.
func (h *Hub) respond(w http.ResponseWriter, cmd Command) {
	ack, err := h.execute(cmd)
	if err != nil {
		writeError(w, commandStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

func (h *Hub) chartHandler(format chart.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := h.dash.Snapshot()
		points := view.Visible(s)
		label := ""
		if s.Comparison != model.ComparisonNone {
			label = h.dash.Catalog().ComparisonLabel(s.Comparison)
		}

		var buf bytes.Buffer
		err := chart.Render(&buf, points, label, format, chart.DefaultOptions)
		if errors.Is(err, chart.ErrNotEnoughPoints) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err != nil {
			log.Printf("[gateway] %v", err)
			http.Error(w, "chart render failed", http.StatusInternalServerError)
			return
		}
		SetCORS(w)
		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Cache-Control", "no-store")
		w.Write(buf.Bytes())
	}
}
