package gateway

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/catalog"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/model"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/view"
)

// Client represents a single WebSocket peer.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
	enc  Encoding
}

// Command is a dashboard command sent by a WS client.
type Command struct {
	Type      string `json:"type"`
	ReqID     string `json:"req_id,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
	Option    string `json:"option,omitempty"`
	Ping      int64  `json:"ping,omitempty"`
}

// Command types.
const (
	CmdTimeframe  = "TIMEFRAME"
	CmdComparison = "COMPARISON"
	CmdRefresh    = "REFRESH"
	CmdZoomIn     = "ZOOM_IN"
	CmdZoomOut    = "ZOOM_OUT"
	CmdPanLeft    = "PAN_LEFT"
	CmdPanRight   = "PAN_RIGHT"
	CmdReset      = "RESET"
)

var navCommands = map[string]view.Op{
	CmdZoomIn:   view.OpZoomIn,
	CmdZoomOut:  view.OpZoomOut,
	CmdPanLeft:  view.OpPanLeft,
	CmdPanRight: view.OpPanRight,
	CmdReset:    view.OpReset,
}

// Ack acknowledges a command.
type Ack struct {
	Type    string        `json:"type"` // "ack"
	ReqID   string        `json:"req_id,omitempty"`
	Command string        `json:"command"`
	Changed *bool         `json:"changed,omitempty"` // navigation only
	Window  *model.Window `json:"window,omitempty"`
}

// ErrorMsg reports a rejected command.
type ErrorMsg struct {
	Type  string `json:"type"` // "error"
	ReqID string `json:"req_id,omitempty"`
	Error string `json:"error"`
}

// sendInitialState queues missed envelopes after lastSeq (JSON clients)
// and then the current view marked initial. Runs before the pumps start.
func (c *Client) sendInitialState(lastSeq int64) {
	seq := c.hub.Seq()
	if lastSeq > 0 && lastSeq < seq && c.enc == EncodingJSON {
		for _, env := range c.hub.GetReplayRange(lastSeq+1, seq) {
			c.queue(env)
		}
	}

	v := c.hub.CurrentView()
	now := c.hub.now().UTC()
	var frame []byte
	var err error
	if c.enc == EncodingMsgpack {
		frame, err = encodeMsgpack(Envelope{Type: "view", Seq: seq, TS: now, Initial: true, Data: v})
	} else {
		var data []byte
		if data, err = json.Marshal(v); err == nil {
			frame = jsonEnvelope("view", seq, now, data, true)
		}
	}
	if err != nil {
		log.Printf("[gateway] initial view: %v", err)
		return
	}
	c.queue(frame)
}

func (c *Client) queue(frame []byte) {
	select {
	case c.send <- frame:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))

			if c.enc == EncodingMsgpack {
				if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
					return
				}
				continue
			}

			// Coalesce queued JSON messages into one frame, newline separated.
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(msg)
			n := len(c.send)
			for i := 0; i < n; i++ {
				next, ok := <-c.send
				if !ok {
					break
				}
				w.Write([]byte{'\n'})
				w.Write(next)
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.RemoveClient(c)
		c.conn.Close()
		log.Println("[gateway] ws client disconnected")
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var cmd Command
		if err := json.Unmarshal(msg, &cmd); err != nil {
			c.reply(ErrorMsg{Type: "error", Error: "invalid message: " + err.Error()})
			continue
		}
		if cmd.Type == "" && cmd.Ping > 0 {
			c.reply(map[string]interface{}{
				"type":      "pong",
				"ping":      cmd.Ping,
				"server_ts": time.Now().UnixMilli(),
			})
			continue
		}
		c.reply(c.hub.Execute(cmd))
	}
}

func (c *Client) reply(v interface{}) {
	frame, err := encode(c.enc, v)
	if err != nil {
		log.Printf("[gateway] encode reply: %v", err)
		return
	}
	c.queue(frame)
}

// Execute runs cmd against the dashboard and returns an Ack or ErrorMsg.
func (h *Hub) Execute(cmd Command) interface{} {
	ack, err := h.execute(cmd)
	if err != nil {
		return ErrorMsg{Type: "error", ReqID: cmd.ReqID, Error: err.Error()}
	}
	return ack
}

func (h *Hub) execute(cmd Command) (Ack, error) {
	if h.metrics != nil {
		h.metrics.WSCommandTotal.WithLabelValues(commandLabel(cmd.Type)).Inc()
	}
	ack := Ack{Type: "ack", ReqID: cmd.ReqID, Command: cmd.Type}

	if op, ok := navCommands[cmd.Type]; ok {
		w, changed := h.dash.Navigate(op)
		ack.Changed = &changed
		ack.Window = &w
		return ack, nil
	}

	var err error
	switch cmd.Type {
	case CmdTimeframe:
		err = h.dash.SetTimeframe(model.TimeframeID(cmd.Timeframe))
	case CmdComparison:
		err = h.dash.SetComparison(model.ComparisonID(cmd.Option))
	case CmdRefresh:
		err = h.dash.Refresh()
	default:
		err = errUnknownCommand
	}
	return ack, err
}

var errUnknownCommand = errors.New("unknown command type")

// commandLabel bounds the metric label set to known commands.
func commandLabel(t string) string {
	switch t {
	case CmdTimeframe, CmdComparison, CmdRefresh:
		return t
	}
	if _, ok := navCommands[t]; ok {
		return t
	}
	return "unknown"
}

// isBadSelection reports whether err is a rejected timeframe or option.
func isBadSelection(err error) bool {
	return errors.Is(err, catalog.ErrUnknownTimeframe) || errors.Is(err, catalog.ErrUnknownComparison)
}
