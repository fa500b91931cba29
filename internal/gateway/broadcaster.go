package gateway

import (
	"bytes"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/present"
)

// Encoding is the frame format a WS client asked for.
type Encoding string

const (
	EncodingJSON    Encoding = "json"
	EncodingMsgpack Encoding = "msgpack"
)

// ParseEncoding maps the ?enc= query value to an Encoding (default JSON).
func ParseEncoding(s string) Encoding {
	if s == string(EncodingMsgpack) {
		return EncodingMsgpack
	}
	return EncodingJSON
}

// Envelope is the structured form of a view frame, used for MessagePack
// clients and for decoding in tests.
type Envelope struct {
	Type    string       `json:"type"`
	Seq     int64        `json:"seq"`
	TS      time.Time    `json:"ts"`
	Initial bool         `json:"initial,omitempty"`
	Data    present.View `json:"data"`
}

// MetricsEvent is the periodic metrics frame.
type MetricsEvent struct {
	Type         string        `json:"type"`
	Metrics      SystemMetrics `json:"metrics"`
	MarketOpen   bool          `json:"marketOpen"`
	MarketStatus string        `json:"marketStatus"`
}

// Broadcaster constructs envelopes and sends them to clients.
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a Broadcaster backed by the given Hub.
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// BroadcastView assigns the next seq to v, stores the JSON envelope for
// replay and sends it to every client in its encoding.
func (b *Broadcaster) BroadcastView(v present.View) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[gateway] marshal view v%d: %v", v.Version, err)
		return
	}
	now := b.hub.now().UTC()

	b.hub.mu.Lock()
	b.hub.seq++
	seq := b.hub.seq
	b.hub.mu.Unlock()
	buf := jsonEnvelope("view", seq, now, data, false)

	b.hub.replay.Push(seq, buf)

	var packed []byte
	b.hub.mu.RLock()
	defer b.hub.mu.RUnlock()
	for client := range b.hub.clients {
		frame := buf
		if client.enc == EncodingMsgpack {
			if packed == nil {
				packed, err = encodeMsgpack(Envelope{Type: "view", Seq: seq, TS: now, Data: v})
				if err != nil {
					log.Printf("[gateway] msgpack view seq=%d: %v", seq, err)
					continue
				}
			}
			frame = packed
		}
		select {
		case client.send <- frame:
		default:
		}
	}
}

// BroadcastEvent sends a non-view event to every client.
func (b *Broadcaster) BroadcastEvent(ev interface{}) {
	var js, packed []byte
	b.hub.mu.RLock()
	defer b.hub.mu.RUnlock()
	for client := range b.hub.clients {
		frame, err := encodeCached(client.enc, ev, &js, &packed)
		if err != nil {
			log.Printf("[gateway] encode event: %v", err)
			return
		}
		select {
		case client.send <- frame:
		default:
		}
	}
}

// jsonEnvelope hand-crafts the view envelope around pre-marshalled data.
func jsonEnvelope(typ string, seq int64, ts time.Time, data []byte, initial bool) []byte {
	buf := make([]byte, 0, len(data)+96)
	buf = append(buf, `{"type":"`...)
	buf = append(buf, typ...)
	buf = append(buf, `","seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	buf = append(buf, `,"ts":"`...)
	buf = ts.AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, '"')
	if initial {
		buf = append(buf, `,"initial":true`...)
	}
	buf = append(buf, `,"data":`...)
	buf = append(buf, data...)
	buf = append(buf, '}')
	return buf
}

// encodeMsgpack encodes v using its json tags as field names.
func encodeMsgpack(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encode returns v in the requested encoding.
func encode(e Encoding, v interface{}) ([]byte, error) {
	if e == EncodingMsgpack {
		return encodeMsgpack(v)
	}
	return json.Marshal(v)
}

// encodeCached is encode memoized per encoding across one fan-out.
func encodeCached(e Encoding, v interface{}, js, packed *[]byte) ([]byte, error) {
	slot := js
	if e == EncodingMsgpack {
		slot = packed
	}
	if *slot == nil {
		b, err := encode(e, v)
		if err != nil {
			return nil, err
		}
		*slot = b
	}
	return *slot, nil
}
