package gateway

import "sync"

// Entry is one buffered view envelope.
type Entry struct {
	Seq  int64
	Data []byte // JSON envelope
}

// ReplayBuffer is a fixed-size ring of the most recent view envelopes,
// queried by seq range when a client reconnects or detects a gap.
// Seqs are pushed in increasing order. Safe for concurrent use.
type ReplayBuffer struct {
	mu   sync.RWMutex
	buf  []Entry
	cap  int
	pos  int // next write position
	full bool
}

// NewReplayBuffer creates a replay buffer with the given capacity.
func NewReplayBuffer(capacity int) *ReplayBuffer {
	if capacity <= 0 {
		capacity = replayCapacity
	}
	return &ReplayBuffer{
		buf: make([]Entry, capacity),
		cap: capacity,
	}
}

// Push appends an envelope, overwriting the oldest when full.
func (rb *ReplayBuffer) Push(seq int64, data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)

	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.buf[rb.pos] = Entry{Seq: seq, Data: cp}
	rb.pos = (rb.pos + 1) % rb.cap
	if rb.pos == 0 && !rb.full {
		rb.full = true
	}
}

// Range returns entries with seq in [fromSeq, toSeq] in seq order.
func (rb *ReplayBuffer) Range(fromSeq, toSeq int64) []Entry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	var result []Entry
	for i := 0; i < rb.len(); i++ {
		e := rb.buf[rb.index(i)]
		if e.Seq > toSeq {
			break
		}
		if e.Seq >= fromSeq {
			result = append(result, e)
		}
	}
	return result
}

// Oldest returns the smallest buffered seq, or 0 when empty. A client whose
// gap starts before it must refetch the full view instead.
func (rb *ReplayBuffer) Oldest() int64 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	if rb.len() == 0 {
		return 0
	}
	return rb.buf[rb.index(0)].Seq
}

// Len returns the number of entries currently in the buffer.
func (rb *ReplayBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.len()
}

func (rb *ReplayBuffer) len() int {
	if rb.full {
		return rb.cap
	}
	return rb.pos
}

// index converts a logical index (0 = oldest) to a physical buffer index.
func (rb *ReplayBuffer) index(logical int) int {
	if rb.full {
		return (rb.pos + logical) % rb.cap
	}
	return logical
}
