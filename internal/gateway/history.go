package gateway

import "sync"

// historyEntry is one broadcast envelope retained for reconnect backfill.
type historyEntry struct {
	Seq  int64
	Data []byte
}

// History is a fixed-capacity ring of recent envelopes. A client that
// reconnects with its last seen seq is replayed everything it missed
// instead of waiting for the next change.
type History struct {
	mu      sync.RWMutex
	entries []historyEntry
	head    int
	size    int
}

// NewHistory creates a History retaining up to capacity envelopes.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 64
	}
	return &History{entries: make([]historyEntry, capacity)}
}

// Add appends one envelope, evicting the oldest when full.
func (h *History) Add(seq int64, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.head] = historyEntry{Seq: seq, Data: data}
	h.head = (h.head + 1) % len(h.entries)
	if h.size < len(h.entries) {
		h.size++
	}
}

// Since returns envelopes with seq strictly greater than afterSeq, in
// order. Returns nil when nothing newer is buffered.
func (h *History) Since(afterSeq int64) [][]byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.size == 0 {
		return nil
	}
	var out [][]byte
	start := (h.head - h.size + len(h.entries)) % len(h.entries)
	for i := 0; i < h.size; i++ {
		e := h.entries[(start+i)%len(h.entries)]
		if e.Seq > afterSeq {
			out = append(out, e.Data)
		}
	}
	return out
}

// Latest returns the most recent envelope, or nil.
func (h *History) Latest() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.size == 0 {
		return nil
	}
	idx := (h.head - 1 + len(h.entries)) % len(h.entries)
	return h.entries[idx].Data
}
