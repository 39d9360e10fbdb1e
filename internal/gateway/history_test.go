package gateway

import (
	"fmt"
	"testing"
)

func TestHistory_SinceReplaysInOrder(t *testing.T) {
	h := NewHistory(8)
	for seq := int64(1); seq <= 5; seq++ {
		h.Add(seq, []byte(fmt.Sprintf("msg-%d", seq)))
	}

	got := h.Since(2)
	if len(got) != 3 {
		t.Fatalf("expected 3 envelopes after seq 2, got %d", len(got))
	}
	for i, want := range []string{"msg-3", "msg-4", "msg-5"} {
		if string(got[i]) != want {
			t.Errorf("envelope %d = %q, want %q", i, got[i], want)
		}
	}

	if got := h.Since(5); got != nil {
		t.Errorf("caught-up client must get nil, got %d envelopes", len(got))
	}
}

func TestHistory_EvictsOldest(t *testing.T) {
	h := NewHistory(3)
	for seq := int64(1); seq <= 5; seq++ {
		h.Add(seq, []byte(fmt.Sprintf("msg-%d", seq)))
	}

	// Seqs 1 and 2 are gone; a stale client gets only what survived.
	got := h.Since(0)
	if len(got) != 3 {
		t.Fatalf("expected 3 retained envelopes, got %d", len(got))
	}
	if string(got[0]) != "msg-3" || string(got[2]) != "msg-5" {
		t.Errorf("wrong retained range: %q ... %q", got[0], got[2])
	}
}

func TestHistory_Latest(t *testing.T) {
	h := NewHistory(2)
	if h.Latest() != nil {
		t.Error("empty history must return nil")
	}
	h.Add(1, []byte("a"))
	h.Add(2, []byte("b"))
	h.Add(3, []byte("c"))
	if got := h.Latest(); string(got) != "c" {
		t.Errorf("latest = %q, want c", got)
	}
}

func TestHistory_ZeroCapacityDefaults(t *testing.T) {
	h := NewHistory(0)
	h.Add(1, []byte("a"))
	if got := h.Latest(); string(got) != "a" {
		t.Errorf("latest = %q", got)
	}
}
