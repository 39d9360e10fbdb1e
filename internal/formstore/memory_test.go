package formstore

import (
	"context"
	"testing"
)

func TestMemory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	got, err := m.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if got != nil {
		t.Errorf("empty store must load nil, got %q", got)
	}

	if err := m.Save(ctx, []byte(`{"action":"BUY"}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err = m.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != `{"action":"BUY"}` {
		t.Errorf("load = %q", got)
	}

	// Mutating the returned slice must not corrupt the stored copy.
	got[2] = 'X'
	again, _ := m.Load(ctx)
	if string(again) != `{"action":"BUY"}` {
		t.Errorf("store aliased caller slice: %q", again)
	}

	if err := m.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got, _ := m.Load(ctx); got != nil {
		t.Errorf("cleared store must load nil, got %q", got)
	}
}
