package kv

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMemoryGetOmitsAbsentKeys(t *testing.T) {
	m := NewMemory("test")
	ctx := context.Background()

	if err := m.Set(ctx, map[string]string{"a": "1"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := m.Get(ctx, []string{"a", "missing"})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got) != 1 || got["a"] != "1" {
		t.Errorf("Get() = %v, want only a=1", got)
	}
}

func TestMemorySetRejectsOversizedItem(t *testing.T) {
	m := NewMemory("test")
	big := strings.Repeat("x", QuotaBytesPerItem)

	err := m.Set(context.Background(), map[string]string{"key": big})
	if !errors.Is(err, ErrItemTooLarge) {
		t.Errorf("Set() error = %v, want ErrItemTooLarge", err)
	}
	if usage, _ := m.Usage(context.Background()); usage != 0 {
		t.Errorf("usage after failed Set = %d, want 0 (all-or-nothing)", usage)
	}
}

func TestMemorySetRejectsQuotaOverflow(t *testing.T) {
	m := NewMemory("test")
	ctx := context.Background()
	chunk := strings.Repeat("x", QuotaBytesPerItem-10)

	// Fill close to the quota with valid-sized items.
	items := make(map[string]string)
	for i := 0; len(items)*(QuotaBytesPerItem-10) < QuotaBytes-QuotaBytesPerItem; i++ {
		items[string(rune('a'+i))] = chunk
	}
	if err := m.Set(ctx, items); err != nil {
		t.Fatalf("Set() filling store error = %v", err)
	}

	before, _ := m.Usage(ctx)
	err := m.Set(ctx, map[string]string{"overflow1": chunk, "overflow2": chunk})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("Set() error = %v, want ErrQuotaExceeded", err)
	}
	after, _ := m.Usage(ctx)
	if after != before {
		t.Errorf("usage changed on failed Set: %d -> %d", before, after)
	}
}

func TestMemorySetOverwriteAccountsOldSize(t *testing.T) {
	m := NewMemory("test")
	ctx := context.Background()
	chunk := strings.Repeat("x", QuotaBytesPerItem-10)

	items := make(map[string]string)
	for i := 0; len(items)*(QuotaBytesPerItem-10) < QuotaBytes-QuotaBytesPerItem; i++ {
		items[string(rune('a'+i))] = chunk
	}
	if err := m.Set(ctx, items); err != nil {
		t.Fatalf("Set() filling store error = %v", err)
	}

	// Overwriting an existing key with an equal-sized value must not count
	// both the old and new copy against the quota.
	if err := m.Set(ctx, map[string]string{"a": strings.Repeat("y", QuotaBytesPerItem-10)}); err != nil {
		t.Errorf("overwrite Set() error = %v, want nil", err)
	}
}

func TestMemoryRemoveFreesSpace(t *testing.T) {
	m := NewMemory("test")
	ctx := context.Background()

	if err := m.Set(ctx, map[string]string{"a": "hello"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := m.Remove(ctx, []string{"a", "never-existed"}); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if usage, _ := m.Usage(ctx); usage != 0 {
		t.Errorf("usage after Remove = %d, want 0", usage)
	}
}

func TestMemorySubscribeReceivesChanges(t *testing.T) {
	m := NewMemory("writer-1")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := m.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := m.Set(ctx, map[string]string{"a": "new"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	select {
	case ev := <-events:
		if ev.Sender != "writer-1" {
			t.Errorf("Sender = %q, want writer-1", ev.Sender)
		}
		c, ok := ev.Changes["a"]
		if !ok {
			t.Fatalf("event missing change for key a: %v", ev.Changes)
		}
		if c.OldValue != nil {
			t.Errorf("OldValue = %v, want nil for a created key", *c.OldValue)
		}
		if c.NewValue == nil || *c.NewValue != "new" {
			t.Errorf("NewValue = %v, want new", c.NewValue)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestMemorySubscribeRemoveEventCarriesOldValue(t *testing.T) {
	m := NewMemory("writer-1")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := m.Set(ctx, map[string]string{"a": "old"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	events, err := m.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := m.Remove(ctx, []string{"a"}); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	select {
	case ev := <-events:
		c := ev.Changes["a"]
		if c.OldValue == nil || *c.OldValue != "old" {
			t.Errorf("OldValue = %v, want old", c.OldValue)
		}
		if c.NewValue != nil {
			t.Errorf("NewValue = %v, want nil for a removed key", *c.NewValue)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestMemorySubscribeClosesOnCancel(t *testing.T) {
	m := NewMemory("test")
	ctx, cancel := context.WithCancel(context.Background())

	events, err := m.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Error("received an event after cancel, want closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
