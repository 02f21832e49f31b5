package kv

import (
	"context"
	"sync"
)

// Memory is an in-process Store with the same quota and notification
// semantics as the Redis store. It backs tests and the degraded mode used
// when Redis is unreachable at startup.
type Memory struct {
	sender string

	mu   sync.RWMutex
	data map[string]string
	subs map[int]chan Event
	next int
}

// NewMemory creates an empty in-memory store. sender tags the events this
// store publishes.
func NewMemory(sender string) *Memory {
	return &Memory{
		sender: sender,
		data:   make(map[string]string),
		subs:   make(map[int]chan Event),
	}
}

func (m *Memory) Get(_ context.Context, keys []string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *Memory) Set(_ context.Context, items map[string]string) error {
	if len(items) == 0 {
		return nil
	}
	if _, err := checkItems(items); err != nil {
		return err
	}

	m.mu.Lock()

	// All-or-nothing: compute the usage after the write before touching
	// anything.
	usage := m.usageLocked()
	for k, v := range items {
		if old, ok := m.data[k]; ok {
			usage -= itemSize(k, old)
		}
		usage += itemSize(k, v)
	}
	if usage > QuotaBytes {
		m.mu.Unlock()
		return ErrQuotaExceeded
	}

	changes := make(map[string]Change, len(items))
	for k, v := range items {
		c := Change{NewValue: strptr(v)}
		if old, ok := m.data[k]; ok {
			c.OldValue = strptr(old)
		}
		changes[k] = c
		m.data[k] = v
	}
	m.mu.Unlock()

	m.publish(changes)
	return nil
}

func (m *Memory) Remove(_ context.Context, keys []string) error {
	m.mu.Lock()
	changes := make(map[string]Change)
	for _, k := range keys {
		if old, ok := m.data[k]; ok {
			changes[k] = Change{OldValue: strptr(old)}
			delete(m.data, k)
		}
	}
	m.mu.Unlock()

	if len(changes) > 0 {
		m.publish(changes)
	}
	return nil
}

func (m *Memory) Usage(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usageLocked(), nil
}

func (m *Memory) Subscribe(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, 16)

	m.mu.Lock()
	id := m.next
	m.next++
	m.subs[id] = ch
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) usageLocked() int {
	total := 0
	for k, v := range m.data {
		total += itemSize(k, v)
	}
	return total
}

// publish delivers an event to every subscriber. Best-effort: a slow
// subscriber with a full buffer misses the event rather than blocking the
// writer.
func (m *Memory) publish(changes map[string]Change) {
	ev := Event{Sender: m.sender, Changes: changes}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ch := range m.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
