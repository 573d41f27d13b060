// Package storetest provides an in-memory store.Store for tests.
package storetest

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/voyagen/vidstate/internal/models"
	"github.com/voyagen/vidstate/internal/store"
)

// Memory is a goroutine-safe in-memory store.Store.
type Memory struct {
	mu     sync.Mutex
	events []models.VideoStateEvent

	// Err, when set, is returned by every method.
	Err error
	// LatestCalls counts LatestVideoStates calls.
	LatestCalls int

	recordCalls int
}

var _ store.Store = (*Memory)(nil)

func (m *Memory) RecordVideoState(_ context.Context, ev models.VideoStateEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCalls++
	if m.Err != nil {
		return m.Err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *Memory) LatestVideoStates(_ context.Context, convID string) ([]models.VideoStateEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LatestCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	latest := make(map[string]models.VideoStateEvent)
	for _, ev := range m.events {
		if ev.ConvID != convID {
			continue
		}
		if cur, ok := latest[ev.UserID]; !ok || !ev.OccurredAt.Before(cur.OccurredAt) {
			latest[ev.UserID] = ev
		}
	}
	out := make([]models.VideoStateEvent, 0, len(latest))
	for _, ev := range latest {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *Memory) ListVideoStateEvents(_ context.Context, filter store.EventFilter) ([]models.VideoStateEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.VideoStateEvent
	for i := len(m.events) - 1; i >= 0; i-- {
		ev := m.events[i]
		if ev.ConvID != filter.ConvID || (filter.UserID != "" && ev.UserID != filter.UserID) {
			continue
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if limit := filter.NormalizedLimit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) GetVideoStateEvent(_ context.Context, id uuid.UUID) (*models.VideoStateEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, ev := range m.events {
		if ev.ID == id {
			return &ev, nil
		}
	}
	return nil, store.ErrNotFound
}

// Events returns a copy of everything recorded, in insertion order.
func (m *Memory) Events() []models.VideoStateEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.VideoStateEvent(nil), m.events...)
}

// SetErr sets Err while other goroutines may be using m.
func (m *Memory) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

// RecordCalls returns how many times RecordVideoState was called, failed
// calls included.
func (m *Memory) RecordCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recordCalls
}
