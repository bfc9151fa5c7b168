package store

import (
	"context"
	"sync"
	"time"

	"shineal/internal/model"
)

// Memory is an in-process users document with the same whole-document,
// last-write-wins semantics as the remote store. Snapshots are deep copies.
type Memory struct {
	mu       sync.Mutex
	doc      *model.Collection
	latency  time.Duration
	fetches  int
	replaces int
}

var _ Client = (*Memory)(nil)

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithLatency delays every fetch and replace, simulating a remote round trip.
func WithLatency(d time.Duration) MemoryOption {
	return func(m *Memory) {
		m.latency = d
	}
}

// WithUsers seeds the document with users.
func WithUsers(users ...model.User) MemoryOption {
	return func(m *Memory) {
		coll := model.Collection{Users: users}.Clone()
		m.doc = &coll
	}
}

// Uninitialized starts the store without a document, as if it was never created.
func Uninitialized() MemoryOption {
	return func(m *Memory) {
		m.doc = nil
	}
}

// NewMemory creates an in-memory store holding an empty document.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{doc: &model.Collection{Users: []model.User{}}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FetchCollection returns a copy of the current document.
func (m *Memory) FetchCollection(ctx context.Context) (model.Collection, error) {
	if err := m.wait(ctx); err != nil {
		return model.Collection{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	if m.doc == nil {
		return model.Collection{}, ErrNotFound
	}
	return m.doc.Clone(), nil
}

// ReplaceCollection overwrites the document with a copy of c.
func (m *Memory) ReplaceCollection(ctx context.Context, c model.Collection) error {
	if err := m.wait(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaces++
	coll := normalize(c.Clone())
	m.doc = &coll
	return nil
}

// EnsureInitialized creates an empty document if none exists.
func (m *Memory) EnsureInitialized(ctx context.Context) (model.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		m.doc = &model.Collection{Users: []model.User{}}
	}
	return m.doc.Clone(), nil
}

// Snapshot returns the current document without counting as a fetch.
func (m *Memory) Snapshot() model.Collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return model.Collection{}
	}
	return m.doc.Clone()
}

// Replaces returns how many times the document was overwritten.
func (m *Memory) Replaces() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaces
}

// Fetches returns how many times the document was read.
func (m *Memory) Fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches
}

func (m *Memory) wait(ctx context.Context) error {
	if m.latency <= 0 {
		return nil
	}
	timer := time.NewTimer(m.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
