package store

import (
	"context"
	"sort"
	"sync"

	apperrors "github.com/jrsteele09/viserion/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu         sync.RWMutex
	namespaces map[Namespace]map[string]Entry
	closed     bool
}

// NewInMemoryRepo creates a new in-memory repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		namespaces: make(map[Namespace]map[string]Entry),
	}
}

func nsOf(e Entry) Namespace {
	return Namespace{Database: e.Database, Collection: e.Collection}
}

func copyEntry(e Entry) Entry {
	e.Value = append([]byte(nil), e.Value...)
	return e
}

func (r *InMemoryRepo) Upsert(_ context.Context, entry Entry) error {
	if entry.Key == "" {
		return apperrors.ErrInvalidKey
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return apperrors.ErrStoreClosed
	}

	ns := nsOf(entry)
	coll, ok := r.namespaces[ns]
	if !ok {
		coll = make(map[string]Entry)
		r.namespaces[ns] = coll
	}
	coll[entry.Key] = copyEntry(entry)
	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, ns Namespace, key string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, apperrors.ErrStoreClosed
	}

	e, ok := r.namespaces[ns][key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	e = copyEntry(e)
	return &e, nil
}

// List returns the namespace's entries ordered by key.
func (r *InMemoryRepo) List(_ context.Context, ns Namespace) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, apperrors.ErrStoreClosed
	}

	coll := r.namespaces[ns]
	entries := make([]Entry, 0, len(coll))
	for _, e := range coll {
		entries = append(entries, copyEntry(e))
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries, nil
}

func (r *InMemoryRepo) Replace(_ context.Context, ns Namespace, entries []Entry) error {
	coll := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if e.Key == "" {
			return apperrors.ErrInvalidKey
		}
		coll[e.Key] = copyEntry(e)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return apperrors.ErrStoreClosed
	}
	r.namespaces[ns] = coll
	return nil
}

func (r *InMemoryRepo) Clear(_ context.Context, ns Namespace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return apperrors.ErrStoreClosed
	}
	delete(r.namespaces, ns)
	return nil
}

func (r *InMemoryRepo) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
