package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/viserion/internal/errors"
	"github.com/rs/zerolog/log"
)

// Record is anything persisted in a resource collection, keyed by its own id.
type Record interface {
	RecordID() string
}

// Store is the local persistence layer used by every other component. It
// never returns storage errors: failures are logged and reported as false or
// an empty result, and callers must not assume a write succeeded.
type Store struct {
	repo Repo
	now  func() time.Time
}

func New(repo Repo) *Store {
	return &Store{repo: repo, now: time.Now}
}

// Put stores a single value under key, creating the namespace on first write.
func (s *Store) Put(ctx context.Context, ns Namespace, key string, value any) bool {
	data, err := json.Marshal(value)
	if err != nil {
		log.Err(err).Str("store", ns.String()).Str("key", key).Msg("Failed to encode value")
		return false
	}
	if !ns.valid() {
		log.Error().Str("store", ns.String()).Msg("Invalid store namespace")
		return false
	}
	if err := s.repo.Upsert(ctx, newEntry(ns, key, data, s.now())); err != nil {
		log.Err(err).Str("store", ns.String()).Str("key", key).Msg("Failed to put value")
		return false
	}
	return true
}

// ReplaceAll swaps the whole collection for records. Prior contents are
// cleared in the same write so re-syncs never accumulate stale entries.
func ReplaceAll[R Record](ctx context.Context, s *Store, ns Namespace, records []R) bool {
	if !ns.valid() {
		log.Error().Str("store", ns.String()).Msg("Invalid store namespace")
		return false
	}

	now := s.now()
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		id := rec.RecordID()
		if id == "" {
			log.Err(apperrors.ErrInvalidRecord).Str("store", ns.String()).Msg("Refusing to replace collection")
			return false
		}
		data, err := json.Marshal(rec)
		if err != nil {
			log.Err(err).Str("store", ns.String()).Str("key", id).Msg("Failed to encode record")
			return false
		}
		entries = append(entries, newEntry(ns, id, data, now))
	}

	if err := s.repo.Replace(ctx, ns, entries); err != nil {
		log.Err(err).Str("store", ns.String()).Int("count", len(entries)).Msg("Failed to replace collection")
		return false
	}
	return true
}

// Get returns the raw JSON stored under key.
func (s *Store) Get(ctx context.Context, ns Namespace, key string) (json.RawMessage, bool) {
	e, err := s.repo.Get(ctx, ns, key)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		log.Err(err).Str("store", ns.String()).Str("key", key).Msg("Failed to get value")
		return nil, false
	}
	return json.RawMessage(e.Value), true
}

// GetString returns a value that was stored as a JSON string.
func (s *Store) GetString(ctx context.Context, ns Namespace, key string) (string, bool) {
	raw, ok := s.Get(ctx, ns, key)
	if !ok {
		return "", false
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Err(err).Str("store", ns.String()).Str("key", key).Msg("Stored value is not a string")
		return "", false
	}
	return v, true
}

// GetAll returns every value in the namespace ordered by key. A namespace that
// was never written yields an empty slice.
func (s *Store) GetAll(ctx context.Context, ns Namespace) []json.RawMessage {
	entries := s.Entries(ctx, ns)
	out := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		out = append(out, json.RawMessage(e.Value))
	}
	return out
}

// Entries is GetAll with the storage metadata attached.
func (s *Store) Entries(ctx context.Context, ns Namespace) []Entry {
	entries, err := s.repo.List(ctx, ns)
	if err != nil {
		log.Err(err).Str("store", ns.String()).Msg("Failed to list values")
		return []Entry{}
	}
	if entries == nil {
		return []Entry{}
	}
	return entries
}

// GetAllAs decodes every value in the namespace into T. Values that fail to
// decode are logged and skipped.
func GetAllAs[T any](ctx context.Context, s *Store, ns Namespace) []T {
	raw := s.GetAll(ctx, ns)
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			log.Err(err).Str("store", ns.String()).Msg("Skipping undecodable value")
			continue
		}
		out = append(out, v)
	}
	return out
}

// Clear empties the namespace.
func (s *Store) Clear(ctx context.Context, ns Namespace) bool {
	if err := s.repo.Clear(ctx, ns); err != nil {
		log.Err(err).Str("store", ns.String()).Msg("Failed to clear store")
		return false
	}
	return true
}

func (s *Store) Close() error {
	return s.repo.Close()
}

// Open builds a Store on the named backend.
func Open(backend, folder string) (*Store, error) {
	switch backend {
	case "memory":
		return New(NewInMemoryRepo()), nil
	case "badger", "":
		repo, err := NewBadgerRepo(folder)
		if err != nil {
			return nil, err
		}
		return New(repo), nil
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownBackend, backend)
	}
}
