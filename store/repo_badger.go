package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
	apperrors "github.com/jrsteele09/viserion/internal/errors"
	"github.com/rs/zerolog/log"
	"github.com/timshannon/badgerhold/v4"
)

var _ Repo = (*BadgerRepo)(nil)

// BadgerRepo persists entries in an embedded Badger database.
//
// Every write reads the shared Namespace index, so two concurrent write
// transactions conflict at commit. Writes are serialised by mu.
type BadgerRepo struct {
	mu    sync.Mutex
	store *badgerhold.Store
	path  string
}

// NewBadgerRepo opens (creating if needed) the database at path.
func NewBadgerRepo(path string) (*BadgerRepo, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	log.Debug().Str("path", path).Msg("Badger database opened")
	return &BadgerRepo{store: store, path: path}, nil
}

func storageKey(ns Namespace, key string) string {
	return ns.String() + "\x00" + key
}

func namespaceQuery(ns Namespace) *badgerhold.Query {
	return badgerhold.Where("Namespace").Eq(ns.String()).Index("Namespace")
}

func (r *BadgerRepo) Upsert(_ context.Context, entry Entry) error {
	if entry.Key == "" {
		return apperrors.ErrInvalidKey
	}
	ns := nsOf(entry)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.Upsert(storageKey(ns, entry.Key), &entry); err != nil {
		return fmt.Errorf("failed to upsert %s/%s: %w", ns, entry.Key, err)
	}
	return nil
}

func (r *BadgerRepo) Get(_ context.Context, ns Namespace, key string) (*Entry, error) {
	var e Entry
	err := r.store.Get(storageKey(ns, key), &e)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", ns, key, err)
	}
	return &e, nil
}

func (r *BadgerRepo) List(_ context.Context, ns Namespace) ([]Entry, error) {
	var entries []Entry
	if err := r.store.Find(&entries, namespaceQuery(ns).SortBy("Key")); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", ns, err)
	}
	return entries, nil
}

// Replace clears the namespace and inserts entries in one transaction.
func (r *BadgerRepo) Replace(_ context.Context, ns Namespace, entries []Entry) error {
	for _, e := range entries {
		if e.Key == "" {
			return apperrors.ErrInvalidKey
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.store.Badger().Update(func(tx *badger.Txn) error {
		if err := r.store.TxDeleteMatching(tx, &Entry{}, namespaceQuery(ns)); err != nil {
			return err
		}
		for i := range entries {
			if err := r.store.TxUpsert(tx, storageKey(ns, entries[i].Key), &entries[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace %s: %w", ns, err)
	}
	return nil
}

func (r *BadgerRepo) Clear(_ context.Context, ns Namespace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.DeleteMatching(&Entry{}, namespaceQuery(ns)); err != nil {
		return fmt.Errorf("failed to clear %s: %w", ns, err)
	}
	return nil
}

func (r *BadgerRepo) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}
