package store

import (
	"context"
	"time"
)

// Namespace is a (database, collection) pair identifying one store.
type Namespace struct {
	Database   string `json:"database"`
	Collection string `json:"collection"`
}

func (n Namespace) String() string {
	return n.Database + "/" + n.Collection
}

func (n Namespace) valid() bool {
	return n.Database != "" && n.Collection != ""
}

// Entry is one persisted value. Value holds JSON.
type Entry struct {
	Namespace  string `badgerhold:"index"`
	Database   string
	Collection string
	Key        string
	Value      []byte
	UpdatedAt  time.Time
}

func newEntry(ns Namespace, key string, value []byte, at time.Time) Entry {
	return Entry{
		Namespace:  ns.String(),
		Database:   ns.Database,
		Collection: ns.Collection,
		Key:        key,
		Value:      value,
		UpdatedAt:  at,
	}
}

// Repo is a storage backend. Implementations must make Replace atomic for a
// single namespace.
type Repo interface {
	Upsert(ctx context.Context, entry Entry) error
	Get(ctx context.Context, ns Namespace, key string) (*Entry, error)
	List(ctx context.Context, ns Namespace) ([]Entry, error)
	Replace(ctx context.Context, ns Namespace, entries []Entry) error
	Clear(ctx context.Context, ns Namespace) error
	Close() error
}
