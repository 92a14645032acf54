package store_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/viserion/store"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (r testRecord) RecordID() string { return r.ID }

var (
	reposNS     = store.Namespace{Database: "GitHubRepos", Collection: "ReposStore"}
	followersNS = store.Namespace{Database: "GitHubFollowers", Collection: "FollowersStore"}
	tokenNS     = store.Namespace{Database: "GitHubAccessToken", Collection: "AccessTokenStore"}
)

// backends returns a fresh Store for every backend under test.
func backends(t *testing.T) map[string]*store.Store {
	t.Helper()

	badgerRepo, err := store.NewBadgerRepo(t.TempDir())
	require.NoError(t, err)

	all := map[string]*store.Store{
		"memory": store.New(store.NewInMemoryRepo()),
		"badger": store.New(badgerRepo),
	}
	t.Cleanup(func() {
		for _, s := range all {
			_ = s.Close()
		}
	})
	return all
}

func records(n int) []testRecord {
	out := make([]testRecord, n)
	for i := range out {
		out[i] = testRecord{ID: fmt.Sprintf("%d", i+1), Name: fmt.Sprintf("repo-%d", i+1)}
	}
	return out
}

func TestStore_PutAndGet(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.True(t, s.Put(ctx, tokenNS, "access_token", "tok1"))

			tok, ok := s.GetString(ctx, tokenNS, "access_token")
			require.True(t, ok)
			require.Equal(t, "tok1", tok)

			require.True(t, s.Put(ctx, tokenNS, "access_token", "tok2"))
			tok, ok = s.GetString(ctx, tokenNS, "access_token")
			require.True(t, ok)
			require.Equal(t, "tok2", tok)

			_, ok = s.Get(ctx, tokenNS, "missing")
			require.False(t, ok)
		})
	}
}

func TestStore_GetAllMissingNamespaceIsEmpty(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			all := s.GetAll(ctx, store.Namespace{Database: "Nope", Collection: "Nothing"})
			require.NotNil(t, all)
			require.Empty(t, all)
		})
	}
}

func TestStore_ReplaceNotAppend(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.True(t, store.ReplaceAll(ctx, s, reposNS, records(5)))
			require.Len(t, s.GetAll(ctx, reposNS), 5)

			require.True(t, store.ReplaceAll(ctx, s, reposNS, records(2)))
			got := store.GetAllAs[testRecord](ctx, s, reposNS)
			require.Equal(t, records(2), got)

			require.True(t, store.ReplaceAll(ctx, s, reposNS, []testRecord{}))
			require.Empty(t, s.GetAll(ctx, reposNS))
		})
	}
}

func TestStore_ReplaceRejectsRecordWithoutID(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.True(t, store.ReplaceAll(ctx, s, reposNS, records(3)))

			bad := append(records(1), testRecord{Name: "anonymous"})
			require.False(t, store.ReplaceAll(ctx, s, reposNS, bad))

			// The previous contents survive a rejected write.
			require.Len(t, s.GetAll(ctx, reposNS), 3)
		})
	}
}

func TestStore_NamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.True(t, store.ReplaceAll(ctx, s, reposNS, records(3)))
			require.True(t, store.ReplaceAll(ctx, s, followersNS, records(1)))
			require.True(t, s.Put(ctx, tokenNS, "access_token", "tok"))

			require.True(t, store.ReplaceAll(ctx, s, followersNS, []testRecord{}))
			require.Len(t, s.GetAll(ctx, reposNS), 3)
			require.Len(t, s.GetAll(ctx, tokenNS), 1)

			require.True(t, s.Clear(ctx, reposNS))
			require.Empty(t, s.GetAll(ctx, reposNS))
			_, ok := s.GetString(ctx, tokenNS, "access_token")
			require.True(t, ok)
		})
	}
}

func TestStore_Entries(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.True(t, s.Put(ctx, reposNS, "b", testRecord{ID: "b", Name: "second"}))
			require.True(t, s.Put(ctx, reposNS, "a", testRecord{ID: "a", Name: "first"}))
			require.False(t, s.Put(ctx, reposNS, "", testRecord{Name: "no key"}))

			entries := s.Entries(ctx, reposNS)
			require.Len(t, entries, 2)
			require.Equal(t, "a", entries[0].Key)
			require.Equal(t, "b", entries[1].Key)
			require.False(t, entries[0].UpdatedAt.IsZero())
		})
	}
}

func TestStore_ConcurrentWritesToSiblingNamespaces(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for round := range 50 {
				var wg sync.WaitGroup
				var failed atomic.Int32
				write := func(fn func() bool) {
					defer wg.Done()
					if !fn() {
						failed.Add(1)
					}
				}

				wg.Add(4)
				go write(func() bool { return store.ReplaceAll(ctx, s, reposNS, records(3)) })
				go write(func() bool { return store.ReplaceAll(ctx, s, followersNS, records(2)) })
				go write(func() bool { return s.Put(ctx, tokenNS, "access_token", fmt.Sprintf("tok%d", round)) })
				go write(func() bool { return s.Clear(ctx, store.Namespace{Database: "Scratch", Collection: "Scratch"}) })
				wg.Wait()

				require.Zero(t, failed.Load(), "round %d", round)
				require.Len(t, s.GetAll(ctx, reposNS), 3)
				require.Len(t, s.GetAll(ctx, followersNS), 2)
			}
		})
	}
}

func TestStore_InvalidNamespace(t *testing.T) {
	s := store.New(store.NewInMemoryRepo())
	require.False(t, s.Put(context.Background(), store.Namespace{}, "k", "v"))
	require.False(t, store.ReplaceAll(context.Background(), s, store.Namespace{Database: "db"}, records(1)))
}

func TestStore_FailuresAreNoOps(t *testing.T) {
	ctx := context.Background()
	repo := store.NewInMemoryRepo()
	s := store.New(repo)
	require.True(t, store.ReplaceAll(ctx, s, reposNS, records(2)))
	require.NoError(t, repo.Close())

	require.False(t, s.Put(ctx, tokenNS, "access_token", "tok"))
	require.False(t, store.ReplaceAll(ctx, s, reposNS, records(1)))
	require.False(t, s.Clear(ctx, reposNS))

	_, ok := s.Get(ctx, tokenNS, "access_token")
	require.False(t, ok)
	require.Empty(t, s.GetAll(ctx, reposNS))
}

func TestBadgerRepo_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := store.Open("badger", dir)
	require.NoError(t, err)
	require.True(t, store.ReplaceAll(ctx, s, reposNS, records(2)))
	require.True(t, s.Put(ctx, tokenNS, "access_token", "tok1"))
	require.NoError(t, s.Close())

	s, err = store.Open("badger", dir)
	require.NoError(t, err)
	defer s.Close()

	require.Equal(t, records(2), store.GetAllAs[testRecord](ctx, s, reposNS))
	tok, ok := s.GetString(ctx, tokenNS, "access_token")
	require.True(t, ok)
	require.Equal(t, "tok1", tok)
}

func TestOpen(t *testing.T) {
	s, err := store.Open("memory", "")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = store.Open("postgres", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown store backend")
}
