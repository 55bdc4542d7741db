package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s1natex/taskboard-GO/internal/kv"
)

var fixedNow = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func newLocal(t *testing.T, store kv.Store) *LocalStore {
	t.Helper()
	s := NewLocalStore(store, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestLocalStore_LoadSeedsAndPersists(t *testing.T) {
	mem := kv.NewMemory()
	s := newLocal(t, mem)

	all, err := s.List(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, SeedTasks(fixedNow), all)

	_, err = mem.Get(context.Background(), StorageKey)
	require.NoError(t, err, "seed should be written on first load")
}

func TestLocalStore_LoadCorrupt(t *testing.T) {
	mem := kv.NewMemory()
	require.NoError(t, mem.Set(context.Background(), StorageKey, `{not json`))

	err := NewLocalStore(mem).Load(context.Background())
	assert.ErrorIs(t, err, ErrCorruptState)
}

func TestLocalStore_AddDefaults(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t, kv.NewMemory())

	created, err := s.Create(ctx, Draft{Content: "write report"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), created.ID)
	assert.Equal(t, PriorityMedium, created.Priority)
	assert.Equal(t, DefaultCategory, created.Category)
	assert.Equal(t, "2025-03-01 09:30", created.CreatedAt)
	assert.False(t, created.Completed)

	all, err := s.List(ctx, Query{Status: StatusAll, Category: AllCategories})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, created, all[3])
}

func TestLocalStore_AddEmptyIgnored(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t, kv.NewMemory())

	err := s.Add(ctx, Draft{Content: ""})
	assert.ErrorIs(t, err, ErrContentRequired)

	all, err := s.List(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLocalStore_AddRejectsUnknownPriority(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t, kv.NewMemory())

	_, err := s.Create(ctx, Draft{Content: "later", Priority: "urgent"})
	assert.ErrorIs(t, err, ErrInvalidPriority)

	created, err := s.Create(ctx, Draft{Content: "now", Priority: "HIGH"})
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, created.Priority)
	assert.Equal(t, int64(4), created.ID, "a rejected draft does not use up an id")
}

func TestLocalStore_RapidAddsNeverCollide(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t, kv.NewMemory())

	seen := map[int64]bool{1: true, 2: true, 3: true}
	for i := 0; i < 50; i++ {
		created, err := s.Create(ctx, Draft{Content: "x"})
		require.NoError(t, err)
		require.False(t, seen[created.ID], "duplicate id %d", created.ID)
		seen[created.ID] = true
	}
}

func TestLocalStore_ToggleTwiceRestores(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t, kv.NewMemory())

	require.NoError(t, s.Toggle(ctx, 2))
	done, err := s.List(ctx, Query{Status: StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(done))

	require.NoError(t, s.Toggle(ctx, 2))
	done, err = s.List(ctx, Query{Status: StatusCompleted})
	require.NoError(t, err)
	assert.Empty(t, done)

	assert.ErrorIs(t, s.Toggle(ctx, 99), ErrTaskNotFound)
}

func TestLocalStore_RemoveDropsEmptyCategory(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t, kv.NewMemory())

	cats, err := s.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"General", "Tutorial"}, cats)

	require.NoError(t, s.Remove(ctx, 1))
	all, err := s.List(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, ids(all))

	cats, err = s.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tutorial"}, cats)

	assert.ErrorIs(t, s.Remove(ctx, 1), ErrTaskNotFound)
}

func TestLocalStore_SetPriorityAndCategory(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t, kv.NewMemory())

	require.NoError(t, s.SetPriority(ctx, 1, PriorityHigh))
	require.NoError(t, s.SetCategory(ctx, 1, "Work"))
	assert.ErrorIs(t, s.SetPriority(ctx, 1, "urgent"), ErrInvalidPriority)

	got, err := Find(ctx, s, 1)
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, got.Priority)
	assert.Equal(t, "Work", got.Category)

	cats, err := s.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Work", "Tutorial"}, cats)
}

func TestLocalStore_RoundTripThroughSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := kv.OpenSQLiteFile(ctx, t.TempDir()+"/tasks.db")
	require.NoError(t, err)
	defer db.Close()

	s := newLocal(t, db)
	require.NoError(t, s.Add(ctx, Draft{Content: "ünïcode & <tags>", Priority: PriorityHigh, Category: "Work"}))
	require.NoError(t, s.Toggle(ctx, 3))
	require.NoError(t, s.Remove(ctx, 2))
	before, err := s.List(ctx, Query{})
	require.NoError(t, err)

	reloaded := newLocal(t, db)
	after, err := reloaded.List(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, before, after)

	created, err := reloaded.Create(ctx, Draft{Content: "next"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), created.ID)
}

func TestLocalStore_EmptyCollectionPersistsAsArray(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	s := newLocal(t, mem)
	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, s.Remove(ctx, id))
	}

	raw, err := mem.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)

	// an empty stored array is not re-seeded
	reloaded := newLocal(t, mem)
	all, err := reloaded.List(ctx, Query{})
	require.NoError(t, err)
	assert.Empty(t, all)
}
