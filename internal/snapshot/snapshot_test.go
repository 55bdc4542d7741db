package snapshot

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s1natex/taskboard-GO/internal/kv"
	"github.com/s1natex/taskboard-GO/internal/tasks"
)

func newStore(t *testing.T) (*tasks.LocalStore, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	s := tasks.NewLocalStore(mem)
	require.NoError(t, s.Load(context.Background()))
	return s, mem
}

func TestWriteRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	src, _ := newStore(t)
	require.NoError(t, src.Toggle(ctx, 2))
	require.NoError(t, src.Add(ctx, tasks.Draft{Content: "snapshot me", Category: "Work"}))

	var buf bytes.Buffer
	require.NoError(t, Write(ctx, &buf, src))
	assert.Contains(t, buf.String(), "\n  {")

	dstKV := kv.NewMemory()
	n, err := Restore(ctx, bytes.NewReader(buf.Bytes()), dstKV)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	dst := tasks.NewLocalStore(dstKV)
	require.NoError(t, dst.Load(ctx))

	want, err := src.List(ctx, tasks.Query{})
	require.NoError(t, err)
	got, err := dst.List(ctx, tasks.Query{})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRestore_Rejects(t *testing.T) {
	ctx := context.Background()

	_, err := Restore(ctx, strings.NewReader(`[{"id":1,"content":"a"},{"id":1,"content":"b"}]`), kv.NewMemory())
	assert.ErrorContains(t, err, "duplicate")

	_, err = Restore(ctx, strings.NewReader(`[{"id":1,"content":""}]`), kv.NewMemory())
	assert.ErrorIs(t, err, tasks.ErrContentRequired)

	_, err = Restore(ctx, strings.NewReader(`nope`), kv.NewMemory())
	assert.Error(t, err)
}

func TestExporter_KeepsNewest(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	dir := t.TempDir()

	exp := NewExporter(store, dir, 2)
	clock := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	exp.now = func() time.Time { return clock }

	var paths []string
	for i := 0; i < 3; i++ {
		p, err := exp.Export(ctx)
		require.NoError(t, err)
		paths = append(paths, p)
		clock = clock.Add(time.Hour)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, filepath.Base(paths[1]), entries[0].Name())
	assert.Equal(t, "tasks-20250301-020000.000-000.json", entries[1].Name())

	f, err := os.Open(paths[2])
	require.NoError(t, err)
	defer f.Close()
	list, err := Read(f)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestExporter_SameInstantKeepsBoth(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	dir := t.TempDir()

	exp := NewExporter(store, dir, 0)
	exp.now = func() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC) }

	first, err := exp.Export(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, tasks.Draft{Content: "after the first export"}))
	second, err := exp.Export(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "tasks-20250301-080000.000-001.json", filepath.Base(second))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, filepath.Base(first), entries[0].Name())

	f, err := os.Open(first)
	require.NoError(t, err)
	defer f.Close()
	list, err := Read(f)
	require.NoError(t, err)
	assert.Len(t, list, 3, "the earlier snapshot is left untouched")
}

func TestScheduler_RunsExport(t *testing.T) {
	store, _ := newStore(t)
	dir := t.TempDir()
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	s, err := NewScheduler("* * * * * *", parser, NewExporter(store, dir, 1), slog.New(slog.NewJSONHandler(io.Discard, nil)))
	require.NoError(t, err)
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		entries, err := os.ReadDir(dir)
		return err == nil && len(entries) > 0
	}, 5*time.Second, 50*time.Millisecond)
}

func TestNewScheduler_BadSpec(t *testing.T) {
	store, _ := newStore(t)
	_, err := NewScheduler("whenever", cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow), NewExporter(store, t.TempDir(), 1), slog.Default())
	assert.Error(t, err)
}
