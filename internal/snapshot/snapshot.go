// Package snapshot exports the task collection as indented JSON files and
// restores the local store from them.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/s1natex/taskboard-GO/internal/kv"
	"github.com/s1natex/taskboard-GO/internal/tasks"
)

const (
	filePrefix  = "tasks-"
	stampLayout = "20060102-150405.000"
	maxSeq      = 1000
)

// Write encodes every task in store order.
func Write(ctx context.Context, w io.Writer, store tasks.Store) error {
	all, err := store.List(ctx, tasks.Query{})
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	if all == nil {
		all = []tasks.Task{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(all)
}

func Read(r io.Reader) ([]tasks.Task, error) {
	var out []tasks.Task
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return out, nil
}

// Restore replaces the persisted collection in store with the snapshot read
// from r. Tasks without content or with duplicate ids are rejected.
func Restore(ctx context.Context, r io.Reader, store kv.Store) (int, error) {
	list, err := Read(r)
	if err != nil {
		return 0, err
	}
	seen := make(map[int64]struct{}, len(list))
	for _, t := range list {
		if t.Content == "" {
			return 0, fmt.Errorf("task %d: %w", t.ID, tasks.ErrContentRequired)
		}
		if _, dup := seen[t.ID]; dup {
			return 0, fmt.Errorf("duplicate task id %d", t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	if list == nil {
		list = []tasks.Task{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return 0, err
	}
	if err := store.Set(ctx, tasks.StorageKey, string(b)); err != nil {
		return 0, err
	}
	return len(list), nil
}

// Exporter writes timestamped snapshot files into a directory and keeps only
// the newest few.
type Exporter struct {
	store tasks.Store
	dir   string
	keep  int
	now   func() time.Time
}

func NewExporter(store tasks.Store, dir string, keep int) *Exporter {
	return &Exporter{store: store, dir: dir, keep: keep, now: time.Now}
}

// Export writes one snapshot file and returns its path. Exports that land on
// the same millisecond get increasing sequence numbers instead of replacing
// each other.
func (e *Exporter) Export(ctx context.Context) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(e.dir, ".snapshot-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if err := Write(ctx, tmp, e.store); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	path, err := e.reserve()
	if err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, e.prune()
}

// reserve creates an empty file under the next free snapshot name. Names sort
// chronologically: timestamp to the millisecond, then a sequence number.
func (e *Exporter) reserve() (string, error) {
	stamp := e.now().UTC().Format(stampLayout)
	for seq := 0; seq < maxSeq; seq++ {
		path := filepath.Join(e.dir, fmt.Sprintf("%s%s-%03d.json", filePrefix, stamp, seq))
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		return path, f.Close()
	}
	return "", fmt.Errorf("more than %d snapshots at %s", maxSeq, stamp)
}

func (e *Exporter) prune() error {
	if e.keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		return err
	}
	var names []string
	for _, ent := range entries {
		if !ent.IsDir() && strings.HasPrefix(ent.Name(), filePrefix) && strings.HasSuffix(ent.Name(), ".json") {
			names = append(names, ent.Name())
		}
	}
	// timestamped names sort chronologically
	slices.Sort(names)
	for len(names) > e.keep {
		if err := os.Remove(filepath.Join(e.dir, names[0])); err != nil {
			return err
		}
		names = names[1:]
	}
	return nil
}
