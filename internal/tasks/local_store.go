package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/s1natex/taskboard-GO/internal/kv"
)

// StorageKey is the kv entry holding the JSON-encoded collection.
const StorageKey = "tasks"

// LocalStore owns the ordered collection in memory and rewrites it wholesale
// to a kv.Store after every mutation.
type LocalStore struct {
	mu     sync.Mutex
	kv     kv.Store
	now    func() time.Time
	tasks  []Task
	nextID int64
	loaded bool
}

type LocalOption func(*LocalStore)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) LocalOption {
	return func(s *LocalStore) { s.now = now }
}

func NewLocalStore(store kv.Store, opts ...LocalOption) *LocalStore {
	s := &LocalStore{
		kv:  store,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted collection, seeding and persisting the example
// tasks when nothing has been stored yet.
func (s *LocalStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *LocalStore) load(ctx context.Context) error {
	raw, err := s.kv.Get(ctx, StorageKey)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		s.tasks = SeedTasks(s.now())
		if err := s.persist(ctx); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("read tasks: %w", err)
	default:
		var loaded []Task
		if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptState, err)
		}
		s.tasks = loaded
	}

	s.nextID = 1
	for _, t := range s.tasks {
		if t.ID >= s.nextID {
			s.nextID = t.ID + 1
		}
	}
	s.loaded = true
	return nil
}

func (s *LocalStore) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	return s.load(ctx)
}

func (s *LocalStore) persist(ctx context.Context) error {
	if s.tasks == nil {
		s.tasks = []Task{}
	}
	b, err := json.Marshal(s.tasks)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, StorageKey, string(b)); err != nil {
		return fmt.Errorf("write tasks: %w", err)
	}
	return nil
}

func (s *LocalStore) List(ctx context.Context, q Query) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return q.Apply(s.tasks), nil
}

func (s *LocalStore) Categories(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return Categories(s.tasks), nil
}

// Add implements Store.Add
func (s *LocalStore) Add(ctx context.Context, d Draft) error {
	_, err := s.Create(ctx, d)
	return err
}

// Create appends a task built from d and returns it.
func (s *LocalStore) Create(ctx context.Context, d Draft) (Task, error) {
	if d.Content == "" {
		return Task{}, ErrContentRequired
	}
	if d.Priority != "" {
		p, err := ParsePriority(string(d.Priority))
		if err != nil {
			return Task{}, err
		}
		d.Priority = p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return Task{}, err
	}

	t := d.build(s.nextID, s.now())
	s.tasks = append(s.tasks, t)
	if err := s.persist(ctx); err != nil {
		s.tasks = s.tasks[:len(s.tasks)-1]
		return Task{}, err
	}
	s.nextID++
	return t, nil
}

func (s *LocalStore) Toggle(ctx context.Context, id int64) error {
	return s.update(ctx, id, func(t *Task) { t.Completed = !t.Completed })
}

func (s *LocalStore) SetPriority(ctx context.Context, id int64, p Priority) error {
	p, err := ParsePriority(string(p))
	if err != nil {
		return err
	}
	return s.update(ctx, id, func(t *Task) { t.Priority = p })
}

func (s *LocalStore) SetCategory(ctx context.Context, id int64, category string) error {
	if category == "" {
		category = DefaultCategory
	}
	return s.update(ctx, id, func(t *Task) { t.Category = category })
}

func (s *LocalStore) Remove(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	i := s.index(id)
	if i < 0 {
		return ErrTaskNotFound
	}
	prev := s.tasks
	s.tasks = slices.Delete(slices.Clone(s.tasks), i, i+1)
	if err := s.persist(ctx); err != nil {
		s.tasks = prev
		return err
	}
	return nil
}

func (s *LocalStore) update(ctx context.Context, id int64, fn func(*Task)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	i := s.index(id)
	if i < 0 {
		return ErrTaskNotFound
	}
	prev := s.tasks[i]
	fn(&s.tasks[i])
	if err := s.persist(ctx); err != nil {
		s.tasks[i] = prev
		return err
	}
	return nil
}

func (s *LocalStore) index(id int64) int {
	return slices.IndexFunc(s.tasks, func(t Task) bool { return t.ID == id })
}
