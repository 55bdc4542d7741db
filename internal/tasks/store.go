package tasks

import "context"

// Store is the task collection as seen by the front-ends. LocalStore keeps it
// in process; RemoteStore delegates every call to a collaborator service.
type Store interface {
	List(ctx context.Context, q Query) ([]Task, error)
	Add(ctx context.Context, d Draft) error
	Toggle(ctx context.Context, id int64) error
	Remove(ctx context.Context, id int64) error
	SetPriority(ctx context.Context, id int64, p Priority) error
	SetCategory(ctx context.Context, id int64, category string) error
	Categories(ctx context.Context) ([]string, error)
}

// Find returns the task with the given id from an unfiltered listing.
func Find(ctx context.Context, s Store, id int64) (Task, error) {
	all, err := s.List(ctx, Query{})
	if err != nil {
		return Task{}, err
	}
	for _, t := range all {
		if t.ID == id {
			return t, nil
		}
	}
	return Task{}, ErrTaskNotFound
}
