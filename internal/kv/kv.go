// Package kv holds the durable key-value storage the local task store mirrors
// its collection into.
package kv

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

// Store is a flat string-to-string map. Get returns ErrNotFound for keys that
// were never written.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
