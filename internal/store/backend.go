package store

import (
	"context"
	"errors"
)

// Persisted keys. Each key holds one JSON snapshot of a whole collection.
const (
	KeyJobs  = "jobs"
	KeyUsers = "users"
)

// ErrKeyNotFound is returned by Backend.Get when nothing is stored under a key.
var ErrKeyNotFound = errors.New("key not found")

// Backend is a durable key/value store holding whole-collection snapshots.
// Put must replace the previous value in a single atomic step.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}
