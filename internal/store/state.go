package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/amishk599/jobbeacon/internal/model"
)

// DefaultCapacity is the maximum number of postings retained.
const DefaultCapacity = 200

// State is the single writer for all persisted data. Every public JobStore and
// UserStore operation holds mu for its whole read-modify-write cycle, so
// concurrent callers never interleave partial updates.
type State struct {
	mu       sync.Mutex
	backend  Backend
	capacity int
	logger   *slog.Logger

	jobs  *JobStore
	users *UserStore
}

// NewState wraps backend. A non-positive capacity falls back to DefaultCapacity.
func NewState(backend Backend, capacity int, logger *slog.Logger) *State {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &State{backend: backend, capacity: capacity, logger: logger}
	s.jobs = &JobStore{state: s}
	s.users = &UserStore{state: s}
	return s
}

func (s *State) Jobs() *JobStore   { return s.jobs }
func (s *State) Users() *UserStore { return s.users }

// Capacity returns the posting cap.
func (s *State) Capacity() int { return s.capacity }

// Close closes the backend.
func (s *State) Close() error { return s.backend.Close() }

// loadPostings and the helpers below must be called with mu held.
func (s *State) loadPostings(ctx context.Context) ([]model.Posting, error) {
	var postings []model.Posting
	if err := s.load(ctx, KeyJobs, &postings); err != nil {
		return nil, err
	}
	return postings, nil
}

func (s *State) savePostings(ctx context.Context, postings []model.Posting) error {
	return s.save(ctx, KeyJobs, postings)
}

func (s *State) loadAccounts(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	if err := s.load(ctx, KeyUsers, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *State) saveAccounts(ctx context.Context, accounts []model.Account) error {
	return s.save(ctx, KeyUsers, accounts)
}

func (s *State) load(ctx context.Context, key string, v any) error {
	raw, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %s snapshot: %w", key, err)
	}
	return nil
}

func (s *State) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s snapshot: %w", key, err)
	}
	if err := s.backend.Put(ctx, key, raw); err != nil {
		return err
	}
	s.logger.Debug("snapshot persisted", "key", key, "bytes", len(raw))
	return nil
}
