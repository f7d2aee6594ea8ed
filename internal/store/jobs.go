package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/amishk599/jobbeacon/internal/model"
)

// JobStore is the capped, newest-first posting collection.
type JobStore struct {
	state *State
}

// List returns all stored postings, newest publication first.
func (j *JobStore) List(ctx context.Context) ([]model.Posting, error) {
	j.state.mu.Lock()
	defer j.state.mu.Unlock()
	return j.state.loadPostings(ctx)
}

// KnownURLs returns the set of stored posting URLs.
func (j *JobStore) KnownURLs(ctx context.Context) (map[string]struct{}, error) {
	j.state.mu.Lock()
	defer j.state.mu.Unlock()

	postings, err := j.state.loadPostings(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(postings))
	for _, p := range postings {
		known[p.URL] = struct{}{}
	}
	return known, nil
}

// Contains reports whether a posting with url is stored.
func (j *JobStore) Contains(ctx context.Context, url string) (bool, error) {
	known, err := j.KnownURLs(ctx)
	if err != nil {
		return false, err
	}
	_, ok := known[url]
	return ok, nil
}

// MergeAndCap unions incoming with the stored postings, drops duplicate URLs
// (stored entries win), re-sorts newest first and truncates to capacity. The
// result is persisted in one snapshot write. It returns how many postings with
// previously unseen URLs are still retained after truncation.
func (j *JobStore) MergeAndCap(ctx context.Context, incoming []model.Posting) (int, error) {
	j.state.mu.Lock()
	defer j.state.mu.Unlock()

	existing, err := j.state.loadPostings(ctx)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, p := range existing {
		seen[p.URL] = struct{}{}
	}

	fresh := make(map[string]struct{}, len(incoming))
	merged := make([]model.Posting, 0, len(existing)+len(incoming))
	for _, p := range incoming {
		if _, dup := seen[p.URL]; dup {
			continue
		}
		seen[p.URL] = struct{}{}
		fresh[p.URL] = struct{}{}
		merged = append(merged, p)
	}
	merged = append(merged, existing...)

	slices.SortStableFunc(merged, func(a, b model.Posting) int {
		return b.PostedAt.Compare(a.PostedAt)
	})
	if len(merged) > j.state.capacity {
		merged = merged[:j.state.capacity]
	}
	added := 0
	for _, p := range merged {
		if _, ok := fresh[p.URL]; ok {
			added++
		}
	}

	if err := j.state.savePostings(ctx, merged); err != nil {
		return 0, fmt.Errorf("persisting postings: %w", err)
	}
	j.state.logger.Debug("postings merged", "added", added, "total", len(merged))
	return added, nil
}
