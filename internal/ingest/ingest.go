// Package ingest pulls postings from every configured source, deduplicates
// them against the store and merges the survivors.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobbeacon/internal/model"
)

// Source is one named feed.
type Source struct {
	Name    string
	Fetcher model.JobFetcher
}

// PostingStore is the slice of the job store the ingestor needs.
type PostingStore interface {
	KnownURLs(ctx context.Context) (map[string]struct{}, error)
	MergeAndCap(ctx context.Context, incoming []model.Posting) (int, error)
}

// Result counts one ingestion pass.
type Result struct {
	Fetched       int // raw records returned by all sources
	Duplicates    int // batch-unique postings already stored
	Added         int // postings merged into the store
	FailedSources int
}

// Ingestor owns one fetch, filter, dedup and merge cycle.
type Ingestor struct {
	sources     []Source
	filter      model.JobFilter
	store       PostingStore
	concurrency int
	logger      *slog.Logger
}

// New creates an Ingestor. filter may be nil to keep every posting; a
// non-positive concurrency fetches all sources at once.
func New(sources []Source, filter model.JobFilter, store PostingStore, concurrency int, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		sources:     sources,
		filter:      filter,
		store:       store,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run performs one pass. Source failures are logged and contribute nothing;
// only store failures are returned.
func (in *Ingestor) Run(ctx context.Context) (Result, error) {
	var res Result

	batches, failed := in.fetchAll(ctx)
	res.FailedSources = failed

	var all []model.Posting
	for _, b := range batches {
		res.Fetched += len(b)
		all = append(all, b...)
	}

	if in.filter != nil {
		kept := all[:0:0]
		for _, p := range all {
			if in.filter.Match(p) {
				kept = append(kept, p)
			}
		}
		all = kept
	}

	unique := dedupeByURL(all)

	known, err := in.store.KnownURLs(ctx)
	if err != nil {
		return res, fmt.Errorf("loading known postings: %w", err)
	}

	fresh := make([]model.Posting, 0, len(unique))
	for _, p := range unique {
		if _, ok := known[p.URL]; ok {
			continue
		}
		fresh = append(fresh, p)
	}
	res.Duplicates = len(unique) - len(fresh)

	if len(fresh) > 0 {
		// Postings older than everything in a full store are trimmed in the
		// same write and do not count as added.
		added, err := in.store.MergeAndCap(ctx, fresh)
		if err != nil {
			return res, fmt.Errorf("merging postings: %w", err)
		}
		res.Added = added
	}

	in.logger.Info("ingestion complete",
		"sources", len(in.sources),
		"failed_sources", res.FailedSources,
		"fetched", res.Fetched,
		"in_scope", len(unique),
		"duplicates", res.Duplicates,
		"added", res.Added,
	)
	return res, nil
}

// fetchAll queries every source concurrently and returns the batches in
// configured source order.
func (in *Ingestor) fetchAll(ctx context.Context) ([][]model.Posting, int) {
	batches := make([][]model.Posting, len(in.sources))
	errs := make([]error, len(in.sources))

	g, gctx := errgroup.WithContext(ctx)
	if in.concurrency > 0 {
		g.SetLimit(in.concurrency)
	}
	for i, src := range in.sources {
		g.Go(func() error {
			postings, err := src.Fetcher.FetchJobs(gctx)
			if err != nil {
				errs[i] = &model.SourceFetchError{Source: src.Name, Err: err}
				return nil
			}
			batches[i] = postings
			in.logger.Debug("source fetched", "source", src.Name, "count", len(postings))
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err == nil {
			continue
		}
		failed++
		var sfe *model.SourceFetchError
		if errors.As(err, &sfe) {
			in.logger.Error("source fetch failed", "source", sfe.Source, "error", sfe.Err)
		}
	}
	return batches, failed
}

// dedupeByURL collapses postings sharing a URL. The last occurrence's data
// wins while the first occurrence's position is kept.
func dedupeByURL(postings []model.Posting) []model.Posting {
	pos := make(map[string]int, len(postings))
	out := make([]model.Posting, 0, len(postings))
	for _, p := range postings {
		if i, ok := pos[p.URL]; ok {
			out[i] = p
			continue
		}
		pos[p.URL] = len(out)
		out = append(out, p)
	}
	return out
}
