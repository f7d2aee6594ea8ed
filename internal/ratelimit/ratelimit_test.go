package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/amishk599/jobbeacon/internal/model"
)

func TestWait_SameHost_EnforcesMinDelay(t *testing.T) {
	limiter := NewSourceRateLimiter(100 * time.Millisecond)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "remotive.com"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "remotive.com"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Allow some timer jitter.
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_DifferentHosts_NoCrossBlocking(t *testing.T) {
	limiter := NewSourceRateLimiter(200 * time.Millisecond)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "remotive.com"); err != nil {
		t.Fatalf("remotive wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "feeds.example.com"); err != nil {
		t.Fatalf("example wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected near-instant wait for another host, got %v", elapsed)
	}
}

func TestWait_ZeroDelayNeverBlocks(t *testing.T) {
	limiter := NewSourceRateLimiter(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := limiter.Wait(ctx, "remotive.com"); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected no waiting, got %v", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewSourceRateLimiter(5 * time.Second)

	if err := limiter.Wait(context.Background(), "remotive.com"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx, "remotive.com"); err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}

type recordingFetcher struct {
	called bool
}

func (f *recordingFetcher) FetchJobs(_ context.Context) ([]model.Posting, error) {
	f.called = true
	return []model.Posting{{URL: "https://example.com/1"}}, nil
}

func TestRateLimitedFetcher_Delegates(t *testing.T) {
	inner := &recordingFetcher{}
	f := NewRateLimitedFetcher(inner, NewSourceRateLimiter(10*time.Millisecond), "https://remotive.com/api/remote-jobs")

	if f.host != "remotive.com" {
		t.Errorf("expected host remotive.com, got %q", f.host)
	}

	postings, err := f.FetchJobs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inner.called {
		t.Error("expected inner fetcher to be called")
	}
	if len(postings) != 1 {
		t.Errorf("expected 1 posting, got %d", len(postings))
	}
}
