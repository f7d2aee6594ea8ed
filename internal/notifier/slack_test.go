package notifier

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/jobbeacon/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleSummary() model.RunSummary {
	return model.RunSummary{
		Fetched:    40,
		Added:      3,
		Duplicates: 12,
		Notified:   2,
		Failed:     1,
		StartedAt:  time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		Duration:   1500 * time.Millisecond,
	}
}

func TestSlackReporter_PayloadFormat(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewSlackReporter(srv.URL, srv.Client(), discardLogger())
	if err := r.Report(context.Background(), sampleSummary()); err != nil {
		t.Fatalf("Report() = %v, want nil", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(payload.Blocks) != 5 {
		t.Fatalf("expected 5 blocks, got %d", len(payload.Blocks))
	}
	if got := payload.Blocks[0].Text.Text; got != "🚀 JobBeacon run: 3 new posting(s)" {
		t.Errorf("header text = %q", got)
	}
	if got := payload.Blocks[1].Fields[0].Text; got != "*Fetched:*\n40" {
		t.Errorf("fetched field = %q", got)
	}
	if got := payload.Blocks[2].Fields[1].Text; got != "*Failed:*\n1" {
		t.Errorf("failed field = %q", got)
	}
	if payload.Blocks[4].Type != "divider" {
		t.Errorf("last block type = %q, want divider", payload.Blocks[4].Type)
	}
}

func TestSlackReporter_NoNewPostingsHeadline(t *testing.T) {
	p := buildSummaryPayload(model.RunSummary{})
	if got := p.Blocks[0].Text.Text; got != "📭 JobBeacon run: no new postings" {
		t.Errorf("header text = %q", got)
	}
}

func TestSlackReporter_SlackReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewSlackReporter(srv.URL, srv.Client(), discardLogger())
	if err := r.Report(context.Background(), sampleSummary()); err == nil {
		t.Error("expected error for HTTP 500, got nil")
	}
}

func TestSlackReporter_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewSlackReporter(srv.URL, srv.Client(), discardLogger())
	if err := r.Report(context.Background(), sampleSummary()); err != nil {
		t.Fatalf("expected nil after retry, got %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls (initial + retry), got %d", c)
	}
}
