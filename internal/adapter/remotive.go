package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/jobbeacon/internal/cache"
	"github.com/amishk599/jobbeacon/internal/model"
)

// DefaultRemotiveURL is the public Remotive remote-jobs feed.
const DefaultRemotiveURL = "https://remotive.com/api/remote-jobs"

// RemotiveRecord is one job in a Remotive-shaped feed.
type RemotiveRecord struct {
	ID                        json.RawMessage `json:"id"`
	Title                     string          `json:"title"`
	CompanyName               string          `json:"company_name"`
	CandidateRequiredLocation string          `json:"candidate_required_location"`
	Tags                      []string        `json:"tags"`
	URL                       string          `json:"url"`
	PublicationDate           string          `json:"publication_date"`
	Description               string          `json:"description"`
	JobType                   string          `json:"job_type"`
}

type remotiveResponse struct {
	Jobs []RemotiveRecord `json:"jobs"`
}

// RemotiveAdapter fetches postings from one Remotive-shaped JSON feed. Origin
// bodies are kept in the response cache so runs inside the TTL reuse them.
type RemotiveAdapter struct {
	name   string
	url    string
	client *http.Client
	cache  cache.ResponseCache
	logger *slog.Logger
}

// NewRemotiveAdapter creates an adapter for the feed at url. rc may be nil to
// disable caching.
func NewRemotiveAdapter(name, url string, client *http.Client, rc cache.ResponseCache, logger *slog.Logger) *RemotiveAdapter {
	return &RemotiveAdapter{
		name:   name,
		url:    url,
		client: client,
		cache:  rc,
		logger: logger,
	}
}

// Name returns the configured source name.
func (a *RemotiveAdapter) Name() string { return a.name }

// URL returns the feed URL.
func (a *RemotiveAdapter) URL() string { return a.url }

// FetchJobs retrieves the feed and normalizes every record.
func (a *RemotiveAdapter) FetchJobs(ctx context.Context) ([]model.Posting, error) {
	body, err := a.fetchBody(ctx)
	if err != nil {
		return nil, err
	}

	var resp remotiveResponse
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&resp); err != nil {
		return nil, fmt.Errorf("remotive fetch for %s: decoding response: %w", a.name, err)
	}

	postings := make([]model.Posting, 0, len(resp.Jobs))
	for _, rec := range resp.Jobs {
		postings = append(postings, Normalize(rec, a.name))
	}
	return postings, nil
}

func (a *RemotiveAdapter) fetchBody(ctx context.Context) ([]byte, error) {
	if a.cache != nil {
		if body, ok := a.cache.Get(ctx, a.url); ok {
			a.logger.Debug("serving cached response", "source", a.name)
			return body, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return nil, fmt.Errorf("remotive fetch for %s: %w", a.name, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remotive fetch for %s: %w", a.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("remotive fetch for %s: unexpected status %d", a.name, resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remotive fetch for %s: reading body: %w", a.name, err)
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, a.url, body); err != nil {
			a.logger.Warn("caching response failed", "source", a.name, "error", err)
		}
	}
	return body, nil
}

// Normalize maps a feed record onto a Posting.
func Normalize(rec RemotiveRecord, source string) model.Posting {
	location := rec.CandidateRequiredLocation
	if location == "" {
		location = "Remote"
	}
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	skills := make([]string, len(tags))
	copy(skills, tags)

	return model.Posting{
		ID:          recordID(rec.ID),
		Title:       rec.Title,
		Company:     rec.CompanyName,
		Location:    location,
		Tags:        tags,
		URL:         rec.URL,
		Skills:      skills,
		PostedAt:    parsePublicationDate(rec.PublicationDate),
		Description: htmlToText(rec.Description),
		JobType:     deriveJobType(rec.JobType),
		Source:      source,
	}
}

// recordID renders a numeric or string id as a plain string.
func recordID(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "null" {
		return ""
	}
	return strings.Trim(s, `"`)
}

func deriveJobType(raw string) model.JobType {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "full"):
		return model.JobTypeFullTime
	case strings.Contains(lower, "part"):
		return model.JobTypePartTime
	case strings.Contains(lower, "contract"):
		return model.JobTypeContract
	default:
		return model.JobTypeFullTime
	}
}

// Feeds publish either RFC 3339 or a zone-less timestamp (read as UTC).
var publicationLayouts = []string{time.RFC3339, "2006-01-02T15:04:05"}

func parsePublicationDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range publicationLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
