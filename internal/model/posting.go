package model

import (
	"context"
	"strings"
	"time"
)

// JobType is the coarse employment classification of a posting.
type JobType string

const (
	JobTypeFullTime   JobType = "Full-time"
	JobTypePartTime   JobType = "Part-time"
	JobTypeContract   JobType = "Contract"
	JobTypeInternship JobType = "Internship"
)

// Posting is the unified representation of a job listing from any source.
// URL is the dedup key; a stored posting is never mutated.
type Posting struct {
	ID          string    `json:"id"`          // source identifier
	Title       string    `json:"title"`       // job title
	Company     string    `json:"company"`     // company name
	Location    string    `json:"location"`    // candidate-required location
	Tags        []string  `json:"tags"`        // free-form tags
	URL         string    `json:"url"`         // canonical application link
	Skills      []string  `json:"skills"`      // skill list
	PostedAt    time.Time `json:"postedDate"`  // publication timestamp
	Description string    `json:"description"` // plain-text description
	JobType     JobType   `json:"jobType"`     // coarse classification
	Source      string    `json:"source,omitempty"`
}

// FresherKeywords is the vocabulary used to classify postings and criteria as
// entry-level oriented.
var FresherKeywords = []string{
	"intern", "internship", "junior", "entry-level", "graduate", "trainee", "fresher", "final year",
}

// ContainsFresherKeyword reports whether text mentions any fresher keyword
// (case-insensitive substring).
func ContainsFresherKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range FresherKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// JobFetcher fetches postings from one external source.
type JobFetcher interface {
	FetchJobs(ctx context.Context) ([]Posting, error)
}

// JobFilter decides whether a posting is in scope.
type JobFilter interface {
	Match(p Posting) bool
}

// RunSummary counts one ingest-and-notify run.
type RunSummary struct {
	Fetched    int           `json:"fetched"`
	Added      int           `json:"added"`
	Duplicates int           `json:"duplicates"`
	Notified   int           `json:"notified"`
	Failed     int           `json:"failed"`
	StartedAt  time.Time     `json:"startedAt"`
	Duration   time.Duration `json:"duration"`
}
