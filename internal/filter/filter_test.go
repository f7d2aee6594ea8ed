package filter

import (
	"testing"

	"github.com/amishk599/jobbeacon/internal/model"
)

func posting(title, location string, jobType model.JobType) model.Posting {
	return model.Posting{Title: title, Location: location, JobType: jobType}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name      string
		criteria  Criteria
		posting   model.Posting
		wantMatch bool
	}{
		{
			name:      "keyword in title",
			criteria:  ParseCriteria("react, node", "", "", ""),
			posting:   posting("React Developer", "Remote", model.JobTypeFullTime),
			wantMatch: true,
		},
		{
			name:      "no keyword found",
			criteria:  ParseCriteria("react, node", "", "", ""),
			posting:   posting("DevOps Engineer", "Remote", model.JobTypeFullTime),
			wantMatch: false,
		},
		{
			name:     "keyword equals a tag",
			criteria: ParseCriteria("Go", "", "", ""),
			posting: model.Posting{
				Title: "Backend Engineer", Tags: []string{"go", "postgres"}, JobType: model.JobTypeFullTime,
			},
			wantMatch: true,
		},
		{
			name:     "keyword is only a partial tag",
			criteria: ParseCriteria("post", "", "", ""),
			posting: model.Posting{
				Title: "Backend Engineer", Tags: []string{"postgres"}, JobType: model.JobTypeFullTime,
			},
			wantMatch: false,
		},
		{
			name:     "keyword in description",
			criteria: ParseCriteria("kubernetes", "", "", ""),
			posting: model.Posting{
				Title: "Platform Engineer", Description: "You will run Kubernetes clusters.",
			},
			wantMatch: true,
		},
		{
			name:      "location substring case-insensitive",
			criteria:  ParseCriteria("", "Remote", "", ""),
			posting:   posting("Engineer", "Remote (India)", model.JobTypeFullTime),
			wantMatch: true,
		},
		{
			name:      "location miss",
			criteria:  ParseCriteria("", "Berlin", "", ""),
			posting:   posting("Engineer", "Remote (India)", model.JobTypeFullTime),
			wantMatch: false,
		},
		{
			name:      "internship level matches intern title despite full-time type",
			criteria:  ParseCriteria("", "", "internship", ""),
			posting:   posting("Software Engineering Intern", "Remote", model.JobTypeFullTime),
			wantMatch: true,
		},
		{
			name:      "junior level matches internship job type",
			criteria:  ParseCriteria("", "", "junior", ""),
			posting:   posting("Data Analyst", "Remote", model.JobTypeInternship),
			wantMatch: true,
		},
		{
			name:      "entry-level rejects senior posting",
			criteria:  ParseCriteria("", "", "entry-level", ""),
			posting:   posting("Senior Staff Engineer", "Remote", model.JobTypeFullTime),
			wantMatch: false,
		},
		{
			name:      "senior level passes everything",
			criteria:  ParseCriteria("", "", "senior", ""),
			posting:   posting("Software Engineering Intern", "Remote", model.JobTypeFullTime),
			wantMatch: true,
		},
		{
			name:      "job type mismatch",
			criteria:  ParseCriteria("", "", "", "Contract"),
			posting:   posting("Engineer", "Remote", model.JobTypeFullTime),
			wantMatch: false,
		},
		{
			name:      "job type case-insensitive",
			criteria:  ParseCriteria("", "", "", "part-time"),
			posting:   posting("Engineer", "Remote", model.JobTypePartTime),
			wantMatch: true,
		},
		{
			name:      "any sentinels impose nothing",
			criteria:  ParseCriteria(" , ", "", "ANY", "any"),
			posting:   posting("Anything", "Anywhere", model.JobTypeContract),
			wantMatch: true,
		},
		{
			name:      "all rules must hold",
			criteria:  ParseCriteria("react", "india", "", "Contract"),
			posting:   posting("React Developer", "India", model.JobTypeFullTime),
			wantMatch: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(tt.posting, tt.criteria)
			if got != tt.wantMatch {
				t.Errorf("Match() = %v, want %v", got, tt.wantMatch)
			}
		})
	}
}

func TestApply_PreservesOrder(t *testing.T) {
	postings := []model.Posting{
		posting("React Developer", "Remote", model.JobTypeFullTime),
		posting("DevOps Engineer", "Remote", model.JobTypeFullTime),
		posting("Node.js Engineer", "Remote", model.JobTypeFullTime),
	}

	got := Apply(postings, ParseCriteria("react, node", "", "", ""))
	if len(got) != 2 {
		t.Fatalf("Apply() returned %d postings, want 2", len(got))
	}
	if got[0].Title != "React Developer" || got[1].Title != "Node.js Engineer" {
		t.Errorf("unexpected order: %q, %q", got[0].Title, got[1].Title)
	}
}

func TestApply_EmptyCriteriaReturnsCopy(t *testing.T) {
	postings := []model.Posting{posting("A", "X", model.JobTypeFullTime)}
	got := Apply(postings, Criteria{})
	if len(got) != 1 {
		t.Fatalf("Apply() returned %d postings, want 1", len(got))
	}
	got[0].Title = "mutated"
	if postings[0].Title != "A" {
		t.Error("Apply() with empty criteria must not alias the input slice")
	}
}

func TestParseCriteria(t *testing.T) {
	c := ParseCriteria(" React ,, NODE ", "  Remote ", "Junior", "Any")
	if len(c.Keywords) != 2 || c.Keywords[0] != "react" || c.Keywords[1] != "node" {
		t.Errorf("Keywords = %v, want [react node]", c.Keywords)
	}
	if c.Location != "remote" {
		t.Errorf("Location = %q, want remote", c.Location)
	}
	if c.Level != LevelJunior {
		t.Errorf("Level = %q, want junior", c.Level)
	}
	if c.JobType != "" {
		t.Errorf("JobType = %q, want empty", c.JobType)
	}
}

func TestAudienceFilter_Match(t *testing.T) {
	tests := []struct {
		name      string
		regions   []string
		posting   model.Posting
		wantMatch bool
	}{
		{
			name:      "region in location",
			regions:   []string{"India"},
			posting:   posting("Senior Engineer", "Remote (India)", model.JobTypeFullTime),
			wantMatch: true,
		},
		{
			name:      "fresher title outside region",
			regions:   []string{"india"},
			posting:   posting("Graduate Software Engineer", "USA", model.JobTypeFullTime),
			wantMatch: true,
		},
		{
			name:      "neither region nor fresher",
			regions:   []string{"india"},
			posting:   posting("Staff Engineer", "Europe", model.JobTypeFullTime),
			wantMatch: false,
		},
		{
			name:      "no regions keeps fresher titles only",
			regions:   nil,
			posting:   posting("Trainee Developer", "Anywhere", model.JobTypeFullTime),
			wantMatch: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewAudienceFilter(tt.regions)
			if got := f.Match(tt.posting); got != tt.wantMatch {
				t.Errorf("Match() = %v, want %v", got, tt.wantMatch)
			}
		})
	}
}
