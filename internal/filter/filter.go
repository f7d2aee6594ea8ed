package filter

import (
	"strings"

	"github.com/amishk599/jobbeacon/internal/model"
)

// Apply returns the postings matching c, preserving input order.
func Apply(postings []model.Posting, c Criteria) []model.Posting {
	if c.IsEmpty() {
		out := make([]model.Posting, len(postings))
		copy(out, postings)
		return out
	}

	var matched []model.Posting
	for _, p := range postings {
		if Match(p, c) {
			matched = append(matched, p)
		}
	}
	return matched
}

// Match reports whether p satisfies every rule category of c.
func Match(p model.Posting, c Criteria) bool {
	title := strings.ToLower(p.Title)
	desc := strings.ToLower(p.Description)

	return matchKeywords(p, title, desc, c.Keywords) &&
		matchLocation(p, c.Location) &&
		matchLevel(p, title, desc, c.Level) &&
		matchJobType(p, c.JobType)
}

// matchKeywords: any keyword found as a substring of title or description, or
// as an element of tags or skills.
func matchKeywords(p model.Posting, title, desc string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	for _, kw := range keywords {
		if strings.Contains(title, kw) || strings.Contains(desc, kw) {
			return true
		}
		if containsFold(p.Tags, kw) || containsFold(p.Skills, kw) {
			return true
		}
	}
	return false
}

func matchLocation(p model.Posting, location string) bool {
	if location == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Location), location)
}

func matchLevel(p model.Posting, title, desc string, level ExperienceLevel) bool {
	if !level.fresher() {
		return true
	}
	if strings.EqualFold(string(p.JobType), string(model.JobTypeInternship)) {
		return true
	}
	return model.ContainsFresherKeyword(title) || model.ContainsFresherKeyword(desc)
}

func matchJobType(p model.Posting, jobType model.JobType) bool {
	if jobType == "" {
		return true
	}
	return strings.EqualFold(string(p.JobType), string(jobType))
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), want) {
			return true
		}
	}
	return false
}
