package filter

import (
	"strings"

	"github.com/amishk599/jobbeacon/internal/model"
)

// Ensure AudienceFilter implements model.JobFilter.
var _ model.JobFilter = (*AudienceFilter)(nil)

// AudienceFilter scopes ingestion to the target audience: a posting is kept
// when its location mentions any target region or its title contains a
// fresher keyword. Matching is case-insensitive. An empty region list keeps
// only fresher-titled postings.
type AudienceFilter struct {
	regions []string
}

// NewAudienceFilter returns a filter for the given target regions.
func NewAudienceFilter(regions []string) *AudienceFilter {
	lower := make([]string, 0, len(regions))
	for _, r := range regions {
		r = strings.ToLower(strings.TrimSpace(r))
		if r != "" {
			lower = append(lower, r)
		}
	}
	return &AudienceFilter{regions: lower}
}

// Match returns true if the location mentions a region or the title looks
// entry-level.
func (f *AudienceFilter) Match(p model.Posting) bool {
	locationLower := strings.ToLower(p.Location)
	for _, r := range f.regions {
		if strings.Contains(locationLower, r) {
			return true
		}
	}
	return model.ContainsFresherKeyword(p.Title)
}
