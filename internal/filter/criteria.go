package filter

import (
	"strings"

	"github.com/amishk599/jobbeacon/internal/model"
)

// ExperienceLevel is a normalised experience criterion. The zero value means
// "any level".
type ExperienceLevel string

const (
	LevelAny        ExperienceLevel = ""
	LevelInternship ExperienceLevel = "internship"
	LevelEntry      ExperienceLevel = "entry-level"
	LevelJunior     ExperienceLevel = "junior"
)

// fresher reports whether the level is one of the entry-oriented levels that
// the fresher heuristic applies to. Every other level passes all postings.
func (l ExperienceLevel) fresher() bool {
	switch l {
	case LevelInternship, LevelEntry, LevelJunior:
		return true
	}
	return false
}

// Criteria is a set of optional matching rules. Zero-valued fields never
// exclude a posting.
type Criteria struct {
	Keywords []string // lower-cased, trimmed, non-empty
	Location string   // lower-cased substring
	Level    ExperienceLevel
	JobType  model.JobType // empty means any
}

// IsEmpty reports whether the criteria impose no constraint at all.
func (c Criteria) IsEmpty() bool {
	return len(c.Keywords) == 0 && c.Location == "" && !c.Level.fresher() && c.JobType == ""
}

// ParseCriteria builds Criteria from raw form values. Empty strings and the
// literal "any" (any case) map to an unset field.
func ParseCriteria(keywords, location, experienceLevel, jobType string) Criteria {
	var c Criteria
	for _, kw := range strings.Split(keywords, ",") {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			c.Keywords = append(c.Keywords, kw)
		}
	}
	c.Location = strings.ToLower(strings.TrimSpace(location))
	if lvl := normaliseAny(experienceLevel); lvl != "" {
		c.Level = ExperienceLevel(lvl)
	}
	if jt := normaliseAny(jobType); jt != "" {
		c.JobType = model.JobType(jt)
	}
	return c
}

// FromSavedSearch converts a persisted saved search into Criteria.
func FromSavedSearch(s model.SavedSearch) Criteria {
	return ParseCriteria(s.Keywords, s.Location, s.ExperienceLevel, s.JobType)
}

func normaliseAny(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "any" {
		return ""
	}
	return v
}
