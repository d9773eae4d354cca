package domain

import (
	"strings"
	"time"
)

type WorkType string

const (
	WorkRemote  WorkType = "remote"
	WorkOnsite  WorkType = "onsite"
	WorkHybrid  WorkType = "hybrid"
	WorkUnknown WorkType = ""
)

// AllWorkTypes is the order used when a filter asks for "any".
var AllWorkTypes = []WorkType{WorkRemote, WorkOnsite, WorkHybrid}

// ParseWorkType accepts the spellings used by config files, CLI flags and listing text.
func ParseWorkType(s string) (WorkType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "remote":
		return WorkRemote, true
	case "onsite", "on-site", "on site":
		return WorkOnsite, true
	case "hybrid":
		return WorkHybrid, true
	}
	return WorkUnknown, false
}

// InferWorkType guesses the arrangement from free text such as a listing's location line.
func InferWorkType(text string) WorkType {
	l := strings.ToLower(text)
	switch {
	case strings.Contains(l, "remote"):
		return WorkRemote
	case strings.Contains(l, "hybrid"):
		return WorkHybrid
	case strings.Contains(l, "on-site") || strings.Contains(l, "onsite") || strings.Contains(l, "on site"):
		return WorkOnsite
	default:
		return WorkUnknown
	}
}

type JobPosting struct {
	ID          string
	Title       string
	Company     string
	Location    string
	WorkType    WorkType
	PostedAt    time.Time // zero when only an age bucket was visible
	Age         string    // raw age text, e.g. "3 hours ago"
	SeenAt      time.Time // when Age was read; PostedAt is relative to it
	URL         string
	Description string
}

// AgeAt returns how old the posting is at now, or false when the posting time is unknown.
func (j JobPosting) AgeAt(now time.Time) (time.Duration, bool) {
	if j.PostedAt.IsZero() {
		return 0, false
	}
	return now.Sub(j.PostedAt), true
}
