package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type RecencyWindow string

const (
	RecencyDay    RecencyWindow = "day"
	RecencyWeek   RecencyWindow = "week"
	RecencyMonth  RecencyWindow = "month"
	RecencyAny    RecencyWindow = "any"
	RecencyCustom RecencyWindow = "custom"
)

// RecencyUnit is the unit applied to a bare numeric recency value.
type RecencyUnit string

const (
	UnitSeconds RecencyUnit = "seconds"
	UnitMinutes RecencyUnit = "minutes"
)

type Recency struct {
	Window RecencyWindow
	Max    time.Duration // zero means unbounded
}

// ParseRecency reads "day", "week", "month", "any" or a positive integer interpreted in unit.
func ParseRecency(s string, unit RecencyUnit) (Recency, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch RecencyWindow(s) {
	case RecencyDay:
		return Recency{Window: RecencyDay, Max: 24 * time.Hour}, nil
	case RecencyWeek:
		return Recency{Window: RecencyWeek, Max: 7 * 24 * time.Hour}, nil
	case RecencyMonth:
		return Recency{Window: RecencyMonth, Max: 30 * 24 * time.Hour}, nil
	case RecencyAny, "":
		return Recency{Window: RecencyAny}, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return Recency{}, fmt.Errorf("recency must be day, week, month, any or a positive number: %q", s)
	}
	var d time.Duration
	switch unit {
	case UnitSeconds, "":
		d = time.Duration(n) * time.Second
	case UnitMinutes:
		d = time.Duration(n) * time.Minute
	default:
		return Recency{}, fmt.Errorf("unknown recency unit %q", unit)
	}
	return Recency{Window: RecencyCustom, Max: d}, nil
}

// Allows reports whether a posting of the given age falls inside the window.
func (r Recency) Allows(age time.Duration) bool {
	if r.Max <= 0 {
		return true
	}
	return age <= r.Max
}

func (r Recency) String() string {
	if r.Window == RecencyCustom {
		return r.Max.String()
	}
	if r.Window == "" {
		return string(RecencyAny)
	}
	return string(r.Window)
}

type JobFilterCriteria struct {
	Keywords        string
	Location        string
	WorkTypes       []WorkType // empty means any
	Recency         Recency
	PredefinedQuery string
	TopPicks        bool
}

// AllowsWorkType reports whether w passes the work-type set. Unknown work types pass,
// the platform filter has already been applied to them.
func (c JobFilterCriteria) AllowsWorkType(w WorkType) bool {
	if len(c.WorkTypes) == 0 || w == WorkUnknown {
		return true
	}
	for _, want := range c.WorkTypes {
		if want == w {
			return true
		}
	}
	return false
}
