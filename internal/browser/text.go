package browser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// dedupeLines drops repeated lines, which screen-reader-only spans produce in labels.
func dedupeLines(s string) string {
	seen := map[string]bool{}
	var out []string
	for _, ln := range strings.Split(s, "\n") {
		ln = CleanText(ln)
		if ln == "" || seen[ln] {
			continue
		}
		seen[ln] = true
		out = append(out, ln)
	}
	return strings.Join(out, "\n")
}

var reAge = regexp.MustCompile(`(?i)(\d+)\+?\s*(second|minute|hour|day|week|month|year)s?\s+ago`)

// ParseAge turns listing text like "3 hours ago" or "Reposted 2 weeks ago" into a posting time.
func ParseAge(text string, now time.Time) (time.Time, bool) {
	l := strings.ToLower(text)
	if strings.Contains(l, "just now") || strings.Contains(l, "moments ago") {
		return now, true
	}
	m := reAge.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	var unit time.Duration
	switch strings.ToLower(m[2]) {
	case "second":
		unit = time.Second
	case "minute":
		unit = time.Minute
	case "hour":
		unit = time.Hour
	case "day":
		unit = 24 * time.Hour
	case "week":
		unit = 7 * 24 * time.Hour
	case "month":
		unit = 30 * 24 * time.Hour
	case "year":
		unit = 365 * 24 * time.Hour
	}
	return now.Add(-time.Duration(n) * unit), true
}
