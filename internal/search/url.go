package search

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"easyapply-engine/internal/domain"
)

// PageSize is the number of cards per results page.
const PageSize = 25

var workTypeParam = map[domain.WorkType]string{
	domain.WorkOnsite: "1",
	domain.WorkRemote: "2",
	domain.WorkHybrid: "3",
}

// RecencyParam renders the f_TPR value: "r<seconds>", or "" for any time.
func RecencyParam(r domain.Recency) string {
	if r.Max <= 0 {
		return ""
	}
	return "r" + strconv.FormatInt(int64(r.Max.Seconds()), 10)
}

// BuildSearchURL returns the Easy Apply results URL for page (0-based).
// query overrides crit.Keywords when set.
func BuildSearchURL(base string, crit domain.JobFilterCriteria, query string, page int) string {
	base = strings.TrimRight(base, "/")
	keywords := crit.Keywords
	if query != "" {
		keywords = query
	}

	q := url.Values{}
	q.Set("keywords", keywords)
	if loc := strings.TrimSpace(crit.Location); loc != "" && !strings.EqualFold(loc, "remote") {
		q.Set("location", loc)
	}
	q.Set("f_AL", "true")
	if tpr := RecencyParam(crit.Recency); tpr != "" {
		q.Set("f_TPR", tpr)
	}
	if wt := workTypesParam(crit.WorkTypes); wt != "" {
		q.Set("f_WT", wt)
	}
	if page > 0 {
		q.Set("start", strconv.Itoa(page*PageSize))
	}
	q.Set("refresh", "true")
	return base + "/jobs/search/?" + q.Encode()
}

func workTypesParam(ws []domain.WorkType) string {
	var codes []string
	seen := map[string]bool{}
	for _, w := range ws {
		c, ok := workTypeParam[w]
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return strings.Join(codes, ",")
}

// TopPicksURL is the recommended-jobs collection.
func TopPicksURL(base string, page int) string {
	base = strings.TrimRight(base, "/")
	u := base + "/jobs/collections/recommended/"
	if page > 0 {
		u += fmt.Sprintf("?start=%d", page*PageSize)
	}
	return u
}

// CanonicalJobURL strips tracking parameters so the same posting always has one URL.
func CanonicalJobURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	keep := url.Values{}
	if v := q.Get("currentJobId"); v != "" {
		keep.Set("currentJobId", v)
	}
	u.RawQuery = keep.Encode()
	return u.String()
}
