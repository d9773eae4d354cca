package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"easyapply-engine/internal/domain"
)

func parse(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// modalScope narrows doc to the application modal when one is open.
func modalScope(doc *goquery.Document, sel Selectors) *goquery.Selection {
	if sel.Modal != "" {
		if m := doc.Find(sel.Modal).First(); m.Length() > 0 {
			return m
		}
	}
	return doc.Selection
}

// ParseFields lists the questions in the modal in document order.
func ParseFields(html string, sel Selectors) ([]domain.FormField, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}
	scope := modalScope(doc, sel)
	errSel := strings.Join(sel.ErrorMessages, ", ")

	var out []domain.FormField
	seenID := map[string]bool{}
	n := 0
	scope.Find("fieldset, select, input, textarea").Each(func(_ int, el *goquery.Selection) {
		var f domain.FormField
		var ok bool
		switch goquery.NodeName(el) {
		case "fieldset":
			f, ok = fieldsetField(scope, el)
		case "select":
			f, ok = selectField(scope, el)
		default:
			f, ok = inputField(scope, el)
		}
		if !ok {
			return
		}
		n++
		if f.ID == "" {
			f.ID = fmt.Sprintf("field-%d", n)
		}
		if seenID[f.ID] {
			return
		}
		seenID[f.ID] = true
		if errSel != "" {
			f.Error = fieldError(el, errSel)
		}
		out = append(out, f)
	})
	return out, nil
}

// FindFieldIn returns the field with the given id from a rendered page.
func FindFieldIn(html string, sel Selectors, id string) (domain.FormField, error) {
	fields, err := ParseFields(html, sel)
	if err != nil {
		return domain.FormField{}, err
	}
	for _, f := range fields {
		if f.ID == id {
			return f, nil
		}
	}
	return domain.FormField{}, fmt.Errorf("field %q: %w", id, domain.ErrNotFound)
}

func fieldsetField(scope, fs *goquery.Selection) (domain.FormField, bool) {
	radios := fs.Find("input[type=radio]")
	checks := fs.Find("input[type=checkbox]")
	if radios.Length() == 0 && checks.Length() == 0 {
		return domain.FormField{}, false
	}
	inputs := radios
	kind := domain.KindSingleSelect
	if radios.Length() == 0 {
		inputs = checks
		kind = domain.KindMultiSelect
	}

	f := domain.FormField{
		Kind:  kind,
		Label: labelText(fs.Find("legend").First()),
	}
	f.ID, _ = fs.Attr("id")
	if f.ID == "" {
		f.ID, _ = inputs.First().Attr("name")
	}
	f.Locator = locator(fs)
	if f.Locator == "" {
		f.Locator = locator(inputs.First())
	}

	var checked []string
	inputs.Each(func(_ int, in *goquery.Selection) {
		opt := optionLabel(scope, in)
		f.Options = append(f.Options, opt)
		if _, on := in.Attr("checked"); on {
			checked = append(checked, opt)
		}
	})
	f.Value = strings.Join(checked, ", ")
	f.Required = attrTrue(fs, "aria-required") ||
		fs.Find("[required]").Length() > 0 ||
		fs.Find(".fb-dash-form-element__label-title--is-required").Length() > 0

	if kind == domain.KindSingleSelect && yesNo(f.Options) {
		f.Kind = domain.KindBoolean
	}
	if f.Label == "" && len(f.Options) == 1 {
		f.Label = f.Options[0]
	}
	return f, true
}

func selectField(scope, el *goquery.Selection) (domain.FormField, bool) {
	f := domain.FormField{
		Kind:     domain.KindSingleSelect,
		Label:    labelFor(scope, el),
		Required: requiredAttr(el),
		Locator:  locator(el),
	}
	f.ID = idOf(el)
	el.Find("option").Each(func(_ int, o *goquery.Selection) {
		txt := CleanText(o.Text())
		val, _ := o.Attr("value")
		placeholder := txt == "" || strings.EqualFold(txt, "select an option") ||
			strings.EqualFold(val, "select an option")
		if placeholder {
			return
		}
		f.Options = append(f.Options, txt)
		if _, sel := o.Attr("selected"); sel {
			f.Value = txt
		}
	})
	if yesNo(f.Options) {
		f.Kind = domain.KindBoolean
	}
	return f, true
}

func inputField(scope, el *goquery.Selection) (domain.FormField, bool) {
	typ := strings.ToLower(el.AttrOr("type", "text"))
	if goquery.NodeName(el) == "textarea" {
		typ = "textarea"
	}
	switch typ {
	case "radio", "checkbox":
		// a lone checkbox outside any fieldset is a yes/no consent box
		if typ == "checkbox" && el.Closest("fieldset").Length() == 0 {
			f := domain.FormField{
				ID:       idOf(el),
				Kind:     domain.KindBoolean,
				Label:    optionLabel(scope, el),
				Required: requiredAttr(el),
				Options:  []string{"Yes", "No"},
				Locator:  locator(el),
			}
			if _, on := el.Attr("checked"); on {
				f.Value = "Yes"
			}
			return f, true
		}
		return domain.FormField{}, false
	case "hidden", "submit", "button", "image", "reset", "search":
		return domain.FormField{}, false
	}

	f := domain.FormField{
		ID:       idOf(el),
		Kind:     domain.KindText,
		Label:    labelFor(scope, el),
		Required: requiredAttr(el),
		Locator:  locator(el),
	}
	switch {
	case typ == "file":
		f.Kind = domain.KindFile
		if f.Label == "" {
			f.Label = "Upload resume"
		}
	case typ == "number" || strings.Contains(f.ID, "numeric"):
		f.Kind = domain.KindNumeric
		f.Value = strings.TrimSpace(el.AttrOr("value", ""))
	case typ == "textarea":
		f.Value = strings.TrimSpace(el.Text())
	default:
		f.Value = strings.TrimSpace(el.AttrOr("value", ""))
	}
	return f, true
}

func idOf(el *goquery.Selection) string {
	if id := el.AttrOr("id", ""); id != "" {
		return id
	}
	return el.AttrOr("name", "")
}

// locator is a CSS selector for el usable with document.querySelectorAll.
func locator(el *goquery.Selection) string {
	if id := el.AttrOr("id", ""); id != "" {
		return fmt.Sprintf(`[id="%s"]`, cssQuote(id))
	}
	if name := el.AttrOr("name", ""); name != "" {
		return fmt.Sprintf(`%s[name="%s"]`, goquery.NodeName(el), cssQuote(name))
	}
	return ""
}

func cssQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// labelText prefers the visible span when a label also carries a screen-reader copy.
func labelText(l *goquery.Selection) string {
	if vis := l.Find("span[aria-hidden=true]"); vis.Length() > 0 {
		if t := dedupeLines(vis.Text()); t != "" {
			return t
		}
	}
	return dedupeLines(l.Text())
}

func labelFor(scope, el *goquery.Selection) string {
	if id := el.AttrOr("id", ""); id != "" {
		if l := scope.Find(fmt.Sprintf(`label[for="%s"]`, cssQuote(id))).First(); l.Length() > 0 {
			if t := labelText(l); t != "" {
				return t
			}
		}
	}
	if l := el.Closest("label"); l.Length() > 0 {
		if t := labelText(l); t != "" {
			return t
		}
	}
	if l := el.Parent().Find("label").First(); l.Length() > 0 {
		if t := labelText(l); t != "" {
			return t
		}
	}
	if t := CleanText(el.AttrOr("aria-label", "")); t != "" {
		return t
	}
	return CleanText(el.AttrOr("placeholder", ""))
}

func optionLabel(scope, in *goquery.Selection) string {
	if t := labelFor(scope, in); t != "" {
		return strings.Split(t, "\n")[0]
	}
	return CleanText(in.AttrOr("value", ""))
}

func requiredAttr(el *goquery.Selection) bool {
	_, req := el.Attr("required")
	return req || attrTrue(el, "aria-required")
}

func attrTrue(el *goquery.Selection, name string) bool {
	return strings.EqualFold(el.AttrOr(name, ""), "true")
}

func yesNo(opts []string) bool {
	if len(opts) != 2 {
		return false
	}
	a, b := strings.ToLower(opts[0]), strings.ToLower(opts[1])
	return (a == "yes" && b == "no") || (a == "no" && b == "yes")
}

func fieldError(el *goquery.Selection, errSel string) string {
	container := el.Closest("div.fb-dash-form-element, div[data-test-form-element]")
	if container.Length() == 0 && goquery.NodeName(el) == "fieldset" {
		container = el
	}
	if container.Length() > 0 {
		return CleanText(container.Find(errSel).First().Text())
	}
	for _, id := range strings.Fields(el.AttrOr("aria-describedby", "")) {
		d := el.Closest("html").Find(fmt.Sprintf(`[id="%s"]`, cssQuote(id)))
		if t := CleanText(d.Text()); t != "" && d.Is(errSel) {
			return t
		}
	}
	return ""
}

// ValidationErrorsIn returns distinct inline error messages inside the modal.
func ValidationErrorsIn(html string, sel Selectors) ([]string, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}
	scope := modalScope(doc, sel)
	seen := map[string]bool{}
	var out []string
	scope.Find(strings.Join(sel.ErrorMessages, ", ")).Each(func(_ int, s *goquery.Selection) {
		t := CleanText(s.Text())
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		out = append(out, t)
	})
	return out, nil
}

// DescriptionIn returns the job description text of a job page.
func DescriptionIn(html string, sel Selectors) (string, error) {
	doc, err := parse(html)
	if err != nil {
		return "", err
	}
	for _, s := range sel.Description {
		if t := dedupeLines(doc.Find(s).First().Text()); t != "" {
			return t, nil
		}
	}
	return "", nil
}

// AppliedIn reports whether the job page shows the already-applied marker.
func AppliedIn(html string, sel Selectors) (bool, error) {
	doc, err := parse(html)
	if err != nil {
		return false, err
	}
	for _, m := range sel.AppliedMarkers {
		found := doc.Find(m)
		if found.Length() == 0 {
			continue
		}
		if strings.HasPrefix(m, "#") || strings.Contains(strings.ToLower(found.Text()), "applied") {
			return true, nil
		}
	}
	return false, nil
}

// ParseListings reads job cards from a search results page. Cards that have not rendered yet
// (no title) are skipped.
func ParseListings(html string, sel Selectors, baseURL string, now time.Time) ([]domain.JobPosting, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}
	baseURL = strings.TrimRight(baseURL, "/")

	var out []domain.JobPosting
	seen := map[string]bool{}
	doc.Find(sel.JobCards).Each(func(_ int, card *goquery.Selection) {
		id := card.AttrOr("data-occludable-job-id", card.AttrOr("data-job-id", ""))
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			return
		}

		title := dedupeLines(card.Find("a.job-card-list__title, a.job-card-container__link, .job-card-list__title--link").First().Text())
		title = strings.Split(title, "\n")[0]
		title = strings.TrimSpace(strings.TrimSuffix(title, "with verification"))
		if title == "" {
			return
		}
		seen[id] = true

		j := domain.JobPosting{
			ID:      id,
			Title:   title,
			SeenAt:  now,
			Company: CleanText(card.Find(".artdeco-entity-lockup__subtitle, .job-card-container__primary-description, .job-card-container__company-name").First().Text()),
			URL:     fmt.Sprintf("%s/jobs/view/%s/", baseURL, id),
		}
		j.Location = CleanText(card.Find(".job-card-container__metadata-item, .artdeco-entity-lockup__caption").First().Text())
		j.WorkType = domain.InferWorkType(j.Location)

		tm := card.Find("time").First()
		j.Age = CleanText(tm.Text())
		if at, ok := ParseAge(j.Age, now); ok {
			j.PostedAt = at
		} else if dt := tm.AttrOr("datetime", ""); dt != "" {
			if at, err := time.ParseInLocation("2006-01-02", dt, now.Location()); err == nil {
				j.PostedAt = at
			}
		}
		out = append(out, j)
	})
	return out, nil
}
