package resolver

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"easyapply-engine/internal/domain"
)

// Validate checks v against the field's kind and returns the value to apply.
// Select-like kinds return the matching option text.
func Validate(f domain.FormField, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("empty answer: %w", domain.ErrInvalidAnswerForKind)
	}
	switch f.Kind {
	case domain.KindNumeric:
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return "", fmt.Errorf("%q is not a number: %w", v, domain.ErrInvalidAnswerForKind)
		}
		return v, nil
	case domain.KindBoolean:
		opts := f.Options
		if len(opts) == 0 {
			opts = []string{"Yes", "No"}
		}
		if opt, ok := MatchOption(opts, yesNoWord(v)); ok {
			return opt, nil
		}
		return "", fmt.Errorf("%q is not one of %q: %w", v, opts, domain.ErrInvalidAnswerForKind)
	case domain.KindSingleSelect:
		if opt, ok := MatchOption(f.Options, v); ok {
			return opt, nil
		}
		return "", fmt.Errorf("%q is not one of %q: %w", v, f.Options, domain.ErrInvalidAnswerForKind)
	case domain.KindMultiSelect:
		var picked []string
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			opt, ok := MatchOption(f.Options, part)
			if !ok {
				return "", fmt.Errorf("%q is not one of %q: %w", part, f.Options, domain.ErrInvalidAnswerForKind)
			}
			picked = append(picked, opt)
		}
		if len(picked) == 0 {
			return "", fmt.Errorf("no options picked: %w", domain.ErrInvalidAnswerForKind)
		}
		return strings.Join(picked, ", "), nil
	case domain.KindFile:
		if st, err := os.Stat(v); err != nil || st.IsDir() {
			return "", fmt.Errorf("file %q not readable: %w", v, domain.ErrInvalidAnswerForKind)
		}
		return v, nil
	default:
		return v, nil
	}
}

func yesNoWord(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "y", "1", "yes":
		return "Yes"
	case "false", "n", "0", "no":
		return "No"
	}
	return v
}

var reDigits = regexp.MustCompile(`\d+`)

// MatchOption finds the option v refers to: exact (case-insensitive), then containment,
// then the same digit sequence.
func MatchOption(options []string, v string) (string, bool) {
	want := strings.ToLower(strings.TrimSpace(v))
	if want == "" {
		return "", false
	}
	for _, o := range options {
		if strings.ToLower(strings.TrimSpace(o)) == want {
			return o, true
		}
	}
	for _, o := range options {
		lo := strings.ToLower(o)
		if strings.Contains(lo, want) || (lo != "" && strings.Contains(want, lo)) {
			return o, true
		}
	}
	if d := strings.Join(reDigits.FindAllString(want, -1), ""); d != "" {
		for _, o := range options {
			if strings.Join(reDigits.FindAllString(o, -1), "") == d {
				return o, true
			}
		}
	}
	return "", false
}
