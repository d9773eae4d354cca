package domain

import "strings"

type FieldKind string

const (
	KindText         FieldKind = "text"
	KindSingleSelect FieldKind = "single_select"
	KindMultiSelect  FieldKind = "multi_select"
	KindFile         FieldKind = "file"
	KindNumeric      FieldKind = "numeric"
	KindBoolean      FieldKind = "boolean"
)

// FormField is one question on the current modal page.
type FormField struct {
	ID       string
	Kind     FieldKind
	Label    string
	Required bool
	Options  []string
	Value    string
	Error    string

	// Locator is opaque to everything except the driver that produced the field.
	Locator string
}

func (f FormField) HasOptions() bool {
	return f.Kind == KindSingleSelect || f.Kind == KindMultiSelect || f.Kind == KindBoolean
}

// Signature derives the AnswerRule key for a question label.
// Repeated label lines (screen-reader duplicates) are dropped, then the text is
// lower-cased and whitespace collapsed. With qualify set the kind is prefixed.
func Signature(label string, kind FieldKind, qualify bool) string {
	lines := strings.Split(label, "\n")
	var uniq []string
	seen := map[string]bool{}
	for _, ln := range lines {
		ln = strings.TrimSpace(ln)
		if ln == "" || seen[ln] {
			continue
		}
		seen[ln] = true
		uniq = append(uniq, ln)
	}
	sig := strings.ToLower(strings.Join(strings.Fields(strings.Join(uniq, " ")), " "))
	if sig == "" {
		return ""
	}
	if qualify {
		return string(kind) + ":" + sig
	}
	return sig
}
