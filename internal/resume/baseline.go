// Package resume tailors the baseline resume to a posting with a generative model.
package resume

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// Baseline is the operator's untailored resume.
type Baseline struct {
	Path string
	Text string
	Hash string // sha256 of the file bytes
}

// LoadBaseline reads a PDF or plain-text resume.
func LoadBaseline(path string) (Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Baseline{}, fmt.Errorf("read baseline resume: %w", err)
	}
	sum := sha256.Sum256(data)
	b := Baseline{Path: path, Hash: hex.EncodeToString(sum[:])}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		b.Text, err = pdfText(data)
		if err != nil {
			return Baseline{}, fmt.Errorf("parse baseline resume %s: %w", path, err)
		}
	} else {
		b.Text = normalizeWhitespace(string(data))
	}
	if b.Text == "" {
		return Baseline{}, fmt.Errorf("baseline resume %s has no text", path)
	}
	return b, nil
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	rs, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rs); err != nil {
		return "", err
	}
	return normalizeWhitespace(buf.String()), nil
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := lines[:0]
	blank := false
	for _, ln := range lines {
		ln = strings.Join(strings.Fields(ln), " ")
		if ln == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, ln)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
