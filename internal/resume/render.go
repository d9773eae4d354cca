package resume

import (
	"strings"

	"github.com/go-pdf/fpdf"
)

// renderPDF lays out the small Markdown subset the model is asked for on letter pages.
func renderPDF(md, path string) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(7.5, 7.5, 7.5)
	pdf.SetAutoPageBreak(true, 7.5)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, ln := range strings.Split(md, "\n") {
		ln = strings.TrimRight(ln, " \t")
		switch {
		case strings.HasPrefix(ln, "# "):
			pdf.SetFont("Helvetica", "B", 14)
			pdf.MultiCell(0, 6, tr(plain(ln[2:])), "B", "L", false)
			pdf.Ln(1)
		case strings.HasPrefix(ln, "## "), strings.HasPrefix(ln, "### "):
			pdf.Ln(1.5)
			pdf.SetFont("Helvetica", "B", 11)
			pdf.MultiCell(0, 5, tr(plain(strings.TrimLeft(ln, "# "))), "", "L", false)
		case strings.HasPrefix(ln, "- "), strings.HasPrefix(ln, "* "):
			pdf.SetFont("Helvetica", "", 9)
			pdf.SetX(11)
			pdf.MultiCell(0, 4, tr("• "+plain(ln[2:])), "", "L", false)
		case strings.TrimSpace(ln) == "":
			pdf.Ln(1.5)
		default:
			pdf.SetFont("Helvetica", "", 9)
			pdf.MultiCell(0, 4, tr(plain(ln)), "", "L", false)
		}
	}
	return pdf.OutputFileAndClose(path)
}

// plain drops inline emphasis markers.
func plain(s string) string {
	return strings.NewReplacer("**", "", "__", "", "`", "").Replace(strings.TrimSpace(s))
}
