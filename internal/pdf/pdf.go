// Package pdf wraps go-fitz for page counting and page-range extraction.
package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Probe reports PDF page counts and materializes page ranges.
type Probe struct{}

// NewProbe creates a probe.
func NewProbe() *Probe {
	return &Probe{}
}

// PageCount returns the number of pages in the PDF at path.
func (p *Probe) PageCount(path string) (int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	return doc.NumPage(), nil
}

// ExtractRange writes the text of pages [first, last] (1-based inclusive)
// of src to dst. The result is a plain-text sub-document the converter can
// process independently of the original.
func (p *Probe) ExtractRange(src string, first, last int, dst string) error {
	doc, err := fitz.New(src)
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	if first < 1 || last < first || last > total {
		return fmt.Errorf("page range %d-%d out of bounds (document has %d pages)", first, last, total)
	}

	var sb strings.Builder
	for page := first; page <= last; page++ {
		text, err := doc.Text(page - 1)
		if err != nil {
			return fmt.Errorf("extract page %d: %w", page, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	if err := os.WriteFile(dst, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("write sub-document: %w", err)
	}
	return nil
}
