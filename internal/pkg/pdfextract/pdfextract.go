package pdfextract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// ExtractText buffers the whole PDF from r and returns its plain text.
// A PDF with no extractable text yields "" and no error.
func ExtractText(r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read pdf failed: %w", err)
	}
	if len(raw) == 0 {
		return "", nil
	}

	doc, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf failed: %w", err)
	}
	plain, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text failed: %w", err)
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text failed: %w", err)
	}
	return string(text), nil
}
