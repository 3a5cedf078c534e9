package ingest

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"dataroom-chatbot/internal/pkg/pdfextract"
)

// ExtractText reduces a downloaded file body to plain text based on its MIME
// type. Unsupported types yield "" and no error, so callers just skip them.
func ExtractText(r io.Reader, mimeType string) (string, error) {
	switch {
	case mimeType == "application/pdf":
		text, err := pdfextract.ExtractText(r)
		if err != nil {
			return "", fmt.Errorf("extract pdf text failed: %w", err)
		}
		return strings.TrimSpace(text), nil

	case mimeType == mimeDocx:
		raw, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read file body failed: %w", err)
		}
		text, err := extractDocx(raw)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(text), nil

	case mimeType == mimePptx:
		raw, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read file body failed: %w", err)
		}
		text, err := extractPptx(raw)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(text), nil

	case mimeType == mimeXlsx:
		raw, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read file body failed: %w", err)
		}
		text, err := extractXlsx(raw)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(text), nil

	case strings.HasPrefix(mimeType, "text/"),
		mimeType == "application/json",
		mimeType == "application/xml":
		raw, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read file body failed: %w", err)
		}
		return strings.TrimSpace(sanitizeUTF8(raw)), nil

	default:
		return "", nil
	}
}

// sanitizeUTF8 drops invalid byte sequences instead of failing the file.
func sanitizeUTF8(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	return strings.ToValidUTF8(string(raw), "")
}
