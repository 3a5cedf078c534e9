package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Uploaded Office document MIME types.
const (
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePptx = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	mimeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// extractDocx pulls the paragraph text out of the main document part, one
// line per paragraph.
func extractDocx(data []byte) (string, error) {
	return extractOOXMLText(data, func(name string) bool {
		return name == "word/document.xml"
	})
}

// extractPptx pulls the text runs of every slide, in slide order.
func extractPptx(data []byte) (string, error) {
	return extractOOXMLText(data, func(name string) bool {
		return strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml")
	})
}

// extractXlsx renders every sheet as comma-separated rows.
func extractXlsx(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open xlsx failed: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read xlsx sheet %s failed: %w", sheet, err)
		}
		for _, row := range rows {
			sb.WriteString(strings.Join(row, ", "))
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// extractOOXMLText walks the selected XML parts of an OOXML archive and
// collects the character data of every text run element (<w:t> in
// WordprocessingML, <a:t> in DrawingML). Paragraph and line-break closes
// become newlines so chunking sees the document's structure.
func extractOOXMLText(data []byte, wantPart func(string) bool) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open ooxml archive failed: %w", err)
	}

	var parts []*zip.File
	for _, f := range zr.File {
		if wantPart(f.Name) {
			parts = append(parts, f)
		}
	}
	// Shorter names first so slide2 sorts before slide10.
	sort.Slice(parts, func(i, j int) bool {
		if len(parts[i].Name) != len(parts[j].Name) {
			return len(parts[i].Name) < len(parts[j].Name)
		}
		return parts[i].Name < parts[j].Name
	})

	var sb strings.Builder
	for _, part := range parts {
		if err := appendPartText(&sb, part); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

func appendPartText(sb *strings.Builder, part *zip.File) error {
	rc, err := part.Open()
	if err != nil {
		return fmt.Errorf("open ooxml part %s failed: %w", part.Name, err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	inRun := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("parse ooxml part %s failed: %w", part.Name, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inRun++
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				if inRun > 0 {
					inRun--
				}
			case "p", "br":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inRun > 0 {
				sb.Write(t)
			}
		}
	}
	sb.WriteString("\n")
	return nil
}
