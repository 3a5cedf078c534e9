package ingest

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// ooxmlArchive builds an in-memory zip with the given part names and bodies.
func ooxmlArchive(t *testing.T, parts map[string]string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return bytes.NewReader(buf.Bytes())
}

func TestExtractTextPlain(t *testing.T) {
	text, err := ExtractText(strings.NewReader("  hello dataroom\n"), "text/plain")

	require.NoError(t, err)
	assert.Equal(t, "hello dataroom", text)
}

func TestExtractTextJSONAndXML(t *testing.T) {
	for _, mime := range []string{"application/json", "application/xml", "text/csv"} {
		text, err := ExtractText(strings.NewReader("content"), mime)
		require.NoError(t, err, mime)
		assert.Equal(t, "content", text, mime)
	}
}

func TestExtractTextUnsupportedType(t *testing.T) {
	text, err := ExtractText(strings.NewReader("binary junk"), "image/png")

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtractTextDocx(t *testing.T) {
	doc := ooxmlArchive(t, map[string]string{
		"word/document.xml": `<?xml version="1.0"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			`<w:p><w:r><w:t>Fund overview</w:t></w:r></w:p>` +
			`<w:p><w:r><w:t>Terms follow.</w:t></w:r></w:p>` +
			`</w:body></w:document>`,
	})

	text, err := ExtractText(doc, mimeDocx)

	require.NoError(t, err)
	assert.Equal(t, "Fund overview\nTerms follow.", text)
}

func TestExtractTextPptxSlideOrder(t *testing.T) {
	slide := func(body string) string {
		return `<?xml version="1.0"?>` +
			`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
			`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` +
			`<a:p><a:r><a:t>` + body + `</a:t></a:r></a:p></p:sld>`
	}
	deck := ooxmlArchive(t, map[string]string{
		"ppt/slides/slide1.xml":  slide("First slide"),
		"ppt/slides/slide2.xml":  slide("Second slide"),
		"ppt/slides/slide10.xml": slide("Tenth slide"),
	})

	text, err := ExtractText(deck, mimePptx)

	require.NoError(t, err)
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	assert.Equal(t, []string{"First slide", "Second slide", "Tenth slide"}, lines)
}

func TestExtractTextXlsx(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Company"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "ARR"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Acme"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 1200000))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	text, err := ExtractText(bytes.NewReader(buf.Bytes()), mimeXlsx)

	require.NoError(t, err)
	assert.Contains(t, text, "Company, ARR")
	assert.Contains(t, text, "Acme, 1200000")
}

func TestExtractTextCorruptDocx(t *testing.T) {
	_, err := ExtractText(strings.NewReader("not a zip"), mimeDocx)

	assert.Error(t, err)
}

func TestExtractTextDropsInvalidUTF8(t *testing.T) {
	raw := append([]byte("valid "), 0xFF, 0xFE)
	raw = append(raw, []byte("tail")...)

	text, err := ExtractText(strings.NewReader(string(raw)), "text/plain")

	require.NoError(t, err)
	assert.Equal(t, "valid tail", text)
}
