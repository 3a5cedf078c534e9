// Package ingest acquires dataroom documents and reduces them to plain text.
// It is a collaborator of the answering core: the core only ever sees the
// flat Document records a Source produces.
package ingest

import (
	"context"
	"errors"
)

// ErrAcquisition wraps any failure to list or download documents from the
// backing store. Rebuilds treat it as fatal and do not retry.
var ErrAcquisition = errors.New("document acquisition failed")

// Document is one acquired file, already reduced to plain text.
type Document struct {
	ID           string
	Name         string
	Content      string
	MimeType     string
	ModifiedTime string
}

// Source lists all documents in the dataroom in one pass.
type Source interface {
	ListDocuments(ctx context.Context) ([]Document, error)
}
