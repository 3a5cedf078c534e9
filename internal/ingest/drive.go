package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"dataroom-chatbot/internal/config"
)

// Google Workspace MIME types and their plain-text export formats.
const (
	mimeGoogleDoc    = "application/vnd.google-apps.document"
	mimeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	mimeGoogleSlides = "application/vnd.google-apps.presentation"
	mimeFolder       = "application/vnd.google-apps.folder"

	exportMimeText = "text/plain"
	exportMimeCSV  = "text/csv"
)

// maxFileSize skips anything above 50MB; dataroom decks and reports fit
// comfortably below it.
const maxFileSize = 50 * 1024 * 1024

// DriveSource walks a Google Drive folder tree recursively and turns every
// readable file into a plain-text Document.
type DriveSource struct {
	svc      *drive.Service
	folderID string
}

func NewDriveSource(ctx context.Context, cfg config.DriveConfig) (*DriveSource, error) {
	token, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveReadonlyScope},
	}
	svc, err := drive.NewService(ctx, option.WithTokenSource(oauthCfg.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("create drive service failed: %w", err)
	}

	folderID := cfg.FolderID
	if folderID == "" {
		folderID = "root"
	}
	return &DriveSource{svc: svc, folderID: folderID}, nil
}

// ListDocuments traverses the configured folder and all subfolders. Files
// that fail to download or parse are logged and skipped; only a listing
// failure aborts the whole acquisition.
func (s *DriveSource) ListDocuments(ctx context.Context) ([]Document, error) {
	var docs []Document
	if err := s.walkFolder(ctx, s.folderID, &docs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAcquisition, err)
	}
	log.Printf("drive acquisition finished: %d documents", len(docs))
	return docs, nil
}

func (s *DriveSource) walkFolder(ctx context.Context, folderID string, docs *[]Document) error {
	pageToken := ""
	for {
		list, err := s.svc.Files.List().
			Q(fmt.Sprintf("'%s' in parents and trashed = false", folderID)).
			Fields("nextPageToken, files(id, name, mimeType, size, modifiedTime)").
			PageToken(pageToken).
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("list folder %s failed: %w", folderID, err)
		}

		for _, file := range list.Files {
			if file.MimeType == mimeFolder {
				if err := s.walkFolder(ctx, file.Id, docs); err != nil {
					return err
				}
				continue
			}
			if file.Size > maxFileSize {
				log.Printf("skipping large file %s (%d bytes)", file.Name, file.Size)
				continue
			}

			content, err := s.fetchContent(ctx, file)
			if err != nil {
				log.Printf("skipping file %s: %v", file.Name, err)
				continue
			}
			if content == "" {
				continue
			}
			*docs = append(*docs, Document{
				ID:           file.Id,
				Name:         file.Name,
				Content:      content,
				MimeType:     file.MimeType,
				ModifiedTime: file.ModifiedTime,
			})
		}

		pageToken = list.NextPageToken
		if pageToken == "" {
			return nil
		}
	}
}

func (s *DriveSource) fetchContent(ctx context.Context, file *drive.File) (string, error) {
	switch file.MimeType {
	case mimeGoogleDoc, mimeGoogleSlides:
		return s.export(ctx, file.Id, exportMimeText)
	case mimeGoogleSheet:
		return s.export(ctx, file.Id, exportMimeCSV)
	}

	resp, err := s.svc.Files.Get(file.Id).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	return ExtractText(resp.Body, file.MimeType)
}

func (s *DriveSource) export(ctx context.Context, fileID, mimeType string) (string, error) {
	resp, err := s.svc.Files.Export(fileID, mimeType).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	defer resp.Body.Close()

	return ExtractText(resp.Body, mimeType)
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open drive token file failed: %w", err)
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("decode drive token file failed: %w", err)
	}
	return token, nil
}
