package model

import "time"

// Document is the catalog record of one indexed dataroom file. Rewritten in
// full on every successful index rebuild; the chunks themselves live in the
// index snapshot, not here.
type Document struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FileID       string    `gorm:"size:128;not null;uniqueIndex" json:"file_id"`
	Name         string    `gorm:"size:256;not null" json:"name"`
	MimeType     string    `gorm:"size:128" json:"mime_type"`
	ModifiedTime string    `gorm:"size:64" json:"modified_time"`
	ChunkCount   int       `gorm:"not null" json:"chunk_count"`
	CreatedAt    time.Time `json:"created_at"`
}
