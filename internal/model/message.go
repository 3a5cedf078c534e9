package model

import (
	"encoding/json"
	"time"
)

type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID uint      `gorm:"not null;index" json:"session_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Role      string    `gorm:"size:16;not null;index" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Sources   string    `gorm:"type:text" json:"-"` // JSON array of file names, assistant turns only
	CreatedAt time.Time `json:"created_at"`
}

// SourceNames returns the parsed source list; empty on parse error.
func (m *Message) SourceNames() []string {
	if m.Sources == "" {
		return nil
	}
	var names []string
	_ = json.Unmarshal([]byte(m.Sources), &names)
	return names
}

// SetSources stores the source list as JSON.
func (m *Message) SetSources(names []string) {
	if len(names) == 0 {
		m.Sources = ""
		return
	}
	b, _ := json.Marshal(names)
	m.Sources = string(b)
}
