package types

import (
	"context"
	"time"
)

type Session struct {
	ID          string                 `json:"id"`
	UserID      int64                  `json:"user_id"`
	ChatID      int64                  `json:"chat_id"`
	State       ChatState              `json:"state"`
	Lang        string                 `json:"lang,omitempty"`
	TableKey    string                 `json:"table_key,omitempty"`
	Worksheet   string                 `json:"worksheet,omitempty"`
	FieldIndex  int                    `json:"field_index"`
	Fingerprint string                 `json:"fingerprint,omitempty"` // field layout the record was started with
	Values      map[string]interface{} `json:"values,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ExpiresAt   time.Time              `json:"expires_at"`
}

// Reset drops everything collected so far and returns the session to idle.
func (s *Session) Reset() {
	s.State = StateIdle
	s.TableKey = ""
	s.Worksheet = ""
	s.FieldIndex = 0
	s.Fingerprint = ""
	s.Values = nil
}

type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	GetUserSession(ctx context.Context, userID int64) (*Session, error)
	UpdateSession(ctx context.Context, session *Session) error
	DeleteSession(ctx context.Context, session *Session) error
}

// RowAppender is the remote spreadsheet. One call appends one complete row.
type RowAppender interface {
	AppendRow(ctx context.Context, spreadsheetID, worksheet string, row []interface{}) error
}

type HeaderReader interface {
	ReadHeader(ctx context.Context, spreadsheetID, worksheet string) ([]string, error)
}
