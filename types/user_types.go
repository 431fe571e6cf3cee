package types

import (
	"context"
	"time"
)

type User struct {
	UserID       int64
	ChatID       int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Submission struct {
	ID        string
	UserID    int64
	TableName string
	Worksheet string
	Values    map[string]interface{}
	Status    string
	Error     string
	CreatedAt time.Time
}

type UserStore interface {
	UpsertUser(ctx context.Context, user User) error
}

type JournalStore interface {
	RecordSubmission(ctx context.Context, sub Submission) error
	RecentSubmissions(ctx context.Context, userID int64, limit int) ([]Submission, error)
	PurgeSubmissions(ctx context.Context, before time.Time) (int64, error)
}
