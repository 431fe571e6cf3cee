package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/BatmanBruc/bat-bot-sheets/types"
)

//go:embed migrations/*.sql
var migrations embed.FS

const queryTimeout = 5 * time.Second

// PostgresStore holds the users table and the submission journal.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("store: postgres dsn is empty")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parsing postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: connecting to postgres: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: migrating: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDB(*s.pool.Config().ConnConfig)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

func (s *PostgresStore) UpsertUser(ctx context.Context, user types.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
INSERT INTO users (user_id, chat_id, username, first_name, last_name, language_code)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id) DO UPDATE SET
  chat_id = EXCLUDED.chat_id,
  username = EXCLUDED.username,
  first_name = EXCLUDED.first_name,
  last_name = EXCLUDED.last_name,
  language_code = EXCLUDED.language_code,
  updated_at = NOW();
`, user.UserID, user.ChatID, strings.TrimSpace(user.Username), strings.TrimSpace(user.FirstName),
		strings.TrimSpace(user.LastName), strings.TrimSpace(user.LanguageCode))
	if err != nil {
		return fmt.Errorf("store: upserting user %d: %w", user.UserID, err)
	}
	return nil
}

// RecordSubmission writes one journal entry. The journal is an audit trail
// only, nothing is ever replayed from it.
func (s *PostgresStore) RecordSubmission(ctx context.Context, sub types.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	values, err := json.Marshal(sub.Values)
	if err != nil {
		return fmt.Errorf("store: encoding submission values: %w", err)
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err = s.pool.Exec(ctx, `
INSERT INTO submissions (id, user_id, table_name, worksheet, payload, status, error, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, sub.ID, sub.UserID, sub.TableName, sub.Worksheet, values, sub.Status, sub.Error, sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: recording submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentSubmissions(ctx context.Context, userID int64, limit int) ([]types.Submission, error) {
	if limit <= 0 {
		limit = 10
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := s.pool.Query(ctx, `
SELECT id::text, user_id, table_name, worksheet, payload, status, error, created_at
FROM submissions
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: listing submissions: %w", err)
	}
	defer rows.Close()

	var out []types.Submission
	for rows.Next() {
		var sub types.Submission
		var raw []byte
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.TableName, &sub.Worksheet, &raw, &sub.Status, &sub.Error, &sub.CreatedAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &sub.Values); err != nil {
				return nil, fmt.Errorf("store: decoding submission %s: %w", sub.ID, err)
			}
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// PurgeSubmissions deletes journal entries created before the cutoff and
// reports how many were removed.
func (s *PostgresStore) PurgeSubmissions(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	tag, err := s.pool.Exec(ctx, `DELETE FROM submissions WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("store: purging submissions: %w", err)
	}
	return tag.RowsAffected(), nil
}
