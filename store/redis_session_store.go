package store

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/BatmanBruc/bat-bot-sheets/types"
)

// RedisSessionStore keeps one conversation per user. Sessions expire after
// the configured TTL of inactivity; every update pushes the expiry forward.
type RedisSessionStore struct {
	client *RedisClient
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionStore(client *RedisClient, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSessionStore{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *RedisSessionStore) sessionKey(id string) string {
	return s.client.generateKey("session", id)
}

func (s *RedisSessionStore) userKey(userID int64) string {
	return s.client.generateKey("user_session", strconv.FormatInt(userID, 10))
}

func (s *RedisSessionStore) CreateSession(ctx context.Context, session *types.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.State == "" {
		session.State = types.StateIdle
	}

	now := s.now()
	session.CreatedAt = now
	session.UpdatedAt = now
	session.ExpiresAt = now.Add(s.ttl)

	sessionKey := s.sessionKey(session.ID)
	if err := s.client.Set(ctx, sessionKey, session, s.ttl); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.userKey(session.UserID), session.ID, s.ttl); err != nil {
		_ = s.client.Del(ctx, sessionKey)
		return err
	}
	return nil
}

func (s *RedisSessionStore) GetSession(ctx context.Context, sessionID string) (*types.Session, error) {
	var session types.Session
	if err := s.client.Get(ctx, s.sessionKey(sessionID), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *RedisSessionStore) GetUserSession(ctx context.Context, userID int64) (*types.Session, error) {
	var sessionID string
	if err := s.client.Get(ctx, s.userKey(userID), &sessionID); err != nil {
		return nil, err
	}
	return s.GetSession(ctx, sessionID)
}

func (s *RedisSessionStore) UpdateSession(ctx context.Context, session *types.Session) error {
	now := s.now()
	session.UpdatedAt = now
	session.ExpiresAt = now.Add(s.ttl)

	if err := s.client.Set(ctx, s.sessionKey(session.ID), session, s.ttl); err != nil {
		return err
	}
	return s.client.Set(ctx, s.userKey(session.UserID), session.ID, s.ttl)
}

func (s *RedisSessionStore) DeleteSession(ctx context.Context, session *types.Session) error {
	return s.client.Del(ctx, s.sessionKey(session.ID), s.userKey(session.UserID))
}
