package middleware

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BatmanBruc/bat-bot-sheets/internal/contextkeys"
	"github.com/BatmanBruc/bat-bot-sheets/internal/metrics"
	"github.com/BatmanBruc/bat-bot-sheets/store"
	"github.com/BatmanBruc/bat-bot-sheets/types"
)

type fakeSessions struct {
	mu      sync.Mutex
	byUser  map[int64]*types.Session
	getErr  error
	created int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byUser: map[int64]*types.Session{}}
}

func (f *fakeSessions) CreateSession(_ context.Context, s *types.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = "sess"
	f.byUser[s.UserID] = s
	f.created++
	return nil
}

func (f *fakeSessions) GetUserSession(_ context.Context, userID int64) (*types.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.byUser[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessions) UpdateSession(_ context.Context, s *types.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byUser[s.UserID] = s
	return nil
}

func (f *fakeSessions) DeleteSession(_ context.Context, s *types.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byUser, s.UserID)
	return nil
}

type fakeUsers struct {
	upserts []types.User
}

func (f *fakeUsers) UpsertUser(_ context.Context, u types.User) error {
	f.upserts = append(f.upserts, u)
	return nil
}

func textUpdate(userID int64, text string) *models.Update {
	return &models.Update{Message: &models.Message{
		From: &models.User{ID: userID, LanguageCode: "ar", Username: "u"},
		Chat: models.Chat{ID: userID * 10},
		Text: text,
	}}
}

func callbackUpdate(userID int64, data string) *models.Update {
	return &models.Update{CallbackQuery: &models.CallbackQuery{
		ID:   "cb",
		From: models.User{ID: userID},
		Data: data,
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{ID: 5, Chat: models.Chat{ID: userID * 10}},
		},
	}}
}

type captured struct {
	calls   int
	session *types.Session
	kind    contextkeys.MessageType
	data    string
	lang    string
}

func (c *captured) handler() bot.HandlerFunc {
	return func(ctx context.Context, _ *bot.Bot, _ *models.Update) {
		c.calls++
		c.session, _ = contextkeys.GetSession(ctx)
		c.kind, _ = contextkeys.GetMessageType(ctx)
		c.data, _ = contextkeys.GetCallbackData(ctx)
		c.lang = contextkeys.GetLang(ctx)
	}
}

func chain(m *Middlewares, h bot.HandlerFunc) bot.HandlerFunc {
	mws := m.Chain()
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func TestSessionMiddleware_CreatesAndReuses(t *testing.T) {
	sessions := newFakeSessions()
	users := &fakeUsers{}
	m := New(sessions, users, nil, metrics.New(), zap.NewNop())
	var c captured
	h := chain(m, c.handler())

	h(context.Background(), nil, textUpdate(7, "hello"))
	require.Equal(t, 1, c.calls)
	require.NotNil(t, c.session)
	assert.Equal(t, int64(7), c.session.UserID)
	assert.Equal(t, int64(70), c.session.ChatID)
	assert.Equal(t, types.StateIdle, c.session.State)
	assert.Equal(t, "ar", c.lang)
	assert.Equal(t, contextkeys.MessageTypeText, c.kind)
	assert.Len(t, users.upserts, 1)

	h(context.Background(), nil, textUpdate(7, "/start"))
	assert.Equal(t, 1, sessions.created)
	assert.Equal(t, contextkeys.MessageTypeCommand, c.kind)
	assert.Len(t, users.upserts, 2)
}

func TestSessionMiddleware_StoreErrorStops(t *testing.T) {
	sessions := newFakeSessions()
	sessions.getErr = errors.New("redis down")
	m := New(sessions, nil, nil, nil, nil)
	var c captured

	chain(m, c.handler())(context.Background(), nil, textUpdate(7, "hello"))
	assert.Equal(t, 0, c.calls)
	assert.Equal(t, 0, sessions.created)
}

func TestAnalyze_Callback(t *testing.T) {
	m := New(newFakeSessions(), nil, nil, nil, nil)
	var c captured

	chain(m, c.handler())(context.Background(), nil, callbackUpdate(3, "table_for_abc"))
	require.Equal(t, 1, c.calls)
	assert.Equal(t, contextkeys.MessageTypeClickButton, c.kind)
	assert.Equal(t, "table_for_abc", c.data)
	assert.Equal(t, int64(30), c.session.ChatID)
}

func TestClassify(t *testing.T) {
	photo := &models.Update{Message: &models.Message{Photo: []models.PhotoSize{{FileID: "x"}}}}
	tests := []struct {
		name   string
		update *models.Update
		want   contextkeys.MessageType
	}{
		{"command", textUpdate(1, "/skip"), contextkeys.MessageTypeCommand},
		{"text", textUpdate(1, " 12,5 "), contextkeys.MessageTypeText},
		{"photo", photo, contextkeys.MessageTypeUnsupported},
		{"button", callbackUpdate(1, "cancel"), contextkeys.MessageTypeClickButton},
		{"empty", &models.Update{}, contextkeys.MessageTypeUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.update))
		})
	}
}

func TestRateLimitMiddleware_Drops(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	m := New(newFakeSessions(), nil, limiter, metrics.New(), nil)
	var c captured
	h := chain(m, c.handler())

	for i := 0; i < 5; i++ {
		h(context.Background(), nil, textUpdate(9, "x"))
	}
	assert.Equal(t, 2, c.calls)

	h(context.Background(), nil, textUpdate(10, "x"))
	assert.Equal(t, 3, c.calls, "limits are per user")

	now = now.Add(time.Second)
	h(context.Background(), nil, textUpdate(9, "x"))
	assert.Equal(t, 4, c.calls)
}

func TestRateLimiter_Sweep(t *testing.T) {
	limiter := NewRateLimiter(5, 5)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow(1)
	now = now.Add(time.Hour)
	limiter.Allow(2)

	assert.Equal(t, 1, limiter.Sweep(30*time.Minute))
	assert.Equal(t, 1, limiter.Len())
}

func TestRateLimiter_Unlimited(t *testing.T) {
	limiter := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, limiter.Allow(1))
	}
}

func TestSerializeMiddleware_OneUpdatePerUserAtATime(t *testing.T) {
	sessions := newFakeSessions()
	sessions.byUser[4] = &types.Session{ID: "s4", UserID: 4, ChatID: 40, State: types.StateCollecting, Lang: "en"}
	m := New(sessions, nil, nil, nil, nil)

	var finished atomic.Int32
	finish := func(ctx context.Context, _ *bot.Bot, _ *models.Update) {
		s, ok := contextkeys.GetSession(ctx)
		if !ok || s.State != types.StateCollecting {
			return
		}
		time.Sleep(20 * time.Millisecond)
		finished.Add(1)
		s.Reset()
		_ = sessions.UpdateSession(ctx, s)
	}
	h := chain(m, finish)

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			h(context.Background(), nil, callbackUpdate(4, "skip_field"))
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), finished.Load())
	assert.Equal(t, 0, m.locks.len())
}

func TestUserLocks_IndependentUsers(t *testing.T) {
	locks := newUserLocks()
	release1 := locks.lock(1)

	done := make(chan struct{})
	go func() {
		release2 := locks.lock(2)
		release2()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("user 2 blocked by user 1")
	}

	assert.Equal(t, 1, locks.len())
	release1()
	assert.Equal(t, 0, locks.len())
}
