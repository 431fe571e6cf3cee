package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/BatmanBruc/bat-bot-sheets/internal/contextkeys"
	"github.com/BatmanBruc/bat-bot-sheets/internal/i18n"
	"github.com/BatmanBruc/bat-bot-sheets/internal/messages"
	"github.com/BatmanBruc/bat-bot-sheets/internal/metrics"
	"github.com/BatmanBruc/bat-bot-sheets/store"
	"github.com/BatmanBruc/bat-bot-sheets/types"
)

type Middlewares struct {
	sessions types.SessionStore
	users    types.UserStore
	limiter  *RateLimiter
	locks    *userLocks
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// New wires the middleware chain. users, limiter and m may be nil.
func New(sessions types.SessionStore, users types.UserStore, limiter *RateLimiter, m *metrics.Metrics, logger *zap.Logger) *Middlewares {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middlewares{
		sessions: sessions,
		users:    users,
		limiter:  limiter,
		locks:    newUserLocks(),
		metrics:  m,
		logger:   logger,
	}
}

// Chain returns the middlewares in the order they must run.
func (m *Middlewares) Chain() []bot.Middleware {
	return []bot.Middleware{m.RateLimitMiddleware, m.SerializeMiddleware, m.SessionMiddleware, m.AnalyzeMessageMiddleware}
}

func sender(update *models.Update) (*models.User, int64) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From, update.Message.Chat.ID
	case update.CallbackQuery != nil:
		return &update.CallbackQuery.From, getChatIDFromMaybeInaccessibleMessage(update.CallbackQuery.Message)
	default:
		return nil, 0
	}
}

func getChatIDFromMaybeInaccessibleMessage(m models.MaybeInaccessibleMessage) int64 {
	if m.Message != nil {
		return m.Message.Chat.ID
	}
	if m.InaccessibleMessage != nil {
		return m.InaccessibleMessage.Chat.ID
	}
	return 0
}

func (m *Middlewares) RateLimitMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		from, _ := sender(update)
		if m.limiter != nil && from != nil && !m.limiter.Allow(from.ID) {
			m.metrics.ObserveRateLimited()
			m.logger.Debug("update dropped by rate limiter", zap.Int64("user_id", from.ID))
			return
		}
		next(ctx, b, update)
	}
}

// SerializeMiddleware lets one update per user through at a time. The bot
// runs every update in its own goroutine, and two updates working on copies
// of the same session would both finish the record.
func (m *Middlewares) SerializeMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		from, _ := sender(update)
		if from == nil {
			next(ctx, b, update)
			return
		}
		unlock := m.locks.lock(from.ID)
		defer unlock()
		next(ctx, b, update)
	}
}

// SessionMiddleware loads the user's session, creating a fresh one when none
// exists or the previous one expired.
func (m *Middlewares) SessionMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		from, chatID := sender(update)
		if from == nil || from.ID == 0 || chatID == 0 {
			return
		}
		lang := i18n.FromLanguageCode(from.LanguageCode)

		session, err := m.sessions.GetUserSession(ctx, from.ID)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrNotFound):
			session = &types.Session{
				UserID: from.ID,
				ChatID: chatID,
				State:  types.StateIdle,
				Lang:   string(lang),
			}
			if err := m.sessions.CreateSession(ctx, session); err != nil {
				m.fail(ctx, b, chatID, lang, "creating session", err)
				return
			}
			m.trackUser(ctx, from, chatID)
		default:
			m.fail(ctx, b, chatID, lang, "loading session", err)
			return
		}

		if session.ChatID != chatID {
			session.ChatID = chatID
		}
		if session.Lang == "" {
			session.Lang = string(lang)
		}
		if update.Message != nil && strings.HasPrefix(update.Message.Text, "/start") {
			m.trackUser(ctx, from, chatID)
		}

		ctx = contextkeys.WithSession(ctx, session)
		ctx = contextkeys.WithLang(ctx, session.Lang)
		next(ctx, b, update)
	}
}

func (m *Middlewares) trackUser(ctx context.Context, from *models.User, chatID int64) {
	if m.users == nil {
		return
	}
	err := m.users.UpsertUser(ctx, types.User{
		UserID:       from.ID,
		ChatID:       chatID,
		Username:     from.Username,
		FirstName:    from.FirstName,
		LastName:     from.LastName,
		LanguageCode: from.LanguageCode,
	})
	if err != nil {
		m.logger.Warn("user upsert failed", zap.Int64("user_id", from.ID), zap.Error(err))
	}
}

func (m *Middlewares) fail(ctx context.Context, b *bot.Bot, chatID int64, lang i18n.Lang, action string, err error) {
	m.logger.Error("session middleware: "+action, zap.Int64("chat_id", chatID), zap.Error(err))
	if b == nil {
		return
	}
	_, _ = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      messages.ErrorDefault(lang),
		ParseMode: messages.ParseModeHTML,
	})
}

func (m *Middlewares) AnalyzeMessageMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		msgType := Classify(update)
		m.metrics.ObserveUpdate(string(msgType))

		ctx = contextkeys.WithMessageType(ctx, msgType)
		if msgType == contextkeys.MessageTypeClickButton {
			ctx = contextkeys.WithCallbackData(ctx, update.CallbackQuery.Data)
		}
		next(ctx, b, update)
	}
}

// Classify sorts an update into the kinds the handlers care about.
func Classify(update *models.Update) contextkeys.MessageType {
	if update.CallbackQuery != nil {
		if update.CallbackQuery.Data != "" {
			return contextkeys.MessageTypeClickButton
		}
		return contextkeys.MessageTypeUnknown
	}
	if update.Message == nil {
		return contextkeys.MessageTypeUnknown
	}
	text := strings.TrimSpace(update.Message.Text)
	switch {
	case strings.HasPrefix(text, "/"):
		return contextkeys.MessageTypeCommand
	case text != "":
		return contextkeys.MessageTypeText
	default:
		return contextkeys.MessageTypeUnsupported
	}
}
