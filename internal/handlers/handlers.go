package handlers

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/BatmanBruc/bat-bot-sheets/internal/catalog"
	"github.com/BatmanBruc/bat-bot-sheets/internal/collector"
	"github.com/BatmanBruc/bat-bot-sheets/internal/contextkeys"
	"github.com/BatmanBruc/bat-bot-sheets/internal/i18n"
	"github.com/BatmanBruc/bat-bot-sheets/internal/messages"
	"github.com/BatmanBruc/bat-bot-sheets/internal/metrics"
	"github.com/BatmanBruc/bat-bot-sheets/types"
)

// Messenger is the part of the Telegram API the handlers talk to. *bot.Bot
// implements it.
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	EditMessageReplyMarkup(ctx context.Context, params *bot.EditMessageReplyMarkupParams) (*models.Message, error)
}

type CatalogSource interface {
	Catalog() *catalog.Catalog
}

type Deps struct {
	Sessions      types.SessionStore
	Catalog       CatalogSource
	Engine        *collector.Engine
	Appender      types.RowAppender
	Journal       types.JournalStore
	Metrics       *metrics.Metrics
	IsAdmin       func(userID int64) bool
	AppendTimeout time.Duration
	Logger        *zap.Logger
}

type Handlers struct {
	sessions      types.SessionStore
	catalog       CatalogSource
	engine        *collector.Engine
	appender      types.RowAppender
	journal       types.JournalStore
	metrics       *metrics.Metrics
	isAdmin       func(userID int64) bool
	appendTimeout time.Duration
	logger        *zap.Logger
}

func NewHandlers(d Deps) *Handlers {
	h := &Handlers{
		sessions:      d.Sessions,
		catalog:       d.Catalog,
		engine:        d.Engine,
		appender:      d.Appender,
		journal:       d.Journal,
		metrics:       d.Metrics,
		isAdmin:       d.IsAdmin,
		appendTimeout: d.AppendTimeout,
		logger:        d.Logger,
	}
	if h.engine == nil {
		h.engine = collector.New()
	}
	if h.isAdmin == nil {
		h.isAdmin = func(int64) bool { return false }
	}
	if h.appendTimeout <= 0 {
		h.appendTimeout = 20 * time.Second
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

// MainHandler is registered as the bot's default handler, behind the
// middleware chain.
func (bh *Handlers) MainHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	bh.Handle(ctx, b, update)
}

func (bh *Handlers) Handle(ctx context.Context, m Messenger, update *models.Update) {
	chatID := getChatIDFromUpdate(update)
	lang := i18n.Parse(contextkeys.GetLang(ctx))

	session, ok := contextkeys.GetSession(ctx)
	if !ok {
		bh.logger.Error("session not found in context", zap.Int64("chat_id", chatID))
		if chatID != 0 {
			bh.send(ctx, m, chatID, messages.ErrorDefault(lang), nil)
		}
		return
	}
	lang = i18n.Parse(session.Lang)

	messageType, _ := contextkeys.GetMessageType(ctx)
	switch messageType {
	case contextkeys.MessageTypeCommand:
		bh.HandleCommand(ctx, m, update, session, lang)
	case contextkeys.MessageTypeText:
		bh.HandleText(ctx, m, update, session, lang)
	case contextkeys.MessageTypeClickButton:
		bh.HandleClickButton(ctx, m, update, session, lang)
	default:
		if chatID != 0 {
			bh.send(ctx, m, chatID, messages.ErrorUnsupportedMessageType(lang), nil)
		}
	}
}

// allowedTables lists what userID may fill. Admins get every table.
func (bh *Handlers) allowedTables(userID int64) []*types.Table {
	c := bh.catalog.Catalog()
	if c == nil {
		return nil
	}
	return c.AllowedFor(userID, bh.isAdmin(userID))
}

// lookupTable finds key in the current catalog and checks userID may use it.
func (bh *Handlers) lookupTable(key string, userID int64) (*types.Table, bool, bool) {
	c := bh.catalog.Catalog()
	if c == nil {
		return nil, false, false
	}
	t, ok := c.Table(key)
	if !ok {
		return nil, false, false
	}
	return t, true, bh.isAdmin(userID) || t.Access.Allows(userID)
}

func (bh *Handlers) saveSession(ctx context.Context, session *types.Session) {
	if err := bh.sessions.UpdateSession(ctx, session); err != nil {
		bh.logger.Error("saving session failed", zap.Int64("user_id", session.UserID), zap.Error(err))
	}
}

func (bh *Handlers) send(ctx context.Context, m Messenger, chatID int64, text string, markup models.ReplyMarkup) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: messages.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := m.SendMessage(ctx, params); err != nil {
		bh.logger.Warn("send message failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (bh *Handlers) answerCallback(ctx context.Context, m Messenger, callbackID, text string) {
	if callbackID == "" {
		return
	}
	_, err := m.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		bh.logger.Debug("answer callback failed", zap.Error(err))
	}
}

// clearKeyboard removes the buttons from a message once one of them was used.
func (bh *Handlers) clearKeyboard(ctx context.Context, m Messenger, chatID int64, messageID int) {
	if chatID == 0 || messageID == 0 {
		return
	}
	_, _ = m.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      chatID,
		MessageID:   messageID,
		ReplyMarkup: models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{}},
	})
}

func getChatIDFromUpdate(update *models.Update) int64 {
	switch {
	case update == nil:
		return 0
	case update.Message != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil:
		if msg := update.CallbackQuery.Message.Message; msg != nil {
			return msg.Chat.ID
		}
		if msg := update.CallbackQuery.Message.InaccessibleMessage; msg != nil {
			return msg.Chat.ID
		}
	}
	return 0
}
