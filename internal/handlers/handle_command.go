package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/BatmanBruc/bat-bot-sheets/internal/i18n"
	"github.com/BatmanBruc/bat-bot-sheets/internal/messages"
	"github.com/BatmanBruc/bat-bot-sheets/internal/utils"
	"github.com/BatmanBruc/bat-bot-sheets/types"
)

const recentLimit = 5

// commandName strips the leading slash, any @botname suffix and arguments.
func commandName(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return ""
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd)
}

func (bh *Handlers) HandleCommand(ctx context.Context, m Messenger, update *models.Update, session *types.Session, lang i18n.Lang) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	cmd := commandName(update.Message.Text)

	switch cmd {
	case "myid":
		bh.send(ctx, m, chatID, messages.MyID(lang, session.UserID), nil)
		return
	case "help":
		bh.send(ctx, m, chatID, messages.Help(lang), nil)
		return
	}

	tables := bh.allowedTables(session.UserID)
	if len(tables) == 0 {
		bh.send(ctx, m, chatID, messages.AccessDenied(lang, session.UserID), nil)
		return
	}

	switch cmd {
	case "start":
		session.Reset()
		session.State = types.StateChooseTable
		bh.saveSession(ctx, session)
		bh.send(ctx, m, chatID, messages.ChooseTable(lang), utils.TablesKeyboard(tables))
	case "tables":
		bh.send(ctx, m, chatID, messages.TablesList(lang, tables), utils.TablesKeyboard(tables))
	case "skip":
		bh.skipField(ctx, m, chatID, session, lang)
	case "cancel":
		bh.cancel(ctx, m, chatID, session, lang)
	case "recent":
		bh.sendRecent(ctx, m, chatID, session, lang)
	default:
		// Answers such as paths start with a slash too.
		if session.State == types.StateCollecting {
			bh.answerField(ctx, m, chatID, session, update.Message.Text, lang)
			return
		}
		bh.send(ctx, m, chatID, messages.ErrorUnknownCommand(lang), nil)
	}
}

// cancel drops the session altogether. The next update starts a fresh one.
func (bh *Handlers) cancel(ctx context.Context, m Messenger, chatID int64, session *types.Session, lang i18n.Lang) {
	session.Reset()
	if err := bh.sessions.DeleteSession(ctx, session); err != nil {
		bh.logger.Warn("deleting session failed, keeping it idle", zap.Int64("user_id", session.UserID), zap.Error(err))
		bh.saveSession(ctx, session)
	}
	bh.send(ctx, m, chatID, messages.Cancelled(lang), nil)
}

func (bh *Handlers) sendRecent(ctx context.Context, m Messenger, chatID int64, session *types.Session, lang i18n.Lang) {
	if bh.journal == nil {
		bh.send(ctx, m, chatID, messages.JournalUnavailable(lang), nil)
		return
	}
	subs, err := bh.journal.RecentSubmissions(ctx, session.UserID, recentLimit)
	if err != nil {
		bh.logger.Error("listing recent submissions failed", zap.Int64("user_id", session.UserID), zap.Error(err))
		bh.send(ctx, m, chatID, messages.ErrorDefault(lang), nil)
		return
	}
	bh.send(ctx, m, chatID, messages.RecentSubmissions(lang, subs), nil)
}
