package handlers

import (
	"context"

	"github.com/go-telegram/bot/models"

	"github.com/BatmanBruc/bat-bot-sheets/internal/i18n"
	"github.com/BatmanBruc/bat-bot-sheets/internal/messages"
	"github.com/BatmanBruc/bat-bot-sheets/types"
)

func (bh *Handlers) HandleText(ctx context.Context, m Messenger, update *models.Update, session *types.Session, lang i18n.Lang) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if len(bh.allowedTables(session.UserID)) == 0 {
		bh.send(ctx, m, chatID, messages.AccessDenied(lang, session.UserID), nil)
		return
	}

	switch session.State {
	case types.StateCollecting:
		bh.answerField(ctx, m, chatID, session, update.Message.Text, lang)
	case types.StateChooseTable, types.StateChooseWorksheet:
		bh.send(ctx, m, chatID, messages.ChooseFromButtons(lang), nil)
	default:
		bh.send(ctx, m, chatID, messages.NotCollecting(lang), nil)
	}
}
