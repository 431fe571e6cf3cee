package handlers

import (
	"context"

	"github.com/go-telegram/bot/models"

	"github.com/BatmanBruc/bat-bot-sheets/internal/contextkeys"
	"github.com/BatmanBruc/bat-bot-sheets/internal/i18n"
	"github.com/BatmanBruc/bat-bot-sheets/internal/messages"
	"github.com/BatmanBruc/bat-bot-sheets/internal/utils"
	"github.com/BatmanBruc/bat-bot-sheets/types"
)

func (bh *Handlers) HandleClickButton(ctx context.Context, m Messenger, update *models.Update, session *types.Session, lang i18n.Lang) {
	if update.CallbackQuery == nil {
		return
	}
	cq := update.CallbackQuery
	chatID := getChatIDFromUpdate(update)
	messageID := 0
	if cq.Message.Message != nil {
		messageID = cq.Message.Message.ID
	}
	data, _ := contextkeys.GetCallbackData(ctx)
	if data == "" {
		data = cq.Data
	}

	bh.answerCallback(ctx, m, cq.ID, "")

	switch data {
	case utils.CallbackSkip:
		bh.clearKeyboard(ctx, m, chatID, messageID)
		bh.skipField(ctx, m, chatID, session, lang)
		return
	case utils.CallbackCancel:
		bh.clearKeyboard(ctx, m, chatID, messageID)
		bh.cancel(ctx, m, chatID, session, lang)
		return
	}

	if key, ok := utils.ParseTableCallback(data); ok {
		t, found, allowed := bh.lookupTable(key, session.UserID)
		switch {
		case !found:
			bh.send(ctx, m, chatID, messages.TableUnavailable(lang), nil)
			return
		case !allowed:
			bh.send(ctx, m, chatID, messages.AccessDenied(lang, session.UserID), nil)
			return
		}
		bh.clearKeyboard(ctx, m, chatID, messageID)
		if len(t.Worksheets) > 1 {
			session.Reset()
			session.State = types.StateChooseWorksheet
			session.TableKey = t.Key
			bh.saveSession(ctx, session)
			bh.send(ctx, m, chatID, messages.ChooseWorksheet(lang, t.Name), utils.WorksheetsKeyboard(t))
			return
		}
		bh.beginCollect(ctx, m, chatID, session, t, t.DefaultWorksheet(), lang)
		return
	}

	if n, key, ok := utils.ParseWorksheetCallback(data); ok {
		t, found, allowed := bh.lookupTable(key, session.UserID)
		switch {
		case !found || n >= len(t.Worksheets):
			bh.send(ctx, m, chatID, messages.TableUnavailable(lang), nil)
			return
		case !allowed:
			bh.send(ctx, m, chatID, messages.AccessDenied(lang, session.UserID), nil)
			return
		}
		bh.clearKeyboard(ctx, m, chatID, messageID)
		bh.beginCollect(ctx, m, chatID, session, t, t.Worksheets[n], lang)
		return
	}

	bh.send(ctx, m, chatID, messages.ErrorDefault(lang), nil)
}
