package handlers

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/BatmanBruc/bat-bot-sheets/internal/collector"
	"github.com/BatmanBruc/bat-bot-sheets/internal/i18n"
	"github.com/BatmanBruc/bat-bot-sheets/internal/messages"
	"github.com/BatmanBruc/bat-bot-sheets/internal/utils"
	"github.com/BatmanBruc/bat-bot-sheets/types"
)

func (bh *Handlers) beginCollect(ctx context.Context, m Messenger, chatID int64, session *types.Session, t *types.Table, worksheet string, lang i18n.Lang) {
	step, err := bh.engine.Begin(session, t, worksheet)
	if err != nil {
		bh.logger.Error("starting collection failed", zap.String("table", t.Name), zap.Error(err))
		session.Reset()
		bh.saveSession(ctx, session)
		bh.send(ctx, m, chatID, messages.ErrorDefault(lang), nil)
		return
	}
	bh.send(ctx, m, chatID, messages.TableChosen(lang, t.Name, worksheet), nil)
	bh.continueWith(ctx, m, chatID, session, t, step, lang)
}

// activeTable resolves the table the session is collecting for. A table that
// vanished from the catalog or is no longer shared with the user ends the
// conversation. A table whose fields changed restarts the record.
func (bh *Handlers) activeTable(ctx context.Context, m Messenger, chatID int64, session *types.Session, lang i18n.Lang) (*types.Table, bool) {
	if session.State != types.StateCollecting {
		bh.send(ctx, m, chatID, messages.NotCollecting(lang), nil)
		return nil, false
	}
	t, found, allowed := bh.lookupTable(session.TableKey, session.UserID)
	if !found || !allowed {
		session.Reset()
		bh.saveSession(ctx, session)
		if !found {
			bh.send(ctx, m, chatID, messages.TableUnavailable(lang), nil)
		} else {
			bh.send(ctx, m, chatID, messages.AccessDenied(lang, session.UserID), nil)
		}
		return nil, false
	}
	if session.Fingerprint != "" && session.Fingerprint != collector.Fingerprint(t) {
		worksheet := session.Worksheet
		if !t.HasWorksheet(worksheet) {
			worksheet = t.DefaultWorksheet()
		}
		bh.logger.Info("table fields changed, restarting record",
			zap.String("table", t.Name), zap.Int64("user_id", session.UserID))
		bh.send(ctx, m, chatID, messages.TableChanged(lang, t.Name), nil)
		bh.beginCollect(ctx, m, chatID, session, t, worksheet, lang)
		return nil, false
	}
	return t, true
}

func (bh *Handlers) answerField(ctx context.Context, m Messenger, chatID int64, session *types.Session, input string, lang i18n.Lang) {
	t, ok := bh.activeTable(ctx, m, chatID, session, lang)
	if !ok {
		return
	}
	field, err := bh.engine.Current(session, t)
	if err != nil {
		bh.send(ctx, m, chatID, messages.NotCollecting(lang), nil)
		return
	}
	step, err := bh.engine.Answer(session, t, input)
	if err != nil {
		bh.rejectInput(ctx, m, chatID, *field, err, lang)
		return
	}
	bh.continueWith(ctx, m, chatID, session, t, step, lang)
}

func (bh *Handlers) skipField(ctx context.Context, m Messenger, chatID int64, session *types.Session, lang i18n.Lang) {
	t, ok := bh.activeTable(ctx, m, chatID, session, lang)
	if !ok {
		return
	}
	field, err := bh.engine.Current(session, t)
	if err != nil {
		bh.send(ctx, m, chatID, messages.NotCollecting(lang), nil)
		return
	}
	step, err := bh.engine.Skip(session, t)
	if err != nil {
		bh.rejectInput(ctx, m, chatID, *field, err, lang)
		return
	}
	bh.continueWith(ctx, m, chatID, session, t, step, lang)
}

// rejectInput explains what was wrong and asks for the same field again.
func (bh *Handlers) rejectInput(ctx context.Context, m Messenger, chatID int64, field types.Field, err error, lang i18n.Lang) {
	var text string
	switch {
	case errors.Is(err, collector.ErrInvalidNumber):
		text = messages.ErrorInvalidNumber(lang, field)
	case errors.Is(err, collector.ErrInvalidDate):
		text = messages.ErrorInvalidDate(lang, field)
	case errors.Is(err, collector.ErrFieldRequired):
		text = messages.ErrorFieldRequired(lang, field)
	default:
		bh.logger.Error("field input failed", zap.String("field", field.Name), zap.Error(err))
		text = messages.ErrorDefault(lang)
	}
	bh.send(ctx, m, chatID, text, utils.FieldKeyboard(field, messages.ButtonSkip(lang), messages.ButtonCancel(lang)))
}

func (bh *Handlers) continueWith(ctx context.Context, m Messenger, chatID int64, session *types.Session, t *types.Table, step collector.Step, lang i18n.Lang) {
	if step.Done {
		bh.finalize(ctx, m, chatID, session, t, lang)
		return
	}
	bh.saveSession(ctx, session)
	bh.prompt(ctx, m, chatID, session, *step.Field, len(t.Fields), lang)
}

func (bh *Handlers) prompt(ctx context.Context, m Messenger, chatID int64, session *types.Session, f types.Field, total int, lang i18n.Lang) {
	text := messages.FieldPrompt(lang, f, session.FieldIndex+1, total)
	bh.send(ctx, m, chatID, text, utils.FieldKeyboard(f, messages.ButtonSkip(lang), messages.ButtonCancel(lang)))
}

// finalize appends the collected row in a single call. Whatever the outcome
// the session goes back to idle; a failed row is not kept for retry.
func (bh *Handlers) finalize(ctx context.Context, m Messenger, chatID int64, session *types.Session, t *types.Table, lang i18n.Lang) {
	row := bh.engine.Row(session, t)
	record := bh.engine.Record(session, t)
	worksheet := session.Worksheet
	if worksheet == "" {
		worksheet = t.DefaultWorksheet()
	}

	appendCtx, cancel := context.WithTimeout(ctx, bh.appendTimeout)
	started := time.Now()
	err := bh.appender.AppendRow(appendCtx, t.SpreadsheetID, worksheet, row)
	took := time.Since(started)
	cancel()

	status := types.SubmissionAppended
	sub := types.Submission{
		UserID:    session.UserID,
		TableName: t.Name,
		Worksheet: worksheet,
		Values:    record,
		CreatedAt: time.Now().UTC(),
	}
	if err != nil {
		status = types.SubmissionFailed
		sub.Error = err.Error()
		bh.logger.Error("append row failed",
			zap.String("table", t.Name), zap.String("worksheet", worksheet),
			zap.Int64("user_id", session.UserID), zap.Error(err))
	} else {
		bh.logger.Info("row appended",
			zap.String("table", t.Name), zap.String("worksheet", worksheet),
			zap.Int64("user_id", session.UserID), zap.Duration("took", took))
	}
	sub.Status = status
	bh.metrics.ObserveSubmission(t.Name, status, took)

	if bh.journal != nil {
		if jerr := bh.journal.RecordSubmission(ctx, sub); jerr != nil {
			bh.logger.Warn("journal write failed", zap.String("table", t.Name), zap.Error(jerr))
		}
	}

	session.Reset()
	bh.saveSession(ctx, session)

	if err != nil {
		bh.send(ctx, m, chatID, messages.ErrorAppendFailed(lang, err), nil)
		return
	}
	bh.send(ctx, m, chatID, messages.Saved(lang, t.Name, t.Fields, record), nil)
}
