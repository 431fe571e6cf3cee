package contextkeys

import (
	"context"

	"github.com/BatmanBruc/bat-bot-sheets/types"
)

type messageTypeKey struct{}
type sessionKey struct{}
type callbackDataKey struct{}
type langKey struct{}

type MessageType string

const (
	MessageTypeText        MessageType = "text"
	MessageTypeCommand     MessageType = "command"
	MessageTypeClickButton MessageType = "clickButton"
	MessageTypeUnsupported MessageType = "unsupported"
	MessageTypeUnknown     MessageType = "unknown"
)

func WithMessageType(ctx context.Context, msgType MessageType) context.Context {
	return context.WithValue(ctx, messageTypeKey{}, msgType)
}

func GetMessageType(ctx context.Context) (MessageType, bool) {
	v, ok := ctx.Value(messageTypeKey{}).(MessageType)
	if !ok {
		return MessageTypeUnknown, false
	}
	return v, true
}

// WithSession stores the loaded session. Handlers mutate it and save it back
// through the session store.
func WithSession(ctx context.Context, s *types.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func GetSession(ctx context.Context) (*types.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*types.Session)
	return s, ok && s != nil
}

func WithCallbackData(ctx context.Context, data string) context.Context {
	return context.WithValue(ctx, callbackDataKey{}, data)
}

func GetCallbackData(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(callbackDataKey{}).(string)
	return v, ok
}

func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

func GetLang(ctx context.Context) string {
	v, _ := ctx.Value(langKey{}).(string)
	return v
}
