package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/BatmanBruc/bat-bot-sheets/types"
)

const (
	CallbackSkip   = "skip_field"
	CallbackCancel = "cancel"

	tablePrefix = "table_for_"
	wsPrefix    = "ws_"
	forSep      = "_for_"
)

type Button struct {
	Text         string
	CallbackData string
}

func BuildInlineKeyboard(buttons []Button, perRow int) models.InlineKeyboardMarkup {
	if perRow <= 0 {
		perRow = 1
	}
	pad := func(s string) string { return " " + s + " " }
	rows := make([][]models.InlineKeyboardButton, 0)
	row := make([]models.InlineKeyboardButton, 0, perRow)
	for i, button := range buttons {
		if i > 0 && i%perRow == 0 {
			rows = append(rows, row)
			row = make([]models.InlineKeyboardButton, 0, perRow)
		}
		row = append(row, models.InlineKeyboardButton{
			Text:         pad(button.Text),
			CallbackData: button.CallbackData,
		})
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return models.InlineKeyboardMarkup{
		InlineKeyboard: rows,
	}
}

func TableCallback(key string) string {
	return tablePrefix + key
}

// WorksheetCallback refers to the worksheet by index; names can be longer
// than the 64 bytes Telegram allows in callback data.
func WorksheetCallback(index int, key string) string {
	return fmt.Sprintf("%s%d%s%s", wsPrefix, index, forSep, key)
}

func ParseTableCallback(data string) (string, bool) {
	if !strings.HasPrefix(data, tablePrefix) {
		return "", false
	}
	key := strings.TrimPrefix(data, tablePrefix)
	return key, key != ""
}

func ParseWorksheetCallback(data string) (int, string, bool) {
	if !strings.HasPrefix(data, wsPrefix) {
		return 0, "", false
	}
	parts := strings.SplitN(strings.TrimPrefix(data, wsPrefix), forSep, 2)
	if len(parts) != 2 || parts[1] == "" {
		return 0, "", false
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil || n < 0 {
		return 0, "", false
	}
	return n, parts[1], true
}

func TablesKeyboard(tables []*types.Table) models.InlineKeyboardMarkup {
	buttons := make([]Button, 0, len(tables))
	for _, t := range tables {
		buttons = append(buttons, Button{Text: t.Name, CallbackData: TableCallback(t.Key)})
	}
	return BuildInlineKeyboard(buttons, 1)
}

func WorksheetsKeyboard(t *types.Table) models.InlineKeyboardMarkup {
	buttons := make([]Button, 0, len(t.Worksheets))
	for i, ws := range t.Worksheets {
		buttons = append(buttons, Button{Text: ws, CallbackData: WorksheetCallback(i, t.Key)})
	}
	return BuildInlineKeyboard(buttons, 2)
}

// FieldKeyboard carries Skip for optional fields and Cancel for all of them.
func FieldKeyboard(f types.Field, skipText, cancelText string) models.InlineKeyboardMarkup {
	buttons := make([]Button, 0, 2)
	if !f.Required {
		buttons = append(buttons, Button{Text: skipText, CallbackData: CallbackSkip})
	}
	buttons = append(buttons, Button{Text: cancelText, CallbackData: CallbackCancel})
	return BuildInlineKeyboard(buttons, 2)
}
