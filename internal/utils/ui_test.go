package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BatmanBruc/bat-bot-sheets/types"
)

func TestBuildInlineKeyboard_Rows(t *testing.T) {
	kb := BuildInlineKeyboard([]Button{{"a", "1"}, {"b", "2"}, {"c", "3"}}, 2)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Len(t, kb.InlineKeyboard[0], 2)
	assert.Len(t, kb.InlineKeyboard[1], 1)
	assert.Equal(t, " c ", kb.InlineKeyboard[1][0].Text)
	assert.Equal(t, "3", kb.InlineKeyboard[1][0].CallbackData)
}

func TestCallbacks_RoundTrip(t *testing.T) {
	key, ok := ParseTableCallback(TableCallback("0a1b2c3d"))
	assert.True(t, ok)
	assert.Equal(t, "0a1b2c3d", key)

	n, key, ok := ParseWorksheetCallback(WorksheetCallback(3, "0a1b2c3d"))
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	assert.Equal(t, "0a1b2c3d", key)

	for _, bad := range []string{"table_for_", "ws_x_for_k", "ws_1_for_", "ws_-1_for_k", "other"} {
		_, ok1 := ParseTableCallback(bad)
		_, _, ok2 := ParseWorksheetCallback(bad)
		assert.False(t, ok1 && ok2, bad)
	}
	_, _, ok = ParseWorksheetCallback("ws_1_for_")
	assert.False(t, ok)
	_, ok = ParseTableCallback("table_for_")
	assert.False(t, ok)
}

func TestFieldKeyboard(t *testing.T) {
	kb := FieldKeyboard(types.Field{Name: "Notes"}, "Skip", "Cancel")
	require.Len(t, kb.InlineKeyboard, 1)
	require.Len(t, kb.InlineKeyboard[0], 2)
	assert.Equal(t, CallbackSkip, kb.InlineKeyboard[0][0].CallbackData)

	kb = FieldKeyboard(types.Field{Name: "Amount", Required: true}, "Skip", "Cancel")
	require.Len(t, kb.InlineKeyboard[0], 1)
	assert.Equal(t, CallbackCancel, kb.InlineKeyboard[0][0].CallbackData)
}

func TestWorksheetsKeyboard(t *testing.T) {
	tbl := &types.Table{Key: "k", Worksheets: []string{"Sales", "Purchases", "Returns"}}
	kb := WorksheetsKeyboard(tbl)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "ws_2_for_k", kb.InlineKeyboard[1][0].CallbackData)
}
