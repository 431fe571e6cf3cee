package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BatmanBruc/bat-bot-sheets/internal/catalog"
)

const testCatalog = `{
  "Profits": {"spreadsheet_id": "p", "authorized_user_ids": [1, 2], "column_types": {"Date": "date", "Label": "text", "Profit": "number"}, "optional_columns": ["Label"]},
  "Stores":  {"spreadsheet_id": "s", "worksheets": ["Sales", "Purchases"], "column_types": {"Item": "text"}}
}`

type fakeRemote struct {
	worksheets map[string][]string
	headers    map[string][]string
	err        error
}

func (f *fakeRemote) Worksheets(_ context.Context, id string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.worksheets[id], nil
}

func (f *fakeRemote) ReadHeader(_ context.Context, id, ws string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.headers[id+"/"+ws], nil
}

func mustCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)
	return c
}

func TestCheckCatalog_Local(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, checkCatalog(context.Background(), &buf, mustCatalog(t), nil))

	out := buf.String()
	assert.Contains(t, out, "Profits [p] worksheets=Sheet1 access=2 user(s)")
	assert.Contains(t, out, "Date:date, Label:text?, Profit:number")
	assert.Contains(t, out, "Stores [s] worksheets=Sales,Purchases access=all users")
	assert.NotContains(t, out, "OK")
}

func TestCheckCatalog_RemoteOK(t *testing.T) {
	remote := &fakeRemote{
		worksheets: map[string][]string{"p": {"Sheet1"}, "s": {"Sales", "Purchases", "Archive"}},
		headers: map[string][]string{
			"p/Sheet1":    {"Date", "Label", "Profit"},
			"s/Sales":     {"Item"},
			"s/Purchases": {"Item"},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, checkCatalog(context.Background(), &buf, mustCatalog(t), remote))
	assert.Contains(t, buf.String(), "OK")
}

func TestCheckCatalog_RemoteProblems(t *testing.T) {
	remote := &fakeRemote{
		worksheets: map[string][]string{"p": {"Sheet1"}, "s": {"Sales"}},
		headers: map[string][]string{
			"p/Sheet1": {"Date", "Profit"},
			"s/Sales":  {"Item"},
		},
	}
	var buf bytes.Buffer
	err := checkCatalog(context.Background(), &buf, mustCatalog(t), remote)
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "FAIL Stores / Purchases: worksheet not found")
	assert.Contains(t, out, "WARN Profits / Sheet1: header Date | Profit")
	assert.Contains(t, out, "WARN Stores / Purchases: no header row")
	assert.Contains(t, err.Error(), "3 problem(s)")
}

func TestCheckCatalog_RemoteUnreachable(t *testing.T) {
	var buf bytes.Buffer
	err := checkCatalog(context.Background(), &buf, mustCatalog(t), &fakeRemote{err: errors.New("403")})
	require.Error(t, err)
	assert.Contains(t, buf.String(), "FAIL Profits: 403")
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("debug", "console")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(-1))

	l, err = newLogger("warn", "json")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(0))

	_, err = newLogger("loud", "json")
	assert.Error(t, err)
}
