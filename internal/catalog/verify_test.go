package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type headerMap map[string][]string

func (h headerMap) ReadHeader(_ context.Context, spreadsheetID, worksheet string) ([]string, error) {
	if spreadsheetID == "broken" {
		return nil, errors.New("403 forbidden")
	}
	return h[spreadsheetID+"/"+worksheet], nil
}

func TestVerifyHeaders(t *testing.T) {
	c, err := Parse([]byte(`{
  "Good":   {"spreadsheet_id": "a", "column_types": {"Date": "date", "Item": "text"}},
  "Moved":  {"spreadsheet_id": "b", "worksheets": ["One", "Two"], "column_types": {"Date": "date", "Item": "text"}},
  "Broken": {"spreadsheet_id": "broken", "column_types": {"X": "text"}}
}`))
	require.NoError(t, err)

	headers := headerMap{
		"a/Sheet1": {"Date", " Item ", ""},
		"b/One":    {"Item", "Date"},
		"b/Two":    nil,
	}
	got := VerifyHeaders(context.Background(), c, headers)
	require.Len(t, got, 3)

	assert.Equal(t, "Moved", got[0].Table)
	assert.Equal(t, "One", got[0].Worksheet)
	assert.Equal(t, []string{"Item", "Date"}, got[0].Actual)
	assert.False(t, got[0].Missing())

	assert.Equal(t, "Two", got[1].Worksheet)
	assert.True(t, got[1].Missing())

	assert.Equal(t, "Broken", got[2].Table)
	assert.Error(t, got[2].Err)
}
