package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewWithOptions(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c
}

func TestAppendRow(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	var body sheets.ValueRange
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"updates":{"updatedRows":1}}`))
	})

	err := c.AppendRow(context.Background(), "sheet-1", "Sheet1", []interface{}{"2024-01-12", "test", 100.5, ""})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(gotPath, "/v4/spreadsheets/sheet-1/values/Sheet1!A1:append"), gotPath)
	assert.Equal(t, "RAW", gotQuery["valueInputOption"][0])
	assert.Equal(t, "INSERT_ROWS", gotQuery["insertDataOption"][0])
	require.Len(t, body.Values, 1)
	assert.Equal(t, []interface{}{"2024-01-12", "test", 100.5, ""}, body.Values[0])
}

func TestAppendRow_Error(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission"}}`))
	})

	err := c.AppendRow(context.Background(), "sheet-1", "Sheet1", []interface{}{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission")

	assert.Error(t, c.AppendRow(context.Background(), "", "Sheet1", nil))
}

func TestReadHeaderAndRows(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "!1:1") {
			_, _ = w.Write([]byte(`{"range":"Sheet1!A1:C1","values":[["Date"," Label ","Profit"]]}`))
			return
		}
		_, _ = w.Write([]byte(`{"range":"Sheet1","values":[["Date","Label","Profit"],["2024-01-01","a",1],["2024-01-02","b",2.5],["2024-01-03","c"]]}`))
	})

	header, err := c.ReadHeader(context.Background(), "sheet-1", "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Label", "Profit"}, header)

	rows, err := c.ReadRows(context.Background(), "sheet-1", "Sheet1", 2)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"2024-01-02", "b", "2.5"}, {"2024-01-03", "c"}}, rows)

	all, err := c.ReadRows(context.Background(), "sheet-1", "Sheet1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestWorksheets(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/spreadsheets/sheet-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sheets":[{"properties":{"title":"Sales"}},{"properties":{"title":"الورقة1"}}]}`))
	})

	titles, err := c.Worksheets(context.Background(), "sheet-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sales", "الورقة1"}, titles)
}

func TestA1(t *testing.T) {
	tests := []struct {
		ws, cells, want string
	}{
		{"Sheet1", "A1", "Sheet1!A1"},
		{"My Sheet", "1:1", "'My Sheet'!1:1"},
		{"Bob's", "A1", "'Bob''s'!A1"},
		{"الورقة1", "A1", "'الورقة1'!A1"},
		{"Sheet1", "", "Sheet1"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, A1(tc.ws, tc.cells))
	}
}
