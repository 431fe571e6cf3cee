package catalog

import (
	"context"
	"strings"

	"github.com/BatmanBruc/bat-bot-sheets/types"
)

// Mismatch describes a worksheet whose first row does not match the
// configured columns.
type Mismatch struct {
	Table     string
	Worksheet string
	Expected  []string
	Actual    []string
	Err       error
}

func (m Mismatch) Missing() bool {
	return m.Err == nil && len(m.Actual) == 0
}

// VerifyHeaders reads the header row of every configured worksheet and
// reports those that differ from the field order. Rows are appended by
// position, so a reordered sheet silently puts values in the wrong columns.
func VerifyHeaders(ctx context.Context, c *Catalog, r types.HeaderReader) []Mismatch {
	var out []Mismatch
	for _, t := range c.Tables() {
		expected := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			expected = append(expected, f.Name)
		}
		for _, ws := range t.Worksheets {
			if ctx.Err() != nil {
				return out
			}
			actual, err := r.ReadHeader(ctx, t.SpreadsheetID, ws)
			if err != nil {
				out = append(out, Mismatch{Table: t.Name, Worksheet: ws, Expected: expected, Err: err})
				continue
			}
			if !sameHeader(expected, actual) {
				out = append(out, Mismatch{Table: t.Name, Worksheet: ws, Expected: expected, Actual: actual})
			}
		}
	}
	return out
}

// sameHeader ignores surrounding spaces and trailing blank cells.
func sameHeader(expected, actual []string) bool {
	for len(actual) > 0 && strings.TrimSpace(actual[len(actual)-1]) == "" {
		actual = actual[:len(actual)-1]
	}
	if len(expected) != len(actual) {
		return false
	}
	for i := range expected {
		if strings.TrimSpace(expected[i]) != strings.TrimSpace(actual[i]) {
			return false
		}
	}
	return true
}
