package messages

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BatmanBruc/bat-bot-sheets/internal/i18n"
	"github.com/BatmanBruc/bat-bot-sheets/types"
)

func TestEscape(t *testing.T) {
	assert.Equal(t, "a &lt;b&gt; &amp; &quot;c&quot; &#39;d&#39;", Escape(` a <b> & "c" 'd' `))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "100.5", FormatValue(100.5))
	assert.Equal(t, "3", FormatValue(3.0))
	assert.Equal(t, "x", FormatValue("x"))
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "7", FormatValue(7))
}

func TestFieldPrompt(t *testing.T) {
	required := types.Field{Name: "Amount", Type: types.FieldNumber, Required: true}
	optional := types.Field{Name: "<Notes>", Type: types.FieldText}

	msg := FieldPrompt(i18n.EN, required, 2, 4)
	assert.Contains(t, msg, "[2/4]")
	assert.Contains(t, msg, "<b>Amount</b>")
	assert.Contains(t, msg, "number")
	assert.NotContains(t, msg, "/skip")

	msg = FieldPrompt(i18n.RU, optional, 4, 4)
	assert.Contains(t, msg, "&lt;Notes&gt;")
	assert.Contains(t, msg, "/skip")
}

func TestSaved_FieldOrderAndBlanks(t *testing.T) {
	fields := []types.Field{{Name: "Date"}, {Name: "Label"}, {Name: "Profit"}, {Name: "Notes"}}
	rec := map[string]interface{}{"Date": "2024-01-12", "Label": "test", "Profit": 100.5, "Notes": ""}

	msg := Saved(i18n.EN, "Profits", fields, rec)
	assert.Contains(t, msg, "Saved to Profits")
	assert.Less(t, strings.Index(msg, "• Date"), strings.Index(msg, "• Profit"))
	assert.Contains(t, msg, "• Profit: 100.5")
	assert.Contains(t, msg, "• Notes: -")
}

func TestErrorAppendFailed_IncludesError(t *testing.T) {
	msg := ErrorAppendFailed(i18n.AR, errors.New("quota <exceeded>"))
	assert.Contains(t, msg, "<code>quota &lt;exceeded&gt;</code>")
}

func TestRecentSubmissions(t *testing.T) {
	assert.Contains(t, RecentSubmissions(i18n.EN, nil), "No submissions")

	at := time.Date(2024, 1, 12, 9, 30, 0, 0, time.UTC)
	msg := RecentSubmissions(i18n.EN, []types.Submission{
		{TableName: "Profits", Worksheet: "Sales", Status: types.SubmissionAppended, CreatedAt: at},
		{TableName: "Costs", Status: types.SubmissionFailed, CreatedAt: at},
	})
	assert.Contains(t, msg, "✅ 2024-01-12 09:30 <b>Profits</b> / Sales")
	assert.Contains(t, msg, "🚫 2024-01-12 09:30 <b>Costs</b>")
}
