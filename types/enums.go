package types

type ChatState string

const (
	StateIdle            ChatState = "idle"
	StateChooseTable     ChatState = "choose_table"
	StateChooseWorksheet ChatState = "choose_worksheet"
	StateCollecting      ChatState = "collecting"
)

type FieldType string

const (
	FieldText   FieldType = "text"
	FieldNumber FieldType = "number"
	FieldDate   FieldType = "date"
)

// ParseFieldType maps a configured column type onto a FieldType. Anything it
// does not recognise is collected as text.
func ParseFieldType(s string) FieldType {
	switch FieldType(s) {
	case FieldNumber, FieldDate:
		return FieldType(s)
	default:
		return FieldText
	}
}

const (
	SubmissionAppended string = "appended"
	SubmissionFailed   string = "failed"
)
