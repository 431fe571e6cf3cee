package types

import (
	"strconv"
	"strings"
)

type Field struct {
	Name        string    `json:"name"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	AutoDate    bool      `json:"auto_date,omitempty"`
	IncludeTime bool      `json:"include_time,omitempty"`
}

// NeedsInput reports whether the user is prompted for the field at all.
func (f Field) NeedsInput() bool {
	return !(f.Type == FieldDate && f.AutoDate)
}

type Table struct {
	Key           string
	Name          string
	SpreadsheetID string
	Worksheets    []string
	Fields        []Field
	Access        AccessList
}

// DefaultWorksheet is used when the table does not ask the user to pick one.
func (t *Table) DefaultWorksheet() string {
	if t == nil || len(t.Worksheets) == 0 {
		return ""
	}
	return t.Worksheets[0]
}

func (t *Table) HasWorksheet(name string) bool {
	for _, ws := range t.Worksheets {
		if ws == name {
			return true
		}
	}
	return false
}

// AccessList is the permitted-user list of a table. A wildcard entry lets
// everyone in.
type AccessList struct {
	All   bool
	Users map[int64]struct{}
}

func ParseAccessList(entries []string) AccessList {
	a := AccessList{Users: make(map[int64]struct{}, len(entries))}
	for _, e := range entries {
		for _, p := range strings.FieldsFunc(e, func(r rune) bool { return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\t' }) {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if p == "*" {
				a.All = true
				continue
			}
			id, err := strconv.ParseInt(p, 10, 64)
			if err != nil {
				continue
			}
			a.Users[id] = struct{}{}
		}
	}
	return a
}

func (a AccessList) Allows(userID int64) bool {
	if a.All {
		return true
	}
	_, ok := a.Users[userID]
	return ok
}
