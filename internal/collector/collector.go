// Package collector walks a user through the fields of a table one prompt at a
// time and produces the finished row.
package collector

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/BatmanBruc/bat-bot-sheets/types"
)

var (
	ErrNoActiveField = errors.New("collector: no field awaiting input")
	ErrFieldRequired = errors.New("collector: field is required")
	ErrInvalidNumber = errors.New("collector: not a number")
	ErrInvalidDate   = errors.New("collector: not a date")
	ErrNoFields      = errors.New("collector: table has no fields")
	ErrTableChanged  = errors.New("collector: table fields changed since the record was started")
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// Step tells the caller what to do next: prompt for Field, or commit the row
// when Done.
type Step struct {
	Field *types.Field
	Done  bool
}

type Engine struct {
	now func() time.Time
	loc *time.Location
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) clock() time.Time {
	return e.now().In(e.loc)
}

// Begin starts a fresh record for table on the session. Leading auto-date
// fields are filled immediately.
func (e *Engine) Begin(s *types.Session, t *types.Table, worksheet string) (Step, error) {
	if len(t.Fields) == 0 {
		return Step{}, ErrNoFields
	}
	s.State = types.StateCollecting
	s.TableKey = t.Key
	s.Worksheet = worksheet
	s.FieldIndex = 0
	s.Fingerprint = Fingerprint(t)
	s.Values = make(map[string]interface{}, len(t.Fields))
	return e.advance(s, t), nil
}

// Fingerprint identifies the field layout of t. A session started against a
// different layout cannot be resumed, its index points at other fields.
func Fingerprint(t *types.Table) string {
	h := fnv.New64a()
	for _, f := range t.Fields {
		fmt.Fprintf(h, "%s\x00%s\x00%t\x00%t\x00%t\x01", f.Name, f.Type, f.Required, f.AutoDate, f.IncludeTime)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// Current returns the field the session is waiting on.
func (e *Engine) Current(s *types.Session, t *types.Table) (*types.Field, error) {
	if s.State != types.StateCollecting || s.TableKey != t.Key {
		return nil, ErrNoActiveField
	}
	if s.Fingerprint != "" && s.Fingerprint != Fingerprint(t) {
		return nil, ErrTableChanged
	}
	if s.FieldIndex < 0 || s.FieldIndex >= len(t.Fields) {
		return nil, ErrNoActiveField
	}
	return &t.Fields[s.FieldIndex], nil
}

// Answer validates input against the current field and moves on. A rejected
// answer leaves the session untouched so the same field can be asked again.
func (e *Engine) Answer(s *types.Session, t *types.Table, input string) (Step, error) {
	field, err := e.Current(s, t)
	if err != nil {
		return Step{}, err
	}
	value, err := e.Coerce(*field, input)
	if err != nil {
		return Step{}, err
	}
	e.store(s, field.Name, value)
	s.FieldIndex++
	return e.advance(s, t), nil
}

// Skip leaves an optional field empty. Required fields cannot be skipped.
func (e *Engine) Skip(s *types.Session, t *types.Table) (Step, error) {
	field, err := e.Current(s, t)
	if err != nil {
		return Step{}, err
	}
	if field.Required {
		return Step{}, ErrFieldRequired
	}
	e.store(s, field.Name, "")
	s.FieldIndex++
	return e.advance(s, t), nil
}

// Coerce converts raw user input into the value stored for field.
func (e *Engine) Coerce(field types.Field, input string) (interface{}, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		if field.Required {
			return nil, ErrFieldRequired
		}
		return "", nil
	}
	switch field.Type {
	case types.FieldNumber:
		n, err := ParseNumber(input)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, input)
		}
		return n, nil
	case types.FieldDate:
		d, err := ParseDate(input, e.clock())
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, input)
		}
		if field.IncludeTime {
			return d.Format(DateTimeLayout), nil
		}
		return d.Format(DateLayout), nil
	default:
		return input, nil
	}
}

// Row lays the collected values out in field order. Fields never reached are
// left blank.
func (e *Engine) Row(s *types.Session, t *types.Table) []interface{} {
	row := make([]interface{}, 0, len(t.Fields))
	for _, f := range t.Fields {
		v, ok := s.Values[f.Name]
		if !ok || v == nil {
			v = ""
		}
		row = append(row, v)
	}
	return row
}

func (e *Engine) Record(s *types.Session, t *types.Table) map[string]interface{} {
	rec := make(map[string]interface{}, len(t.Fields))
	row := e.Row(s, t)
	for i, f := range t.Fields {
		rec[f.Name] = row[i]
	}
	return rec
}

func (e *Engine) advance(s *types.Session, t *types.Table) Step {
	for s.FieldIndex < len(t.Fields) {
		f := &t.Fields[s.FieldIndex]
		if f.NeedsInput() {
			return Step{Field: f}
		}
		e.store(s, f.Name, e.autoDate(*f))
		s.FieldIndex++
	}
	return Step{Done: true}
}

func (e *Engine) autoDate(f types.Field) string {
	if f.IncludeTime {
		return e.clock().Format(DateTimeLayout)
	}
	return e.clock().Format(DateLayout)
}

func (e *Engine) store(s *types.Session, name string, value interface{}) {
	if s.Values == nil {
		s.Values = make(map[string]interface{})
	}
	s.Values[name] = value
}
