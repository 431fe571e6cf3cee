// Package catalog loads the table configuration file (sheets_config.json) that
// describes which spreadsheets the bot can write to and how their columns are
// collected.
//
// The file is a mapping from table name to table settings. JSON and YAML are
// both accepted; mapping order is preserved, so the order of column_types is
// the order the user is asked in unless column_order says otherwise.
package catalog

import (
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BatmanBruc/bat-bot-sheets/types"
)

var ErrEmpty = errors.New("catalog: no tables configured")

type Catalog struct {
	tables []*types.Table
	byKey  map[string]*types.Table
	byName map[string]*types.Table
}

type dateOption struct {
	Auto        bool `yaml:"auto"`
	IncludeTime bool `yaml:"include_time"`
}

type rawTable struct {
	SheetName         string                `yaml:"sheet_name"`
	SpreadsheetID     string                `yaml:"spreadsheet_id"`
	WorksheetName     string                `yaml:"worksheet_name"`
	Worksheets        []string              `yaml:"worksheets"`
	AuthorizedUserID  *idList               `yaml:"authorized_user_id"`
	AuthorizedUserIDs *idList               `yaml:"authorized_user_ids"`
	ColumnTypes       yaml.Node             `yaml:"column_types"`
	ColumnOrder       []string              `yaml:"column_order"`
	RequiredFields    map[string]bool       `yaml:"required_fields"`
	RequiredColumns   []string              `yaml:"required_columns"`
	OptionalColumns   []string              `yaml:"optional_columns"`
	DateOptions       map[string]dateOption `yaml:"date_options"`
}

// idList accepts "*", "1,2,3", a single number or a list of either.
type idList []string

func (l *idList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*l = idList{n.Value}
		return nil
	case yaml.SequenceNode:
		out := make(idList, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: user id must be a scalar", c.Line)
			}
			out = append(out, c.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("line %d: unsupported authorized_user_ids value", n.Line)
	}
}

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return c, nil
}

func Parse(data []byte) (*Catalog, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, ErrEmpty
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, errors.New("top level must be a mapping of table name to settings")
	}

	c := &Catalog{
		byKey:  make(map[string]*types.Table),
		byName: make(map[string]*types.Table),
	}
	var errs []error
	for i := 0; i+1 < len(doc.Content); i += 2 {
		name := strings.TrimSpace(doc.Content[i].Value)
		var raw rawTable
		if err := doc.Content[i+1].Decode(&raw); err != nil {
			errs = append(errs, fmt.Errorf("table %q: %w", name, err))
			continue
		}
		t, err := buildTable(name, &raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("table %q: %w", name, err))
			continue
		}
		if _, dup := c.byKey[t.Key]; dup {
			errs = append(errs, fmt.Errorf("table %q: duplicate name", name))
			continue
		}
		c.tables = append(c.tables, t)
		c.byKey[t.Key] = t
		c.byName[t.Name] = t
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if len(c.tables) == 0 {
		return nil, ErrEmpty
	}
	return c, nil
}

func buildTable(name string, raw *rawTable) (*types.Table, error) {
	if name == "" {
		name = strings.TrimSpace(raw.SheetName)
	}
	if name == "" {
		return nil, errors.New("missing table name")
	}
	spreadsheetID := strings.TrimSpace(raw.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet_id")
	}

	columns, kinds, err := orderedColumns(&raw.ColumnTypes)
	if err != nil {
		return nil, err
	}
	columns = applyColumnOrder(columns, raw.ColumnOrder)
	if len(columns) == 0 {
		return nil, errors.New("no columns in column_types")
	}

	fields := make([]types.Field, 0, len(columns))
	for _, col := range columns {
		f := types.Field{
			Name:     col,
			Type:     types.ParseFieldType(strings.ToLower(strings.TrimSpace(kinds[col]))),
			Required: isRequired(col, raw),
		}
		if f.Type == types.FieldDate {
			if opt, ok := raw.DateOptions[col]; ok {
				f.AutoDate = opt.Auto
				f.IncludeTime = opt.IncludeTime
			}
		}
		fields = append(fields, f)
	}

	worksheets := make([]string, 0, len(raw.Worksheets)+1)
	seen := map[string]bool{}
	for _, ws := range append([]string{raw.WorksheetName}, raw.Worksheets...) {
		ws = strings.TrimSpace(ws)
		if ws == "" || seen[ws] {
			continue
		}
		seen[ws] = true
		worksheets = append(worksheets, ws)
	}
	if len(worksheets) == 0 {
		worksheets = append(worksheets, "Sheet1")
	}

	var ids []string
	if raw.AuthorizedUserID != nil {
		ids = append(ids, *raw.AuthorizedUserID...)
	}
	if raw.AuthorizedUserIDs != nil {
		ids = append(ids, *raw.AuthorizedUserIDs...)
	}
	access := types.ParseAccessList(ids)
	// No list at all means the table is open. An empty list means nobody.
	if raw.AuthorizedUserID == nil && raw.AuthorizedUserIDs == nil {
		access.All = true
	}

	return &types.Table{
		Key:           KeyFor(name),
		Name:          name,
		SpreadsheetID: spreadsheetID,
		Worksheets:    worksheets,
		Fields:        fields,
		Access:        access,
	}, nil
}

func orderedColumns(n *yaml.Node) ([]string, map[string]string, error) {
	kinds := map[string]string{}
	if n.Kind == 0 {
		return nil, kinds, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("line %d: column_types must be a mapping", n.Line)
	}
	cols := make([]string, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		col := strings.TrimSpace(n.Content[i].Value)
		if col == "" {
			continue
		}
		if _, dup := kinds[col]; !dup {
			cols = append(cols, col)
		}
		kinds[col] = n.Content[i+1].Value
	}
	return cols, kinds, nil
}

// applyColumnOrder puts the columns named in order first, drops names that
// have no type, and keeps any remaining typed columns at the end.
func applyColumnOrder(cols, order []string) []string {
	if len(order) == 0 {
		return cols
	}
	known := make(map[string]bool, len(cols))
	for _, c := range cols {
		known[c] = true
	}
	out := make([]string, 0, len(cols))
	used := make(map[string]bool, len(cols))
	for _, c := range order {
		c = strings.TrimSpace(c)
		if !known[c] || used[c] {
			continue
		}
		used[c] = true
		out = append(out, c)
	}
	for _, c := range cols {
		if !used[c] {
			out = append(out, c)
		}
	}
	return out
}

func isRequired(col string, raw *rawTable) bool {
	if v, ok := raw.RequiredFields[col]; ok {
		return v
	}
	for _, c := range raw.OptionalColumns {
		if strings.TrimSpace(c) == col {
			return false
		}
	}
	if len(raw.RequiredColumns) > 0 {
		for _, c := range raw.RequiredColumns {
			if strings.TrimSpace(c) == col {
				return true
			}
		}
		return false
	}
	return true
}

// KeyFor derives the short identifier used in callback data. Telegram limits
// callback data to 64 bytes, table names are free text.
func KeyFor(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return fmt.Sprintf("%08x", h.Sum32())
}

func (c *Catalog) Tables() []*types.Table {
	out := make([]*types.Table, len(c.tables))
	copy(out, c.tables)
	return out
}

func (c *Catalog) Table(key string) (*types.Table, bool) {
	t, ok := c.byKey[key]
	return t, ok
}

func (c *Catalog) ByName(name string) (*types.Table, bool) {
	t, ok := c.byName[strings.TrimSpace(name)]
	return t, ok
}

// AllowedFor lists the tables userID may write to. Admins see all of them.
func (c *Catalog) AllowedFor(userID int64, admin bool) []*types.Table {
	out := make([]*types.Table, 0, len(c.tables))
	for _, t := range c.tables {
		if admin || t.Access.Allows(userID) {
			out = append(out, t)
		}
	}
	return out
}
