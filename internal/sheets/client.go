// Package sheets is the Google Sheets side of the bot: appending collected rows
// and reading headers back for verification.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	valueInputOption = "RAW"
	insertDataOption = "INSERT_ROWS"
)

type Client struct {
	service *sheets.Service
}

// New builds a client from a service-account key file.
func New(ctx context.Context, credentialsFile string) (*Client, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets: reading credentials: %w", err)
	}
	cfg, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("sheets: parsing credentials: %w", err)
	}
	return NewWithOptions(ctx, option.WithHTTPClient(cfg.Client(ctx)))
}

func NewWithOptions(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: creating service: %w", err)
	}
	return &Client{service: srv}, nil
}

// AppendRow adds row after the last row of the worksheet's table.
func (c *Client) AppendRow(ctx context.Context, spreadsheetID, worksheet string, row []interface{}) error {
	if spreadsheetID == "" {
		return errors.New("sheets: empty spreadsheet id")
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err := c.service.Spreadsheets.Values.Append(spreadsheetID, A1(worksheet, "A1"), vr).
		ValueInputOption(valueInputOption).
		InsertDataOption(insertDataOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: appending to %s: %w", worksheet, err)
	}
	return nil
}

// ReadHeader returns the first row of the worksheet as strings.
func (c *Client) ReadHeader(ctx context.Context, spreadsheetID, worksheet string) ([]string, error) {
	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, A1(worksheet, "1:1")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: reading header of %s: %w", worksheet, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	return toStrings(resp.Values[0]), nil
}

// ReadRows returns the data rows below the header. With limit > 0 only the
// last limit rows are returned.
func (c *Client) ReadRows(ctx context.Context, spreadsheetID, worksheet string, limit int) ([][]string, error) {
	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, A1(worksheet, "")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: reading rows of %s: %w", worksheet, err)
	}
	if len(resp.Values) <= 1 {
		return nil, nil
	}
	data := resp.Values[1:]
	if limit > 0 && len(data) > limit {
		data = data[len(data)-limit:]
	}
	out := make([][]string, 0, len(data))
	for _, r := range data {
		out = append(out, toStrings(r))
	}
	return out, nil
}

// Worksheets lists the sheet titles of a spreadsheet in tab order.
func (c *Client) Worksheets(ctx context.Context, spreadsheetID string) ([]string, error) {
	resp, err := c.service.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: reading spreadsheet %s: %w", spreadsheetID, err)
	}
	titles := make([]string, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	return titles, nil
}

// A1 builds an A1-notation range on worksheet. Names with anything other
// than ASCII letters, digits or underscores are quoted.
func A1(worksheet, cells string) string {
	name := worksheet
	if needsQuoting(worksheet) {
		name = "'" + strings.ReplaceAll(worksheet, "'", "''") + "'"
	}
	if cells == "" {
		return name
	}
	return name + "!" + cells
}

func needsQuoting(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return true
		}
	}
	return false
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
