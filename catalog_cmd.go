package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/BatmanBruc/bat-bot-sheets/internal/catalog"
	"github.com/BatmanBruc/bat-bot-sheets/internal/sheets"
	"github.com/BatmanBruc/bat-bot-sheets/types"
)

var (
	checkRemote bool
	rowsLimit   int
	rowsSheet   string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the table configuration",
}

var catalogCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the table configuration and, with --remote, the spreadsheets behind it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return err
		}
		var remote remoteSheets
		if checkRemote {
			client, err := sheets.New(cmd.Context(), cfg.GoogleCredentialsFile)
			if err != nil {
				return err
			}
			remote = client
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()
		return checkCatalog(ctx, cmd.OutOrStdout(), c, remote)
	},
}

var catalogRowsCmd = &cobra.Command{
	Use:   "rows <table>",
	Short: "Print the last rows of a table's worksheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return err
		}
		t, ok := c.ByName(args[0])
		if !ok {
			return fmt.Errorf("no table named %q", args[0])
		}
		ws := rowsSheet
		if ws == "" {
			ws = t.DefaultWorksheet()
		} else if !t.HasWorksheet(ws) {
			return fmt.Errorf("table %q has no worksheet %q", t.Name, ws)
		}
		client, err := sheets.New(cmd.Context(), cfg.GoogleCredentialsFile)
		if err != nil {
			return err
		}
		rows, err := client.ReadRows(cmd.Context(), t.SpreadsheetID, ws, rowsLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, r := range rows {
			fmt.Fprintln(out, strings.Join(r, "\t"))
		}
		return nil
	},
}

func init() {
	catalogCheckCmd.Flags().BoolVar(&checkRemote, "remote", false, "also open every spreadsheet and compare header rows")
	catalogRowsCmd.Flags().IntVarP(&rowsLimit, "limit", "n", 10, "number of rows")
	catalogRowsCmd.Flags().StringVar(&rowsSheet, "worksheet", "", "worksheet (default: the table's first)")
	catalogCmd.AddCommand(catalogCheckCmd, catalogRowsCmd)
}

type remoteSheets interface {
	types.HeaderReader
	Worksheets(ctx context.Context, spreadsheetID string) ([]string, error)
}

// checkCatalog prints a summary of every table. With remote set it also
// reports worksheets missing from the spreadsheet and header mismatches, and
// fails if any were found.
func checkCatalog(ctx context.Context, w io.Writer, c *catalog.Catalog, remote remoteSheets) error {
	for _, t := range c.Tables() {
		names := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			n := f.Name + ":" + string(f.Type)
			if !f.Required {
				n += "?"
			}
			names = append(names, n)
		}
		access := "all users"
		if !t.Access.All {
			access = fmt.Sprintf("%d user(s)", len(t.Access.Users))
		}
		fmt.Fprintf(w, "%s [%s] worksheets=%s access=%s\n  %s\n",
			t.Name, t.SpreadsheetID, strings.Join(t.Worksheets, ","), access, strings.Join(names, ", "))
	}
	if remote == nil {
		return nil
	}

	problems := 0
	for _, t := range c.Tables() {
		existing, err := remote.Worksheets(ctx, t.SpreadsheetID)
		if err != nil {
			fmt.Fprintf(w, "FAIL %s: %v\n", t.Name, err)
			problems++
			continue
		}
		have := make(map[string]bool, len(existing))
		for _, ws := range existing {
			have[ws] = true
		}
		for _, ws := range t.Worksheets {
			if !have[ws] {
				fmt.Fprintf(w, "FAIL %s / %s: worksheet not found\n", t.Name, ws)
				problems++
			}
		}
	}
	for _, m := range catalog.VerifyHeaders(ctx, c, remote) {
		problems++
		switch {
		case m.Err != nil:
			fmt.Fprintf(w, "FAIL %s / %s: %v\n", m.Table, m.Worksheet, m.Err)
		case m.Missing():
			fmt.Fprintf(w, "WARN %s / %s: no header row, expected %s\n", m.Table, m.Worksheet, strings.Join(m.Expected, " | "))
		default:
			fmt.Fprintf(w, "WARN %s / %s: header %s, expected %s\n", m.Table, m.Worksheet,
				strings.Join(m.Actual, " | "), strings.Join(m.Expected, " | "))
		}
	}
	if problems > 0 {
		return fmt.Errorf("%d problem(s) found", problems)
	}
	fmt.Fprintln(w, "OK")
	return nil
}
