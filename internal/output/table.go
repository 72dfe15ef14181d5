// Package output provides formatted output helpers for CLI commands.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// Table renders a bordered ASCII table to the given writer. An empty table
// renders as a single "(none)" line.
func Table(w io.Writer, headers []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "(none)")
		return err
	}
	t := tablewriter.NewWriter(w)
	t.Header(toAny(headers)...)
	if err := t.Bulk(rows); err != nil {
		return err
	}
	return t.Render()
}

// Pairs renders labelled values as a two-column table.
func Pairs(w io.Writer, pairs [][2]string) error {
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []string{p[0], p[1]})
	}
	t := tablewriter.NewWriter(w)
	if err := t.Bulk(rows); err != nil {
		return err
	}
	return t.Render()
}

// Heading writes a section heading.
func Heading(w io.Writer, title string) error {
	_, err := fmt.Fprintf(w, "\n%s\n", title)
	return err
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// toAny converts a string slice to an any slice for tablewriter.Header.
func toAny(s []string) []any {
	result := make([]any, len(s))
	for i, v := range s {
		result[i] = v
	}
	return result
}
