package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Format is an output format for a table.
type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
)

// ErrUnknownFormat is returned for formats Render does not support.
var ErrUnknownFormat = errors.New("results: unknown format")

// ParseFormat accepts a format name, including "markdown" for md.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "table":
		return FormatTable, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, s)
}

// Render writes the table in the given format.
func Render(w io.Writer, t *Table, format Format) error {
	switch format {
	case FormatJSON:
		return RenderJSON(w, t)
	case FormatCSV:
		_, err := fmt.Fprintln(w, t.writer().RenderCSV())

		return err
	case FormatMarkdown:
		_, err := fmt.Fprintln(w, t.writer().RenderMarkdown())

		return err
	case FormatTable, "":
		if len(t.Rows) == 0 {
			_, err := fmt.Fprintln(w, "No records found")

			return err
		}

		tw := t.writer()
		tw.SetStyle(table.StyleLight)

		_, err := fmt.Fprintln(w, tw.Render())

		return err
	}

	return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
}

// RenderJSON writes the rows as an indented array of column/value objects.
func RenderJSON(w io.Writer, t *Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(t.Records())
}

func (t *Table) writer() table.Writer {
	tw := table.NewWriter()

	header := make(table.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}

	tw.AppendHeader(header)

	for _, r := range t.Rows {
		row := make(table.Row, len(r))
		for i, c := range r {
			row[i] = c
		}

		tw.AppendRow(row)
	}

	return tw
}

// ExportName returns the file path an export is written to inside dir.
func ExportName(dir string, now time.Time, format Format) string {
	return filepath.Join(dir, "soql_result_"+strconv.FormatInt(now.UnixMilli(), 10)+"."+string(format))
}
