package repository

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Snapshot is an in-memory copy of the whole catalog table, row identifier included.
type Snapshot struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Rows)
}

// Render writes the snapshot as aligned text columns.
func (s *Snapshot) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(s.Columns, "\t")); err != nil {
		return err
	}
	for _, row := range s.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case float64:
		return fmt.Sprintf("%.2f", val)
	default:
		return fmt.Sprint(val)
	}
}
