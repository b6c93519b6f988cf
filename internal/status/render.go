package status

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// WritePlain renders the dashboard as a plain table (non-TTY output).
func WritePlain(w io.Writer, rows []Row) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYSTEM\tTARGET\tTYPE\tSTATUS\tLAST SUCCESS\tDETAILS")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			row.System, row.Target, row.Kind, row.Health, row.Age, row.Details)
	}
	tw.Flush()
}

// WriteJSON emits the dashboard rows as JSON.
func WriteJSON(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
