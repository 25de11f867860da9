package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysErr(fmt.Errorf("marshal JSON: %w", err))
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// report writes v as JSON in --json mode and msg otherwise.
func report(w io.Writer, f *rootFlags, v any, msg string) error {
	if f.jsonMode {
		return printJSON(w, v)
	}
	_, err := fmt.Fprintln(w, msg)
	return err
}

// row is one line of the human-readable list view.
type row struct {
	id, name, extra string
}

func printRows(w io.Writer, rows []row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDETAIL")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.id, r.name, r.extra)
	}
	return tw.Flush()
}
