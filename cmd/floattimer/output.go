package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/1broseidon/floattimer/internal/platform"
)

// wantJSON picks JSON when asked for or when stdout is not a terminal.
func wantJSON(forced bool) bool {
	if forced {
		return true
	}
	return !term.IsTerminal(int(os.Stdout.Fd()))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func formatPosition(rec platform.WindowRecord) string {
	if pos, ok := rec.Position(); ok {
		return fmt.Sprintf("%d,%d", pos.X, pos.Y)
	}
	return "-"
}
