package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/1broseidon/floattimer/internal/tui"
)

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file to load (saving always writes ~/.config/floattimer/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: floattimer tui [--path FILE]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keys:")
		fmt.Fprintln(os.Stderr, "  tab, 1-2   Switch between Windows and Settings")
		fmt.Fprintln(os.Stderr, "  n          Open a new timer window")
		fmt.Fprintln(os.Stderr, "  d          Close the selected window")
		fmt.Fprintln(os.Stderr, "  e, Enter   Edit window preferences or settings")
		fmt.Fprintln(os.Stderr, "  r          Refresh from the daemon")
		fmt.Fprintln(os.Stderr, "  ctrl-s     Save settings and reload the daemon")
		fmt.Fprintln(os.Stderr, "  q, ctrl-c  Quit")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if err := tui.Run(*path); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
