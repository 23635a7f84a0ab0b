package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/1broseidon/floattimer/internal/ipc"
	"github.com/1broseidon/floattimer/internal/lifecycle"
	"github.com/1broseidon/floattimer/internal/platform"
	"github.com/1broseidon/floattimer/internal/registry"
)

func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: floattimer status [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if wantJSON(*asJSON) {
		return exitOnErr(printJSON(os.Stdout, status))
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("window_count:   %d\n", status.WindowCount)
	fmt.Printf("next_window_id: %s\n", status.NextWindowID)
	fmt.Printf("aspect_ratio:   %g\n", status.AspectRatio)
	fmt.Printf("started:        %s\n", formatUptime(status.UptimeSeconds, time.Now()))
	if status.RegistryPath != "" {
		fmt.Printf("registry:       %s\n", status.RegistryPath)
	}
	return 0
}

// formatUptime renders uptime as a relative start time ("3 minutes ago").
func formatUptime(seconds int64, now time.Time) string {
	return humanize.RelTime(now.Add(-time.Duration(seconds)*time.Second), now, "ago", "from now")
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: floattimer reload")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Ask the daemon to reload its configuration.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config reloaded")
	return 0
}

func runNew(args []string) int {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	x := fs.Int("x", 0, "Anchor x; the window opens offset from it (requires --y)")
	y := fs.Int("y", 0, "Anchor y; the window opens offset from it (requires --x)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: floattimer new [--x N --y N]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Open a new timer window and print its id.")
		fs.PrintDefaults()
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["x"] != set["y"] {
		fmt.Fprintln(os.Stderr, "--x and --y must be given together")
		return 2
	}
	var anchor *platform.Point
	if set["x"] {
		anchor = &platform.Point{X: *x, Y: *y}
	}

	id, err := ipc.NewClient().CreateWindow(anchor)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(id)
	return 0
}

func runClose(args []string) int {
	fs := flag.NewFlagSet("close", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: floattimer close <id>...")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status := 0
	for _, id := range fs.Args() {
		if err := client.CloseWindow(id); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", id, err)
			status = 1
		}
	}
	return status
}

func runState(args []string) int {
	fs := flag.NewFlagSet("state", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: floattimer state [--json] <id>")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	rec, err := ipc.NewClient().GetWindowState(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if wantJSON(*asJSON) {
		return exitOnErr(printJSON(os.Stdout, rec))
	}
	fmt.Printf("id:       %s\n", rec.ID)
	fmt.Printf("position: %s\n", formatPosition(rec))
	fmt.Printf("size:     %dx%d\n", rec.Width, rec.Height)
	return 0
}

func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: floattimer list [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List open timer windows with their geometry and preferences.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	client := ipc.NewClient()
	ids, err := client.ListWindowIDs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if wantJSON(*asJSON) {
		return exitOnErr(printJSON(os.Stdout, ipc.WindowIDsData{WindowIDs: ids}))
	}

	prefs := map[string]registry.Entry{}
	if reg, err := client.GetRegistry(); err == nil {
		for _, e := range reg.Windows {
			prefs[e.ID] = e
		}
	}

	tw := newTable(os.Stdout)
	fmt.Fprintln(tw, "ID\tPOSITION\tSIZE\tMODE\tTHEME")
	for _, id := range ids {
		rec, err := client.GetWindowState(id)
		if err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\n", id)
			continue
		}
		mode, theme := "-", "-"
		if e, ok := prefs[id]; ok {
			mode, theme = e.Mode, e.ThemeID
		}
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%s\t%s\n", id, formatPosition(rec), rec.Width, rec.Height, mode, theme)
	}
	return exitOnErr(tw.Flush())
}

func runRestore(args []string) int {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: floattimer restore [--json] [file|-]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Recreate windows from a JSON array of {id,x,y,width,height} records,")
		fmt.Fprintln(os.Stderr, "or from a registry file ({\"windows\": [...]}). Reads stdin for '-'.")
		fmt.Fprintln(os.Stderr, "Without an argument the daemon's own registry is used.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	var records []platform.WindowRecord
	switch {
	case fs.NArg() == 0:
		reg, err := client.GetRegistry()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, e := range reg.Windows {
			records = append(records, e.WindowRecord)
		}
	default:
		var r io.Reader = os.Stdin
		if name := fs.Arg(0); name != "-" {
			f, err := os.Open(name)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			defer f.Close()
			r = f
		}
		var err error
		records, err = decodeRecords(r)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	results, err := client.RestoreWindows(records)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if wantJSON(*asJSON) {
		return exitOnErr(printJSON(os.Stdout, ipc.RestoreWindowsData{Results: results}))
	}

	failed := false
	tw := newTable(os.Stdout)
	fmt.Fprintln(tw, "ID\tOUTCOME\tERROR")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.Outcome, r.Error)
		if r.Outcome == lifecycle.OutcomeFailed {
			failed = true
		}
	}
	if err := tw.Flush(); err != nil {
		return 1
	}
	if failed {
		return 1
	}
	return 0
}

// decodeRecords accepts a bare record array or a registry document.
func decodeRecords(r io.Reader) ([]platform.WindowRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	var records []platform.WindowRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var doc struct {
		Windows []platform.WindowRecord `json:"windows"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse records: %w", err)
	}
	return doc.Windows, nil
}

func runPrefs(args []string) int {
	fs := flag.NewFlagSet("prefs", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print JSON")
	theme := fs.String("theme", "", "Theme id")
	title := fs.String("title", "", "Title shown on the timer face")
	mode := fs.String("mode", "", "countdown or countup")
	lastTime := fs.Int("last-time", 0, "Last duration in seconds")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: floattimer prefs [--json] [id [--theme T] [--title T] [--mode M] [--last-time N]]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Without an id, list stored preferences for every registered window.")
		fs.PrintDefaults()
	}

	// Allow "prefs timer-2 --mode countup" as well as flags first.
	var id string
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		id, args = args[0], args[1:]
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if id == "" && fs.NArg() == 1 {
		id = fs.Arg(0)
	} else if fs.NArg() > 0 {
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	if id == "" {
		reg, err := client.GetRegistry()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if wantJSON(*asJSON) {
			return exitOnErr(printJSON(os.Stdout, reg))
		}
		tw := newTable(os.Stdout)
		fmt.Fprintln(tw, "ID\tTHEME\tTITLE\tMODE\tLAST")
		for _, e := range reg.Windows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", e.ID, e.ThemeID, e.Title, e.Mode, e.LastTime)
		}
		return exitOnErr(tw.Flush())
	}

	var update registry.PrefsUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "theme":
			update.ThemeID = theme
		case "title":
			update.Title = title
		case "mode":
			update.Mode = mode
		case "last-time":
			update.LastTime = lastTime
		}
	})
	if update == (registry.PrefsUpdate{}) {
		fmt.Fprintln(os.Stderr, "nothing to update: pass --theme, --title, --mode or --last-time")
		return 2
	}

	entry, err := client.SetWindowPrefs(id, update)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if wantJSON(*asJSON) {
		return exitOnErr(printJSON(os.Stdout, entry))
	}
	fmt.Printf("%s: theme=%s title=%q mode=%s last_time=%d\n", entry.ID, entry.ThemeID, entry.Title, entry.Mode, entry.LastTime)
	return 0
}

func exitOnErr(err error) int {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
