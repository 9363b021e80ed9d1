package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/1broseidon/scrollfocus/internal/x11"
)

func runMonitors(args []string, w io.Writer) int {
	fs := flag.NewFlagSet("monitors", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print monitors as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: scrollfocus monitors [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List XRandR monitors and mark the one holding the active window.")
	}
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}

	conn, err := x11.NewConnection()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer conn.Close()

	monitors, err := conn.Monitors()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	active := activeMonitor(conn, monitors)

	if *asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(monitors); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	printMonitors(w, monitors, active)
	return 0
}

func activeMonitor(conn *x11.Connection, monitors []x11.Monitor) int {
	win, err := conn.ActiveWindow()
	if err != nil || win == 0 {
		return -1
	}
	rect, err := conn.WindowRect(win)
	if err != nil {
		return -1
	}
	if m := x11.MonitorFor(monitors, rect); m != nil {
		return m.ID
	}
	return -1
}

func printMonitors(w io.Writer, monitors []x11.Monitor, active int) {
	if len(monitors) == 0 {
		fmt.Fprintln(w, "no monitors")
		return
	}
	for _, m := range monitors {
		mark := " "
		if m.ID == active {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %d %-10s %dx%d+%d+%d\n", mark, m.ID, m.Name, m.Width, m.Height, m.X, m.Y)
	}
}
