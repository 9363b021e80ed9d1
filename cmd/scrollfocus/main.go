package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/1broseidon/scrollfocus/internal/config"
	"github.com/1broseidon/scrollfocus/internal/daemon"
	"github.com/1broseidon/scrollfocus/internal/ipc"
	"github.com/1broseidon/scrollfocus/internal/logging"
	"github.com/1broseidon/scrollfocus/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:], os.Stdout))
	case "zoom":
		os.Exit(runZoom(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "layout":
		os.Exit(runLayout(os.Args[2:], os.Stdout))
	case "probe":
		os.Exit(runProbe(os.Args[2:], os.Stdout))
	case "record":
		os.Exit(runRecord(os.Args[2:]))
	case "monitors":
		os.Exit(runMonitors(os.Args[2:], os.Stdout))
	case "config":
		os.Exit(runConfig(os.Args[2:], os.Stdout))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: scrollfocus <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                 Start the filter host (foreground)")
	fmt.Fprintln(w, "  status              Show focus and telemetry status")
	fmt.Fprintln(w, "  zoom <value>        Set the zoom amount (0..2)")
	fmt.Fprintln(w, "  reload              Reload the config file")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  layout              Print the plane sizes of a frame")
	fmt.Fprintln(w, "  probe               Inspect a raw frame dump")
	fmt.Fprintln(w, "  record              Record focus telemetry to a file")
	fmt.Fprintln(w, "  monitors            List monitors and the one holding focus")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Open interactive TUI")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'scrollfocus <command> --help' for command-specific options.")
}

// parseFlags returns -1 when parsing succeeded, otherwise the exit code.
func parseFlags(fs *flag.FlagSet, args []string) int {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	return -1
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/scrollfocus/config.yaml)")
	noWatch := fs.Bool("no-watch", false, "Do not reload the config file when it changes")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: scrollfocus run [--path PATH] [--no-watch]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the filter host in the foreground. SIGHUP reloads the config.")
		fs.PrintDefaults()
	}
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "run takes no arguments")
		fs.Usage()
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log, err := logging.New(res.Config.LogLevel, res.Config.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	d, err := daemon.New(daemon.Options{
		ConfigPath:     res.Path,
		Config:         res.Config,
		Watch:          !*noWatch && res.Exists,
		Signals:        hup,
		ReportInterval: time.Minute,
		Logger:         log,
	})
	if err != nil {
		log.WithError(err).Error("Failed to start")
		return 1
	}
	if err := d.Run(ctx); err != nil {
		log.WithError(err).Error("Daemon exited")
		return 1
	}
	return 0
}

func runStatus(args []string, w io.Writer) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print the raw status as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: scrollfocus status [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if code := parseFlags(fs, args); code >= 0 {
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
	if *asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	printStatus(w, status)
	return 0
}

func printStatus(w io.Writer, st *ipc.StatusData) {
	fmt.Fprintf(w, "instance:       %s\n", st.Instance)
	fmt.Fprintf(w, "running:        %v\n", st.Running)
	fmt.Fprintf(w, "uptime_seconds: %d\n", st.UptimeSeconds)
	fmt.Fprintf(w, "frames:         %d\n", st.Frames)
	fmt.Fprintf(w, "render_errors:  %d\n", st.RenderErrors)
	fmt.Fprintf(w, "target_size:    %dx%d\n", st.Width, st.Height)
	fmt.Fprintf(w, "zoom:           %.3f\n", st.Focus.Zoom)
	fmt.Fprintf(w, "focus_target:   %.4f, %.4f\n", st.Focus.Target.X, st.Focus.Target.Y)
	fmt.Fprintf(w, "focus_current:  %.4f, %.4f\n", st.Focus.Current.X, st.Focus.Current.Y)
	fmt.Fprintf(w, "snapshots:      %d delivered, %d dropped\n", st.Telemetry.Delivered, st.Telemetry.Dropped)
}

func runZoom(args []string) int {
	fs := flag.NewFlagSet("zoom", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	persist := fs.Bool("persist", false, "Also write the zoom to the config file")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: scrollfocus zoom [--persist] <value>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Set the zoom of the running filter. Values are clamped to 0..2.")
	}
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	zoom, err := strconv.ParseFloat(fs.Arg(0), 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid zoom %q\n", fs.Arg(0))
		return 2
	}

	res, err := ipc.NewClient().SetZoom(zoom, *persist)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if res.Warning != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", res.Warning)
	}
	if res.Persisted {
		fmt.Printf("zoom: %g (saved)\n", res.Zoom)
	} else {
		fmt.Printf("zoom: %g\n", res.Zoom)
	}
	return 0
}

func runReload(args []string) int {
	if len(args) > 0 {
		if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
			fmt.Fprintln(os.Stdout, "Usage: scrollfocus reload")
			return 0
		}
		fmt.Fprintln(os.Stderr, "reload takes no arguments")
		return 2
	}
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config reloaded")
	return 0
}

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/scrollfocus/config.yaml)")

	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stderr, "Usage: scrollfocus tui [--path PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Interactive TUI for watching focus, browsing frame layouts")
		fmt.Fprintln(os.Stderr, "and editing settings. Works offline when the daemon is not running.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  Tab, 1-3   Switch tabs")
		fmt.Fprintln(os.Stderr, "  +/-, 0     Zoom in, out, reset (focus tab)")
		fmt.Fprintln(os.Stderr, "  d          Edit frame dimensions (layout tab)")
		fmt.Fprintln(os.Stderr, "  Ctrl+S     Review and save settings")
		fmt.Fprintln(os.Stderr, "  q, Ctrl+C  Quit")
		return 0
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if err := tui.Run(*path); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
