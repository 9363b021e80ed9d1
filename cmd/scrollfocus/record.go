package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1broseidon/scrollfocus/internal/config"
	"github.com/1broseidon/scrollfocus/internal/daemon"
	"github.com/1broseidon/scrollfocus/internal/logging"
	"github.com/1broseidon/scrollfocus/internal/telemetry"
)

func runRecord(args []string) int {
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/scrollfocus/config.yaml)")
	out := fs.String("out", "", "Recording file to write")
	duration := fs.Duration("duration", 0, "Stop after this long (default: until interrupted)")
	mode := fs.String("mode", "", "Override telemetry.mode (window or pointer)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: scrollfocus record --out FILE [--duration D] [--mode M]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Record X11 focus telemetry for later use with telemetry.source: replay.")
		fs.PrintDefaults()
	}
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if *out == "" || fs.NArg() != 0 {
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

	tcfg := res.Config.Telemetry
	tcfg.Source = config.TelemetryX11
	tcfg.RecordFile = *out
	if *mode != "" {
		tcfg.Mode = *mode
	}
	open, err := daemon.OpenerFor(tcfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	src, err := open()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	rec := src.(*telemetry.Recorder)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	start := time.Now()
	for ctx.Err() == nil {
		rec.WaitForEvent()
		if err := rec.Err(); err != nil {
			break
		}
	}
	closeErr := rec.Close()
	if err := rec.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if closeErr != nil {
		fmt.Fprintln(os.Stderr, closeErr)
		return 1
	}
	fmt.Printf("recorded %d snapshots in %s to %s\n", rec.Count(), time.Since(start).Round(time.Millisecond), *out)
	return 0
}
