package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/1broseidon/scrollfocus/internal/framelayout"
	"github.com/1broseidon/scrollfocus/internal/ipc"
	"github.com/1broseidon/scrollfocus/internal/media"
)

// parseInterspersed lets flags follow positional arguments.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

func parseDimension(name, s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return uint32(v), nil
}

func runLayout(args []string, w io.Writer) int {
	fs := flag.NewFlagSet("layout", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print the layout as JSON")
	list := fs.Bool("list", false, "List known pixel formats")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: scrollfocus layout <format> <width> <height> [--json]")
		fmt.Fprintln(os.Stderr, "       scrollfocus layout --list")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Print the per-plane byte sizes of one frame. The format is a name")
		fmt.Fprintln(os.Stderr, "such as I420 or a numeric format token.")
	}
	pos, err := parseInterspersed(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *list {
		for _, f := range framelayout.Formats() {
			fmt.Fprintf(w, "%2d  %s\n", int(f), f)
		}
		return 0
	}
	if len(pos) != 3 {
		fs.Usage()
		return 2
	}

	width, err := parseDimension("width", pos[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	height, err := parseDimension("height", pos[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	data, err := ipc.ComputeLayout(ipc.LayoutPayload{Format: pos[0], Width: width, Height: height})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	printLayout(w, data)
	return 0
}

func printLayout(w io.Writer, data *ipc.LayoutData) {
	fmt.Fprintf(w, "format: %s %dx%d\n", data.Format, data.Width, data.Height)
	fmt.Fprintf(w, "kind:   %s\n", data.Kind)
	if !data.Known {
		fmt.Fprintln(w, "layout: unknown")
		return
	}
	for i, size := range data.Planes {
		fmt.Fprintf(w, "plane %d: %d bytes\n", i, size)
	}
	fmt.Fprintf(w, "total:  %d bytes\n", data.Total)
}

func runProbe(args []string, w io.Writer) int {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	formatName := fs.String("format", "I420", "Pixel format of the dump")
	width := fs.Uint("width", 0, "Frame width in pixels")
	height := fs.Uint("height", 0, "Frame height in pixels")
	frame := fs.Int("frame", 0, "Index of the frame to inspect in a multi-frame dump")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: scrollfocus probe --format F --width W --height H [--frame N] <file>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Inspect a raw dump of tightly packed frames and print per-plane statistics.")
		fs.PrintDefaults()
	}
	pos, err := parseInterspersed(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if len(pos) != 1 || *width == 0 || *height == 0 || *frame < 0 {
		fs.Usage()
		return 2
	}

	format, err := framelayout.ParsePixelFormat(*formatName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	buf, err := os.ReadFile(pos[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := probeFrame(w, format, uint32(*width), uint32(*height), *frame, buf); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func probeFrame(w io.Writer, format framelayout.PixelFormat, width, height uint32, index int, buf []byte) error {
	total, ok := framelayout.FrameSize(format, width, height).Total()
	if !ok || total == 0 {
		return fmt.Errorf("%w: format %s", media.ErrUnknownLayout, format)
	}
	frames := len(buf) / total
	if index >= frames {
		return fmt.Errorf("frame %d out of range: file holds %d whole frames of %d bytes", index, frames, total)
	}

	start := index * total
	planes, err := media.SplitPlanes(format, width, height, buf[start:start+total])
	if err != nil {
		return err
	}
	view, err := media.NewVideoFrameView(format, width, height, planes, nil, uint64(index))
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "format: %s %dx%d\n", view.Format(), view.Width(), view.Height())
	fmt.Fprintf(w, "frame:  %d of %d (%d bytes each)\n", index, frames, total)
	if rest := len(buf) % total; rest != 0 {
		fmt.Fprintf(w, "trailing bytes: %d\n", rest)
	}
	for i := 0; i < view.PlaneCount(); i++ {
		st, _ := view.PlaneStats(i)
		fmt.Fprintf(w, "plane %d: %d bytes min=%d max=%d mean=%.2f\n", i, st.Bytes, st.Min, st.Max, st.Mean)
	}
	return nil
}
