package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/scrollfocus/internal/framelayout"
	"github.com/1broseidon/scrollfocus/internal/ipc"
	"github.com/1broseidon/scrollfocus/internal/x11"
)

func TestRunLayoutText(t *testing.T) {
	var out bytes.Buffer
	if rc := runLayout([]string{"i420", "5", "3"}, &out); rc != 0 {
		t.Fatalf("runLayout rc=%d, want 0", rc)
	}
	got := out.String()
	for _, want := range []string{"format: I420 5x3", "plane 0: 15 bytes", "plane 2: 6 bytes", "total:  27 bytes"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunLayoutJSONAfterPositionals(t *testing.T) {
	var out bytes.Buffer
	if rc := runLayout([]string{"NV12", "4", "4", "--json"}, &out); rc != 0 {
		t.Fatalf("runLayout rc=%d, want 0", rc)
	}
	var data ipc.LayoutData
	if err := json.Unmarshal(out.Bytes(), &data); err != nil {
		t.Fatalf("decode: %v\n%s", err, out.String())
	}
	if !data.Known || data.Total != 32 || len(data.Planes) != 2 {
		t.Fatalf("unexpected layout %+v", data)
	}
}

func TestRunLayoutUnknownToken(t *testing.T) {
	var out bytes.Buffer
	if rc := runLayout([]string{"99", "4", "4"}, &out); rc != 0 {
		t.Fatalf("runLayout rc=%d, want 0", rc)
	}
	if !strings.Contains(out.String(), "layout: unknown") {
		t.Fatalf("expected unknown layout, got:\n%s", out.String())
	}
}

func TestRunLayoutBadArgs(t *testing.T) {
	var out bytes.Buffer
	if rc := runLayout([]string{"I420", "5"}, &out); rc != 2 {
		t.Fatalf("rc=%d, want 2", rc)
	}
	if rc := runLayout([]string{"I420", "five", "3"}, &out); rc != 2 {
		t.Fatalf("rc=%d, want 2", rc)
	}
	if rc := runLayout([]string{"RGB565", "5", "3"}, &out); rc != 1 {
		t.Fatalf("rc=%d, want 1", rc)
	}
}

func TestProbeFrame(t *testing.T) {
	// Two 2x2 I420 frames of 6 bytes each, plus one trailing byte.
	buf := []byte{
		1, 2, 3, 4, 5, 6,
		10, 20, 30, 40, 128, 200,
		7,
	}
	var out bytes.Buffer
	if err := probeFrame(&out, framelayout.I420, 2, 2, 1, buf); err != nil {
		t.Fatalf("probeFrame: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"frame:  1 of 2 (6 bytes each)",
		"trailing bytes: 1",
		"plane 0: 4 bytes min=10 max=40 mean=25.00",
		"plane 1: 1 bytes min=128 max=128",
		"plane 2: 1 bytes min=200 max=200",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}

	if err := probeFrame(&out, framelayout.I420, 2, 2, 2, buf); err == nil {
		t.Fatalf("expected out of range error")
	}
	if err := probeFrame(&out, framelayout.None, 2, 2, 0, buf); err == nil {
		t.Fatalf("expected unknown layout error")
	}
}

func TestRunProbeReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.raw")
	if err := os.WriteFile(path, make([]byte, 16), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out bytes.Buffer
	if rc := runProbe([]string{path, "--format", "RGBA", "--width", "2", "--height", "2"}, &out); rc != 0 {
		t.Fatalf("runProbe rc=%d, want 0", rc)
	}
	if !strings.Contains(out.String(), "plane 0: 16 bytes min=0 max=0") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
	if rc := runProbe([]string{path}, &out); rc != 2 {
		t.Fatalf("rc=%d, want 2 without dimensions", rc)
	}
}

func TestRunConfigExplainAndPrint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("filter:\n  zoom: 0.75\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out bytes.Buffer
	if rc := runConfig([]string{"explain", "--path", path, "filter.zoom"}, &out); rc != 0 {
		t.Fatalf("explain rc=%d", rc)
	}
	if !strings.Contains(out.String(), "source: file:"+path+":2:") || !strings.Contains(out.String(), "value: 0.75") {
		t.Fatalf("unexpected explain output:\n%s", out.String())
	}

	out.Reset()
	if rc := runConfig([]string{"print", "--path", path}, &out); rc != 0 {
		t.Fatalf("print rc=%d", rc)
	}
	if !strings.Contains(out.String(), "zoom: 0.75") {
		t.Fatalf("unexpected print output:\n%s", out.String())
	}

	out.Reset()
	if rc := runConfig([]string{"validate", "--path", path}, &out); rc != 0 {
		t.Fatalf("validate rc=%d", rc)
	}
	if strings.TrimSpace(out.String()) != "config: ok" {
		t.Fatalf("unexpected validate output: %q", out.String())
	}
}

func TestRunConfigValidateRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("render:\n  fps: 0\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out bytes.Buffer
	if rc := runConfig([]string{"validate", "--path", path}, &out); rc != 1 {
		t.Fatalf("validate rc=%d, want 1", rc)
	}
	if rc := runConfig([]string{"frobnicate"}, &out); rc != 2 {
		t.Fatalf("unknown subcommand rc=%d, want 2", rc)
	}
}

func TestPrintMonitors(t *testing.T) {
	monitors := []x11.Monitor{
		{ID: 0, Name: "DP-1", Width: 1920, Height: 1080},
		{ID: 1, Name: "HDMI-1", X: 1920, Width: 2560, Height: 1440},
	}
	var out bytes.Buffer
	printMonitors(&out, monitors, 1)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[1], "* 1 HDMI-1") || !strings.Contains(lines[1], "2560x1440+1920+0") {
		t.Fatalf("unexpected active line %q", lines[1])
	}
	if strings.HasPrefix(lines[0], "*") {
		t.Fatalf("inactive monitor marked: %q", lines[0])
	}

	out.Reset()
	printMonitors(&out, nil, -1)
	if strings.TrimSpace(out.String()) != "no monitors" {
		t.Fatalf("unexpected output %q", out.String())
	}
}
