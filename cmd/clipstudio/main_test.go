package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[backend]") {
		t.Fatalf("sample config missing backend section:\n%s", data)
	}

	// A second run without --overwrite refuses to clobber the file.
	cmd = newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestParseScheduleTime(t *testing.T) {
	at, err := parseScheduleTime("2026-03-01 18:30")
	if err != nil {
		t.Fatalf("parseScheduleTime: %v", err)
	}
	want := time.Date(2026, 3, 1, 18, 30, 0, 0, time.Local)
	if !at.Equal(want) {
		t.Fatalf("parsed %v, want %v", at, want)
	}

	if _, err := parseScheduleTime("tomorrow"); err == nil {
		t.Fatal("expected error for unparseable time")
	}
}

func TestShouldSkipConfigWalksParents(t *testing.T) {
	parent := &cobra.Command{Use: "parent", Annotations: map[string]string{"skipConfigLoad": "true"}}
	child := &cobra.Command{Use: "child"}
	parent.AddCommand(child)

	if !shouldSkipConfig(child) {
		t.Fatal("child should inherit skipConfigLoad from parent")
	}
	if shouldSkipConfig(&cobra.Command{Use: "other"}) {
		t.Fatal("unannotated command should not skip config")
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	rendered := renderTable(
		[]tableColumn{{title: "Clip"}, {title: "Window"}},
		[][]string{{"clip-1", "0:05-0:45"}, {"clip-2"}},
	)
	if !strings.Contains(rendered, "clip-1") || !strings.Contains(rendered, "clip-2") {
		t.Fatalf("rows missing from table:\n%s", rendered)
	}
}

func TestRenderStatusLineAlignsLabels(t *testing.T) {
	stage := renderStatusLine("Stage", statusInfo, "fine_tune", false)
	ready := renderStatusLine("Publish ready", statusOK, "yes", false)
	if strings.Index(stage, "[INFO]") != strings.Index(ready, "[OK]") {
		t.Fatalf("tags misaligned:\n%q\n%q", stage, ready)
	}
	if strings.Contains(stage, ansiReset) {
		t.Fatalf("uncolored line carries ANSI codes: %q", stage)
	}
	colored := renderStatusLine("Stage", statusError, "boom", true)
	if !strings.Contains(colored, ansiRed) || !strings.Contains(colored, ansiReset) {
		t.Fatalf("colored line missing ANSI tag: %q", colored)
	}
}

func TestYesNo(t *testing.T) {
	if yesNo(true) != "yes" || yesNo(false) != "no" {
		t.Fatal("yesNo mapping broken")
	}
}
