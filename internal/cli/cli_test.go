package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testPage = `
title = "Home"

[viewport]
width = 300
height = 200

[[roots]]
type = "Panel"
key = "page"
position = { kind = "grid", cols = 3 }
place = { left = "0", top = "0", width = "300", height = "200" }

  [[roots.children]]
  type = "Label"
  key = "title"
  props = { text = "Hi" }

  [[roots.children]]
  key = "slot"
  place = { cols = 2 }

[[units]]
name = "charts"
mount = "slot"
assets = ["module:charts"]

  [[units.roots]]
  type = "Rect"
  key = "chart"
`

// run executes one command line on a fresh root and returns what the
// command wrote to CLI.Out.
func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	c := New(io.Discard, LogInfo)
	c.Out = &out
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out.String()
}

func TestRootCommand(t *testing.T) {
	var names []string
	for _, cmd := range New(io.Discard, LogInfo).RootCommand().Commands() {
		names = append(names, cmd.Name())
	}
	want := []string{"cache", "completion", "dot", "hydrate", "inspect", "pack"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	page := filepath.Join(dir, "home.toml")
	if err := os.WriteFile(page, []byte(testPage), 0o644); err != nil {
		t.Fatal(err)
	}
	desc := filepath.Join(dir, "home.json")

	run(t, "pack", page, "-o", desc)
	if data, err := os.ReadFile(desc); err != nil || !strings.Contains(string(data), `"name": "charts"`) {
		t.Fatalf("descriptor = %s, %v", data, err)
	}
	if out := run(t, "pack", page); !strings.Contains(out, `"mount": "slot"`) {
		t.Errorf("pack to stdout = %s", out)
	}

	live := filepath.Join(dir, "live.html")
	run(t, "hydrate", desc, "-m", "charts", "--verify", "-o", live)
	if data, err := os.ReadFile(live); err != nil || !strings.Contains(string(data), `data-k="chart"`) {
		t.Errorf("hydrated markup = %s, %v", data, err)
	}

	if out := run(t, "dot", desc, "-m", "charts"); !strings.Contains(out, "digraph widgets") {
		t.Errorf("dot = %s", out)
	}

	out := run(t, "inspect", page, "-m", "charts", "--plain", "-q", "//*[@data-k='chart']")
	if !strings.Contains(out, "chart") || strings.Contains(out, "title") {
		t.Errorf("inspect = %s", out)
	}

	if out := run(t, "cache", "path"); strings.TrimSpace(out) != filepath.Join(dir, "cache", appName) {
		t.Errorf("cache path = %q", out)
	}
	run(t, "cache", "clear")
}
