package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	rserrors "github.com/matzehuels/regionsync/pkg/errors"
	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/graph"
	"github.com/matzehuels/regionsync/pkg/layout"
	"github.com/matzehuels/regionsync/pkg/network"
	"github.com/matzehuels/regionsync/pkg/txn"
)

// writeTestDoc writes the chain a -> b -> c with instance I1 (regions R1
// {a, b} and R2 {c}) and a root layout, and returns its path.
func writeTestDoc(t *testing.T) string {
	t.Helper()
	doc := graph.Document{
		Network: graph.Network{
			Nodes: []graph.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
			Links: []graph.Link{
				{ID: "ab", Source: "a", Target: "b"},
				{ID: "bc", Source: "b", Target: "c"},
			},
		},
		Instances: []graph.Instance{{
			ID:      "I1",
			Regions: []graph.Region{{ID: "R1"}, {ID: "R2"}},
			Nodes: []network.InstanceNode{
				{ID: "a:1", Backing: "a", Region: "R1"},
				{ID: "b:1", Backing: "b", Region: "R1"},
				{ID: "c:1", Backing: "c", Region: "R2"},
			},
			Links: []network.InstanceLink{
				{ID: "ab:1", Backing: "ab", Source: "a:1", Target: "b:1"},
				{ID: "bc:1", Backing: "bc", Source: "b:1", Target: "c:1"},
			},
		}},
	}
	l := layout.New(graph.RootLayout)
	l.SetNode(layout.NodeProps{ID: "a", Location: geom.Pt(0, 0)})
	l.SetNode(layout.NodeProps{ID: "b", Location: geom.Pt(200, 0)})
	l.SetNode(layout.NodeProps{ID: "c", Location: geom.Pt(400, 0)})
	doc.SetLayout(graph.RootLayout, l)

	path := filepath.Join(t.TempDir(), "project.json")
	if err := graph.WriteDocumentFile(doc, path); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command with args in an isolated environment.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(base, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(base, "data"))

	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestParseColors(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{"Empty", nil, nil, false},
		{"Pairs", []string{"a=#ff0000", "b=blue"}, map[string]string{"a": "#ff0000", "b": "blue"}, false},
		{"MissingEquals", []string{"a"}, nil, true},
		{"EmptyColor", []string{"a="}, nil, true},
		{"EmptySource", []string{"=#fff"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseColors(tt.pairs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseColors() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseColors() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("parseColors()[%s] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestLoadLayoutOptions(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	opts, err := loadLayoutOptions("")
	if err != nil {
		t.Fatalf("loadLayoutOptions() without config error = %v", err)
	}
	if opts.BorderSize != 1 {
		t.Errorf("BorderSize = %d, want default 1", opts.BorderSize)
	}

	dir := filepath.Join(base, appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, configFile), []byte("border_size = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	opts, err = loadLayoutOptions("")
	if err != nil {
		t.Fatalf("loadLayoutOptions() with config error = %v", err)
	}
	if opts.BorderSize != 3 {
		t.Errorf("BorderSize = %d, want 3 from config file", opts.BorderSize)
	}

	_, err = loadLayoutOptions(filepath.Join(base, "missing.toml"))
	if !rserrors.Is(err, rserrors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing config error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestClearDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"ab/1.json", "ab/2.json", "cd/3.json"} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	count, err := clearDir(dir)
	if err != nil {
		t.Fatalf("clearDir() error = %v", err)
	}
	if count != 3 {
		t.Errorf("clearDir() = %d, want 3", count)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("%d entries left in cache dir", len(entries))
	}
}

func TestHistoryTable(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	deltas := []txn.Delta{
		{ID: "old", Label: "fresh-layout", Finished: now.Add(-2 * time.Hour), AddedNodes: []string{"a", "b"}},
		{ID: "new", Label: "incremental", Finished: now.Add(-5 * time.Minute), MovedNodes: []string{"a"}},
	}

	out := historyTable(deltas, 0, now)
	for _, want := range []string{"fresh-layout", "incremental", "+2 -0 ~0", "5m ago", "2h ago"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "incremental") > strings.Index(out, "fresh-layout") {
		t.Error("newest entry not listed first")
	}

	limited := historyTable(deltas, 1, now)
	if strings.Contains(limited, "fresh-layout") {
		t.Errorf("limit 1 kept the older entry:\n%s", limited)
	}
}

func TestProgressModel(t *testing.T) {
	stops := 0
	var m tea.Model = NewProgressModel("Syncing", make(chan float64), func() { stops++ })

	m, _ = m.Update(progressMsg(0.5))
	m, _ = m.Update(progressMsg(0.25))
	if got := m.(ProgressModel).Fraction; got != 0.5 {
		t.Errorf("Fraction = %v, want 0.5 (progress never goes back)", got)
	}
	if !strings.Contains(m.View(), "50%") {
		t.Errorf("View() = %q, want 50%%", m.View())
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if stops != 1 {
		t.Errorf("stop called %d times, want 1", stops)
	}
	if !m.(ProgressModel).Stopping {
		t.Error("model not stopping after ctrl+c")
	}

	m, cmd := m.Update(doneMsg{})
	if cmd == nil {
		t.Error("done did not quit")
	}
	if got := m.(ProgressModel).Fraction; got != 1 {
		t.Errorf("Fraction after done = %v, want 1", got)
	}
}

func TestSyncCommand(t *testing.T) {
	input := writeTestDoc(t)
	output := filepath.Join(t.TempDir(), "out.json")

	err := execute(t, "sync", input, "--instance", "I1", "--strategy", "direct-copy", "--no-cache", "-o", output)
	if err != nil {
		t.Fatalf("sync error = %v", err)
	}
	doc, err := graph.ReadDocumentFile(output)
	if err != nil {
		t.Fatal(err)
	}
	l, ok := doc.Layout("I1")
	if !ok {
		t.Fatal("instance layout not written")
	}
	if got := l.Nodes["a:1"].Location; !got.Eq(geom.Pt(0, 0)) {
		t.Errorf("a:1 = %v, want (0,0)", got)
	}

	in, err := graph.ReadDocumentFile(input)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := in.Layout("I1"); ok {
		t.Error("input rewritten although -o was given")
	}
}

func TestSyncCommandErrors(t *testing.T) {
	input := writeTestDoc(t)
	tests := []struct {
		name string
		args []string
	}{
		{"MissingInstance", []string{"sync", input}},
		{"UnknownInstance", []string{"sync", input, "--instance", "I9", "--no-cache"}},
		{"BadColor", []string{"sync", input, "--instance", "I1", "--color", "nocolor"}},
		{"MissingFile", []string{"sync", filepath.Join(t.TempDir(), "none.json"), "--instance", "I1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := execute(t, tt.args...); err == nil {
				t.Error("error = nil")
			}
		})
	}
}

func TestRouteCommandInPlace(t *testing.T) {
	input := writeTestDoc(t)
	if err := execute(t, "route", input, "--no-cache"); err != nil {
		t.Fatalf("route error = %v", err)
	}
	doc, err := graph.ReadDocumentFile(input)
	if err != nil {
		t.Fatal(err)
	}
	if !doc.Layouts[graph.RootLayout].HasLink("ab") {
		t.Error("link ab not routed in rewritten input")
	}
}

func TestRegionsCommand(t *testing.T) {
	input := writeTestDoc(t)
	output := filepath.Join(t.TempDir(), "regions.dot")

	if err := execute(t, "regions", input, "--instance", "I1", "--format", "dot", "-o", output); err != nil {
		t.Fatalf("regions error = %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"R1" -> "R2"`) {
		t.Errorf("dot output missing edge:\n%s", data)
	}

	if err := execute(t, "regions", input, "--instance", "I1", "--format", "png"); err == nil {
		t.Error("regions --format png error = nil")
	}
}
