package healthcheck

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/l3aro/cfgview/internal/config"
	"github.com/l3aro/cfgview/pkg/cfg"
)

func statusOf(t *testing.T, r *HealthCheckResult, name string) CheckStatus {
	t.Helper()
	for _, c := range r.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no %q check in %+v", name, r.Checks)
	return CheckStatus{}
}

func TestCheckWithNilInputs(t *testing.T) {
	if _, err := Check(nil, "", &cfg.Function{}); err == nil {
		t.Error("Expected error for nil config, got nil")
	}
	if _, err := Check(config.DefaultConfig(), "", nil); err == nil {
		t.Error("Expected error for nil payload, got nil")
	}
}

func TestCheckFixture(t *testing.T) {
	fn, err := cfg.Load("../../testdata/loop.json")
	if err != nil {
		t.Fatal(err)
	}

	result, err := Check(config.DefaultConfig(), "", fn)
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if result.Failed() {
		t.Errorf("Failed() = true for a clean payload: %+v", result.Checks)
	}
	if result.Function != "Function countdown from examples/countdown.py" {
		t.Errorf("Function = %q", result.Function)
	}
	for _, c := range result.Checks {
		if c.Status != StatusOK {
			t.Errorf("check %q = %s (%s), want ok", c.Name, c.Status, c.Detail)
		}
	}
}

func TestCheckReportsProblems(t *testing.T) {
	fn := &cfg.Function{
		Name:            "f",
		FileLocation:    "f.txt",
		FirstLine:       1,
		SourceCodeLines: []string{"a", "b"},
		Nodes: []cfg.BasicBlock{
			{ID: "A", SourceCodeLineNumbers: []int{1}},
			{ID: "B", SourceCodeLineNumbers: []int{1, 9}},
			{ID: "C"},
		},
		DistToNodes: cfg.DistanceMap{0: {"A"}, 1: {"B"}},
	}

	tests := []struct {
		name   string
		check  string
		strict bool
		want   string
		detail string
	}{
		{"conflict warns", "line ownership", false, StatusWarn, "line 1: B over A"},
		{"conflict errors when strict", "line ownership", true, StatusError, "line 1"},
		{"unmapped", "unmapped blocks", false, StatusWarn, "C"},
		{"out of range line", "source range", false, StatusWarn, "B:9"},
		{"unreachable", "reachability", false, StatusWarn, "C"},
		{"no grammar", "highlighting", false, StatusSkip, "f.txt"},
		{"still lays out", "layout", false, StatusOK, "3 nodes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := config.DefaultConfig()
			conf.StrictLines = tt.strict
			result, err := Check(conf, "", fn)
			if err != nil {
				t.Fatalf("Check() failed: %v", err)
			}
			c := statusOf(t, result, tt.check)
			if c.Status != tt.want {
				t.Errorf("%s status = %q, want %q", tt.check, c.Status, tt.want)
			}
			if !strings.Contains(c.Detail, tt.detail) {
				t.Errorf("%s detail = %q, want it to contain %q", tt.check, c.Detail, tt.detail)
			}
		})
	}
}

func TestCheckInvalidPayloadSkipsRest(t *testing.T) {
	fn := &cfg.Function{
		Name:  "f",
		Nodes: []cfg.BasicBlock{{ID: "A"}},
		Links: []cfg.Edge{{Source: "A", Target: "Z"}},
	}
	result, err := Check(config.DefaultConfig(), "", fn)
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if !result.Failed() {
		t.Error("Failed() = false for an invalid payload")
	}
	if c := statusOf(t, result, "layout"); c.Status != StatusSkip {
		t.Errorf("layout status = %q, want skip", c.Status)
	}
}

func TestCheckHighlightDisabled(t *testing.T) {
	fn, err := cfg.Load("../../testdata/loop.json")
	if err != nil {
		t.Fatal(err)
	}
	conf := config.DefaultConfig()
	conf.Table.Highlight = false

	result, err := Check(conf, "", fn)
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if c := statusOf(t, result, "highlighting"); c.Status != StatusSkip {
		t.Errorf("highlighting status = %q, want skip", c.Status)
	}
}

func TestScopeFromPath(t *testing.T) {
	home, _ := os.UserHomeDir()
	globalPath := ""
	if home != "" {
		globalPath = filepath.Join(home, ".cfgview", "config.yaml")
	}

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"empty path", "", ""},
		{"global path", globalPath, "global"},
		{"project path", "/project/.cfgview/config.yaml", "project"},
		{"relative project path", ".cfgview/config.yaml", "project"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.path == "" && tt.expected != "" {
				t.Skip("no home directory")
			}
			result := scopeFromPath(tt.path)
			if result != tt.expected {
				t.Errorf("scopeFromPath(%q) = %q, want %q", tt.path, result, tt.expected)
			}
		})
	}
}
