package healthcheck

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/l3aro/cfgview/internal/config"
	"github.com/l3aro/cfgview/pkg/blockindex"
	"github.com/l3aro/cfgview/pkg/cfg"
	"github.com/l3aro/cfgview/pkg/highlight"
	"github.com/l3aro/cfgview/pkg/view"
)

// Statuses reported per check.
const (
	StatusOK    = "ok"
	StatusWarn  = "warn"
	StatusError = "error"
	StatusSkip  = "skip"
)

// CheckStatus is the outcome of one check.
type CheckStatus struct {
	Name   string
	Status string // "ok", "warn", "error" or "skip"
	Detail string
}

// HealthCheckResult contains the full health check output for display.
type HealthCheckResult struct {
	ConfigPath  string
	ConfigScope string // "global", "project" or "" for defaults
	Function    string
	Checks      []CheckStatus
}

// Failed reports whether any check errored.
func (r *HealthCheckResult) Failed() bool {
	for _, c := range r.Checks {
		if c.Status == StatusError {
			return true
		}
	}
	return false
}

// Check inspects a payload against the given config: id references, line
// ownership, reachability and whether a view can be laid out.
// configPath is the config file in use (empty when running on defaults).
func Check(conf *config.Config, configPath string, fn *cfg.Function) (*HealthCheckResult, error) {
	if conf == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if fn == nil {
		return nil, fmt.Errorf("payload is nil")
	}

	result := &HealthCheckResult{
		ConfigPath:  configPath,
		ConfigScope: scopeFromPath(configPath),
		Function:    fn.Caption(),
	}
	add := func(name, status, detail string) {
		result.Checks = append(result.Checks, CheckStatus{Name: name, Status: status, Detail: detail})
	}

	if err := fn.Validate(); err != nil {
		add("references", StatusError, err.Error())
		for _, name := range []string{"line ownership", "unmapped blocks", "source range", "reachability", "highlighting", "layout"} {
			add(name, StatusSkip, "payload is invalid")
		}
		return result, nil
	}
	add("references", StatusOK, fmt.Sprintf("%d blocks, %d edges", len(fn.Nodes), len(fn.Links)))

	idx, err := blockindex.Build(fn.Nodes)
	if err != nil {
		add("line ownership", StatusError, err.Error())
	} else {
		result.Checks = append(result.Checks,
			checkConflicts(idx, conf.StrictLines),
			checkUnmapped(idx),
		)
	}
	result.Checks = append(result.Checks, checkRange(fn), checkReachability(fn))

	if !conf.Table.Highlight {
		add("highlighting", StatusSkip, "disabled in config")
	} else if highlight.Supported(fn.FileLocation) {
		add("highlighting", StatusOK, filepath.Ext(fn.FileLocation))
	} else {
		add("highlighting", StatusSkip, "no grammar for "+fn.FileLocation)
	}

	opts := conf.ViewOptions()
	v, err := view.Build(fn, opts, nil)
	if err != nil {
		add("layout", StatusError, err.Error())
	} else {
		f := v.Frame()
		add("layout", StatusOK, fmt.Sprintf("%d nodes, %d edges in %gx%g", len(f.Nodes), len(f.Edges), f.Width, f.Height))
	}

	return result, nil
}

func checkConflicts(idx *blockindex.Index, strict bool) CheckStatus {
	conflicts := idx.Conflicts()
	if len(conflicts) == 0 {
		return CheckStatus{Name: "line ownership", Status: StatusOK, Detail: "every line has one owner"}
	}
	parts := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		parts = append(parts, fmt.Sprintf("line %d: %s over %s", c.Line, c.Owner, c.Previous))
	}
	status := StatusWarn
	if strict {
		status = StatusError
	}
	return CheckStatus{Name: "line ownership", Status: status, Detail: strings.Join(parts, "; ")}
}

func checkUnmapped(idx *blockindex.Index) CheckStatus {
	ids := idx.Unmapped()
	if len(ids) == 0 {
		return CheckStatus{Name: "unmapped blocks", Status: StatusOK, Detail: "none"}
	}
	return CheckStatus{Name: "unmapped blocks", Status: StatusWarn, Detail: joinIDs(ids)}
}

// checkRange flags line numbers outside the function's source lines. Those
// lines are never shown.
func checkRange(fn *cfg.Function) CheckStatus {
	last := fn.FirstLine + len(fn.SourceCodeLines) - 1
	var out []string
	for _, b := range fn.Nodes {
		for _, n := range b.SourceCodeLineNumbers {
			if n < fn.FirstLine || n > last {
				out = append(out, fmt.Sprintf("%s:%d", b.ID, n))
			}
		}
	}
	if len(out) == 0 {
		return CheckStatus{Name: "source range", Status: StatusOK, Detail: fmt.Sprintf("lines %d-%d", fn.FirstLine, last)}
	}
	return CheckStatus{Name: "source range", Status: StatusWarn, Detail: "outside source: " + strings.Join(out, ", ")}
}

func checkReachability(fn *cfg.Function) CheckStatus {
	placed := make(map[cfg.BlockID]bool)
	for _, ids := range fn.DistToNodes {
		for _, id := range ids {
			placed[id] = true
		}
	}
	var missing []cfg.BlockID
	for _, b := range fn.Nodes {
		if !placed[b.ID] {
			missing = append(missing, b.ID)
		}
	}
	if len(missing) == 0 {
		return CheckStatus{Name: "reachability", Status: StatusOK, Detail: fmt.Sprintf("%d levels", len(fn.DistToNodes.Levels()))}
	}
	return CheckStatus{Name: "reachability", Status: StatusWarn, Detail: "not in dist_to_nodes: " + joinIDs(missing)}
}

func joinIDs(ids []cfg.BlockID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}

// scopeFromPath determines "global" or "project" scope from a config file path.
// Returns empty string if path is empty.
func scopeFromPath(path string) string {
	if path == "" {
		return ""
	}

	home, err := os.UserHomeDir()
	if err == nil {
		globalDir := filepath.Join(home, ".cfgview")
		if strings.HasPrefix(path, globalDir) {
			return "global"
		}
	}

	return "project"
}
