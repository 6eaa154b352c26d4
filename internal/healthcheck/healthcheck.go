// Package healthcheck runs environment probes used by the "doctor" command:
// it verifies the workspace's .tldrs state directory is writable, the
// delivery database is openable, and the git binary the diff engine shells
// out to is on PATH.
package healthcheck

import (
	"database/sql"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/l3aro/tldrs/internal/config"
)

// CheckStatus is the outcome of a single probe.
type CheckStatus string

const (
	StatusOK    CheckStatus = "ok"
	StatusWarn  CheckStatus = "warn"
	StatusError CheckStatus = "error"
)

// Check is the result of one named probe.
type Check struct {
	Name   string
	Status CheckStatus
	Detail string
}

// Result aggregates every probe run against a workspace.
type Result struct {
	WorkspaceRoot string
	ConfigPath    string
	Checks        []Check
}

// HasErrors reports whether any check in the result failed outright.
func (r *Result) HasErrors() bool {
	for _, c := range r.Checks {
		if c.Status == StatusError {
			return true
		}
	}
	return false
}

// Run executes all doctor probes against workspaceRoot using cfg.
func Run(cfg *config.Config, workspaceRoot string) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	result := &Result{
		WorkspaceRoot: workspaceRoot,
		ConfigPath:    filepath.Join(workspaceRoot, ".tldrs", "config.yaml"),
	}

	result.Checks = append(result.Checks, checkStateDir(workspaceRoot))
	result.Checks = append(result.Checks, checkDeliveryDB(workspaceRoot))
	result.Checks = append(result.Checks, checkGitBinary())

	return result, nil
}

// checkStateDir verifies .tldrs/ exists (or can be created) and is writable.
func checkStateDir(workspaceRoot string) Check {
	dir := filepath.Join(workspaceRoot, ".tldrs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Check{Name: "state_dir", Status: StatusError, Detail: err.Error()}
	}

	probe := filepath.Join(dir, ".doctor-write-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return Check{Name: "state_dir", Status: StatusError, Detail: fmt.Sprintf("not writable: %v", err)}
	}
	_ = os.Remove(probe)

	return Check{Name: "state_dir", Status: StatusOK, Detail: dir}
}

// checkDeliveryDB verifies the sqlite driver can open (or create) vhs.db.
func checkDeliveryDB(workspaceRoot string) Check {
	dbPath := filepath.Join(workspaceRoot, ".tldrs", "vhs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return Check{Name: "delivery_db", Status: StatusError, Detail: err.Error()}
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return Check{Name: "delivery_db", Status: StatusError, Detail: err.Error()}
	}

	return Check{Name: "delivery_db", Status: StatusOK, Detail: dbPath}
}

// checkGitBinary verifies git is reachable for difflens's subprocess invocation.
func checkGitBinary() Check {
	path, err := exec.LookPath("git")
	if err != nil {
		return Check{
			Name:   "git_binary",
			Status: StatusWarn,
			Detail: "git not found on PATH; difflens will treat diffs as empty",
		}
	}
	return Check{Name: "git_binary", Status: StatusOK, Detail: path}
}
