// Package commands provides the CLI commands for the tldrs tool.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/l3aro/tldrs/internal/config"
	"github.com/l3aro/tldrs/pkg/blobstore"
	"github.com/l3aro/tldrs/pkg/delivery"
	"github.com/l3aro/tldrs/pkg/format"
	"github.com/l3aro/tldrs/pkg/pack"
	"github.com/l3aro/tldrs/pkg/project"
	"github.com/l3aro/tldrs/pkg/symbolkite"
)

// contextCmd represents the context command
var contextCmd = &cobra.Command{
	Use:   "context <entry>",
	Short: "Get an LLM-ready context pack from an entry point",
	Long: `Walks the call graph from an entry point (a qualified symbol, a
bare name, or a module path) and renders a token-budgeted context pack:
a ranked, optionally delta-aware set of signatures and code bodies ready
to hand to an LLM.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entryPoint := args[0]

		absPath, err := filepath.Abs(entryPoint)
		if err != nil {
			return fmt.Errorf("getting absolute path: %w", err)
		}

		rootDir := findProjectRoot(absPath)

		cfg, err := config.Load(rootDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		idx, err := project.Build(rootDir, project.BuildOptions{
			IncludeSource:   true,
			IncludeRanges:   true,
			IgnoreFileName:  cfg.IgnoreFileName,
			DefaultExcludes: cfg.DefaultExcludes,
			PackageFilter:   cfg.PackageFilter,
		})
		if err != nil {
			return fmt.Errorf("building project index: %w", err)
		}

		relEntry, err := filepath.Rel(rootDir, absPath)
		if err != nil {
			relEntry = entryPoint
		}

		depth, _ := cmd.Flags().GetInt("depth")
		budget, _ := cmd.Flags().GetInt("budget")
		if budget <= 0 {
			budget = cfg.DefaultBudgetTokens
		}
		noDelta, _ := cmd.Flags().GetBool("no-delta")
		sessionID, _ := cmd.Flags().GetString("session")

		candidates, err := symbolkite.Walk(idx, relEntry, depth, symbolkite.Options{AllowDisambiguate: true})
		if err != nil {
			return fmt.Errorf("walking call graph from %q: %w", entryPoint, err)
		}

		builder := pack.New(idx)

		var contextPack *pack.ContextPack
		if noDelta {
			contextPack = builder.Build(candidates, budget)
		} else {
			contextPack, err = deliverWithSession(rootDir, cfg, sessionID, builder, candidates, budget)
			if err != nil {
				return err
			}
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			out, err := format.JSON(contextPack, true)
			if err != nil {
				return fmt.Errorf("rendering JSON: %w", err)
			}
			fmt.Println(out)
		} else {
			fmt.Println(format.Ultracompact(contextPack))
		}

		return nil
	},
}

// deliverWithSession opens the workspace's delivery cache, resolves which
// session to deliver against (an explicit --session flag or the
// workspace's persistent default session), and runs the delta-aware
// delivery orchestration against it.
func deliverWithSession(rootDir string, cfg *config.Config, sessionID string, builder *pack.Builder, candidates []project.Candidate, budget int) (*pack.ContextPack, error) {
	dbPath := filepath.Join(rootDir, ".tldrs", "vhs.db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating .tldrs directory: %w", err)
	}

	store, err := delivery.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening delivery cache: %w", err)
	}
	defer store.Close()

	blobs, err := blobstore.Open(rootDir)
	if err != nil {
		return nil, fmt.Errorf("opening blob store: %w", err)
	}
	defer blobs.Close()

	if sessionID == "" && cfg.UseDefaultSession {
		sessionID, err = delivery.DefaultSessionID(rootDir)
		if err != nil {
			return nil, fmt.Errorf("resolving default session: %w", err)
		}
	}
	if sessionID == "" {
		sessionID, err = delivery.NewSessionID()
		if err != nil {
			return nil, fmt.Errorf("generating session id: %w", err)
		}
	}

	if err := store.OpenSession(sessionID, "", ""); err != nil {
		return nil, fmt.Errorf("opening session %q: %w", sessionID, err)
	}
	if cfg.SessionTTLSeconds > 0 {
		if _, err := store.CleanupExpired(cfg.SessionTTLSeconds); err != nil {
			return nil, fmt.Errorf("cleaning up expired sessions: %w", err)
		}
	}

	return delivery.Deliver(store, builder, sessionID, candidates, budget, blobs)
}

// findProjectRoot finds the project root directory for a path by walking
// up looking for common project markers.
func findProjectRoot(filePath string) string {
	dir := filepath.Dir(filePath)
	if info, err := os.Stat(filePath); err == nil && info.IsDir() {
		dir = filePath
	}

	markers := []string{"go.mod", "pyproject.toml", "package.json", "requirements.txt", ".git"}

	for {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return filepath.Dir(filePath)
}

func init() {
	contextCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	contextCmd.Flags().IntP("depth", "d", 2, "Max call-graph traversal depth")
	contextCmd.Flags().IntP("budget", "b", 0, "Token budget (defaults to the workspace config)")
	contextCmd.Flags().String("session", "", "Delivery-cache session id (defaults to the workspace's persistent session)")
	contextCmd.Flags().Bool("no-delta", false, "Skip the delivery cache and always render full code")
}
