package commands

import (
	"fmt"
	"os"

	"github.com/l3aro/tldrs/internal/config"
	"github.com/l3aro/tldrs/internal/healthcheck"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on the workspace state",
	Long: `Checks that the workspace's .tldrs state directory, delivery
database, and git binary are all in a usable state.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}

		cfg, err := config.Load(root)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		result, err := healthcheck.Run(cfg, root)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}

		displayDoctorResult(result)

		if result.HasErrors() {
			return fmt.Errorf("health check failed: one or more checks reported errors")
		}

		return nil
	},
}

func displayDoctorResult(result *healthcheck.Result) {
	fmt.Printf("Workspace: %s\n\n", result.WorkspaceRoot)
	for _, c := range result.Checks {
		fmt.Printf("  %s %-14s %s\n", statusIcon(c.Status), c.Name, c.Detail)
	}
}

func statusIcon(status healthcheck.CheckStatus) string {
	switch status {
	case healthcheck.StatusOK:
		return "✓"
	case healthcheck.StatusWarn:
		return "◐"
	case healthcheck.StatusError:
		return "✗"
	default:
		return "?"
	}
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}
