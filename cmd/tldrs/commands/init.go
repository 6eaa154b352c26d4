package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/l3aro/tldrs/internal/config"
	"github.com/l3aro/tldrs/internal/healthcheck"
)

// initCmd writes a .tldrs/config.yaml for the current workspace.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize tldrs workspace configuration",
	Long: `Creates .tldrs/config.yaml for the current workspace, then runs
the same checks as "tldrs doctor".

Use --yes to skip the interactive prompt and accept defaults.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		yesFlag, _ := cmd.Flags().GetBool("yes")
		budgetFlag, _ := cmd.Flags().GetInt("budget-tokens")
		compressionFlag, _ := cmd.Flags().GetString("compression")

		cfg := config.DefaultConfig()
		if budgetFlag > 0 {
			cfg.DefaultBudgetTokens = budgetFlag
		}
		if compressionFlag != "" {
			cfg.DefaultCompression = config.CompressionMode(compressionFlag)
		}

		if !yesFlag {
			if err := promptForConfig(cfg); err != nil {
				return fmt.Errorf("interactive prompt failed: %w", err)
			}
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}

		root, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}

		configDir := filepath.Join(root, ".tldrs")
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			return fmt.Errorf("creating .tldrs directory: %w", err)
		}
		configPath := filepath.Join(configDir, "config.yaml")

		if _, err := os.Stat(configPath); err == nil && !yesFlag {
			var overwrite bool
			form := huh.NewForm(huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			))
			if err := form.Run(); err != nil {
				return fmt.Errorf("interactive prompt failed: %w", err)
			}
			if !overwrite {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		if err := os.WriteFile(configPath, data, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Printf("Configuration saved to: %s\n", configPath)

		if added, _ := ensureGitignoreEntry(root); added {
			fmt.Println("Added .tldrs to .gitignore")
		}

		fmt.Println("\n=== Running health check ===")
		result, err := healthcheck.Run(cfg, root)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		displayDoctorResult(result)

		return nil
	},
}

func promptForConfig(cfg *config.Config) error {
	var compressionChoice string = string(cfg.DefaultCompression)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default compression mode").
				Description("Used by difflens when packing diff-relevant symbols").
				Options(
					huh.NewOption("two-stage", string(config.CompressionTwoStage)),
					huh.NewOption("blocks", string(config.CompressionBlocks)),
					huh.NewOption("chunk-summary", string(config.CompressionChunkSummary)),
					huh.NewOption("none", string(config.CompressionNone)),
				).
				Value(&compressionChoice),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	cfg.DefaultCompression = config.CompressionMode(compressionChoice)
	return nil
}

func ensureGitignoreEntry(root string) (bool, error) {
	gitignorePath := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gitignorePath); err != nil {
		return false, nil
	}

	content, err := os.ReadFile(gitignorePath)
	if err != nil {
		return false, nil
	}

	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == ".tldrs" {
			return false, nil
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return false, nil
	}
	defer f.Close()

	if _, err := f.WriteString("\n# tldrs\n.tldrs\n"); err != nil {
		return false, err
	}
	return true, nil
}

func init() {
	initCmd.Flags().Int("budget-tokens", 0, "Default pack budget in tokens (optional)")
	initCmd.Flags().String("compression", "", "Default difflens compression mode (optional)")
	initCmd.Flags().BoolP("yes", "y", false, "Skip all confirmations, overwrite if exists")

	RootCmd.AddCommand(initCmd)
}
