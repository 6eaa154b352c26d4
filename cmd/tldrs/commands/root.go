package commands

import (
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "tldrs",
	Short: "tldrs - token-efficient LLM context packs from source repositories",
	Long: `tldrs builds multi-language project indexes and turns them into
compact, budget-bounded context packs for coding agents.

Commands:
  tree        Display file tree structure
  structure   Show code structure (functions, classes, imports)
  extract     Full file analysis
  context     Get an LLM-ready context pack from an entry point
  calls       Build call graph for a project
  cfg         Extract a function's control flow graph
  dfg         Extract a function's data flow graph
  slice       Backward/forward program slice for a function
  doctor      Run health checks on the workspace state
  init        Initialize workspace configuration

Use "tldrs [command] --help" for more information about a command.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.AddCommand(treeCmd)
	RootCmd.AddCommand(structureCmd)
	RootCmd.AddCommand(extractCmd)
	RootCmd.AddCommand(contextCmd)
	RootCmd.AddCommand(callsCmd)
}
