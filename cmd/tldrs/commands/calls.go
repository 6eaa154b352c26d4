package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/l3aro/tldrs/internal/scanner"
	"github.com/l3aro/tldrs/pkg/callgraph"
	"github.com/l3aro/tldrs/pkg/extractor"
	"github.com/l3aro/tldrs/pkg/types"
)

// CallGraphOutput represents the output of the calls command
type CallGraphOutput struct {
	RootDir    string                `json:"root_dir"`
	Stats      CallGraphStats        `json:"stats"`
	Edges      []types.CallGraphEdge `json:"edges,omitempty"`
	Unresolved []UnresolvedCall      `json:"unresolved,omitempty"`
}

// CallGraphStats represents statistics about the call graph
type CallGraphStats struct {
	TotalEdges      int `json:"total_edges"`
	IntraFileEdges  int `json:"intra_file_edges"`
	CrossFileEdges  int `json:"cross_file_edges"`
	UnresolvedCalls int `json:"unresolved_calls"`
}

// UnresolvedCall represents an unresolved call
type UnresolvedCall struct {
	CallerFile string `json:"caller_file"`
	CallerFunc string `json:"caller_func"`
	CallName   string `json:"call_name"`
	Reason     string `json:"reason"`
}

// callsCmd represents the calls command
var callsCmd = &cobra.Command{
	Use:   "calls [path]",
	Short: "Build call graph for a project",
	Long: `Analyzes a project and builds a call graph showing function calls.
The call graph includes both intra-file and cross-file edges.`,
	Args: cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) > 0 {
			path = args[0]
		}

		return runCallsLocally(path, cmd)
	},
}

func runCallsLocally(path string, cmd *cobra.Command) error {
	// Get absolute path
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("getting absolute path: %w", err)
	}

	// Check if path exists
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("stat path: %w", err)
	}

	// Find project root
	rootDir := findProjectRoot(absPath)
	if info.IsDir() {
		rootDir = absPath
	}

	// Scan project files
	sc := scanner.New(scanner.DefaultOptions())
	files, err := sc.Scan(rootDir)
	if err != nil {
		return fmt.Errorf("scanning directory: %w", err)
	}

	// Group supported files by language, since a Resolver is built against a
	// single Extractor and resolves calls within that language only.
	registry := extractor.NewFullLanguageRegistry()
	filesByLang := make(map[extractor.Language][]string)
	for _, f := range files {
		lang, err := registry.GetLanguage(f.FullPath)
		if err != nil {
			continue
		}
		filesByLang[lang] = append(filesByLang[lang], f.FullPath)
	}

	// Build and merge one call graph per language found in the project, in a
	// fixed language order so output doesn't depend on map iteration order.
	var langs []string
	for lang := range filesByLang {
		langs = append(langs, string(lang))
	}
	sort.Strings(langs)

	callGraph := &callgraph.CrossFileCallGraph{}
	for _, langStr := range langs {
		lang := extractor.Language(langStr)
		langFiles := filesByLang[lang]
		sort.Strings(langFiles)
		ext, err := registry.GetExtractor(langFiles[0])
		if err != nil {
			return fmt.Errorf("resolving extractor for %s: %w", lang, err)
		}
		resolver := callgraph.NewResolver(rootDir, ext)
		langGraph, err := resolver.ResolveCalls(langFiles)
		if err != nil {
			return fmt.Errorf("building call graph for %s: %w", lang, err)
		}
		callGraph.Edges = append(callGraph.Edges, langGraph.Edges...)
		callGraph.IntraFileEdges = append(callGraph.IntraFileEdges, langGraph.IntraFileEdges...)
		callGraph.CrossFileEdges = append(callGraph.CrossFileEdges, langGraph.CrossFileEdges...)
		callGraph.UnresolvedCalls = append(callGraph.UnresolvedCalls, langGraph.UnresolvedCalls...)
	}

	// Build output
	stats := CallGraphStats{
		TotalEdges:      len(callGraph.Edges),
		IntraFileEdges:  len(callGraph.IntraFileEdges),
		CrossFileEdges:  len(callGraph.CrossFileEdges),
		UnresolvedCalls: len(callGraph.UnresolvedCalls),
	}

	var unresolved []UnresolvedCall
	for _, u := range callGraph.UnresolvedCalls {
		unresolved = append(unresolved, UnresolvedCall{
			CallerFile: u.CallerFile,
			CallerFunc: u.CallerFunc,
			CallName:   u.CallName,
			Reason:     u.Reason,
		})
	}

	output := CallGraphOutput{
		RootDir:    rootDir,
		Stats:      stats,
		Edges:      callGraph.Edges,
		Unresolved: unresolved,
	}

	// Output
	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		data, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Println(string(data))
	} else {
		printCallGraph(output)
	}

	return nil
}

func printCallGraph(output CallGraphOutput) {
	fmt.Printf("=== Call Graph: %s ===\n\n", output.RootDir)

	fmt.Printf("Statistics:\n")
	fmt.Printf("  Total edges: %d\n", output.Stats.TotalEdges)
	fmt.Printf("  Intra-file edges: %d\n", output.Stats.IntraFileEdges)
	fmt.Printf("  Cross-file edges: %d\n", output.Stats.CrossFileEdges)
	fmt.Printf("  Unresolved calls: %d\n\n", output.Stats.UnresolvedCalls)

	if len(output.Edges) > 0 {
		fmt.Println("Edges:")
		for _, edge := range output.Edges {
			fmt.Printf("  %s:%s -> %s:%s\n",
				edge.SourceFile, edge.SourceFunc,
				edge.DestFile, edge.DestFunc)
		}
	}

	if len(output.Unresolved) > 0 {
		fmt.Println("\nUnresolved calls:")
		for _, u := range output.Unresolved {
			fmt.Printf("  %s:%s calls %s (%s)\n",
				u.CallerFile, u.CallerFunc, u.CallName, u.Reason)
		}
	}
}

func init() {
	callsCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}
