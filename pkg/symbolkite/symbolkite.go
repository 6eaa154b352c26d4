// Package symbolkite is the symbol-graph retrieval engine: given a resolved
// entry point and a traversal depth, it walks a ProjectIndex's call graph
// breadth-first and returns an ordered, depth-labeled candidate list.
package symbolkite

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/l3aro/tldrs/pkg/project"
)

// Options configures a single Walk/WalkSignatures call.
type Options struct {
	// MaxNodes caps the number of visited nodes regardless of depth; 0
	// means unbounded. A secondary guard against pathological fan-out,
	// never changes the depth-bounded BFS contract on its own.
	MaxNodes int
	// AllowDisambiguate controls ambiguous-entry-point resolution, same
	// semantics as project.ResolveEntry's second argument.
	AllowDisambiguate bool
	// IncludeDocstrings copies each symbol's doc comment into the node.
	IncludeDocstrings bool
}

// Node is one visited symbol: the signature-only shape callers use for
// delta-first flows (ETag-on-signature, skip body acquisition on a hit).
type Node struct {
	SymbolId project.SymbolId
	Signature string
	Doc       string
	Line      int
	Depth     int
	FilePath  string
	Calls     []project.SymbolId
}

// WalkSignatures resolves entryPoint against idx and returns the BFS visit
// order up to maxDepth, without touching any file body. If entryPoint is a
// bare module path ("a/b/c") the result is every top-level symbol in that
// file instead of a call-graph traversal (§4.4 class/module special case).
func WalkSignatures(idx *project.ProjectIndex, entryPoint string, maxDepth int, opts Options) ([]Node, error) {
	if relPath, ok := moduleFileFor(idx, entryPoint); ok {
		return topLevelNodes(idx, relPath, opts), nil
	}

	res, err := idx.ResolveEntry(entryPoint, opts.AllowDisambiguate)
	if err != nil {
		return nil, err
	}

	return bfs(idx, []project.SymbolId{res.SymbolId}, maxDepth, opts), nil
}

// Walk is WalkSignatures plus code-body acquisition: each node's code field
// is populated from the project index's cached source when available.
func Walk(idx *project.ProjectIndex, entryPoint string, maxDepth int, opts Options) ([]project.Candidate, error) {
	nodes, err := WalkSignatures(idx, entryPoint, maxDepth, opts)
	if err != nil {
		return nil, err
	}

	candidates := make([]project.Candidate, 0, len(nodes))
	for i, n := range nodes {
		relevance := maxInt(1, (maxDepth-n.Depth)+1)
		c := project.Candidate{
			SymbolId:  n.SymbolId,
			Relevance: relevance,
			Label:     fmt.Sprintf("depth_%d", n.Depth),
			Order:     i,
			Signature: n.Signature,
			Meta:      map[string]any{"calls": n.Calls},
		}
		if n.Line > 0 {
			c.Lines = &[2]int{n.Line, n.Line}
		}
		if code, ok := codeFor(idx, n); ok {
			c.Code = code
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func bfs(idx *project.ProjectIndex, frontier []project.SymbolId, maxDepth int, opts Options) []Node {
	type queued struct {
		id    project.SymbolId
		depth int
	}

	visited := make(map[project.SymbolId]bool)
	queue := make([]queued, 0, len(frontier))
	for _, id := range frontier {
		queue = append(queue, queued{id: id, depth: 0})
	}

	var nodes []Node
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if visited[item.id] || item.depth > maxDepth {
			continue
		}
		if opts.MaxNodes > 0 && len(nodes) >= opts.MaxNodes {
			break
		}
		visited[item.id] = true

		calls := idx.Adjacency[item.id]
		nodes = append(nodes, nodeFor(idx, item.id, item.depth, calls, opts))

		if item.depth < maxDepth {
			for _, callee := range calls {
				if !visited[callee] {
					queue = append(queue, queued{id: callee, depth: item.depth + 1})
				}
			}
		}
	}
	return nodes
}

func nodeFor(idx *project.ProjectIndex, id project.SymbolId, depth int, calls []project.SymbolId, opts Options) Node {
	n := Node{SymbolId: id, Depth: depth, Calls: calls}

	fn, ok := idx.SymbolIndex[id]
	if !ok {
		n.Signature = fmt.Sprintf("func %s(...)", tailOf(id))
		return n
	}

	n.FilePath = idx.SymbolFiles[id]
	n.Line = fn.Line
	n.Signature = signatureOf(idx, id, fn)
	if opts.IncludeDocstrings {
		n.Doc = fn.Doc
	}
	return n
}

func signatureOf(idx *project.ProjectIndex, id project.SymbolId, fn project.FunctionInfo) string {
	if override, ok := idx.SignatureOverrides[id]; ok {
		return override
	}

	parts := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		if p.Type != "" {
			parts = append(parts, p.Name+" "+p.Type)
		} else {
			parts = append(parts, p.Name)
		}
	}
	sig := fn.Name + "(" + strings.Join(parts, ", ") + ")"
	if fn.ReturnType != "" {
		sig += " " + fn.ReturnType
	}
	return sig
}

func tailOf(id project.SymbolId) string {
	s := string(id)
	if i := strings.LastIndex(s, ":"); i >= 0 {
		return s[i+1:]
	}
	return s
}

func codeFor(idx *project.ProjectIndex, n Node) (string, bool) {
	if n.FilePath == "" {
		return "", false
	}
	rng, ok := idx.SymbolRanges[n.SymbolId]
	if !ok {
		return "", false
	}
	src, ok := idx.FileSources[n.FilePath]
	if !ok {
		return "", false
	}
	lines := strings.Split(string(src), "\n")
	start, end := rng.Start-1, rng.End
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return "", false
	}
	return strings.Join(lines[start:end], "\n"), true
}

// moduleFileFor recognizes a bare module path ("a/b/c", no extension, no
// ":") and maps it to the workspace file whose path minus extension
// matches. Anything with a colon or dot is left to the normal entry
// resolver instead.
func moduleFileFor(idx *project.ProjectIndex, entryPoint string) (string, bool) {
	if !strings.Contains(entryPoint, "/") || strings.Contains(entryPoint, ".") || strings.Contains(entryPoint, ":") {
		return "", false
	}
	for relPath := range idx.FileNameIndex {
		stem := strings.TrimSuffix(relPath, filepath.Ext(relPath))
		if stem == entryPoint {
			return relPath, true
		}
	}
	return "", false
}

func topLevelNodes(idx *project.ProjectIndex, relPath string, opts Options) []Node {
	seen := make(map[project.SymbolId]bool)
	var ids []project.SymbolId
	for id, file := range idx.SymbolFiles {
		if file != relPath || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		li, lj := idx.SymbolIndex[ids[i]].Line, idx.SymbolIndex[ids[j]].Line
		if li != lj {
			return li < lj
		}
		return ids[i] < ids[j]
	})

	nodes := make([]Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, nodeFor(idx, id, 0, idx.Adjacency[id], opts))
	}
	return nodes
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
