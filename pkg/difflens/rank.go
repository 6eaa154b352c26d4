package difflens

import "github.com/l3aro/tldrs/pkg/project"

// relevanceScores maps a label to its integer rank for pack ordering.
var relevanceScores = map[string]int{
	"contains_diff": 3,
	"caller":        2,
	"callee":        2,
	"adjacent":      1,
}

// rankSymbols orders every diff-bearing symbol first, then its callees
// (label "callee"), then its callers (label "caller"), visiting
// diff-bearing symbols in map iteration order stabilized by the caller.
// No symbol is added twice.
func rankSymbols(idx *project.ProjectIndex, diffBearing []project.SymbolId) ([]project.SymbolId, map[project.SymbolId]string) {
	ordered := make([]project.SymbolId, 0, len(diffBearing))
	label := make(map[project.SymbolId]string, len(diffBearing))

	for _, id := range diffBearing {
		if _, ok := label[id]; ok {
			continue
		}
		label[id] = "contains_diff"
		ordered = append(ordered, id)
	}

	for _, id := range append([]project.SymbolId(nil), ordered...) {
		for _, callee := range idx.Adjacency[id] {
			if _, ok := label[callee]; !ok {
				label[callee] = "callee"
				ordered = append(ordered, callee)
			}
		}
		for _, caller := range idx.ReverseAdjacency[id] {
			if _, ok := label[caller]; !ok {
				label[caller] = "caller"
				ordered = append(ordered, caller)
			}
		}
	}

	return ordered, label
}
