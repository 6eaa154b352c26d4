package difflens

import (
	"sort"
	"strings"

	"github.com/l3aro/tldrs/pkg/project"
)

// symbolSpans computes each symbol's enclosing (start, end) line range for
// relPath: every top-level symbol (free function or class) runs from its
// own start line to the line before the next top-level symbol, or EOF; a
// class's methods are bounded the same way within the class's own span.
// ProjectIndex only carries a single-line SymbolRanges entry (§4.2's
// auxiliary table), so this is computed fresh here from sibling line
// numbers, mirroring the distilled engine's own span inference.
func symbolSpans(idx *project.ProjectIndex, relPath string) map[project.SymbolId][2]int {
	totalLines := countLines(idx.FileSources[relPath])

	type top struct {
		id   project.SymbolId
		line int
	}
	var tops []top
	methodsByClass := make(map[string][]top)

	for id, file := range idx.SymbolFiles {
		if file != relPath {
			continue
		}
		qual := qualifiedPartOf(id)
		line := idx.SymbolIndex[id].Line
		if i := strings.Index(qual, "."); i >= 0 {
			className := qual[:i]
			methodsByClass[className] = append(methodsByClass[className], top{id: id, line: line})
			continue
		}
		tops = append(tops, top{id: id, line: line})
	}
	sort.Slice(tops, func(i, j int) bool { return tops[i].line < tops[j].line })

	spans := make(map[project.SymbolId][2]int, len(tops))
	for i, t := range tops {
		end := totalLines
		if i+1 < len(tops) {
			end = maxInt(t.line, tops[i+1].line-1)
		}
		spans[t.id] = [2]int{t.line, end}
	}

	for className, methods := range methodsByClass {
		classSpan, ok := spans[project.SymbolId(relPath+":"+className)]
		classEnd := totalLines
		if ok {
			classEnd = classSpan[1]
		}
		sort.Slice(methods, func(i, j int) bool { return methods[i].line < methods[j].line })
		for i, m := range methods {
			end := classEnd
			if i+1 < len(methods) {
				end = maxInt(m.line, methods[i+1].line-1)
			}
			spans[m.id] = [2]int{m.line, end}
		}
	}

	return spans
}

func qualifiedPartOf(id project.SymbolId) string {
	s := string(id)
	if i := strings.Index(s, ":"); i >= 0 {
		return s[i+1:]
	}
	return s
}

func countLines(src []byte) int {
	if len(src) == 0 {
		return 1
	}
	n := strings.Count(string(src), "\n") + 1
	if n < 1 {
		n = 1
	}
	return n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// mapHunksToSymbols groups hunks by file then, for each (start, end) range,
// picks the symbol span with the smallest line span that overlaps it
// (tightest enclosing symbol). Every touched line is recorded for that
// symbol. When a method is hit, its enclosing class id is also returned in
// the second map (no diff lines of its own); BuildCandidates only uses it
// to set Meta["class_scope"] on that class's candidate, if there is one.
func mapHunksToSymbols(idx *project.ProjectIndex, hunks []Hunk) (map[project.SymbolId]map[int]bool, map[project.SymbolId]bool) {
	byFile := make(map[string][]Hunk)
	for _, h := range hunks {
		byFile[h.FilePath] = append(byFile[h.FilePath], h)
	}

	diffLines := make(map[project.SymbolId]map[int]bool)
	classScopes := make(map[project.SymbolId]bool)

	spanCache := make(map[string]map[project.SymbolId][2]int)
	spansFor := func(relPath string) map[project.SymbolId][2]int {
		if s, ok := spanCache[relPath]; ok {
			return s
		}
		s := symbolSpans(idx, relPath)
		spanCache[relPath] = s
		return s
	}

	for relPath, ranges := range byFile {
		spans := spansFor(relPath)
		if len(spans) == 0 {
			continue
		}

		for _, h := range ranges {
			var best project.SymbolId
			bestSpan := -1
			for id, sp := range spans {
				if sp[0] <= h.EndLine && sp[1] >= h.StartLine {
					width := sp[1] - sp[0]
					if bestSpan == -1 || width < bestSpan || (width == bestSpan && id < best) {
						bestSpan = width
						best = id
					}
				}
			}
			if best == "" {
				continue
			}
			if diffLines[best] == nil {
				diffLines[best] = make(map[int]bool)
			}
			for line := h.StartLine; line <= h.EndLine; line++ {
				diffLines[best][line] = true
			}

			qual := qualifiedPartOf(best)
			if i := strings.Index(qual, "."); i >= 0 {
				classID := project.SymbolId(relPath + ":" + qual[:i])
				classScopes[classID] = true
			}
		}
	}

	return diffLines, classScopes
}

func sortedLines(lines map[int]bool) []int {
	out := make([]int, 0, len(lines))
	for l := range lines {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}
