package difflens

import (
	"regexp"
	"sort"
	"strings"
)

// adaptiveContext picks a context-line count (2-8) from how dense the
// surrounding code reads: more indentation and more control-flow keywords
// push toward a wider window (there's likely more to see per visual line);
// longer average lines push toward a narrower one (each line already
// carries more). budgetLines caps the result for callers with a tight
// per-slice allowance.
func adaptiveContext(lines []string, budgetLines int) int {
	if len(lines) == 0 {
		return clampContext(4, budgetLines)
	}

	var indented, totalLen, keywordLines int
	for _, l := range lines {
		trimmed := strings.TrimLeft(l, " \t")
		if len(trimmed) != len(l) {
			indented++
		}
		totalLen += len(l)
		if controlFlowRe.MatchString(l) {
			keywordLines++
		}
	}
	n := len(lines)
	indentRatio := float64(indented) / float64(n)
	meanLen := float64(totalLen) / float64(n)
	complexityRatio := float64(keywordLines) / float64(n)

	base := 4
	if meanLen > 80 {
		base--
	}
	if indentRatio > 0.6 {
		base++
	}
	if complexityRatio > 0.2 {
		base += 2
	}

	return clampContext(base, budgetLines)
}

func clampContext(n, budgetLines int) int {
	if n < 2 {
		n = 2
	}
	if n > 8 {
		n = 8
	}
	if budgetLines > 0 && n > budgetLines {
		n = budgetLines
	}
	return n
}

var controlFlowRe = regexp.MustCompile(`\b(if|else|for|while|switch|case|catch|except|match)\b`)

// mergeWindows merges (line-context, line+context) intervals for every
// diff line that overlap or sit adjacent, returning disjoint windows in
// ascending order.
func mergeWindows(diffLines []int, context int) [][2]int {
	if len(diffLines) == 0 {
		return nil
	}
	sorted := append([]int(nil), diffLines...)
	sort.Ints(sorted)

	var windows [][2]int
	start := sorted[0] - context
	end := sorted[0] + context
	for _, line := range sorted[1:] {
		ws := line - context
		we := line + context
		if ws <= end+1 {
			if we > end {
				end = we
			}
		} else {
			windows = append(windows, [2]int{start, end})
			start, end = ws, we
		}
	}
	windows = append(windows, [2]int{start, end})
	return windows
}

// extractWindowedCode renders the clamped, merged windows around diffLines
// within [symbolStart, symbolEnd], joining non-contiguous windows with a
// literal "...". Returns ("", false) when no window overlaps the symbol.
func extractWindowedCode(srcLines []string, diffLines []int, symbolStart, symbolEnd, context int) (string, bool) {
	windows := mergeWindows(diffLines, context)

	var clamped [][2]int
	for _, w := range windows {
		cs := maxInt(symbolStart, w[0])
		ce := minInt(symbolEnd, w[1])
		if cs <= ce {
			clamped = append(clamped, [2]int{cs, ce})
		}
	}
	if len(clamped) == 0 {
		return "", false
	}

	var parts []string
	for i, w := range clamped {
		if i > 0 {
			parts = append(parts, "...")
		}
		start, end := w[0]-1, w[1]
		if start < 0 {
			start = 0
		}
		if end > len(srcLines) {
			end = len(srcLines)
		}
		parts = append(parts, srcLines[start:end]...)
	}
	return strings.Join(parts, "\n"), true
}
