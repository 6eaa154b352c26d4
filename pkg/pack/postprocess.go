package pack

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/l3aro/tldrs/pkg/project"
)

// AttentionReranker blends each candidate's stored relevance with a
// caller-supplied historical attention score (0.7*relevance + 0.3*
// attention) and re-sorts candidates by the blended score, highest first.
// Order is otherwise preserved for ties via a stable sort.
func AttentionReranker(attention map[project.SymbolId]float64) PostProcessor {
	return func(candidates []project.Candidate) []project.Candidate {
		out := append([]project.Candidate(nil), candidates...)
		blended := make(map[project.SymbolId]float64, len(out))
		for _, c := range out {
			blended[c.SymbolId] = 0.7*float64(c.Relevance) + 0.3*attention[c.SymbolId]
		}
		sort.SliceStable(out, func(i, j int) bool {
			return blended[out[i].SymbolId] > blended[out[j].SymbolId]
		})
		return out
	}
}

// EditLocalityEnricher attaches edit-boundary and invariant metadata to
// candidates carrying a "diff_lines" metadata entry (as difflens
// populates): the inferred body start (first non-blank, non-docstring
// line) and any lines within the symbol that look like assertions, type
// annotations, decorators, or constant declarations.
func EditLocalityEnricher() PostProcessor {
	return func(candidates []project.Candidate) []project.Candidate {
		out := append([]project.Candidate(nil), candidates...)
		for i, c := range out {
			diffLines, ok := c.Meta["diff_lines"].([]int)
			if !ok || len(diffLines) == 0 || c.Code == "" {
				continue
			}
			meta := cloneMeta(c.Meta)
			meta["edit_boundary"] = editBoundary(c.Code)
			meta["invariants"] = invariantLines(c.Code)
			out[i].Meta = meta
		}
		return out
	}
}

func cloneMeta(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta)+2)
	for k, v := range meta {
		out[k] = v
	}
	return out
}

func editBoundary(code string) int {
	lines := strings.Split(code, "\n")
	for i, l := range lines {
		t := strings.TrimSpace(l)
		if t == "" || strings.HasPrefix(t, `"""`) || strings.HasPrefix(t, "'''") || strings.HasPrefix(t, "#") || strings.HasPrefix(t, "//") {
			continue
		}
		return i + 1
	}
	return 1
}

var invariantRe = regexp.MustCompile(`^\s*(assert\b|@\w|[A-Z_][A-Z0-9_]*\s*[:=]|[\w.]+\s*:\s*\w+\s*=)`)

func invariantLines(code string) []int {
	var out []int
	for i, l := range strings.Split(code, "\n") {
		if invariantRe.MatchString(l) {
			out = append(out, i+1)
		}
	}
	return out
}

// TypePrune drops caller candidates whose signature looks like a
// standard-library or framework entry point, and coalesces callers
// sharing a (name, arg-count) pattern down to at most maxDuplicates
// occurrences. Only candidates labeled "caller" are considered for
// removal; everything else passes through untouched.
func TypePrune(maxDuplicates int) PostProcessor {
	return func(candidates []project.Candidate) []project.Candidate {
		seen := make(map[string]int)
		out := make([]project.Candidate, 0, len(candidates))
		for _, c := range candidates {
			if c.Label != "caller" {
				out = append(out, c)
				continue
			}
			if looksLikeFrameworkEntryPoint(c.Signature) {
				continue
			}
			key := callerDedupeKey(c.Signature)
			seen[key]++
			if maxDuplicates > 0 && seen[key] > maxDuplicates {
				continue
			}
			out = append(out, c)
		}
		return out
	}
}

var frameworkEntryPointRe = regexp.MustCompile(`^(main|__main__|init|setUp|tearDown|test_\w+)\(`)

func looksLikeFrameworkEntryPoint(signature string) bool {
	return frameworkEntryPointRe.MatchString(strings.TrimSpace(signature))
}

func callerDedupeKey(signature string) string {
	name := signature
	argCount := 0
	if i := strings.IndexByte(signature, '('); i >= 0 {
		name = signature[:i]
		inner := strings.TrimSuffix(signature[i+1:], ")")
		if strings.TrimSpace(inner) != "" {
			argCount = strings.Count(inner, ",") + 1
		}
	}
	return name + "/" + strconv.Itoa(argCount)
}
