package difflens

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/l3aro/tldrs/internal/scanner"
	"github.com/l3aro/tldrs/internal/tokenizer"
	"github.com/l3aro/tldrs/pkg/project"
)

// CompressionMode selects how a diff-bearing symbol's code is rendered.
type CompressionMode string

const (
	// CompressionNone renders a verbatim windowed extract around the diff.
	CompressionNone CompressionMode = "none"
	// CompressionTwoStage splits the symbol body into indent-transition
	// blocks and keeps a knapsack-selected subset.
	CompressionTwoStage CompressionMode = "two-stage"
	// CompressionBlocks is CompressionTwoStage with elided-region
	// annotations. It also segments by indent transitions; no AST-derived
	// segmentation is done.
	CompressionBlocks CompressionMode = "blocks"
	// CompressionChunkSummary renders only the signature and a touched-line
	// summary, no code body.
	CompressionChunkSummary CompressionMode = "chunk-summary"
)

// Options configures a BuildCandidates pass.
type Options struct {
	Compression CompressionMode
	// BudgetTokens caps rendered code per candidate; 0 means unbounded.
	BudgetTokens int
	Estimator    tokenizer.Estimator
	// FallbackFileCount bounds the synthetic whole-file hunks used when
	// diffText carries no hunks; 0 defaults to 5.
	FallbackFileCount int
}

// BuildCandidates turns a unified diff into ranked, pack-ready candidates:
// parse hunks, map each to its tightest enclosing symbol, rank
// diff-bearing symbols ahead of their one-hop callees and callers, then
// render each symbol's code per the chosen compression mode.
func BuildCandidates(idx *project.ProjectIndex, diffText string, opts Options) ([]project.Candidate, error) {
	if opts.Estimator == nil {
		opts.Estimator = tokenizer.Default()
	}
	if opts.Compression == "" {
		opts.Compression = CompressionNone
	}
	if opts.FallbackFileCount <= 0 {
		opts.FallbackFileCount = 5
	}

	hunks := ParseUnifiedDiff(diffText)
	if len(hunks) == 0 {
		hunks = recentFileHunks(idx, opts.FallbackFileCount)
	}
	if len(hunks) == 0 {
		return nil, nil
	}

	diffLinesBySymbol, classScopes := mapHunksToSymbols(idx, hunks)
	if len(diffLinesBySymbol) == 0 {
		return nil, nil
	}

	diffBearing := make([]project.SymbolId, 0, len(diffLinesBySymbol))
	for id := range diffLinesBySymbol {
		diffBearing = append(diffBearing, id)
	}
	sort.Slice(diffBearing, func(i, j int) bool { return diffBearing[i] < diffBearing[j] })

	ordered, label := rankSymbols(idx, diffBearing)

	spanCache := make(map[string]map[project.SymbolId][2]int)
	spansFor := func(relPath string) map[project.SymbolId][2]int {
		if s, ok := spanCache[relPath]; ok {
			return s
		}
		s := symbolSpans(idx, relPath)
		spanCache[relPath] = s
		return s
	}

	candidates := make([]project.Candidate, 0, len(ordered))
	for order, id := range ordered {
		fn, ok := idx.SymbolIndex[id]
		if !ok {
			continue
		}
		relPath := idx.SymbolFiles[id]

		relevance := relevanceScores[label[id]]
		if relevance == 0 {
			relevance = 1
		}

		cand := project.Candidate{
			SymbolId:  id,
			Relevance: relevance,
			Label:     label[id],
			Order:     order,
			Signature: signatureOf(idx, fn),
			Meta:      map[string]any{},
		}
		if classScopes[id] {
			cand.Meta["class_scope"] = true
		}

		spans := spansFor(relPath)
		sp, hasSpan := spans[id]
		src := idx.FileSources[relPath]
		dl := sortedLines(diffLinesBySymbol[id])
		if len(dl) > 0 {
			cand.Meta["diff_lines"] = dl
		}

		if hasSpan && len(src) > 0 {
			srcLines := strings.Split(string(src), "\n")
			symLines := sliceLines(srcLines, sp[0], sp[1])

			switch opts.Compression {
			case CompressionChunkSummary:
				cand.Code = chunkSummary(cand.Signature, dl)
			case CompressionTwoStage, CompressionBlocks:
				seg := newSegmenter(string(opts.Compression))
				annotate := opts.Compression == CompressionBlocks
				rendered, total, dropped := compressWithSegmenter(seg, symLines, sp[0], dl, opts.BudgetTokens, opts.Estimator, annotate)
				cand.Code = rendered
				cand.Meta["blocks_total"] = total
				cand.Meta["blocks_dropped"] = dropped
			default:
				budgetLines := 0
				if opts.BudgetTokens > 0 {
					budgetLines = opts.BudgetTokens / 8
				}
				context := adaptiveContext(symLines, budgetLines)
				if rendered, ok := extractWindowedCode(srcLines, dl, sp[0], sp[1], context); ok {
					cand.Code = rendered
				} else {
					cand.Code = strings.Join(symLines, "\n")
				}
			}
			lines := [2]int{sp[0], sp[1]}
			cand.Lines = &lines
		}

		candidates = append(candidates, cand)
	}

	return candidates, nil
}

func signatureOf(idx *project.ProjectIndex, fn project.FunctionInfo) string {
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

func sliceLines(all []string, start, end int) []string {
	s, e := start-1, end
	if s < 0 {
		s = 0
	}
	if e > len(all) {
		e = len(all)
	}
	if s >= e {
		return nil
	}
	return all[s:e]
}

func chunkSummary(signature string, diffLines []int) string {
	if len(diffLines) == 0 {
		return signature
	}
	return signature + "\n# touched lines: " + formatLineRanges(diffLines)
}

func formatLineRanges(lines []int) string {
	if len(lines) == 0 {
		return ""
	}
	var parts []string
	start, prev := lines[0], lines[0]
	flush := func(end int) {
		if start == end {
			parts = append(parts, strconv.Itoa(start))
		} else {
			parts = append(parts, strconv.Itoa(start)+"-"+strconv.Itoa(end))
		}
	}
	for _, l := range lines[1:] {
		if l == prev+1 {
			prev = l
			continue
		}
		flush(prev)
		start, prev = l, l
	}
	flush(prev)
	return strings.Join(parts, ",")
}

// recentFileHunks synthesizes whole-file hunks for the FallbackFileCount
// most recently modified workspace files, used when diffText carries no
// parseable hunks.
func recentFileHunks(idx *project.ProjectIndex, limit int) []Hunk {
	files, err := scanner.Scan(idx.Root)
	if err != nil {
		return nil
	}

	type withMtime struct {
		rel   string
		full  string
		mtime int64
	}
	candidates := make([]withMtime, 0, len(files))
	for _, fi := range files {
		info, statErr := os.Stat(fi.FullPath)
		if statErr != nil {
			continue
		}
		candidates = append(candidates, withMtime{
			rel:   filepath.ToSlash(fi.Path),
			full:  fi.FullPath,
			mtime: info.ModTime().UnixNano(),
		})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].mtime > candidates[j].mtime })
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	hunks := make([]Hunk, 0, len(candidates))
	for _, c := range candidates {
		total := 0
		if src, ok := idx.FileSources[c.rel]; ok {
			total = countLines(src)
		} else if b, readErr := os.ReadFile(c.full); readErr == nil {
			total = countLines(b)
		}
		if total == 0 {
			continue
		}
		hunks = append(hunks, Hunk{FilePath: c.rel, StartLine: 1, EndLine: total})
	}
	return hunks
}
