package difflens

import (
	"fmt"
	"sort"
	"strings"

	"github.com/l3aro/tldrs/internal/tokenizer"
)

// Block is one segment of a symbol body, line numbers 1-based and absolute
// within the source file.
type Block struct {
	Start, End int
}

// Segmenter splits a symbol body into blocks for knapsack-based
// compression. lines[0] is line number firstLine.
type Segmenter interface {
	Segment(lines []string, firstLine int) []Block
}

// indentSegmenter groups consecutive lines sharing the same leading
// whitespace run into one block; a blank line always ends the current
// block.
type indentSegmenter struct{}

func (indentSegmenter) Segment(lines []string, firstLine int) []Block {
	var blocks []Block
	start := -1
	indentOf := func(l string) string {
		return l[:len(l)-len(strings.TrimLeft(l, " \t"))]
	}
	var curIndent string

	flush := func(endIdx int) {
		if start >= 0 {
			blocks = append(blocks, Block{Start: firstLine + start, End: firstLine + endIdx})
			start = -1
		}
	}

	for i, l := range lines {
		if strings.TrimSpace(l) == "" {
			flush(i - 1)
			continue
		}
		ind := indentOf(l)
		if start == -1 {
			start = i
			curIndent = ind
		} else if ind != curIndent {
			flush(i - 1)
			start = i
			curIndent = ind
		}
	}
	flush(len(lines) - 1)

	if len(blocks) == 0 && len(lines) > 0 {
		blocks = append(blocks, Block{Start: firstLine, End: firstLine + len(lines) - 1})
	}
	return blocks
}

// astSegmenter segments exactly like indentSegmenter, by indent
// transitions. pkg/extractor's Extract surfaces only top-level
// function/class/method nodes, not the statement-level children of a
// function body, so no syntax tree walk drives this segmentation.
type astSegmenter struct{ indentSegmenter }

func newSegmenter(kind string) Segmenter {
	if kind == "blocks" {
		return astSegmenter{}
	}
	return indentSegmenter{}
}

type scoredBlock struct {
	block     Block
	score     float64
	tokens    int
	mustKeep  bool
	lineCount int
}

func scoreBlocks(blocks []Block, lines []string, firstLine int, diffLines map[int]bool, est tokenizer.Estimator) []scoredBlock {
	scored := make([]scoredBlock, len(blocks))
	mustKeep := make([]bool, len(blocks))

	for i, b := range blocks {
		var score float64
		hasDiff := false
		for line := b.Start; line <= b.End; line++ {
			if diffLines[line] {
				score += 10
				hasDiff = true
			}
			idx := line - firstLine
			if idx >= 0 && idx < len(lines) && controlFlowRe.MatchString(lines[idx]) {
				score += 0.5
			}
		}
		mustKeep[i] = hasDiff
		scored[i] = scoredBlock{block: b, lineCount: b.End - b.Start + 1}
		scored[i].score = score
	}

	for i := range scored {
		if i > 0 && mustKeep[i-1] {
			scored[i].score += 3
		}
		if i+1 < len(scored) && mustKeep[i+1] {
			scored[i].score += 3
		}
		scored[i].mustKeep = mustKeep[i]
	}

	for i, b := range blocks {
		text := strings.Join(blockLines(lines, firstLine, b), "\n")
		scored[i].tokens = est.Count(text)
	}

	return scored
}

func blockLines(lines []string, firstLine int, b Block) []string {
	start := b.Start - firstLine
	end := b.End - firstLine + 1
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return nil
	}
	return lines[start:end]
}

// maxBlocksForBudget mirrors the distilled engine's coarse budget bands.
func maxBlocksForBudget(budgetTokens int) int {
	switch {
	case budgetTokens <= 0:
		return 0 // unbounded
	case budgetTokens <= 1600:
		return 2
	case budgetTokens <= 2500:
		return 3
	default:
		return 0
	}
}

// knapsackKeep always keeps must-keep (diff-bearing) blocks, then adds the
// rest greedily in descending score order, skipping any block that would
// exceed budgetTokens (when set) and stopping at maxBlocks (when set).
// Token cost does not affect the order; no 0/1 knapsack search is done.
func knapsackKeep(blocks []scoredBlock, budgetTokens, maxBlocks int) []int {
	var keep []int
	used := 0
	for i, b := range blocks {
		if b.mustKeep {
			keep = append(keep, i)
			used += b.tokens
		}
	}

	type cand struct {
		idx   int
		score float64
	}
	var rest []cand
	for i, b := range blocks {
		if !b.mustKeep {
			rest = append(rest, cand{idx: i, score: b.score})
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].score > rest[j].score })

	for _, c := range rest {
		if maxBlocks > 0 && len(keep) >= maxBlocks {
			break
		}
		b := blocks[c.idx]
		if budgetTokens > 0 && used+b.tokens > budgetTokens {
			continue
		}
		keep = append(keep, c.idx)
		used += b.tokens
	}

	sort.Ints(keep)
	return keep
}

// compressWithSegmenter renders the kept blocks joined by "...", plus how
// many blocks existed and how many were dropped.
func compressWithSegmenter(seg Segmenter, fullLines []string, firstLine int, diffLines []int, budgetTokens int, est tokenizer.Estimator, annotateElided bool) (string, int, int) {
	blocks := seg.Segment(fullLines, firstLine)
	if len(blocks) == 0 {
		return strings.Join(fullLines, "\n"), 0, 0
	}

	dlSet := make(map[int]bool, len(diffLines))
	for _, l := range diffLines {
		dlSet[l] = true
	}

	scored := scoreBlocks(blocks, fullLines, firstLine, dlSet, est)
	keep := knapsackKeep(scored, budgetTokens, maxBlocksForBudget(budgetTokens))
	if len(keep) == 0 {
		keep = []int{0}
	}

	var out []string
	lastKept := -1
	for _, idx := range keep {
		if annotateElided && idx > lastKept+1 {
			elided := 0
			for i := lastKept + 1; i < idx; i++ {
				elided += scored[i].lineCount
			}
			if elided > 0 {
				out = append(out, fmt.Sprintf("# ... (%d lines elided)", elided))
			}
		} else if !annotateElided && idx > lastKept+1 {
			out = append(out, "...")
		}
		out = append(out, blockLines(fullLines, firstLine, scored[idx].block)...)
		lastKept = idx
	}

	return strings.Join(out, "\n"), len(blocks), len(blocks) - len(keep)
}
