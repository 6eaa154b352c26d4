// Package pack turns a ranked candidate list into a token-budgeted
// ContextPack: the final, deterministic representation handed to an LLM
// caller.
package pack

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/l3aro/tldrs/internal/tokenizer"
	"github.com/l3aro/tldrs/pkg/project"
)

// ContextSlice is one rendered candidate in a ContextPack.
type ContextSlice struct {
	ID        project.SymbolId
	Signature string
	Code      string
	HasCode   bool
	Lines     *[2]int
	Relevance string
	Meta      map[string]any
	ETag      string
}

// CacheStats summarizes a delta build's hit rate.
type CacheStats struct {
	Hits    int
	Misses  int
	HitRate float64
}

// ContextPack is the pipeline's final output.
type ContextPack struct {
	Slices     []ContextSlice
	BudgetUsed int
	Unchanged  []project.SymbolId
	Rehydrate  map[project.SymbolId]string
	CacheStats *CacheStats
}

// DeltaResult is what the delivery cache hands the pack builder: which
// symbols are already known to the session (by matching ETag) and what
// blob ref, if any, can rehydrate them. Owned here (rather than by the
// delivery cache) because the builder is the consumer that decides what
// shape it needs; pkg/delivery imports this type rather than the reverse.
type DeltaResult struct {
	Unchanged map[project.SymbolId]bool
	Rehydrate map[project.SymbolId]string
}

// Registry resolves a candidate's missing signature/code/lines, mirroring
// the distilled engine's SymbolRegistry fallback for candidates that
// arrive signature-less.
type Registry interface {
	Get(id project.SymbolId) (signature, code string, lines *[2]int, ok bool)
}

// PostProcessor transforms the candidate list before sorting.
type PostProcessor func([]project.Candidate) []project.Candidate

// Builder assembles ContextPacks from ranked candidates.
type Builder struct {
	Registry       Registry
	Estimator      tokenizer.Estimator
	PostProcessors []PostProcessor
}

// New builds a Builder with the default BPE-or-len/4 estimator.
func New(registry Registry) *Builder {
	return &Builder{Registry: registry, Estimator: tokenizer.Default()}
}

func (b *Builder) estimator() tokenizer.Estimator {
	if b.Estimator != nil {
		return b.Estimator
	}
	return tokenizer.Default()
}

func (b *Builder) resolve(c project.Candidate) (signature, code string, lines *[2]int) {
	signature, code, lines = c.Signature, c.Code, c.Lines
	needSig := signature == ""
	needCode := code == "" && c.Code == ""
	needLines := lines == nil
	if (needSig || needCode || needLines) && b.Registry != nil {
		if regSig, regCode, regLines, ok := b.Registry.Get(c.SymbolId); ok {
			if needSig {
				signature = regSig
			}
			if needCode {
				code = regCode
			}
			if needLines {
				lines = regLines
			}
		}
	}
	return signature, code, lines
}

// dedupCandidates collapses repeated SymbolIds to a single candidate.
// The first occurrence fixes the candidate's position; the last
// occurrence's fields (including Meta) win, so a later candidate for
// the same symbol overwrites an earlier one rather than adding a
// second slice to the pack.
func dedupCandidates(candidates []project.Candidate) []project.Candidate {
	order := make([]project.SymbolId, 0, len(candidates))
	latest := make(map[project.SymbolId]project.Candidate, len(candidates))
	for _, c := range candidates {
		if _, ok := latest[c.SymbolId]; !ok {
			order = append(order, c.SymbolId)
		}
		latest[c.SymbolId] = c
	}
	deduped := make([]project.Candidate, len(order))
	for i, id := range order {
		deduped[i] = latest[id]
	}
	return deduped
}

func orderCandidates(candidates []project.Candidate) []project.Candidate {
	ordered := append([]project.Candidate(nil), candidates...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Relevance != ordered[j].Relevance {
			return ordered[i].Relevance > ordered[j].Relevance
		}
		if ordered[i].Order != ordered[j].Order {
			return ordered[i].Order < ordered[j].Order
		}
		return ordered[i].SymbolId < ordered[j].SymbolId
	})
	return ordered
}

// Build turns candidates into a ContextPack. budgetTokens <= 0 means
// unbounded. Candidates are sorted by (-relevance, order, symbol_id);
// each is included in full if the remaining budget allows, else as a
// signature-only slice, else the walk stops.
func (b *Builder) Build(candidates []project.Candidate, budgetTokens int) *ContextPack {
	if len(candidates) == 0 {
		return &ContextPack{}
	}

	for _, pp := range b.PostProcessors {
		candidates = pp(candidates)
	}
	ordered := orderCandidates(dedupCandidates(candidates))

	est := b.estimator()
	var slices []ContextSlice
	used := 0

	for _, c := range ordered {
		signature, code, lines := b.resolve(c)
		sigCost := est.Count(signature)
		fullCost := sigCost
		if code != "" {
			fullCost += est.Count(code)
		}

		switch {
		case budgetTokens <= 0 || used+fullCost <= budgetTokens:
			slices = append(slices, ContextSlice{
				ID: c.SymbolId, Signature: signature, Code: code, HasCode: code != "",
				Lines: lines, Relevance: c.Label, Meta: c.Meta,
				ETag: computeETag(signature, code),
			})
			used += fullCost
		case used+sigCost <= budgetTokens:
			slices = append(slices, ContextSlice{
				ID: c.SymbolId, Signature: signature, Lines: lines,
				Relevance: c.Label, Meta: c.Meta,
				ETag: computeETag(signature, ""),
			})
			used += sigCost
		default:
			return &ContextPack{Slices: slices, BudgetUsed: used}
		}
	}

	return &ContextPack{Slices: slices, BudgetUsed: used}
}

// BuildDelta is Build augmented with delta-mode elision: symbols already
// present in delta.Unchanged get a signature-only slice (code omitted)
// regardless of budget headroom for code, and are recorded into the
// pack's Unchanged list; cache_stats and rehydrate are populated from
// delta.
func (b *Builder) BuildDelta(candidates []project.Candidate, delta DeltaResult, budgetTokens int) *ContextPack {
	if len(candidates) == 0 {
		return &ContextPack{Unchanged: []project.SymbolId{}, Rehydrate: map[project.SymbolId]string{}}
	}

	for _, pp := range b.PostProcessors {
		candidates = pp(candidates)
	}
	ordered := orderCandidates(dedupCandidates(candidates))

	est := b.estimator()
	var slices []ContextSlice
	var unchangedIDs []project.SymbolId
	used, hits, misses := 0, 0, 0

	for _, c := range ordered {
		signature, code, lines := b.resolve(c)
		isUnchanged := delta.Unchanged[c.SymbolId]
		sigCost := est.Count(signature)
		fullCost := sigCost
		if code != "" {
			fullCost += est.Count(code)
		}
		etag := computeETag(signature, code)

		if isUnchanged {
			hits++
			unchangedIDs = append(unchangedIDs, c.SymbolId)
			if budgetTokens <= 0 || used+sigCost <= budgetTokens {
				slices = append(slices, ContextSlice{
					ID: c.SymbolId, Signature: signature, Lines: lines,
					Relevance: c.Label, Meta: c.Meta, ETag: etag,
				})
				used += sigCost
				continue
			}
			break
		}

		misses++
		switch {
		case budgetTokens <= 0 || used+fullCost <= budgetTokens:
			slices = append(slices, ContextSlice{
				ID: c.SymbolId, Signature: signature, Code: code, HasCode: code != "",
				Lines: lines, Relevance: c.Label, Meta: c.Meta, ETag: etag,
			})
			used += fullCost
		case used+sigCost <= budgetTokens:
			slices = append(slices, ContextSlice{
				ID: c.SymbolId, Signature: signature, Lines: lines,
				Relevance: c.Label, Meta: c.Meta, ETag: computeETag(signature, ""),
			})
			used += sigCost
		default:
			return b.finishDelta(slices, used, unchangedIDs, delta, hits, misses)
		}
	}

	return b.finishDelta(slices, used, unchangedIDs, delta, hits, misses)
}

func (b *Builder) finishDelta(slices []ContextSlice, used int, unchangedIDs []project.SymbolId, delta DeltaResult, hits, misses int) *ContextPack {
	total := hits + misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	if unchangedIDs == nil {
		unchangedIDs = []project.SymbolId{}
	}
	rehydrate := delta.Rehydrate
	if rehydrate == nil {
		rehydrate = map[project.SymbolId]string{}
	}
	return &ContextPack{
		Slices:     slices,
		BudgetUsed: used,
		Unchanged:  unchangedIDs,
		Rehydrate:  rehydrate,
		CacheStats: &CacheStats{Hits: hits, Misses: misses, HitRate: hitRate},
	}
}

func computeETag(signature, code string) string {
	payload := signature
	if code != "" {
		payload = signature + "\n" + code
	}
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
