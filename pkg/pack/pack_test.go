package pack

import (
	"testing"

	"github.com/l3aro/tldrs/pkg/extractor"
	"github.com/l3aro/tldrs/pkg/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOrdersByRelevanceThenOrderThenID(t *testing.T) {
	b := New(nil)
	cands := []project.Candidate{
		{SymbolId: "a.py:low", Relevance: 1, Order: 0, Signature: "low()"},
		{SymbolId: "a.py:high", Relevance: 3, Order: 1, Signature: "high()"},
		{SymbolId: "a.py:mid", Relevance: 2, Order: 2, Signature: "mid()"},
	}

	pk := b.Build(cands, 0)
	require.Len(t, pk.Slices, 3)
	assert.Equal(t, project.SymbolId("a.py:high"), pk.Slices[0].ID)
	assert.Equal(t, project.SymbolId("a.py:mid"), pk.Slices[1].ID)
	assert.Equal(t, project.SymbolId("a.py:low"), pk.Slices[2].ID)
}

func TestBuildIncludesFullCodeWithinBudget(t *testing.T) {
	b := New(nil)
	cands := []project.Candidate{
		{SymbolId: "a.py:fn", Relevance: 3, Signature: "fn()", Code: "return 1"},
	}

	pk := b.Build(cands, 1000)
	require.Len(t, pk.Slices, 1)
	assert.True(t, pk.Slices[0].HasCode)
	assert.Equal(t, "return 1", pk.Slices[0].Code)
	assert.NotEmpty(t, pk.Slices[0].ETag)
}

func TestBuildFallsBackToSignatureOnlyWhenCodeExceedsBudget(t *testing.T) {
	b := New(nil)
	cands := []project.Candidate{
		{SymbolId: "a.py:fn", Relevance: 3, Signature: "fn()", Code: "a very long body that costs many tokens to render in full here"},
	}

	pk := b.Build(cands, 3)
	require.Len(t, pk.Slices, 1)
	assert.False(t, pk.Slices[0].HasCode)
	assert.Empty(t, pk.Slices[0].Code)
}

func TestBuildStopsWalkWhenEvenSignatureExceedsBudget(t *testing.T) {
	b := New(nil)
	cands := []project.Candidate{
		{SymbolId: "a.py:fn", Relevance: 3, Signature: "fn()", Code: "x"},
		{SymbolId: "a.py:fn2", Relevance: 2, Signature: "a_signature_long_enough_to_blow_the_remaining_budget_entirely()"},
	}

	pk := b.Build(cands, 1)
	assert.Len(t, pk.Slices, 0)
}

func TestBuildDedupsRepeatedSymbolKeepingLastWriterMetadata(t *testing.T) {
	b := New(nil)
	cands := []project.Candidate{
		{SymbolId: "a.py:fn", Relevance: 1, Order: 0, Signature: "fn()", Meta: map[string]any{"source": "symbolkite"}},
		{SymbolId: "a.py:fn", Relevance: 1, Order: 0, Signature: "fn()", Meta: map[string]any{"source": "difflens"}},
	}

	pk := b.Build(cands, 0)
	require.Len(t, pk.Slices, 1)
	assert.Equal(t, project.SymbolId("a.py:fn"), pk.Slices[0].ID)
	assert.Equal(t, "difflens", pk.Slices[0].Meta["source"])
}

func TestBuildDeltaDedupsRepeatedSymbol(t *testing.T) {
	b := New(nil)
	cands := []project.Candidate{
		{SymbolId: "a.py:fn", Relevance: 1, Signature: "fn()", Code: "old"},
		{SymbolId: "a.py:fn", Relevance: 1, Signature: "fn()", Code: "new"},
	}

	pk := b.BuildDelta(cands, DeltaResult{}, 0)
	require.Len(t, pk.Slices, 1)
	assert.Equal(t, "new", pk.Slices[0].Code)
}

func TestComputeETagDistinguishesSignatureOnlyFromFullCode(t *testing.T) {
	sigOnly := computeETag("fn()", "")
	withCode := computeETag("fn()", "return 1")
	assert.NotEqual(t, sigOnly, withCode)
}

func TestBuildDeltaTracksHitsMissesAndUnchanged(t *testing.T) {
	b := New(nil)
	cands := []project.Candidate{
		{SymbolId: "a.py:changed", Relevance: 3, Signature: "changed()", Code: "new body"},
		{SymbolId: "a.py:same", Relevance: 2, Signature: "same()", Code: "old body"},
	}
	delta := DeltaResult{
		Unchanged: map[project.SymbolId]bool{"a.py:same": true},
		Rehydrate: map[project.SymbolId]string{"a.py:same": "vhs://abc123"},
	}

	pk := b.BuildDelta(cands, delta, 0)
	require.Len(t, pk.Slices, 2)
	assert.True(t, pk.Slices[0].HasCode)
	assert.False(t, pk.Slices[1].HasCode)
	assert.Equal(t, []project.SymbolId{"a.py:same"}, pk.Unchanged)
	assert.Equal(t, "vhs://abc123", pk.Rehydrate["a.py:same"])
	require.NotNil(t, pk.CacheStats)
	assert.Equal(t, 1, pk.CacheStats.Hits)
	assert.Equal(t, 1, pk.CacheStats.Misses)
	assert.Equal(t, 0.5, pk.CacheStats.HitRate)
}

func TestResolveFallsBackToRegistryForMissingFields(t *testing.T) {
	reg := fakeRegistry{
		"a.py:fn": {signature: "fn(x)", code: "return x", lines: &[2]int{1, 2}},
	}
	b := New(reg)
	cands := []project.Candidate{{SymbolId: "a.py:fn", Relevance: 1}}

	pk := b.Build(cands, 0)
	require.Len(t, pk.Slices, 1)
	assert.Equal(t, "fn(x)", pk.Slices[0].Signature)
	assert.Equal(t, "return x", pk.Slices[0].Code)
	assert.Equal(t, &[2]int{1, 2}, pk.Slices[0].Lines)
}

type regEntry struct {
	signature, code string
	lines           *[2]int
}

type fakeRegistry map[project.SymbolId]regEntry

func (r fakeRegistry) Get(id project.SymbolId) (string, string, *[2]int, bool) {
	e, ok := r[id]
	if !ok {
		return "", "", nil, false
	}
	return e.signature, e.code, e.lines, true
}

func TestAttentionRerankerBlendsScores(t *testing.T) {
	cands := []project.Candidate{
		{SymbolId: "a.py:a", Relevance: 1, Signature: "a()"},
		{SymbolId: "a.py:b", Relevance: 1, Signature: "b()"},
	}
	reranked := AttentionReranker(map[project.SymbolId]float64{"a.py:b": 10})(cands)
	require.Len(t, reranked, 2)
	assert.Equal(t, project.SymbolId("a.py:b"), reranked[0].SymbolId)
}

func TestEditLocalityEnricherAttachesBoundaryAndInvariants(t *testing.T) {
	code := "\"\"\"doc\"\"\"\nassert x > 0\nreturn x"
	cands := []project.Candidate{
		{SymbolId: "a.py:fn", Signature: "fn()", Code: code, Meta: map[string]any{"diff_lines": []int{2}}},
	}
	out := EditLocalityEnricher()(cands)
	require.Len(t, out, 1)
	assert.Equal(t, 2, out[0].Meta["edit_boundary"])
	assert.Equal(t, []int{2}, out[0].Meta["invariants"])
}

func TestEditLocalityEnricherSkipsCandidatesWithoutDiffLines(t *testing.T) {
	cands := []project.Candidate{
		{SymbolId: "a.py:fn", Signature: "fn()", Code: "return 1", Meta: map[string]any{}},
	}
	out := EditLocalityEnricher()(cands)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].Meta["edit_boundary"])
}

func TestTypePruneDropsFrameworkEntryPointCallers(t *testing.T) {
	cands := []project.Candidate{
		{SymbolId: "a.py:main", Label: "caller", Signature: "main()"},
		{SymbolId: "a.py:real", Label: "caller", Signature: "real_caller(x)"},
	}
	out := TypePrune(10)(cands)
	require.Len(t, out, 1)
	assert.Equal(t, project.SymbolId("a.py:real"), out[0].SymbolId)
}

func TestTypePruneCoalescesDuplicateCallerShapes(t *testing.T) {
	cands := []project.Candidate{
		{SymbolId: "a.py:c1", Label: "caller", Signature: "handler(req)"},
		{SymbolId: "a.py:c2", Label: "caller", Signature: "handler(req)"},
		{SymbolId: "a.py:c3", Label: "caller", Signature: "handler(req)"},
	}
	out := TypePrune(1)(cands)
	assert.Len(t, out, 1)
}

func TestTypePruneDistinguishesCallerArgCounts(t *testing.T) {
	cands := []project.Candidate{
		{SymbolId: "a.py:c1", Label: "caller", Signature: "handler(req)"},
		{SymbolId: "a.py:c2", Label: "caller", Signature: "handler(req, ctx)"},
	}
	out := TypePrune(1)(cands)
	assert.Len(t, out, 2)
}

func TestFormatAtZoomLevels(t *testing.T) {
	code := "def fn():\n    if x:\n        return 1\n    return 2"
	assert.Equal(t, "a.py:fn", FormatAtZoom("a.py:fn", "fn()", code, ZoomL0, extractor.Python))
	assert.Equal(t, "a.py:fn\nfn()", FormatAtZoom("a.py:fn", "fn()", code, ZoomL1, extractor.Python))
	assert.Contains(t, FormatAtZoom("a.py:fn", "fn()", code, ZoomL4, extractor.Python), "return 2")
}

func TestBodySketchExtractsPythonControlFlow(t *testing.T) {
	code := "def fn(x):\n    if x:\n        return 1\n    return 2"
	sketch := bodySketch(code, extractor.Python)
	assert.Contains(t, sketch, "def fn(x):")
	assert.Contains(t, sketch, "if")
}

func TestBodySketchExtractsGoControlFlow(t *testing.T) {
	code := "func Fn(x int) int {\n\tif x > 0 {\n\t\treturn 1\n\t}\n\treturn 2\n}"
	sketch := bodySketch(code, extractor.Go)
	assert.Contains(t, sketch, "func Fn(x int) int")
	assert.Contains(t, sketch, "if")
}

func TestBodySketchReturnsEmptyForUnwiredLanguage(t *testing.T) {
	assert.Empty(t, bodySketch("fn x = 1", extractor.Elixir))
}
