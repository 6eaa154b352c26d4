package format

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/l3aro/tldrs/pkg/pack"
	"github.com/l3aro/tldrs/pkg/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePack() *pack.ContextPack {
	lines := [2]int{3, 9}
	return &pack.ContextPack{
		BudgetUsed: 42,
		Slices: []pack.ContextSlice{
			{
				ID: "main.py:run", Signature: "run()", Code: "return 1", HasCode: true,
				Lines: &lines, Relevance: "contains_diff", ETag: "abc123",
				Meta: map[string]any{"class_scope": true},
			},
		},
	}
}

func TestUltracompactIncludesAliasHeaderAndCodeBlock(t *testing.T) {
	out := Ultracompact(samplePack())
	assert.Contains(t, out, "P0=main.py")
	assert.Contains(t, out, "P0:run run() @3-9 [contains_diff]")
	assert.Contains(t, out, "```")
	assert.Contains(t, out, "return 1")
}

func TestUltracompactMarksUnchangedSlices(t *testing.T) {
	pk := samplePack()
	pk.Unchanged = []project.SymbolId{"main.py:run"}
	out := Ultracompact(pk)
	assert.Contains(t, out, "[UNCHANGED]")
}

func TestUltracompactPrependsDeltaSummary(t *testing.T) {
	pk := samplePack()
	pk.CacheStats = &pack.CacheStats{Hits: 3, Misses: 1, HitRate: 0.75}
	out := Ultracompact(pk)
	assert.True(t, strings.HasPrefix(out, "# Delta: 3 unchanged, 1 changed (75% cache hit)"))
}

func TestUltracompactListsRehydrationRefs(t *testing.T) {
	pk := samplePack()
	pk.Rehydrate = map[project.SymbolId]string{"main.py:run": "vhs://deadbeef"}
	out := Ultracompact(pk)
	assert.Contains(t, out, "# Rehydration refs")
	assert.Contains(t, out, "vhs://deadbeef")
}

func TestJSONMatchesCanonicalShape(t *testing.T) {
	out, err := JSON(samplePack(), false)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	assert.Equal(t, float64(42), decoded["budget_used"])
	slices := decoded["slices"].([]any)
	require.Len(t, slices, 1)
	slice := slices[0].(map[string]any)
	assert.Equal(t, "main.py:run", slice["id"])
	assert.Equal(t, "run()", slice["signature"])
	assert.Equal(t, "return 1", slice["code"])
	assert.Equal(t, "abc123", slice["etag"])
	assert.Equal(t, true, slice["class_scope"])
}

func TestJSONOmitsCodeFieldWhenSignatureOnly(t *testing.T) {
	pk := samplePack()
	pk.Slices[0].HasCode = false
	pk.Slices[0].Code = ""
	out, err := JSON(pk, false)
	require.NoError(t, err)
	assert.NotContains(t, out, `"code"`)
}

func TestJSONOmitsDeltaFieldsWhenAbsent(t *testing.T) {
	out, err := JSON(samplePack(), false)
	require.NoError(t, err)
	assert.NotContains(t, out, "cache_stats")
	assert.NotContains(t, out, "rehydrate")
	assert.NotContains(t, out, "unchanged")
}

func TestTextIncludesSignatureAndBudget(t *testing.T) {
	out := Text(samplePack())
	assert.Contains(t, out, "budget used: 42")
	assert.Contains(t, out, "run()")
}

func TestTruncateOutputClampsLinesThenBytes(t *testing.T) {
	text := "one\ntwo\nthree\nfour"
	clamped := TruncateOutput(text, 2, 0)
	assert.Equal(t, "one\ntwo", clamped)

	byteClamped := TruncateOutput("abcdefgh", 0, 4)
	assert.Equal(t, "abcd", byteClamped)
}
