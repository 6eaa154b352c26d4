package astcache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)

	summary := ModuleSummary{
		Language: "python",
		FileHash: "deadbeef",
		Functions: []FunctionRecord{
			{Name: "hello", Params: "(name)", Line: 1},
		},
	}

	require.NoError(t, c.Put("pkg/greet.py", 1000, 42, summary))

	got, ok := c.Get("pkg/greet.py", 1000, 42)
	require.True(t, ok)
	assert.Equal(t, summary, got)
}

func TestGetMissOnFingerprintMismatch(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)

	require.NoError(t, c.Put("a.py", 1000, 42, ModuleSummary{Language: "python"}))

	_, ok := c.Get("a.py", 1000, 43) // size changed
	assert.False(t, ok)

	_, ok = c.Get("a.py", 1001, 42) // mtime changed
	assert.False(t, ok)
}

func TestGetMissWhenEntryAbsent(t *testing.T) {
	c := New(t.TempDir())
	_, ok := c.Get("nope.py", 0, 0)
	assert.False(t, ok)
}

func TestStatsTrackHitsAndMisses(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	require.NoError(t, c.Put("a.py", 1000, 42, ModuleSummary{Language: "python"}))

	c.Get("a.py", 1000, 42)  // hit
	c.Get("a.py", 1000, 999) // miss
	c.Get("missing.py", 0, 0)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
}

func TestInvalidateRemovesEntry(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	require.NoError(t, c.Put("a.py", 1000, 42, ModuleSummary{Language: "python"}))

	c.Invalidate("a.py")

	_, ok := c.Get("a.py", 1000, 42)
	assert.False(t, ok)
}

func TestClearRemovesAllEntries(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	require.NoError(t, c.Put("a.py", 1000, 42, ModuleSummary{Language: "python"}))
	require.NoError(t, c.Put("b.py", 1000, 42, ModuleSummary{Language: "python"}))

	require.NoError(t, c.Clear())

	_, ok := c.Get("a.py", 1000, 42)
	assert.False(t, ok)
	_, ok = c.Get("b.py", 1000, 42)
	assert.False(t, ok)
}

func TestEntryFileNamedByPathDigest(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	require.NoError(t, c.Put("pkg/greet.py", 1000, 42, ModuleSummary{Language: "python"}))

	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestFreshCacheReadsSurviveAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	c1 := New(dir)
	require.NoError(t, c1.Put("a.py", 1000, 42, ModuleSummary{Language: "python", FileHash: "abc"}))

	c2 := New(dir)
	got, ok := c2.Get("a.py", 1000, 42)
	require.True(t, ok)
	assert.Equal(t, "abc", got.FileHash)
}
