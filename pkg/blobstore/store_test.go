package blobstore

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutIsDeterministicAndIdempotent(t *testing.T) {
	s := openTestStore(t)
	ref1, err := s.Put(strings.NewReader("hello world"))
	require.NoError(t, err)
	ref2, err := s.Put(strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, ref1, ref2)
	assert.True(t, strings.HasPrefix(ref1, "vhs://"))
	assert.Len(t, strings.TrimPrefix(ref1, "vhs://"), 64)
}

func TestPutGetRoundTripsSmallContent(t *testing.T) {
	s := openTestStore(t)
	ref, err := s.Put(strings.NewReader("tiny"))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, s.Get(ref, &out))
	assert.Equal(t, "tiny", out.String())

	info, err := s.InfoOf(ref)
	require.NoError(t, err)
	assert.False(t, info.Compressed)
}

func TestPutGetRoundTripsCompressedContent(t *testing.T) {
	s := openTestStore(t)
	large := strings.Repeat("the quick brown fox jumps over the lazy dog ", 200)
	ref, err := s.Put(strings.NewReader(large))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, s.Get(ref, &out))
	assert.Equal(t, large, out.String())

	info, err := s.InfoOf(ref)
	require.NoError(t, err)
	assert.True(t, info.Compressed)
}

func TestGetMissingRefReturnsNotFound(t *testing.T) {
	s := openTestStore(t)
	var out bytes.Buffer
	err := s.Get("vhs://"+strings.Repeat("0", 64), &out)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHasReflectsPresence(t *testing.T) {
	s := openTestStore(t)
	ref, err := s.Put(strings.NewReader("present"))
	require.NoError(t, err)
	assert.True(t, s.Has(ref))
	assert.False(t, s.Has("vhs://"+strings.Repeat("f", 64)))
}

func TestDeleteRemovesBlobAndMetadata(t *testing.T) {
	s := openTestStore(t)
	ref, err := s.Put(strings.NewReader("gone soon"))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ref))
	assert.False(t, s.Has(ref))

	var out bytes.Buffer
	assert.ErrorIs(t, s.Get(ref, &out), ErrNotFound)
}

func TestLsOrdersMostRecentFirst(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Put(strings.NewReader("first"))
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = s.Put(strings.NewReader("second"))
	require.NoError(t, err)

	entries, err := s.Ls(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.False(t, entries[0].CreatedAt.Before(entries[1].CreatedAt))
}

func TestStatsCountsAndSizesAllBlobs(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Put(strings.NewReader("abc"))
	require.NoError(t, err)
	_, err = s.Put(strings.NewReader("defgh"))
	require.NoError(t, err)

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, st.Count)
	assert.Equal(t, int64(8), st.TotalBytes)
}

func TestGCKeepsLastNEvenIfOld(t *testing.T) {
	s := openTestStore(t)
	ref, err := s.Put(strings.NewReader("keep me"))
	require.NoError(t, err)

	result, err := s.GC(GCOptions{MaxAgeDays: -1, KeepLast: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Deleted)
	assert.True(t, s.Has(ref))
}

func TestGCDryRunDoesNotDelete(t *testing.T) {
	s := openTestStore(t)
	ref, err := s.Put(strings.NewReader("old content"))
	require.NoError(t, err)

	result, err := s.GC(GCOptions{MaxAgeDays: -1, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)
	assert.True(t, s.Has(ref))
}

func TestGCSkipsReferencedBlobsEvenPastMaxAge(t *testing.T) {
	s := openTestStore(t)
	ref, err := s.Put(strings.NewReader("still referenced"))
	require.NoError(t, err)
	require.NoError(t, s.Ref(ref))

	result, err := s.GC(GCOptions{MaxAgeDays: -1})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Deleted)
	assert.True(t, s.Has(ref))

	require.NoError(t, s.Unref(ref))
	result, err = s.GC(GCOptions{MaxAgeDays: -1})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)
	assert.False(t, s.Has(ref))
}

func TestGCRemovesBlobsPastMaxAge(t *testing.T) {
	s := openTestStore(t)
	ref, err := s.Put(strings.NewReader("aging content"))
	require.NoError(t, err)

	result, err := s.GC(GCOptions{MaxAgeDays: -1})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)
	assert.False(t, s.Has(ref))
}
