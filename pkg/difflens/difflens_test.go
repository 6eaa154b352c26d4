package difflens

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/l3aro/tldrs/internal/tokenizer"
	"github.com/l3aro/tldrs/pkg/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

const sampleDiff = `diff --git a/main.py b/main.py
index 1111111..2222222 100644
--- a/main.py
+++ b/main.py
@@ -2,3 +2,4 @@ def run():
-    old = 1
+    old = 1
+    return helper()
`

func TestParseUnifiedDiffExtractsPlusSideHunk(t *testing.T) {
	hunks := ParseUnifiedDiff(sampleDiff)
	require.Len(t, hunks, 1)
	assert.Equal(t, "main.py", hunks[0].FilePath)
	assert.Equal(t, 2, hunks[0].StartLine)
	assert.Equal(t, 5, hunks[0].EndLine)
}

func TestParseUnifiedDiffIgnoresDeletedFiles(t *testing.T) {
	diff := "diff --git a/gone.py b/gone.py\n--- a/gone.py\n+++ /dev/null\n@@ -1,2 +0,0 @@\n-x = 1\n-y = 2\n"
	hunks := ParseUnifiedDiff(diff)
	assert.Empty(t, hunks)
}

func TestBuildCandidatesRanksDiffBearingSymbolFirst(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "util.py", "def helper():\n    return 1\n")
	writeFile(t, root, "main.py", "from util import helper\n\n\ndef run():\n    old = 1\n    return helper()\n")

	idx, err := project.Build(root, project.BuildOptions{IncludeSource: true, IncludeReverseAdjacency: true})
	require.NoError(t, err)

	diff := `diff --git a/main.py b/main.py
--- a/main.py
+++ b/main.py
@@ -4,2 +4,2 @@ def run():
-    old = 1
+    old = 1
`
	cands, err := BuildCandidates(idx, diff, Options{})
	require.NoError(t, err)
	require.NotEmpty(t, cands)
	assert.Equal(t, project.SymbolId("main.py:run"), cands[0].SymbolId)
	assert.Equal(t, "contains_diff", cands[0].Label)
	assert.Equal(t, 3, cands[0].Relevance)
	assert.NotNil(t, cands[0].Lines)
}

func TestBuildCandidatesLabelsOneHopCallee(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "util.py", "def helper():\n    return 1\n")
	writeFile(t, root, "main.py", "from util import helper\n\n\ndef run():\n    old = 1\n    return helper()\n")

	idx, err := project.Build(root, project.BuildOptions{IncludeSource: true, IncludeReverseAdjacency: true})
	require.NoError(t, err)

	diff := `diff --git a/main.py b/main.py
--- a/main.py
+++ b/main.py
@@ -4,2 +4,2 @@ def run():
-    old = 1
+    old = 1
`
	cands, err := BuildCandidates(idx, diff, Options{})
	require.NoError(t, err)

	var found bool
	for _, c := range cands {
		if c.SymbolId == project.SymbolId("util.py:helper") {
			found = true
			assert.Equal(t, "callee", c.Label)
			assert.Equal(t, 2, c.Relevance)
		}
	}
	assert.True(t, found, "expected helper() to appear as a callee candidate")
}

func TestBuildCandidatesChunkSummaryOmitsCode(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.py", "def run():\n    old = 1\n    return old\n")

	idx, err := project.Build(root, project.BuildOptions{IncludeSource: true})
	require.NoError(t, err)

	diff := `diff --git a/main.py b/main.py
--- a/main.py
+++ b/main.py
@@ -2,1 +2,1 @@ def run():
-    old = 1
+    old = 1
`
	cands, err := BuildCandidates(idx, diff, Options{Compression: CompressionChunkSummary})
	require.NoError(t, err)
	require.NotEmpty(t, cands)
	assert.Contains(t, cands[0].Code, "touched lines")
	assert.NotContains(t, cands[0].Code, "return old")
}

func TestBuildCandidatesTwoStageKeepsDiffBearingBlock(t *testing.T) {
	root := t.TempDir()
	body := "def run():\n    a = 1\n    b = 2\n\n    if a:\n        c = 3\n\n    old = 1\n    return old\n"
	writeFile(t, root, "main.py", body)

	idx, err := project.Build(root, project.BuildOptions{IncludeSource: true})
	require.NoError(t, err)

	diff := `diff --git a/main.py b/main.py
--- a/main.py
+++ b/main.py
@@ -8,1 +8,1 @@ def run():
-    old = 1
+    old = 1
`
	cands, err := BuildCandidates(idx, diff, Options{
		Compression:  CompressionTwoStage,
		BudgetTokens: 1600,
		Estimator:    tokenizer.Fallback(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, cands)
	assert.Contains(t, cands[0].Code, "old = 1")
}

func TestBuildCandidatesFallsBackToRecentFilesWhenDiffEmpty(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def a():\n    return 1\n")

	idx, err := project.Build(root, project.BuildOptions{IncludeSource: true})
	require.NoError(t, err)

	cands, err := BuildCandidates(idx, "", Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, cands)
}

func TestBuildCandidatesEmptyWorkspaceReturnsNil(t *testing.T) {
	root := t.TempDir()
	idx, err := project.Build(root, project.BuildOptions{})
	require.NoError(t, err)

	cands, err := BuildCandidates(idx, "", Options{})
	require.NoError(t, err)
	assert.Empty(t, cands)
}
