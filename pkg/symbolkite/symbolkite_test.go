package symbolkite

import (
	"os"
	"path/filepath"
	"testing"

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

func TestWalkSignaturesDepthZeroReturnsOnlyEntry(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "util.py", "def helper():\n    return 1\n")
	writeFile(t, root, "main.py", "from util import helper\n\n\ndef run():\n    return helper()\n")

	idx, err := project.Build(root, project.BuildOptions{})
	require.NoError(t, err)

	nodes, err := WalkSignatures(idx, "run", 0, Options{})
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, project.SymbolId("main.py:run"), nodes[0].SymbolId)
	assert.Equal(t, 0, nodes[0].Depth)
}

func TestWalkSignaturesFollowsCallGraphToMaxDepth(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "util.py", "def helper():\n    return 1\n")
	writeFile(t, root, "main.py", "from util import helper\n\n\ndef run():\n    return helper()\n")

	idx, err := project.Build(root, project.BuildOptions{})
	require.NoError(t, err)

	nodes, err := WalkSignatures(idx, "run", 1, Options{})
	require.NoError(t, err)

	var sawRun, sawHelper bool
	for _, n := range nodes {
		if n.SymbolId == project.SymbolId("main.py:run") {
			sawRun = true
			assert.Equal(t, 0, n.Depth)
		}
		if n.SymbolId == project.SymbolId("util.py:helper") {
			sawHelper = true
			assert.Equal(t, 1, n.Depth)
		}
	}
	assert.True(t, sawRun)
	assert.True(t, sawHelper)
}

func TestWalkSignaturesDoesNotRevisitNodes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", `
def a():
    return b() + c()


def b():
    return c()


def c():
    return 1
`)
	idx, err := project.Build(root, project.BuildOptions{})
	require.NoError(t, err)

	nodes, err := WalkSignatures(idx, "a", 5, Options{})
	require.NoError(t, err)

	seen := map[project.SymbolId]bool{}
	for _, n := range nodes {
		require.False(t, seen[n.SymbolId], "symbol %s visited twice", n.SymbolId)
		seen[n.SymbolId] = true
	}
}

func TestWalkSignaturesMaxNodesGuard(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", `
def a():
    return b() + c() + d()


def b():
    return 1


def c():
    return 1


def d():
    return 1
`)
	idx, err := project.Build(root, project.BuildOptions{})
	require.NoError(t, err)

	nodes, err := WalkSignatures(idx, "a", 2, Options{MaxNodes: 2})
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
}

func TestWalkPopulatesCodeWhenSourceAndRangesAvailable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def f():\n    return 1\n")

	idx, err := project.Build(root, project.BuildOptions{IncludeSource: true, IncludeRanges: true})
	require.NoError(t, err)

	candidates, err := Walk(idx, "f", 0, Options{})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "def f():", candidates[0].Code)
}

func TestWalkRelevanceDecaysWithDepth(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "util.py", "def helper():\n    return 1\n")
	writeFile(t, root, "main.py", "from util import helper\n\n\ndef run():\n    return helper()\n")

	idx, err := project.Build(root, project.BuildOptions{})
	require.NoError(t, err)

	candidates, err := Walk(idx, "run", 1, Options{})
	require.NoError(t, err)

	byID := map[project.SymbolId]project.Candidate{}
	for _, c := range candidates {
		byID[c.SymbolId] = c
	}
	assert.Equal(t, 2, byID[project.SymbolId("main.py:run")].Relevance)
	assert.Equal(t, 1, byID[project.SymbolId("util.py:helper")].Relevance)
}

func TestWalkSignaturesModulePathReturnsTopLevelSymbols(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pkg/greet.py", `
def hello(name):
    return name


class Greeter:
    def greet(self, name):
        return hello(name)
`)
	idx, err := project.Build(root, project.BuildOptions{})
	require.NoError(t, err)

	nodes, err := WalkSignatures(idx, "pkg/greet", 2, Options{})
	require.NoError(t, err)

	ids := map[project.SymbolId]bool{}
	for _, n := range nodes {
		ids[n.SymbolId] = true
		assert.Equal(t, 0, n.Depth, "module export nodes are all depth 0")
	}
	assert.True(t, ids[project.SymbolId("pkg/greet.py:hello")])
	assert.True(t, ids[project.SymbolId("pkg/greet.py:Greeter")])
	assert.True(t, ids[project.SymbolId("pkg/greet.py:Greeter.greet")])
}

func TestWalkSignaturesUnknownEntryErrors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def f():\n    pass\n")

	idx, err := project.Build(root, project.BuildOptions{})
	require.NoError(t, err)

	_, err = WalkSignatures(idx, "nope", 1, Options{})
	assert.Error(t, err)
}
