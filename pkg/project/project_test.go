package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/l3aro/tldrs/internal/tldrserr"
	"github.com/l3aro/tldrs/pkg/astcache"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestBuildRegistersPythonSymbols(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pkg/greet.py", `
def hello(name):
    return "hi " + name


class Greeter:
    def greet(self, name):
        return hello(name)
`)

	idx, err := Build(root, BuildOptions{})
	require.NoError(t, err)

	helloID := SymbolId("pkg/greet.py:hello")
	require.Contains(t, idx.SymbolIndex, helloID)
	require.Equal(t, "hello", idx.SymbolRawNames[helloID])
	require.Equal(t, []SymbolId{helloID}, idx.QualifiedIndex["greet.hello"])

	classID := SymbolId("pkg/greet.py:Greeter")
	require.Equal(t, "class Greeter", idx.SignatureOverrides[classID])

	methodID := SymbolId("pkg/greet.py:Greeter.greet")
	require.Contains(t, idx.SymbolIndex, methodID)
	require.Contains(t, idx.FileNameIndex["pkg/greet.py"]["greet"], methodID)
	require.Contains(t, idx.FileNameIndex["pkg/greet.py"]["Greeter.greet"], methodID)
	require.Contains(t, idx.NameIndex["greet"], methodID)
}

func TestBuildRegistersGoSymbols(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", `package main

func Add(a int, b int) int {
	return a + b
}
`)

	idx, err := Build(root, BuildOptions{})
	require.NoError(t, err)

	id := SymbolId("main.go:Add")
	require.Contains(t, idx.SymbolIndex, id)
	require.Equal(t, "Add", idx.SymbolIndex[id].Name)
	require.Equal(t, []SymbolId{id}, idx.QualifiedIndex["main.Add"])
}

func TestBuildCrossFileCallGraphPython(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "util.py", `
def helper():
    return 1
`)
	writeFile(t, root, "main.py", `
from util import helper


def run():
    return helper()
`)

	idx, err := Build(root, BuildOptions{})
	require.NoError(t, err)

	runID := SymbolId("main.py:run")
	callees, ok := idx.Adjacency[runID]
	require.True(t, ok, "expected run() to have outgoing call edges")
	found := false
	for _, c := range callees {
		if c == SymbolId("util.py:helper") {
			found = true
		}
	}
	require.True(t, found, "expected run() to call util.py:helper, got %v", callees)
}

func TestResolveEntryBareName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def only_here():\n    pass\n")

	idx, err := Build(root, BuildOptions{})
	require.NoError(t, err)

	res, err := idx.ResolveEntry("only_here", true)
	require.NoError(t, err)
	require.Equal(t, SymbolId("a.py:only_here"), res.SymbolId)
	require.Empty(t, res.Warning)
}

func TestResolveEntryAmbiguousWithoutDisambiguation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def dup():\n    pass\n")
	writeFile(t, root, "b.py", "def dup():\n    pass\n")

	idx, err := Build(root, BuildOptions{})
	require.NoError(t, err)

	_, err = idx.ResolveEntry("dup", false)
	require.Error(t, err)
	require.Equal(t, tldrserr.CodeAmbiguous, tldrserr.CodeOf(err))
}

func TestResolveEntryAmbiguousWithDisambiguationPicksOne(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def dup():\n    pass\n")
	writeFile(t, root, "dup.py", "def dup():\n    pass\n")

	idx, err := Build(root, BuildOptions{})
	require.NoError(t, err)

	res, err := idx.ResolveEntry("dup", true)
	require.NoError(t, err)
	require.Equal(t, SymbolId("dup.py:dup"), res.SymbolId)
	require.NotEmpty(t, res.Warning)
}

func TestResolveEntryColonExact(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pkg/a.py", "def f():\n    pass\n")

	idx, err := Build(root, BuildOptions{})
	require.NoError(t, err)

	res, err := idx.ResolveEntry("pkg/a.py:f", true)
	require.NoError(t, err)
	require.Equal(t, SymbolId("pkg/a.py:f"), res.SymbolId)
}

func TestResolveEntryColonSuffixMatch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "deep/nested/a.py", "def f():\n    pass\n")

	idx, err := Build(root, BuildOptions{})
	require.NoError(t, err)

	res, err := idx.ResolveEntry("a.py:f", true)
	require.NoError(t, err)
	require.Equal(t, SymbolId("deep/nested/a.py:f"), res.SymbolId)
}

func TestResolveEntryNotFound(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def f():\n    pass\n")

	idx, err := Build(root, BuildOptions{})
	require.NoError(t, err)

	_, err = idx.ResolveEntry("nope", true)
	require.Error(t, err)
	require.Equal(t, tldrserr.CodeNotFound, tldrserr.CodeOf(err))
}

func TestResolveEntryQualified(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "svc.py", `
class Handler:
    def process(self, req):
        return req
`)

	idx, err := Build(root, BuildOptions{})
	require.NoError(t, err)

	res, err := idx.ResolveEntry("Handler.process", true)
	require.NoError(t, err)
	require.Equal(t, SymbolId("svc.py:Handler.process"), res.SymbolId)
}

func TestBuildEmptyWorkspace(t *testing.T) {
	root := t.TempDir()

	idx, err := Build(root, BuildOptions{})
	require.NoError(t, err)
	require.Empty(t, idx.SymbolIndex)

	_, err = idx.ResolveEntry("anything", true)
	require.Error(t, err)
	require.Equal(t, tldrserr.CodeNotFound, tldrserr.CodeOf(err))
}

func TestBuildReusesWarmCacheEntry(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def f():\n    return 1\n")

	cacheDir := filepath.Join(root, ".tldrs-cache")
	cache := astcache.New(cacheDir)

	idx1, err := Build(root, BuildOptions{Cache: cache})
	require.NoError(t, err)
	require.Contains(t, idx1.SymbolIndex, SymbolId("a.py:f"))
	require.Equal(t, int64(0), cache.Stats().Hits)

	idx2, err := Build(root, BuildOptions{Cache: cache})
	require.NoError(t, err)
	require.Contains(t, idx2.SymbolIndex, SymbolId("a.py:f"))
	require.Equal(t, int64(1), cache.Stats().Hits, "second build should hit the warm cache entry")
}

func TestBuildIncludeSourceAndRanges(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def f():\n    pass\n")

	idx, err := Build(root, BuildOptions{IncludeSource: true, IncludeRanges: true})
	require.NoError(t, err)

	require.Contains(t, idx.FileSources, "a.py")
	id := SymbolId("a.py:f")
	rng, ok := idx.SymbolRanges[id]
	require.True(t, ok)
	require.Equal(t, rng.Start, rng.End)
}
