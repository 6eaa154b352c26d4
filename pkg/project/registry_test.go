package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetResolvesSignatureCodeAndLines(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pkg/greet.py", `
def hello(name):
    return "hi " + name
`)

	idx, err := Build(root, BuildOptions{IncludeSource: true, IncludeRanges: true})
	require.NoError(t, err)

	id := SymbolId("pkg/greet.py:hello")
	signature, code, lines, ok := idx.Get(id)
	require.True(t, ok)
	assert.Equal(t, "hello(name)", signature)
	assert.Contains(t, code, `return "hi " + name`)
	require.NotNil(t, lines)
}

func TestGetPrefersSignatureOverrideForClasses(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pkg/greet.py", `
class Greeter:
    def greet(self, name):
        return name
`)

	idx, err := Build(root, BuildOptions{})
	require.NoError(t, err)

	signature, _, _, ok := idx.Get(SymbolId("pkg/greet.py:Greeter"))
	require.True(t, ok)
	assert.Equal(t, "class Greeter", signature)
}

func TestGetReturnsFalseForUnknownSymbol(t *testing.T) {
	idx := newProjectIndex(t.TempDir())
	_, _, _, ok := idx.Get(SymbolId("missing.py:nope"))
	assert.False(t, ok)
}
