package extractor

import (
	"fmt"

	"github.com/l3aro/tldrs/pkg/types"
	sitter "github.com/smacker/go-tree-sitter"
)

type notImplementedExtractor struct {
	lang Language
}

func (e *notImplementedExtractor) Extract(file string) (*types.ModuleInfo, error) {
	return nil, fmt.Errorf("%s extractor not yet implemented", e.lang)
}

func (e *notImplementedExtractor) Language() Language {
	return e.lang
}

func (e *notImplementedExtractor) FileExtensions() []string {
	return nil
}

func NewSwiftExtractor() Extractor   { return &notImplementedExtractor{Swift} }
func NewSwiftParser() *sitter.Parser { return nil }

func NewScalaExtractor() Extractor   { return &notImplementedExtractor{Scala} }
func NewScalaParser() *sitter.Parser { return nil }

func NewLuaExtractor() Extractor   { return &notImplementedExtractor{Lua} }
func NewLuaParser() *sitter.Parser { return nil }

func NewElixirExtractor() Extractor   { return &notImplementedExtractor{Elixir} }
func NewElixirParser() *sitter.Parser { return nil }
