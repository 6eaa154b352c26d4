// Package project builds the per-project symbol table and call graph that
// every retrieval engine (symbolkite, difflens) queries. It generalizes the
// Python-only project index into a multi-language scan: one pass registers
// every function, class, and method as a SymbolId, a second pass turns
// resolved calls into a directed adjacency graph.
package project

import "github.com/l3aro/tldrs/pkg/astcache"

// SymbolId is a canonical string "<rel_path>:<qualified_name>" where
// qualified_name is a bare function name, a class name, or "Class.method".
// SymbolIds are unique within a single project snapshot.
type SymbolId string

// Param is one function/method parameter.
type Param struct {
	Name string
	Type string
}

// FunctionInfo is the signature-level record for one function or method.
type FunctionInfo struct {
	Name       string
	Params     []Param
	ReturnType string
	Doc        string
	Line       int
	Language   string
}

// Range is a half-open-by-convention (start_line, end_line) pair, 1-based.
type Range struct {
	Start int
	End   int
}

// Candidate is one scored symbol handed to the pack builder by a retrieval
// engine (symbolkite or difflens).
type Candidate struct {
	SymbolId  SymbolId
	Relevance int
	Label     string
	Order     int
	Signature string
	Code      string
	Lines     *[2]int
	Meta      map[string]any
}

// BuildOptions configures a single ProjectIndex.Build pass.
type BuildOptions struct {
	// IncludeSource keeps each scanned file's raw bytes in FileSources.
	IncludeSource bool
	// IncludeRanges populates SymbolRanges with (start_line, end_line).
	IncludeRanges bool
	// IncludeReverseAdjacency populates ReverseAdjacency alongside Adjacency.
	IncludeReverseAdjacency bool
	// IgnoreFileName overrides the default ".tldrsignore" ignore-file name.
	IgnoreFileName string
	// DefaultExcludes overrides the scanner's built-in excluded directory names.
	DefaultExcludes []string
	// PackageFilter restricts the scan to paths under these prefixes, if non-empty.
	PackageFilter []string
	// Cache, if set, is consulted before re-extracting each file (keyed by
	// mtime+size) and populated with every fresh extraction result.
	Cache *astcache.Cache
}

// ProjectIndex is the full per-project scan result: the ten tables named by
// the symbol-registration and call-graph-construction contract.
type ProjectIndex struct {
	Root string

	SymbolIndex        map[SymbolId]FunctionInfo
	SymbolFiles        map[SymbolId]string
	SymbolRawNames     map[SymbolId]string
	SignatureOverrides map[SymbolId]string
	NameIndex          map[string][]SymbolId
	QualifiedIndex     map[string][]SymbolId
	FileNameIndex      map[string]map[string][]SymbolId
	SymbolRanges       map[SymbolId]Range
	FileSources        map[string][]byte
	Adjacency          map[SymbolId][]SymbolId
	ReverseAdjacency   map[SymbolId][]SymbolId
}

func newProjectIndex(root string) *ProjectIndex {
	return &ProjectIndex{
		Root:               root,
		SymbolIndex:        make(map[SymbolId]FunctionInfo),
		SymbolFiles:        make(map[SymbolId]string),
		SymbolRawNames:     make(map[SymbolId]string),
		SignatureOverrides: make(map[SymbolId]string),
		NameIndex:          make(map[string][]SymbolId),
		QualifiedIndex:     make(map[string][]SymbolId),
		FileNameIndex:      make(map[string]map[string][]SymbolId),
		SymbolRanges:       make(map[SymbolId]Range),
		FileSources:        make(map[string][]byte),
		Adjacency:          make(map[SymbolId][]SymbolId),
		ReverseAdjacency:   make(map[SymbolId][]SymbolId),
	}
}
