package project

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/l3aro/tldrs/internal/scanner"
	"github.com/l3aro/tldrs/pkg/astcache"
	"github.com/l3aro/tldrs/pkg/callgraph"
	"github.com/l3aro/tldrs/pkg/extractor"
	"github.com/l3aro/tldrs/pkg/types"
)

// Build walks root, extracts every file a registered language adapter
// supports, and assembles the symbol tables plus the cross-file call graph.
// Parse failures for an individual file never abort the scan; the file
// simply contributes no symbols.
func Build(root string, opts BuildOptions) (*ProjectIndex, error) {
	idx := newProjectIndex(root)

	scanOpts := scanner.DefaultOptions()
	if opts.IgnoreFileName != "" {
		scanOpts.IgnoreFileName = opts.IgnoreFileName
	}
	if len(opts.DefaultExcludes) > 0 {
		scanOpts.DefaultExcludes = opts.DefaultExcludes
	}

	s := scanner.New(scanOpts)
	files, err := s.Scan(root)
	if err != nil {
		return nil, fmt.Errorf("scanning workspace: %w", err)
	}

	registry := extractor.NewFullLanguageRegistry()

	type scanned struct {
		relPath  string
		fullPath string
		language string
	}
	var candidates []scanned
	for _, f := range files {
		if !registry.IsSupported(f.FullPath) {
			continue
		}
		if !matchesPackageFilter(f.Path, opts.PackageFilter) {
			continue
		}
		candidates = append(candidates, scanned{relPath: f.Path, fullPath: f.FullPath, language: f.Language})
	}
	// Deterministic ordering: the final per-file ordering comes from the
	// sorted path enumeration, not extraction completion order.
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].relPath < candidates[j].relPath })

	var pythonFiles []string
	for _, cf := range candidates {
		info, err := extractWithCache(registry, cf.relPath, cf.fullPath, opts)
		if err != nil {
			continue
		}

		if opts.IncludeSource {
			if b, err := os.ReadFile(cf.fullPath); err == nil {
				idx.FileSources[filepath.ToSlash(cf.relPath)] = b
			}
		}

		idx.registerFile(cf.relPath, info, opts)

		if cf.language == string(extractor.Python) {
			pythonFiles = append(pythonFiles, cf.fullPath)
		}
	}

	idx.buildAdjacency(root, pythonFiles, opts)

	return idx, nil
}

// extractWithCache returns the ModuleInfo for fullPath, consulting
// opts.Cache first when set. A cache hit skips the language adapter
// entirely; a miss extracts normally and, on success, stores the result
// under the file's current (mtime_ns, size) fingerprint.
func extractWithCache(registry *extractor.LanguageRegistry, relPath, fullPath string, opts BuildOptions) (*types.ModuleInfo, error) {
	if opts.Cache != nil {
		if mtimeNs, size, err := astcache.StatFingerprint(fullPath); err == nil {
			if summary, ok := opts.Cache.Get(relPath, mtimeNs, size); ok {
				info := summary.ToModuleInfo(relPath)
				return &info, nil
			}

			ext, err := registry.GetExtractor(fullPath)
			if err != nil {
				return nil, err
			}
			info, err := ext.Extract(fullPath)
			if err != nil {
				return nil, err
			}
			if b, rerr := os.ReadFile(fullPath); rerr == nil {
				sum := sha256.Sum256(b)
				_ = opts.Cache.Put(relPath, mtimeNs, size, astcache.FromModuleInfo(*info, hex.EncodeToString(sum[:])))
			}
			return info, nil
		}
	}

	ext, err := registry.GetExtractor(fullPath)
	if err != nil {
		return nil, err
	}
	return ext.Extract(fullPath)
}

func matchesPackageFilter(relPath string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	relPath = filepath.ToSlash(relPath)
	for _, f := range filters {
		f = filepath.ToSlash(strings.TrimSuffix(f, "/"))
		if relPath == f || strings.HasPrefix(relPath, f+"/") {
			return true
		}
	}
	return false
}

// registerFile implements the §4.2 symbol-registration contract: every free
// function at "rel_path:name", every class at "rel_path:class" with a
// signature override, every method at "rel_path:Class.method", plus the
// module-alias qualified entry for free functions.
func (idx *ProjectIndex) registerFile(relPath string, info *types.ModuleInfo, opts BuildOptions) {
	relSlash := filepath.ToSlash(relPath)
	if idx.FileNameIndex[relSlash] == nil {
		idx.FileNameIndex[relSlash] = make(map[string][]SymbolId)
	}
	moduleStem := moduleStemOf(relSlash)

	addBareName := func(id SymbolId, bareName string) {
		idx.NameIndex[bareName] = append(idx.NameIndex[bareName], id)
		idx.FileNameIndex[relSlash][bareName] = append(idx.FileNameIndex[relSlash][bareName], id)
	}

	for _, fn := range info.Functions {
		id := SymbolId(relSlash + ":" + fn.Name)
		idx.registerSymbol(id, relSlash, fn.Name, toFunctionInfo(fn, info.Language), opts)
		addBareName(id, fn.Name)
		qualified := moduleStem + "." + fn.Name
		idx.QualifiedIndex[qualified] = append(idx.QualifiedIndex[qualified], id)
	}

	for _, cls := range info.Classes {
		classID := SymbolId(relSlash + ":" + cls.Name)
		idx.registerSymbol(classID, relSlash, cls.Name, FunctionInfo{
			Name: cls.Name, Doc: cls.Docstring, Line: cls.LineNumber, Language: info.Language,
		}, opts)
		idx.SignatureOverrides[classID] = "class " + cls.Name
		addBareName(classID, cls.Name)

		for _, m := range cls.Methods {
			qualName := cls.Name + "." + m.Name
			methodID := SymbolId(relSlash + ":" + qualName)
			idx.registerSymbol(methodID, relSlash, m.Name, toFunctionInfo(m, info.Language), opts)
			addBareName(methodID, m.Name)
			// file_name_index also carries the qualified "Class.method" shape
			// so difflens-style lookups resolve against the same table as
			// symbolkite's bare-name lookups (see SPEC_FULL.md §9 Q1).
			idx.FileNameIndex[relSlash][qualName] = append(idx.FileNameIndex[relSlash][qualName], methodID)
			idx.QualifiedIndex[qualName] = append(idx.QualifiedIndex[qualName], methodID)
		}
	}
}

func toFunctionInfo(fn types.Function, language string) FunctionInfo {
	return FunctionInfo{
		Name:       fn.Name,
		Params:     parseParams(fn.Params),
		ReturnType: fn.ReturnType,
		Doc:        fn.Docstring,
		Line:       fn.LineNumber,
		Language:   language,
	}
}

func (idx *ProjectIndex) registerSymbol(id SymbolId, relPath, rawName string, fn FunctionInfo, opts BuildOptions) {
	idx.SymbolIndex[id] = fn
	idx.SymbolFiles[id] = relPath
	idx.SymbolRawNames[id] = rawName
	if opts.IncludeRanges {
		idx.SymbolRanges[id] = Range{Start: fn.Line, End: fn.Line}
	}
}

func moduleStemOf(relPath string) string {
	base := filepath.Base(relPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// parseParams best-effort-splits a language adapter's raw parameter string
// into (name, type) pairs. Adapters hand back one comma-joined string rather
// than a structured list, and the name/type ordering differs by language
// ("name: type" in Python/TS/Rust, "type name" in Go/Java/C); we try the
// colon form first and fall back to the last-space split.
func parseParams(raw string) []Param {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "(")
	raw = strings.TrimSuffix(raw, ")")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	segments := splitTopLevelCommas(raw)
	params := make([]Param, 0, len(segments))
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if i := strings.Index(seg, ":"); i >= 0 {
			params = append(params, Param{Name: strings.TrimSpace(seg[:i]), Type: strings.TrimSpace(seg[i+1:])})
			continue
		}
		if i := strings.LastIndex(seg, " "); i >= 0 {
			params = append(params, Param{Name: strings.TrimSpace(seg[i+1:]), Type: strings.TrimSpace(seg[:i])})
			continue
		}
		params = append(params, Param{Name: seg})
	}
	return params
}

func splitTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(', '[', '<', '{':
			depth++
		case ')', ']', '>', '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// callGraphLanguages are skipped deliberately: callgraph.Builder's parser is
// hardcoded to the Python tree-sitter grammar (see pkg/callgraph/callgraph.go
// NewBuilderForLanguage), so real call-site detection only exists for Python
// today. Other languages still get full symbol registration above; they just
// contribute no adjacency edges until the builder grows real per-language
// grammars.
func (idx *ProjectIndex) buildAdjacency(root string, pythonFiles []string, opts BuildOptions) {
	if len(pythonFiles) == 0 {
		return
	}

	resolver := callgraph.NewResolver(root, extractor.NewPythonExtractor())
	cg, err := resolver.ResolveCalls(pythonFiles)
	if err != nil || cg == nil {
		return
	}

	for _, edge := range cg.Edges {
		if edge.DestFile == "" || edge.DestFunc == "" {
			continue
		}
		callerRel := toRelSlash(root, edge.SourceFile)
		calleeRel := toRelSlash(root, edge.DestFile)

		callerIDs := idx.lookupOrSynthesize(callerRel, edge.SourceFunc)
		calleeIDs := idx.lookupOrSynthesize(calleeRel, edge.DestFunc)

		for _, c := range callerIDs {
			for _, d := range calleeIDs {
				idx.Adjacency[c] = append(idx.Adjacency[c], d)
				if opts.IncludeReverseAdjacency {
					idx.ReverseAdjacency[d] = append(idx.ReverseAdjacency[d], c)
				}
			}
		}
	}

	for id, callees := range idx.Adjacency {
		idx.Adjacency[id] = sortedUniqueIDs(callees)
	}
	for id, callers := range idx.ReverseAdjacency {
		idx.ReverseAdjacency[id] = sortedUniqueIDs(callers)
	}
}

func toRelSlash(root, p string) string {
	if !filepath.IsAbs(p) {
		return filepath.ToSlash(p)
	}
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

// lookupOrSynthesize resolves (relPath, name) against file_name_index,
// falling back to a synthesized placeholder SymbolId per the adjacency
// invariant: every callee either exists in symbol_index or is a
// "<rel_path>:<name>" placeholder.
func (idx *ProjectIndex) lookupOrSynthesize(relPath, name string) []SymbolId {
	if ids, ok := idx.FileNameIndex[relPath][name]; ok && len(ids) > 0 {
		return ids
	}
	return []SymbolId{SymbolId(relPath + ":" + name)}
}

func sortedUniqueIDs(ids []SymbolId) []SymbolId {
	seen := make(map[SymbolId]bool, len(ids))
	out := make([]SymbolId, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
