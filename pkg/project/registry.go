package project

import "strings"

// Get resolves a candidate's missing signature, code, and line range from
// the scanned symbol tables, satisfying pkg/pack's Registry interface
// without pkg/pack needing to import this package's internals directly
// (pack already imports project for SymbolId/Candidate; the dependency
// only runs one way).
func (idx *ProjectIndex) Get(id SymbolId) (signature, code string, lines *[2]int, ok bool) {
	if override, has := idx.SignatureOverrides[id]; has {
		signature = override
		ok = true
	}

	if fn, has := idx.SymbolIndex[id]; has {
		ok = true
		if signature == "" {
			signature = functionSignature(fn)
		}
	}

	if !ok {
		return "", "", nil, false
	}

	if rng, has := idx.SymbolRanges[id]; has {
		file := idx.SymbolFiles[id]
		if src, hasSrc := idx.FileSources[file]; hasSrc {
			code = sliceLines(string(src), rng.Start, rng.End)
			lines = &[2]int{rng.Start, rng.End}
		}
	}

	return signature, code, lines, true
}

func functionSignature(fn FunctionInfo) string {
	parts := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		if p.Type != "" {
			parts = append(parts, p.Name+" "+p.Type)
		} else {
			parts = append(parts, p.Name)
		}
	}
	sig := fn.Name + "(" + strings.Join(parts, ", ") + ")"
	if fn.ReturnType != "" {
		sig += " " + fn.ReturnType
	}
	return sig
}

func sliceLines(src string, start, end int) string {
	lines := strings.Split(src, "\n")
	s, e := start-1, end
	if s < 0 {
		s = 0
	}
	if e > len(lines) {
		e = len(lines)
	}
	if s >= e {
		return ""
	}
	return strings.Join(lines[s:e], "\n")
}
