package project

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/l3aro/tldrs/internal/tldrserr"
)

// EntryResolution is the result of resolving a user-supplied entry-point
// string to a single SymbolId. Warning is set when disambiguation picked a
// winner among several matches rather than finding a unique one.
type EntryResolution struct {
	SymbolId SymbolId
	Warning  string
}

// ResolveEntry implements the §4.2 entry-point resolution algorithm:
//  1. "file:name" — exact SymbolId, then relative-path lookup, then a
//     suffix match against every registered file path.
//  2. "a.b" — qualified_index lookup.
//  3. bare name — name_index lookup, disambiguated by score when there is
//     more than one match and allowDisambiguate is true; otherwise returns
//     a CodeAmbiguous error carrying every candidate.
//
// The module-path "every top-level symbol in that file" special case
// belongs to symbolkite's BFS entry handling, not this lookup.
func (idx *ProjectIndex) ResolveEntry(name string, allowDisambiguate bool) (*EntryResolution, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, tldrserr.NotFound("empty entry point")
	}

	switch {
	case strings.Contains(name, ":"):
		return idx.resolveColonEntry(name, allowDisambiguate)
	case strings.Contains(name, "."):
		return idx.resolveFromCandidates(name, idx.QualifiedIndex[name], allowDisambiguate)
	default:
		return idx.resolveFromCandidates(name, idx.NameIndex[name], allowDisambiguate)
	}
}

func (idx *ProjectIndex) resolveColonEntry(name string, allowDisambiguate bool) (*EntryResolution, error) {
	if _, ok := idx.SymbolIndex[SymbolId(name)]; ok {
		return &EntryResolution{SymbolId: SymbolId(name)}, nil
	}

	i := strings.Index(name, ":")
	filePart := filepath.ToSlash(name[:i])
	namePart := name[i+1:]

	if ids, ok := idx.FileNameIndex[filePart][namePart]; ok && len(ids) > 0 {
		return idx.resolveFromCandidates(namePart, ids, allowDisambiguate)
	}

	var suffixMatches []SymbolId
	for relPath, names := range idx.FileNameIndex {
		if relPath == filePart || strings.HasSuffix(relPath, "/"+filePart) {
			suffixMatches = append(suffixMatches, names[namePart]...)
		}
	}
	if len(suffixMatches) > 0 {
		return idx.resolveFromCandidates(namePart, suffixMatches, allowDisambiguate)
	}

	return nil, tldrserr.NotFound("entry point %q not found", name)
}

func (idx *ProjectIndex) resolveFromCandidates(queriedName string, ids []SymbolId, allowDisambiguate bool) (*EntryResolution, error) {
	ids = sortedUniqueIDs(ids)
	if len(ids) == 0 {
		return nil, tldrserr.NotFound("entry point %q not found", queriedName)
	}
	if len(ids) == 1 {
		return &EntryResolution{SymbolId: ids[0]}, nil
	}

	if !allowDisambiguate {
		candidates := make([]string, len(ids))
		for i, id := range ids {
			candidates[i] = string(id)
		}
		return nil, tldrserr.Ambiguous(fmt.Sprintf("entry point %q matches multiple symbols", queriedName), candidates)
	}

	best := idx.pickBest(queriedName, ids)
	return &EntryResolution{
		SymbolId: best,
		Warning:  fmt.Sprintf("entry point %q was ambiguous; chose %s", queriedName, best),
	}, nil
}

// pickBest scores candidates by (basename-of-file == tail-of-symbol,
// exact-bare-name, path depth, path lexicographic) and returns the best.
func (idx *ProjectIndex) pickBest(queriedName string, ids []SymbolId) SymbolId {
	tail := queriedName
	if i := strings.LastIndex(queriedName, "."); i >= 0 {
		tail = queriedName[i+1:]
	}

	type scored struct {
		id        SymbolId
		basename  bool
		exactBare bool
		depth     int
	}
	ranked := make([]scored, 0, len(ids))
	for _, id := range ids {
		relPath := idx.SymbolFiles[id]
		ranked = append(ranked, scored{
			id:        id,
			basename:  moduleStemOf(relPath) == tail,
			exactBare: idx.SymbolRawNames[id] == queriedName,
			depth:     strings.Count(filepath.ToSlash(relPath), "/"),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.basename != b.basename {
			return a.basename
		}
		if a.exactBare != b.exactBare {
			return a.exactBare
		}
		if a.depth != b.depth {
			return a.depth < b.depth
		}
		return a.id < b.id
	})
	return ranked[0].id
}
