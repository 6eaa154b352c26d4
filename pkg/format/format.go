// Package format renders a ContextPack as ultracompact, JSON, or
// human-readable text.
package format

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/l3aro/tldrs/pkg/pack"
	"github.com/l3aro/tldrs/pkg/project"
)

// splitSymbol divides a SymbolId "rel/path.go:Qualified.Name" into its
// file and qualified-name parts.
func splitSymbol(id project.SymbolId) (file, name string) {
	s := string(id)
	if i := strings.LastIndex(s, ":"); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

// Ultracompact renders pack as the alias-headered compact format: a
// "P0=<path> P1=<path> ..." header followed by one line per slice
// ("<alias>:<name> <signature> @<lines> [<relevance>]"), a fenced code
// block when code is included, and UNCHANGED/rehydrate/cache-stats
// annotations when the pack carries delta data.
func Ultracompact(pk *pack.ContextPack) string {
	var lines []string

	if pk.CacheStats != nil {
		lines = append(lines, fmt.Sprintf("# Delta: %d unchanged, %d changed (%.0f%% cache hit)",
			pk.CacheStats.Hits, pk.CacheStats.Misses, pk.CacheStats.HitRate*100))
		lines = append(lines, "")
	}

	pathIDs := make(map[string]string)
	alias := func(id project.SymbolId) string {
		file, name := splitSymbol(id)
		pid, ok := pathIDs[file]
		if !ok {
			pid = "P" + strconv.Itoa(len(pathIDs))
			pathIDs[file] = pid
		}
		return pid + ":" + name
	}

	for _, s := range pk.Slices {
		alias(s.ID)
	}

	if len(pathIDs) > 0 {
		paths := make([]string, 0, len(pathIDs))
		for p := range pathIDs {
			paths = append(paths, p)
		}
		sort.Slice(paths, func(i, j int) bool { return pathIDs[paths[i]] < pathIDs[paths[j]] })
		parts := make([]string, len(paths))
		for i, p := range paths {
			parts[i] = pathIDs[p] + "=" + p
		}
		lines = append(lines, strings.Join(parts, " "), "")
	}

	unchanged := make(map[project.SymbolId]bool, len(pk.Unchanged))
	for _, id := range pk.Unchanged {
		unchanged[id] = true
	}

	for _, s := range pk.Slices {
		lineInfo := ""
		if s.Lines != nil {
			lineInfo = fmt.Sprintf("@%d-%d", s.Lines[0], s.Lines[1])
		}
		marker := ""
		if unchanged[s.ID] {
			marker = " [UNCHANGED]"
		}
		header := strings.TrimSpace(fmt.Sprintf("%s %s %s [%s]%s", alias(s.ID), s.Signature, lineInfo, s.Relevance, marker))
		lines = append(lines, header)
		if s.HasCode {
			lines = append(lines, "```")
			lines = append(lines, strings.Split(s.Code, "\n")...)
			lines = append(lines, "```")
		}
		lines = append(lines, "")
	}

	if len(pk.Rehydrate) > 0 {
		lines = append(lines, "# Rehydration refs (use to fetch full code):")
		ids := make([]project.SymbolId, 0, len(pk.Rehydrate))
		for id := range pk.Rehydrate {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			lines = append(lines, fmt.Sprintf("#   %s: %s", id, pk.Rehydrate[id]))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// jsonSlice mirrors one ContextSlice in the canonical JSON shape,
// flattening Meta alongside the fixed fields.
type jsonPack struct {
	BudgetUsed int                        `json:"budget_used"`
	Slices     []map[string]any           `json:"slices"`
	Unchanged  []project.SymbolId         `json:"unchanged,omitempty"`
	Rehydrate  map[project.SymbolId]string `json:"rehydrate,omitempty"`
	CacheStats *pack.CacheStats           `json:"cache_stats,omitempty"`
}

// JSON renders pack as the canonical
// {budget_used, slices:[{id, relevance, signature, code?, lines, etag, ...meta}], unchanged?, rehydrate?, cache_stats?}
// structure. pretty requests indented output.
func JSON(pk *pack.ContextPack, pretty bool) (string, error) {
	out := jsonPack{
		BudgetUsed: pk.BudgetUsed,
		Unchanged:  pk.Unchanged,
		Rehydrate:  pk.Rehydrate,
		CacheStats: pk.CacheStats,
	}
	for _, s := range pk.Slices {
		entry := map[string]any{
			"id":        s.ID,
			"relevance": s.Relevance,
			"signature": s.Signature,
			"etag":      s.ETag,
		}
		if s.HasCode {
			entry["code"] = s.Code
		}
		if s.Lines != nil {
			entry["lines"] = []int{s.Lines[0], s.Lines[1]}
		}
		for k, v := range s.Meta {
			entry[k] = v
		}
		out.Slices = append(out.Slices, entry)
	}
	if out.Slices == nil {
		out.Slices = []map[string]any{}
	}

	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(out, "", "  ")
	} else {
		data, err = json.Marshal(out)
	}
	if err != nil {
		return "", fmt.Errorf("marshal context pack: %w", err)
	}
	return string(data), nil
}

// Text renders pack as a decorated, human-oriented report: not intended
// for machine consumption.
func Text(pk *pack.ContextPack) string {
	var b strings.Builder
	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	bold.Fprintf(&b, "Context pack (budget used: %d)\n", pk.BudgetUsed)
	if pk.CacheStats != nil {
		dim.Fprintf(&b, "  delta: %d hit / %d miss (%.0f%% hit rate)\n",
			pk.CacheStats.Hits, pk.CacheStats.Misses, pk.CacheStats.HitRate*100)
	}
	b.WriteString("\n")

	unchanged := make(map[project.SymbolId]bool, len(pk.Unchanged))
	for _, id := range pk.Unchanged {
		unchanged[id] = true
	}

	for _, s := range pk.Slices {
		_, name := splitSymbol(s.ID)
		marker := ""
		if unchanged[s.ID] {
			marker = dim.Sprint(" [unchanged]")
		}
		fmt.Fprintf(&b, "- %s %s%s\n", color.CyanString(name), s.Signature, marker)
		if s.Lines != nil {
			dim.Fprintf(&b, "    lines %d-%d, relevance %s\n", s.Lines[0], s.Lines[1], s.Relevance)
		}
		if s.HasCode {
			for _, l := range strings.Split(s.Code, "\n") {
				fmt.Fprintf(&b, "    %s\n", l)
			}
		}
	}

	if len(pk.Rehydrate) > 0 {
		b.WriteString("\nrehydration refs:\n")
		ids := make([]project.SymbolId, 0, len(pk.Rehydrate))
		for id := range pk.Rehydrate {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			fmt.Fprintf(&b, "  %s -> %s\n", id, pk.Rehydrate[id])
		}
	}

	return b.String()
}

// TruncateOutput clamps text to at most maxLines lines, then at most
// maxBytes bytes (line-then-byte). A value <= 0 disables that
// constraint.
func TruncateOutput(text string, maxLines, maxBytes int) string {
	if maxLines > 0 {
		lines := strings.Split(text, "\n")
		if len(lines) > maxLines {
			text = strings.Join(lines[:maxLines], "\n")
		}
	}
	if maxBytes > 0 && len(text) > maxBytes {
		text = text[:maxBytes]
	}
	return text
}
