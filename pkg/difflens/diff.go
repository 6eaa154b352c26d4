// Package difflens is the diff-anchored retrieval engine: it turns a
// unified-diff text stream into a ranked candidate list, proximity-scored
// against a ProjectIndex's symbol ranges and call graph.
package difflens

import (
	"regexp"
	"strconv"
	"strings"
)

// Hunk is one parsed diff hunk: the touched file and the (1-based,
// inclusive) line range on the "+" side.
type Hunk struct {
	FilePath  string
	StartLine int
	EndLine   int
}

var hunkHeaderRe = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

// ParseUnifiedDiff splits diff text into hunks derived from the "+" side of
// "@@" markers. A hunk with a zero line count collapses to a single line.
// A file deleted on the "+" side ("+++ /dev/null") is ignored entirely.
func ParseUnifiedDiff(diffText string) []Hunk {
	var hunks []Hunk
	var currentFile string
	deleted := false

	for _, line := range strings.Split(diffText, "\n") {
		switch {
		case strings.HasPrefix(line, "diff --git "):
			parts := strings.Fields(line)
			if len(parts) >= 4 {
				currentFile = stripGitPrefix(parts[3])
			}
			deleted = false
		case strings.HasPrefix(line, "+++ "):
			path := strings.TrimSpace(line[4:])
			if path == "/dev/null" {
				deleted = true
				currentFile = ""
				continue
			}
			deleted = false
			currentFile = stripGitPrefix(path)
		case strings.HasPrefix(line, "@@ ") && currentFile != "" && !deleted:
			m := hunkHeaderRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			start, _ := strconv.Atoi(m[1])
			count := 1
			if m[2] != "" {
				count, _ = strconv.Atoi(m[2])
			}
			if start < 1 {
				start = 1
			}
			end := start
			if count > 0 {
				end = start + count - 1
			}
			hunks = append(hunks, Hunk{FilePath: currentFile, StartLine: start, EndLine: end})
		}
	}
	return hunks
}

func stripGitPrefix(path string) string {
	if strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/") {
		return path[2:]
	}
	return path
}
