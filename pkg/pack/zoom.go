package pack

import (
	"strings"

	"github.com/l3aro/tldrs/pkg/extractor"
	sitter "github.com/smacker/go-tree-sitter"
)

// ZoomLevel is a progressive-disclosure rendering depth for one slice.
type ZoomLevel int

const (
	ZoomL0 ZoomLevel = iota // id only
	ZoomL1                  // id + signature
	ZoomL2                  // id + signature + control-flow skeleton
	ZoomL3                  // id + signature + windowed/compressed code
	ZoomL4                  // id + signature + full code (default)
)

var definitionNodeTypes = map[extractor.Language]map[string]bool{
	extractor.Python:     {"function_definition": true, "class_definition": true},
	extractor.Go:         {"function_declaration": true, "method_declaration": true},
	extractor.JavaScript: {"function_declaration": true, "method_definition": true, "class_declaration": true, "arrow_function": true},
	extractor.TypeScript: {"function_declaration": true, "method_definition": true, "class_declaration": true, "arrow_function": true},
}

var controlKeywordNodeTypes = map[extractor.Language]map[string]string{
	extractor.Python: {
		"if_statement": "if", "elif_clause": "elif", "else_clause": "else",
		"for_statement": "for", "while_statement": "while", "try_statement": "try",
		"except_clause": "except", "finally_clause": "finally", "with_statement": "with",
		"match_statement": "match", "case_clause": "case", "return_statement": "return",
		"raise_statement": "raise",
	},
	extractor.Go: {
		"if_statement": "if", "for_statement": "for", "switch_statement": "switch",
		"type_switch_statement": "switch", "select_statement": "select",
		"expression_case": "case", "communication_case": "case",
		"return_statement": "return", "go_statement": "go", "defer_statement": "defer",
	},
	extractor.JavaScript: {
		"if_statement": "if", "else_clause": "else", "for_statement": "for",
		"while_statement": "while", "try_statement": "try", "catch_clause": "catch",
		"finally_clause": "finally", "switch_statement": "switch", "switch_case": "case",
		"switch_default": "case", "return_statement": "return", "throw_statement": "throw",
	},
}

func init() {
	controlKeywordNodeTypes[extractor.TypeScript] = controlKeywordNodeTypes[extractor.JavaScript]
}

func zoomParser(lang extractor.Language) *sitter.Parser {
	switch lang {
	case extractor.Python:
		return extractor.NewPythonParser()
	case extractor.Go:
		return extractor.NewGoParser()
	case extractor.JavaScript:
		return extractor.NewJavaScriptParser()
	case extractor.TypeScript:
		return extractor.NewTypeScriptParser()
	default:
		return nil
	}
}

// bodySketch renders a control-flow skeleton for code: every definition
// header and control-flow keyword, indented the way it appears in source,
// in source order. Languages without a wired zoom parser (anything beyond
// python/go/javascript/typescript) return an empty sketch, same as the
// distilled engine's behavior for a language absent from its own table.
func bodySketch(code string, lang extractor.Language) string {
	if strings.TrimSpace(code) == "" {
		return ""
	}
	parser := zoomParser(lang)
	if parser == nil {
		return ""
	}

	content := []byte(code)
	tree := parser.Parse(nil, content)
	if tree == nil {
		return ""
	}
	defer tree.Close()

	srcLines := strings.Split(code, "\n")
	defs := definitionNodeTypes[lang]
	keywords := controlKeywordNodeTypes[lang]

	type emitted struct {
		startByte uint32
		line      string
	}
	var lines []emitted
	seen := make(map[uint32]bool)

	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		nodeType := node.Type()
		if defs[nodeType] {
			if sig := cleanSignature(nodeType, nodeText(node, content)); sig != "" && !seen[node.StartByte()] {
				seen[node.StartByte()] = true
				lines = append(lines, emitted{startByte: node.StartByte(), line: indentFor(node, srcLines) + sig})
			}
		} else if kw, ok := keywords[nodeType]; ok {
			if !seen[node.StartByte()] {
				seen[node.StartByte()] = true
				lines = append(lines, emitted{startByte: node.StartByte(), line: indentFor(node, srcLines) + kw})
			}
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}
	walk(tree.RootNode())

	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.line
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func nodeText(node *sitter.Node, content []byte) string {
	start, end := node.StartByte(), node.EndByte()
	if start >= uint32(len(content)) || end > uint32(len(content)) || start > end {
		return ""
	}
	return string(content[start:end])
}

func indentFor(node *sitter.Node, srcLines []string) string {
	row := int(node.StartPoint().Row)
	if row < 0 || row >= len(srcLines) {
		return ""
	}
	line := srcLines[row]
	trimmed := strings.TrimLeft(line, " \t")
	return line[:len(line)-len(trimmed)]
}

func cleanSignature(nodeType, text string) string {
	var first string
	for _, l := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(l); t != "" {
			first = t
			break
		}
	}
	if first == "" {
		return ""
	}
	first = strings.TrimSuffix(first, ";")
	if nodeType == "arrow_function" {
		if left := strings.TrimSpace(strings.SplitN(first, "=>", 2)[0]); left != "" {
			return "arrow " + left + " =>"
		}
		return "arrow =>"
	}
	first = strings.TrimSpace(strings.SplitN(first, "{", 2)[0])
	return strings.TrimSuffix(first, ":")
}

// FormatAtZoom renders one slice's textual content for a zoom level.
func FormatAtZoom(id, signature, code string, zoom ZoomLevel, lang extractor.Language) string {
	switch zoom {
	case ZoomL0:
		return id
	case ZoomL1:
		return joinNonEmpty(id, signature)
	case ZoomL2:
		return joinNonEmpty(id, signature, bodySketch(code, lang))
	default: // L3, L4
		return joinNonEmpty(id, signature, code)
	}
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
