// Package highlight turns source lines into escaped HTML with token classes,
// using tree-sitter grammars for the languages it knows.
package highlight

import (
	"html"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/l3aro/cfgview/pkg/cache"
)

// Class is a token category, used as the CSS class "tok-<class>".
type Class uint8

const (
	None Class = iota
	Keyword
	String
	Number
	Comment
	Constant
)

func (c Class) String() string {
	switch c {
	case Keyword:
		return "keyword"
	case String:
		return "string"
	case Number:
		return "number"
	case Comment:
		return "comment"
	case Constant:
		return "constant"
	default:
		return ""
	}
}

// grammar couples a tree-sitter language with the named node types that are
// colored as a whole.
type grammar struct {
	language *sitter.Language
	named    map[string]Class
}

var grammars = map[string]grammar{
	".py": {
		language: python.GetLanguage(),
		named: map[string]Class{
			"string":  String,
			"comment": Comment,
			"integer": Number,
			"float":   Number,
			"true":    Constant,
			"false":   Constant,
			"none":    Constant,
		},
	},
	".go": {
		language: golang.GetLanguage(),
		named: map[string]Class{
			"interpreted_string_literal": String,
			"raw_string_literal":         String,
			"rune_literal":               String,
			"comment":                    Comment,
			"int_literal":                Number,
			"float_literal":              Number,
			"imaginary_literal":          Number,
			"true":                       Constant,
			"false":                      Constant,
			"nil":                        Constant,
			"iota":                       Constant,
		},
	},
}

// Supported reports whether the file's language has a grammar.
func Supported(path string) bool {
	_, ok := grammars[strings.ToLower(filepath.Ext(path))]
	return ok
}

// results holds recent highlighting keyed by extension and source. Every
// session of a served payload highlights the same lines.
var results = cache.New(cache.Options[string, []string]{
	MaxSize:  64,
	MaxBytes: 32 << 20,
	SizeOf: func(key string, out []string) int {
		n := len(key)
		for _, s := range out {
			n += len(s)
		}
		return n
	},
})

// Lines returns one HTML string per input line. Lines of a file whose
// language has no grammar are only escaped. Input lines must not contain
// newlines.
func Lines(path string, lines []string) []string {
	ext := strings.ToLower(filepath.Ext(path))
	g, ok := grammars[ext]
	if !ok || len(lines) == 0 {
		return escapeAll(lines)
	}

	key := ext + "\x00" + strings.Join(lines, "\n")
	if out, found := results.Get(key); found {
		return append([]string(nil), out...)
	}
	out := parse(g, lines)
	results.Set(key, out)
	return append([]string(nil), out...)
}

func parse(g grammar, lines []string) []string {
	src := []byte(strings.Join(lines, "\n"))
	parser := sitter.NewParser()
	parser.SetLanguage(g.language)
	tree := parser.Parse(nil, src)
	if tree == nil {
		return escapeAll(lines)
	}
	defer tree.Close()

	classes := make([]Class, len(src))
	mark(tree.RootNode(), g, classes)
	return render(src, classes, len(lines))
}

// mark assigns a class to every byte covered by a colored node.
func mark(n *sitter.Node, g grammar, classes []Class) {
	if n == nil {
		return
	}
	typ := n.Type()
	if c, ok := g.named[typ]; ok && n.IsNamed() {
		fill(classes, n.StartByte(), n.EndByte(), c)
		return
	}
	if !n.IsNamed() && isWord(typ) {
		fill(classes, n.StartByte(), n.EndByte(), Keyword)
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		mark(n.Child(i), g, classes)
	}
}

func fill(classes []Class, start, end uint32, c Class) {
	if int(end) > len(classes) {
		end = uint32(len(classes))
	}
	for i := start; i < end; i++ {
		classes[i] = c
	}
}

// isWord matches anonymous nodes spelled like keywords ("def", "return").
func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && r != '_' {
			return false
		}
	}
	return true
}

// render splits src on newlines and wraps runs of equal class in spans.
func render(src []byte, classes []Class, count int) []string {
	out := make([]string, 0, count)
	var sb strings.Builder
	start := 0
	flush := func(from, to int) {
		for from < to {
			c := classes[from]
			end := from + 1
			for end < to && classes[end] == c {
				end++
			}
			text := html.EscapeString(string(src[from:end]))
			if c == None {
				sb.WriteString(text)
			} else {
				sb.WriteString(`<span class="tok-`)
				sb.WriteString(c.String())
				sb.WriteString(`">`)
				sb.WriteString(text)
				sb.WriteString(`</span>`)
			}
			from = end
		}
	}
	for i, b := range src {
		if b != '\n' {
			continue
		}
		flush(start, i)
		out = append(out, sb.String())
		sb.Reset()
		start = i + 1
	}
	flush(start, len(src))
	out = append(out, sb.String())
	return out
}

func escapeAll(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = html.EscapeString(l)
	}
	return out
}
