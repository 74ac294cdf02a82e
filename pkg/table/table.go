// Package table builds the paired source/bytecode table: one row per source
// line, with each block's instruction listing spanning the rows of its run.
package table

import (
	"html"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/l3aro/cfgview/pkg/blockindex"
	"github.com/l3aro/cfgview/pkg/cfg"
)

// NeutralColor borders rows that no block owns.
const NeutralColor = "#c5cfd4"

// Cell is a bytecode cell. Lines are the owning block's instruction fragments.
type Cell struct {
	BlockID cfg.BlockID `json:"block_id"`
	Lines   []string    `json:"lines"`
	RowSpan int         `json:"row_span"`
	Color   string      `json:"color"`
}

// Row is one source line.
type Row struct {
	LineNumber int         `json:"line_number"`
	Label      string      `json:"label"`  // padded line number
	Source     string      `json:"source"` // dedented source text
	HTML       string      `json:"html"`   // Source as escaped or highlighted HTML
	Owner      cfg.BlockID `json:"owner,omitempty"`
	Color      string      `json:"color"`

	// Bytecode is set on the row where a block's run starts. EmptyCell marks
	// rows that carry an empty bytecode cell because no cell was open.
	Bytecode  *Cell `json:"bytecode,omitempty"`
	EmptyCell bool  `json:"empty_cell,omitempty"`
}

// Table is the built table.
type Table struct {
	Rows        []Row `json:"rows"`
	NumberWidth int   `json:"number_width"`
	Indent      int   `json:"indent"`
}

type options struct {
	neutral   string
	highlight func(lines []string) []string
}

// Option configures Build.
type Option func(*options)

// WithNeutralColor overrides the border color of unowned rows.
func WithNeutralColor(c string) Option {
	return func(o *options) {
		if c != "" {
			o.neutral = c
		}
	}
}

// WithHighlighter renders the dedented source lines to HTML. It must return
// one string per line.
func WithHighlighter(fn func(lines []string) []string) Option {
	return func(o *options) {
		o.highlight = fn
	}
}

// Build lays out the rows for source lines numbered from first. colors is
// indexed by block sequential index.
func Build(lines []string, first int, idx *blockindex.Index, colors []string, opts ...Option) *Table {
	o := options{neutral: NeutralColor}
	for _, opt := range opts {
		opt(&o)
	}

	t := &Table{
		Rows:        make([]Row, 0, len(lines)),
		NumberWidth: NumberWidth(len(lines), first),
	}
	if len(lines) > 0 {
		t.Indent = leadingIndent(lines[0])
	}

	// Producers usually keep each line's terminator.
	source := make([]string, len(lines))
	for i, l := range lines {
		source[i] = dedent(strings.TrimRight(l, "\r\n"), t.Indent)
	}
	markup := escapeLines(source)
	if o.highlight != nil {
		if hl := o.highlight(source); len(hl) == len(source) {
			markup = hl
		}
	}

	var (
		prevBlock cfg.BlockID
		hasPrev   bool
		open      *Cell
	)
	for i := range lines {
		n := first + i
		row := Row{
			LineNumber: n,
			Label:      padNumber(n, t.NumberWidth),
			Source:     source[i],
			HTML:       markup[i],
			Color:      o.neutral,
		}

		if b, ok := idx.OwnerOf(n); ok {
			row.Owner = b.ID
			if b.SequentialIndex < len(colors) {
				row.Color = colors[b.SequentialIndex]
			}
			if hasPrev && prevBlock == b.ID {
				open.RowSpan++
			} else {
				prevBlock, hasPrev = b.ID, true
				open = &Cell{BlockID: b.ID, Lines: b.PrettyStrings, RowSpan: 1, Color: row.Color}
				row.Bytecode = open
			}
		} else if open != nil {
			open.RowSpan++
		} else {
			row.EmptyCell = true
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// NumberWidth is the zero-padded width of line numbers,
// ceil(ln(count + first)).
func NumberWidth(count, first int) int {
	v := count + first
	if v <= 1 {
		return 0
	}
	return int(math.Ceil(math.Log(float64(v))))
}

func padNumber(n, width int) string {
	s := strconv.Itoa(n)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// leadingIndent counts leading whitespace. A blank line has no indentation.
func leadingIndent(line string) int {
	n := 0
	for _, r := range line {
		if !unicode.IsSpace(r) {
			return n
		}
		n++
	}
	return 0
}

// dedent drops up to n leading whitespace characters.
func dedent(line string, n int) string {
	for i, r := range line {
		if n == 0 || !unicode.IsSpace(r) {
			return line[i:]
		}
		n--
	}
	return ""
}

func escapeLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = html.EscapeString(l)
	}
	return out
}
