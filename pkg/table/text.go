package table

import (
	"fmt"
	"io"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/olekukonko/tablewriter"

	"github.com/l3aro/cfgview/pkg/markup"
)

// WriteText renders the table for a terminal. Each block's instruction lines
// are spread over the rows of its span, the last row taking what is left.
// With color set, the block column is tinted with the row's border color.
func WriteText(w io.Writer, t *Table, color bool) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"Line", "Source", "Block", "Bytecode"})
	tw.SetAutoWrapText(false)
	tw.SetAutoFormatHeaders(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)

	var (
		lines []string
		left  int
	)
	for _, row := range t.Rows {
		if row.Bytecode != nil {
			lines = markup.Lines(row.Bytecode.Lines)
			left = row.Bytecode.RowSpan
		}

		var text string
		if left > 0 {
			if left == 1 {
				text = strings.Join(lines, "\n")
				lines = nil
			} else if len(lines) > 0 {
				text, lines = lines[0], lines[1:]
			}
			left--
		}

		block := ""
		if row.Owner != "" {
			block = string(row.Owner)
			if color {
				block = tint(block, row.Color)
			}
		}
		tw.Append([]string{row.Label, row.Source, block, text})
	}
	tw.Render()
}

// tint wraps s in a 24-bit ANSI foreground color.
func tint(s, hex string) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return s
	}
	r, g, b := c.RGB255()
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm%s\x1b[0m", r, g, b, s)
}
