// Package markup extracts the visible text of the pre-formatted instruction
// fragments that producers emit.
package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// Text returns the text content of an HTML fragment with tags dropped and
// entities decoded. Malformed markup yields whatever text was readable.
func Text(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return fragment
	}

	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.TextToken:
			sb.Write(z.Text())
		}
	}
}

// Lines applies Text to every fragment.
func Lines(fragments []string) []string {
	out := make([]string, len(fragments))
	for i, f := range fragments {
		out[i] = Text(f)
	}
	return out
}
