package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     string
	}{
		{"plain", "   0 LOAD_CONST    1 (2)", "   0 LOAD_CONST    1 (2)"},
		{"tags", `<b>LOAD_FAST</b> <span class="arg">0</span>`, "LOAD_FAST 0"},
		{"entities", "COMPARE_OP 0 (&lt;)", "COMPARE_OP 0 (<)"},
		{"unterminated tag", "JUMP <i>18", "JUMP 18"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.fragment))
		})
	}
}

func TestLines(t *testing.T) {
	got := Lines([]string{"<b>a</b>", "b &amp; c"})
	assert.Equal(t, []string{"a", "b & c"}, got)
}
