package cfg

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

const loopPayload = `{
  "func_name": "loop",
  "func_file_location": "/tmp/loop.py",
  "source_code_line_number": 10,
  "source_code_lines": ["def loop(n):\n", "    while n:\n", "        n -= 1\n", "    return n\n"],
  "nodes": [
    {"id": 0, "pretty_strings": ["   0 SETUP_LOOP"], "source_code_line_numbers": [11]},
    {"id": 4, "pretty_strings": ["   4 LOAD_FAST 0 (n)", "   6 POP_JUMP_IF_FALSE 18"], "source_code_line_numbers": [11]},
    {"id": 8, "pretty_strings": ["   8 LOAD_FAST"], "source_code_line_numbers": [12]},
    {"id": "tail", "pretty_strings": ["  18 RETURN_VALUE"], "source_code_line_numbers": [13]}
  ],
  "links": [
    {"source": 0, "target": 4},
    {"source": 4, "target": 8},
    {"source": 4, "target": "tail"},
    {"source": 8, "target": 4}
  ],
  "dist_to_nodes": {"0": [0], "1": [4], "2": [8, "tail"]}
}`

func TestDecode_JSON(t *testing.T) {
	fn, err := Decode(strings.NewReader(loopPayload), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, "loop", fn.Name)
	assert.Equal(t, 10, fn.FirstLine)
	require.Len(t, fn.Nodes, 4)
	assert.Equal(t, BlockID("0"), fn.Nodes[0].ID)
	assert.Equal(t, BlockID("tail"), fn.Nodes[3].ID)
	assert.Equal(t, []int{11}, fn.Nodes[1].SourceCodeLineNumbers)
	assert.Equal(t, Edge{Source: "4", Target: "tail"}, fn.Links[2])
	assert.Equal(t, []BlockID{"8", "tail"}, fn.DistToNodes[2])
	assert.Equal(t, []int{0, 1, 2}, fn.DistToNodes.Levels())
	assert.NoError(t, fn.Validate())
	assert.Equal(t, "Function loop from /tmp/loop.py", fn.Caption())
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"no nodes", `{"source_code_lines": ["x"], "nodes": []}`},
		{"no source", `{"nodes": [{"id": 1}]}`},
		{"bad id", `{"source_code_lines": ["x"], "nodes": [{"id": [1]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.payload), FormatJSON)
			assert.Error(t, err)
		})
	}
}

func TestDecode_ComputesMissingDistances(t *testing.T) {
	payload := `{"source_code_lines": ["a", "b"],
	  "nodes": [{"id": "a"}, {"id": "b"}, {"id": "c"}, {"id": "orphan"}],
	  "links": [{"source": "a", "target": "b"}, {"source": "a", "target": "c"}, {"source": "b", "target": "c"}]}`

	fn, err := Decode(strings.NewReader(payload), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, DistanceMap{0: {"a"}, 1: {"b", "c"}}, fn.DistToNodes)
}

func TestEncodeDecode_Msgpack(t *testing.T) {
	fn, err := Decode(strings.NewReader(loopPayload), FormatJSON)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, fn, FormatMsgpack))

	back, err := Decode(&buf, FormatMsgpack)
	require.NoError(t, err)
	assert.Equal(t, fn.Nodes, back.Nodes)
	assert.Equal(t, fn.Links, back.Links)
	assert.Equal(t, fn.DistToNodes, back.DistToNodes)
}

func TestDecode_MsgpackDistanceKeys(t *testing.T) {
	tests := []struct {
		name string
		dist interface{}
	}{
		{"string keys", map[string][]int{"0": {0}, "2": {1}}},
		{"integer keys", map[int][]int{0: {0}, 2: {1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, msgpack.NewEncoder(&buf).Encode(map[string]interface{}{
				"func_name":               "f",
				"func_file_location":      "f.py",
				"source_code_line_number": 1,
				"source_code_lines":       []string{"pass"},
				"nodes": []map[string]interface{}{
					{"id": 0, "pretty_strings": []string{"NOP"}, "source_code_line_numbers": []int{1}},
					{"id": 1, "pretty_strings": []string{"RETURN_VALUE"}, "source_code_line_numbers": []int{1}},
				},
				"links":         []map[string]int{{"source": 0, "target": 1}},
				"dist_to_nodes": tt.dist,
			}))

			fn, err := Decode(&buf, FormatMsgpack)
			require.NoError(t, err)
			assert.Equal(t, DistanceMap{0: {"0"}, 2: {"1"}}, fn.DistToNodes)
		})
	}
}

func TestDecode_MsgpackBadDistanceKey(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, msgpack.NewEncoder(&buf).Encode(map[string]interface{}{
		"func_name":         "f",
		"source_code_lines": []string{"pass"},
		"nodes":             []map[string]interface{}{{"id": 0}},
		"dist_to_nodes":     map[string][]int{"first": {0}},
	}))

	_, err := Decode(&buf, FormatMsgpack)
	assert.Error(t, err)
}

func TestLoad_FormatDetection(t *testing.T) {
	dir := t.TempDir()
	fn, err := Decode(strings.NewReader(loopPayload), FormatJSON)
	require.NoError(t, err)

	mpk := filepath.Join(dir, "loop.msgpack")
	f, err := os.Create(mpk)
	require.NoError(t, err)
	require.NoError(t, Encode(f, fn, FormatMsgpack))
	require.NoError(t, f.Close())

	// JSON body behind a misleading extension still loads.
	misnamed := filepath.Join(dir, "loop.mpk")
	require.NoError(t, os.WriteFile(misnamed, []byte(loopPayload), 0644))

	for _, path := range []string{mpk, misnamed} {
		got, err := Load(path)
		require.NoError(t, err, path)
		assert.Equal(t, "loop", got.Name)
		assert.Len(t, got.Nodes, 4)
	}

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestValidate_UnknownBlock(t *testing.T) {
	tests := []struct {
		name  string
		fn    Function
		id    BlockID
		where string
	}{
		{
			name:  "edge target",
			fn:    Function{Nodes: []BasicBlock{{ID: "a"}}, Links: []Edge{{Source: "a", Target: "ghost"}}},
			id:    "ghost",
			where: "links[0].target",
		},
		{
			name:  "edge source",
			fn:    Function{Nodes: []BasicBlock{{ID: "a"}}, Links: []Edge{{Source: "a", Target: "a"}, {Source: "x", Target: "a"}}},
			id:    "x",
			where: "links[1].source",
		},
		{
			name:  "distance level",
			fn:    Function{Nodes: []BasicBlock{{ID: "a"}}, DistToNodes: DistanceMap{0: {"a"}, 1: {"b"}}},
			id:    "b",
			where: "dist_to_nodes[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnknownBlock))

			var ube *UnknownBlockError
			require.True(t, errors.As(err, &ube))
			assert.Equal(t, tt.id, ube.ID)
			assert.Equal(t, tt.where, ube.Where)
			assert.Contains(t, err.Error(), string(tt.id))
		})
	}
}

func TestValidate_DuplicateID(t *testing.T) {
	fn := Function{Nodes: []BasicBlock{{ID: "a"}, {ID: "a"}}}
	err := fn.Validate()
	assert.True(t, errors.Is(err, ErrInvalidPayload))
}

func TestComputeDistances(t *testing.T) {
	links := []Edge{
		{Source: "entry", Target: "head"},
		{Source: "head", Target: "body"},
		{Source: "body", Target: "head"},
		{Source: "head", Target: "exit"},
		{Source: "head", Target: "exit"},
	}

	dist := ComputeDistances("entry", links)
	assert.Equal(t, DistanceMap{
		0: {"entry"},
		1: {"head"},
		2: {"body", "exit"},
	}, dist)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatMsgpack, FormatForPath("a/b.MSGPACK"))
	assert.Equal(t, FormatMsgpack, FormatForPath("x.mpk"))
	assert.Equal(t, FormatJSON, FormatForPath("x.json"))
	assert.Equal(t, FormatJSON, FormatForPath("x"))
}
