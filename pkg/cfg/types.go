// Package cfg defines the payload describing one function's Control Flow Graph:
// its basic blocks, the edges between them, the source lines they came from and
// the distance of every block from the entry block.
package cfg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
)

// BlockID identifies a basic block within one function. Producers emit either
// strings or integers (bytecode offsets); both decode to the same BlockID.
type BlockID string

// UnmarshalJSON accepts a JSON string or a JSON number.
func (id *BlockID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = BlockID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("block id must be a string or number, got %s", data)
	}
	*id = BlockID(n.String())
	return nil
}

// DecodeMsgpack accepts a msgpack string or integer.
func (id *BlockID) DecodeMsgpack(dec *msgpack.Decoder) error {
	v, err := dec.DecodeInterface()
	if err != nil {
		return err
	}
	switch t := v.(type) {
	case string:
		*id = BlockID(t)
	case int8, int16, int32, int64, uint8, uint16, uint32, uint64:
		*id = BlockID(fmt.Sprintf("%d", t))
	case float64:
		*id = BlockID(strconv.FormatFloat(t, 'f', -1, 64))
	default:
		return fmt.Errorf("block id must be a string or integer, got %T", v)
	}
	return nil
}

// EncodeMsgpack always writes the id as a string.
func (id BlockID) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(string(id))
}

// BasicBlock is one node of the CFG as emitted by the producer.
type BasicBlock struct {
	ID                    BlockID  `json:"id" msgpack:"id"`                                             // Unique within the function
	PrettyStrings         []string `json:"pretty_strings" msgpack:"pretty_strings"`                     // Pre-formatted instruction markup
	SourceCodeLineNumbers []int    `json:"source_code_line_numbers" msgpack:"source_code_line_numbers"` // Source lines the instructions map to

	// SequentialIndex is the block's rank in the input ordering. It is stamped
	// by the block index and only selects a color.
	SequentialIndex int `json:"-" msgpack:"-"`
}

// Edge is a directed control transfer between two blocks. Multi-edges and
// self-loops are kept as given.
type Edge struct {
	Source BlockID `json:"source" msgpack:"source"`
	Target BlockID `json:"target" msgpack:"target"`
}

// DistanceMap maps a distance level (0 = entry) to the blocks at that
// distance from the entry block.
type DistanceMap map[int][]BlockID

// DecodeMsgpack accepts levels keyed by integers or by stringified integers,
// as JSON producers write them.
func (d *DistanceMap) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	if n == -1 {
		*d = nil
		return nil
	}
	out := make(DistanceMap, n)
	for i := 0; i < n; i++ {
		key, err := dec.DecodeInterface()
		if err != nil {
			return err
		}
		level, err := distanceLevel(key)
		if err != nil {
			return err
		}
		var ids []BlockID
		if err := dec.Decode(&ids); err != nil {
			return fmt.Errorf("dist_to_nodes[%d]: %w", level, err)
		}
		out[level] = ids
	}
	*d = out
	return nil
}

func distanceLevel(key interface{}) (int, error) {
	switch k := key.(type) {
	case string:
		level, err := strconv.Atoi(k)
		if err != nil {
			return 0, fmt.Errorf("distance level must be an integer, got %q", k)
		}
		return level, nil
	case int8:
		return int(k), nil
	case int16:
		return int(k), nil
	case int32:
		return int(k), nil
	case int64:
		return int(k), nil
	case uint8:
		return int(k), nil
	case uint16:
		return int(k), nil
	case uint32:
		return int(k), nil
	case uint64:
		return int(k), nil
	default:
		return 0, fmt.Errorf("distance level must be an integer, got %T", key)
	}
}

// Levels returns the populated levels in ascending order.
func (d DistanceMap) Levels() []int {
	levels := make([]int, 0, len(d))
	for level, ids := range d {
		if len(ids) == 0 {
			continue
		}
		levels = append(levels, level)
	}
	sort.Ints(levels)
	return levels
}

// Function is the complete payload for one function.
type Function struct {
	Name            string       `json:"func_name" msgpack:"func_name"`
	FileLocation    string       `json:"func_file_location" msgpack:"func_file_location"`
	FirstLine       int          `json:"source_code_line_number" msgpack:"source_code_line_number"`
	SourceCodeLines []string     `json:"source_code_lines" msgpack:"source_code_lines"`
	Nodes           []BasicBlock `json:"nodes" msgpack:"nodes"`
	Links           []Edge       `json:"links" msgpack:"links"`
	DistToNodes     DistanceMap  `json:"dist_to_nodes,omitempty" msgpack:"dist_to_nodes,omitempty"`
}

// Caption is the identity string shown above the visualization.
func (f *Function) Caption() string {
	return fmt.Sprintf("Function %s from %s", f.Name, f.FileLocation)
}
