package cfg

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Format is the wire encoding of a payload.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ErrInvalidPayload is returned when a payload cannot be used at all.
var ErrInvalidPayload = errors.New("invalid payload")

// FormatForPath picks the encoding from a file extension. Unknown extensions
// are treated as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mpk", ".msgp":
		return FormatMsgpack
	default:
		return FormatJSON
	}
}

// Decode reads a payload in the given format. A missing distance map is
// computed from the links, starting at the first node.
func Decode(r io.Reader, format Format) (*Function, error) {
	fn := &Function{}
	switch format {
	case FormatMsgpack:
		if err := msgpack.NewDecoder(r).Decode(fn); err != nil {
			return nil, fmt.Errorf("decoding msgpack payload: %w", err)
		}
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(fn); err != nil {
			return nil, fmt.Errorf("decoding json payload: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown payload format: %s", format)
	}

	if len(fn.Nodes) == 0 {
		return nil, fmt.Errorf("%w: no basic blocks", ErrInvalidPayload)
	}
	if len(fn.SourceCodeLines) == 0 {
		return nil, fmt.Errorf("%w: no source code lines", ErrInvalidPayload)
	}
	if len(fn.DistToNodes) == 0 {
		fn.DistToNodes = ComputeDistances(fn.Nodes[0].ID, fn.Links)
	}
	return fn, nil
}

// Load reads and decodes a payload file. The format follows the extension;
// a JSON-looking body is accepted whatever the extension.
func Load(path string) (*Function, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening payload %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	format := FormatForPath(path)
	if head, err := br.Peek(1); err == nil && looksLikeJSON(head[0]) {
		format = FormatJSON
	}

	fn, err := Decode(br, format)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return fn, nil
}

// Encode writes the payload in the given format.
func Encode(w io.Writer, fn *Function, format Format) error {
	switch format {
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		return enc.Encode(fn)
	case FormatJSON, "":
		data, err := json.MarshalIndent(fn, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown payload format: %s", format)
	}
}

func looksLikeJSON(b byte) bool {
	switch b {
	case '{', ' ', '\t', '\r', '\n':
		return true
	}
	return false
}
