package cfg

import (
	"errors"
	"fmt"
)

// ErrUnknownBlock is returned when an edge or distance level references a
// block id that is not part of the block list.
var ErrUnknownBlock = errors.New("unknown basic block")

// UnknownBlockError names the missing id and where it was referenced.
type UnknownBlockError struct {
	ID    BlockID
	Where string // e.g. "links[3].target", "dist_to_nodes[2]"
}

func (e *UnknownBlockError) Error() string {
	return fmt.Sprintf("%s references unknown basic block %q", e.Where, e.ID)
}

// Is reports ErrUnknownBlock so callers can test with errors.Is.
func (e *UnknownBlockError) Is(target error) bool {
	return target == ErrUnknownBlock
}

// Validate checks every id reference of the payload. Duplicate block ids and
// negative distance levels are rejected as invalid payloads.
func (f *Function) Validate() error {
	known := make(map[BlockID]bool, len(f.Nodes))
	for i, n := range f.Nodes {
		if known[n.ID] {
			return fmt.Errorf("%w: nodes[%d] repeats block id %q", ErrInvalidPayload, i, n.ID)
		}
		known[n.ID] = true
	}

	for i, e := range f.Links {
		if !known[e.Source] {
			return &UnknownBlockError{ID: e.Source, Where: fmt.Sprintf("links[%d].source", i)}
		}
		if !known[e.Target] {
			return &UnknownBlockError{ID: e.Target, Where: fmt.Sprintf("links[%d].target", i)}
		}
	}

	for _, level := range f.DistToNodes.Levels() {
		if level < 0 {
			return fmt.Errorf("%w: negative distance level %d", ErrInvalidPayload, level)
		}
		for _, id := range f.DistToNodes[level] {
			if !known[id] {
				return &UnknownBlockError{ID: id, Where: fmt.Sprintf("dist_to_nodes[%d]", level)}
			}
		}
	}
	return nil
}

// ComputeDistances returns the breadth-first distance levels of every block
// reachable from entry. Unreachable blocks are absent from the map.
func ComputeDistances(entry BlockID, links []Edge) DistanceMap {
	succs := make(map[BlockID][]BlockID)
	for _, e := range links {
		succs[e.Source] = append(succs[e.Source], e.Target)
	}

	dist := DistanceMap{0: {entry}}
	seen := map[BlockID]bool{entry: true}
	frontier := []BlockID{entry}
	for level := 1; len(frontier) > 0; level++ {
		var next []BlockID
		for _, id := range frontier {
			for _, s := range succs[id] {
				if seen[s] {
					continue
				}
				seen[s] = true
				next = append(next, s)
			}
		}
		if len(next) > 0 {
			dist[level] = next
		}
		frontier = next
	}
	return dist
}
