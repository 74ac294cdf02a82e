// Package blockindex builds the lookups that correlate source lines with the
// basic blocks of a function.
package blockindex

import (
	"errors"
	"fmt"

	"github.com/l3aro/cfgview/pkg/cfg"
)

var (
	// ErrDuplicateBlock is returned when two blocks share an id.
	ErrDuplicateBlock = errors.New("duplicate basic block id")

	// ErrLineConflict is returned in strict mode when two blocks claim the
	// same source line.
	ErrLineConflict = errors.New("source line claimed by more than one block")
)

// LineConflict records a source line claimed by more than one block. The
// block seen later in input order owns the line.
type LineConflict struct {
	Line     int
	Previous cfg.BlockID
	Owner    cfg.BlockID
}

// Index maps block ids to block records and source lines to owning blocks.
type Index struct {
	blocks    []*cfg.BasicBlock
	byID      map[cfg.BlockID]*cfg.BasicBlock
	lineOwner map[int]cfg.BlockID
	conflicts []LineConflict
	unmapped  []cfg.BlockID
}

type options struct {
	strict bool
}

// Option configures Build.
type Option func(*options)

// WithStrictLines makes Build fail when two blocks claim the same line
// instead of letting the later block win.
func WithStrictLines(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// Build indexes blocks in input order, stamping each block's SequentialIndex.
// The records are copied; the caller's slice is not modified.
func Build(blocks []cfg.BasicBlock, opts ...Option) (*Index, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	idx := &Index{
		blocks:    make([]*cfg.BasicBlock, 0, len(blocks)),
		byID:      make(map[cfg.BlockID]*cfg.BasicBlock, len(blocks)),
		lineOwner: make(map[int]cfg.BlockID),
	}

	for i := range blocks {
		b := blocks[i]
		b.SequentialIndex = i
		if _, dup := idx.byID[b.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateBlock, b.ID)
		}
		idx.blocks = append(idx.blocks, &b)
		idx.byID[b.ID] = &b

		if len(b.SourceCodeLineNumbers) == 0 {
			idx.unmapped = append(idx.unmapped, b.ID)
			continue
		}
		for _, line := range b.SourceCodeLineNumbers {
			prev, claimed := idx.lineOwner[line]
			if claimed && prev != b.ID {
				if o.strict {
					return nil, fmt.Errorf("%w: line %d by %q and %q", ErrLineConflict, line, prev, b.ID)
				}
				idx.conflicts = append(idx.conflicts, LineConflict{Line: line, Previous: prev, Owner: b.ID})
			}
			idx.lineOwner[line] = b.ID
		}
	}
	return idx, nil
}

// Len returns the number of blocks.
func (idx *Index) Len() int {
	return len(idx.blocks)
}

// Blocks returns the block records in input order.
func (idx *Index) Blocks() []*cfg.BasicBlock {
	return idx.blocks
}

// Block looks a block up by id.
func (idx *Index) Block(id cfg.BlockID) (*cfg.BasicBlock, bool) {
	b, ok := idx.byID[id]
	return b, ok
}

// MustBlock looks a block up by id and returns an error naming the id when
// it is missing.
func (idx *Index) MustBlock(id cfg.BlockID, where string) (*cfg.BasicBlock, error) {
	b, ok := idx.byID[id]
	if !ok {
		return nil, &cfg.UnknownBlockError{ID: id, Where: where}
	}
	return b, nil
}

// OwnerOf returns the block owning a source line.
func (idx *Index) OwnerOf(line int) (*cfg.BasicBlock, bool) {
	id, ok := idx.lineOwner[line]
	if !ok {
		return nil, false
	}
	return idx.byID[id], true
}

// Conflicts lists lines claimed by more than one block.
func (idx *Index) Conflicts() []LineConflict {
	return idx.conflicts
}

// Unmapped lists blocks without any source line.
func (idx *Index) Unmapped() []cfg.BlockID {
	return idx.unmapped
}
