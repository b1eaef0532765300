package decompile

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"gmldc/internal/ast"
	"gmldc/internal/cfg"
	"gmldc/internal/gml"
)

// ResolveState is what a resolver has made of a block so far.
type ResolveState struct {
	Resolved bool
	Block    ast.Block
	// Cond is set when the block ends in a conditional branch. It holds when
	// execution falls through to the next instruction rather than jumping.
	Cond ast.Expr
}

// BlockMeta is the metadata of a block CFG node: the half-open instruction range
// [Start, End) it covers and its resolve state.
type BlockMeta struct {
	Start int
	End   int
	State ResolveState
}

// Len returns the number of instructions in the block's range.
func (m BlockMeta) Len() int { return m.End - m.Start }

// BlockGraph is the block-level CFG the resolvers rewrite.
type BlockGraph = cfg.Graph[BlockMeta]

type span struct{ start, end int }

// PartitionBlocks collapses an instruction CFG into basic blocks.
// The algorithm:
//  1. Find leaders: the entry, instructions after trailers, and branch targets
//     (anything not entered solely from the previous index).
//  2. Find trailers: instructions with zero or several successors, unconditional
//     jumps, and instructions whose only successor is not the next index.
//  3. Cut the sorted reachable indices into maximal runs between them.
//  4. Connect each block to the blocks owning its leader's predecessors.
func PartitionBlocks(code *gml.Code, ig *InstrGraph, opts ...cfg.Option) (*BlockGraph, error) {
	instrs := code.Instructions
	refs := ig.Nodes()
	out := cfg.New[BlockMeta](opts...)
	if len(refs) == 0 {
		return out, nil
	}

	leaders := bitset.New(uint(len(instrs) + 1))
	trailers := bitset.New(uint(len(instrs)))
	leaders.Set(0)
	if root, ok := ig.Root(); ok {
		leaders.Set(uint(root))
	}

	for _, ref := range refs {
		n := int(ref)
		node, _ := ig.Node(ref)
		if len(node.Children) != 1 || !node.Children.Has(ref+1) || isJump(instrs[n]) {
			trailers.Set(uint(n))
			if n+1 < len(instrs) {
				leaders.Set(uint(n + 1))
			}
		}
		if len(node.Parents) != 1 || !node.Parents.Has(ref-1) {
			leaders.Set(uint(n))
		}
	}

	var spans []span
	cur, prev := -1, -1
	for _, ref := range refs {
		n := int(ref)
		if cur >= 0 && (leaders.Test(uint(n)) || n != prev+1) {
			spans = append(spans, span{cur, prev + 1})
			cur = -1
		}
		if cur < 0 {
			cur = n
		}
		prev = n
		if trailers.Test(uint(n)) {
			spans = append(spans, span{cur, n + 1})
			cur = -1
		}
	}
	if cur >= 0 {
		spans = append(spans, span{cur, prev + 1})
	}

	owner := make(map[int]cfg.NodeRef, len(refs))
	for id, s := range spans {
		for i := s.start; i < s.end; i++ {
			owner[i] = cfg.NodeRef(id)
		}
	}

	// The entry block goes in first so it becomes the root.
	root, _ := ig.Root()
	entry := owner[int(root)]
	out.InsertParentless(entry, BlockMeta{Start: spans[entry].start, End: spans[entry].end})
	for id, s := range spans {
		out.InsertParentless(cfg.NodeRef(id), BlockMeta{Start: s.start, End: s.end})
	}

	for id, s := range spans {
		for _, p := range ig.ParentsOf(cfg.NodeRef(s.start)) {
			from, ok := owner[int(p)]
			if !ok {
				return nil, fmt.Errorf("partition blocks: instruction %d has no block", p)
			}
			if err := out.AddEdge(from, cfg.NodeRef(id)); err != nil {
				return nil, fmt.Errorf("partition blocks: %w", err)
			}
		}
	}
	return out, nil
}
