package decompile

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"gmldc/internal/cfg"
	"gmldc/internal/gml"
)

// InstrGraph is the instruction-level CFG: one node per reachable instruction index.
type InstrGraph = cfg.Graph[struct{}]

type pendingEdge struct {
	parent int
	index  int
}

// BuildInstrGraph walks code breadth-first from its execution offset and records
// one node per reachable instruction. A revisited instruction gets the new edge
// but is not expanded again: its successors were queued on the first visit, which
// keeps loops and diamonds from being walked forever.
func BuildInstrGraph(code *gml.Code, opts ...cfg.Option) (*InstrGraph, error) {
	instrs := code.Instructions
	start, err := ByteOffsetToIndex(instrs, code.ExecutionOffset)
	if err != nil {
		return nil, fmt.Errorf("build instruction cfg: entry offset: %w", err)
	}

	g := cfg.New[struct{}](opts...)
	expanded := bitset.New(uint(len(instrs)))
	queue := []pendingEdge{{parent: 0, index: start}}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if p.index >= len(instrs) {
			continue
		}
		if expanded.Test(uint(p.index)) {
			if err := g.Insert(cfg.NodeRef(p.parent), cfg.NodeRef(p.index), struct{}{}); err != nil {
				return nil, fmt.Errorf("build instruction cfg: %w", err)
			}
			continue
		}
		expanded.Set(uint(p.index))

		succs, err := successors(instrs, p.index)
		if err != nil {
			return nil, fmt.Errorf("build instruction cfg: %w", err)
		}
		if err := g.Insert(cfg.NodeRef(p.parent), cfg.NodeRef(p.index), struct{}{}); err != nil {
			return nil, fmt.Errorf("build instruction cfg: %w", err)
		}
		for _, s := range succs {
			queue = append(queue, pendingEdge{parent: p.index, index: s})
		}
	}
	return g, nil
}

// successors returns the indices control can reach from instrs[i].
func successors(instrs []gml.Instruction, i int) ([]int, error) {
	switch in := instrs[i].(type) {
	case gml.Branch:
		target, err := RelativeOffsetToIndex(instrs, i, in.ByteOffset())
		if err != nil {
			return nil, fmt.Errorf("%s at %d: %w", in, i, err)
		}
		if in.Kind == gml.BranchAlways {
			return []int{target}, nil
		}
		return []int{target, i + 1}, nil
	case gml.Return, gml.Exit:
		return nil, nil
	default:
		return []int{i + 1}, nil
	}
}

// isJump reports whether in is an unconditional branch.
func isJump(in gml.Instruction) bool {
	b, ok := in.(gml.Branch)
	return ok && b.Kind == gml.BranchAlways
}
