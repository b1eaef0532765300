package callgraph

import (
	"fmt"

	"github.com/zboralski/lattice"

	"gmldc/internal/decompile"
	"gmldc/internal/gml"
)

// BuildCFG constructs a lattice.CFGGraph from code entries, one FuncCFG each.
// An entry whose graphs cannot be built is reported with its name.
func BuildCFG(funcs []FuncInfo, syms gml.Symbols) (*lattice.CFGGraph, error) {
	cg := &lattice.CFGGraph{}
	for _, f := range funcs {
		lcfg, _, err := BuildFuncCFG(f.Code, syms)
		if err != nil {
			return nil, err
		}
		cg.Funcs = append(cg.Funcs, lcfg)
	}
	return cg, nil
}

// BuildFuncCFG builds a single-function lattice.FuncCFG from the unresolved
// block graph. Returns the FuncCFG and the number of basic blocks.
func BuildFuncCFG(code *gml.Code, syms gml.Symbols, opts ...decompile.Option) (*lattice.FuncCFG, int, error) {
	_, bg, err := decompile.BuildBlockGraph(code, opts...)
	if err != nil {
		return nil, 0, fmt.Errorf("callgraph: %s: %w", code.Name, err)
	}
	return convertBlockGraph(code, bg, syms), bg.Len(), nil
}

// convertBlockGraph maps a block graph to a lattice.FuncCFG. Successors of a
// block ending in a conditional branch are labelled T (jump taken) and F
// (fallthrough); calls are placed in the block that contains them.
func convertBlockGraph(code *gml.Code, bg *decompile.BlockGraph, syms gml.Symbols) *lattice.FuncCFG {
	lcfg := &lattice.FuncCFG{Name: code.Name}
	for _, ref := range bg.Nodes() {
		meta, _ := bg.Meta(ref)
		children := bg.ChildrenOf(ref)
		lb := &lattice.BasicBlock{
			ID:    int(ref),
			Start: meta.Start,
			End:   meta.End,
			Term:  len(children) == 0,
		}

		conditional := false
		if meta.End > meta.Start {
			if b, ok := code.Instructions[meta.End-1].(gml.Branch); ok && b.Conditional() {
				conditional = true
			}
		}
		for _, c := range children {
			s := lattice.Successor{BlockID: int(c)}
			if conditional {
				s.Cond = "T"
				if cm, ok := bg.Meta(c); ok && cm.Start == meta.End {
					s.Cond = "F"
				}
			}
			lb.Succs = append(lb.Succs, s)
		}

		for idx := meta.Start; idx < meta.End; idx++ {
			call, ok := code.Instructions[idx].(gml.Call)
			if !ok {
				continue
			}
			lb.Calls = append(lb.Calls, lattice.CallSite{
				Offset: idx,
				Callee: calleeName(call, syms),
			})
		}
		lcfg.Blocks = append(lcfg.Blocks, lb)
	}
	return lcfg
}

func calleeName(c gml.Call, syms gml.Symbols) string {
	if name := gml.Callees([]gml.Instruction{c}, syms); len(name) == 1 {
		return name[0]
	}
	return fmt.Sprintf("func[%d]", uint32(c.Function))
}
