// Package callgraph maps decompiled GML functions onto lattice graph types
// so they can be rendered with the lattice DOT writers.
package callgraph

import (
	"github.com/zboralski/lattice"

	"gmldc/internal/gml"
)

// FuncInfo holds the data needed to build the call graph and CFG for one code entry.
type FuncInfo struct {
	Code *gml.Code
}

// Name returns the code entry's name.
func (f FuncInfo) Name() string { return f.Code.Name }

// Funcs wraps each code entry.
func Funcs(codes []*gml.Code) []FuncInfo {
	out := make([]FuncInfo, len(codes))
	for i, c := range codes {
		out[i] = FuncInfo{Code: c}
	}
	return out
}

// BuildCallGraph constructs a lattice.Graph with one node per code entry and
// one edge per distinct caller/callee pair. Calls the symbol table cannot name
// appear as func[N].
func BuildCallGraph(funcs []FuncInfo, syms gml.Symbols) *lattice.Graph {
	g := &lattice.Graph{}
	for _, f := range funcs {
		g.Nodes = append(g.Nodes, f.Name())
		for _, callee := range gml.Callees(f.Code.Instructions, syms) {
			g.Edges = append(g.Edges, lattice.Edge{
				Caller: f.Name(),
				Callee: callee,
			})
		}
	}
	g.Dedup()
	return g
}
