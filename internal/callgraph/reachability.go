package callgraph

import (
	"sort"
	"strings"

	"gmldc/internal/gml"
)

// CallEdge is a distinct caller/callee pair with the number of call sites.
type CallEdge struct {
	From  string
	To    string
	Count int
}

// CallEdges collects call edges between code entries. A callee that names a
// script resolves to its gml_Script_ entry when the bundle has one; builtins
// and unresolved calls are kept under their own names.
func CallEdges(funcs []FuncInfo, syms gml.Symbols) []CallEdge {
	known := make(map[string]bool, len(funcs))
	for _, f := range funcs {
		known[f.Name()] = true
	}

	type key struct{ from, to string }
	counts := make(map[key]int)
	var order []key
	for _, f := range funcs {
		for _, callee := range gml.Callees(f.Code.Instructions, syms) {
			if !known[callee] && known[scriptPrefix+callee] {
				callee = scriptPrefix + callee
			}
			k := key{f.Name(), callee}
			if counts[k] == 0 {
				order = append(order, k)
			}
			counts[k]++
		}
	}

	edges := make([]CallEdge, len(order))
	for i, k := range order {
		edges[i] = CallEdge{From: k.from, To: k.to, Count: counts[k]}
	}
	return edges
}

const (
	scriptPrefix = "gml_Script_"
	objectPrefix = "gml_Object_"
)

// FindEntryPoints returns the code entries no other entry calls. Object events
// and room creation code are invoked by the runner, so these are the roots.
func FindEntryPoints(funcs []FuncInfo, edges []CallEdge) []string {
	called := make(map[string]bool)
	for _, e := range edges {
		if e.From != e.To {
			called[e.To] = true
		}
	}

	var entries []string
	for _, f := range funcs {
		if !called[f.Name()] {
			entries = append(entries, f.Name())
		}
	}
	sort.Strings(entries)
	return entries
}

// Reach maps every name reachable from the entry points to its call depth:
// 0 for an entry point, 1 for what an entry calls directly, and so on.
type Reach map[string]int

// Has reports whether name is reachable.
func (r Reach) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// Reachable walks call edges breadth-first from the entry points, so each
// name gets the depth of its shortest call chain. Edges with no call sites
// are ignored.
func Reachable(entryPoints []string, edges []CallEdge) Reach {
	adj := make(map[string][]string)
	for _, e := range edges {
		if e.Count > 0 {
			adj[e.From] = append(adj[e.From], e.To)
		}
	}

	reach := make(Reach)
	var order []string
	for _, ep := range entryPoints {
		if !reach.Has(ep) {
			reach[ep] = 0
			order = append(order, ep)
		}
	}
	for head := 0; head < len(order); head++ {
		fn := order[head]
		for _, target := range adj[fn] {
			if !reach.Has(target) {
				reach[target] = reach[fn] + 1
				order = append(order, target)
			}
		}
	}
	return reach
}

var eventNames = []string{
	"PreCreate", "Create", "Destroy", "CleanUp", "Alarm", "Step", "Collision",
	"Keyboard", "KeyPress", "KeyRelease", "Mouse", "Gesture", "Other", "Draw", "Trigger",
}

// Owner returns the object an event code entry belongs to, or "" for
// scripts and anything not named gml_Object_<object>_<event>_<n>.
func Owner(name string) string {
	rest, ok := strings.CutPrefix(name, objectPrefix)
	if !ok {
		return ""
	}
	cut := -1
	for _, ev := range eventNames {
		if i := strings.Index(rest, "_"+ev+"_"); i > 0 && (cut < 0 || i < cut) {
			cut = i
		}
	}
	if cut < 0 {
		return ""
	}
	return rest[:cut]
}
