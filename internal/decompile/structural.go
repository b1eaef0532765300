package decompile

import (
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"

	"gmldc/internal/ast"
	"gmldc/internal/cfg"
	"gmldc/internal/gml"
)

// DefaultResolvers returns every built-in resolver.
func DefaultResolvers() []Resolver {
	return []Resolver{StraightLine{}, Trivial{}, While{}, IfElse{}, If{}, Sequence{}}
}

// view is one node of the block graph as the structural resolvers see it.
type view struct {
	ref  cfg.NodeRef
	node *cfg.Node[BlockMeta]
}

func (v view) meta() BlockMeta     { return v.node.Meta }
func (v view) state() ResolveState { return v.node.Meta.State }

// plain reports whether v is resolved and does not end in a condition.
func (v view) plain() bool { return v.state().Resolved && v.state().Cond == nil }

// header reports whether v is resolved, ends in a condition and has two distinct
// successors, neither of them itself.
func (v view) header() bool {
	return v.state().Resolved && v.state().Cond != nil &&
		len(v.node.Children) == 2 && !v.node.Children.Has(v.ref)
}

func (v view) onlyParent(p cfg.NodeRef) bool {
	return len(v.node.Parents) == 1 && v.node.Parents.Has(p)
}

// loopHeader reports whether h dominates one of its own parents, so that the
// edge from that parent is a back edge. Such a header belongs to While.
func loopHeader(g *BlockGraph, h view) bool {
	if len(h.node.Parents) == 0 {
		return false
	}
	entry, ok := g.Root()
	if !ok || entry == h.ref {
		return ok
	}
	seen := bitset.New(uint(g.MaxRef() + 1))
	seen.Set(uint(entry))
	queue := []cfg.NodeRef{entry}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, c := range g.ChildrenOf(n) {
			if c == h.ref || seen.Test(uint(c)) {
				continue
			}
			seen.Set(uint(c))
			queue = append(queue, c)
		}
	}
	for p := range h.node.Parents {
		if !seen.Test(uint(p)) {
			return true
		}
	}
	return false
}

func lookup(g *BlockGraph, ref cfg.NodeRef) (view, bool) {
	n, ok := g.Node(ref)
	if !ok {
		return view{}, false
	}
	return view{ref: ref, node: n}, true
}

// arms splits a header's children into the fallthrough successor (the block
// starting where the header ends) and the jump target.
func arms(g *BlockGraph, h view) (fall, jump view, ok bool) {
	kids := h.node.Children.Sorted()
	a, okA := lookup(g, kids[0])
	b, okB := lookup(g, kids[1])
	if !okA || !okB {
		return view{}, view{}, false
	}
	switch h.meta().End {
	case a.meta().Start:
		return a, b, true
	case b.meta().Start:
		return b, a, true
	}
	return view{}, view{}, false
}

func concat(blocks ...ast.Block) ast.Block {
	var out ast.Block
	for _, b := range blocks {
		out = append(out, b...)
	}
	return out
}

// merge builds the resolution replacing vs, entered through vs[0].
func merge(state ResolveState, children cfg.Set, vs ...view) *Resolution {
	res := &Resolution{
		Nodes:    cfg.NewSet(),
		Children: children,
		Parents:  vs[0].node.Parents.Clone(),
		State:    state,
		Start:    vs[0].meta().Start,
		End:      vs[0].meta().End,
	}
	for _, v := range vs {
		res.Nodes[v.ref] = struct{}{}
		if v.meta().End > res.End {
			res.End = v.meta().End
		}
	}
	return res
}

// Trivial resolves single-instruction blocks holding an exit or a jump.
type Trivial struct{}

func (Trivial) Name() string       { return "trivial" }
func (Trivial) Specificity() int16 { return math.MaxInt16 - 1 }

func (Trivial) TryResolve(rc *Context, entry cfg.NodeRef) (*Resolution, error) {
	meta, ok := rc.Graph.Meta(entry)
	if !ok || meta.State.Resolved || meta.Len() != 1 {
		return nil, nil
	}
	var block ast.Block
	switch in := rc.Code.Instructions[meta.Start].(type) {
	case gml.Exit:
		block = ast.Block{&ast.Return{}}
	case gml.Branch:
		if in.Kind != gml.BranchAlways {
			return nil, nil
		}
		block = ast.Block{}
	default:
		return nil, nil
	}
	return single(rc.Graph, entry, meta, ResolveState{Resolved: true, Block: block}), nil
}

// While folds a condition-only header and a body that loops straight back to it.
type While struct{}

func (While) Name() string       { return "while" }
func (While) Specificity() int16 { return 400 }

func (While) TryResolve(rc *Context, entry cfg.NodeRef) (*Resolution, error) {
	h, ok := lookup(rc.Graph, entry)
	// Statements in the header run on every iteration; a plain while cannot hold them.
	if !ok || !h.header() || len(h.state().Block) != 0 {
		return nil, nil
	}
	body, exit, ok := arms(rc.Graph, h)
	if !ok || !body.plain() || !body.onlyParent(h.ref) {
		return nil, nil
	}
	if len(body.node.Children) != 1 || !body.node.Children.Has(h.ref) {
		return nil, nil
	}
	loop := &ast.While{Target: h.state().Cond, Body: &ast.BlockStmt{Body: body.state().Block}}
	res := merge(ResolveState{Resolved: true, Block: ast.Block{loop}}, cfg.NewSet(exit.ref), h, body)
	delete(res.Parents, body.ref)
	return res, nil
}

// IfElse folds a header, two arms that each have it as sole parent, and their
// shared join. Arms that both return have no join.
type IfElse struct{}

func (IfElse) Name() string       { return "if-else" }
func (IfElse) Specificity() int16 { return 300 }

func (IfElse) TryResolve(rc *Context, entry cfg.NodeRef) (*Resolution, error) {
	h, ok := lookup(rc.Graph, entry)
	if !ok || !h.header() || loopHeader(rc.Graph, h) {
		return nil, nil
	}
	then, els, ok := arms(rc.Graph, h)
	if !ok || !then.plain() || !els.plain() {
		return nil, nil
	}
	if !then.onlyParent(h.ref) || !els.onlyParent(h.ref) {
		return nil, nil
	}
	join := then.node.Children
	if len(join) > 1 || len(els.node.Children) != len(join) {
		return nil, nil
	}
	for j := range join {
		if !els.node.Children.Has(j) || j == h.ref || j == then.ref || j == els.ref {
			return nil, nil
		}
	}
	stmt := &ast.If{
		Cond: h.state().Cond,
		Then: &ast.BlockStmt{Body: then.state().Block},
		Else: &ast.BlockStmt{Body: els.state().Block},
	}
	state := ResolveState{Resolved: true, Block: concat(h.state().Block, ast.Block{stmt})}
	return merge(state, join.Clone(), h, then, els), nil
}

// If folds a header and one arm whose only successor is the header's other
// child. An arm that returns has no successor at all.
type If struct{}

func (If) Name() string       { return "if" }
func (If) Specificity() int16 { return 200 }

func (If) TryResolve(rc *Context, entry cfg.NodeRef) (*Resolution, error) {
	h, ok := lookup(rc.Graph, entry)
	if !ok || !h.header() || loopHeader(rc.Graph, h) {
		return nil, nil
	}
	fall, jump, ok := arms(rc.Graph, h)
	if !ok {
		return nil, nil
	}
	cond := h.state().Cond
	arm, join := fall, jump
	if !isArm(arm, h, join) {
		// The jump target may be the arm when the fallthrough is the join.
		arm, join, cond = jump, fall, negate(cond)
		if !isArm(arm, h, join) {
			return nil, nil
		}
	}
	stmt := &ast.If{Cond: cond, Then: &ast.BlockStmt{Body: arm.state().Block}}
	state := ResolveState{Resolved: true, Block: concat(h.state().Block, ast.Block{stmt})}
	return merge(state, cfg.NewSet(join.ref), h, arm), nil
}

func isArm(arm, h, join view) bool {
	if !arm.plain() || !arm.onlyParent(h.ref) {
		return false
	}
	switch len(arm.node.Children) {
	case 0:
		return true
	case 1:
		return arm.node.Children.Has(join.ref)
	}
	return false
}

// Sequence concatenates a resolved node with its only successor when that
// successor has no other way in.
type Sequence struct{}

func (Sequence) Name() string       { return "sequence" }
func (Sequence) Specificity() int16 { return 100 }

func (Sequence) TryResolve(rc *Context, entry cfg.NodeRef) (*Resolution, error) {
	a, ok := lookup(rc.Graph, entry)
	if !ok || !a.plain() || len(a.node.Children) != 1 {
		return nil, nil
	}
	b, ok := lookup(rc.Graph, a.node.Children.Sorted()[0])
	if !ok || b.ref == a.ref || !b.state().Resolved || !b.onlyParent(a.ref) {
		return nil, nil
	}
	// b jumping back to a is a loop, not a sequence.
	if b.node.Children.Has(a.ref) {
		return nil, nil
	}
	state := ResolveState{
		Resolved: true,
		Block:    concat(a.state().Block, b.state().Block),
		Cond:     b.state().Cond,
	}
	res := merge(state, b.node.Children.Clone(), a, b)
	// The merged node ends where b does so a trailing condition still finds its fallthrough.
	res.End = b.meta().End
	return res, nil
}

// ResolversByName picks built-in resolvers by their Name. An empty list
// selects all of them.
func ResolversByName(names []string) ([]Resolver, error) {
	all := DefaultResolvers()
	if len(names) == 0 {
		return all, nil
	}
	var out []Resolver
	for _, name := range names {
		found := false
		for _, r := range all {
			if r.Name() == name {
				out = append(out, r)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("decompile: unknown resolver %q", name)
		}
	}
	return out, nil
}
