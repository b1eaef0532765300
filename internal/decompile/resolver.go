package decompile

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"gmldc/internal/cfg"
	"gmldc/internal/gml"
)

// Resolver recognizes one shape of the block CFG at an entry node and turns it
// into an already-decompiled node.
type Resolver interface {
	Name() string
	// Specificity ranks resolvers. Higher values are tried first.
	Specificity() int16
	// TryResolve returns nil, nil when the shape does not match at entry.
	TryResolve(rc *Context, entry cfg.NodeRef) (*Resolution, error)
}

// Resolution describes one graph rewrite: Nodes are replaced by a single node
// carrying State and covering [Start, End). Children and Parents are the edges
// the new node inherits. Members of Nodes appearing there become self-edges.
type Resolution struct {
	Nodes    cfg.Set
	Children cfg.Set
	Parents  cfg.Set
	State    ResolveState
	Start    int
	End      int
}

// Context is what resolvers see of the function being decompiled.
type Context struct {
	Code    *gml.Code
	Symbols gml.Symbols
	Graph   *BlockGraph
	Logger  zerolog.Logger
}

// SortResolvers returns a copy of rs ordered by descending specificity.
// Resolvers of equal specificity keep their relative order.
func SortResolvers(rs []Resolver) []Resolver {
	out := slices.Clone(rs)
	slices.SortStableFunc(out, func(a, b Resolver) int {
		return int(b.Specificity()) - int(a.Specificity())
	})
	return out
}

// Run applies resolvers until the graph is a single resolved node. Each round
// tries every resolver in order against every node in ascending order and
// applies the first match; a round with no match ends in ErrIncomplete.
func (rc *Context) Run(resolvers []Resolver) error {
	ordered := SortResolvers(resolvers)
	g := rc.Graph
	next := g.MaxRef() + 1
	for !finished(g) {
		r, res, err := rc.scan(ordered)
		if err != nil {
			return err
		}
		if res == nil {
			return fmt.Errorf("%w: %s", ErrIncomplete, describeRemaining(g))
		}
		if err := rc.apply(r, res, next); err != nil {
			return err
		}
		rc.Logger.Debug().
			Str("resolver", r.Name()).
			Ints("nodes", refInts(res.Nodes.Sorted())).
			Int("into", int(next)).
			Int("start", res.Start).
			Int("end", res.End).
			Msg("resolved")
		next++
	}
	return nil
}

func (rc *Context) scan(ordered []Resolver) (Resolver, *Resolution, error) {
	nodes := rc.Graph.Nodes()
	for _, r := range ordered {
		for _, n := range nodes {
			res, err := r.TryResolve(rc, n)
			if err != nil {
				return nil, nil, fmt.Errorf("%s resolver at block %d: %w", r.Name(), n, err)
			}
			if res != nil {
				return r, res, nil
			}
		}
	}
	return nil, nil, nil
}

func (rc *Context) apply(r Resolver, res *Resolution, ref cfg.NodeRef) error {
	g := rc.Graph
	if len(res.Nodes) == 0 {
		return fmt.Errorf("%s resolver: empty resolution", r.Name())
	}
	if !res.State.Resolved {
		return fmt.Errorf("%s resolver: resolution left node unresolved", r.Name())
	}
	for n := range res.Nodes {
		meta, ok := g.Meta(n)
		if !ok {
			return fmt.Errorf("%s resolver: consumed block %d: %w", r.Name(), n, cfg.ErrUnknownNode)
		}
		// A one-node rewrite of a resolved node would loop forever.
		if len(res.Nodes) == 1 && meta.State.Resolved {
			return fmt.Errorf("%s resolver: block %d is already resolved", r.Name(), n)
		}
	}

	remap := func(n cfg.NodeRef) cfg.NodeRef {
		if res.Nodes.Has(n) {
			return ref
		}
		return n
	}
	for n := range res.Nodes {
		g.Remove(n)
	}
	g.InsertParentless(ref, BlockMeta{Start: res.Start, End: res.End, State: res.State})
	for _, c := range res.Children.Sorted() {
		if err := g.AddEdge(ref, remap(c)); err != nil {
			return fmt.Errorf("%s resolver: %w", r.Name(), err)
		}
	}
	for _, p := range res.Parents.Sorted() {
		if err := g.AddEdge(remap(p), ref); err != nil {
			return fmt.Errorf("%s resolver: %w", r.Name(), err)
		}
	}
	return nil
}

// finished reports whether g has collapsed to one resolved node with no loop
// left on it. An empty graph is trivially finished.
func finished(g *BlockGraph) bool {
	switch g.Len() {
	case 0:
		return true
	case 1:
		n, _ := g.Node(g.Nodes()[0])
		return n.Meta.State.Resolved && len(n.Children) == 0
	default:
		return false
	}
}

func describeRemaining(g *BlockGraph) string {
	var unresolved []string
	for _, ref := range g.Nodes() {
		meta, _ := g.Meta(ref)
		if !meta.State.Resolved {
			unresolved = append(unresolved, fmt.Sprintf("%d[%d,%d)", ref, meta.Start, meta.End))
		}
	}
	if len(unresolved) == 0 {
		return fmt.Sprintf("%d resolved blocks left unstructured", g.Len())
	}
	return "unresolved blocks " + strings.Join(unresolved, " ")
}

func refInts(refs []cfg.NodeRef) []int {
	out := make([]int, len(refs))
	for i, r := range refs {
		out[i] = int(r)
	}
	return out
}

// single builds the Resolution replacing entry alone, keeping its edges.
func single(g *BlockGraph, entry cfg.NodeRef, meta BlockMeta, state ResolveState) *Resolution {
	n, _ := g.Node(entry)
	return &Resolution{
		Nodes:    cfg.NewSet(entry),
		Children: n.Children.Clone(),
		Parents:  n.Parents.Clone(),
		State:    state,
		Start:    meta.Start,
		End:      meta.End,
	}
}
