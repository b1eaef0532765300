// Package cfg provides a generic control flow graph keyed by opaque node references.
//
// Nodes live in an arena (a map from NodeRef to node) and refer to each other only
// by NodeRef, so resolvers can replace nodes in place without aliasing problems.
// Every edge is recorded on both sides: b is a child of a iff a is a parent of b.
package cfg

import (
	"errors"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ErrUnknownNode is returned when an operation names a node that is not in the graph.
var ErrUnknownNode = errors.New("cfg: unknown node")

// NodeRef identifies a node. It is an index, not a pointer.
type NodeRef int

// Set is a set of node references.
type Set map[NodeRef]struct{}

// NewSet returns a set holding refs.
func NewSet(refs ...NodeRef) Set {
	s := make(Set, len(refs))
	for _, r := range refs {
		s[r] = struct{}{}
	}
	return s
}

// Has reports whether r is in the set.
func (s Set) Has(r NodeRef) bool {
	_, ok := s[r]
	return ok
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []NodeRef {
	refs := maps.Keys(s)
	slices.Sort(refs)
	return refs
}

// Clone returns a copy of the set.
func (s Set) Clone() Set {
	return maps.Clone(s)
}

// Node is one graph node and its metadata.
type Node[M any] struct {
	Ref      NodeRef
	Children Set
	Parents  Set
	Meta     M
}

// TraceFunc observes every edge recorded in a graph.
type TraceFunc func(parent, child NodeRef)

// Option configures a Graph.
type Option func(*options)

type options struct {
	trace TraceFunc
}

// WithTrace installs a hook called for each recorded edge.
func WithTrace(fn TraceFunc) Option {
	return func(o *options) { o.trace = fn }
}

// Graph is a directed, possibly cyclic graph of nodes carrying M metadata.
// A Graph is not safe for concurrent use.
type Graph[M any] struct {
	nodes   map[NodeRef]*Node[M]
	root    NodeRef
	hasRoot bool
	trace   TraceFunc
}

// New returns an empty graph. The first node inserted becomes the root.
func New[M any](opts ...Option) *Graph[M] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Graph[M]{
		nodes: make(map[NodeRef]*Node[M]),
		trace: o.trace,
	}
}

// Insert records the edge parent -> node and sets node's metadata.
// On an empty graph node becomes the root and parent is ignored.
// Otherwise parent must already be a member.
func (g *Graph[M]) Insert(parent, node NodeRef, meta M) error {
	if len(g.nodes) == 0 {
		g.put(node, meta)
		return nil
	}
	if _, ok := g.nodes[parent]; !ok {
		return fmt.Errorf("cfg: insert %d under %d: %w", node, parent, ErrUnknownNode)
	}
	g.put(node, meta)
	g.link(parent, node)
	return nil
}

// InsertParentless adds node, or replaces its metadata, without recording any edge.
func (g *Graph[M]) InsertParentless(node NodeRef, meta M) {
	g.put(node, meta)
}

func (g *Graph[M]) put(ref NodeRef, meta M) {
	if n, ok := g.nodes[ref]; ok {
		n.Meta = meta
		return
	}
	g.nodes[ref] = &Node[M]{
		Ref:      ref,
		Children: make(Set),
		Parents:  make(Set),
		Meta:     meta,
	}
	if !g.hasRoot {
		g.root = ref
		g.hasRoot = true
	}
}

func (g *Graph[M]) link(from, to NodeRef) {
	g.nodes[from].Children[to] = struct{}{}
	g.nodes[to].Parents[from] = struct{}{}
	if g.trace != nil {
		g.trace(from, to)
	}
}

// AddEdge records from -> to. Both nodes must be members.
func (g *Graph[M]) AddEdge(from, to NodeRef) error {
	if _, ok := g.nodes[from]; !ok {
		return fmt.Errorf("cfg: edge %d -> %d: %w", from, to, ErrUnknownNode)
	}
	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("cfg: edge %d -> %d: %w", from, to, ErrUnknownNode)
	}
	g.link(from, to)
	return nil
}

// RemoveEdge deletes from -> to if present.
func (g *Graph[M]) RemoveEdge(from, to NodeRef) {
	if n, ok := g.nodes[from]; ok {
		delete(n.Children, to)
	}
	if n, ok := g.nodes[to]; ok {
		delete(n.Parents, from)
	}
}

// Remove deletes node and every edge touching it. Parents are not reconnected
// to children; splicing is the caller's job.
func (g *Graph[M]) Remove(node NodeRef) {
	n, ok := g.nodes[node]
	if !ok {
		return
	}
	for c := range n.Children {
		if cn, ok := g.nodes[c]; ok {
			delete(cn.Parents, node)
		}
	}
	for p := range n.Parents {
		if pn, ok := g.nodes[p]; ok {
			delete(pn.Children, node)
		}
	}
	delete(g.nodes, node)
	if g.hasRoot && g.root == node {
		g.hasRoot = false
	}
}

// Node returns the node for ref.
func (g *Graph[M]) Node(ref NodeRef) (*Node[M], bool) {
	n, ok := g.nodes[ref]
	return n, ok
}

// ChildrenOf returns the children of node in ascending order, or nil if node is absent.
func (g *Graph[M]) ChildrenOf(node NodeRef) []NodeRef {
	n, ok := g.nodes[node]
	if !ok {
		return nil
	}
	return n.Children.Sorted()
}

// ParentsOf returns the parents of node in ascending order, or nil if node is absent.
func (g *Graph[M]) ParentsOf(node NodeRef) []NodeRef {
	n, ok := g.nodes[node]
	if !ok {
		return nil
	}
	return n.Parents.Sorted()
}

// Meta returns the metadata of node.
func (g *Graph[M]) Meta(node NodeRef) (M, bool) {
	n, ok := g.nodes[node]
	if !ok {
		var zero M
		return zero, false
	}
	return n.Meta, true
}

// SetMeta replaces the metadata of an existing node.
func (g *Graph[M]) SetMeta(node NodeRef, meta M) error {
	n, ok := g.nodes[node]
	if !ok {
		return fmt.Errorf("cfg: set meta of %d: %w", node, ErrUnknownNode)
	}
	n.Meta = meta
	return nil
}

// Has reports whether node is a member.
func (g *Graph[M]) Has(node NodeRef) bool {
	_, ok := g.nodes[node]
	return ok
}

// Len returns the node count.
func (g *Graph[M]) Len() int { return len(g.nodes) }

// Nodes returns all node references in ascending order.
func (g *Graph[M]) Nodes() []NodeRef {
	refs := maps.Keys(g.nodes)
	slices.Sort(refs)
	return refs
}

// Root returns the root node, if one is set.
func (g *Graph[M]) Root() (NodeRef, bool) {
	return g.root, g.hasRoot
}

// SetRoot marks an existing node as the root.
func (g *Graph[M]) SetRoot(node NodeRef) error {
	if _, ok := g.nodes[node]; !ok {
		return fmt.Errorf("cfg: set root %d: %w", node, ErrUnknownNode)
	}
	g.root = node
	g.hasRoot = true
	return nil
}

// MaxRef returns the largest node reference, or -1 for an empty graph.
func (g *Graph[M]) MaxRef() NodeRef {
	hi := NodeRef(-1)
	for ref := range g.nodes {
		if ref > hi {
			hi = ref
		}
	}
	return hi
}

// EdgeCount returns the number of recorded edges.
func (g *Graph[M]) EdgeCount() int {
	n := 0
	for _, node := range g.nodes {
		n += len(node.Children)
	}
	return n
}
