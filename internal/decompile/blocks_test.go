package decompile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gmldc/internal/cfg"
	"gmldc/internal/gml"
)

// ranges returns each block's [Start, End) keyed by ref.
func ranges(t *testing.T, g *BlockGraph) map[cfg.NodeRef][2]int {
	t.Helper()
	out := make(map[cfg.NodeRef][2]int)
	for _, ref := range g.Nodes() {
		meta, ok := g.Meta(ref)
		require.True(t, ok)
		out[ref] = [2]int{meta.Start, meta.End}
	}
	return out
}

func TestPartitionBlocks_Linear(t *testing.T) {
	code := &gml.Code{Name: "linear", Instructions: []gml.Instruction{
		gml.Push{Value: gml.Int16(1)},
		popVar(0),
		gml.Exit{},
	}}
	_, g, err := BuildBlockGraph(code)
	require.NoError(t, err)
	if g.Len() != 1 {
		t.Fatalf("blocks = %d, want 1", g.Len())
	}
	assert.Equal(t, map[cfg.NodeRef][2]int{0: {0, 3}}, ranges(t, g))
	meta, _ := g.Meta(0)
	assert.False(t, meta.State.Resolved)
}

func TestPartitionBlocks_If(t *testing.T) {
	_, g, err := BuildBlockGraph(&gml.Code{Name: "if", Instructions: ifStream()})
	require.NoError(t, err)

	assert.Equal(t, map[cfg.NodeRef][2]int{
		0: {0, 2},
		1: {2, 4},
		2: {4, 6},
	}, ranges(t, g))
	assert.Equal(t, []cfg.NodeRef{1, 2}, g.ChildrenOf(0))
	assert.Equal(t, []cfg.NodeRef{2}, g.ChildrenOf(1))
	assert.Equal(t, []cfg.NodeRef{0, 1}, g.ParentsOf(2))
	root, _ := g.Root()
	assert.Equal(t, cfg.NodeRef(0), root)
}

func TestPartitionBlocks_LoopHeaderIsLeader(t *testing.T) {
	code := whileCode()
	_, g, err := BuildBlockGraph(code)
	require.NoError(t, err)

	assert.Equal(t, map[cfg.NodeRef][2]int{
		0: {0, 4},
		1: {4, 9},
		2: {9, 10},
	}, ranges(t, g))
	assert.Equal(t, []cfg.NodeRef{1, 2}, g.ChildrenOf(0))
	assert.Equal(t, []cfg.NodeRef{0}, g.ChildrenOf(1))
	assert.Equal(t, []cfg.NodeRef{1}, g.ParentsOf(0))
}

func TestPartitionBlocks_SkipsUnreachable(t *testing.T) {
	// Instruction 2 is dead: block numbering follows the reachable runs only.
	code := &gml.Code{Name: "dead", Instructions: []gml.Instruction{
		gml.Push{Value: gml.Int16(1)},
		gml.Branch{Kind: gml.BranchAlways, Offset: 2},
		gml.Push{Value: gml.Int16(2)},
		popVar(0),
		gml.Exit{},
	}}
	_, g, err := BuildBlockGraph(code)
	require.NoError(t, err)

	assert.Equal(t, map[cfg.NodeRef][2]int{
		0: {0, 2},
		1: {3, 5},
	}, ranges(t, g))
	assert.Equal(t, []cfg.NodeRef{1}, g.ChildrenOf(0))
}

func TestPartitionBlocks_NonZeroEntryIsRoot(t *testing.T) {
	code := &gml.Code{Name: "entry", Instructions: ifStream(), ExecutionOffset: 12}
	_, g, err := BuildBlockGraph(code)
	require.NoError(t, err)

	root, ok := g.Root()
	require.True(t, ok)
	meta, _ := g.Meta(root)
	assert.Equal(t, 2, meta.Start)
}

func TestPartitionBlocks_Empty(t *testing.T) {
	_, g, err := BuildBlockGraph(&gml.Code{Name: "empty"})
	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())
}

func TestPartitionBlocks_EdgesAreSymmetric(t *testing.T) {
	for _, code := range []*gml.Code{
		{Name: "if", Instructions: ifStream()},
		whileCode(),
		ifElseCode(),
	} {
		_, g, err := BuildBlockGraph(code)
		require.NoError(t, err, code.Name)
		for _, ref := range g.Nodes() {
			for _, c := range g.ChildrenOf(ref) {
				n, _ := g.Node(c)
				assert.True(t, n.Parents.Has(ref), "%s: %d -> %d", code.Name, ref, c)
			}
		}
	}
}
