package decompile

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gmldc/internal/ast"
	"gmldc/internal/cfg"
	"gmldc/internal/gml"
)

func testSymbols() *gml.Data {
	return &gml.Data{
		Functions: []string{"show_debug_message", "irandom"},
		Variables: []string{"x", "y", "i"},
		Assets: map[gml.AssetKind][]string{
			gml.AssetObject: {"obj_player"},
		},
	}
}

// whileCode is "while (i < 10) i = i + 1; exit".
func whileCode() *gml.Code {
	return &gml.Code{Name: "while", Instructions: []gml.Instruction{
		gml.Push{Value: self(2)},
		gml.Push{Value: gml.Int16(10)},
		gml.Compare{Cmp: gml.CmpLess, Lhs: gml.TypeVariable, Rhs: gml.TypeInt32},
		gml.Branch{Kind: gml.BranchUnless, Offset: 8},
		gml.Push{Value: self(2)},
		gml.Push{Value: gml.Int16(1)},
		gml.Binary{Op: gml.OpAdd, Lhs: gml.TypeVariable, Rhs: gml.TypeInt32},
		popVar(2),
		gml.Branch{Kind: gml.BranchAlways, Offset: -11},
		gml.Exit{},
	}}
}

// ifElseCode is "if (!x) y = 1 else y = 2; exit", with the branch sense inverted by bt.
func ifElseCode() *gml.Code {
	return &gml.Code{Name: "ifelse", Instructions: []gml.Instruction{
		gml.Push{Value: self(0)},
		gml.Branch{Kind: gml.BranchIf, Offset: 5},
		gml.Push{Value: gml.Int16(1)},
		popVar(1),
		gml.Branch{Kind: gml.BranchAlways, Offset: 4},
		gml.Push{Value: gml.Int16(2)},
		popVar(1),
		gml.Exit{},
	}}
}

func assign(name string, v ast.Expr) *ast.Assignment {
	return &ast.Assignment{Target: ast.Name(name), Op: ast.AssignEqual, Value: v}
}

func TestStraightLine_AddReturn(t *testing.T) {
	code := &gml.Code{Name: "add", Instructions: []gml.Instruction{
		gml.Push{Value: gml.Int32(256)},
		gml.Push{Value: gml.Int32(256)},
		gml.Binary{Op: gml.OpAdd, Lhs: gml.TypeInt64, Rhs: gml.TypeInt64},
		gml.Return{},
	}}
	got, err := DecompileOne(code, testSymbols())
	require.NoError(t, err)
	want := ast.Block{
		&ast.Return{Value: &ast.Binary{Lhs: ast.Int(256), Op: ast.OpAdd, Rhs: ast.Int(256)}},
	}
	assert.Equal(t, want, got)
}

func TestStraightLine_DeclinesSingleInstruction(t *testing.T) {
	for _, in := range []gml.Instruction{gml.Exit{}, gml.Return{}, gml.Branch{Kind: gml.BranchAlways}} {
		code := &gml.Code{Name: "one", Instructions: []gml.Instruction{in}}
		_, g, err := BuildBlockGraph(code)
		require.NoError(t, err)
		rc := &Context{Code: code, Symbols: testSymbols(), Graph: g, Logger: zerolog.Nop()}

		res, err := StraightLine{}.TryResolve(rc, 0)
		require.NoError(t, err)
		assert.Nil(t, res, "%s", in)
	}
}

func TestStraightLine_DeclinesResolved(t *testing.T) {
	code := &gml.Code{Name: "done", Instructions: []gml.Instruction{gml.Push{Value: gml.Int16(1)}, gml.Return{}}}
	_, g, err := BuildBlockGraph(code)
	require.NoError(t, err)
	require.NoError(t, g.SetMeta(0, BlockMeta{Start: 0, End: 2, State: ResolveState{Resolved: true}}))
	rc := &Context{Code: code, Symbols: testSymbols(), Graph: g}

	res, err := StraightLine{}.TryResolve(rc, 0)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestStraightLine_KeepsEdges(t *testing.T) {
	code := &gml.Code{Name: "if", Instructions: ifStream()}
	_, g, err := BuildBlockGraph(code)
	require.NoError(t, err)
	rc := &Context{Code: code, Symbols: testSymbols(), Graph: g}

	res, err := StraightLine{}.TryResolve(rc, 1)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, cfg.NewSet(1), res.Nodes)
	assert.Equal(t, cfg.NewSet(2), res.Children)
	assert.Equal(t, cfg.NewSet(0), res.Parents)
	assert.Equal(t, ast.Block{assign("y", ast.Int(1))}, res.State.Block)
	assert.Equal(t, 2, res.Start)
	assert.Equal(t, 4, res.End)
}

func TestStraightLine_StackUnderflow(t *testing.T) {
	code := &gml.Code{Name: "underflow", Instructions: []gml.Instruction{popVar(0), gml.Exit{}}}
	_, err := DecompileOne(code, testSymbols())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStackUnderflow)
	assert.Contains(t, err.Error(), "block 0")
}

func TestStraightLine_CallsAndScopes(t *testing.T) {
	code := &gml.Code{Name: "calls", Instructions: []gml.Instruction{
		gml.Push{Value: gml.String("hi")},
		gml.Call{Function: 0, ArgCount: 1},
		gml.PopDiscard{Type: gml.TypeVariable},
		gml.Push{Value: gml.Variable{Index: 1, Instance: gml.InstanceGlobal}},
		gml.Pop{Variable: gml.VariableRef{Index: 0, Instance: gml.InstanceOther}, Type1: gml.TypeVariable, Type2: gml.TypeVariable},
		gml.PushReference{Kind: gml.AssetRoomInstance, Index: 100000},
		popVar(2),
		gml.PushReference{Kind: gml.AssetObject, Index: 0},
		gml.Push{Value: gml.Int16(6)},
		gml.Call{Function: 1, ArgCount: 2},
		gml.Return{},
	}}
	got, err := DecompileOne(code, testSymbols())
	require.NoError(t, err)

	want := ast.Block{
		&ast.CallStmt{Call: ast.Call{Base: ast.Name("show_debug_message"), Arguments: []ast.Expr{ast.String("hi")}}},
		&ast.Assignment{
			Target: &ast.FieldAccess{Base: &ast.Other{}, Field: "x"},
			Op:     ast.AssignEqual,
			Value:  &ast.FieldAccess{Base: &ast.Global{}, Field: "y"},
		},
		assign("i", ast.Name("inst_186A0")),
		&ast.Return{Value: &ast.CallExpr{Call: ast.Call{
			Base:      ast.Name("irandom"),
			Arguments: []ast.Expr{ast.Int(6), ast.Name("obj_player")},
		}}},
	}
	assert.Equal(t, want, got)
}

func TestStraightLine_UnaryAndCompare(t *testing.T) {
	code := &gml.Code{Name: "unary", Instructions: []gml.Instruction{
		gml.Push{Value: self(0)},
		gml.Negate{Type: gml.TypeVariable},
		gml.Push{Value: gml.Double(1.5)},
		gml.Compare{Cmp: gml.CmpGreaterEqual, Lhs: gml.TypeVariable, Rhs: gml.TypeDouble},
		gml.Not{Type: gml.TypeBoolean},
		gml.Convert{From: gml.TypeBoolean, To: gml.TypeVariable},
		popVar(1),
		gml.Push{Value: self(1)},
		gml.Not{Type: gml.TypeInt32},
		gml.Return{},
	}}
	got, err := DecompileOne(code, testSymbols())
	require.NoError(t, err)

	cmp := &ast.Binary{
		Lhs: &ast.Unary{Op: ast.OpMinus, Target: ast.Name("x")},
		Op:  ast.OpGreaterEqual,
		Rhs: ast.Float(1.5),
	}
	want := ast.Block{
		assign("y", &ast.Unary{Op: ast.OpNot, Target: cmp}),
		&ast.Return{Value: &ast.Unary{Op: ast.OpBitNegate, Target: ast.Name("y")}},
	}
	assert.Equal(t, want, got)
}

func TestBinaryOpSelection(t *testing.T) {
	tests := []struct {
		in   gml.Binary
		want ast.BinaryOp
	}{
		{gml.Binary{Op: gml.OpAnd, Lhs: gml.TypeBoolean, Rhs: gml.TypeBoolean}, ast.OpAnd},
		{gml.Binary{Op: gml.OpAnd, Lhs: gml.TypeInt32, Rhs: gml.TypeInt32}, ast.OpBitAnd},
		{gml.Binary{Op: gml.OpOr, Lhs: gml.TypeBoolean, Rhs: gml.TypeBoolean}, ast.OpOr},
		{gml.Binary{Op: gml.OpOr, Lhs: gml.TypeVariable, Rhs: gml.TypeInt32}, ast.OpBitOr},
		{gml.Binary{Op: gml.OpXor, Lhs: gml.TypeBoolean, Rhs: gml.TypeBoolean}, ast.OpXor},
		{gml.Binary{Op: gml.OpXor, Lhs: gml.TypeInt64, Rhs: gml.TypeInt64}, ast.OpBitXor},
		{gml.Binary{Op: gml.OpDiv, Lhs: gml.TypeInt32, Rhs: gml.TypeInt32}, ast.OpIDiv},
		{gml.Binary{Op: gml.OpDiv, Lhs: gml.TypeDouble, Rhs: gml.TypeInt32}, ast.OpDiv},
		{gml.Binary{Op: gml.OpMod, Lhs: gml.TypeInt32, Rhs: gml.TypeInt32}, ast.OpRem},
		{gml.Binary{Op: gml.OpShl, Lhs: gml.TypeInt32, Rhs: gml.TypeInt32}, ast.OpShiftLeft},
	}
	for _, tc := range tests {
		got, err := binaryOp(tc.in)
		require.NoError(t, err, "%s", tc.in)
		if got != tc.want {
			t.Errorf("%s = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestSimulator_IntraBlockJump(t *testing.T) {
	sim := simulator{syms: testSymbols(), block: 7}
	st, err := sim.run([]gml.Instruction{
		gml.Branch{Kind: gml.BranchAlways, Offset: 2},
		gml.Push{Value: gml.Int16(1)},
		gml.Exit{},
	})
	require.NoError(t, err)
	assert.Equal(t, ast.Block{&ast.Return{}}, st.Block)

	sim = simulator{syms: testSymbols(), block: 7}
	_, err = sim.run([]gml.Instruction{
		gml.Branch{Kind: gml.BranchAlways, Offset: -1},
		gml.Exit{},
	})
	assert.ErrorIs(t, err, ErrStructural)
}

func TestSimulator_TrailingCondition(t *testing.T) {
	sim := simulator{syms: testSymbols()}
	st, err := sim.run([]gml.Instruction{
		gml.Push{Value: self(0)},
		gml.Branch{Kind: gml.BranchIf, Offset: 4},
	})
	require.NoError(t, err)
	assert.Empty(t, st.Block)
	assert.Equal(t, &ast.Unary{Op: ast.OpNot, Target: ast.Name("x")}, st.Cond)

	sim = simulator{syms: testSymbols()}
	_, err = sim.run([]gml.Instruction{gml.Branch{Kind: gml.BranchUnless, Offset: 4}, gml.Exit{}})
	assert.ErrorIs(t, err, ErrStackUnderflow)
}

func TestStraightLine_Failures(t *testing.T) {
	tests := []struct {
		name   string
		instrs []gml.Instruction
		want   error
	}{
		{"dup", []gml.Instruction{gml.Push{Value: gml.Int16(1)}, gml.Duplicate{Type: gml.TypeInt32}, gml.Return{}}, ErrUnsupported},
		{"leftover", []gml.Instruction{gml.Push{Value: gml.Int16(1)}, gml.Push{Value: gml.Int16(2)}, popVar(0), gml.Exit{}}, ErrUnsupported},
		{"pushenv", []gml.Instruction{gml.Push{Value: gml.Int16(1)}, gml.Branch{Kind: gml.PushEnv, Offset: 1}, gml.Exit{}}, ErrUnsupported},
		{"function", []gml.Instruction{gml.Call{Function: 9}, gml.Return{}}, gml.ErrUnresolvedSymbol},
		{"variable", []gml.Instruction{gml.Push{Value: self(40)}, gml.Return{}}, gml.ErrUnresolvedSymbol},
		{"asset", []gml.Instruction{gml.PushReference{Kind: gml.AssetSprite, Index: 0}, gml.Return{}}, gml.ErrUnresolvedSymbol},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecompileOne(&gml.Code{Name: tc.name, Instructions: tc.instrs}, testSymbols())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "err = %v, want %v", err, tc.want)
		})
	}
}

func TestDecompileOne_If(t *testing.T) {
	got, err := DecompileOne(&gml.Code{Name: "if", Instructions: ifStream()}, testSymbols())
	require.NoError(t, err)
	want := ast.Block{
		&ast.If{Cond: ast.Name("x"), Then: &ast.BlockStmt{Body: ast.Block{assign("y", ast.Int(1))}}},
		&ast.Return{Value: ast.Int(2)},
	}
	assert.Equal(t, want, got)
}

func TestDecompileOne_IfElse(t *testing.T) {
	got, err := DecompileOne(ifElseCode(), testSymbols())
	require.NoError(t, err)
	want := ast.Block{
		&ast.If{
			Cond: &ast.Unary{Op: ast.OpNot, Target: ast.Name("x")},
			Then: &ast.BlockStmt{Body: ast.Block{assign("y", ast.Int(1))}},
			Else: &ast.BlockStmt{Body: ast.Block{assign("y", ast.Int(2))}},
		},
		&ast.Return{},
	}
	assert.Equal(t, want, got)
}

func TestDecompileOne_While(t *testing.T) {
	got, err := DecompileOne(whileCode(), testSymbols())
	require.NoError(t, err)
	want := ast.Block{
		&ast.While{
			Target: &ast.Binary{Lhs: ast.Name("i"), Op: ast.OpLess, Rhs: ast.Int(10)},
			Body: &ast.BlockStmt{Body: ast.Block{
				assign("i", &ast.Binary{Lhs: ast.Name("i"), Op: ast.OpAdd, Rhs: ast.Int(1)}),
			}},
		},
		&ast.Return{},
	}
	assert.Equal(t, want, got)
}

// nestedCode is "while (i < 10) { if (x) y = 1; i = i + 1 } exit".
func nestedCode() *gml.Code {
	return &gml.Code{Name: "nested", Instructions: []gml.Instruction{
		gml.Push{Value: self(2)},
		gml.Push{Value: gml.Int16(10)},
		gml.Compare{Cmp: gml.CmpLess, Lhs: gml.TypeVariable, Rhs: gml.TypeInt32},
		gml.Branch{Kind: gml.BranchUnless, Offset: 14},
		gml.Push{Value: self(0)},
		gml.Branch{Kind: gml.BranchUnless, Offset: 4},
		gml.Push{Value: gml.Int16(1)},
		popVar(1),
		gml.Push{Value: self(2)},
		gml.Push{Value: gml.Int16(1)},
		gml.Binary{Op: gml.OpAdd, Lhs: gml.TypeVariable, Rhs: gml.TypeInt32},
		popVar(2),
		gml.Branch{Kind: gml.BranchAlways, Offset: -17},
		gml.Exit{},
	}}
}

func TestDecompileOne_IfInsideWhile(t *testing.T) {
	got, err := DecompileOne(nestedCode(), testSymbols())
	require.NoError(t, err)
	want := ast.Block{
		&ast.While{
			Target: &ast.Binary{Lhs: ast.Name("i"), Op: ast.OpLess, Rhs: ast.Int(10)},
			Body: &ast.BlockStmt{Body: ast.Block{
				&ast.If{Cond: ast.Name("x"), Then: &ast.BlockStmt{Body: ast.Block{assign("y", ast.Int(1))}}},
				assign("i", &ast.Binary{Lhs: ast.Name("i"), Op: ast.OpAdd, Rhs: ast.Int(1)}),
			}},
		},
		&ast.Return{},
	}
	assert.Equal(t, want, got)
}

func TestLoopHeader(t *testing.T) {
	code := nestedCode()
	_, g, err := BuildBlockGraph(code)
	require.NoError(t, err)
	rc := &Context{Code: code, Symbols: testSymbols(), Graph: g, Logger: zerolog.Nop()}

	// Resolve the straight-line blocks so the headers carry their conditions.
	for _, ref := range g.Nodes() {
		res, err := StraightLine{}.TryResolve(rc, ref)
		require.NoError(t, err)
		if res != nil {
			require.NoError(t, g.SetMeta(ref, BlockMeta{Start: res.Start, End: res.End, State: res.State}))
		}
	}

	outer, ok := lookup(g, 0)
	require.True(t, ok)
	inner, ok := lookup(g, 1)
	require.True(t, ok)
	assert.True(t, loopHeader(g, outer))
	assert.False(t, loopHeader(g, inner))

	res, err := If{}.TryResolve(rc, 0)
	require.NoError(t, err)
	assert.Nil(t, res, "if must not fold a loop header")
}

func TestDecompileOne_Empty(t *testing.T) {
	got, err := DecompileOne(&gml.Code{Name: "empty"}, testSymbols())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecompileOne_Incomplete(t *testing.T) {
	// A bare ret: too short for straight-line, not an exit or jump.
	_, err := DecompileOne(&gml.Code{Name: "ret", Instructions: []gml.Instruction{gml.Return{}}}, testSymbols())
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Contains(t, err.Error(), "unresolved blocks 0[0,1)")

	// A self loop resolves to one node that still jumps to itself.
	spin := &gml.Code{Name: "spin", Instructions: []gml.Instruction{
		gml.Push{Value: gml.Bool(false)},
		gml.Branch{Kind: gml.BranchIf, Offset: -2},
	}}
	_, err = DecompileOne(spin, testSymbols())
	assert.ErrorIs(t, err, ErrIncomplete)

	// Without the structural resolvers an if cannot collapse.
	_, err = DecompileOne(&gml.Code{Name: "if", Instructions: ifStream()}, testSymbols(), WithResolvers(StraightLine{}))
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestDecompileOne_WrapsOffsetErrors(t *testing.T) {
	code := &gml.Code{Name: "far", Instructions: []gml.Instruction{gml.Branch{Kind: gml.BranchAlways, Offset: 50}}}
	_, err := DecompileOne(code, testSymbols())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedOffset)
	assert.Contains(t, err.Error(), "decompile far: build instruction cfg")
}

func TestDecompileOne_LogsAndTraces(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	var edges int

	_, err := DecompileOne(ifElseCode(), testSymbols(),
		WithLogger(logger),
		WithTrace(func(_, _ cfg.NodeRef) { edges++ }))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"resolver":"straight-line"`)
	assert.Contains(t, out, `"resolver":"if-else"`)
	assert.Contains(t, out, `"code":"ifelse"`)
	assert.Greater(t, edges, 0)
}

type fixedResolver struct {
	name string
	rank int16
}

func (f fixedResolver) Name() string       { return f.name }
func (f fixedResolver) Specificity() int16 { return f.rank }
func (fixedResolver) TryResolve(*Context, cfg.NodeRef) (*Resolution, error) {
	return nil, nil
}

func TestSortResolvers(t *testing.T) {
	in := []Resolver{
		fixedResolver{"low", 1},
		fixedResolver{"high-a", 50},
		fixedResolver{"mid", 10},
		fixedResolver{"high-b", 50},
	}
	var names []string
	for _, r := range SortResolvers(in) {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{"high-a", "high-b", "mid", "low"}, names)
	assert.Equal(t, "low", in[0].Name(), "input must not be reordered")

	var specs []int16
	for _, r := range SortResolvers(DefaultResolvers()) {
		specs = append(specs, r.Specificity())
	}
	for i := 1; i < len(specs); i++ {
		if specs[i] > specs[i-1] {
			t.Fatalf("specificities not descending: %v", specs)
		}
	}
}

func TestResolversByName(t *testing.T) {
	all, err := ResolversByName(nil)
	require.NoError(t, err)
	assert.Len(t, all, len(DefaultResolvers()))

	some, err := ResolversByName([]string{"straight-line", "sequence"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "sequence", some[1].Name())

	_, err = ResolversByName([]string{"switch"})
	assert.Error(t, err)
}
