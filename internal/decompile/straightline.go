package decompile

import (
	"fmt"
	"math"

	"gmldc/internal/ast"
	"gmldc/internal/cfg"
	"gmldc/internal/gml"
)

// StraightLine turns a single multi-instruction block into statements by
// simulating the operand stack over its instructions.
type StraightLine struct{}

func (StraightLine) Name() string       { return "straight-line" }
func (StraightLine) Specificity() int16 { return math.MaxInt16 }

// TryResolve declines single-instruction blocks and blocks already resolved.
func (StraightLine) TryResolve(rc *Context, entry cfg.NodeRef) (*Resolution, error) {
	meta, ok := rc.Graph.Meta(entry)
	if !ok || meta.State.Resolved || meta.Len() <= 1 {
		return nil, nil
	}
	sim := simulator{syms: rc.Symbols, block: entry}
	state, err := sim.run(rc.Code.Instructions[meta.Start:meta.End])
	if err != nil {
		return nil, fmt.Errorf("block %d [%d,%d): %w", entry, meta.Start, meta.End, err)
	}
	return single(rc.Graph, entry, meta, state), nil
}

type simulator struct {
	syms  gml.Symbols
	block cfg.NodeRef
	stack []ast.Expr
	out   ast.Block
}

func (s *simulator) push(e ast.Expr) { s.stack = append(s.stack, e) }

func (s *simulator) pop(in gml.Instruction) (ast.Expr, error) {
	if len(s.stack) == 0 {
		return nil, fmt.Errorf("%s in block %d: %w", in, s.block, ErrStackUnderflow)
	}
	top := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return top, nil
}

func (s *simulator) emit(st ast.Statement) { s.out = append(s.out, st) }

// run simulates code, one block's instruction slice. Indices are local to the slice.
func (s *simulator) run(code []gml.Instruction) (ResolveState, error) {
	var cond ast.Expr
	for i := 0; i < len(code); i++ {
		switch in := code[i].(type) {
		case gml.Push:
			e, err := s.value(in.Value)
			if err != nil {
				return ResolveState{}, err
			}
			s.push(e)

		case gml.PushReference:
			name, err := s.syms.AssetName(in.Kind, in.Index)
			if err != nil {
				return ResolveState{}, err
			}
			s.push(ast.Name(name))

		case gml.Binary:
			op, err := binaryOp(in)
			if err != nil {
				return ResolveState{}, err
			}
			if err := s.binary(in, op); err != nil {
				return ResolveState{}, err
			}

		case gml.Compare:
			op, err := compareOp(in.Cmp)
			if err != nil {
				return ResolveState{}, err
			}
			if err := s.binary(in, op); err != nil {
				return ResolveState{}, err
			}

		case gml.Negate:
			v, err := s.pop(in)
			if err != nil {
				return ResolveState{}, err
			}
			s.push(&ast.Unary{Op: ast.OpMinus, Target: v})

		case gml.Not:
			v, err := s.pop(in)
			if err != nil {
				return ResolveState{}, err
			}
			if in.Type == gml.TypeBoolean {
				s.push(negate(v))
			} else {
				s.push(&ast.Unary{Op: ast.OpBitNegate, Target: v})
			}

		case gml.Call:
			name, err := s.syms.FunctionName(in.Function)
			if err != nil {
				return ResolveState{}, err
			}
			args := make([]ast.Expr, 0, in.ArgCount)
			for n := 0; n < int(in.ArgCount); n++ {
				a, err := s.pop(in)
				if err != nil {
					return ResolveState{}, err
				}
				args = append(args, a)
			}
			s.push(&ast.CallExpr{Call: ast.Call{Base: ast.Name(name), Arguments: args}})

		case gml.Return:
			v, err := s.pop(in)
			if err != nil {
				return ResolveState{}, err
			}
			s.emit(&ast.Return{Value: v})

		case gml.Exit:
			s.emit(&ast.Return{})

		case gml.Pop:
			v, err := s.pop(in)
			if err != nil {
				return ResolveState{}, err
			}
			target, err := s.variable(in.Variable)
			if err != nil {
				return ResolveState{}, err
			}
			s.emit(&ast.Assignment{Target: target, Op: ast.AssignEqual, Value: v})

		case gml.PopDiscard:
			v, err := s.pop(in)
			if err != nil {
				return ResolveState{}, err
			}
			if call, ok := v.(*ast.CallExpr); ok {
				s.emit(&ast.CallStmt{Call: call.Call})
			}

		case gml.Branch:
			switch {
			case in.Kind == gml.BranchAlways:
				if i == len(code)-1 {
					// The block's exit edge; the graph already records it.
					continue
				}
				target, err := RelativeOffsetToIndex(code, i, in.ByteOffset())
				if err != nil || target <= i || target >= len(code) {
					return ResolveState{}, fmt.Errorf("%s at %d leaves block %d (%v): %w", in, i, s.block, err, ErrStructural)
				}
				i = target - 1
			case in.Conditional():
				c, err := s.pop(in)
				if err != nil {
					return ResolveState{}, err
				}
				if i == len(code)-1 {
					cond = fallthroughCond(in.Kind, c)
				}
			default:
				return ResolveState{}, fmt.Errorf("%s: %w", in, ErrUnsupported)
			}

		case gml.Convert:

		default:
			return ResolveState{}, fmt.Errorf("%s: %w", in, ErrUnsupported)
		}
	}
	if len(s.stack) > 0 {
		return ResolveState{}, fmt.Errorf("%d values left on the stack: %w", len(s.stack), ErrUnsupported)
	}
	return ResolveState{Resolved: true, Block: s.out, Cond: cond}, nil
}

func (s *simulator) binary(in gml.Instruction, op ast.BinaryOp) error {
	rhs, err := s.pop(in)
	if err != nil {
		return err
	}
	lhs, err := s.pop(in)
	if err != nil {
		return err
	}
	s.push(&ast.Binary{Lhs: lhs, Op: op, Rhs: rhs})
	return nil
}

func (s *simulator) value(v gml.Value) (ast.Expr, error) {
	switch v := v.(type) {
	case gml.Int16:
		return ast.Int(int64(v)), nil
	case gml.Int32:
		return ast.Int(int64(v)), nil
	case gml.Int64:
		return ast.Int(int64(v)), nil
	case gml.Double:
		return ast.Float(float64(v)), nil
	case gml.Bool:
		return ast.Bool(bool(v)), nil
	case gml.String:
		return ast.String(string(v)), nil
	case gml.Variable:
		return s.variable(gml.VariableRef(v))
	case gml.Function:
		name, err := s.syms.FunctionName(gml.FunctionRef(v))
		if err != nil {
			return nil, err
		}
		return ast.Name(name), nil
	default:
		return nil, fmt.Errorf("push %v: %w", v, ErrUnsupported)
	}
}

// variable names ref in its scope: global.x, other.x or plain x.
func (s *simulator) variable(ref gml.VariableRef) (ast.MutableExpr, error) {
	name, err := s.syms.VariableName(ref)
	if err != nil {
		return nil, err
	}
	switch ref.Instance {
	case gml.InstanceGlobal:
		return &ast.FieldAccess{Base: &ast.Global{}, Field: name}, nil
	case gml.InstanceOther:
		return &ast.FieldAccess{Base: &ast.Other{}, Field: name}, nil
	default:
		return ast.Name(name), nil
	}
}

// binaryOp picks the AST operator from the instruction and its lhs type tag.
func binaryOp(in gml.Binary) (ast.BinaryOp, error) {
	logical := in.Lhs == gml.TypeBoolean
	switch in.Op {
	case gml.OpAdd:
		return ast.OpAdd, nil
	case gml.OpSub:
		return ast.OpSub, nil
	case gml.OpMul:
		return ast.OpMul, nil
	case gml.OpDiv:
		if in.Lhs.IsInteger() {
			return ast.OpIDiv, nil
		}
		return ast.OpDiv, nil
	case gml.OpRem, gml.OpMod:
		return ast.OpRem, nil
	case gml.OpAnd:
		if logical {
			return ast.OpAnd, nil
		}
		return ast.OpBitAnd, nil
	case gml.OpOr:
		if logical {
			return ast.OpOr, nil
		}
		return ast.OpBitOr, nil
	case gml.OpXor:
		if logical {
			return ast.OpXor, nil
		}
		return ast.OpBitXor, nil
	case gml.OpShl:
		return ast.OpShiftLeft, nil
	case gml.OpShr:
		return ast.OpShiftRight, nil
	default:
		return 0, fmt.Errorf("%s: %w", in, ErrUnsupported)
	}
}

func compareOp(c gml.Comparison) (ast.BinaryOp, error) {
	switch c {
	case gml.CmpLess:
		return ast.OpLess, nil
	case gml.CmpLessEqual:
		return ast.OpLessEqual, nil
	case gml.CmpEqual:
		return ast.OpEqual, nil
	case gml.CmpNotEqual:
		return ast.OpNotEqual, nil
	case gml.CmpGreaterEqual:
		return ast.OpGreaterEqual, nil
	case gml.CmpGreater:
		return ast.OpGreater, nil
	default:
		return 0, fmt.Errorf("comparison %s: %w", c, ErrUnsupported)
	}
}

// fallthroughCond returns the condition under which a branch of kind falls
// through: bf falls through when cond holds, bt when it does not.
func fallthroughCond(kind gml.BranchKind, cond ast.Expr) ast.Expr {
	if kind == gml.BranchIf {
		return negate(cond)
	}
	return cond
}

// negate returns !e, unwrapping an existing logical not.
func negate(e ast.Expr) ast.Expr {
	if u, ok := e.(*ast.Unary); ok && u.Op == ast.OpNot {
		return u.Target
	}
	return &ast.Unary{Op: ast.OpNot, Target: e}
}
