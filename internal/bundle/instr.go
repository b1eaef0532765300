package bundle

import (
	"fmt"
	"math"

	"gmldc/internal/gml"
)

// Instr is the serialized form of one instruction. Op names the instruction
// (push, pushref, add ... shr, cmp, neg, not, call, pop, popz, dup, ret, exit,
// b, bt, bf, pushenv, popenv, conv). The other fields are read per Op.
type Instr struct {
	Op    string `json:"op" cbor:"op"`
	Type  string `json:"type,omitempty" cbor:"type,omitempty"`
	Type2 string `json:"type2,omitempty" cbor:"type2,omitempty"`

	// Push payloads; exactly one is set, matching Type.
	Int   *int64   `json:"int,omitempty" cbor:"int,omitempty"`
	Float *float64 `json:"float,omitempty" cbor:"float,omitempty"`
	Bool  *bool    `json:"bool,omitempty" cbor:"bool,omitempty"`
	Str   *string  `json:"str,omitempty" cbor:"str,omitempty"`

	// Index is a variable, function or asset index.
	Index    uint32 `json:"index,omitempty" cbor:"index,omitempty"`
	Instance int16  `json:"instance,omitempty" cbor:"instance,omitempty"`
	// Kind is an asset kind for pushref or a comparison for cmp.
	Kind   string `json:"kind,omitempty" cbor:"kind,omitempty"`
	Argc   uint16 `json:"argc,omitempty" cbor:"argc,omitempty"`
	Offset int32  `json:"offset,omitempty" cbor:"offset,omitempty"`
	Count  uint8  `json:"count,omitempty" cbor:"count,omitempty"`
}

// pushFunc is the Type of a push of a function reference.
const pushFunc = "func"

// EncodeInstr converts an instruction to its serialized form.
func EncodeInstr(in gml.Instruction) (Instr, error) {
	switch in := in.(type) {
	case gml.Push:
		return encodePush(in.Value)
	case gml.PushReference:
		return Instr{Op: "pushref", Kind: in.Kind.String(), Index: in.Index}, nil
	case gml.Binary:
		return Instr{Op: in.Op.String(), Type: in.Lhs.String(), Type2: in.Rhs.String()}, nil
	case gml.Compare:
		return Instr{Op: "cmp", Kind: in.Cmp.String(), Type: in.Lhs.String(), Type2: in.Rhs.String()}, nil
	case gml.Negate:
		return Instr{Op: "neg", Type: in.Type.String()}, nil
	case gml.Not:
		return Instr{Op: "not", Type: in.Type.String()}, nil
	case gml.Call:
		return Instr{Op: "call", Index: uint32(in.Function), Argc: in.ArgCount}, nil
	case gml.Pop:
		return Instr{
			Op:       "pop",
			Index:    in.Variable.Index,
			Instance: int16(in.Variable.Instance),
			Type:     in.Type1.String(),
			Type2:    in.Type2.String(),
		}, nil
	case gml.PopDiscard:
		return Instr{Op: "popz", Type: in.Type.String()}, nil
	case gml.Duplicate:
		return Instr{Op: "dup", Type: in.Type.String(), Count: in.Count}, nil
	case gml.Return:
		return Instr{Op: "ret"}, nil
	case gml.Exit:
		return Instr{Op: "exit"}, nil
	case gml.Branch:
		return Instr{Op: in.Kind.String(), Offset: in.Offset}, nil
	case gml.Convert:
		return Instr{Op: "conv", Type: in.From.String(), Type2: in.To.String()}, nil
	}
	return Instr{}, fmt.Errorf("bundle: cannot encode %T", in)
}

func encodePush(v gml.Value) (Instr, error) {
	out := Instr{Op: "push"}
	switch v := v.(type) {
	case gml.Int16:
		n := int64(v)
		out.Type, out.Int = gml.TypeInt16.String(), &n
	case gml.Int32:
		n := int64(v)
		out.Type, out.Int = gml.TypeInt32.String(), &n
	case gml.Int64:
		n := int64(v)
		out.Type, out.Int = gml.TypeInt64.String(), &n
	case gml.Double:
		f := float64(v)
		out.Type, out.Float = gml.TypeDouble.String(), &f
	case gml.Bool:
		b := bool(v)
		out.Type, out.Bool = gml.TypeBoolean.String(), &b
	case gml.String:
		s := string(v)
		out.Type, out.Str = gml.TypeString.String(), &s
	case gml.Variable:
		out.Type, out.Index, out.Instance = gml.TypeVariable.String(), v.Index, int16(v.Instance)
	case gml.Function:
		out.Type, out.Index = pushFunc, uint32(v)
	default:
		return Instr{}, fmt.Errorf("bundle: cannot encode push of %T", v)
	}
	return out, nil
}

// DecodeInstr converts a serialized instruction back.
func DecodeInstr(r Instr) (gml.Instruction, error) {
	if op, ok := gml.ParseBinaryOp(r.Op); ok {
		lhs, rhs, err := types(r)
		if err != nil {
			return nil, err
		}
		return gml.Binary{Op: op, Lhs: lhs, Rhs: rhs}, nil
	}
	if kind, ok := gml.ParseBranchKind(r.Op); ok {
		return gml.Branch{Kind: kind, Offset: r.Offset}, nil
	}

	switch r.Op {
	case "push":
		v, err := decodePush(r)
		if err != nil {
			return nil, err
		}
		return gml.Push{Value: v}, nil
	case "pushref":
		kind, err := gml.ParseAssetKind(r.Kind)
		if err != nil {
			return nil, fmt.Errorf("bundle: pushref: %w", err)
		}
		return gml.PushReference{Kind: kind, Index: r.Index}, nil
	case "cmp":
		cmp, ok := gml.ParseComparison(r.Kind)
		if !ok {
			return nil, fmt.Errorf("bundle: cmp: unknown comparison %q", r.Kind)
		}
		lhs, rhs, err := types(r)
		if err != nil {
			return nil, err
		}
		return gml.Compare{Cmp: cmp, Lhs: lhs, Rhs: rhs}, nil
	case "neg", "not", "popz", "dup":
		t, err := gml.ParseDataType(r.Type)
		if err != nil {
			return nil, fmt.Errorf("bundle: %s: %w", r.Op, err)
		}
		switch r.Op {
		case "neg":
			return gml.Negate{Type: t}, nil
		case "not":
			return gml.Not{Type: t}, nil
		case "popz":
			return gml.PopDiscard{Type: t}, nil
		}
		return gml.Duplicate{Type: t, Count: r.Count}, nil
	case "call":
		return gml.Call{Function: gml.FunctionRef(r.Index), ArgCount: r.Argc}, nil
	case "pop":
		t1, t2, err := types(r)
		if err != nil {
			return nil, err
		}
		return gml.Pop{
			Variable: gml.VariableRef{Index: r.Index, Instance: gml.InstanceType(r.Instance)},
			Type1:    t1,
			Type2:    t2,
		}, nil
	case "ret":
		return gml.Return{}, nil
	case "exit":
		return gml.Exit{}, nil
	case "conv":
		from, to, err := types(r)
		if err != nil {
			return nil, err
		}
		return gml.Convert{From: from, To: to}, nil
	}
	return nil, fmt.Errorf("bundle: unknown op %q", r.Op)
}

func types(r Instr) (gml.DataType, gml.DataType, error) {
	a, err := gml.ParseDataType(r.Type)
	if err != nil {
		return 0, 0, fmt.Errorf("bundle: %s: %w", r.Op, err)
	}
	b, err := gml.ParseDataType(r.Type2)
	if err != nil {
		return 0, 0, fmt.Errorf("bundle: %s: %w", r.Op, err)
	}
	return a, b, nil
}

func decodePush(r Instr) (gml.Value, error) {
	if r.Type == pushFunc {
		return gml.Function(r.Index), nil
	}
	t, err := gml.ParseDataType(r.Type)
	if err != nil {
		return nil, fmt.Errorf("bundle: push: %w", err)
	}
	missing := fmt.Errorf("bundle: push.%s: missing value", r.Type)
	switch t {
	case gml.TypeInt16, gml.TypeInt32, gml.TypeInt64:
		if r.Int == nil {
			return nil, missing
		}
		v := *r.Int
		switch t {
		case gml.TypeInt16:
			if v < math.MinInt16 || v > math.MaxInt16 {
				return nil, fmt.Errorf("bundle: push.%s: %d out of range", r.Type, v)
			}
			return gml.Int16(v), nil
		case gml.TypeInt32:
			if v < math.MinInt32 || v > math.MaxInt32 {
				return nil, fmt.Errorf("bundle: push.%s: %d out of range", r.Type, v)
			}
			return gml.Int32(v), nil
		}
		return gml.Int64(v), nil
	case gml.TypeDouble:
		if r.Float == nil {
			return nil, missing
		}
		return gml.Double(*r.Float), nil
	case gml.TypeBoolean:
		if r.Bool == nil {
			return nil, missing
		}
		return gml.Bool(*r.Bool), nil
	case gml.TypeString:
		if r.Str == nil {
			return nil, missing
		}
		return gml.String(*r.Str), nil
	case gml.TypeVariable:
		return gml.Variable{Index: r.Index, Instance: gml.InstanceType(r.Instance)}, nil
	}
	return nil, fmt.Errorf("bundle: push.%s: unsupported type", r.Type)
}
