package gml

import "fmt"

// Instruction is one decoded VM instruction. Size is its encoded length in bytes;
// instructions are variable length, so byte offsets and indices differ.
type Instruction interface {
	Size() uint32
	String() string
}

// Code is one compiled function: its instruction stream and the byte offset
// execution starts at.
type Code struct {
	Name            string
	Instructions    []Instruction
	ExecutionOffset uint32
}

// ByteLength returns the encoded size of instrs.
func ByteLength(instrs []Instruction) uint32 {
	var n uint32
	for _, in := range instrs {
		n += in.Size()
	}
	return n
}

// VariableRef names a variable and the instance scope it lives in.
type VariableRef struct {
	Index    uint32
	Instance InstanceType
}

// FunctionRef indexes the function table.
type FunctionRef uint32

// Value is the operand of a Push.
type Value interface {
	extraSize() uint32
	String() string
}

// Push value kinds.
type (
	Int16    int16
	Int32    int32
	Int64    int64
	Double   float64
	Bool     bool
	String   string
	Variable VariableRef
	Function FunctionRef
)

func (Int16) extraSize() uint32    { return 0 }
func (Int32) extraSize() uint32    { return 4 }
func (Int64) extraSize() uint32    { return 8 }
func (Double) extraSize() uint32   { return 8 }
func (Bool) extraSize() uint32     { return 4 }
func (String) extraSize() uint32   { return 4 }
func (Variable) extraSize() uint32 { return 4 }
func (Function) extraSize() uint32 { return 4 }

func (v Int16) String() string    { return fmt.Sprintf("%d", int16(v)) }
func (v Int32) String() string    { return fmt.Sprintf("%d", int32(v)) }
func (v Int64) String() string    { return fmt.Sprintf("%d", int64(v)) }
func (v Double) String() string   { return fmt.Sprintf("%g", float64(v)) }
func (v Bool) String() string     { return fmt.Sprintf("%t", bool(v)) }
func (v String) String() string   { return fmt.Sprintf("%q", string(v)) }
func (v Variable) String() string { return fmt.Sprintf("%s.var[%d]", v.Instance, v.Index) }
func (v Function) String() string { return fmt.Sprintf("func[%d]", uint32(v)) }

// Push pushes a constant, variable or function value.
type Push struct {
	Value Value
}

func (p Push) Size() uint32   { return 4 + p.Value.extraSize() }
func (p Push) String() string { return "push " + p.Value.String() }

// PushReference pushes a reference to an asset.
type PushReference struct {
	Kind  AssetKind
	Index uint32
}

func (PushReference) Size() uint32 { return 8 }
func (p PushReference) String() string {
	return fmt.Sprintf("pushref %s[%d]", p.Kind, p.Index)
}

// BinaryOp selects the arithmetic, bitwise or logical operation of a Binary instruction.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpMod
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
)

var binaryOpNames = [...]string{
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpRem: "rem", OpMod: "mod",
	OpAnd: "and", OpOr: "or", OpXor: "xor", OpShl: "shl", OpShr: "shr",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return fmt.Sprintf("binop(%d)", uint8(op))
}

// ParseBinaryOp is the inverse of BinaryOp.String.
func ParseBinaryOp(s string) (BinaryOp, bool) {
	for i, name := range binaryOpNames {
		if name == s {
			return BinaryOp(i), true
		}
	}
	return 0, false
}

// Binary pops two operands and pushes the result. Lhs and Rhs are the operand type tags.
type Binary struct {
	Op       BinaryOp
	Lhs, Rhs DataType
}

func (Binary) Size() uint32 { return 4 }
func (b Binary) String() string {
	return fmt.Sprintf("%s.%s.%s", b.Op, b.Lhs, b.Rhs)
}

// Comparison selects the relation tested by a Compare instruction.
type Comparison uint8

const (
	CmpLess Comparison = iota + 1
	CmpLessEqual
	CmpEqual
	CmpNotEqual
	CmpGreaterEqual
	CmpGreater
)

var comparisonNames = [...]string{
	CmpLess: "lt", CmpLessEqual: "lte", CmpEqual: "eq",
	CmpNotEqual: "neq", CmpGreaterEqual: "gte", CmpGreater: "gt",
}

func (c Comparison) String() string {
	if c > 0 && int(c) < len(comparisonNames) {
		return comparisonNames[c]
	}
	return fmt.Sprintf("cmp(%d)", uint8(c))
}

// ParseComparison is the inverse of Comparison.String.
func ParseComparison(s string) (Comparison, bool) {
	for i, name := range comparisonNames {
		if i > 0 && name == s {
			return Comparison(i), true
		}
	}
	return 0, false
}

// Compare pops two operands and pushes the boolean result of the relation.
type Compare struct {
	Cmp      Comparison
	Lhs, Rhs DataType
}

func (Compare) Size() uint32 { return 4 }
func (c Compare) String() string {
	return fmt.Sprintf("cmp.%s.%s %s", c.Lhs, c.Rhs, c.Cmp)
}

// Negate pops one operand and pushes its arithmetic negation.
type Negate struct{ Type DataType }

func (Negate) Size() uint32     { return 4 }
func (n Negate) String() string { return "neg." + n.Type.String() }

// Not pops one operand and pushes its logical or bitwise complement.
type Not struct{ Type DataType }

func (Not) Size() uint32     { return 4 }
func (n Not) String() string { return "not." + n.Type.String() }

// Call pops ArgCount arguments and pushes the function's result.
type Call struct {
	Function FunctionRef
	ArgCount uint16
}

func (Call) Size() uint32 { return 8 }
func (c Call) String() string {
	return fmt.Sprintf("call func[%d](argc=%d)", uint32(c.Function), c.ArgCount)
}

// Pop pops one operand into a variable.
type Pop struct {
	Variable     VariableRef
	Type1, Type2 DataType
}

func (Pop) Size() uint32 { return 8 }
func (p Pop) String() string {
	return fmt.Sprintf("pop.%s.%s %s", p.Type1, p.Type2, Variable(p.Variable))
}

// PopDiscard pops and drops one operand.
type PopDiscard struct{ Type DataType }

func (PopDiscard) Size() uint32     { return 4 }
func (p PopDiscard) String() string { return "popz." + p.Type.String() }

// Duplicate duplicates the top Count+1 stack entries.
type Duplicate struct {
	Type  DataType
	Count uint8
}

func (Duplicate) Size() uint32 { return 4 }
func (d Duplicate) String() string {
	return fmt.Sprintf("dup.%s %d", d.Type, d.Count)
}

// Return pops the return value and leaves the function.
type Return struct{}

func (Return) Size() uint32   { return 4 }
func (Return) String() string { return "ret.v" }

// Exit leaves the function without a value.
type Exit struct{}

func (Exit) Size() uint32   { return 4 }
func (Exit) String() string { return "exit.i" }

// BranchKind distinguishes the jump-carrying instructions.
type BranchKind uint8

const (
	// BranchAlways jumps unconditionally.
	BranchAlways BranchKind = iota
	// BranchIf pops a condition and jumps when it is true.
	BranchIf
	// BranchUnless pops a condition and jumps when it is false.
	BranchUnless
	// PushEnv enters a with-scope; the offset points past the scope.
	PushEnv
	// PopEnv leaves a with-scope; the offset points back to its body.
	PopEnv
)

var branchKindNames = [...]string{
	BranchAlways: "b", BranchIf: "bt", BranchUnless: "bf", PushEnv: "pushenv", PopEnv: "popenv",
}

func (k BranchKind) String() string {
	if int(k) < len(branchKindNames) {
		return branchKindNames[k]
	}
	return fmt.Sprintf("branch(%d)", uint8(k))
}

// ParseBranchKind is the inverse of BranchKind.String.
func ParseBranchKind(s string) (BranchKind, bool) {
	for i, name := range branchKindNames {
		if name == s {
			return BranchKind(i), true
		}
	}
	return 0, false
}

// Branch carries a signed jump offset relative to its own position, encoded in
// 4-byte words.
type Branch struct {
	Kind   BranchKind
	Offset int32
}

func (Branch) Size() uint32 { return 4 }
func (b Branch) String() string {
	return fmt.Sprintf("%s %+d", b.Kind, b.Offset)
}

// ByteOffset returns the jump offset in bytes.
func (b Branch) ByteOffset() int32 { return b.Offset * 4 }

// Conditional reports whether the branch pops a condition.
func (b Branch) Conditional() bool {
	return b.Kind == BranchIf || b.Kind == BranchUnless
}

// Convert changes the type tag of the top of stack.
type Convert struct {
	From, To DataType
}

func (Convert) Size() uint32 { return 4 }
func (c Convert) String() string {
	return fmt.Sprintf("conv.%s.%s", c.From, c.To)
}
