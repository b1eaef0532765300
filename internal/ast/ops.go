package ast

// BinaryOp is a binary operator.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpIDiv
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpAnd
	OpOr
	OpXor
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShiftLeft
	OpShiftRight
	OpNullCoalesce
)

var binaryOpText = [...]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpRem: "%", OpIDiv: "div",
	OpEqual: "==", OpNotEqual: "!=", OpLess: "<", OpLessEqual: "<=",
	OpGreater: ">", OpGreaterEqual: ">=",
	OpAnd: "&&", OpOr: "||", OpXor: "^^",
	OpBitAnd: "&", OpBitOr: "|", OpBitXor: "^",
	OpShiftLeft: "<<", OpShiftRight: ">>", OpNullCoalesce: "??",
}

// String returns the operator's source token.
func (op BinaryOp) String() string {
	if int(op) < len(binaryOpText) {
		return binaryOpText[op]
	}
	return "?"
}

// UnaryOp is a prefix operator.
type UnaryOp uint8

const (
	OpNot UnaryOp = iota
	OpMinus
	OpBitNegate
)

func (op UnaryOp) String() string {
	switch op {
	case OpNot:
		return "!"
	case OpMinus:
		return "-"
	case OpBitNegate:
		return "~"
	}
	return "?"
}

// AssignOp is an assignment operator.
type AssignOp uint8

const (
	AssignEqual AssignOp = iota
	AssignPlus
	AssignMinus
	AssignMul
	AssignDiv
	AssignRem
	AssignBitAnd
	AssignBitOr
	AssignBitXor
	AssignNullCoalesce
)

var assignOpText = [...]string{
	AssignEqual: "=", AssignPlus: "+=", AssignMinus: "-=", AssignMul: "*=",
	AssignDiv: "/=", AssignRem: "%=", AssignBitAnd: "&=", AssignBitOr: "|=",
	AssignBitXor: "^=", AssignNullCoalesce: "??=",
}

func (op AssignOp) String() string {
	if int(op) < len(assignOpText) {
		return assignOpText[op]
	}
	return "?"
}

// MutationOp is ++ or --.
type MutationOp uint8

const (
	Increment MutationOp = iota
	Decrement
)

func (op MutationOp) String() string {
	if op == Decrement {
		return "--"
	}
	return "++"
}

// Accessor is the optional accessor of an index expression (x[| i], x[? k], ...).
type Accessor uint8

const (
	AccessorNone Accessor = iota
	AccessorList
	AccessorMap
	AccessorGrid
	AccessorArray
	AccessorStruct
)

func (a Accessor) String() string {
	switch a {
	case AccessorList:
		return "|"
	case AccessorMap:
		return "?"
	case AccessorGrid:
		return "#"
	case AccessorArray:
		return "@"
	case AccessorStruct:
		return "$"
	}
	return ""
}
