// Package ast defines the decompiler's output tree.
//
// Nodes are plain values built once by the resolvers and never mutated afterwards.
// They carry no back-references and no source positions.
package ast

// Block is an ordered list of statements.
type Block []Statement

// Statement is implemented by every statement node.
type Statement interface {
	stmtNode()
}

// Expr is implemented by every expression node.
type Expr interface {
	exprNode()
}

// MutableExpr is an expression that can be assigned to or mutated.
type MutableExpr interface {
	Expr
	mutableNode()
}

// Statements.
type (
	// Empty is a lone semicolon.
	Empty struct{}

	// BlockStmt is a braced nested block.
	BlockStmt struct {
		Body Block
	}

	// EnumDecl declares an enum. A nil Value means an implicit value.
	EnumDecl struct {
		Name     string
		Variants []Binding
	}

	// FunctionDecl declares a function or constructor.
	FunctionDecl struct {
		Name          string
		IsConstructor bool
		Inherit       *Call
		Params        []Param
		Body          Block
	}

	// VarDecl is a local variable declaration.
	VarDecl struct {
		Vars []Binding
	}

	// StaticDecl is a static variable declaration.
	StaticDecl struct {
		Vars []Binding
	}

	// GlobalVarDecl is a globalvar declaration.
	GlobalVarDecl struct {
		Name string
	}

	// Assignment stores Value into Target.
	Assignment struct {
		Target MutableExpr
		Op     AssignOp
		Value  Expr
	}

	// Return leaves the function. Value is nil for a bare exit.
	Return struct {
		Value Expr
	}

	// If is a conditional. Else is nil when absent.
	If struct {
		Cond Expr
		Then Statement
		Else Statement
	}

	// For is a C-style loop.
	For struct {
		Init Statement
		Cond Expr
		Post Statement
		Body Statement
	}

	// While repeats Body while Target holds.
	While LoopStmt

	// Repeat runs Body Target times.
	Repeat LoopStmt

	// With runs Body in the scope of each instance matched by Target.
	With LoopStmt

	// Switch dispatches on Target. Default is nil when absent.
	Switch struct {
		Target  Expr
		Cases   []SwitchCase
		Default Block
	}

	// TryCatch binds Err in Catch.
	TryCatch struct {
		Try   Statement
		Err   string
		Catch Statement
	}

	// Throw raises Value.
	Throw struct {
		Value Expr
	}

	// CallStmt is a call whose result is discarded.
	CallStmt struct {
		Call Call
	}

	// PrefixStmt is ++x or --x as a statement.
	PrefixStmt Mutation

	// PostfixStmt is x++ or x-- as a statement.
	PostfixStmt Mutation

	// Break leaves the innermost loop or switch.
	Break struct{}

	// Continue jumps to the next loop iteration.
	Continue struct{}
)

// Binding is a name with an optional initializer.
type Binding struct {
	Name  string
	Value Expr
}

// Param is a function parameter. Default is nil when absent.
type Param struct {
	Name    string
	Default Expr
}

// LoopStmt is shared by while, repeat and with.
type LoopStmt struct {
	Target Expr
	Body   Statement
}

// SwitchCase is one case arm.
type SwitchCase struct {
	Compare Expr
	Body    Block
}

// Call is a function call. HasNew marks a constructor call.
type Call struct {
	Base      Expr
	Arguments []Expr
	HasNew    bool
}

// Mutation is an increment or decrement of Target.
type Mutation struct {
	Op     MutationOp
	Target MutableExpr
}

func (*Empty) stmtNode()         {}
func (*BlockStmt) stmtNode()     {}
func (*EnumDecl) stmtNode()      {}
func (*FunctionDecl) stmtNode()  {}
func (*VarDecl) stmtNode()       {}
func (*StaticDecl) stmtNode()    {}
func (*GlobalVarDecl) stmtNode() {}
func (*Assignment) stmtNode()    {}
func (*Return) stmtNode()        {}
func (*If) stmtNode()            {}
func (*For) stmtNode()           {}
func (*While) stmtNode()         {}
func (*Repeat) stmtNode()        {}
func (*With) stmtNode()          {}
func (*Switch) stmtNode()        {}
func (*TryCatch) stmtNode()      {}
func (*Throw) stmtNode()         {}
func (*CallStmt) stmtNode()      {}
func (*PrefixStmt) stmtNode()    {}
func (*PostfixStmt) stmtNode()   {}
func (*Break) stmtNode()         {}
func (*Continue) stmtNode()      {}

// Expressions.
type (
	// Global is the global scope reference.
	Global struct{}

	// This is the self reference.
	This struct{}

	// Other is the other-instance reference.
	Other struct{}

	// Constant is a literal.
	Constant struct {
		Kind  ConstKind
		Bool  bool
		Int   int64
		Float float64
		Str   string
	}

	// Ident is a bare name.
	Ident struct {
		Name string
	}

	// Group is a parenthesized expression.
	Group struct {
		Inner Expr
	}

	// ObjectLit is a struct literal.
	ObjectLit struct {
		Fields []Field
	}

	// ArrayLit is an array literal.
	ArrayLit struct {
		Elems []Expr
	}

	// Unary applies Op to Target.
	Unary struct {
		Op     UnaryOp
		Target Expr
	}

	// PrefixExpr is ++x or --x used as a value.
	PrefixExpr Mutation

	// PostfixExpr is x++ or x-- used as a value.
	PostfixExpr Mutation

	// Binary applies Op to Lhs and Rhs.
	Binary struct {
		Lhs Expr
		Op  BinaryOp
		Rhs Expr
	}

	// Ternary is cond ? a : b.
	Ternary struct {
		Cond    Expr
		IfTrue  Expr
		IfFalse Expr
	}

	// CallExpr is a call used as a value.
	CallExpr struct {
		Call Call
	}

	// FieldAccess is base.field.
	FieldAccess struct {
		Base  Expr
		Field string
	}

	// Index is base[i, j] with an optional accessor.
	Index struct {
		Base     Expr
		Accessor Accessor
		Indexes  []Expr
	}

	// Argument is argument[i].
	Argument struct {
		Index Expr
	}

	// ArgumentCount is argument_count.
	ArgumentCount struct{}
)

// Field is one struct literal entry. A nil Value is a shorthand init.
type Field struct {
	Name  string
	Value Expr
}

func (*Global) exprNode()        {}
func (*This) exprNode()          {}
func (*Other) exprNode()         {}
func (*Constant) exprNode()      {}
func (*Ident) exprNode()         {}
func (*Group) exprNode()         {}
func (*ObjectLit) exprNode()     {}
func (*ArrayLit) exprNode()      {}
func (*Unary) exprNode()         {}
func (*PrefixExpr) exprNode()    {}
func (*PostfixExpr) exprNode()   {}
func (*Binary) exprNode()        {}
func (*Ternary) exprNode()       {}
func (*CallExpr) exprNode()      {}
func (*FieldAccess) exprNode()   {}
func (*Index) exprNode()         {}
func (*Argument) exprNode()      {}
func (*ArgumentCount) exprNode() {}

func (*Ident) mutableNode()       {}
func (*FieldAccess) mutableNode() {}
func (*Index) mutableNode()       {}

// ConstKind tags a Constant.
type ConstKind uint8

const (
	ConstUndefined ConstKind = iota
	ConstBool
	ConstInt
	ConstFloat
	ConstString
)

// Undefined returns the undefined literal.
func Undefined() *Constant { return &Constant{Kind: ConstUndefined} }

// Bool returns a boolean literal.
func Bool(v bool) *Constant { return &Constant{Kind: ConstBool, Bool: v} }

// Int returns an integer literal.
func Int(v int64) *Constant { return &Constant{Kind: ConstInt, Int: v} }

// Float returns a real literal.
func Float(v float64) *Constant { return &Constant{Kind: ConstFloat, Float: v} }

// String returns a string literal.
func String(v string) *Constant { return &Constant{Kind: ConstString, Str: v} }

// Name returns an identifier.
func Name(name string) *Ident { return &Ident{Name: name} }
