package ast

import "github.com/quill-lang/quill/internal/lexer"

// NodeID is the stable arena index of a node. Analysis facts are keyed by it,
// never by node contents.
type NodeID int

// Node represents any AST node with an identity and an associated source span.
type Node interface {
	ID() NodeID
	Span() lexer.Span
}

// Stmt represents a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr represents an expression node.
type Expr interface {
	Node
	exprNode()
}

type node struct {
	id   NodeID
	span lexer.Span
}

// ID returns the arena index of the node.
func (n *node) ID() NodeID { return n.id }

// Span returns the source span of the node.
func (n *node) Span() lexer.Span { return n.span }

// Script is a parsed compilation unit: user functions plus the main body.
type Script struct {
	node
	Functions []*Function
	Main      *Function
	Arena     *Arena
}

// Param is a function parameter.
type Param struct {
	TypeName string
	Name     string
	Span     lexer.Span
}

// Function is a function declaration. The main body of a script is a Function
// with AutoReturn set, so falling off its end yields the default value.
type Function struct {
	node
	ReturnType string
	Name       string
	Params     []*Param
	Body       *Block
	AutoReturn bool
}

// Block is a braced sequence of statements.
type Block struct {
	node
	Stmts []Stmt
}

func (*Block) stmtNode() {}

// If is an if statement without an else branch.
type If struct {
	node
	Condition Expr
	Then      *Block
}

func (*If) stmtNode() {}

// IfElse is an if statement with an else branch.
type IfElse struct {
	node
	Condition Expr
	Then      *Block
	Else      *Block
}

func (*IfElse) stmtNode() {}

// While is a pre-tested loop.
type While struct {
	node
	Condition Expr
	Body      *Block
}

func (*While) stmtNode() {}

// DoWhile is a post-tested loop.
type DoWhile struct {
	node
	Body      *Block
	Condition Expr
}

func (*DoWhile) stmtNode() {}

// For is a three-clause loop. Init is a *Declaration or an Expr; any clause
// may be nil.
type For struct {
	node
	Init      Node
	Condition Expr
	Update    Expr
	Body      *Block
}

func (*For) stmtNode() {}

// Break leaves the innermost loop.
type Break struct {
	node
}

func (*Break) stmtNode() {}

// Continue starts the next iteration of the innermost loop.
type Continue struct {
	node
}

func (*Continue) stmtNode() {}

// Return leaves the enclosing function, optionally with a value.
type Return struct {
	node
	Value Expr
}

func (*Return) stmtNode() {}

// Throw raises an exception value.
type Throw struct {
	node
	Value Expr
}

func (*Throw) stmtNode() {}

// Try is a try block with one or more catch clauses.
type Try struct {
	node
	Body    *Block
	Catches []*Catch
}

func (*Try) stmtNode() {}

// Catch is a single catch clause binding the caught exception to Name.
type Catch struct {
	node
	TypeName string
	Name     string
	Body     *Block
}

func (*Catch) stmtNode() {}

// Declaration declares one or more variables of the same type.
type Declaration struct {
	node
	TypeName    string
	Declarators []*Declarator
}

func (*Declaration) stmtNode() {}

// Declarator is one variable in a Declaration with an optional initializer.
type Declarator struct {
	node
	Name  string
	Value Expr
}

func (*Declarator) stmtNode() {}

// ExpressionStatement evaluates an expression for its effect.
type ExpressionStatement struct {
	node
	Expr Expr
}

func (*ExpressionStatement) stmtNode() {}

// Operation is the operator of a unary, binary, comparison or boolean node.
type Operation string

const (
	OpAdd Operation = "+"
	OpSub Operation = "-"
	OpMul Operation = "*"
	OpDiv Operation = "/"
	OpRem Operation = "%"

	OpEq Operation = "=="
	OpNe Operation = "!="
	OpLt Operation = "<"
	OpLe Operation = "<="
	OpGt Operation = ">"
	OpGe Operation = ">="

	OpAnd Operation = "&&"
	OpOr  Operation = "||"

	OpNot Operation = "!"
	OpNeg Operation = "neg"
	OpPos Operation = "pos"
)

// Numeric is an integer literal, possibly with a long suffix or hex prefix.
type Numeric struct {
	node
	Text string
}

func (*Numeric) exprNode() {}

// Decimal is a floating point literal, possibly with a float/double suffix.
type Decimal struct {
	node
	Text string
}

func (*Decimal) exprNode() {}

// String is a string literal.
type String struct {
	node
	Value string
}

func (*String) exprNode() {}

// Boolean is a true/false literal.
type Boolean struct {
	node
	Value bool
}

func (*Boolean) exprNode() {}

// Null is the null literal.
type Null struct {
	node
}

func (*Null) exprNode() {}

// Symbol reads a variable.
type Symbol struct {
	node
	Name string
}

func (*Symbol) exprNode() {}

// Assignment stores Value into Target.
type Assignment struct {
	node
	Target Expr
	Value  Expr
}

func (*Assignment) exprNode() {}

// Binary is an arithmetic expression.
type Binary struct {
	node
	Op    Operation
	Left  Expr
	Right Expr
}

func (*Binary) exprNode() {}

// Comparison is an equality or ordering expression.
type Comparison struct {
	node
	Op    Operation
	Left  Expr
	Right Expr
}

func (*Comparison) exprNode() {}

// BooleanComp is a short-circuit && or || expression.
type BooleanComp struct {
	node
	Op    Operation
	Left  Expr
	Right Expr
}

func (*BooleanComp) exprNode() {}

// Unary is a prefix expression.
type Unary struct {
	node
	Op      Operation
	Operand Expr
}

func (*Unary) exprNode() {}

// Explicit is a cast written in source: (TypeName) Value.
type Explicit struct {
	node
	TypeName string
	Value    Expr
}

func (*Explicit) exprNode() {}

// Call invokes a user function or builtin by name.
type Call struct {
	node
	Name string
	Args []Expr
}

func (*Call) exprNode() {}
