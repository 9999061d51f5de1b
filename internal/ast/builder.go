package ast

import "github.com/quill-lang/quill/internal/lexer"

// Arena owns every node of one compilation unit, indexed by NodeID.
type Arena struct {
	nodes []Node
}

// Len returns the number of nodes allocated so far.
func (a *Arena) Len() int { return len(a.nodes) }

// Node returns the node with the given id, or nil if out of range.
func (a *Arena) Node(id NodeID) Node {
	if id < 0 || int(id) >= len(a.nodes) {
		return nil
	}
	return a.nodes[id]
}

// Builder constructs nodes and assigns them consecutive ids in its arena.
// A Builder is confined to the goroutine building one unit.
type Builder struct {
	arena *Arena
}

// NewBuilder returns a builder with an empty arena.
func NewBuilder() *Builder {
	return &Builder{arena: &Arena{}}
}

// Arena returns the arena that owns the built nodes.
func (b *Builder) Arena() *Arena { return b.arena }

func (b *Builder) base(span lexer.Span) node {
	return node{id: NodeID(len(b.arena.nodes)), span: span}
}

func add[T Node](b *Builder, n T) T {
	b.arena.nodes = append(b.arena.nodes, n)
	return n
}

// Script builds a compilation unit.
func (b *Builder) Script(span lexer.Span, functions []*Function, main *Function) *Script {
	return add(b, &Script{node: b.base(span), Functions: functions, Main: main, Arena: b.arena})
}

// Function builds a function declaration.
func (b *Builder) Function(span lexer.Span, returnType, name string, params []*Param, body *Block, autoReturn bool) *Function {
	return add(b, &Function{
		node:       b.base(span),
		ReturnType: returnType,
		Name:       name,
		Params:     params,
		Body:       body,
		AutoReturn: autoReturn,
	})
}

func (b *Builder) Block(span lexer.Span, stmts ...Stmt) *Block {
	return add(b, &Block{node: b.base(span), Stmts: stmts})
}

func (b *Builder) If(span lexer.Span, cond Expr, then *Block) *If {
	return add(b, &If{node: b.base(span), Condition: cond, Then: then})
}

func (b *Builder) IfElse(span lexer.Span, cond Expr, then, els *Block) *IfElse {
	return add(b, &IfElse{node: b.base(span), Condition: cond, Then: then, Else: els})
}

func (b *Builder) While(span lexer.Span, cond Expr, body *Block) *While {
	return add(b, &While{node: b.base(span), Condition: cond, Body: body})
}

func (b *Builder) DoWhile(span lexer.Span, body *Block, cond Expr) *DoWhile {
	return add(b, &DoWhile{node: b.base(span), Body: body, Condition: cond})
}

func (b *Builder) For(span lexer.Span, init Node, cond, update Expr, body *Block) *For {
	return add(b, &For{node: b.base(span), Init: init, Condition: cond, Update: update, Body: body})
}

func (b *Builder) Break(span lexer.Span) *Break {
	return add(b, &Break{node: b.base(span)})
}

func (b *Builder) Continue(span lexer.Span) *Continue {
	return add(b, &Continue{node: b.base(span)})
}

// Return builds a return statement; value may be nil.
func (b *Builder) Return(span lexer.Span, value Expr) *Return {
	return add(b, &Return{node: b.base(span), Value: value})
}

func (b *Builder) Throw(span lexer.Span, value Expr) *Throw {
	return add(b, &Throw{node: b.base(span), Value: value})
}

func (b *Builder) Try(span lexer.Span, body *Block, catches ...*Catch) *Try {
	return add(b, &Try{node: b.base(span), Body: body, Catches: catches})
}

func (b *Builder) Catch(span lexer.Span, typeName, name string, body *Block) *Catch {
	return add(b, &Catch{node: b.base(span), TypeName: typeName, Name: name, Body: body})
}

func (b *Builder) Declaration(span lexer.Span, typeName string, declarators ...*Declarator) *Declaration {
	return add(b, &Declaration{node: b.base(span), TypeName: typeName, Declarators: declarators})
}

func (b *Builder) Declarator(span lexer.Span, name string, value Expr) *Declarator {
	return add(b, &Declarator{node: b.base(span), Name: name, Value: value})
}

func (b *Builder) ExpressionStatement(span lexer.Span, expr Expr) *ExpressionStatement {
	return add(b, &ExpressionStatement{node: b.base(span), Expr: expr})
}

func (b *Builder) Numeric(span lexer.Span, text string) *Numeric {
	return add(b, &Numeric{node: b.base(span), Text: text})
}

func (b *Builder) Decimal(span lexer.Span, text string) *Decimal {
	return add(b, &Decimal{node: b.base(span), Text: text})
}

func (b *Builder) StringLit(span lexer.Span, value string) *String {
	return add(b, &String{node: b.base(span), Value: value})
}

func (b *Builder) Boolean(span lexer.Span, value bool) *Boolean {
	return add(b, &Boolean{node: b.base(span), Value: value})
}

func (b *Builder) Null(span lexer.Span) *Null {
	return add(b, &Null{node: b.base(span)})
}

func (b *Builder) Symbol(span lexer.Span, name string) *Symbol {
	return add(b, &Symbol{node: b.base(span), Name: name})
}

func (b *Builder) Assignment(span lexer.Span, target, value Expr) *Assignment {
	return add(b, &Assignment{node: b.base(span), Target: target, Value: value})
}

func (b *Builder) Binary(span lexer.Span, op Operation, left, right Expr) *Binary {
	return add(b, &Binary{node: b.base(span), Op: op, Left: left, Right: right})
}

func (b *Builder) Comparison(span lexer.Span, op Operation, left, right Expr) *Comparison {
	return add(b, &Comparison{node: b.base(span), Op: op, Left: left, Right: right})
}

func (b *Builder) BooleanComp(span lexer.Span, op Operation, left, right Expr) *BooleanComp {
	return add(b, &BooleanComp{node: b.base(span), Op: op, Left: left, Right: right})
}

func (b *Builder) Unary(span lexer.Span, op Operation, operand Expr) *Unary {
	return add(b, &Unary{node: b.base(span), Op: op, Operand: operand})
}

func (b *Builder) Explicit(span lexer.Span, typeName string, value Expr) *Explicit {
	return add(b, &Explicit{node: b.base(span), TypeName: typeName, Value: value})
}

func (b *Builder) Call(span lexer.Span, name string, args ...Expr) *Call {
	return add(b, &Call{node: b.base(span), Name: name, Args: args})
}
