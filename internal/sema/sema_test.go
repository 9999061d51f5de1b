package sema

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/lexer"
	"github.com/quill-lang/quill/internal/parser"
	"github.com/quill-lang/quill/internal/types"
)

func newLookup(t testing.TB) *types.Lookup {
	t.Helper()
	l, err := types.NewLookup()
	require.NoError(t, err)
	return l
}

// analyzeSource parses and analyzes src. Parse errors fail the test.
func analyzeSource(t *testing.T, src string) (*ast.Script, *Store, error) {
	t.Helper()

	lookup := newLookup(t)
	script, diags := parser.Parse(src, parser.WithTypeNames(lookup.IsTypeName))
	require.Empty(t, diags, "source must parse")

	store, err := AnalyzeScript(script, lookup)
	return script, store, err
}

// analyzeFunction wraps body in a function returning returnType with the
// given parameter list and analyzes it.
func analyzeFunction(t *testing.T, returnType, params, body string) (*ast.Function, *Store, error) {
	t.Helper()

	script, store, err := analyzeSource(t, fmt.Sprintf("%s f(%s) {\n%s\n}", returnType, params, body))
	require.Len(t, script.Functions, 1)
	return script.Functions[0], store, err
}

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()

	require.Error(t, err)
	var semaErr *Error
	require.True(t, errors.As(err, &semaErr), "expected *sema.Error, got %T: %v", err, err)
	require.Equal(t, kind, semaErr.Kind, semaErr.Message)
	return semaErr
}

func escapesOf(store *Store, n ast.Node) Escapes {
	return store.Escapes(n.ID())
}

func spanAt(line, column int) lexer.Span {
	return lexer.Span{Line: line, Column: column, Start: column - 1, End: column}
}

var allEscapes = Escapes{Method: true, Loop: true, All: true}

func TestConcreteScenarios(t *testing.T) {
	t.Run("int function returning 5", func(t *testing.T) {
		fn, store, err := analyzeFunction(t, "int", "", "return 5;")
		require.NoError(t, err)

		ret := fn.Body.Stmts[0].(*ast.Return)
		target, ok := store.TargetTypeOf(ret.Value.ID())
		require.True(t, ok)
		assert.Same(t, types.Int, target)
		assert.Equal(t, allEscapes, escapesOf(store, ret))
	})

	t.Run("void function with bare return", func(t *testing.T) {
		fn, store, err := analyzeFunction(t, "void", "", "return;")
		require.NoError(t, err)
		assert.Equal(t, allEscapes, escapesOf(store, fn.Body.Stmts[0]))
	})

	t.Run("void function returning 1", func(t *testing.T) {
		_, _, err := analyzeFunction(t, "void", "", "return 1;")
		semaErr := requireKind(t, err, TypeMismatch)
		assert.Equal(t, "void", semaErr.Expected)
		assert.Equal(t, "int", semaErr.Actual)
	})

	t.Run("String function returning 5", func(t *testing.T) {
		_, _, err := analyzeFunction(t, "String", "", "return 5;")
		semaErr := requireKind(t, err, TypeMismatch)
		assert.Equal(t, "String", semaErr.Expected)
		assert.Equal(t, "int", semaErr.Actual)
		assert.Equal(t, "Cannot cast from [int] to [String].", semaErr.Message)
	})

	t.Run("statement after return is unreachable", func(t *testing.T) {
		fn, store, err := analyzeFunction(t, "int", "", `return 1; print("x");`)
		require.NoError(t, err)

		ret, call := fn.Body.Stmts[0], fn.Body.Stmts[1]
		assert.True(t, escapesOf(store, ret).All)
		assert.False(t, store.Condition(ret.ID(), Unreachable))
		assert.True(t, store.Condition(call.ID(), Unreachable))
		assert.True(t, store.Analyzed(call.ID()), "unreachable statements are still analyzed")
		assert.True(t, escapesOf(store, fn.Body).Method)
	})
}

func TestBareReturnInNonVoidFunction(t *testing.T) {
	lookup := newLookup(t)
	store := NewStore()
	scope := NewScope(lookup, store, types.Long)

	b := ast.NewBuilder()
	ret := b.Return(spanAt(3, 5), nil)

	semaErr := requireKind(t, AnalyzeStatement(scope, ret), TypeMismatch)
	assert.Equal(t, "long", semaErr.Expected)
	assert.Equal(t, "void", semaErr.Actual)
	assert.Equal(t, "Cannot cast from [long] to [void].", semaErr.Message)
	assert.Equal(t, 3, semaErr.Location.Line)
	assert.Equal(t, 5, semaErr.Location.Column)

	assert.Empty(t, store.Conditions(ret.ID()))
	assert.False(t, store.Analyzed(ret.ID()))
	assert.Panics(t, func() { store.Escapes(ret.ID()) })
}

func TestReturnMarksExpressionContext(t *testing.T) {
	lookup := newLookup(t)
	store := NewStore()
	scope := NewScope(lookup, store, types.Object)

	b := ast.NewBuilder()
	value := b.Numeric(spanAt(1, 8), "5")
	ret := b.Return(spanAt(1, 1), value)

	require.NoError(t, AnalyzeStatement(scope, ret))

	assert.Equal(t, []Condition{Read, Internal}, store.Conditions(value.ID()))
	target, _ := store.TargetTypeOf(value.ID())
	assert.Same(t, types.Object, target)

	// int reaches Object only through the boxing Internal permits.
	cast, ok := store.CastOf(value.ID())
	require.True(t, ok)
	assert.Equal(t, types.CastBox, cast.Kind)
	assert.Equal(t, []Condition{MethodEscape, LoopEscape, AllEscape}, store.Conditions(ret.ID()))
}

func TestReturnInsertsWideningCast(t *testing.T) {
	fn, store, err := analyzeFunction(t, "double", "int a", "return a;")
	require.NoError(t, err)

	value := fn.Body.Stmts[0].(*ast.Return).Value
	actual, _ := store.ValueTypeOf(value.ID())
	assert.Same(t, types.Int, actual)

	cast, ok := store.CastOf(value.ID())
	require.True(t, ok)
	assert.Equal(t, types.CastNumeric, cast.Kind)
	assert.Same(t, types.Double, cast.To)
}

func TestEscapePropagation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		stmt    int
		escapes Escapes
		breaks  bool
	}{
		{name: "if else both return", body: "if (c) { return 1; } else { return 2; }", escapes: allEscapes},
		{name: "if else one returns", body: "if (c) { return 1; } else { c = false; } return 0;"},
		{name: "if alone never escapes", body: "if (c) { return 1; } return 0;"},
		{name: "continuous while", body: "while (true) { c = false; }", escapes: Escapes{Method: true, All: true}},
		{name: "continuous for", body: "for (;;) { c = false; }", escapes: Escapes{Method: true, All: true}},
		{name: "while with break", body: "while (true) { break; } return 0;"},
		{name: "conditional while", body: "while (c) { return 1; } return 0;"},
		{name: "do while returning body", body: "do { return 1; } while (c);", escapes: Escapes{Method: true, All: true}},
		{name: "do while with continue", body: "do { if (c) { continue; } return 1; } while (c); return 0;"},
		{name: "try and catch return", body: "try { return 1; } catch (Exception e) { return 2; }", escapes: allEscapes},
		{name: "throw", body: "Exception e = null; throw e;", stmt: 1, escapes: allEscapes},
		{name: "try with silent catch", body: "try { return 1; } catch (Exception e) { } return 0;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, store, err := analyzeFunction(t, "int", "boolean c", tt.body)
			require.NoError(t, err)

			stmt := fn.Body.Stmts[tt.stmt]
			assert.Equal(t, tt.escapes, escapesOf(store, stmt))
		})
	}
}

func TestLoopEscapeStopsAtLoop(t *testing.T) {
	fn, store, err := analyzeFunction(t, "void", "boolean c", "while (c) { if (c) { break; } c = false; }")
	require.NoError(t, err)

	loop := fn.Body.Stmts[0].(*ast.While)
	assert.True(t, store.Condition(loop.Body.ID(), AnyBreak))
	assert.False(t, store.Condition(loop.ID(), AnyBreak))
	assert.False(t, store.Condition(loop.ID(), LoopEscape))
	assert.Equal(t, Escapes{}, escapesOf(store, loop))

	brk := loop.Body.Stmts[0].(*ast.If).Then.Stmts[0]
	assert.Equal(t, Escapes{Loop: true, All: true}, escapesOf(store, brk))
	assert.True(t, store.Condition(brk.ID(), InLoop))
}

func TestLoopBodyConditions(t *testing.T) {
	fn, store, err := analyzeFunction(t, "void", "", "for (int i = 0; i < 3; i = i + 1) { print(i); }")
	require.NoError(t, err)

	loop := fn.Body.Stmts[0].(*ast.For)
	for _, c := range []Condition{BeginLoop, InLoop, LastLoop} {
		assert.True(t, store.Condition(loop.Body.ID(), c), c.String())
	}
	assert.False(t, store.Condition(loop.ID(), Continuous))
	assert.True(t, store.Condition(loop.Body.Stmts[0].ID(), LastLoop))
}

func TestMissingReturn(t *testing.T) {
	for _, body := range []string{
		"",
		"if (c) { return 1; }",
		"while (true) { break; }",
		"for (;;) { if (c) { break; } }",
		"do { if (c) { continue; } return 1; } while (c);",
		"try { return 1; } catch (Exception e) { }",
		"print(1)",
	} {
		t.Run(body, func(t *testing.T) {
			_, _, err := analyzeFunction(t, "int", "boolean c", body)
			requireKind(t, err, MissingReturn)
		})
	}
}

func TestImplicitReturn(t *testing.T) {
	fn, store, err := analyzeFunction(t, "long", "int a", "a + 1")
	require.NoError(t, err)

	stmt := fn.Body.Stmts[0].(*ast.ExpressionStatement)
	assert.Equal(t, allEscapes, escapesOf(store, stmt))

	assert.True(t, store.Condition(stmt.Expr.ID(), Internal))
	target, _ := store.TargetTypeOf(stmt.Expr.ID())
	assert.Same(t, types.Long, target)
	cast, ok := store.CastOf(stmt.Expr.ID())
	require.True(t, ok)
	assert.Equal(t, types.CastNumeric, cast.Kind)

	_, _, err = analyzeFunction(t, "int", "", `"s"`)
	requireKind(t, err, TypeMismatch)
}

func TestMainBodyAutoReturns(t *testing.T) {
	script, store, err := analyzeSource(t, "int x = 1;")
	require.NoError(t, err)

	assert.True(t, store.Analyzed(script.Main.ID()))
	rt, ok := store.Decoration(script.Main.ID(), KindReturnType)
	require.True(t, ok)
	assert.Same(t, types.Def, rt.(ReturnTypeDecoration).Type)

	script, store, err = analyzeSource(t, "int x = 1; x + 1")
	require.NoError(t, err)
	last := script.Main.Body.Stmts[1]
	assert.Equal(t, allEscapes, escapesOf(store, last))
	cast, _ := store.CastOf(last.(*ast.ExpressionStatement).Expr.ID())
	assert.Equal(t, types.CastToDef, cast.Kind)
}

func TestStatementErrors(t *testing.T) {
	tests := []struct {
		name string
		ret  string
		body string
		kind Kind
	}{
		{name: "break outside loop", ret: "void", body: "break;", kind: InvalidBreak},
		{name: "continue outside loop", ret: "void", body: "continue;", kind: InvalidContinue},
		{name: "trailing continue", ret: "void", body: "while (true) { continue; }", kind: Extraneous},
		{name: "trailing continue in if", ret: "void", body: "while (true) { if (true) { continue; } }", kind: Extraneous},
		{name: "duplicate variable", ret: "void", body: "int a = 1; int a = 2;", kind: DuplicateSymbol},
		{name: "shadowed variable", ret: "void", body: "int a = 1; { int a = 2; }", kind: DuplicateSymbol},
		{name: "shadowed parameter", ret: "void", body: "int p = 1;", kind: DuplicateSymbol},
		{name: "undefined variable", ret: "int", body: "return y;", kind: UndefinedSymbol},
		{name: "unknown type", ret: "void", body: "Widget w = null;", kind: UndefinedSymbol},
		{name: "unknown call", ret: "void", body: "nope(1);", kind: UndefinedSymbol},
		{name: "pure expression", ret: "void", body: "5;", kind: NotAStatement},
		{name: "pure for update", ret: "void", body: "for (int i = 0; i < 1; i) { print(i); }", kind: NotAStatement},
		{name: "assign to literal", ret: "void", body: "5 = 3;", kind: InvalidAssignment},
		{name: "catch non exception", ret: "void", body: "try { print(1); } catch (String s) { }", kind: TypeMismatch},
		{name: "non boolean condition", ret: "void", body: "if (1) { print(1); }", kind: TypeMismatch},
		{name: "throw non exception", ret: "void", body: `throw "x";`, kind: TypeMismatch},
		{name: "invalid int constant", ret: "void", body: "long l = 99999999999;", kind: InvalidConstant},
		{name: "int constant below range", ret: "void", body: "int i = -2147483649;", kind: InvalidConstant},
		{name: "long constant below range", ret: "void", body: "long l = -9223372036854775809L;", kind: InvalidConstant},
		{name: "void call returned", ret: "void", body: "return print(1);", kind: TypeMismatch},
		{name: "void call returned as value", ret: "int", body: "return print(1);", kind: TypeMismatch},
		{name: "void call initializer", ret: "void", body: "def d = print(1);", kind: TypeMismatch},
		{name: "void call operand", ret: "void", body: "int i = 1 + print(1);", kind: TypeMismatch},
		{name: "void call argument", ret: "void", body: "print(print(1));", kind: TypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := analyzeFunction(t, tt.ret, "int p", tt.body)
			requireKind(t, err, tt.kind)
		})
	}
}

func TestVoidValueCannotBeReturned(t *testing.T) {
	lookup := newLookup(t)
	store := NewStore()
	scope := NewScope(lookup, store, types.Void)

	b := ast.NewBuilder()
	call := b.Call(spanAt(2, 10), "print", b.Numeric(spanAt(2, 16), "1"))
	ret := b.Return(spanAt(2, 3), call)

	semaErr := requireKind(t, AnalyzeStatement(scope, ret), TypeMismatch)
	assert.Equal(t, "Expression of type [void] does not produce a value.", semaErr.Message)
	assert.Equal(t, "void", semaErr.Expected)
	assert.Equal(t, "void", semaErr.Actual)
	assert.Equal(t, 10, semaErr.Location.Column)
	for _, c := range []Condition{MethodEscape, LoopEscape, AllEscape} {
		assert.False(t, store.Condition(ret.ID(), c), c.String())
	}
}

func TestTrailingVoidCallIsAStatement(t *testing.T) {
	script, store, err := analyzeSource(t, "int x = 1;\nprint(x)")
	require.NoError(t, err)

	last := script.Main.Body.Stmts[1].(*ast.ExpressionStatement)
	assert.False(t, store.Condition(last.Expr.ID(), Read))
	assert.False(t, escapesOf(store, last).Method)

	script, store, err = analyzeSource(t, "max(1, 2)")
	require.NoError(t, err)
	last = script.Main.Body.Stmts[0].(*ast.ExpressionStatement)
	assert.True(t, store.Condition(last.Expr.ID(), Read))
	assert.Equal(t, allEscapes, escapesOf(store, last))
}

func TestSignedConstants(t *testing.T) {
	tests := []struct {
		name  string
		decl  string
		value string
		typ   *types.Type
	}{
		{name: "smallest int", decl: "int v = -2147483648;", typ: types.Int},
		{name: "smallest long", decl: "long v = -9223372036854775808L;", typ: types.Long},
		{name: "negative byte", decl: "byte v = -128;", typ: types.Byte},
		{name: "negative short", decl: "short v = -1;", typ: types.Short},
		{name: "negative hex", decl: "int v = -0x10;", typ: types.Int},
		{name: "negative double", decl: "double v = -1.5e3;", typ: types.Double},
		{name: "negative float", decl: "float v = -2.5f;", typ: types.Float},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, store, err := analyzeFunction(t, "void", "", tt.decl)
			require.NoError(t, err)

			value := fn.Body.Stmts[0].(*ast.Declaration).Declarators[0].Value
			typ, ok := store.ValueTypeOf(value.ID())
			require.True(t, ok)
			assert.Same(t, tt.typ, typ)
			_, cast := store.CastOf(value.ID())
			assert.False(t, cast, "constant already has the declared type")
		})
	}

	t.Run("byte below range", func(t *testing.T) {
		_, _, err := analyzeFunction(t, "void", "", "byte v = -129;")
		requireKind(t, err, TypeMismatch)
	})

	t.Run("returned smallest int", func(t *testing.T) {
		_, _, err := analyzeFunction(t, "int", "", "return -2147483648;")
		require.NoError(t, err)
	})
}

func TestSiblingBlocksMayReuseNames(t *testing.T) {
	_, _, err := analyzeFunction(t, "void", "", "{ int a = 1; } { int a = 2; }")
	require.NoError(t, err)
}

func TestExpressionTyping(t *testing.T) {
	tests := []struct {
		name string
		decl string
		ok   bool
	}{
		{name: "concatenation", decl: `String s = "a" + 1;`, ok: true},
		{name: "promotion to double", decl: "double d = 1 + 2.5;", ok: true},
		{name: "long into int", decl: "int i = 1 + 2L;"},
		{name: "comparison", decl: "boolean b = 1 < 2.0f;", ok: true},
		{name: "ordering strings", decl: `boolean b = "a" < "b";`},
		{name: "reference equality", decl: `boolean b = "a" == null;`, ok: true},
		{name: "explicit narrowing", decl: "int i = (int) 2.5;", ok: true},
		{name: "implicit narrowing", decl: "int i = 2.5;"},
		{name: "null reference", decl: "String s = null;", ok: true},
		{name: "null primitive", decl: "int i = null;"},
		{name: "implicit boxing", decl: "Integer i = 5;"},
		{name: "explicit boxing", decl: "Integer i = (Integer) 5;", ok: true},
		{name: "def round trip", decl: "def d = 5; int i = d;", ok: true},
		{name: "constant narrowing", decl: "byte b = 5; char c = 65;", ok: true},
		{name: "constant too wide", decl: "byte b = 300;"},
		{name: "downcast", decl: "Object o = \"s\"; String s = o;"},
		{name: "explicit downcast", decl: "Object o = \"s\"; String s = (String) o;", ok: true},
		{name: "boolean operators", decl: "boolean b = !(1 < 2) && true || false;", ok: true},
		{name: "boolean operand", decl: "boolean b = 1 && true;"},
		{name: "negation", decl: "long l = -5L; double d = -2.5; int i = +(byte) 3;", ok: true},
		{name: "unary on string", decl: `int i = -"s";`},
		{name: "assignment value", decl: "int a; int b = a = 3;", ok: true},
		{name: "builtin call", decl: "int m = max(1, 2); String s = str(m);", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := analyzeFunction(t, "void", "", tt.decl)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			requireKind(t, err, TypeMismatch)
		})
	}
}

func TestCallsResolveUserFunctions(t *testing.T) {
	script, store, err := analyzeSource(t, `
int twice(int a) { return a * 2; }
long quad(int a) { return twice(twice(a)); }
quad(3)
`)
	require.NoError(t, err)

	ret := script.Functions[1].Body.Stmts[0].(*ast.Return)
	call := ret.Value.(*ast.Call)
	d, ok := store.Decoration(call.ID(), KindFunction)
	require.True(t, ok)
	fn := d.(FunctionDecoration).Function
	assert.Same(t, script.Functions[0], fn.Node)
	assert.False(t, fn.IsBuiltin())

	arg := call.Args[0]
	target, _ := store.TargetTypeOf(arg.ID())
	assert.Same(t, types.Int, target)
	assert.True(t, store.Condition(arg.ID(), Internal))
}

func TestDuplicateFunction(t *testing.T) {
	_, _, err := analyzeSource(t, "int f(int a) { return a; } int f(int b) { return b; }")
	requireKind(t, err, DuplicateSymbol)

	_, _, err = analyzeSource(t, "int f(int a) { return a; } int f() { return 0; }")
	require.NoError(t, err, "overloads differ by arity")
}

func TestVariablesAreBound(t *testing.T) {
	fn, store, err := analyzeFunction(t, "int", "", "int a = 1; a = a + 1; return a;")
	require.NoError(t, err)

	decl := fn.Body.Stmts[0].(*ast.Declaration).Declarators[0]
	d, ok := store.Decoration(decl.ID(), KindVariable)
	require.True(t, ok)
	v := d.(VariableDecoration).Variable

	assign := fn.Body.Stmts[1].(*ast.ExpressionStatement).Expr.(*ast.Assignment)
	assert.True(t, store.Condition(assign.Target.ID(), Write))
	d, ok = store.Decoration(assign.Target.ID(), KindVariable)
	require.True(t, ok)
	assert.Same(t, v, d.(VariableDecoration).Variable)
	vt, _ := store.ValueTypeOf(assign.ID())
	assert.Same(t, types.Void, vt, "an assignment used as a statement has no value")
}

func TestErrorToDiagnostic(t *testing.T) {
	_, _, err := analyzeFunction(t, "String", "", "return 5;")
	semaErr := requireKind(t, err, TypeMismatch)

	d := semaErr.ToDiagnostic()
	assert.Equal(t, "TYPE_MISMATCH", string(d.Code))
	assert.Equal(t, semaErr.Message, d.Message)
	assert.Equal(t, semaErr.Location.Line, d.Span.Line)
	require.Len(t, d.Notes, 1)
	assert.Contains(t, d.Notes[0], "expected [String], found [int]")
	assert.Contains(t, semaErr.Error(), "Cannot cast from [int] to [String].")
}

func TestOperatorErrorPointsAtOperands(t *testing.T) {
	_, _, err := analyzeFunction(t, "void", "", `boolean b = "a" < 1;`)
	semaErr := requireKind(t, err, TypeMismatch)
	assert.Equal(t, "Cannot apply [<] to types [String] and [int].", semaErr.Message)
	require.Len(t, semaErr.Labels, 2)
	assert.Equal(t, "this is [String]", semaErr.Labels[0].Text)
	assert.Equal(t, 13, semaErr.Labels[0].Span.Column)
	assert.Equal(t, "this is [int]", semaErr.Labels[1].Text)
	assert.Equal(t, 19, semaErr.Labels[1].Span.Column)

	d := semaErr.ToDiagnostic()
	require.Len(t, d.LabeledSpans, 3)
	assert.Equal(t, "primary", d.LabeledSpans[0].Style)
	for i, label := range semaErr.Labels {
		related := d.LabeledSpans[i+1]
		assert.Equal(t, "secondary", related.Style)
		assert.Equal(t, label.Text, related.Label)
		assert.Equal(t, label.Span.Column, related.Span.Column)
	}

	_, _, err = analyzeFunction(t, "void", "", `int i = -"s";`)
	semaErr = requireKind(t, err, TypeMismatch)
	require.Len(t, semaErr.Labels, 1)
	assert.Equal(t, "this is [String]", semaErr.Labels[0].Text)
}
