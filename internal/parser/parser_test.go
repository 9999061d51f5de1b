package parser_test

import (
	"strings"
	"testing"

	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/parser"
)

func parseScript(t *testing.T, src string, opts ...parser.Option) (*ast.Script, []parser.ParseError) {
	t.Helper()

	p := parser.New(src, opts...)
	script := p.ParseScript()

	return script, p.Errors()
}

func assertNoErrors(t *testing.T, errs []parser.ParseError) {
	t.Helper()

	if len(errs) == 0 {
		return
	}

	for _, err := range errs {
		t.Errorf("unexpected parse error: %s", err.Message)
	}
	t.Fatalf("parser reported %d error(s)", len(errs))
}

func mainStmts(t *testing.T, script *ast.Script) []ast.Stmt {
	t.Helper()

	if script == nil || script.Main == nil || script.Main.Body == nil {
		t.Fatalf("script has no main body")
	}
	return script.Main.Body.Stmts
}

func TestParseMainBodyDefaults(t *testing.T) {
	script, errs := parseScript(t, `return 5;`)
	assertNoErrors(t, errs)

	if script.Main.Name != parser.MainFunctionName {
		t.Fatalf("expected main name %q, got %q", parser.MainFunctionName, script.Main.Name)
	}
	if script.Main.ReturnType != "def" || !script.Main.AutoReturn {
		t.Fatalf("expected def auto-returning main, got %q auto=%v", script.Main.ReturnType, script.Main.AutoReturn)
	}

	stmts := mainStmts(t, script)
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	ret, ok := stmts[0].(*ast.Return)
	if !ok {
		t.Fatalf("expected *ast.Return, got %T", stmts[0])
	}
	num, ok := ret.Value.(*ast.Numeric)
	if !ok || num.Text != "5" {
		t.Fatalf("expected numeric 5, got %#v", ret.Value)
	}
	if ret.Span().Line != 1 || ret.Span().Column != 1 {
		t.Fatalf("unexpected return span %v", ret.Span())
	}
	if script.Arena.Len() == 0 || script.Arena.Node(ret.ID()) != ret {
		t.Fatalf("return is not registered in the arena")
	}
}

func TestParseMainOptions(t *testing.T) {
	script, errs := parseScript(t, `x = 1;`, parser.WithMainReturnType("void"), parser.WithAutoReturn(false), parser.WithFilename("s.quill"))
	assertNoErrors(t, errs)

	if script.Main.ReturnType != "void" || script.Main.AutoReturn {
		t.Fatalf("options not applied: %q auto=%v", script.Main.ReturnType, script.Main.AutoReturn)
	}
	if got := mainStmts(t, script)[0].Span().Filename; got != "s.quill" {
		t.Fatalf("expected filename s.quill, got %q", got)
	}
}

func TestParseFunctionDecl(t *testing.T) {
	const src = `
int add(int a, long b) {
	return a + b;
}
void nothing() {}
add(1, 2);
`

	script, errs := parseScript(t, src)
	assertNoErrors(t, errs)

	if len(script.Functions) != 2 {
		t.Fatalf("expected 2 functions, got %d", len(script.Functions))
	}

	add := script.Functions[0]
	if add.Name != "add" || add.ReturnType != "int" || add.AutoReturn {
		t.Fatalf("unexpected function header %q %q auto=%v", add.ReturnType, add.Name, add.AutoReturn)
	}
	if len(add.Params) != 2 || add.Params[1].TypeName != "long" || add.Params[1].Name != "b" {
		t.Fatalf("unexpected params %#v", add.Params)
	}

	if n := len(script.Functions[1].Params); n != 0 {
		t.Fatalf("expected no params, got %d", n)
	}

	stmt, ok := mainStmts(t, script)[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected expression statement in main")
	}
	call, ok := stmt.Expr.(*ast.Call)
	if !ok || call.Name != "add" || len(call.Args) != 2 {
		t.Fatalf("expected call add/2, got %#v", stmt.Expr)
	}
}

func TestParseDeclarations(t *testing.T) {
	script, errs := parseScript(t, `int x = 1, y, z = x;`)
	assertNoErrors(t, errs)

	decl, ok := mainStmts(t, script)[0].(*ast.Declaration)
	if !ok {
		t.Fatalf("expected *ast.Declaration")
	}
	if decl.TypeName != "int" || len(decl.Declarators) != 3 {
		t.Fatalf("unexpected declaration %#v", decl)
	}
	if decl.Declarators[1].Name != "y" || decl.Declarators[1].Value != nil {
		t.Fatalf("expected bare declarator y, got %#v", decl.Declarators[1])
	}
	if _, ok := decl.Declarators[2].Value.(*ast.Symbol); !ok {
		t.Fatalf("expected symbol initializer, got %T", decl.Declarators[2].Value)
	}
}

func TestParsePrecedence(t *testing.T) {
	script, errs := parseScript(t, `x = a + b * c == d || !e && f;`)
	assertNoErrors(t, errs)

	assign, ok := mainStmts(t, script)[0].(*ast.ExpressionStatement).Expr.(*ast.Assignment)
	if !ok {
		t.Fatalf("expected assignment at the root")
	}
	or, ok := assign.Value.(*ast.BooleanComp)
	if !ok || or.Op != ast.OpOr {
		t.Fatalf("expected || below assignment, got %#v", assign.Value)
	}
	eq, ok := or.Left.(*ast.Comparison)
	if !ok || eq.Op != ast.OpEq {
		t.Fatalf("expected == on the left of ||, got %#v", or.Left)
	}
	sum, ok := eq.Left.(*ast.Binary)
	if !ok || sum.Op != ast.OpAdd {
		t.Fatalf("expected + on the left of ==, got %#v", eq.Left)
	}
	if mul, ok := sum.Right.(*ast.Binary); !ok || mul.Op != ast.OpMul {
		t.Fatalf("expected * on the right of +, got %#v", sum.Right)
	}
	and, ok := or.Right.(*ast.BooleanComp)
	if !ok || and.Op != ast.OpAnd {
		t.Fatalf("expected && on the right of ||, got %#v", or.Right)
	}
	if not, ok := and.Left.(*ast.Unary); !ok || not.Op != ast.OpNot {
		t.Fatalf("expected ! operand, got %#v", and.Left)
	}
}

func TestParseAssignmentIsRightAssociative(t *testing.T) {
	script, errs := parseScript(t, `a = b = 1;`)
	assertNoErrors(t, errs)

	outer := mainStmts(t, script)[0].(*ast.ExpressionStatement).Expr.(*ast.Assignment)
	if _, ok := outer.Value.(*ast.Assignment); !ok {
		t.Fatalf("expected nested assignment, got %T", outer.Value)
	}
}

func TestParseCastAndGrouping(t *testing.T) {
	script, errs := parseScript(t, `
a = (int) b;
c = (d) + 1;
e = (int) -f;
`, parser.WithTypeNames(func(name string) bool { return name == "int" }))
	assertNoErrors(t, errs)

	stmts := mainStmts(t, script)
	value := func(i int) ast.Expr {
		return stmts[i].(*ast.ExpressionStatement).Expr.(*ast.Assignment).Value
	}

	if cast, ok := value(0).(*ast.Explicit); !ok || cast.TypeName != "int" {
		t.Fatalf("expected cast to int, got %#v", value(0))
	}
	if sum, ok := value(1).(*ast.Binary); !ok || sum.Op != ast.OpAdd {
		t.Fatalf("expected grouped addition, got %#v", value(1))
	}
	cast, ok := value(2).(*ast.Explicit)
	if !ok {
		t.Fatalf("expected cast of negation, got %#v", value(2))
	}
	if neg, ok := cast.Value.(*ast.Unary); !ok || neg.Op != ast.OpNeg {
		t.Fatalf("expected negation operand, got %#v", cast.Value)
	}
}

func TestParseFoldsNegativeLiterals(t *testing.T) {
	script, errs := parseScript(t, `
a = -2147483648;
b = -1.5f;
c = 3 - 4;
d = -x;
e = - -7L;
`)
	assertNoErrors(t, errs)

	stmts := mainStmts(t, script)
	value := func(i int) ast.Expr {
		return stmts[i].(*ast.ExpressionStatement).Expr.(*ast.Assignment).Value
	}

	if n, ok := value(0).(*ast.Numeric); !ok || n.Text != "-2147483648" {
		t.Fatalf("expected signed int literal, got %#v", value(0))
	}
	if n, ok := value(0).(*ast.Numeric); ok && (n.Span().Start != 5 || n.Span().End != 16) {
		t.Fatalf("signed literal must span the minus, got %+v", n.Span())
	}
	if d, ok := value(1).(*ast.Decimal); !ok || d.Text != "-1.5f" {
		t.Fatalf("expected signed decimal literal, got %#v", value(1))
	}
	if sub, ok := value(2).(*ast.Binary); !ok || sub.Op != ast.OpSub {
		t.Fatalf("expected subtraction, got %#v", value(2))
	}
	if neg, ok := value(3).(*ast.Unary); !ok || neg.Op != ast.OpNeg {
		t.Fatalf("expected negation of a variable, got %#v", value(3))
	}
	outer, ok := value(4).(*ast.Unary)
	if !ok || outer.Op != ast.OpNeg {
		t.Fatalf("expected negation, got %#v", value(4))
	}
	if n, ok := outer.Operand.(*ast.Numeric); !ok || n.Text != "-7L" {
		t.Fatalf("expected folded inner literal, got %#v", outer.Operand)
	}
}

func TestParseControlFlow(t *testing.T) {
	const src = `
if (a) b(); else if (c) { d(); } else e();
while (true) { break; }
do { continue; } while (x < 3);
for (int i = 0; i < 10; i = i + 1) f(i);
for (;;);
try { throw g(); } catch (Exception ex) { return; } catch (RuntimeException re) {}
`

	script, errs := parseScript(t, src)
	assertNoErrors(t, errs)

	stmts := mainStmts(t, script)
	if len(stmts) != 6 {
		t.Fatalf("expected 6 statements, got %d", len(stmts))
	}

	ifElse, ok := stmts[0].(*ast.IfElse)
	if !ok {
		t.Fatalf("expected *ast.IfElse, got %T", stmts[0])
	}
	if len(ifElse.Then.Stmts) != 1 {
		t.Fatalf("single statement branch must be wrapped in a block")
	}
	if _, ok := ifElse.Else.Stmts[0].(*ast.IfElse); !ok {
		t.Fatalf("expected else-if chain, got %T", ifElse.Else.Stmts[0])
	}

	while := stmts[1].(*ast.While)
	if _, ok := while.Body.Stmts[0].(*ast.Break); !ok {
		t.Fatalf("expected break in while body")
	}

	doWhile := stmts[2].(*ast.DoWhile)
	if _, ok := doWhile.Condition.(*ast.Comparison); !ok {
		t.Fatalf("expected comparison condition, got %T", doWhile.Condition)
	}

	loop := stmts[3].(*ast.For)
	if _, ok := loop.Init.(*ast.Declaration); !ok {
		t.Fatalf("expected declaration initializer, got %T", loop.Init)
	}
	if loop.Condition == nil || loop.Update == nil || loop.Body == nil {
		t.Fatalf("expected all for clauses to be present")
	}

	empty := stmts[4].(*ast.For)
	if empty.Init != nil || empty.Condition != nil || empty.Update != nil || empty.Body != nil {
		t.Fatalf("expected empty for clauses, got %#v", empty)
	}

	try := stmts[5].(*ast.Try)
	if len(try.Catches) != 2 || try.Catches[0].TypeName != "Exception" || try.Catches[1].Name != "re" {
		t.Fatalf("unexpected catches %#v", try.Catches)
	}
}

func TestParseLiterals(t *testing.T) {
	script, errs := parseScript(t, `f(1, 2L, 0x1F, 1.5, 2f, "s", 'c', true, false, null);`)
	assertNoErrors(t, errs)

	call := mainStmts(t, script)[0].(*ast.ExpressionStatement).Expr.(*ast.Call)
	if len(call.Args) != 10 {
		t.Fatalf("expected 10 args, got %d", len(call.Args))
	}

	for i, want := range []string{"1", "2L", "0x1F"} {
		if num, ok := call.Args[i].(*ast.Numeric); !ok || num.Text != want {
			t.Fatalf("arg %d: expected numeric %q, got %#v", i, want, call.Args[i])
		}
	}
	for i, want := range []string{"1.5", "2f"} {
		if dec, ok := call.Args[3+i].(*ast.Decimal); !ok || dec.Text != want {
			t.Fatalf("arg %d: expected decimal %q, got %#v", 3+i, want, call.Args[3+i])
		}
	}
	if s, ok := call.Args[5].(*ast.String); !ok || s.Value != "s" {
		t.Fatalf("expected string literal, got %#v", call.Args[5])
	}
	if b, ok := call.Args[7].(*ast.Boolean); !ok || !b.Value {
		t.Fatalf("expected true, got %#v", call.Args[7])
	}
	if _, ok := call.Args[9].(*ast.Null); !ok {
		t.Fatalf("expected null, got %T", call.Args[9])
	}
}

func TestParseOptionalTrailingSemicolon(t *testing.T) {
	script, errs := parseScript(t, `int x = 1; if (x > 0) { return x } x + 1`)
	assertNoErrors(t, errs)

	if n := len(mainStmts(t, script)); n != 3 {
		t.Fatalf("expected 3 statements, got %d", n)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "missing semicolon", src: `x = 1 y = 2;`, want: "expected ';'"},
		{name: "missing paren", src: `if (x { }`, want: "expected ')'"},
		{name: "missing catch", src: `try { }`, want: "expected 'catch'"},
		{name: "unclosed block", src: `{ x = 1;`, want: "expected '}'"},
		{name: "bad operand", src: `x = * 2;`, want: "expected expression"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := parseScript(t, tt.src)
			if len(errs) == 0 {
				t.Fatalf("expected an error containing %q", tt.want)
			}
			if !strings.Contains(errs[0].Message, tt.want) {
				t.Fatalf("expected first error to contain %q, got %q", tt.want, errs[0].Message)
			}
		})
	}
}

func TestParseCollectsLexerDiagnostics(t *testing.T) {
	_, diags := parser.Parse(`x = "open`)
	if len(diags) == 0 {
		t.Fatalf("expected diagnostics for unterminated string")
	}
	if diags[0].Code != "LEXER_UNTERMINATED_STRING" {
		t.Fatalf("expected lexer diagnostic first, got %s", diags[0].Code)
	}
}
