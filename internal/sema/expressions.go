package sema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/types"
)

// narrowConstant returns the type an int constant takes when its context
// expects a narrower integral type it fits in.
func narrowConstant(value int64, target *types.Type) (*types.Type, bool) {
	if target == nil {
		return nil, false
	}
	switch target.Sort() {
	case types.SortByte:
		return target, value >= math.MinInt8 && value <= math.MaxInt8
	case types.SortShort:
		return target, value >= math.MinInt16 && value <= math.MaxInt16
	case types.SortChar:
		return target, value >= 0 && value <= math.MaxUint16
	}
	return nil, false
}

func (analyzer) VisitNumeric(n *ast.Numeric, scope *Scope) error {
	text := n.Text
	digits := strings.TrimPrefix(text, "-")
	hex := strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X")

	if !hex {
		switch text[len(text)-1] {
		case 'f', 'F', 'd', 'D':
			return analyzeDecimal(scope, n, text)
		}
	}

	if strings.HasSuffix(text, "l") || strings.HasSuffix(text, "L") {
		if _, err := strconv.ParseInt(text[:len(text)-1], 0, 64); err != nil {
			return scope.CreateError(InvalidConstant, n, fmt.Sprintf("Invalid long constant [%s].", text))
		}
		return setValueType(scope, n, types.Long)
	}

	value, err := strconv.ParseInt(text, 0, 64)
	if err != nil || value > math.MaxUint32 || value < math.MinInt32 || (!hex && value > math.MaxInt32) {
		return scope.CreateError(InvalidConstant, n, fmt.Sprintf("Invalid int constant [%s].", text))
	}

	target, _ := scope.Store().TargetTypeOf(n.ID())
	if narrow, ok := narrowConstant(value, target); ok {
		return setValueType(scope, n, narrow)
	}
	return setValueType(scope, n, types.Int)
}

func (analyzer) VisitDecimal(n *ast.Decimal, scope *Scope) error {
	return analyzeDecimal(scope, n, n.Text)
}

func analyzeDecimal(scope *Scope, n ast.Expr, text string) error {
	typ := types.Double
	switch text[len(text)-1] {
	case 'f', 'F':
		typ = types.Float
		text = text[:len(text)-1]
	case 'd', 'D':
		text = text[:len(text)-1]
	}

	bits := 64
	if typ == types.Float {
		bits = 32
	}
	if _, err := strconv.ParseFloat(text, bits); err != nil {
		return scope.CreateError(InvalidConstant, n, fmt.Sprintf("Invalid %s constant [%s].", typ, text))
	}
	return setValueType(scope, n, typ)
}

func (analyzer) VisitString(n *ast.String, scope *Scope) error {
	return setValueType(scope, n, types.String)
}

func (analyzer) VisitBoolean(n *ast.Boolean, scope *Scope) error {
	return setValueType(scope, n, types.Boolean)
}

// VisitNull gives null the reference type its context expects.
func (analyzer) VisitNull(n *ast.Null, scope *Scope) error {
	target, ok := scope.Store().TargetTypeOf(n.ID())
	if !ok {
		return setValueType(scope, n, types.Object)
	}
	if !target.IsReference() && !target.IsDef() {
		err := scope.CreateError(TypeMismatch, n, castMessage("null", scope.Lookup().CanonicalName(target)))
		err.Expected, err.Actual = scope.Lookup().CanonicalName(target), "null"
		return err
	}
	return setValueType(scope, n, target)
}

func (analyzer) VisitSymbol(n *ast.Symbol, scope *Scope) error {
	v, ok := scope.LookupVariable(n.Name)
	if !ok {
		return scope.CreateError(UndefinedSymbol, n, fmt.Sprintf("Variable [%s] is not defined.", n.Name))
	}
	if err := scope.PutDecoration(n, VariableDecoration{Variable: v}); err != nil {
		return err
	}
	return setValueType(scope, n, v.Type)
}

func (analyzer) VisitAssignment(n *ast.Assignment, scope *Scope) error {
	target, ok := n.Target.(*ast.Symbol)
	if !ok {
		return scope.CreateError(InvalidAssignment, n.Target, "Left-hand side cannot be assigned a value.")
	}

	scope.SetCondition(target, Write)
	if err := analyzeExpression(scope, target); err != nil {
		return err
	}
	typ := valueType(scope, target)

	if err := analyzeAs(scope, n.Value, typ); err != nil {
		return err
	}

	if scope.Condition(n, Read) {
		return setValueType(scope, n, typ)
	}
	return setValueType(scope, n, types.Void)
}

// analyzeOperands analyzes both operands of a binary operator as values.
func analyzeOperands(scope *Scope, left, right ast.Expr) (*types.Type, *types.Type, error) {
	for _, operand := range []ast.Expr{left, right} {
		scope.SetCondition(operand, Read)
		if err := analyzeExpression(scope, operand); err != nil {
			return nil, nil, err
		}
	}
	return valueType(scope, left), valueType(scope, right), nil
}

// convertOperands casts already analyzed operands to typ.
func convertOperands(scope *Scope, typ *types.Type, operands ...ast.Expr) error {
	for _, operand := range operands {
		if err := scope.PutDecoration(operand, TargetType{Type: typ}); err != nil {
			return err
		}
		if err := castExpression(scope, operand); err != nil {
			return err
		}
	}
	return nil
}

// operatorError reports operands op cannot combine, pointing at each operand.
func operatorError(scope *Scope, n ast.Node, op ast.Operation, lhs, rhs ast.Expr, left, right *types.Type) *Error {
	l, r := scope.Lookup().CanonicalName(left), scope.Lookup().CanonicalName(right)
	err := scope.CreateError(TypeMismatch, n, fmt.Sprintf("Cannot apply [%s] to types [%s] and [%s].", op, l, r))
	err.Expected, err.Actual = l, r
	err.Labels = []Label{
		{Span: lhs.Span(), Text: fmt.Sprintf("this is [%s]", l)},
		{Span: rhs.Span(), Text: fmt.Sprintf("this is [%s]", r)},
	}
	return err
}

func (analyzer) VisitBinary(n *ast.Binary, scope *Scope) error {
	left, right, err := analyzeOperands(scope, n.Left, n.Right)
	if err != nil {
		return err
	}

	if n.Op == ast.OpAdd && (left == types.String || right == types.String) {
		return setValueType(scope, n, types.String)
	}

	promoted := types.PromoteNumeric(left, right)
	if promoted == nil {
		return operatorError(scope, n, n.Op, n.Left, n.Right, left, right)
	}
	if err := convertOperands(scope, promoted, n.Left, n.Right); err != nil {
		return err
	}
	return setValueType(scope, n, promoted)
}

func (analyzer) VisitComparison(n *ast.Comparison, scope *Scope) error {
	left, right, err := analyzeOperands(scope, n.Left, n.Right)
	if err != nil {
		return err
	}

	equality := n.Op == ast.OpEq || n.Op == ast.OpNe
	switch promoted := types.PromoteNumeric(left, right); {
	case promoted != nil:
		if err := convertOperands(scope, promoted, n.Left, n.Right); err != nil {
			return err
		}
	case !equality:
		return operatorError(scope, n, n.Op, n.Left, n.Right, left, right)
	case left == types.Boolean && right == types.Boolean:
	case !left.IsPrimitive() && !right.IsPrimitive() && !left.IsVoid() && !right.IsVoid():
	case left.IsDef() || right.IsDef():
		if err := convertOperands(scope, types.Def, n.Left, n.Right); err != nil {
			return err
		}
	default:
		return operatorError(scope, n, n.Op, n.Left, n.Right, left, right)
	}
	return setValueType(scope, n, types.Boolean)
}

func (analyzer) VisitBooleanComp(n *ast.BooleanComp, scope *Scope) error {
	for _, operand := range []ast.Expr{n.Left, n.Right} {
		if err := analyzeAs(scope, operand, types.Boolean); err != nil {
			return err
		}
	}
	return setValueType(scope, n, types.Boolean)
}

func (analyzer) VisitUnary(n *ast.Unary, scope *Scope) error {
	if n.Op == ast.OpNot {
		if err := analyzeAs(scope, n.Operand, types.Boolean); err != nil {
			return err
		}
		return setValueType(scope, n, types.Boolean)
	}

	scope.SetCondition(n.Operand, Read)
	if err := analyzeExpression(scope, n.Operand); err != nil {
		return err
	}
	operand := valueType(scope, n.Operand)

	promoted := types.PromoteUnary(operand)
	if promoted == nil {
		name := scope.Lookup().CanonicalName(operand)
		err := scope.CreateError(TypeMismatch, n, fmt.Sprintf("Cannot apply [%s] to type [%s].", n.Op, name))
		err.Expected, err.Actual = "numeric", name
		err.Labels = []Label{{Span: n.Operand.Span(), Text: fmt.Sprintf("this is [%s]", name)}}
		return err
	}
	if err := convertOperands(scope, promoted, n.Operand); err != nil {
		return err
	}
	return setValueType(scope, n, promoted)
}

func (analyzer) VisitExplicit(n *ast.Explicit, scope *Scope) error {
	typ, err := scope.resolveType(n.TypeName, n.Span())
	if err != nil {
		return err
	}
	if err := analyzeAs(scope, n.Value, typ, Explicit); err != nil {
		return err
	}
	return setValueType(scope, n, typ)
}

func (analyzer) VisitCall(n *ast.Call, scope *Scope) error {
	fn, ok := scope.resolveFunction(n.Name, len(n.Args))
	if !ok {
		return scope.CreateError(UndefinedSymbol, n,
			fmt.Sprintf("Unknown call [%s] with [%d] arguments.", n.Name, len(n.Args)))
	}
	if err := scope.PutDecoration(n, FunctionDecoration{Function: fn}); err != nil {
		return err
	}

	for i, arg := range n.Args {
		if err := analyzeAs(scope, arg, fn.Params[i], Internal); err != nil {
			return err
		}
	}
	return setValueType(scope, n, fn.ReturnType)
}
