package types

// Sort classifies a type for coercion and promotion.
type Sort int

const (
	SortVoid Sort = iota
	SortBoolean
	SortByte
	SortShort
	SortChar
	SortInt
	SortLong
	SortFloat
	SortDouble
	SortDef
	SortReference
)

// Type is a canonical type of the scripting language. Types are interned:
// two *Type values denote the same type iff they are the same pointer.
type Type struct {
	name    string
	sort    Sort
	parent  *Type // supertype of a reference type
	boxed   *Type // box of a primitive type
	unboxed *Type // primitive of a box type
}

// String returns the canonical name of the type.
func (t *Type) String() string { return t.name }

func (t *Type) Sort() Sort { return t.sort }

func (t *Type) IsVoid() bool { return t.sort == SortVoid }

func (t *Type) IsDef() bool { return t.sort == SortDef }

// IsPrimitive reports whether t is boolean or one of the numeric primitives.
func (t *Type) IsPrimitive() bool {
	return t.sort >= SortBoolean && t.sort <= SortDouble
}

// IsNumeric reports whether t is a numeric primitive (char included).
func (t *Type) IsNumeric() bool {
	return t.sort >= SortByte && t.sort <= SortDouble
}

// IsReference reports whether t is a class type (def excluded).
func (t *Type) IsReference() bool { return t.sort == SortReference }

// Boxed returns the box of a primitive type, or nil.
func (t *Type) Boxed() *Type { return t.boxed }

// Unboxed returns the primitive of a box type, or nil.
func (t *Type) Unboxed() *Type { return t.unboxed }

// IsSubtypeOf reports whether reference type t is super or one of its
// descendants.
func (t *Type) IsSubtypeOf(super *Type) bool {
	if t.sort != SortReference || super.sort != SortReference {
		return false
	}
	for cur := t; cur != nil; cur = cur.parent {
		if cur == super {
			return true
		}
	}
	return false
}

func primitive(name string, sort Sort) *Type {
	return &Type{name: name, sort: sort}
}

func reference(name string, parent *Type) *Type {
	return &Type{name: name, sort: SortReference, parent: parent}
}

func box(prim *Type, parent *Type, name string) *Type {
	b := reference(name, parent)
	b.unboxed = prim
	prim.boxed = b
	return b
}

// Builtin types.
var (
	Void    = primitive("void", SortVoid)
	Boolean = primitive("boolean", SortBoolean)
	Byte    = primitive("byte", SortByte)
	Short   = primitive("short", SortShort)
	Char    = primitive("char", SortChar)
	Int     = primitive("int", SortInt)
	Long    = primitive("long", SortLong)
	Float   = primitive("float", SortFloat)
	Double  = primitive("double", SortDouble)
	Def     = &Type{name: "def", sort: SortDef}

	Object = reference("Object", nil)
	Number = reference("Number", Object)
	String = reference("String", Object)

	Exception                = reference("Exception", Object)
	RuntimeException         = reference("RuntimeException", Exception)
	IllegalArgumentException = reference("IllegalArgumentException", RuntimeException)
	IllegalStateException    = reference("IllegalStateException", RuntimeException)
	ArithmeticException      = reference("ArithmeticException", RuntimeException)

	BoxedBoolean   = box(Boolean, Object, "Boolean")
	BoxedByte      = box(Byte, Number, "Byte")
	BoxedShort     = box(Short, Number, "Short")
	BoxedCharacter = box(Char, Object, "Character")
	BoxedInteger   = box(Int, Number, "Integer")
	BoxedLong      = box(Long, Number, "Long")
	BoxedFloat     = box(Float, Number, "Float")
	BoxedDouble    = box(Double, Number, "Double")
)

var builtinTypes = []*Type{
	Void, Boolean, Byte, Short, Char, Int, Long, Float, Double, Def,
	Object, Number, String,
	Exception, RuntimeException, IllegalArgumentException, IllegalStateException, ArithmeticException,
	BoxedBoolean, BoxedByte, BoxedShort, BoxedCharacter, BoxedInteger, BoxedLong, BoxedFloat, BoxedDouble,
}

// numericRank orders the numeric primitives along the widening chain.
// char sits beside short: neither widens to the other.
func numericRank(sort Sort) int {
	switch sort {
	case SortByte:
		return 1
	case SortShort, SortChar:
		return 2
	case SortInt:
		return 3
	case SortLong:
		return 4
	case SortFloat:
		return 5
	case SortDouble:
		return 6
	default:
		return 0
	}
}

// widens reports whether numeric primitive from converts implicitly to to.
func widens(from, to *Type) bool {
	if !from.IsNumeric() || !to.IsNumeric() || from == to {
		return false
	}
	if to.sort == SortChar {
		return false
	}
	if from.sort == SortChar && to.sort == SortShort {
		return false
	}
	return numericRank(from.sort) < numericRank(to.sort)
}

// PromoteNumeric returns the type both operands of an arithmetic or
// comparison operator are converted to, or nil if either is not numeric.
// def on either side promotes to def.
func PromoteNumeric(left, right *Type) *Type {
	if left.IsDef() || right.IsDef() {
		if (left.IsDef() || left.IsNumeric()) && (right.IsDef() || right.IsNumeric()) {
			return Def
		}
		return nil
	}
	if !left.IsNumeric() || !right.IsNumeric() {
		return nil
	}
	switch {
	case left.sort == SortDouble || right.sort == SortDouble:
		return Double
	case left.sort == SortFloat || right.sort == SortFloat:
		return Float
	case left.sort == SortLong || right.sort == SortLong:
		return Long
	default:
		return Int
	}
}

// PromoteUnary returns the type a numeric operand of unary minus/plus is
// converted to, or nil if it is not numeric.
func PromoteUnary(operand *Type) *Type {
	if operand.IsDef() {
		return Def
	}
	if !operand.IsNumeric() {
		return nil
	}
	if numericRank(operand.sort) < numericRank(SortInt) {
		return Int
	}
	return operand
}
