// Package hir implements the HIR data model and every pass of spec
// components D through K: the CFG/SSA intermediate representation, its
// builder, initializer, SSA constructor, block rewriter, useMemo inliner,
// constant propagation, and deterministic printer.
package hir

import "math"

// PrimitiveKind is the closed Primitive sum type of spec section 3.
type PrimitiveKind int

const (
	PrimBoolean PrimitiveKind = iota
	PrimNull
	PrimNumber
	PrimString
	PrimUndefined
)

// Primitive is a JS primitive value. Numbers compare by IEEE-754 bit pattern
// with NaN canonicalized so equality stays reflexive within this type
// (spec section 3); ECMAScript's own `==`/`===` semantics, where NaN is never
// equal to itself, are implemented separately by LooseEquals/StrictEquals for
// use by constant propagation (4.J).
type Primitive struct {
	Kind   PrimitiveKind
	Bool   bool
	Number float64
	Str    string
}

func Bool(b bool) Primitive     { return Primitive{Kind: PrimBoolean, Bool: b} }
func Null() Primitive           { return Primitive{Kind: PrimNull} }
func Number(n float64) Primitive { return Primitive{Kind: PrimNumber, Number: n} }
func String(s string) Primitive { return Primitive{Kind: PrimString, Str: s} }
func Undefined() Primitive      { return Primitive{Kind: PrimUndefined} }

// bits returns the canonical bit pattern used for structural equality: NaN
// is canonicalized to a single bit pattern so Primitive equality (used by
// phi-constant folding's "structural equality on the Global-or-Primitive sum
// type", spec 4.J point 1) stays reflexive even though ECMAScript's own `===`
// never considers NaN equal to itself.
func (p Primitive) bits() uint64 {
	if p.Kind == PrimNumber && math.IsNaN(p.Number) {
		return math.Float64bits(math.NaN())
	}
	return math.Float64bits(p.Number)
}

// StructurallyEqual is the sum-type equality spec 4.J point 1 uses to decide
// whether every phi operand is "the same constant" — NOT ECMAScript `===`.
func (p Primitive) StructurallyEqual(o Primitive) bool {
	if p.Kind != o.Kind {
		return false
	}
	switch p.Kind {
	case PrimBoolean:
		return p.Bool == o.Bool
	case PrimNumber:
		return p.bits() == o.bits()
	case PrimString:
		return p.Str == o.Str
	default:
		return true // Null, Undefined are singletons
	}
}

// Truthy implements spec 4.J point 3's truthiness table: false, null,
// undefined, +0, -0, NaN, and empty string are falsy; everything else is
// truthy.
func (p Primitive) Truthy() bool {
	switch p.Kind {
	case PrimBoolean:
		return p.Bool
	case PrimNull, PrimUndefined:
		return false
	case PrimNumber:
		return p.Number != 0 && !math.IsNaN(p.Number)
	case PrimString:
		return p.Str != ""
	default:
		return true
	}
}

// StrictEquals implements ECMAScript `===`: matching primitive types compare
// by value; NaN is never equal to anything, including itself (spec 4.J,
// "Equality semantics used by Binary reduction").
func StrictEquals(a, b Primitive) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case PrimBoolean:
		return a.Bool == b.Bool
	case PrimNumber:
		if math.IsNaN(a.Number) || math.IsNaN(b.Number) {
			return false
		}
		return a.Number == b.Number
	case PrimString:
		return a.Str == b.Str
	default:
		return true
	}
}

// LooseEquals implements ECMAScript `==` restricted to primitives: like
// StrictEquals but additionally treats null == undefined as true.
func LooseEquals(a, b Primitive) bool {
	if (a.Kind == PrimNull && b.Kind == PrimUndefined) || (a.Kind == PrimUndefined && b.Kind == PrimNull) {
		return true
	}
	return StrictEquals(a, b)
}
