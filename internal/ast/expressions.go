package ast

import "strconv"

// Expression is implemented by every node that can appear where a value is
// expected.
type Expression interface {
	Node
	exprNode()
}

// Identifier is both an expression (a reference) and, when it appears as a
// declarator/parameter name, a binding site; the scope manager distinguishes
// the two uses by where the Identifier sits in the tree, not by a field on
// the node itself.
type Identifier struct {
	base
	Name string
}

func NewIdentifier(name string, pos, end Position) *Identifier {
	return &Identifier{base: newBase(NodeIdentifier, pos, end), Name: name}
}
func (n *Identifier) exprNode()     {}
func (n *Identifier) patternNode()  {}
func (n *Identifier) String() string { return n.Name }

// LiteralKind distinguishes the Primitive sum type at the AST layer, mirrored
// by internal/hir's Primitive (3. DATA MODEL, "Primitives").
type LiteralKind int

const (
	LiteralBoolean LiteralKind = iota
	LiteralNull
	LiteralNumber
	LiteralString
	LiteralUndefined
)

type Literal struct {
	base
	Kind   LiteralKind
	Bool   bool
	Number float64
	Str    string
}

func NewLiteral(kind LiteralKind, pos, end Position) *Literal {
	return &Literal{base: newBase(NodeLiteral, pos, end), Kind: kind}
}
func (n *Literal) exprNode() {}
func (n *Literal) String() string {
	switch n.Kind {
	case LiteralBoolean:
		if n.Bool {
			return "true"
		}
		return "false"
	case LiteralNull:
		return "null"
	case LiteralNumber:
		return formatNumber(n.Number)
	case LiteralString:
		return "\"" + n.Str + "\""
	default:
		return "undefined"
	}
}

type BinaryExpression struct {
	base
	Operator BinaryOperator
	Left     Expression
	Right    Expression
}

func (n *BinaryExpression) exprNode() {}
func (n *BinaryExpression) String() string {
	return n.Left.String() + " " + n.Operator.String() + " " + n.Right.String()
}

type LogicalExpression struct {
	base
	Operator LogicalOperator
	Left     Expression
	Right    Expression
}

func (n *LogicalExpression) exprNode() {}
func (n *LogicalExpression) String() string {
	return n.Left.String() + " " + n.Operator.String() + " " + n.Right.String()
}

type UnaryExpression struct {
	base
	Operator UnaryOperator
	Argument Expression
}

func (n *UnaryExpression) exprNode()   {}
func (n *UnaryExpression) String() string { return n.Operator.String() + n.Argument.String() }

// AssignmentExpression's Target is either an *Identifier, an *ArrayPattern,
// or an *ObjectPattern per the builder's dispatch (4.E, "Assignment with =").
type AssignmentExpression struct {
	base
	Operator AssignmentOperator
	Target   Pattern
	Value    Expression
}

func (n *AssignmentExpression) exprNode() {}
func (n *AssignmentExpression) String() string {
	return n.Target.String() + " " + n.Operator.String() + " " + n.Value.String()
}

// SpreadElement wraps an argument/element marked with `...`.
type SpreadElement struct {
	base
	Argument Expression
}

func (n *SpreadElement) exprNode() {}
func (n *SpreadElement) String() string { return "..." + n.Argument.String() }

// ArgumentOrSpread is either an Expression or a *SpreadElement; callers
// type-switch. It models "ordered (value | spread)" per spec 3. DATA MODEL.
type ArgumentOrSpread = Expression

type CallExpression struct {
	base
	Callee    Expression
	Arguments []ArgumentOrSpread
}

func (n *CallExpression) exprNode() {}
func (n *CallExpression) String() string { return n.Callee.String() + "(...)" }

// ArrayExpression elements may be nil (elision), an Expression, or a
// *SpreadElement, per spec's "ordered sequence of optional (value | spread)".
type ArrayExpression struct {
	base
	Elements []ArgumentOrSpread
}

func (n *ArrayExpression) exprNode()     {}
func (n *ArrayExpression) String() string { return "[...]" }

// MemberExpression covers `a.b` and `a[b]`.
type MemberExpression struct {
	base
	Object   Expression
	Property Expression
	Computed bool
}

func (n *MemberExpression) exprNode() {}
func (n *MemberExpression) String() string {
	if n.Computed {
		return n.Object.String() + "[" + n.Property.String() + "]"
	}
	return n.Object.String() + "." + n.Property.String()
}

// Function is shared structure for FunctionDeclaration, FunctionExpression,
// and ArrowFunctionExpression — the only differences the builder (4.E) cares
// about are IsAsync/IsGenerator/IsArrow and whether a body is an expression
// (arrow with expression body) or a BlockStatement.
type Function struct {
	base
	Name         *Identifier // nil for anonymous function expressions and arrows
	Params       []Pattern
	Body         *BlockStatement
	ExprBody     Expression // set instead of Body for concise-arrow bodies
	IsAsync      bool
	IsGenerator  bool
	IsArrow      bool
}

func (n *Function) exprNode() {}
func (n *Function) String() string {
	if n.Name != nil {
		return "function " + n.Name.Name + "(...)"
	}
	return "function(...)"
}

func formatNumber(f float64) string {
	// Mirrors the teacher's printer convention of emitting integers without
	// a trailing ".0" while preserving fractional values verbatim.
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
