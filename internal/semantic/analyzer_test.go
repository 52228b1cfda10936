package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forgehir/internal/ast"
)

func pos(n int) ast.Position { return ast.Position{Start: uint32(n), End: uint32(n + 1), Line: 1, Column: n + 1} }

func ident(name string, at int) *ast.Identifier {
	return ast.NewIdentifier(name, pos(at), pos(at+len(name)))
}

// Scenario 6 — TDZ detection. `function f() { x; const x = 1; }`
func TestTDZViolation(t *testing.T) {
	ref := ident("x", 0)
	lit := ast.NewLiteral(ast.LiteralNumber, pos(10), pos(11))
	lit.Number = 1
	decl := ident("x", 5)
	body := &ast.BlockStatement{Body: []ast.Statement{
		&ast.ExpressionStatement{Expression: ref},
		&ast.VariableDeclaration{Kind: ast.ConstKind, Declarations: []*ast.VariableDeclarator{
			{ID: decl, Init: lit},
		}},
	}}
	fn := &ast.Function{Name: ident("f", -1), Body: body}
	fnDecl := &ast.FunctionDeclaration{Function: fn}
	program := &ast.Program{Body: []ast.Statement{fnDecl}}

	m, diags := Analyze(program, Options{})
	require.Len(t, diags, 1)
	assert.Equal(t, "E0007", diags[0].Code)

	refID, ok := m.NodeReference(ref)
	require.True(t, ok)
	_, resolved := m.ResolvedReferenceDeclaration(m.Reference(refID))
	assert.False(t, resolved, "TDZ-violating reference must not resolve")
}

// A function body may legally reference an enclosing let/const declared
// later, because crossing a Function scope boundary disables the TDZ check.
func TestTDZDisabledAcrossFunctionBoundary(t *testing.T) {
	innerRef := ident("x", 0)
	innerFn := &ast.Function{IsArrow: true, ExprBody: innerRef}
	outerDecl := ident("x", 20)
	lit := ast.NewLiteral(ast.LiteralNumber, pos(30), pos(31))

	program := &ast.Program{Body: []ast.Statement{
		&ast.ExpressionStatement{Expression: innerFn},
		&ast.VariableDeclaration{Kind: ast.LetKind, Declarations: []*ast.VariableDeclarator{
			{ID: outerDecl, Init: lit},
		}},
	}}

	m, diags := Analyze(program, Options{})
	assert.Empty(t, diags)
	refID, ok := m.NodeReference(innerRef)
	require.True(t, ok)
	decl, resolved := m.ResolvedReferenceDeclaration(m.Reference(refID))
	require.True(t, resolved)
	assert.Equal(t, "x", decl.Name)
}

// var may re-declare var (no new declaration id; equivalent to assignment).
func TestVarRedeclarationCoexists(t *testing.T) {
	d1 := ident("x", 0)
	d2 := ident("x", 10)
	program := &ast.Program{Body: []ast.Statement{
		&ast.VariableDeclaration{Kind: ast.VarKind, Declarations: []*ast.VariableDeclarator{{ID: d1}}},
		&ast.VariableDeclaration{Kind: ast.VarKind, Declarations: []*ast.VariableDeclarator{{ID: d2}}},
	}}
	m, diags := Analyze(program, Options{})
	assert.Empty(t, diags)
	id1, _ := m.NodeDeclaration(d1)
	id2, _ := m.NodeDeclaration(d2)
	assert.Equal(t, id1, id2)
}

// var may not coexist with a block-scoped declaration of the same name.
func TestVarConflictsWithLet(t *testing.T) {
	d1 := ident("x", 0)
	d2 := ident("x", 10)
	program := &ast.Program{Body: []ast.Statement{
		&ast.VariableDeclaration{Kind: ast.LetKind, Declarations: []*ast.VariableDeclarator{{ID: d1}}},
		&ast.VariableDeclaration{Kind: ast.VarKind, Declarations: []*ast.VariableDeclarator{{ID: d2}}},
	}}
	_, diags := Analyze(program, Options{})
	require.Len(t, diags, 1)
	assert.Equal(t, "E0003", diags[0].Code)
}

func TestBreakResolvesToInnermostLoop(t *testing.T) {
	brk := &ast.BreakStatement{}
	loop := &ast.ForStatement{
		Test: ast.NewLiteral(ast.LiteralBoolean, pos(0), pos(1)),
		Body: &ast.BlockStatement{Body: []ast.Statement{brk}},
	}
	program := &ast.Program{Body: []ast.Statement{loop}}
	m, diags := Analyze(program, Options{})
	assert.Empty(t, diags)
	loopLabel, ok := m.NodeLabel(loop)
	require.True(t, ok)
	brkLabel, ok := m.BreakLabel(brk)
	require.True(t, ok)
	assert.Equal(t, loopLabel, brkLabel)
}

func TestContinueToNonLoopLabelIsError(t *testing.T) {
	cont := &ast.ContinueStatement{Label: ident("outer", 0)}
	labeled := &ast.LabeledStatement{
		Label: ident("outer", 0),
		Body:  &ast.BlockStatement{Body: []ast.Statement{cont}},
	}
	program := &ast.Program{Body: []ast.Statement{labeled}}
	_, diags := Analyze(program, Options{})
	require.Len(t, diags, 1)
	assert.Equal(t, "E0006", diags[0].Code)
}

func TestUndefinedVariableReportedButTreatedAsGlobal(t *testing.T) {
	ref := ident("doesNotExist", 0)
	program := &ast.Program{Body: []ast.Statement{&ast.ExpressionStatement{Expression: ref}}}
	_, diags := Analyze(program, Options{})
	require.Len(t, diags, 1)
	assert.Equal(t, "E0001", diags[0].Code)
}

func TestKnownGlobalResolves(t *testing.T) {
	ref := ident("useMemo", 0)
	program := &ast.Program{Body: []ast.Statement{&ast.ExpressionStatement{Expression: ref}}}
	m, diags := Analyze(program, Options{Globals: []string{"useMemo"}})
	assert.Empty(t, diags)
	refID, _ := m.NodeReference(ref)
	decl, ok := m.ResolvedReferenceDeclaration(m.Reference(refID))
	require.True(t, ok)
	assert.Equal(t, DeclGlobal, decl.Kind)
}
