package lsp

import (
	"github.com/iancoleman/strcase"

	"forgehir/internal/ast"
	"forgehir/internal/semantic"
)

// SemanticToken is one LSP semantic token entry. Line and StartChar are
// 0-based; TokenType indexes SemanticTokenTypes and TokenModifiers is a
// bitmask over SemanticTokenModifiers.
type SemanticToken struct {
	Line           uint32
	StartChar      uint32
	Length         uint32
	TokenType      int
	TokenModifiers int
}

// declarationKinds enumerates every semantic.DeclarationKind so their lower-
// camel spellings can be generated into the modifier legend below instead of
// hand-listing them, keeping the legend in sync if a kind is ever added.
var declarationKinds = []semantic.DeclarationKind{
	semantic.DeclGlobal,
	semantic.DeclClass,
	semantic.DeclConst,
	semantic.DeclVar,
	semantic.DeclLet,
	semantic.DeclFunction,
	semantic.DeclCatchClause,
	semantic.DeclImport,
}

var SemanticTokenTypes = []string{
	"namespace",
	"type",
	"typeParameter",
	"function",
	"variable",
	"parameter",
	"property",
	"keyword",
	"number",
	"operator",
}

// SemanticTokenModifiers is "declaration"/"readonly" plus one modifier per
// semantic.DeclarationKind, generated via strcase so a binding's modifier set
// always names the exact kind the scope manager assigned it (e.g. a token
// for a catch-bound name carries "catchClause" alongside "declaration").
var SemanticTokenModifiers = buildModifierLegend()

func buildModifierLegend() []string {
	mods := []string{"declaration", "readonly"}
	for _, k := range declarationKinds {
		mods = append(mods, strcase.ToLowerCamel(k.String()))
	}
	return mods
}

// collectSemanticTokens walks program in source order, classifying every
// identifier-shaped node via the resolved scope/declaration/reference tables
// in m. HIR carries no source positions (spec 4.C), so semantic tokens are
// derived from the AST plus m, never from the lowered function.
func collectSemanticTokens(program *ast.Program, m *semantic.ScopeManager) []SemanticToken {
	w := &tokenWalker{m: m}
	w.walkStatements(program.Body)
	return w.tokens
}

type tokenWalker struct {
	m      *semantic.ScopeManager
	tokens []SemanticToken
}

func (w *tokenWalker) emit(t SemanticToken) { w.tokens = append(w.tokens, t) }

func (w *tokenWalker) walkStatements(stmts []ast.Statement) {
	for _, s := range stmts {
		w.walkStatement(s)
	}
}

func (w *tokenWalker) walkStatement(s ast.Statement) {
	switch n := s.(type) {
	case *ast.BlockStatement:
		w.walkStatements(n.Body)
	case *ast.ExpressionStatement:
		w.walkExpr(n.Expression)
	case *ast.ReturnStatement:
		if n.Argument != nil {
			w.walkExpr(n.Argument)
		}
	case *ast.BreakStatement, *ast.ContinueStatement, *ast.EmptyStatement:
		// no identifier-shaped children worth tokenizing: label resolution
		// is reported as a diagnostic, not a semantic token.
	case *ast.IfStatement:
		w.walkExpr(n.Test)
		w.walkStatement(n.Consequent)
		if n.Alternate != nil {
			w.walkStatement(n.Alternate)
		}
	case *ast.ForStatement:
		if vd, ok := n.Init.(*ast.VariableDeclaration); ok {
			w.walkVarDecl(vd)
		} else if expr, ok := n.Init.(ast.Expression); ok && expr != nil {
			w.walkExpr(expr)
		}
		if n.Test != nil {
			w.walkExpr(n.Test)
		}
		if n.Update != nil {
			w.walkExpr(n.Update)
		}
		w.walkStatement(n.Body)
	case *ast.LabeledStatement:
		w.walkStatement(n.Body)
	case *ast.SwitchStatement:
		w.walkExpr(n.Discriminant)
		for _, c := range n.Cases {
			if c.Test != nil {
				w.walkExpr(c.Test)
			}
			w.walkStatements(c.Consequent)
		}
	case *ast.VariableDeclaration:
		w.walkVarDecl(n)
	case *ast.FunctionDeclaration:
		w.walkFunction(n.Function)
	}
}

func (w *tokenWalker) walkVarDecl(n *ast.VariableDeclaration) {
	for _, d := range n.Declarations {
		w.walkBindingPattern(d.ID)
		if d.Init != nil {
			w.walkExpr(d.Init)
		}
	}
}

func (w *tokenWalker) walkFunction(fn *ast.Function) {
	if fn.Name != nil {
		w.emit(w.declarationToken(fn.Name, "function"))
	}
	for _, p := range fn.Params {
		if id, ok := p.(*ast.Identifier); ok {
			w.emit(w.declarationToken(id, "parameter"))
			continue
		}
		w.walkBindingPattern(p)
	}
	if fn.Body != nil {
		w.walkStatements(fn.Body.Body)
	}
	if fn.ExprBody != nil {
		w.walkExpr(fn.ExprBody)
	}
}

// walkBindingPattern visits a pattern in binding position (parameter,
// variable declarator id, destructuring target): every leaf Identifier here
// is a declaration site, not a reference.
func (w *tokenWalker) walkBindingPattern(p ast.Pattern) {
	switch n := p.(type) {
	case *ast.Identifier:
		w.emit(w.declarationToken(n, "variable"))
	case *ast.ArrayPattern:
		for _, el := range n.Elements {
			if el != nil {
				w.walkBindingPattern(el)
			}
		}
	case *ast.ObjectPattern:
		for _, prop := range n.Properties {
			if !prop.Shorthand {
				w.emit(w.declarationToken(prop.Key, "property"))
			}
			w.walkBindingPattern(prop.Value)
		}
	case *ast.AssignmentPattern:
		w.walkBindingPattern(n.Target)
		w.walkExpr(n.Default)
	case *ast.RestElement:
		w.walkBindingPattern(n.Argument)
	}
}

func (w *tokenWalker) walkExpr(e ast.Expression) {
	switch n := e.(type) {
	case *ast.Identifier:
		w.emit(w.referenceToken(n, "variable"))
	case *ast.Literal:
		if n.Kind == ast.LiteralNumber {
			w.emit(w.plainToken(n.NodePos(), "number"))
		}
	case *ast.BinaryExpression:
		w.walkExpr(n.Left)
		w.walkExpr(n.Right)
	case *ast.LogicalExpression:
		w.walkExpr(n.Left)
		w.walkExpr(n.Right)
	case *ast.UnaryExpression:
		w.walkExpr(n.Argument)
	case *ast.AssignmentExpression:
		w.walkAssignTarget(n.Target)
		w.walkExpr(n.Value)
	case *ast.SpreadElement:
		w.walkExpr(n.Argument)
	case *ast.CallExpression:
		if callee, ok := n.Callee.(*ast.Identifier); ok {
			w.emit(w.referenceToken(callee, "function"))
		} else {
			w.walkExpr(n.Callee)
		}
		for _, a := range n.Arguments {
			w.walkExpr(a)
		}
	case *ast.ArrayExpression:
		for _, el := range n.Elements {
			if el != nil {
				w.walkExpr(el)
			}
		}
	case *ast.MemberExpression:
		w.walkExpr(n.Object)
		if !n.Computed {
			if prop, ok := n.Property.(*ast.Identifier); ok {
				w.emit(w.plainToken(prop.NodePos(), "property"))
				return
			}
		}
		w.walkExpr(n.Property)
	case *ast.Function:
		w.walkFunction(n)
	case *ast.JSXElement:
		w.walkJSXTag(n.Tag)
		for _, attr := range n.Attrs {
			w.walkJSXAttr(attr)
		}
		for _, child := range n.Children {
			if expr, ok := child.(ast.Expression); ok {
				w.walkExpr(expr)
			}
		}
	case *ast.JSXExpressionContainer:
		w.walkExpr(n.Expression)
	}
}

// walkAssignTarget mirrors walkBindingPattern but tags the leaf as a write
// reference to an existing declaration rather than a new binding: `x = 1`
// assigns x, it does not declare it.
func (w *tokenWalker) walkAssignTarget(p ast.Pattern) {
	switch n := p.(type) {
	case *ast.Identifier:
		w.emit(w.referenceToken(n, "variable"))
	case *ast.ArrayPattern:
		for _, el := range n.Elements {
			if el != nil {
				w.walkAssignTarget(el)
			}
		}
	case *ast.ObjectPattern:
		for _, prop := range n.Properties {
			w.walkAssignTarget(prop.Value)
		}
	case *ast.AssignmentPattern:
		w.walkAssignTarget(n.Target)
		w.walkExpr(n.Default)
	case *ast.RestElement:
		w.walkAssignTarget(n.Argument)
	}
}

func (w *tokenWalker) walkJSXTag(tag ast.Expression) {
	switch n := tag.(type) {
	case *ast.JSXIdentifier:
		if !n.IsIntrinsic() {
			w.emit(w.plainToken(n.NodePos(), "type"))
		}
	case *ast.JSXMemberExpression:
		w.walkJSXTag(n.Object)
	}
}

func (w *tokenWalker) walkJSXAttr(attr ast.Node) {
	switch n := attr.(type) {
	case *ast.JSXAttribute:
		w.emit(w.plainToken(n.Name.NodePos(), "property"))
		if n.Value != nil {
			w.walkExpr(n.Value)
		}
	case *ast.JSXSpreadAttribute:
		w.walkExpr(n.Argument)
	}
}

// declarationToken tags id as a binding site, carrying the declared kind
// (and "readonly" for const) as modifiers looked up from m's declaration
// table. Falls back to a bare "declaration" modifier if the scope manager
// never recorded this node (e.g. it was dropped during error recovery).
func (w *tokenWalker) declarationToken(id *ast.Identifier, tokenType string) SemanticToken {
	mods := []string{"declaration"}
	if declID, ok := w.m.NodeDeclaration(id); ok {
		decl := w.m.Declaration(declID)
		mods = append(mods, strcase.ToLowerCamel(decl.Kind.String()))
		if decl.Kind == semantic.DeclConst {
			mods = append(mods, "readonly")
		}
	}
	return w.makeToken(id.NodePos(), tokenType, mods)
}

// referenceToken tags id as a use site, carrying its resolved declaration's
// kind as a modifier, or "global" for an implicit/undeclared reference.
func (w *tokenWalker) referenceToken(id *ast.Identifier, tokenType string) SemanticToken {
	var mods []string
	if refID, ok := w.m.NodeReference(id); ok {
		ref := w.m.Reference(refID)
		if decl, ok := w.m.ResolvedReferenceDeclaration(ref); ok {
			mods = append(mods, strcase.ToLowerCamel(decl.Kind.String()))
			if decl.Kind == semantic.DeclConst {
				mods = append(mods, "readonly")
			}
		} else {
			mods = append(mods, strcase.ToLowerCamel(semantic.DeclGlobal.String()))
		}
	}
	return w.makeToken(id.NodePos(), tokenType, mods)
}

func (w *tokenWalker) plainToken(pos ast.Position, tokenType string) SemanticToken {
	return w.makeToken(pos, tokenType, nil)
}

func (w *tokenWalker) makeToken(pos ast.Position, tokenType string, mods []string) SemanticToken {
	length := pos.Len()
	if length <= 0 {
		length = 1
	}
	line := pos.Line - 1
	if line < 0 {
		line = 0
	}
	column := pos.Column - 1
	if column < 0 {
		column = 0
	}
	return SemanticToken{
		Line:           uint32(line),
		StartChar:      uint32(column),
		Length:         uint32(length),
		TokenType:      indexOf(tokenType, SemanticTokenTypes),
		TokenModifiers: modifierMask(mods),
	}
}

func modifierMask(names []string) int {
	mask := 0
	for _, name := range names {
		if i := indexOf(name, SemanticTokenModifiers); i >= 0 {
			mask |= 1 << i
		}
	}
	return mask
}

func indexOf(target string, list []string) int {
	for i, v := range list {
		if v == target {
			return i
		}
	}
	return -1
}
