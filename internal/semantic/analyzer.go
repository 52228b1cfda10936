package semantic

import (
	"forgehir/internal/ast"
	"forgehir/internal/errors"
)

// Options configures Analyze. Globals seeds the root scope with known
// module-level global names (spec 4.B: "analyze(program, options{globals})").
type Options struct {
	Globals []string
}

type labelEntry struct {
	id   LabelID
	name string
}

// analyzer performs the single forward AST walk of spec 4.B point 1: it
// declares as it goes and queues every reference for resolution in a
// subsequent completion pass, so forward references to var/function
// declarations resolve correctly while TDZ snapshots remain accurate.
type analyzer struct {
	m       *ScopeManager
	pending []unresolvedReference
	labels  []labelEntry
}

// Analyze is the public entry point of spec 4.B: `analyze(program,
// options{globals})` → a scope manager plus a diagnostic list.
func Analyze(program *ast.Program, opts Options) (*ScopeManager, []errors.CompilerError) {
	m := newManager()
	global := m.newScope(0, false, ScopeGlobal)
	for _, name := range opts.Globals {
		m.addDeclaration(global, DeclGlobal, name, nil, ast.Position{})
	}
	module := m.newScope(global, true, ScopeModule)

	a := &analyzer{m: m}
	for _, stmt := range program.Body {
		a.visitStatement(stmt, module)
	}
	for _, u := range a.pending {
		m.resolve(u)
	}
	return m, m.Diagnostics
}

func (a *analyzer) enterLabel(node ast.Node, kind LabelKind, name string) {
	id := LabelID(len(a.m.labels))
	a.m.labels = append(a.m.labels, Label{ID: id, Kind: kind, Name: name})
	a.m.nodeLabel[node] = id
	a.labels = append(a.labels, labelEntry{id: id, name: name})
}

func (a *analyzer) exitLabel() {
	a.labels = a.labels[:len(a.labels)-1]
}

func (a *analyzer) lookupBreak(name string) (LabelID, bool) {
	for i := len(a.labels) - 1; i >= 0; i-- {
		if name == "" || a.labels[i].name == name {
			return a.labels[i].id, true
		}
	}
	return 0, false
}

// lookupContinue additionally requires the target label's kind to be Loop
// (spec 4.B point 5).
func (a *analyzer) lookupContinue(name string) (id LabelID, found bool, nonLoop bool) {
	for i := len(a.labels) - 1; i >= 0; i-- {
		if name == "" || a.labels[i].name == name {
			lbl := a.m.labels[a.labels[i].id]
			if lbl.Kind != LabelLoop {
				if name == "" {
					continue // unlabeled continue skips non-loop labels (e.g. switch)
				}
				return a.labels[i].id, true, true
			}
			return a.labels[i].id, true, false
		}
	}
	return 0, false, false
}

func (a *analyzer) queueRef(scope ScopeID, name string, kind ReferenceKind, node ast.Node) {
	a.pending = append(a.pending, a.m.addReference(scope, name, kind, node))
}

// --- statements ---

func (a *analyzer) visitStatement(s ast.Statement, scope ScopeID) {
	a.m.nodeScope[s] = scope
	switch n := s.(type) {
	case *ast.BlockStatement:
		block := a.m.newScope(scope, true, ScopeBlock)
		for _, stmt := range n.Body {
			a.visitStatement(stmt, block)
		}
	case *ast.ExpressionStatement:
		a.visitExpression(n.Expression, scope, RefRead)
	case *ast.EmptyStatement:
	case *ast.ReturnStatement:
		if n.Argument != nil {
			a.visitExpression(n.Argument, scope, RefRead)
		}
	case *ast.BreakStatement:
		name := ""
		if n.Label != nil {
			name = n.Label.Name
		}
		if id, ok := a.lookupBreak(name); ok {
			a.m.breakLabel[n] = id
		} else {
			a.m.Diagnostics = append(a.m.Diagnostics, errors.UnknownBreakLabel(name, n.NodePos()))
		}
	case *ast.ContinueStatement:
		name := ""
		if n.Label != nil {
			name = n.Label.Name
		}
		id, found, nonLoop := a.lookupContinue(name)
		switch {
		case !found:
			a.m.Diagnostics = append(a.m.Diagnostics, errors.UnknownContinueLabel(name, n.NodePos()))
		case nonLoop:
			a.m.Diagnostics = append(a.m.Diagnostics, errors.ContinueToNonLoop(name, n.NodePos()))
		default:
			a.m.continueLabel[n] = id
		}
	case *ast.IfStatement:
		a.visitExpression(n.Test, scope, RefRead)
		a.visitStatement(n.Consequent, scope)
		if n.Alternate != nil {
			a.visitStatement(n.Alternate, scope)
		}
	case *ast.ForStatement:
		a.visitFor(n, scope)
	case *ast.LabeledStatement:
		kind := LabelOther
		if _, isFor := n.Body.(*ast.ForStatement); isFor {
			kind = LabelLoop
		}
		a.enterLabel(n, kind, n.Label.Name)
		a.visitStatement(n.Body, scope)
		a.exitLabel()
	case *ast.SwitchStatement:
		a.visitExpression(n.Discriminant, scope, RefRead)
		a.enterLabel(n, LabelOther, "")
		switchScope := a.m.newScope(scope, true, ScopeSwitch)
		for _, c := range n.Cases {
			if c.Test != nil {
				a.visitExpression(c.Test, switchScope, RefRead)
			}
			for _, stmt := range c.Consequent {
				a.visitStatement(stmt, switchScope)
			}
		}
		a.exitLabel()
	case *ast.VariableDeclaration:
		a.visitVariableDeclaration(n, scope)
	case *ast.FunctionDeclaration:
		// getScopeForDeclaration hoists this to the nearest Function/Global/
		// Module/StaticBlock boundary regardless of where in the walk this
		// runs, so no separate hoisting pre-pass is needed (spec 4.B point 2).
		if n.Name != nil {
			a.m.addDeclaration(scope, DeclFunction, n.Name.Name, n.Name, n.Name.NodePos())
		}
		a.visitFunction(n.Function, scope)
	default:
		a.m.Diagnostics = append(a.m.Diagnostics, errors.UnsupportedConstruct(s.NodeType().String(), s.NodePos()))
	}
}

func (a *analyzer) visitFor(n *ast.ForStatement, scope ScopeID) {
	forScope := a.m.newScope(scope, true, ScopeFor)
	a.enterLabel(n, LabelLoop, "")
	switch init := n.Init.(type) {
	case nil:
	case *ast.VariableDeclaration:
		a.visitVariableDeclaration(init, forScope)
	case ast.Expression:
		a.visitExpression(init, forScope, RefReadWrite)
	}
	if n.Test != nil {
		a.visitExpression(n.Test, forScope, RefRead)
	} else {
		a.m.Diagnostics = append(a.m.Diagnostics, errors.MissingForTest(n.NodePos()))
	}
	if n.Update != nil {
		a.visitExpression(n.Update, forScope, RefReadWrite)
	}
	a.visitStatement(n.Body, forScope)
	a.exitLabel()
}

func (a *analyzer) visitVariableDeclaration(n *ast.VariableDeclaration, scope ScopeID) {
	var kind DeclarationKind
	switch n.Kind {
	case ast.VarKind:
		kind = DeclVar
	case ast.LetKind:
		kind = DeclLet
	case ast.ConstKind:
		kind = DeclConst
	}
	for _, d := range n.Declarations {
		a.declarePattern(d.ID, scope, kind)
		if d.Init != nil {
			a.visitExpression(d.Init, scope, RefRead)
		}
	}
}

// declarePattern recursively declares every binding identifier in pattern,
// matching forget_build_hir's lower_identifier_for_assignment pattern walk.
func (a *analyzer) declarePattern(p ast.Pattern, scope ScopeID, kind DeclarationKind) {
	switch n := p.(type) {
	case *ast.Identifier:
		a.m.addDeclaration(scope, kind, n.Name, n, n.NodePos())
	case *ast.ArrayPattern:
		for _, el := range n.Elements {
			if el != nil {
				a.declarePattern(el, scope, kind)
			}
		}
	case *ast.ObjectPattern:
		for _, prop := range n.Properties {
			a.declarePattern(prop.Value, scope, kind)
		}
	case *ast.AssignmentPattern:
		a.declarePattern(n.Target, scope, kind)
		a.visitExpression(n.Default, scope, RefRead)
	case *ast.RestElement:
		a.declarePattern(n.Argument, scope, kind)
	}
}

// assignPattern treats every leaf identifier of an assignment target (not a
// declaration) as a Write reference.
func (a *analyzer) assignPattern(p ast.Pattern, scope ScopeID) {
	switch n := p.(type) {
	case *ast.Identifier:
		a.queueRef(scope, n.Name, RefWrite, n)
	case *ast.ArrayPattern:
		for _, el := range n.Elements {
			if el != nil {
				a.assignPattern(el, scope)
			}
		}
	case *ast.ObjectPattern:
		for _, prop := range n.Properties {
			a.assignPattern(prop.Value, scope)
		}
	case *ast.AssignmentPattern:
		a.assignPattern(n.Target, scope)
		a.visitExpression(n.Default, scope, RefRead)
	case *ast.RestElement:
		a.assignPattern(n.Argument, scope)
	}
}

func (a *analyzer) visitFunction(fn *ast.Function, outerScope ScopeID) {
	fnScope := a.m.newScope(outerScope, true, ScopeFunction)
	if fn.Name != nil {
		// Named function expressions bind their own name only within their
		// own scope; function declarations are hoisted by the caller before
		// this runs.
		if !fn.IsArrow {
			if _, already := a.m.nodeDeclaration[fn.Name]; !already {
				a.m.addDeclaration(fnScope, DeclFunction, fn.Name.Name, fn.Name, fn.Name.NodePos())
			}
		}
	}
	for _, p := range fn.Params {
		a.declarePattern(p, fnScope, DeclLet)
	}
	if fn.Body != nil {
		for _, stmt := range fn.Body.Body {
			a.visitStatement(stmt, fnScope)
		}
	} else if fn.ExprBody != nil {
		a.visitExpression(fn.ExprBody, fnScope, RefRead)
	}
}

// --- expressions ---

func (a *analyzer) visitExpression(e ast.Expression, scope ScopeID, kind ReferenceKind) {
	a.m.nodeScope[e] = scope
	switch n := e.(type) {
	case *ast.Identifier:
		a.queueRef(scope, n.Name, kind, n)
	case *ast.Literal:
	case *ast.BinaryExpression:
		a.visitExpression(n.Left, scope, RefRead)
		a.visitExpression(n.Right, scope, RefRead)
	case *ast.LogicalExpression:
		a.visitExpression(n.Left, scope, RefRead)
		a.visitExpression(n.Right, scope, RefRead)
	case *ast.UnaryExpression:
		a.visitExpression(n.Argument, scope, RefRead)
	case *ast.AssignmentExpression:
		a.visitExpression(n.Value, scope, RefRead)
		if ident, ok := n.Target.(*ast.Identifier); ok {
			a.queueRef(scope, ident.Name, RefWrite, ident)
		} else {
			a.assignPattern(n.Target, scope)
		}
	case *ast.SpreadElement:
		a.visitExpression(n.Argument, scope, RefRead)
	case *ast.CallExpression:
		a.visitExpression(n.Callee, scope, RefRead)
		for _, arg := range n.Arguments {
			a.visitExpression(arg, scope, RefRead)
		}
	case *ast.ArrayExpression:
		for _, el := range n.Elements {
			if el != nil {
				a.visitExpression(el, scope, RefRead)
			}
		}
	case *ast.MemberExpression:
		a.visitExpression(n.Object, scope, RefRead)
		if n.Computed {
			a.visitExpression(n.Property, scope, RefRead)
		}
	case *ast.Function:
		a.visitFunction(n, scope)
	case *ast.JSXElement:
		a.visitJSXTag(n.Tag, scope)
		for _, attr := range n.Attrs {
			switch at := attr.(type) {
			case *ast.JSXAttribute:
				if at.Value != nil {
					a.visitExpression(at.Value, scope, RefRead)
				}
			case *ast.JSXSpreadAttribute:
				a.visitExpression(at.Argument, scope, RefRead)
			}
		}
		for _, child := range n.Children {
			if expr, ok := child.(ast.Expression); ok {
				a.visitExpression(expr, scope, RefRead)
			}
		}
	case *ast.JSXExpressionContainer:
		a.visitExpression(n.Expression, scope, RefRead)
	default:
		a.m.Diagnostics = append(a.m.Diagnostics, errors.UnsupportedConstruct(e.NodeType().String(), e.NodePos()))
	}
}

// visitJSXTag implements spec 4.B point 6: an all-lowercase JSXIdentifier is
// an intrinsic tag producing no reference; anything else, including the root
// of a member expression (unless that root is literally `this`), does.
func (a *analyzer) visitJSXTag(tag ast.Expression, scope ScopeID) {
	switch t := tag.(type) {
	case *ast.JSXIdentifier:
		if t.IsIntrinsic() {
			return
		}
		a.queueRef(scope, t.Name, RefRead, t)
	case *ast.JSXMemberExpression:
		root := t
		for {
			if parent, ok := root.Object.(*ast.JSXMemberExpression); ok {
				root = parent
				continue
			}
			break
		}
		if ident, ok := root.Object.(*ast.JSXIdentifier); ok && ident.Name != "this" {
			a.queueRef(scope, ident.Name, RefRead, ident)
		}
	}
}
