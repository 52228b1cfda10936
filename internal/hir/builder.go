package hir

import (
	"forgehir/internal/ast"
	"forgehir/internal/env"
	"forgehir/internal/errors"
	"forgehir/internal/semantic"
)

// Builder lowers an AST, together with the ScopeManager that already
// resolved it, into one top-level Function HIR per spec 4.E. Nested
// Function/arrow-function expressions are lowered recursively into their own
// Function HIR and embedded via a FunctionInstr instruction.
type Builder struct {
	env  *env.Environment
	m    *semantic.ScopeManager
	fn   *Function
	diag []errors.CompilerError

	current *BasicBlock

	// declIdent maps a resolved declaration to the identifier this function
	// uses for it. contextOf marks the declarations a nested function captures;
	// the parent fills it in only after the child's body has been lowered, so
	// loads of captured names inside the child lower to LoadLocal, not
	// LoadContext.
	declIdent map[semantic.DeclarationID]env.Identifier
	contextOf map[semantic.DeclarationID]bool

	loopStack []loopTargets
}

type loopTargets struct {
	labelID     semantic.LabelID
	breakBlock  int
	continueBlock int
}

// Build lowers program into a top-level Function HIR named name.
func Build(e *env.Environment, m *semantic.ScopeManager, program *ast.Program, name string) (*Function, []errors.CompilerError) {
	b := &Builder{
		env:       e,
		m:         m,
		fn:        NewFunction(e, name),
		declIdent: make(map[semantic.DeclarationID]env.Identifier),
		contextOf: make(map[semantic.DeclarationID]bool),
	}
	entry := b.fn.ReserveBlock(BlockEntry)
	b.fn.Entry = entry.ID
	b.current = entry

	for _, stmt := range program.Body {
		b.lowerStatement(stmt)
	}
	b.implicitReturn()
	return b.fn, b.diag
}

func (b *Builder) errorf(sev errors.Severity, code, msg string, pos ast.Position) {
	b.diag = append(b.diag, errors.NewDiagnostic(sev, code, msg, pos).Build())
}

// identFor returns the identifier bound to decl, allocating a fresh one on
// first use. Every subsequent load/store of the same declaration reuses the
// identical env.Identifier (and so the identical shared *IdentifierData),
// satisfying spec section 9's aliasing requirement.
func (b *Builder) identFor(decl semantic.DeclarationID) env.Identifier {
	if id, ok := b.declIdent[decl]; ok {
		return id
	}
	name := b.m.Declaration(decl).Name
	id := b.env.NewNamedIdentifier(name)
	b.declIdent[decl] = id
	return id
}

func (b *Builder) terminated() bool { return b.current.hasTerminal }

// --- block lifecycle (spec 4.E) ---

func (b *Builder) enter(block *BasicBlock) { b.current = block }

func (b *Builder) terminateWithFallthrough(target *BasicBlock) {
	if b.terminated() {
		return
	}
	b.fn.SetTerminal(b.current, Goto{Block: target.ID, Kind: GotoPlain})
}

// --- statements ---

func (b *Builder) lowerStatement(s ast.Statement) {
	if b.terminated() {
		return
	}
	switch n := s.(type) {
	case *ast.BlockStatement:
		for _, inner := range n.Body {
			b.lowerStatement(inner)
			if b.terminated() {
				return
			}
		}
	case *ast.ExpressionStatement:
		b.lowerExpression(n.Expression)
	case *ast.EmptyStatement:
		// no-op
	case *ast.VariableDeclaration:
		b.lowerVariableDeclaration(n)
	case *ast.ReturnStatement:
		var val Operand
		has := false
		if n.Argument != nil {
			val = b.lowerExpression(n.Argument)
			has = true
		}
		b.fn.SetTerminal(b.current, Return{Value: val, HasValue: has})
	case *ast.BreakStatement:
		b.lowerBreak(n)
	case *ast.ContinueStatement:
		b.lowerContinue(n)
	case *ast.IfStatement:
		b.lowerIf(n)
	case *ast.ForStatement:
		b.lowerFor(n)
	case *ast.LabeledStatement:
		b.lowerLabeled(n)
	case *ast.FunctionDeclaration:
		b.lowerFunctionDeclaration(n)
	case *ast.SwitchStatement:
		b.lowerSwitch(n)
	default:
		b.errorf(errors.Unsupported, errors.ErrorUnsupportedStatement, "unsupported statement", s.NodePos())
		b.fn.SetTerminal(b.current, Unsupported{Code: errors.ErrorUnsupportedStatement})
	}
}

func (b *Builder) lowerBreak(n *ast.BreakStatement) {
	labelID, ok := b.m.BreakLabel(n)
	if !ok {
		b.errorf(errors.Invariant, "E0901", "break did not resolve to a label", n.NodePos())
		b.fn.SetTerminal(b.current, Unsupported{Code: "E0901"})
		return
	}
	for i := len(b.loopStack) - 1; i >= 0; i-- {
		if b.loopStack[i].labelID == labelID {
			b.fn.SetTerminal(b.current, Goto{Block: b.loopStack[i].breakBlock, Kind: GotoBreak})
			return
		}
	}
	b.errorf(errors.Invariant, "E0901", "break target not on the active loop stack", n.NodePos())
	b.fn.SetTerminal(b.current, Unsupported{Code: "E0901"})
}

func (b *Builder) lowerContinue(n *ast.ContinueStatement) {
	labelID, ok := b.m.ContinueLabel(n)
	if !ok {
		b.errorf(errors.Invariant, "E0901", "continue did not resolve to a label", n.NodePos())
		b.fn.SetTerminal(b.current, Unsupported{Code: "E0901"})
		return
	}
	for i := len(b.loopStack) - 1; i >= 0; i-- {
		if b.loopStack[i].labelID == labelID {
			b.fn.SetTerminal(b.current, Goto{Block: b.loopStack[i].continueBlock, Kind: GotoContinue})
			return
		}
	}
	b.errorf(errors.Invariant, "E0901", "continue target not on the active loop stack", n.NodePos())
	b.fn.SetTerminal(b.current, Unsupported{Code: "E0901"})
}

func (b *Builder) lowerIf(n *ast.IfStatement) {
	test := b.lowerExpression(n.Test)
	consequent := b.fn.ReserveBlock(BlockBlock)
	alternate := b.fn.ReserveBlock(BlockBlock)
	join := b.fn.ReserveBlock(BlockBlock)
	b.fn.SetTerminal(b.current, If{Test: test, Consequent: consequent.ID, Alternate: alternate.ID})

	b.enter(consequent)
	b.lowerStatement(n.Consequent)
	b.terminateWithFallthrough(join)

	b.enter(alternate)
	if n.Alternate != nil {
		b.lowerStatement(n.Alternate)
	}
	b.terminateWithFallthrough(join)

	b.enter(join)
}

// lowerFor builds the three-block shape of spec 4.D's For terminal: test,
// body, update, with break/continue targeting fallthrough/update
// respectively.
func (b *Builder) lowerFor(n *ast.ForStatement) {
	if n.Init != nil {
		switch init := n.Init.(type) {
		case *ast.VariableDeclaration:
			b.lowerVariableDeclaration(init)
		case ast.Expression:
			b.lowerExpression(init)
		}
	}

	testBlock := b.fn.ReserveBlock(BlockBlock)
	bodyBlock := b.fn.ReserveBlock(BlockLoop)
	updateBlock := b.fn.ReserveBlock(BlockBlock)
	fallthroughBlock := b.fn.ReserveBlock(BlockBlock)

	b.fn.SetTerminal(b.current, For{Test: testBlock.ID, Body: bodyBlock.ID, Update: updateBlock.ID, Fallthrough: fallthroughBlock.ID})

	b.enter(testBlock)
	if n.Test != nil {
		test := b.lowerExpression(n.Test)
		b.fn.SetTerminal(b.current, If{Test: test, Consequent: bodyBlock.ID, Alternate: fallthroughBlock.ID})
	} else {
		b.fn.SetTerminal(b.current, Goto{Block: bodyBlock.ID})
	}

	labelID, _ := b.m.NodeLabel(n)
	b.loopStack = append(b.loopStack, loopTargets{labelID: labelID, breakBlock: fallthroughBlock.ID, continueBlock: updateBlock.ID})
	b.enter(bodyBlock)
	b.lowerStatement(n.Body)
	b.terminateWithFallthrough(updateBlock)
	b.loopStack = b.loopStack[:len(b.loopStack)-1]

	b.enter(updateBlock)
	if n.Update != nil {
		b.lowerExpression(n.Update)
	}
	b.terminateWithFallthrough(testBlock)

	b.enter(fallthroughBlock)
}

// lowerLabeled handles `label: for (...) {}` by reusing the for-loop's own
// label id (already resolved by the scope manager to the LabeledStatement
// itself) and `label: { ... }`, a non-loop label whose only use is as a
// break target.
func (b *Builder) lowerLabeled(n *ast.LabeledStatement) {
	if forStmt, ok := n.Body.(*ast.ForStatement); ok {
		b.lowerFor(forStmt)
		return
	}
	labelID, _ := b.m.NodeLabel(n)
	body := b.fn.ReserveBlock(BlockBlock)
	after := b.fn.ReserveBlock(BlockBlock)
	b.terminateWithFallthrough(body)
	b.loopStack = append(b.loopStack, loopTargets{labelID: labelID, breakBlock: after.ID, continueBlock: after.ID})
	b.enter(body)
	b.lowerStatement(n.Body)
	b.terminateWithFallthrough(after)
	b.loopStack = b.loopStack[:len(b.loopStack)-1]
	b.enter(after)
}

// lowerSwitch dispatches on the discriminant via a Branch terminal, then lets
// each case body fall through to the next (a plain Goto, not GotoBreak) when
// its statements don't end in an explicit break — matching JS switch
// fallthrough (spec's supplemented label/loop bookkeeping for switch).
func (b *Builder) lowerSwitch(n *ast.SwitchStatement) {
	disc := b.lowerExpression(n.Discriminant)

	bodies := make([]*BasicBlock, len(n.Cases))
	for i := range n.Cases {
		bodies[i] = b.fn.ReserveBlock(BlockBlock)
	}
	after := b.fn.ReserveBlock(BlockBlock)

	defaultBlock := after.ID
	var branchCases []BranchCase
	for i, c := range n.Cases {
		if c.Test == nil {
			defaultBlock = bodies[i].ID
			continue
		}
		testOperand := b.lowerExpression(c.Test)
		branchCases = append(branchCases, BranchCase{Test: testOperand, Block: bodies[i].ID})
	}
	b.fn.SetTerminal(b.current, Branch{Test: disc, Cases: branchCases, Default: defaultBlock})

	labelID, _ := b.m.NodeLabel(n)
	b.loopStack = append(b.loopStack, loopTargets{labelID: labelID, breakBlock: after.ID, continueBlock: after.ID})
	for i, c := range n.Cases {
		b.enter(bodies[i])
		for _, stmt := range c.Consequent {
			b.lowerStatement(stmt)
			if b.terminated() {
				break
			}
		}
		next := after
		if i+1 < len(bodies) {
			next = bodies[i+1]
		}
		b.terminateWithFallthrough(next)
	}
	b.loopStack = b.loopStack[:len(b.loopStack)-1]

	b.enter(after)
}

func (b *Builder) lowerFunctionDeclaration(n *ast.FunctionDeclaration) {
	declID, ok := b.m.NodeDeclaration(n.Name)
	if !ok {
		return
	}
	place := b.identFor(declID)
	b.fn.AddInstruction(b.current, Operand{}, DeclareLocal{Place: NewOperand(place, EffectStore)})
	lowered := b.lowerFunctionExpr(n.Function)
	lvalue := NewOperand(place, EffectStore)
	b.fn.AddInstruction(b.current, lvalue, FunctionInstr{Lowered: lowered, IsLambda: false})
}

func (b *Builder) lowerVariableDeclaration(n *ast.VariableDeclaration) {
	if n.Kind == ast.VarKind {
		b.diag = append(b.diag, errors.UnsupportedVarDeclaration(n.NodePos()))
		return
	}
	for _, d := range n.Declarations {
		if d.Init != nil {
			val := b.lowerExpression(d.Init)
			b.bindPattern(d.ID, val)
		} else {
			b.declarePatternOnly(d.ID)
		}
	}
}

func (b *Builder) declarePatternOnly(p ast.Pattern) {
	if id, ok := p.(*ast.Identifier); ok {
		declID, ok := b.m.NodeDeclaration(id)
		if !ok {
			return
		}
		place := b.identFor(declID)
		b.fn.AddInstruction(b.current, Operand{}, DeclareLocal{Place: NewOperand(place, EffectStore)})
	}
}

// bindPattern lowers an assignment/declaration target against an
// already-evaluated value operand, emitting a direct StoreLocal for a bare
// identifier or a Destructure instruction for any nested pattern (the
// supplemented "full destructure-pattern lowering" feature).
func (b *Builder) bindPattern(p ast.Pattern, value Operand) {
	if id, ok := p.(*ast.Identifier); ok {
		declID, hasDecl := b.m.NodeDeclaration(id)
		if !hasDecl {
			declID, hasDecl = b.resolveAssignmentTarget(id)
		}
		if !hasDecl {
			return
		}
		place := b.identFor(declID)
		b.fn.AddInstruction(b.current, Operand{}, DeclareLocal{Place: NewOperand(place, EffectStore)})
		b.fn.AddInstruction(b.current, Operand{}, StoreLocal{Lvalue: NewOperand(place, EffectStore), Value: value})
		return
	}
	pattern := b.lowerDestructurePattern(p)
	b.fn.AddInstruction(b.current, Operand{}, Destructure{Pattern: pattern, Value: value})
}

func (b *Builder) resolveAssignmentTarget(id *ast.Identifier) (semantic.DeclarationID, bool) {
	refID, ok := b.m.NodeReference(id)
	if !ok {
		return 0, false
	}
	decl, ok := b.m.ResolvedReferenceDeclaration(b.m.Reference(refID))
	if !ok {
		return 0, false
	}
	return decl.ID, true
}

func (b *Builder) lowerDestructurePattern(p ast.Pattern) DestructurePattern {
	switch n := p.(type) {
	case *ast.Identifier:
		declID, ok := b.m.NodeDeclaration(n)
		if !ok {
			declID, _ = b.resolveAssignmentTarget(n)
		}
		place := b.identFor(declID)
		b.fn.AddInstruction(b.current, Operand{}, DeclareLocal{Place: NewOperand(place, EffectStore)})
		return DestructurePattern{Kind: DestructureIdentifier, Place: NewOperand(place, EffectStore)}
	case *ast.AssignmentPattern:
		inner := b.lowerDestructurePattern(n.Target)
		def := b.lowerExpression(n.Default)
		inner.Default = &def
		return inner
	case *ast.ArrayPattern:
		out := DestructurePattern{Kind: DestructureArray}
		for _, el := range n.Elements {
			if el == nil {
				out.Elements = append(out.Elements, DestructureElement{})
				continue
			}
			if rest, ok := el.(*ast.RestElement); ok {
				r := b.lowerDestructurePattern(rest.Argument)
				out.Rest = &r
				continue
			}
			sub := b.lowerDestructurePattern(el)
			out.Elements = append(out.Elements, DestructureElement{Pattern: &sub})
		}
		return out
	case *ast.ObjectPattern:
		out := DestructurePattern{Kind: DestructureObject}
		for _, prop := range n.Properties {
			sub := b.lowerDestructurePattern(prop.Value)
			out.Props = append(out.Props, DestructureProp{Key: prop.Key.Name, Pattern: sub})
		}
		return out
	case *ast.RestElement:
		return b.lowerDestructurePattern(n.Argument)
	default:
		b.errorf(errors.Unsupported, errors.ErrorUnsupportedExpression, "unsupported pattern", p.NodePos())
		return DestructurePattern{}
	}
}

// --- expressions ---

func (b *Builder) lowerExpression(e ast.Expression) Operand {
	switch n := e.(type) {
	case *ast.Identifier:
		return b.lowerIdentifier(n)
	case *ast.Literal:
		return b.lowerLiteral(n)
	case *ast.BinaryExpression:
		left := b.lowerExpression(n.Left)
		right := b.lowerExpression(n.Right)
		tmp := b.env.NewTemporary()
		return b.emit(tmp, Binary{Operator: n.Operator.String(), Left: left, Right: right})
	case *ast.LogicalExpression:
		left := b.lowerExpression(n.Left)
		right := b.lowerExpression(n.Right)
		tmp := b.env.NewTemporary()
		return b.emit(tmp, Binary{Operator: n.Operator.String(), Left: left, Right: right})
	case *ast.UnaryExpression:
		arg := b.lowerExpression(n.Argument)
		tmp := b.env.NewTemporary()
		return b.emit(tmp, Binary{Operator: "unary" + n.Operator.String(), Left: arg})
	case *ast.AssignmentExpression:
		return b.lowerAssignment(n)
	case *ast.CallExpression:
		callee := b.lowerExpression(n.Callee)
		args := make([]Operand, 0, len(n.Arguments))
		for _, a := range n.Arguments {
			if spread, ok := a.(*ast.SpreadElement); ok {
				args = append(args, b.lowerExpression(spread.Argument))
				continue
			}
			args = append(args, b.lowerExpression(a))
		}
		tmp := b.env.NewTemporary()
		return b.emit(tmp, Call{Callee: callee, Arguments: args})
	case *ast.ArrayExpression:
		elems := make([]ArrayElement, 0, len(n.Elements))
		for _, el := range n.Elements {
			if el == nil {
				continue
			}
			if spread, ok := el.(*ast.SpreadElement); ok {
				elems = append(elems, ArrayElement{Operand: b.lowerExpression(spread.Argument), Spread: true})
				continue
			}
			elems = append(elems, ArrayElement{Operand: b.lowerExpression(el)})
		}
		tmp := b.env.NewTemporary()
		return b.emit(tmp, Array{Elements: elems})
	case *ast.MemberExpression:
		// Property access has no dedicated HIR instruction in this subset;
		// model it as a Binary with the "." operator (object on the left, the
		// property name or computed key on the right) so the rest of the
		// pipeline (SSA, printer) has a single load/use shape to handle.
		obj := b.lowerExpression(n.Object)
		var prop Operand
		if n.Computed {
			prop = b.lowerExpression(n.Property)
		} else {
			id := n.Property.(*ast.Identifier)
			tmp := b.env.NewTemporary()
			prop = b.emit(tmp, PrimitiveInstr{Value: String(id.Name)})
		}
		tmp := b.env.NewTemporary()
		return b.emit(tmp, Binary{Operator: ".", Left: obj, Right: prop})
	case *ast.Function:
		lowered := b.lowerFunctionExpr(n)
		tmp := b.env.NewTemporary()
		return b.emit(tmp, FunctionInstr{Lowered: lowered, IsLambda: n.IsArrow})
	case *ast.JSXElement:
		return b.lowerJSXElement(n)
	case *ast.JSXExpressionContainer:
		return b.lowerExpression(n.Expression)
	default:
		b.errorf(errors.Unsupported, errors.ErrorUnsupportedExpression, "unsupported expression", e.NodePos())
		tmp := b.env.NewTemporary()
		return b.emit(tmp, PrimitiveInstr{Value: Undefined()})
	}
}

func (b *Builder) emit(place env.Identifier, v InstructionValue) Operand {
	lvalue := NewOperand(place, EffectStore)
	b.fn.AddInstruction(b.current, lvalue, v)
	return NewOperand(place, EffectRead)
}

func (b *Builder) lowerIdentifier(n *ast.Identifier) Operand {
	refID, ok := b.m.NodeReference(n)
	if !ok {
		tmp := b.env.NewTemporary()
		return b.emit(tmp, LoadGlobal{Name: n.Name})
	}
	ref := b.m.Reference(refID)
	decl, ok := b.m.ResolvedReferenceDeclaration(ref)
	if !ok {
		tmp := b.env.NewTemporary()
		return b.emit(tmp, LoadGlobal{Name: n.Name})
	}
	if decl.Kind == semantic.DeclGlobal {
		tmp := b.env.NewTemporary()
		return b.emit(tmp, LoadGlobal{Name: n.Name})
	}
	place := b.identFor(decl.ID)
	tmp := b.env.NewTemporary()
	if b.contextOf[decl.ID] {
		return b.emit(tmp, LoadContext{Place: NewOperand(place, EffectRead)})
	}
	return b.emit(tmp, LoadLocal{Place: NewOperand(place, EffectRead)})
}

func (b *Builder) lowerLiteral(n *ast.Literal) Operand {
	var val Primitive
	switch n.Kind {
	case ast.LiteralBoolean:
		val = Bool(n.Bool)
	case ast.LiteralNull:
		val = Null()
	case ast.LiteralNumber:
		val = Number(n.Number)
	case ast.LiteralString:
		val = String(n.Str)
	default:
		val = Undefined()
	}
	tmp := b.env.NewTemporary()
	return b.emit(tmp, PrimitiveInstr{Value: val})
}

func (b *Builder) lowerAssignment(n *ast.AssignmentExpression) Operand {
	value := b.lowerExpression(n.Value)
	if n.Operator != ast.AssignEq {
		if id, ok := n.Target.(*ast.Identifier); ok {
			current := b.lowerIdentifier(id)
			tmp := b.env.NewTemporary()
			value = b.emit(tmp, Binary{Operator: compoundOperator(n.Operator), Left: current, Right: value})
		}
	}
	b.bindPattern(n.Target, value)
	return value
}

func compoundOperator(op ast.AssignmentOperator) string {
	switch op {
	case ast.AssignAdd:
		return "+"
	case ast.AssignSub:
		return "-"
	case ast.AssignMul:
		return "*"
	case ast.AssignDiv:
		return "/"
	default:
		return "="
	}
}

func (b *Builder) lowerJSXElement(n *ast.JSXElement) Operand {
	var tag Operand
	hasTag := n.Tag != nil
	if hasTag {
		tag = b.lowerJSXTag(n.Tag)
	}
	var props []JSXProp
	for _, a := range n.Attrs {
		switch attr := a.(type) {
		case *ast.JSXAttribute:
			var v Operand
			if attr.Value != nil {
				v = b.lowerExpression(attr.Value)
			} else {
				tmp := b.env.NewTemporary()
				v = b.emit(tmp, PrimitiveInstr{Value: Bool(true)})
			}
			props = append(props, JSXProp{Name: attr.Name.Name, Value: v})
		case *ast.JSXSpreadAttribute:
			props = append(props, JSXProp{Value: b.lowerExpression(attr.Argument), Spread: true})
		}
	}
	var children []Operand
	for _, c := range n.Children {
		switch child := c.(type) {
		case ast.Expression:
			children = append(children, b.lowerExpression(child))
		}
	}
	tmp := b.env.NewTemporary()
	return b.emit(tmp, JSXElementInstr{Tag: tag, HasTag: hasTag, Props: props, Children: children})
}

// lowerJSXTag resolves a JSX tag (spec 4.B point 6): an intrinsic lowercase
// JSXIdentifier lowers to a plain string constant; a capitalized one or a
// JSXMemberExpression root lowers like any other identifier reference
// (LoadLocal/LoadContext/LoadGlobal), since the scope manager already
// produced a reference for it.
func (b *Builder) lowerJSXTag(tag ast.Expression) Operand {
	switch t := tag.(type) {
	case *ast.JSXIdentifier:
		if t.IsIntrinsic() {
			tmp := b.env.NewTemporary()
			return b.emit(tmp, PrimitiveInstr{Value: String(t.Name)})
		}
		return b.lowerJSXIdentifierAsReference(t)
	case *ast.JSXMemberExpression:
		obj := b.lowerJSXTag(t.Object)
		tmp := b.env.NewTemporary()
		prop := b.emit(tmp, PrimitiveInstr{Value: String(t.Property.Name)})
		tmp2 := b.env.NewTemporary()
		return b.emit(tmp2, Binary{Operator: ".", Left: obj, Right: prop})
	default:
		return b.lowerExpression(tag)
	}
}

// lowerJSXIdentifierAsReference mirrors lowerIdentifier for a *ast.
// JSXIdentifier, which the scope manager resolves as a reference but which
// is not an *ast.Identifier node.
func (b *Builder) lowerJSXIdentifierAsReference(n *ast.JSXIdentifier) Operand {
	refID, ok := b.m.NodeReference(n)
	if !ok {
		tmp := b.env.NewTemporary()
		return b.emit(tmp, LoadGlobal{Name: n.Name})
	}
	decl, ok := b.m.ResolvedReferenceDeclaration(b.m.Reference(refID))
	if !ok || decl.Kind == semantic.DeclGlobal {
		tmp := b.env.NewTemporary()
		return b.emit(tmp, LoadGlobal{Name: n.Name})
	}
	place := b.identFor(decl.ID)
	tmp := b.env.NewTemporary()
	if b.contextOf[decl.ID] {
		return b.emit(tmp, LoadContext{Place: NewOperand(place, EffectRead)})
	}
	return b.emit(tmp, LoadLocal{Place: NewOperand(place, EffectRead)})
}

// --- nested functions ---

// lowerFunctionExpr lowers a Function/arrow-function node into its own
// Function HIR, propagating identifiers for the free variables it captures
// (spec 4.E: "captured-context computation").
func (b *Builder) lowerFunctionExpr(n *ast.Function) *Function {
	child := &Builder{
		env:       b.env,
		m:         b.m,
		fn:        NewFunction(b.env, ""),
		declIdent: make(map[semantic.DeclarationID]env.Identifier),
		contextOf: make(map[semantic.DeclarationID]bool),
	}
	entry := child.fn.ReserveBlock(BlockEntry)
	child.fn.Entry = entry.ID
	child.current = entry
	child.fn.IsAsync = n.IsAsync
	child.fn.IsGenerator = n.IsGenerator
	child.fn.IsArrow = n.IsArrow

	for _, p := range n.Params {
		declID, ok := b.m.NodeDeclaration(firstIdentifier(p))
		if !ok {
			continue
		}
		place := child.env.NewNamedIdentifier(b.m.Declaration(declID).Name)
		child.declIdent[declID] = place
		child.fn.Params = append(child.fn.Params, place)
		child.fn.AddInstruction(entry, Operand{}, DeclareLocal{Place: NewOperand(place, EffectStore)})
	}

	if n.Body != nil {
		child.lowerStatement(n.Body)
	} else if n.ExprBody != nil {
		val := child.lowerExpression(n.ExprBody)
		child.fn.SetTerminal(child.current, Return{Value: val, HasValue: true})
	}
	child.implicitReturn()

	// Any identifier the child referenced that it did not itself declare is
	// a free variable captured from an enclosing scope: record it as a
	// context variable on both sides, alongside the outer builder's own
	// identifier for the same declaration (b.identFor), so SSA construction
	// can seed the child's reads from the parent's live value (spec 4.G
	// point 3). If b is itself nested, this also registers the capture one
	// level further up through b's own declIdent/contextOf bookkeeping.
	for declID, place := range child.declIdent {
		if isChildOwnDeclaration(b.m, n, declID) {
			continue
		}
		child.contextOf[declID] = true
		child.fn.Context = append(child.fn.Context, place)
		child.fn.ContextParent = append(child.fn.ContextParent, b.identFor(declID))
	}

	b.diag = append(b.diag, child.diag...)
	return child.fn
}

func firstIdentifier(p ast.Pattern) *ast.Identifier {
	switch n := p.(type) {
	case *ast.Identifier:
		return n
	case *ast.AssignmentPattern:
		return firstIdentifier(n.Target)
	case *ast.RestElement:
		return firstIdentifier(n.Argument)
	default:
		return nil
	}
}

// isChildOwnDeclaration reports whether decl was declared somewhere inside
// n's own scope subtree (as opposed to an enclosing scope reached via a free
// reference).
func isChildOwnDeclaration(m *semantic.ScopeManager, n *ast.Function, declID semantic.DeclarationID) bool {
	fnScope, ok := m.NodeScope(n.Body)
	if !ok {
		fnScope, ok = m.NodeScope(n.Name)
		if !ok {
			return false
		}
	}
	declScope := m.Declaration(declID).Scope
	return m.IsDescendantOf(declScope, fnScope) || declScope == fnScope
}

// implicitReturn synthesizes a bare `return;` for any block that falls off
// the end of the function body without one (spec 4.E's implicit-return
// rule).
func (b *Builder) implicitReturn() {
	if !b.terminated() {
		b.fn.SetTerminal(b.current, Return{})
	}
}
