// Package semantic implements the scope manager of spec section 4.B:
// scope/label/declaration/reference tables, hoisting, and temporal-dead-zone
// detection. Grounded on scope_manager.rs / analyzer.rs of the upstream
// "Forget" compiler.
package semantic

import "forgehir/internal/ast"

type ScopeKind int

const (
	ScopeBlock ScopeKind = iota
	ScopeCatchClause
	ScopeClass
	ScopeFor
	ScopeFunction
	ScopeGlobal
	ScopeModule
	ScopeStaticBlock
	ScopeSwitch
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeBlock:
		return "Block"
	case ScopeCatchClause:
		return "CatchClause"
	case ScopeClass:
		return "Class"
	case ScopeFor:
		return "For"
	case ScopeFunction:
		return "Function"
	case ScopeGlobal:
		return "Global"
	case ScopeModule:
		return "Module"
	case ScopeStaticBlock:
		return "StaticBlock"
	case ScopeSwitch:
		return "Switch"
	default:
		return "?"
	}
}

// hoistBoundary reports whether this scope kind is a valid hoist target for
// var/function-declaration (spec 4.B point 2).
func (k ScopeKind) hoistBoundary() bool {
	switch k {
	case ScopeFunction, ScopeGlobal, ScopeModule, ScopeStaticBlock:
		return true
	default:
		return false
	}
}

type ScopeID int
type DeclarationID int
type ReferenceID int
type LabelID int

// Scope holds an ordered (first-wins) mapping from name to declaration, plus
// the references recorded while it was the active scope.
type Scope struct {
	ID           ScopeID
	Kind         ScopeKind
	Parent       ScopeID // 0 and not meaningful for the root (Global) scope; see HasParent
	HasParent    bool
	declOrder    []string
	declarations map[string]DeclarationID
	References   []ReferenceID
}

func newScope(id, parent ScopeID, hasParent bool, kind ScopeKind) *Scope {
	return &Scope{
		ID:           id,
		Kind:         kind,
		Parent:       parent,
		HasParent:    hasParent,
		declarations: make(map[string]DeclarationID),
	}
}

// Lookup returns the first-wins declaration bound to name directly in this
// scope, if any.
func (s *Scope) Lookup(name string) (DeclarationID, bool) {
	id, ok := s.declarations[name]
	return id, ok
}

type DeclarationKind int

const (
	DeclGlobal DeclarationKind = iota
	DeclClass
	DeclConst
	DeclVar
	DeclLet
	DeclFunction
	DeclCatchClause
	DeclImport
)

func (k DeclarationKind) String() string {
	switch k {
	case DeclGlobal:
		return "Global"
	case DeclClass:
		return "Class"
	case DeclConst:
		return "Const"
	case DeclVar:
		return "Var"
	case DeclLet:
		return "Let"
	case DeclFunction:
		return "Function"
	case DeclCatchClause:
		return "CatchClause"
	case DeclImport:
		return "Import"
	default:
		return "?"
	}
}

// blockScoped reports whether kind conflicts with a coexisting var
// declaration of the same name (spec 4.B point 3).
func (k DeclarationKind) blockScoped() bool {
	switch k {
	case DeclLet, DeclConst, DeclClass, DeclImport, DeclCatchClause, DeclFunction:
		return true
	default:
		return false
	}
}

// tdzTracked reports whether a reference to this declaration before its
// textual position is a TDZ violation (spec invariant 6: const/let only).
func (k DeclarationKind) tdzTracked() bool {
	return k == DeclLet || k == DeclConst
}

type Declaration struct {
	ID    DeclarationID
	Kind  DeclarationKind
	Name  string
	Scope ScopeID
	Node  ast.Node // declaring node, nil for synthesized globals
	Pos   ast.Position
}

type ReferenceKind int

const (
	RefRead ReferenceKind = iota
	RefWrite
	RefReadWrite
)

type Reference struct {
	ID       ReferenceID
	Name     string
	Kind     ReferenceKind
	Scope    ScopeID
	Node     ast.Node
	Resolved DeclarationID
	HasDecl  bool
}

type LabelKind int

const (
	LabelLoop LabelKind = iota
	LabelOther
)

type Label struct {
	ID   LabelID
	Kind LabelKind
	Name string // empty for anonymous labels
}
