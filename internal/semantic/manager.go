package semantic

import (
	"forgehir/internal/ast"
	"forgehir/internal/errors"
)

// ScopeManager is the result of Analyze: the full scope/declaration/
// reference/label table set plus pointer-identity lookups keyed by AST node,
// per spec 4.B's public contract.
type ScopeManager struct {
	scopes       []*Scope
	declarations []Declaration
	references   []Reference
	labels       []Label

	nodeScope       map[ast.Node]ScopeID
	nodeDeclaration map[ast.Node]DeclarationID
	nodeReference   map[ast.Node]ReferenceID
	nodeLabel       map[ast.Node]LabelID
	breakLabel      map[ast.Node]LabelID
	continueLabel   map[ast.Node]LabelID

	Diagnostics []errors.CompilerError
}

func newManager() *ScopeManager {
	return &ScopeManager{
		nodeScope:       make(map[ast.Node]ScopeID),
		nodeDeclaration: make(map[ast.Node]DeclarationID),
		nodeReference:   make(map[ast.Node]ReferenceID),
		nodeLabel:       make(map[ast.Node]LabelID),
		breakLabel:      make(map[ast.Node]LabelID),
		continueLabel:   make(map[ast.Node]LabelID),
	}
}

func (m *ScopeManager) Scope(id ScopeID) *Scope            { return m.scopes[id] }
func (m *ScopeManager) Declaration(id DeclarationID) Declaration { return m.declarations[id] }
func (m *ScopeManager) Reference(id ReferenceID) Reference  { return m.references[id] }
func (m *ScopeManager) Label(id LabelID) Label              { return m.labels[id] }

func (m *ScopeManager) NodeScope(n ast.Node) (ScopeID, bool)       { id, ok := m.nodeScope[n]; return id, ok }
func (m *ScopeManager) NodeDeclaration(n ast.Node) (DeclarationID, bool) {
	id, ok := m.nodeDeclaration[n]
	return id, ok
}
func (m *ScopeManager) NodeReference(n ast.Node) (ReferenceID, bool) {
	id, ok := m.nodeReference[n]
	return id, ok
}
func (m *ScopeManager) NodeLabel(n ast.Node) (LabelID, bool) { id, ok := m.nodeLabel[n]; return id, ok }
func (m *ScopeManager) BreakLabel(n ast.Node) (LabelID, bool) {
	id, ok := m.breakLabel[n]
	return id, ok
}
func (m *ScopeManager) ContinueLabel(n ast.Node) (LabelID, bool) {
	id, ok := m.continueLabel[n]
	return id, ok
}

// IsDescendantOf walks a's parent chain looking for b.
func (m *ScopeManager) IsDescendantOf(a, b ScopeID) bool {
	cur := a
	for {
		if cur == b {
			return true
		}
		s := m.scopes[cur]
		if !s.HasParent {
			return false
		}
		cur = s.Parent
	}
}

func (m *ScopeManager) newScope(parent ScopeID, hasParent bool, kind ScopeKind) ScopeID {
	id := ScopeID(len(m.scopes))
	m.scopes = append(m.scopes, newScope(id, parent, hasParent, kind))
	return id
}

// ResolvedReferenceDeclaration resolves a reference's declaration, if any.
func (m *ScopeManager) ResolvedReferenceDeclaration(r Reference) (Declaration, bool) {
	if !r.HasDecl {
		return Declaration{}, false
	}
	return m.declarations[r.Resolved], true
}

// --- declaration insertion (spec 4.B points 2-3) ---

// getScopeForDeclaration computes the hoist target for kind starting at
// scope: current scope for block-scoped kinds, nearest hoist boundary for
// var/function.
func (m *ScopeManager) getScopeForDeclaration(scope ScopeID, kind DeclarationKind) ScopeID {
	if kind != DeclVar && kind != DeclFunction {
		return scope
	}
	cur := scope
	for {
		s := m.scopes[cur]
		if s.Kind.hoistBoundary() {
			return cur
		}
		if !s.HasParent {
			return cur
		}
		cur = s.Parent
	}
}

func (m *ScopeManager) addDeclaration(scope ScopeID, kind DeclarationKind, name string, node ast.Node, pos ast.Position) DeclarationID {
	target := m.getScopeForDeclaration(scope, kind)
	targetScope := m.scopes[target]

	// A var hoists past any block scopes between scope and target, but spec
	// 4.B point 3 still forbids it from coexisting with a block-scoped
	// binding of the same name wherever that binding sits - the scope the
	// var statement itself occupies (e.g. `{ let x; var x; }`, where target
	// is the enclosing hoist boundary and never sees the let at all), or the
	// hoist target it lands in (checked below).
	if kind == DeclVar && scope != target {
		if originID, ok := m.scopes[scope].Lookup(name); ok {
			if origin := m.declarations[originID]; origin.Kind.blockScoped() {
				m.Diagnostics = append(m.Diagnostics, errors.VarBlockScopeConflict(name, pos))
			}
		}
	}

	if existingID, ok := targetScope.Lookup(name); ok {
		existing := m.declarations[existingID]
		switch {
		case kind == DeclVar && existing.Kind == DeclVar:
			// var re-declaring var: equivalent to assignment, no new id.
			return existingID
		case kind == DeclVar && existing.Kind.blockScoped():
			m.Diagnostics = append(m.Diagnostics, errors.VarBlockScopeConflict(name, pos))
			return existingID
		case kind.blockScoped() && existing.Kind == DeclVar:
			m.Diagnostics = append(m.Diagnostics, errors.VarBlockScopeConflict(name, pos))
			return existingID
		default:
			m.Diagnostics = append(m.Diagnostics, errors.DuplicateDeclaration(name, pos, existing.Pos))
			return existingID
		}
	}

	id := DeclarationID(len(m.declarations))
	m.declarations = append(m.declarations, Declaration{ID: id, Kind: kind, Name: name, Scope: target, Node: node, Pos: pos})
	targetScope.declarations[name] = id
	targetScope.declOrder = append(targetScope.declOrder, name)
	if node != nil {
		m.nodeDeclaration[node] = id
	}
	return id
}

// unresolvedReference is recorded during the single forward AST walk and
// resolved in the completion pass (spec 4.B point 1's two-pass design).
type unresolvedReference struct {
	id       ReferenceID
	scope    ScopeID
	tdzLimit DeclarationID // snapshot of len(declarations) at reference time
}

// addReference queues a reference for later resolution.
func (m *ScopeManager) addReference(scope ScopeID, name string, kind ReferenceKind, node ast.Node) unresolvedReference {
	id := ReferenceID(len(m.references))
	m.references = append(m.references, Reference{ID: id, Name: name, Kind: kind, Scope: scope, Node: node})
	m.scopes[scope].References = append(m.scopes[scope].References, id)
	if node != nil {
		m.nodeReference[node] = id
	}
	return unresolvedReference{id: id, scope: scope, tdzLimit: DeclarationID(len(m.declarations))}
}

// resolve performs spec 4.B point 4's lookup: walk scope parents; within a
// single function scope a reference to a let/const whose declaration id is
// >= the tdzLimit snapshot is a TDZ violation; crossing a Function scope
// boundary disables the TDZ check (a nested function may legally reference
// an enclosing let/const declared later).
func (m *ScopeManager) resolve(u unresolvedReference) {
	ref := m.references[u.id]
	tdzActive := true
	cur := u.scope
	for {
		s := m.scopes[cur]
		if declID, ok := s.Lookup(ref.Name); ok {
			decl := m.declarations[declID]
			if tdzActive && decl.Kind.tdzTracked() && declID >= u.tdzLimit {
				m.Diagnostics = append(m.Diagnostics, errors.TDZViolation(ref.Name, ref.Node.NodePos()))
				return
			}
			m.references[u.id].Resolved = declID
			m.references[u.id].HasDecl = true
			return
		}
		if s.Kind == ScopeFunction {
			tdzActive = false
		}
		if !s.HasParent {
			// Unresolved even at Global scope: treated as an implicit
			// global reference (HIR builder lowers it to LoadGlobal), but
			// flagged so strict tooling can surface it.
			m.Diagnostics = append(m.Diagnostics, errors.UndefinedVariable(ref.Name, ref.Node.NodePos()))
			return
		}
		cur = s.Parent
	}
}
