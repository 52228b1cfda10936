// Package env implements the Environment: the process-wide-per-compilation
// counter supplier described by spec section 4.C.
package env

import (
	"sync/atomic"

	"github.com/segmentio/ksuid"
)

// Identifier is the SSA/HIR identifier described by spec section 3: a unique
// numeric id, an optional source name, and shared mutable metadata. Every
// operand that references the same logical variable shares the same
// *IdentifierData pointer so updates to MutableRange are observed by all of
// them, per the "Cyclic identifier metadata" design note (section 9).
type Identifier struct {
	ID   int
	Name string // empty for temporaries
	Data *IdentifierData
}

// IdentifierData is the interior-mutability cell shared by every Identifier
// value that denotes the same logical variable.
type IdentifierData struct {
	MutableRangeStart int
	MutableRangeEnd   int
	ReactiveScopeID   int // 0 when unassigned; later-pass concern, not written by this core
	TypeSlot          int // 0 when unassigned
}

func newIdentifierData() *IdentifierData {
	return &IdentifierData{}
}

// Environment owns the id counters for a single top-level compilation. Ids
// handed out from the same Environment are unique within that Environment;
// Environment must not be shared across goroutines without external
// synchronization (spec section 5).
type Environment struct {
	identifierCounter int64
	blockCounter      int64
	instructionCounter int64
	typeVarCounter    int64

	// CompilationID is a sortable, collision-resistant identity for this
	// compilation. Diagnostics and printed HIR do not include it.
	CompilationID ksuid.KSUID
}

func NewEnvironment() *Environment {
	return &Environment{CompilationID: ksuid.New()}
}

func (e *Environment) NextIdentifierID() int {
	return int(atomic.AddInt64(&e.identifierCounter, 1))
}

func (e *Environment) NextBlockID() int {
	return int(atomic.AddInt64(&e.blockCounter, 1))
}

func (e *Environment) NextInstructionID() int {
	return int(atomic.AddInt64(&e.instructionCounter, 1))
}

func (e *Environment) NextTypeVarID() int {
	return int(atomic.AddInt64(&e.typeVarCounter, 1))
}

// NewTemporary creates a fresh anonymous identifier with a fresh id and
// empty metadata.
func (e *Environment) NewTemporary() Identifier {
	return Identifier{ID: e.NextIdentifierID(), Data: newIdentifierData()}
}

// NewNamedIdentifier materializes an Identifier for a declared or referenced
// variable name, backing `resolve_variable_declaration`/
// `resolve_variable_reference` (spec 4.C): a thin wrapper that stamps a fresh
// id and fresh metadata onto a name.
func (e *Environment) NewNamedIdentifier(name string) Identifier {
	return Identifier{ID: e.NextIdentifierID(), Name: name, Data: newIdentifierData()}
}
