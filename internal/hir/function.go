package hir

import "forgehir/internal/env"

// Function is a fully lowered HIR function: a CFG of BasicBlocks sharing one
// Instruction table, plus its parameter/context-variable identifiers (spec
// 4.D's "Function HIR").
type Function struct {
	Name          string
	Entry         int
	Blocks        map[int]*BasicBlock
	Instructions  []*Instruction
	Params        []env.Identifier
	Context       []env.Identifier // identifiers captured from an enclosing function
	ContextParent []env.Identifier // the enclosing function's own identifier for each Context entry, same order
	IsAsync       bool
	IsGenerator   bool
	IsArrow       bool

	// Order is the deterministic reverse-postorder block traversal computed
	// by Initialize (component F); nil until Initialize has run at least
	// once.
	Order []int

	env *env.Environment
}

// NewFunction creates an empty function HIR sharing identifier/block/
// instruction id allocation with env (spec 4.C: ids are never reused across
// a compilation).
func NewFunction(e *env.Environment, name string) *Function {
	return &Function{
		Name:   name,
		Blocks: make(map[int]*BasicBlock),
		env:    e,
	}
}

// ReserveBlock allocates a fresh, empty, unattached block id without linking
// it into any predecessor — the builder links it in once its contents are
// known (spec 4.E's block-lifecycle contract).
func (f *Function) ReserveBlock(kind BlockKind) *BasicBlock {
	id := f.env.NextBlockID()
	b := newBasicBlock(id, kind)
	f.Blocks[id] = b
	return b
}

// AddInstruction appends instr to block's instruction list and records it in
// the shared instruction table, returning its id.
func (f *Function) AddInstruction(block *BasicBlock, lvalue Operand, value InstructionValue) int {
	id := f.env.NextInstructionID()
	for len(f.Instructions) <= id {
		f.Instructions = append(f.Instructions, nil)
	}
	f.Instructions[id] = &Instruction{ID: id, Lvalue: lvalue, Value: value}
	block.Instructions = append(block.Instructions, id)
	return id
}

// Instruction looks up an instruction by id.
func (f *Function) Instruction(id int) *Instruction { return f.Instructions[id] }

// SetTerminal finalizes block's terminal and links every successor block's
// predecessor set (spec 4.E: a block's predecessors are only known once
// something terminates into it).
func (f *Function) SetTerminal(block *BasicBlock, value TerminalValue) {
	id := f.env.NextInstructionID()
	block.Terminal = Terminal{ID: id, Value: value}
	block.hasTerminal = true
	EachTerminalSuccessor(value, func(succ int) {
		f.Blocks[succ].addPredecessor(block.ID)
	})
}

// Tombstone replaces an instruction's value in place to neutralize a dead
// instruction without compacting ids. Constant propagation and
// redundant-phi elimination (spec 4.J) do not call it: the first rewrites
// instructions in place and the second remaps identifier ids.
func (f *Function) Tombstone(id int) {
	f.Instructions[id].Value = Tombstone{}
}
