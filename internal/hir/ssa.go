package hir

import "forgehir/internal/env"

// ssaBuilder implements Braun-style on-demand SSA construction (spec 4.G):
// each declared place keeps its original identifier as a "variable" name,
// and reading a variable in a block resolves, recursively through
// predecessors, to whichever identifier currently represents it — inserting
// an incomplete phi when the block isn't sealed yet, and completing it once
// every predecessor has been processed.
type ssaBuilder struct {
	fn     *Function
	env    *env.Environment
	currentDef     map[int]map[int]env.Identifier // variable id -> block id -> value
	incompletePhis map[int]map[int]*Phi           // block id -> variable id -> phi
	sealed         map[int]bool
	filled         map[int]bool
}

// ConstructSSA runs SSA construction over fn and recursively over every
// nested function embedded via a FunctionInstr (spec 4.G: "recursive descent
// into nested Function instructions, propagating context variables").
// fn must already have been through Initialize at least once so Order and
// Predecessors are current.
func ConstructSSA(e *env.Environment, fn *Function) {
	constructSSA(e, fn, nil)
}

// constructSSA runs SSA construction over fn, pre-seeding currentDef at the
// entry block for each (varID -> value) pair in seed before renaming begins.
// The recursive descent into nested functions below uses this to hand a
// child function the parent's currently-live SSA identifier for each
// variable the child captures as context.
func constructSSA(e *env.Environment, fn *Function, seed map[int]env.Identifier) {
	s := &ssaBuilder{
		fn:             fn,
		env:            e,
		currentDef:     map[int]map[int]env.Identifier{},
		incompletePhis: map[int]map[int]*Phi{},
		sealed:         map[int]bool{},
		filled:         map[int]bool{},
	}
	for varID, val := range seed {
		s.writeVariable(varID, fn.Entry, val)
	}
	s.run()
}

func (s *ssaBuilder) run() {
	for _, blockID := range s.fn.Order {
		s.sealIfPossible(blockID)
		s.renameBlock(s.fn.Blocks[blockID])
		s.filled[blockID] = true
	}
	// Loop headers are sealed here: their back-edge predecessor is only
	// filled once the loop body has been processed, which happens later in
	// RPO order than the header itself.
	for _, blockID := range s.fn.Order {
		s.sealIfPossible(blockID)
	}

	for _, block := range s.fn.Blocks {
		for _, instrID := range block.Instructions {
			instr := s.fn.Instruction(instrID)
			if call, ok := instr.Value.(FunctionInstr); ok && call.Lowered != nil {
				Initialize(call.Lowered)
				seed := map[int]env.Identifier{}
				for i, ctxPlace := range call.Lowered.Context {
					if i >= len(call.Lowered.ContextParent) {
						break
					}
					parentPlace := call.Lowered.ContextParent[i]
					seed[ctxPlace.ID] = s.readVariable(parentPlace.ID, block.ID)
				}
				constructSSA(s.env, call.Lowered, seed)
			}
		}
	}
}

func (s *ssaBuilder) sealIfPossible(blockID int) {
	if s.sealed[blockID] {
		return
	}
	block := s.fn.Blocks[blockID]
	for pred := range block.Predecessors {
		if !s.filled[pred] {
			return
		}
	}
	s.seal(blockID)
}

func (s *ssaBuilder) seal(blockID int) {
	s.sealed[blockID] = true
	for varID, phi := range s.incompletePhis[blockID] {
		s.addPhiOperands(varID, blockID, phi)
	}
	delete(s.incompletePhis, blockID)
}

func (s *ssaBuilder) renameBlock(block *BasicBlock) {
	for _, instrID := range block.Instructions {
		instr := s.fn.Instruction(instrID)
		switch v := instr.Value.(type) {
		case DeclareLocal:
			s.writeVariable(v.Place.Identifier.ID, block.ID, v.Place.Identifier)
		case DeclareContext:
			s.writeVariable(v.Place.Identifier.ID, block.ID, v.Place.Identifier)
		case StoreLocal:
			s.writeVariable(v.Lvalue.Identifier.ID, block.ID, v.Value.Identifier)
		case LoadLocal:
			resolved := s.readVariable(v.Place.Identifier.ID, block.ID)
			instr.Value = LoadLocal{Place: NewOperand(resolved, EffectRead)}
		case LoadContext:
			resolved := s.readVariable(v.Place.Identifier.ID, block.ID)
			instr.Value = LoadContext{Place: NewOperand(resolved, EffectRead)}
		case Destructure:
			EachOperandStore(v, func(place Operand) {
				s.writeVariable(place.Identifier.ID, block.ID, place.Identifier)
			})
		}
	}
}

func (s *ssaBuilder) writeVariable(varID, blockID int, value env.Identifier) {
	if s.currentDef[varID] == nil {
		s.currentDef[varID] = map[int]env.Identifier{}
	}
	s.currentDef[varID][blockID] = value
}

// readVariable implements spec 4.G's get_id_at 5-branch algorithm:
//  1. already defined locally -> return it
//  2. block unsealed -> create an incomplete phi placeholder
//  3. block has exactly one predecessor -> recurse into it directly
//  4. block has zero predecessors -> this is the function entry reading an
//     undeclared variable; treat as Undefined (should not occur for a
//     correctly-scoped program, since the builder always emits DeclareLocal
//     before any LoadLocal of the same place)
//  5. block has multiple predecessors -> create an empty phi, record it
//     immediately (to break cycles through loops), then fill its operands
func (s *ssaBuilder) readVariable(varID, blockID int) env.Identifier {
	if def, ok := s.currentDef[varID][blockID]; ok {
		return def
	}
	return s.readVariableRecursive(varID, blockID)
}

func (s *ssaBuilder) readVariableRecursive(varID, blockID int) env.Identifier {
	block := s.fn.Blocks[blockID]
	var val env.Identifier

	switch {
	case !s.sealed[blockID]:
		val = s.env.NewTemporary()
		phi := newPhi(val)
		block.Phis = append(block.Phis, phi)
		if s.incompletePhis[blockID] == nil {
			s.incompletePhis[blockID] = map[int]*Phi{}
		}
		s.incompletePhis[blockID][varID] = phi
	case len(block.Predecessors) == 1:
		var pred int
		for p := range block.Predecessors {
			pred = p
		}
		val = s.readVariable(varID, pred)
	case len(block.Predecessors) == 0:
		val = s.env.NewTemporary()
	default:
		val = s.env.NewTemporary()
		phi := newPhi(val)
		block.Phis = append(block.Phis, phi)
		s.writeVariable(varID, blockID, val)
		val = s.addPhiOperands(varID, blockID, phi)
	}

	s.writeVariable(varID, blockID, val)
	return val
}

func (s *ssaBuilder) addPhiOperands(varID, blockID int, phi *Phi) env.Identifier {
	block := s.fn.Blocks[blockID]
	for pred := range block.Predecessors {
		phi.Operands[pred] = s.readVariable(varID, pred)
	}
	return phi.Target
}
