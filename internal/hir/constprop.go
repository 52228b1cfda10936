package hir

import (
	"math"

	"forgehir/internal/env"
)

// ConstantValue is the "Global-or-Primitive" sum type spec 4.J's structural
// equality operates over: either a known Primitive, or a known-constant
// global name (so LoadGlobal of the same name can still be recognized as
// "the same constant" across uses, per point 2's "Primitive / LoadGlobal:
// bind the lvalue to a Primitive/Global constant").
type ConstantValue struct {
	IsGlobal bool
	Global   string
	Prim     Primitive
}

func constPrim(p Primitive) ConstantValue  { return ConstantValue{Prim: p} }
func constGlobal(name string) ConstantValue { return ConstantValue{IsGlobal: true, Global: name} }

func (c ConstantValue) equal(o ConstantValue) bool {
	if c.IsGlobal != o.IsGlobal {
		return false
	}
	if c.IsGlobal {
		return c.Global == o.Global
	}
	return c.Prim.StructurallyEqual(o.Prim)
}

// PropagateConstants runs the fixpoint loop of spec 4.J: evaluate phis and
// instructions under an accumulating identifier->ConstantValue map, rewrite
// what can be rewritten, fold constant If tests to Goto, and whenever a
// terminal changed, re-initialize/prune/merge before looping again. e is
// used for no fresh allocation here (constant folding never needs new ids)
// but is threaded through for the recursive descent into nested functions.
func PropagateConstants(e *env.Environment, fn *Function) {
	for {
		constants := map[int]ConstantValue{}
		terminalChanged := false

		for _, blockID := range fn.Order {
			block := fn.Blocks[blockID]

			for _, phi := range block.Phis {
				if v, ok := phiConstant(phi, constants); ok {
					constants[phi.Target.ID] = v
				}
			}

			for i, instrID := range block.Instructions {
				isLast := block.Kind == BlockValue && i == len(block.Instructions)-1
				evaluateInstruction(e, fn.Instruction(instrID), constants, isLast)
			}

			if changed := rewriteIfTerminal(fn, block, constants); changed {
				terminalChanged = true
			}
		}

		if !terminalChanged {
			return
		}

		Initialize(fn)
		prunePhiOperands(fn)
		eliminateRedundantPhis(fn)
		mergeStraightLineBlocks(fn)
	}
}

func phiConstant(phi *Phi, constants map[int]ConstantValue) (ConstantValue, bool) {
	if len(phi.Operands) == 0 {
		return ConstantValue{}, false
	}
	var result ConstantValue
	set := false
	for _, operand := range phi.Operands {
		v, ok := constants[operand.ID]
		if !ok {
			return ConstantValue{}, false
		}
		if !set {
			result = v
			set = true
		} else if !v.equal(result) {
			return ConstantValue{}, false
		}
	}
	return result, true
}

// evaluateInstruction evaluates and possibly rewrites instr in place.
// isLastOfSequence skips the rewriting half (but not constant-recording) of
// LoadLocal/Binary for the final instruction of a value (BlockValue) block,
// since folding it early
// could reorder an observable side effect past the block's terminal.
func evaluateInstruction(e *env.Environment, instr *Instruction, constants map[int]ConstantValue, isLastOfSequence bool) {
	switch v := instr.Value.(type) {
	case PrimitiveInstr:
		constants[instr.Lvalue.Identifier.ID] = constPrim(v.Value)
	case LoadGlobal:
		constants[instr.Lvalue.Identifier.ID] = constGlobal(v.Name)
	case LoadLocal:
		if c, ok := constants[v.Place.Identifier.ID]; ok {
			constants[instr.Lvalue.Identifier.ID] = c
			if !isLastOfSequence {
				instr.Value = rewriteAsConstant(c)
			}
		}
	case StoreLocal:
		if c, ok := constants[v.Value.Identifier.ID]; ok {
			constants[instr.Lvalue.Identifier.ID] = c
		}
	case Binary:
		if result, ok := evalBinary(v, constants); ok {
			constants[instr.Lvalue.Identifier.ID] = result
			if !isLastOfSequence {
				instr.Value = rewriteAsConstant(result)
			}
		}
	case FunctionInstr:
		if v.Lowered != nil {
			PropagateConstants(e, v.Lowered)
		}
	}
}

func rewriteAsConstant(c ConstantValue) InstructionValue {
	if c.IsGlobal {
		return LoadGlobal{Name: c.Global}
	}
	return PrimitiveInstr{Value: c.Prim}
}

// evalBinary implements the exact ECMAScript-subset semantics spec 4.J names:
// arithmetic/comparison on two Numbers, and strict/loose equality on any two
// primitives when the answer is unambiguous.
func evalBinary(b Binary, constants map[int]ConstantValue) (ConstantValue, bool) {
	left, ok := constants[b.Left.Identifier.ID]
	if !ok || left.IsGlobal {
		return ConstantValue{}, false
	}
	if b.Operator == "===" || b.Operator == "!==" || b.Operator == "==" || b.Operator == "!=" {
		right, ok := constants[b.Right.Identifier.ID]
		if !ok {
			return ConstantValue{}, false
		}
		if left.IsGlobal || right.IsGlobal {
			// equality against a global identity isn't foldable here.
			return ConstantValue{}, false
		}
		var eq bool
		if b.Operator == "===" || b.Operator == "!==" {
			eq = StrictEquals(left.Prim, right.Prim)
		} else {
			eq = LooseEquals(left.Prim, right.Prim)
		}
		if b.Operator == "!==" || b.Operator == "!=" {
			eq = !eq
		}
		return constPrim(Bool(eq)), true
	}

	right, ok := constants[b.Right.Identifier.ID]
	if !ok || right.IsGlobal {
		return ConstantValue{}, false
	}
	if left.Prim.Kind != PrimNumber || right.Prim.Kind != PrimNumber {
		return ConstantValue{}, false
	}
	l, r := left.Prim.Number, right.Prim.Number
	switch b.Operator {
	case "+":
		return constPrim(Number(l + r)), true
	case "-":
		return constPrim(Number(l - r)), true
	case "*":
		return constPrim(Number(l * r)), true
	case "/":
		return constPrim(Number(l / r)), true
	case "%":
		return constPrim(Number(math.Mod(l, r))), true
	case "<":
		return constPrim(Bool(l < r)), true
	case "<=":
		return constPrim(Bool(l <= r)), true
	case ">":
		return constPrim(Bool(l > r)), true
	case ">=":
		return constPrim(Bool(l >= r)), true
	default:
		return ConstantValue{}, false
	}
}

func rewriteIfTerminal(fn *Function, block *BasicBlock, constants map[int]ConstantValue) bool {
	ifTerm, ok := block.Terminal.Value.(If)
	if !ok {
		return false
	}
	c, ok := constants[ifTerm.Test.Identifier.ID]
	if !ok || c.IsGlobal {
		return false
	}
	target := ifTerm.Alternate
	if c.Prim.Truthy() {
		target = ifTerm.Consequent
	}
	block.Terminal = Terminal{ID: block.Terminal.ID, Value: Goto{Block: target, Kind: GotoPlain}}
	return true
}

// prunePhiOperands drops phi operands whose key is no longer among the
// block's live predecessors, typically left behind after Initialize pruned
// an unreachable block.
func prunePhiOperands(fn *Function) {
	for _, block := range fn.Blocks {
		for _, phi := range block.Phis {
			for pred := range phi.Operands {
				if !block.Predecessors[pred] {
					delete(phi.Operands, pred)
				}
			}
		}
	}
}

// eliminateRedundantPhis replaces a phi whose operands all reduce to the
// same identifier (or to the phi's own target) with that identifier,
// iterating to a fixpoint since eliminating one phi can make another
// trivial.
func eliminateRedundantPhis(fn *Function) {
	for {
		replaced := map[int]int{} // phi target id -> replacement id
		for _, block := range fn.Blocks {
			kept := block.Phis[:0]
			for _, phi := range block.Phis {
				if same, ok := trivialPhiValue(phi); ok {
					replaced[phi.Target.ID] = same
					continue
				}
				kept = append(kept, phi)
			}
			block.Phis = kept
		}
		if len(replaced) == 0 {
			return
		}
		for _, instr := range fn.Instructions {
			if instr == nil {
				continue
			}
			rewriteOperandIdentifiers(instr, replaced)
		}
		for _, block := range fn.Blocks {
			for _, phi := range block.Phis {
				for pred, op := range phi.Operands {
					if newID, ok := replaced[op.ID]; ok {
						op.ID = newID
						phi.Operands[pred] = op
					}
				}
			}
		}
	}
}

func trivialPhiValue(phi *Phi) (int, bool) {
	var only int
	first := true
	for _, op := range phi.Operands {
		if op.ID == phi.Target.ID {
			continue // self-reference doesn't count
		}
		if first {
			only = op.ID
			first = false
			continue
		}
		if op.ID != only {
			return 0, false
		}
	}
	if first {
		return 0, false
	}
	return only, true
}

// rewriteOperandIdentifiers applies replaced (old identifier id -> new id)
// to every operand an instruction reads, in place.
func rewriteOperandIdentifiers(instr *Instruction, replaced map[int]int) {
	switch v := instr.Value.(type) {
	case LoadLocal:
		remapID(&v.Place.Identifier.ID, replaced)
		instr.Value = v
	case LoadContext:
		remapID(&v.Place.Identifier.ID, replaced)
		instr.Value = v
	case StoreLocal:
		remapID(&v.Value.Identifier.ID, replaced)
		instr.Value = v
	case Binary:
		remapID(&v.Left.Identifier.ID, replaced)
		remapID(&v.Right.Identifier.ID, replaced)
		instr.Value = v
	case Call:
		remapID(&v.Callee.Identifier.ID, replaced)
		for i := range v.Arguments {
			remapID(&v.Arguments[i].Identifier.ID, replaced)
		}
		instr.Value = v
	case Array:
		for i := range v.Elements {
			remapID(&v.Elements[i].Operand.Identifier.ID, replaced)
		}
		instr.Value = v
	}
}

func remapID(id *int, replaced map[int]int) {
	if newID, ok := replaced[*id]; ok {
		*id = newID
	}
}

// mergeStraightLineBlocks merges a block whose only outgoing edge is a Goto
// into a block with exactly one predecessor, folding the successor's
// instructions and terminal into the predecessor and dropping the successor.
func mergeStraightLineBlocks(fn *Function) {
	for {
		merged := false
		for _, id := range fn.Order {
			block, ok := fn.Blocks[id]
			if !ok {
				continue
			}
			g, ok := block.Terminal.Value.(Goto)
			if !ok || g.Kind != GotoPlain {
				continue
			}
			target, ok := fn.Blocks[g.Block]
			if !ok || target.ID == block.ID || len(target.Predecessors) != 1 {
				continue
			}
			block.Instructions = append(block.Instructions, target.Instructions...)
			block.Phis = append(block.Phis, target.Phis...)
			block.Terminal = target.Terminal
			delete(fn.Blocks, target.ID)
			merged = true
		}
		if !merged {
			return
		}
		Initialize(fn)
	}
}
