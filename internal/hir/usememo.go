package hir

import (
	"sort"

	"forgehir/internal/ast"
	"forgehir/internal/env"
	"forgehir/internal/errors"
)

// InlineUseMemo recognizes `useMemo(() => { ... })` calls and splices the
// lambda body into the outer CFG via a Label terminal, per spec 4.I. It
// repeats full-function scans until one makes no change (multiple/nested
// useMemo calls in the same function), then recurses into every remaining
// embedded Function instruction so nested closures get the same treatment.
func InlineUseMemo(e *env.Environment, fn *Function) []errors.CompilerError {
	var diags []errors.CompilerError
	anyInlined := false
	for {
		changed, d := inlineOnePass(e, fn)
		diags = append(diags, d...)
		if !changed {
			break
		}
		anyInlined = true
	}
	if anyInlined {
		// Spec 4.I step 5: after processing the whole function, re-initialize
		// HIR and re-run SSA so Order/predecessors pick up the merged blocks
		// and every LoadLocal/LoadContext resolves against the rebuilt
		// def-use chains. ConstructSSA isn't idempotent (a LoadLocal already
		// rewritten to a resolved identifier has no matching currentDef on a
		// second pass), so this only runs when inlining actually touched fn.
		Initialize(fn)
		ConstructSSA(e, fn)
	}
	for _, instr := range fn.Instructions {
		if instr == nil {
			continue
		}
		if call, ok := instr.Value.(FunctionInstr); ok && call.Lowered != nil {
			diags = append(diags, InlineUseMemo(e, call.Lowered)...)
		}
	}
	return diags
}

func inlineOnePass(e *env.Environment, fn *Function) (bool, []errors.CompilerError) {
	producer := map[int]*Instruction{}
	for _, instr := range fn.Instructions {
		if instr != nil {
			producer[instr.Lvalue.Identifier.ID] = instr
		}
	}

	var ids []int
	for id := range fn.Blocks {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		block, ok := fn.Blocks[id]
		if !ok {
			continue
		}
		for idx, instrID := range block.Instructions {
			instr := fn.Instruction(instrID)
			call, ok := instr.Value.(Call)
			if !ok {
				continue
			}
			calleeInstr, ok := producer[call.Callee.Identifier.ID]
			if !ok {
				continue
			}
			lg, ok := calleeInstr.Value.(LoadGlobal)
			if !ok || lg.Name != "useMemo" {
				continue
			}
			if len(call.Arguments) == 0 {
				continue
			}
			argInstr, ok := producer[call.Arguments[0].Identifier.ID]
			if !ok {
				continue
			}
			fnInstr, ok := argInstr.Value.(FunctionInstr)
			if !ok || !fnInstr.IsLambda {
				continue
			}
			lowered := fnInstr.Lowered
			if len(lowered.Params) > 0 || lowered.IsAsync || lowered.IsGenerator {
				// The HIR layer has no direct AST position for a Call
				// instruction (positions live one layer up, on the AST), so
				// this diagnostic carries a zero position.
				return false, []errors.CompilerError{errors.UseMemoBadLambda("lambda must take no parameters and be a plain arrow function", ast.Position{})}
			}
			inlineCall(e, fn, block, idx, instrID, lowered)
			return true, nil
		}
	}
	return false, nil
}

// inlineCall performs the five-step rewrite of spec 4.I for one qualifying
// Call at block.Instructions[idx] (instruction id instrID).
func inlineCall(e *env.Environment, fn *Function, block *BasicBlock, idx int, instrID int, lowered *Function) {
	t := e.NewTemporary()

	// Step 2: replace the Call in place, preserving its instruction id.
	fn.Instructions[instrID].Value = LoadLocal{Place: NewOperand(t, EffectRead)}

	// Step 3: move the lambda's body, rewriting each Return into a store
	// into t followed by a break-goto to the continuation.
	continuation := fn.ReserveBlock(BlockBlock)
	for bid, lblock := range lowered.Blocks {
		if ret, ok := lblock.Terminal.Value.(Return); ok {
			var value Operand
			if ret.HasValue {
				value = ret.Value
			} else {
				tmp := e.NewTemporary()
				lowered.AddInstruction(lblock, NewOperand(tmp, EffectStore), PrimitiveInstr{Value: Undefined()})
				value = NewOperand(tmp, EffectRead)
			}
			lowered.AddInstruction(lblock, Operand{}, StoreLocal{Lvalue: NewOperand(t, EffectStore), Value: value})
			lblock.Terminal = Terminal{ID: lblock.Terminal.ID, Value: Goto{Block: continuation.ID, Kind: GotoBreak}}
		}
		fn.Blocks[bid] = lblock
	}
	lowered.Blocks[lowered.Entry].Kind = BlockValue

	// The moved blocks still only reference their instruction ids through
	// lowered.Instructions; merge that table into fn's so fn.Instruction
	// resolves them too (ids are already globally unique - spec 4.I step 3).
	for id, li := range lowered.Instructions {
		if li == nil {
			continue
		}
		for len(fn.Instructions) <= id {
			fn.Instructions = append(fn.Instructions, nil)
		}
		fn.Instructions[id] = li
	}

	// Step 4: split the block at the call site. Everything from idx onward
	// (the converted LoadLocal included) becomes the continuation, since its
	// value is only available once the inlined body has run.
	continuation.Instructions = append([]int(nil), block.Instructions[idx:]...)
	continuation.Terminal = block.Terminal
	block.Instructions = append([]int(nil), block.Instructions[:idx]...)

	fn.AddInstruction(block, Operand{}, DeclareLocal{Place: NewOperand(t, EffectStore)})
	block.hasTerminal = false
	fn.SetTerminal(block, Label{Block: lowered.Entry, Fallthrough: continuation.ID})

	EachTerminalSuccessor(continuation.Terminal.Value, func(s int) {
		if target, ok := fn.Blocks[s]; ok {
			target.addPredecessor(continuation.ID)
		}
	})
}
