package hir

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Print renders fn in spec 4.K's deterministic textual form: a header with
// name/parameters, the entry block id, then each block in Order with its
// kind, predecessor list, phi lines, instruction lines, and terminal line.
// Nested Function instructions print their inner function indented by six
// spaces. This is the stable test oracle for the whole pipeline.
func Print(fn *Function) string {
	var b strings.Builder
	printFunction(&b, fn, 0)
	return b.String()
}

func printFunction(b *strings.Builder, fn *Function, indent int) {
	pad := strings.Repeat(" ", indent)
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = identName(p.ID, p.Name)
	}
	fmt.Fprintf(b, "%sfunction %s(%s)\n", pad, fn.Name, strings.Join(params, ", "))
	fmt.Fprintf(b, "%sentry b%d\n", pad, fn.Entry)

	order := fn.Order
	if order == nil {
		order = sortedBlockIDs(fn)
	}
	for _, id := range order {
		block, ok := fn.Blocks[id]
		if !ok {
			continue
		}
		printBlock(b, fn, block, indent)
	}
}

func sortedBlockIDs(fn *Function) []int {
	ids := make([]int, 0, len(fn.Blocks))
	for id := range fn.Blocks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func printBlock(b *strings.Builder, fn *Function, block *BasicBlock, indent int) {
	pad := strings.Repeat(" ", indent)
	fmt.Fprintf(b, "%sb%d (%s)\n", pad, block.ID, block.Kind)

	preds := make([]int, 0, len(block.Predecessors))
	for p := range block.Predecessors {
		preds = append(preds, p)
	}
	sort.Ints(preds)
	predStrs := make([]string, len(preds))
	for i, p := range preds {
		predStrs[i] = "b" + strconv.Itoa(p)
	}
	fmt.Fprintf(b, "%s  preds: [%s]\n", pad, strings.Join(predStrs, ", "))

	for _, phi := range block.Phis {
		fmt.Fprintf(b, "%s  %s: phi(%s)\n", pad, identName(phi.Target.ID, phi.Target.Name), printPhiOperands(phi))
	}

	for _, instrID := range block.Instructions {
		instr := fn.Instruction(instrID)
		printInstruction(b, instr, indent)
	}

	fmt.Fprintf(b, "%s  %s\n", pad, printTerminal(block.Terminal))
}

func printPhiOperands(phi *Phi) string {
	preds := make([]int, 0, len(phi.Operands))
	for p := range phi.Operands {
		preds = append(preds, p)
	}
	sort.Ints(preds)
	parts := make([]string, len(preds))
	for i, p := range preds {
		op := phi.Operands[p]
		parts[i] = fmt.Sprintf("b%d: %s", p, identName(op.ID, op.Name))
	}
	return strings.Join(parts, ", ")
}

func printInstruction(b *strings.Builder, instr *Instruction, indent int) {
	pad := strings.Repeat(" ", indent)
	lvalue := identName(instr.Lvalue.Identifier.ID, instr.Lvalue.Identifier.Name)
	fmt.Fprintf(b, "%s  i%d <%s> %s = %s\n", pad, instr.ID, instr.Lvalue.Effect, lvalue, printValue(instr.Value, indent))
}

func printValue(v InstructionValue, indent int) string {
	switch i := v.(type) {
	case LoadGlobal:
		return fmt.Sprintf("LoadGlobal(%s)", i.Name)
	case LoadLocal:
		return fmt.Sprintf("LoadLocal(%s)", operandStr(i.Place))
	case LoadContext:
		return fmt.Sprintf("LoadContext(%s)", operandStr(i.Place))
	case StoreLocal:
		return fmt.Sprintf("StoreLocal(%s, %s)", operandStr(i.Lvalue), operandStr(i.Value))
	case DeclareLocal:
		return fmt.Sprintf("DeclareLocal(%s)", operandStr(i.Place))
	case DeclareContext:
		return fmt.Sprintf("DeclareContext(%s)", operandStr(i.Place))
	case PrimitiveInstr:
		return fmt.Sprintf("Primitive(%s)", printPrimitive(i.Value))
	case Binary:
		return fmt.Sprintf("Binary(%s %s %s)", operandStr(i.Left), i.Operator, operandStr(i.Right))
	case Array:
		parts := make([]string, len(i.Elements))
		for idx, el := range i.Elements {
			if el.Spread {
				parts[idx] = "..." + operandStr(el.Operand)
			} else {
				parts[idx] = operandStr(el.Operand)
			}
		}
		return fmt.Sprintf("Array(%s)", strings.Join(parts, ", "))
	case Call:
		args := make([]string, len(i.Arguments))
		for idx, a := range i.Arguments {
			args[idx] = operandStr(a)
		}
		return fmt.Sprintf("Call(%s, [%s])", operandStr(i.Callee), strings.Join(args, ", "))
	case FunctionInstr:
		var inner strings.Builder
		printFunction(&inner, i.Lowered, indent+6)
		return "Function\n" + inner.String()
	case JSXElementInstr:
		return "JSXElement(...)"
	case Destructure:
		return fmt.Sprintf("Destructure(%s)", operandStr(i.Value))
	case Tombstone:
		return "Tombstone"
	default:
		return "?"
	}
}

func operandStr(o Operand) string { return identName(o.Identifier.ID, o.Identifier.Name) }

func identName(id int, name string) string {
	if name == "" {
		return fmt.Sprintf("t%d", id)
	}
	return fmt.Sprintf("%s$%d", name, id)
}

func printPrimitive(p Primitive) string {
	switch p.Kind {
	case PrimBoolean:
		if p.Bool {
			return "true"
		}
		return "false"
	case PrimNull:
		return "null"
	case PrimNumber:
		return strconv.FormatFloat(p.Number, 'g', -1, 64)
	case PrimString:
		return strconv.Quote(p.Str)
	default:
		return "undefined"
	}
}

func printTerminal(t Terminal) string {
	switch v := t.Value.(type) {
	case Return:
		if v.HasValue {
			return fmt.Sprintf("Return(%s)", operandStr(v.Value))
		}
		return "Return()"
	case Goto:
		return fmt.Sprintf("Goto(b%d%s)", v.Block, gotoKindSuffix(v.Kind))
	case If:
		return fmt.Sprintf("If(%s, b%d, b%d)", operandStr(v.Test), v.Consequent, v.Alternate)
	case Branch:
		cases := make([]string, len(v.Cases))
		for i, c := range v.Cases {
			cases[i] = fmt.Sprintf("%s: b%d", operandStr(c.Test), c.Block)
		}
		return fmt.Sprintf("Branch(%s, [%s], default: b%d)", operandStr(v.Test), strings.Join(cases, ", "), v.Default)
	case For:
		return fmt.Sprintf("For(test: b%d, body: b%d, update: b%d, fallthrough: b%d)", v.Test, v.Body, v.Update, v.Fallthrough)
	case Label:
		return fmt.Sprintf("Label(block: b%d, fallthrough: b%d)", v.Block, v.Fallthrough)
	case Unsupported:
		return fmt.Sprintf("Unsupported(%s)", v.Code)
	default:
		return "?"
	}
}

func gotoKindSuffix(k GotoKind) string {
	switch k {
	case GotoBreak:
		return ", break"
	case GotoContinue:
		return ", continue"
	default:
		return ""
	}
}
