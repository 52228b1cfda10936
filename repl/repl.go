// Package repl SPDX-License-Identifier: Apache-2.0
package repl

import (
	"bufio"
	"fmt"
	"io"

	"forgehir/internal/env"
	"forgehir/internal/globals"
	"forgehir/internal/hir"
	"forgehir/internal/parser"
	"forgehir/internal/semantic"
)

const PROMPT = ">> "

// Start runs a read-eval-print loop over ESTree JSON programs, one per
// line, printing the resulting function's HIR after analysis, lowering and
// SSA construction. This module has no JS/JSX tokenizer of its own (a
// native front end is expected to hand us already-decoded ESTree), so each
// line is JSON rather than source text - the teacher's REPL prints an AST
// per line, this one prints HIR per line.
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	defs := globals.Default()

	for {
		fmt.Fprint(out, PROMPT)
		if !scanner.Scan() {
			return
		}

		line := scanner.Text()
		if line == "" {
			continue
		}

		program, err := parser.Decode([]byte(line))
		if err != nil {
			fmt.Fprintf(out, "decode error: %s\n", err)
			continue
		}

		manager, diags := semantic.Analyze(program, semantic.Options{Globals: globals.Names(defs)})
		e := env.NewEnvironment()
		fn, buildDiags := hir.Build(e, manager, program, "<repl>")
		diags = append(diags, buildDiags...)
		for _, d := range diags {
			fmt.Fprintf(out, "%s: %s\n", d.Level, d.Message)
		}
		if len(buildDiags) > 0 {
			continue
		}

		hir.Initialize(fn)
		hir.ConstructSSA(e, fn)
		hir.PropagateConstants(e, fn)

		fmt.Fprintf(out, "HIR:\n%s\n", hir.Print(fn))
	}
}
