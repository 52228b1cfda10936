// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"forgehir/internal/env"
	"forgehir/internal/errors"
	"forgehir/internal/globals"
	"forgehir/internal/hir"
	"forgehir/internal/parser"
	"forgehir/internal/semantic"
)

func main() {
	manifestPath := flag.String("globals", "", "path to a globals manifest file (defaults to the built-in set)")
	skipUseMemo := flag.Bool("no-inline-usememo", false, "disable the useMemo inlining pass")
	skipConstProp := flag.Bool("no-const-prop", false, "disable constant propagation / redundant-phi elimination / block merging")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Println("Usage: forgehir [flags] <file.estree.json>")
		os.Exit(1)
	}
	path := args[0]

	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read file: %s", err)
		os.Exit(1)
	}

	defs, err := globals.LoadOrDefault(*manifestPath)
	if err != nil {
		color.Red("failed to load globals manifest %s: %s", *manifestPath, err)
		os.Exit(1)
	}

	program, err := parser.Decode(source)
	if err != nil {
		if de, ok := err.(*parser.DecodeError); ok {
			color.Red("❌ malformed ESTree input at %s: %s", de.Pos.String(), de.Message)
		} else {
			color.Red("❌ malformed ESTree input: %s", err)
		}
		os.Exit(1)
	}

	manager, diags := semantic.Analyze(program, semantic.Options{Globals: globals.Names(defs)})

	e := env.NewEnvironment()
	fn, buildDiags := hir.Build(e, manager, program, "<program>")
	diags = append(diags, buildDiags...)

	hadError := reportAll(path, string(source), diags)
	if hadError {
		os.Exit(1)
	}

	hir.Initialize(fn)
	hir.ConstructSSA(e, fn)

	if !*skipUseMemo {
		useMemoDiags := hir.InlineUseMemo(e, fn)
		if reportAll(path, string(source), useMemoDiags) {
			os.Exit(1)
		}
	}
	if !*skipConstProp {
		hir.PropagateConstants(e, fn)
	}

	fmt.Println(hir.Print(fn))
	color.Green("✅ Successfully processed %s", path)
}

// reportAll renders every diagnostic via the Rust-style caret reporter and
// reports whether any of them was error-level (Todo-bucket notes don't fail
// the build).
func reportAll(path, source string, diags []errors.CompilerError) bool {
	if len(diags) == 0 {
		return false
	}
	reporter := errors.NewErrorReporter(path, source)
	hadError := false
	for _, d := range diags {
		fmt.Print(reporter.FormatError(d))
		if d.Level == errors.Error {
			hadError = true
		}
	}
	return hadError
}
