// Package globals is the known-globals registry fed to
// semantic.Analyze(program, Options{Globals: ...}) (spec 4.B). It plays the
// role the teacher's internal/stdlib module table plays for Move's
// std::/Evm namespace, but for a flat set of JS/JSX global bindings instead
// of a namespaced module tree: console, Math, the hook family, and whatever
// a project's globals manifest (package grammar) adds or removes.
package globals

import "github.com/iancoleman/strcase"

// Definition describes one global binding available to every module the
// scope manager resolves against. Arity/Variadic are metadata for future
// call-shape diagnostics (e.g. "useMemo called with 2 arguments"); today
// only Name feeds semantic.Options.Globals, which is a flat name list.
type Definition struct {
	Name       string
	IsFunction bool
	Arity      int
	Variadic   bool
}

func value(name string) Definition    { return Definition{Name: name} }
func fn(name string, arity int) Definition {
	return Definition{Name: name, IsFunction: true, Arity: arity}
}

// Default is the built-in global set seeded when a project supplies no
// manifest (spec 4.B's "options{globals}", extended per the globals-manifest
// configuration layer): the console/Math/Object/Array/JSON namespaces, the
// React hook family useMemo/useState/useEffect/useCallback/useRef, and the
// handful of bare value globals (undefined, NaN, Infinity, globalThis) a
// free-standing module can reference without importing anything.
func Default() []Definition {
	return []Definition{
		value("console"),
		value("Math"),
		value("Object"),
		value("Array"),
		value("JSON"),
		fn("useMemo", 1),
		fn("useState", 1),
		fn("useEffect", 2),
		fn("useCallback", 2),
		fn("useRef", 1),
		value("undefined"),
		value("NaN"),
		value("Infinity"),
		value("globalThis"),
	}
}

// DefaultNames is Names(Default()), the slice most callers actually want:
// semantic.Options.Globals takes bare names, not Definitions.
func DefaultNames() []string { return Names(Default()) }

// Names flattens a definition set to the bare names semantic.Options.Globals
// expects.
func Names(defs []Definition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Name
	}
	return out
}

// Lookup finds a definition by name, or reports it's unknown.
func Lookup(defs []Definition, name string) (Definition, bool) {
	for _, d := range defs {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// IsKnown reports whether name is declared in defs.
func IsKnown(defs []Definition, name string) bool {
	_, ok := Lookup(defs, name)
	return ok
}

// Merge combines a base set with overrides, overrides winning on name
// collision and preserving base's relative order otherwise. Used to layer a
// project's globals manifest on top of Default().
func Merge(base, overrides []Definition) []Definition {
	out := make([]Definition, 0, len(base)+len(overrides))
	seen := make(map[string]int, len(base))
	for _, d := range base {
		seen[d.Name] = len(out)
		out = append(out, d)
	}
	for _, d := range overrides {
		if i, ok := seen[d.Name]; ok {
			out[i] = d
			continue
		}
		seen[d.Name] = len(out)
		out = append(out, d)
	}
	return out
}

// Canonicalize normalizes a manifest-declared global name into its JS
// spelling. The participle grammar (package grammar) tokenizes identifiers
// the same way the teacher's Move grammar does, which tolerates
// snake_case; JS globals are camelCase, so a manifest entry written
// `use_memo` still resolves to the binding the scope manager and useMemo
// inlining pass (internal/hir) actually look for.
func Canonicalize(name string) string {
	if name == "" {
		return name
	}
	if !containsUnderscore(name) {
		return name
	}
	return strcase.ToLowerCamel(name)
}

func containsUnderscore(s string) bool {
	for _, r := range s {
		if r == '_' {
			return true
		}
	}
	return false
}
