package globals

import (
	"fmt"
	"strconv"

	"forgehir/grammar"
)

// LoadManifest parses a globals-manifest file and converts it to
// Definitions, grounded on the teacher's stdlib module table but driven by
// the participle grammar in package grammar instead of a hardcoded Go map.
func LoadManifest(path string) ([]Definition, error) {
	m, err := grammar.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return fromManifest(m)
}

// LoadManifestString is LoadManifest for manifest source already in memory
// (an LSP-opened config buffer, a test fixture).
func LoadManifestString(filename, source string) ([]Definition, error) {
	m, err := grammar.ParseString(filename, source)
	if err != nil {
		return nil, err
	}
	return fromManifest(m)
}

func fromManifest(m *grammar.Manifest) ([]Definition, error) {
	defs := make([]Definition, 0, len(m.Entries))
	for _, e := range m.Entries {
		if e.Decl == nil {
			continue // doc/line comment entry, carries no binding
		}
		d := e.Decl
		name := Canonicalize(d.Name.String())
		switch d.Kind {
		case "global":
			if d.Arity != nil {
				return nil, fmt.Errorf("global %q cannot declare an arity", name)
			}
			defs = append(defs, value(name))
		case "fn":
			if d.Arity == nil {
				defs = append(defs, Definition{Name: name, IsFunction: true, Variadic: true})
				continue
			}
			arity, err := strconv.Atoi(*d.Arity)
			if err != nil {
				return nil, fmt.Errorf("function %q has malformed arity %q: %w", name, *d.Arity, err)
			}
			defs = append(defs, fn(name, arity))
		default:
			return nil, fmt.Errorf("unknown manifest declaration kind: %q", d.Kind)
		}
	}
	return defs, nil
}

// LoadOrDefault loads path's manifest and merges it over Default(); an
// empty path just returns Default(), matching spec 4.B's "absent a
// manifest, a built-in default globals list ... seeds the scope manager's
// Global scope".
func LoadOrDefault(path string) ([]Definition, error) {
	if path == "" {
		return Default(), nil
	}
	defs, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return Merge(Default(), defs), nil
}
