package globals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIncludesHookFamily(t *testing.T) {
	defs := Default()
	for _, name := range []string{"useMemo", "useState", "useEffect", "useCallback", "useRef"} {
		d, ok := Lookup(defs, name)
		require.True(t, ok, "missing default global %q", name)
		assert.True(t, d.IsFunction)
	}
}

func TestDefaultIncludesValueGlobals(t *testing.T) {
	defs := Default()
	for _, name := range []string{"console", "Math", "Object", "Array", "JSON", "undefined", "NaN", "Infinity", "globalThis"} {
		assert.True(t, IsKnown(defs, name), "missing default global %q", name)
	}
}

func TestIsKnownRejectsUnlisted(t *testing.T) {
	assert.False(t, IsKnown(Default(), "notAGlobal"))
}

func TestDefaultNamesMatchesDefault(t *testing.T) {
	names := DefaultNames()
	assert.Len(t, names, len(Default()))
	assert.Contains(t, names, "useMemo")
}

func TestMergeOverridesWinByName(t *testing.T) {
	base := []Definition{value("Math"), fn("useMemo", 1)}
	overrides := []Definition{fn("useMemo", 2), value("customGlobal")}

	merged := Merge(base, overrides)
	assert.Len(t, merged, 3)

	d, ok := Lookup(merged, "useMemo")
	require.True(t, ok)
	assert.Equal(t, 2, d.Arity)

	assert.True(t, IsKnown(merged, "customGlobal"))
	assert.True(t, IsKnown(merged, "Math"))
}

func TestCanonicalizeConvertsSnakeCaseManifestNames(t *testing.T) {
	assert.Equal(t, "useMemo", Canonicalize("use_memo"))
	assert.Equal(t, "console", Canonicalize("console"))
}
