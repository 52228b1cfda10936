package globals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifestStringParsesBareAndFunctionGlobals(t *testing.T) {
	defs, err := LoadManifestString("test.manifest", `
global myGlobal;
fn myHook(1);
fn myVariadicHook;
`)
	require.NoError(t, err)
	require.Len(t, defs, 3)

	g, ok := Lookup(defs, "myGlobal")
	require.True(t, ok)
	assert.False(t, g.IsFunction)

	h, ok := Lookup(defs, "myHook")
	require.True(t, ok)
	assert.True(t, h.IsFunction)
	assert.Equal(t, 1, h.Arity)
	assert.False(t, h.Variadic)

	v, ok := Lookup(defs, "myVariadicHook")
	require.True(t, ok)
	assert.True(t, v.Variadic)
}

func TestLoadManifestStringCanonicalizesSnakeCaseNames(t *testing.T) {
	defs, err := LoadManifestString("test.manifest", `fn use_custom_hook(1);`)
	require.NoError(t, err)
	assert.True(t, IsKnown(defs, "useCustomHook"))
}

func TestLoadManifestStringRejectsArityOnGlobal(t *testing.T) {
	_, err := LoadManifestString("test.manifest", `global console(1);`)
	assert.Error(t, err)
}

func TestLoadOrDefaultWithEmptyPathReturnsDefault(t *testing.T) {
	defs, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), defs)
}
