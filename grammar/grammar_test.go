package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringDeclaresBareGlobal(t *testing.T) {
	m, err := ParseString("test.manifest", `global console;`)
	require.NoError(t, err)
	require.Len(t, m.Entries, 1)

	decl := m.Entries[0].Decl
	require.NotNil(t, decl)
	assert.Equal(t, "global", decl.Kind)
	assert.Equal(t, "console", decl.Name.String())
	assert.Nil(t, decl.Arity)
}

func TestParseStringDeclaresFunctionWithArity(t *testing.T) {
	m, err := ParseString("test.manifest", `fn useMemo(1);`)
	require.NoError(t, err)
	require.Len(t, m.Entries, 1)

	decl := m.Entries[0].Decl
	require.NotNil(t, decl)
	assert.Equal(t, "fn", decl.Kind)
	assert.Equal(t, "useMemo", decl.Name.String())
	require.NotNil(t, decl.Arity)
	assert.Equal(t, "1", *decl.Arity)
}

func TestParseStringDeclaresFunctionWithoutArity(t *testing.T) {
	m, err := ParseString("test.manifest", `fn useCallback;`)
	require.NoError(t, err)
	require.Len(t, m.Entries, 1)
	assert.Nil(t, m.Entries[0].Decl.Arity)
}

func TestParseStringDeclaresDottedName(t *testing.T) {
	m, err := ParseString("test.manifest", `fn console.log(1);`)
	require.NoError(t, err)
	require.Len(t, m.Entries, 1)
	assert.Equal(t, "console.log", m.Entries[0].Decl.Name.String())
}

func TestParseStringKeepsDocCommentsAndMultipleEntries(t *testing.T) {
	src := `
/// the hook family
fn useMemo(1);
fn useState(1);
global globalThis;
`
	m, err := ParseString("test.manifest", src)
	require.NoError(t, err)
	require.Len(t, m.Entries, 4)
	assert.NotNil(t, m.Entries[0].DocBeforeAttr)
	assert.Equal(t, "useMemo", m.Entries[1].Decl.Name.String())
	assert.Equal(t, "useState", m.Entries[2].Decl.Name.String())
	assert.Equal(t, "globalThis", m.Entries[3].Decl.Name.String())
}

func TestManifestStringRoundTrips(t *testing.T) {
	m, err := ParseString("test.manifest", `fn useMemo(1);`)
	require.NoError(t, err)
	assert.Equal(t, "fn useMemo(1);\n", m.String())
}

func TestParseStringRejectsMalformedInput(t *testing.T) {
	_, err := ParseString("test.manifest", `fn ();`)
	assert.Error(t, err)
}
