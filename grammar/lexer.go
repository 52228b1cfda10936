package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// ManifestLexer tokenizes the globals-manifest format: identifiers, a
// handful of keywords recognized via the Ident rule and matched as string
// literals in the grammar, integers for fixed-arity annotations, and the
// punctuation the Decl/NamePath rules need.
var ManifestLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"DocComment", `///[^\n]*`, nil},
		{"Comment", `//[^\n]*`, nil},
		{"Ident", `[a-zA-Z_$][a-zA-Z0-9_$]*`, nil},
		{"Integer", `[0-9]+`, nil},
		{"Punctuation", `[().;]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
