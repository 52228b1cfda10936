package lsp_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"forgehir/internal/globals"
	"forgehir/internal/lsp"
)

// program source is the ESTree JSON for `function f(a) { return a; }`, the
// shape a native front end feeds this core over the wire (spec section 6)
// instead of raw JS/JSX text.
const program = `{
  "type": "Program",
  "range": {"start": 0, "end": 30},
  "body": [
    {
      "type": "FunctionDeclaration",
      "range": {"start": 0, "end": 30},
      "id": {"type": "Identifier", "range": {"start": 9, "end": 10}, "name": "f"},
      "params": [
        {"type": "Identifier", "range": {"start": 11, "end": 12}, "name": "a"}
      ],
      "body": {
        "type": "BlockStatement",
        "range": {"start": 14, "end": 30},
        "body": [
          {
            "type": "ReturnStatement",
            "range": {"start": 16, "end": 27},
            "argument": {"type": "Identifier", "range": {"start": 23, "end": 24}, "name": "a"}
          }
        ]
      }
    }
  ]
}`

func openDocument(t *testing.T, h *lsp.Handler, uri string, text string) {
	t.Helper()
	err := h.TextDocumentDidOpen(&glsp.Context{}, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Text: text},
	})
	require.NoError(t, err)
}

func TestTextDocumentSemanticTokensFull(t *testing.T) {
	h := lsp.NewHandler(globals.Default())
	uri := "file:///test.forgehir.json"
	openDocument(t, h, uri, program)

	tokens, err := h.TextDocumentSemanticTokensFull(&glsp.Context{}, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)
	require.NotNil(t, tokens)
	require.NotEmpty(t, tokens.Data)
	require.Equal(t, 0, len(tokens.Data)%5, "token stream must be a multiple of 5 uint32s")

	decoded := decodeSemanticTokens(t, tokens.Data)
	var sawFunctionDecl, sawParamDecl bool
	for _, tok := range decoded {
		typeName := lsp.SemanticTokenTypes[tok.tokenType]
		if typeName == "function" && hasModifier(tok, "declaration") {
			sawFunctionDecl = true
		}
		if typeName == "parameter" {
			sawParamDecl = true
		}
	}
	require.True(t, sawFunctionDecl, "expected a declaration-modified function token for f")
	require.True(t, sawParamDecl, "expected a parameter token for a")
}

func TestTextDocumentDidOpenPublishesNoDiagnosticsForValidProgram(t *testing.T) {
	h := lsp.NewHandler(globals.Default())
	uri := "file:///valid.forgehir.json"
	openDocument(t, h, uri, program)
}

func TestPrintHIRErrorsForUnknownDocument(t *testing.T) {
	h := lsp.NewHandler(globals.Default())
	err := h.PrintHIR(nil, "file:///missing.forgehir.json", "")
	require.Error(t, err)
}

type decodedToken struct {
	line      uint32
	char      uint32
	length    uint32
	tokenType int
	modifiers int
}

func hasModifier(tok decodedToken, name string) bool {
	idx := -1
	for i, m := range lsp.SemanticTokenModifiers {
		if m == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	return tok.modifiers&(1<<idx) != 0
}

func decodeSemanticTokens(t *testing.T, raw []uint32) []decodedToken {
	t.Helper()
	require.Equal(t, 0, len(raw)%5)

	var decoded []decodedToken
	var line, char uint32
	for i := 0; i < len(raw); i += 5 {
		deltaLine, deltaStart, length, tokenType, modifiers := raw[i], raw[i+1], raw[i+2], raw[i+3], raw[i+4]
		if deltaLine == 0 {
			char += deltaStart
		} else {
			line += deltaLine
			char = deltaStart
		}
		decoded = append(decoded, decodedToken{
			line:      line,
			char:      char,
			length:    length,
			tokenType: int(tokenType),
			modifiers: int(modifiers),
		})
	}
	return decoded
}

func TestUnresolvedReferenceStillAnalyzesWithoutPanicking(t *testing.T) {
	h := lsp.NewHandler(nil)
	uri := "file:///undeclared.forgehir.json"
	src := fmt.Sprintf(`{"type":"Program","range":{"start":0,"end":10},"body":[{"type":"ExpressionStatement","range":{"start":0,"end":10},"expression":{"type":"Identifier","range":{"start":0,"end":9},"name":"missing"}}]}`)
	// The undeclared name yields a diagnostic, and publishing it goes through
	// the context's Notify, so this context supplies one.
	ctx := &glsp.Context{Notify: func(method string, params any) {}}
	err := h.TextDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Text: src},
	})
	require.NoError(t, err)
}
