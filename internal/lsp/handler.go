package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"forgehir/internal/ast"
	"forgehir/internal/env"
	"forgehir/internal/globals"
	"forgehir/internal/hir"
	"forgehir/internal/parser"
	"forgehir/internal/semantic"
)

// document is the per-URI analysis state kept warm between requests: the
// decoded program, its resolved scope manager, and every function HIR
// reachable from it, keyed by name for the printHIR notification.
type document struct {
	source    string
	program   *ast.Program
	manager   *semantic.ScopeManager
	functions map[string]*hir.Function
}

// Handler implements the LSP server handlers for forgehir's compiler core.
// Document content is pre-parsed ESTree JSON (this core has no JS/JSX
// tokenizer of its own, per spec section 6): a native front end feeds
// internal/parser.Decode, whose output drives analyze -> lower -> SSA, and
// diagnostics/semantic tokens are derived from the result.
type Handler struct {
	mu        sync.RWMutex
	documents map[string]*document
	globalDefs []globals.Definition
}

// NewHandler creates a Handler seeded with globalDefs (Default() if the
// caller has no manifest to load).
func NewHandler(globalDefs []globals.Definition) *Handler {
	return &Handler{
		documents:  make(map[string]*document),
		globalDefs: globalDefs,
	}
}

func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("forgehir LSP Initialize called")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			CompletionProvider: &protocol.CompletionOptions{
				ResolveProvider: ptrBool(false),
			},
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     SemanticTokenTypes,
					TokenModifiers: SemanticTokenModifiers,
				},
				Full: ptrBool(true),
			},
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("forgehir LSP Initialized")
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Println("forgehir LSP Shutdown")
	return nil
}

// SetTrace handles the $/setTrace notification. The teacher's cmd/kanso-lsp
// wires protocol.Handler.SetTrace to a method its own KansoHandler never
// defined; this core gives it a real (no-op) implementation instead.
func (h *Handler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	log.Printf("Opened document: %s\n", params.TextDocument.URI)
	diagnostics, err := h.analyze(params.TextDocument.URI, params.TextDocument.Text)
	if err != nil {
		return fmt.Errorf("failed to analyze %s: %w", params.TextDocument.URI, err)
	}
	if len(diagnostics) > 0 {
		sendDiagnosticNotification(ctx, params.TextDocument.URI, diagnostics)
	}
	return nil
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	log.Printf("Closed document: %s\n", params.TextDocument.URI)
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}
	h.mu.Lock()
	delete(h.documents, path)
	h.mu.Unlock()
	return nil
}

func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	log.Printf("Changed document: %s\n", params.TextDocument.URI)
	text, ok := fullText(params.ContentChanges)
	if !ok {
		return fmt.Errorf("no full-sync text in change notification for %s", params.TextDocument.URI)
	}
	diagnostics, err := h.analyze(params.TextDocument.URI, text)
	if err != nil {
		return fmt.Errorf("failed to analyze %s: %w", params.TextDocument.URI, err)
	}
	if len(diagnostics) > 0 {
		sendDiagnosticNotification(ctx, params.TextDocument.URI, diagnostics)
	}
	return nil
}

func (h *Handler) TextDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (interface{}, error) {
	return &protocol.CompletionList{
		IsIncomplete: false,
		Items:        []protocol.CompletionItem{},
	}, nil
}

func (h *Handler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	log.Println("TextDocumentSemanticTokensFull called for:", params.TextDocument.URI)

	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}

	h.mu.RLock()
	doc, ok := h.documents[path]
	h.mu.RUnlock()
	if !ok {
		return &protocol.SemanticTokens{}, nil
	}

	tokens := collectSemanticTokens(doc.program, doc.manager)

	var data []uint32
	var prevLine, prevStart uint32
	for _, token := range tokens {
		deltaLine := token.Line - prevLine
		var deltaStart uint32
		if deltaLine == 0 {
			deltaStart = token.StartChar - prevStart
		} else {
			deltaStart = token.StartChar
		}
		data = append(data, deltaLine, deltaStart, token.Length, uint32(token.TokenType), uint32(token.TokenModifiers))
		prevLine = token.Line
		prevStart = token.StartChar
	}

	return &protocol.SemanticTokens{Data: data}, nil
}

// printHIRParams is the payload of the custom forgehir/printHIR notification
// (DOMAIN STACK: sourcegraph/jsonrpc2 wired directly, outside glsp's own
// method dispatch).
type printHIRParams struct {
	URI      protocol.DocumentUri `json:"uri"`
	Function string               `json:"function"`
	HIR      string               `json:"hir"`
}

// PrintHIR renders the named function's HIR (the top-level program itself
// if functionName is empty) and posts it to conn directly as a
// forgehir/printHIR notification.
func (h *Handler) PrintHIR(conn *jsonrpc2.Conn, uri protocol.DocumentUri, functionName string) error {
	path, err := uriToPath(uri)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", uri, err)
	}

	h.mu.RLock()
	doc, ok := h.documents[path]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no analyzed document for %s", uri)
	}

	key := functionName
	if key == "" {
		key = programFunctionKey
	}
	fn, ok := doc.functions[key]
	if !ok {
		return fmt.Errorf("no function %q in %s", functionName, uri)
	}

	return conn.Notify(context.Background(), "forgehir/printHIR", printHIRParams{
		URI:      uri,
		Function: functionName,
		HIR:      hir.Print(fn),
	})
}

// programFunctionKey names the top-level function HIR (the whole program's
// body, not any declared function within it) in document.functions.
const programFunctionKey = "<program>"

// analyze runs the parse -> resolve -> lower -> SSA pipeline over source
// (ESTree JSON) and caches the result under uri, returning LSP diagnostics
// for whatever the scope manager and HIR builder reported.
func (h *Handler) analyze(uri protocol.DocumentUri, source string) ([]protocol.Diagnostic, error) {
	path, err := uriToPath(uri)
	if err != nil {
		return nil, err
	}

	program, err := parser.Decode([]byte(source))
	if err != nil {
		if de, ok := err.(*parser.DecodeError); ok {
			return []protocol.Diagnostic{{
				Range: protocol.Range{
					Start: protocol.Position{Line: uint32(max0(de.Pos.Line - 1)), Character: uint32(max0(de.Pos.Column - 1))},
					End:   protocol.Position{Line: uint32(max0(de.Pos.Line - 1)), Character: uint32(max0(de.Pos.Column))},
				},
				Severity: ptrSeverity(protocol.DiagnosticSeverityError),
				Source:   ptrString("forgehir"),
				Message:  de.Message,
			}}, nil
		}
		return []protocol.Diagnostic{{
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("forgehir"),
			Message:  err.Error(),
		}}, nil
	}

	manager, diags := semantic.Analyze(program, semantic.Options{Globals: globals.Names(h.globalDefs)})

	e := env.NewEnvironment()
	outer, buildDiags := hir.Build(e, manager, program, programFunctionKey)
	diags = append(diags, buildDiags...)

	functions := map[string]*hir.Function{programFunctionKey: outer}
	if len(buildDiags) == 0 {
		hir.Initialize(outer)
		hir.ConstructSSA(e, outer)
		hir.PropagateConstants(e, outer)
		collectNamedFunctions(outer, functions)
	}

	h.mu.Lock()
	h.documents[path] = &document{source: source, program: program, manager: manager, functions: functions}
	h.mu.Unlock()

	return ConvertCompilerErrors(diags), nil
}

// collectNamedFunctions walks fn's FunctionInstr instructions, registering
// every nested function HIR under its declared name (falling back to a
// positional name for anonymous arrows), so printHIR can address them.
func collectNamedFunctions(fn *hir.Function, out map[string]*hir.Function) {
	for i, instr := range fn.Instructions {
		if instr == nil {
			continue
		}
		fi, ok := instr.Value.(hir.FunctionInstr)
		if !ok || fi.Lowered == nil {
			continue
		}
		name := fi.Lowered.Name
		if name == "" {
			name = fmt.Sprintf("%s#%d", fn.Name, i)
		}
		out[name] = fi.Lowered
		collectNamedFunctions(fi.Lowered, out)
	}
}

func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

// fullText extracts the new full document text from a Full-sync change
// notification. The concrete type glsp hands back for each entry of
// ContentChanges varies by decoder path, so round-tripping through JSON
// sidesteps guessing it.
func fullText(changes []interface{}) (string, bool) {
	if len(changes) == 0 {
		return "", false
	}
	raw, err := json.Marshal(changes[len(changes)-1])
	if err != nil {
		return "", false
	}
	var event struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		return "", false
	}
	return event.Text, true
}

func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.URI, diagnostics []protocol.Diagnostic) {
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}
