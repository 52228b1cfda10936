package lsp

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"forgehir/internal/errors"
)

// ConvertCompilerErrors transforms the scope manager / HIR builder's
// diagnostics into LSP diagnostics for IDE display, replacing the teacher's
// ConvertParseErrors/ConvertScanErrors (this core has a single diagnostic
// type, errors.CompilerError, instead of separate parser/scanner errors).
func ConvertCompilerErrors(diags []errors.CompilerError) []protocol.Diagnostic {
	var diagnostics []protocol.Diagnostic

	for _, diag := range diags {
		start := diag.Position
		length := start.Len()
		if length <= 0 {
			length = 1
		}

		diagnostic := protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{
					Line:      uint32(max0(start.Line - 1)),
					Character: uint32(max0(start.Column - 1)),
				},
				End: protocol.Position{
					Line:      uint32(max0(start.Line - 1)),
					Character: uint32(max0(start.Column - 1 + length)),
				},
			},
			Severity: ptrSeverity(severityFor(diag.Level)),
			Code:     &protocol.IntegerOrString{Value: diag.Code},
			Source:   ptrString("forgehir"),
			Message:  messageFor(diag),
		}
		diagnostics = append(diagnostics, diagnostic)
	}

	return diagnostics
}

// messageFor folds a CompilerError's notes/help text into the single
// message string the LSP diagnostic carries, since protocol.Diagnostic has
// no structured slot for either.
func messageFor(diag errors.CompilerError) string {
	msg := diag.Message
	for _, note := range diag.Notes {
		msg += fmt.Sprintf(" (%s)", note)
	}
	if diag.HelpText != "" {
		msg += fmt.Sprintf(" — help: %s", diag.HelpText)
	}
	return msg
}

// severityFor maps the rendering level chosen by errors.levelFor onto the
// LSP wire severities; Todo-bucket diagnostics render as Error's level
// (errors.Note) and show up as informational rather than blocking.
func severityFor(level errors.ErrorLevel) protocol.DiagnosticSeverity {
	switch level {
	case errors.Error:
		return protocol.DiagnosticSeverityError
	case errors.Warning:
		return protocol.DiagnosticSeverityWarning
	case errors.Note:
		return protocol.DiagnosticSeverityInformation
	case errors.Help:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityError
	}
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// ptrBool, ptrSyncKind, ptrSeverity, ptrString are small pointer-of-literal
// helpers glsp's protocol structs need throughout (every optional field is a
// pointer); kept real here rather than stubbed, unlike the file this was
// adapted from.
func ptrBool(b bool) *bool { return &b }

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind { return &k }

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity { return &s }

func ptrString(s string) *string { return &s }
