package errors

import (
	"fmt"

	"forgehir/internal/ast"
)

// DiagnosticBuilder provides a fluent interface for constructing a
// CompilerError, mirroring the teacher's semantic-error builder but keyed on
// severity bucket rather than Move-specific error categories.
type DiagnosticBuilder struct {
	err CompilerError
}

func NewDiagnostic(sev Severity, code, message string, pos ast.Position) *DiagnosticBuilder {
	return &DiagnosticBuilder{
		err: CompilerError{
			Severity: sev,
			Level:    levelFor(sev),
			Code:     code,
			Message:  message,
			Position: pos,
		},
	}
}

func (b *DiagnosticBuilder) WithSuggestion(message string) *DiagnosticBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

func (b *DiagnosticBuilder) WithNote(note string) *DiagnosticBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

func (b *DiagnosticBuilder) WithHelp(help string) *DiagnosticBuilder {
	b.err.HelpText = help
	return b
}

func (b *DiagnosticBuilder) Build() CompilerError {
	return b.err
}

// Common diagnostic constructors, one per spec-named failure (section 7).

func UndefinedVariable(name string, pos ast.Position) CompilerError {
	return NewDiagnostic(InvalidSyntax, ErrorUndefinedVariable,
		fmt.Sprintf("undefined variable '%s'", name), pos).Build()
}

func DuplicateDeclaration(name string, pos ast.Position, firstPos ast.Position) CompilerError {
	return NewDiagnostic(InvalidSyntax, ErrorDuplicateDeclaration,
		fmt.Sprintf("'%s' is already declared in this scope", name), pos).
		WithNote(fmt.Sprintf("first declared at %s", firstPos)).Build()
}

func VarBlockScopeConflict(name string, pos ast.Position) CompilerError {
	return NewDiagnostic(InvalidSyntax, ErrorVarBlockScopeConflict,
		fmt.Sprintf("'%s' cannot be declared with var: a block-scoped declaration already exists", name), pos).Build()
}

func UnknownBreakLabel(name string, pos ast.Position) CompilerError {
	msg := "break: no enclosing loop or switch"
	if name != "" {
		msg = fmt.Sprintf("break: label '%s' not found", name)
	}
	return NewDiagnostic(InvalidSyntax, ErrorUnknownBreakLabel, msg, pos).Build()
}

func UnknownContinueLabel(name string, pos ast.Position) CompilerError {
	msg := "continue: no enclosing loop"
	if name != "" {
		msg = fmt.Sprintf("continue: label '%s' not found", name)
	}
	return NewDiagnostic(InvalidSyntax, ErrorUnknownContinueLabel, msg, pos).Build()
}

func ContinueToNonLoop(name string, pos ast.Position) CompilerError {
	return NewDiagnostic(InvalidSyntax, ErrorContinueToNonLoop,
		fmt.Sprintf("continue: label '%s' does not label a loop", name), pos).Build()
}

func TDZViolation(name string, pos ast.Position) CompilerError {
	return NewDiagnostic(InvalidSyntax, ErrorTDZViolation,
		fmt.Sprintf("'%s' is referenced before its declaration", name), pos).
		WithHelp("move the reference after the let/const declaration").Build()
}

func MissingForTest(pos ast.Position) CompilerError {
	return NewDiagnostic(InvalidSyntax, ErrorMissingForTest, "for statement requires a test expression", pos).Build()
}

func UnsupportedConstruct(what string, pos ast.Position) CompilerError {
	return NewDiagnostic(Unsupported, ErrorUnsupportedStatement,
		fmt.Sprintf("unsupported construct: %s", what), pos).Build()
}

func UnsupportedVarDeclaration(pos ast.Position) CompilerError {
	return NewDiagnostic(Unsupported, ErrorUnsupportedVarDecl, "var declarations are not supported", pos).Build()
}

func ReassignGlobal(name string, pos ast.Position) CompilerError {
	return NewDiagnostic(InvalidReact, ErrorReassignGlobal,
		fmt.Sprintf("cannot reassign global '%s'", name), pos).Build()
}

func UseMemoBadLambda(reason string, pos ast.Position) CompilerError {
	return NewDiagnostic(InvalidReact, ErrorUseMemoBadLambda,
		fmt.Sprintf("invalid useMemo argument: %s", reason), pos).Build()
}

func InvariantViolation(what string, pos ast.Position) CompilerError {
	return NewDiagnostic(Invariant, ErrorUseOfUndefinedSSAValue, what, pos).Build()
}
