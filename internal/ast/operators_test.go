package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBinaryOperatorRoundTrip(t *testing.T) {
	for _, op := range []BinaryOperator{OpAdd, OpSub, OpStrictEq, OpLooseNeq, OpBitXor} {
		parsed, ok := ParseBinaryOperator(op.String())
		assert.True(t, ok)
		assert.Equal(t, op, parsed)
	}
}

func TestParseVariableKind(t *testing.T) {
	k, ok := ParseVariableKind("let")
	assert.True(t, ok)
	assert.Equal(t, LetKind, k)

	_, ok = ParseVariableKind("bogus")
	assert.False(t, ok)
}

func TestJSXIdentifierIsIntrinsic(t *testing.T) {
	assert.True(t, (&JSXIdentifier{Name: "div"}).IsIntrinsic())
	assert.False(t, (&JSXIdentifier{Name: "Foo"}).IsIntrinsic())
}

func TestNodeTypeString(t *testing.T) {
	assert.Equal(t, "BinaryExpression", NodeBinaryExpression.String())
}
