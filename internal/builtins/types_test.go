package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsIntrinsicTagRecognizesHTML(t *testing.T) {
	assert.True(t, IsIntrinsicTag("div"))
	assert.True(t, IsIntrinsicTag("button"))
}

func TestIsIntrinsicTagRecognizesSVG(t *testing.T) {
	assert.True(t, IsIntrinsicTag("svg"))
	assert.True(t, IsIntrinsicTag("path"))
}

func TestIsIntrinsicTagRejectsComponentNames(t *testing.T) {
	assert.False(t, IsIntrinsicTag("MyComponent"))
	assert.False(t, IsIntrinsicTag("notATag"))
}

func TestIntrinsicKindOfDistinguishesNamespace(t *testing.T) {
	kind, ok := IntrinsicKindOf("div")
	assert.True(t, ok)
	assert.Equal(t, IntrinsicHTML, kind)

	kind, ok = IntrinsicKindOf("circle")
	assert.True(t, ok)
	assert.Equal(t, IntrinsicSVG, kind)
}
