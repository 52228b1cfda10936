package grammar

import (
	"fmt"
	"strings"
)

// String re-serializes a parsed manifest back to its surface syntax,
// preserving declaration order; round-tripping through Parse/String is
// idempotent modulo comment placement.
func (m *Manifest) String() string {
	var b strings.Builder
	for _, e := range m.Entries {
		b.WriteString(e.String())
		b.WriteString("\n")
	}
	return b.String()
}

func (e *Entry) String() string {
	switch {
	case e.DocBeforeAttr != nil:
		return e.DocBeforeAttr.Text
	case e.LineComment != nil:
		return e.LineComment.Text
	case e.Decl != nil:
		return e.Decl.String()
	default:
		return ""
	}
}

func (d *Decl) String() string {
	name := d.Name.String()
	if d.Arity != nil {
		return fmt.Sprintf("%s %s(%s);", d.Kind, name, *d.Arity)
	}
	return fmt.Sprintf("%s %s;", d.Kind, name)
}
