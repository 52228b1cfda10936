package ast

// Node is implemented by every ESTree variant this core understands. Pointer
// identity of a Node value is used throughout internal/semantic as the key
// into scope/declaration/reference/label lookup tables, matching the
// `node_scope`/`node_declaration`/... contract of the scope manager.
type Node interface {
	NodePos() Position
	NodeEndPos() Position
	NodeType() NodeType
	String() string
	GetMetadata() *Metadata
	SetMetadata(*Metadata)
}

// Metadata carries information attached to a node by passes that run after
// parsing: compiler-internal bookkeeping the concrete grammar doesn't need.
// Most nodes never have metadata set; it is populated lazily.
type Metadata struct {
	IRInstruction int // instruction table index this node lowered to, or -1
}

// base is embedded by every concrete node type to provide the Node plumbing
// without repeating the five bookkeeping methods everywhere.
type base struct {
	Range    Position
	EndRange Position
	Type     NodeType
	Meta     *Metadata
}

func (b *base) NodePos() Position       { return b.Range }
func (b *base) NodeEndPos() Position    { return b.EndRange }
func (b *base) NodeType() NodeType      { return b.Type }
func (b *base) GetMetadata() *Metadata  { return b.Meta }
func (b *base) SetMetadata(m *Metadata) { b.Meta = m }

func newBase(t NodeType, pos, end Position) base {
	return base{Range: pos, EndRange: end, Type: t}
}

// SetRange stamps position/type info onto a node built outside this package.
// A composite literal in another package can set every exported field of a
// concrete node type except the embedded base itself (its type is
// unexported), so a deserializer builds the node's fields directly and
// calls this afterward.
func (b *base) SetRange(t NodeType, start, end Position) {
	b.Type = t
	b.Range = start
	b.EndRange = end
}
