// Package ast is the read-only syntax tree handed to checks. A Tree owns every
// Node of one source file in a single arena; nodes link to their parent,
// children and siblings but never own anything. Trees are immutable once
// built and may be shared between goroutines without synchronization.
package ast

// Kind names a node kind. Kinds are grammar symbol names such as
// "if_statement" or "identifier".
type Kind string

// Node is one element of a Tree. All methods are safe on a nil receiver and
// return zero values, so a missing child is always an explicit absence.
type Node struct {
	tree  *Tree
	index int

	kind    Kind
	field   string
	named   bool
	comment bool

	startByte, endByte int
	line, column       int
	endLine, endColumn int

	parent     *Node
	firstChild *Node
	lastChild  *Node
	next       *Node
	prev       *Node
	childCount int
}

func (n *Node) Kind() Kind {
	if n == nil {
		return ""
	}
	return n.kind
}

// Is reports whether the node has one of the given kinds.
func (n *Node) Is(kinds ...Kind) bool {
	if n == nil {
		return false
	}
	for _, k := range kinds {
		if n.kind == k {
			return true
		}
	}
	return false
}

// Text returns the raw source text covered by the node.
func (n *Node) Text() string {
	if n == nil || n.tree == nil {
		return ""
	}
	src := n.tree.source
	if n.startByte < 0 || n.endByte > len(src) || n.startByte > n.endByte {
		return ""
	}
	return string(src[n.startByte:n.endByte])
}

// StartByte is the offset of the node's first byte in the source.
func (n *Node) StartByte() int {
	if n == nil {
		return 0
	}
	return n.startByte
}

// EndByte is the offset just past the node's last byte.
func (n *Node) EndByte() int {
	if n == nil {
		return 0
	}
	return n.endByte
}

// Line is the 1-based line where the node starts.
func (n *Node) Line() int {
	if n == nil {
		return 0
	}
	return n.line
}

// Column is the 1-based column where the node starts.
func (n *Node) Column() int {
	if n == nil {
		return 0
	}
	return n.column
}

func (n *Node) EndLine() int {
	if n == nil {
		return 0
	}
	return n.endLine
}

func (n *Node) EndColumn() int {
	if n == nil {
		return 0
	}
	return n.endColumn
}

// IsNamed reports whether the node is a named grammar rule rather than an
// anonymous token such as "{" or "else".
func (n *Node) IsNamed() bool {
	return n != nil && n.named
}

// IsComment reports whether the node is trivia.
func (n *Node) IsComment() bool {
	return n != nil && n.comment
}

// Field returns the grammar field name the node occupies under its parent,
// or "" if it has none.
func (n *Node) Field() string {
	if n == nil {
		return ""
	}
	return n.field
}

// Index is the node's arena slot, unique within its tree and increasing in
// pre-order.
func (n *Node) Index() int {
	if n == nil {
		return -1
	}
	return n.index
}

// Tree returns the tree owning the node.
func (n *Node) Tree() *Tree {
	if n == nil {
		return nil
	}
	return n.tree
}

func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

func (n *Node) FirstChild() *Node {
	if n == nil {
		return nil
	}
	return n.firstChild
}

func (n *Node) LastChild() *Node {
	if n == nil {
		return nil
	}
	return n.lastChild
}

func (n *Node) NextSibling() *Node {
	if n == nil {
		return nil
	}
	return n.next
}

func (n *Node) PrevSibling() *Node {
	if n == nil {
		return nil
	}
	return n.prev
}

func (n *Node) ChildCount() int {
	if n == nil {
		return 0
	}
	return n.childCount
}

// Children returns the direct children in source order.
func (n *Node) Children() []*Node {
	if n == nil || n.childCount == 0 {
		return nil
	}
	out := make([]*Node, 0, n.childCount)
	for c := n.firstChild; c != nil; c = c.next {
		out = append(out, c)
	}
	return out
}

// NamedChildren returns the named, non-comment children in source order.
func (n *Node) NamedChildren() []*Node {
	var out []*Node
	for c := n.FirstChild(); c != nil; c = c.next {
		if c.named && !c.comment {
			out = append(out, c)
		}
	}
	return out
}
