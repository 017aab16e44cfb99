package ast

import (
	"github.com/cockroachdb/errors"
)

// ErrMalformedTree is returned by Validate when the links of a tree disagree
// with each other.
var ErrMalformedTree = errors.New("malformed syntax tree")

// Tree is one parsed source file.
type Tree struct {
	path     string
	language string
	source   []byte
	nodes    []Node
	errors   int
}

func (t *Tree) Path() string     { return t.path }
func (t *Tree) Language() string { return t.language }
func (t *Tree) Source() []byte   { return t.source }

// Root returns the root node, or nil for an empty tree.
func (t *Tree) Root() *Node {
	if t == nil || len(t.nodes) == 0 {
		return nil
	}
	return &t.nodes[0]
}

// Len is the number of nodes in the tree.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

// Node returns the node stored in arena slot i.
func (t *Tree) Node(i int) *Node {
	if t == nil || i < 0 || i >= len(t.nodes) {
		return nil
	}
	return &t.nodes[i]
}

// ErrorCount is the number of syntax error nodes recorded while parsing.
func (t *Tree) ErrorCount() int {
	if t == nil {
		return 0
	}
	return t.errors
}

// Validate checks that the tree has a root, that every node is reachable
// from it exactly once, that parent and sibling links agree, and that child
// counts match.
func (t *Tree) Validate() error {
	root := t.Root()
	if root == nil {
		return errors.Wrap(ErrMalformedTree, "tree has no root")
	}
	if root.parent != nil || root.next != nil || root.prev != nil {
		return errors.Wrap(ErrMalformedTree, "root has parent or siblings")
	}
	seen := make([]bool, len(t.nodes))
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.tree != t || n.index < 0 || n.index >= len(t.nodes) || &t.nodes[n.index] != n {
			return errors.Wrapf(ErrMalformedTree, "node %q is not owned by the tree", n.kind)
		}
		if seen[n.index] {
			return errors.Wrapf(ErrMalformedTree, "node %d reached twice", n.index)
		}
		seen[n.index] = true

		count := 0
		var prev *Node
		for c := n.firstChild; c != nil; c = c.next {
			if c.parent != n {
				return errors.Wrapf(ErrMalformedTree, "node %d has wrong parent", c.index)
			}
			if c.prev != prev {
				return errors.Wrapf(ErrMalformedTree, "node %d has wrong previous sibling", c.index)
			}
			prev = c
			count++
			if count > len(t.nodes) {
				return errors.Wrapf(ErrMalformedTree, "sibling cycle under node %d", n.index)
			}
			stack = append(stack, c)
		}
		if prev != n.lastChild {
			return errors.Wrapf(ErrMalformedTree, "node %d has wrong last child", n.index)
		}
		if count != n.childCount {
			return errors.Wrapf(ErrMalformedTree, "node %d reports %d children, has %d", n.index, n.childCount, count)
		}
	}
	for i, ok := range seen {
		if !ok {
			return errors.Wrapf(ErrMalformedTree, "node %d unreachable from root", i)
		}
	}
	return nil
}
