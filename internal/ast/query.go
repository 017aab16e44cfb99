package ast

// FirstChildOfKind returns the first direct child of kind k. It does not look
// at grandchildren.
func (n *Node) FirstChildOfKind(k Kind) (*Node, bool) {
	for c := n.FirstChild(); c != nil; c = c.next {
		if c.kind == k {
			return c, true
		}
	}
	return nil, false
}

// ChildrenOfKind returns every direct child of kind k.
func (n *Node) ChildrenOfKind(k Kind) []*Node {
	var out []*Node
	for c := n.FirstChild(); c != nil; c = c.next {
		if c.kind == k {
			out = append(out, c)
		}
	}
	return out
}

// ChildByField returns the first direct child stored under the given grammar
// field name.
func (n *Node) ChildByField(name string) (*Node, bool) {
	for c := n.FirstChild(); c != nil; c = c.next {
		if c.field == name {
			return c, true
		}
	}
	return nil, false
}

// HasChildText reports whether a direct child has exactly the given text.
// Anonymous keyword tokens such as "static" or "default" are matched this way.
func (n *Node) HasChildText(text string) bool {
	for c := n.FirstChild(); c != nil; c = c.next {
		if c.Text() == text {
			return true
		}
	}
	return false
}

// FindFirst searches the subtree below n in pre-order and returns the first
// descendant accepted by pred. n itself is not tested.
func (n *Node) FindFirst(pred func(*Node) bool) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	cur := n.firstChild
	for cur != nil {
		if pred(cur) {
			return cur, true
		}
		cur = nextPreorder(cur, n, true)
	}
	return nil, false
}

// BranchContains reports whether n or any node below it has kind k.
func (n *Node) BranchContains(k Kind) bool {
	if n == nil {
		return false
	}
	if n.kind == k {
		return true
	}
	_, ok := n.FindFirst(func(c *Node) bool { return c.kind == k })
	return ok
}

// Preorder visits n and its descendants in pre-order. Returning false from
// fn skips the children of the node just visited.
func (n *Node) Preorder(fn func(*Node) bool) {
	if n == nil {
		return
	}
	cur := n
	for cur != nil {
		descend := fn(cur)
		cur = nextPreorder(cur, n, descend)
	}
}

// nextPreorder returns the node after cur in a pre-order walk bounded by
// root, or nil when the walk is complete.
func nextPreorder(cur, root *Node, descend bool) *Node {
	if descend && cur.firstChild != nil {
		return cur.firstChild
	}
	for cur != nil && cur != root {
		if cur.next != nil {
			return cur.next
		}
		cur = cur.parent
	}
	return nil
}

// Ancestor returns the nearest proper ancestor with one of the given kinds.
func (n *Node) Ancestor(kinds ...Kind) (*Node, bool) {
	for p := n.Parent(); p != nil; p = p.parent {
		if p.Is(kinds...) {
			return p, true
		}
	}
	return nil, false
}

// NextNonComment returns the next sibling that is not trivia.
func (n *Node) NextNonComment() *Node {
	s := n.NextSibling()
	for s != nil && s.comment {
		s = s.next
	}
	return s
}

// PrevNonComment returns the previous sibling that is not trivia.
func (n *Node) PrevNonComment() *Node {
	s := n.PrevSibling()
	for s != nil && s.comment {
		s = s.prev
	}
	return s
}

// FirstNonCommentSibling returns the first following sibling that is not
// trivia.
func (n *Node) FirstNonCommentSibling() (*Node, bool) {
	s := n.NextNonComment()
	return s, s != nil
}
