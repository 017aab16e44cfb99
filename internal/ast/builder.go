package ast

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// KindError is the kind parsers give to unparseable regions.
const KindError Kind = "ERROR"

// DefaultCommentKinds are the trivia kinds used by the supported grammars.
var DefaultCommentKinds = []Kind{"comment", "line_comment", "block_comment"}

// Attrs describes one node pushed with Builder.Push.
type Attrs struct {
	Kind      Kind
	Field     string
	Named     bool
	StartByte int
	EndByte   int
	Line      int
	Column    int
	EndLine   int
	EndColumn int
}

type record struct {
	Attrs
	parent   int
	children []int
}

// Builder assembles a Tree node by node in pre-order. Push and Pop take
// explicit positions into a caller-supplied source. Open, Leaf, Token and
// Close synthesize the source themselves, one line per node, which keeps
// hand-written trees readable. The two styles should not be mixed.
type Builder struct {
	path     string
	language string
	source   []byte
	comments map[Kind]bool

	recs      []record
	stack     []int
	roots     int
	nextField string
}

// NewBuilder returns a builder for a file with the given source.
func NewBuilder(path, language string, source []byte) *Builder {
	b := &Builder{path: path, language: language, source: source}
	return b.SetCommentKinds(DefaultCommentKinds...)
}

// SetCommentKinds replaces the set of kinds treated as trivia.
func (b *Builder) SetCommentKinds(kinds ...Kind) *Builder {
	b.comments = make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		b.comments[k] = true
	}
	return b
}

// Push opens a node with explicit attributes. It becomes the parent of every
// node pushed until the matching Pop.
func (b *Builder) Push(a Attrs) *Builder {
	idx := len(b.recs)
	parent := -1
	if len(b.stack) > 0 {
		parent = b.stack[len(b.stack)-1]
		b.recs[parent].children = append(b.recs[parent].children, idx)
	} else {
		b.roots++
	}
	b.recs = append(b.recs, record{Attrs: a, parent: parent})
	b.stack = append(b.stack, idx)
	return b
}

// Pop closes the most recently pushed node.
func (b *Builder) Pop() *Builder {
	if len(b.stack) > 0 {
		b.stack = b.stack[:len(b.stack)-1]
	}
	return b
}

// Field sets the grammar field name of the next synthesized node.
func (b *Builder) Field(name string) *Builder {
	b.nextField = name
	return b
}

// Open synthesizes a named node and makes it current. An empty text uses the
// kind name.
func (b *Builder) Open(kind Kind, text string) *Builder {
	return b.synth(kind, text, true)
}

// Leaf synthesizes a named node without children.
func (b *Builder) Leaf(kind Kind, text string) *Builder {
	b.synth(kind, text, true)
	return b.Close()
}

// Token synthesizes an anonymous token whose kind is its text, the way
// keywords and punctuation appear in parsed trees.
func (b *Builder) Token(text string) *Builder {
	b.synth(Kind(text), text, false)
	return b.Close()
}

// Close ends the current synthesized node, extending it over everything
// written since it was opened.
func (b *Builder) Close() *Builder {
	if len(b.stack) == 0 {
		return b
	}
	top := b.stack[len(b.stack)-1]
	r := &b.recs[top]
	r.EndByte = len(b.source)
	if r.EndByte > r.StartByte {
		r.EndByte--
	}
	before := string(b.source[:r.EndByte])
	r.EndLine = strings.Count(before, "\n") + 1
	r.EndColumn = r.EndByte - (strings.LastIndexByte(before, '\n') + 1) + 1
	return b.Pop()
}

func (b *Builder) synth(kind Kind, text string, named bool) *Builder {
	if text == "" {
		text = string(kind)
	}
	depth := len(b.stack)
	line := strings.Count(string(b.source), "\n") + 1
	b.source = append(b.source, strings.Repeat("  ", depth)...)
	start := len(b.source)
	b.source = append(b.source, text...)
	end := len(b.source)
	b.source = append(b.source, '\n')
	field := b.nextField
	b.nextField = ""
	return b.Push(Attrs{
		Kind:      kind,
		Field:     field,
		Named:     named,
		StartByte: start,
		EndByte:   end,
		Line:      line,
		Column:    2*depth + 1,
		EndLine:   line,
		EndColumn: 2*depth + 1 + len(text),
	})
}

// Build links the recorded nodes into a Tree.
func (b *Builder) Build() (*Tree, error) {
	if len(b.stack) > 0 {
		return nil, errors.Wrapf(ErrMalformedTree, "%d nodes left open", len(b.stack))
	}
	if b.roots > 1 {
		return nil, errors.Wrapf(ErrMalformedTree, "%d root nodes", b.roots)
	}
	t := &Tree{
		path:     b.path,
		language: b.language,
		source:   b.source,
		nodes:    make([]Node, len(b.recs)),
	}
	for i := range b.recs {
		r := &b.recs[i]
		n := &t.nodes[i]
		*n = Node{
			tree:       t,
			index:      i,
			kind:       r.Kind,
			field:      r.Field,
			named:      r.Named,
			comment:    b.comments[r.Kind],
			startByte:  r.StartByte,
			endByte:    r.EndByte,
			line:       r.Line,
			column:     r.Column,
			endLine:    r.EndLine,
			endColumn:  r.EndColumn,
			childCount: len(r.children),
		}
		if r.Kind == KindError {
			t.errors++
		}
	}
	// Children follow their parent in the arena, so links are set only after
	// every slot is initialized.
	for i := range b.recs {
		r := &b.recs[i]
		n := &t.nodes[i]
		if r.parent >= 0 {
			n.parent = &t.nodes[r.parent]
		}
		for j, c := range r.children {
			child := &t.nodes[c]
			if j == 0 {
				n.firstChild = child
			}
			if j > 0 {
				child.prev = &t.nodes[r.children[j-1]]
			}
			if j < len(r.children)-1 {
				child.next = &t.nodes[r.children[j+1]]
			}
		}
		if len(r.children) > 0 {
			n.lastChild = &t.nodes[r.children[len(r.children)-1]]
		}
	}
	return t, nil
}
