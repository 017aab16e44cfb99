// Package parse turns source files into ast trees using tree-sitter grammars.
package parse

import (
	"context"

	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/chris-regnier/treecheck/internal/ast"
)

// ErrUnsupportedLanguage is returned for files no grammar is registered for.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Options controls tree construction.
type Options struct {
	// Trivia keeps comment nodes in the tree. Without it comments are
	// dropped during conversion and no check ever sees them.
	Trivia bool
}

// Parse detects the language of path and parses source.
func Parse(ctx context.Context, path string, source []byte, opts Options) (*ast.Tree, error) {
	lang, ok := Detect(path)
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedLanguage, "%s", path)
	}
	return ParseLanguage(ctx, lang, path, source, opts)
}

// ParseLanguage parses source with the named grammar.
func ParseLanguage(ctx context.Context, lang, path string, source []byte, opts Options) (*ast.Tree, error) {
	g, ok := grammars[lang]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedLanguage, "%q", lang)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(g.language)
	st, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}

	comments := make(map[ast.Kind]bool, len(g.comments))
	for _, k := range g.comments {
		comments[k] = true
	}

	b := ast.NewBuilder(path, lang, source).SetCommentKinds(g.comments...)
	convert(b, st.RootNode(), comments, opts.Trivia)
	return b.Build()
}

type frame struct {
	node *sitter.Node
	next int
}

// convert copies the tree-sitter tree into b without recursion, so deeply
// nested sources cannot exhaust the goroutine stack.
func convert(b *ast.Builder, root *sitter.Node, comments map[ast.Kind]bool, trivia bool) {
	b.Push(attrs(root, ""))
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= int(top.node.ChildCount()) {
			b.Pop()
			stack = stack[:len(stack)-1]
			continue
		}
		i := top.next
		top.next++
		child := top.node.Child(i)
		if child == nil {
			continue
		}
		if !trivia && comments[ast.Kind(child.Type())] {
			continue
		}
		b.Push(attrs(child, top.node.FieldNameForChild(i)))
		stack = append(stack, frame{node: child})
	}
}

func attrs(n *sitter.Node, field string) ast.Attrs {
	kind := ast.Kind(n.Type())
	if n.IsMissing() {
		kind = ast.KindError
	}
	start, end := n.StartPoint(), n.EndPoint()
	return ast.Attrs{
		Kind:      kind,
		Field:     field,
		Named:     n.IsNamed(),
		StartByte: int(n.StartByte()),
		EndByte:   int(n.EndByte()),
		Line:      int(start.Row) + 1,
		Column:    int(start.Column) + 1,
		EndLine:   int(end.Row) + 1,
		EndColumn: int(end.Column) + 1,
	}
}
