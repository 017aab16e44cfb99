package parse

import (
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	typescript "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/chris-regnier/treecheck/internal/ast"
)

type grammar struct {
	language *sitter.Language
	comments []ast.Kind
}

var (
	extToLang = map[string]string{
		".go":   "go",
		".py":   "python",
		".js":   "javascript",
		".jsx":  "javascript",
		".ts":   "typescript",
		".tsx":  "typescript",
		".java": "java",
		".c":    "c",
		".h":    "c",
		".rs":   "rust",
	}

	grammars map[string]grammar
)

func init() {
	grammars = map[string]grammar{
		"go":         {language: golang.GetLanguage(), comments: []ast.Kind{"comment"}},
		"python":     {language: python.GetLanguage(), comments: []ast.Kind{"comment"}},
		"javascript": {language: javascript.GetLanguage(), comments: []ast.Kind{"comment"}},
		"typescript": {language: typescript.GetLanguage(), comments: []ast.Kind{"comment"}},
		"java":       {language: java.GetLanguage(), comments: []ast.Kind{"line_comment", "block_comment"}},
		"c":          {language: c.GetLanguage(), comments: []ast.Kind{"comment"}},
		"rust":       {language: rust.GetLanguage(), comments: []ast.Kind{"line_comment", "block_comment"}},
	}
}

// Detect returns the language name for a file path and whether its
// extension was recognized.
func Detect(path string) (string, bool) {
	lang, ok := extToLang[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// Languages returns the supported language names, sorted.
func Languages() []string {
	names := make([]string, 0, len(grammars))
	for name := range grammars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CommentKinds returns the node kinds a language uses for comments.
func CommentKinds(lang string) []ast.Kind {
	return grammars[lang].comments
}
