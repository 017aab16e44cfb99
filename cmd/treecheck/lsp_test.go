package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-regnier/treecheck/internal/cache"
	"github.com/chris-regnier/treecheck/internal/config"
	"github.com/chris-regnier/treecheck/internal/parse"
)

func TestLintFuncCachesResults(t *testing.T) {
	eng := testEngine(t, config.SystemDefaults())
	mem := cache.NewMemoryCache()
	lint := eng.lintFunc(mem, nil)

	for range 2 {
		results, err := lint(context.Background(), "src/A.java", []byte(nestedIfs))
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "nested-if-depth", results[0].RuleID)
		assert.Equal(t, "src/A.java", results[0].URI())
		assert.Equal(t, 5, results[0].Region().StartLine)
	}
	assert.Equal(t, 1, mem.Size())
	assert.Equal(t, 1, mem.Clear())
	assert.Equal(t, 0, mem.Size())
}

func TestLintFuncAppliesCommentDirectives(t *testing.T) {
	eng := testEngine(t, config.SystemDefaults())
	lint := eng.lintFunc(cache.NewMemoryCache(), nil)

	src := strings.Replace(nestedIfs, "        if (c) {",
		"        // treecheck:ignore-next-line nested-if-depth\n        if (c) {", 1)
	results, err := lint(context.Background(), "A.java", []byte(src))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestLintFuncUnsupportedLanguage(t *testing.T) {
	eng := testEngine(t, config.SystemDefaults())
	_, err := eng.lintFunc(nil, nil)(context.Background(), "notes.txt", []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, parse.ErrUnsupportedLanguage))
}
