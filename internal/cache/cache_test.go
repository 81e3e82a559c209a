package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/mdast/internal/ast"
	"github.com/dgallion1/mdast/internal/emitter"
	"github.com/dgallion1/mdast/internal/parser"
)

func openTest(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(Config{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_RoundTrip(t *testing.T) {
	c := openTest(t)
	src := []byte("# Title\n\n| a |\n|:-:|\n| [x](y) |\n")
	p := parser.NewMarkdownParser(emitter.DefaultOptions, nil)
	res, err := p.Parse(context.Background(), src)
	require.NoError(t, err)

	key := Key(src, emitter.DefaultOptions)
	_, ok, err := c.Get(key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(key, res))
	got, ok, err := c.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, res, got)
	require.NoError(t, ast.Verify(got.Root))
}

func TestCache_SkipsCanceled(t *testing.T) {
	c := openTest(t)
	key := Key([]byte("x"), emitter.Options{})
	require.NoError(t, c.Put(key, &parser.Result{Root: ast.New(ast.KindDocument), Canceled: true}))
	_, ok, err := c.Get(key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKey_DependsOnOptions(t *testing.T) {
	src := []byte("$x$")
	a := Key(src, emitter.Options{})
	b := Key(src, emitter.Options{Math: true})
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Key(src, emitter.Options{}))
	assert.NotEqual(t, a, Key([]byte("$y$"), emitter.Options{}))
}
