package module

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.js"), []byte("export const x = 1;"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "util.mjs"), []byte("export const y = 2;"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib", "a.js"), []byte("export const a = 1;"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib", "b.js"), []byte("export const b = 2;"), 0o644))
	return root
}

func TestFSLoaderResolvesRelativeSpecifier(t *testing.T) {
	root := writeTree(t)
	loader := NewFSLoader(root)

	id, err := loader.Resolve("", "./main.js")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "main.js"), id.Path)

	src, err := loader.Load(id)
	require.NoError(t, err)
	assert.Equal(t, "export const x = 1;", src.Text)
}

func TestFSLoaderTriesExtensions(t *testing.T) {
	root := writeTree(t)
	loader := NewFSLoader(root)

	id, err := loader.Resolve("", "./util")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "util.mjs"), id.Path)
}

func TestFSLoaderResolvesNestedReferrer(t *testing.T) {
	root := writeTree(t)
	loader := NewFSLoader(root)

	entry, err := loader.Resolve("", "./lib/a.js")
	require.NoError(t, err)

	sibling, err := loader.Resolve(entry.Path, "./b.js")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "lib", "b.js"), sibling.Path)
}

func TestFSLoaderGlobSpecifier(t *testing.T) {
	root := writeTree(t)
	loader := NewFSLoader(root)

	id, err := loader.Resolve("", "lib/*.js")
	require.NoError(t, err)
	require.True(t, id.IsGlob)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "lib", "a.js"),
		filepath.Join(root, "lib", "b.js"),
	}, id.Matches)

	_, err = loader.Load(id)
	assert.Error(t, err)
}

func TestFSLoaderUnresolvableSpecifier(t *testing.T) {
	root := writeTree(t)
	loader := NewFSLoader(root)
	_, err := loader.Resolve("", "./missing.js")
	assert.Error(t, err)
}

func TestCacheLoadsOnce(t *testing.T) {
	root := writeTree(t)
	cache := NewCache(NewFSLoader(root))

	id, err := cache.Resolve("", "./main.js")
	require.NoError(t, err)

	src1, err := cache.Load(id)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(id.Path, []byte("export const x = 999;"), 0o644))
	src2, err := cache.Load(id)
	require.NoError(t, err)
	assert.Equal(t, src1.Text, src2.Text)
}
