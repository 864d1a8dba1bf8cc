package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/jsengine/internal/compiler"
	"github.com/oxhq/jsengine/internal/parser"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(dsn, false)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func compileFixture(t *testing.T, src string) *compiler.CodeBlock {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	cb, err := compiler.CompileProgram(prog)
	require.NoError(t, err)
	return cb
}

func TestStoreLookupMiss(t *testing.T) {
	s := openTestStore(t)
	_, ok := s.Lookup(Digest("1 + 1"))
	assert.False(t, ok)
}

func TestStorePutLookupRoundTrip(t *testing.T) {
	s := openTestStore(t)
	cb := compileFixture(t, "function add(a, b) { return a + b; } add(2, 3);")
	digest := Digest("function add(a, b) { return a + b; } add(2, 3);")

	require.NoError(t, s.Put(digest, cb))

	got, ok := s.Lookup(digest)
	require.True(t, ok)
	assert.Equal(t, cb.Name, got.Name)
	assert.Equal(t, len(cb.Instructions), len(got.Instructions))
	assert.Equal(t, len(cb.Children), len(got.Children))
}

func TestStorePutOverwritesExisting(t *testing.T) {
	s := openTestStore(t)
	digest := Digest("const x = 1;")
	cb1 := compileFixture(t, "const x = 1;")
	cb2 := compileFixture(t, "const x = 1; const y = 2;")

	require.NoError(t, s.Put(digest, cb1))
	require.NoError(t, s.Put(digest, cb2))

	got, ok := s.Lookup(digest)
	require.True(t, ok)
	assert.Equal(t, len(cb2.Instructions), len(got.Instructions))
}

func TestStoreRejectsStaleEngineVersion(t *testing.T) {
	s := openTestStore(t)
	cb := compileFixture(t, "1;")
	digest := Digest("1;")
	require.NoError(t, s.Put(digest, cb))

	require.NoError(t, s.db.Model(&Entry{}).Where("source_digest = ?", digest).Update("engine_ver", "0").Error)

	_, ok := s.Lookup(digest)
	assert.False(t, ok)
}

func TestEncodeDecodeConstants(t *testing.T) {
	cb := compileFixture(t, `"hi" + 1 + 2.5 + true;`)
	b, err := Encode(cb)
	require.NoError(t, err)
	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, len(cb.Constants), len(got.Constants))
}

func TestIsURL(t *testing.T) {
	assert.True(t, isURL("https://db.turso.io/foo"))
	assert.True(t, isURL("libsql://db.turso.io/foo"))
	assert.False(t, isURL("/tmp/cache.db"))
	assert.False(t, isURL("cache.db"))
}
