// Package module implements the host module-loader contract (spec §6,
// promoted to a first-class component by SPEC_FULL §4.12): resolving a
// specifier relative to its referrer, and loading the resolved id's
// source text. A default filesystem loader is supplied so the repo has
// something driving module loading end to end, the way a from-scratch
// engine ships a default loader alongside the trait/interface it's built
// against. Specifier glob resolution (directory-style imports some
// embedders add on top of bare/relative specifiers) is grounded on the
// teacher's doublestar-based file discovery (core/filewalker.go).
package module

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ResolvedID is the opaque result of resolving a specifier: either a
// single file (the common case) or, for a glob-style specifier, the set
// of files it expanded to.
type ResolvedID struct {
	Path    string
	IsGlob  bool
	Matches []string
}

// Source is a module's loaded text plus the path it came from, used for
// error messages and source-map entries.
type Source struct {
	Text string
	Path string
}

// Loader is the host contract the engine calls during module loading
// (spec §6 "Module loader contract"). referrer is empty for the entry
// module.
type Loader interface {
	Resolve(referrer, specifier string) (ResolvedID, error)
	Load(id ResolvedID) (Source, error)
}

// FSLoader is the reference filesystem Loader: specifiers resolve
// relative to the referrer's directory (or Root, for the entry module),
// with a fixed list of extensions tried when the specifier omits one.
type FSLoader struct {
	Root       string
	Extensions []string
}

// NewFSLoader builds an FSLoader rooted at root, trying ".js"/".mjs" when
// a specifier names no extension.
func NewFSLoader(root string) *FSLoader {
	return &FSLoader{Root: root, Extensions: []string{"", ".js", ".mjs"}}
}

// Resolve implements Loader. A specifier containing glob metacharacters
// (`*`, `?`, `[`) resolves to every matching file under the referrer's
// directory, sorted, via doublestar; anything else resolves to exactly
// one file, trying each of l.Extensions in turn until one exists.
func (l *FSLoader) Resolve(referrer, specifier string) (ResolvedID, error) {
	dir := l.Root
	if referrer != "" {
		dir = filepath.Dir(referrer)
	}

	if isGlobPattern(specifier) {
		matches, err := doublestar.Glob(os.DirFS(dir), specifier)
		if err != nil {
			return ResolvedID{}, fmt.Errorf("module: bad glob specifier %q: %w", specifier, err)
		}
		abs := make([]string, len(matches))
		for i, m := range matches {
			abs[i] = filepath.Join(dir, m)
		}
		return ResolvedID{IsGlob: true, Matches: abs}, nil
	}

	base := specifier
	if !filepath.IsAbs(base) {
		base = filepath.Join(dir, base)
	}
	for _, ext := range l.Extensions {
		candidate := base + ext
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return ResolvedID{Path: candidate}, nil
		}
	}
	return ResolvedID{}, fmt.Errorf("module: cannot resolve specifier %q from %q", specifier, referrer)
}

// Load implements Loader. It is an error to Load a glob-resolved id
// directly — range over its Matches and resolve/load each individually.
func (l *FSLoader) Load(id ResolvedID) (Source, error) {
	if id.IsGlob {
		return Source{}, fmt.Errorf("module: %d glob matches cannot be loaded as a single module; load each of Matches", len(id.Matches))
	}
	b, err := os.ReadFile(id.Path)
	if err != nil {
		return Source{}, fmt.Errorf("module: reading %q: %w", id.Path, err)
	}
	return Source{Text: string(b), Path: id.Path}, nil
}

func isGlobPattern(specifier string) bool {
	return strings.ContainsAny(specifier, "*?[")
}

// Cache memoizes Source lookups by resolved path so a module imported by
// more than one referrer is only read from disk once per Context (spec
// §4.10: module loading is a job, and the job graph may revisit the same
// resolved id from multiple importers).
type Cache struct {
	loader  Loader
	sources map[string]Source
}

// NewCache wraps loader with a path-keyed Source cache.
func NewCache(loader Loader) *Cache {
	return &Cache{loader: loader, sources: make(map[string]Source)}
}

// Resolve delegates to the wrapped Loader unchanged (resolution itself is
// cheap and referrer-dependent, so only Load results are cached).
func (c *Cache) Resolve(referrer, specifier string) (ResolvedID, error) {
	return c.loader.Resolve(referrer, specifier)
}

// Load returns the cached Source for id.Path if this Cache has already
// loaded it, otherwise loads, caches, and returns it.
func (c *Cache) Load(id ResolvedID) (Source, error) {
	if id.IsGlob {
		return c.loader.Load(id)
	}
	if src, ok := c.sources[id.Path]; ok {
		return src, nil
	}
	src, err := c.loader.Load(id)
	if err != nil {
		return Source{}, err
	}
	c.sources[id.Path] = src
	return src, nil
}
