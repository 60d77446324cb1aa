package discover

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/gobwas/glob"

	"github.com/dmitrymomot/rapid/pkg/config"
)

// Source resolves glob patterns to module paths and loads modules by path.
// Paths are slash separated and relative to the source root.
type Source interface {
	// Glob returns the sorted paths matching pattern.
	Glob(pattern string) ([]string, error)
	// Load returns the module stored at path.
	// A nil value with a nil error means the module should be skipped.
	Load(ctx context.Context, path string) (any, error)
}

func compile(pattern string) (glob.Glob, error) {
	g, err := glob.Compile(path.Clean(filepath.ToSlash(pattern)), '/')
	if err != nil {
		return nil, errors.Join(ErrInvalidPattern, fmt.Errorf("pattern %q: %w", pattern, err))
	}
	return g, nil
}

// DirSource reads modules from a directory tree.
// Only configuration files (YAML, TOML, JSON) can be loaded from disk.
type DirSource struct {
	root string
}

// Dir returns a Source rooted at the given directory.
func Dir(root string) *DirSource {
	return &DirSource{root: root}
}

// Root returns the directory the source reads from.
func (d *DirSource) Root() string { return d.root }

// Glob walks the pattern's base directory and returns every regular file
// matching pattern. VCS directories are skipped. A missing base directory
// yields no matches.
func (d *DirSource) Glob(pattern string) ([]string, error) {
	g, err := compile(pattern)
	if err != nil {
		return nil, err
	}

	start := filepath.Join(d.root, filepath.FromSlash(baseDir(pattern)))
	var matches []string
	err = filepath.WalkDir(start, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if entry.IsDir() {
			if p != start && skipDirs[entry.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if g.Match(rel) {
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(matches)
	return matches, nil
}

var skipDirs = map[string]bool{".git": true, ".hg": true, ".svn": true}

// baseDir returns the leading directory segments of pattern that hold no
// glob syntax. Files matching pattern can only live below it.
func baseDir(pattern string) string {
	segs := strings.Split(path.Clean(filepath.ToSlash(pattern)), "/")
	n := 0
	for n < len(segs)-1 && !strings.ContainsAny(segs[n], `*?[{\`) {
		n++
	}
	return path.Join(segs[:n]...)
}

// Load parses the configuration file at p.
func (d *DirSource) Load(_ context.Context, p string) (any, error) {
	full := filepath.Join(d.root, filepath.FromSlash(p))
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Join(ErrNotFound, fmt.Errorf("path %q", p))
		}
		return nil, err
	}
	if !config.Supported(full) {
		return nil, errors.Join(ErrUnsupportedModule, fmt.Errorf("path %q", p))
	}
	return config.LoadFile(full)
}

// Catalog is an in-process registry of modules keyed by virtual path.
// Go code cannot be loaded from files at runtime, so code modules are
// registered here under the path they would have on disk, e.g.
// "models/user.model", and matched by the same glob patterns.
type Catalog struct {
	mu      sync.RWMutex
	modules map[string]any
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{modules: make(map[string]any)}
}

// Register stores v under path. Registering the same path twice fails.
func (c *Catalog) Register(p string, v any) error {
	p = path.Clean(filepath.ToSlash(p))

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.modules[p]; ok {
		return errors.Join(ErrAlreadyRegistered, fmt.Errorf("path %q", p))
	}
	c.modules[p] = v
	return nil
}

// MustRegister is like Register but panics on error.
// Intended for package init blocks.
func (c *Catalog) MustRegister(p string, v any) *Catalog {
	if err := c.Register(p, v); err != nil {
		panic(err)
	}
	return c
}

// Paths returns every registered path, sorted.
func (c *Catalog) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.modules))
	for p := range c.modules {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Glob implements Source.
func (c *Catalog) Glob(pattern string) ([]string, error) {
	g, err := compile(pattern)
	if err != nil {
		return nil, err
	}
	var matches []string
	for _, p := range c.Paths() {
		if g.Match(p) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// Load implements Source.
func (c *Catalog) Load(_ context.Context, p string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.modules[path.Clean(p)]
	if !ok {
		return nil, errors.Join(ErrNotFound, fmt.Errorf("path %q", p))
	}
	return v, nil
}

type overlay []Source

// Overlay unions several sources. Glob merges and de-duplicates matches;
// Load asks each source in turn and returns the first hit.
func Overlay(sources ...Source) Source {
	out := make(overlay, 0, len(sources))
	for _, s := range sources {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (o overlay) Glob(pattern string) ([]string, error) {
	var all []string
	for _, s := range o {
		m, err := s.Glob(pattern)
		if err != nil {
			return nil, err
		}
		all = append(all, m...)
	}
	slices.Sort(all)
	return slices.Compact(all), nil
}

func (o overlay) Load(ctx context.Context, p string) (any, error) {
	for _, s := range o {
		v, err := s.Load(ctx, p)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return v, err
	}
	return nil, errors.Join(ErrNotFound, fmt.Errorf("path %q", p))
}
