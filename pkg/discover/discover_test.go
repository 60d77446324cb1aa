package discover_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rapid/pkg/discover"
)

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
}

func TestDirGlob(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "config/config.default.yaml", "a: 1")
	writeFile(t, root, "config/config.test.yaml", "a: 2")
	writeFile(t, root, "config/nested/extra.yaml", "b: 1")
	writeFile(t, root, "other/file.txt", "x")

	src := discover.Dir(root)

	t.Run("single segment star", func(t *testing.T) {
		t.Parallel()
		m, err := src.Glob("config/*.yaml")
		require.NoError(t, err)
		assert.Equal(t, []string{"config/config.default.yaml", "config/config.test.yaml"}, m)
	})

	t.Run("super star crosses segments", func(t *testing.T) {
		t.Parallel()
		m, err := src.Glob("config/**.yaml")
		require.NoError(t, err)
		assert.Equal(t, []string{"config/config.default.yaml", "config/config.test.yaml", "config/nested/extra.yaml"}, m)
	})

	t.Run("braces", func(t *testing.T) {
		t.Parallel()
		m, err := src.Glob("{config,other}/*.{txt,yml}")
		require.NoError(t, err)
		assert.Equal(t, []string{"other/file.txt"}, m)
	})

	t.Run("no matches", func(t *testing.T) {
		t.Parallel()
		m, err := src.Glob("models/**.model")
		require.NoError(t, err)
		assert.Empty(t, m)
	})

	t.Run("missing root", func(t *testing.T) {
		t.Parallel()
		m, err := discover.Dir(filepath.Join(root, "nope")).Glob("**")
		require.NoError(t, err)
		assert.Empty(t, m)
	})

	t.Run("missing base directory", func(t *testing.T) {
		t.Parallel()
		m, err := src.Glob("models/users/*.model")
		require.NoError(t, err)
		assert.Empty(t, m)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		t.Parallel()
		_, err := src.Glob("config/[")
		require.ErrorIs(t, err, discover.ErrInvalidPattern)
	})
}

func TestDirGlobSkipsVCSDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "app.yaml", "a: 1")
	writeFile(t, root, ".git/config.yaml", "a: 2")
	writeFile(t, root, "config/.git/hooks.yaml", "a: 3")
	writeFile(t, root, "config/app.yaml", "a: 4")

	m, err := discover.Dir(root).Glob("**.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"app.yaml", "config/app.yaml"}, m)

	m, err = discover.Dir(root).Glob(".git/*.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{".git/config.yaml"}, m)
}

func TestDirGlobWalksBaseDirectoryOnly(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "config/app.yaml", "a: 1")
	writeFile(t, root, "locked/secret.yaml", "a: 2")
	require.NoError(t, os.Chmod(filepath.Join(root, "locked"), 0o000))
	t.Cleanup(func() { _ = os.Chmod(filepath.Join(root, "locked"), 0o755) })

	m, err := discover.Dir(root).Glob("config/*.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"config/app.yaml"}, m)
}

func TestDirLoad(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "config/config.default.toml", "[webserver]\nport = 8080\n")
	writeFile(t, root, "models/user.go", "package models")

	src := discover.Dir(root)

	v, err := src.Load(context.Background(), "config/config.default.toml")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"webserver": map[string]any{"port": int64(8080)}}, v)

	_, err = src.Load(context.Background(), "models/user.go")
	require.ErrorIs(t, err, discover.ErrUnsupportedModule)

	_, err = src.Load(context.Background(), "missing.yaml")
	require.ErrorIs(t, err, discover.ErrNotFound)
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	c := discover.NewCatalog()
	require.NoError(t, c.Register("models/user.model", "user"))
	require.NoError(t, c.Register("models/admin/role.model", "role"))
	require.NoError(t, c.Register("seeds/users.seed", "seed"))

	err := c.Register("models/user.model", "again")
	require.ErrorIs(t, err, discover.ErrAlreadyRegistered)

	m, err := c.Glob("models/**.model")
	require.NoError(t, err)
	assert.Equal(t, []string{"models/admin/role.model", "models/user.model"}, m)

	v, err := c.Load(context.Background(), "models/user.model")
	require.NoError(t, err)
	assert.Equal(t, "user", v)

	_, err = c.Load(context.Background(), "models/none.model")
	require.ErrorIs(t, err, discover.ErrNotFound)

	assert.Panics(t, func() { c.MustRegister("seeds/users.seed", nil) })
}

func TestOverlay(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "config/config.default.yaml", "a: 1")

	c := discover.NewCatalog().
		MustRegister("config/config.default.yaml", "shadowed").
		MustRegister("config/extra.yaml", map[string]any{"b": 2})

	src := discover.Overlay(discover.Dir(root), nil, c)

	m, err := src.Glob("config/*.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"config/config.default.yaml", "config/extra.yaml"}, m)

	v, err := src.Load(context.Background(), "config/config.default.yaml")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1}, v)

	v, err = src.Load(context.Background(), "config/extra.yaml")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"b": 2}, v)

	_, err = src.Load(context.Background(), "config/none.yaml")
	require.ErrorIs(t, err, discover.ErrNotFound)
}

type failingSource struct {
	*discover.Catalog
	fail map[string]bool
}

func (f failingSource) Load(ctx context.Context, p string) (any, error) {
	if f.fail[p] {
		return nil, errors.New("broken module")
	}
	return f.Catalog.Load(ctx, p)
}

func TestDiscovererRun(t *testing.T) {
	t.Parallel()

	newCatalog := func() *discover.Catalog {
		return discover.NewCatalog().
			MustRegister("models/b.model", "b").
			MustRegister("models/a.model", "a").
			MustRegister("models/nil.model", nil).
			MustRegister("seeds/one.seed", "one").
			MustRegister("hooks/x.hook", "x")
	}

	t.Run("tasks run in enqueue order", func(t *testing.T) {
		t.Parallel()
		d := discover.New(newCatalog())

		var seen []string
		collect := func(_ context.Context, m discover.Module) error {
			seen = append(seen, m.Path)
			return nil
		}
		d.Enqueue([]string{"seeds/**.seed", "models/**.model"}, collect)
		d.Enqueue([]string{"hooks/**.hook", "missing/**"}, collect)
		assert.Equal(t, 4, d.Pending())

		require.NoError(t, d.Run(context.Background()))
		assert.Equal(t, []string{"seeds/one.seed", "models/a.model", "models/b.model", "hooks/x.hook"}, seen)
		assert.Zero(t, d.Pending())
	})

	t.Run("strict load failure aborts", func(t *testing.T) {
		t.Parallel()
		src := failingSource{Catalog: newCatalog(), fail: map[string]bool{"models/a.model": true}}
		d := discover.New(src)

		var seen []string
		d.Enqueue([]string{"models/**.model"}, func(_ context.Context, m discover.Module) error {
			seen = append(seen, m.Path)
			return nil
		})

		err := d.Run(context.Background())
		require.ErrorIs(t, err, discover.ErrLoadFailed)
		assert.Empty(t, seen)
	})

	t.Run("best effort skips failing module", func(t *testing.T) {
		t.Parallel()
		src := failingSource{Catalog: newCatalog(), fail: map[string]bool{"models/a.model": true}}
		d := discover.New(src, discover.WithPolicy(discover.BestEffort))

		var seen []string
		d.Enqueue([]string{"models/**.model"}, func(_ context.Context, m discover.Module) error {
			seen = append(seen, m.Path)
			return nil
		})

		require.NoError(t, d.Run(context.Background()))
		assert.Equal(t, []string{"models/b.model"}, seen)
	})

	t.Run("handler error stops run", func(t *testing.T) {
		t.Parallel()
		errStop := errors.New("stop")
		d := discover.New(newCatalog())

		calls := 0
		d.Enqueue([]string{"models/**.model", "seeds/**.seed"}, func(context.Context, discover.Module) error {
			calls++
			return errStop
		})

		require.ErrorIs(t, d.Run(context.Background()), errStop)
		assert.Equal(t, 1, calls)
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		d := discover.New(newCatalog())
		d.Enqueue([]string{"models/**.model"}, nil)
		require.ErrorIs(t, d.Run(ctx), context.Canceled)
	})
}
