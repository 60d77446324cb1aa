package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rapid/pkg/config"
)

func TestConfigPrecedence(t *testing.T) {
	t.Parallel()

	defaults := map[string]any{
		"webserver": map[string]any{"port": 8080, "address": "0.0.0.0"},
		"database":  map[string]any{"name": "app"},
	}
	env := map[string]any{
		"webserver": map[string]any{"port": 9090},
	}
	override := map[string]any{
		"webserver": map[string]any{"port": 1234},
	}

	cfg := config.New(defaults)
	assert.Equal(t, 8080, cfg.Int("webserver.port", 0))

	require.NoError(t, cfg.Merge(env))
	assert.Equal(t, 9090, cfg.Int("webserver.port", 0))

	require.NoError(t, cfg.Merge(override))
	assert.Equal(t, 1234, cfg.Int("webserver.port", 0))
	assert.Equal(t, "0.0.0.0", cfg.String("webserver.address", ""))
	assert.Equal(t, "app", cfg.String("database.name", ""))
}

func TestMerge(t *testing.T) {
	t.Parallel()

	t.Run("scalars replace maps", func(t *testing.T) {
		t.Parallel()
		out := config.Merge(
			map[string]any{"a": map[string]any{"b": 1}},
			map[string]any{"a": "flat"},
		)
		assert.Equal(t, "flat", out["a"])
	})

	t.Run("source is copied", func(t *testing.T) {
		t.Parallel()
		src := map[string]any{"a": map[string]any{"b": 1}}
		out := config.Merge(nil, src)
		src["a"].(map[string]any)["b"] = 2
		assert.Equal(t, 1, out["a"].(map[string]any)["b"])
	})

	t.Run("map any keys are normalized", func(t *testing.T) {
		t.Parallel()
		out := config.Merge(
			map[string]any{"a": map[string]any{"x": 1}},
			map[string]any{"a": map[any]any{"y": 2}},
		)
		assert.Equal(t, map[string]any{"x": 1, "y": 2}, out["a"])
	})
}

func TestGetters(t *testing.T) {
	t.Parallel()

	cfg := config.New(map[string]any{
		"port":     "8081",
		"float":    12.0,
		"int64":    int64(5),
		"enabled":  "true",
		"flag":     true,
		"timeout":  "150ms",
		"interval": 3,
		"nested":   map[string]any{"deep": map[string]any{"key": "value"}},
	})

	assert.Equal(t, 8081, cfg.Int("port", 0))
	assert.Equal(t, 12, cfg.Int("float", 0))
	assert.Equal(t, 5, cfg.Int("int64", 0))
	assert.Equal(t, 7, cfg.Int("missing", 7))
	assert.Equal(t, 7, cfg.Int("nested", 7))
	assert.True(t, cfg.Bool("enabled", false))
	assert.True(t, cfg.Bool("flag", false))
	assert.True(t, cfg.Bool("missing", true))
	assert.Equal(t, 150*time.Millisecond, cfg.Duration("timeout", 0))
	assert.Equal(t, 3*time.Second, cfg.Duration("interval", 0))
	assert.Equal(t, "value", cfg.String("nested.deep.key", ""))
	assert.Equal(t, "8081", cfg.String("port", ""))
	assert.True(t, cfg.Has("nested.deep"))
	assert.False(t, cfg.Has("nested.deep.key.more"))
	assert.False(t, cfg.Has(""))
}

func TestDecode(t *testing.T) {
	t.Parallel()

	type dbConfig struct {
		Name     string `yaml:"name"`
		Port     int    `yaml:"port"`
		Disabled bool   `yaml:"disabled"`
	}

	cfg := config.New(map[string]any{
		"database": map[string]any{"name": "app", "port": 5432, "disabled": true},
	})

	var db dbConfig
	require.NoError(t, cfg.Decode("database", &db))
	assert.Equal(t, dbConfig{Name: "app", Port: 5432, Disabled: true}, db)

	untouched := dbConfig{Name: "keep"}
	require.NoError(t, cfg.Decode("missing", &untouched))
	assert.Equal(t, "keep", untouched.Name)

	var wrong struct {
		Database int `yaml:"database"`
	}
	err := cfg.Decode("", &wrong)
	require.ErrorIs(t, err, config.ErrDecode)
}

func TestFreeze(t *testing.T) {
	t.Parallel()

	cfg := config.New()
	cfg.Freeze()
	assert.True(t, cfg.Frozen())
	require.ErrorIs(t, cfg.Merge(map[string]any{"a": 1}), config.ErrFrozen)
	assert.False(t, cfg.Has("a"))
}

func TestMapReturnsCopy(t *testing.T) {
	t.Parallel()

	cfg := config.New(map[string]any{"a": map[string]any{"b": 1}})
	m := cfg.Map()
	m["a"].(map[string]any)["b"] = 2
	assert.Equal(t, 1, cfg.Int("a.b", 0))
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
		return p
	}

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()
		m, err := config.LoadFile(write("a.yaml", "webserver:\n  port: 8080\n"))
		require.NoError(t, err)
		assert.Equal(t, 8080, config.New(m).Int("webserver.port", 0))
	})

	t.Run("toml", func(t *testing.T) {
		t.Parallel()
		m, err := config.LoadFile(write("b.toml", "[webserver]\nport = 9090\n"))
		require.NoError(t, err)
		assert.Equal(t, 9090, config.New(m).Int("webserver.port", 0))
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		m, err := config.LoadFile(write("c.json", `{"webserver":{"port":1234}}`))
		require.NoError(t, err)
		assert.Equal(t, 1234, config.New(m).Int("webserver.port", 0))
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()
		m, err := config.LoadFile(write("d.yml", ""))
		require.NoError(t, err)
		assert.Empty(t, m)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		t.Parallel()
		_, err := config.LoadFile(write("e.ini", "a=1"))
		require.ErrorIs(t, err, config.ErrUnsupportedFormat)
	})

	t.Run("malformed", func(t *testing.T) {
		t.Parallel()
		_, err := config.LoadFile(write("f.json", "{"))
		require.ErrorIs(t, err, config.ErrParseFile)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		_, err := config.LoadFile(filepath.Join(dir, "nope.yaml"))
		require.ErrorIs(t, err, config.ErrReadFile)
	})
}

func TestFindFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.default.toml"), []byte(""), 0o600))

	assert.Equal(t, filepath.Join(dir, "config.default.toml"), config.FindFile(dir, "config.default"))
	assert.Empty(t, config.FindFile(dir, "config.production"))
}
