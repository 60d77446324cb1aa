package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/golobby/cast"
	"gopkg.in/yaml.v3"
)

// Config is a deep-merged tree of configuration values.
// Sources merged later override earlier ones key by key; nested maps are
// merged recursively instead of replaced.
// A frozen Config rejects further merges.
type Config struct {
	data   map[string]any
	mu     sync.RWMutex
	frozen bool
}

// New creates a Config seeded with the given sources, merged in order.
func New(sources ...map[string]any) *Config {
	c := &Config{data: make(map[string]any)}
	for _, src := range sources {
		c.data = Merge(c.data, src)
	}
	return c
}

// Merge deep-merges src into the config.
func (c *Config) Merge(src map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return ErrFrozen
	}
	c.data = Merge(c.data, src)
	return nil
}

// Freeze makes the config read-only.
func (c *Config) Freeze() {
	c.mu.Lock()
	c.frozen = true
	c.mu.Unlock()
}

// Frozen reports whether Freeze was called.
func (c *Config) Frozen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frozen
}

// Map returns a deep copy of the whole tree.
func (c *Config) Map() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return deepCopy(c.data)
}

// Get returns the value at a dotted path (e.g. "database.name").
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lookup(c.data, path)
}

// Has reports whether a value exists at path.
func (c *Config) Has(path string) bool {
	_, ok := c.Get(path)
	return ok
}

// String returns the value at path as a string, or def.
func (c *Config) String(path, def string) string {
	v, ok := c.Get(path)
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns the value at path as an int, or def if missing or not numeric.
func (c *Config) Int(path string, def int) int {
	v, ok := c.Get(path)
	if !ok {
		return def
	}
	n, ok := toInt(v)
	if !ok {
		return def
	}
	return n
}

// Bool returns the value at path as a bool, or def.
func (c *Config) Bool(path string, def bool) bool {
	v, ok := c.Get(path)
	if !ok {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := cast.FromType(b, reflect.TypeFor[bool]())
		if err != nil {
			return def
		}
		return parsed.(bool)
	}
	return def
}

// Duration returns the value at path as a duration, or def.
// Strings are parsed with time.ParseDuration; numbers are read as seconds.
func (c *Config) Duration(path string, def time.Duration) time.Duration {
	v, ok := c.Get(path)
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		d, err := time.ParseDuration(s)
		if err != nil {
			return def
		}
		return d
	}
	if n, ok := toInt(v); ok {
		return time.Duration(n) * time.Second
	}
	return def
}

// Decode copies the subtree at key into dst (a pointer to a struct or map).
// An empty key decodes the whole tree. A missing key leaves dst untouched.
// Fields are matched by their yaml tags.
func (c *Config) Decode(key string, dst any) error {
	var v any
	if key == "" {
		v = c.Map()
	} else {
		raw, ok := c.Get(key)
		if !ok {
			return nil
		}
		v = deepCopyValue(raw)
	}

	b, err := yaml.Marshal(v)
	if err != nil {
		return errors.Join(ErrDecode, err)
	}
	if err := yaml.Unmarshal(b, dst); err != nil {
		return errors.Join(ErrDecode, fmt.Errorf("key %q: %w", key, err))
	}
	return nil
}

// Merge deep-merges src into dst and returns dst.
// Nested maps merge recursively; every other value in src replaces the one in dst.
// src values are copied so later mutation of src does not leak into dst.
func Merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, sv := range src {
		sm, srcIsMap := asMap(sv)
		dm, dstIsMap := asMap(dst[k])
		if srcIsMap && dstIsMap {
			dst[k] = Merge(dm, sm)
			continue
		}
		dst[k] = deepCopyValue(sv)
	}
	return dst
}

// Normalize converts nested map[any]any values into map[string]any.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = Normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	}
	return v
}

func asMap(v any) (map[string]any, bool) {
	switch m := Normalize(v).(type) {
	case map[string]any:
		return m, true
	}
	return nil, false
}

func lookup(data map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	var cur any = data
	for part := range strings.SplitSeq(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func deepCopy(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := Normalize(v).(type) {
	case map[string]any:
		return deepCopy(t)
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopyValue(val)
		}
		return out
	default:
		return t
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		parsed, err := cast.FromType(n, reflect.TypeFor[int]())
		if err != nil {
			return 0, false
		}
		return parsed.(int), true
	}
	return 0, false
}
