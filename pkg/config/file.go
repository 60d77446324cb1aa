package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Extensions lists the file extensions LoadFile understands, in lookup order.
var Extensions = []string{".yaml", ".yml", ".toml", ".json"}

// Supported reports whether path has a config file extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// LoadFile reads a YAML, TOML or JSON file into a map.
// An empty file yields an empty map.
func LoadFile(path string) (map[string]any, error) {
	if !Supported(path) {
		return nil, errors.Join(ErrUnsupportedFormat, fmt.Errorf("file %q", path))
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrReadFile, err)
	}

	out, err := Parse(filepath.Ext(path), b)
	if err != nil {
		return nil, errors.Join(ErrParseFile, fmt.Errorf("file %q: %w", path, err))
	}
	return out, nil
}

// Parse decodes raw bytes of the format named by ext (".yaml", ".toml", ...).
func Parse(ext string, b []byte) (map[string]any, error) {
	out := make(map[string]any)
	if len(strings.TrimSpace(string(b))) == 0 {
		return out, nil
	}

	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &out)
	case ".toml":
		_, err = toml.Decode(string(b), &out)
	case ".json":
		err = json.Unmarshal(b, &out)
	default:
		return nil, errors.Join(ErrUnsupportedFormat, fmt.Errorf("extension %q", ext))
	}
	if err != nil {
		return nil, err
	}

	norm, _ := Normalize(out).(map[string]any)
	return norm, nil
}

// FindFile returns the first existing file dir/name.<ext> for the supported
// extensions, or "" when none exists.
func FindFile(dir, name string) string {
	for _, ext := range Extensions {
		p := filepath.Join(dir, name+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
