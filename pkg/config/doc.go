// Package config holds layered application configuration.
//
// A [Config] is a tree of maps built by deep-merging sources in order: later
// sources override earlier ones key by key, and nested maps are merged rather
// than replaced. Values are addressed with dotted paths.
//
//	cfg := config.New(defaults)
//	_ = cfg.Merge(map[string]any{"webserver": map[string]any{"port": 9090}})
//	port := cfg.Int("webserver.port", 3000)
//
// Typed sections are decoded with [Config.Decode], which uses the yaml tags of
// the destination struct:
//
//	var db struct {
//	    Name string `yaml:"name"`
//	}
//	err := cfg.Decode("database", &db)
//
// Files in YAML, TOML and JSON are read with [LoadFile].
package config
