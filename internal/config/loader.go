// Package config loads the dispatcher's file-based configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// File holds the on-disk representation of a dispatcher configuration.
// Zero values are passed through unchanged; once converted, evaluator.Config
// raises a zero batch size to 1 (inline mode) and a zero shard count to 1,
// while zero threads selects inline mode and a zero cache disables caching.
type File struct {
	InferenceBatchSize int    `json:"inference_batch_size" yaml:"inference_batch_size" toml:"inference_batch_size"`
	InferenceThreads   int    `json:"inference_threads" yaml:"inference_threads" toml:"inference_threads"`
	InferenceCache     int    `json:"inference_cache" yaml:"inference_cache" toml:"inference_cache"`
	CacheShards        int    `json:"cache_shards" yaml:"cache_shards" toml:"cache_shards"`
	ListenAddr         string `json:"listen_addr" yaml:"listen_addr" toml:"listen_addr"`
	OTELEndpoint       string `json:"otel_endpoint" yaml:"otel_endpoint" toml:"otel_endpoint"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (File, error) {
	var f File
	if path == "" {
		return f, fmt.Errorf("config: empty path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &f); err != nil {
			return f, err
		}
	case ".json":
		if err := json.Unmarshal(b, &f); err != nil {
			return f, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &f); err != nil {
			return f, err
		}
	default:
		return f, fmt.Errorf("config: unsupported extension: %s", ext)
	}
	return f, nil
}
