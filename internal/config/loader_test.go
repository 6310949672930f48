package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "inference_batch_size: 32\ninference_threads: 4\ninference_cache: 100000\ncache_shards: 8\nlisten_addr: :9999\notel_endpoint: collector:4318\n")
	f, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.InferenceBatchSize != 32 || f.InferenceThreads != 4 || f.InferenceCache != 100000 || f.CacheShards != 8 || f.ListenAddr != ":9999" || f.OTELEndpoint != "collector:4318" {
		t.Fatalf("unexpected file: %+v", f)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"inference_batch_size":16,"inference_threads":2,"inference_cache":5000,"cache_shards":4,"listen_addr":":7070"}`)
	f, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.InferenceBatchSize != 16 || f.InferenceThreads != 2 || f.InferenceCache != 5000 || f.CacheShards != 4 || f.ListenAddr != ":7070" {
		t.Fatalf("unexpected file: %+v", f)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "inference_batch_size=8\ninference_threads=1\ninference_cache=1000\ncache_shards=1\nlisten_addr=\":8081\"\n")
	f, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.InferenceBatchSize != 8 || f.InferenceThreads != 1 || f.InferenceCache != 1000 || f.CacheShards != 1 || f.ListenAddr != ":8081" {
		t.Fatalf("unexpected file: %+v", f)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}
