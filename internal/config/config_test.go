package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "config", "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	writeConfig(t, `
http:
  port: 8080
database:
  uri: mongodb://localhost:27017
`)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.VectorIndex != "embedding_gemini_004_index_hervens" {
		t.Errorf("VectorIndex = %q, want default", cfg.Database.VectorIndex)
	}
	if cfg.Database.EmbeddingField != "embedding_gemini_004" {
		t.Errorf("EmbeddingField = %q, want default", cfg.Database.EmbeddingField)
	}
	if cfg.Search.MinScore != 0.5 {
		t.Errorf("MinScore = %v, want 0.5", cfg.Search.MinScore)
	}
	if cfg.Search.DefaultLimit != 10 || cfg.Search.MaxLimit != 100 {
		t.Errorf("limits = %d/%d, want 10/100", cfg.Search.DefaultLimit, cfg.Search.MaxLimit)
	}
	if cfg.Embedding.Dimensions != 768 {
		t.Errorf("Dimensions = %d, want 768", cfg.Embedding.Dimensions)
	}
	if cfg.LLM.KeyBackoffSec != 5 {
		t.Errorf("KeyBackoffSec = %d, want 5", cfg.LLM.KeyBackoffSec)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_MONGO_URI", "mongodb://db.internal:27017")
	writeConfig(t, `
http:
  port: ${TEST_HTTP_PORT:-9090}
database:
  uri: ${TEST_MONGO_URI}
`)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTP.Port != 9090 {
		t.Errorf("Port = %d, want 9090 from default expansion", cfg.HTTP.Port)
	}
	if cfg.Database.URI != "mongodb://db.internal:27017" {
		t.Errorf("URI = %q", cfg.Database.URI)
	}
}

func TestApplyDefaultsDropsEmptyGeminiKeys(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{URI: "mongodb://localhost:27017"},
		LLM:      LLMConfig{GeminiAPIKeys: []string{"key-1", "", "key-3"}},
	}
	cfg.ApplyDefaults()

	want := []string{"key-1", "key-3"}
	if len(cfg.LLM.GeminiAPIKeys) != 2 || cfg.LLM.GeminiAPIKeys[0] != want[0] || cfg.LLM.GeminiAPIKeys[1] != want[1] {
		t.Errorf("GeminiAPIKeys = %v, want %v", cfg.LLM.GeminiAPIKeys, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, true},
		{"missing uri", func(c *Config) { c.Database.URI = "" }, true},
		{"score out of range", func(c *Config) { c.Search.MinScore = 1.5 }, true},
		{"default limit above max", func(c *Config) { c.Search.DefaultLimit = 500 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				HTTP:     HTTPConfig{Port: 8080},
				Database: DatabaseConfig{URI: "mongodb://localhost:27017"},
			}
			cfg.ApplyDefaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv() = %q, want local", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv() = %q, want prod", got)
	}
}
