package config

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/ideascout/internal/domain/source"
)

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingValkeyAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = []string{}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing valkey addrs")
	}
}

func TestValidate_SourceCaps(t *testing.T) {
	tests := []struct {
		name    string
		caps    map[string]int
		wantErr string
	}{
		{"valid", map[string]int{"reddit": 10, "arxiv": 5}, ""},
		{"unknown source", map[string]int{"myspace": 10}, "unknown source"},
		{"negative", map[string]int{"reddit": -1}, "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Search.SourceCaps = tt.caps

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_Threshold(t *testing.T) {
	cfg := validConfig()
	cfg.Search.SimilarityThreshold = 1.5

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for threshold above 1")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 0 {
		t.Errorf("expected unbounded WriteTimeoutSec, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Search.SimilarityThreshold != 0.3 {
		t.Errorf("expected SimilarityThreshold=0.3, got %g", cfg.Search.SimilarityThreshold)
	}
	if cfg.Search.AdapterTimeoutSec != 20 {
		t.Errorf("expected AdapterTimeoutSec=20, got %d", cfg.Search.AdapterTimeoutSec)
	}
	if cfg.Search.SourceCaps["arxiv"] != 20 {
		t.Errorf("expected arxiv cap from literature page size, got %d", cfg.Search.SourceCaps["arxiv"])
	}
	if cfg.Literature.Scope != "cs.*" {
		t.Errorf("expected Scope=cs.*, got %q", cfg.Literature.Scope)
	}
	if cfg.Catalog.RefreshIntervalSec != 600 {
		t.Errorf("expected RefreshIntervalSec=600, got %d", cfg.Catalog.RefreshIntervalSec)
	}
	if cfg.Catalog.HNSWM != 16 {
		t.Errorf("expected HNSWM=16, got %d", cfg.Catalog.HNSWM)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.Embedding.Dimensions)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:       HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database:   DatabaseConfig{ReadinessTimeout: 15},
		Search:     SearchConfig{SimilarityThreshold: 0.5, SourceCaps: map[string]int{"arxiv": 7}},
		Literature: LiteratureConfig{PageSize: 50, Scope: "q-bio.*"},
		Catalog:    CatalogConfig{HNSWM: 32},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Search.SimilarityThreshold != 0.5 {
		t.Errorf("expected SimilarityThreshold=0.5, got %g", cfg.Search.SimilarityThreshold)
	}
	if cfg.Search.SourceCaps["arxiv"] != 7 {
		t.Errorf("explicit arxiv cap must win, got %d", cfg.Search.SourceCaps["arxiv"])
	}
	if cfg.Literature.Scope != "q-bio.*" {
		t.Errorf("expected Scope=q-bio.*, got %q", cfg.Literature.Scope)
	}
	if cfg.Catalog.HNSWM != 32 {
		t.Errorf("expected HNSWM=32, got %d", cfg.Catalog.HNSWM)
	}
}

func TestApplyDefaults_CredentialFallback(t *testing.T) {
	cfg := Config{Embedding: EmbeddingConfig{APIKey: "emb-key", BaseURL: "https://api.example.com/v1/"}}
	cfg.ApplyDefaults()

	if cfg.Enrichment.APIKey != "emb-key" || cfg.Enrichment.BaseURL != "https://api.example.com/v1/" {
		t.Errorf("enrichment must reuse embedding credentials, got %+v", cfg.Enrichment)
	}
	if cfg.Chat.APIKey != "emb-key" || cfg.Chat.Model != cfg.Enrichment.Model {
		t.Errorf("chat must reuse enrichment settings, got %+v", cfg.Chat)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("IDEASCOUT_TEST_PORT", "9090")

	cfg, err := Parse([]byte(`
http:
  port: ${IDEASCOUT_TEST_PORT}
database:
  addrs: ["${IDEASCOUT_TEST_DB:-localhost:6379}"]
search:
  source_caps:
    reddit: 15
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.HTTP.Port)
	}
	if len(cfg.Database.Addrs) != 1 || cfg.Database.Addrs[0] != "localhost:6379" {
		t.Errorf("Addrs = %v", cfg.Database.Addrs)
	}

	caps := cfg.SourceCaps()
	if caps[source.Reddit] != 15 || caps[source.Arxiv] != 20 {
		t.Errorf("SourceCaps = %v", caps)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected parse error")
	}
}
