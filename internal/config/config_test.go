package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opensource-finance/claimguard/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Tier != domain.TierCommunity {
		t.Errorf("expected community tier, got %s", cfg.Tier)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Repository.Driver != "sqlite" {
		t.Errorf("expected sqlite, got %s", cfg.Repository.Driver)
	}
	if cfg.Cache.LocalTTL != 5*time.Minute {
		t.Errorf("expected 5m local TTL, got %v", cfg.Cache.LocalTTL)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claimguard.yaml")
	doc := `
server:
  port: 9100
policy:
  rulesPath: /etc/claimguard/rules.yaml
cache:
  localTTL: 30s
review:
  provider: mock
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("expected port 9100, got %d", cfg.Server.Port)
	}
	if cfg.Policy.RulesPath != "/etc/claimguard/rules.yaml" {
		t.Errorf("unexpected rules path %s", cfg.Policy.RulesPath)
	}
	if cfg.Cache.LocalTTL != 30*time.Second {
		t.Errorf("expected 30s local TTL, got %v", cfg.Cache.LocalTTL)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected default host, got %s", cfg.Server.Host)
	}
}

func TestLoadSampleFile(t *testing.T) {
	cfg, err := Load("../../configs/claimguard.yaml")
	if err != nil {
		t.Fatalf("failed to load sample config: %v", err)
	}
	if cfg.Extraction.Provider != "file" {
		t.Errorf("expected file extraction provider, got %s", cfg.Extraction.Provider)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CLAIMGUARD_SERVER_PORT", "9200")
	t.Setenv("CLAIMGUARD_REPOSITORY_SQLITEPATH", "/tmp/claims.db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 9200 {
		t.Errorf("expected port 9200, got %d", cfg.Server.Port)
	}
	if cfg.Repository.SQLitePath != "/tmp/claims.db" {
		t.Errorf("expected env sqlite path, got %s", cfg.Repository.SQLitePath)
	}
}

func TestLoadProTier(t *testing.T) {
	t.Setenv("CLAIMGUARD_TIER", "pro")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Tier != domain.TierPro {
		t.Errorf("expected pro tier, got %s", cfg.Tier)
	}
	if cfg.Repository.Driver != "postgres" || cfg.Cache.Type != "redis" || cfg.EventBus.Type != "nats" {
		t.Errorf("expected pro stack, got %s/%s/%s", cfg.Repository.Driver, cfg.Cache.Type, cfg.EventBus.Type)
	}
	if cfg.Extraction.APIKey != "sk-test" || cfg.Review.APIKey != "sk-test" {
		t.Error("expected OPENAI_API_KEY to be applied to openai providers")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Config)
	}{
		{"BadPort", func(c *domain.Config) { c.Server.Port = 0 }},
		{"NoRules", func(c *domain.Config) { c.Policy.RulesPath = "" }},
		{"BadDriver", func(c *domain.Config) { c.Repository.Driver = "mysql" }},
		{"BadCache", func(c *domain.Config) { c.Cache.Type = "memcached" }},
		{"BadBus", func(c *domain.Config) { c.EventBus.Type = "kafka" }},
		{"BadExtractor", func(c *domain.Config) { c.Extraction.Provider = "tesseract" }},
		{"BadTier", func(c *domain.Config) { c.Tier = "enterprise" }},
	}

	if err := Validate(domain.DefaultConfig()); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if err := Validate(domain.ProConfig()); err != nil {
		t.Fatalf("pro config should be valid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := domain.DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
