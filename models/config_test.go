package models_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"houseplants/models"
	"houseplants/storage"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := models.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Address != ":8000" {
		t.Errorf("expected default address, got %s", cfg.Address)
	}
	if cfg.StoreDriver != storage.DriverDuckDB {
		t.Errorf("expected duckdb driver, got %s", cfg.StoreDriver)
	}
	if cfg.Debounce != 300*time.Millisecond {
		t.Errorf("expected 300ms debounce, got %v", cfg.Debounce)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "houseplants.yaml")
	yamlText := strings.Join([]string{
		"address: \":9090\"",
		"store_driver: sqlite",
		"store_dsn: ./data/history.db",
		"debounce: 150ms",
	}, "\n")
	if err := os.WriteFile(path, []byte(yamlText), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("HOUSEPLANTS_STORE_DRIVER", "memory")
	t.Setenv("HOUSEPLANTS_SEARCH_LATENCY", "2s")

	cfg, err := models.LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Address != ":9090" {
		t.Errorf("expected address from file, got %s", cfg.Address)
	}
	if cfg.StoreDriver != storage.DriverMemory {
		t.Errorf("expected env to override driver, got %s", cfg.StoreDriver)
	}
	if cfg.Debounce != 150*time.Millisecond {
		t.Errorf("expected 150ms from file, got %v", cfg.Debounce)
	}
	if cfg.SearchLatency != 2*time.Second {
		t.Errorf("expected 2s from env, got %v", cfg.SearchLatency)
	}
}

func TestLoadConfigBadEnv(t *testing.T) {
	t.Setenv("HOUSEPLANTS_DEBOUNCE", "soon")
	if _, err := models.LoadConfig(""); err == nil {
		t.Error("expected error for unparsable duration")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Config)
	}{
		{"unknown driver", func(c *models.Config) { c.StoreDriver = "floppy" }},
		{"missing dsn", func(c *models.Config) { c.StoreDSN = "" }},
		{"short secret", func(c *models.Config) { c.ClientSecret = "short" }},
		{"zero debounce", func(c *models.Config) { c.Debounce = 0 }},
		{"negative latency", func(c *models.Config) { c.SearchLatency = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := models.DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestClientTokens(t *testing.T) {
	tokens, err := models.NewClientTokens("test-secret-key-for-client-tokens-32")
	if err != nil {
		t.Fatalf("failed to create tokens: %v", err)
	}

	token, clientID, err := tokens.Issue()
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	if clientID == "" {
		t.Fatal("expected a client id")
	}

	got, err := tokens.Validate(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	if got != clientID {
		t.Errorf("expected client id %s, got %s", clientID, got)
	}

	other, _ := models.NewClientTokens("another-secret-key-for-client-tokens")
	if _, err := other.Validate(token); err == nil {
		t.Error("expected token signed with another secret to be rejected")
	}
	if _, err := tokens.Validate("not-a-token"); err == nil {
		t.Error("expected malformed token to be rejected")
	}

	if _, err := models.NewClientTokens("short"); err == nil {
		t.Error("expected short secret to be rejected")
	}
}
