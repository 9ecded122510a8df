package secrets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  sk-123  \n"), 0o600); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	secret, err := Load(Source{Name: "api key", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret != "sk-123" {
		t.Fatalf("expected trimmed secret, got %q", secret)
	}
}

func TestLoadEmptyFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("   \n"), 0o600); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	if _, err := Load(Source{Name: "api key", File: path}); err == nil {
		t.Fatalf("expected error for empty file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TEST_API_KEY", "  env-secret ")

	secret, err := Load(Source{Name: "api key", Env: "TEST_API_KEY"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret != "env-secret" {
		t.Fatalf("expected env secret, got %q", secret)
	}
}

func TestLoadFallsBackToValue(t *testing.T) {
	secret, err := Load(Source{Name: "api key", Env: "TEST_API_KEY_MISSING", Value: "inline"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret != "inline" {
		t.Fatalf("expected inline secret, got %q", secret)
	}
}

func TestLoadNothingConfigured(t *testing.T) {
	if _, err := Load(Source{Name: "api key"}); err == nil {
		t.Fatalf("expected error when nothing is configured")
	}
}
