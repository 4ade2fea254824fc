package common

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFileMissingIsNotAnError(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("expected nil for missing file, got %v", err)
	}
	if err := LoadEnvFile(""); err != nil {
		t.Fatalf("expected nil for empty path, got %v", err)
	}
}

func TestLoadEnvFilePreservesExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# catalog\nFEED_URL=\"https://feed.test/products\"\nINGEST_BATCH_SIZE=20\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("INGEST_BATCH_SIZE", "15")
	t.Setenv("FEED_URL", "")
	os.Unsetenv("FEED_URL")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("FEED_URL"); got != "https://feed.test/products" {
		t.Fatalf("expected FEED_URL from file, got %q", got)
	}
	if got := os.Getenv("INGEST_BATCH_SIZE"); got != "15" {
		t.Fatalf("expected existing INGEST_BATCH_SIZE preserved, got %q", got)
	}
}
