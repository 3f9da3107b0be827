package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ledger/internal/config"
)

func TestLoadConfigRunsValidator(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "ledger.yaml")
	if err := os.WriteFile(file, []byte("port: \"9000\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "")

	cfg, err := LoadConfig(file, (*config.Config).Validate)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "9000" {
		t.Fatalf("port = %q", cfg.Port)
	}

	boom := errors.New("boom")
	if _, err := LoadConfig(file, func(*config.Config) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("validator error not returned: %v", err)
	}
	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml"), (*config.Config).Validate); err == nil {
		t.Fatal("explicit missing file should fail")
	}
}
