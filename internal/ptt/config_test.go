package ptt

import (
	"os"
	"path/filepath"
	"testing"
)

func resetConfigGlobals(t *testing.T) {
	t.Helper()
	oldRoot, oldEmerge, oldLog, oldDebug := portageConfigRoot, emergeBinary, logDir, Debug
	t.Cleanup(func() {
		portageConfigRoot, emergeBinary, logDir, Debug = oldRoot, oldEmerge, oldLog, oldDebug
	})
}

func TestLoadConfigParsesFile(t *testing.T) {
	resetConfigGlobals(t)

	path := filepath.Join(t.TempDir(), "pkg-testing-tool.conf")
	content := `# comment
PTT_CONFIG_ROOT = /tmp/portage-test
PTT_EMERGE_BINARY="/usr/local/bin/emerge"
PTT_MAX_USE_COMBINATIONS=8

malformed line without equals is skipped
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	initConfig(cfg)

	if portageConfigRoot != "/tmp/portage-test" {
		t.Errorf("portageConfigRoot = %q", portageConfigRoot)
	}
	if emergeBinary != "/usr/local/bin/emerge" {
		t.Errorf("emergeBinary = %q", emergeBinary)
	}
	if cfg.DefaultMaxUseCombinations != 8 {
		t.Errorf("DefaultMaxUseCombinations = %d, want 8", cfg.DefaultMaxUseCombinations)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	resetConfigGlobals(t)

	path := filepath.Join(t.TempDir(), "pkg-testing-tool.conf")
	if err := os.WriteFile(path, []byte("PTT_EMERGE_BINARY=/from/file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PTT_EMERGE_BINARY", "/from/env")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	initConfig(cfg)

	if emergeBinary != "/from/env" {
		t.Errorf("emergeBinary = %q, want env override", emergeBinary)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	resetConfigGlobals(t)

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "does-not-exist.conf"))
	if err != nil {
		t.Fatalf("a missing config file is not an error: %v", err)
	}
	initConfig(cfg)

	if cfg.DefaultMaxUseCombinations != 16 {
		t.Errorf("DefaultMaxUseCombinations = %d, want 16", cfg.DefaultMaxUseCombinations)
	}
	if emergeBinary != "emerge" {
		t.Errorf("emergeBinary = %q, want emerge", emergeBinary)
	}
	if portageConfigRoot != "/etc/portage" {
		t.Errorf("portageConfigRoot = %q, want /etc/portage", portageConfigRoot)
	}
}
