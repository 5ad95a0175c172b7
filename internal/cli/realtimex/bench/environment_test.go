package bench

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/models"
)

func fakeBinary(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildEnvironmentPrependsBundledDirs(t *testing.T) {
	nodeDir := t.TempDir()
	cfg := models.RealtimexConfig{}
	cfg.Binaries.Node.BinDir = nodeDir

	env := BuildEnvironment(cfg)
	var path string
	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			path = strings.TrimPrefix(kv, "PATH=")
		}
	}
	if path == "" {
		t.Fatal("no PATH in built environment")
	}
	first := strings.Split(path, string(os.PathListSeparator))[0]
	if first != nodeDir {
		t.Errorf("PATH starts with %q, want bundled dir %q", first, nodeDir)
	}
}

func TestBuildEnvironmentIgnoresMissingDirs(t *testing.T) {
	cfg := models.RealtimexConfig{}
	cfg.Binaries.Node.BinDir = filepath.Join(t.TempDir(), "does-not-exist")

	env := BuildEnvironment(cfg)
	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") && strings.Contains(kv, "does-not-exist") {
			t.Error("nonexistent directory leaked into PATH")
		}
	}
}

func TestLookupBinaryPrefersBundled(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("exec semantics differ on windows")
	}

	nodeDir := t.TempDir()
	want := fakeBinary(t, nodeDir, "node")

	cfg := models.RealtimexConfig{}
	cfg.Binaries.Node.BinDir = nodeDir

	if got := LookupBinary("node", cfg); got != want {
		t.Errorf("LookupBinary(node) = %q, want bundled %q", got, want)
	}
}

func TestValidateBinaries(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("exec semantics differ on windows")
	}

	dir := t.TempDir()
	fakeBinary(t, dir, "node")
	fakeBinary(t, dir, "npm")

	cfg := models.RealtimexConfig{}
	cfg.Binaries.Node.BinDir = dir

	result := ValidateBinaries(cfg, []string{"node", "npm", "definitely-not-installed-xyz"})
	if result.IsValid() {
		t.Error("expected validation to fail for the unknown binary")
	}
	if len(result.Available) != 2 {
		t.Errorf("Available = %v, want node and npm", result.Available)
	}
	if len(result.Missing) != 1 || result.Missing[0] != "definitely-not-installed-xyz" {
		t.Errorf("Missing = %v", result.Missing)
	}
}

func TestInstallHint(t *testing.T) {
	if InstallHint("bench") == "" {
		t.Error("expected a hint for bench")
	}
	if InstallHint("something-unheard-of") != "" {
		t.Error("expected no hint for an unknown binary")
	}
}
