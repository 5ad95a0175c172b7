package bench

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/models"
)

// Binaries required on PATH before any bench command runs.
var (
	SystemPrerequisites = []string{"git", "pkg-config", "bench"}
	RequiredBinaries    = []string{"node", "npm"}
	OptionalBinaries    = []string{"yarn", "wkhtmltopdf"}
	prerequisiteHints   = map[string]string{
		"git":         "apt-get install git / brew install git",
		"pkg-config":  "apt-get install pkg-config / brew install pkg-config",
		"bench":       "pip install frappe-bench",
		"node":        "set REALTIMEX_NODE_BIN_DIR to a bundled Node.js bin directory",
		"npm":         "set REALTIMEX_NODE_BIN_DIR to a bundled Node.js bin directory",
		"yarn":        "npm install -g yarn",
		"wkhtmltopdf": "set REALTIMEX_WKHTMLTOPDF_BIN_DIR to a bundled wkhtmltopdf bin directory",
	}
)

// BinaryValidationResult lists which of the checked binaries resolved.
type BinaryValidationResult struct {
	Available []string
	Missing   []string
}

// IsValid reports whether every checked binary was found.
func (r BinaryValidationResult) IsValid() bool {
	return len(r.Missing) == 0
}

// BuildEnvironment returns a copy of the process environment with the
// configured bundled binary directories prepended to PATH, so bench
// subprocesses pick up the bundled node/npm/wkhtmltopdf over system
// installations.
func BuildEnvironment(cfg models.RealtimexConfig) []string {
	var customPaths []string
	for _, dir := range []string{cfg.Binaries.Node.BinDir, cfg.Binaries.Wkhtmltopdf.BinDir} {
		if dir == "" {
			continue
		}
		if abs, err := filepath.Abs(dir); err == nil {
			if _, statErr := os.Stat(abs); statErr == nil {
				customPaths = append(customPaths, abs)
			}
		}
	}

	env := os.Environ()
	if len(customPaths) == 0 {
		return env
	}

	prefix := strings.Join(customPaths, string(os.PathListSeparator))
	for i, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			env[i] = "PATH=" + prefix + string(os.PathListSeparator) + strings.TrimPrefix(kv, "PATH=")
			return env
		}
	}
	return append(env, "PATH="+prefix)
}

// LookupBinary resolves a binary name against the bundled directories
// first, then the system PATH. Returns the full path or "".
func LookupBinary(name string, cfg models.RealtimexConfig) string {
	for _, dir := range []string{cfg.Binaries.Node.BinDir, cfg.Binaries.Wkhtmltopdf.BinDir} {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return ""
}

// ValidateBinaries checks each named binary against the bundled
// directories and the system PATH.
func ValidateBinaries(cfg models.RealtimexConfig, names []string) BinaryValidationResult {
	var result BinaryValidationResult
	for _, name := range names {
		if LookupBinary(name, cfg) != "" {
			result.Available = append(result.Available, name)
		} else {
			result.Missing = append(result.Missing, name)
		}
	}
	return result
}

// InstallHint returns a short installation hint for a missing binary,
// or "" when none is known.
func InstallHint(name string) string {
	return prerequisiteHints[name]
}
