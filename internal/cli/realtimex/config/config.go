package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pixie-sh/errors-go"
	"gopkg.in/yaml.v3"

	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/models"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/resolve"
)

// DefaultFrappeBranch is the pinned branch of the RealTimeX frappe and
// erpnext forks.
const DefaultFrappeBranch = "realtimex/v15.93.0"

// DefaultBenchPath returns the persistent bench location under the
// user's RealTimeX directory. The bench lives in a well-defined place
// rather than the working directory so it survives restarts and does
// not depend on where the command is run from.
func DefaultBenchPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".realtimex.ai", "storage", "local-apps", "frappe-bench")
}

// DefaultConfig returns a RealtimexConfig with the RealTimeX defaults.
func DefaultConfig() models.RealtimexConfig {
	return models.RealtimexConfig{
		Version: "1.0.0",
		Frappe: models.FrappeConfig{
			Branch: DefaultFrappeBranch,
			Repo:   "https://github.com/therealtimex/frappe.git",
		},
		Apps: []models.AppConfig{
			{
				Name:    "erpnext",
				URL:     "https://github.com/therealtimex/erpnext.git",
				Branch:  DefaultFrappeBranch,
				Install: true,
			},
		},
		Binaries: models.BinariesConfig{
			Node: models.NodeBinaryConfig{Version: "18"},
		},
		Redis: models.RedisConfig{
			Host:      "127.0.0.1",
			CachePort: 13001,
			QueuePort: 11001,
		},
		Database: models.DatabaseConfig{
			Type: "postgres",
			Host: "localhost",
			Port: 5432,
		},
		Bench: models.BenchConfig{
			Path:          DefaultBenchPath(),
			Port:          8000,
			DeveloperMode: true,
		},
	}
}

// Load reads a RealtimexConfig from a JSON file.
func Load(path string) (models.RealtimexConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "could not read configuration file %s", path)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "invalid configuration file %s", path)
	}

	return cfg, nil
}

// Write persists a RealtimexConfig as indented JSON.
func Write(cfg models.RealtimexConfig, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode configuration")
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write configuration to %s", path)
	}
	return nil
}

// LoadOverlay applies the optional .realtimex.yaml or realtimex.yaml
// project overlay in the current directory on top of cfg. If neither
// file exists, cfg is returned unchanged with no error.
func LoadOverlay(cfg models.RealtimexConfig) (models.RealtimexConfig, error) {
	overlayPaths := []string{".realtimex.yaml", "realtimex.yaml"}

	var data []byte
	var found bool
	for _, path := range overlayPaths {
		content, err := os.ReadFile(path)
		if err == nil {
			data = content
			found = true
			break
		}
	}

	if !found {
		return cfg, nil
	}

	// Parse YAML into a wrapper struct with a "realtimex" key, seeded
	// with the current values so partial overlays keep them.
	var wrapper struct {
		Realtimex overlay `yaml:"realtimex"`
	}
	wrapper.Realtimex = overlayFrom(cfg)

	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return cfg, errors.Wrap(err, "failed to parse realtimex overlay file")
	}

	return wrapper.Realtimex.applyTo(cfg), nil
}

// overlay is the subset of settings a project-local YAML file may
// override. Credentials deliberately stay out of it.
type overlay struct {
	FrappeBranch  string `yaml:"frappe_branch"`
	BenchPath     string `yaml:"bench_path"`
	BenchPort     int    `yaml:"bench_port"`
	DeveloperMode *bool  `yaml:"developer_mode"`
	NodeBinDir    string `yaml:"node_bin_dir"`
	WkBinDir      string `yaml:"wkhtmltopdf_bin_dir"`
}

func overlayFrom(cfg models.RealtimexConfig) overlay {
	dev := cfg.Bench.DeveloperMode
	return overlay{
		FrappeBranch:  cfg.Frappe.Branch,
		BenchPath:     cfg.Bench.Path,
		BenchPort:     cfg.Bench.Port,
		DeveloperMode: &dev,
		NodeBinDir:    cfg.Binaries.Node.BinDir,
		WkBinDir:      cfg.Binaries.Wkhtmltopdf.BinDir,
	}
}

func (o overlay) applyTo(cfg models.RealtimexConfig) models.RealtimexConfig {
	if o.FrappeBranch != "" {
		cfg.Frappe.Branch = o.FrappeBranch
	}
	if o.BenchPath != "" {
		cfg.Bench.Path = o.BenchPath
	}
	if o.BenchPort != 0 {
		cfg.Bench.Port = o.BenchPort
	}
	if o.DeveloperMode != nil {
		cfg.Bench.DeveloperMode = *o.DeveloperMode
	}
	if o.NodeBinDir != "" {
		cfg.Binaries.Node.BinDir = o.NodeBinDir
	}
	if o.WkBinDir != "" {
		cfg.Binaries.Wkhtmltopdf.BinDir = o.WkBinDir
	}
	return cfg
}

// Overrides carries CLI flag values that take precedence over file and
// environment settings. Zero values mean "not provided".
type Overrides struct {
	SiteName      string
	AdminPassword string
	DBHost        string
	DBPort        int
	DBName        string
	DBUser        string
	DBPassword    string
	BenchPath     string
}

// Merge returns a copy of cfg with the overrides applied. The input
// config is left untouched.
func Merge(cfg models.RealtimexConfig, o Overrides) models.RealtimexConfig {
	if o.SiteName != "" {
		cfg.Site.Name = o.SiteName
	}
	if o.AdminPassword != "" {
		cfg.Site.AdminPassword = o.AdminPassword
	}
	if o.DBHost != "" {
		cfg.Database.Host = o.DBHost
	}
	if o.DBPort != 0 {
		cfg.Database.Port = o.DBPort
	}
	if o.DBName != "" {
		cfg.Database.Name = o.DBName
	}
	if o.DBUser != "" {
		cfg.Database.User = o.DBUser
	}
	if o.DBPassword != "" {
		cfg.Database.Password = o.DBPassword
	}
	if o.BenchPath != "" {
		cfg.Bench.Path = o.BenchPath
	}
	return cfg
}

// FromResolved maps a resolved connection back onto the operational
// config document consumed by the bench wrapper.
func FromResolved(cfg models.RealtimexConfig, cc resolve.ConnectionConfig) models.RealtimexConfig {
	cfg.Mode = cc.Mode.String()
	cfg.Site.Name = cc.SiteName
	cfg.Site.AdminPassword = cc.SiteAdminPassword
	cfg.Database.Host = cc.Host
	cfg.Database.Port = cc.Port
	cfg.Database.Name = cc.Database
	cfg.Database.User = cc.User
	cfg.Database.Password = cc.Password
	cfg.Database.Schema = cc.Schema
	cfg.Database.AdminUser = cc.AdminUser
	cfg.Database.AdminPassword = cc.AdminPassword
	cfg.Redis.Host = cc.RedisHost
	cfg.Redis.CachePort = cc.RedisCachePort
	cfg.Redis.QueuePort = cc.RedisQueuePort
	return cfg
}
