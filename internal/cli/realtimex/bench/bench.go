// Package bench wraps the external bench toolchain: initialization,
// site creation, app installation, the generated site configuration
// file, and the state probes that drive the provisioning flow.
package bench

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pixie-sh/errors-go"

	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/models"
	"github.com/therealtimex/realtimex-frappe/internal/logger"
)

// SiteHealth classifies the state of an existing site directory.
type SiteHealth string

const (
	SiteHealthy          SiteHealth = "healthy"
	SiteNotFound         SiteHealth = "not_found"
	SiteMissingConfig    SiteHealth = "missing_config"
	SiteInvalidConfig    SiteHealth = "invalid_config"
	SiteIncompleteConfig SiteHealth = "incomplete_config"
)

// Init initializes a new bench with the configured frappe fork.
func (r *Runner) Init(ctx context.Context) error {
	args := []string{
		"init", r.cfg.Bench.Path,
		"--frappe-branch", r.cfg.Frappe.Branch,
		"--frappe-path", r.cfg.Frappe.Repo,
	}
	if r.cfg.Bench.DeveloperMode {
		args = append(args, "--dev")
	}

	logger.Info("Initializing bench...\n")
	return r.Run(ctx, "", args...)
}

// CreateSite creates the Frappe site, passing the configured database
// credentials as root credentials so the toolchain can create the
// database (or connect to the pre-provisioned schema) and grant
// permissions. force recreates a partially provisioned site.
func (r *Runner) CreateSite(ctx context.Context, force bool) error {
	return r.Run(ctx, r.cfg.Bench.Path, newSiteArgs(r.cfg, force)...)
}

// newSiteArgs builds the bench new-site argument list. Split out so the
// argument construction is testable without spawning processes.
func newSiteArgs(cfg models.RealtimexConfig, force bool) []string {
	args := []string{
		"new-site", cfg.Site.Name,
		"--admin-password", cfg.Site.AdminPassword,
	}
	if force {
		args = append(args, "--force")
	}
	if cfg.Database.Type != "" {
		args = append(args, "--db-type", cfg.Database.Type)
	}
	if cfg.Database.Host != "" {
		args = append(args, "--db-host", cfg.Database.Host)
	}
	if cfg.Database.Port != 0 {
		args = append(args, "--db-port", strconv.Itoa(cfg.Database.Port))
	}
	if cfg.Database.Name != "" {
		args = append(args, "--db-name", cfg.Database.Name)
	}

	// In schema-isolation mode the elevated credentials own schema and
	// role creation; otherwise the site credentials double as root
	// credentials for database setup.
	rootUser, rootPassword := cfg.Database.User, cfg.Database.Password
	if cfg.Database.Schema != "" && cfg.Database.AdminUser != "" {
		rootUser, rootPassword = cfg.Database.AdminUser, cfg.Database.AdminPassword
	}
	if rootUser != "" {
		args = append(args, "--db-root-username", rootUser)
	}
	if rootPassword != "" {
		args = append(args, "--db-root-password", rootPassword)
	}
	return args
}

// GetApp clones an app repository into the bench.
func (r *Runner) GetApp(ctx context.Context, url, branch string) error {
	return r.Run(ctx, r.cfg.Bench.Path, "get-app", url, "--branch", branch)
}

// InstallApp installs a previously cloned app on the configured site.
func (r *Runner) InstallApp(ctx context.Context, name string) error {
	return r.Run(ctx, r.cfg.Bench.Path, "--site", r.cfg.Site.Name, "install-app", name)
}

// GetAllApps clones every configured app that is not already present.
func (r *Runner) GetAllApps(ctx context.Context) error {
	for _, app := range r.cfg.Apps {
		if !app.Install {
			logger.Dim("Skipping %s (install=false)\n", app.Name)
			continue
		}
		if _, err := os.Stat(filepath.Join(r.cfg.Bench.Path, "apps", app.Name)); err == nil {
			logger.Info("App %s already exists\n", app.Name)
			continue
		}
		logger.Info("Getting %s...\n", app.Name)
		if err := r.GetApp(ctx, app.URL, app.Branch); err != nil {
			return errors.Wrap(err, "failed to get app %s", app.Name)
		}
	}
	return nil
}

// InstallAllApps clones and installs every configured app on the site.
func (r *Runner) InstallAllApps(ctx context.Context) error {
	if err := r.GetAllApps(ctx); err != nil {
		return err
	}
	for _, app := range r.cfg.Apps {
		if !app.Install {
			continue
		}
		logger.Info("Installing %s on %s...\n", app.Name, r.cfg.Site.Name)
		if err := r.InstallApp(ctx, app.Name); err != nil {
			return errors.Wrap(err, "failed to install app %s", app.Name)
		}
	}
	return nil
}

// UpdateCommonSiteConfig merges Redis URLs, the webserver port, and the
// database connection settings into sites/common_site_config.json. The
// file is written directly: the `bench config` command rejects Redis
// URLs containing "://".
func UpdateCommonSiteConfig(cfg models.RealtimexConfig) error {
	path := CommonSiteConfigPath(cfg)

	siteConfig := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &siteConfig); err != nil {
			return errors.Wrap(err, "existing common_site_config.json is not valid JSON")
		}
	}

	cacheURL := cfg.Redis.CacheURL()
	queueURL := cfg.Redis.QueueURL()

	siteConfig["redis_cache"] = cacheURL
	siteConfig["redis_queue"] = queueURL
	siteConfig["redis_socketio"] = cacheURL // socketio shares the cache instance
	siteConfig["webserver_port"] = cfg.Bench.Port

	if cfg.Database.Type == "postgres" {
		siteConfig["db_host"] = cfg.Database.Host
		siteConfig["db_port"] = cfg.Database.Port
		if cfg.Database.Schema != "" {
			siteConfig["db_schema"] = cfg.Database.Schema
		}
	}

	data, err := json.MarshalIndent(siteConfig, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode common_site_config.json")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errors.Wrap(err, "failed to write %s", path)
	}

	logger.Info("Updated common_site_config.json\n")
	logger.Dim("  Redis cache: %s\n", cacheURL)
	logger.Dim("  Redis queue: %s\n", queueURL)
	logger.Dim("  DB host: %s:%d\n", cfg.Database.Host, cfg.Database.Port)
	if cfg.Database.Schema != "" {
		logger.Dim("  DB schema: %s (schema isolation enabled)\n", cfg.Database.Schema)
	}
	return nil
}

// RegenerateConfig rebuilds the derived bench config files (Procfile,
// redis configs) so they match common_site_config.json.
func (r *Runner) RegenerateConfig(ctx context.Context) error {
	logger.Dim("Regenerating redis configs...\n")
	if err := r.Run(ctx, r.cfg.Bench.Path, "setup", "redis"); err != nil {
		return err
	}
	logger.Dim("Regenerating Procfile...\n")
	return r.Run(ctx, r.cfg.Bench.Path, "setup", "procfile")
}

// CommonSiteConfigPath returns the path of the shared site config file.
func CommonSiteConfigPath(cfg models.RealtimexConfig) string {
	return filepath.Join(cfg.Bench.Path, "sites", "common_site_config.json")
}

// Exists reports whether the bench directory looks like an initialized
// bench.
func Exists(cfg models.RealtimexConfig) bool {
	if _, err := os.Stat(filepath.Join(cfg.Bench.Path, "sites")); err != nil {
		return false
	}
	if _, err := os.Stat(filepath.Join(cfg.Bench.Path, "apps")); err != nil {
		return false
	}
	return true
}

// SiteExists reports whether the configured site directory exists.
func SiteExists(cfg models.RealtimexConfig) bool {
	if cfg.Site.Name == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(cfg.Bench.Path, "sites", cfg.Site.Name))
	return err == nil
}

// CheckSiteHealth performs multi-level validation of an existing site:
// the directory must exist, site_config.json must exist and parse, and
// it must carry a db_name.
func CheckSiteHealth(cfg models.RealtimexConfig) SiteHealth {
	if cfg.Site.Name == "" {
		return SiteNotFound
	}

	sitePath := filepath.Join(cfg.Bench.Path, "sites", cfg.Site.Name)
	if _, err := os.Stat(sitePath); err != nil {
		return SiteNotFound
	}

	data, err := os.ReadFile(filepath.Join(sitePath, "site_config.json"))
	if err != nil {
		return SiteMissingConfig
	}

	var siteCfg map[string]any
	if err := json.Unmarshal(data, &siteCfg); err != nil {
		return SiteInvalidConfig
	}
	if name, ok := siteCfg["db_name"].(string); !ok || name == "" {
		return SiteIncompleteConfig
	}
	return SiteHealthy
}

// EnsureBenchDirectory creates the bench parent directory when missing.
func EnsureBenchDirectory(cfg models.RealtimexConfig) error {
	parent := filepath.Dir(cfg.Bench.Path)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return errors.Wrap(err, "failed to create bench parent directory %s", parent)
	}
	return nil
}
