// Package flow holds the provisioning steps shared by the run, setup
// and new-site commands: prerequisite checks, bench initialization,
// site creation and app installation. Each step logs its own progress
// and returns a typed error on failure.
package flow

import (
	"context"
	"fmt"

	"github.com/pixie-sh/errors-go"

	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/bench"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/errdefs"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/models"
	"github.com/therealtimex/realtimex-frappe/internal/logger"
)

// CheckSystemPrerequisites verifies the host tools (git, pkg-config,
// bench) are on PATH. Fails before any external process is invoked.
func CheckSystemPrerequisites(cfg models.RealtimexConfig) error {
	logger.Step("Checking system prerequisites...\n")

	result := bench.ValidateBinaries(cfg, bench.SystemPrerequisites)
	if !result.IsValid() {
		for _, name := range result.Missing {
			logger.Error("  missing: %s\n", name)
			if hint := bench.InstallHint(name); hint != "" {
				logger.Dim("    install: %s\n", hint)
			}
		}
		return &errdefs.PrerequisiteError{
			Binary: result.Missing[0],
			Hint:   bench.InstallHint(result.Missing[0]),
		}
	}

	logger.Info("System prerequisites found: %v\n", result.Available)
	return nil
}

// CheckBundledBinaries verifies node and npm resolve through the
// bundled directories or PATH, and warns about missing optional tools.
func CheckBundledBinaries(cfg models.RealtimexConfig) error {
	logger.Step("Validating bundled binaries...\n")

	result := bench.ValidateBinaries(cfg, bench.RequiredBinaries)
	if !result.IsValid() {
		logger.Error("Missing required binaries: %v\n", result.Missing)
		logger.Warn("Set REALTIMEX_NODE_BIN_DIR to the path of your Node.js bin directory.\n")
		return &errdefs.PrerequisiteError{
			Binary: result.Missing[0],
			Hint:   bench.InstallHint(result.Missing[0]),
		}
	}
	logger.Info("Bundled binaries found: %v\n", result.Available)

	optional := bench.ValidateBinaries(cfg, bench.OptionalBinaries)
	if len(optional.Missing) > 0 {
		logger.Warn("Optional binaries missing: %v\n", optional.Missing)
	}
	return nil
}

// EnsureBench initializes the bench directory unless one already
// exists at the configured path.
func EnsureBench(ctx context.Context, runner *bench.Runner, cfg models.RealtimexConfig) error {
	logger.Step("Setting up bench...\n")

	if bench.Exists(cfg) {
		logger.Info("Using existing bench at %s\n", cfg.Bench.Path)
		return nil
	}

	if err := bench.EnsureBenchDirectory(cfg); err != nil {
		return err
	}
	if err := runner.Init(ctx); err != nil {
		return errors.Wrap(err, "failed to initialize bench")
	}
	logger.Info("Bench initialized\n")
	return nil
}

// ConfigureSiteSettings merges the Redis URLs, webserver port and
// database settings into common_site_config.json and regenerates the
// derived bench config files.
func ConfigureSiteSettings(ctx context.Context, runner *bench.Runner, cfg models.RealtimexConfig) error {
	logger.Step("Configuring site settings...\n")

	if err := bench.UpdateCommonSiteConfig(cfg); err != nil {
		return err
	}
	return runner.RegenerateConfig(ctx)
}

// EnsureSite creates the site unless a healthy one already exists. An
// existing healthy site short-circuits; recreating an existing site,
// healthy or not, requires forceReinstall since even partial state may
// hold data.
//
// Returns true when a site was (re)created, false when an existing one
// was reused.
func EnsureSite(ctx context.Context, runner *bench.Runner, cfg models.RealtimexConfig, forceReinstall bool) (bool, error) {
	logger.Step("Setting up site...\n")

	if bench.SiteExists(cfg) {
		health := bench.CheckSiteHealth(cfg)
		if health == bench.SiteHealthy && !forceReinstall {
			logger.Info("Site %s already exists\n", cfg.Site.Name)
			return false, nil
		}
		if !forceReinstall {
			logger.Error("Site %s exists but is unhealthy (%s)\n", cfg.Site.Name, health)
			logger.Warn("Set REALTIMEX_FORCE_REINSTALL=true to destroy and recreate it.\n")
			return false, &errdefs.AlreadyExistsError{
				Resource: fmt.Sprintf("site %s (%s)", cfg.Site.Name, health),
			}
		}
		if health == bench.SiteHealthy {
			logger.Warn("Force reinstall requested. Recreating site %s...\n", cfg.Site.Name)
		} else {
			logger.Warn("Site exists but unhealthy (%s). Recreating...\n", health)
		}
		if err := runner.CreateSite(ctx, true); err != nil {
			return false, errors.Wrap(err, "failed to recreate site")
		}
		logger.Info("Site recreated\n")
		return true, nil
	}

	logger.Info("Creating site %s...\n", cfg.Site.Name)
	if err := runner.CreateSite(ctx, false); err != nil {
		return false, errors.Wrap(err, "failed to create site")
	}
	logger.Info("Site created\n")
	return true, nil
}

// VerifySiteProvisioned checks that a healthy site already exists, for
// modes that only connect and must not create or modify database
// objects or sites.
func VerifySiteProvisioned(cfg models.RealtimexConfig) error {
	logger.Step("Checking site...\n")

	if !bench.Exists(cfg) {
		return errdefs.InvalidField("bench_path",
			fmt.Sprintf("no bench at %s; run setup in admin mode first", cfg.Bench.Path))
	}
	if health := bench.CheckSiteHealth(cfg); health != bench.SiteHealthy {
		return errdefs.InvalidField("site_name",
			fmt.Sprintf("site %s is not provisioned (%s); run setup in admin mode first", cfg.Site.Name, health))
	}

	logger.Info("Site %s ready\n", cfg.Site.Name)
	return nil
}

// InstallApps clones and installs the configured apps on the site.
func InstallApps(ctx context.Context, runner *bench.Runner, cfg models.RealtimexConfig) error {
	if len(cfg.Apps) == 0 {
		return nil
	}
	logger.Step("Installing apps...\n")
	if err := runner.InstallAllApps(ctx); err != nil {
		return err
	}
	logger.Info("Apps installed\n")
	return nil
}
