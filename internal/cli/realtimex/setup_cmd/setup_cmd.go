// Package setup_cmd is the admin-only provisioning command: it creates
// the tenant schema and role, initializes the bench, creates the site
// and installs apps, but does not leave a server running.
package setup_cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/bench"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/config"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/envhelp_cmd"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/errdefs"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/flow"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/provision"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/resolve"
	"github.com/therealtimex/realtimex-frappe/internal/logger"
)

// serverWarmup is how long the temporary bench gets to come up before
// apps are installed on the site.
const serverWarmup = 5 * time.Second

// SetupCmd returns the setup command.
func SetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Provision a site in admin mode (schema isolation required)",
		Long: `Provision a site in admin mode.

This command is for administrators only. It:
  1. validates system prerequisites
  2. creates the PostgreSQL schema and dedicated role
  3. initializes bench (if needed)
  4. clones apps (if needed)
  5. creates the site with the elevated database credentials
  6. installs apps on the site

Requires REALTIMEX_MODE=admin and REALTIMEX_DB_SCHEMA, plus the
REALTIMEX_ADMIN_DB_USER / REALTIMEX_ADMIN_DB_PASSWORD credentials.
Run 'realtimex-frappe env-help' for the full variable reference.
`,
		RunE: runSetup,
	}
}

func runSetup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger.Step("RealTimeX Frappe Setup (Admin Mode)\n\n")

	config.LoadDotenv()

	if missing := config.MissingRequiredEnv(); len(missing) > 0 {
		logger.Error("Missing required environment variables:\n")
		for _, name := range missing {
			logger.Error("  - %s\n", name)
		}
		logger.Warn("\nSet the following environment variables:\n")
		envhelp_cmd.PrintReference()
		return errdefs.MissingField(missing[0])
	}

	cc, err := resolve.Resolve(config.ResolverInputsFromEnv())
	if err != nil {
		return err
	}
	if cc.Mode != resolve.ModeAdmin {
		return errdefs.InvalidField("mode", "setup requires REALTIMEX_MODE=admin")
	}
	if cc.Topology != resolve.TopologySchemaIsolated {
		return errdefs.MissingField("db_schema")
	}

	cfg := config.FromEnvironment()
	cfg, err = config.LoadOverlay(cfg)
	if err != nil {
		return err
	}
	cfg = config.FromResolved(cfg, cc)

	logger.Dim("  Mode: %s\n", cc.Mode)
	logger.Dim("  Site: %s\n", cfg.Site.Name)
	logger.Dim("  Bench: %s\n", cfg.Bench.Path)
	logger.Dim("  Database: %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	logger.Dim("  Schema: %s\n", cfg.Database.Schema)
	logger.Dim("  Admin DB user: %s\n", cfg.Database.AdminUser)

	if err := flow.CheckSystemPrerequisites(cfg); err != nil {
		return err
	}
	if err := flow.CheckBundledBinaries(cfg); err != nil {
		return err
	}

	if err := provision.ProvisionSchema(ctx, cc); err != nil {
		return err
	}

	runner := bench.NewRunner(cfg)

	if err := flow.EnsureBench(ctx, runner, cfg); err != nil {
		return err
	}

	logger.Step("Getting apps...\n")
	if err := runner.GetAllApps(ctx); err != nil {
		return err
	}
	logger.Info("Apps ready\n")

	if err := flow.ConfigureSiteSettings(ctx, runner, cfg); err != nil {
		return err
	}

	created, err := flow.EnsureSite(ctx, runner, cfg, cfg.Bench.ForceReinstall)
	if err != nil {
		return err
	}

	// App installation talks to the site over HTTP, so a bench server
	// has to be up for the duration.
	if created && len(cfg.Apps) > 0 {
		logger.Step("Installing apps (starting temporary bench)...\n")

		stop, err := runner.StartServerBackground(ctx)
		if err != nil {
			return err
		}
		defer stop()

		time.Sleep(serverWarmup)
		if err := flow.InstallApps(ctx, runner, cfg); err != nil {
			return err
		}
	}

	logger.Step("\nSetup complete.\n")
	logger.Dim("Site: http://%s:%d\n", cfg.Site.Name, cfg.Bench.Port)
	logger.Dim("Run with: REALTIMEX_MODE=user realtimex-frappe run\n")
	return nil
}
