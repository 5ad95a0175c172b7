// Package run_cmd is the production single-shot command: it reads
// configuration from environment variables, provisions the site when
// needed and starts the bench server in the foreground.
package run_cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/bench"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/config"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/envhelp_cmd"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/errdefs"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/flow"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/provision"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/resolve"
	"github.com/therealtimex/realtimex-frappe/internal/logger"
)

// RunCmd returns the run command.
func RunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Set up and start a Frappe site (production mode)",
		Long: `Set up and start a Frappe site (production mode).

This is the primary command for production use. It reads configuration
from environment variables (and a .env file when present), sets up the
site if needed, and starts the bench server.

Required environment variables:
  REALTIMEX_SITE_NAME       Site name (e.g. mysite.localhost)
  REALTIMEX_ADMIN_PASSWORD  Administrator password
  REALTIMEX_DB_NAME         PostgreSQL database name
  REALTIMEX_DB_USER         PostgreSQL username
  REALTIMEX_DB_PASSWORD     PostgreSQL password

Run 'realtimex-frappe env-help' for the full variable reference.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var skipRedisCheck, _ = cmd.Flags().GetBool("skip-redis-check")
			return runSetupAndStart(cmd, skipRedisCheck)
		},
	}

	cmd.Flags().Bool("skip-redis-check", false, "Skip the Redis connectivity pre-flight check")

	return cmd
}

func runSetupAndStart(cmd *cobra.Command, skipRedisCheck bool) error {
	ctx := cmd.Context()
	logger.Step("RealTimeX Frappe\n\n")

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

	inputs := config.ResolverInputsFromEnv()
	cc, err := resolve.Resolve(inputs)
	if err != nil {
		return err
	}

	// Developer mode collects missing credentials interactively instead
	// of failing; fill them in and resolve again.
	if len(cc.PromptFields) > 0 {
		for _, field := range cc.PromptFields {
			value, err := promptField(field)
			if err != nil {
				return err
			}
			inputs[field] = value
		}
		if cc, err = resolve.Resolve(inputs); err != nil {
			return err
		}
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
	if cfg.Database.Schema != "" {
		logger.Dim("  Schema: %s\n", cfg.Database.Schema)
	}

	if err := flow.CheckSystemPrerequisites(cfg); err != nil {
		return err
	}
	if err := flow.CheckBundledBinaries(cfg); err != nil {
		return err
	}

	if !skipRedisCheck {
		logger.Step("Checking Redis...\n")
		if err := provision.CheckRedisServices(ctx, cc); err != nil {
			return err
		}
		logger.Info("Redis reachable\n")
	}

	runner := bench.NewRunner(cfg)

	// User mode only connects: verify the site is already provisioned
	// and go straight to the server. Everything that creates or alters
	// state stays behind the provisioning modes.
	if !cc.Mode.Provisions() {
		if err := flow.VerifySiteProvisioned(cfg); err != nil {
			return err
		}
		logger.Step("\nStarting server...\n")
		logger.Dim("Site: http://%s:%d\n\n", cfg.Site.Name, cfg.Bench.Port)
		return runner.StartServer(ctx)
	}

	// Schema-isolated production runs create the schema and role before
	// the toolchain touches the database.
	if cc.Topology == resolve.TopologySchemaIsolated {
		if err := provision.ProvisionSchema(ctx, cc); err != nil {
			return err
		}
	}

	if err := flow.EnsureBench(ctx, runner, cfg); err != nil {
		return err
	}
	if err := flow.ConfigureSiteSettings(ctx, runner, cfg); err != nil {
		return err
	}

	created, err := flow.EnsureSite(ctx, runner, cfg, cfg.Bench.ForceReinstall)
	if err != nil {
		return err
	}
	if created {
		if err := flow.InstallApps(ctx, runner, cfg); err != nil {
			return err
		}
	}

	logger.Step("\nSetup complete. Starting server...\n")
	logger.Dim("Site: http://%s:%d\n\n", cfg.Site.Name, cfg.Bench.Port)
	return runner.StartServer(ctx)
}

// promptField reads one missing resolver input from the terminal.
// Password fields are read without echo.
func promptField(field string) (string, error) {
	if strings.Contains(field, "password") {
		fmt.Printf("%s: ", field)
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	fmt.Printf("%s: ", field)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
