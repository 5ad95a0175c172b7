// Package validate_cmd checks the configuration file, the required
// binaries and optionally the external service connectivity.
package validate_cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/bench"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/config"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/errdefs"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/models"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/provision"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/resolve"
	"github.com/therealtimex/realtimex-frappe/internal/logger"
)

// ValidateCmd returns the validate command.
func ValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and check for required binaries",
		Long: `Validate configuration and check for required binaries.

Checks that:
  - the configuration file is valid JSON
  - all required binaries (node, npm) are available
  - optional binaries (yarn, wkhtmltopdf) are noted when missing
  - with --check-redis / --check-db, the external services respond

Examples:
  realtimex-frappe validate --config ./my-config.json
  realtimex-frappe validate --config ./my-config.json --check-redis --check-db
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var configPath, _ = cmd.Flags().GetString("config")
			var checkRedis, _ = cmd.Flags().GetBool("check-redis")
			var checkDB, _ = cmd.Flags().GetBool("check-db")
			return runValidate(cmd, configPath, checkRedis, checkDB)
		},
	}

	cmd.Flags().StringP("config", "c", "", "Path to the configuration JSON file (required)")
	cmd.Flags().Bool("check-redis", false, "Ping the Redis cache and queue instances")
	cmd.Flags().Bool("check-db", false, "Connect to the PostgreSQL database")
	cmd.MarkFlagRequired("config")

	return cmd
}

func runValidate(cmd *cobra.Command, configPath string, checkRedis, checkDB bool) error {
	logger.Step("Validating configuration...\n")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Info("Configuration loaded from %s\n", configPath)

	logger.Step("\nConfiguration summary:\n")
	logger.Dim("  Frappe branch: %s\n", cfg.Frappe.Branch)
	logger.Dim("  Apps to install: %d\n", len(cfg.Apps))
	logger.Dim("  Database: %s %s:%d\n", cfg.Database.Type, cfg.Database.Host, cfg.Database.Port)
	logger.Dim("  Redis cache: %s\n", cfg.Redis.CacheURL())
	logger.Dim("  Redis queue: %s\n", cfg.Redis.QueueURL())

	logger.Step("\nChecking binaries...\n")
	printBinaryTable(cfg)

	result := bench.ValidateBinaries(cfg, bench.RequiredBinaries)
	if !result.IsValid() {
		logger.Error("\nMissing required binaries: %v\n", result.Missing)
		logger.Warn("Hint: configure binary paths in your config file:\n")
		logger.Dim(`  "binaries": { "node": { "bin_dir": "/path/to/node/bin" } }` + "\n")
		return &errdefs.PrerequisiteError{
			Binary: result.Missing[0],
			Hint:   bench.InstallHint(result.Missing[0]),
		}
	}
	logger.Info("\nAll required binaries found\n")

	if checkRedis {
		logger.Step("\nChecking Redis...\n")
		ctx := cmd.Context()
		if err := provision.CheckRedis(ctx, cfg.Redis.Host, cfg.Redis.CachePort); err != nil {
			return err
		}
		logger.Info("Redis cache reachable at %s\n", cfg.Redis.CacheURL())
		if err := provision.CheckRedis(ctx, cfg.Redis.Host, cfg.Redis.QueuePort); err != nil {
			return err
		}
		logger.Info("Redis queue reachable at %s\n", cfg.Redis.QueueURL())
	}

	if checkDB {
		logger.Step("\nChecking database...\n")
		cc := resolve.ConnectionConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Name,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
		}
		if err := provision.CheckDatabase(cmd.Context(), cc); err != nil {
			return err
		}
		logger.Info("Database reachable at %s:%d\n", cfg.Database.Host, cfg.Database.Port)
	}

	return nil
}

func printBinaryTable(cfg models.RealtimexConfig) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BINARY\tSTATUS\tPATH")

	required := map[string]bool{}
	for _, name := range bench.RequiredBinaries {
		required[name] = true
	}

	all := append(append([]string{}, bench.RequiredBinaries...), bench.OptionalBinaries...)
	for _, name := range all {
		path := bench.LookupBinary(name, cfg)
		status := "found"
		if path == "" {
			path = "-"
			if required[name] {
				status = "missing (required)"
			} else {
				status = "missing (optional)"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, status, path)
	}
	w.Flush()
}
