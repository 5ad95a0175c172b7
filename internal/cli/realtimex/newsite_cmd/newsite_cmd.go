// Package newsite_cmd creates a Frappe site interactively: values come
// from flags, an optional configuration file, and prompts for whatever
// is still missing.
package newsite_cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/bench"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/config"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/errdefs"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/flow"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/resolve"
	"github.com/therealtimex/realtimex-frappe/internal/logger"
)

// NewSiteCmd returns the new-site command.
func NewSiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new-site",
		Short: "Create a new Frappe site with ERPNext",
		Long: `Create a new Frappe site with ERPNext.

This command will:
  1. initialize a new bench (if needed)
  2. configure Redis and database settings
  3. create a new Frappe site
  4. install ERPNext and any other configured apps

Values not given as flags are prompted for interactively.

Examples:
  realtimex-frappe new-site --config ./my-config.json
  realtimex-frappe new-site --site-name mysite.localhost --db-name mysite_db
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := optionsFromFlags(cmd)
			if err != nil {
				return err
			}
			return runNewSite(cmd, opts)
		},
	}

	cmd.Flags().StringP("config", "c", "", "Path to configuration JSON file")
	cmd.Flags().String("site-name", "", "Name for the new site (e.g. mysite.localhost)")
	cmd.Flags().String("admin-password", "", "Administrator password for the site")
	cmd.Flags().String("db-host", "", "PostgreSQL host (e.g. localhost or db.xxx.supabase.co)")
	cmd.Flags().Int("db-port", 0, "PostgreSQL port")
	cmd.Flags().String("db-name", "", "PostgreSQL database name")
	cmd.Flags().String("db-user", "", "PostgreSQL username")
	cmd.Flags().String("db-password", "", "PostgreSQL password")
	cmd.Flags().String("bench-path", "", "Path for the bench installation")

	return cmd
}

type newSiteOptions struct {
	ConfigPath string
	Overrides  config.Overrides
}

func optionsFromFlags(cmd *cobra.Command) (newSiteOptions, error) {
	var opts newSiteOptions
	opts.ConfigPath, _ = cmd.Flags().GetString("config")
	opts.Overrides.SiteName, _ = cmd.Flags().GetString("site-name")
	opts.Overrides.AdminPassword, _ = cmd.Flags().GetString("admin-password")
	opts.Overrides.DBHost, _ = cmd.Flags().GetString("db-host")
	opts.Overrides.DBPort, _ = cmd.Flags().GetInt("db-port")
	opts.Overrides.DBName, _ = cmd.Flags().GetString("db-name")
	opts.Overrides.DBUser, _ = cmd.Flags().GetString("db-user")
	opts.Overrides.DBPassword, _ = cmd.Flags().GetString("db-password")
	opts.Overrides.BenchPath, _ = cmd.Flags().GetString("bench-path")
	return opts, nil
}

func runNewSite(cmd *cobra.Command, opts newSiteOptions) error {
	ctx := cmd.Context()
	logger.Step("RealTimeX Frappe - New Site Setup\n\n")

	logger.Step("Step 1: Loading configuration...\n")

	cfg := config.DefaultConfig()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Info("Loaded config from %s\n", opts.ConfigPath)
	}

	if err := promptMissing(&opts.Overrides); err != nil {
		return err
	}
	cfg = config.Merge(cfg, opts.Overrides)

	// The merged values go through the same resolution as
	// environment-driven runs, so the destructive-default guard and
	// schema validation cannot be bypassed from here.
	cc, err := resolve.Resolve(config.ResolverInputs(cfg))
	if err != nil {
		return err
	}
	if !cc.Mode.Provisions() {
		return errdefs.InvalidField("mode", "new-site provisions a site and cannot run in user mode")
	}
	cfg = config.FromResolved(cfg, cc)

	logger.Dim("  Site: %s\n", cfg.Site.Name)
	logger.Dim("  Bench: %s\n", cfg.Bench.Path)
	logger.Dim("  Database: %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	logger.Step("\nStep 2: Validating binaries...\n")
	if err := flow.CheckBundledBinaries(cfg); err != nil {
		return err
	}

	runner := bench.NewRunner(cfg)

	logger.Step("\nStep 3: Setting up bench...\n")
	if err := flow.EnsureBench(ctx, runner, cfg); err != nil {
		return err
	}

	logger.Step("\nStep 4: Configuring site settings...\n")
	if err := bench.UpdateCommonSiteConfig(cfg); err != nil {
		return err
	}
	if err := runner.RegenerateConfig(ctx); err != nil {
		return err
	}

	logger.Step("\nStep 5: Creating site...\n")
	force := false
	if bench.SiteExists(cfg) {
		// Recreating drops the site's data, so an existing site needs
		// explicit confirmation.
		logger.Warn("Site %s already exists.\n", cfg.Site.Name)
		if !confirm("Recreate it? This destroys the existing site") {
			return &errdefs.AlreadyExistsError{Resource: "site " + cfg.Site.Name}
		}
		force = true
	}
	if err := runner.CreateSite(ctx, force); err != nil {
		return err
	}
	logger.Info("Site %s created\n", cfg.Site.Name)

	logger.Step("\nStep 6: Installing apps...\n")
	if err := flow.InstallApps(ctx, runner, cfg); err != nil {
		return err
	}

	logger.Step("\nDone. Start the server with: realtimex-frappe run\n")
	return nil
}

// promptMissing asks interactively for the values that were not given
// as flags. Passwords are read without echo.
func promptMissing(o *config.Overrides) error {
	reader := bufio.NewReader(os.Stdin)

	var err error
	if o.SiteName == "" {
		if o.SiteName, err = promptString(reader, "Site name", ""); err != nil {
			return err
		}
	}
	if o.AdminPassword == "" {
		if o.AdminPassword, err = promptPasswordConfirmed("Admin password"); err != nil {
			return err
		}
	}
	if o.DBHost == "" {
		if o.DBHost, err = promptString(reader, "Database host", "localhost"); err != nil {
			return err
		}
	}
	if o.DBPort == 0 {
		raw, err := promptString(reader, "Database port", "5432")
		if err != nil {
			return err
		}
		if o.DBPort, err = strconv.Atoi(raw); err != nil {
			return errdefs.InvalidField("db_port", "not a number: "+raw)
		}
	}
	if o.DBName == "" {
		if o.DBName, err = promptString(reader, "Database name", ""); err != nil {
			return err
		}
	}
	if o.DBUser == "" {
		if o.DBUser, err = promptString(reader, "Database user", ""); err != nil {
			return err
		}
	}
	if o.DBPassword == "" {
		if o.DBPassword, err = promptPassword("Database password"); err != nil {
			return err
		}
	}
	return nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func promptString(reader *bufio.Reader, label, defaultValue string) (string, error) {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return defaultValue, nil
	}
	return value, nil
}

func promptPassword(label string) (string, error) {
	fmt.Printf("%s: ", label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func promptPasswordConfirmed(label string) (string, error) {
	for {
		first, err := promptPassword(label)
		if err != nil {
			return "", err
		}
		second, err := promptPassword("Repeat for confirmation")
		if err != nil {
			return "", err
		}
		if first == second {
			return first, nil
		}
		logger.Warn("Passwords do not match, try again.\n")
	}
}
