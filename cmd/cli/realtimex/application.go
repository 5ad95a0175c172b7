package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/envhelp_cmd"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/initconfig_cmd"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/newsite_cmd"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/run_cmd"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/setup_cmd"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/validate_cmd"
	"github.com/therealtimex/realtimex-frappe/internal/logger"
	"github.com/therealtimex/realtimex-frappe/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "realtimex-frappe",
		Short:   "RealTimeX Frappe - Streamlined Frappe/ERPNext site setup",
		Long:    "RealTimeX Frappe creates and configures Frappe sites with ERPNext, supporting PostgreSQL (including Supabase), external Redis, and bundled Node.js/wkhtmltopdf binaries.",
		Version: version.Info(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var debug, _ = cmd.Flags().GetBool("debug")
			logger.Init(debug)
		},
	}

	// Custom version template
	rootCmd.SetVersionTemplate("realtimex-frappe version {{.Version}}\n")

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")

	// Register commands
	rootCmd.AddCommand(run_cmd.RunCmd())
	rootCmd.AddCommand(setup_cmd.SetupCmd())
	rootCmd.AddCommand(newsite_cmd.NewSiteCmd())
	rootCmd.AddCommand(initconfig_cmd.InitConfigCmd())
	rootCmd.AddCommand(validate_cmd.ValidateCmd())
	rootCmd.AddCommand(envhelp_cmd.EnvHelpCmd())

	// Add version command for explicit version info
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("realtimex-frappe version %s\n", version.Info())
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
