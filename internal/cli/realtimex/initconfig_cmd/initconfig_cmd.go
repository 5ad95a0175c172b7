// Package initconfig_cmd generates a default configuration file.
package initconfig_cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/config"
	"github.com/therealtimex/realtimex-frappe/internal/logger"
)

// InitConfigCmd returns the init-config command.
func InitConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Generate a default configuration file",
		Long: `Generate a default configuration file.

Creates a JSON configuration file with default settings that you can
customize for your environment.

Examples:
  realtimex-frappe init-config
  realtimex-frappe init-config -o ./my-config.json
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var output, _ = cmd.Flags().GetString("output")
			var yes, _ = cmd.Flags().GetBool("yes")
			return runInitConfig(output, yes)
		},
	}

	cmd.Flags().StringP("output", "o", "./realtimex.json", "Output path for the configuration file")
	cmd.Flags().BoolP("yes", "y", false, "Overwrite an existing file without asking")

	return cmd
}

func runInitConfig(output string, yes bool) error {
	if _, err := os.Stat(output); err == nil && !yes {
		if !confirm(fmt.Sprintf("%s already exists. Overwrite?", output)) {
			logger.Warn("Aborted.\n")
			return nil
		}
	}

	if err := config.Write(config.DefaultConfig(), output); err != nil {
		return err
	}

	logger.Info("Configuration file created at: %s\n", output)
	logger.Dim("Edit this file to configure:\n")
	logger.Dim("  - database credentials (PostgreSQL/Supabase)\n")
	logger.Dim("  - bundled binary paths (Node.js, wkhtmltopdf)\n")
	logger.Dim("  - apps to install (ERPNext, custom apps)\n")
	logger.Dim("  - Redis connection settings\n")
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
