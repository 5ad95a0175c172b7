// Package commands provides public access to realtimex-frappe commands
// for embedding in other CLIs.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/envhelp_cmd"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/initconfig_cmd"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/newsite_cmd"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/run_cmd"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/setup_cmd"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/validate_cmd"
)

// RunCmd returns the production run command: environment-driven site
// setup followed by a foreground bench server.
func RunCmd() *cobra.Command {
	return run_cmd.RunCmd()
}

// SetupCmd returns the admin-only provisioning command (schema
// isolation, site creation, app installation).
func SetupCmd() *cobra.Command {
	return setup_cmd.SetupCmd()
}

// NewSiteCmd returns the interactive site creation command.
func NewSiteCmd() *cobra.Command {
	return newsite_cmd.NewSiteCmd()
}

// InitConfigCmd returns the command that writes a default
// configuration file.
func InitConfigCmd() *cobra.Command {
	return initconfig_cmd.InitConfigCmd()
}

// ValidateCmd returns the configuration and binary validation command.
func ValidateCmd() *cobra.Command {
	return validate_cmd.ValidateCmd()
}

// EnvHelpCmd returns the environment-variable reference command.
func EnvHelpCmd() *cobra.Command {
	return envhelp_cmd.EnvHelpCmd()
}
