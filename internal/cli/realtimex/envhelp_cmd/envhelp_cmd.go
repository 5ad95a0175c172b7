// Package envhelp_cmd prints the environment-variable reference for
// the run and setup commands.
package envhelp_cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/config"
)

type envVarDoc struct {
	Name        string
	Required    string
	Default     string
	Description string
}

var envVarDocs = []envVarDoc{
	{config.EnvSiteName, "yes", "-", "Site name (e.g. mysite.localhost)"},
	{config.EnvAdminPassword, "unless user mode", "-", "Administrator password (alias: " + config.EnvSitePassword + ")"},
	{config.EnvDBName, "yes", "-", "PostgreSQL database name"},
	{config.EnvDBUser, "yes", "-", "PostgreSQL username"},
	{config.EnvDBPassword, "yes", "-", "PostgreSQL password"},
	{config.EnvMode, "no", "production", "Operating mode: production, admin, user, developer"},
	{config.EnvDBHost, "no", "localhost", "PostgreSQL host"},
	{config.EnvDBPort, "no", "5432", "PostgreSQL port"},
	{config.EnvDBSchema, "no", "-", "PostgreSQL schema (enables schema-based isolation)"},
	{config.EnvDBType, "no", "postgres", "Database type"},
	{config.EnvAdminDBUser, "no", "-", "Elevated DB user (required with " + config.EnvDBSchema + ")"},
	{config.EnvAdminDBPassword, "no", "-", "Elevated DB password (required with " + config.EnvDBSchema + ")"},
	{config.EnvRedisHost, "no", "127.0.0.1", "Redis host"},
	{config.EnvRedisCachePort, "no", "13001", "Redis cache port"},
	{config.EnvRedisQueuePort, "no", "11001", "Redis queue port"},
	{config.EnvBenchPath, "no", "~/.realtimex.ai/storage/local-apps/frappe-bench", "Bench installation path"},
	{config.EnvPort, "no", "8000", "Webserver port"},
	{config.EnvNodeBinDir, "no", "-", "Path to bundled Node.js bin directory"},
	{config.EnvWkhtmltopdfDir, "no", "-", "Path to bundled wkhtmltopdf bin directory"},
	{config.EnvFrappeBranch, "no", config.DefaultFrappeBranch, "Frappe fork branch"},
	{config.EnvDeveloperMode, "no", "false", "Enable developer mode on the bench"},
	{config.EnvForceReinstall, "no", "false", "Destroy and recreate an existing site"},
}

// EnvHelpCmd returns the env-help command.
func EnvHelpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env-help",
		Short: "Print the environment variable reference",
		Run: func(cmd *cobra.Command, args []string) {
			PrintReference()
		},
	}
}

// PrintReference writes the environment-variable table to stdout. Also
// used by run and setup when required variables are missing.
func PrintReference() {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VARIABLE\tREQUIRED\tDEFAULT\tDESCRIPTION")
	for _, doc := range envVarDocs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", doc.Name, doc.Required, doc.Default, doc.Description)
	}
	w.Flush()
}
