// Package provision creates the PostgreSQL schema and role for
// schema-isolated sites and checks connectivity of the external
// services before any bench command runs.
package provision

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/pixie-sh/errors-go"

	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/resolve"
	"github.com/therealtimex/realtimex-frappe/internal/logger"
)

// supabaseRoles are the managed roles a Supabase-hosted database
// carries. When present they are granted usage on the tenant schema so
// the platform's API layers can reach the Frappe tables.
var supabaseRoles = []string{"anon", "authenticated", "service_role"}

// AdminDSN builds the connection string for the elevated credentials.
func AdminDSN(cc resolve.ConnectionConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		url.QueryEscape(cc.AdminUser),
		url.QueryEscape(cc.AdminPassword),
		cc.Host, cc.Port, cc.Database)
}

// SiteDSN builds the connection string for the site-level credentials.
func SiteDSN(cc resolve.ConnectionConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		url.QueryEscape(cc.User),
		url.QueryEscape(cc.Password),
		cc.Host, cc.Port, cc.Database)
}

// schemaStatements returns the SQL that provisions a tenant schema: a
// login role owning the schema, privileges on it, and a search_path
// pinned so unqualified table names resolve inside the tenant schema.
// Every statement is idempotent so ProvisionSchema is safe to re-run.
func schemaStatements(cc resolve.ConnectionConfig) []string {
	role := pgx.Identifier{cc.RoleName}.Sanitize()
	schema := pgx.Identifier{cc.Schema}.Sanitize()

	return []string{
		fmt.Sprintf(`DO $$
BEGIN
  IF NOT EXISTS (SELECT FROM pg_roles WHERE rolname = %s) THEN
    CREATE ROLE %s LOGIN;
  END IF;
END
$$`, quoteLiteral(cc.RoleName), role),
		fmt.Sprintf("ALTER ROLE %s LOGIN PASSWORD %s", role, quoteLiteral(cc.Password)),
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s AUTHORIZATION %s", schema, role),
		fmt.Sprintf("GRANT ALL ON SCHEMA %s TO %s", schema, role),
		fmt.Sprintf("ALTER ROLE %s SET search_path TO %s", role, schema),
		fmt.Sprintf("GRANT %s TO CURRENT_USER", role),
	}
}

// supabaseGrantStatements returns the grants for one managed role.
func supabaseGrantStatements(cc resolve.ConnectionConfig, role string) []string {
	schema := pgx.Identifier{cc.Schema}.Sanitize()
	grantee := pgx.Identifier{role}.Sanitize()

	return []string{
		fmt.Sprintf("GRANT USAGE ON SCHEMA %s TO %s", schema, grantee),
		fmt.Sprintf("GRANT SELECT ON ALL TABLES IN SCHEMA %s TO %s", schema, grantee),
		fmt.Sprintf("ALTER DEFAULT PRIVILEGES IN SCHEMA %s GRANT SELECT ON TABLES TO %s", schema, grantee),
	}
}

// quoteLiteral escapes a string for use as a SQL literal. Statements
// like ALTER ROLE ... PASSWORD do not accept bind parameters.
func quoteLiteral(s string) string {
	out := []byte{'\''}
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'')
		}
		out = append(out, s[i])
	}
	out = append(out, '\'')
	return string(out)
}

// ProvisionSchema connects with the elevated credentials and creates
// the tenant schema and role.
func ProvisionSchema(ctx context.Context, cc resolve.ConnectionConfig) error {
	if cc.Topology != resolve.TopologySchemaIsolated {
		return errors.New("schema provisioning requires schema-isolation mode")
	}

	conn, err := pgx.Connect(ctx, AdminDSN(cc))
	if err != nil {
		return errors.Wrap(err, "failed to connect to %s:%d as %s", cc.Host, cc.Port, cc.AdminUser)
	}
	defer conn.Close(ctx)

	logger.Step("Provisioning schema %s (role %s)...\n", cc.Schema, cc.RoleName)
	for _, stmt := range schemaStatements(cc) {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return errors.Wrap(err, "schema provisioning failed")
		}
	}

	granted, err := grantSupabaseRoles(ctx, conn, cc)
	if err != nil {
		return err
	}
	if len(granted) > 0 {
		logger.Info("Granted schema access to Supabase roles: %v\n", granted)
	}

	logger.Info("Schema %s ready\n", cc.Schema)
	return nil
}

// grantSupabaseRoles grants schema access to whichever of the managed
// Supabase roles exist on this server. Plain PostgreSQL servers have
// none and the loop is a no-op.
func grantSupabaseRoles(ctx context.Context, conn *pgx.Conn, cc resolve.ConnectionConfig) ([]string, error) {
	var granted []string
	for _, role := range supabaseRoles {
		var exists bool
		err := conn.QueryRow(ctx,
			"SELECT EXISTS (SELECT FROM pg_roles WHERE rolname = $1)", role).Scan(&exists)
		if err != nil {
			return nil, errors.Wrap(err, "failed to query pg_roles for %s", role)
		}
		if !exists {
			continue
		}
		for _, stmt := range supabaseGrantStatements(cc, role) {
			if _, err := conn.Exec(ctx, stmt); err != nil {
				return nil, errors.Wrap(err, "failed to grant schema access to %s", role)
			}
		}
		granted = append(granted, role)
	}
	return granted, nil
}

// CheckDatabase verifies the site-level credentials can reach the
// database. Used by validate before any bench command runs.
func CheckDatabase(ctx context.Context, cc resolve.ConnectionConfig) error {
	conn, err := pgx.Connect(ctx, SiteDSN(cc))
	if err != nil {
		return errors.Wrap(err, "database %s:%d unreachable", cc.Host, cc.Port)
	}
	defer conn.Close(ctx)
	return conn.Ping(ctx)
}
