package config

import (
	"errors"
	"testing"

	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/errdefs"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/resolve"
)

func TestFromMap_Defaults(t *testing.T) {
	cfg := FromMap(map[string]string{})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Database.Type", cfg.Database.Type, "postgres"},
		{"Database.Host", cfg.Database.Host, "localhost"},
		{"Database.Port", cfg.Database.Port, 5432},
		{"Redis.Host", cfg.Redis.Host, "127.0.0.1"},
		{"Redis.CachePort", cfg.Redis.CachePort, 13001},
		{"Redis.QueuePort", cfg.Redis.QueuePort, 11001},
		{"Bench.Port", cfg.Bench.Port, 8000},
		{"Bench.DeveloperMode", cfg.Bench.DeveloperMode, true},
		{"Bench.ForceReinstall", cfg.Bench.ForceReinstall, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestFromMap_Overrides(t *testing.T) {
	cfg := FromMap(map[string]string{
		EnvMode:            "admin",
		EnvSiteName:        "mysite.localhost",
		EnvAdminPassword:   "secret",
		EnvDBHost:          "db.abcdef.supabase.co",
		EnvDBPort:          "6543",
		EnvDBName:          "postgres",
		EnvDBUser:          "tenant1",
		EnvDBPassword:      "p",
		EnvDBSchema:        "Tenant1",
		EnvAdminDBUser:     "postgres",
		EnvAdminDBPassword: "x",
		EnvRedisHost:       "redis.internal",
		EnvRedisCachePort:  "6379",
		EnvForceReinstall:  "true",
	})

	if cfg.Mode != "admin" {
		t.Errorf("Mode = %q, want %q", cfg.Mode, "admin")
	}
	if cfg.Site.Name != "mysite.localhost" {
		t.Errorf("Site.Name = %q, want %q", cfg.Site.Name, "mysite.localhost")
	}
	if cfg.Database.Host != "db.abcdef.supabase.co" {
		t.Errorf("Database.Host = %q, want supabase host", cfg.Database.Host)
	}
	if cfg.Database.Port != 6543 {
		t.Errorf("Database.Port = %d, want 6543", cfg.Database.Port)
	}
	if cfg.Database.Schema != "tenant1" {
		t.Errorf("Database.Schema = %q, want lowercased %q", cfg.Database.Schema, "tenant1")
	}
	if cfg.Database.AdminUser != "postgres" {
		t.Errorf("Database.AdminUser = %q, want %q", cfg.Database.AdminUser, "postgres")
	}
	if cfg.Redis.CachePort != 6379 {
		t.Errorf("Redis.CachePort = %d, want 6379", cfg.Redis.CachePort)
	}
	if cfg.Redis.QueuePort != 11001 {
		t.Errorf("Redis.QueuePort = %d, want default 11001", cfg.Redis.QueuePort)
	}
	if !cfg.Bench.ForceReinstall {
		t.Error("Bench.ForceReinstall = false, want true")
	}
}

func TestFromMap_SitePasswordAlias(t *testing.T) {
	cfg := FromMap(map[string]string{
		EnvSitePassword: "aliased",
	})
	if cfg.Site.AdminPassword != "aliased" {
		t.Errorf("Site.AdminPassword = %q, want %q", cfg.Site.AdminPassword, "aliased")
	}

	// Explicit ADMIN_PASSWORD wins over the alias.
	cfg = FromMap(map[string]string{
		EnvAdminPassword: "primary",
		EnvSitePassword:  "aliased",
	})
	if cfg.Site.AdminPassword != "primary" {
		t.Errorf("Site.AdminPassword = %q, want %q", cfg.Site.AdminPassword, "primary")
	}
}

func TestFromMap_FrappeBranchPropagatesToApps(t *testing.T) {
	cfg := FromMap(map[string]string{
		EnvFrappeBranch: "version-16",
	})
	if cfg.Frappe.Branch != "version-16" {
		t.Errorf("Frappe.Branch = %q, want %q", cfg.Frappe.Branch, "version-16")
	}
	for _, app := range cfg.Apps {
		if app.Branch != "version-16" {
			t.Errorf("app %s branch = %q, want %q", app.Name, app.Branch, "version-16")
		}
	}
}

func TestFromMap_InvalidNumbersKeepDefaults(t *testing.T) {
	cfg := FromMap(map[string]string{
		EnvDBPort: "not-a-port",
		EnvPort:   "also-bad",
	})
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want default 5432", cfg.Database.Port)
	}
	if cfg.Bench.Port != 8000 {
		t.Errorf("Bench.Port = %d, want default 8000", cfg.Bench.Port)
	}
}

func TestResolverInputsFromEnv(t *testing.T) {
	t.Setenv(EnvSiteName, "a.localhost")
	t.Setenv(EnvDBName, "mysite")
	t.Setenv(EnvDBUser, "mysite")
	t.Setenv(EnvDBPassword, "p")
	t.Setenv(EnvSitePassword, "y")
	t.Setenv(EnvDBSchema, "tenant1")

	inputs := ResolverInputsFromEnv()

	if inputs[resolve.KeySiteName] != "a.localhost" {
		t.Errorf("site_name = %q, want %q", inputs[resolve.KeySiteName], "a.localhost")
	}
	if inputs[resolve.KeyAdminPassword] != "y" {
		t.Errorf("admin_password = %q, want alias value %q", inputs[resolve.KeyAdminPassword], "y")
	}
	if inputs[resolve.KeyDBSchema] != "tenant1" {
		t.Errorf("db_schema = %q, want %q", inputs[resolve.KeyDBSchema], "tenant1")
	}

	// Round-trip through the resolver: user mode needs no extra fields.
	t.Setenv(EnvMode, "user")
	cc, err := resolve.Resolve(ResolverInputsFromEnv())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cc.Mode != resolve.ModeUser {
		t.Errorf("Mode = %v, want user", cc.Mode)
	}
}

func TestMissingRequiredEnv(t *testing.T) {
	for _, key := range []string{
		EnvSiteName, EnvAdminPassword, EnvSitePassword,
		EnvDBName, EnvDBUser, EnvDBPassword,
	} {
		t.Setenv(key, "")
	}
	t.Setenv(EnvSiteName, "a.localhost")
	t.Setenv(EnvSitePassword, "y") // satisfies ADMIN_PASSWORD via alias

	missing := MissingRequiredEnv()

	want := []string{EnvDBName, EnvDBUser, EnvDBPassword}
	if len(missing) != len(want) {
		t.Fatalf("MissingRequiredEnv() = %v, want %v", missing, want)
	}
	for i := range want {
		if missing[i] != want[i] {
			t.Errorf("missing[%d] = %q, want %q", i, missing[i], want[i])
		}
	}
}

func TestMissingRequiredEnvAdminPasswordPerMode(t *testing.T) {
	tests := []struct {
		mode string
		want bool
	}{
		{"", true},
		{"production", true},
		{"admin", true},
		{"developer", true},
		{"user", false},
		{"amdin", true}, // unrecognized: stricter set, resolver rejects later
	}

	for _, tc := range tests {
		t.Run("mode="+tc.mode, func(t *testing.T) {
			for _, key := range []string{EnvAdminPassword, EnvSitePassword} {
				t.Setenv(key, "")
			}
			t.Setenv(EnvMode, tc.mode)
			t.Setenv(EnvSiteName, "a.localhost")
			t.Setenv(EnvDBName, "mysite_db")
			t.Setenv(EnvDBUser, "mysite")
			t.Setenv(EnvDBPassword, "p")

			got := false
			for _, key := range MissingRequiredEnv() {
				if key == EnvAdminPassword {
					got = true
				}
			}
			if got != tc.want {
				t.Errorf("admin password required = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestResolverInputsAppliesDestructiveDefaultGuard(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Site.Name = "a.localhost"
	cfg.Site.AdminPassword = "y"
	cfg.Database.Name = "postgres"
	cfg.Database.User = "postgres"
	cfg.Database.Password = "p"

	_, err := resolve.Resolve(ResolverInputs(cfg))
	if err == nil {
		t.Fatal("expected the default-database guard to reject db_name=postgres without a schema")
	}
	var cfgErr *errdefs.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error type = %T, want *errdefs.ConfigurationError", err)
	}
	if cfgErr.Field != resolve.KeyDBName {
		t.Errorf("Field = %q, want %q", cfgErr.Field, resolve.KeyDBName)
	}
}

func TestResolverInputsRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = "admin"
	cfg.Site.Name = "a.localhost"
	cfg.Site.AdminPassword = "y"
	cfg.Database.Name = "postgres"
	cfg.Database.User = "tenant1"
	cfg.Database.Password = "p"
	cfg.Database.Schema = "tenant1"
	cfg.Database.AdminUser = "postgres"
	cfg.Database.AdminPassword = "adminpw"

	cc, err := resolve.Resolve(ResolverInputs(cfg))
	if err != nil {
		t.Fatalf("Resolve() = %v", err)
	}
	if cc.Mode != resolve.ModeAdmin {
		t.Errorf("Mode = %v, want admin", cc.Mode)
	}
	if cc.Topology != resolve.TopologySchemaIsolated {
		t.Errorf("Topology = %v, want schema-isolated", cc.Topology)
	}
	if cc.Port != cfg.Database.Port {
		t.Errorf("Port = %d, want %d", cc.Port, cfg.Database.Port)
	}
	if cc.RedisCachePort != cfg.Redis.CachePort {
		t.Errorf("RedisCachePort = %d, want %d", cc.RedisCachePort, cfg.Redis.CachePort)
	}
}
