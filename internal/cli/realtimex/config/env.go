package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/models"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/resolve"
)

// Environment variable names. All configuration of the run/setup
// commands goes through these.
const (
	EnvPrefix = "REALTIMEX_"

	EnvMode            = EnvPrefix + "MODE"
	EnvSiteName        = EnvPrefix + "SITE_NAME"
	EnvAdminPassword   = EnvPrefix + "ADMIN_PASSWORD"
	EnvSitePassword    = EnvPrefix + "SITE_PASSWORD" // alias for ADMIN_PASSWORD
	EnvDBType          = EnvPrefix + "DB_TYPE"
	EnvDBHost          = EnvPrefix + "DB_HOST"
	EnvDBPort          = EnvPrefix + "DB_PORT"
	EnvDBName          = EnvPrefix + "DB_NAME"
	EnvDBUser          = EnvPrefix + "DB_USER"
	EnvDBPassword      = EnvPrefix + "DB_PASSWORD"
	EnvDBSchema        = EnvPrefix + "DB_SCHEMA"
	EnvAdminDBUser     = EnvPrefix + "ADMIN_DB_USER"
	EnvAdminDBPassword = EnvPrefix + "ADMIN_DB_PASSWORD"
	EnvRedisHost       = EnvPrefix + "REDIS_HOST"
	EnvRedisCachePort  = EnvPrefix + "REDIS_CACHE_PORT"
	EnvRedisQueuePort  = EnvPrefix + "REDIS_QUEUE_PORT"
	EnvBenchPath       = EnvPrefix + "BENCH_PATH"
	EnvPort            = EnvPrefix + "PORT"
	EnvNodeBinDir      = EnvPrefix + "NODE_BIN_DIR"
	EnvWkhtmltopdfDir  = EnvPrefix + "WKHTMLTOPDF_BIN_DIR"
	EnvFrappeBranch    = EnvPrefix + "FRAPPE_BRANCH"
	EnvDeveloperMode   = EnvPrefix + "DEVELOPER_MODE"
	EnvForceReinstall  = EnvPrefix + "FORCE_REINSTALL"
)

// envToResolverKey maps environment variables to the resolver's input
// keys.
var envToResolverKey = map[string]string{
	EnvMode:            resolve.KeyMode,
	EnvSiteName:        resolve.KeySiteName,
	EnvAdminPassword:   resolve.KeyAdminPassword,
	EnvDBName:          resolve.KeyDBName,
	EnvDBUser:          resolve.KeyDBUser,
	EnvDBPassword:      resolve.KeyDBPassword,
	EnvDBHost:          resolve.KeyDBHost,
	EnvDBPort:          resolve.KeyDBPort,
	EnvDBSchema:        resolve.KeyDBSchema,
	EnvAdminDBUser:     resolve.KeyAdminDBUser,
	EnvAdminDBPassword: resolve.KeyAdminDBPassword,
	EnvRedisHost:       resolve.KeyRedisHost,
	EnvRedisCachePort:  resolve.KeyRedisCachePort,
	EnvRedisQueuePort:  resolve.KeyRedisQueuePort,
}

// LoadDotenv loads a .env file into the process environment when one
// exists. Explicitly set environment variables keep precedence over
// file values, which keeps the usual env > .env > defaults ordering.
func LoadDotenv() {
	_ = godotenv.Load()
}

// ResolverInputsFromEnv collects the REALTIMEX_* variables relevant to
// mode/credential resolution into the flat map the resolver consumes.
// REALTIMEX_SITE_PASSWORD is accepted as an alias for ADMIN_PASSWORD.
func ResolverInputsFromEnv() map[string]string {
	inputs := make(map[string]string, len(envToResolverKey))
	for envKey, key := range envToResolverKey {
		if v := getEnvOrNone(envKey); v != "" {
			inputs[key] = v
		}
	}
	if inputs[resolve.KeyAdminPassword] == "" {
		if v := getEnvOrNone(EnvSitePassword); v != "" {
			inputs[resolve.KeyAdminPassword] = v
		}
	}
	return inputs
}

// ResolverInputs flattens an operational config into the resolver's
// input map, for flows whose values come from flags and files rather
// than the environment. Created sites still go through the same
// validation (destructive-default guard, schema name rules, mode
// requirements) as environment-driven runs.
func ResolverInputs(cfg models.RealtimexConfig) map[string]string {
	inputs := map[string]string{
		resolve.KeyMode:            cfg.Mode,
		resolve.KeySiteName:        cfg.Site.Name,
		resolve.KeyAdminPassword:   cfg.Site.AdminPassword,
		resolve.KeyDBName:          cfg.Database.Name,
		resolve.KeyDBUser:          cfg.Database.User,
		resolve.KeyDBPassword:      cfg.Database.Password,
		resolve.KeyDBHost:          cfg.Database.Host,
		resolve.KeyDBSchema:        cfg.Database.Schema,
		resolve.KeyAdminDBUser:     cfg.Database.AdminUser,
		resolve.KeyAdminDBPassword: cfg.Database.AdminPassword,
		resolve.KeyRedisHost:       cfg.Redis.Host,
	}
	if cfg.Database.Port != 0 {
		inputs[resolve.KeyDBPort] = strconv.Itoa(cfg.Database.Port)
	}
	if cfg.Redis.CachePort != 0 {
		inputs[resolve.KeyRedisCachePort] = strconv.Itoa(cfg.Redis.CachePort)
	}
	if cfg.Redis.QueuePort != 0 {
		inputs[resolve.KeyRedisQueuePort] = strconv.Itoa(cfg.Redis.QueuePort)
	}
	return inputs
}

// FromEnvironment builds the operational config from environment
// variables layered over the defaults.
func FromEnvironment() models.RealtimexConfig {
	return FromMap(environMap())
}

// FromMap builds the operational config from an in-memory map. This is
// the primary helper for testing configuration logic in isolation
// without touching the process environment.
func FromMap(env map[string]string) models.RealtimexConfig {
	get := func(key string) string {
		return strings.TrimSpace(env[key])
	}
	getInt := func(key string, def int) int {
		if v := get(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	getBool := func(key string, def bool) bool {
		v := strings.ToLower(get(key))
		switch v {
		case "":
			return def
		case "true", "1", "yes", "on":
			return true
		}
		return false
	}

	cfg := DefaultConfig()

	if v := get(EnvMode); v != "" {
		cfg.Mode = v
	}
	if v := get(EnvSiteName); v != "" {
		cfg.Site.Name = v
	}
	if v := get(EnvAdminPassword); v != "" {
		cfg.Site.AdminPassword = v
	} else if v := get(EnvSitePassword); v != "" {
		cfg.Site.AdminPassword = v
	}

	if v := get(EnvDBType); v != "" {
		cfg.Database.Type = v
	}
	if v := get(EnvDBHost); v != "" {
		cfg.Database.Host = v
	}
	cfg.Database.Port = getInt(EnvDBPort, cfg.Database.Port)
	if v := get(EnvDBName); v != "" {
		cfg.Database.Name = v
	}
	if v := get(EnvDBUser); v != "" {
		cfg.Database.User = v
	}
	if v := get(EnvDBPassword); v != "" {
		cfg.Database.Password = v
	}
	if v := get(EnvDBSchema); v != "" {
		cfg.Database.Schema = strings.ToLower(v)
	}
	if v := get(EnvAdminDBUser); v != "" {
		cfg.Database.AdminUser = v
	}
	if v := get(EnvAdminDBPassword); v != "" {
		cfg.Database.AdminPassword = v
	}

	if v := get(EnvRedisHost); v != "" {
		cfg.Redis.Host = v
	}
	cfg.Redis.CachePort = getInt(EnvRedisCachePort, cfg.Redis.CachePort)
	cfg.Redis.QueuePort = getInt(EnvRedisQueuePort, cfg.Redis.QueuePort)

	if v := get(EnvBenchPath); v != "" {
		cfg.Bench.Path = v
	}
	cfg.Bench.Port = getInt(EnvPort, cfg.Bench.Port)
	cfg.Bench.DeveloperMode = getBool(EnvDeveloperMode, cfg.Bench.DeveloperMode)
	cfg.Bench.ForceReinstall = getBool(EnvForceReinstall, false)

	if v := get(EnvNodeBinDir); v != "" {
		cfg.Binaries.Node.BinDir = v
	}
	if v := get(EnvWkhtmltopdfDir); v != "" {
		cfg.Binaries.Wkhtmltopdf.BinDir = v
	}

	if v := get(EnvFrappeBranch); v != "" {
		cfg.Frappe.Branch = v
		// Apps track the framework branch unless pinned separately.
		for i := range cfg.Apps {
			cfg.Apps[i].Branch = v
		}
	}

	return cfg
}

// MissingRequiredEnv returns the required environment variables that are
// unset or empty, in a stable order for reporting. The admin password
// is only required in the modes that provision; user mode just
// connects and never needs it. An unrecognized mode gets the stricter
// set, the resolver rejects the value itself afterwards.
func MissingRequiredEnv() []string {
	required := []string{
		EnvSiteName,
		EnvAdminPassword,
		EnvDBName,
		EnvDBUser,
		EnvDBPassword,
	}

	mode, err := resolve.ParseMode(getEnvOrNone(EnvMode))
	needsAdminPassword := err != nil || mode.Provisions()

	var missing []string
	for _, key := range required {
		if key == EnvAdminPassword {
			if !needsAdminPassword || getEnvOrNone(EnvSitePassword) != "" {
				continue
			}
		}
		if getEnvOrNone(key) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

func getEnvOrNone(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func environMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}
	return env
}
