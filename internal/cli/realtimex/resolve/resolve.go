// Package resolve decides, from a flat set of named inputs, which
// operating mode an invocation runs in and the normalized database and
// Redis connection parameters derived from it. Resolution is a pure
// function over its inputs: callers are responsible for writing the
// result to a configuration file and invoking the bench toolchain.
package resolve

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/errdefs"
)

// Mode is the operating mode of an invocation.
type Mode int

const (
	// ModeProduction is the single-shot unattended setup-and-serve run.
	ModeProduction Mode = iota
	// ModeAdmin is the privileged run that provisions database objects
	// and installs apps.
	ModeAdmin
	// ModeUser connects to already-provisioned resources and starts the
	// server; it never creates schemas, databases, or sites.
	ModeUser
	// ModeDeveloper behaves like admin but collects missing fields as
	// prompts instead of failing.
	ModeDeveloper
)

func (m Mode) String() string {
	switch m {
	case ModeProduction:
		return "production"
	case ModeAdmin:
		return "admin"
	case ModeUser:
		return "user"
	case ModeDeveloper:
		return "developer"
	}
	return "unknown"
}

// Provisions reports whether this mode creates database objects and sites.
func (m Mode) Provisions() bool {
	return m == ModeProduction || m == ModeAdmin || m == ModeDeveloper
}

// Topology is the database layout an invocation targets.
type Topology int

const (
	// TopologyDirect provisions or connects to a dedicated database.
	TopologyDirect Topology = iota
	// TopologySchemaIsolated provisions a schema and dedicated role
	// inside a shared database (Supabase compatible).
	TopologySchemaIsolated
)

func (t Topology) String() string {
	if t == TopologySchemaIsolated {
		return "schema-isolated"
	}
	return "direct"
}

// ConnectionConfig is the normalized, immutable result of resolution.
type ConnectionConfig struct {
	Mode     Mode
	Topology Topology

	Host     string
	Port     int
	Database string
	Schema   string
	User     string
	Password string

	// RoleName is the dedicated role provisioned in schema-isolation
	// mode. Derived from the site-level user.
	RoleName string

	// AdminUser/AdminPassword are the elevated credentials used to
	// create the schema and grant roles. Set only when required.
	AdminUser     string
	AdminPassword string

	SiteName          string
	SiteAdminPassword string

	RedisHost      string
	RedisCachePort int
	RedisQueuePort int

	// PromptFields lists mandatory fields that were absent but are
	// promptable in developer mode instead of being hard failures.
	PromptFields []string
}

// Input keys accepted by Resolve.
const (
	KeyMode            = "mode"
	KeySiteName        = "site_name"
	KeyAdminPassword   = "admin_password"
	KeyDBName          = "db_name"
	KeyDBUser          = "db_user"
	KeyDBPassword      = "db_password"
	KeyDBHost          = "db_host"
	KeyDBPort          = "db_port"
	KeyDBSchema        = "db_schema"
	KeyAdminDBUser     = "admin_db_user"
	KeyAdminDBPassword = "admin_db_password"
	KeyRedisHost       = "redis_host"
	KeyRedisCachePort  = "redis_cache_port"
	KeyRedisQueuePort  = "redis_queue_port"
)

// Defaults applied when the corresponding input is absent.
const (
	DefaultDBHost         = "localhost"
	DefaultDBPort         = 5432
	DefaultRedisHost      = "127.0.0.1"
	DefaultRedisCachePort = 13001
	DefaultRedisQueuePort = 11001
)

var schemaNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Resolve validates raw inputs and computes the connection parameters
// for the selected mode. It fails with *errdefs.ConfigurationError
// naming the offending field; it never touches the environment, the
// filesystem, or the network.
func Resolve(raw map[string]string) (ConnectionConfig, error) {
	var cc ConnectionConfig

	get := func(key string) string { return strings.TrimSpace(raw[key]) }

	mode, err := ParseMode(get(KeyMode))
	if err != nil {
		return cc, err
	}
	cc.Mode = mode

	// Base mandatory fields, every mode.
	for _, key := range []string{KeySiteName, KeyDBName, KeyDBUser, KeyDBPassword} {
		if get(key) == "" {
			return cc, errdefs.MissingField(key)
		}
	}
	cc.SiteName = get(KeySiteName)
	cc.Database = get(KeyDBName)
	cc.User = get(KeyDBUser)
	cc.Password = get(KeyDBPassword)

	schema, err := normalizeSchemaName(get(KeyDBSchema))
	if err != nil {
		return cc, err
	}
	cc.Schema = schema
	if schema != "" {
		cc.Topology = TopologySchemaIsolated
		cc.RoleName = cc.User
	} else {
		cc.Topology = TopologyDirect
	}

	// Guard against destructive use of the default database. In direct
	// mode site creation would drop and recreate it.
	if cc.Topology == TopologyDirect && cc.Database == "postgres" {
		return cc, errdefs.InvalidField(KeyDBName,
			`refusing to target the default "postgres" database without schema isolation`)
	}

	// Site admin password: required whenever this invocation provisions.
	cc.SiteAdminPassword = get(KeyAdminPassword)
	if cc.SiteAdminPassword == "" && mode.Provisions() {
		if mode == ModeDeveloper {
			cc.PromptFields = append(cc.PromptFields, KeyAdminPassword)
		} else {
			return cc, errdefs.MissingField(KeyAdminPassword)
		}
	}

	// Schema provisioning needs elevated credentials to create the
	// schema and grant roles. User mode only connects, so it does not.
	cc.AdminUser = get(KeyAdminDBUser)
	cc.AdminPassword = get(KeyAdminDBPassword)
	if cc.Topology == TopologySchemaIsolated && mode.Provisions() {
		for _, key := range []string{KeyAdminDBUser, KeyAdminDBPassword} {
			if get(key) == "" {
				if mode == ModeDeveloper {
					cc.PromptFields = append(cc.PromptFields, key)
					continue
				}
				return cc, errdefs.MissingField(key)
			}
		}
	}

	cc.Host = get(KeyDBHost)
	if cc.Host == "" {
		cc.Host = DefaultDBHost
	}
	if cc.Port, err = parsePort(KeyDBPort, get(KeyDBPort), DefaultDBPort); err != nil {
		return cc, err
	}

	cc.RedisHost = get(KeyRedisHost)
	if cc.RedisHost == "" {
		cc.RedisHost = DefaultRedisHost
	}
	if cc.RedisCachePort, err = parsePort(KeyRedisCachePort, get(KeyRedisCachePort), DefaultRedisCachePort); err != nil {
		return cc, err
	}
	if cc.RedisQueuePort, err = parsePort(KeyRedisQueuePort, get(KeyRedisQueuePort), DefaultRedisQueuePort); err != nil {
		return cc, err
	}

	return cc, nil
}

// ParseMode maps the mode input to its Mode value. Empty selects
// production; anything unrecognized is rejected so a typo cannot
// silently downgrade or upgrade an invocation.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "production":
		return ModeProduction, nil
	case "admin":
		return ModeAdmin, nil
	case "user":
		return ModeUser, nil
	case "developer", "dev":
		return ModeDeveloper, nil
	}
	return ModeProduction, errdefs.InvalidField(KeyMode,
		`must be one of "production", "admin", "user", "developer"`)
}

// normalizeSchemaName lowercases and validates a PostgreSQL schema name.
// Empty input means direct-database mode and is not an error.
func normalizeSchemaName(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	if len(s) > 63 {
		return "", errdefs.InvalidField(KeyDBSchema, "schema name too long (max 63 chars)")
	}
	if !schemaNameRe.MatchString(s) {
		return "", errdefs.InvalidField(KeyDBSchema,
			"schema must be lowercase, start with a letter, and contain only [a-z0-9_]")
	}
	if s == "public" || s == "information_schema" || strings.HasPrefix(s, "pg_") {
		return "", errdefs.InvalidField(KeyDBSchema, "reserved schema name: "+s)
	}
	return s, nil
}

func parsePort(field, s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errdefs.InvalidField(field, "not a number: "+s)
	}
	if n < 1 || n > 65535 {
		return 0, errdefs.InvalidField(field, "port must be between 1 and 65535")
	}
	return n, nil
}
