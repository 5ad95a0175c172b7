package resolve

import (
	"errors"
	"reflect"
	"testing"

	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/errdefs"
)

func baseInputs() map[string]string {
	return map[string]string{
		KeySiteName:      "a.localhost",
		KeyDBName:        "mysite",
		KeyDBUser:        "mysite",
		KeyDBPassword:    "p",
		KeyAdminPassword: "y",
	}
}

func TestResolve_MissingMandatoryFields(t *testing.T) {
	for _, field := range []string{KeySiteName, KeyDBName, KeyDBUser, KeyDBPassword} {
		t.Run(field, func(t *testing.T) {
			in := baseInputs()
			delete(in, field)

			_, err := Resolve(in)
			var cfgErr *errdefs.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Resolve() error = %v, want ConfigurationError", err)
			}
			if cfgErr.Field != field {
				t.Errorf("ConfigurationError.Field = %q, want %q", cfgErr.Field, field)
			}
		})
	}
}

func TestResolve_MissingAdminPassword(t *testing.T) {
	tests := []struct {
		mode    string
		wantErr bool
	}{
		{"production", true},
		{"admin", true},
		{"user", false},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			in := baseInputs()
			delete(in, KeyAdminPassword)
			in[KeyMode] = tt.mode

			_, err := Resolve(in)
			if tt.wantErr {
				var cfgErr *errdefs.ConfigurationError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("Resolve() error = %v, want ConfigurationError", err)
				}
				if cfgErr.Field != KeyAdminPassword {
					t.Errorf("ConfigurationError.Field = %q, want %q", cfgErr.Field, KeyAdminPassword)
				}
			} else if err != nil {
				t.Fatalf("Resolve() error = %v, want nil", err)
			}
		})
	}
}

func TestResolve_DefaultDatabaseGuard(t *testing.T) {
	// Spec scenario: direct mode against db_name "postgres" must fail.
	in := map[string]string{
		KeyMode:          "production",
		KeySiteName:      "a.localhost",
		KeyDBName:        "postgres",
		KeyDBUser:        "postgres",
		KeyDBPassword:    "p",
		KeyAdminPassword: "y",
	}

	_, err := Resolve(in)
	var cfgErr *errdefs.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Resolve() error = %v, want ConfigurationError", err)
	}
	if cfgErr.Field != KeyDBName {
		t.Errorf("ConfigurationError.Field = %q, want %q", cfgErr.Field, KeyDBName)
	}
}

func TestResolve_SchemaModeAllowsSharedPostgresDatabase(t *testing.T) {
	// Spec scenario: schema isolation inside the shared "postgres"
	// database resolves successfully with a derived role name.
	in := map[string]string{
		KeyMode:            "admin",
		KeySiteName:        "a.localhost",
		KeyDBName:          "postgres",
		KeyDBSchema:        "tenant1",
		KeyDBUser:          "tenant1",
		KeyDBPassword:      "p",
		KeyAdminDBUser:     "postgres",
		KeyAdminDBPassword: "x",
		KeyAdminPassword:   "y",
	}

	cc, err := Resolve(in)
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil", err)
	}
	if cc.Topology != TopologySchemaIsolated {
		t.Errorf("Topology = %v, want schema-isolated", cc.Topology)
	}
	if cc.RoleName != "tenant1" {
		t.Errorf("RoleName = %q, want %q", cc.RoleName, "tenant1")
	}
	if cc.Mode != ModeAdmin {
		t.Errorf("Mode = %v, want admin", cc.Mode)
	}
}

func TestResolve_SchemaModeRequiresAdminCredentials(t *testing.T) {
	for _, missing := range []string{KeyAdminDBUser, KeyAdminDBPassword} {
		t.Run(missing, func(t *testing.T) {
			in := baseInputs()
			in[KeyDBSchema] = "tenant1"
			in[KeyAdminDBUser] = "postgres"
			in[KeyAdminDBPassword] = "x"
			delete(in, missing)

			_, err := Resolve(in)
			var cfgErr *errdefs.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Resolve() error = %v, want ConfigurationError", err)
			}
			if cfgErr.Field != missing {
				t.Errorf("ConfigurationError.Field = %q, want %q", cfgErr.Field, missing)
			}
		})
	}
}

func TestResolve_UserModeSkipsAdminCredentials(t *testing.T) {
	in := baseInputs()
	in[KeyMode] = "user"
	in[KeyDBSchema] = "tenant1"
	delete(in, KeyAdminPassword)

	cc, err := Resolve(in)
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil", err)
	}
	if cc.Mode != ModeUser {
		t.Errorf("Mode = %v, want user", cc.Mode)
	}
	if cc.Topology != TopologySchemaIsolated {
		t.Errorf("Topology = %v, want schema-isolated", cc.Topology)
	}
}

func TestResolve_DeveloperModeCollectsPrompts(t *testing.T) {
	in := baseInputs()
	in[KeyMode] = "developer"
	in[KeyDBSchema] = "tenant1"
	delete(in, KeyAdminPassword)

	cc, err := Resolve(in)
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil", err)
	}

	want := []string{KeyAdminPassword, KeyAdminDBUser, KeyAdminDBPassword}
	if !reflect.DeepEqual(cc.PromptFields, want) {
		t.Errorf("PromptFields = %v, want %v", cc.PromptFields, want)
	}
}

func TestResolve_Defaults(t *testing.T) {
	cc, err := Resolve(baseInputs())
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Host", cc.Host, "localhost"},
		{"Port", cc.Port, 5432},
		{"RedisHost", cc.RedisHost, "127.0.0.1"},
		{"RedisCachePort", cc.RedisCachePort, 13001},
		{"RedisQueuePort", cc.RedisQueuePort, 11001},
		{"Mode", cc.Mode, ModeProduction},
		{"Topology", cc.Topology, TopologyDirect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestResolve_Idempotent(t *testing.T) {
	in := baseInputs()
	in[KeyDBSchema] = "tenant1"
	in[KeyAdminDBUser] = "postgres"
	in[KeyAdminDBPassword] = "x"

	first, err := Resolve(in)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	second, err := Resolve(in)
	if err != nil {
		t.Fatalf("Resolve() second call error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Resolve() not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestResolve_InvalidMode(t *testing.T) {
	in := baseInputs()
	in[KeyMode] = "amdin"

	_, err := Resolve(in)
	var cfgErr *errdefs.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Resolve() error = %v, want ConfigurationError", err)
	}
	if cfgErr.Field != KeyMode {
		t.Errorf("ConfigurationError.Field = %q, want %q", cfgErr.Field, KeyMode)
	}
}

func TestNormalizeSchemaName(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"tenant1", "tenant1", false},
		{"  Tenant1  ", "tenant1", false},
		{"a_b_c", "a_b_c", false},

		{"public", "", true},
		{"information_schema", "", true},
		{"pg_catalog", "", true},
		{"1tenant", "", true},
		{"tenant-1", "", true},
		{"tenant.1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := normalizeSchemaName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("normalizeSchemaName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("normalizeSchemaName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeSchemaName_TooLong(t *testing.T) {
	long := "a"
	for len(long) <= 63 {
		long += "a"
	}
	if _, err := normalizeSchemaName(long); err == nil {
		t.Fatal("normalizeSchemaName() error = nil, want error for 64-char name")
	}
}

func TestResolve_PortValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero", KeyDBPort, "0"},
		{"too large", KeyDBPort, "70000"},
		{"not a number", KeyDBPort, "abc"},
		{"redis cache port", KeyRedisCachePort, "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInputs()
			in[tt.key] = tt.value

			_, err := Resolve(in)
			var cfgErr *errdefs.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Resolve() error = %v, want ConfigurationError", err)
			}
			if cfgErr.Field != tt.key {
				t.Errorf("ConfigurationError.Field = %q, want %q", cfgErr.Field, tt.key)
			}
		})
	}
}

func TestMode_Provisions(t *testing.T) {
	tests := []struct {
		mode Mode
		want bool
	}{
		{ModeProduction, true},
		{ModeAdmin, true},
		{ModeDeveloper, true},
		{ModeUser, false},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			if got := tt.mode.Provisions(); got != tt.want {
				t.Errorf("%v.Provisions() = %v, want %v", tt.mode, got, tt.want)
			}
		})
	}
}
