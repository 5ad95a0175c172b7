package models

import "fmt"

// RealtimexConfig is the root configuration document, persisted as JSON
// and consumed by the downstream provisioning steps.
type RealtimexConfig struct {
	Version  string         `json:"version"`
	Mode     string         `json:"mode,omitempty"`
	Frappe   FrappeConfig   `json:"frappe"`
	Apps     []AppConfig    `json:"apps"`
	Binaries BinariesConfig `json:"binaries"`
	Redis    RedisConfig    `json:"redis"`
	Database DatabaseConfig `json:"database"`
	Site     SiteConfig     `json:"site"`
	Bench    BenchConfig    `json:"bench"`
}

// FrappeConfig holds the framework repository settings
type FrappeConfig struct {
	Branch string `json:"branch"`
	Repo   string `json:"repo"`
}

// AppConfig describes a Frappe app to clone and install
type AppConfig struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Branch  string `json:"branch"`
	Install bool   `json:"install"`
}

// NodeBinaryConfig points at a bundled Node.js installation
type NodeBinaryConfig struct {
	BinDir  string `json:"bin_dir,omitempty"`
	Version string `json:"version"` // expected major version, informational
}

// WkhtmltopdfBinaryConfig points at a bundled wkhtmltopdf installation
type WkhtmltopdfBinaryConfig struct {
	BinDir string `json:"bin_dir,omitempty"`
}

// BinariesConfig holds all bundled binary locations
type BinariesConfig struct {
	Node        NodeBinaryConfig        `json:"node"`
	Wkhtmltopdf WkhtmltopdfBinaryConfig `json:"wkhtmltopdf"`
}

// RedisConfig holds the external Redis connection settings.
// Frappe uses two Redis databases on separate ports: one for the cache
// and one for the job queue.
type RedisConfig struct {
	Host      string `json:"host"`
	CachePort int    `json:"cache_port"`
	QueuePort int    `json:"queue_port"`
}

// CacheURL returns the Redis cache URL in the format expected by Frappe.
func (r RedisConfig) CacheURL() string {
	return redisURL(r.Host, r.CachePort)
}

// QueueURL returns the Redis queue URL in the format expected by Frappe.
func (r RedisConfig) QueueURL() string {
	return redisURL(r.Host, r.QueuePort)
}

func redisURL(host string, port int) string {
	return fmt.Sprintf("redis://%s:%d", host, port)
}

// DatabaseConfig holds PostgreSQL connection settings. When Schema is
// set the tool operates in schema-isolation mode: a schema and dedicated
// role are provisioned inside a shared database instead of creating a
// new database. AdminUser/AdminPassword are the elevated credentials
// required for that provisioning.
type DatabaseConfig struct {
	Type          string `json:"type"`
	Host          string `json:"host"`
	Port          int    `json:"port"`
	Name          string `json:"name,omitempty"`
	User          string `json:"user,omitempty"`
	Password      string `json:"password,omitempty"`
	Schema        string `json:"schema,omitempty"`
	AdminUser     string `json:"admin_user,omitempty"`
	AdminPassword string `json:"admin_password,omitempty"`
}

// SiteConfig holds the Frappe site identity
type SiteConfig struct {
	Name          string `json:"name,omitempty"`
	AdminPassword string `json:"admin_password,omitempty"`
}

// BenchConfig holds bench installation settings
type BenchConfig struct {
	Path           string `json:"path"`
	Port           int    `json:"port"`
	DeveloperMode  bool   `json:"developer_mode"`
	ForceReinstall bool   `json:"force_reinstall,omitempty"`
}
