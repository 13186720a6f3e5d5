// Package am holds cersei's configuration.
//
// Settings are merged from TOML files (system, user, project) and CERSEI_*
// environment variables, in increasing precedence.
package am

// Config represents the cersei configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database" toml:"database"`
	Resolver ResolverConfig `mapstructure:"resolver" toml:"resolver"`
	Server   ServerConfig   `mapstructure:"server" toml:"server"`
	Ingest   IngestConfig   `mapstructure:"ingest" toml:"ingest"`
}

// DatabaseConfig configures the SQLite database
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path"`
}

// ResolverConfig configures the heuristic text-to-item resolver
type ResolverConfig struct {
	Language          string  `mapstructure:"language" toml:"language"`                       // label language used for lookups (default: "en")
	Endpoint          string  `mapstructure:"endpoint" toml:"endpoint"`                       // SPARQL endpoint of the external corpus
	UserAgent         string  `mapstructure:"user_agent" toml:"user_agent"`                   // sent with every corpus request
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" toml:"timeout_seconds"`         // bound on a single corpus call
	RequestsPerSecond float64 `mapstructure:"requests_per_second" toml:"requests_per_second"` // corpus throttle
	Burst             int     `mapstructure:"burst" toml:"burst"`
	MemoTTLSeconds    int     `mapstructure:"memo_ttl_seconds" toml:"memo_ttl_seconds"` // in-process memo of corpus misses, 0 disables
	GroupsFile        string  `mapstructure:"groups_file" toml:"groups_file"`           // optional YAML group table override
	MinCount          int     `mapstructure:"min_count" toml:"min_count"`               // frequent free-text threshold for "resolve learn"
}

// ServerConfig configures the read-only query API
type ServerConfig struct {
	Port           int      `mapstructure:"port" toml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" toml:"allowed_origins"`
}

// IngestConfig configures batch ingestion
type IngestConfig struct {
	Force           bool `mapstructure:"force" toml:"force"`                       // ignore the advisory running-check
	ResolveFreetext bool `mapstructure:"resolve_freetext" toml:"resolve_freetext"` // emit cached resolutions as items
}

// DefaultServerPort is used when server.port is unset
const DefaultServerPort = 8877

// DefaultDirPermissions for ~/.cersei
const DefaultDirPermissions = 0o755
