package am

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "cersei.db")

	v.SetDefault("resolver.language", "en")
	v.SetDefault("resolver.endpoint", "https://query.wikidata.org/sparql")
	v.SetDefault("resolver.user_agent", "") // empty: derived from the build version
	v.SetDefault("resolver.timeout_seconds", 10)
	v.SetDefault("resolver.requests_per_second", 1.0) // polite to the public endpoint
	v.SetDefault("resolver.burst", 1)
	v.SetDefault("resolver.memo_ttl_seconds", 600)
	v.SetDefault("resolver.groups_file", "")
	v.SetDefault("resolver.min_count", 3)

	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"http://127.0.0.1",
	})

	v.SetDefault("ingest.force", false)
	v.SetDefault("ingest.resolve_freetext", true)
}

// BindSensitiveEnvVars explicitly binds settings that are commonly set per deployment
func BindSensitiveEnvVars(v *viper.Viper) {
	_ = v.BindEnv("database.path", "CERSEI_DATABASE_PATH", "DB_PATH")
	_ = v.BindEnv("resolver.endpoint", "CERSEI_RESOLVER_ENDPOINT")
	_ = v.BindEnv("resolver.user_agent", "CERSEI_RESOLVER_USER_AGENT")
}
