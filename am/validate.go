package am

import "github.com/teranos/cersei/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database.path cannot be empty")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Newf("server.port must be in 1..65535, got %d", c.Server.Port)
	}

	if c.Resolver.Language == "" {
		return errors.New("resolver.language cannot be empty")
	}
	if c.Resolver.TimeoutSeconds <= 0 {
		return errors.Newf("resolver.timeout_seconds must be > 0, got %d", c.Resolver.TimeoutSeconds)
	}
	if c.Resolver.RequestsPerSecond < 0 {
		return errors.Newf("resolver.requests_per_second must be >= 0, got %f", c.Resolver.RequestsPerSecond)
	}
	if c.Resolver.RequestsPerSecond > 0 && c.Resolver.Burst < 1 {
		return errors.Newf("resolver.burst must be >= 1 when throttled, got %d", c.Resolver.Burst)
	}
	// 0 = memo disabled
	if c.Resolver.MemoTTLSeconds < 0 {
		return errors.Newf("resolver.memo_ttl_seconds must be >= 0, got %d", c.Resolver.MemoTTLSeconds)
	}
	if c.Resolver.MinCount < 1 {
		return errors.Newf("resolver.min_count must be >= 1, got %d", c.Resolver.MinCount)
	}

	return nil
}
