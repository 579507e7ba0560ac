package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware.  When
// Enabled is false or no Redis client is configured, caching is disabled.
// MethodList is a comma separated list of HTTP methods to cache and is
// expanded into Methods by normalize.
type CacheConfig struct {
	Enabled      bool            `koanf:"cache_enabled"`
	MethodList   string          `koanf:"cache_methods"`
	Methods      map[string]bool `koanf:"-"`
	TTL          time.Duration   `koanf:"cache_ttl"`
	KeyStrategy  string          `koanf:"cache_key_strategy"`
	Prefix       string          `koanf:"cache_prefix"`
	MaxBodyBytes int             `koanf:"cache_max_body_bytes"`
}

func (c *CacheConfig) normalize() {
	c.Methods = parseMethods(c.MethodList)
	if c.TTL <= 0 {
		c.TTL = time.Second
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
