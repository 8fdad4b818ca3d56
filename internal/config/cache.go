package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching is
// disabled.  Methods lists the HTTP methods to cache; TTL is the lifetime
// of an entry.  KeyStrategy decides which parts of the request contribute
// to the key ("route", "route_query").
type CacheConfig struct {
	Enabled      bool          `env:"CACHE_ENABLED" envDefault:"true"`
	MethodList   []string      `env:"CACHE_METHODS" envDefault:"GET" envSeparator:","`
	TTL          time.Duration `env:"CACHE_TTL" envDefault:"30s"`
	KeyStrategy  string        `env:"CACHE_KEY_STRATEGY" envDefault:"route_query"`
	Prefix       string        `env:"CACHE_PREFIX" envDefault:"cache"`
	MaxBodyBytes int           `env:"CACHE_MAX_BODY_BYTES" envDefault:"1048576"`

	Methods map[string]bool
}

// LoadCacheConfig parses the CACHE_* variables.  Defaults are used when a
// variable is unset; methods are upper-cased.
func LoadCacheConfig() (CacheConfig, error) {
	var c CacheConfig
	if err := ParseEnv(&c); err != nil {
		return CacheConfig{}, err
	}
	c.Methods = parseMethods(c.MethodList)
	if c.TTL <= 0 {
		c.TTL = time.Second
	}
	return c, nil
}

func parseMethods(list []string) map[string]bool {
	m := map[string]bool{}
	for _, p := range list {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
