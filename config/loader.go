package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// sections lists the environment prefixes that map onto Config.
var sections = []string{"openai", "opensearch", "redis", "cassandra", "ssl", "storefront"}

// secondsKeys are durations that also accept a bare number of seconds.
var secondsKeys = map[string]bool{"redis.session_ttl": true}

// Load reads configuration from the environment, after loading envFile when it
// exists. An empty envFile means ".env".
//
// Variables map onto sections by their first underscore:
// OPENSEARCH_URI sets opensearch.uri and CASSANDRA_LOCAL_DC sets
// cassandra.local_dc. A leading MY_ is ignored, so MY_OPENAI_API_KEY also sets
// openai.api_key. REDIS_SESSION_TTL takes a Go duration ("5m") or whole
// seconds ("300").
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}
	return FromEnv()
}

// FromEnv builds and validates a Config from process environment variables only.
func FromEnv() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Unset fields keep their defaults.
	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// envValue maps a variable onto its config key and turns bare seconds into a
// duration string where the key allows it.
func envValue(name, value string) (string, any) {
	key := envKey(name)
	if secondsKeys[key] {
		if _, err := strconv.ParseUint(value, 10, 64); err == nil {
			return key, value + "s"
		}
	}
	return key, value
}

// envKey maps SECTION_FIELD_NAME to section.field_name. Variables outside the
// known sections map to an empty key and are ignored.
func envKey(s string) string {
	lower := strings.TrimPrefix(strings.ToLower(s), "my_")
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) != 2 {
		return ""
	}
	for _, section := range sections {
		if parts[0] == section {
			return section + "." + parts[1]
		}
	}
	return ""
}
