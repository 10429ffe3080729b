package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/storefront/ai"
	"github.com/poiesic/storefront/core"
)

// Backend names accepted by the storefront section.
const (
	BackendOpenSearch = "opensearch"
	BackendRedis      = "redis"
	BackendCassandra  = "cassandra"
	BackendBadger     = "badger"

	// MemoryDataDir keeps the embedded badger store in memory.
	MemoryDataDir = ":memory:"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete runtime configuration. It is built once at startup
// and passed explicitly to every component.
type Config struct {
	OpenAI     OpenAIConfig     `koanf:"openai"`
	OpenSearch OpenSearchConfig `koanf:"opensearch"`
	Redis      RedisConfig      `koanf:"redis"`
	Cassandra  CassandraConfig  `koanf:"cassandra"`
	SSL        SSLConfig        `koanf:"ssl"`
	Storefront StorefrontConfig `koanf:"storefront"`
}

// OpenAIConfig configures the embedding and chat services.
type OpenAIConfig struct {
	APIKey            string        `koanf:"api_key"`
	Host              string        `koanf:"host"`
	EmbeddingModel    string        `koanf:"embedding_model"`
	ChatModel         string        `koanf:"chat_model"`
	Temperature       float64       `koanf:"temperature"`
	MaxRetries        int           `koanf:"max_retries"`
	RetryDelay        time.Duration `koanf:"retry_delay"`
	RequestsPerSecond float64       `koanf:"rps"`
}

// OpenSearchConfig configures the product index cluster.
type OpenSearchConfig struct {
	URI      string `koanf:"uri"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Index    string `koanf:"index"`
	Variant  string `koanf:"variant"`
	Insecure bool   `koanf:"insecure"`
}

// RedisConfig configures the profile cache and session history.
type RedisConfig struct {
	URI        string        `koanf:"uri"`
	SessionTTL time.Duration `koanf:"session_ttl"`
}

// CassandraConfig configures the customer keyspace.
type CassandraConfig struct {
	// Clusters is a JSON array or a comma-separated list of contact points.
	Clusters    string `koanf:"clusters"`
	Port        int    `koanf:"port"`
	User        string `koanf:"user"`
	Pwd         string `koanf:"pwd"`
	LocalDC     string `koanf:"local_dc"`
	Keyspace    string `koanf:"keyspace"`
	Replication int    `koanf:"replication"`
}

// SSLConfig holds the CA bundle shared by the TLS backends.
type SSLConfig struct {
	CertFile string `koanf:"certfile"`
}

// StorefrontConfig selects backends and tunes the pipelines.
type StorefrontConfig struct {
	IndexBackend        string `koanf:"index_backend"`
	ProfileBackend      string `koanf:"profile_backend"`
	ConversationBackend string `koanf:"conversation_backend"`
	DataDir             string `koanf:"data_dir"`
	PoolSize            int    `koanf:"pool_size"`
	Neighbors           int    `koanf:"neighbors"`
	HistoryTurns        int    `koanf:"history_turns"`
	ListenAddr          string `koanf:"listen_addr"`
}

// Default returns the configuration used when no variables are set.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		OpenAI: OpenAIConfig{
			Host:           ai.DefaultHost,
			EmbeddingModel: aiDefaults.EmbeddingModel,
			ChatModel:      aiDefaults.ChatModel,
			Temperature:    aiDefaults.Temperature,
			MaxRetries:     aiDefaults.MaxRetries,
			RetryDelay:     aiDefaults.RetryDelay,
		},
		OpenSearch: OpenSearchConfig{
			Index:   "products",
			Variant: core.SchemaFlat.String(),
		},
		Redis: RedisConfig{
			SessionTTL: 300 * time.Second,
		},
		Cassandra: CassandraConfig{
			Port:        9042,
			Keyspace:    "customers",
			Replication: 3,
		},
		Storefront: StorefrontConfig{
			IndexBackend:        BackendOpenSearch,
			ProfileBackend:      BackendRedis,
			ConversationBackend: BackendRedis,
			DataDir:             "storefront-data",
			PoolSize:            1,
			Neighbors:           3,
			HistoryTurns:        10,
			ListenAddr:          ":3000",
		},
	}
}

// Validate checks that every selected backend has the settings it needs.
func (c *Config) Validate() error {
	s := c.Storefront
	if err := oneOf("STOREFRONT_INDEX_BACKEND", s.IndexBackend, BackendOpenSearch, BackendBadger); err != nil {
		return err
	}
	if err := oneOf("STOREFRONT_PROFILE_BACKEND", s.ProfileBackend, BackendRedis, BackendCassandra, BackendBadger); err != nil {
		return err
	}
	if err := oneOf("STOREFRONT_CONVERSATION_BACKEND", s.ConversationBackend, BackendRedis, BackendCassandra, BackendBadger); err != nil {
		return err
	}
	if s.PoolSize < 1 {
		return fmt.Errorf("%w: STOREFRONT_POOL_SIZE must be at least 1", ErrInvalidConfig)
	}
	if s.Neighbors < 1 {
		return fmt.Errorf("%w: STOREFRONT_NEIGHBORS must be at least 1", ErrInvalidConfig)
	}

	if s.IndexBackend == BackendOpenSearch && c.OpenSearch.URI == "" {
		return fmt.Errorf("%w: OPENSEARCH_URI is required for the opensearch index", ErrInvalidConfig)
	}
	if _, err := core.ParseSchemaVariant(c.OpenSearch.Variant); err != nil {
		return fmt.Errorf("%w: OPENSEARCH_VARIANT: %w", ErrInvalidConfig, err)
	}
	if c.uses(BackendRedis) && c.Redis.URI == "" {
		return fmt.Errorf("%w: REDIS_URI is required for the redis backend", ErrInvalidConfig)
	}
	if c.uses(BackendCassandra) {
		hosts, err := c.Cassandra.Hosts()
		if err != nil {
			return err
		}
		if len(hosts) == 0 {
			return fmt.Errorf("%w: CASSANDRA_CLUSTERS is required for the cassandra backend", ErrInvalidConfig)
		}
	}
	if c.usesBadger() && s.DataDir == "" {
		return fmt.Errorf("%w: STOREFRONT_DATA_DIR is required for the badger backend", ErrInvalidConfig)
	}
	return nil
}

// AIConfig builds the AI service configuration. The result is not validated;
// provider construction does that.
func (c *Config) AIConfig() *ai.Config {
	o := c.OpenAI
	return ai.NewConfig(
		ai.WithHost(o.Host),
		ai.WithAPIKey(o.APIKey),
		ai.WithEmbeddingModel(o.EmbeddingModel),
		ai.WithChatModel(o.ChatModel),
		ai.WithTemperature(o.Temperature),
		ai.WithRetry(o.MaxRetries, o.RetryDelay),
		ai.WithRequestsPerSecond(o.RequestsPerSecond),
	)
}

// SchemaVariant returns the configured document layout.
func (c *Config) SchemaVariant() core.SchemaVariant {
	v, err := core.ParseSchemaVariant(c.OpenSearch.Variant)
	if err != nil {
		return core.SchemaFlat
	}
	return v
}

// Hosts parses Clusters as a JSON array, falling back to a comma-separated list.
func (c CassandraConfig) Hosts() ([]string, error) {
	raw := strings.TrimSpace(c.Clusters)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var hosts []string
		if err := json.Unmarshal([]byte(raw), &hosts); err != nil {
			return nil, fmt.Errorf("%w: CASSANDRA_CLUSTERS: %w", ErrInvalidConfig, err)
		}
		return hosts, nil
	}
	var hosts []string
	for _, h := range strings.Split(raw, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts, nil
}

func (c *Config) uses(backend string) bool {
	s := c.Storefront
	return s.IndexBackend == backend || s.ProfileBackend == backend || s.ConversationBackend == backend
}

func (c *Config) usesBadger() bool {
	return c.uses(BackendBadger)
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be one of %s, got %q", ErrInvalidConfig, name, strings.Join(allowed, ", "), value)
}
