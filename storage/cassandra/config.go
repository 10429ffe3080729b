package cassandra

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/gocql/gocql"
)

const (
	DefaultPort              = 9042
	DefaultKeyspace          = "customers"
	DefaultReplicationFactor = 3
	defaultTimeout           = 10 * time.Second
)

var (
	// ErrNoHosts indicates the configuration names no contact points.
	ErrNoHosts = errors.New("cassandra: no hosts configured")

	// ErrInvalidKeyspace indicates a keyspace name that is not a plain CQL identifier.
	ErrInvalidKeyspace = errors.New("cassandra: invalid keyspace name")

	keyspacePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,47}$`)
)

// Config holds cluster connection settings.
type Config struct {
	Hosts    []string
	Port     int
	Username string
	Password string
	// CACertFile enables TLS with host verification against the given CA bundle.
	CACertFile string
	// LocalDC routes queries to the named datacenter first.
	LocalDC string
	// Keyspace holds the profile and conversation tables. Default: "customers".
	Keyspace string
	// ReplicationFactor is used when creating the keyspace. Default: 3.
	ReplicationFactor int
	Timeout           time.Duration
}

func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Keyspace == "" {
		c.Keyspace = DefaultKeyspace
	}
	if c.ReplicationFactor <= 0 {
		c.ReplicationFactor = DefaultReplicationFactor
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

// clusterConfig translates Config into a gocql cluster configuration.
func (c Config) clusterConfig() (*gocql.ClusterConfig, error) {
	if len(c.Hosts) == 0 {
		return nil, ErrNoHosts
	}
	if !keyspacePattern.MatchString(c.Keyspace) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKeyspace, c.Keyspace)
	}

	cluster := gocql.NewCluster(c.Hosts...)
	cluster.Port = c.Port
	cluster.Timeout = c.Timeout
	cluster.ConnectTimeout = c.Timeout
	cluster.Consistency = gocql.Quorum
	if c.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: c.Username,
			Password: c.Password,
		}
	}
	if c.CACertFile != "" {
		cluster.SslOpts = &gocql.SslOptions{
			CaPath:                 c.CACertFile,
			EnableHostVerification: true,
		}
	}
	if c.LocalDC != "" {
		cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.DCAwareRoundRobinPolicy(c.LocalDC))
	}
	return cluster, nil
}
