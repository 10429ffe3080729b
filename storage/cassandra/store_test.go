package cassandra

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClusterConfig(t *testing.T) {
	cfg := Config{
		Hosts:      []string{"a.example.com", "b.example.com"},
		Port:       19748,
		Username:   "avnadmin",
		Password:   "secret",
		CACertFile: "/tmp/ca.pem",
		LocalDC:    "aiven",
	}.withDefaults()

	cluster, err := cfg.clusterConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, cluster.Hosts)
	assert.Equal(t, 19748, cluster.Port)
	assert.Equal(t, gocql.Quorum, cluster.Consistency)
	require.NotNil(t, cluster.SslOpts)
	assert.Equal(t, "/tmp/ca.pem", cluster.SslOpts.CaPath)
	assert.True(t, cluster.SslOpts.EnableHostVerification)
	assert.Equal(t, gocql.PasswordAuthenticator{Username: "avnadmin", Password: "secret"}, cluster.Authenticator)
	assert.NotNil(t, cluster.PoolConfig.HostSelectionPolicy)
}

func TestClusterConfig_Defaults(t *testing.T) {
	cfg := Config{Hosts: []string{"localhost"}}.withDefaults()
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultKeyspace, cfg.Keyspace)
	assert.Equal(t, DefaultReplicationFactor, cfg.ReplicationFactor)

	cluster, err := cfg.clusterConfig()
	require.NoError(t, err)
	assert.Nil(t, cluster.SslOpts)
	assert.Nil(t, cluster.Authenticator)
}

func TestClusterConfig_Invalid(t *testing.T) {
	_, err := Config{}.withDefaults().clusterConfig()
	assert.ErrorIs(t, err, ErrNoHosts)

	_, err = Config{Hosts: []string{"h"}, Keyspace: "x; DROP"}.withDefaults().clusterConfig()
	assert.ErrorIs(t, err, ErrInvalidKeyspace)
}

func TestSchemaStatements(t *testing.T) {
	stmts := schemaStatements("customers", 3)
	require.Len(t, stmts, 3)
	assert.Contains(t, stmts[0], "CREATE KEYSPACE IF NOT EXISTS customers")
	assert.Contains(t, stmts[0], "'SimpleStrategy'")
	assert.Contains(t, stmts[0], "'replication_factor' : 3")
	assert.Contains(t, stmts[1], "customers.customer_profiles")
	assert.Contains(t, stmts[1], "past_transactions LIST<TEXT>")
	assert.Contains(t, stmts[2], "PRIMARY KEY (user_id, timestamp)")
}

func TestListTurnsQuery(t *testing.T) {
	id, err := parseUserID("551dfc94-764a-4839-b8db-e6f04b5715c6")
	require.NoError(t, err)

	stmt, args := listTurnsQuery("customers", id, 5)
	assert.True(t, strings.HasSuffix(stmt, "ORDER BY timestamp DESC LIMIT ?"))
	assert.Equal(t, []any{id, 5}, args)

	stmt, args = listTurnsQuery("customers", id, 0)
	assert.True(t, strings.HasSuffix(stmt, "ORDER BY timestamp ASC"))
	assert.Len(t, args, 1)
}

func TestParseUserID(t *testing.T) {
	_, err := parseUserID("not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidUserID)

	id := uuid.New()
	parsed, err := parseUserID(id.String())
	require.NoError(t, err)
	assert.Equal(t, [16]byte(id), parsed)
}

// TestStore_Live runs against a real cluster when CASSANDRA_TEST_HOSTS is set.
func TestProfileFromRow(t *testing.T) {
	got := profileFromRow("551dfc94-764a-4839-b8db-e6f04b5715c6", "Charles", "charles@example.com", nil)
	assert.NotNil(t, got.PastTransactions)
	assert.Empty(t, got.PastTransactions)
	assert.Equal(t, "Charles", got.Name)
	assert.Equal(t, "charles@example.com", got.Email)

	got = profileFromRow("551dfc94-764a-4839-b8db-e6f04b5715c6", "Charles", "", []string{"PMRS123"})
	assert.Equal(t, []string{"PMRS123"}, got.PastTransactions)
}

func TestStore_Live(t *testing.T) {
	hosts := os.Getenv("CASSANDRA_TEST_HOSTS")
	if hosts == "" {
		t.Skip("CASSANDRA_TEST_HOSTS not set")
	}

	store, err := Open(Config{Hosts: strings.Split(hosts, ","), Keyspace: "storefront_test", ReplicationFactor: 1})
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()
	require.NoError(t, store.EnsureSchema(ctx))

	userID := uuid.NewString()
	profile := &core.CustomerProfile{UserID: userID, Name: "Charles", PastTransactions: []string{"PMRS123"}}
	require.NoError(t, store.PutProfile(ctx, profile))
	got, err := store.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Charles", got.Name)

	emptyID := uuid.NewString()
	require.NoError(t, store.PutProfile(ctx, &core.CustomerProfile{UserID: emptyID, Name: "Dana", PastTransactions: []string{}}))
	got, err = store.GetProfile(ctx, emptyID)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.PastTransactions)

	_, err = store.GetProfile(ctx, uuid.NewString())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	base := time.Now().UTC().Truncate(time.Millisecond).Add(-time.Minute)
	for i, msg := range []string{"a", "b", "c"} {
		require.NoError(t, store.AppendTurn(ctx, &core.ConversationTurn{
			UserID: userID, Timestamp: base.Add(time.Duration(i) * time.Second), Message: msg,
		}))
	}
	turns, err := store.ListTurns(ctx, userID, 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "b", turns[0].Message)
	assert.Equal(t, "c", turns[1].Message)
}
