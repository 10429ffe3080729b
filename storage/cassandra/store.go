package cassandra

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/storage"
)

// ErrInvalidUserID indicates a user ID that is not a UUID, as the tables require.
var ErrInvalidUserID = errors.New("cassandra: user id must be a UUID")

// Store implements storage.ProfileStore and storage.ConversationStore on a Cassandra session.
// Conversation turns are clustered by timestamp at millisecond precision.
type Store struct {
	session   *gocql.Session
	keyspace  string
	rf        int
	logger    *slog.Logger
	closeOnce sync.Once
}

var (
	_ storage.ProfileStore      = (*Store)(nil)
	_ storage.ConversationStore = (*Store)(nil)
)

// Open creates a session on the cluster.
// Returns a *storage.ConnectionError when no host can be reached.
func Open(cfg Config) (*Store, error) {
	cfg = cfg.withDefaults()
	cluster, err := cfg.clusterConfig()
	if err != nil {
		return nil, err
	}
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, storage.NewConnectionError("cassandra", err)
	}
	return &Store{
		session:  session,
		keyspace: cfg.Keyspace,
		rf:       cfg.ReplicationFactor,
		logger:   slog.Default().With("component", "cassandra"),
	}, nil
}

// EnsureSchema creates the keyspace and tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements(s.keyspace, s.rf) {
		if err := s.session.Query(stmt).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("cassandra: applying schema: %w", err)
		}
	}
	s.logger.Info("schema ready", "keyspace", s.keyspace)
	return nil
}

// PutProfile replaces the profile row.
func (s *Store) PutProfile(ctx context.Context, profile *core.CustomerProfile) error {
	if err := core.ValidateProfile(profile); err != nil {
		return err
	}
	id, err := parseUserID(profile.UserID)
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf(`INSERT INTO %s.customer_profiles (user_id, name, email, past_transactions) VALUES (?, ?, ?, ?)`, s.keyspace)
	if err := s.session.Query(stmt, id, profile.Name, profile.Email, profile.PastTransactions).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("cassandra: storing profile %s: %w", profile.UserID, err)
	}
	return nil
}

// GetProfile reads a profile row by user ID.
func (s *Store) GetProfile(ctx context.Context, userID string) (*core.CustomerProfile, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	var (
		name, email  string
		transactions []string
	)
	stmt := fmt.Sprintf(`SELECT name, email, past_transactions FROM %s.customer_profiles WHERE user_id = ?`, s.keyspace)
	err = s.session.Query(stmt, id).WithContext(ctx).Scan(&name, &email, &transactions)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("cassandra: reading profile %s: %w", userID, err)
	}
	return profileFromRow(userID, name, email, transactions), nil
}

// profileFromRow builds a profile from a scanned row. Cassandra stores an
// empty list as null, so a missing list reads back as empty.
func profileFromRow(userID, name, email string, transactions []string) *core.CustomerProfile {
	if transactions == nil {
		transactions = []string{}
	}
	return &core.CustomerProfile{UserID: userID, Name: name, Email: email, PastTransactions: transactions}
}

// AppendTurn inserts a conversation row.
func (s *Store) AppendTurn(ctx context.Context, turn *core.ConversationTurn) error {
	if err := core.ValidateTurn(turn); err != nil {
		return err
	}
	id, err := parseUserID(turn.UserID)
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf(`INSERT INTO %s.conversations (user_id, timestamp, message, response) VALUES (?, ?, ?, ?)`, s.keyspace)
	if err := s.session.Query(stmt, id, turn.Timestamp, turn.Message, turn.Response).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("cassandra: appending turn for %s: %w", turn.UserID, err)
	}
	return nil
}

// ListTurns reads the user's partition, oldest first.
func (s *Store) ListTurns(ctx context.Context, userID string, limit int) ([]*core.ConversationTurn, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	stmt, args := listTurnsQuery(s.keyspace, id, limit)

	var turns []*core.ConversationTurn
	scanner := s.session.Query(stmt, args...).WithContext(ctx).Iter().Scanner()
	for scanner.Next() {
		turn := &core.ConversationTurn{UserID: userID}
		if err := scanner.Scan(&turn.Timestamp, &turn.Message, &turn.Response); err != nil {
			return nil, fmt.Errorf("cassandra: scanning turn: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cassandra: listing turns for %s: %w", userID, err)
	}

	if limit > 0 {
		// Query ran newest first to honor the limit
		for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
			turns[i], turns[j] = turns[j], turns[i]
		}
	}
	return turns, nil
}

// Close closes the session. It is safe to call more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(s.session.Close)
	return nil
}

func listTurnsQuery(keyspace string, id [16]byte, limit int) (string, []any) {
	if limit > 0 {
		return fmt.Sprintf(`SELECT timestamp, message, response FROM %s.conversations WHERE user_id = ? ORDER BY timestamp DESC LIMIT ?`, keyspace),
			[]any{id, limit}
	}
	return fmt.Sprintf(`SELECT timestamp, message, response FROM %s.conversations WHERE user_id = ? ORDER BY timestamp ASC`, keyspace),
		[]any{id}
}

// parseUserID validates a user ID and converts it to the driver's UUID byte form.
func parseUserID(userID string) ([16]byte, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return [16]byte{}, fmt.Errorf("%w: %q", ErrInvalidUserID, userID)
	}
	return [16]byte(id), nil
}
