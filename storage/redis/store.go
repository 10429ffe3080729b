package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/storage"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultHistoryPrefix = "history:"
	connectTimeout       = 10 * time.Second
)

// Config holds Redis connection and keying settings.
type Config struct {
	// URI is either a redis:// / rediss:// URL or a bare host:port address.
	URI string
	// Password and DB apply only to bare addresses.
	Password string
	DB       int
	// ProfilePrefix is prepended to user IDs to form profile keys.
	// Empty stores profiles under the bare user ID.
	ProfilePrefix string
	// HistoryPrefix is prepended to user IDs to form conversation list keys.
	// Default: "history:".
	HistoryPrefix string
	// SessionTTL expires a user's conversation list after inactivity. Zero keeps it forever.
	SessionTTL time.Duration
}

// Store implements storage.ProfileStore and storage.ConversationStore on one Redis client.
// Profiles are JSON strings; conversation turns are JSON entries in a list per user.
type Store struct {
	client        *goredis.Client
	profilePrefix string
	historyPrefix string
	ttl           time.Duration
	logger        *slog.Logger
	closeOnce     sync.Once
	closeErr      error
}

var (
	_ storage.ProfileStore      = (*Store)(nil)
	_ storage.ConversationStore = (*Store)(nil)
)

// Open connects to Redis and verifies the connection with PING.
// Returns a *storage.ConnectionError when the server cannot be reached.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, storage.NewConnectionError("redis", err)
	}

	historyPrefix := cfg.HistoryPrefix
	if historyPrefix == "" {
		historyPrefix = defaultHistoryPrefix
	}
	return &Store{
		client:        client,
		profilePrefix: cfg.ProfilePrefix,
		historyPrefix: historyPrefix,
		ttl:           cfg.SessionTTL,
		logger:        slog.Default().With("component", "redis"),
	}, nil
}

// clientOptions accepts full URLs as well as host:port addresses.
func clientOptions(cfg Config) (*goredis.Options, error) {
	if cfg.URI == "" {
		return nil, errors.New("redis: no URI configured")
	}
	if strings.HasPrefix(cfg.URI, "redis://") || strings.HasPrefix(cfg.URI, "rediss://") {
		opts, err := goredis.ParseURL(cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("redis: failed to parse URL: %w", err)
		}
		return opts, nil
	}
	return &goredis.Options{
		Addr:     cfg.URI,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}

// PutProfile replaces the profile record. The stored JSON omits the user ID, which is the key.
func (s *Store) PutProfile(ctx context.Context, profile *core.CustomerProfile) error {
	if err := core.ValidateProfile(profile); err != nil {
		return err
	}
	record := *profile
	record.UserID = ""
	value, err := storage.MarshalProfile(&record)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.profilePrefix+profile.UserID, value, 0).Err(); err != nil {
		return fmt.Errorf("redis: storing profile %s: %w", profile.UserID, err)
	}
	return nil
}

// GetProfile reads a profile by user ID.
func (s *Store) GetProfile(ctx context.Context, userID string) (*core.CustomerProfile, error) {
	value, err := s.client.Get(ctx, s.profilePrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("redis: reading profile %s: %w", userID, err)
	}
	profile, err := storage.UnmarshalProfile(value)
	if err != nil {
		return nil, err
	}
	profile.UserID = userID
	return profile, nil
}

// AppendTurn pushes a turn onto the user's history list and refreshes its TTL.
func (s *Store) AppendTurn(ctx context.Context, turn *core.ConversationTurn) error {
	if err := core.ValidateTurn(turn); err != nil {
		return err
	}
	value, err := storage.MarshalTurn(turn)
	if err != nil {
		return err
	}

	key := s.historyPrefix + turn.UserID
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.RPush(ctx, key, value)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: appending turn for %s: %w", turn.UserID, err)
	}
	return nil
}

// ListTurns reads the user's history list, oldest first.
func (s *Store) ListTurns(ctx context.Context, userID string, limit int) ([]*core.ConversationTurn, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	values, err := s.client.LRange(ctx, s.historyPrefix+userID, start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: listing turns for %s: %w", userID, err)
	}

	turns := make([]*core.ConversationTurn, 0, len(values))
	for _, v := range values {
		turn, err := storage.UnmarshalTurn([]byte(v))
		if err != nil {
			s.logger.Warn("skipping corrupt turn", "user", userID, "err", err)
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Close closes the client. It is safe to call more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Close()
	})
	return s.closeErr
}
