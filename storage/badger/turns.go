package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/storage"
)

// ConversationStore implements storage.ConversationStore for BadgerDB.
// Turns are keyed by user, timestamp and a sequence number so that turns
// recorded in the same microsecond keep their insertion order.
type ConversationStore struct {
	backend *Backend
	seq     *badger.Sequence
}

var _ storage.ConversationStore = (*ConversationStore)(nil)

// NewConversationStore creates a conversation store on an open backend.
func NewConversationStore(backend *Backend) (storage.ConversationStore, error) {
	return newConversationStore(backend)
}

func newConversationStore(backend *Backend) (*ConversationStore, error) {
	seq, err := backend.GetSequence(turnSeq)
	if err != nil {
		return nil, err
	}
	return &ConversationStore{backend: backend, seq: seq}, nil
}

// AppendTurn records one turn.
func (s *ConversationStore) AppendTurn(ctx context.Context, turn *core.ConversationTurn) error {
	if err := core.ValidateTurn(turn); err != nil {
		return err
	}
	value, err := storage.MarshalTurn(turn)
	if err != nil {
		return err
	}
	next, err := s.seq.Next()
	if err != nil {
		return err
	}
	return s.backend.Update(func(tx *badger.Txn) error {
		return tx.Set(makeTurnKey(turn.UserID, turn.Timestamp, next), value)
	})
}

// ListTurns returns the user's turns oldest first, keeping the most recent limit when limit > 0.
func (s *ConversationStore) ListTurns(ctx context.Context, userID string, limit int) ([]*core.ConversationTurn, error) {
	var turns []*core.ConversationTurn
	err := s.backend.View(func(tx *badger.Txn) error {
		// Walk newest to oldest so the limit keeps the most recent turns
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		prefix := makeTurnPrefix(userID)
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		seek := append(append([]byte{}, prefix...), 0xff)
		for iter.Seek(seek); iter.Valid(); iter.Next() {
			if limit > 0 && len(turns) >= limit {
				break
			}
			var turn *core.ConversationTurn
			err := iter.Item().Value(func(val []byte) error {
				var err error
				turn, err = storage.UnmarshalTurn(val)
				return err
			})
			if err != nil {
				return err
			}
			turns = append(turns, turn)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reverse into chronological order
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// Close releases the turn sequence.
func (s *ConversationStore) Close() error {
	return s.seq.Release()
}
