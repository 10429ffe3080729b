package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/storefront/core"
	"github.com/poiesic/storefront/storage"
)

// ProfileStore implements storage.ProfileStore for BadgerDB.
type ProfileStore struct {
	backend *Backend
}

var _ storage.ProfileStore = (*ProfileStore)(nil)

// NewProfileStore creates a profile store on an open backend.
func NewProfileStore(backend *Backend) storage.ProfileStore {
	return &ProfileStore{backend: backend}
}

// PutProfile replaces the stored record for profile.UserID.
func (s *ProfileStore) PutProfile(ctx context.Context, profile *core.CustomerProfile) error {
	if err := core.ValidateProfile(profile); err != nil {
		return err
	}
	value, err := storage.MarshalProfile(profile)
	if err != nil {
		return err
	}
	return s.backend.Update(func(tx *badger.Txn) error {
		return tx.Set(makeProfileKey(profile.UserID), value)
	})
}

// GetProfile retrieves a profile by user ID.
func (s *ProfileStore) GetProfile(ctx context.Context, userID string) (*core.CustomerProfile, error) {
	var profile *core.CustomerProfile
	err := s.backend.View(func(tx *badger.Txn) error {
		value, err := readValue(tx, makeProfileKey(userID))
		if err != nil {
			return err
		}
		profile, err = storage.UnmarshalProfile(value)
		return err
	})
	if err != nil {
		return nil, err
	}
	profile.UserID = userID
	return profile, nil
}

// Close is a no-op; the backend is closed by its owner.
func (s *ProfileStore) Close() error {
	return nil
}
