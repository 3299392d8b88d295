package store

import (
	"context"

	"github.com/google/uuid"

	"kycledger/internal/ledger/models"
	"kycledger/pkg/domain"
)

// SeedBootstrapManager creates the first manager so a fresh ledger has an
// identity able to provision participants and process documents. Dev and
// test environments call this once after opening the store.
func SeedBootstrapManager(ctx context.Context, s RecordStore) (models.Manager, error) {
	m := models.Manager{UserID: domain.UserID("manager-" + uuid.NewString())}
	if err := s.Put(ctx, m); err != nil {
		return models.Manager{}, err
	}
	return m, nil
}

// SeedParticipants inserts the given users and managers directly, bypassing
// authorization. Test fixtures use it to arrange a populated ledger.
func SeedParticipants(ctx context.Context, s RecordStore, users []models.User, managers []models.Manager) error {
	for _, u := range users {
		if err := s.Put(ctx, u); err != nil {
			return err
		}
	}
	for _, m := range managers {
		if err := s.Put(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
