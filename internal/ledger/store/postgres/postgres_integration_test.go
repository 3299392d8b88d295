//go:build integration

package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"kycledger/internal/ledger/models"
	"kycledger/internal/ledger/store"
	"kycledger/internal/ledger/store/postgres"
	"kycledger/pkg/domain"
	"kycledger/pkg/platform/sentinel"
	"kycledger/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = postgres.New(s.pg.Pool)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "records"))
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	doc := models.Document{DocumentID: "d1", Hash: "h", SecretDigest: "digest",
		Owner: "user1", Type: domain.DocumentTypeIdentity, Status: domain.DocumentStatusInProgress}

	s.Require().NoError(s.store.Put(ctx, doc))

	found, err := s.store.Get(ctx, domain.KindDocument, "d1")
	s.Require().NoError(err)
	s.Equal(doc, found)
}

func (s *PostgresStoreSuite) TestGetUnknownReturnsNotFound() {
	_, err := s.store.Get(context.Background(), domain.KindUser, "ghost")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestPutUpserts() {
	ctx := context.Background()
	s.Require().NoError(s.store.Put(ctx, models.User{UserID: "user1"}))
	s.Require().NoError(s.store.Put(ctx, models.User{UserID: "user1", Identity: true, Address: true, Verified: true}))

	found, err := s.store.Get(ctx, domain.KindUser, "user1")
	s.Require().NoError(err)
	s.True(found.(models.User).Verified)
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()
	s.Require().NoError(s.store.Put(ctx, models.SomeAsset{AssetID: "a1", Owner: "user1"}))
	s.Require().NoError(s.store.Delete(ctx, domain.KindSomeAsset, "a1"))

	_, err := s.store.Get(ctx, domain.KindSomeAsset, "a1")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().ErrorIs(s.store.Delete(ctx, domain.KindSomeAsset, "a1"), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestScanIsScopedByKind() {
	ctx := context.Background()
	s.Require().NoError(s.store.Put(ctx, models.User{UserID: "user1"}))
	s.Require().NoError(s.store.Put(ctx, models.User{UserID: "user2"}))
	s.Require().NoError(s.store.Put(ctx, models.Manager{UserID: "m1"}))

	users, err := s.store.Scan(ctx, domain.KindUser)
	s.Require().NoError(err)
	s.Len(users, 2)

	managers, err := s.store.Scan(ctx, domain.KindManager)
	s.Require().NoError(err)
	s.Len(managers, 1)
}

func (s *PostgresStoreSuite) TestApplyBatchIsAtomic() {
	ctx := context.Background()
	s.Require().NoError(s.store.Put(ctx, models.SomeAsset{AssetID: "doomed", Owner: "user1"}))

	puts := []models.Record{
		models.Document{DocumentID: "d1", Hash: "h", Owner: "user1",
			Type: domain.DocumentTypeAddress, Status: domain.DocumentStatusApproved},
		models.User{UserID: "user1", Address: true},
	}
	dels := []store.Key{{Kind: domain.KindSomeAsset, ID: "doomed"}}

	s.Require().NoError(s.store.ApplyBatch(ctx, puts, dels))

	doc, err := s.store.Get(ctx, domain.KindDocument, "d1")
	s.Require().NoError(err)
	s.Equal(domain.DocumentStatusApproved, doc.(models.Document).Status)

	user, err := s.store.Get(ctx, domain.KindUser, "user1")
	s.Require().NoError(err)
	s.True(user.(models.User).Address)

	_, err = s.store.Get(ctx, domain.KindSomeAsset, "doomed")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
