package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"kycledger/internal/ledger/models"
	"kycledger/internal/ledger/store"
	"kycledger/pkg/domain"
	"kycledger/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) TestPutAndGet() {
	s.Run("stores and retrieves by kind and id", func() {
		user := models.User{UserID: "user1"}
		s.Require().NoError(s.store.Put(s.ctx, user))

		found, err := s.store.Get(s.ctx, domain.KindUser, "user1")
		s.Require().NoError(err)
		s.Equal(user, found)
	})

	s.Run("returns ErrNotFound for unknown id", func() {
		_, err := s.store.Get(s.ctx, domain.KindUser, "ghost")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("ids are scoped per kind", func() {
		s.Require().NoError(s.store.Put(s.ctx, models.User{UserID: "1"}))
		s.Require().NoError(s.store.Put(s.ctx, models.Manager{UserID: "1"}))

		u, err := s.store.Get(s.ctx, domain.KindUser, "1")
		s.Require().NoError(err)
		s.IsType(models.User{}, u)

		m, err := s.store.Get(s.ctx, domain.KindManager, "1")
		s.Require().NoError(err)
		s.IsType(models.Manager{}, m)
	})

	s.Run("put overwrites existing record", func() {
		s.Require().NoError(s.store.Put(s.ctx, models.User{UserID: "user1"}))
		s.Require().NoError(s.store.Put(s.ctx, models.User{UserID: "user1", Identity: true}))

		found, err := s.store.Get(s.ctx, domain.KindUser, "user1")
		s.Require().NoError(err)
		s.True(found.(models.User).Identity)
	})
}

func (s *MemoryStoreSuite) TestReadsAreSnapshots() {
	doc := models.Document{DocumentID: "d1", Hash: "h", Owner: "user1",
		Type: domain.DocumentTypeIdentity, Status: domain.DocumentStatusInProgress}
	s.Require().NoError(s.store.Put(s.ctx, doc))

	found, err := s.store.Get(s.ctx, domain.KindDocument, "d1")
	s.Require().NoError(err)

	// Mutating the returned copy must not leak into the store.
	mutated := found.(models.Document)
	mutated.Status = domain.DocumentStatusApproved

	again, err := s.store.Get(s.ctx, domain.KindDocument, "d1")
	s.Require().NoError(err)
	s.Equal(domain.DocumentStatusInProgress, again.(models.Document).Status)
}

func (s *MemoryStoreSuite) TestDelete() {
	s.Run("removes the record", func() {
		s.Require().NoError(s.store.Put(s.ctx, models.SomeAsset{AssetID: "a1", Owner: "user1"}))
		s.Require().NoError(s.store.Delete(s.ctx, domain.KindSomeAsset, "a1"))

		_, err := s.store.Get(s.ctx, domain.KindSomeAsset, "a1")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returns ErrNotFound for unknown id", func() {
		err := s.store.Delete(s.ctx, domain.KindSomeAsset, "ghost")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestScan() {
	s.Run("returns all records of a kind", func() {
		s.Require().NoError(s.store.Put(s.ctx, models.User{UserID: "user1"}))
		s.Require().NoError(s.store.Put(s.ctx, models.User{UserID: "user2"}))
		s.Require().NoError(s.store.Put(s.ctx, models.Manager{UserID: "m1"}))

		users, err := s.store.Scan(s.ctx, domain.KindUser)
		s.Require().NoError(err)
		s.Len(users, 2)
	})

	s.Run("empty kind scans clean", func() {
		docs, err := s.store.Scan(s.ctx, domain.KindDocument)
		s.Require().NoError(err)
		s.Empty(docs)
	})
}

func (s *MemoryStoreSuite) TestApplyBatch() {
	s.Require().NoError(s.store.Put(s.ctx, models.SomeAsset{AssetID: "gone", Owner: "user1"}))

	puts := []models.Record{
		models.Document{DocumentID: "d1", Hash: "h", Owner: "user1",
			Type: domain.DocumentTypeIdentity, Status: domain.DocumentStatusApproved},
		models.User{UserID: "user1", Identity: true},
	}
	dels := []store.Key{{Kind: domain.KindSomeAsset, ID: "gone"}}

	s.Require().NoError(s.store.ApplyBatch(s.ctx, puts, dels))

	doc, err := s.store.Get(s.ctx, domain.KindDocument, "d1")
	s.Require().NoError(err)
	s.Equal(domain.DocumentStatusApproved, doc.(models.Document).Status)

	_, err = s.store.Get(s.ctx, domain.KindSomeAsset, "gone")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
