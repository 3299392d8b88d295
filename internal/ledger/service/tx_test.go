package service_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"kycledger/internal/ledger/models"
	"kycledger/internal/ledger/service"
	"kycledger/internal/ledger/store"
	"kycledger/internal/ledger/store/memory"
	"kycledger/pkg/domain"
	dErrors "kycledger/pkg/domain-errors"
)

func seededEngine(t *testing.T) (*service.Engine, *memory.Store) {
	t.Helper()
	recs := memory.New()
	err := store.SeedParticipants(context.Background(), recs,
		[]models.User{
			{UserID: "user1", Identity: true, Address: true, Verified: true},
			{UserID: "user2", Identity: true, Address: true, Verified: true},
		},
		[]models.Manager{{UserID: "m1"}},
	)
	require.NoError(t, err)
	return service.New(recs), recs
}

// Concurrent transfers of one asset must serialize: the first commit moves
// ownership and every replay from the stale owner is denied.
func TestConcurrentTransfersSerialize(t *testing.T) {
	engine, recs := seededEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.Create(ctx, models.UserCaller("user1"),
		models.SomeAsset{AssetID: "a1", Owner: "user1"}))

	var committed, denied atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			_, err := engine.Submit(gctx, models.UserCaller("user1"), models.SomeTransaction{
				Asset: "a1", NewOwner: "user2",
			})
			switch {
			case err == nil:
				committed.Add(1)
			case dErrors.HasCode(err, dErrors.CodeDenied):
				denied.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Equal(t, int64(1), committed.Load(), "exactly one transfer wins")
	require.Equal(t, int64(31), denied.Load())

	rec, err := recs.Get(ctx, domain.KindSomeAsset, "a1")
	require.NoError(t, err)
	require.Equal(t, domain.UserID("user2"), rec.(models.SomeAsset).Owner)
}

// Disjoint documents process in parallel without interfering with each
// other's owner cascade.
func TestConcurrentProcessingOnDisjointDocuments(t *testing.T) {
	engine, recs := seededEngine(t)
	ctx := context.Background()

	const docs = 16
	caller := models.UserCaller("user1")
	for i := 0; i < docs; i++ {
		require.NoError(t, engine.Create(ctx, caller, models.Document{
			DocumentID: domain.DocumentID(fmt.Sprintf("d%d", i)),
			Hash:       "sha256:cafe",
			Owner:      "user1",
			Type:       domain.DocumentTypeIdentity,
			Status:     domain.DocumentStatusInProgress,
		}))
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < docs; i++ {
		id := domain.DocumentID(fmt.Sprintf("d%d", i))
		g.Go(func() error {
			_, err := engine.Submit(gctx, models.ManagerCaller("m1"), models.ProcessDocument{
				Document: id, Status: domain.DocumentStatusApproved,
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	for i := 0; i < docs; i++ {
		rec, err := recs.Get(ctx, domain.KindDocument, fmt.Sprintf("d%d", i))
		require.NoError(t, err)
		require.Equal(t, domain.DocumentStatusApproved, rec.(models.Document).Status)
	}
}

func TestSubmitHonorsContextCancellation(t *testing.T) {
	engine, _ := seededEngine(t)

	require.NoError(t, engine.Create(context.Background(), models.UserCaller("user1"), models.Document{
		DocumentID: "d1",
		Hash:       "sha256:cafe",
		Owner:      "user1",
		Type:       domain.DocumentTypeIdentity,
		Status:     domain.DocumentStatusInProgress,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Submit(ctx, models.ManagerCaller("m1"), models.ProcessDocument{
		Document: "d1", Status: domain.DocumentStatusApproved,
	})
	require.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}
