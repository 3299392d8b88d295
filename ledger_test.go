package kycledger_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"kycledger"
	"kycledger/internal/ledger/events"
	"kycledger/internal/ledger/models"
	"kycledger/internal/platform/config"
	"kycledger/pkg/domain"
)

func TestOpenMemoryLedgerLifecycle(t *testing.T) {
	ctx := context.Background()

	ldg, err := kycledger.Open(ctx, config.Config{StoreBackend: config.BackendMemory})
	require.NoError(t, err)
	defer func() { require.NoError(t, ldg.Close(ctx)) }()

	manager, err := ldg.Bootstrap(ctx)
	require.NoError(t, err)
	require.False(t, manager.UserID.IsNil())

	again, err := ldg.Bootstrap(ctx)
	require.NoError(t, err)
	require.Equal(t, manager.UserID, again.UserID, "bootstrap is idempotent")

	var delivered atomic.Int64
	ldg.RegisterListener(events.ListenerFunc(func(context.Context, models.Event) {
		delivered.Add(1)
	}))

	caller := models.ManagerCaller(manager.UserID)
	engine := ldg.Engine()

	require.NoError(t, engine.Create(ctx, caller, models.User{UserID: "user1"}))

	doc, secret, err := engine.CreateDocument(ctx, models.UserCaller("user1"), models.Document{
		DocumentID: "d1",
		Hash:       "sha256:feed",
		Owner:      "user1",
		Type:       domain.DocumentTypeIdentity,
	}, "")
	require.NoError(t, err)
	require.NotEmpty(t, secret)
	require.Equal(t, domain.DocumentStatusInProgress, doc.Status)

	evts, err := engine.Submit(ctx, caller, models.ProcessDocument{
		Document: "d1", Status: domain.DocumentStatusApproved,
	})
	require.NoError(t, err)
	require.Len(t, evts, 1)
	require.Equal(t, int64(1), delivered.Load())
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := kycledger.Open(context.Background(), config.Config{StoreBackend: "etcd"})
	require.Error(t, err)
}
