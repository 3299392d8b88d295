package service

import (
	"context"
	"errors"

	"kycledger/internal/ledger/acl"
	"kycledger/internal/ledger/models"
	"kycledger/internal/ledger/store"
	"kycledger/pkg/domain"
	dErrors "kycledger/pkg/domain-errors"
	"kycledger/pkg/platform/sentinel"
)

// transferAsset reassigns a SomeAsset to its new owner. Authorization
// follows the asset's current stored owner, so by the time this body runs a
// stale submitter has already been rejected.
func (e *Engine) transferAsset(ctx context.Context, caller models.Caller, tx models.SomeTransaction) ([]models.Event, error) {
	keys := []store.Key{
		{Kind: domain.KindSomeAsset, ID: tx.Asset.String()},
	}

	var evts []models.Event
	err := e.runInTx(ctx, keys, func(view *txView) error {
		if err := e.eval.Authorize(ctx, view, acl.Request{
			Caller: caller, Op: domain.OpSubmit, Tx: tx,
		}); err != nil {
			return err
		}

		rec, err := view.Get(ctx, domain.KindSomeAsset, tx.Asset.String())
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeDanglingReference, "asset %s does not exist", tx.Asset)
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "read asset")
		}
		asset := rec.(models.SomeAsset)

		// The new owner must resolve now, not at next read.
		if _, err := view.Get(ctx, domain.KindUser, tx.NewOwner.String()); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Newf(dErrors.CodeDanglingReference, "new owner %s does not exist", tx.NewOwner)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "resolve new owner")
		}

		asset.Owner = tx.NewOwner
		view.Put(asset)

		evts = []models.Event{models.SomeTransactionEvent{Asset: asset}}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return evts, nil
}
