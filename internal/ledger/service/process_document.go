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

// processDocument applies a review decision: the document moves to its
// terminal status and, on approval, the owning user's matching proof flag is
// set with verified recomputed. Both writes commit together; a failure on
// either side leaves both records untouched.
//
// The INPROGRESS-only guard lives in the authorization rule list, so it runs
// before this body stages any write.
func (e *Engine) processDocument(ctx context.Context, caller models.Caller, tx models.ProcessDocument) ([]models.Event, error) {
	// Peek at the document to learn the owner before taking locks. Document
	// ownership never changes, so the pre-read owner is safe to lock on.
	peek, err := e.store.Get(ctx, domain.KindDocument, tx.Document.String())
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeDanglingReference, "document %s does not exist", tx.Document)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read document")
	}
	owner := peek.(models.Document).Owner

	keys := []store.Key{
		{Kind: domain.KindDocument, ID: tx.Document.String()},
		{Kind: domain.KindUser, ID: owner.String()},
	}

	var evts []models.Event
	err = e.runInTx(ctx, keys, func(view *txView) error {
		// Authorize under the locks: the rule re-resolves the document, so a
		// decision that raced in before us is seen here, not at peek time.
		if err := e.eval.Authorize(ctx, view, acl.Request{
			Caller: caller, Op: domain.OpSubmit, Tx: tx,
		}); err != nil {
			return err
		}

		rec, err := view.Get(ctx, domain.KindDocument, tx.Document.String())
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeDanglingReference, "document %s does not exist", tx.Document)
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "read document")
		}
		doc := rec.(models.Document)

		doc.Status = tx.Status
		view.Put(doc)

		userRec, err := view.Get(ctx, domain.KindUser, doc.Owner.String())
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeDanglingReference, "document owner %s does not exist", doc.Owner)
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "read document owner")
		}
		user := userRec.(models.User)

		if tx.Status == domain.DocumentStatusApproved {
			user.ApproveDocumentType(doc.Type)
		} else {
			user.RecomputeVerified()
		}
		view.Put(user)

		evts = []models.Event{models.DocumentProcessedEvent{Document: doc.Redacted()}}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return evts, nil
}
