package acl

import (
	"context"
	"errors"

	"kycledger/internal/ledger/models"
	"kycledger/pkg/domain"
	dErrors "kycledger/pkg/domain-errors"
	"kycledger/pkg/platform/sentinel"
)

// DefaultRules is the production rule list. Order matters: specific deny
// rules sit ahead of the allows they refine, and anything unmatched falls
// through to the evaluator's default deny.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:   "user-create-owned-document",
			Effect: Allow,
			When: func(_ context.Context, _ View, req Request) (bool, error) {
				if req.Op != domain.OpCreate || !req.Caller.IsUser() {
					return false, nil
				}
				doc, ok := req.Record.(models.Document)
				return ok && doc.Owner == req.Caller.ID, nil
			},
		},
		{
			Name:   "verified-user-create-owned-asset",
			Effect: Allow,
			When: func(ctx context.Context, view View, req Request) (bool, error) {
				if req.Op != domain.OpCreate || !req.Caller.IsUser() {
					return false, nil
				}
				asset, ok := req.Record.(models.SomeAsset)
				if !ok || asset.Owner != req.Caller.ID {
					return false, nil
				}
				caller, err := callerUser(ctx, view, req.Caller)
				if err != nil {
					return false, err
				}
				return caller.Verified, nil
			},
		},
		{
			Name:   "participant-self-access",
			Effect: Allow,
			When: func(_ context.Context, _ View, req Request) (bool, error) {
				if req.Op != domain.OpRead && req.Op != domain.OpUpdate {
					return false, nil
				}
				if !req.Caller.IsUser() {
					return false, nil
				}
				user, ok := req.Record.(models.User)
				return ok && user.UserID == req.Caller.ID, nil
			},
		},
		{
			Name:   "owner-read-own-asset",
			Effect: Allow,
			When: func(_ context.Context, _ View, req Request) (bool, error) {
				if req.Op != domain.OpRead || !req.Caller.IsUser() {
					return false, nil
				}
				return assetOwnedBy(req.Record, req.Caller.ID), nil
			},
		},
		{
			Name:   "owner-delete-own-asset",
			Effect: Allow,
			When: func(_ context.Context, _ View, req Request) (bool, error) {
				if req.Op != domain.OpDelete || !req.Caller.IsUser() {
					return false, nil
				}
				return assetOwnedBy(req.Record, req.Caller.ID), nil
			},
		},
		{
			Name:   "manager-read-any",
			Effect: Allow,
			When: func(_ context.Context, _ View, req Request) (bool, error) {
				return req.Op == domain.OpRead && req.Caller.IsManager(), nil
			},
		},
		{
			Name:   "manager-create-participant",
			Effect: Allow,
			When: func(_ context.Context, _ View, req Request) (bool, error) {
				if req.Op != domain.OpCreate || !req.Caller.IsManager() {
					return false, nil
				}
				return req.Record != nil && req.Record.Kind().IsParticipant(), nil
			},
		},
		{
			// A decided document is terminal. Matching before the allow rule
			// below gives managers a precise invalid-transition outcome
			// instead of a generic denial.
			Name:     "document-already-processed",
			Effect:   Deny,
			DenyCode: dErrors.CodeInvalidTransition,
			When: func(ctx context.Context, view View, req Request) (bool, error) {
				tx, ok := submittedTx[models.ProcessDocument](req)
				if !ok || !req.Caller.IsManager() {
					return false, nil
				}
				doc, err := resolveDocument(ctx, view, tx.Document)
				if err != nil {
					return false, err
				}
				return doc.Status.Terminal(), nil
			},
		},
		{
			Name:   "manager-process-inprogress-document",
			Effect: Allow,
			When: func(ctx context.Context, view View, req Request) (bool, error) {
				tx, ok := submittedTx[models.ProcessDocument](req)
				if !ok || !req.Caller.IsManager() {
					return false, nil
				}
				doc, err := resolveDocument(ctx, view, tx.Document)
				if err != nil {
					return false, err
				}
				return doc.Status == domain.DocumentStatusInProgress, nil
			},
		},
		{
			// Transfer authority follows the asset's current stored owner,
			// not the oldOwner claimed in the payload. A stale owner whose
			// asset already moved no longer matches here.
			Name:   "current-owner-transfer-asset",
			Effect: Allow,
			When: func(ctx context.Context, view View, req Request) (bool, error) {
				tx, ok := submittedTx[models.SomeTransaction](req)
				if !ok || !req.Caller.IsUser() {
					return false, nil
				}
				asset, err := resolveAsset(ctx, view, tx.Asset)
				if err != nil {
					return false, err
				}
				return asset.Owner == req.Caller.ID, nil
			},
		},
	}
}

func submittedTx[T models.Transaction](req Request) (T, bool) {
	var zero T
	if req.Op != domain.OpSubmit || req.Tx == nil {
		return zero, false
	}
	tx, ok := req.Tx.(T)
	return tx, ok
}

func assetOwnedBy(rec models.Record, caller domain.UserID) bool {
	switch r := rec.(type) {
	case models.Document:
		return r.Owner == caller
	case models.SomeAsset:
		return r.Owner == caller
	}
	return false
}

func callerUser(ctx context.Context, view View, caller models.Caller) (models.User, error) {
	rec, err := view.Get(ctx, domain.KindUser, caller.ID.String())
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.User{}, dErrors.Newf(dErrors.CodeNotFound,
			"caller %s is not a registered user", caller.ID)
	}
	if err != nil {
		return models.User{}, dErrors.Wrap(err, dErrors.CodeInternal, "resolve caller")
	}
	user, ok := rec.(models.User)
	if !ok {
		return models.User{}, dErrors.Newf(dErrors.CodeInternal,
			"record %s is not a user", caller.ID)
	}
	return user, nil
}

func resolveDocument(ctx context.Context, view View, id domain.DocumentID) (models.Document, error) {
	rec, err := view.Get(ctx, domain.KindDocument, id.String())
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Document{}, dErrors.Newf(dErrors.CodeDanglingReference,
			"document %s does not exist", id)
	}
	if err != nil {
		return models.Document{}, dErrors.Wrap(err, dErrors.CodeInternal, "resolve document")
	}
	return rec.(models.Document), nil
}

func resolveAsset(ctx context.Context, view View, id domain.AssetID) (models.SomeAsset, error) {
	rec, err := view.Get(ctx, domain.KindSomeAsset, id.String())
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.SomeAsset{}, dErrors.Newf(dErrors.CodeDanglingReference,
			"asset %s does not exist", id)
	}
	if err != nil {
		return models.SomeAsset{}, dErrors.Wrap(err, dErrors.CodeInternal, "resolve asset")
	}
	return rec.(models.SomeAsset), nil
}
