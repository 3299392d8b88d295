package models

import (
	"kycledger/pkg/domain"
	dErrors "kycledger/pkg/domain-errors"
)

// Transaction is a named, validated payload the engine executes atomically.
// Payloads are ephemeral: they reference records by id and are never stored.
type Transaction interface {
	TxType() string
	Validate() error
}

// Transaction type names as submitted by callers.
const (
	TxProcessDocument = "ProcessDocument"
	TxSomeTransaction = "SomeTransaction"
)

// ProcessDocument asks for a review decision on a document. Only Managers may
// submit it, and only while the document is still INPROGRESS.
type ProcessDocument struct {
	Document domain.DocumentID     `json:"document"`
	Status   domain.DocumentStatus `json:"status"`
}

func (tx ProcessDocument) TxType() string { return TxProcessDocument }

func (tx ProcessDocument) Validate() error {
	if tx.Document.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "document reference is required")
	}
	if !tx.Status.Terminal() {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"process decision must be APPROVED or REJECTED, got %q", tx.Status)
	}
	return nil
}

// SomeTransaction transfers an asset to a new owner. The submitter must be
// the asset's current stored owner; the OldOwner field is informational and
// deliberately not trusted, so a stale owner cannot replay a transfer.
type SomeTransaction struct {
	Asset    domain.AssetID `json:"asset"`
	NewOwner domain.UserID  `json:"newOwner"`
	OldOwner domain.UserID  `json:"oldOwner,omitempty"`
}

func (tx SomeTransaction) TxType() string { return TxSomeTransaction }

func (tx SomeTransaction) Validate() error {
	if tx.Asset.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "asset reference is required")
	}
	if tx.NewOwner.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "new owner reference is required")
	}
	return nil
}
