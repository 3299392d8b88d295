package models

import (
	"kycledger/pkg/domain"
	dErrors "kycledger/pkg/domain-errors"
)

// Record is anything the record store can hold, addressed by (kind, id).
// Implementations use value receivers so a Record held by the store or an
// event is a snapshot, never an aliased pointer into live state.
type Record interface {
	Kind() domain.Kind
	ID() string
	// Validate enforces field presence. Cross-record invariants (e.g. owner
	// must exist) are resolved by the engine against current stored state.
	Validate() error
}

// Caller is a resolved submitting identity. The excluded connection-profile
// layer authenticates the external party and hands the engine this value.
type Caller struct {
	Kind domain.Kind
	ID   domain.UserID
}

// UserCaller builds a caller acting as the given User participant.
func UserCaller(id domain.UserID) Caller {
	return Caller{Kind: domain.KindUser, ID: id}
}

// ManagerCaller builds a caller acting as the given Manager participant.
func ManagerCaller(id domain.UserID) Caller {
	return Caller{Kind: domain.KindManager, ID: id}
}

func (c Caller) IsUser() bool    { return c.Kind == domain.KindUser }
func (c Caller) IsManager() bool { return c.Kind == domain.KindManager }

// User is a participant whose documents are reviewed. The identity and
// address flags are only ever set by approving a document of the matching
// type; verified is derived from them and never set directly by clients.
type User struct {
	UserID   domain.UserID `json:"userId"`
	Identity bool          `json:"identity"`
	Address  bool          `json:"address"`
	Verified bool          `json:"verified"`
}

func (u User) Kind() domain.Kind { return domain.KindUser }
func (u User) ID() string        { return u.UserID.String() }

func (u User) Validate() error {
	if u.UserID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	return nil
}

// ApproveDocumentType sets the verification flag matching the document type
// and recomputes verified. Flags are sticky: nothing ever resets them.
func (u *User) ApproveDocumentType(t domain.DocumentType) {
	switch t {
	case domain.DocumentTypeIdentity:
		u.Identity = true
	case domain.DocumentTypeAddress:
		u.Address = true
	}
	u.RecomputeVerified()
}

// RecomputeVerified derives verified from the two proof flags. Run after
// every mutation that may touch them.
func (u *User) RecomputeVerified() {
	if u.Identity && u.Address {
		u.Verified = true
	}
}

// Manager is a privileged participant with no document-verification state.
type Manager struct {
	UserID domain.UserID `json:"userId"`
}

func (m Manager) Kind() domain.Kind { return domain.KindManager }
func (m Manager) ID() string        { return m.UserID.String() }

func (m Manager) Validate() error {
	if m.UserID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "manager id is required")
	}
	return nil
}

// Document is a proof submitted by a User for review. The plaintext access
// secret is accepted at creation only; the store holds a bcrypt digest.
type Document struct {
	DocumentID   domain.DocumentID     `json:"documentId"`
	Hash         string                `json:"hash"`
	SecretDigest string                `json:"secretDigest,omitempty"`
	Owner        domain.UserID         `json:"owner"`
	Type         domain.DocumentType   `json:"type"`
	Status       domain.DocumentStatus `json:"status"`
}

func (d Document) Kind() domain.Kind { return domain.KindDocument }
func (d Document) ID() string        { return d.DocumentID.String() }

func (d Document) Validate() error {
	switch {
	case d.DocumentID.IsNil():
		return dErrors.New(dErrors.CodeInvalidInput, "document id is required")
	case d.Hash == "":
		return dErrors.New(dErrors.CodeInvalidInput, "document hash is required")
	case d.Owner.IsNil():
		return dErrors.New(dErrors.CodeInvalidInput, "document owner is required")
	}
	if _, err := domain.ParseDocumentType(d.Type.String()); err != nil {
		return err
	}
	if _, err := domain.ParseDocumentStatus(d.Status.String()); err != nil {
		return err
	}
	return nil
}

// CanProcess checks the review state machine guard: entry only from
// INPROGRESS, exit only to a terminal status.
func (d Document) CanProcess(next domain.DocumentStatus) error {
	if d.Status.Terminal() {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"document %s already processed (status %s)", d.DocumentID, d.Status)
	}
	if !d.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"document %s cannot move from %s to %s", d.DocumentID, d.Status, next)
	}
	return nil
}

// Redacted returns a copy safe to hand back to callers: the secret digest is
// write-only state and never leaves the engine.
func (d Document) Redacted() Document {
	d.SecretDigest = ""
	return d
}

// SomeAsset is a generic owned item. Transferring ownership is its only
// allowed mutation.
type SomeAsset struct {
	AssetID domain.AssetID `json:"assetId"`
	Owner   domain.UserID  `json:"owner"`
}

func (a SomeAsset) Kind() domain.Kind { return domain.KindSomeAsset }
func (a SomeAsset) ID() string        { return a.AssetID.String() }

func (a SomeAsset) Validate() error {
	switch {
	case a.AssetID.IsNil():
		return dErrors.New(dErrors.CodeInvalidInput, "asset id is required")
	case a.Owner.IsNil():
		return dErrors.New(dErrors.CodeInvalidInput, "asset owner is required")
	}
	return nil
}

// OwnerOf returns the participant that owns the record: the owner reference
// for assets, the record's own identity for participants.
func OwnerOf(rec Record) (domain.UserID, bool) {
	switch r := rec.(type) {
	case Document:
		return r.Owner, true
	case SomeAsset:
		return r.Owner, true
	case User:
		return r.UserID, true
	case Manager:
		return r.UserID, true
	}
	return "", false
}
