package domain

import dErrors "kycledger/pkg/domain-errors"

// DocumentType distinguishes what a submitted document proves. Approving a
// document sets the matching verification flag on its owner.
type DocumentType string

const (
	DocumentTypeIdentity DocumentType = "IDENTITY"
	DocumentTypeAddress  DocumentType = "ADDRESS"
)

var validDocumentTypes = map[DocumentType]bool{
	DocumentTypeIdentity: true,
	DocumentTypeAddress:  true,
}

// ParseDocumentType constructs a DocumentType from external input.
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(s)
	if !validDocumentTypes[t] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown document type %q", s)
	}
	return t, nil
}

func (t DocumentType) String() string { return string(t) }

// DocumentStatus is the review state of a document. INPROGRESS is the only
// non-terminal state; APPROVED and REJECTED are terminal.
type DocumentStatus string

const (
	DocumentStatusInProgress DocumentStatus = "INPROGRESS"
	DocumentStatusApproved   DocumentStatus = "APPROVED"
	DocumentStatusRejected   DocumentStatus = "REJECTED"
)

var validDocumentStatuses = map[DocumentStatus]bool{
	DocumentStatusInProgress: true,
	DocumentStatusApproved:   true,
	DocumentStatusRejected:   true,
}

// ParseDocumentStatus constructs a DocumentStatus from external input.
func ParseDocumentStatus(s string) (DocumentStatus, error) {
	st := DocumentStatus(s)
	if !validDocumentStatuses[st] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown document status %q", s)
	}
	return st, nil
}

func (s DocumentStatus) String() string { return string(s) }

// Terminal reports whether the status admits no further transition.
func (s DocumentStatus) Terminal() bool {
	return s == DocumentStatusApproved || s == DocumentStatusRejected
}

// CanTransitionTo reports whether the state machine permits moving to next.
// The only legal moves are INPROGRESS -> APPROVED and INPROGRESS -> REJECTED.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	return s == DocumentStatusInProgress && next.Terminal()
}
