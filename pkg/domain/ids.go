package domain

import dErrors "kycledger/pkg/domain-errors"

// Typed identifiers keep record references from being mixed up at compile
// time. Ids are caller-assigned opaque strings, unique within their kind.
//
// Usage: construct via the Parse functions at trust boundaries to enforce
// presence; direct casting bypasses validation.
type (
	// UserID identifies a User or Manager participant.
	UserID string
	// DocumentID identifies a Document asset.
	DocumentID string
	// AssetID identifies a SomeAsset asset.
	AssetID string
)

// ParseUserID validates a participant id from external input.
func ParseUserID(s string) (UserID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "participant id is required")
	}
	return UserID(s), nil
}

// ParseDocumentID validates a document id from external input.
func ParseDocumentID(s string) (DocumentID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "document id is required")
	}
	return DocumentID(s), nil
}

// ParseAssetID validates an asset id from external input.
func ParseAssetID(s string) (AssetID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "asset id is required")
	}
	return AssetID(s), nil
}

func (id UserID) String() string     { return string(id) }
func (id DocumentID) String() string { return string(id) }
func (id AssetID) String() string    { return string(id) }

func (id UserID) IsNil() bool     { return id == "" }
func (id DocumentID) IsNil() bool { return id == "" }
func (id AssetID) IsNil() bool    { return id == "" }
