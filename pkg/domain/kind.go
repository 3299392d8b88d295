package domain

import dErrors "kycledger/pkg/domain-errors"

// Kind tags a record type in the store. Ids are unique only within a kind, so
// every store key is the pair (Kind, id).
type Kind string

const (
	KindUser      Kind = "User"
	KindManager   Kind = "Manager"
	KindDocument  Kind = "Document"
	KindSomeAsset Kind = "SomeAsset"
)

// validKinds is the single source of truth for storable record kinds.
var validKinds = map[Kind]bool{
	KindUser:      true,
	KindManager:   true,
	KindDocument:  true,
	KindSomeAsset: true,
}

// ParseKind constructs a Kind from external input.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !validKinds[k] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown record kind %q", s)
	}
	return k, nil
}

func (k Kind) String() string { return string(k) }

// IsParticipant reports whether records of this kind carry an identity that
// can submit transactions.
func (k Kind) IsParticipant() bool {
	return k == KindUser || k == KindManager
}

// IsAsset reports whether records of this kind are tracked items owned by a
// participant.
func (k Kind) IsAsset() bool {
	return k == KindDocument || k == KindSomeAsset
}
