package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycledger/pkg/domain"
	dErrors "kycledger/pkg/domain-errors"
)

func TestUser_ApproveDocumentType(t *testing.T) {
	u := User{UserID: "user1"}

	u.ApproveDocumentType(domain.DocumentTypeIdentity)
	assert.True(t, u.Identity)
	assert.False(t, u.Address)
	assert.False(t, u.Verified, "one approved proof is not enough")

	u.ApproveDocumentType(domain.DocumentTypeAddress)
	assert.True(t, u.Address)
	assert.True(t, u.Verified, "verified flips once both proofs are approved")
}

func TestUser_VerifiedNeverCleared(t *testing.T) {
	u := User{UserID: "user1", Identity: true, Address: true, Verified: true}

	// RecomputeVerified only promotes; a stale verified flag is never reset
	// by transaction logic.
	u.Identity = true
	u.RecomputeVerified()
	assert.True(t, u.Verified)

	u2 := User{UserID: "user2", Verified: true}
	u2.RecomputeVerified()
	assert.True(t, u2.Verified)
}

func TestDocument_CanProcess(t *testing.T) {
	doc := Document{
		DocumentID: "d1",
		Hash:       "abc",
		Owner:      "user1",
		Type:       domain.DocumentTypeIdentity,
		Status:     domain.DocumentStatusInProgress,
	}

	require.NoError(t, doc.CanProcess(domain.DocumentStatusApproved))
	require.NoError(t, doc.CanProcess(domain.DocumentStatusRejected))

	err := doc.CanProcess(domain.DocumentStatusInProgress)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	doc.Status = domain.DocumentStatusApproved
	err = doc.CanProcess(domain.DocumentStatusRejected)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition), "terminal status admits nothing")
}

func TestDocument_Redacted(t *testing.T) {
	doc := Document{DocumentID: "d1", Hash: "abc", SecretDigest: "$2a$10$...", Owner: "user1",
		Type: domain.DocumentTypeIdentity, Status: domain.DocumentStatusInProgress}

	out := doc.Redacted()
	assert.Empty(t, out.SecretDigest)
	assert.NotEmpty(t, doc.SecretDigest, "redaction works on a copy")
}

func TestRecordValidation(t *testing.T) {
	cases := []struct {
		name string
		rec  Record
		ok   bool
	}{
		{"valid user", User{UserID: "user1"}, true},
		{"user missing id", User{}, false},
		{"valid manager", Manager{UserID: "m1"}, true},
		{"manager missing id", Manager{}, false},
		{"valid document", Document{DocumentID: "d1", Hash: "h", Owner: "user1",
			Type: domain.DocumentTypeAddress, Status: domain.DocumentStatusInProgress}, true},
		{"document missing hash", Document{DocumentID: "d1", Owner: "user1",
			Type: domain.DocumentTypeAddress, Status: domain.DocumentStatusInProgress}, false},
		{"document bad type", Document{DocumentID: "d1", Hash: "h", Owner: "user1",
			Type: "PASSPORT", Status: domain.DocumentStatusInProgress}, false},
		{"document missing owner", Document{DocumentID: "d1", Hash: "h",
			Type: domain.DocumentTypeAddress, Status: domain.DocumentStatusInProgress}, false},
		{"valid asset", SomeAsset{AssetID: "a1", Owner: "user1"}, true},
		{"asset missing owner", SomeAsset{AssetID: "a1"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rec.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			}
		})
	}
}

func TestTransactionValidation(t *testing.T) {
	require.NoError(t, ProcessDocument{Document: "d1", Status: domain.DocumentStatusApproved}.Validate())

	err := ProcessDocument{Status: domain.DocumentStatusApproved}.Validate()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	// A decision must be terminal; INPROGRESS is not a decision.
	err = ProcessDocument{Document: "d1", Status: domain.DocumentStatusInProgress}.Validate()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	require.NoError(t, SomeTransaction{Asset: "a1", NewOwner: "user1"}.Validate())
	err = SomeTransaction{Asset: "a1"}.Validate()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestCodec_RoundTripByKind(t *testing.T) {
	codec := Codec{}
	doc := Document{DocumentID: "d1", Hash: "h", SecretDigest: "digest", Owner: "user1",
		Type: domain.DocumentTypeIdentity, Status: domain.DocumentStatusInProgress}

	body, err := codec.Encode(doc)
	require.NoError(t, err)

	out, err := codec.Decode(domain.KindDocument, body)
	require.NoError(t, err)
	assert.Equal(t, doc, out)

	_, err = codec.Decode("Widget", body)
	require.Error(t, err)
}

func TestOwnerOf(t *testing.T) {
	owner, ok := OwnerOf(Document{DocumentID: "d1", Owner: "user1"})
	require.True(t, ok)
	assert.Equal(t, domain.UserID("user1"), owner)

	owner, ok = OwnerOf(User{UserID: "user2"})
	require.True(t, ok)
	assert.Equal(t, domain.UserID("user2"), owner)
}
