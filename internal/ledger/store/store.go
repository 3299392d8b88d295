// Package store defines the record store contract: type-tagged keyed storage
// for participants and assets. Backends live in subpackages (memory,
// postgres, redis); all of them return pkg/platform/sentinel errors so the
// service layer can translate uniformly.
package store

import (
	"context"

	"kycledger/internal/ledger/models"
	"kycledger/pkg/domain"
)

// Key addresses a record. Ids are unique only within a kind.
type Key struct {
	Kind domain.Kind
	ID   string
}

// KeyOf derives the store key for a record.
func KeyOf(rec models.Record) Key {
	return Key{Kind: rec.Kind(), ID: rec.ID()}
}

// RecordStore is keyed storage for records. Get returns
// sentinel.ErrNotFound when no record exists under (kind, id); Put inserts
// or overwrites; Scan returns all records of a kind with no ordering
// guarantee.
type RecordStore interface {
	Get(ctx context.Context, kind domain.Kind, id string) (models.Record, error)
	Put(ctx context.Context, rec models.Record) error
	Delete(ctx context.Context, kind domain.Kind, id string) error
	Scan(ctx context.Context, kind domain.Kind) ([]models.Record, error)
}

// BatchWriter is an optional upgrade interface. Backends that can apply a
// group of writes atomically (postgres transactions, redis pipelines, the
// memory store's lock) implement it; the engine uses it to commit a staged
// transaction all-or-nothing. Backends without it get sequential writes
// under the engine's key locks.
type BatchWriter interface {
	ApplyBatch(ctx context.Context, puts []models.Record, deletes []Key) error
}
