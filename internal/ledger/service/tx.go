package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"kycledger/internal/ledger/models"
	"kycledger/internal/ledger/store"
	"kycledger/pkg/domain"
	dErrors "kycledger/pkg/domain-errors"
	"kycledger/pkg/platform/sentinel"
)

// numShards spreads key locks across independent mutexes so transactions
// touching disjoint records proceed in parallel while transactions touching
// the same record serialize.
const numShards = 128

type keyLocks struct {
	shards [numShards]sync.Mutex
}

// lock acquires the shards covering the given keys in ascending order, which
// keeps concurrent multi-key transactions deadlock-free. The returned
// function releases them in reverse.
func (l *keyLocks) lock(keys ...store.Key) (unlock func()) {
	seen := make(map[int]bool, len(keys))
	shards := make([]int, 0, len(keys))
	for _, key := range keys {
		idx := int(hashKey(key) % numShards)
		if !seen[idx] {
			seen[idx] = true
			shards = append(shards, idx)
		}
	}
	sort.Ints(shards)

	for _, idx := range shards {
		l.shards[idx].Lock()
	}
	return func() {
		for i := len(shards) - 1; i >= 0; i-- {
			l.shards[shards[i]].Unlock()
		}
	}
}

// hashKey uses FNV-1a over kind and id for even shard distribution.
func hashKey(key store.Key) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for _, s := range []string{key.Kind.String(), key.ID} {
		for i := 0; i < len(s); i++ {
			h ^= uint32(s[i])
			h *= fnvPrime
		}
	}
	return h
}

// txView is the unit-of-work a transaction body runs against: reads see the
// backing store plus this transaction's staged writes, and nothing reaches
// the store until commit. It doubles as the acl.View handed to the
// evaluator, so authorization always inspects the state the transaction
// would act on.
type txView struct {
	base    store.RecordStore
	staged  map[store.Key]models.Record
	deleted map[store.Key]bool
}

func newTxView(base store.RecordStore) *txView {
	return &txView{
		base:    base,
		staged:  make(map[store.Key]models.Record),
		deleted: make(map[store.Key]bool),
	}
}

func (v *txView) Get(ctx context.Context, kind domain.Kind, id string) (models.Record, error) {
	key := store.Key{Kind: kind, ID: id}
	if v.deleted[key] {
		return nil, sentinel.ErrNotFound
	}
	if rec, ok := v.staged[key]; ok {
		return rec, nil
	}
	return v.base.Get(ctx, kind, id)
}

func (v *txView) Put(rec models.Record) {
	key := store.KeyOf(rec)
	delete(v.deleted, key)
	v.staged[key] = rec
}

func (v *txView) Delete(kind domain.Kind, id string) {
	key := store.Key{Kind: kind, ID: id}
	delete(v.staged, key)
	v.deleted[key] = true
}

// commit flushes staged writes to the backing store, atomically when the
// backend supports batches.
func (v *txView) commit(ctx context.Context) error {
	if len(v.staged) == 0 && len(v.deleted) == 0 {
		return nil
	}

	puts := make([]models.Record, 0, len(v.staged))
	for _, rec := range v.staged {
		puts = append(puts, rec)
	}
	deletes := make([]store.Key, 0, len(v.deleted))
	for key := range v.deleted {
		deletes = append(deletes, key)
	}

	if bw, ok := v.base.(store.BatchWriter); ok {
		return bw.ApplyBatch(ctx, puts, deletes)
	}

	for _, rec := range puts {
		if err := v.base.Put(ctx, rec); err != nil {
			return err
		}
	}
	for _, key := range deletes {
		if err := v.base.Delete(ctx, key.Kind, key.ID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
	}
	return nil
}

// runInTx executes fn as one atomic unit: the shards covering keys are held
// for the duration, fn stages reads/writes on a fresh view, and the view
// commits only when fn returns nil. Any error leaves the store untouched.
func (e *Engine) runInTx(ctx context.Context, keys []store.Key, fn func(view *txView) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	unlock := e.locks.lock(keys...)
	defer unlock()

	// Check again after acquiring locks; a slow queue may outlive the caller.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	view := newTxView(e.store)
	if err := fn(view); err != nil {
		return err
	}
	if err := view.commit(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "commit transaction")
	}
	return nil
}
