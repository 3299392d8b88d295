// Package service hosts the transaction engine: every read or mutation of
// the record store passes through here, authorization-checked and executed
// as an all-or-nothing unit of work. The surrounding host (REST layer,
// connection profiles, identity issuance) is an external collaborator that
// hands the engine a resolved caller and consumes the events it emits.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"kycledger/internal/ledger/acl"
	"kycledger/internal/ledger/events"
	ledgermetrics "kycledger/internal/ledger/metrics"
	"kycledger/internal/ledger/models"
	"kycledger/internal/ledger/secrets"
	"kycledger/internal/ledger/store"
	"kycledger/pkg/domain"
	dErrors "kycledger/pkg/domain-errors"
	"kycledger/pkg/platform/sentinel"
)

// Engine executes named transactions and authorized record operations
// against a record store. It is the only component that writes to the store.
type Engine struct {
	store   store.RecordStore
	eval    *acl.Evaluator
	emitter *events.Emitter
	metrics *ledgermetrics.Metrics
	logger  *slog.Logger
	locks   keyLocks
	tracer  trace.Tracer
}

type Option func(*Engine)

// WithEvaluator replaces the default rule set, e.g. for tests probing
// default-deny behavior.
func WithEvaluator(eval *acl.Evaluator) Option {
	return func(e *Engine) { e.eval = eval }
}

// WithEmitter attaches the event emitter that receives committed events.
func WithEmitter(emitter *events.Emitter) Option {
	return func(e *Engine) { e.emitter = emitter }
}

// WithMetrics attaches engine metrics.
func WithMetrics(m *ledgermetrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func New(recs store.RecordStore, opts ...Option) *Engine {
	e := &Engine{
		store:  recs,
		eval:   acl.New(),
		logger: slog.Default(),
		tracer: otel.Tracer("kycledger/ledger"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit validates, authorizes, and executes a named transaction. On commit
// it returns the emitted events (already delivered to listeners); on any
// failure nothing is persisted and no event fires.
func (e *Engine) Submit(ctx context.Context, caller models.Caller, tx models.Transaction) ([]models.Event, error) {
	start := time.Now()
	if tx == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "transaction payload is required")
	}

	ctx, span := e.tracer.Start(ctx, "engine.Submit",
		trace.WithAttributes(
			attribute.String("tx.type", tx.TxType()),
			attribute.String("caller.kind", caller.Kind.String()),
		))
	defer span.End()
	defer e.observeSubmit(start)
	e.countSubmitted(tx.TxType())

	evts, err := e.execute(ctx, caller, tx)
	if err != nil {
		span.SetAttributes(attribute.String("outcome", string(dErrors.CodeOf(err))))
		e.countRejected(tx.TxType(), err)
		e.logger.Debug("transaction rejected",
			"tx", tx.TxType(),
			"caller", caller.ID.String(),
			"code", string(dErrors.CodeOf(err)),
		)
		return nil, err
	}
	span.SetAttributes(attribute.String("outcome", "committed"))
	e.countCommitted(tx.TxType(), len(evts))

	if e.emitter != nil {
		e.emitter.Emit(ctx, evts...)
	}
	return evts, nil
}

func (e *Engine) execute(ctx context.Context, caller models.Caller, tx models.Transaction) ([]models.Event, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	switch tx := tx.(type) {
	case models.ProcessDocument:
		return e.processDocument(ctx, caller, tx)
	case models.SomeTransaction:
		return e.transferAsset(ctx, caller, tx)
	default:
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown transaction type %q", tx.TxType())
	}
}

// Query returns a record the caller is permitted to read. Document secret
// digests never leave the engine.
func (e *Engine) Query(ctx context.Context, caller models.Caller, kind domain.Kind, id string) (models.Record, error) {
	rec, err := e.store.Get(ctx, kind, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "%s %s does not exist", kind, id)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read record")
	}
	if err := e.eval.Authorize(ctx, e.store, acl.Request{
		Caller: caller, Op: domain.OpRead, Record: rec,
	}); err != nil {
		return nil, err
	}
	return redact(rec), nil
}

// Scan returns the records of a kind visible to the caller. Records the
// caller may not read are filtered out rather than failing the whole scan,
// which is what list surfaces expect.
func (e *Engine) Scan(ctx context.Context, caller models.Caller, kind domain.Kind) ([]models.Record, error) {
	recs, err := e.store.Scan(ctx, kind)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan records")
	}
	visible := make([]models.Record, 0, len(recs))
	for _, rec := range recs {
		err := e.eval.Authorize(ctx, e.store, acl.Request{
			Caller: caller, Op: domain.OpRead, Record: rec,
		})
		switch {
		case err == nil:
			visible = append(visible, redact(rec))
		case dErrors.HasCode(err, dErrors.CodeDenied):
			continue
		default:
			return nil, err
		}
	}
	return visible, nil
}

// Create inserts a new record. Documents always enter the workflow as
// INPROGRESS regardless of what the payload claims; use CreateDocument when
// a secret needs hashing.
func (e *Engine) Create(ctx context.Context, caller models.Caller, rec models.Record) error {
	if rec == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "record is required")
	}
	if doc, ok := rec.(models.Document); ok {
		doc.Status = domain.DocumentStatusInProgress
		rec = doc
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	key := store.KeyOf(rec)
	return e.runInTx(ctx, []store.Key{key}, func(view *txView) error {
		if err := e.eval.Authorize(ctx, view, acl.Request{
			Caller: caller, Op: domain.OpCreate, Record: rec,
		}); err != nil {
			return err
		}
		if _, err := view.Get(ctx, key.Kind, key.ID); err == nil {
			return dErrors.Newf(dErrors.CodeConflict, "%s %s already exists", key.Kind, key.ID)
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "check existing record")
		}
		if err := e.requireOwnerExists(ctx, view, rec); err != nil {
			return err
		}
		view.Put(rec)
		return nil
	})
}

// CreateDocument hashes the plaintext secret (generating one when empty) and
// creates the document. The returned secret is the only chance to learn a
// generated value; the store keeps just the digest.
func (e *Engine) CreateDocument(ctx context.Context, caller models.Caller, doc models.Document, secret string) (models.Document, string, error) {
	var err error
	if secret == "" {
		if secret, err = secrets.Generate(); err != nil {
			return models.Document{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "generate document secret")
		}
	}
	digest, err := secrets.Hash(secret)
	if err != nil {
		return models.Document{}, "", err
	}
	doc.SecretDigest = digest
	doc.Status = domain.DocumentStatusInProgress

	if err := e.Create(ctx, caller, doc); err != nil {
		return models.Document{}, "", err
	}
	return doc.Redacted(), secret, nil
}

// VerifyDocumentSecret checks a plaintext secret against the stored digest.
// Readability of the document gates the check, so only the owner or a
// manager can probe it.
func (e *Engine) VerifyDocumentSecret(ctx context.Context, caller models.Caller, id domain.DocumentID, secret string) error {
	rec, err := e.store.Get(ctx, domain.KindDocument, id.String())
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "document %s does not exist", id)
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "read document")
	}
	doc := rec.(models.Document)
	if err := e.eval.Authorize(ctx, e.store, acl.Request{
		Caller: caller, Op: domain.OpRead, Record: doc,
	}); err != nil {
		return err
	}
	return secrets.Verify(secret, doc.SecretDigest)
}

// Update overwrites a record the caller may update. Derived verification
// state on User records is owned by transaction logic and survives the
// update untouched.
func (e *Engine) Update(ctx context.Context, caller models.Caller, rec models.Record) error {
	if rec == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "record is required")
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	key := store.KeyOf(rec)
	return e.runInTx(ctx, []store.Key{key}, func(view *txView) error {
		current, err := view.Get(ctx, key.Kind, key.ID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "%s %s does not exist", key.Kind, key.ID)
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "read record")
		}
		// Authorization inspects the stored snapshot, not payload claims.
		if err := e.eval.Authorize(ctx, view, acl.Request{
			Caller: caller, Op: domain.OpUpdate, Record: current,
		}); err != nil {
			return err
		}
		if user, ok := rec.(models.User); ok {
			stored := current.(models.User)
			user.Identity = stored.Identity
			user.Address = stored.Address
			user.Verified = stored.Verified
			rec = user
		}
		view.Put(rec)
		return nil
	})
}

// Delete removes a record. It is a store-level primitive for authorized
// owners; named transactions never delete.
func (e *Engine) Delete(ctx context.Context, caller models.Caller, kind domain.Kind, id string) error {
	key := store.Key{Kind: kind, ID: id}
	return e.runInTx(ctx, []store.Key{key}, func(view *txView) error {
		current, err := view.Get(ctx, kind, id)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "%s %s does not exist", kind, id)
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "read record")
		}
		if err := e.eval.Authorize(ctx, view, acl.Request{
			Caller: caller, Op: domain.OpDelete, Record: current,
		}); err != nil {
			return err
		}
		view.Delete(kind, id)
		return nil
	})
}

// requireOwnerExists resolves an asset's owner reference at write time so a
// dangling relation can never be persisted.
func (e *Engine) requireOwnerExists(ctx context.Context, view *txView, rec models.Record) error {
	if !rec.Kind().IsAsset() {
		return nil
	}
	owner, ok := models.OwnerOf(rec)
	if !ok {
		return nil
	}
	if _, err := view.Get(ctx, domain.KindUser, owner.String()); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeDanglingReference, "owner %s does not exist", owner)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "resolve owner")
	}
	return nil
}

func redact(rec models.Record) models.Record {
	if doc, ok := rec.(models.Document); ok {
		return doc.Redacted()
	}
	return rec
}

func (e *Engine) observeSubmit(start time.Time) {
	if e.metrics != nil {
		e.metrics.ObserveSubmit(start)
	}
}

func (e *Engine) countSubmitted(txType string) {
	if e.metrics != nil {
		e.metrics.TransactionsSubmitted.WithLabelValues(txType).Inc()
	}
}

func (e *Engine) countCommitted(txType string, eventCount int) {
	if e.metrics != nil {
		e.metrics.TransactionsCommitted.WithLabelValues(txType).Inc()
		e.metrics.EventsEmitted.Add(float64(eventCount))
	}
}

func (e *Engine) countRejected(txType string, err error) {
	if e.metrics != nil {
		e.metrics.TransactionsRejected.WithLabelValues(txType, string(dErrors.CodeOf(err))).Inc()
	}
}
