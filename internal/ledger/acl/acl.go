// Package acl decides whether a caller may perform an operation on a record
// or submit a transaction. Rules are an ordered list of pure predicates over
// (caller, operation, target); the first matching rule wins and anything
// unmatched is denied.
//
// Rules that depend on related records (a document's current status, an
// asset's current owner) re-resolve them through the supplied View, never
// from payload fields, so forged relationship values cannot widen access.
package acl

import (
	"context"
	"log/slog"

	"kycledger/internal/ledger/models"
	"kycledger/pkg/domain"
	dErrors "kycledger/pkg/domain-errors"
)

// Effect is the outcome a matched rule imposes.
type Effect int

const (
	Allow Effect = iota
	Deny
)

// View resolves current stored state for rule predicates. During a
// transaction the engine passes its staged view so rules see the state the
// transaction will commit against.
type View interface {
	Get(ctx context.Context, kind domain.Kind, id string) (models.Record, error)
}

// Request is one authorization question.
type Request struct {
	Caller models.Caller
	Op     domain.Operation
	// Record is the target for CRUD operations; nil for SUBMIT.
	Record models.Record
	// Tx is the payload for SUBMIT; nil otherwise.
	Tx models.Transaction
}

// Rule is one (condition -> effect) entry. When returns whether the rule
// matches the request; resolution failures (e.g. a dangling reference)
// surface as errors and abort evaluation.
type Rule struct {
	Name   string
	Effect Effect
	// DenyCode overrides the error code for a matched Deny rule. Zero value
	// means CodeDenied.
	DenyCode dErrors.Code
	When     func(ctx context.Context, view View, req Request) (bool, error)
}

// Evaluator walks the rule list in order.
type Evaluator struct {
	rules  []Rule
	logger *slog.Logger
}

type Option func(*Evaluator)

// WithLogger attaches a structured logger; denials are logged at debug.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) { e.logger = logger }
}

// WithRules replaces the default rule list. Intended for tests that probe
// evaluation order semantics.
func WithRules(rules []Rule) Option {
	return func(e *Evaluator) { e.rules = rules }
}

func New(opts ...Option) *Evaluator {
	e := &Evaluator{rules: DefaultRules()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Authorize returns nil when a rule allows the request, and a domain error
// otherwise. No matching rule means deny.
func (e *Evaluator) Authorize(ctx context.Context, view View, req Request) error {
	for _, rule := range e.rules {
		matched, err := rule.When(ctx, view, req)
		if err != nil {
			return err
		}
		if !matched {
			continue
		}
		if rule.Effect == Allow {
			return nil
		}
		return e.deny(req, rule.Name, rule.DenyCode)
	}
	return e.deny(req, "default-deny", "")
}

func (e *Evaluator) deny(req Request, ruleName string, code dErrors.Code) error {
	if code == "" {
		code = dErrors.CodeDenied
	}
	if e.logger != nil {
		e.logger.Debug("authorization denied",
			"rule", ruleName,
			"caller_kind", req.Caller.Kind.String(),
			"caller_id", req.Caller.ID.String(),
			"operation", req.Op.String(),
		)
	}
	return dErrors.Newf(code, "%s %s denied by %s",
		req.Caller.Kind, req.Op, ruleName)
}
