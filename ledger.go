// Package kycledger wires the record store, authorization evaluator,
// transaction engine, and event emitter into one handle with an explicit
// open/serve/close lifecycle. Hosts embed a Ledger per deployment; tests
// open independent instances that share nothing.
package kycledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"kycledger/internal/ledger/events"
	"kycledger/internal/ledger/events/kafka"
	ledgermetrics "kycledger/internal/ledger/metrics"
	"kycledger/internal/ledger/models"
	"kycledger/internal/ledger/service"
	"kycledger/internal/ledger/store"
	"kycledger/internal/ledger/store/memory"
	"kycledger/internal/ledger/store/postgres"
	redisstore "kycledger/internal/ledger/store/redis"
	"kycledger/internal/platform/config"
	"kycledger/internal/platform/logger"
	"kycledger/pkg/domain"
)

// Ledger owns the engine and the resources behind it.
type Ledger struct {
	engine  *service.Engine
	store   store.RecordStore
	emitter *events.Emitter
	logger  *slog.Logger

	pool     *pgxpool.Pool
	redis    *goredis.Client
	kafkaPub *kafka.Publisher
}

// Option customizes an opened Ledger.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *ledgermetrics.Metrics
}

// WithLogger replaces the default stdout logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics attaches engine metrics. Callers own registration scope; the
// default is no metrics so tests do not collide on the global registry.
func WithMetrics(m *ledgermetrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Open builds a Ledger from configuration: it connects the selected store
// backend, starts the event emitter, and registers the Kafka listener when
// brokers are configured. Close releases everything.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*Ledger, error) {
	o := &options{logger: logger.New()}
	for _, opt := range opts {
		opt(o)
	}

	l := &Ledger{logger: o.logger}

	recs, err := l.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	l.store = recs

	var emitterOpts []events.Option
	emitterOpts = append(emitterOpts, events.WithLogger(o.logger))
	if cfg.EventBuffer > 0 {
		emitterOpts = append(emitterOpts, events.WithAsyncBuffer(cfg.EventBuffer))
	}
	l.emitter = events.New(emitterOpts...)

	if len(cfg.KafkaBrokers) > 0 {
		pub, err := kafka.New(cfg.KafkaBrokers, cfg.KafkaTopic, kafka.WithLogger(o.logger))
		if err != nil {
			l.closeStores()
			return nil, fmt.Errorf("connect kafka: %w", err)
		}
		l.kafkaPub = pub
		l.emitter.Register(pub)
	}

	engineOpts := []service.Option{
		service.WithEmitter(l.emitter),
		service.WithLogger(o.logger),
	}
	if o.metrics != nil {
		engineOpts = append(engineOpts, service.WithMetrics(o.metrics))
	}
	l.engine = service.New(recs, engineOpts...)

	return l, nil
}

func (l *Ledger) openStore(ctx context.Context, cfg config.Config) (store.RecordStore, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory, "":
		return memory.New(), nil
	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		l.pool = pool
		s := postgres.New(pool)
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			l.pool = nil
			return nil, err
		}
		return s, nil
	case config.BackendRedis:
		client, err := redisstore.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		l.redis = client
		return redisstore.New(client), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// Engine exposes the transaction processor to the host.
func (l *Ledger) Engine() *service.Engine { return l.engine }

// Bootstrap seeds the first manager when the ledger has no participants yet.
// It returns the manager whether freshly created or already present.
func (l *Ledger) Bootstrap(ctx context.Context) (models.Manager, error) {
	existing, err := l.store.Scan(ctx, domain.KindManager)
	if err != nil {
		return models.Manager{}, fmt.Errorf("scan managers: %w", err)
	}
	if len(existing) > 0 {
		return existing[0].(models.Manager), nil
	}
	m, err := store.SeedBootstrapManager(ctx, l.store)
	if err != nil {
		return models.Manager{}, fmt.Errorf("seed bootstrap manager: %w", err)
	}
	l.logger.Info("seeded bootstrap manager", "id", m.UserID.String())
	return m, nil
}

// RegisterListener adds an event listener alongside any configured Kafka
// publisher.
func (l *Ledger) RegisterListener(listener events.Listener) {
	l.emitter.Register(listener)
}

// Close drains the emitter and releases backend resources.
func (l *Ledger) Close(ctx context.Context) error {
	l.emitter.Close()

	var errs []error
	if l.kafkaPub != nil {
		if err := l.kafkaPub.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close kafka publisher: %w", err))
		}
	}
	l.closeStores()
	return errors.Join(errs...)
}

func (l *Ledger) closeStores() {
	if l.pool != nil {
		l.pool.Close()
	}
	if l.redis != nil {
		_ = l.redis.Close()
	}
}
