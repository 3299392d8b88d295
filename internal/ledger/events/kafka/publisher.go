// Package kafka publishes committed domain events to a Kafka topic. It is
// one Listener implementation among others; the engine itself stays unaware
// of brokers.
package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"kycledger/internal/ledger/models"
)

// envelope is the wire shape of a published event. The event name doubles as
// the record key so all events of one type land in one partition.
type envelope struct {
	Name      string       `json:"name"`
	EmittedAt time.Time    `json:"emittedAt"`
	Payload   models.Event `json:"payload"`
}

// Publisher forwards events to a topic. Production is asynchronous; failures
// are logged, not propagated, because the transaction already committed.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// New connects to the given brokers. The caller owns the Publisher lifecycle
// and must Close it to flush in-flight events.
func New(brokers []string, topic string, opts ...Option) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}
	p := &Publisher{client: client, topic: topic, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// OnEvent implements events.Listener.
func (p *Publisher) OnEvent(ctx context.Context, event models.Event) {
	body, err := json.Marshal(envelope{
		Name:      event.EventName(),
		EmittedAt: time.Now().UTC(),
		Payload:   event,
	})
	if err != nil {
		p.logger.Error("encode event", "event", event.EventName(), "error", err)
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.EventName()),
		Value: body,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("publish event", "event", event.EventName(), "error", err)
		}
	})
}

// Close flushes pending produce requests and releases the client.
func (p *Publisher) Close(ctx context.Context) error {
	defer p.client.Close()
	return p.client.Flush(ctx)
}
