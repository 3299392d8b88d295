// Package redis persists records as JSON strings under kyc:<kind>:<id>
// keys. Scan walks the keyspace with SCAN MATCH, so it is finite and
// restartable but unordered.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"kycledger/internal/ledger/models"
	"kycledger/internal/ledger/store"
	"kycledger/pkg/domain"
	"kycledger/pkg/platform/sentinel"
)

const keyPrefix = "kyc:"

// Store is a Redis-backed record store for deployments that already run
// Redis and do not need relational durability.
type Store struct {
	client *redis.Client
	codec  models.Codec
}

func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Connect opens a client for the given URL and verifies connectivity.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func recordKey(kind domain.Kind, id string) string {
	return keyPrefix + kind.String() + ":" + id
}

func (s *Store) Get(ctx context.Context, kind domain.Kind, id string) (models.Record, error) {
	body, err := s.client.Get(ctx, recordKey(kind, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s/%s: %w", kind, id, err)
	}
	return s.codec.Decode(kind, body)
}

func (s *Store) Put(ctx context.Context, rec models.Record) error {
	body, err := s.codec.Encode(rec)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, recordKey(rec.Kind(), rec.ID()), body, 0).Err(); err != nil {
		return fmt.Errorf("put record %s/%s: %w", rec.Kind(), rec.ID(), err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, kind domain.Kind, id string) error {
	removed, err := s.client.Del(ctx, recordKey(kind, id)).Result()
	if err != nil {
		return fmt.Errorf("delete record %s/%s: %w", kind, id, err)
	}
	if removed == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) Scan(ctx context.Context, kind domain.Kind) ([]models.Record, error) {
	var (
		out    []models.Record
		cursor uint64
	)
	pattern := recordKey(kind, "*")
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan records of kind %s: %w", kind, err)
		}
		for _, key := range keys {
			body, err := s.client.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				// Deleted between SCAN and GET; skip.
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("scan get %s: %w", key, err)
			}
			rec, err := s.codec.Decode(kind, body)
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
		}
		cursor = next
		if cursor == 0 {
			return out, nil
		}
	}
}

// ApplyBatch groups staged writes into one MULTI/EXEC pipeline. Redis applies
// the queued commands atomically, so readers never observe a partial commit.
func (s *Store) ApplyBatch(ctx context.Context, puts []models.Record, deletes []store.Key) error {
	pipe := s.client.TxPipeline()
	for _, rec := range puts {
		body, err := s.codec.Encode(rec)
		if err != nil {
			return err
		}
		pipe.Set(ctx, recordKey(rec.Kind(), rec.ID()), body, 0)
	}
	for _, key := range deletes {
		pipe.Del(ctx, recordKey(key.Kind, key.ID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("apply batch: %w", err)
	}
	return nil
}

// ParseKey splits a raw redis key back into its store key, used by
// operational tooling when inspecting the keyspace.
func ParseKey(raw string) (store.Key, bool) {
	rest, ok := strings.CutPrefix(raw, keyPrefix)
	if !ok {
		return store.Key{}, false
	}
	kindStr, id, ok := strings.Cut(rest, ":")
	if !ok || id == "" {
		return store.Key{}, false
	}
	kind, err := domain.ParseKind(kindStr)
	if err != nil {
		return store.Key{}, false
	}
	return store.Key{Kind: kind, ID: id}, true
}
