// Package memory provides the in-memory record store used by tests and
// single-process deployments. It intentionally favors clarity over
// performance.
package memory

import (
	"context"
	"sync"

	"kycledger/internal/ledger/models"
	"kycledger/internal/ledger/store"
	"kycledger/pkg/domain"
	"kycledger/pkg/platform/sentinel"
)

// Store keeps records in a map per kind. Records are value types, so every
// read hands back a snapshot; callers never share mutable state with the
// store.
type Store struct {
	mu      sync.RWMutex
	records map[domain.Kind]map[string]models.Record
}

func New() *Store {
	return &Store{records: make(map[domain.Kind]map[string]models.Record)}
}

func (s *Store) Get(_ context.Context, kind domain.Kind, id string) (models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[kind][id]; ok {
		return rec, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *Store) Put(_ context.Context, rec models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(rec)
	return nil
}

func (s *Store) Delete(_ context.Context, kind domain.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[kind][id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records[kind], id)
	return nil
}

func (s *Store) Scan(_ context.Context, kind domain.Kind) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Record, 0, len(s.records[kind]))
	for _, rec := range s.records[kind] {
		out = append(out, rec)
	}
	return out, nil
}

// ApplyBatch commits a group of writes under one lock acquisition so readers
// never observe a half-applied transaction.
func (s *Store) ApplyBatch(_ context.Context, puts []models.Record, deletes []store.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range puts {
		s.put(rec)
	}
	for _, key := range deletes {
		delete(s.records[key.Kind], key.ID)
	}
	return nil
}

func (s *Store) put(rec models.Record) {
	kind := rec.Kind()
	if s.records[kind] == nil {
		s.records[kind] = make(map[string]models.Record)
	}
	s.records[kind][rec.ID()] = rec
}
