package repo

import (
	"bytes"
	"context"
	"sync"
	"time"

	"goscore/internal/domain/score"
	errs "goscore/internal/errors"
)

type snapshotEntry struct {
	data    []byte
	expires time.Time
}

// SnapshotMapStorage keeps snapshots in memory for local runs and tests.
type SnapshotMapStorage struct {
	mu        sync.Mutex
	snapshots map[string]snapshotEntry
	now       func() time.Time
}

func NewSnapshotMapStorage() *SnapshotMapStorage {
	return &SnapshotMapStorage{
		snapshots: make(map[string]snapshotEntry),
		now:       time.Now,
	}
}

// get must be called with mu held. Expired entries are dropped on access.
func (s *SnapshotMapStorage) get(key string) (snapshotEntry, bool) {
	e, ok := s.snapshots[key]
	if !ok {
		return snapshotEntry{}, false
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		delete(s.snapshots, key)
		return snapshotEntry{}, false
	}
	return e, true
}

func (s *SnapshotMapStorage) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}

func (s *SnapshotMapStorage) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.get(key)
	return ok, nil
}

func (s *SnapshotMapStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.get(key)
	if !ok {
		return nil, errs.ErrSnapshotNotFound
	}
	return bytes.Clone(e.data), nil
}

func (s *SnapshotMapStorage) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[key] = snapshotEntry{data: bytes.Clone(data), expires: s.expiry(ttl)}
	return nil
}

func (s *SnapshotMapStorage) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.get(key); ok {
		e.expires = s.expiry(ttl)
		s.snapshots[key] = e
	}
	return nil
}

func (s *SnapshotMapStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, key)
	return nil
}

func (s *SnapshotMapStorage) CompareAndSwap(_ context.Context, key string, old, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, _ := s.get(key)
	if !bytes.Equal(e.data, old) {
		return errs.ErrSnapshotConflict
	}
	s.snapshots[key] = snapshotEntry{data: bytes.Clone(data), expires: s.expiry(ttl)}
	return nil
}

type ResultMapStorage struct {
	mu      sync.RWMutex
	results map[string]score.Result
}

func NewResultMapStorage() *ResultMapStorage {
	return &ResultMapStorage{results: make(map[string]score.Result)}
}

func (r *ResultMapStorage) SaveResult(_ context.Context, result score.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[result.SessionKey] = result
	return nil
}

func (r *ResultMapStorage) GetResult(_ context.Context, key string) (score.Result, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.results[key]
	return res, ok, nil
}
