package idempotency

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

var (
	_ Store   = (*MemoryStore)(nil)
	_ Sweeper = (*MemoryStore)(nil)
)

type memoryEntry struct {
	record    Record
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryStore keeps records in a map. It provides mutual exclusion only
// between callers sharing the same process.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	opts    storeOptions
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		opts:    newStoreOptions(opts),
	}
}

func openMemory(_ context.Context, _ Config, opts []StoreOption) (Store, error) {
	return NewMemoryStore(opts...), nil
}

func (s *MemoryStore) Exists(ctx context.Context, key, appID string) (Claim, error) {
	if err := ctx.Err(); err != nil {
		return Claim{}, connectivityError(BackendMemory, "exists", err)
	}

	fullKey := CombineKey(key, appID)
	now := s.opts.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[fullKey]; ok && !entry.expired(now) {
		return existingClaim(entry.record), nil
	}

	s.entries[fullKey] = memoryEntry{
		record:    NewInProgress(),
		expiresAt: expiryFrom(now, s.opts.defaultTTL),
	}
	s.opts.logger.Debug("idempotency key claimed", slog.String("backend", string(BackendMemory)), slog.String("key", fullKey))

	return createdClaim(), nil
}

func (s *MemoryStore) Put(ctx context.Context, key, appID string, record Record, ttl time.Duration) error {
	if err := validateRecord(BackendMemory, "put", record); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return connectivityError(BackendMemory, "put", err)
	}

	now := s.opts.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[CombineKey(key, appID)] = memoryEntry{
		record:    record,
		expiresAt: expiryFrom(now, s.opts.effectiveTTL(ttl)),
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key, appID string) error {
	if err := ctx.Err(); err != nil {
		return connectivityError(BackendMemory, "delete", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, CombineKey(key, appID))
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (s *MemoryStore) Sweep(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, connectivityError(BackendMemory, "sweep", err)
	}
	now := s.opts.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if entry.expired(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error {
	return nil
}

func expiryFrom(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
