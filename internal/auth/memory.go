package auth

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory IdentityStore used in tests and when the
// service runs without a database DSN. The single mutex makes each
// read-then-write sequence atomic, mirroring the uniqueness guarantee a
// relational store provides under concurrent registrations.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]Identity
	byEmail map[string]int64
	now     func() time.Time
}

// NewMemoryStore builds an empty in-memory identity store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:  1,
		byID:    make(map[int64]Identity),
		byEmail: make(map[string]int64),
		now:     time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, identity *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[identity.Email]; exists {
		return ErrDuplicateEmail
	}
	identity.ID = s.nextID
	s.nextID++
	now := s.now().UTC()
	identity.CreatedAt = now
	identity.UpdatedAt = now
	s.byID[identity.ID] = *identity
	s.byEmail[identity.Email] = identity.ID
	return nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	identity := s.byID[id]
	return &identity, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id int64) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &identity, nil
}

func (s *MemoryStore) UpdateRole(_ context.Context, id int64, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	identity.Role = role
	identity.UpdatedAt = s.now().UTC()
	s.byID[id] = identity
	return nil
}

var _ IdentityStore = (*MemoryStore)(nil)
