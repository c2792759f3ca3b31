package identity

import (
	"context"
	"strings"
	"sync"
)

// Store persists users. User names are unique case-insensitively.
type Store interface {
	Create(ctx context.Context, u User) error
	ByID(ctx context.Context, id string) (User, error)
	ByUserName(ctx context.Context, userName string) (User, error)
	Update(ctx context.Context, u User) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore is an in-process Store. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]User
	byName map[string]string // normalized name -> id
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]User), byName: make(map[string]string)}
}

func normalize(name string) string { return strings.ToUpper(strings.TrimSpace(name)) }

func equalFold(a, b string) bool { return strings.EqualFold(a, b) }

func (s *MemoryStore) Create(ctx context.Context, u User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := normalize(u.UserName)
	if _, ok := s.byName[n]; ok {
		return ErrDuplicateUser
	}
	s.byID[u.ID] = u.clone()
	s.byName[n] = u.ID
	return nil
}

func (s *MemoryStore) ByID(ctx context.Context, id string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u.clone(), nil
}

func (s *MemoryStore) ByUserName(ctx context.Context, userName string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[normalize(userName)]
	if !ok {
		return User{}, ErrNotFound
	}
	return s.byID[id].clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, u User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.byID[u.ID]
	if !ok {
		return ErrNotFound
	}
	if on, nn := normalize(old.UserName), normalize(u.UserName); on != nn {
		if _, taken := s.byName[nn]; taken {
			return ErrDuplicateUser
		}
		delete(s.byName, on)
		s.byName[nn] = u.ID
	}
	s.byID[u.ID] = u.clone()
	return nil
}

// Delete removes the user; deleting an unknown id is not an error.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		delete(s.byName, normalize(u.UserName))
		delete(s.byID, id)
	}
	return nil
}
