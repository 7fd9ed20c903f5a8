package memstore

import (
	"context"
	"time"

	"github.com/totegamma/smp/internal/domain"
)

type UserStore struct {
	b *Backend
}

func (s *UserStore) Get(ctx context.Context, id string) (*domain.User, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	u, ok := s.b.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *UserStore) Create(ctx context.Context, u domain.User) (domain.User, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if _, ok := s.b.users[u.ID]; ok {
		return u, domain.Conflict("user " + u.ID)
	}
	s.b.users[u.ID] = u
	return u, nil
}

func (s *UserStore) Update(ctx context.Context, u domain.User) (domain.User, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if _, ok := s.b.users[u.ID]; !ok {
		return u, domain.NotFound("user " + u.ID)
	}
	s.b.users[u.ID] = u
	return u, nil
}

type FaultStore struct {
	b *Backend
}

func (s *FaultStore) Record(ctx context.Context, f domain.ReconciliationFault) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if f.Time.IsZero() {
		f.Time = time.Now().UTC()
	}
	s.b.faults = append(s.b.faults, f)
	return nil
}

func (s *FaultStore) List(ctx context.Context) ([]domain.ReconciliationFault, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	return append([]domain.ReconciliationFault(nil), s.b.faults...), nil
}
