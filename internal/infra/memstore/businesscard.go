package memstore

import (
	"context"
	"sort"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
)

type BusinessCardStore struct {
	b *Backend
}

func (s *BusinessCardStore) AddListener(l domain.BusinessCardListener) {
	s.b.listeners.AddBusinessCardListener(l)
}

func (s *BusinessCardStore) Get(ctx context.Context, id smp.Identifier) (*domain.BusinessCard, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	bc, ok := s.b.cards[id.Canonical()]
	if !ok {
		return nil, nil
	}
	bc = bc.Clone()
	return &bc, nil
}

func (s *BusinessCardStore) List(ctx context.Context) ([]domain.BusinessCard, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	out := make([]domain.BusinessCard, 0, len(s.b.cards))
	for _, bc := range s.b.cards {
		out = append(out, bc.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ServiceGroupID.URIEncoded() < out[j].ServiceGroupID.URIEncoded()
	})
	return out, nil
}

func (s *BusinessCardStore) put(ctx context.Context, bc domain.BusinessCard, create bool) (domain.BusinessCard, error) {
	bc = bc.Clone()
	bc.ServiceGroupID = bc.ServiceGroupID.Canonical()
	id := bc.ServiceGroupID

	err := s.b.listeners.Commit(func() error {
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		if _, ok := s.b.groups[id]; !ok {
			return domain.NotFound("service group " + id.URIEncoded())
		}
		_, exists := s.b.cards[id]
		if create && exists {
			return domain.Conflict("business card " + id.URIEncoded())
		}
		if !create && !exists {
			return domain.NotFound("business card " + id.URIEncoded())
		}
		s.b.cards[id] = bc
		return nil
	}, func() {
		s.b.listeners.BusinessCardCreatedOrUpdated(ctx, bc.Clone())
	})
	return bc, err
}

func (s *BusinessCardStore) Create(ctx context.Context, bc domain.BusinessCard) (domain.BusinessCard, error) {
	return s.put(ctx, bc, true)
}

func (s *BusinessCardStore) Update(ctx context.Context, bc domain.BusinessCard) (domain.BusinessCard, error) {
	return s.put(ctx, bc, false)
}

func (s *BusinessCardStore) Delete(ctx context.Context, id smp.Identifier) (domain.Change, error) {
	id = id.Canonical()
	change := domain.Unchanged
	err := s.b.listeners.Commit(func() error {
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		if _, ok := s.b.cards[id]; ok {
			delete(s.b.cards, id)
			change = domain.Changed
		}
		return nil
	}, func() {
		if change.IsChanged() {
			s.b.listeners.BusinessCardDeleted(ctx, id)
		}
	})
	return change, err
}
