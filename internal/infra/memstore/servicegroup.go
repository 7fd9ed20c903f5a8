package memstore

import (
	"context"
	"sort"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
)

type ServiceGroupStore struct {
	b *Backend
}

func (s *ServiceGroupStore) AddListener(l domain.ServiceGroupListener) {
	s.b.listeners.AddServiceGroupListener(l)
}

func (s *ServiceGroupStore) Get(ctx context.Context, id smp.Identifier) (*domain.ServiceGroup, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	sg, ok := s.b.groups[id.Canonical()]
	if !ok {
		return nil, nil
	}
	return &sg, nil
}

func (s *ServiceGroupStore) List(ctx context.Context, filter domain.ServiceGroupFilter) ([]domain.ServiceGroup, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	out := make([]domain.ServiceGroup, 0)
	for _, sg := range s.b.groups {
		if filter.Match(sg) {
			out = append(out, sg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.URIEncoded() < out[j].ID.URIEncoded()
	})
	return out, nil
}

func (s *ServiceGroupStore) Create(ctx context.Context, sg domain.ServiceGroup) (domain.ServiceGroup, error) {
	sg.ID = sg.ID.Canonical()
	err := s.b.listeners.Commit(func() error {
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		if _, ok := s.b.groups[sg.ID]; ok {
			return domain.Conflict("service group " + sg.ID.URIEncoded())
		}
		s.b.groups[sg.ID] = sg
		return nil
	}, func() {
		s.b.listeners.ServiceGroupCreatedOrUpdated(ctx, sg)
	})
	return sg, err
}

func (s *ServiceGroupStore) Update(ctx context.Context, sg domain.ServiceGroup) (domain.ServiceGroup, error) {
	sg.ID = sg.ID.Canonical()
	err := s.b.listeners.Commit(func() error {
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		if _, ok := s.b.groups[sg.ID]; !ok {
			return domain.NotFound("service group " + sg.ID.URIEncoded())
		}
		s.b.groups[sg.ID] = sg
		return nil
	}, func() {
		s.b.listeners.ServiceGroupCreatedOrUpdated(ctx, sg)
	})
	return sg, err
}

// Delete removes the group together with its metadata and business card.
// Listeners hear about each removed child before the group itself.
func (s *ServiceGroupStore) Delete(ctx context.Context, id smp.Identifier) (domain.Change, error) {
	id = id.Canonical()
	change := domain.Unchanged
	var infos, redirects []domain.ServiceMetadataKey
	var hadCard bool
	err := s.b.listeners.Commit(func() error {
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		if _, ok := s.b.groups[id]; !ok {
			return nil
		}
		for key := range s.b.infos {
			if key.ServiceGroupID == id {
				infos = append(infos, key)
				delete(s.b.infos, key)
			}
		}
		for key := range s.b.redirects {
			if key.ServiceGroupID == id {
				redirects = append(redirects, key)
				delete(s.b.redirects, key)
			}
		}
		_, hadCard = s.b.cards[id]
		delete(s.b.cards, id)
		delete(s.b.groups, id)
		change = domain.Changed
		return nil
	}, func() {
		if !change.IsChanged() {
			return
		}
		for _, key := range infos {
			s.b.listeners.ServiceInformationDeleted(ctx, key)
		}
		for _, key := range redirects {
			s.b.listeners.RedirectDeleted(ctx, key)
		}
		if hadCard {
			s.b.listeners.BusinessCardDeleted(ctx, id)
		}
		s.b.listeners.ServiceGroupDeleted(ctx, id)
	})
	return change, err
}
