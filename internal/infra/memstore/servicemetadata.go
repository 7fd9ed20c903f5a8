package memstore

import (
	"context"
	"sort"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
)

type ServiceInformationStore struct {
	b *Backend
}

func (s *ServiceInformationStore) AddListener(l domain.ServiceInformationListener) {
	s.b.listeners.AddServiceInformationListener(l)
}

func (s *ServiceInformationStore) Get(ctx context.Context, key domain.ServiceMetadataKey) (*domain.ServiceInformation, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	si, ok := s.b.infos[key.Canonical()]
	if !ok {
		return nil, nil
	}
	si = si.Clone()
	return &si, nil
}

func (s *ServiceInformationStore) List(ctx context.Context, serviceGroupID smp.Identifier) ([]domain.ServiceInformation, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	id := serviceGroupID.Canonical()
	out := make([]domain.ServiceInformation, 0)
	for key, si := range s.b.infos {
		if key.ServiceGroupID == id {
			out = append(out, si.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DocumentTypeID.URIEncoded() < out[j].DocumentTypeID.URIEncoded()
	})
	return out, nil
}

func (s *ServiceInformationStore) put(ctx context.Context, si domain.ServiceInformation, create bool) (domain.ServiceInformation, error) {
	si = si.Clone()
	si.ServiceGroupID = si.ServiceGroupID.Canonical()
	si.DocumentTypeID = si.DocumentTypeID.Canonical()
	key := si.Key()

	err := s.b.listeners.Commit(func() error {
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		if _, ok := s.b.groups[key.ServiceGroupID]; !ok {
			return domain.NotFound("service group " + key.ServiceGroupID.URIEncoded())
		}
		if _, ok := s.b.redirects[key]; ok {
			return domain.ConflictingResourceType("a redirect already exists for " + key.String())
		}
		_, exists := s.b.infos[key]
		if create && exists {
			return domain.Conflict("service information " + key.String())
		}
		if !create && !exists {
			return domain.NotFound("service information " + key.String())
		}
		s.b.infos[key] = si
		return nil
	}, func() {
		s.b.listeners.ServiceInformationCreatedOrUpdated(ctx, si.Clone())
	})
	return si, err
}

func (s *ServiceInformationStore) Create(ctx context.Context, si domain.ServiceInformation) (domain.ServiceInformation, error) {
	return s.put(ctx, si, true)
}

func (s *ServiceInformationStore) Update(ctx context.Context, si domain.ServiceInformation) (domain.ServiceInformation, error) {
	return s.put(ctx, si, false)
}

func (s *ServiceInformationStore) Delete(ctx context.Context, key domain.ServiceMetadataKey) (domain.Change, error) {
	key = key.Canonical()
	change := domain.Unchanged
	err := s.b.listeners.Commit(func() error {
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		if _, ok := s.b.infos[key]; ok {
			delete(s.b.infos, key)
			change = domain.Changed
		}
		return nil
	}, func() {
		if change.IsChanged() {
			s.b.listeners.ServiceInformationDeleted(ctx, key)
		}
	})
	return change, err
}

type RedirectStore struct {
	b *Backend
}

func (s *RedirectStore) AddListener(l domain.RedirectListener) {
	s.b.listeners.AddRedirectListener(l)
}

func (s *RedirectStore) Get(ctx context.Context, key domain.ServiceMetadataKey) (*domain.Redirect, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	r, ok := s.b.redirects[key.Canonical()]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *RedirectStore) List(ctx context.Context, serviceGroupID smp.Identifier) ([]domain.Redirect, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	id := serviceGroupID.Canonical()
	out := make([]domain.Redirect, 0)
	for key, r := range s.b.redirects {
		if key.ServiceGroupID == id {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DocumentTypeID.URIEncoded() < out[j].DocumentTypeID.URIEncoded()
	})
	return out, nil
}

func (s *RedirectStore) put(ctx context.Context, r domain.Redirect, create bool) (domain.Redirect, error) {
	r.ServiceGroupID = r.ServiceGroupID.Canonical()
	r.DocumentTypeID = r.DocumentTypeID.Canonical()
	key := r.Key()

	err := s.b.listeners.Commit(func() error {
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		if _, ok := s.b.groups[key.ServiceGroupID]; !ok {
			return domain.NotFound("service group " + key.ServiceGroupID.URIEncoded())
		}
		if _, ok := s.b.infos[key]; ok {
			return domain.ConflictingResourceType("service information already exists for " + key.String())
		}
		_, exists := s.b.redirects[key]
		if create && exists {
			return domain.Conflict("redirect " + key.String())
		}
		if !create && !exists {
			return domain.NotFound("redirect " + key.String())
		}
		s.b.redirects[key] = r
		return nil
	}, func() {
		s.b.listeners.RedirectCreatedOrUpdated(ctx, r)
	})
	return r, err
}

func (s *RedirectStore) Create(ctx context.Context, r domain.Redirect) (domain.Redirect, error) {
	return s.put(ctx, r, true)
}

func (s *RedirectStore) Update(ctx context.Context, r domain.Redirect) (domain.Redirect, error) {
	return s.put(ctx, r, false)
}

func (s *RedirectStore) Delete(ctx context.Context, key domain.ServiceMetadataKey) (domain.Change, error) {
	key = key.Canonical()
	change := domain.Unchanged
	err := s.b.listeners.Commit(func() error {
		s.b.mu.Lock()
		defer s.b.mu.Unlock()
		if _, ok := s.b.redirects[key]; ok {
			delete(s.b.redirects, key)
			change = domain.Changed
		}
		return nil
	}, func() {
		if change.IsChanged() {
			s.b.listeners.RedirectDeleted(ctx, key)
		}
	})
	return change, err
}
