// Package memstore keeps all SMP data in process memory.
package memstore

import (
	"sync"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
	"github.com/totegamma/smp/internal/usecase"
)

// Backend holds the maps shared by the stores. A single lock guards all of
// them so that cascades and the service information / redirect exclusivity
// check are atomic.
type Backend struct {
	mu        sync.RWMutex
	listeners *domain.Listeners

	groups    map[smp.Identifier]domain.ServiceGroup
	infos     map[domain.ServiceMetadataKey]domain.ServiceInformation
	redirects map[domain.ServiceMetadataKey]domain.Redirect
	cards     map[smp.Identifier]domain.BusinessCard
	users     map[string]domain.User
	faults    []domain.ReconciliationFault
}

func NewBackend() *Backend {
	return &Backend{
		listeners: domain.NewListeners(),
		groups:    make(map[smp.Identifier]domain.ServiceGroup),
		infos:     make(map[domain.ServiceMetadataKey]domain.ServiceInformation),
		redirects: make(map[domain.ServiceMetadataKey]domain.Redirect),
		cards:     make(map[smp.Identifier]domain.BusinessCard),
		users:     make(map[string]domain.User),
	}
}

// Stores returns the store set backed by b.
func (b *Backend) Stores() usecase.Stores {
	return usecase.Stores{
		ServiceGroups:      &ServiceGroupStore{b: b},
		ServiceInformation: &ServiceInformationStore{b: b},
		Redirects:          &RedirectStore{b: b},
		BusinessCards:      &BusinessCardStore{b: b},
		Users:              &UserStore{b: b},
		Faults:             &FaultStore{b: b},
	}
}
