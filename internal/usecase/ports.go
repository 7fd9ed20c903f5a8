package usecase

import (
	"context"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
)

// ServiceGroupStore defines persistence for service groups. Get returns
// nil, nil when the group does not exist. Delete cascades to the group's
// service information, redirects and business card.
type ServiceGroupStore interface {
	Get(ctx context.Context, id smp.Identifier) (*domain.ServiceGroup, error)
	List(ctx context.Context, filter domain.ServiceGroupFilter) ([]domain.ServiceGroup, error)
	Create(ctx context.Context, sg domain.ServiceGroup) (domain.ServiceGroup, error)
	Update(ctx context.Context, sg domain.ServiceGroup) (domain.ServiceGroup, error)
	Delete(ctx context.Context, id smp.Identifier) (domain.Change, error)
	AddListener(l domain.ServiceGroupListener)
}

// ServiceInformationStore defines persistence for service information.
// Create fails with ErrConflictingResourceType while a redirect exists for
// the same key and with ErrNotFound when the service group is missing.
type ServiceInformationStore interface {
	Get(ctx context.Context, key domain.ServiceMetadataKey) (*domain.ServiceInformation, error)
	List(ctx context.Context, serviceGroupID smp.Identifier) ([]domain.ServiceInformation, error)
	Create(ctx context.Context, si domain.ServiceInformation) (domain.ServiceInformation, error)
	Update(ctx context.Context, si domain.ServiceInformation) (domain.ServiceInformation, error)
	Delete(ctx context.Context, key domain.ServiceMetadataKey) (domain.Change, error)
	AddListener(l domain.ServiceInformationListener)
}

// RedirectStore mirrors ServiceInformationStore for redirects.
type RedirectStore interface {
	Get(ctx context.Context, key domain.ServiceMetadataKey) (*domain.Redirect, error)
	List(ctx context.Context, serviceGroupID smp.Identifier) ([]domain.Redirect, error)
	Create(ctx context.Context, r domain.Redirect) (domain.Redirect, error)
	Update(ctx context.Context, r domain.Redirect) (domain.Redirect, error)
	Delete(ctx context.Context, key domain.ServiceMetadataKey) (domain.Change, error)
	AddListener(l domain.RedirectListener)
}

type BusinessCardStore interface {
	Get(ctx context.Context, id smp.Identifier) (*domain.BusinessCard, error)
	List(ctx context.Context) ([]domain.BusinessCard, error)
	Create(ctx context.Context, bc domain.BusinessCard) (domain.BusinessCard, error)
	Update(ctx context.Context, bc domain.BusinessCard) (domain.BusinessCard, error)
	Delete(ctx context.Context, id smp.Identifier) (domain.Change, error)
	AddListener(l domain.BusinessCardListener)
}

type UserStore interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, u domain.User) (domain.User, error)
	Update(ctx context.Context, u domain.User) (domain.User, error)
}

// FaultRecorder keeps reconciliation faults for operators.
type FaultRecorder interface {
	Record(ctx context.Context, f domain.ReconciliationFault) error
	List(ctx context.Context) ([]domain.ReconciliationFault, error)
}

// Stores is the set of stores of one storage backend.
type Stores struct {
	ServiceGroups      ServiceGroupStore
	ServiceInformation ServiceInformationStore
	Redirects          RedirectStore
	BusinessCards      BusinessCardStore
	Users              UserStore
	Faults             FaultRecorder
}

// Locator is the external Service Metadata Locator.
type Locator interface {
	Register(ctx context.Context, id smp.Identifier) error
	Deregister(ctx context.Context, id smp.Identifier) error
}
