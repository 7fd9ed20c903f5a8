package usecase

import (
	"context"
	"errors"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/config"
	"github.com/totegamma/smp/internal/domain"
)

type ServiceGroupUsecase struct {
	stores      Stores
	coordinator *RegistrationCoordinator
	conf        *config.Holder
}

func NewServiceGroupUsecase(stores Stores, coordinator *RegistrationCoordinator, conf *config.Holder) *ServiceGroupUsecase {
	return &ServiceGroupUsecase{
		stores:      stores,
		coordinator: coordinator,
		conf:        conf,
	}
}

// Get returns the service group and the document types it has metadata for.
func (uc *ServiceGroupUsecase) Get(ctx context.Context, id smp.Identifier) (domain.ServiceGroup, []smp.Identifier, error) {
	ctx, span := tracer.Start(ctx, "Usecase.ServiceGroup.Get")
	defer span.End()

	sg, err := uc.stores.ServiceGroups.Get(ctx, id)
	if err != nil {
		return domain.ServiceGroup{}, nil, domain.StorageFailure(err)
	}
	if sg == nil {
		return domain.ServiceGroup{}, nil, domain.NotFound("service group " + id.URIEncoded())
	}

	docs, err := uc.documentTypes(ctx, sg.ID)
	if err != nil {
		return domain.ServiceGroup{}, nil, err
	}
	return *sg, docs, nil
}

func (uc *ServiceGroupUsecase) documentTypes(ctx context.Context, id smp.Identifier) ([]smp.Identifier, error) {
	infos, err := uc.stores.ServiceInformation.List(ctx, id)
	if err != nil {
		return nil, domain.StorageFailure(err)
	}
	redirects, err := uc.stores.Redirects.List(ctx, id)
	if err != nil {
		return nil, domain.StorageFailure(err)
	}

	docs := make([]smp.Identifier, 0, len(infos)+len(redirects))
	for _, si := range infos {
		docs = append(docs, si.DocumentTypeID)
	}
	for _, r := range redirects {
		docs = append(docs, r.DocumentTypeID)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].URIEncoded() < docs[j].URIEncoded()
	})
	return docs, nil
}

// Save creates the service group for user or updates the extension of an
// existing one. It reports whether the group was created.
func (uc *ServiceGroupUsecase) Save(ctx context.Context, user domain.User, sg domain.ServiceGroup) (bool, error) {
	ctx, span := tracer.Start(ctx, "Usecase.ServiceGroup.Save")
	defer span.End()

	id, err := validateIdentifier(uc.conf.Current().Identifiers(), smp.KindParticipant, sg.ID)
	if err != nil {
		return false, err
	}
	span.SetAttributes(attribute.String("participant", id.URIEncoded()))
	sg.ID = id
	sg.OwnerID = user.ID

	existing, err := uc.stores.ServiceGroups.Get(ctx, id)
	if err != nil {
		return false, domain.StorageFailure(err)
	}

	if existing == nil {
		err = uc.coordinator.Create(ctx, id, func(ctx context.Context) error {
			_, err := uc.stores.ServiceGroups.Create(ctx, sg)
			return err
		})
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return false, domain.StorageFailure(err)
		}

		// lost a concurrent create
		existing, err = uc.stores.ServiceGroups.Get(ctx, id)
		if err != nil {
			return false, domain.StorageFailure(err)
		}
		if existing == nil {
			return false, domain.Conflict("service group " + id.URIEncoded())
		}
	}

	if existing.OwnerID != user.ID {
		return false, domain.NotOwner("service group " + id.URIEncoded())
	}
	if existing.Extension == sg.Extension {
		return false, nil
	}

	updated := *existing
	updated.Extension = sg.Extension
	if _, err := uc.stores.ServiceGroups.Update(ctx, updated); err != nil {
		return false, domain.StorageFailure(err)
	}
	return false, nil
}

func (uc *ServiceGroupUsecase) Delete(ctx context.Context, user domain.User, id smp.Identifier) error {
	ctx, span := tracer.Start(ctx, "Usecase.ServiceGroup.Delete")
	defer span.End()

	if _, err := requireOwnedGroup(ctx, uc.stores.ServiceGroups, user, id); err != nil {
		return err
	}

	change, err := uc.coordinator.Delete(ctx, id, func(ctx context.Context) (domain.Change, error) {
		return uc.stores.ServiceGroups.Delete(ctx, id)
	})
	if err != nil {
		return domain.StorageFailure(err)
	}
	if !change.IsChanged() {
		return domain.NotFound("service group " + id.URIEncoded())
	}
	return nil
}

// ListOwnedBy lists the groups of ownerID; users may only list their own.
func (uc *ServiceGroupUsecase) ListOwnedBy(ctx context.Context, user domain.User, ownerID string) ([]domain.ServiceGroup, error) {
	if user.ID != ownerID {
		return nil, domain.NotOwner("service group list of " + ownerID)
	}
	groups, err := uc.stores.ServiceGroups.List(ctx, domain.ServiceGroupFilter{OwnerID: ownerID})
	if err != nil {
		return nil, domain.StorageFailure(err)
	}
	return groups, nil
}

func (uc *ServiceGroupUsecase) Complete(ctx context.Context, id smp.Identifier) (domain.CompleteServiceGroup, error) {
	ctx, span := tracer.Start(ctx, "Usecase.ServiceGroup.Complete")
	defer span.End()

	sg, err := uc.stores.ServiceGroups.Get(ctx, id)
	if err != nil {
		return domain.CompleteServiceGroup{}, domain.StorageFailure(err)
	}
	if sg == nil {
		return domain.CompleteServiceGroup{}, domain.NotFound("service group " + id.URIEncoded())
	}

	infos, err := uc.stores.ServiceInformation.List(ctx, sg.ID)
	if err != nil {
		return domain.CompleteServiceGroup{}, domain.StorageFailure(err)
	}
	redirects, err := uc.stores.Redirects.List(ctx, sg.ID)
	if err != nil {
		return domain.CompleteServiceGroup{}, domain.StorageFailure(err)
	}

	out := domain.CompleteServiceGroup{ServiceGroup: *sg}
	for i := range infos {
		out.Metadata = append(out.Metadata, domain.ServiceMetadata{Information: &infos[i]})
	}
	for i := range redirects {
		out.Metadata = append(out.Metadata, domain.ServiceMetadata{Redirect: &redirects[i]})
	}
	sort.Slice(out.Metadata, func(i, j int) bool {
		return out.Metadata[i].Key().DocumentTypeID.URIEncoded() < out.Metadata[j].Key().DocumentTypeID.URIEncoded()
	})
	return out, nil
}

// Reassign moves a service group to another owner. It is an administrative
// operation and not reachable through the REST protocol.
func (uc *ServiceGroupUsecase) Reassign(ctx context.Context, id smp.Identifier, ownerID string) error {
	owner, err := uc.stores.Users.Get(ctx, ownerID)
	if err != nil {
		return domain.StorageFailure(err)
	}
	if owner == nil {
		return domain.NotFound("user " + ownerID)
	}

	sg, err := uc.stores.ServiceGroups.Get(ctx, id)
	if err != nil {
		return domain.StorageFailure(err)
	}
	if sg == nil {
		return domain.NotFound("service group " + id.URIEncoded())
	}
	if sg.OwnerID == ownerID {
		return nil
	}

	updated := *sg
	updated.OwnerID = ownerID
	if _, err := uc.stores.ServiceGroups.Update(ctx, updated); err != nil {
		return domain.StorageFailure(err)
	}
	return nil
}
