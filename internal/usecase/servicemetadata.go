package usecase

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/config"
	"github.com/totegamma/smp/internal/domain"
)

type ServiceMetadataUsecase struct {
	stores Stores
	conf   *config.Holder
}

func NewServiceMetadataUsecase(stores Stores, conf *config.Holder) *ServiceMetadataUsecase {
	return &ServiceMetadataUsecase{
		stores: stores,
		conf:   conf,
	}
}

// Get returns the service information or the redirect stored under key.
func (uc *ServiceMetadataUsecase) Get(ctx context.Context, key domain.ServiceMetadataKey) (domain.ServiceMetadata, error) {
	ctx, span := tracer.Start(ctx, "Usecase.ServiceMetadata.Get")
	defer span.End()
	span.SetAttributes(attribute.String("key", key.String()))

	si, err := uc.stores.ServiceInformation.Get(ctx, key)
	if err != nil {
		return domain.ServiceMetadata{}, domain.StorageFailure(err)
	}
	if si != nil {
		return domain.ServiceMetadata{Information: si}, nil
	}

	r, err := uc.stores.Redirects.Get(ctx, key)
	if err != nil {
		return domain.ServiceMetadata{}, domain.StorageFailure(err)
	}
	if r != nil {
		return domain.ServiceMetadata{Redirect: r}, nil
	}

	return domain.ServiceMetadata{}, domain.NotFound("service metadata " + key.String())
}

func (uc *ServiceMetadataUsecase) normalizeKey(key domain.ServiceMetadataKey) (domain.ServiceMetadataKey, error) {
	f := uc.conf.Current().Identifiers()
	pid, err := validateIdentifier(f, smp.KindParticipant, key.ServiceGroupID)
	if err != nil {
		return key, err
	}
	did, err := validateIdentifier(f, smp.KindDocumentType, key.DocumentTypeID)
	if err != nil {
		return key, err
	}
	return domain.ServiceMetadataKey{ServiceGroupID: pid, DocumentTypeID: did}, nil
}

// Save stores service information or a redirect for a service group owned
// by user. It reports whether the entry was created.
func (uc *ServiceMetadataUsecase) Save(ctx context.Context, user domain.User, sm domain.ServiceMetadata) (bool, error) {
	ctx, span := tracer.Start(ctx, "Usecase.ServiceMetadata.Save")
	defer span.End()

	if (sm.Information == nil) == (sm.Redirect == nil) {
		return false, domain.MalformedPayload("service metadata must hold either service information or a redirect", nil)
	}

	key, err := uc.normalizeKey(sm.Key())
	if err != nil {
		return false, err
	}
	span.SetAttributes(attribute.String("key", key.String()))

	if _, err := requireOwnedGroup(ctx, uc.stores.ServiceGroups, user, key.ServiceGroupID); err != nil {
		return false, err
	}

	if sm.Redirect != nil {
		r := *sm.Redirect
		r.ServiceGroupID = key.ServiceGroupID
		r.DocumentTypeID = key.DocumentTypeID
		if err := validatePayload(r); err != nil {
			return false, err
		}
		return uc.saveRedirect(ctx, r)
	}

	si := sm.Information.Clone()
	si.ServiceGroupID = key.ServiceGroupID
	si.DocumentTypeID = key.DocumentTypeID
	f := uc.conf.Current().Identifiers()
	for i, p := range si.Processes {
		pid, err := validateIdentifier(f, smp.KindProcess, p.ProcessID)
		if err != nil {
			return false, err
		}
		si.Processes[i].ProcessID = pid
	}
	if err := validatePayload(si); err != nil {
		return false, err
	}
	return uc.saveInformation(ctx, si)
}

func (uc *ServiceMetadataUsecase) saveInformation(ctx context.Context, si domain.ServiceInformation) (bool, error) {
	existing, err := uc.stores.ServiceInformation.Get(ctx, si.Key())
	if err != nil {
		return false, domain.StorageFailure(err)
	}
	if existing != nil {
		_, err = uc.stores.ServiceInformation.Update(ctx, si)
		return false, domain.StorageFailure(err)
	}

	_, err = uc.stores.ServiceInformation.Create(ctx, si)
	if errors.Is(err, domain.ErrConflict) {
		_, err = uc.stores.ServiceInformation.Update(ctx, si)
		return false, domain.StorageFailure(err)
	}
	if err != nil {
		return false, domain.StorageFailure(err)
	}
	return true, nil
}

func (uc *ServiceMetadataUsecase) saveRedirect(ctx context.Context, r domain.Redirect) (bool, error) {
	existing, err := uc.stores.Redirects.Get(ctx, r.Key())
	if err != nil {
		return false, domain.StorageFailure(err)
	}
	if existing != nil {
		_, err = uc.stores.Redirects.Update(ctx, r)
		return false, domain.StorageFailure(err)
	}

	_, err = uc.stores.Redirects.Create(ctx, r)
	if errors.Is(err, domain.ErrConflict) {
		_, err = uc.stores.Redirects.Update(ctx, r)
		return false, domain.StorageFailure(err)
	}
	if err != nil {
		return false, domain.StorageFailure(err)
	}
	return true, nil
}

// Delete removes the service information or redirect stored under key.
func (uc *ServiceMetadataUsecase) Delete(ctx context.Context, user domain.User, key domain.ServiceMetadataKey) error {
	ctx, span := tracer.Start(ctx, "Usecase.ServiceMetadata.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("key", key.String()))

	if _, err := requireOwnedGroup(ctx, uc.stores.ServiceGroups, user, key.ServiceGroupID); err != nil {
		return err
	}

	change, err := uc.stores.ServiceInformation.Delete(ctx, key)
	if err != nil {
		return domain.StorageFailure(err)
	}
	if change.IsChanged() {
		return nil
	}

	change, err = uc.stores.Redirects.Delete(ctx, key)
	if err != nil {
		return domain.StorageFailure(err)
	}
	if !change.IsChanged() {
		return domain.NotFound("service metadata " + key.String())
	}
	return nil
}
