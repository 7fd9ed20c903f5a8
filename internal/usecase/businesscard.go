package usecase

import (
	"context"
	"errors"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/config"
	"github.com/totegamma/smp/internal/domain"
)

type BusinessCardUsecase struct {
	stores Stores
	conf   *config.Holder
}

func NewBusinessCardUsecase(stores Stores, conf *config.Holder) *BusinessCardUsecase {
	return &BusinessCardUsecase{
		stores: stores,
		conf:   conf,
	}
}

func (uc *BusinessCardUsecase) Get(ctx context.Context, id smp.Identifier) (domain.BusinessCard, error) {
	ctx, span := tracer.Start(ctx, "Usecase.BusinessCard.Get")
	defer span.End()

	bc, err := uc.stores.BusinessCards.Get(ctx, id)
	if err != nil {
		return domain.BusinessCard{}, domain.StorageFailure(err)
	}
	if bc == nil {
		return domain.BusinessCard{}, domain.NotFound("business card " + id.URIEncoded())
	}
	return *bc, nil
}

// Save stores the business card of a service group owned by user and
// reports whether it was created.
func (uc *BusinessCardUsecase) Save(ctx context.Context, user domain.User, bc domain.BusinessCard) (bool, error) {
	ctx, span := tracer.Start(ctx, "Usecase.BusinessCard.Save")
	defer span.End()

	id, err := validateIdentifier(uc.conf.Current().Identifiers(), smp.KindParticipant, bc.ServiceGroupID)
	if err != nil {
		return false, err
	}
	bc = bc.Clone()
	bc.ServiceGroupID = id
	if len(bc.Entities) == 0 {
		return false, domain.MalformedPayload("business card has no entities", nil)
	}
	if err := validatePayload(bc); err != nil {
		return false, err
	}

	if _, err := requireOwnedGroup(ctx, uc.stores.ServiceGroups, user, id); err != nil {
		return false, err
	}

	existing, err := uc.stores.BusinessCards.Get(ctx, id)
	if err != nil {
		return false, domain.StorageFailure(err)
	}
	if existing != nil {
		_, err = uc.stores.BusinessCards.Update(ctx, bc)
		return false, domain.StorageFailure(err)
	}

	_, err = uc.stores.BusinessCards.Create(ctx, bc)
	if errors.Is(err, domain.ErrConflict) {
		_, err = uc.stores.BusinessCards.Update(ctx, bc)
		return false, domain.StorageFailure(err)
	}
	if err != nil {
		return false, domain.StorageFailure(err)
	}
	return true, nil
}

func (uc *BusinessCardUsecase) Delete(ctx context.Context, user domain.User, id smp.Identifier) error {
	ctx, span := tracer.Start(ctx, "Usecase.BusinessCard.Delete")
	defer span.End()

	if _, err := requireOwnedGroup(ctx, uc.stores.ServiceGroups, user, id); err != nil {
		return err
	}

	change, err := uc.stores.BusinessCards.Delete(ctx, id)
	if err != nil {
		return domain.StorageFailure(err)
	}
	if !change.IsChanged() {
		return domain.NotFound("business card " + id.URIEncoded())
	}
	return nil
}
