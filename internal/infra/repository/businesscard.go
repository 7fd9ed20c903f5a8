package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
	"github.com/totegamma/smp/internal/infra/database/models"
)

type BusinessCardRepository struct {
	db        *gorm.DB
	listeners *domain.Listeners
}

func (r *BusinessCardRepository) AddListener(l domain.BusinessCardListener) {
	r.listeners.AddBusinessCardListener(l)
}

func (r *BusinessCardRepository) Get(ctx context.Context, id smp.Identifier) (*domain.BusinessCard, error) {
	ctx, span := tracer.Start(ctx, "Repository.BusinessCard.Get")
	defer span.End()

	var m models.BusinessCard
	err := whereParticipant(r.db.WithContext(ctx), id.Canonical()).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "get business card")
	}
	bc, err := businessCardFromModel(m)
	if err != nil {
		return nil, err
	}
	return &bc, nil
}

func (r *BusinessCardRepository) List(ctx context.Context) ([]domain.BusinessCard, error) {
	ctx, span := tracer.Start(ctx, "Repository.BusinessCard.List")
	defer span.End()

	var rows []models.BusinessCard
	if err := r.db.WithContext(ctx).Order("participant_scheme, participant_value").Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "list business cards")
	}

	out := make([]domain.BusinessCard, 0, len(rows))
	for _, m := range rows {
		bc, err := businessCardFromModel(m)
		if err != nil {
			return nil, err
		}
		out = append(out, bc)
	}
	return out, nil
}

func (r *BusinessCardRepository) put(ctx context.Context, bc domain.BusinessCard, create bool) (domain.BusinessCard, error) {
	bc = bc.Clone()
	bc.ServiceGroupID = bc.ServiceGroupID.Canonical()
	id := bc.ServiceGroupID

	m, err := businessCardToModel(bc)
	if err != nil {
		return bc, err
	}

	err = r.listeners.Commit(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := lockServiceGroup(tx, id); err != nil {
				return err
			}
			if create {
				err := tx.Create(&m).Error
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return domain.Conflict("business card " + id.URIEncoded())
				}
				return errors.Wrap(err, "create business card")
			}

			result := whereParticipant(tx.Model(&models.BusinessCard{}), id).
				Updates(map[string]any{"entities": m.Entities})
			if result.Error != nil {
				return errors.Wrap(result.Error, "update business card")
			}
			if result.RowsAffected == 0 {
				return domain.NotFound("business card " + id.URIEncoded())
			}
			return nil
		})
	}, func() {
		r.listeners.BusinessCardCreatedOrUpdated(ctx, bc.Clone())
	})
	if err != nil {
		return bc, err
	}
	return bc, nil
}

func (r *BusinessCardRepository) Create(ctx context.Context, bc domain.BusinessCard) (domain.BusinessCard, error) {
	return r.put(ctx, bc, true)
}

func (r *BusinessCardRepository) Update(ctx context.Context, bc domain.BusinessCard) (domain.BusinessCard, error) {
	return r.put(ctx, bc, false)
}

func (r *BusinessCardRepository) Delete(ctx context.Context, id smp.Identifier) (domain.Change, error) {
	ctx, span := tracer.Start(ctx, "Repository.BusinessCard.Delete")
	defer span.End()

	id = id.Canonical()
	change := domain.Unchanged
	err := r.listeners.Commit(func() error {
		result := whereParticipant(r.db.WithContext(ctx), id).Delete(&models.BusinessCard{})
		if result.Error != nil {
			return errors.Wrap(result.Error, "delete business card")
		}
		if result.RowsAffected > 0 {
			change = domain.Changed
		}
		return nil
	}, func() {
		if change.IsChanged() {
			r.listeners.BusinessCardDeleted(ctx, id)
		}
	})
	if err != nil {
		span.RecordError(err)
		return domain.Unchanged, err
	}
	return change, nil
}
