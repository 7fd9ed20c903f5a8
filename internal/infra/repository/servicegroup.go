package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
	"github.com/totegamma/smp/internal/infra/database/models"
)

type ServiceGroupRepository struct {
	db        *gorm.DB
	listeners *domain.Listeners
}

func (r *ServiceGroupRepository) AddListener(l domain.ServiceGroupListener) {
	r.listeners.AddServiceGroupListener(l)
}

func (r *ServiceGroupRepository) Get(ctx context.Context, id smp.Identifier) (*domain.ServiceGroup, error) {
	ctx, span := tracer.Start(ctx, "Repository.ServiceGroup.Get")
	defer span.End()

	var m models.ServiceGroup
	err := whereParticipant(r.db.WithContext(ctx), id.Canonical()).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "get service group")
	}
	sg := serviceGroupFromModel(m)
	return &sg, nil
}

func (r *ServiceGroupRepository) List(ctx context.Context, filter domain.ServiceGroupFilter) ([]domain.ServiceGroup, error) {
	ctx, span := tracer.Start(ctx, "Repository.ServiceGroup.List")
	defer span.End()

	q := r.db.WithContext(ctx)
	if filter.OwnerID != "" {
		q = q.Where("owner_id = ?", filter.OwnerID)
	}
	var rows []models.ServiceGroup
	if err := q.Order("participant_scheme, participant_value").Find(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "list service groups")
	}

	out := make([]domain.ServiceGroup, 0, len(rows))
	for _, m := range rows {
		out = append(out, serviceGroupFromModel(m))
	}
	return out, nil
}

func (r *ServiceGroupRepository) Create(ctx context.Context, sg domain.ServiceGroup) (domain.ServiceGroup, error) {
	ctx, span := tracer.Start(ctx, "Repository.ServiceGroup.Create")
	defer span.End()

	sg.ID = sg.ID.Canonical()
	m := serviceGroupToModel(sg)
	err := r.listeners.Commit(func() error {
		err := r.db.WithContext(ctx).Create(&m).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.Conflict("service group " + sg.ID.URIEncoded())
		}
		return errors.Wrap(err, "create service group")
	}, func() {
		r.listeners.ServiceGroupCreatedOrUpdated(ctx, sg)
	})
	if err != nil {
		span.RecordError(err)
	}
	return sg, err
}

func (r *ServiceGroupRepository) Update(ctx context.Context, sg domain.ServiceGroup) (domain.ServiceGroup, error) {
	ctx, span := tracer.Start(ctx, "Repository.ServiceGroup.Update")
	defer span.End()

	sg.ID = sg.ID.Canonical()
	err := r.listeners.Commit(func() error {
		result := whereParticipant(r.db.WithContext(ctx).Model(&models.ServiceGroup{}), sg.ID).
			Updates(map[string]any{
				"owner_id":  sg.OwnerID,
				"extension": sg.Extension,
			})
		if result.Error != nil {
			return errors.Wrap(result.Error, "update service group")
		}
		if result.RowsAffected == 0 {
			return domain.NotFound("service group " + sg.ID.URIEncoded())
		}
		return nil
	}, func() {
		r.listeners.ServiceGroupCreatedOrUpdated(ctx, sg)
	})
	if err != nil {
		span.RecordError(err)
	}
	return sg, err
}

// Delete removes the group with its service information, redirects and
// business card in one transaction. Listeners hear about each removed child
// before the group itself.
func (r *ServiceGroupRepository) Delete(ctx context.Context, id smp.Identifier) (domain.Change, error) {
	ctx, span := tracer.Start(ctx, "Repository.ServiceGroup.Delete")
	defer span.End()

	id = id.Canonical()
	change := domain.Unchanged
	var infos []models.ServiceInformation
	var redirects []models.Redirect
	var hadCard bool
	err := r.listeners.Commit(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := whereParticipant(tx, id).Select("document_scheme", "document_value").Find(&infos).Error; err != nil {
				return errors.Wrap(err, "list service information")
			}
			if err := whereParticipant(tx, id).Select("document_scheme", "document_value").Find(&redirects).Error; err != nil {
				return errors.Wrap(err, "list redirects")
			}
			if err := whereParticipant(tx, id).Delete(&models.ServiceInformation{}).Error; err != nil {
				return errors.Wrap(err, "delete service information")
			}
			if err := whereParticipant(tx, id).Delete(&models.Redirect{}).Error; err != nil {
				return errors.Wrap(err, "delete redirects")
			}
			cards := whereParticipant(tx, id).Delete(&models.BusinessCard{})
			if cards.Error != nil {
				return errors.Wrap(cards.Error, "delete business card")
			}
			hadCard = cards.RowsAffected > 0
			result := whereParticipant(tx, id).Delete(&models.ServiceGroup{})
			if result.Error != nil {
				return errors.Wrap(result.Error, "delete service group")
			}
			if result.RowsAffected > 0 {
				change = domain.Changed
			}
			return nil
		})
	}, func() {
		if !change.IsChanged() {
			return
		}
		for _, m := range infos {
			r.listeners.ServiceInformationDeleted(ctx, domain.ServiceMetadataKey{
				ServiceGroupID: id,
				DocumentTypeID: smp.Identifier{Scheme: m.DocumentScheme, Value: m.DocumentValue},
			})
		}
		for _, m := range redirects {
			r.listeners.RedirectDeleted(ctx, domain.ServiceMetadataKey{
				ServiceGroupID: id,
				DocumentTypeID: smp.Identifier{Scheme: m.DocumentScheme, Value: m.DocumentValue},
			})
		}
		if hadCard {
			r.listeners.BusinessCardDeleted(ctx, id)
		}
		r.listeners.ServiceGroupDeleted(ctx, id)
	})
	if err != nil {
		span.RecordError(err)
		return domain.Unchanged, err
	}
	return change, nil
}
