package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
	"github.com/totegamma/smp/internal/infra/database/models"
)

type ServiceInformationRepository struct {
	db        *gorm.DB
	listeners *domain.Listeners
}

func (r *ServiceInformationRepository) AddListener(l domain.ServiceInformationListener) {
	r.listeners.AddServiceInformationListener(l)
}

func (r *ServiceInformationRepository) Get(ctx context.Context, key domain.ServiceMetadataKey) (*domain.ServiceInformation, error) {
	ctx, span := tracer.Start(ctx, "Repository.ServiceInformation.Get")
	defer span.End()

	var m models.ServiceInformation
	err := whereKey(r.db.WithContext(ctx), key.Canonical()).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "get service information")
	}
	si, err := serviceInformationFromModel(m)
	if err != nil {
		return nil, err
	}
	return &si, nil
}

func (r *ServiceInformationRepository) List(ctx context.Context, serviceGroupID smp.Identifier) ([]domain.ServiceInformation, error) {
	ctx, span := tracer.Start(ctx, "Repository.ServiceInformation.List")
	defer span.End()

	var rows []models.ServiceInformation
	err := whereParticipant(r.db.WithContext(ctx), serviceGroupID.Canonical()).
		Order("document_scheme, document_value").
		Find(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "list service information")
	}

	out := make([]domain.ServiceInformation, 0, len(rows))
	for _, m := range rows {
		si, err := serviceInformationFromModel(m)
		if err != nil {
			return nil, err
		}
		out = append(out, si)
	}
	return out, nil
}

func (r *ServiceInformationRepository) put(ctx context.Context, si domain.ServiceInformation, create bool) (domain.ServiceInformation, error) {
	si = si.Clone()
	si.ServiceGroupID = si.ServiceGroupID.Canonical()
	si.DocumentTypeID = si.DocumentTypeID.Canonical()
	key := si.Key()

	m, err := serviceInformationToModel(si)
	if err != nil {
		return si, err
	}

	err = r.listeners.Commit(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := lockServiceGroup(tx, key.ServiceGroupID); err != nil {
				return err
			}
			found, err := exists(tx, &models.Redirect{}, key)
			if err != nil {
				return err
			}
			if found {
				return domain.ConflictingResourceType("a redirect already exists for " + key.String())
			}

			if create {
				err := tx.Create(&m).Error
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return domain.Conflict("service information " + key.String())
				}
				return errors.Wrap(err, "create service information")
			}

			result := whereKey(tx.Model(&models.ServiceInformation{}), key).
				Updates(map[string]any{
					"processes": m.Processes,
					"extension": m.Extension,
				})
			if result.Error != nil {
				return errors.Wrap(result.Error, "update service information")
			}
			if result.RowsAffected == 0 {
				return domain.NotFound("service information " + key.String())
			}
			return nil
		})
	}, func() {
		r.listeners.ServiceInformationCreatedOrUpdated(ctx, si.Clone())
	})
	return si, err
}

func (r *ServiceInformationRepository) Create(ctx context.Context, si domain.ServiceInformation) (domain.ServiceInformation, error) {
	ctx, span := tracer.Start(ctx, "Repository.ServiceInformation.Create")
	defer span.End()

	out, err := r.put(ctx, si, true)
	if err != nil {
		span.RecordError(err)
	}
	return out, err
}

func (r *ServiceInformationRepository) Update(ctx context.Context, si domain.ServiceInformation) (domain.ServiceInformation, error) {
	ctx, span := tracer.Start(ctx, "Repository.ServiceInformation.Update")
	defer span.End()

	out, err := r.put(ctx, si, false)
	if err != nil {
		span.RecordError(err)
	}
	return out, err
}

func (r *ServiceInformationRepository) Delete(ctx context.Context, key domain.ServiceMetadataKey) (domain.Change, error) {
	ctx, span := tracer.Start(ctx, "Repository.ServiceInformation.Delete")
	defer span.End()

	key = key.Canonical()
	change := domain.Unchanged
	err := r.listeners.Commit(func() error {
		result := whereKey(r.db.WithContext(ctx), key).Delete(&models.ServiceInformation{})
		if result.Error != nil {
			return errors.Wrap(result.Error, "delete service information")
		}
		if result.RowsAffected > 0 {
			change = domain.Changed
		}
		return nil
	}, func() {
		if change.IsChanged() {
			r.listeners.ServiceInformationDeleted(ctx, key)
		}
	})
	if err != nil {
		span.RecordError(err)
		return domain.Unchanged, err
	}
	return change, nil
}

type RedirectRepository struct {
	db        *gorm.DB
	listeners *domain.Listeners
}

func (r *RedirectRepository) AddListener(l domain.RedirectListener) {
	r.listeners.AddRedirectListener(l)
}

func (r *RedirectRepository) Get(ctx context.Context, key domain.ServiceMetadataKey) (*domain.Redirect, error) {
	ctx, span := tracer.Start(ctx, "Repository.Redirect.Get")
	defer span.End()

	var m models.Redirect
	err := whereKey(r.db.WithContext(ctx), key.Canonical()).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "get redirect")
	}
	rd := redirectFromModel(m)
	return &rd, nil
}

func (r *RedirectRepository) List(ctx context.Context, serviceGroupID smp.Identifier) ([]domain.Redirect, error) {
	ctx, span := tracer.Start(ctx, "Repository.Redirect.List")
	defer span.End()

	var rows []models.Redirect
	err := whereParticipant(r.db.WithContext(ctx), serviceGroupID.Canonical()).
		Order("document_scheme, document_value").
		Find(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "list redirects")
	}

	out := make([]domain.Redirect, 0, len(rows))
	for _, m := range rows {
		out = append(out, redirectFromModel(m))
	}
	return out, nil
}

func (r *RedirectRepository) put(ctx context.Context, rd domain.Redirect, create bool) (domain.Redirect, error) {
	rd.ServiceGroupID = rd.ServiceGroupID.Canonical()
	rd.DocumentTypeID = rd.DocumentTypeID.Canonical()
	key := rd.Key()
	m := redirectToModel(rd)

	err := r.listeners.Commit(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := lockServiceGroup(tx, key.ServiceGroupID); err != nil {
				return err
			}
			found, err := exists(tx, &models.ServiceInformation{}, key)
			if err != nil {
				return err
			}
			if found {
				return domain.ConflictingResourceType("service information already exists for " + key.String())
			}

			if create {
				err := tx.Create(&m).Error
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return domain.Conflict("redirect " + key.String())
				}
				return errors.Wrap(err, "create redirect")
			}

			result := whereKey(tx.Model(&models.Redirect{}), key).
				Updates(map[string]any{
					"target_href":               m.TargetHref,
					"subject_unique_identifier": m.SubjectUniqueIdentifier,
					"certificate":               m.Certificate,
					"extension":                 m.Extension,
				})
			if result.Error != nil {
				return errors.Wrap(result.Error, "update redirect")
			}
			if result.RowsAffected == 0 {
				return domain.NotFound("redirect " + key.String())
			}
			return nil
		})
	}, func() {
		r.listeners.RedirectCreatedOrUpdated(ctx, rd)
	})
	return rd, err
}

func (r *RedirectRepository) Create(ctx context.Context, rd domain.Redirect) (domain.Redirect, error) {
	ctx, span := tracer.Start(ctx, "Repository.Redirect.Create")
	defer span.End()

	out, err := r.put(ctx, rd, true)
	if err != nil {
		span.RecordError(err)
	}
	return out, err
}

func (r *RedirectRepository) Update(ctx context.Context, rd domain.Redirect) (domain.Redirect, error) {
	ctx, span := tracer.Start(ctx, "Repository.Redirect.Update")
	defer span.End()

	out, err := r.put(ctx, rd, false)
	if err != nil {
		span.RecordError(err)
	}
	return out, err
}

func (r *RedirectRepository) Delete(ctx context.Context, key domain.ServiceMetadataKey) (domain.Change, error) {
	ctx, span := tracer.Start(ctx, "Repository.Redirect.Delete")
	defer span.End()

	key = key.Canonical()
	change := domain.Unchanged
	err := r.listeners.Commit(func() error {
		result := whereKey(r.db.WithContext(ctx), key).Delete(&models.Redirect{})
		if result.Error != nil {
			return errors.Wrap(result.Error, "delete redirect")
		}
		if result.RowsAffected > 0 {
			change = domain.Changed
		}
		return nil
	}, func() {
		if change.IsChanged() {
			r.listeners.RedirectDeleted(ctx, key)
		}
	})
	if err != nil {
		span.RecordError(err)
		return domain.Unchanged, err
	}
	return change, nil
}
