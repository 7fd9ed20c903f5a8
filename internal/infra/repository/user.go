package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
	"github.com/totegamma/smp/internal/infra/database/models"
)

type UserRepository struct {
	db *gorm.DB
}

func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	var m models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	return &domain.User{ID: m.ID, PasswordHash: m.PasswordHash}, nil
}

func (r *UserRepository) Create(ctx context.Context, u domain.User) (domain.User, error) {
	err := r.db.WithContext(ctx).Create(&models.User{ID: u.ID, PasswordHash: u.PasswordHash}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return u, domain.Conflict("user " + u.ID)
	}
	return u, errors.Wrap(err, "create user")
}

func (r *UserRepository) Update(ctx context.Context, u domain.User) (domain.User, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", u.ID).
		Update("password_hash", u.PasswordHash)
	if result.Error != nil {
		return u, errors.Wrap(result.Error, "update user")
	}
	if result.RowsAffected == 0 {
		return u, domain.NotFound("user " + u.ID)
	}
	return u, nil
}

type FaultRepository struct {
	db *gorm.DB
}

func (r *FaultRepository) Record(ctx context.Context, f domain.ReconciliationFault) error {
	if f.Time.IsZero() {
		f.Time = time.Now().UTC()
	}
	m := models.ReconciliationFault{
		ParticipantScheme: f.ParticipantID.Scheme,
		ParticipantValue:  f.ParticipantID.Value,
		Operation:         f.Operation,
		Reason:            f.Reason,
		CDate:             f.Time,
	}
	return errors.Wrap(r.db.WithContext(ctx).Create(&m).Error, "record fault")
}

func (r *FaultRepository) List(ctx context.Context) ([]domain.ReconciliationFault, error) {
	var rows []models.ReconciliationFault
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list faults")
	}
	out := make([]domain.ReconciliationFault, 0, len(rows))
	for _, m := range rows {
		out = append(out, domain.ReconciliationFault{
			ParticipantID: smp.Identifier{Scheme: m.ParticipantScheme, Value: m.ParticipantValue},
			Operation:     m.Operation,
			Reason:        m.Reason,
			Time:          m.CDate,
		})
	}
	return out, nil
}
