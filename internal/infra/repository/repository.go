// Package repository implements the stores on top of gorm for the sqlite and
// postgres backends.
package repository

import (
	"encoding/json"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
	"github.com/totegamma/smp/internal/infra/database/models"
	"github.com/totegamma/smp/internal/usecase"
)

// NewStores returns the store set backed by db. All stores share one
// listener registry so notifications follow commit order.
func NewStores(db *gorm.DB) usecase.Stores {
	listeners := domain.NewListeners()
	return usecase.Stores{
		ServiceGroups:      &ServiceGroupRepository{db: db, listeners: listeners},
		ServiceInformation: &ServiceInformationRepository{db: db, listeners: listeners},
		Redirects:          &RedirectRepository{db: db, listeners: listeners},
		BusinessCards:      &BusinessCardRepository{db: db, listeners: listeners},
		Users:              &UserRepository{db: db},
		Faults:             &FaultRepository{db: db},
	}
}

func whereParticipant(tx *gorm.DB, id smp.Identifier) *gorm.DB {
	return tx.Where("participant_scheme = ? AND participant_value = ?", id.Scheme, id.Value)
}

func whereKey(tx *gorm.DB, key domain.ServiceMetadataKey) *gorm.DB {
	return tx.Where(
		"participant_scheme = ? AND participant_value = ? AND document_scheme = ? AND document_value = ?",
		key.ServiceGroupID.Scheme, key.ServiceGroupID.Value,
		key.DocumentTypeID.Scheme, key.DocumentTypeID.Value,
	)
}

// lockServiceGroup checks that the service group exists and, on postgres,
// holds its row lock until the transaction ends. Writers of service
// information and redirects for the same group are serialized by it.
func lockServiceGroup(tx *gorm.DB, id smp.Identifier) error {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var sg models.ServiceGroup
	err := whereParticipant(q, id).Take(&sg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound("service group " + id.URIEncoded())
	}
	return errors.Wrap(err, "lock service group")
}

func exists(tx *gorm.DB, model any, key domain.ServiceMetadataKey) (bool, error) {
	var count int64
	err := whereKey(tx.Model(model), key).Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "count")
	}
	return count > 0, nil
}

func serviceGroupToModel(sg domain.ServiceGroup) models.ServiceGroup {
	return models.ServiceGroup{
		ParticipantScheme: sg.ID.Scheme,
		ParticipantValue:  sg.ID.Value,
		OwnerID:           sg.OwnerID,
		Extension:         sg.Extension,
	}
}

func serviceGroupFromModel(m models.ServiceGroup) domain.ServiceGroup {
	return domain.ServiceGroup{
		ID:        smp.Identifier{Scheme: m.ParticipantScheme, Value: m.ParticipantValue},
		OwnerID:   m.OwnerID,
		Extension: m.Extension,
	}
}

func serviceInformationToModel(si domain.ServiceInformation) (models.ServiceInformation, error) {
	processes, err := json.Marshal(si.Processes)
	if err != nil {
		return models.ServiceInformation{}, errors.Wrap(err, "encode processes")
	}
	return models.ServiceInformation{
		ParticipantScheme: si.ServiceGroupID.Scheme,
		ParticipantValue:  si.ServiceGroupID.Value,
		DocumentScheme:    si.DocumentTypeID.Scheme,
		DocumentValue:     si.DocumentTypeID.Value,
		Processes:         string(processes),
		Extension:         si.Extension,
	}, nil
}

func serviceInformationFromModel(m models.ServiceInformation) (domain.ServiceInformation, error) {
	si := domain.ServiceInformation{
		ServiceGroupID: smp.Identifier{Scheme: m.ParticipantScheme, Value: m.ParticipantValue},
		DocumentTypeID: smp.Identifier{Scheme: m.DocumentScheme, Value: m.DocumentValue},
		Extension:      m.Extension,
	}
	if m.Processes != "" {
		if err := json.Unmarshal([]byte(m.Processes), &si.Processes); err != nil {
			return si, errors.Wrap(err, "decode processes")
		}
	}
	return si, nil
}

func redirectToModel(r domain.Redirect) models.Redirect {
	return models.Redirect{
		ParticipantScheme:       r.ServiceGroupID.Scheme,
		ParticipantValue:        r.ServiceGroupID.Value,
		DocumentScheme:          r.DocumentTypeID.Scheme,
		DocumentValue:           r.DocumentTypeID.Value,
		TargetHref:              r.TargetHref,
		SubjectUniqueIdentifier: r.SubjectUniqueIdentifier,
		Certificate:             r.Certificate,
		Extension:               r.Extension,
	}
}

func redirectFromModel(m models.Redirect) domain.Redirect {
	return domain.Redirect{
		ServiceGroupID:          smp.Identifier{Scheme: m.ParticipantScheme, Value: m.ParticipantValue},
		DocumentTypeID:          smp.Identifier{Scheme: m.DocumentScheme, Value: m.DocumentValue},
		TargetHref:              m.TargetHref,
		SubjectUniqueIdentifier: m.SubjectUniqueIdentifier,
		Certificate:             m.Certificate,
		Extension:               m.Extension,
	}
}

func businessCardToModel(bc domain.BusinessCard) (models.BusinessCard, error) {
	entities, err := json.Marshal(bc.Entities)
	if err != nil {
		return models.BusinessCard{}, errors.Wrap(err, "encode entities")
	}
	return models.BusinessCard{
		ParticipantScheme: bc.ServiceGroupID.Scheme,
		ParticipantValue:  bc.ServiceGroupID.Value,
		Entities:          string(entities),
	}, nil
}

func businessCardFromModel(m models.BusinessCard) (domain.BusinessCard, error) {
	bc := domain.BusinessCard{
		ServiceGroupID: smp.Identifier{Scheme: m.ParticipantScheme, Value: m.ParticipantValue},
	}
	if m.Entities != "" {
		if err := json.Unmarshal([]byte(m.Entities), &bc.Entities); err != nil {
			return bc, errors.Wrap(err, "decode entities")
		}
	}
	return bc, nil
}
