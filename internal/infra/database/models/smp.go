package models

import (
	"time"
)

type ServiceGroup struct {
	ParticipantScheme string    `json:"participantScheme" gorm:"primaryKey;type:text"`
	ParticipantValue  string    `json:"participantValue" gorm:"primaryKey;type:text"`
	OwnerID           string    `json:"ownerID" gorm:"type:text;not null;index"`
	Extension         string    `json:"extension" gorm:"type:text"`
	CDate             time.Time `json:"cdate" gorm:"autoCreateTime"`
	MDate             time.Time `json:"mdate" gorm:"autoUpdateTime"`
}

type ServiceInformation struct {
	ParticipantScheme string    `json:"participantScheme" gorm:"primaryKey;type:text"`
	ParticipantValue  string    `json:"participantValue" gorm:"primaryKey;type:text"`
	DocumentScheme    string    `json:"documentScheme" gorm:"primaryKey;type:text"`
	DocumentValue     string    `json:"documentValue" gorm:"primaryKey;type:text"`
	Processes         string    `json:"processes" gorm:"type:text"` // JSON encoded []domain.Process
	Extension         string    `json:"extension" gorm:"type:text"`
	CDate             time.Time `json:"cdate" gorm:"autoCreateTime"`
	MDate             time.Time `json:"mdate" gorm:"autoUpdateTime"`
}

func (ServiceInformation) TableName() string {
	return "service_information"
}

type Redirect struct {
	ParticipantScheme       string    `json:"participantScheme" gorm:"primaryKey;type:text"`
	ParticipantValue        string    `json:"participantValue" gorm:"primaryKey;type:text"`
	DocumentScheme          string    `json:"documentScheme" gorm:"primaryKey;type:text"`
	DocumentValue           string    `json:"documentValue" gorm:"primaryKey;type:text"`
	TargetHref              string    `json:"targetHref" gorm:"type:text;not null"`
	SubjectUniqueIdentifier string    `json:"subjectUniqueIdentifier" gorm:"type:text"`
	Certificate             string    `json:"certificate" gorm:"type:text"`
	Extension               string    `json:"extension" gorm:"type:text"`
	CDate                   time.Time `json:"cdate" gorm:"autoCreateTime"`
	MDate                   time.Time `json:"mdate" gorm:"autoUpdateTime"`
}

type BusinessCard struct {
	ParticipantScheme string    `json:"participantScheme" gorm:"primaryKey;type:text"`
	ParticipantValue  string    `json:"participantValue" gorm:"primaryKey;type:text"`
	Entities          string    `json:"entities" gorm:"type:text"` // JSON encoded []domain.BusinessEntity
	CDate             time.Time `json:"cdate" gorm:"autoCreateTime"`
	MDate             time.Time `json:"mdate" gorm:"autoUpdateTime"`
}

type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:text"`
	PasswordHash string    `json:"-" gorm:"type:text;not null"`
	CDate        time.Time `json:"cdate" gorm:"autoCreateTime"`
}

type ReconciliationFault struct {
	ID                uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ParticipantScheme string    `json:"participantScheme" gorm:"type:text;index:fault_participant"`
	ParticipantValue  string    `json:"participantValue" gorm:"type:text;index:fault_participant"`
	Operation         string    `json:"operation" gorm:"type:text"`
	Reason            string    `json:"reason" gorm:"type:text"`
	CDate             time.Time `json:"cdate"`
}
