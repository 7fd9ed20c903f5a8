package domain

import (
	"time"

	smp "github.com/totegamma/smp"
)

type BusinessCard struct {
	ServiceGroupID smp.Identifier   `json:"serviceGroupId"`
	Entities       []BusinessEntity `json:"entities" validate:"dive"`
}

func (bc BusinessCard) Clone() BusinessCard {
	out := bc
	out.Entities = make([]BusinessEntity, len(bc.Entities))
	for i, e := range bc.Entities {
		e.Identifiers = append([]BusinessIdentifier(nil), e.Identifiers...)
		e.WebsiteURIs = append([]string(nil), e.WebsiteURIs...)
		e.Contacts = append([]Contact(nil), e.Contacts...)
		out.Entities[i] = e
	}
	return out
}

type BusinessEntity struct {
	Name             string               `json:"name" validate:"required"`
	CountryCode      string               `json:"countryCode" validate:"required,len=2"`
	GeoInfo          string               `json:"geoInfo,omitempty"`
	Identifiers      []BusinessIdentifier `json:"identifiers,omitempty" validate:"dive"`
	WebsiteURIs      []string             `json:"websiteUris,omitempty" validate:"dive,url"`
	Contacts         []Contact            `json:"contacts,omitempty" validate:"dive"`
	AdditionalInfo   string               `json:"additionalInfo,omitempty"`
	RegistrationDate *time.Time           `json:"registrationDate,omitempty"`
}

type BusinessIdentifier struct {
	Scheme string `json:"scheme" validate:"required"`
	Value  string `json:"value" validate:"required"`
}

type Contact struct {
	Type  string `json:"type,omitempty"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}
