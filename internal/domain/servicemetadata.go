package domain

import (
	"time"

	smp "github.com/totegamma/smp"
)

// ServiceMetadataKey addresses service information and redirects.
type ServiceMetadataKey struct {
	ServiceGroupID smp.Identifier `json:"serviceGroupId"`
	DocumentTypeID smp.Identifier `json:"documentTypeId"`
}

func (k ServiceMetadataKey) Canonical() ServiceMetadataKey {
	return ServiceMetadataKey{
		ServiceGroupID: k.ServiceGroupID.Canonical(),
		DocumentTypeID: k.DocumentTypeID.Canonical(),
	}
}

func (k ServiceMetadataKey) String() string {
	return k.ServiceGroupID.URIEncoded() + "/services/" + k.DocumentTypeID.URIEncoded()
}

type ServiceInformation struct {
	ServiceGroupID smp.Identifier `json:"serviceGroupId"`
	DocumentTypeID smp.Identifier `json:"documentTypeId"`
	Processes      []Process      `json:"processes" validate:"dive"`
	Extension      string         `json:"extension,omitempty"`
}

func (si ServiceInformation) Key() ServiceMetadataKey {
	return ServiceMetadataKey{ServiceGroupID: si.ServiceGroupID, DocumentTypeID: si.DocumentTypeID}
}

// Clone returns a copy that shares no slices with si.
func (si ServiceInformation) Clone() ServiceInformation {
	out := si
	out.Processes = make([]Process, len(si.Processes))
	for i, p := range si.Processes {
		p.Endpoints = append([]Endpoint(nil), p.Endpoints...)
		out.Processes[i] = p
	}
	return out
}

type Process struct {
	ProcessID smp.Identifier `json:"processId"`
	Endpoints []Endpoint     `json:"endpoints" validate:"dive"`
	Extension string         `json:"extension,omitempty"`
}

type Endpoint struct {
	TransportProfile              string     `json:"transportProfile" validate:"required"`
	EndpointReference             string     `json:"endpointReference" validate:"required,url"`
	RequireBusinessLevelSignature bool       `json:"requireBusinessLevelSignature"`
	MinimumAuthenticationLevel    string     `json:"minimumAuthenticationLevel,omitempty"`
	ActivationDate                *time.Time `json:"activationDate,omitempty"`
	ExpirationDate                *time.Time `json:"expirationDate,omitempty"`
	Certificate                   string     `json:"certificate"`
	ServiceDescription            string     `json:"serviceDescription"`
	TechnicalContactURL           string     `json:"technicalContactUrl"`
	TechnicalInformationURL       string     `json:"technicalInformationUrl,omitempty"`
	Extension                     string     `json:"extension,omitempty"`
}

type Redirect struct {
	ServiceGroupID          smp.Identifier `json:"serviceGroupId"`
	DocumentTypeID          smp.Identifier `json:"documentTypeId"`
	TargetHref              string         `json:"targetHref" validate:"required,url"`
	SubjectUniqueIdentifier string         `json:"subjectUniqueIdentifier"`
	Certificate             string         `json:"certificate,omitempty"`
	Extension               string         `json:"extension,omitempty"`
}

func (r Redirect) Key() ServiceMetadataKey {
	return ServiceMetadataKey{ServiceGroupID: r.ServiceGroupID, DocumentTypeID: r.DocumentTypeID}
}

// ServiceMetadata holds exactly one of Information or Redirect.
type ServiceMetadata struct {
	Information *ServiceInformation
	Redirect    *Redirect
}

func (sm ServiceMetadata) Key() ServiceMetadataKey {
	if sm.Redirect != nil {
		return sm.Redirect.Key()
	}
	if sm.Information != nil {
		return sm.Information.Key()
	}
	return ServiceMetadataKey{}
}
