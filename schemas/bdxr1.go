package schemas

import (
	"encoding/xml"
	"strings"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
)

const BDXRv1NS = "http://docs.oasis-open.org/bdxr/ns/SMP/2016/05"

type bdxr1ServiceGroup struct {
	XMLName               xml.Name                  `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2016/05 ServiceGroup"`
	ParticipantIdentifier peppolID                  `xml:"ParticipantIdentifier"`
	References            peppolReferenceCollection `xml:"ServiceMetadataReferenceCollection"`
	Extension             *extension                `xml:"Extension,omitempty"`
}

type bdxr1SignedServiceMetadata struct {
	XMLName         xml.Name `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2016/05 SignedServiceMetadata"`
	ServiceMetadata bdxr1ServiceMetadata
}

type bdxr1ServiceMetadata struct {
	XMLName            xml.Name                 `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2016/05 ServiceMetadata"`
	ServiceInformation *bdxr1ServiceInformation `xml:"ServiceInformation,omitempty"`
	Redirect           *peppolRedirect          `xml:"Redirect,omitempty"`
}

type bdxr1ServiceInformation struct {
	ParticipantIdentifier peppolID       `xml:"ParticipantIdentifier"`
	DocumentIdentifier    peppolID       `xml:"DocumentIdentifier"`
	Processes             []bdxr1Process `xml:"ProcessList>Process"`
	Extension             *extension     `xml:"Extension,omitempty"`
}

type bdxr1Process struct {
	ProcessIdentifier peppolID        `xml:"ProcessIdentifier"`
	Endpoints         []bdxr1Endpoint `xml:"ServiceEndpointList>Endpoint"`
	Extension         *extension      `xml:"Extension,omitempty"`
}

type bdxr1Endpoint struct {
	TransportProfile              string     `xml:"transportProfile,attr"`
	EndpointURI                   string     `xml:"EndpointURI"`
	RequireBusinessLevelSignature *bool      `xml:"RequireBusinessLevelSignature,omitempty"`
	MinimumAuthenticationLevel    *string    `xml:"MinimumAuthenticationLevel,omitempty"`
	ServiceActivationDate         *dateTime  `xml:"ServiceActivationDate,omitempty"`
	ServiceExpirationDate         *dateTime  `xml:"ServiceExpirationDate,omitempty"`
	Certificate                   string     `xml:"Certificate"`
	ServiceDescription            string     `xml:"ServiceDescription"`
	TechnicalContactURL           string     `xml:"TechnicalContactUrl"`
	TechnicalInformationURL       *string    `xml:"TechnicalInformationUrl,omitempty"`
	Extension                     *extension `xml:"Extension,omitempty"`
}

// BDXRv1 is the OASIS BDXR SMP 1.0 flavor.
type BDXRv1 struct{}

func (BDXRv1) Flavor() smp.Flavor {
	return smp.FlavorBDXRv1
}

func (BDXRv1) SignatureContainer() string {
	return ""
}

func (BDXRv1) EncodeServiceGroup(sg domain.ServiceGroup, docTypes []smp.Identifier, href HrefFunc) ([]byte, error) {
	out := bdxr1ServiceGroup{
		ParticipantIdentifier: newPeppolID(sg.ID),
		Extension:             newExtension(sg.Extension),
	}
	for _, doc := range docTypes {
		out.References.Items = append(out.References.Items, peppolReference{Href: href(doc)})
	}
	return marshal(out)
}

func (BDXRv1) DecodeServiceGroup(data []byte) (domain.ServiceGroup, error) {
	var in bdxr1ServiceGroup
	if err := xml.Unmarshal(data, &in); err != nil {
		return domain.ServiceGroup{}, decodeErr("ServiceGroup", err)
	}
	return domain.ServiceGroup{
		ID:        in.ParticipantIdentifier.identifier(),
		Extension: in.Extension.String(),
	}, nil
}

func (BDXRv1) EncodeServiceMetadata(sm domain.ServiceMetadata) ([]byte, error) {
	var out bdxr1ServiceMetadata
	if r := sm.Redirect; r != nil {
		out.Redirect = &peppolRedirect{
			Href:           r.TargetHref,
			CertificateUID: r.SubjectUniqueIdentifier,
			Extension:      newExtension(r.Extension),
		}
	} else if si := sm.Information; si != nil {
		info := &bdxr1ServiceInformation{
			ParticipantIdentifier: newPeppolID(si.ServiceGroupID),
			DocumentIdentifier:    newPeppolID(si.DocumentTypeID),
			Extension:             newExtension(si.Extension),
		}
		for _, p := range si.Processes {
			proc := bdxr1Process{
				ProcessIdentifier: newPeppolID(p.ProcessID),
				Extension:         newExtension(p.Extension),
			}
			for _, e := range p.Endpoints {
				proc.Endpoints = append(proc.Endpoints, bdxr1Endpoint{
					TransportProfile:              e.TransportProfile,
					EndpointURI:                   e.EndpointReference,
					RequireBusinessLevelSignature: boolPtr(e.RequireBusinessLevelSignature),
					MinimumAuthenticationLevel:    optional(e.MinimumAuthenticationLevel),
					ServiceActivationDate:         newDateTime(e.ActivationDate),
					ServiceExpirationDate:         newDateTime(e.ExpirationDate),
					Certificate:                   e.Certificate,
					ServiceDescription:            e.ServiceDescription,
					TechnicalContactURL:           e.TechnicalContactURL,
					TechnicalInformationURL:       optional(e.TechnicalInformationURL),
					Extension:                     newExtension(e.Extension),
				})
			}
			info.Processes = append(info.Processes, proc)
		}
		out.ServiceInformation = info
	}
	return marshal(bdxr1SignedServiceMetadata{ServiceMetadata: out})
}

func (BDXRv1) DecodeServiceMetadata(data []byte) (domain.ServiceMetadata, error) {
	name, err := rootName(data)
	if err != nil {
		return domain.ServiceMetadata{}, decodeErr("ServiceMetadata", err)
	}

	var in bdxr1ServiceMetadata
	switch name.Local {
	case "ServiceMetadata":
		err = xml.Unmarshal(data, &in)
	case "SignedServiceMetadata":
		var signed bdxr1SignedServiceMetadata
		err = xml.Unmarshal(data, &signed)
		in = signed.ServiceMetadata
	default:
		return domain.ServiceMetadata{}, decodeErr("ServiceMetadata", nil)
	}
	if err != nil {
		return domain.ServiceMetadata{}, decodeErr("ServiceMetadata", err)
	}
	if (in.ServiceInformation == nil) == (in.Redirect == nil) {
		return domain.ServiceMetadata{}, decodeErr("ServiceMetadata", nil)
	}

	if r := in.Redirect; r != nil {
		return domain.ServiceMetadata{Redirect: &domain.Redirect{
			TargetHref:              strings.TrimSpace(r.Href),
			SubjectUniqueIdentifier: strings.TrimSpace(r.CertificateUID),
			Extension:               r.Extension.String(),
		}}, nil
	}

	si := in.ServiceInformation
	out := &domain.ServiceInformation{
		ServiceGroupID: si.ParticipantIdentifier.identifier(),
		DocumentTypeID: si.DocumentIdentifier.identifier(),
		Extension:      si.Extension.String(),
	}
	for _, p := range si.Processes {
		proc := domain.Process{
			ProcessID: p.ProcessIdentifier.identifier(),
			Extension: p.Extension.String(),
		}
		for _, e := range p.Endpoints {
			ep := domain.Endpoint{
				TransportProfile:           strings.TrimSpace(e.TransportProfile),
				EndpointReference:          strings.TrimSpace(e.EndpointURI),
				MinimumAuthenticationLevel: deref(e.MinimumAuthenticationLevel),
				ActivationDate:             e.ServiceActivationDate.ptr(),
				ExpirationDate:             e.ServiceExpirationDate.ptr(),
				Certificate:                strings.TrimSpace(e.Certificate),
				ServiceDescription:         strings.TrimSpace(e.ServiceDescription),
				TechnicalContactURL:        strings.TrimSpace(e.TechnicalContactURL),
				TechnicalInformationURL:    deref(e.TechnicalInformationURL),
				Extension:                  e.Extension.String(),
			}
			if e.RequireBusinessLevelSignature != nil {
				ep.RequireBusinessLevelSignature = *e.RequireBusinessLevelSignature
			}
			proc.Endpoints = append(proc.Endpoints, ep)
		}
		out.Processes = append(out.Processes, proc)
	}
	return domain.ServiceMetadata{Information: out}, nil
}
