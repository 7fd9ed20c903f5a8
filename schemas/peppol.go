package schemas

import (
	"encoding/xml"
	"strings"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
)

const (
	PeppolNS      = "http://busdox.org/serviceMetadata/publishing/1.0/"
	IdentifiersNS = "http://busdox.org/transport/identifiers/1.0/"
	AddressingNS  = "http://www.w3.org/2005/08/addressing"
)

type peppolID struct {
	Scheme string `xml:"scheme,attr"`
	Value  string `xml:",chardata"`
}

func newPeppolID(id smp.Identifier) peppolID {
	return peppolID{Scheme: id.Scheme, Value: id.Value}
}

func (p peppolID) identifier() smp.Identifier {
	return smp.Identifier{Scheme: strings.TrimSpace(p.Scheme), Value: strings.TrimSpace(p.Value)}
}

type peppolReference struct {
	Href string `xml:"href,attr"`
}

type peppolServiceGroup struct {
	XMLName               xml.Name                  `xml:"http://busdox.org/serviceMetadata/publishing/1.0/ ServiceGroup"`
	ParticipantIdentifier peppolID                  `xml:"http://busdox.org/transport/identifiers/1.0/ ParticipantIdentifier"`
	References            peppolReferenceCollection `xml:"ServiceMetadataReferenceCollection"`
	Extension             *extension                `xml:"Extension,omitempty"`
}

type peppolReferenceCollection struct {
	Items []peppolReference `xml:"ServiceMetadataReference"`
}

type peppolSignedServiceMetadata struct {
	XMLName         xml.Name `xml:"http://busdox.org/serviceMetadata/publishing/1.0/ SignedServiceMetadata"`
	ServiceMetadata peppolServiceMetadata
}

type peppolServiceMetadata struct {
	XMLName            xml.Name                  `xml:"http://busdox.org/serviceMetadata/publishing/1.0/ ServiceMetadata"`
	ServiceInformation *peppolServiceInformation `xml:"ServiceInformation,omitempty"`
	Redirect           *peppolRedirect           `xml:"Redirect,omitempty"`
}

type peppolServiceInformation struct {
	ParticipantIdentifier peppolID        `xml:"http://busdox.org/transport/identifiers/1.0/ ParticipantIdentifier"`
	DocumentIdentifier    peppolID        `xml:"http://busdox.org/transport/identifiers/1.0/ DocumentIdentifier"`
	Processes             []peppolProcess `xml:"ProcessList>Process"`
	Extension             *extension      `xml:"Extension,omitempty"`
}

type peppolProcess struct {
	ProcessIdentifier peppolID         `xml:"http://busdox.org/transport/identifiers/1.0/ ProcessIdentifier"`
	Endpoints         []peppolEndpoint `xml:"ServiceEndpointList>Endpoint"`
	Extension         *extension       `xml:"Extension,omitempty"`
}

type wsaEndpointReference struct {
	Address string `xml:"http://www.w3.org/2005/08/addressing Address"`
}

type peppolEndpoint struct {
	TransportProfile              string               `xml:"transportProfile,attr"`
	EndpointReference             wsaEndpointReference `xml:"http://www.w3.org/2005/08/addressing EndpointReference"`
	RequireBusinessLevelSignature bool                 `xml:"RequireBusinessLevelSignature"`
	MinimumAuthenticationLevel    *string              `xml:"MinimumAuthenticationLevel,omitempty"`
	ServiceActivationDate         *dateTime            `xml:"ServiceActivationDate,omitempty"`
	ServiceExpirationDate         *dateTime            `xml:"ServiceExpirationDate,omitempty"`
	Certificate                   string               `xml:"Certificate"`
	ServiceDescription            string               `xml:"ServiceDescription"`
	TechnicalContactURL           string               `xml:"TechnicalContactUrl"`
	TechnicalInformationURL       *string              `xml:"TechnicalInformationUrl,omitempty"`
	Extension                     *extension           `xml:"Extension,omitempty"`
}

type peppolRedirect struct {
	Href           string     `xml:"href,attr"`
	CertificateUID string     `xml:"CertificateUID"`
	Extension      *extension `xml:"Extension,omitempty"`
}

type peppolCompleteServiceGroup struct {
	XMLName         xml.Name `xml:"http://busdox.org/serviceMetadata/publishing/1.0/ CompleteServiceGroup"`
	ServiceGroup    peppolServiceGroup
	ServiceMetadata []peppolServiceMetadata
}

type peppolServiceGroupReferenceList struct {
	XMLName    xml.Name          `xml:"http://busdox.org/serviceMetadata/publishing/1.0/ ServiceGroupReferenceList"`
	References []peppolReference `xml:"ServiceGroupReference"`
}

// PeppolV1 is the Peppol SMP 1.x (busdox) flavor.
type PeppolV1 struct{}

func (PeppolV1) Flavor() smp.Flavor {
	return smp.FlavorPeppolV1
}

func (PeppolV1) SignatureContainer() string {
	return ""
}

func (PeppolV1) serviceGroup(sg domain.ServiceGroup, docTypes []smp.Identifier, href HrefFunc) peppolServiceGroup {
	out := peppolServiceGroup{
		ParticipantIdentifier: newPeppolID(sg.ID),
		Extension:             newExtension(sg.Extension),
	}
	for _, doc := range docTypes {
		out.References.Items = append(out.References.Items, peppolReference{Href: href(doc)})
	}
	return out
}

func (c PeppolV1) EncodeServiceGroup(sg domain.ServiceGroup, docTypes []smp.Identifier, href HrefFunc) ([]byte, error) {
	return marshal(c.serviceGroup(sg, docTypes, href))
}

func (PeppolV1) DecodeServiceGroup(data []byte) (domain.ServiceGroup, error) {
	var in peppolServiceGroup
	if err := xml.Unmarshal(data, &in); err != nil {
		return domain.ServiceGroup{}, decodeErr("ServiceGroup", err)
	}
	return domain.ServiceGroup{
		ID:        in.ParticipantIdentifier.identifier(),
		Extension: in.Extension.String(),
	}, nil
}

func (PeppolV1) serviceMetadata(sm domain.ServiceMetadata) peppolServiceMetadata {
	var out peppolServiceMetadata
	if r := sm.Redirect; r != nil {
		out.Redirect = &peppolRedirect{
			Href:           r.TargetHref,
			CertificateUID: r.SubjectUniqueIdentifier,
			Extension:      newExtension(r.Extension),
		}
		return out
	}

	si := sm.Information
	if si == nil {
		return out
	}
	info := &peppolServiceInformation{
		ParticipantIdentifier: newPeppolID(si.ServiceGroupID),
		DocumentIdentifier:    newPeppolID(si.DocumentTypeID),
		Extension:             newExtension(si.Extension),
	}
	for _, p := range si.Processes {
		proc := peppolProcess{
			ProcessIdentifier: newPeppolID(p.ProcessID),
			Extension:         newExtension(p.Extension),
		}
		for _, e := range p.Endpoints {
			proc.Endpoints = append(proc.Endpoints, peppolEndpoint{
				TransportProfile:              e.TransportProfile,
				EndpointReference:             wsaEndpointReference{Address: e.EndpointReference},
				RequireBusinessLevelSignature: e.RequireBusinessLevelSignature,
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
	return out
}

func (c PeppolV1) EncodeServiceMetadata(sm domain.ServiceMetadata) ([]byte, error) {
	return marshal(peppolSignedServiceMetadata{ServiceMetadata: c.serviceMetadata(sm)})
}

func (PeppolV1) DecodeServiceMetadata(data []byte) (domain.ServiceMetadata, error) {
	name, err := rootName(data)
	if err != nil {
		return domain.ServiceMetadata{}, decodeErr("ServiceMetadata", err)
	}

	var in peppolServiceMetadata
	switch name.Local {
	case "ServiceMetadata":
		err = xml.Unmarshal(data, &in)
	case "SignedServiceMetadata":
		var signed peppolSignedServiceMetadata
		err = xml.Unmarshal(data, &signed)
		in = signed.ServiceMetadata
	default:
		return domain.ServiceMetadata{}, decodeErr("ServiceMetadata", nil)
	}
	if err != nil {
		return domain.ServiceMetadata{}, decodeErr("ServiceMetadata", err)
	}
	return in.toDomain()
}

func (in peppolServiceMetadata) toDomain() (domain.ServiceMetadata, error) {
	if (in.ServiceInformation == nil) == (in.Redirect == nil) {
		return domain.ServiceMetadata{}, decodeErr("ServiceMetadata", nil)
	}

	if r := in.Redirect; r != nil {
		// the redirect carries no identifiers, the caller fills them in
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
			proc.Endpoints = append(proc.Endpoints, domain.Endpoint{
				TransportProfile:              strings.TrimSpace(e.TransportProfile),
				EndpointReference:             strings.TrimSpace(e.EndpointReference.Address),
				RequireBusinessLevelSignature: e.RequireBusinessLevelSignature,
				MinimumAuthenticationLevel:    deref(e.MinimumAuthenticationLevel),
				ActivationDate:                e.ServiceActivationDate.ptr(),
				ExpirationDate:                e.ServiceExpirationDate.ptr(),
				Certificate:                   strings.TrimSpace(e.Certificate),
				ServiceDescription:            strings.TrimSpace(e.ServiceDescription),
				TechnicalContactURL:           strings.TrimSpace(e.TechnicalContactURL),
				TechnicalInformationURL:       deref(e.TechnicalInformationURL),
				Extension:                     e.Extension.String(),
			})
		}
		out.Processes = append(out.Processes, proc)
	}
	return domain.ServiceMetadata{Information: out}, nil
}

// EncodeCompleteServiceGroup writes the group together with all of its
// unsigned service metadata.
func (c PeppolV1) EncodeCompleteServiceGroup(csg domain.CompleteServiceGroup, href HrefFunc) ([]byte, error) {
	docTypes := make([]smp.Identifier, 0, len(csg.Metadata))
	for _, sm := range csg.Metadata {
		docTypes = append(docTypes, sm.Key().DocumentTypeID)
	}
	out := peppolCompleteServiceGroup{
		ServiceGroup:    c.serviceGroup(csg.ServiceGroup, docTypes, href),
		ServiceMetadata: make([]peppolServiceMetadata, 0, len(csg.Metadata)),
	}
	for _, sm := range csg.Metadata {
		out.ServiceMetadata = append(out.ServiceMetadata, c.serviceMetadata(sm))
	}
	return marshal(out)
}

// EncodeServiceGroupReferenceList lists service group URLs.
func (PeppolV1) EncodeServiceGroupReferenceList(hrefs []string) ([]byte, error) {
	out := peppolServiceGroupReferenceList{References: make([]peppolReference, 0, len(hrefs))}
	for _, h := range hrefs {
		out.References = append(out.References, peppolReference{Href: h})
	}
	return marshal(out)
}
