package schemas

import (
	"encoding/xml"
	"strings"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
)

const (
	BDXRv2ServiceGroupNS    = "http://docs.oasis-open.org/bdxr/ns/SMP/2/ServiceGroup"
	BDXRv2ServiceMetadataNS = "http://docs.oasis-open.org/bdxr/ns/SMP/2/ServiceMetadata"
	BDXRv2BasicNS           = "http://docs.oasis-open.org/bdxr/ns/SMP/2/BasicComponents"
	BDXRv2AggregateNS       = "http://docs.oasis-open.org/bdxr/ns/SMP/2/AggregateComponents"
	BDXRv2ExtensionNS       = "http://docs.oasis-open.org/bdxr/ns/SMP/2/ExtensionComponents"

	bdxr2Version = "2.0"
	// SignatureExtensionURI marks the UBL extension holding the signature.
	SignatureExtensionURI = "urn:oasis:names:specification:ubl:dsig:enveloped:xades"
	certificateMimeCode   = "application/base64"
)

type bdxr2ID struct {
	SchemeID string `xml:"schemeID,attr,omitempty"`
	Value    string `xml:",chardata"`
}

func newBDXR2ID(id smp.Identifier) bdxr2ID {
	return bdxr2ID{SchemeID: id.Scheme, Value: id.Value}
}

func (b bdxr2ID) identifier() smp.Identifier {
	return smp.Identifier{Scheme: strings.TrimSpace(b.SchemeID), Value: strings.TrimSpace(b.Value)}
}

type bdxr2Extensions struct {
	Items []bdxr2Extension `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/ExtensionComponents UBLExtension"`
}

type bdxr2Extension struct {
	URI     string    `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/ExtensionComponents ExtensionURI,omitempty"`
	Content extension `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/ExtensionComponents ExtensionContent"`
}

func newBDXR2Extensions(content string, signature bool) *bdxr2Extensions {
	var out bdxr2Extensions
	if signature {
		out.Items = append(out.Items, bdxr2Extension{URI: SignatureExtensionURI})
	}
	if strings.TrimSpace(content) != "" {
		out.Items = append(out.Items, bdxr2Extension{Content: extension{Inner: content}})
	}
	if len(out.Items) == 0 {
		return nil
	}
	return &out
}

// content returns the first extension that is not a signature container.
func (e *bdxr2Extensions) content() string {
	if e == nil {
		return ""
	}
	for _, item := range e.Items {
		if strings.TrimSpace(item.URI) == SignatureExtensionURI {
			continue
		}
		return item.Content.String()
	}
	return ""
}

type bdxr2ServiceGroup struct {
	XMLName           xml.Name                `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/ServiceGroup ServiceGroup"`
	Extensions        *bdxr2Extensions        `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/ExtensionComponents UBLExtensions,omitempty"`
	SMPVersionID      string                  `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/BasicComponents SMPVersionID"`
	ParticipantID     bdxr2ID                 `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/BasicComponents ParticipantID"`
	ServiceReferences []bdxr2ServiceReference `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/AggregateComponents ServiceReference"`
}

type bdxr2ServiceReference struct {
	ID bdxr2ID `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/BasicComponents ID"`
}

type bdxr2ServiceMetadata struct {
	XMLName         xml.Name               `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/ServiceMetadata ServiceMetadata"`
	Extensions      *bdxr2Extensions       `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/ExtensionComponents UBLExtensions,omitempty"`
	SMPVersionID    string                 `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/BasicComponents SMPVersionID"`
	ID              bdxr2ID                `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/BasicComponents ID"`
	ParticipantID   bdxr2ID                `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/BasicComponents ParticipantID"`
	ProcessMetadata []bdxr2ProcessMetadata `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/AggregateComponents ProcessMetadata"`
}

type bdxr2ProcessMetadata struct {
	Extensions *bdxr2Extensions `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/ExtensionComponents UBLExtensions,omitempty"`
	Processes  []bdxr2Process   `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/AggregateComponents Process"`
	Endpoints  []bdxr2Endpoint  `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/AggregateComponents Endpoint"`
	Redirect   *bdxr2Redirect   `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/AggregateComponents Redirect,omitempty"`
}

type bdxr2Process struct {
	ID bdxr2ID `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/BasicComponents ID"`
}

type bdxr2Endpoint struct {
	Extensions         *bdxr2Extensions   `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/ExtensionComponents UBLExtensions,omitempty"`
	TransportProfileID string             `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/BasicComponents TransportProfileID"`
	Description        string             `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/BasicComponents Description,omitempty"`
	Contact            string             `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/BasicComponents Contact,omitempty"`
	AddressURI         string             `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/BasicComponents AddressURI"`
	ActivationDate     *date              `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/BasicComponents ActivationDate,omitempty"`
	ExpirationDate     *date              `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/BasicComponents ExpirationDate,omitempty"`
	Certificates       []bdxr2Certificate `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/AggregateComponents Certificate"`
}

type bdxr2Certificate struct {
	TypeCode string      `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/BasicComponents TypeCode,omitempty"`
	Content  bdxr2Binary `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/BasicComponents ContentBinaryObject"`
}

type bdxr2Binary struct {
	MimeCode string `xml:"mimeCode,attr"`
	Value    string `xml:",chardata"`
}

type bdxr2Redirect struct {
	PublisherURI string             `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/BasicComponents PublisherURI"`
	Certificates []bdxr2Certificate `xml:"http://docs.oasis-open.org/bdxr/ns/SMP/2/AggregateComponents Certificate"`
}

func newBDXR2Certificates(cert string) []bdxr2Certificate {
	if strings.TrimSpace(cert) == "" {
		return nil
	}
	return []bdxr2Certificate{{Content: bdxr2Binary{MimeCode: certificateMimeCode, Value: cert}}}
}

func firstCertificate(certs []bdxr2Certificate) string {
	if len(certs) == 0 {
		return ""
	}
	return strings.TrimSpace(certs[0].Content.Value)
}

// BDXRv2 is the OASIS BDXR SMP 2.0 flavor. It is served below the
// /bdxr-smp-2 path prefix.
type BDXRv2 struct{}

func (BDXRv2) Flavor() smp.Flavor {
	return smp.FlavorBDXRv2
}

// SignatureContainer points at the ExtensionContent of the first UBL
// extension, which EncodeServiceMetadata reserves for the signature.
func (BDXRv2) SignatureContainer() string {
	return "UBLExtensions/UBLExtension[1]/ExtensionContent"
}

func (BDXRv2) EncodeServiceGroup(sg domain.ServiceGroup, docTypes []smp.Identifier, _ HrefFunc) ([]byte, error) {
	out := bdxr2ServiceGroup{
		Extensions:    newBDXR2Extensions(sg.Extension, false),
		SMPVersionID:  bdxr2Version,
		ParticipantID: newBDXR2ID(sg.ID),
	}
	for _, doc := range docTypes {
		out.ServiceReferences = append(out.ServiceReferences, bdxr2ServiceReference{ID: newBDXR2ID(doc)})
	}
	return marshal(out)
}

func (BDXRv2) DecodeServiceGroup(data []byte) (domain.ServiceGroup, error) {
	var in bdxr2ServiceGroup
	if err := xml.Unmarshal(data, &in); err != nil {
		return domain.ServiceGroup{}, decodeErr("ServiceGroup", err)
	}
	return domain.ServiceGroup{
		ID:        in.ParticipantID.identifier(),
		Extension: in.Extensions.content(),
	}, nil
}

func (BDXRv2) EncodeServiceMetadata(sm domain.ServiceMetadata) ([]byte, error) {
	key := sm.Key()
	out := bdxr2ServiceMetadata{
		SMPVersionID:  bdxr2Version,
		ID:            newBDXR2ID(key.DocumentTypeID),
		ParticipantID: newBDXR2ID(key.ServiceGroupID),
	}

	if r := sm.Redirect; r != nil {
		out.Extensions = newBDXR2Extensions(r.Extension, true)
		out.ProcessMetadata = []bdxr2ProcessMetadata{{
			Redirect: &bdxr2Redirect{
				PublisherURI: r.TargetHref,
				Certificates: newBDXR2Certificates(r.Certificate),
			},
		}}
		return marshal(out)
	}

	if si := sm.Information; si != nil {
		out.Extensions = newBDXR2Extensions(si.Extension, true)
		for _, p := range si.Processes {
			pm := bdxr2ProcessMetadata{Extensions: newBDXR2Extensions(p.Extension, false)}
			if !p.ProcessID.Equal(NoProcess) {
				pm.Processes = []bdxr2Process{{ID: newBDXR2ID(p.ProcessID)}}
			}
			for _, e := range p.Endpoints {
				pm.Endpoints = append(pm.Endpoints, bdxr2Endpoint{
					Extensions:         newBDXR2Extensions(e.Extension, false),
					TransportProfileID: e.TransportProfile,
					Description:        e.ServiceDescription,
					Contact:            e.TechnicalContactURL,
					AddressURI:         e.EndpointReference,
					ActivationDate:     newDate(e.ActivationDate),
					ExpirationDate:     newDate(e.ExpirationDate),
					Certificates:       newBDXR2Certificates(e.Certificate),
				})
			}
			out.ProcessMetadata = append(out.ProcessMetadata, pm)
		}
	}
	return marshal(out)
}

func (BDXRv2) DecodeServiceMetadata(data []byte) (domain.ServiceMetadata, error) {
	var in bdxr2ServiceMetadata
	if err := xml.Unmarshal(data, &in); err != nil {
		return domain.ServiceMetadata{}, decodeErr("ServiceMetadata", err)
	}

	participant := in.ParticipantID.identifier()
	docType := in.ID.identifier()

	for _, pm := range in.ProcessMetadata {
		if pm.Redirect == nil {
			continue
		}
		if len(in.ProcessMetadata) != 1 {
			return domain.ServiceMetadata{}, decodeErr("ServiceMetadata", nil)
		}
		return domain.ServiceMetadata{Redirect: &domain.Redirect{
			ServiceGroupID: participant,
			DocumentTypeID: docType,
			TargetHref:     strings.TrimSpace(pm.Redirect.PublisherURI),
			Certificate:    firstCertificate(pm.Redirect.Certificates),
			Extension:      in.Extensions.content(),
		}}, nil
	}

	si := &domain.ServiceInformation{
		ServiceGroupID: participant,
		DocumentTypeID: docType,
		Extension:      in.Extensions.content(),
	}
	for _, pm := range in.ProcessMetadata {
		var endpoints []domain.Endpoint
		for _, e := range pm.Endpoints {
			endpoints = append(endpoints, domain.Endpoint{
				TransportProfile:    strings.TrimSpace(e.TransportProfileID),
				EndpointReference:   strings.TrimSpace(e.AddressURI),
				ActivationDate:      e.ActivationDate.ptr(),
				ExpirationDate:      e.ExpirationDate.ptr(),
				Certificate:         firstCertificate(e.Certificates),
				ServiceDescription:  strings.TrimSpace(e.Description),
				TechnicalContactURL: strings.TrimSpace(e.Contact),
				Extension:           e.Extensions.content(),
			})
		}

		processIDs := make([]smp.Identifier, 0, len(pm.Processes))
		for _, p := range pm.Processes {
			processIDs = append(processIDs, p.ID.identifier())
		}
		if len(processIDs) == 0 {
			processIDs = append(processIDs, NoProcess)
		}
		for _, id := range processIDs {
			si.Processes = append(si.Processes, domain.Process{
				ProcessID: id,
				Endpoints: append([]domain.Endpoint(nil), endpoints...),
				Extension: pm.Extensions.content(),
			})
		}
	}
	return domain.ServiceMetadata{Information: si}, nil
}
