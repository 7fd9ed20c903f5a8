package client

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

const (
	soapEnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
	locatorNS      = "http://busdox.org/serviceMetadata/locator/1.0/"
	identifiersNS  = "http://busdox.org/transport/identifiers/1.0/"

	manageParticipantPath = "/manageparticipantidentifier"
	soapActionCreate      = locatorNS + ":createIn"
	soapActionDelete      = locatorNS + ":deleteIn"
)

type soapEnvelope struct {
	XMLName xml.Name `xml:"http://schemas.xmlsoap.org/soap/envelope/ Envelope"`
	Body    soapBody `xml:"http://schemas.xmlsoap.org/soap/envelope/ Body"`
}

type soapBody struct {
	Content any        `xml:",omitempty"`
	Fault   *soapFault `xml:"http://schemas.xmlsoap.org/soap/envelope/ Fault,omitempty"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
	Detail struct {
		Inner string `xml:",innerxml"`
	} `xml:"detail"`
}

type participantIdentifier struct {
	XMLName xml.Name `xml:"http://busdox.org/transport/identifiers/1.0/ ParticipantIdentifier"`
	Scheme  string   `xml:"scheme,attr"`
	Value   string   `xml:",chardata"`
}

type manageParticipant struct {
	XMLName     xml.Name
	Participant participantIdentifier
	SMPID       string `xml:"http://busdox.org/serviceMetadata/locator/1.0/ ServiceMetadataPublisherID"`
}

// SOAPFault is the fault returned by the SML.
type SOAPFault struct {
	Code    string
	Message string
}

func (f *SOAPFault) Error() string {
	return fmt.Sprintf("SML fault %s: %s", f.Code, f.Message)
}

// SML manages the participant mappings of one SMP at a Service Metadata
// Locator through its ManageParticipantIdentifier SOAP service.
type SML struct {
	client  *Client
	baseURL string
	smpID   string
}

func NewSML(c *Client, baseURL, smpID string) *SML {
	return &SML{
		client:  c,
		baseURL: strings.TrimRight(baseURL, "/"),
		smpID:   smpID,
	}
}

func (s *SML) CreateParticipant(ctx context.Context, scheme, value string) error {
	return s.call(ctx, "CreateParticipantIdentifier", soapActionCreate, scheme, value)
}

func (s *SML) DeleteParticipant(ctx context.Context, scheme, value string) error {
	return s.call(ctx, "DeleteParticipantIdentifier", soapActionDelete, scheme, value)
}

func (s *SML) call(ctx context.Context, operation, action, scheme, value string) error {
	env := soapEnvelope{
		Body: soapBody{
			Content: manageParticipant{
				XMLName:     xml.Name{Space: locatorNS, Local: operation},
				Participant: participantIdentifier{Scheme: scheme, Value: value},
				SMPID:       s.smpID,
			},
		},
	}
	payload, err := xml.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "failed to encode SOAP request")
	}
	payload = append([]byte(xml.Header), payload...)

	header := http.Header{}
	header.Set("Content-Type", "text/xml; charset=utf-8")
	header.Set("SOAPAction", `"`+action+`"`)

	status, body, err := s.client.Do(ctx, http.MethodPost, s.baseURL+manageParticipantPath, header, payload)
	if err != nil {
		return err
	}
	if status >= 200 && status < 300 {
		return nil
	}

	if fault := parseFault(body); fault != nil {
		return fault
	}
	return &StatusError{StatusCode: status, Body: truncate(string(body), 256)}
}

func parseFault(body []byte) *SOAPFault {
	var env struct {
		Body struct {
			Fault *soapFault `xml:"Fault"`
		} `xml:"Body"`
	}
	if err := xml.Unmarshal(body, &env); err != nil || env.Body.Fault == nil {
		return nil
	}
	return &SOAPFault{
		Code:    strings.TrimSpace(env.Body.Fault.Code),
		Message: strings.TrimSpace(env.Body.Fault.String),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
