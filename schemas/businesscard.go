package schemas

import (
	"encoding/xml"
	"strings"

	"github.com/totegamma/smp/internal/domain"
)

const BusinessCardNS = "http://www.peppol.eu/schema/pd/businesscard/20180621/"

type businessCard struct {
	XMLName               xml.Name         `xml:"http://www.peppol.eu/schema/pd/businesscard/20180621/ BusinessCard"`
	ParticipantIdentifier peppolID         `xml:"ParticipantIdentifier"`
	Entities              []businessEntity `xml:"BusinessEntity"`
}

type businessName struct {
	Language string `xml:"language,attr,omitempty"`
	Value    string `xml:"name,attr"`
}

type businessEntity struct {
	Names                   []businessName    `xml:"Name"`
	CountryCode             string            `xml:"CountryCode"`
	GeographicalInformation string            `xml:"GeographicalInformation,omitempty"`
	Identifiers             []peppolID        `xml:"Identifier"`
	WebsiteURIs             []string          `xml:"WebsiteURI"`
	Contacts                []businessContact `xml:"Contact"`
	AdditionalInformation   string            `xml:"AdditionalInformation,omitempty"`
	RegistrationDate        *date             `xml:"RegistrationDate,omitempty"`
}

type businessContact struct {
	Type        string `xml:"type,attr,omitempty"`
	Name        string `xml:"name,attr,omitempty"`
	PhoneNumber string `xml:"phonenumber,attr,omitempty"`
	Email       string `xml:"email,attr,omitempty"`
}

func EncodeBusinessCard(bc domain.BusinessCard) ([]byte, error) {
	out := businessCard{
		ParticipantIdentifier: newPeppolID(bc.ServiceGroupID),
	}
	for _, e := range bc.Entities {
		entity := businessEntity{
			Names:                   []businessName{{Value: e.Name}},
			CountryCode:             e.CountryCode,
			GeographicalInformation: e.GeoInfo,
			WebsiteURIs:             e.WebsiteURIs,
			AdditionalInformation:   e.AdditionalInfo,
			RegistrationDate:        newDate(e.RegistrationDate),
		}
		for _, id := range e.Identifiers {
			entity.Identifiers = append(entity.Identifiers, peppolID{Scheme: id.Scheme, Value: id.Value})
		}
		for _, c := range e.Contacts {
			entity.Contacts = append(entity.Contacts, businessContact{
				Type:        c.Type,
				Name:        c.Name,
				PhoneNumber: c.Phone,
				Email:       c.Email,
			})
		}
		out.Entities = append(out.Entities, entity)
	}
	return marshal(out)
}

func DecodeBusinessCard(data []byte) (domain.BusinessCard, error) {
	var in businessCard
	if err := xml.Unmarshal(data, &in); err != nil {
		return domain.BusinessCard{}, decodeErr("BusinessCard", err)
	}

	out := domain.BusinessCard{ServiceGroupID: in.ParticipantIdentifier.identifier()}
	for _, e := range in.Entities {
		entity := domain.BusinessEntity{
			CountryCode:      strings.TrimSpace(e.CountryCode),
			GeoInfo:          strings.TrimSpace(e.GeographicalInformation),
			AdditionalInfo:   strings.TrimSpace(e.AdditionalInformation),
			RegistrationDate: e.RegistrationDate.ptr(),
		}
		if len(e.Names) > 0 {
			entity.Name = strings.TrimSpace(e.Names[0].Value)
		}
		for _, id := range e.Identifiers {
			v := id.identifier()
			entity.Identifiers = append(entity.Identifiers, domain.BusinessIdentifier{Scheme: v.Scheme, Value: v.Value})
		}
		for _, uri := range e.WebsiteURIs {
			entity.WebsiteURIs = append(entity.WebsiteURIs, strings.TrimSpace(uri))
		}
		for _, c := range e.Contacts {
			entity.Contacts = append(entity.Contacts, domain.Contact{
				Type:  c.Type,
				Name:  c.Name,
				Phone: c.PhoneNumber,
				Email: c.Email,
			})
		}
		out.Entities = append(out.Entities, entity)
	}
	return out, nil
}
