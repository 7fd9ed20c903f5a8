package schemas

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
)

var (
	participant = smp.Identifier{Scheme: "iso6523-actorid-upis", Value: "9915:test"}
	invoice     = smp.Identifier{Scheme: "busdox-docid-qns", Value: "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2::Invoice##urn:cen.eu:en16931:2017::2.1"}
	billing     = smp.Identifier{Scheme: "cenbii-procid-ubl", Value: "urn:fdc:peppol.eu:2017:poacc:billing:01:1.0"}
)

func sampleInformation() domain.ServiceInformation {
	activation := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	return domain.ServiceInformation{
		ServiceGroupID: participant,
		DocumentTypeID: invoice,
		Processes: []domain.Process{{
			ProcessID: billing,
			Endpoints: []domain.Endpoint{{
				TransportProfile:    "peppol-transport-as4-v2_0",
				EndpointReference:   "https://ap.example.com/as4",
				ActivationDate:      &activation,
				Certificate:         "MIIBase64",
				ServiceDescription:  "Test AP",
				TechnicalContactURL: "https://example.com/contact",
			}},
		}},
	}
}

func href(doc smp.Identifier) string {
	return "https://smp.example.com/" + participant.URIPercentEncoded() + "/services/" + doc.URIPercentEncoded()
}

func TestForFlavor(t *testing.T) {
	assert.Equal(t, smp.FlavorPeppolV1, ForFlavor(smp.FlavorPeppolV1).Flavor())
	assert.Equal(t, smp.FlavorBDXRv1, ForFlavor(smp.FlavorBDXRv1).Flavor())
	assert.Equal(t, smp.FlavorBDXRv2, ForFlavor(smp.FlavorBDXRv2).Flavor())
}

func TestPeppolDecodeServiceMetadata(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<ServiceMetadata xmlns="http://busdox.org/serviceMetadata/publishing/1.0/"
                 xmlns:ids="http://busdox.org/transport/identifiers/1.0/"
                 xmlns:wsa="http://www.w3.org/2005/08/addressing">
  <ServiceInformation>
    <ids:ParticipantIdentifier scheme="iso6523-actorid-upis">9915:test</ids:ParticipantIdentifier>
    <ids:DocumentIdentifier scheme="busdox-docid-qns">urn:doc</ids:DocumentIdentifier>
    <ProcessList>
      <Process>
        <ids:ProcessIdentifier scheme="cenbii-procid-ubl">urn:process</ids:ProcessIdentifier>
        <ServiceEndpointList>
          <Endpoint transportProfile="busdox-transport-as2-ver1p0">
            <wsa:EndpointReference>
              <wsa:Address>https://ap.example.com/as2</wsa:Address>
            </wsa:EndpointReference>
            <RequireBusinessLevelSignature>true</RequireBusinessLevelSignature>
            <ServiceActivationDate>2020-01-01T00:00:00Z</ServiceActivationDate>
            <Certificate>MIIC</Certificate>
            <ServiceDescription>desc</ServiceDescription>
            <TechnicalContactUrl>mailto:ops@example.com</TechnicalContactUrl>
          </Endpoint>
        </ServiceEndpointList>
      </Process>
    </ProcessList>
    <Extension><Custom xmlns="urn:custom">x</Custom></Extension>
  </ServiceInformation>
</ServiceMetadata>`

	sm, err := PeppolV1{}.DecodeServiceMetadata([]byte(body))
	require.NoError(t, err)
	require.NotNil(t, sm.Information)
	si := sm.Information
	assert.Equal(t, participant, si.ServiceGroupID)
	assert.Equal(t, "urn:doc", si.DocumentTypeID.Value)
	require.Len(t, si.Processes, 1)
	require.Len(t, si.Processes[0].Endpoints, 1)
	ep := si.Processes[0].Endpoints[0]
	assert.Equal(t, "https://ap.example.com/as2", ep.EndpointReference)
	assert.True(t, ep.RequireBusinessLevelSignature)
	require.NotNil(t, ep.ActivationDate)
	assert.Equal(t, 2020, ep.ActivationDate.Year())
	assert.Contains(t, si.Extension, "<Custom")
}

func TestExtensionCarriesInheritedNamespaces(t *testing.T) {
	body := `<ServiceGroup xmlns="http://busdox.org/serviceMetadata/publishing/1.0/"
              xmlns:ids="http://busdox.org/transport/identifiers/1.0/"
              xmlns:ext="urn:ext">
  <ids:ParticipantIdentifier scheme="iso6523-actorid-upis">9915:test</ids:ParticipantIdentifier>
  <ServiceMetadataReferenceCollection/>
  <Extension><ext:Info ext:lang="de" kind="a&amp;b">hello &lt;world&gt;</ext:Info><Plain/></Extension>
</ServiceGroup>`

	sg, err := PeppolV1{}.DecodeServiceGroup([]byte(body))
	require.NoError(t, err)
	assert.Equal(t,
		`<Info xmlns="urn:ext" xmlns:ns1="urn:ext" ns1:lang="de" kind="a&amp;b">hello &lt;world&gt;</Info><Plain/>`,
		sg.Extension)

	out, err := PeppolV1{}.EncodeServiceGroup(sg, nil, href)
	require.NoError(t, err)
	assert.Contains(t, string(out), `<Extension><Info xmlns="urn:ext"`)
	assert.NotContains(t, string(out), "ext:")

	back, err := PeppolV1{}.DecodeServiceGroup(out)
	require.NoError(t, err)
	assert.Equal(t, sg.Extension, back.Extension)
}

func TestPeppolEncodeServiceMetadata(t *testing.T) {
	si := sampleInformation()
	out, err := PeppolV1{}.EncodeServiceMetadata(domain.ServiceMetadata{Information: &si})
	require.NoError(t, err)

	doc := string(out)
	assert.True(t, strings.HasPrefix(doc, "<?xml"))
	assert.Contains(t, doc, `<SignedServiceMetadata xmlns="http://busdox.org/serviceMetadata/publishing/1.0/">`)
	assert.Contains(t, doc, `<Address xmlns="http://www.w3.org/2005/08/addressing">https://ap.example.com/as4</Address>`)
	assert.Contains(t, doc, `<ServiceActivationDate>2024-01-02T00:00:00Z</ServiceActivationDate>`)

	back, err := PeppolV1{}.DecodeServiceMetadata(out)
	require.NoError(t, err)
	assert.Equal(t, si, *back.Information)
}

func TestPeppolRedirect(t *testing.T) {
	r := domain.Redirect{
		ServiceGroupID:          participant,
		DocumentTypeID:          invoice,
		TargetHref:              "https://smp2.example.com/iso6523-actorid-upis%3A%3A9915%3Atest/services/x",
		SubjectUniqueIdentifier: "CN=SMP2",
	}
	out, err := PeppolV1{}.EncodeServiceMetadata(domain.ServiceMetadata{Redirect: &r})
	require.NoError(t, err)
	assert.Contains(t, string(out), "<CertificateUID>CN=SMP2</CertificateUID>")

	back, err := PeppolV1{}.DecodeServiceMetadata(out)
	require.NoError(t, err)
	require.NotNil(t, back.Redirect)
	assert.Equal(t, r.TargetHref, back.Redirect.TargetHref)
	assert.Equal(t, r.SubjectUniqueIdentifier, back.Redirect.SubjectUniqueIdentifier)
}

func TestPeppolServiceGroup(t *testing.T) {
	sg := domain.ServiceGroup{ID: participant, OwnerID: "alice"}
	out, err := PeppolV1{}.EncodeServiceGroup(sg, []smp.Identifier{invoice}, href)
	require.NoError(t, err)
	assert.Contains(t, string(out), `<ServiceMetadataReference href="`+href(invoice)+`">`)

	back, err := PeppolV1{}.DecodeServiceGroup(out)
	require.NoError(t, err)
	assert.Equal(t, participant, back.ID)

	empty, err := PeppolV1{}.EncodeServiceGroup(sg, nil, href)
	require.NoError(t, err)
	assert.Contains(t, string(empty), "ServiceMetadataReferenceCollection")
}

func TestPeppolComplete(t *testing.T) {
	si := sampleInformation()
	csg := domain.CompleteServiceGroup{
		ServiceGroup: domain.ServiceGroup{ID: participant},
		Metadata:     []domain.ServiceMetadata{{Information: &si}},
	}
	out, err := PeppolV1{}.EncodeCompleteServiceGroup(csg, href)
	require.NoError(t, err)
	doc := string(out)
	assert.Contains(t, doc, "<CompleteServiceGroup")
	assert.Equal(t, 1, strings.Count(doc, "<ServiceInformation>"))

	list, err := PeppolV1{}.EncodeServiceGroupReferenceList([]string{"https://smp.example.com/a"})
	require.NoError(t, err)
	assert.Contains(t, string(list), `<ServiceGroupReference href="https://smp.example.com/a">`)
}

func TestDecodeRejectsInvalid(t *testing.T) {
	_, err := PeppolV1{}.DecodeServiceMetadata([]byte("<ServiceMetadata"))
	var derr *DecodeError
	assert.ErrorAs(t, err, &derr)

	_, err = PeppolV1{}.DecodeServiceMetadata([]byte(`<Other xmlns="http://busdox.org/serviceMetadata/publishing/1.0/"/>`))
	assert.ErrorAs(t, err, &derr)

	_, err = PeppolV1{}.DecodeServiceMetadata([]byte(`<ServiceMetadata xmlns="http://busdox.org/serviceMetadata/publishing/1.0/"/>`))
	assert.ErrorAs(t, err, &derr)

	_, err = BDXRv1{}.DecodeServiceGroup([]byte(`<ServiceGroup xmlns="http://busdox.org/serviceMetadata/publishing/1.0/"/>`))
	assert.ErrorAs(t, err, &derr, "namespace of another flavor")
}

func TestBDXRv1RoundTrip(t *testing.T) {
	si := sampleInformation()
	out, err := BDXRv1{}.EncodeServiceMetadata(domain.ServiceMetadata{Information: &si})
	require.NoError(t, err)
	assert.Contains(t, string(out), `<SignedServiceMetadata xmlns="http://docs.oasis-open.org/bdxr/ns/SMP/2016/05">`)
	assert.Contains(t, string(out), `<EndpointURI>https://ap.example.com/as4</EndpointURI>`)

	back, err := BDXRv1{}.DecodeServiceMetadata(out)
	require.NoError(t, err)
	assert.Equal(t, si, *back.Information)

	sgOut, err := BDXRv1{}.EncodeServiceGroup(domain.ServiceGroup{ID: participant, Extension: "<X/>"}, []smp.Identifier{invoice}, href)
	require.NoError(t, err)
	sg, err := BDXRv1{}.DecodeServiceGroup(sgOut)
	require.NoError(t, err)
	assert.Equal(t, participant, sg.ID)
	assert.Equal(t, "<X/>", sg.Extension)
}

func TestBDXRv2RoundTrip(t *testing.T) {
	si := sampleInformation()
	si.Extension = "<Custom>1</Custom>"
	out, err := BDXRv2{}.EncodeServiceMetadata(domain.ServiceMetadata{Information: &si})
	require.NoError(t, err)
	doc := string(out)
	assert.Contains(t, doc, SignatureExtensionURI)
	assert.Contains(t, doc, `<AddressURI xmlns="http://docs.oasis-open.org/bdxr/ns/SMP/2/BasicComponents">https://ap.example.com/as4</AddressURI>`)
	assert.Contains(t, doc, `>2024-01-02</ActivationDate>`)

	back, err := BDXRv2{}.DecodeServiceMetadata(out)
	require.NoError(t, err)
	require.NotNil(t, back.Information)
	assert.Equal(t, si.Extension, back.Information.Extension)
	require.Len(t, back.Information.Processes, 1)
	assert.Equal(t, billing, back.Information.Processes[0].ProcessID)
	assert.Equal(t, "MIIBase64", back.Information.Processes[0].Endpoints[0].Certificate)
	assert.Equal(t, "https://example.com/contact", back.Information.Processes[0].Endpoints[0].TechnicalContactURL)
}

func TestBDXRv2Redirect(t *testing.T) {
	r := domain.Redirect{
		ServiceGroupID: participant,
		DocumentTypeID: invoice,
		TargetHref:     "https://smp2.example.com",
		Certificate:    "MIIRedirect",
	}
	out, err := BDXRv2{}.EncodeServiceMetadata(domain.ServiceMetadata{Redirect: &r})
	require.NoError(t, err)

	back, err := BDXRv2{}.DecodeServiceMetadata(out)
	require.NoError(t, err)
	require.NotNil(t, back.Redirect)
	assert.Equal(t, r, *back.Redirect)
}

func TestBDXRv2NoProcess(t *testing.T) {
	si := sampleInformation()
	si.Processes[0].ProcessID = NoProcess
	out, err := BDXRv2{}.EncodeServiceMetadata(domain.ServiceMetadata{Information: &si})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<Process ")

	back, err := BDXRv2{}.DecodeServiceMetadata(out)
	require.NoError(t, err)
	assert.Equal(t, NoProcess, back.Information.Processes[0].ProcessID)
}

func TestBDXRv2ServiceGroup(t *testing.T) {
	out, err := BDXRv2{}.EncodeServiceGroup(domain.ServiceGroup{ID: participant}, []smp.Identifier{invoice}, href)
	require.NoError(t, err)
	assert.Contains(t, string(out), `schemeID="busdox-docid-qns"`)
	assert.NotContains(t, string(out), "UBLExtensions")

	sg, err := BDXRv2{}.DecodeServiceGroup(out)
	require.NoError(t, err)
	assert.Equal(t, participant, sg.ID)
}

func TestBusinessCard(t *testing.T) {
	body := `<BusinessCard xmlns="http://www.peppol.eu/schema/pd/businesscard/20180621/">
  <ParticipantIdentifier scheme="iso6523-actorid-upis">9915:test</ParticipantIdentifier>
  <BusinessEntity>
    <Name name="ACME Corp" language="en"/>
    <CountryCode>AT</CountryCode>
    <Identifier scheme="VAT">ATU12345678</Identifier>
    <WebsiteURI>https://acme.example.com</WebsiteURI>
    <Contact type="support" name="Ops" phonenumber="+43" email="ops@acme.example.com"/>
    <RegistrationDate>2019-05-01</RegistrationDate>
  </BusinessEntity>
</BusinessCard>`

	bc, err := DecodeBusinessCard([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, participant, bc.ServiceGroupID)
	require.Len(t, bc.Entities, 1)
	e := bc.Entities[0]
	assert.Equal(t, "ACME Corp", e.Name)
	assert.Equal(t, "AT", e.CountryCode)
	assert.Equal(t, "ATU12345678", e.Identifiers[0].Value)
	assert.Equal(t, "ops@acme.example.com", e.Contacts[0].Email)
	require.NotNil(t, e.RegistrationDate)

	out, err := EncodeBusinessCard(bc)
	require.NoError(t, err)
	back, err := DecodeBusinessCard(out)
	require.NoError(t, err)
	assert.Equal(t, bc, back)
}
