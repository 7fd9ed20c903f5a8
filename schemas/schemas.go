// Package schemas maps the SMP data model to the XML documents of the
// supported REST flavors.
package schemas

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
)

// NoProcess stands for "any process" in flavors that allow omitting the
// process identifier.
var NoProcess = smp.Identifier{Scheme: "bdx-procid-transport", Value: "bdx:noprocess"}

// HrefFunc builds the absolute URL of the service metadata of a document
// type within the encoded service group.
type HrefFunc func(docType smp.Identifier) string

// Codec encodes and decodes the documents of one REST flavor. Decoded
// identifiers are not validated.
type Codec interface {
	Flavor() smp.Flavor
	EncodeServiceGroup(sg domain.ServiceGroup, docTypes []smp.Identifier, href HrefFunc) ([]byte, error)
	DecodeServiceGroup(data []byte) (domain.ServiceGroup, error)
	// EncodeServiceMetadata returns the unsigned response document.
	EncodeServiceMetadata(sm domain.ServiceMetadata) ([]byte, error)
	DecodeServiceMetadata(data []byte) (domain.ServiceMetadata, error)
	// SignatureContainer is the etree path, relative to the document
	// element, of the element receiving the response signature.
	SignatureContainer() string
}

func ForFlavor(f smp.Flavor) Codec {
	switch f {
	case smp.FlavorBDXRv1:
		return BDXRv1{}
	case smp.FlavorBDXRv2:
		return BDXRv2{}
	default:
		return PeppolV1{}
	}
}

// DecodeError reports a request body that does not match the schema.
type DecodeError struct {
	Document string
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return "invalid " + e.Document + " document"
	}
	return fmt.Sprintf("invalid %s document: %v", e.Document, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(document string, err error) error {
	return &DecodeError{Document: document, Err: err}
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// rootName returns the namespace and local name of the document element.
func rootName(data []byte) (xml.Name, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.Name{}, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name, nil
		}
	}
}

const xmlNamespaceURI = "http://www.w3.org/XML/1998/namespace"

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#13;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;", "\r", "&#13;", "\n", "&#10;", "\t", "&#9;")
)

// extension keeps the content of an Extension element.
type extension struct {
	Inner string `xml:",innerxml"`
}

// UnmarshalXML keeps the content of the element as self-contained XML: every
// element or attribute whose namespace is not the one in scope at the
// Extension element carries its own declaration, so the content stays valid
// when written into another document.
func (e *extension) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var buf bytes.Buffer
	defaults := []string{start.Name.Space}
	pending := false

	closePending := func() {
		if pending {
			buf.WriteByte('>')
			pending = false
		}
	}

	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			closePending()
			writeStartTag(&buf, t, defaults[len(defaults)-1])
			defaults = append(defaults, t.Name.Space)
			pending = true
		case xml.EndElement:
			if len(defaults) == 1 {
				e.Inner = buf.String()
				return nil
			}
			defaults = defaults[:len(defaults)-1]
			if pending {
				buf.WriteString("/>")
				pending = false
				continue
			}
			buf.WriteString("</" + t.Name.Local + ">")
		case xml.CharData:
			closePending()
			buf.WriteString(textEscaper.Replace(string(t)))
		case xml.Comment:
			closePending()
			buf.WriteString("<!--")
			buf.Write(t)
			buf.WriteString("-->")
		}
	}
}

func writeStartTag(buf *bytes.Buffer, t xml.StartElement, inScope string) {
	buf.WriteString("<" + t.Name.Local)
	if t.Name.Space != inScope {
		buf.WriteString(` xmlns="`)
		buf.WriteString(attrEscaper.Replace(t.Name.Space))
		buf.WriteByte('"')
	}

	prefixes := map[string]string{}
	for _, attr := range t.Attr {
		if attr.Name.Space == "xmlns" || (attr.Name.Space == "" && attr.Name.Local == "xmlns") {
			continue
		}
		buf.WriteByte(' ')
		switch attr.Name.Space {
		case "":
		case xmlNamespaceURI:
			buf.WriteString("xml:")
		default:
			prefix, ok := prefixes[attr.Name.Space]
			if !ok {
				prefix = fmt.Sprintf("ns%d", len(prefixes)+1)
				prefixes[attr.Name.Space] = prefix
				buf.WriteString("xmlns:" + prefix + `="`)
				buf.WriteString(attrEscaper.Replace(attr.Name.Space))
				buf.WriteString(`" `)
			}
			buf.WriteString(prefix + ":")
		}
		buf.WriteString(attr.Name.Local + `="`)
		buf.WriteString(attrEscaper.Replace(attr.Value))
		buf.WriteByte('"')
	}
}

func newExtension(s string) *extension {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &extension{Inner: s}
}

func (e *extension) String() string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.Inner)
}

// dateTime is an xs:dateTime, leniently parsed.
type dateTime struct {
	time.Time
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02Z07:00",
	"2006-01-02",
}

func parseLenient(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func (d dateTime) MarshalText() ([]byte, error) {
	return []byte(d.Time.Format(time.RFC3339)), nil
}

func (d *dateTime) UnmarshalText(text []byte) error {
	t, err := parseLenient(string(text))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func newDateTime(t *time.Time) *dateTime {
	if t == nil {
		return nil
	}
	return &dateTime{Time: *t}
}

func (d *dateTime) ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// date is an xs:date.
type date struct {
	time.Time
}

func (d date) MarshalText() ([]byte, error) {
	return []byte(d.Time.Format("2006-01-02")), nil
}

func (d *date) UnmarshalText(text []byte) error {
	t, err := parseLenient(string(text))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func newDate(t *time.Time) *date {
	if t == nil {
		return nil
	}
	return &date{Time: *t}
}

func (d *date) ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func boolPtr(b bool) *bool {
	return &b
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
