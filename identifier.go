package smp

import (
	"fmt"
	"net/url"
	"strings"
)

// URISeparator separates scheme and value in the URI form of an identifier.
const URISeparator = "::"

const (
	DefaultParticipantScheme = "iso6523-actorid-upis"
	DefaultDocumentScheme    = "busdox-docid-qns"
	WildcardDocumentScheme   = "peppol-doctype-wildcard"
	DefaultProcessScheme     = "cenbii-procid-ubl"
)

// Kind tells participant, document type and process identifiers apart.
type Kind int

const (
	KindParticipant Kind = iota
	KindDocumentType
	KindProcess
)

func (k Kind) String() string {
	switch k {
	case KindParticipant:
		return "participant"
	case KindDocumentType:
		return "document type"
	case KindProcess:
		return "process"
	default:
		return "unknown"
	}
}

// Mode is the identifier validation mode of the server.
type Mode int

const (
	// ModeSimple accepts any non-empty scheme.
	ModeSimple Mode = iota
	// ModePeppol applies the Peppol identifier policy.
	ModePeppol
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "simple":
		return ModeSimple, nil
	case "peppol":
		return ModePeppol, nil
	default:
		return ModeSimple, fmt.Errorf("unknown identifier mode %q", s)
	}
}

func (m Mode) String() string {
	if m == ModePeppol {
		return "peppol"
	}
	return "simple"
}

type limits struct {
	scheme      int
	participant int
	document    int
	process     int
}

var modeLimits = map[Mode]limits{
	ModeSimple: {scheme: 100, participant: 256, document: 500, process: 256},
	ModePeppol: {scheme: 25, participant: 50, document: 500, process: 200},
}

var peppolParticipantSchemes = map[string]bool{
	DefaultParticipantScheme: true,
}

var caseInsensitiveSchemes = map[string]bool{
	DefaultParticipantScheme: true,
}

// InvalidIdentifierError reports why an identifier was rejected.
type InvalidIdentifierError struct {
	Kind   Kind
	Input  string
	Reason string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid %s identifier %q: %s", e.Kind, e.Input, e.Reason)
}

// Identifier is a scoped (scheme, value) pair.
type Identifier struct {
	Scheme string `json:"scheme"`
	Value  string `json:"value"`
}

// IsCaseInsensitiveScheme reports whether values of the scheme compare
// without regard to case.
func IsCaseInsensitiveScheme(scheme string) bool {
	return caseInsensitiveSchemes[scheme]
}

// Canonical returns the storage form: values of case insensitive schemes are
// folded to lower case, the scheme is kept as is.
func (i Identifier) Canonical() Identifier {
	if IsCaseInsensitiveScheme(i.Scheme) {
		return Identifier{Scheme: i.Scheme, Value: strings.ToLower(i.Value)}
	}
	return i
}

// URIEncoded returns "scheme::value".
func (i Identifier) URIEncoded() string {
	return i.Scheme + URISeparator + i.Value
}

// URIPercentEncoded returns the URI form escaped for use as a path segment.
func (i Identifier) URIPercentEncoded() string {
	return url.PathEscape(i.URIEncoded())
}

func (i Identifier) String() string {
	return i.URIEncoded()
}

func (i Identifier) IsZero() bool {
	return i.Scheme == "" && i.Value == ""
}

// Equal compares the canonical forms of both identifiers.
func (i Identifier) Equal(o Identifier) bool {
	return i.Canonical() == o.Canonical()
}

// Parse reads the (optionally percent-encoded) URI form of an identifier and
// returns it validated and canonicalized.
func Parse(mode Mode, kind Kind, text string) (Identifier, error) {
	decoded, err := url.PathUnescape(text)
	if err != nil {
		return Identifier{}, &InvalidIdentifierError{Kind: kind, Input: text, Reason: "malformed percent-encoding"}
	}
	scheme, value, found := strings.Cut(decoded, URISeparator)
	if !found {
		return Identifier{}, &InvalidIdentifierError{Kind: kind, Input: text, Reason: "missing '" + URISeparator + "' separator"}
	}
	return New(mode, kind, scheme, value)
}

// New validates an already split scheme and value.
func New(mode Mode, kind Kind, scheme, value string) (Identifier, error) {
	input := scheme + URISeparator + value
	invalid := func(reason string) error {
		return &InvalidIdentifierError{Kind: kind, Input: input, Reason: reason}
	}

	if scheme == "" {
		return Identifier{}, invalid("empty scheme")
	}
	if value == "" {
		return Identifier{}, invalid("empty value")
	}
	if strings.Contains(scheme, URISeparator) {
		return Identifier{}, invalid("scheme must not contain '" + URISeparator + "'")
	}

	lim := modeLimits[mode]
	if len(scheme) > lim.scheme {
		return Identifier{}, invalid(fmt.Sprintf("scheme exceeds %d characters", lim.scheme))
	}

	maxValue := lim.participant
	switch kind {
	case KindDocumentType:
		maxValue = lim.document
	case KindProcess:
		maxValue = lim.process
	}
	if len(value) > maxValue {
		return Identifier{}, invalid(fmt.Sprintf("value exceeds %d characters", maxValue))
	}

	if mode == ModePeppol {
		if kind == KindParticipant && !peppolParticipantSchemes[scheme] {
			return Identifier{}, invalid("scheme is not allowed")
		}
		if !isPrintableASCII(scheme) || !isPrintableASCII(value) {
			return Identifier{}, invalid("only printable US-ASCII characters are allowed")
		}
	}

	return Identifier{Scheme: scheme, Value: value}.Canonical(), nil
}

func isPrintableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}

// Factory binds the identifier functions to a validation mode.
type Factory struct {
	Mode Mode
}

func NewFactory(mode Mode) Factory {
	return Factory{Mode: mode}
}

func (f Factory) ParseParticipant(text string) (Identifier, error) {
	return Parse(f.Mode, KindParticipant, text)
}

func (f Factory) ParseDocumentType(text string) (Identifier, error) {
	return Parse(f.Mode, KindDocumentType, text)
}

func (f Factory) ParseProcess(text string) (Identifier, error) {
	return Parse(f.Mode, KindProcess, text)
}

func (f Factory) Participant(scheme, value string) (Identifier, error) {
	return New(f.Mode, KindParticipant, scheme, value)
}

func (f Factory) DocumentType(scheme, value string) (Identifier, error) {
	return New(f.Mode, KindDocumentType, scheme, value)
}

func (f Factory) Process(scheme, value string) (Identifier, error) {
	return New(f.Mode, KindProcess, scheme, value)
}
