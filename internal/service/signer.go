package service

import (
	"bytes"
	"context"
	"crypto/x509"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
	dsig "github.com/russellhaering/goxmldsig"
)

// Signer adds an enveloped XML signature (RSA-SHA256) to outgoing documents.
// Signatures under the document element use inclusive C14N 1.0; signatures
// placed in a nested container use exclusive C14N so that SignedInfo does not
// pick up the container's namespace declarations.
type Signer struct {
	keys *KeyProvider
}

func NewSigner(keys *KeyProvider) *Signer {
	return &Signer{keys: keys}
}

// Sign appends the signature to the document element.
func (s *Signer) Sign(ctx context.Context, doc []byte) ([]byte, error) {
	return s.SignInto(ctx, doc, "")
}

// SignInto signs the document and places the signature in the element found
// at container, an etree path relative to the document element. An empty
// path keeps the signature under the document element.
func (s *Signer) SignInto(ctx context.Context, doc []byte, container string) ([]byte, error) {
	_, span := tracer.Start(ctx, "Service.Signer.Sign")
	defer span.End()

	if s == nil || s.keys == nil {
		return nil, errors.New("no signing key configured")
	}

	in := etree.NewDocument()
	if err := in.ReadFromBytes(doc); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "parse document")
	}
	root := in.Root()
	if root == nil {
		return nil, errors.New("document has no root element")
	}

	sctx := dsig.NewDefaultSigningContext(s.keys)
	sctx.Canonicalizer = dsig.MakeC14N10RecCanonicalizer()
	if container != "" {
		sctx.Canonicalizer = dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList("")
	}
	if err := sctx.SetSignatureMethod(dsig.RSASHA256SignatureMethod); err != nil {
		return nil, errors.Wrap(err, "set signature method")
	}

	signed, err := sctx.SignEnveloped(root)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "sign document")
	}

	if container != "" {
		target := signed.FindElement(container)
		if target == nil {
			return nil, errors.Errorf("signature container %q not found", container)
		}
		sig := signed.ChildElements()[len(signed.ChildElements())-1]
		signed.RemoveChild(sig)
		target.AddChild(sig)
	}

	return writeCanonical(signed)
}

// writeCanonical serializes el the way it was canonicalized for signing, with
// carriage returns written as "&#13;".
func writeCanonical(el *etree.Element) ([]byte, error) {
	out := etree.NewDocument()
	out.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	out.SetRoot(el)
	out.WriteSettings.CanonicalText = true
	out.WriteSettings.CanonicalAttrVal = true

	raw, err := out.WriteToBytes()
	if err != nil {
		return nil, errors.Wrap(err, "serialize signed document")
	}
	raw = bytes.ReplaceAll(raw, []byte("&#xD;"), []byte("&#13;"))
	raw = bytes.ReplaceAll(raw, []byte("\r"), []byte("&#13;"))
	return raw, nil
}

// VerifySignature checks the enveloped signature of doc against cert.
func VerifySignature(doc []byte, cert *x509.Certificate) error {
	in := etree.NewDocument()
	if err := in.ReadFromBytes(doc); err != nil {
		return errors.Wrap(err, "parse document")
	}
	if in.Root() == nil {
		return errors.New("document has no root element")
	}

	vctx := dsig.NewDefaultValidationContext(&dsig.MemoryX509CertificateStore{
		Roots: []*x509.Certificate{cert},
	})
	if _, err := vctx.Validate(in.Root()); err != nil {
		return errors.Wrap(err, "signature validation failed")
	}
	return nil
}
