package service

import (
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"

	"github.com/pkg/errors"
)

// KeyProvider holds the SMP key pair loaded from PEM files. It serves the
// response signer and the TLS client certificate for the SML.
type KeyProvider struct {
	cert tls.Certificate
	key  *rsa.PrivateKey
	leaf *x509.Certificate
}

func LoadKeyProvider(certFile, keyFile string) (*KeyProvider, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, errors.Wrap(err, "load signing key pair")
	}
	return NewKeyProvider(cert)
}

func NewKeyProvider(cert tls.Certificate) (*KeyProvider, error) {
	if len(cert.Certificate) == 0 {
		return nil, errors.New("certificate chain is empty")
	}
	key, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("signing key must be an RSA key")
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, errors.Wrap(err, "parse certificate")
	}
	return &KeyProvider{cert: cert, key: key, leaf: leaf}, nil
}

// GetKeyPair implements dsig.X509KeyStore.
func (p *KeyProvider) GetKeyPair() (*rsa.PrivateKey, []byte, error) {
	return p.key, p.cert.Certificate[0], nil
}

func (p *KeyProvider) TLSCertificate() *tls.Certificate {
	return &p.cert
}

func (p *KeyProvider) Certificate() *x509.Certificate {
	return p.leaf
}

// CertificateBase64 returns the DER certificate in base64, the form used in
// SMP documents.
func (p *KeyProvider) CertificateBase64() string {
	return base64.StdEncoding.EncodeToString(p.cert.Certificate[0])
}
