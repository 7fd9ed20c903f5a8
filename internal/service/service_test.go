package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
	"github.com/totegamma/smp/internal/infra/memstore"
)

func testKeyProvider(t *testing.T) *KeyProvider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "SMP Test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	kp, err := NewKeyProvider(tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key})
	require.NoError(t, err)
	return kp
}

const unsigned = `<?xml version="1.0" encoding="UTF-8"?>
<SignedServiceMetadata xmlns="http://busdox.org/serviceMetadata/publishing/1.0/"><ServiceMetadata><ServiceInformation><Extension>line one&#xD;
line two</Extension></ServiceInformation></ServiceMetadata></SignedServiceMetadata>`

func TestSignAndVerify(t *testing.T) {
	kp := testKeyProvider(t)
	signer := NewSigner(kp)

	signed, err := signer.Sign(context.Background(), []byte(unsigned))
	require.NoError(t, err)

	out := string(signed)
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`))
	assert.Contains(t, out, "line one&#13;")
	assert.NotContains(t, out, "&#xD;")
	assert.Contains(t, out, "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256")
	assert.Contains(t, out, "http://www.w3.org/TR/2001/REC-xml-c14n-20010315")

	require.NoError(t, VerifySignature(signed, kp.Certificate()))

	tampered := strings.Replace(out, "line two", "line 2", 1)
	assert.Error(t, VerifySignature([]byte(tampered), kp.Certificate()))

	other := testKeyProvider(t)
	assert.Error(t, VerifySignature(signed, other.Certificate()))
}

func TestSignIntoContainer(t *testing.T) {
	kp := testKeyProvider(t)
	doc := `<Root xmlns="urn:test"><Ext xmlns="urn:ext"><Content/></Ext><Body>x</Body></Root>`

	signed, err := NewSigner(kp).SignInto(context.Background(), []byte(doc), "Ext/Content")
	require.NoError(t, err)
	assert.Contains(t, string(signed), "<Content><ds:Signature")
	assert.Contains(t, string(signed), "http://www.w3.org/2001/10/xml-exc-c14n#")
	require.NoError(t, VerifySignature(signed, kp.Certificate()))

	_, err = NewSigner(kp).SignInto(context.Background(), []byte(doc), "Missing")
	assert.Error(t, err)
}

func TestSignWithoutKey(t *testing.T) {
	var signer *Signer
	_, err := signer.Sign(context.Background(), []byte(unsigned))
	assert.Error(t, err)
}

func TestAuthBasic(t *testing.T) {
	ctx := context.Background()
	stores := memstore.NewBackend().Stores()
	auth := NewAuthService(stores.Users)

	_, err := auth.SetPassword(ctx, "alice", "secret")
	require.NoError(t, err)

	user, err := auth.AuthBasic(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.ID)

	_, err = auth.AuthBasic(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrAuthenticationMissing)

	_, err = auth.AuthBasic(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, domain.ErrAuthenticationMissing)

	_, err = auth.SetPassword(ctx, "alice", "changed")
	require.NoError(t, err)
	_, err = auth.AuthBasic(ctx, "alice", "secret")
	assert.ErrorIs(t, err, domain.ErrAuthenticationMissing)
}

func TestAuthBasicSeesPasswordChangedElsewhere(t *testing.T) {
	ctx := context.Background()
	stores := memstore.NewBackend().Stores()
	server := NewAuthService(stores.Users)
	admin := NewAuthService(stores.Users)

	_, err := admin.SetPassword(ctx, "alice", "secret")
	require.NoError(t, err)
	_, err = server.AuthBasic(ctx, "alice", "secret")
	require.NoError(t, err)

	_, err = admin.SetPassword(ctx, "alice", "changed")
	require.NoError(t, err)

	_, err = server.AuthBasic(ctx, "alice", "secret")
	assert.ErrorIs(t, err, domain.ErrAuthenticationMissing)
	user, err := server.AuthBasic(ctx, "alice", "changed")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.ID)
}

type mockPublisher struct {
	events []domain.ChangeEvent
}

func (m *mockPublisher) Publish(_ context.Context, event domain.ChangeEvent) error {
	m.events = append(m.events, event)
	return nil
}

func TestChangePublisher(t *testing.T) {
	pub := &mockPublisher{}
	p := NewChangePublisher(pub)
	id := smp.Identifier{Scheme: "iso6523-actorid-upis", Value: "9915:test"}
	doc := smp.Identifier{Scheme: "busdox-docid-qns", Value: "urn:doc"}

	p.ServiceGroupCreatedOrUpdated(context.Background(), domain.ServiceGroup{ID: id})
	p.RedirectDeleted(context.Background(), domain.ServiceMetadataKey{ServiceGroupID: id, DocumentTypeID: doc})

	require.Len(t, pub.events, 2)
	assert.Equal(t, domain.ChangeServiceGroup, pub.events[0].Entity)
	assert.Nil(t, pub.events[0].DocumentTypeID)
	assert.Equal(t, domain.ChangeActionDelete, pub.events[1].Action)
	assert.Equal(t, doc, *pub.events[1].DocumentTypeID)
}
