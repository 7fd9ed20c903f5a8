package memstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
)

var (
	participant = smp.Identifier{Scheme: "iso6523-actorid-upis", Value: "0088:ABC"}
	docType     = smp.Identifier{Scheme: "busdox-docid-qns", Value: "urn:doc::invoice"}
)

type recordingListener struct {
	mu     sync.Mutex
	events []string
}

func (l *recordingListener) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *recordingListener) ServiceGroupCreatedOrUpdated(_ context.Context, sg domain.ServiceGroup) {
	l.add("sg:put:" + sg.ID.URIEncoded())
}

func (l *recordingListener) ServiceGroupDeleted(_ context.Context, id smp.Identifier) {
	l.add("sg:delete:" + id.URIEncoded())
}

func (l *recordingListener) ServiceInformationCreatedOrUpdated(_ context.Context, si domain.ServiceInformation) {
	l.add("si:put:" + si.DocumentTypeID.URIEncoded())
}

func (l *recordingListener) ServiceInformationDeleted(_ context.Context, key domain.ServiceMetadataKey) {
	l.add("si:delete:" + key.DocumentTypeID.URIEncoded())
}

func (l *recordingListener) RedirectCreatedOrUpdated(_ context.Context, r domain.Redirect) {
	l.add("redirect:put:" + r.DocumentTypeID.URIEncoded())
}

func (l *recordingListener) RedirectDeleted(_ context.Context, key domain.ServiceMetadataKey) {
	l.add("redirect:delete:" + key.DocumentTypeID.URIEncoded())
}

func (l *recordingListener) BusinessCardCreatedOrUpdated(_ context.Context, bc domain.BusinessCard) {
	l.add("card:put:" + bc.ServiceGroupID.URIEncoded())
}

func (l *recordingListener) BusinessCardDeleted(_ context.Context, id smp.Identifier) {
	l.add("card:delete:" + id.URIEncoded())
}

func TestServiceGroupLifecycle(t *testing.T) {
	ctx := context.Background()
	stores := NewBackend().Stores()
	rec := &recordingListener{}
	stores.ServiceGroups.AddListener(rec)

	_, err := stores.ServiceGroups.Create(ctx, domain.ServiceGroup{ID: participant, OwnerID: "alice"})
	require.NoError(t, err)

	_, err = stores.ServiceGroups.Create(ctx, domain.ServiceGroup{ID: participant, OwnerID: "bob"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	upper := smp.Identifier{Scheme: "iso6523-actorid-upis", Value: "0088:Abc"}
	sg, err := stores.ServiceGroups.Get(ctx, upper)
	require.NoError(t, err)
	require.NotNil(t, sg)
	assert.Equal(t, "alice", sg.OwnerID)

	owned, err := stores.ServiceGroups.List(ctx, domain.ServiceGroupFilter{OwnerID: "alice"})
	require.NoError(t, err)
	assert.Len(t, owned, 1)

	change, err := stores.ServiceGroups.Delete(ctx, participant)
	require.NoError(t, err)
	assert.Equal(t, domain.Changed, change)

	change, err = stores.ServiceGroups.Delete(ctx, participant)
	require.NoError(t, err)
	assert.Equal(t, domain.Unchanged, change)

	assert.Equal(t, []string{
		"sg:put:iso6523-actorid-upis::0088:abc",
		"sg:delete:iso6523-actorid-upis::0088:abc",
	}, rec.events)
}

func TestMetadataRequiresServiceGroup(t *testing.T) {
	ctx := context.Background()
	stores := NewBackend().Stores()

	_, err := stores.ServiceInformation.Create(ctx, domain.ServiceInformation{ServiceGroupID: participant, DocumentTypeID: docType})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = stores.BusinessCards.Create(ctx, domain.BusinessCard{ServiceGroupID: participant})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInformationAndRedirectAreExclusive(t *testing.T) {
	ctx := context.Background()
	stores := NewBackend().Stores()
	_, err := stores.ServiceGroups.Create(ctx, domain.ServiceGroup{ID: participant, OwnerID: "alice"})
	require.NoError(t, err)

	si := domain.ServiceInformation{
		ServiceGroupID: participant,
		DocumentTypeID: docType,
		Processes:      []domain.Process{{ProcessID: smp.Identifier{Scheme: "cenbii-procid-ubl", Value: "p1"}}},
	}
	_, err = stores.ServiceInformation.Create(ctx, si)
	require.NoError(t, err)

	_, err = stores.Redirects.Create(ctx, domain.Redirect{ServiceGroupID: participant, DocumentTypeID: docType, TargetHref: "https://other.example.com"})
	assert.ErrorIs(t, err, domain.ErrConflictingResourceType)

	got, err := stores.ServiceInformation.Get(ctx, si.Key())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "p1", got.Processes[0].ProcessID.Value)

	r, err := stores.Redirects.Get(ctx, si.Key())
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestServiceGroupDeleteCascades(t *testing.T) {
	ctx := context.Background()
	stores := NewBackend().Stores()
	_, err := stores.ServiceGroups.Create(ctx, domain.ServiceGroup{ID: participant, OwnerID: "alice"})
	require.NoError(t, err)

	other := smp.Identifier{Scheme: "busdox-docid-qns", Value: "urn:doc::order"}
	_, err = stores.ServiceInformation.Create(ctx, domain.ServiceInformation{ServiceGroupID: participant, DocumentTypeID: docType})
	require.NoError(t, err)
	_, err = stores.Redirects.Create(ctx, domain.Redirect{ServiceGroupID: participant, DocumentTypeID: other, TargetHref: "https://other.example.com"})
	require.NoError(t, err)
	_, err = stores.BusinessCards.Create(ctx, domain.BusinessCard{ServiceGroupID: participant, Entities: []domain.BusinessEntity{{Name: "ACME", CountryCode: "AT"}}})
	require.NoError(t, err)

	rec := &recordingListener{}
	stores.ServiceGroups.AddListener(rec)
	stores.ServiceInformation.AddListener(rec)
	stores.Redirects.AddListener(rec)
	stores.BusinessCards.AddListener(rec)

	_, err = stores.ServiceGroups.Delete(ctx, participant)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"si:delete:" + docType.URIEncoded(),
		"redirect:delete:" + other.URIEncoded(),
		"card:delete:iso6523-actorid-upis::0088:abc",
		"sg:delete:iso6523-actorid-upis::0088:abc",
	}, rec.events)

	infos, err := stores.ServiceInformation.List(ctx, participant)
	require.NoError(t, err)
	assert.Empty(t, infos)
	redirects, err := stores.Redirects.List(ctx, participant)
	require.NoError(t, err)
	assert.Empty(t, redirects)
	bc, err := stores.BusinessCards.Get(ctx, participant)
	require.NoError(t, err)
	assert.Nil(t, bc)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	stores := NewBackend().Stores()
	_, err := stores.ServiceGroups.Create(ctx, domain.ServiceGroup{ID: participant, OwnerID: "alice"})
	require.NoError(t, err)
	_, err = stores.ServiceInformation.Create(ctx, domain.ServiceInformation{
		ServiceGroupID: participant,
		DocumentTypeID: docType,
		Processes:      []domain.Process{{ProcessID: smp.Identifier{Scheme: "cenbii-procid-ubl", Value: "p1"}}},
	})
	require.NoError(t, err)

	got, err := stores.ServiceInformation.Get(ctx, domain.ServiceMetadataKey{ServiceGroupID: participant, DocumentTypeID: docType})
	require.NoError(t, err)
	got.Processes[0].ProcessID.Value = "mutated"

	again, err := stores.ServiceInformation.Get(ctx, domain.ServiceMetadataKey{ServiceGroupID: participant, DocumentTypeID: docType})
	require.NoError(t, err)
	assert.Equal(t, "p1", again.Processes[0].ProcessID.Value)
}

func TestFaults(t *testing.T) {
	ctx := context.Background()
	stores := NewBackend().Stores()
	require.NoError(t, stores.Faults.Record(ctx, domain.ReconciliationFault{ParticipantID: participant, Operation: domain.OperationDeregister, Reason: "timeout"}))

	faults, err := stores.Faults.List(ctx)
	require.NoError(t, err)
	require.Len(t, faults, 1)
	assert.False(t, faults[0].Time.IsZero())
}
