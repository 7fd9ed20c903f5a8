package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
	"github.com/totegamma/smp/internal/infra/database"
	"github.com/totegamma/smp/internal/usecase"
)

var (
	participant = smp.Identifier{Scheme: "iso6523-actorid-upis", Value: "9915:test"}
	invoice     = smp.Identifier{Scheme: "busdox-docid-qns", Value: "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2::Invoice"}
	order       = smp.Identifier{Scheme: "busdox-docid-qns", Value: "urn:oasis:names:specification:ubl:schema:xsd:Order-2::Order"}
)

func setupStores(t *testing.T) usecase.Stores {
	t.Helper()
	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return NewStores(db)
}

type deleteCounter struct {
	groups int
}

func (d *deleteCounter) ServiceGroupCreatedOrUpdated(context.Context, domain.ServiceGroup) {}

func (d *deleteCounter) ServiceGroupDeleted(context.Context, smp.Identifier) {
	d.groups++
}

// cascadeRecorder records the deletions reported by the stores.
type cascadeRecorder struct {
	deleted []string
}

func (c *cascadeRecorder) ServiceGroupCreatedOrUpdated(context.Context, domain.ServiceGroup) {}

func (c *cascadeRecorder) ServiceGroupDeleted(_ context.Context, id smp.Identifier) {
	c.deleted = append(c.deleted, "group "+id.URIEncoded())
}

func (c *cascadeRecorder) ServiceInformationCreatedOrUpdated(context.Context, domain.ServiceInformation) {}

func (c *cascadeRecorder) ServiceInformationDeleted(_ context.Context, key domain.ServiceMetadataKey) {
	c.deleted = append(c.deleted, "information "+key.DocumentTypeID.URIEncoded())
}

func (c *cascadeRecorder) RedirectCreatedOrUpdated(context.Context, domain.Redirect) {}

func (c *cascadeRecorder) RedirectDeleted(_ context.Context, key domain.ServiceMetadataKey) {
	c.deleted = append(c.deleted, "redirect "+key.DocumentTypeID.URIEncoded())
}

func (c *cascadeRecorder) BusinessCardCreatedOrUpdated(context.Context, domain.BusinessCard) {}

func (c *cascadeRecorder) BusinessCardDeleted(_ context.Context, id smp.Identifier) {
	c.deleted = append(c.deleted, "card "+id.URIEncoded())
}

func TestServiceGroupRepository(t *testing.T) {
	ctx := context.Background()
	stores := setupStores(t)
	counter := &deleteCounter{}
	stores.ServiceGroups.AddListener(counter)

	_, err := stores.ServiceGroups.Create(ctx, domain.ServiceGroup{ID: participant, OwnerID: "alice", Extension: "<Ext/>"})
	require.NoError(t, err)

	_, err = stores.ServiceGroups.Create(ctx, domain.ServiceGroup{ID: participant, OwnerID: "bob"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	sg, err := stores.ServiceGroups.Get(ctx, smp.Identifier{Scheme: participant.Scheme, Value: "9915:TEST"})
	require.NoError(t, err)
	require.NotNil(t, sg)
	assert.Equal(t, "alice", sg.OwnerID)
	assert.Equal(t, "<Ext/>", sg.Extension)

	_, err = stores.ServiceGroups.Update(ctx, domain.ServiceGroup{ID: participant, OwnerID: "alice", Extension: ""})
	require.NoError(t, err)
	sg, err = stores.ServiceGroups.Get(ctx, participant)
	require.NoError(t, err)
	assert.Empty(t, sg.Extension)

	_, err = stores.ServiceGroups.Update(ctx, domain.ServiceGroup{ID: smp.Identifier{Scheme: participant.Scheme, Value: "9915:other"}, OwnerID: "alice"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	groups, err := stores.ServiceGroups.List(ctx, domain.ServiceGroupFilter{OwnerID: "bob"})
	require.NoError(t, err)
	assert.Empty(t, groups)

	change, err := stores.ServiceGroups.Delete(ctx, participant)
	require.NoError(t, err)
	assert.True(t, change.IsChanged())
	change, err = stores.ServiceGroups.Delete(ctx, participant)
	require.NoError(t, err)
	assert.False(t, change.IsChanged())
	assert.Equal(t, 1, counter.groups)

	missing, err := stores.ServiceGroups.Get(ctx, participant)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestServiceMetadataRepository(t *testing.T) {
	ctx := context.Background()
	stores := setupStores(t)

	key := domain.ServiceMetadataKey{ServiceGroupID: participant, DocumentTypeID: invoice}
	_, err := stores.ServiceInformation.Create(ctx, domain.ServiceInformation{ServiceGroupID: participant, DocumentTypeID: invoice})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = stores.ServiceGroups.Create(ctx, domain.ServiceGroup{ID: participant, OwnerID: "alice"})
	require.NoError(t, err)

	si := domain.ServiceInformation{
		ServiceGroupID: participant,
		DocumentTypeID: invoice,
		Processes: []domain.Process{{
			ProcessID: smp.Identifier{Scheme: "cenbii-procid-ubl", Value: "urn:www.cenbii.eu:profile:bii04:ver1.0"},
			Endpoints: []domain.Endpoint{{
				TransportProfile:  "busdox-transport-as2-ver1p0",
				EndpointReference: "https://ap.example.com/as2",
				Certificate:       "MIIB",
			}},
		}},
	}
	_, err = stores.ServiceInformation.Create(ctx, si)
	require.NoError(t, err)

	_, err = stores.Redirects.Create(ctx, domain.Redirect{ServiceGroupID: participant, DocumentTypeID: invoice, TargetHref: "https://smp2.example.com"})
	assert.ErrorIs(t, err, domain.ErrConflictingResourceType)

	got, err := stores.ServiceInformation.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Processes, 1)
	assert.Equal(t, "https://ap.example.com/as2", got.Processes[0].Endpoints[0].EndpointReference)

	si.Extension = "<Ext/>"
	_, err = stores.ServiceInformation.Update(ctx, si)
	require.NoError(t, err)
	got, err = stores.ServiceInformation.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "<Ext/>", got.Extension)

	_, err = stores.Redirects.Create(ctx, domain.Redirect{ServiceGroupID: participant, DocumentTypeID: order, TargetHref: "https://smp2.example.com"})
	require.NoError(t, err)
	_, err = stores.ServiceInformation.Create(ctx, domain.ServiceInformation{ServiceGroupID: participant, DocumentTypeID: order})
	assert.ErrorIs(t, err, domain.ErrConflictingResourceType)

	redirects, err := stores.Redirects.List(ctx, participant)
	require.NoError(t, err)
	require.Len(t, redirects, 1)
	assert.Equal(t, order, redirects[0].DocumentTypeID)

	change, err := stores.ServiceInformation.Delete(ctx, key)
	require.NoError(t, err)
	assert.True(t, change.IsChanged())
	change, err = stores.ServiceInformation.Delete(ctx, key)
	require.NoError(t, err)
	assert.False(t, change.IsChanged())
}

func TestServiceGroupDeleteCascades(t *testing.T) {
	ctx := context.Background()
	stores := setupStores(t)

	_, err := stores.ServiceGroups.Create(ctx, domain.ServiceGroup{ID: participant, OwnerID: "alice"})
	require.NoError(t, err)
	_, err = stores.ServiceInformation.Create(ctx, domain.ServiceInformation{ServiceGroupID: participant, DocumentTypeID: invoice})
	require.NoError(t, err)
	_, err = stores.Redirects.Create(ctx, domain.Redirect{ServiceGroupID: participant, DocumentTypeID: order, TargetHref: "https://smp2.example.com"})
	require.NoError(t, err)
	_, err = stores.BusinessCards.Create(ctx, domain.BusinessCard{
		ServiceGroupID: participant,
		Entities:       []domain.BusinessEntity{{Name: "ACME", CountryCode: "AT"}},
	})
	require.NoError(t, err)

	rec := &cascadeRecorder{}
	stores.ServiceGroups.AddListener(rec)
	stores.ServiceInformation.AddListener(rec)
	stores.Redirects.AddListener(rec)
	stores.BusinessCards.AddListener(rec)

	_, err = stores.ServiceGroups.Delete(ctx, participant)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"information " + invoice.URIEncoded(),
		"redirect " + order.URIEncoded(),
		"card " + participant.URIEncoded(),
		"group " + participant.URIEncoded(),
	}, rec.deleted)

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

func TestBusinessCardRepository(t *testing.T) {
	ctx := context.Background()
	stores := setupStores(t)
	_, err := stores.ServiceGroups.Create(ctx, domain.ServiceGroup{ID: participant, OwnerID: "alice"})
	require.NoError(t, err)

	bc := domain.BusinessCard{
		ServiceGroupID: participant,
		Entities: []domain.BusinessEntity{{
			Name:        "ACME",
			CountryCode: "AT",
			Identifiers: []domain.BusinessIdentifier{{Scheme: "VAT", Value: "ATU123"}},
		}},
	}
	_, err = stores.BusinessCards.Update(ctx, bc)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = stores.BusinessCards.Create(ctx, bc)
	require.NoError(t, err)
	_, err = stores.BusinessCards.Create(ctx, bc)
	assert.ErrorIs(t, err, domain.ErrConflict)

	cards, err := stores.BusinessCards.List(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "ATU123", cards[0].Entities[0].Identifiers[0].Value)
}

func TestUsersAndFaults(t *testing.T) {
	ctx := context.Background()
	stores := setupStores(t)

	_, err := stores.Users.Create(ctx, domain.User{ID: "alice", PasswordHash: "x"})
	require.NoError(t, err)
	_, err = stores.Users.Create(ctx, domain.User{ID: "alice", PasswordHash: "y"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = stores.Users.Update(ctx, domain.User{ID: "alice", PasswordHash: "z"})
	require.NoError(t, err)
	u, err := stores.Users.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "z", u.PasswordHash)

	none, err := stores.Users.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, stores.Faults.Record(ctx, domain.ReconciliationFault{ParticipantID: participant, Operation: domain.OperationDeregister, Reason: "timeout"}))
	faults, err := stores.Faults.List(ctx)
	require.NoError(t, err)
	require.Len(t, faults, 1)
	assert.Equal(t, participant, faults[0].ParticipantID)
}
