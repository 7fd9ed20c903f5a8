package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/config"
	"github.com/totegamma/smp/internal/domain"
)

type mockSML struct {
	calls []string
	err   error
}

func (m *mockSML) CreateParticipant(_ context.Context, scheme, value string) error {
	m.calls = append(m.calls, "create "+scheme+"::"+value)
	return m.err
}

func (m *mockSML) DeleteParticipant(_ context.Context, scheme, value string) error {
	m.calls = append(m.calls, "delete "+scheme+"::"+value)
	return m.err
}

func TestLocatorGateway(t *testing.T) {
	sml := &mockSML{}
	g := NewLocatorGateway(sml)
	id := smp.Identifier{Scheme: "iso6523-actorid-upis", Value: "9915:TEST"}

	require.NoError(t, g.Register(context.Background(), id))
	require.NoError(t, g.Deregister(context.Background(), id))
	assert.Equal(t, []string{
		"create iso6523-actorid-upis::9915:test",
		"delete iso6523-actorid-upis::9915:test",
	}, sml.calls)

	sml.err = errors.New("boom")
	assert.Error(t, g.Register(context.Background(), id))
}

type mockIndexer struct {
	calls []string
	err   error
}

func (m *mockIndexer) Index(_ context.Context, uri string) error {
	m.calls = append(m.calls, "index "+uri)
	return m.err
}

func (m *mockIndexer) Remove(_ context.Context, uri string) error {
	m.calls = append(m.calls, "remove "+uri)
	return m.err
}

func holder(t *testing.T, enabled bool) *config.Holder {
	t.Helper()
	snap, err := config.NewSnapshot(config.Config{
		Directory: config.Directory{Enabled: enabled, URL: "https://directory.example.com"},
	})
	require.NoError(t, err)
	return config.NewStaticHolder(snap)
}

func TestDirectoryGateway(t *testing.T) {
	ctx := context.Background()
	id := smp.Identifier{Scheme: "iso6523-actorid-upis", Value: "9915:test"}

	idx := &mockIndexer{err: errors.New("unreachable")}
	g := NewDirectoryGateway(idx, holder(t, true))
	g.BusinessCardCreatedOrUpdated(ctx, domain.BusinessCard{ServiceGroupID: id})
	g.BusinessCardDeleted(ctx, id)
	assert.Equal(t, []string{
		"index iso6523-actorid-upis::9915:test",
		"remove iso6523-actorid-upis::9915:test",
	}, idx.calls)

	disabled := &mockIndexer{}
	NewDirectoryGateway(disabled, holder(t, false)).BusinessCardCreatedOrUpdated(ctx, domain.BusinessCard{ServiceGroupID: id})
	assert.Empty(t, disabled.calls)
}
