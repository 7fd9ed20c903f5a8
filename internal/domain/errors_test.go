package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	smp "github.com/totegamma/smp"
)

func TestErrorKindMatching(t *testing.T) {
	err := NotFound("service group")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrNotOwner))
	assert.Equal(t, "service group not found", err.Error())

	wrapped := fmt.Errorf("handler: %w", NotOwner("service group"))
	assert.True(t, errors.Is(wrapped, ErrNotOwner))
	assert.Equal(t, KindNotOwner, KindOf(wrapped))

	wrappedPkg := pkgerrors.Wrap(ConflictingResourceType("redirect exists"), "create")
	assert.True(t, errors.Is(wrappedPkg, ErrConflictingResourceType))
}

func TestInvalidIdentifierMessage(t *testing.T) {
	_, perr := smp.Parse(smp.ModeSimple, smp.KindParticipant, "no-separator")
	assert.Error(t, perr)

	err := InvalidIdentifier(perr)
	assert.Equal(t, perr.Error(), err.Error())
	assert.Equal(t, 1, strings.Count(err.Error(), "no-separator"))
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))

	var invalid *smp.InvalidIdentifierError
	assert.True(t, errors.As(err, &invalid))
}

func TestStorageFailureKeepsDomainErrors(t *testing.T) {
	assert.Nil(t, StorageFailure(nil))

	inner := Conflict("service group")
	assert.Same(t, inner, StorageFailure(inner))

	plain := StorageFailure(errors.New("connection refused"))
	assert.True(t, errors.Is(plain, ErrStorageFailure))
	assert.Contains(t, plain.Error(), "connection refused")
}
