package rest

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
	"github.com/totegamma/smp/internal/present/rest/presenter"
	"github.com/totegamma/smp/schemas"
)

// handleGetServiceMetadata answers with a freshly signed document. A
// signing failure aborts with a bare 500.
func (h *Handler) handleGetServiceMetadata(c echo.Context) error {
	ctx := c.Request().Context()
	snap := h.snapshot(c)

	key, err := parseKey(snap, c)
	if err != nil {
		return presenter.Error(c, err)
	}

	sm, err := h.metadata.Get(ctx, key)
	if err != nil {
		return presenter.Error(c, err)
	}

	codec := schemas.ForFlavor(snap.Flavor)
	doc, err := codec.EncodeServiceMetadata(sm)
	if err != nil {
		return presenter.Error(c, err)
	}

	signed, err := h.signer.SignInto(ctx, doc, codec.SignatureContainer())
	if err != nil {
		slog.ErrorContext(
			ctx, "failed to sign service metadata",
			slog.String("key", key.String()),
			slog.String("error", domain.SigningFailure(err).Error()),
			slog.String("module", "rest"),
		)
		return c.NoContent(http.StatusInternalServerError)
	}
	return presenter.XML(c, signed)
}

func (h *Handler) handlePutServiceMetadata(c echo.Context) error {
	ctx := c.Request().Context()
	snap := h.snapshot(c)

	user, err := requester(c)
	if err != nil {
		return presenter.Error(c, err)
	}
	key, err := parseKey(snap, c)
	if err != nil {
		return presenter.Error(c, err)
	}
	body, err := readBody(c)
	if err != nil {
		return presenter.Error(c, err)
	}

	sm, err := schemas.ForFlavor(snap.Flavor).DecodeServiceMetadata(body)
	if err != nil {
		return presenter.Error(c, err)
	}

	switch {
	case sm.Information != nil:
		err = matchKey(&sm.Information.ServiceGroupID, &sm.Information.DocumentTypeID, key)
	case sm.Redirect != nil:
		err = matchKey(&sm.Redirect.ServiceGroupID, &sm.Redirect.DocumentTypeID, key)
	}
	if err != nil {
		return presenter.Error(c, err)
	}

	created, err := h.metadata.Save(ctx, user, sm)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Saved(c, created)
}

func matchKey(participant, document *smp.Identifier, key domain.ServiceMetadataKey) error {
	if err := matchURL("participant identifier", participant, key.ServiceGroupID); err != nil {
		return err
	}
	return matchURL("document type identifier", document, key.DocumentTypeID)
}

func (h *Handler) handleDeleteServiceMetadata(c echo.Context) error {
	ctx := c.Request().Context()
	snap := h.snapshot(c)

	user, err := requester(c)
	if err != nil {
		return presenter.Error(c, err)
	}
	key, err := parseKey(snap, c)
	if err != nil {
		return presenter.Error(c, err)
	}

	if err := h.metadata.Delete(ctx, user, key); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Deleted(c)
}
