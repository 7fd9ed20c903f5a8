package rest

import (
	"github.com/labstack/echo/v4"

	"github.com/totegamma/smp/internal/present/rest/presenter"
	"github.com/totegamma/smp/schemas"
)

func (h *Handler) handleGetBusinessCard(c echo.Context) error {
	ctx := c.Request().Context()
	snap := h.snapshot(c)

	id, err := parseParticipant(snap, c)
	if err != nil {
		return presenter.Error(c, err)
	}

	bc, err := h.cards.Get(ctx, id)
	if err != nil {
		return presenter.Error(c, err)
	}

	body, err := schemas.EncodeBusinessCard(bc)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.XML(c, body)
}

func (h *Handler) handlePutBusinessCard(c echo.Context) error {
	ctx := c.Request().Context()
	snap := h.snapshot(c)

	user, err := requester(c)
	if err != nil {
		return presenter.Error(c, err)
	}
	id, err := parseParticipant(snap, c)
	if err != nil {
		return presenter.Error(c, err)
	}
	body, err := readBody(c)
	if err != nil {
		return presenter.Error(c, err)
	}

	bc, err := schemas.DecodeBusinessCard(body)
	if err != nil {
		return presenter.Error(c, err)
	}
	if err := matchURL("participant identifier", &bc.ServiceGroupID, id); err != nil {
		return presenter.Error(c, err)
	}

	created, err := h.cards.Save(ctx, user, bc)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Saved(c, created)
}

func (h *Handler) handleDeleteBusinessCard(c echo.Context) error {
	ctx := c.Request().Context()
	snap := h.snapshot(c)

	user, err := requester(c)
	if err != nil {
		return presenter.Error(c, err)
	}
	id, err := parseParticipant(snap, c)
	if err != nil {
		return presenter.Error(c, err)
	}

	if err := h.cards.Delete(ctx, user, id); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Deleted(c)
}
