package rest

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/smp/internal/present/rest/presenter"
	"github.com/totegamma/smp/schemas"
)

func (h *Handler) handleGetServiceGroup(c echo.Context) error {
	ctx := c.Request().Context()
	snap := h.snapshot(c)

	id, err := parseParticipant(snap, c)
	if err != nil {
		return presenter.Error(c, err)
	}

	sg, docs, err := h.groups.Get(ctx, id)
	if err != nil {
		return presenter.Error(c, err)
	}

	body, err := schemas.ForFlavor(snap.Flavor).EncodeServiceGroup(sg, docs, metadataHref(c, snap, sg.ID))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.XML(c, body)
}

func (h *Handler) handlePutServiceGroup(c echo.Context) error {
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

	sg, err := schemas.ForFlavor(snap.Flavor).DecodeServiceGroup(body)
	if err != nil {
		return presenter.Error(c, err)
	}
	if err := matchURL("participant identifier", &sg.ID, id); err != nil {
		return presenter.Error(c, err)
	}

	created, err := h.groups.Save(ctx, user, sg)
	if err != nil {
		return presenter.Error(c, err)
	}
	if created {
		slog.InfoContext(
			ctx, "service group created",
			slog.String("participant", id.URIEncoded()),
			slog.String("owner", user.ID),
			slog.String("module", "rest"),
		)
	}
	return presenter.Saved(c, created)
}

func (h *Handler) handleDeleteServiceGroup(c echo.Context) error {
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

	if err := h.groups.Delete(ctx, user, id); err != nil {
		return presenter.Error(c, err)
	}
	slog.InfoContext(
		ctx, "service group deleted",
		slog.String("participant", id.URIEncoded()),
		slog.String("owner", user.ID),
		slog.String("module", "rest"),
	)
	return presenter.Deleted(c)
}

func (h *Handler) handleComplete(c echo.Context) error {
	ctx := c.Request().Context()
	snap := h.snapshot(c)

	id, err := parseParticipant(snap, c)
	if err != nil {
		return presenter.Error(c, err)
	}

	csg, err := h.groups.Complete(ctx, id)
	if err != nil {
		return presenter.Error(c, err)
	}

	body, err := schemas.PeppolV1{}.EncodeCompleteServiceGroup(csg, metadataHref(c, snap, csg.ServiceGroup.ID))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.XML(c, body)
}

func (h *Handler) handleList(c echo.Context) error {
	ctx := c.Request().Context()
	snap := h.snapshot(c)

	user, err := requester(c)
	if err != nil {
		return presenter.Error(c, err)
	}

	groups, err := h.groups.ListOwnedBy(ctx, user, decodedParam(c, "user"))
	if err != nil {
		return presenter.Error(c, err)
	}

	hrefs := make([]string, 0, len(groups))
	for _, sg := range groups {
		hrefs = append(hrefs, serviceGroupURL(c, snap, sg.ID))
	}
	body, err := schemas.PeppolV1{}.EncodeServiceGroupReferenceList(hrefs)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.XML(c, body)
}
