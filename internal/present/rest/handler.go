package rest

import (
	"io"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/config"
	"github.com/totegamma/smp/internal/domain"
	"github.com/totegamma/smp/internal/present/rest/middleware"
	"github.com/totegamma/smp/internal/present/rest/presenter"
	"github.com/totegamma/smp/internal/service"
	"github.com/totegamma/smp/internal/usecase"
	"github.com/totegamma/smp/schemas"
)

const (
	snapshotKey  = "smp-snapshot"
	maxBodyBytes = 4 << 20
)

type Handler struct {
	conf     *config.Holder
	groups   *usecase.ServiceGroupUsecase
	metadata *usecase.ServiceMetadataUsecase
	cards    *usecase.BusinessCardUsecase
	signer   *service.Signer
	signal   *service.SignalService
	auth     *middleware.AuthMiddleware
}

// NewHandler wires the REST surface. signal may be nil, which disables the
// change feed.
func NewHandler(
	conf *config.Holder,
	groups *usecase.ServiceGroupUsecase,
	metadata *usecase.ServiceMetadataUsecase,
	cards *usecase.BusinessCardUsecase,
	signer *service.Signer,
	signal *service.SignalService,
	auth *middleware.AuthMiddleware,
) *Handler {
	return &Handler{
		conf:     conf,
		groups:   groups,
		metadata: metadata,
		cards:    cards,
		signer:   signer,
		signal:   signal,
		auth:     auth,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	for _, prefix := range []string{"", smp.BDXRv2PathPrefix} {
		gate := h.flavorGate(prefix)
		read := []echo.MiddlewareFunc{gate}
		write := []echo.MiddlewareFunc{gate, h.auth.Writable, h.auth.RequireUser}

		e.GET(prefix+"/:participant", h.handleGetServiceGroup, read...)
		e.PUT(prefix+"/:participant", h.handlePutServiceGroup, write...)
		e.DELETE(prefix+"/:participant", h.handleDeleteServiceGroup, write...)
		e.GET(prefix+"/:participant/services/:document", h.handleGetServiceMetadata, read...)
		e.PUT(prefix+"/:participant/services/:document", h.handlePutServiceMetadata, write...)
		e.DELETE(prefix+"/:participant/services/:document", h.handleDeleteServiceMetadata, write...)
	}

	e.GET("/complete/:participant", h.handleComplete, h.peppolOnly)
	e.GET("/list/:user", h.handleList, h.peppolOnly, h.auth.RequireUser)

	e.GET("/businesscard/:participant", h.handleGetBusinessCard, h.directoryGate)
	e.PUT("/businesscard/:participant", h.handlePutBusinessCard, h.directoryGate, h.auth.Writable, h.auth.RequireUser)
	e.DELETE("/businesscard/:participant", h.handleDeleteBusinessCard, h.directoryGate, h.auth.Writable, h.auth.RequireUser)

	e.GET("/changes", h.handleChanges, h.auth.RequireUser)
}

// flavorGate admits requests under prefix only while the configured flavor
// is served there.
func (h *Handler) flavorGate(prefix string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap := h.conf.Current()
			if snap.Flavor.PathPrefix() != prefix {
				return presenter.NotFound(c)
			}
			c.Set(snapshotKey, snap)
			return next(c)
		}
	}
}

func (h *Handler) peppolOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap := h.conf.Current()
		if snap.Flavor != smp.FlavorPeppolV1 {
			return presenter.NotFound(c)
		}
		c.Set(snapshotKey, snap)
		return next(c)
	}
}

func (h *Handler) directoryGate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap := h.conf.Current()
		if !snap.Directory.Enabled {
			return presenter.NotFound(c)
		}
		c.Set(snapshotKey, snap)
		return next(c)
	}
}

func (h *Handler) snapshot(c echo.Context) *config.Snapshot {
	if snap, ok := c.Get(snapshotKey).(*config.Snapshot); ok {
		return snap
	}
	return h.conf.Current()
}

// escapedParam returns a path parameter in its percent-encoded form. echo
// matches routes against the decoded path unless the request's escaping
// differs from the default one, in which case parameters stay encoded.
func escapedParam(c echo.Context, name string) string {
	v := c.Param(name)
	if c.Request().URL.RawPath == "" {
		return url.PathEscape(v)
	}
	return v
}

// decodedParam returns a path parameter with percent-encoding removed.
func decodedParam(c echo.Context, name string) string {
	v := c.Param(name)
	if c.Request().URL.RawPath == "" {
		return v
	}
	if d, err := url.PathUnescape(v); err == nil {
		return d
	}
	return v
}

func parseParticipant(snap *config.Snapshot, c echo.Context) (smp.Identifier, error) {
	id, err := snap.Identifiers().ParseParticipant(escapedParam(c, "participant"))
	if err != nil {
		return smp.Identifier{}, domain.InvalidIdentifier(err)
	}
	return id, nil
}

func parseKey(snap *config.Snapshot, c echo.Context) (domain.ServiceMetadataKey, error) {
	pid, err := parseParticipant(snap, c)
	if err != nil {
		return domain.ServiceMetadataKey{}, err
	}
	did, err := snap.Identifiers().ParseDocumentType(escapedParam(c, "document"))
	if err != nil {
		return domain.ServiceMetadataKey{}, domain.InvalidIdentifier(err)
	}
	return domain.ServiceMetadataKey{ServiceGroupID: pid, DocumentTypeID: did}, nil
}

// matchURL fills an identifier missing from a request body with the one
// from the URL and rejects bodies naming a different resource.
func matchURL(what string, body *smp.Identifier, url smp.Identifier) error {
	if body.IsZero() {
		*body = url
		return nil
	}
	if !body.Equal(url) {
		return domain.MalformedPayload(what+" in body does not match the URL", nil)
	}
	*body = url
	return nil
}

func readBody(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes+1))
	if err != nil {
		return nil, domain.MalformedPayload("failed to read request body", err)
	}
	if len(body) > maxBodyBytes {
		return nil, domain.MalformedPayload("request body too large", nil)
	}
	if len(body) == 0 {
		return nil, domain.MalformedPayload("request body is empty", nil)
	}
	return body, nil
}

// baseURL is the configured public URL or, without one, the URL the request
// was addressed to.
func baseURL(c echo.Context, snap *config.Snapshot) string {
	if snap.Server.PublicURL != "" {
		return strings.TrimSuffix(snap.Server.PublicURL, "/")
	}
	return c.Scheme() + "://" + c.Request().Host
}

func serviceGroupURL(c echo.Context, snap *config.Snapshot, id smp.Identifier) string {
	return baseURL(c, snap) + snap.Flavor.PathPrefix() + "/" + id.URIPercentEncoded()
}

func metadataHref(c echo.Context, snap *config.Snapshot, id smp.Identifier) schemas.HrefFunc {
	group := serviceGroupURL(c, snap, id)
	return func(doc smp.Identifier) string {
		return group + "/services/" + doc.URIPercentEncoded()
	}
}

func requester(c echo.Context) (domain.User, error) {
	user, ok := middleware.Requester(c)
	if !ok {
		return domain.User{}, domain.AuthenticationMissing("basic credentials required")
	}
	return user, nil
}
