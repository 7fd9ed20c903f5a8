package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/smp/internal/config"
	"github.com/totegamma/smp/internal/domain"
	"github.com/totegamma/smp/internal/present/rest/presenter"
	"github.com/totegamma/smp/internal/service"
)

var tracer = otel.Tracer("auth")

type AuthMiddleware struct {
	auth *service.AuthService
	conf *config.Holder
}

func NewAuthMiddleware(
	auth *service.AuthService,
	conf *config.Holder,
) *AuthMiddleware {
	return &AuthMiddleware{
		auth: auth,
		conf: conf,
	}
}

// Writable hides write endpoints while the writable API is disabled.
func (s *AuthMiddleware) Writable(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.conf.Current().SMP.WritableAPIDisabled {
			return presenter.NotFound(c)
		}
		return next(c)
	}
}

// RequireUser authenticates HTTP Basic credentials and stores the user in
// the request context.
func (s *AuthMiddleware) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.RequireUser")
		defer span.End()

		userID, password, ok := c.Request().BasicAuth()
		if !ok || userID == "" {
			return presenter.Error(c, domain.AuthenticationMissing("basic credentials required"))
		}

		user, err := s.auth.AuthBasic(ctx, userID, password)
		if err != nil {
			span.RecordError(err)
			return presenter.Error(c, err)
		}
		span.SetAttributes(attribute.String("RequesterId", user.ID))

		ctx = context.WithValue(c.Request().Context(), domain.RequesterCtxKey, user)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// Requester returns the user RequireUser admitted.
func Requester(c echo.Context) (domain.User, bool) {
	user, ok := c.Request().Context().Value(domain.RequesterCtxKey).(domain.User)
	return user, ok
}
