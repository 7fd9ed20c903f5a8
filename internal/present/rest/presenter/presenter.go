package presenter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"

	"github.com/totegamma/smp/internal/domain"
	"github.com/totegamma/smp/schemas"
)

const contentTypeXML = "application/xml; charset=UTF-8"

type errorResponse struct {
	Error string `json:"error"`
}

// XML writes an already serialized document.
func XML(c echo.Context, body []byte) error {
	return c.Blob(http.StatusOK, contentTypeXML, body)
}

// Saved answers a successful PUT.
func Saved(c echo.Context, created bool) error {
	if created {
		return c.NoContent(http.StatusCreated)
	}
	return c.NoContent(http.StatusOK)
}

// Deleted answers a successful DELETE.
func Deleted(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// StatusOf maps an error to the HTTP status of the protocol.
func StatusOf(err error) int {
	var derr *schemas.DecodeError
	if errors.As(err, &derr) {
		return http.StatusBadRequest
	}

	switch domain.KindOf(err) {
	case domain.KindInvalidIdentifier,
		domain.KindMalformedPayload,
		domain.KindNotOwner,
		domain.KindConflict,
		domain.KindConflictingResourceType:
		return http.StatusBadRequest
	case domain.KindAuthenticationMissing:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err with the status StatusOf assigns to it. Server faults do
// not expose their cause.
func Error(c echo.Context, err error) error {
	status := StatusOf(err)
	ctx := c.Request().Context()

	reason := err.Error()
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(
			ctx, "request failed",
			slog.String("method", c.Request().Method),
			slog.String("path", c.Request().URL.Path),
			slog.String("error", err.Error()),
			slog.String("trace", trace.SpanFromContext(ctx).SpanContext().TraceID().String()),
			slog.String("module", "rest"),
		)
		reason = http.StatusText(status)
	} else {
		slog.DebugContext(
			ctx, "request rejected",
			slog.Int("status", status),
			slog.String("error", err.Error()),
			slog.String("module", "rest"),
		)
	}

	if status == http.StatusUnauthorized {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Basic realm="SMP"`)
	}
	return c.JSON(status, errorResponse{Error: reason})
}

// NotFound answers 404 without revealing why the resource is unavailable.
func NotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
}
