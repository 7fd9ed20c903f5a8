package gateway

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/client"
)

var tracer = otel.Tracer("gateway")

// ParticipantManager is the SML operation set used by LocatorGateway.
type ParticipantManager interface {
	CreateParticipant(ctx context.Context, scheme, value string) error
	DeleteParticipant(ctx context.Context, scheme, value string) error
}

// LocatorGateway adapts the SML SOAP client to usecase.Locator.
type LocatorGateway struct {
	sml ParticipantManager
}

func NewLocatorGateway(sml ParticipantManager) *LocatorGateway {
	return &LocatorGateway{sml: sml}
}

var _ ParticipantManager = (*client.SML)(nil)

func (g *LocatorGateway) Register(ctx context.Context, id smp.Identifier) error {
	ctx, span := tracer.Start(ctx, "Gateway.Locator.Register")
	defer span.End()

	id = id.Canonical()
	if err := g.sml.CreateParticipant(ctx, id.Scheme, id.Value); err != nil {
		span.RecordError(err)
		slog.WarnContext(
			ctx, "SML registration failed",
			slog.String("participant", id.URIEncoded()),
			slog.String("error", err.Error()),
			slog.String("module", "gateway"),
		)
		return err
	}
	slog.InfoContext(
		ctx, "registered participant at SML",
		slog.String("participant", id.URIEncoded()),
		slog.String("module", "gateway"),
	)
	return nil
}

func (g *LocatorGateway) Deregister(ctx context.Context, id smp.Identifier) error {
	ctx, span := tracer.Start(ctx, "Gateway.Locator.Deregister")
	defer span.End()

	id = id.Canonical()
	if err := g.sml.DeleteParticipant(ctx, id.Scheme, id.Value); err != nil {
		span.RecordError(err)
		return err
	}
	slog.InfoContext(
		ctx, "deregistered participant at SML",
		slog.String("participant", id.URIEncoded()),
		slog.String("module", "gateway"),
	)
	return nil
}
