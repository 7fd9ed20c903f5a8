package gateway

import (
	"context"
	"log/slog"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/client"
	"github.com/totegamma/smp/internal/config"
	"github.com/totegamma/smp/internal/domain"
)

// Indexer is the Directory operation set used by DirectoryGateway.
type Indexer interface {
	Index(ctx context.Context, participantURI string) error
	Remove(ctx context.Context, participantURI string) error
}

var _ Indexer = (*client.Directory)(nil)

// DirectoryGateway forwards business card changes to the Directory. It
// listens to business card and service group changes; failures are logged
// and never reach the writer.
type DirectoryGateway struct {
	indexer Indexer
	conf    *config.Holder
}

func NewDirectoryGateway(indexer Indexer, conf *config.Holder) *DirectoryGateway {
	return &DirectoryGateway{
		indexer: indexer,
		conf:    conf,
	}
}

func (g *DirectoryGateway) enabled() bool {
	return g.conf.Current().Directory.Enabled
}

func (g *DirectoryGateway) index(ctx context.Context, id smp.Identifier) {
	if !g.enabled() {
		return
	}
	ctx, span := tracer.Start(context.WithoutCancel(ctx), "Gateway.Directory.Index")
	defer span.End()

	if err := g.indexer.Index(ctx, id.URIEncoded()); err != nil {
		span.RecordError(err)
		slog.ErrorContext(
			ctx, "directory index request failed",
			slog.String("participant", id.URIEncoded()),
			slog.String("error", err.Error()),
			slog.String("module", "gateway"),
		)
	}
}

func (g *DirectoryGateway) remove(ctx context.Context, id smp.Identifier) {
	if !g.enabled() {
		return
	}
	ctx, span := tracer.Start(context.WithoutCancel(ctx), "Gateway.Directory.Remove")
	defer span.End()

	if err := g.indexer.Remove(ctx, id.URIEncoded()); err != nil {
		span.RecordError(err)
		slog.ErrorContext(
			ctx, "directory remove request failed",
			slog.String("participant", id.URIEncoded()),
			slog.String("error", err.Error()),
			slog.String("module", "gateway"),
		)
	}
}

func (g *DirectoryGateway) BusinessCardCreatedOrUpdated(ctx context.Context, bc domain.BusinessCard) {
	g.index(ctx, bc.ServiceGroupID)
}

func (g *DirectoryGateway) BusinessCardDeleted(ctx context.Context, id smp.Identifier) {
	g.remove(ctx, id)
}

