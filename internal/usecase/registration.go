package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/config"
	"github.com/totegamma/smp/internal/domain"
)

var tracer = otel.Tracer("usecase")

// RegistrationCoordinator keeps the SML participant mapping in line with the
// local service group lifecycle.
//
// Create registers before the local commit and rolls the registration back
// when the commit fails. Delete commits locally first and deregisters
// afterwards; a failed deregistration is recorded, not compensated.
type RegistrationCoordinator struct {
	locator Locator
	faults  FaultRecorder
	conf    *config.Holder
}

func NewRegistrationCoordinator(locator Locator, faults FaultRecorder, conf *config.Holder) *RegistrationCoordinator {
	return &RegistrationCoordinator{
		locator: locator,
		faults:  faults,
		conf:    conf,
	}
}

func (rc *RegistrationCoordinator) active() bool {
	return rc.locator != nil && rc.conf.Current().SML.Active
}

func (rc *RegistrationCoordinator) Create(ctx context.Context, id smp.Identifier, commit func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "Usecase.RegistrationCoordinator.Create")
	defer span.End()
	span.SetAttributes(attribute.String("participant", id.URIEncoded()))

	if !rc.active() {
		return commit(ctx)
	}

	if err := rc.locator.Register(ctx, id); err != nil {
		span.RecordError(err)
		return domain.LocatorUnavailable(err)
	}

	err := commit(ctx)
	if err == nil {
		return nil
	}
	span.RecordError(err)

	// a concurrent create of the same participant won; the SML entry is theirs
	if errors.Is(err, domain.ErrConflict) {
		return err
	}

	if derr := rc.locator.Deregister(context.WithoutCancel(ctx), id); derr != nil {
		slog.ErrorContext(
			ctx, "compensating SML deregistration failed",
			slog.String("participant", id.URIEncoded()),
			slog.String("error", derr.Error()),
			slog.String("module", "registration"),
		)
		rc.recordFault(ctx, id, domain.OperationDeregister, derr)
	}
	return err
}

func (rc *RegistrationCoordinator) Delete(ctx context.Context, id smp.Identifier, commit func(ctx context.Context) (domain.Change, error)) (domain.Change, error) {
	ctx, span := tracer.Start(ctx, "Usecase.RegistrationCoordinator.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("participant", id.URIEncoded()))

	active := rc.active()

	change, err := commit(ctx)
	if err != nil {
		span.RecordError(err)
		return change, err
	}
	if !change.IsChanged() || !active {
		return change, nil
	}

	if err := rc.locator.Deregister(ctx, id); err != nil {
		span.RecordError(err)
		slog.ErrorContext(
			ctx, "SML deregistration failed after local delete",
			slog.String("participant", id.URIEncoded()),
			slog.String("error", err.Error()),
			slog.String("module", "registration"),
		)
		rc.recordFault(ctx, id, domain.OperationDeregister, err)
	}
	return change, nil
}

func (rc *RegistrationCoordinator) recordFault(ctx context.Context, id smp.Identifier, op string, cause error) {
	if rc.faults == nil {
		return
	}
	fault := domain.ReconciliationFault{
		ParticipantID: id,
		Operation:     op,
		Reason:        cause.Error(),
		Time:          time.Now().UTC(),
	}
	if err := rc.faults.Record(context.WithoutCancel(ctx), fault); err != nil {
		slog.ErrorContext(
			ctx, "failed to record reconciliation fault",
			slog.String("participant", id.URIEncoded()),
			slog.String("error", err.Error()),
			slog.String("module", "registration"),
		)
	}
}
