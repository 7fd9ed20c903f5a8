package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	smp "github.com/totegamma/smp"
	"github.com/totegamma/smp/internal/domain"
)

const ChangeChannel = "smp:changes"

type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, event domain.ChangeEvent) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.rdb.Publish(ctx, ChangeChannel, jsonstr).Err()
}

// Subscribe delivers change events until ctx is done.
func (s *SignalService) Subscribe(ctx context.Context) <-chan domain.ChangeEvent {
	pubsub := s.rdb.Subscribe(ctx, ChangeChannel)
	out := make(chan domain.ChangeEvent)

	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event domain.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					slog.WarnContext(
						ctx, "invalid change event",
						slog.String("error", err.Error()),
						slog.String("module", "signal"),
					)
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// Publisher is implemented by SignalService.
type Publisher interface {
	Publish(ctx context.Context, event domain.ChangeEvent) error
}

// ChangePublisher turns store notifications into change feed events.
type ChangePublisher struct {
	publisher Publisher
}

func NewChangePublisher(publisher Publisher) *ChangePublisher {
	return &ChangePublisher{publisher: publisher}
}

func (p *ChangePublisher) publish(ctx context.Context, entity, action string, participant smp.Identifier, docType *smp.Identifier) {
	event := domain.ChangeEvent{
		Entity:         entity,
		Action:         action,
		ParticipantID:  participant,
		DocumentTypeID: docType,
		Time:           time.Now().UTC(),
	}
	if err := p.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		slog.WarnContext(
			ctx, "failed to publish change event",
			slog.String("entity", entity),
			slog.String("participant", participant.URIEncoded()),
			slog.String("error", err.Error()),
			slog.String("module", "signal"),
		)
	}
}

func (p *ChangePublisher) ServiceGroupCreatedOrUpdated(ctx context.Context, sg domain.ServiceGroup) {
	p.publish(ctx, domain.ChangeServiceGroup, domain.ChangeActionPut, sg.ID, nil)
}

func (p *ChangePublisher) ServiceGroupDeleted(ctx context.Context, id smp.Identifier) {
	p.publish(ctx, domain.ChangeServiceGroup, domain.ChangeActionDelete, id, nil)
}

func (p *ChangePublisher) ServiceInformationCreatedOrUpdated(ctx context.Context, si domain.ServiceInformation) {
	doc := si.DocumentTypeID
	p.publish(ctx, domain.ChangeServiceInformation, domain.ChangeActionPut, si.ServiceGroupID, &doc)
}

func (p *ChangePublisher) ServiceInformationDeleted(ctx context.Context, key domain.ServiceMetadataKey) {
	doc := key.DocumentTypeID
	p.publish(ctx, domain.ChangeServiceInformation, domain.ChangeActionDelete, key.ServiceGroupID, &doc)
}

func (p *ChangePublisher) RedirectCreatedOrUpdated(ctx context.Context, r domain.Redirect) {
	doc := r.DocumentTypeID
	p.publish(ctx, domain.ChangeRedirect, domain.ChangeActionPut, r.ServiceGroupID, &doc)
}

func (p *ChangePublisher) RedirectDeleted(ctx context.Context, key domain.ServiceMetadataKey) {
	doc := key.DocumentTypeID
	p.publish(ctx, domain.ChangeRedirect, domain.ChangeActionDelete, key.ServiceGroupID, &doc)
}

func (p *ChangePublisher) BusinessCardCreatedOrUpdated(ctx context.Context, bc domain.BusinessCard) {
	p.publish(ctx, domain.ChangeBusinessCard, domain.ChangeActionPut, bc.ServiceGroupID, nil)
}

func (p *ChangePublisher) BusinessCardDeleted(ctx context.Context, id smp.Identifier) {
	p.publish(ctx, domain.ChangeBusinessCard, domain.ChangeActionDelete, id, nil)
}
