package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/Kei-Shiro/road/internal/domain/entity"
	"github.com/Kei-Shiro/road/internal/domain/repository"
	"github.com/Kei-Shiro/road/internal/platform/queue"
)

// AuditConsumer consomme les événements de signalement et les persiste dans le
// journal d'audit.
type AuditConsumer struct {
	consumer  queue.Consumer
	auditRepo repository.AuditRepository
	log       *zap.SugaredLogger
}

func NewAuditConsumer(consumer queue.Consumer, auditRepo repository.AuditRepository, log *zap.SugaredLogger) *AuditConsumer {
	return &AuditConsumer{
		consumer:  consumer,
		auditRepo: auditRepo,
		log:       log,
	}
}

func (c *AuditConsumer) Start(ctx context.Context) error {
	c.log.Infow("starting audit consumer", "queue", queue.SignalementEventsQueue)

	handler := func(ctx context.Context, body []byte) error {
		var event queue.SignalementEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return fmt.Errorf("failed to unmarshal event: %w", err)
		}

		entry := &entity.AuditLog{
			ActorID:    event.ActorID,
			ActorEmail: event.ActorEmail,
			Action:     event.Action,
			TargetID:   event.SyncID,
			Details:    event.Details,
			CreatedAt:  event.OccurredAt,
		}
		if err := c.auditRepo.Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to persist audit entry: %w", err)
		}

		c.log.Debugw("audit entry recorded", "action", event.Action, "sync_id", event.SyncID)
		return nil
	}

	return c.consumer.Consume(ctx, queue.SignalementEventsQueue, handler)
}
