package worker

import (
	"context"
	"errors"

	"ticket-reservation-service/internal/cache"
	"ticket-reservation-service/internal/queue"
	apperrors "ticket-reservation-service/pkg/app_errors"
	"ticket-reservation-service/pkg/logger"

	"go.uber.org/zap"
)

// InventorySyncWorker 消費異動隊列，把發券/歸還同步進 Redis 閘門。
// 同步失敗只影響 fast-fail 的準確度，不影響 Postgres 這邊的正確性。
type InventorySyncWorker interface {
	Start(ctx context.Context) error
}

type InventorySyncWorkerImpl struct {
	inventory cache.EventInventoryManager
	queue     queue.MovementQueue
}

func NewInventorySyncWorker(inventory cache.EventInventoryManager, queue queue.MovementQueue) InventorySyncWorker {
	return &InventorySyncWorkerImpl{
		inventory: inventory,
		queue:     queue,
	}
}

func (w *InventorySyncWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.SubscribeMovements(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			err := w.inventory.ApplyDelta(ctx, msg.Data.EventID, msg.Data.Type.Delta())

			switch {
			case err == nil:
				msg.Ack()
			case errors.Is(err, apperrors.ErrEventNotWarmed):
				// 閘門未預熱就沒有東西要同步，直接結案
				msg.Ack()
			default:
				logger.WithComponent("worker").Warn("apply movement failed, will retry",
					zap.String("event_id", msg.Data.EventID),
					zap.String("type", string(msg.Data.Type)),
					zap.Error(err))
				msg.Nack(true)
			}
		}
	}()
	return nil
}
