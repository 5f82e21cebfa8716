package queue

import (
	"context"

	"ticket-reservation-service/internal/model"
)

type Delivery struct {
	Data *model.InventoryMovement
	Ack  func()
	Nack func(requeue bool)
}

type MovementQueue interface {
	// 發送異動到隊列
	PublishMovement(ctx context.Context, movement *model.InventoryMovement) error
	// 訂閱異動隊列
	SubscribeMovements(ctx context.Context) (<-chan Delivery, error)
}

type MovementQueueImpl struct {
	// 使用 Go channel 來模擬 MQ 隊列，單機部署與測試用
	ch chan *model.InventoryMovement
}

func NewMovementQueue(bufferSize int) MovementQueue {
	return &MovementQueueImpl{
		ch: make(chan *model.InventoryMovement, bufferSize),
	}
}

func (q *MovementQueueImpl) PublishMovement(ctx context.Context, movement *model.InventoryMovement) error {
	select {
	case q.ch <- movement:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MovementQueueImpl) SubscribeMovements(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case movement, ok := <-q.ch:
				if !ok {
					return
				}

				out <- Delivery{
					Data: movement,
					Ack:  func() { /* 記憶體版不用做特別動作 */ },
					Nack: func(requeue bool) {
						if requeue {
							q.ch <- movement // 簡單模擬重回隊列
						}
					},
				}
			}
		}
	}()

	return out, nil
}
