package service

import (
	"context"
	"errors"

	"ticket-reservation-service/internal/cache"
	"ticket-reservation-service/internal/clock"
	"ticket-reservation-service/internal/model"
	"ticket-reservation-service/internal/pricing"
	"ticket-reservation-service/internal/queue"
	"ticket-reservation-service/internal/repository"
	apperrors "ticket-reservation-service/pkg/app_errors"
	"ticket-reservation-service/pkg/logger"

	"go.uber.org/zap"
)

type ReservationService interface {
	// Purchase 購票流程：檢查活動/截止/名額/重複購買，原子保留名額後發券。
	// 發券失敗一律歸還名額，不會留下有保留、無票券的狀態。
	Purchase(ctx context.Context, eventID, userID, couponCode string) (*model.Ticket, float64, error)
}

type ReservationServiceImpl struct {
	eventRepo  repository.EventRepository
	ticketRepo repository.TicketRepository
	inventory  cache.EventInventoryManager
	queue      queue.MovementQueue
	clock      clock.Clock
}

func NewReservationService(
	eventRepo repository.EventRepository,
	ticketRepo repository.TicketRepository,
	inventory cache.EventInventoryManager,
	movementQueue queue.MovementQueue,
	clk clock.Clock,
) ReservationService {
	return &ReservationServiceImpl{
		eventRepo:  eventRepo,
		ticketRepo: ticketRepo,
		inventory:  inventory,
		queue:      movementQueue,
		clock:      clk,
	}
}

func (s *ReservationServiceImpl) Purchase(ctx context.Context, eventID, userID, couponCode string) (*model.Ticket, float64, error) {
	// 1. 讀取活動快照，整個請求只用這一個 now
	event, err := s.eventRepo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, 0, err
	}

	now := s.clock.Now()
	if event.DeadlinePassed(now) {
		return nil, 0, apperrors.ErrDeadlinePassed
	}

	// 2. 折扣碼純計算、無副作用，提前在任何寫入之前驗證
	finalPrice, err := pricing.Final(event.BasePrice, couponCode)
	if err != nil {
		return nil, 0, err
	}

	// 3. 快照上的名額檢查只是 fast-fail，權威在第 6 步的條件式 UPDATE
	if event.Remaining() <= 0 {
		return nil, 0, apperrors.ErrSoldOut
	}

	// 4. 熱門活動走 Redis 閘門再擋一層，未預熱就略過
	if remaining, err := s.inventory.GetRemaining(ctx, eventID); err == nil && remaining <= 0 {
		return nil, 0, apperrors.ErrSoldOut
	}

	// 5. 重複購買 pre-check：省掉必然失敗的保留/歸還往返。
	// 真正的防線是 ledger 的 UNIQUE 約束，這裡漏掉的 race 由第 7 步接住。
	exists, err := s.ticketRepo.ExistsByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return nil, 0, err
	}
	if exists {
		return nil, 0, apperrors.ErrAlreadyPurchased
	}

	// 6. 原子保留名額：sold+1 只在 sold < capacity 成立時發生，輸掉 race 視同售完
	if err := s.eventRepo.TryReserve(ctx, eventID); err != nil {
		return nil, 0, err
	}

	// 7. 保留成功後才發券。任何寫入失敗（含同一使用者併發搶先寫入觸發
	// UNIQUE 約束）都要歸還名額；補償用 context.Background()，
	// 請求被取消也一定執行。
	ticket := model.NewTicket(eventID, userID, now)
	created, err := s.ticketRepo.TryInsert(ctx, ticket)
	if err != nil {
		s.compensate(eventID, userID)
		if errors.Is(err, apperrors.ErrAlreadyPurchased) {
			return nil, 0, err
		}
		logger.WithComponent("service").Error("ticket insert failed after reserve",
			zap.String("event_id", eventID),
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, 0, apperrors.ErrInternalServerError
	}

	// 8. 發佈異動給 sync worker，失敗只記 log：閘門是 advisory，不回滾已成立的購買
	s.publishMovement(ctx, created, model.MovementIssued)

	return created, finalPrice, nil
}

func (s *ReservationServiceImpl) compensate(eventID, userID string) {
	ctx := context.Background()
	if err := s.eventRepo.Release(ctx, eventID); err != nil {
		logger.WithComponent("service").Error("inventory release failed",
			zap.String("event_id", eventID),
			zap.String("user_id", userID),
			zap.Error(err))
		return
	}

	movement := &model.InventoryMovement{
		EventID:    eventID,
		UserID:     userID,
		Type:       model.MovementReleased,
		OccurredAt: s.clock.Now(),
	}
	if err := s.queue.PublishMovement(ctx, movement); err != nil {
		logger.WithComponent("service").Warn("publish release movement failed",
			zap.String("event_id", eventID),
			zap.Error(err))
	}
}

func (s *ReservationServiceImpl) publishMovement(ctx context.Context, ticket *model.Ticket, movementType model.MovementType) {
	movement := &model.InventoryMovement{
		EventID:    ticket.EventID,
		TicketID:   ticket.TicketID,
		UserID:     ticket.UserID,
		Type:       movementType,
		OccurredAt: s.clock.Now(),
	}
	if err := s.queue.PublishMovement(ctx, movement); err != nil {
		logger.WithComponent("service").Warn("publish movement failed",
			zap.String("event_id", ticket.EventID),
			zap.String("type", string(movementType)),
			zap.Error(err))
	}
}
