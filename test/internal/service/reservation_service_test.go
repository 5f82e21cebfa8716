package service

import (
	"context"
	"testing"
	"time"

	"ticket-reservation-service/internal/cache"
	"ticket-reservation-service/internal/clock"
	"ticket-reservation-service/internal/model"
	"ticket-reservation-service/internal/queue"
	"ticket-reservation-service/internal/repository"
	"ticket-reservation-service/internal/service"
	apperrors "ticket-reservation-service/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationService_Purchase_Success(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	ctx := context.Background()
	svc, _, ticketRepo := newReservationService(clock.NewSystem())
	eventID := createTestEvent(t, 10, 0, futureDeadline(), 100)

	ticket, pricePaid, err := svc.Purchase(ctx, eventID, "user-1", "")
	require.NoError(t, err)

	assert.Equal(t, eventID, ticket.EventID)
	assert.Equal(t, "user-1", ticket.UserID)
	assert.Equal(t, 100.0, pricePaid)
	assert.Contains(t, ticket.TicketCode, "TCK-")

	// 名額與票券一致
	assert.Equal(t, 1, getEventSold(t, eventID))
	assert.Equal(t, 1, countEventTickets(t, eventID))

	// 票券真的寫進 ledger
	found, err := ticketRepo.FindByTicketID(ctx, ticket.TicketID)
	require.NoError(t, err)
	assert.Equal(t, ticket.TicketCode, found.TicketCode)
}

func TestReservationService_Purchase_WithCoupon(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	ctx := context.Background()
	svc, _, _ := newReservationService(clock.NewSystem())
	eventID := createTestEvent(t, 10, 0, futureDeadline(), 100)

	_, pricePaid, err := svc.Purchase(ctx, eventID, "user-1", "DISCOUNT10")
	require.NoError(t, err)
	assert.Equal(t, 90.0, pricePaid)
}

func TestReservationService_Purchase_EventNotFound(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	svc, _, _ := newReservationService(clock.NewSystem())

	_, _, err := svc.Purchase(context.Background(), "no-such-event", "user-1", "")
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
}

func TestReservationService_Purchase_DeadlinePassed(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	deadline := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newReservationService(clock.NewFixed(deadline.Add(time.Second)))
	eventID := createTestEvent(t, 10, 0, deadline, 100)

	_, _, err := svc.Purchase(context.Background(), eventID, "user-1", "")
	assert.ErrorIs(t, err, apperrors.ErrDeadlinePassed)

	// 截止後即使還有名額也不能買，且不留任何狀態
	assert.Equal(t, 0, getEventSold(t, eventID))
	assert.Equal(t, 0, countEventTickets(t, eventID))
}

func TestReservationService_Purchase_InvalidCoupon(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	svc, _, _ := newReservationService(clock.NewSystem())
	eventID := createTestEvent(t, 10, 0, futureDeadline(), 100)

	_, _, err := svc.Purchase(context.Background(), eventID, "user-1", "bogus")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCoupon)

	// 無效折扣碼不得留下任何寫入
	assert.Equal(t, 0, getEventSold(t, eventID))
	assert.Equal(t, 0, countEventTickets(t, eventID))
}

func TestReservationService_Purchase_SoldOut(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	svc, _, _ := newReservationService(clock.NewSystem())
	eventID := createTestEvent(t, 5, 5, futureDeadline(), 100)

	_, _, err := svc.Purchase(context.Background(), eventID, "user-1", "")
	assert.ErrorIs(t, err, apperrors.ErrSoldOut)
	assert.Equal(t, 5, getEventSold(t, eventID))
}

func TestReservationService_Purchase_AlreadyPurchased(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	ctx := context.Background()
	svc, _, _ := newReservationService(clock.NewSystem())
	eventID := createTestEvent(t, 10, 0, futureDeadline(), 100)

	_, _, err := svc.Purchase(ctx, eventID, "user-1", "")
	require.NoError(t, err)

	_, _, err = svc.Purchase(ctx, eventID, "user-1", "")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyPurchased)

	// 重試不會多扣名額，也不會多發票券
	assert.Equal(t, 1, getEventSold(t, eventID))
	assert.Equal(t, 1, countEventTickets(t, eventID))
}

// blindTicketRepository 讓 pre-check 永遠看不到既有票券，
// 模擬兩個同使用者請求同時通過 pre-check 的 race，
// 逼 Purchase 走 UNIQUE 約束 + 補償歸還的路徑。
type blindTicketRepository struct {
	repository.TicketRepository
}

func (r *blindTicketRepository) ExistsByEventAndUser(ctx context.Context, eventID, userID string) (bool, error) {
	return false, nil
}

func TestReservationService_Purchase_LateDuplicateCompensates(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	ctx := context.Background()
	eventRepo := repository.NewEventRepository(getTestDB())
	ticketRepo := &blindTicketRepository{repository.NewTicketRepository(getTestDB())}
	inventory := cache.NewEventInventoryManager(testRdb)
	movementQueue := queue.NewMovementQueue(100)
	svc := service.NewReservationService(eventRepo, ticketRepo, inventory, movementQueue, clock.NewSystem())

	eventID := createTestEvent(t, 10, 0, futureDeadline(), 100)

	_, _, err := svc.Purchase(ctx, eventID, "user-1", "")
	require.NoError(t, err)

	// pre-check 被蒙蔽，第二次購買會先搶到名額、再被 UNIQUE 約束擋下
	_, _, err = svc.Purchase(ctx, eventID, "user-1", "")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyPurchased)

	// 補償必須歸還名額：sold 回到 1，不得留下無票券的保留
	assert.Equal(t, 1, getEventSold(t, eventID))
	assert.Equal(t, 1, countEventTickets(t, eventID))
}

func TestReservationService_Purchase_WarmedGateFastFail(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	ctx := context.Background()
	svc, _, _ := newReservationService(clock.NewSystem())
	inventory := cache.NewEventInventoryManager(testRdb)

	// DB 還有名額，但閘門顯示 0：熱門活動 fast-fail，不打 DB 的保留路徑
	eventID := createTestEvent(t, 10, 2, futureDeadline(), 100)
	require.NoError(t, inventory.WarmUp(ctx, eventID, 0))

	_, _, err := svc.Purchase(ctx, eventID, "user-1", "")
	assert.ErrorIs(t, err, apperrors.ErrSoldOut)
	assert.Equal(t, 2, getEventSold(t, eventID))
}

func TestReservationService_Purchase_PublishesIssuedMovement(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	ctx := context.Background()
	eventRepo := repository.NewEventRepository(getTestDB())
	ticketRepo := repository.NewTicketRepository(getTestDB())
	inventory := cache.NewEventInventoryManager(testRdb)
	movementQueue := queue.NewMovementQueue(100)
	svc := service.NewReservationService(eventRepo, ticketRepo, inventory, movementQueue, clock.NewSystem())

	eventID := createTestEvent(t, 10, 0, futureDeadline(), 100)

	ticket, _, err := svc.Purchase(ctx, eventID, "user-1", "")
	require.NoError(t, err)

	subCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	deliveries, err := movementQueue.SubscribeMovements(subCtx)
	require.NoError(t, err)

	select {
	case d := <-deliveries:
		assert.Equal(t, model.MovementIssued, d.Data.Type)
		assert.Equal(t, eventID, d.Data.EventID)
		assert.Equal(t, ticket.TicketID, d.Data.TicketID)
		d.Ack()
	case <-subCtx.Done():
		t.Fatal("timeout waiting for issued movement")
	}
}
