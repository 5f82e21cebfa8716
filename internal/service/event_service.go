package service

import (
	"context"

	"ticket-reservation-service/internal/cache"
	"ticket-reservation-service/internal/model"
	"ticket-reservation-service/internal/repository"

	"github.com/google/uuid"
)

type EventService interface {
	List(ctx context.Context) ([]*model.Event, error)
	GetByEventID(ctx context.Context, eventID string) (*model.Event, error)
	Create(ctx context.Context, req model.CreateEventRequest) (*model.Event, error)
	UpdateByEventID(ctx context.Context, eventID string, params model.UpdateEventParams) (*model.Event, error)
	// OpenForSale 活動開賣：預熱 Redis 閘門的剩餘名額
	OpenForSale(ctx context.Context, eventID string) error
}

type EventServiceImpl struct {
	repo      repository.EventRepository
	inventory cache.EventInventoryManager
}

func NewEventService(repo repository.EventRepository, inventory cache.EventInventoryManager) EventService {
	return &EventServiceImpl{repo: repo, inventory: inventory}
}

func (s *EventServiceImpl) List(ctx context.Context) ([]*model.Event, error) {
	return s.repo.List(ctx)
}

func (s *EventServiceImpl) GetByEventID(ctx context.Context, eventID string) (*model.Event, error) {
	return s.repo.FindByEventID(ctx, eventID)
}

func (s *EventServiceImpl) Create(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	event := &model.Event{
		EventID:     uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Organizer:   req.Organizer,
		Capacity:    req.Capacity,
		Deadline:    req.Deadline,
		BasePrice:   req.BasePrice,
	}
	return s.repo.Create(ctx, event)
}

func (s *EventServiceImpl) UpdateByEventID(ctx context.Context, eventID string, params model.UpdateEventParams) (*model.Event, error) {
	event, err := s.repo.Update(ctx, eventID, params)
	if err != nil {
		return nil, err
	}

	// 活動資料改了就讓閘門失效，等下次開賣重新預熱
	if err := s.inventory.Invalidate(ctx, eventID); err != nil {
		return nil, err
	}

	return event, nil
}

func (s *EventServiceImpl) OpenForSale(ctx context.Context, eventID string) error {
	event, err := s.repo.FindByEventID(ctx, eventID)
	if err != nil {
		return err
	}
	return s.inventory.WarmUp(ctx, eventID, event.Remaining())
}
