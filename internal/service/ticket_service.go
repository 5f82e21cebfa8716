package service

import (
	"context"

	"ticket-reservation-service/internal/model"
	"ticket-reservation-service/internal/repository"

	"github.com/google/uuid"
)

// TicketService 讀取面查詢，供使用者票夾與主辦方買家報表使用
type TicketService interface {
	GetByTicketID(ctx context.Context, ticketID uuid.UUID) (*model.Ticket, error)
	ListByUser(ctx context.Context, userID string) ([]*model.UserTicketResponse, error)
	ListByEvent(ctx context.Context, eventID string) ([]*model.Ticket, error)
}

type TicketServiceImpl struct {
	repo      repository.TicketRepository
	eventRepo repository.EventRepository
}

func NewTicketService(repo repository.TicketRepository, eventRepo repository.EventRepository) TicketService {
	return &TicketServiceImpl{repo: repo, eventRepo: eventRepo}
}

func (s *TicketServiceImpl) GetByTicketID(ctx context.Context, ticketID uuid.UUID) (*model.Ticket, error) {
	return s.repo.FindByTicketID(ctx, ticketID)
}

// ListByUser 使用者的票券列表，附上活動標題
func (s *TicketServiceImpl) ListByUser(ctx context.Context, userID string) ([]*model.UserTicketResponse, error) {
	tickets, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 避免重複查同一個活動
	titles := make(map[string]string)
	responses := make([]*model.UserTicketResponse, 0, len(tickets))

	for _, t := range tickets {
		title, ok := titles[t.EventID]
		if !ok {
			event, err := s.eventRepo.FindByEventID(ctx, t.EventID)
			if err != nil {
				return nil, err
			}
			title = event.Title
			titles[t.EventID] = title
		}

		responses = append(responses, &model.UserTicketResponse{
			TicketID:     t.TicketID,
			EventID:      t.EventID,
			EventTitle:   title,
			UserID:       t.UserID,
			PurchaseDate: t.PurchaseDate,
			TicketCode:   t.TicketCode,
		})
	}

	return responses, nil
}

func (s *TicketServiceImpl) ListByEvent(ctx context.Context, eventID string) ([]*model.Ticket, error) {
	if _, err := s.eventRepo.FindByEventID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repo.FindByEventID(ctx, eventID)
}
