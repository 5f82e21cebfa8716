package services

import (
	"context"

	"ticket-reservation-service/internal/model"

	"github.com/stretchr/testify/mock"
)

type ReservationServiceMock struct {
	mock.Mock
}

func NewReservationServiceMock() *ReservationServiceMock {
	return &ReservationServiceMock{}
}

func (m *ReservationServiceMock) Purchase(ctx context.Context, eventID, userID, couponCode string) (*model.Ticket, float64, error) {
	args := m.Called(ctx, eventID, userID, couponCode)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*model.Ticket), args.Get(1).(float64), args.Error(2)
}
