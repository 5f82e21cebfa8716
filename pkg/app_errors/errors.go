package apperrors

import "errors"

var (
	ErrEventNotFound       = errors.New("event not found")
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrDeadlinePassed      = errors.New("purchase deadline has passed")
	ErrSoldOut             = errors.New("tickets are sold out")
	ErrAlreadyPurchased    = errors.New("user already purchased a ticket for this event")
	ErrInvalidCoupon       = errors.New("invalid coupon code")
	ErrEventNotWarmed      = errors.New("event inventory not warmed up")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInternalServerError = errors.New("internal server error")
)
