package handler

import (
	"errors"
	"net/http"

	"ticket-reservation-service/internal/model"
	"ticket-reservation-service/internal/service"
	apperrors "ticket-reservation-service/pkg/app_errors"
	"ticket-reservation-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReservationHandler struct {
	service service.ReservationService
}

func NewReservationHandler(service service.ReservationService) *ReservationHandler {
	return &ReservationHandler{service: service}
}

func (h *ReservationHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	router.Use(RequireUser())
	{
		router.POST("tickets/purchase", h.PurchaseTicket)
	}
}

func (h *ReservationHandler) PurchaseTicket(c *gin.Context) {
	var req model.PurchaseTicketRequest

	if err := BindJson(c, &req); err != nil {
		return
	}

	ticket, pricePaid, err := h.service.Purchase(c, req.EventID, UserID(c), req.CouponCode)
	if err != nil {
		h.handleReservationError(c, err, "PurchaseTicket")
		return
	}

	c.JSON(http.StatusCreated, model.PurchaseTicketResponse{
		Ticket:    ticket,
		PricePaid: pricePaid,
	})
}

func (h *ReservationHandler) handleReservationError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrEventNotFound):
		log.Warn("Event not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Event not found",
		})
	case errors.Is(err, apperrors.ErrDeadlinePassed):
		log.Warn("Deadline passed")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Ticket purchase deadline has passed",
		})
	case errors.Is(err, apperrors.ErrSoldOut):
		log.Warn("Sold out")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Tickets are sold out",
		})
	case errors.Is(err, apperrors.ErrAlreadyPurchased):
		log.Warn("Already purchased")
		c.JSON(http.StatusConflict, gin.H{
			"error": "You already purchased a ticket for this event",
		})
	case errors.Is(err, apperrors.ErrInvalidCoupon):
		log.Warn("Invalid coupon")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid coupon code",
		})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
