package handler

import (
	"errors"
	"net/http"

	"ticket-reservation-service/internal/service"
	apperrors "ticket-reservation-service/pkg/app_errors"
	"ticket-reservation-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TicketHandler struct {
	service service.TicketService
}

func NewTicketHandler(service service.TicketService) *TicketHandler {
	return &TicketHandler{service: service}
}

func (h *TicketHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	router.Use(RequireUser())
	{
		router.GET("tickets/mine", h.GetMyTickets)
		router.GET("tickets/:ticket_id", h.GetTicket)
		// 主辦方買家報表
		router.GET("events/:event_id/tickets", h.GetEventTickets)
	}
}

func (h *TicketHandler) GetMyTickets(c *gin.Context) {
	tickets, err := h.service.ListByUser(c, UserID(c))
	if err != nil {
		h.handleTicketError(c, err, "GetMyTickets")
		return
	}

	c.JSON(http.StatusOK, tickets)
}

func (h *TicketHandler) GetTicket(c *gin.Context) {
	ticketID, err := uuid.Parse(c.Param("ticket_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid ticket id",
		})
		return
	}

	ticket, err := h.service.GetByTicketID(c, ticketID)
	if err != nil {
		h.handleTicketError(c, err, "GetTicket")
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func (h *TicketHandler) GetEventTickets(c *gin.Context) {
	tickets, err := h.service.ListByEvent(c, c.Param("event_id"))
	if err != nil {
		h.handleTicketError(c, err, "GetEventTickets")
		return
	}

	c.JSON(http.StatusOK, tickets)
}

func (h *TicketHandler) handleTicketError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrTicketNotFound):
		log.Warn("Ticket not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Ticket not found",
		})
	case errors.Is(err, apperrors.ErrEventNotFound):
		log.Warn("Event not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Event not found",
		})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
