package handler

import (
	"errors"
	"net/http"
	"time"

	"ticket-reservation-service/internal/model"
	"ticket-reservation-service/internal/service"
	apperrors "ticket-reservation-service/pkg/app_errors"
	"ticket-reservation-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type EventHandler struct {
	service service.EventService
}

func NewEventHandler(service service.EventService) *EventHandler {
	return &EventHandler{service: service}
}

func (h *EventHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("events", h.GetEvents)
		router.GET("events/:event_id", h.GetEvent)
		router.POST("events", h.CreateEvent)
		router.PUT("events/:event_id", h.UpdateEvent)
		router.POST("events/:event_id/open", h.OpenForSale)
	}
}

func (h *EventHandler) GetEvents(c *gin.Context) {
	events, err := h.service.List(c)
	if err != nil {
		h.handleEventError(c, err, "GetEvents")
		return
	}

	responses := make([]model.EventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, event.ToResponse())
	}
	c.JSON(http.StatusOK, responses)
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.service.GetByEventID(c, c.Param("event_id"))
	if err != nil {
		h.handleEventError(c, err, "GetEvent")
		return
	}

	c.JSON(http.StatusOK, event.ToResponse())
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req model.CreateEventRequest

	if err := BindJson(c, &req); err != nil {
		return
	}

	event, err := h.service.Create(c, req)
	if err != nil {
		h.handleEventError(c, err, "CreateEvent")
		return
	}

	c.JSON(http.StatusCreated, event.ToResponse())
}

type updateEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Organizer   *string    `json:"organizer"`
	Deadline    *time.Time `json:"deadline"`
	BasePrice   *float64   `json:"base_price"`
}

func (h *EventHandler) UpdateEvent(c *gin.Context) {
	var req updateEventRequest

	if err := BindJson(c, &req); err != nil {
		return
	}

	event, err := h.service.UpdateByEventID(c, c.Param("event_id"), model.UpdateEventParams{
		Title:       req.Title,
		Description: req.Description,
		Organizer:   req.Organizer,
		Deadline:    req.Deadline,
		BasePrice:   req.BasePrice,
	})
	if err != nil {
		h.handleEventError(c, err, "UpdateEvent")
		return
	}

	c.JSON(http.StatusOK, event.ToResponse())
}

func (h *EventHandler) OpenForSale(c *gin.Context) {
	if err := h.service.OpenForSale(c, c.Param("event_id")); err != nil {
		h.handleEventError(c, err, "OpenForSale")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *EventHandler) handleEventError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrEventNotFound):
		log.Warn("Event not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Event not found",
		})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid input",
		})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
