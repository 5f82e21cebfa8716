package model

import (
	"time"
)

// Event 活動模型：capacity 固定、sold 只透過原子預訂遞增
type Event struct {
	ID          int       `json:"id" db:"id"`
	EventID     string    `json:"event_id" db:"event_id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description,omitempty" db:"description"`
	Organizer   string    `json:"organizer" db:"organizer"`
	Capacity    int       `json:"capacity" db:"capacity"`
	Sold        int       `json:"sold" db:"sold"`
	Deadline    time.Time `json:"deadline" db:"deadline"`
	BasePrice   float64   `json:"base_price" db:"base_price"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Remaining 剩餘可售數量
func (e *Event) Remaining() int {
	return e.Capacity - e.Sold
}

// DeadlinePassed 檢查是否已過售票截止時間
func (e *Event) DeadlinePassed(now time.Time) bool {
	return e.Deadline.Before(now)
}

type UpdateEventParams struct {
	Title       *string
	Description *string
	Organizer   *string
	Deadline    *time.Time
	BasePrice   *float64
}

// CreateEventRequest 建立活動請求
type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description *string   `json:"description"`
	Organizer   string    `json:"organizer" binding:"required"`
	Capacity    int       `json:"capacity" binding:"required,min=1"`
	Deadline    time.Time `json:"deadline" binding:"required"`
	BasePrice   float64   `json:"base_price" binding:"min=0"`
}

// EventResponse 活動響應
type EventResponse struct {
	EventID   string    `json:"event_id"`
	Title     string    `json:"title"`
	Organizer string    `json:"organizer"`
	Capacity  int       `json:"capacity"`
	Sold      int       `json:"sold"`
	Remaining int       `json:"remaining"`
	Deadline  time.Time `json:"deadline"`
	BasePrice float64   `json:"base_price"`
}

func (e *Event) ToResponse() EventResponse {
	return EventResponse{
		EventID:   e.EventID,
		Title:     e.Title,
		Organizer: e.Organizer,
		Capacity:  e.Capacity,
		Sold:      e.Sold,
		Remaining: e.Remaining(),
		Deadline:  e.Deadline,
		BasePrice: e.BasePrice,
	}
}
