package model

import (
	"time"

	"github.com/google/uuid"
)

// MovementType 庫存異動類型
type MovementType string

const (
	MovementIssued   MovementType = "issued"
	MovementReleased MovementType = "released"
)

// Delta 對剩餘名額的影響：發券 -1、補償歸還 +1
func (t MovementType) Delta() int {
	if t == MovementReleased {
		return 1
	}
	return -1
}

// InventoryMovement 發券/歸還的異動訊息，由 reservation 發佈、sync worker 消費
type InventoryMovement struct {
	EventID    string       `json:"event_id"`
	TicketID   uuid.UUID    `json:"ticket_id"`
	UserID     string       `json:"user_id"`
	Type       MovementType `json:"type"`
	OccurredAt time.Time    `json:"occurred_at"`
}
