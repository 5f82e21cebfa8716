package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ticket 票券模型：每個 (event_id, user_id) 最多一張，發出後不可變更
type Ticket struct {
	ID           int       `json:"id" db:"id"`
	TicketID     uuid.UUID `json:"ticket_id" db:"ticket_id"`
	EventID      string    `json:"event_id" db:"event_id"`
	UserID       string    `json:"user_id" db:"user_id"`
	PurchaseDate time.Time `json:"purchase_date" db:"purchase_date"`
	TicketCode   string    `json:"ticket_code" db:"ticket_code"`
}

// NewTicket 產生新票券，票券代碼由 ticket_id derive
func NewTicket(eventID, userID string, purchasedAt time.Time) *Ticket {
	ticketID := uuid.New()
	return &Ticket{
		TicketID:     ticketID,
		EventID:      eventID,
		UserID:       userID,
		PurchaseDate: purchasedAt,
		TicketCode:   TicketCodeFor(ticketID),
	}
}

// TicketCodeFor 票券代碼：TCK- 加上 ticket_id 的最後 8 個 hex 字元（大寫）
func TicketCodeFor(ticketID uuid.UUID) string {
	hex := strings.ReplaceAll(ticketID.String(), "-", "")
	return fmt.Sprintf("TCK-%s", strings.ToUpper(hex[len(hex)-8:]))
}

// PurchaseTicketRequest 購票請求：user_id 由認證中介層提供，不在 body 中
type PurchaseTicketRequest struct {
	EventID    string `json:"event_id" binding:"required"`
	CouponCode string `json:"coupon_code"`
}

// PurchaseTicketResponse 購票響應
type PurchaseTicketResponse struct {
	Ticket    *Ticket `json:"ticket"`
	PricePaid float64 `json:"price_paid"`
}

// UserTicketResponse 使用者票券列表項目，附帶活動標題
type UserTicketResponse struct {
	TicketID     uuid.UUID `json:"ticket_id"`
	EventID      string    `json:"event_id"`
	EventTitle   string    `json:"event_title"`
	UserID       string    `json:"user_id"`
	PurchaseDate time.Time `json:"purchase_date"`
	TicketCode   string    `json:"ticket_code"`
}
