package repository

import (
	"context"
	"errors"
	"fmt"

	"ticket-reservation-service/internal/model"
	apperrors "ticket-reservation-service/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketRepository interface {
	// TryInsert 寫入票券。(event_id, user_id) 由資料庫 UNIQUE 約束把關，
	// 同一使用者的併發寫入只有一個會成功，其餘回傳 ErrAlreadyPurchased。
	TryInsert(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error)
	ExistsByEventAndUser(ctx context.Context, eventID, userID string) (bool, error)
	FindByTicketID(ctx context.Context, ticketID uuid.UUID) (*model.Ticket, error)
	FindByUserID(ctx context.Context, userID string) ([]*model.Ticket, error)
	FindByEventID(ctx context.Context, eventID string) ([]*model.Ticket, error)
	CountByEventID(ctx context.Context, eventID string) (int, error)
}

type TicketRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &TicketRepositoryImpl{
		pool: pool,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *TicketRepositoryImpl) TryInsert(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error) {
	query := `
		INSERT INTO tickets (ticket_id, event_id, user_id, purchase_date, ticket_code)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		ticket.TicketID, ticket.EventID, ticket.UserID, ticket.PurchaseDate, ticket.TicketCode,
	).Scan(&ticket.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrAlreadyPurchased
		}
		return nil, fmt.Errorf("failed to insert ticket: %w", err)
	}

	return ticket, nil
}

func (r *TicketRepositoryImpl) ExistsByEventAndUser(ctx context.Context, eventID, userID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM tickets WHERE event_id = $1 AND user_id = $2
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, eventID, userID).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *TicketRepositoryImpl) FindByTicketID(ctx context.Context, ticketID uuid.UUID) (*model.Ticket, error) {
	query := `
		SELECT id, ticket_id, event_id, user_id, purchase_date, ticket_code
		FROM tickets
		WHERE ticket_id = $1
	`

	var ticket model.Ticket
	err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&ticket.ID,
		&ticket.TicketID,
		&ticket.EventID,
		&ticket.UserID,
		&ticket.PurchaseDate,
		&ticket.TicketCode,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}

	return &ticket, nil
}

func (r *TicketRepositoryImpl) FindByUserID(ctx context.Context, userID string) ([]*model.Ticket, error) {
	query := `
		SELECT id, ticket_id, event_id, user_id, purchase_date, ticket_code
		FROM tickets
		WHERE user_id = $1
		ORDER BY purchase_date DESC
	`

	return r.queryTickets(ctx, query, userID)
}

func (r *TicketRepositoryImpl) FindByEventID(ctx context.Context, eventID string) ([]*model.Ticket, error) {
	query := `
		SELECT id, ticket_id, event_id, user_id, purchase_date, ticket_code
		FROM tickets
		WHERE event_id = $1
		ORDER BY purchase_date DESC
	`

	return r.queryTickets(ctx, query, eventID)
}

func (r *TicketRepositoryImpl) CountByEventID(ctx context.Context, eventID string) (int, error) {
	query := `SELECT COUNT(*) FROM tickets WHERE event_id = $1`

	var count int
	err := r.pool.QueryRow(ctx, query, eventID).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *TicketRepositoryImpl) queryTickets(ctx context.Context, query string, args ...interface{}) ([]*model.Ticket, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*model.Ticket, 0)
	for rows.Next() {
		var ticket model.Ticket
		err := rows.Scan(
			&ticket.ID,
			&ticket.TicketID,
			&ticket.EventID,
			&ticket.UserID,
			&ticket.PurchaseDate,
			&ticket.TicketCode,
		)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, &ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tickets, nil
}
