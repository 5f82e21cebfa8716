package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ticket-reservation-service/internal/model"
	apperrors "ticket-reservation-service/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	List(ctx context.Context) ([]*model.Event, error)
	FindByEventID(ctx context.Context, eventID string) (*model.Event, error)
	Update(ctx context.Context, eventID string, params model.UpdateEventParams) (*model.Event, error)

	// TryReserve 原子保留一個名額：僅當 sold < capacity 時將 sold +1。
	// 條件不成立（滿了）回傳 ErrSoldOut；活動不存在回傳 ErrEventNotFound。
	TryReserve(ctx context.Context, eventID string) error
	// Release 歸還一個名額，僅供補償路徑使用
	Release(ctx context.Context, eventID string) error
}

type EventRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &EventRepositoryImpl{
		pool: pool,
	}
}

const eventColumns = `id, event_id, title, description, organizer, capacity, sold, deadline, base_price, created_at, updated_at`

func scanEvent(row pgx.Row, event *model.Event) error {
	return row.Scan(
		&event.ID,
		&event.EventID,
		&event.Title,
		&event.Description,
		&event.Organizer,
		&event.Capacity,
		&event.Sold,
		&event.Deadline,
		&event.BasePrice,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
}

func (r *EventRepositoryImpl) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	query := fmt.Sprintf(`
		INSERT INTO events (event_id, title, description, organizer, capacity, sold, deadline, base_price)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7)
		RETURNING %s
	`, eventColumns)

	row := r.pool.QueryRow(ctx, query,
		event.EventID, event.Title, event.Description, event.Organizer,
		event.Capacity, event.Deadline, event.BasePrice,
	)
	if err := scanEvent(row, event); err != nil {
		return nil, err
	}

	return event, nil
}

func (r *EventRepositoryImpl) List(ctx context.Context) ([]*model.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM events
		ORDER BY created_at DESC
	`, eventColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*model.Event, 0)
	for rows.Next() {
		var event model.Event
		if err := scanEvent(rows, &event); err != nil {
			return nil, err
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *EventRepositoryImpl) FindByEventID(ctx context.Context, eventID string) (*model.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM events
		WHERE event_id = $1
	`, eventColumns)

	var event model.Event
	err := scanEvent(r.pool.QueryRow(ctx, query, eventID), &event)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}

	return &event, nil
}

func (r *EventRepositoryImpl) Update(ctx context.Context, eventID string, params model.UpdateEventParams) (*model.Event, error) {
	sets := []string{}
	args := []interface{}{}
	argPos := 1

	appendSet := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if params.Title != nil {
		appendSet("title", *params.Title)
	}
	if params.Description != nil {
		appendSet("description", *params.Description)
	}
	if params.Organizer != nil {
		appendSet("organizer", *params.Organizer)
	}
	if params.Deadline != nil {
		appendSet("deadline", *params.Deadline)
	}
	if params.BasePrice != nil {
		appendSet("base_price", *params.BasePrice)
	}

	if len(sets) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	appendSet("updated_at", time.Now().UTC())

	// add event_id
	args = append(args, eventID)

	query := fmt.Sprintf(`
		UPDATE events
		SET %s
		WHERE event_id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), argPos, eventColumns)

	var event model.Event
	err := scanEvent(r.pool.QueryRow(ctx, query, args...), &event)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}

	return &event, nil
}

// TryReserve 的條件式 UPDATE 是整個購票流程唯一改動 sold 的地方。
// "sold < capacity" 在寫入當下由資料庫檢查，兩個併發請求搶最後一個名額時
// 只有一個 UPDATE 會命中，另一個 RowsAffected 為 0。
func (r *EventRepositoryImpl) TryReserve(ctx context.Context, eventID string) error {
	query := `
		UPDATE events
		SET sold = sold + 1, updated_at = $1
		WHERE event_id = $2 AND sold < capacity
	`

	result, err := r.pool.Exec(ctx, query, time.Now().UTC(), eventID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		// 區分「活動不存在」與「已售完」
		var exists bool
		err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE event_id = $1)`, eventID).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.ErrEventNotFound
		}
		return apperrors.ErrSoldOut
	}

	return nil
}

func (r *EventRepositoryImpl) Release(ctx context.Context, eventID string) error {
	query := `
		UPDATE events
		SET sold = sold - 1, updated_at = $1
		WHERE event_id = $2 AND sold > 0
	`

	result, err := r.pool.Exec(ctx, query, time.Now().UTC(), eventID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrEventNotFound
	}

	return nil
}
