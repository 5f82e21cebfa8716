package cache

import (
	"context"
	"fmt"

	apperrors "ticket-reservation-service/pkg/app_errors"

	"github.com/redis/go-redis/v9"
)

// EventInventoryManager 活動剩餘名額的 Redis 快取閘門。
// 僅供熱門活動 fast-fail 用：Postgres 的條件式 UPDATE 才是容量不變式的唯一權威，
// 閘門未預熱或數字漂移最多造成多一次 DB round-trip，不會造成超賣。
type EventInventoryManager interface {
	// 預熱：活動開賣時載入剩餘名額
	WarmUp(ctx context.Context, eventID string, remaining int) error
	// 獲取：讀取剩餘名額，未預熱回傳 ErrEventNotWarmed
	GetRemaining(ctx context.Context, eventID string) (int, error)
	// 套用異動：issued 為 -1、released 為 +1，使用 Lua 保證不會減到負數
	ApplyDelta(ctx context.Context, eventID string, delta int) error
	// 失效：活動資料被外部修改時清除快取
	Invalidate(ctx context.Context, eventID string) error
}

type EventInventoryManagerImpl struct {
	client *redis.Client
}

func NewEventInventoryManager(client *redis.Client) EventInventoryManager {
	return &EventInventoryManagerImpl{
		client: client,
	}
}

func (m *EventInventoryManagerImpl) inventoryKey(eventID string) string {
	return fmt.Sprintf("event:%s:inventory", eventID)
}

func (m *EventInventoryManagerImpl) WarmUp(ctx context.Context, eventID string, remaining int) error {
	key := m.inventoryKey(eventID)
	return m.client.HSet(ctx, key, map[string]interface{}{
		"remaining": remaining,
	}).Err()
}

func (m *EventInventoryManagerImpl) GetRemaining(ctx context.Context, eventID string) (int, error) {
	key := m.inventoryKey(eventID)
	val, err := m.client.HGet(ctx, key, "remaining").Int()
	if err == redis.Nil {
		return -1, apperrors.ErrEventNotWarmed
	}
	return val, err
}

func (m *EventInventoryManagerImpl) ApplyDelta(ctx context.Context, eventID string, delta int) error {
	key := m.inventoryKey(eventID)

	script := `
		-- 1. 取得參數
		local inventory_key = KEYS[1]
		local delta = tonumber(ARGV[1])

		-- 2. 未預熱的活動不建立快取，等開賣預熱
		local remaining = redis.call('HGET', inventory_key, 'remaining')
		if not remaining then
			return -1
		end

		-- 3. 套用異動，下限為 0（閘門只做參考，不做權威）
		local updated = tonumber(remaining) + delta
		if updated < 0 then
			updated = 0
		end
		redis.call('HSET', inventory_key, 'remaining', updated)

		return updated
	`

	result, err := m.client.Eval(ctx, script, []string{key}, delta).Result()
	if err != nil {
		return err
	}

	if result.(int64) == -1 {
		return apperrors.ErrEventNotWarmed
	}

	return nil
}

func (m *EventInventoryManagerImpl) Invalidate(ctx context.Context, eventID string) error {
	key := m.inventoryKey(eventID)
	return m.client.Del(ctx, key).Err()
}
