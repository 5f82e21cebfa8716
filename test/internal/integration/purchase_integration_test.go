package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"ticket-reservation-service/internal/cache"
	"ticket-reservation-service/internal/clock"
	"ticket-reservation-service/internal/handler"
	"ticket-reservation-service/internal/model"
	"ticket-reservation-service/internal/queue"
	"ticket-reservation-service/internal/repository"
	"ticket-reservation-service/internal/service"
	"ticket-reservation-service/internal/worker"
	"ticket-reservation-service/test/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDB  *pgxpool.Pool
	testRdb *redis.Client
)

func TestMain(m *testing.M) {
	pool, rdb, cleanup, err := testutil.Setup()
	if err != nil {
		log.Fatalf("Failed to setup test environment: %v", err)
	}
	defer cleanup()
	testDB = pool
	testRdb = rdb

	log.Println("Running integration tests...")

	code := m.Run()
	os.Exit(code)
}

// newTestServer 組出與 cmd/server 相同的依賴圖，只把 Redis Stream 換成記憶體隊列
func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()

	eventRepo := repository.NewEventRepository(testDB)
	ticketRepo := repository.NewTicketRepository(testDB)
	inventory := cache.NewEventInventoryManager(testRdb)
	movementQueue := queue.NewMovementQueue(100)

	reservationService := service.NewReservationService(eventRepo, ticketRepo, inventory, movementQueue, clock.NewSystem())
	eventService := service.NewEventService(eventRepo, inventory)
	ticketService := service.NewTicketService(ticketRepo, eventRepo)

	workerCtx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	syncWorker := worker.NewInventorySyncWorker(inventory, movementQueue)
	require.NoError(t, syncWorker.Start(workerCtx))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.NewReservationHandler(reservationService).RegisterRoutes(router)
	handler.NewEventHandler(eventService).RegisterRoutes(router)
	handler.NewTicketHandler(ticketService).RegisterRoutes(router)

	return router
}

func truncate(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := testDB.Exec(ctx, "TRUNCATE tickets, events RESTART IDENTITY CASCADE")
	require.NoError(t, err)
	require.NoError(t, testRdb.FlushDB(ctx).Err())
}

func doJSON(router *gin.Engine, method, url, userID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createEventViaAPI(t *testing.T, router *gin.Engine, capacity int) string {
	t.Helper()

	w := doJSON(router, "POST", "/api/v1/events", "", model.CreateEventRequest{
		Title:     "Integration Concert",
		Organizer: "Acme",
		Capacity:  capacity,
		Deadline:  time.Now().UTC().Add(24 * time.Hour),
		BasePrice: 100,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp model.EventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.EventID
}

func TestPurchaseFlow_EndToEnd(t *testing.T) {
	truncate(t)
	router := newTestServer(t)

	eventID := createEventViaAPI(t, router, 10)

	// 開賣預熱閘門
	w := doJSON(router, "POST", fmt.Sprintf("/api/v1/events/%s/open", eventID), "", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// 第一次購買成功，折扣碼生效
	w = doJSON(router, "POST", "/api/v1/tickets/purchase", "buyer-1", model.PurchaseTicketRequest{
		EventID:    eventID,
		CouponCode: "DISCOUNT10",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var purchase model.PurchaseTicketResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &purchase))
	assert.Equal(t, 90.0, purchase.PricePaid)
	assert.Contains(t, purchase.Ticket.TicketCode, "TCK-")

	// 同一使用者再買被擋
	w = doJSON(router, "POST", "/api/v1/tickets/purchase", "buyer-1", model.PurchaseTicketRequest{
		EventID: eventID,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// 票夾看得到票，附活動標題
	w = doJSON(router, "GET", "/api/v1/tickets/mine", "buyer-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var mine []model.UserTicketResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "Integration Concert", mine[0].EventTitle)

	// 活動快照的 sold 正確
	w = doJSON(router, "GET", fmt.Sprintf("/api/v1/events/%s", eventID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var event model.EventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &event))
	assert.Equal(t, 1, event.Sold)
	assert.Equal(t, 9, event.Remaining)
}

func TestPurchaseFlow_ConcurrentNoOversell(t *testing.T) {
	truncate(t)
	router := newTestServer(t)

	capacity := 5
	buyers := 50
	eventID := createEventViaAPI(t, router, capacity)

	var wg sync.WaitGroup
	var mu sync.Mutex
	statusCounts := make(map[int]int)

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(buyerIndex int) {
			defer wg.Done()

			w := doJSON(router, "POST", "/api/v1/tickets/purchase",
				fmt.Sprintf("buyer-%d", buyerIndex), model.PurchaseTicketRequest{EventID: eventID})

			mu.Lock()
			statusCounts[w.Code]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	t.Logf("status counts: %v", statusCounts)
	assert.Equal(t, capacity, statusCounts[http.StatusCreated])
	assert.Equal(t, buyers-capacity, statusCounts[http.StatusConflict])

	// 資料庫裡名額與票券完全一致
	var sold, ticketCount int
	require.NoError(t, testDB.QueryRow(context.Background(),
		`SELECT sold FROM events WHERE event_id = $1`, eventID).Scan(&sold))
	require.NoError(t, testDB.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM tickets WHERE event_id = $1`, eventID).Scan(&ticketCount))
	assert.Equal(t, capacity, sold)
	assert.Equal(t, capacity, ticketCount)
}

func TestPurchaseFlow_DeadlineEnforced(t *testing.T) {
	truncate(t)

	// 固定時鐘撥到截止之後
	eventRepo := repository.NewEventRepository(testDB)
	ticketRepo := repository.NewTicketRepository(testDB)
	inventory := cache.NewEventInventoryManager(testRdb)
	movementQueue := queue.NewMovementQueue(10)

	deadline := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	reservationService := service.NewReservationService(
		eventRepo, ticketRepo, inventory, movementQueue, clock.NewFixed(deadline.Add(time.Hour)))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.NewReservationHandler(reservationService).RegisterRoutes(router)

	event, err := eventRepo.Create(context.Background(), &model.Event{
		EventID:   "past-event",
		Title:     "Past Event",
		Organizer: "Acme",
		Capacity:  10,
		Deadline:  deadline,
		BasePrice: 100,
	})
	require.NoError(t, err)

	w := doJSON(router, "POST", "/api/v1/tickets/purchase", "late-buyer", model.PurchaseTicketRequest{
		EventID: event.EventID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
