package main

import (
	"context"
	"fmt"
	"log"

	"ticket-reservation-service/config"
	"ticket-reservation-service/internal/cache"
	"ticket-reservation-service/internal/clock"
	"ticket-reservation-service/internal/database"
	"ticket-reservation-service/internal/handler"
	"ticket-reservation-service/internal/queue"
	"ticket-reservation-service/internal/repository"
	"ticket-reservation-service/internal/service"
	"ticket-reservation-service/internal/worker"
	"ticket-reservation-service/migrations"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer pool.Close()

	if err := migrations.Apply(context.Background(), pool); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	defer rdb.Close()

	// repositories
	eventRepo := repository.NewEventRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	// cache / queue
	inventory := cache.NewEventInventoryManager(rdb)
	movementQueue, err := queue.NewRedisStreamMovementQueue(rdb, "", nil)
	if err != nil {
		log.Fatalf("Failed to initialize movement queue: %v", err)
	}

	// services
	reservationService := service.NewReservationService(eventRepo, ticketRepo, inventory, movementQueue, clock.NewSystem())
	eventService := service.NewEventService(eventRepo, inventory)
	ticketService := service.NewTicketService(ticketRepo, eventRepo)

	// inventory sync worker
	syncWorker := worker.NewInventorySyncWorker(inventory, movementQueue)
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	if err := syncWorker.Start(workerCtx); err != nil {
		log.Fatalf("Failed to start inventory sync worker: %v", err)
	}

	router := gin.Default()
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	handler.NewReservationHandler(reservationService).RegisterRoutes(router)
	handler.NewEventHandler(eventService).RegisterRoutes(router)
	handler.NewTicketHandler(ticketService).RegisterRoutes(router)

	if err := router.Run(fmt.Sprintf(":%s", cfg.Server.Port)); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
