package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/MEE-POONG/mapoo-sub001/src/config"
	"github.com/MEE-POONG/mapoo-sub001/src/controllers"
	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure"
	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure/log"
	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure/mongo"
	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure/rabbitmq"
	"github.com/MEE-POONG/mapoo-sub001/src/middleware"
	"github.com/MEE-POONG/mapoo-sub001/src/services/discount"
	"github.com/MEE-POONG/mapoo-sub001/src/services/dlq"
	"github.com/MEE-POONG/mapoo-sub001/src/services/events"
	"github.com/MEE-POONG/mapoo-sub001/src/services/inventory"
	"github.com/MEE-POONG/mapoo-sub001/src/services/notification"
	notificationHandlers "github.com/MEE-POONG/mapoo-sub001/src/services/notification/handlers"
	"github.com/MEE-POONG/mapoo-sub001/src/services/order/domain"
	"github.com/MEE-POONG/mapoo-sub001/src/services/order/domain/persistence"
	"github.com/MEE-POONG/mapoo-sub001/src/services/report"
	"github.com/MEE-POONG/mapoo-sub001/src/services/wholesale"

	_ "github.com/MEE-POONG/mapoo-sub001/docs"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// @title        Mapoo Store API
// @version      1.0
// @description  Storefront checkout, order lifecycle, discount codes and sales reports.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := log.NewLogger()

	var configs, err = config.LoadConfig()
	if err != nil {
		logger.Fatal(ctx, "Failed to load configuration", err)
	}
	location, err := time.LoadLocation(configs.Timezone)
	if err != nil {
		logger.Fatal(ctx, "Invalid TIMEZONE", err)
	}
	logger.Info(ctx, "Configuration loaded successfully")

	// Initialize MongoDB connection with health check
	client, err := mongo.GetMongoClient(configs)
	if err != nil {
		logger.Fatal(ctx, "Failed to connect to MongoDB", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatal(ctx, "MongoDB ping failed", err)
	}
	logger.Info(ctx, "MongoDB connection successful")

	db := mongo.GetDatabase(configs, client)
	if err := ensureIndexes(ctx, db); err != nil {
		logger.Fatal(ctx, "Failed to create indexes", err)
	}

	// Initialize repositories
	productRepository := inventory.NewProductRepository(db)
	orderRepository := persistence.NewOrderRepository(db)
	eventRepository := persistence.NewEventRepository(db)
	discountRepository := discount.NewRepository(db)
	wholesaleRepository := wholesale.NewRepository(db)

	if err := seedProducts(ctx, productRepository, logger); err != nil {
		logger.Fatal(ctx, "Failed to seed products", err)
	}

	// RabbitMQ is optional; without it events go straight to the replay store.
	var publisher domain.Publisher
	var rabbitmqService *rabbitmq.RabbitMQService
	if configs.RabbitMQHostName != "" {
		rabbitmqService, err = rabbitmq.NewRabbitMQService(configs.RabbitMQHostName, configs.RabbitMQExchange, configs.RabbitMQQueueName, events.Topics)
		if err != nil {
			logger.Fatal(ctx, "Failed to create RabbitMQ service", err)
		}
		defer rabbitmqService.Close()
		if !rabbitmqService.IsHealthy() {
			logger.Fatal(ctx, "RabbitMQ connection is not healthy", nil)
		}
		publisher = rabbitmqService
		logger.Info(ctx, "RabbitMQ connection successful")
	} else {
		logger.Warn(ctx, "RABBITMQ_HOSTNAME is not set, order events are stored for replay only")
	}

	// Create business services
	inventoryService := inventory.NewInventoryService(logger, productRepository)
	wholesaleService := wholesale.NewService(logger, wholesaleRepository)
	discountService := discount.NewDiscountService(logger, discountRepository, orderRepository)
	orderService := domain.NewOrderService(
		logger,
		mongo.NewTransactor(client),
		orderRepository,
		eventRepository,
		inventoryService,
		discountService,
		wholesaleService,
		publisher,
	)
	reportService := report.NewReportService(logger, orderRepository, inventoryService, location, configs.LowStockThreshold)

	if rabbitmqService != nil {
		startEventListeners(ctx, rabbitmqService, eventRepository, logger)
	}

	rateLimit := newRateLimit(ctx, configs, logger)
	authenticator := middleware.NewAuthenticator(configs.JWTSecret)

	// Configure Fiber app with optimized settings
	app := fiber.New(fiber.Config{
		ReadBufferSize:  81920,
		WriteBufferSize: 81920,
		ServerHeader:    "Mapoo-Store",
		ErrorHandler:    middleware.ErrorHandler(logger),
	})

	// Add middleware
	app.Use(cors.New(cors.Config{
		AllowCredentials: true,
		AllowOriginsFunc: func(_ string) bool { return true },
	}))
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(logger))

	// Add routes
	app.Get("/api/swagger/*", fiberSwagger.WrapHandler)
	app.Get("/api/healthCheck", func(c *fiber.Ctx) error {
		if err := client.Ping(c.UserContext(), nil); err != nil {
			logger.Exception(c.UserContext(), "Health check: MongoDB ping failed", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
		}

		if rabbitmqService != nil && !rabbitmqService.IsHealthy() {
			logger.Warn(c.UserContext(), "Health check: RabbitMQ connection is unhealthy")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"error":  "message queue connection failed",
			})
		}

		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().UTC(),
		})
	})

	app.Use("/api", rateLimit)
	routers := controllers.NewRouters(app, authenticator)
	controllers.NewOrderController(orderService).Route(routers)
	controllers.NewInventoryController(inventoryService, wholesaleService, configs.LowStockThreshold).Route(routers)
	controllers.NewDiscountController(discountService).Route(routers)
	controllers.NewReportController(reportService).Route(routers)

	// Set up graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	serverShutdown := make(chan error, 1)
	go func() {
		logger.Info(ctx, "Starting server on port "+configs.Port)
		if err := app.Listen(":" + configs.Port); err != nil {
			serverShutdown <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case <-c:
		logger.Info(ctx, "Shutdown signal received, shutting down gracefully...")
	case err := <-serverShutdown:
		logger.Exception(ctx, "Server error occurred", err)
	}

	// Cancel context to stop background processes
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Exception(ctx, "Server shutdown error", err)
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		logger.Exception(ctx, "MongoDB disconnect error", err)
	}

	logger.Info(ctx, "Server shutdown complete")
}

func ensureIndexes(ctx context.Context, db *mongodriver.Database) error {
	for _, ensure := range []func(context.Context, *mongodriver.Database) error{
		inventory.EnsureProductIndexes,
		persistence.EnsureOrderIndexes,
		discount.EnsureIndexes,
		wholesale.EnsureIndexes,
	} {
		if err := ensure(ctx, db); err != nil {
			return err
		}
	}
	return nil
}

// startEventListeners wires customer notifications to the order topics and a
// DLQ consumer per topic that parks undeliverable events for replay.
func startEventListeners(ctx context.Context, rabbitmqService *rabbitmq.RabbitMQService, eventStore dlq.EventStore, logger log.Logger) {
	notificationService := notification.NewNotificationService(logger)
	orderEvents := notificationHandlers.NewOrderEventHandler(rabbitmqService, notificationService, logger)

	eventListener := infrastructure.NewEventListener(rabbitmqService, logger)
	eventListener.RegisterHandler(events.OrderPlaced, orderEvents.Placed())
	eventListener.RegisterHandler(events.OrderStatusChanged, orderEvents.StatusChanged())
	for _, topic := range events.Topics {
		h := dlq.NewDLQHandler(eventStore, logger, topic)
		eventListener.RegisterHandler(h.Queue(), h)
	}

	go func() {
		if err := eventListener.StartListening(ctx); err != nil {
			logger.Fatal(ctx, "Failed to start event listeners", err)
		}
	}()
	logger.Info(ctx, "Event listeners started successfully")
}

// newRateLimit prefers the shared Redis window; the in-process fallback only
// protects a single instance.
func newRateLimit(ctx context.Context, configs *config.Config, logger log.Logger) fiber.Handler {
	if configs.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: configs.RedisAddr})
		err := redisClient.Ping(ctx).Err()
		if err == nil {
			logger.Info(ctx, "Redis rate limiter enabled")
			limiter := middleware.NewRedisLimiter(redisClient, configs.RateLimitPerMinute, time.Minute)
			return middleware.RateLimit(limiter, logger)
		}
		logger.Exception(ctx, "Redis ping failed, falling back to in-memory rate limiter", err)
	}
	return middleware.MemoryRateLimit(configs.RateLimitPerMinute, time.Minute)
}

// seedProducts adds the starter catalogue; existing products are matched by name.
func seedProducts(ctx context.Context, productRepo inventory.ProductRepository, logger log.Logger) error {
	now := time.Now()
	products := []inventory.Product{
		{Name: "น้ำพริกหนุ่ม", Price: 89, CostPrice: 45, Stock: 120, Category: "น้ำพริก", Featured: true},
		{Name: "น้ำพริกตาแดง", Price: 79, CostPrice: 38, Stock: 100, Category: "น้ำพริก"},
		{Name: "แคบหมู", Price: 59, CostPrice: 25, Stock: 200, Category: "ของทานเล่น", Featured: true},
		{Name: "ไส้อั่ว", Price: 150, CostPrice: 90, Stock: 60, Category: "อาหารแปรรูป"},
		{Name: "หมูยอ", Price: 120, CostPrice: 70, Stock: 80, Category: "อาหารแปรรูป"},
	}

	for _, product := range products {
		product.ID = uuid.NewString()
		product.CreatedAt = now
		product.UpdatedAt = now
		err := productRepo.SeedProduct(ctx, product)
		if err != nil {
			logger.Exception(ctx, "Failed to seed product: "+product.Name, err)
			return err
		}
	}

	logger.Info(ctx, "Products seeded successfully")
	return nil
}
