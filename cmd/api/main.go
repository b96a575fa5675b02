package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-inventory-odoo/internal/cache"
	"go-inventory-odoo/internal/config"
	"go-inventory-odoo/internal/erpsync"
	"go-inventory-odoo/internal/events"
	"go-inventory-odoo/internal/handler"
	"go-inventory-odoo/internal/middleware"
	"go-inventory-odoo/internal/model"
	"go-inventory-odoo/internal/repository"
	"go-inventory-odoo/internal/service"
	"go-inventory-odoo/internal/storage"
	"go-inventory-odoo/internal/ws"
	"go-inventory-odoo/pkg/database"
	"go-inventory-odoo/pkg/jwt"
	"go-inventory-odoo/pkg/odoo"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// 1. Config
	cfg := config.Load()
	jwt.SetSecretKey(cfg.JWTSecret)
	if cfg.Odoo.InsecureSkipVerify {
		logger.Warn().Msg("TLS verification toward Odoo is disabled (ODOO_INSECURE_SKIP_VERIFY)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Database
	db, err := database.ConnectDB(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Database unavailable")
	}
	if err := db.AutoMigrate(&model.Category{}, &model.Product{}, &model.Transaction{}, &model.User{}, &model.Privilege{}, &model.Role{}); err != nil {
		logger.Fatal().Err(err).Msg("Auto migration failed")
	}

	productRepo := repository.NewProductRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	userRepo := repository.NewUserRepo(db)
	accessRepo := repository.NewAccessRepo(db)

	seedAccess(accessRepo, userRepo, logger)

	// 3. Realtime + event sinks
	wsHub := ws.NewHub(logger)
	go wsHub.Run(ctx)

	publishers := []events.Publisher{events.NewHubPublisher(wsHub)}
	kafkaWriter := events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.PublishTimeout)
	if kafkaWriter != nil {
		publishers = append(publishers, events.NewKafkaPublisher(kafkaWriter, cfg.Kafka.PublishTimeout))
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Kafka event sink enabled")
	}
	publisher := events.NewMulti(logger, publishers...)

	rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, aggregate cache disabled")
	}
	aggregates := cache.New(rdb, logger)

	// 4. Image store + Odoo
	store, err := storage.NewFileStore(cfg.ImageStoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Image storage unavailable")
	}

	odooClient := odoo.New(ctx, odoo.Config{
		URL:                cfg.Odoo.URL,
		Database:           cfg.Odoo.Database,
		Username:           cfg.Odoo.Username,
		Password:           cfg.Odoo.Password,
		InsecureSkipVerify: cfg.Odoo.InsecureSkipVerify,
		Timeout:            cfg.Odoo.Timeout,
	}, logger)

	catalog := erpsync.NewCatalog(odooClient)
	reconciler := erpsync.NewImageReconciler(store, logger)
	productSync := erpsync.NewProductSync(catalog, productRepo, erpsync.NewCategoryMapper(categoryRepo), reconciler, cfg.ProductLimit, logger)
	txSync := erpsync.NewTransactionSync(catalog, productRepo, txRepo, erpsync.ReferenceClassifier{}, logger)
	stockWriter := erpsync.NewStockWriter(odooClient, logger)

	// 5. Services + handlers
	invService := service.NewInventoryService(productRepo, txRepo, categoryRepo, catalog, stockWriter, reconciler, store, publisher, aggregates, logger)
	syncService := service.NewSyncService(odooClient, productSync, txSync, reconciler, productRepo, cfg.TransactionDays, publisher, aggregates, logger)
	dashService := service.NewDashboardService(txRepo, aggregates, cfg.LowStockThreshold, logger)
	reportService := service.NewReportService(productRepo, txRepo, cfg.LowStockThreshold)
	authService := service.NewAuthService(userRepo)

	invHandler := handler.NewInventoryHandler(invService)
	syncHandler := handler.NewSyncHandler(syncService)
	dashHandler := handler.NewDashboardHandler(dashService)
	reportHandler := handler.NewReportHandler(reportService)
	imageHandler := handler.NewImageHandler(store)
	authHandler := handler.NewAuthHandler(authService)
	accessHandler := handler.NewAccessHandler(accessRepo)

	syncLimit, err := middleware.RateLimit(cfg.SyncRateLimit, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid SYNC_RATE_LIMIT")
	}

	// 6. Fiber
	app := fiber.New(fiber.Config{
		AppName: "Inventory Odoo Dashboard v1.0",
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)

	api.Get("/images/*", imageHandler.Get)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(authService))

	protected.Get("/dashboard/stats", middleware.RequirePrivilege(model.PrivDashboardView), dashHandler.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", middleware.RequirePrivilege(model.PrivDashboardView), dashHandler.GetStockMovement)

	protected.Get("/products", middleware.RequirePrivilege(model.PrivProductView), invHandler.GetProducts)
	protected.Post("/products", middleware.RequirePrivilege(model.PrivProductCreate), invHandler.CreateProduct)
	protected.Post("/products/sync", middleware.RequirePrivilege(model.PrivProductSync), syncLimit, syncHandler.SyncProducts)
	protected.Get("/products/:id", middleware.RequirePrivilege(model.PrivProductView), invHandler.GetProduct)
	protected.Put("/products/:id", middleware.RequirePrivilege(model.PrivProductUpdate), invHandler.UpdateProduct)
	protected.Delete("/products/:id", middleware.RequirePrivilege(model.PrivProductDelete), invHandler.DeleteProduct)

	protected.Get("/categories", middleware.RequirePrivilege(model.PrivProductView), invHandler.GetCategories)

	protected.Get("/transactions", middleware.RequirePrivilege(model.PrivTransactionView), invHandler.GetTransactions)
	protected.Post("/transactions", middleware.RequirePrivilege(model.PrivTransactionCreate), invHandler.CreateTransaction)
	protected.Post("/transactions/sync", middleware.RequirePrivilege(model.PrivTransactionSync), syncLimit, syncHandler.SyncTransactions)
	protected.Get("/transactions/:id", middleware.RequirePrivilege(model.PrivTransactionView), invHandler.GetTransaction)

	protected.Get("/reports/inventory", middleware.RequirePrivilege(model.PrivReportView), reportHandler.Inventory)
	protected.Get("/reports/transactions", middleware.RequirePrivilege(model.PrivReportView), reportHandler.Transactions)
	protected.Get("/reports/sales", middleware.RequirePrivilege(model.PrivReportView), reportHandler.Sales)

	protected.Post("/maintenance/images/clean", middleware.RequirePrivilege(model.PrivImageMaintenance), syncHandler.CleanImages)

	protected.Get("/roles", accessHandler.GetRoles)
	protected.Get("/privileges", accessHandler.GetPrivileges)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Panic().Err(err).Msg("Server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	cancel()

	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error().Err(err).Msg("Kafka writer close failed")
		}
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info().Msg("Server exited")
}
