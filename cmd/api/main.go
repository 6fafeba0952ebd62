package main

import (
	"log"

	_ "carpetcare/api/swagger" // swagger docs
	"carpetcare/internal/config"
	"carpetcare/internal/database"
	"carpetcare/internal/handler"
	"carpetcare/internal/middleware"
	"carpetcare/internal/repository"
	"carpetcare/internal/service"
	"carpetcare/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Carpet Cleaning Order API
// @version         1.0
// @description     Order, invoicing, payment, and agent commission management for a carpet cleaning service.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	db, err := database.NewConnection(cfg.DSN())
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Redis backs the daily number sequences; the allocator falls back to a
	// database counter when it is unreachable.
	rdb, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Printf("Redis unavailable, using database counters: %v", err)
		rdb = nil
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	allocator := repository.NewNumberAllocator(db, rdb)

	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	carpetRepo := repository.NewCarpetRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	agentRepo := repository.NewAgentRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	statisticsRepo := repository.NewStatisticsRepository(db)

	userService := service.NewUserService(userRepo)
	orderService := service.NewOrderService(orderRepo, carpetRepo, agentRepo, auditRepo, allocator, txManager, wsHub)
	carpetService := service.NewCarpetService(carpetRepo, orderRepo, invoiceRepo, catalogRepo, txManager)
	invoiceService := service.NewInvoiceService(invoiceRepo, orderRepo, catalogRepo, auditRepo, allocator, txManager, wsHub)
	commissionService := service.NewCommissionService(commissionRepo, agentRepo, invoiceRepo, orderRepo, auditRepo, txManager)
	paymentService := service.NewPaymentService(paymentRepo, invoiceRepo, auditRepo, commissionService, txManager, wsHub)
	agentService := service.NewAgentService(agentRepo, userRepo, catalogRepo, auditRepo, txManager)
	catalogService := service.NewCatalogService(catalogRepo, auditRepo, txManager)
	auditService := service.NewAuditService(auditRepo)
	statisticsService := service.NewStatisticsService(statisticsRepo)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	orderHandler := handler.NewOrderHandler(orderService, carpetService)
	carpetHandler := handler.NewCarpetHandler(carpetService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, commissionService, paymentService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	commissionHandler := handler.NewCommissionHandler(commissionService)
	agentHandler := handler.NewAgentHandler(agentService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	auditHandler := handler.NewAuditHandler(auditService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)

	// Background jobs
	scheduler := service.NewScheduler(invoiceService)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Scheduler failed to start: %v", err)
	}
	defer scheduler.Stop()

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Webhook-Secret"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	orderHandler.RegisterRoutes(router.Group(""))
	carpetHandler.RegisterRoutes(router.Group(""))
	invoiceHandler.RegisterRoutes(router.Group(""))
	paymentHandler.RegisterRoutes(router.Group(""))
	commissionHandler.RegisterRoutes(router.Group(""))
	agentHandler.RegisterRoutes(router.Group(""))
	catalogHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))

	log.Printf("Server listening on :%s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
