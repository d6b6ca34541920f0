package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"github.com/hibiken/asynq"

	"freshkeeper/internal/caching"
	"freshkeeper/internal/catalog"
	"freshkeeper/internal/config"
	"freshkeeper/internal/genai"
	"freshkeeper/internal/handlers"
	"freshkeeper/internal/jobs"
	"freshkeeper/internal/jobs/background"
	"freshkeeper/internal/middleware"
	"freshkeeper/internal/repositories"
	"freshkeeper/internal/search"
	"freshkeeper/internal/services"
	"freshkeeper/internal/storage"
	"freshkeeper/pkg/database"
)

const version = "1.0.0"

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	maxConns := int32(0)
	if raw := os.Getenv("DATABASE_MAX_CONNS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			maxConns = int32(parsed)
		}
	}

	pool, err := database.NewPool(databaseURL, maxConns)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Resolver configuration file (optional)
	resolverCfg := &config.ResolverConfig{}
	if configFile := os.Getenv("CONFIG_FILE"); configFile != "" {
		resolverCfg, err = config.LoadResolverConfig(configFile)
		if err != nil {
			log.Fatalf("Failed to load config file %s: %v", configFile, err)
		}
	}
	if resolverCfg.Generative.APIKey == "" {
		resolverCfg.Generative.APIKey = os.Getenv("GENERATIVE_API_KEY")
	}

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret; tokens will not survive restarts")
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			redisDB = parsed
		}
	}

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin"
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin"
	}
	minioBucket := os.Getenv("MINIO_BUCKET")
	if minioBucket == "" {
		minioBucket = "freshkeeper-images"
	}
	minioUseSSL := os.Getenv("MINIO_USE_SSL") == "true"

	imageStorage, err := storage.NewMinioStorage(minioEndpoint, minioAccessKey, minioSecretKey, minioBucket, minioUseSSL)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}
	if err := imageStorage.EnsureBucket(context.Background()); err != nil {
		log.Printf("WARNING: could not ensure bucket %s: %v", minioBucket, err)
	}

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	productRepo := repositories.NewProductRepo(pool)
	userProductRepo := repositories.NewUserProductRepo(pool)
	locationRepo := repositories.NewLocationRepo(pool)
	movementRepo := repositories.NewMovementRepo(pool)
	deviceTokenRepo := repositories.NewDeviceTokenRepo(pool)
	notificationHistoryRepo := repositories.NewNotificationHistoryRepo(pool)
	productImageRepo := repositories.NewProductImageRepo(pool)

	// Cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Resolution pipeline: local store, external catalog, generative fallback
	catalogClient := catalog.NewClient(resolverCfg.Catalog.BaseURL, time.Duration(resolverCfg.Catalog.TimeoutSeconds)*time.Second)
	synthesizer := genai.NewSynthesizer(
		resolverCfg.Generative.BaseURL,
		resolverCfg.Generative.APIKey,
		resolverCfg.Generative.Model,
		time.Duration(resolverCfg.Generative.TimeoutSeconds)*time.Second,
	)
	engine := search.NewEngine(productRepo, catalogClient, synthesizer, cacheSvc, search.NewClassifier(nil, nil))

	// Services
	authSvc := services.NewAuthService(userRepo, jwtSecret, 24*time.Hour)
	productSvc := services.NewProductService(productRepo, productImageRepo, engine, cacheSvc, imageStorage)
	inventorySvc := services.NewInventoryService(productSvc, userProductRepo, locationRepo, movementRepo)
	dashboardSvc := services.NewDashboardService(locationRepo, movementRepo, cacheSvc)
	shoppingSvc := services.NewShoppingListService(inventorySvc)
	notificationSvc := services.NewNotificationService(inventorySvc, deviceTokenRepo, notificationHistoryRepo, services.LogDispatcher{})

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authSvc)
	productHandlers := handlers.NewProductHandlers(productSvc, cacheSvc)
	inventoryHandlers := handlers.NewInventoryHandlers(inventorySvc, shoppingSvc)
	dashboardHandlers := handlers.NewDashboardHandlers(dashboardSvc)
	notificationHandlers := handlers.NewNotificationHandlers(notificationSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	// Background workers: asynq consumes the expiry tasks the scheduler
	// enqueues once a day.
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr, Password: redisPassword, DB: redisDB}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	concurrency := resolverCfg.Notify.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	asynqServer := asynq.NewServer(redisOpt, asynq.Config{Concurrency: concurrency})
	mux := asynq.NewServeMux()
	jobs.RegisterHandlers(mux, jobs.NewExpiryNotifier(notificationSvc))
	go func() {
		if err := asynqServer.Run(mux); err != nil {
			log.Fatalf("Failed to run task server: %v", err)
		}
	}()

	scheduler := background.NewJobScheduler(userRepo, asynqClient, resolverCfg.Notify.WithinDays, resolverCfg.Notify.SweepCron)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Scheduler shutdown error: %v", err)
		}
	}()

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)

	// API routes
	api := e.Group("/api")

	// Authentication routes (no JWT required for signup/login)
	auth := api.Group("/auth")
	auth.POST("/signup", authHandlers.Signup)
	auth.POST("/login", authHandlers.Login)

	// Protected routes (require JWT)
	protected := api.Group("")
	protected.Use(echojwt.WithConfig(middleware.JWTConfig(jwtSecret)))

	// Product resolution routes
	protected.GET("/products/search", productHandlers.Search)
	protected.GET("/products/barcode/:code", productHandlers.LookupBarcode)
	protected.POST("/products", productHandlers.CreateProduct)
	protected.GET("/products/:id", productHandlers.GetProduct)
	protected.POST("/products/:id/images", productHandlers.UploadImage)
	protected.GET("/products/:id/images", productHandlers.ListImages)

	// Inventory routes
	protected.POST("/inventory/locations", inventoryHandlers.AddLocation)
	protected.GET("/inventory/locations", inventoryHandlers.ListLocations)
	protected.PUT("/inventory/locations/:id", inventoryHandlers.UpdateLocation)
	protected.DELETE("/inventory/locations/:id", inventoryHandlers.DeleteLocation)
	protected.POST("/inventory/locations/:id/move", inventoryHandlers.MoveLocation)
	protected.POST("/inventory/locations/:id/consume", inventoryHandlers.ConsumeLocation)
	protected.GET("/inventory/expiring", inventoryHandlers.ListExpiring)
	protected.GET("/inventory/movements", inventoryHandlers.ListMovements)
	protected.GET("/inventory/shopping-list/pdf", inventoryHandlers.ExportShoppingListPDF)

	// Dashboard
	protected.GET("/dashboard", dashboardHandlers.Summary)

	// Notifications
	protected.POST("/notifications/devices", notificationHandlers.RegisterDevice)
	protected.DELETE("/notifications/devices", notificationHandlers.UnregisterDevice)
	protected.GET("/notifications/history", notificationHandlers.History)

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("FreshKeeper server v%s starting on port %d", version, port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
