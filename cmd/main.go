package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"luthier/internal/analytics"
	"luthier/internal/caching"
	"luthier/internal/collection"
	"luthier/internal/config"
	"luthier/internal/handlers"
	"luthier/internal/jobs/background"
	"luthier/internal/ledger"
	"luthier/internal/middleware"
	"luthier/internal/notify"
	"luthier/internal/repositories"
	"luthier/internal/services"
	"luthier/pkg/database"
)

const version = "1.0.0"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32)
		log.Printf("WARNING: Using generated JWT secret, sessions will not survive a restart")
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if db, err := strconv.Atoi(raw); err == nil {
			redisDB = db
		}
	}

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
		minioBucket = "luthier"
	}
	minioUseSSL := os.Getenv("MINIO_USE_SSL") == "true"

	storageSvc, err := services.NewMinioStorage(minioEndpoint, minioAccessKey, minioSecretKey, minioBucket, minioUseSSL)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	// Repositories
	instrumentRepo := repositories.NewInstrumentRepo(pool)
	salesRepo := repositories.NewSalesRepo(pool)
	clientRepo := repositories.NewClientRepo(pool)
	connectionRepo := repositories.NewConnectionRepo(pool)
	taskRepo := repositories.NewTaskRepo(pool)
	userRepo := repositories.NewUserRepo(pool)
	tenantRepo := repositories.NewTenantRepo(pool)
	tokenRepo := repositories.NewTokenRepo(pool)

	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// The ledger is local by default; a configured endpoint switches the
	// instrument workflow to the external sales-history API.
	var ledgerAPI ledger.API = ledger.NewLocalLedger(salesRepo)
	if ledgerCfg := loadLedgerConfig(); ledgerCfg != nil && ledgerCfg.Ledger.Endpoint != "" {
		ledgerAPI = ledger.NewClient(ledgerCfg)
		log.Printf("Using external sales-history ledger at %s", ledgerCfg.Ledger.Endpoint)
	}

	store := collection.NewInstrumentStore(instrumentRepo, collection.DefaultSnapshotTTL)
	notifier := notify.NewLogNotifier()

	// Services
	instrumentSvc := services.NewInstrumentService(instrumentRepo, store, ledgerAPI, cacheSvc, notifier)
	salesSvc := services.NewSalesService(salesRepo)
	clientSvc := services.NewClientService(clientRepo, cacheSvc)
	connectionSvc := services.NewConnectionService(connectionRepo, clientRepo, instrumentRepo)
	taskSvc := services.NewTaskService(taskRepo, instrumentRepo)
	tenantSvc := services.NewTenantService(tenantRepo)
	authSvc := services.NewAuthService(userRepo, tokenRepo, jwtSecret, 15*time.Minute, 30*24*time.Hour)
	analyticsSvc := analytics.NewService(instrumentRepo, salesRepo, taskRepo, cacheSvc)

	// Background jobs
	scheduler := background.NewJobScheduler(analyticsSvc, taskSvc, authSvc, tenantRepo)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, tenantSvc)
	instrumentHandlers := handlers.NewInstrumentHandlers(instrumentSvc, connectionSvc, storageSvc)
	salesHandlers := handlers.NewSalesHandlers(salesSvc)
	clientHandlers := handlers.NewClientHandlers(clientSvc)
	connectionHandlers := handlers.NewConnectionHandlers(connectionSvc)
	taskHandlers := handlers.NewTaskHandlers(taskSvc)
	dashboardHandlers := handlers.NewDashboardHandlers(analyticsSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	e := echo.New()

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	versionMiddleware := middleware.NewVersionMiddleware()
	e.Use(versionMiddleware.APIVersionResolver())

	// Health endpoints, no auth required
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)
	e.GET("/metrics", healthHandlers.GetMetrics)

	v1 := versionMiddleware.VersionRoute(e, "v1")

	auth := v1.Group("/auth")
	auth.POST("/signup", authHandlers.Signup)
	auth.POST("/login", authHandlers.Login)
	auth.POST("/refresh", authHandlers.Refresh)
	auth.POST("/logout", authHandlers.Logout)

	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(jwtSecret),
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(401, "Invalid token")
		},
	}))
	protected.Use(middleware.JWTMiddleware(userRepo, jwtSecret))
	protected.Use(middleware.AuditLog())

	// Instrument routes
	protected.GET("/instruments", instrumentHandlers.DashboardView)
	protected.POST("/instruments", instrumentHandlers.CreateItem)
	protected.GET("/instruments/:id", instrumentHandlers.GetItem)
	protected.PATCH("/instruments/:id", instrumentHandlers.UpdateItem)
	protected.PATCH("/instruments/:id/field", instrumentHandlers.UpdateItemInline)
	protected.DELETE("/instruments/:id", instrumentHandlers.DeleteItem)
	protected.POST("/instruments/:id/photo", instrumentHandlers.UploadPhoto)
	protected.GET("/instruments/:id/photo", instrumentHandlers.PhotoURL)

	// Sales-history ledger routes
	protected.GET("/sales", salesHandlers.ListSales)
	protected.GET("/sales/latest", salesHandlers.LatestSale)
	protected.POST("/sales", salesHandlers.CreateSale)
	protected.PATCH("/sales", salesHandlers.UpdateSale)
	protected.DELETE("/sales/:id", salesHandlers.DeleteSale)

	// Client routes
	protected.GET("/clients", clientHandlers.ListClients)
	protected.POST("/clients", clientHandlers.CreateClient)
	protected.GET("/clients/:id", clientHandlers.GetClient)
	protected.PUT("/clients/:id", clientHandlers.UpdateClient)
	protected.DELETE("/clients/:id", clientHandlers.DeleteClient)

	// Client-instrument connection routes
	protected.GET("/connections", connectionHandlers.ListConnections)
	protected.POST("/connections", connectionHandlers.CreateConnection)
	protected.DELETE("/connections/:id", connectionHandlers.DeleteConnection)

	// Maintenance task routes
	protected.GET("/tasks", taskHandlers.ListTasks)
	protected.POST("/tasks", taskHandlers.CreateTask)
	protected.GET("/tasks/:id", taskHandlers.GetTask)
	protected.PUT("/tasks/:id", taskHandlers.UpdateTask)
	protected.DELETE("/tasks/:id", taskHandlers.DeleteTask)

	// Dashboard
	protected.GET("/dashboard", dashboardHandlers.GetDashboard)

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("Luthier server v%s starting on port %d", version, port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}

// loadLedgerConfig reads the TOML ledger config when present, then lets
// environment variables override it.
func loadLedgerConfig() *config.LedgerConfig {
	path := os.Getenv("LEDGER_CONFIG")
	if path == "" {
		path = "ledger.toml"
	}

	cfg, err := config.LoadLedgerConfig(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Failed to load ledger config %s: %v", path, err)
		}
		cfg = config.LedgerConfigFromEnv()
	}
	return cfg
}
