package router

import (
	"strings"
	"time"

	"github.com/sebastiangaticacl/stvaldivia/internal/config"
	"github.com/sebastiangaticacl/stvaldivia/internal/handler"
	"github.com/sebastiangaticacl/stvaldivia/internal/infra"
	"github.com/sebastiangaticacl/stvaldivia/internal/middleware"
	"github.com/sebastiangaticacl/stvaldivia/internal/repository"
	"github.com/sebastiangaticacl/stvaldivia/internal/service"
	"github.com/sebastiangaticacl/stvaldivia/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine plus the
// worker pool ready to start.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, syncCB *infra.CircuitBreaker, log zerolog.Logger) (*gin.Engine, *worker.Pool, worker.MonitorCronConfig) {
	if cfg.Environment() == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	phpposClient := infra.NewPhpPosClient(cfg.PhpPosURL)
	mailer := infra.NewMailer(cfg)
	closePDF := infra.NewClosePDF(cfg.PDFStoragePath)

	// ── Repositories ─────────────────────────────────────────────────────────
	employeeRepo := repository.NewEmployeeRepository(db)
	registerRepo := repository.NewRegisterRepository(db)
	productRepo := repository.NewProductRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	closeRepo := repository.NewCloseRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	lockTTL := time.Duration(cfg.LockTTLMinutes) * time.Minute
	authSvc := service.NewAuthService(employeeRepo, cfg, log, nil)
	registrySvc := service.NewRegistryService(registerRepo, productRepo, employeeRepo, log)
	sessionSvc := service.NewSessionService(sessionRepo, registerRepo, lockTTL, nil)
	saleSvc := service.NewSaleService(saleRepo, sessionRepo, registerRepo, productRepo, dispatcher, log, nil)
	reconcileSvc := service.NewReconcileService(closeRepo, saleRepo, sessionRepo, registerRepo, dispatcher, closePDF, cfg, log, nil)
	inventorySvc := service.NewInventoryService(inventoryRepo, deliveryRepo, saleRepo, productRepo, dispatcher, log, nil)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	registryH := handler.NewRegistryHandler(registrySvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	saleH := handler.NewSaleHandler(saleSvc)
	closeH := handler.NewCloseHandler(reconcileSvc, closePDF)
	inventoryH := handler.NewInventoryHandler(inventorySvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, syncCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(authSvc)
	v1 := r.Group("/v1", jwtMW)
	{
		// Registers — admin writes, all staff read
		v1.GET("/registers", registryH.ListRegisters)
		v1.GET("/registers/:id", registryH.GetRegister)
		registers := v1.Group("/registers", middleware.RequireCargo("admin"))
		{
			registers.POST("", registryH.CreateRegister)
			registers.DELETE("/:id", registryH.DeactivateRegister)
		}

		// Register locks — cashiers and door staff
		v1.POST("/registers/locks", middleware.RequireCargo("cajero", "puerta"), sessionH.AcquireLock)
		v1.DELETE("/registers/:id/lock", middleware.RequireCargo("cajero", "puerta"), sessionH.ReleaseLock)
		v1.GET("/registers/locks", sessionH.ListLocks)

		// Sessions
		v1.POST("/sessions/open", middleware.RequireCargo("cajero", "puerta"), sessionH.Open)
		v1.POST("/sessions/close", middleware.RequireCargo("cajero", "puerta"), sessionH.Close)
		v1.GET("/sessions", sessionH.List)
		v1.GET("/sessions/:id", sessionH.Get)

		// Sales ledger
		v1.POST("/sales", middleware.RequireCargo("cajero", "puerta"), saleH.Record)
		v1.GET("/sales", saleH.List)
		v1.GET("/sales/:id", saleH.Get)
		v1.POST("/sales/:id/cancel", middleware.RequireCargo("cajero"), saleH.Cancel)
		v1.GET("/sales/:id/deliveries", inventoryH.ListDeliveriesBySale)

		// Reconciliation
		v1.GET("/registers/:id/expected", middleware.RequireCargo("cajero", "puerta"), closeH.Expected)
		v1.GET("/registers/:id/close", closeH.GetByRegisterDay)
		v1.POST("/closes", middleware.RequireCargo("cajero", "puerta"), closeH.Close)
		v1.GET("/closes", closeH.List)
		v1.GET("/closes/:id", closeH.Get)
		v1.GET("/closes/:id/report", closeH.Report)

		// Products — admin writes, all staff read (terminal catalog sync)
		v1.GET("/products", registryH.ListProducts)
		v1.POST("/products", middleware.RequireCargo("admin"), registryH.CreateProduct)

		// Inventory — admin manages, bartenders deliver
		v1.POST("/deliveries", middleware.RequireCargo("bartender"), inventoryH.Deliver)
		inv := v1.Group("/inventory", middleware.RequireCargo("admin"))
		{
			inv.POST("/ingredients", inventoryH.CreateIngredient)
			inv.GET("/ingredients", inventoryH.ListIngredients)
			inv.POST("/stock/adjust", inventoryH.AdjustStock)
			inv.GET("/stock", inventoryH.ListStock)
			inv.POST("/recipes", inventoryH.CreateRecipe)
			inv.GET("/recipes", inventoryH.ListRecipes)
		}

		// Employees — admin only
		employees := v1.Group("/employees", middleware.RequireCargo("admin"))
		{
			employees.POST("", registryH.CreateEmployee)
			employees.GET("", registryH.ListEmployees)
			employees.PUT("/:id", registryH.UpdateEmployee)
			employees.DELETE("/:id", registryH.DeactivateEmployee)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Environment() != config.EnvProduction {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// ── Async plane ──────────────────────────────────────────────────────────
	alertMailTo := splitMailList(cfg.AlertMailTo)
	pool := worker.NewPool(
		rdb,
		worker.NewPosSyncWorker(phpposClient, syncCB, saleRepo, rdb),
		worker.NewAlertWorker(dispatcher, alertMailTo),
		worker.NewEmailWorker(mailer),
	)
	monitorCfg := worker.MonitorCronConfig{
		SaleRepo:       saleRepo,
		SessionRepo:    sessionRepo,
		Dispatcher:     dispatcher,
		CB:             syncCB,
		StaleLockAfter: time.Duration(cfg.StaleLockAlertAfter) * time.Minute,
	}

	return r, pool, monitorCfg
}

func splitMailList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
