package internal

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blogsphere/pkg/cache"
	"blogsphere/pkg/config"
	"blogsphere/pkg/database"
	"blogsphere/pkg/jwt"
	"blogsphere/pkg/ledger"
	"blogsphere/pkg/logger"
	"blogsphere/pkg/middleware"
	"blogsphere/pkg/queue"
	billingHTTP "blogsphere/services/billing/internal/controller/http"
	billingCache "blogsphere/services/billing/internal/repo/cache"
	"blogsphere/services/billing/internal/repo/persistent"
	"blogsphere/services/billing/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "blogsphere/services/billing/docs" // Swagger docs
)

type App struct {
	cfg             *config.Config
	log             *logger.Logger
	db              *gorm.DB
	redisClient     *redis.Client
	queueClient     *queue.Client
	jwtService      *jwt.Service
	entitlementFeed billingCache.EntitlementFeed
	billingUseCase  usecase.BillingUseCase
	httpServer      *http.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logger.New()

	if !cfg.HasJWTSecret() {
		return nil, errors.New("JWT_SECRET must be set in environment variables")
	}
	if cfg.StripeSecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY is not set; ledger requests will fail")
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		return nil, err
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Warn("Failed to connect to redis: %v (continuing without premium cache and rate limiting)", err)
		redisClient = nil
	}

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Warn("Failed to connect to RabbitMQ: %v (webhook events will be applied inline)", err)
		queueClient = nil
	}

	entitlementFeed := billingCache.NewEntitlementFeed(redisClient)

	billingUseCase := usecase.NewBillingUseCase(
		persistent.NewBillingRepository(db),
		billingCache.NewPremiumCache(redisClient),
		entitlementFeed,
		ledger.NewStripeLedger(cfg.StripeSecretKey),
		usecase.Settings{
			CheckoutURL: cfg.CheckoutURL,
			PriceLabel:  cfg.PremiumPriceLabel,
			Location:    cfg.Location(),
		},
		log,
	)

	return &App{
		cfg:             cfg,
		log:             log,
		db:              db,
		redisClient:     redisClient,
		queueClient:     queueClient,
		jwtService:      jwt.NewServiceWithTTL(cfg.JWTSecret, cfg.TokenTTL),
		entitlementFeed: entitlementFeed,
		billingUseCase:  billingUseCase,
	}, nil
}

func (a *App) Router() *gin.Engine {
	var publisher billingHTTP.EventPublisher
	if a.queueClient != nil {
		publisher = a.queueClient
	}
	billingHandler := billingHTTP.NewBillingHandler(
		a.billingUseCase,
		a.entitlementFeed,
		publisher,
		a.cfg.StripeWebhookSecret,
		a.cfg.BillingServiceURL+"/api/v1/billing/upgrade",
		a.log,
	)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok", "queue": "inline"}
		if a.queueClient != nil {
			pending, err := a.queueClient.GetQueueLength()
			if err != nil {
				a.log.Warn("Failed to inspect charge event queue: %v", err)
				status["queue"] = "unavailable"
			} else {
				status["queue"] = "rabbitmq"
				status["pending_charge_events"] = pending
			}
		}
		c.JSON(http.StatusOK, status)
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1/billing")
	{
		// authenticated by signature, not by token
		api.POST("/webhook", billingHandler.Webhook)

		// browsers cannot set headers on a websocket handshake
		api.GET("/events", middleware.WebSocketAuthMiddleware(a.jwtService), billingHandler.Events)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(a.jwtService))
		if a.redisClient != nil {
			protected.Use(middleware.RateLimitMiddleware(a.redisClient, 30, time.Minute))
		}
		{
			protected.GET("/upgrade", billingHandler.GetUpgrade)
			protected.POST("/reconcile", billingHandler.Reconcile)
			protected.GET("/payments", billingHandler.GetPayments)
		}
	}

	return r
}

func (a *App) Run() error {
	if a.queueClient != nil {
		err := a.queueClient.ConsumeChargeEvents(func(ev ledger.ChargeEvent) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return a.billingUseCase.HandleChargeEvent(ctx, ev)
		})
		if err != nil {
			a.log.Error("Failed to start charge event consumer: %v", err)
			return err
		}
	}

	a.httpServer = &http.Server{
		Addr:    ":" + a.cfg.ServerPort,
		Handler: a.Router(),
	}

	go func() {
		a.log.Info("Billing service starting on port %s", a.cfg.ServerPort)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	return nil
}

func (a *App) Wait() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	a.log.Info("Shutting down billing service...")
}

func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.log.Error("Server forced to shutdown: %v", err)
		return err
	}

	if a.queueClient != nil {
		if err := a.queueClient.Close(); err != nil {
			a.log.Error("Error closing RabbitMQ: %v", err)
		}
	}

	sqlDB, err := a.db.DB()
	if err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Error("Error closing database: %v", err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("Error closing Redis: %v", err)
		}
	}

	a.log.Info("Billing service exited")
	return nil
}
