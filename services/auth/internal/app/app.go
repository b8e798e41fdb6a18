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
	"blogsphere/pkg/logger"
	"blogsphere/pkg/middleware"
	authHTTP "blogsphere/services/auth/internal/controller/http"
	"blogsphere/services/auth/internal/repo/persistent"
	"blogsphere/services/auth/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "blogsphere/services/auth/docs" // Swagger docs
)

type App struct {
	cfg         *config.Config
	log         *logger.Logger
	db          *gorm.DB
	redisClient *redis.Client
	jwtService  *jwt.Service
	httpServer  *http.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logger.New()

	if !cfg.HasJWTSecret() {
		return nil, errors.New("JWT_SECRET must be set in environment variables")
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		return nil, err
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Warn("Failed to connect to redis: %v (continuing without rate limiting)", err)
		redisClient = nil
	}

	return &App{
		cfg:         cfg,
		log:         log,
		db:          db,
		redisClient: redisClient,
		jwtService:  jwt.NewServiceWithTTL(cfg.JWTSecret, cfg.TokenTTL),
	}, nil
}

func (a *App) Router() *gin.Engine {
	userRepo := persistent.NewUserRepository(a.db)
	authUseCase := usecase.NewAuthUseCase(userRepo, a.jwtService, a.log)
	authHandler := authHTTP.NewAuthHandler(authUseCase)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	{
		public := api.Group("")
		if a.redisClient != nil {
			// credential endpoints are the brute-force target
			public.Use(middleware.RateLimitMiddleware(a.redisClient, 20, time.Minute))
		}
		public.POST("/register", authHandler.Register)
		public.POST("/login", authHandler.Login)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(a.jwtService))
		{
			protected.GET("/me", authHandler.Me)
			protected.PUT("/me", authHandler.UpdateMe)
		}
	}

	return r
}

func (a *App) Run() error {
	a.httpServer = &http.Server{
		Addr:    ":" + a.cfg.ServerPort,
		Handler: a.Router(),
	}

	go func() {
		a.log.Info("Auth service starting on port %s", a.cfg.ServerPort)
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
	a.log.Info("Shutting down auth service...")
}

func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.log.Error("Server forced to shutdown: %v", err)
		return err
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

	a.log.Info("Auth service exited")
	return nil
}
