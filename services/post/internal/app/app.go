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
	"blogsphere/pkg/s3"
	postHTTP "blogsphere/services/post/internal/controller/http"
	postCache "blogsphere/services/post/internal/repo/cache"
	"blogsphere/services/post/internal/repo/persistent"
	"blogsphere/services/post/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "blogsphere/services/post/docs" // Swagger docs
)

type App struct {
	cfg         *config.Config
	log         *logger.Logger
	db          *gorm.DB
	redisClient *redis.Client
	s3Client    *s3.Client
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
		log.Warn("Failed to connect to redis: %v (continuing without cache and rate limiting)", err)
		redisClient = nil
	}

	s3Client, err := s3.NewClient(cfg)
	if err != nil {
		log.Warn("Failed to create S3 client: %v (image uploads disabled)", err)
		s3Client = nil
	}

	return &App{
		cfg:         cfg,
		log:         log,
		db:          db,
		redisClient: redisClient,
		s3Client:    s3Client,
		jwtService:  jwt.NewServiceWithTTL(cfg.JWTSecret, cfg.TokenTTL),
	}, nil
}

func (a *App) Router() *gin.Engine {
	postRepo := persistent.NewPostRepository(a.db)

	// a nil *s3.Client must not reach the use case as a non-nil interface
	var imageStore usecase.ImageStore
	if a.s3Client != nil {
		imageStore = a.s3Client
	}

	postUseCase := usecase.NewPostUseCase(postRepo, postCache.NewPostCache(a.redisClient), imageStore, a.log)
	postHandler := postHTTP.NewPostHandler(postUseCase, a.cfg.BillingServiceURL+"/api/v1/billing/upgrade", a.log)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	if a.redisClient != nil {
		api.Use(middleware.RateLimitMiddleware(a.redisClient, 100, time.Minute))
	}
	{
		public := api.Group("")
		public.Use(middleware.OptionalAuthMiddleware(a.jwtService))
		public.GET("/posts", postHandler.ListPosts)
		public.GET("/posts/:id", postHandler.GetPost)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(a.jwtService))
		{
			protected.POST("/posts", postHandler.CreatePost)
			protected.POST("/posts/images", postHandler.UploadImage)
			protected.PUT("/posts/:id", postHandler.UpdatePost)
			protected.DELETE("/posts/:id", postHandler.DeletePost)
			protected.GET("/me/posts", postHandler.ListMyPosts)
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
		a.log.Info("Post service starting on port %s", a.cfg.ServerPort)
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
	a.log.Info("Shutting down post service...")
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

	a.log.Info("Post service exited")
	return nil
}
