package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/config"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/events"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/internalapi"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/middleware"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/obs"
	sharedredis "github.com/fomongole/Notes-API-Microservices-Architecture/internal/redis"
	usercmd "github.com/fomongole/Notes-API-Microservices-Architecture/internal/user/command"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/user/handle"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/user/handler"
	userqry "github.com/fomongole/Notes-API-Microservices-Architecture/internal/user/query"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/user/repository"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if cfg.JWT.Secret == "" {
		logger.Fatalf("jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.User.DatabaseURL)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("ping database: %v", err)
	}

	profileRepo := repository.NewProfileRepository(db)
	if err := profileRepo.Init(ctx); err != nil {
		logger.Fatalf("init profile repository: %v", err)
	}

	// The read model backs the hot profile lookups, so Redis is required here.
	redisClient, err := sharedredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatalf("connect to redis: %v", err)
	}
	defer redisClient.Close()

	readRepo := repository.NewProfileReadRepository(db, redisClient.Client)
	identityClient := internalapi.NewClient(cfg.Internal.AuthURL, cfg.Internal.Timeout)
	allocator := handle.NewAllocator(profileRepo)
	publisher := events.NewPublisher(redisClient.Client)

	obs.Init()

	commandSvc := usercmd.NewUserCommandService(profileRepo, readRepo, identityClient, allocator, publisher, logger)
	querySvc := userqry.NewUserQueryService(readRepo, profileRepo)
	userHandler := handler.NewUserHandler(commandSvc, querySvc)
	internalHandler := handler.NewInternalHandler(commandSvc)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(obs.Instrument())

	authRequired := middleware.AuthMiddleware([]byte(cfg.JWT.Secret))

	v1 := router.Group("/v1/users", authRequired)
	{
		v1.GET("/me", userHandler.GetMe)
		v1.PATCH("/me", userHandler.UpdateMe)
		v1.DELETE("/me", userHandler.DeleteMe)

		v1.GET("", userHandler.ListUsers)
		v1.GET("/:id", userHandler.GetUser)
		v1.PATCH("/:id", userHandler.UpdateUser)
		v1.DELETE("/:id", userHandler.DeleteUser)
	}

	internal := router.Group("/internal")
	{
		internal.POST("/profiles", internalHandler.CreateProfile)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "user-service"})
	})
	router.GET("/metrics", gin.WrapH(obs.Handler()))

	srv := &http.Server{Addr: cfg.User.Addr, Handler: router}
	go func() {
		logger.Infof("User service starting on %s", cfg.User.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
