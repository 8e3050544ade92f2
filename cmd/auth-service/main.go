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

	authcmd "github.com/fomongole/Notes-API-Microservices-Architecture/internal/auth/command"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/auth/handler"
	authqry "github.com/fomongole/Notes-API-Microservices-Architecture/internal/auth/query"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/auth/repository"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/config"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/events"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/internalapi"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/middleware"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/obs"
	sharedredis "github.com/fomongole/Notes-API-Microservices-Architecture/internal/redis"
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

	db, err := sql.Open("postgres", cfg.Auth.DatabaseURL)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("ping database: %v", err)
	}

	identityRepo := repository.NewIdentityRepository(db)
	if err := identityRepo.Init(ctx); err != nil {
		logger.Fatalf("init identity repository: %v", err)
	}

	profileClient := internalapi.NewClient(cfg.Internal.UserURL, cfg.Internal.Timeout)

	// Redis carries advisory lifecycle events only; the service runs fine
	// without it.
	var publisher authcmd.EventPublisher
	redisClient, err := sharedredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warnf("redis unavailable, lifecycle events disabled: %v", err)
	} else {
		defer redisClient.Close()
		publisher = events.NewPublisher(redisClient.Client)
	}

	obs.Init()

	commandSvc := authcmd.NewAuthCommandService(identityRepo, profileClient, publisher, logger)
	querySvc := authqry.NewAuthQueryService(identityRepo, []byte(cfg.JWT.Secret), cfg.JWT.TTL)
	authHandler := handler.NewAuthHandler(commandSvc, querySvc)
	internalHandler := handler.NewInternalHandler(commandSvc)

	if redisClient != nil {
		subscriber := events.NewSubscriber(redisClient.Client, events.SubscriberConfig{
			Group:    "auth-service",
			Consumer: "auth-1",
			Stream:   events.UserEventsStream,
			Handler:  commandSvc.HandleProfileEvent,
		})
		go func() {
			if err := subscriber.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Errorf("subscriber stopped: %v", err)
			}
		}()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(obs.Instrument())

	v1 := router.Group("/v1/auth")
	{
		v1.POST("/register", authHandler.Register)
		v1.POST("/login", authHandler.Login)
		v1.POST("/refresh", authHandler.RefreshToken)
		v1.POST("/forgot-password", authHandler.ForgotPassword)
		v1.POST("/reset-password", authHandler.ResetPassword)
		v1.POST("/update-password", middleware.AuthMiddleware([]byte(cfg.JWT.Secret)), authHandler.UpdatePassword)
	}

	internal := router.Group("/internal")
	{
		internal.PATCH("/status", internalHandler.SyncStatus)
		internal.DELETE("/users/:id", internalHandler.HardDelete)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "auth-service"})
	})
	router.GET("/metrics", gin.WrapH(obs.Handler()))

	srv := &http.Server{Addr: cfg.Auth.Addr, Handler: router}
	go func() {
		logger.Infof("Auth service starting on %s", cfg.Auth.Addr)
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
