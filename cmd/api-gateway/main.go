package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/config"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/middleware"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/obs"
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

	obs.Init()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(obs.Instrument())
	router.Use(middleware.RateLimit(cfg.Gateway.RateLimitPerSecond, cfg.Gateway.RateLimitBurst))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "api-gateway"})
	})
	router.GET("/metrics", gin.WrapH(obs.Handler()))

	authRequired := middleware.AuthMiddleware([]byte(cfg.JWT.Secret))

	// Auth routes. The /internal surface of each service is deliberately not
	// routed here; only the services themselves call it.
	router.POST("/v1/auth/register", proxyTo(cfg.Gateway.AuthURL, logger))
	router.POST("/v1/auth/login", proxyTo(cfg.Gateway.AuthURL, logger))
	router.POST("/v1/auth/refresh", proxyTo(cfg.Gateway.AuthURL, logger))
	router.POST("/v1/auth/forgot-password", proxyTo(cfg.Gateway.AuthURL, logger))
	router.POST("/v1/auth/reset-password", proxyTo(cfg.Gateway.AuthURL, logger))
	router.POST("/v1/auth/update-password", authRequired, proxyTo(cfg.Gateway.AuthURL, logger))

	// User routes
	router.GET("/v1/users/me", authRequired, proxyTo(cfg.Gateway.UserURL, logger))
	router.PATCH("/v1/users/me", authRequired, proxyTo(cfg.Gateway.UserURL, logger))
	router.DELETE("/v1/users/me", authRequired, proxyTo(cfg.Gateway.UserURL, logger))
	router.GET("/v1/users", authRequired, proxyTo(cfg.Gateway.UserURL, logger))
	router.GET("/v1/users/:id", authRequired, proxyTo(cfg.Gateway.UserURL, logger))
	router.PATCH("/v1/users/:id", authRequired, proxyTo(cfg.Gateway.UserURL, logger))
	router.DELETE("/v1/users/:id", authRequired, proxyTo(cfg.Gateway.UserURL, logger))

	// Notes routes
	router.POST("/v1/notes", authRequired, proxyTo(cfg.Gateway.NotesURL, logger))
	router.GET("/v1/notes", authRequired, proxyTo(cfg.Gateway.NotesURL, logger))
	router.GET("/v1/notes/:id", authRequired, proxyTo(cfg.Gateway.NotesURL, logger))
	router.PATCH("/v1/notes/:id", authRequired, proxyTo(cfg.Gateway.NotesURL, logger))
	router.DELETE("/v1/notes/:id", authRequired, proxyTo(cfg.Gateway.NotesURL, logger))

	srv := &http.Server{Addr: cfg.Gateway.Addr, Handler: router}
	go func() {
		logger.Infof("API Gateway starting on %s", cfg.Gateway.Addr)
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

func proxyTo(serviceURL string, logger *logrus.Logger) gin.HandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(c *gin.Context) {
		targetURL := serviceURL + c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			targetURL += "?" + c.Request.URL.RawQuery
		}

		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, bytes.NewBuffer(bodyBytes))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "fail", "message": "Failed to create request"})
			return
		}

		for key, values := range c.Request.Header {
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}

		if userID, exists := c.Get("userId"); exists {
			req.Header.Set("X-User-ID", userID.(string))
		}

		resp, err := client.Do(req)
		if err != nil {
			logger.Errorf("Error proxying request to %s: %v", targetURL, err)
			c.JSON(http.StatusBadGateway, gin.H{"status": "fail", "message": "Service unavailable"})
			return
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "fail", "message": "Failed to read response"})
			return
		}

		for key, values := range resp.Header {
			for _, value := range values {
				c.Header(key, value)
			}
		}

		c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), respBody)
	}
}
