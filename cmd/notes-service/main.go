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
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/middleware"
	notescmd "github.com/fomongole/Notes-API-Microservices-Architecture/internal/notes/command"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/notes/handler"
	notesqry "github.com/fomongole/Notes-API-Microservices-Architecture/internal/notes/query"
	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/notes/repository"
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

	db, err := sql.Open("postgres", cfg.Notes.DatabaseURL)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("ping database: %v", err)
	}

	noteRepo := repository.NewNoteRepository(db)
	if err := noteRepo.Init(ctx); err != nil {
		logger.Fatalf("init note repository: %v", err)
	}

	obs.Init()

	commandSvc := notescmd.NewNoteCommandService(noteRepo)
	querySvc := notesqry.NewNoteQueryService(noteRepo)
	noteHandler := handler.NewNoteHandler(commandSvc, querySvc)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(obs.Instrument())

	v1 := router.Group("/v1/notes", middleware.AuthMiddleware([]byte(cfg.JWT.Secret)))
	{
		v1.POST("", noteHandler.CreateNote)
		v1.GET("", noteHandler.ListNotes)
		v1.GET("/:id", noteHandler.GetNote)
		v1.PATCH("/:id", noteHandler.UpdateNote)
		v1.DELETE("/:id", noteHandler.DeleteNote)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "notes-service"})
	})
	router.GET("/metrics", gin.WrapH(obs.Handler()))

	srv := &http.Server{Addr: cfg.Notes.Addr, Handler: router}
	go func() {
		logger.Infof("Notes service starting on %s", cfg.Notes.Addr)
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
