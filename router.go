package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/astwrks/assetwork-ai-web-sub001/pkg/config"
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/event"
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/handler"
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/service"
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/utils"
)

type Server struct {
	ginEngine *gin.Engine
	cfg       *config.AppConfig
	db        *gorm.DB
	logger    *slog.Logger
	port      int
}

func NewServer(cfg *config.AppConfig, db *gorm.DB) *Server {
	ginEngine := gin.New()
	ginEngine.Use(gin.Recovery())

	// CORS middleware: allow common localhost dev origins.
	ginEngine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// If there's no Origin header, it's not a browser CORS request.
		if origin != "" {
			allowed := strings.HasPrefix(origin, "http://localhost") ||
				strings.HasPrefix(origin, "http://127.0.0.1") ||
				strings.HasPrefix(origin, "https://localhost") ||
				strings.HasPrefix(origin, "https://127.0.0.1")

			if allowed {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
				c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
			} else {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	server := &Server{
		ginEngine: ginEngine,
		cfg:       cfg,
		db:        db,
		logger:    utils.GetLogger(),
	}

	server.SetupRoutes()

	return server
}

func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host(), s.cfg.Port())
	srv := &http.Server{Addr: addr, Handler: s.ginEngine}

	// Attempt to listen first; if the port is occupied return the error
	// immediately instead of failing inside Serve.
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}

	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	} else {
		s.port = s.cfg.Port()
	}
	s.logger.Info("server listening", "addr", ln.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(ln)
	}()

	// Graceful shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	err = <-errChan
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) SetupRoutes() {
	modelService := service.NewModelService(s.cfg)
	threadService := service.NewThreadService(s.db)
	entityService := service.NewEntityService()
	rateLimiter := service.NewRateLimiter(s.cfg)
	generationService := service.NewGenerationService(s.db, modelService, threadService, entityService, s.cfg)

	generationHandler := handler.NewGenerationHandler(generationService, modelService, rateLimiter)
	threadHandler := handler.NewThreadHandler(threadService)
	wsHandler := event.NewWSHandler()

	s.ginEngine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := s.ginEngine.Group("/api/v1")
	apiGroup.Use(handler.AuthMiddleware(s.cfg))

	generationHandler.RegisterRoutes(apiGroup)
	threadHandler.RegisterRoutes(apiGroup)

	apiGroup.GET("/events/ws", wsHandler.Handle)
}
