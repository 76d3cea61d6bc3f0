package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/gerry004/fendrapp/internal/classifier"
	"github.com/gerry004/fendrapp/internal/config"
	"github.com/gerry004/fendrapp/internal/graph"
	"github.com/gerry004/fendrapp/internal/handler"
	"github.com/gerry004/fendrapp/internal/middleware"
	"github.com/gerry004/fendrapp/internal/moderation"
	"github.com/gerry004/fendrapp/internal/reconcile"
	"github.com/gerry004/fendrapp/internal/repository"
	"github.com/gerry004/fendrapp/internal/service"
)

type Server struct {
	router *gin.Engine
	db     *sqlx.DB
	cfg    *config.Config
	logger *zap.Logger
}

func NewServer(db *sqlx.DB, cfg *config.Config, logger *zap.Logger) *Server {
	router := gin.Default()

	s := &Server{
		router: router,
		db:     db,
		cfg:    cfg,
		logger: logger,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	ledger := repository.NewAnalyzedCommentRepository(s.db, s.logger)

	graphClient := graph.NewClient(
		s.cfg.Graph.BaseURL,
		time.Duration(s.cfg.Graph.TimeoutSeconds)*time.Second,
		s.cfg.Graph.ReadRetries,
		s.logger,
	)
	classifierClient := classifier.NewClient(
		s.cfg.Classifier.URL,
		time.Duration(s.cfg.Classifier.TimeoutSeconds)*time.Second,
	)

	coordinator := reconcile.NewCoordinator(
		graphClient,
		classifierClient,
		ledger,
		s.logger,
		s.cfg.Sync.FetchWorkers,
		s.cfg.Sync.ClassifyWorkers,
		time.Duration(s.cfg.Sync.ClassifyTimeoutSec)*time.Second,
	)
	actuator := moderation.NewActuator(graphClient, ledger, s.logger)

	sessions := service.NewSessionService(
		s.cfg.Auth.JWTSecret,
		time.Duration(s.cfg.Auth.SessionExpiry)*time.Hour,
		s.logger,
	)

	commentsHandler := handler.NewCommentsHandler(coordinator, actuator, ledger, s.logger)
	sessionHandler := handler.NewSessionHandler(sessions, s.logger)

	// Ping route for health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	s.router.POST("/api/auth/session", sessionHandler.CreateSession)

	// Authenticated routes
	authRequired := s.router.Group("/api")
	authRequired.Use(middleware.AuthMiddleware(sessions, s.logger))
	{
		authRequired.GET("/data/comments", commentsHandler.SyncComments)
		authRequired.GET("/data/analyzed-comments", commentsHandler.GetAnalyzedComments)
		authRequired.POST("/comments/hide", commentsHandler.HideComment)
		authRequired.POST("/comments/unhide", commentsHandler.UnhideComment)
		authRequired.DELETE("/comments/delete", commentsHandler.DeleteComment)
	}
}

func (s *Server) Run(addr string) error {
	s.logger.Info("Server starting", zap.String("port", addr))
	return s.router.Run(addr)
}
