// Package web serves the form front end and the tracker passthrough endpoints.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Attamusc/epic-digest/internal/jira"
	"github.com/Attamusc/epic-digest/internal/pipeline"
)

//go:embed templates/*.html
var templateFS embed.FS

const shutdownTimeout = 10 * time.Second

// Generator runs the epic-to-page pipeline
type Generator interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Tracker is the subset of the issue tracker client exposed over HTTP
type Tracker interface {
	SearchProject(ctx context.Context, projectKey string) (json.RawMessage, error)
	CreateIssue(ctx context.Context, issue jira.NewIssue) (json.RawMessage, error)
	ListProjects(ctx context.Context) (json.RawMessage, error)
}

// Server is the epic-digest web server
type Server struct {
	generator Generator
	tracker   Tracker
	logger    *slog.Logger
	router    *gin.Engine
}

// NewServer creates a new web server. Pass gin.SetMode beforehand to control gin's own output.
func NewServer(generator Generator, tracker Tracker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger(logger))
	router.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	s := &Server{
		generator: generator,
		tracker:   tracker,
		logger:    logger,
		router:    router,
	}

	router.GET("/", s.handleIndex)
	router.POST("/submit", s.handleSubmit)
	router.GET("/healthz", s.handleHealth)

	router.GET("/hello", s.handleHello)
	router.POST("/items", s.handleCreateItem)

	api := router.Group("/jira")
	{
		api.GET("/issues", s.handleListIssues)
		api.POST("/issues", s.handleCreateIssue)
		api.GET("/projects", s.handleListProjects)
	}

	return s
}

// Handler exposes the router for embedding and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
