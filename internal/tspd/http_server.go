package tspd

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/tourviz/pkg/models"
)

// RunRequest is the body of POST /run
type RunRequest struct {
	Points []models.Point `json:"points" binding:"required"`
}

// HTTPServer exposes the executor over the optimizer HTTP interface
type HTTPServer struct {
	engine   *gin.Engine
	executor *Executor
	log      *slog.Logger
}

// NewHTTPServer builds the gin engine and its routes
func NewHTTPServer(executor *Executor, log *slog.Logger) *HTTPServer {
	s := &HTTPServer{
		engine:   gin.New(),
		executor: executor,
		log:      log,
	}

	s.engine.Use(gin.Recovery(), RequestLogger(log), CORS())

	s.engine.GET("/", s.handleRoot)
	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.POST("/run", s.handleRun)
	s.engine.GET("/state", s.handleState)

	return s
}

// Handler returns the HTTP handler
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "tspd running"})
}

func (s *HTTPServer) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *HTTPServer) handleRun(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}

	runID, err := s.executor.Start(c.Request.Context(), req.Points)
	if err != nil {
		if errors.Is(err, ErrTooFewPoints) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "At least 3 points required"})
			return
		}
		s.log.Error("failed to start run", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to start solver"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Solver started", "run_id": runID})
}

func (s *HTTPServer) handleState(c *gin.Context) {
	snap, err := s.executor.Snapshot(c.Request.Context())
	if err != nil {
		s.log.Error("failed to build state", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to read solver state"})
		return
	}
	c.JSON(http.StatusOK, snap)
}
