// Package http provides the HTTP API for knowledged.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lexbase/knowledged/internal/config"
	"github.com/lexbase/knowledged/internal/extract"
	"github.com/lexbase/knowledged/internal/ingest"
	"github.com/lexbase/knowledged/internal/logging"
	"github.com/lexbase/knowledged/internal/retrieval"
	"github.com/lexbase/knowledged/internal/vectorstore"
)

// maxUploadSize bounds multipart document uploads.
const maxUploadSize = "20M"

// Ingestor is the ingestion surface the API exposes.
type Ingestor interface {
	Ingest(ctx context.Context, name string, content []byte) (*ingest.Result, error)
	IndexText(ctx context.Context, id, text string, payload vectorstore.Payload) error
	Exists(ctx context.Context, id string) (bool, error)
}

// ContextRetriever is the query surface the API exposes.
type ContextRetriever interface {
	// Query returns ranked matches for a question. k <= 0 selects the
	// retriever's default.
	Query(ctx context.Context, question string, k int) ([]vectorstore.Match, error)
}

// Server provides HTTP endpoints for knowledged.
type Server struct {
	echo      *echo.Echo
	ingestor  Ingestor
	retriever ContextRetriever
	logger    *logging.Logger
	config    config.ServerConfig
}

// NewServer creates a new HTTP server.
func NewServer(ingestor Ingestor, retriever ContextRetriever, logger *logging.Logger, cfg config.ServerConfig) (*Server, error) {
	if ingestor == nil {
		return nil, fmt.Errorf("ingestor is required")
	}
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(maxUploadSize))
	e.Use(metricsMiddleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logging.ContextWithRequestID(c.Request().Context(), requestID)
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)

			logger.Info(ctx, "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		}
	})

	s := &Server{
		echo:      e,
		ingestor:  ingestor,
		retriever: retriever,
		logger:    logger,
		config:    cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/upload", s.handleUpload)
	v1.POST("/ingest", s.handleIngest)
	v1.POST("/exists", s.handleExists)
	v1.POST("/query", s.handleQuery)
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleUpload ingests a single uploaded PDF document.
func (s *Server) handleUpload(c echo.Context) error {
	ctx := c.Request().Context()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field 'file' is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot open uploaded file")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}

	result, err := s.ingestor.Ingest(ctx, fileHeader.Filename, content)
	if err != nil {
		return s.mapIngestError(ctx, fileHeader.Filename, err)
	}

	return c.JSON(http.StatusOK, UploadResponse{
		Source:         result.Source,
		ChunksProduced: result.ChunksProduced,
		ChunksUploaded: result.ChunksUploaded,
		Replaced:       result.Replaced,
	})
}

// mapIngestError translates pipeline errors into HTTP status codes.
func (s *Server) mapIngestError(ctx context.Context, source string, err error) error {
	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, ingest.ErrAlreadyIngested):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ingest.ErrEmptyDocument), errors.Is(err, ingest.ErrExtractionFailed):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error(ctx, "document ingestion failed",
			zap.String("source", source),
			zap.Error(err),
		)
		return echo.NewHTTPError(http.StatusBadGateway, "ingestion failed")
	}
}

// handleIngest indexes a single pre-chunked text under an explicit id.
func (s *Server) handleIngest(c echo.Context) error {
	ctx := c.Request().Context()

	var req IngestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id field is required")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text field is required")
	}

	payload := vectorstore.PayloadFromMap(req.Metadata)
	if err := s.ingestor.IndexText(ctx, req.ID, req.Text, payload); err != nil {
		s.logger.Error(ctx, "text indexing failed",
			zap.String("id", req.ID),
			zap.Error(err),
		)
		return echo.NewHTTPError(http.StatusBadGateway, "indexing failed")
	}

	return c.JSON(http.StatusOK, IngestResponse{ID: req.ID, Status: "indexed"})
}

// handleExists reports whether an entry id has been indexed.
func (s *Server) handleExists(c echo.Context) error {
	var req ExistsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id field is required")
	}

	exists, err := s.ingestor.Exists(c.Request().Context(), req.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "existence check failed")
	}

	return c.JSON(http.StatusOK, ExistsResponse{Exists: exists})
}

// handleQuery retrieves the ranked matches and assembled context block for a
// question. An empty knowledge base yields a not-ready message instead of an
// empty context.
func (s *Server) handleQuery(c echo.Context) error {
	ctx := c.Request().Context()

	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question field is required")
	}

	matches, err := s.retriever.Query(ctx, req.Question, req.K)
	if err != nil {
		s.logger.Error(ctx, "retrieval failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "retrieval unavailable")
	}

	resp := QueryResponse{
		Matches: make([]QueryMatch, 0, len(matches)),
		Context: retrieval.AssembleContext(matches),
	}
	for _, match := range matches {
		resp.Matches = append(resp.Matches, QueryMatch{
			Score:    match.Score,
			Metadata: match.Payload,
		})
	}
	if resp.Context == "" {
		resp.Message = retrieval.NotReadyMessage
	}

	return c.JSON(http.StatusOK, resp)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
