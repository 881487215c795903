package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	corsMaxAgeHours    = 12
	requestIDHeader    = "X-Request-ID"
	maxRequestIDLength = 128
)

// NewRouter builds the gin engine with middleware and the API routes
func NewRouter(handler *ContentHandler, corsSettings CORSSettings, logger *zap.Logger, debug bool) *gin.Engine {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(recoveryMiddleware(logger))
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware(logger))
	router.Use(corsMiddleware(corsSettings))

	router.GET("/", handler.Health)
	router.GET("/health", handler.Health)
	router.POST("/generate-ideas", handler.GenerateIdeas)
	router.POST("/generate-plan", handler.GeneratePlan)
	router.POST("/generate-post", handler.GeneratePost)

	return router
}

// corsMiddleware permits every origin when the list is empty or contains "*".
// With credentials allowed the request origin is echoed instead of "*".
func corsMiddleware(cfg CORSSettings) gin.HandlerFunc {
	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = []string{"*"}
	}

	corsConfig := cors.Config{
		AllowMethods:     methods,
		AllowHeaders:     headers,
		ExposeHeaders:    []string{"Content-Length", requestIDHeader},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           corsMaxAgeHours * time.Hour,
	}

	switch {
	case len(cfg.AllowedOrigins) > 0 && !slices.Contains(cfg.AllowedOrigins, "*"):
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	case cfg.AllowCredentials:
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	default:
		corsConfig.AllowAllOrigins = true
	}

	handler := cors.New(corsConfig)
	if !cfg.AllowCredentials || !slices.Contains(headers, "*") {
		return handler
	}

	// Browsers take "*" literally on credentialed requests, so preflights
	// get the requested header list back instead.
	return func(c *gin.Context) {
		requested := c.GetHeader("Access-Control-Request-Headers")
		if c.Request.Method == http.MethodOptions && requested != "" {
			c.Writer = &allowHeadersWriter{ResponseWriter: c.Writer, allowHeaders: requested}
		}
		handler(c)
	}
}

// allowHeadersWriter overrides Access-Control-Allow-Headers just before the
// status line is written
type allowHeadersWriter struct {
	gin.ResponseWriter
	allowHeaders string
}

func (w *allowHeadersWriter) WriteHeader(code int) {
	w.Header().Set("Access-Control-Allow-Headers", w.allowHeaders)
	w.ResponseWriter.WriteHeader(code)
}

func (w *allowHeadersWriter) WriteHeaderNow() {
	w.Header().Set("Access-Control-Allow-Headers", w.allowHeaders)
	w.ResponseWriter.WriteHeaderNow()
}

// requestIDMiddleware propagates X-Request-ID or assigns a new one
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}

		c.Set("request_id", requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// loggerMiddleware logs one structured line per request
func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")),
		}

		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
			logger.Error("HTTP request with errors", fields...)
			return
		}
		logger.Info("HTTP request", fields...)
	}
}

// recoveryMiddleware turns panics into a 500 with a detail message
func recoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Panic recovered",
					zap.Any("error", rec),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Detail: fmt.Sprint(rec)})
			}
		}()

		c.Next()
	}
}

// Server runs the HTTP API with graceful shutdown
type Server struct {
	server          *http.Server
	logger          *zap.Logger
	shutdownTimeout time.Duration
}

// NewServer creates an http.Server for handler using the server settings
func NewServer(settings ServerSettings, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         settings.Addr(),
			Handler:      handler,
			ReadTimeout:  settings.ReadTimeout,
			WriteTimeout: settings.WriteTimeout,
			IdleTimeout:  settings.IdleTimeout,
		},
		logger:          logger,
		shutdownTimeout: settings.ShutdownTimeout,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("address", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server", zap.Duration("timeout", s.shutdownTimeout))
	}

	//nolint:contextcheck // ctx is already cancelled here
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.logger.Info("HTTP server stopped gracefully")
	return nil
}
