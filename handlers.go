package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContentGenerator is the generation surface the HTTP handlers depend on
type ContentGenerator interface {
	GenerateIdeas(ctx context.Context, niche string, count int) (string, error)
	GeneratePlan(ctx context.Context, niche string, platforms []string, duration string) (string, error)
	CreateFactBasedPost(ctx context.Context, topic, platform, tone string) (string, error)
}

// ContentHandler serves the generation endpoints
type ContentHandler struct {
	generator ContentGenerator
	logger    *zap.Logger
}

// NewContentHandler creates a handler backed by generator
func NewContentHandler(generator ContentGenerator, logger *zap.Logger) *ContentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentHandler{
		generator: generator,
		logger:    logger,
	}
}

// Health reports liveness. It never touches the providers.
func (h *ContentHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Agent: "Active"})
}

// GenerateIdeas answers with a numbered list of ideas for a niche
func (h *ContentHandler) GenerateIdeas(c *gin.Context) {
	var req IdeaRequest
	if !h.bind(c, &req) {
		return
	}

	ideas, err := h.generator.GenerateIdeas(c.Request.Context(), *req.Niche, req.CountOrDefault())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, IdeaResponse{Ideas: ideas})
}

// GeneratePlan answers with a dated strategy and content calendar
func (h *ContentHandler) GeneratePlan(c *gin.Context) {
	var req PlanRequest
	if !h.bind(c, &req) {
		return
	}

	plan, err := h.generator.GeneratePlan(c.Request.Context(), *req.Niche, req.Platforms, req.DurationOrDefault())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, PlanResponse{StrategyAndPlan: plan})
}

// GeneratePost runs the research, draft and refine pipeline
func (h *ContentHandler) GeneratePost(c *gin.Context) {
	var req PostRequest
	if !h.bind(c, &req) {
		return
	}

	post, err := h.generator.CreateFactBasedPost(c.Request.Context(), *req.Topic, *req.Platform, req.ToneOrDefault())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, PostResponse{FinalContent: post})
}

// bind decodes and validates the JSON body, answering 422 on failure
func (h *ContentHandler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Debug("Invalid request body",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})
		return false
	}
	return true
}

// fail answers 500 with the error message as detail
func (h *ContentHandler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: err.Error()})
}
