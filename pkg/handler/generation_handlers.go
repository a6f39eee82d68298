// Generation HTTP handlers - streaming report generation over SSE
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/astwrks/assetwork-ai-web-sub001/pkg/models"
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/service"
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/stream"
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/utils"
)

// GenerationHandler handles report generation requests.
type GenerationHandler struct {
	generationService *service.GenerationService
	modelService      *service.ModelService
	rateLimiter       *service.RateLimiter
}

func NewGenerationHandler(generationService *service.GenerationService, modelService *service.ModelService, rateLimiter *service.RateLimiter) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
		modelService:      modelService,
		rateLimiter:       rateLimiter,
	}
}

// RegisterRoutes registers generation routes
func (h *GenerationHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/generate", h.Generate)
	r.POST("/generate/cancel", h.Cancel)
	r.GET("/generate/status/:thread_id", h.Status)
	r.GET("/models", h.ListModels)
}

// Generate starts a report generation and streams frames as SSE.
// POST /api/v1/generate
//
// Errors before the first frame are plain JSON with an HTTP status.
// Once streaming starts, failures arrive as an error frame instead.
func (h *GenerationHandler) Generate(c *gin.Context) {
	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := currentUser(c)

	ok, remaining, err := h.rateLimiter.Allow(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rate limit check failed"})
		return
	}
	if remaining >= 0 {
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
	}
	if !ok {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, try again in a minute"})
		return
	}

	frames, err := h.generationService.Generate(c.Request.Context(), userID, &req)
	if err != nil {
		c.JSON(generationErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	enc := stream.NewEncoder(c.Writer)
	for frame := range frames {
		if err := enc.Encode(frame); err != nil {
			// Client disconnected. Keep draining so the generation
			// goroutine can finish and clean up.
			utils.GetLogger().Debug("sse write failed, draining stream", "error", err)
			for range frames {
			}
			return
		}
	}
}

// Cancel aborts the active generation on a thread.
// POST /api/v1/generate/cancel
func (h *GenerationHandler) Cancel(c *gin.Context) {
	var req models.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.generationService.CancelGeneration(currentUser(c), req.ThreadID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// Status reports whether a thread has an active generation.
// GET /api/v1/generate/status/:thread_id
func (h *GenerationHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.generationService.State(c.Param("thread_id")))
}

// ListModels returns the allow-listed models.
// GET /api/v1/models
func (h *GenerationHandler) ListModels(c *gin.Context) {
	list := h.modelService.List()
	if list == nil {
		list = []models.ModelInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"models": list})
}

func generationErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrThreadNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrGenerationInFlight):
		return http.StatusConflict
	case errors.Is(err, service.ErrEmptyPrompt), errors.Is(err, service.ErrModelNotAllowed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
