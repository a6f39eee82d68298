// Thread HTTP handlers - thread, message and report management
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/astwrks/assetwork-ai-web-sub001/pkg/event"
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/models"
	"github.com/astwrks/assetwork-ai-web-sub001/pkg/service"
)

// ThreadHandler handles thread-related HTTP requests.
type ThreadHandler struct {
	threadService *service.ThreadService
}

func NewThreadHandler(threadService *service.ThreadService) *ThreadHandler {
	return &ThreadHandler{threadService: threadService}
}

// RegisterRoutes registers thread routes
func (h *ThreadHandler) RegisterRoutes(r *gin.RouterGroup) {
	threads := r.Group("/threads")
	{
		threads.POST("", h.CreateThread)
		threads.GET("", h.ListThreads)
		threads.GET("/:id", h.GetThread)
		threads.PATCH("/:id", h.UpdateThread)
		threads.DELETE("/:id", h.DeleteThread)
		threads.GET("/:id/messages", h.GetMessages)
		threads.GET("/:id/reports", h.ListReports)
	}

	r.GET("/reports/:id", h.GetReport)
	r.GET("/reports/:id/entities", h.GetReportEntities)
}

// CreateThread creates a new thread.
// POST /api/v1/threads
func (h *ThreadHandler) CreateThread(c *gin.Context) {
	var req models.CreateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	thread, err := h.threadService.CreateThread(currentUser(c), req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	event.Emit(event.ThreadCreatedEvent{ThreadID: thread.ID, UserID: thread.UserID})
	c.JSON(http.StatusCreated, thread)
}

// ListThreads lists the user's threads.
// GET /api/v1/threads?limit=20&offset=0&include_archived=false
func (h *ThreadHandler) ListThreads(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	includeArchived := c.Query("include_archived") == "true"

	list, err := h.threadService.ListThreads(currentUser(c), limit, offset, includeArchived)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetThread fetches one thread.
// GET /api/v1/threads/:id
func (h *ThreadHandler) GetThread(c *gin.Context) {
	thread, err := h.threadService.GetThread(currentUser(c), c.Param("id"))
	if err != nil {
		c.JSON(threadErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, thread)
}

// UpdateThread renames, archives or bookmarks a thread.
// PATCH /api/v1/threads/:id
func (h *ThreadHandler) UpdateThread(c *gin.Context) {
	var req models.UpdateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	thread, err := h.threadService.UpdateThread(currentUser(c), c.Param("id"), &req)
	if err != nil {
		c.JSON(threadErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	event.Emit(event.ThreadUpdatedEvent{ThreadID: thread.ID})
	c.JSON(http.StatusOK, thread)
}

// DeleteThread removes a thread and its reports.
// DELETE /api/v1/threads/:id
func (h *ThreadHandler) DeleteThread(c *gin.Context) {
	threadID := c.Param("id")
	if err := h.threadService.DeleteThread(currentUser(c), threadID); err != nil {
		c.JSON(threadErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	event.Emit(event.ThreadDeletedEvent{ThreadID: threadID})
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// GetMessages returns a thread's messages in order.
// GET /api/v1/threads/:id/messages
func (h *ThreadHandler) GetMessages(c *gin.Context) {
	messages, err := h.threadService.GetMessages(currentUser(c), c.Param("id"))
	if err != nil {
		c.JSON(threadErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// ListReports returns a thread's reports, newest first.
// GET /api/v1/threads/:id/reports
func (h *ThreadHandler) ListReports(c *gin.Context) {
	reports, err := h.threadService.ListReports(currentUser(c), c.Param("id"))
	if err != nil {
		c.JSON(threadErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// GetReport fetches a report with sections and entity mentions.
// GET /api/v1/reports/:id
func (h *ThreadHandler) GetReport(c *gin.Context) {
	report, err := h.threadService.GetReport(currentUser(c), c.Param("id"))
	if err != nil {
		c.JSON(threadErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetReportEntities returns just the entity mentions of a report, for
// entity chips and sentiment views.
// GET /api/v1/reports/:id/entities
func (h *ThreadHandler) GetReportEntities(c *gin.Context) {
	report, err := h.threadService.GetReport(currentUser(c), c.Param("id"))
	if err != nil {
		c.JSON(threadErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	mentions := report.Mentions
	if mentions == nil {
		mentions = []models.EntityMention{}
	}
	c.JSON(http.StatusOK, gin.H{"mentions": mentions})
}

func threadErrorStatus(err error) int {
	if errors.Is(err, service.ErrThreadNotFound) || errors.Is(err, service.ErrReportNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
