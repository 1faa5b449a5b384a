package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/alwaysssummer/eng-lib/internal/database/models"
)

// NoticeStore is the slice of the catalog the notice endpoints use.
type NoticeStore interface {
	ListNotices(ctx context.Context, activeOnly bool) ([]models.Notice, error)
	NoticeByID(ctx context.Context, id uuid.UUID) (*models.Notice, error)
	CreateNotice(ctx context.Context, notice *models.Notice) error
	UpdateNotice(ctx context.Context, notice *models.Notice) error
	DeleteNotice(ctx context.Context, id uuid.UUID) error
}

// NoticeController serves site notice CRUD.
type NoticeController struct {
	store  NoticeStore
	tracer trace.Tracer
}

// NewNoticeController creates a new notice controller
func NewNoticeController(store NoticeStore) *NoticeController {
	return &NoticeController{
		store:  store,
		tracer: otel.Tracer("notice-controller"),
	}
}

// RegisterRoutes registers notice routes with the gin router
func (nc *NoticeController) RegisterRoutes(router *gin.RouterGroup) {
	notices := router.Group("/notices")
	{
		notices.GET("", nc.List)
		notices.POST("", nc.Create)
		notices.PUT("/:id", nc.Update)
		notices.DELETE("/:id", nc.Delete)
	}
}

type noticeRequest struct {
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content" binding:"required"`
	IsActive *bool  `json:"is_active"`
}

// List returns notices, newest first. Only active notices are returned
// unless all=1.
func (nc *NoticeController) List(c *gin.Context) {
	ctx, span := nc.tracer.Start(c.Request.Context(), "notice_controller.list")
	defer span.End()

	notices, err := nc.store.ListNotices(ctx, c.Query("all") != "1")
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "LIST_FAILED", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notices": notices})
}

// Create adds a notice.
func (nc *NoticeController) Create(c *gin.Context) {
	ctx, span := nc.tracer.Start(c.Request.Context(), "notice_controller.create")
	defer span.End()

	var request noticeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "INVALID_REQUEST", Details: err.Error()})
		return
	}

	notice := &models.Notice{
		Title:    request.Title,
		Content:  request.Content,
		IsActive: true,
	}
	if request.IsActive != nil {
		notice.IsActive = *request.IsActive
	}

	if err := nc.store.CreateNotice(ctx, notice); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "CREATE_FAILED", Details: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, notice)
}

// Update rewrites an existing notice.
func (nc *NoticeController) Update(c *gin.Context) {
	ctx, span := nc.tracer.Start(c.Request.Context(), "notice_controller.update")
	defer span.End()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "INVALID_NOTICE_ID"})
		return
	}

	var request noticeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "INVALID_REQUEST", Details: err.Error()})
		return
	}

	notice, err := nc.store.NoticeByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "LOOKUP_FAILED", Details: err.Error()})
		return
	}
	if notice == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "NOTICE_NOT_FOUND"})
		return
	}

	notice.Title = request.Title
	notice.Content = request.Content
	if request.IsActive != nil {
		notice.IsActive = *request.IsActive
	}

	if err := nc.store.UpdateNotice(ctx, notice); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "UPDATE_FAILED", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, notice)
}

// Delete removes a notice.
func (nc *NoticeController) Delete(c *gin.Context) {
	ctx, span := nc.tracer.Start(c.Request.Context(), "notice_controller.delete")
	defer span.End()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "INVALID_NOTICE_ID"})
		return
	}

	if err := nc.store.DeleteNotice(ctx, id); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "DELETE_FAILED", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "notice deleted"})
}
