package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/alwaysssummer/eng-lib/internal/database/models"
)

// RequestStore is the slice of the catalog the textbook request endpoints use.
type RequestStore interface {
	ListRequests(ctx context.Context) ([]models.TextbookRequest, error)
	AddRequest(ctx context.Context, name, userIP string) (*models.TextbookRequest, error)
}

// RequestController lets visitors ask for textbooks the library does not
// have yet. Repeat requests for the same title bump a counter instead of
// piling up rows.
type RequestController struct {
	store  RequestStore
	tracer trace.Tracer
}

// NewRequestController creates a new request controller
func NewRequestController(store RequestStore) *RequestController {
	return &RequestController{
		store:  store,
		tracer: otel.Tracer("request-controller"),
	}
}

// RegisterRoutes registers request routes with the gin router
func (rc *RequestController) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/requests")
	{
		requests.GET("", rc.List)
		requests.POST("", rc.Create)
	}
}

// List returns textbook requests, most requested first.
func (rc *RequestController) List(c *gin.Context) {
	ctx, span := rc.tracer.Start(c.Request.Context(), "request_controller.list")
	defer span.End()

	requests, err := rc.store.ListRequests(ctx)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "LIST_FAILED", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// Create records a textbook request.
func (rc *RequestController) Create(c *gin.Context) {
	ctx, span := rc.tracer.Start(c.Request.Context(), "request_controller.create")
	defer span.End()

	var request struct {
		TextbookName string `json:"textbook_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "INVALID_REQUEST", Details: err.Error()})
		return
	}

	name := strings.TrimSpace(request.TextbookName)
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "INVALID_REQUEST", Details: "textbook_name must not be blank"})
		return
	}

	saved, err := rc.store.AddRequest(ctx, name, c.ClientIP())
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "CREATE_FAILED", Details: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, saved)
}
