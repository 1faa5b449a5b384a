package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/alwaysssummer/eng-lib/internal/database/models"
	"github.com/alwaysssummer/eng-lib/pkg/dropbox"
	"github.com/alwaysssummer/eng-lib/pkg/logger"
)

// LibraryStore is the slice of the catalog the viewer endpoints read.
type LibraryStore interface {
	TextbooksWithActiveFiles(ctx context.Context) ([]models.Textbook, error)
	FileByID(ctx context.Context, id uuid.UUID) (*models.File, error)
	RecordFileClick(ctx context.Context, fileID uuid.UUID, userIP string) error
}

// ContentFetcher streams remote file content. FetchContent resolves a
// temporary link; Download goes straight to the content endpoint.
type ContentFetcher interface {
	FetchContent(ctx context.Context, path string) (io.ReadCloser, int64, error)
	Download(ctx context.Context, path string) (io.ReadCloser, int64, error)
}

// LibraryController serves the viewer surface: the textbook/file browse tree,
// PDF content proxying, and click tracking.
type LibraryController struct {
	catalog LibraryStore
	content ContentFetcher
	logger  *logger.Logger
	tracer  trace.Tracer
}

// NewLibraryController creates a new library controller
func NewLibraryController(catalog LibraryStore, content ContentFetcher, log *logger.Logger) *LibraryController {
	return &LibraryController{
		catalog: catalog,
		content: content,
		logger:  log.WithField("component", "library_controller"),
		tracer:  otel.Tracer("library-controller"),
	}
}

// RegisterRoutes registers library routes with the gin router
func (lc *LibraryController) RegisterRoutes(router *gin.RouterGroup) {
	files := router.Group("/files")
	{
		files.GET("/tree", lc.Tree)
		files.GET("/proxy", lc.Proxy)
	}
	router.POST("/track/click", lc.TrackClick)
}

// Tree returns every textbook with its active files, the data behind the
// viewer's browse panel.
func (lc *LibraryController) Tree(c *gin.Context) {
	ctx, span := lc.tracer.Start(c.Request.Context(), "library_controller.tree")
	defer span.End()

	textbooks, err := lc.catalog.TextbooksWithActiveFiles(ctx)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "TREE_FAILED",
			Details: err.Error(),
		})
		return
	}

	span.SetAttributes(attribute.Int("textbooks_count", len(textbooks)))
	c.JSON(http.StatusOK, gin.H{"textbooks": textbooks})
}

// Proxy streams a PDF through the server so the remote store's signed URLs
// never reach the browser. A successful proxy counts as a click. Pass
// download=1 for an attachment disposition.
func (lc *LibraryController) Proxy(c *gin.Context) {
	ctx, span := lc.tracer.Start(c.Request.Context(), "library_controller.proxy")
	defer span.End()

	file, ok := lc.activeFile(ctx, c, span)
	if !ok {
		return
	}

	if err := lc.catalog.RecordFileClick(ctx, file.ID, c.ClientIP()); err != nil {
		// Click bookkeeping must not block the document itself.
		lc.logger.WithError(err).WithField("file_id", file.ID).Warn("failed to record click")
	}

	disposition := fmt.Sprintf("inline; filename=%q", file.Name)
	fetch := lc.content.FetchContent
	if c.Query("download") == "1" {
		disposition = fmt.Sprintf("attachment; filename=%q", file.Name)
		fetch = lc.content.Download
	}

	reader, size, err := fetch(ctx, file.DropboxPath)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, dropbox.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "FILE_NOT_FOUND"})
			return
		}
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "FETCH_FAILED",
			Details: err.Error(),
		})
		return
	}
	defer reader.Close()

	headers := map[string]string{
		"Content-Disposition": disposition,
		"Cache-Control":       "no-store",
	}
	c.DataFromReader(http.StatusOK, size, "application/pdf", reader, headers)
}

// TrackClick records a click without serving content, for viewers that open
// documents through a different path.
func (lc *LibraryController) TrackClick(c *gin.Context) {
	ctx, span := lc.tracer.Start(c.Request.Context(), "library_controller.track_click")
	defer span.End()

	var request struct {
		FileID string `json:"file_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	fileID, err := uuid.Parse(request.FileID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "INVALID_FILE_ID",
			Details: "file_id must be a UUID",
		})
		return
	}

	file, err := lc.catalog.FileByID(ctx, fileID)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "LOOKUP_FAILED", Details: err.Error()})
		return
	}
	if file == nil || !file.IsActive {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "FILE_NOT_FOUND"})
		return
	}

	if err := lc.catalog.RecordFileClick(ctx, file.ID, c.ClientIP()); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "TRACK_FAILED", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "click recorded"})
}

// activeFile resolves the fileId query parameter to an active file, writing
// the error response itself when it cannot.
func (lc *LibraryController) activeFile(ctx context.Context, c *gin.Context, span trace.Span) (*models.File, bool) {
	fileID, err := uuid.Parse(c.Query("fileId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "INVALID_FILE_ID",
			Details: "fileId must be a UUID",
		})
		return nil, false
	}
	span.SetAttributes(attribute.String("file_id", fileID.String()))

	file, err := lc.catalog.FileByID(ctx, fileID)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "LOOKUP_FAILED", Details: err.Error()})
		return nil, false
	}
	if file == nil || !file.IsActive {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "FILE_NOT_FOUND"})
		return nil, false
	}
	return file, true
}
