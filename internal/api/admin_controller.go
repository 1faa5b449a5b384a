package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/alwaysssummer/eng-lib/internal/database"
)

// StatsStore computes the aggregates the admin dashboard shows.
type StatsStore interface {
	Stats(ctx context.Context) (*database.LibraryStats, error)
}

// AdminController serves the admin dashboard aggregates.
type AdminController struct {
	store  StatsStore
	tracer trace.Tracer
}

// NewAdminController creates a new admin controller
func NewAdminController(store StatsStore) *AdminController {
	return &AdminController{
		store:  store,
		tracer: otel.Tracer("admin-controller"),
	}
}

// RegisterRoutes registers admin routes with the gin router
func (ac *AdminController) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/admin/stats", ac.Stats)
}

// Stats returns headline counts over the catalog.
func (ac *AdminController) Stats(c *gin.Context) {
	ctx, span := ac.tracer.Start(c.Request.Context(), "admin_controller.stats")
	defer span.End()

	stats, err := ac.store.Stats(ctx)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "STATS_FAILED", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
