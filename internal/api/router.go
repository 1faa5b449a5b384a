package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alwaysssummer/eng-lib/pkg/logger"
)

// HealthChecker verifies the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Controllers bundles everything the router mounts.
type Controllers struct {
	Sync     *SyncController
	Library  *LibraryController
	Notices  *NoticeController
	Requests *RequestController
	Admin    *AdminController
}

// NewRouter assembles the gin engine: middleware, the health endpoint, and
// every controller under /api.
func NewRouter(controllers Controllers, health HealthChecker, log *logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware(log))
	router.Use(CORSMiddleware())

	router.GET("/health", func(c *gin.Context) {
		checks := map[string]string{"server": "healthy"}
		status := http.StatusOK

		if err := health.HealthCheck(c.Request.Context()); err != nil {
			checks["database"] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = "healthy"
		}

		c.JSON(status, gin.H{"checks": checks})
	})

	apiGroup := router.Group("/api")
	controllers.Sync.RegisterRoutes(apiGroup)
	controllers.Library.RegisterRoutes(apiGroup)
	controllers.Notices.RegisterRoutes(apiGroup)
	controllers.Requests.RegisterRoutes(apiGroup)
	controllers.Admin.RegisterRoutes(apiGroup)

	return router
}
