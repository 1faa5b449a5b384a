package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/alwaysssummer/eng-lib/internal/database/models"
	"github.com/alwaysssummer/eng-lib/internal/sync"
	"github.com/alwaysssummer/eng-lib/pkg/logger"
)

// signatureHeader carries the HMAC-SHA256 hex digest of a webhook body.
const signatureHeader = "X-Dropbox-Signature"

// Syncer is the slice of the sync engine the controller depends on.
type Syncer interface {
	FullSync(ctx context.Context, rootPath string) *sync.FullSyncResult
	IncrementalSync(ctx context.Context, triggeredByWebhook bool) *sync.IncrementalSyncResult
}

// SyncStatusStore reads the sync bookkeeping the status endpoint reports.
type SyncStatusStore interface {
	LatestSyncLog(ctx context.Context) (*models.SyncLog, error)
	CursorUpdatedAt(ctx context.Context) (*time.Time, error)
}

// SyncController exposes the sync trigger endpoints: manual, scheduled (cron),
// and the Dropbox webhook pair.
type SyncController struct {
	engine        Syncer
	status        SyncStatusStore
	signingSecret string
	cronSecret    string
	logger        *logger.Logger
	tracer        trace.Tracer
}

// NewSyncController creates a new sync controller. signingSecret verifies
// webhook payloads; cronSecret, when non-empty, gates the cron endpoint.
func NewSyncController(engine Syncer, status SyncStatusStore, signingSecret, cronSecret string, log *logger.Logger) *SyncController {
	return &SyncController{
		engine:        engine,
		status:        status,
		signingSecret: signingSecret,
		cronSecret:    cronSecret,
		logger:        log.WithField("component", "sync_controller"),
		tracer:        otel.Tracer("sync-controller"),
	}
}

// RegisterRoutes registers sync routes with the gin router
func (sc *SyncController) RegisterRoutes(router *gin.RouterGroup) {
	syncRoutes := router.Group("/sync")
	{
		syncRoutes.GET("/manual", sc.ManualSync)
		syncRoutes.GET("/cron", sc.CronSync)
		syncRoutes.POST("/cron", sc.CronSync)
		syncRoutes.GET("/webhook", sc.WebhookChallenge)
		syncRoutes.POST("/webhook", sc.WebhookNotify)
		syncRoutes.GET("/status", sc.Status)
	}
}

// ManualSync runs a sync synchronously and returns its result. The type
// query parameter selects incremental (default) or full; full accepts an
// optional path override.
func (sc *SyncController) ManualSync(c *gin.Context) {
	ctx, span := sc.tracer.Start(c.Request.Context(), "sync_controller.manual_sync")
	defer span.End()

	syncType := c.DefaultQuery("type", "incremental")
	span.SetAttributes(attribute.String("sync_type", syncType))

	// Failed runs still answer 200 so callers distinguish "sync ran and
	// reported errors" from transport failures. The body carries success.
	switch syncType {
	case "full":
		c.JSON(http.StatusOK, sc.engine.FullSync(ctx, c.Query("path")))
	case "incremental":
		c.JSON(http.StatusOK, sc.engine.IncrementalSync(ctx, false))
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "INVALID_SYNC_TYPE",
			Details: "type must be full or incremental",
		})
	}
}

// CronSync runs an incremental sync on behalf of an external scheduler.
// When a cron secret is configured the caller must present it as a bearer
// token.
func (sc *SyncController) CronSync(c *gin.Context) {
	ctx, span := sc.tracer.Start(c.Request.Context(), "sync_controller.cron_sync")
	defer span.End()

	if sc.cronSecret != "" {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(sc.cronSecret)) != 1 {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHORIZED"})
			return
		}
	}

	c.JSON(http.StatusOK, sc.engine.IncrementalSync(ctx, false))
}

// WebhookChallenge answers the Dropbox endpoint verification handshake by
// echoing the challenge parameter back as plain text.
func (sc *SyncController) WebhookChallenge(c *gin.Context) {
	challenge := c.Query("challenge")
	if challenge == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "MISSING_CHALLENGE"})
		return
	}
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, "text/plain", []byte(challenge))
}

// WebhookNotify receives a change notification. The body signature is
// verified against the signing secret; a valid notification acknowledges
// immediately and kicks off an incremental sync in the background, since
// Dropbox retries webhooks that do not answer quickly.
func (sc *SyncController) WebhookNotify(c *gin.Context) {
	_, span := sc.tracer.Start(c.Request.Context(), "sync_controller.webhook_notify")
	defer span.End()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "INVALID_BODY"})
		return
	}

	if !sc.verifySignature(body, c.GetHeader(signatureHeader)) {
		sc.logger.Warn("webhook rejected, signature mismatch")
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "INVALID_SIGNATURE"})
		return
	}

	go func() {
		result := sc.engine.IncrementalSync(context.Background(), true)
		if !result.Success {
			sc.logger.WithField("errors", result.Errors).Warn("webhook sync did not complete")
		}
	}()

	c.JSON(http.StatusOK, SuccessResponse{Message: "sync triggered"})
}

// Status reports the most recent sync log entry and cursor freshness.
func (sc *SyncController) Status(c *gin.Context) {
	ctx, span := sc.tracer.Start(c.Request.Context(), "sync_controller.status")
	defer span.End()

	last, err := sc.status.LatestSyncLog(ctx)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "STATUS_FAILED",
			Details: err.Error(),
		})
		return
	}

	cursorAt, err := sc.status.CursorUpdatedAt(ctx)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "STATUS_FAILED",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"last_sync":         last,
		"cursor_saved":      cursorAt != nil,
		"cursor_updated_at": cursorAt,
	})
}

// verifySignature checks a webhook body against its HMAC-SHA256 hex digest
// in constant time.
func (sc *SyncController) verifySignature(body []byte, signature string) bool {
	if sc.signingSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(sc.signingSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
