package sync

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/alwaysssummer/eng-lib/internal/database/models"
	"github.com/alwaysssummer/eng-lib/pkg/dropbox"
	"github.com/alwaysssummer/eng-lib/pkg/logger"
)

// batchSize is how many file rows are upserted per database round trip
// during a full sync.
const batchSize = 100

// Lister is the slice of the Dropbox client the engine depends on.
type Lister interface {
	ListFolder(ctx context.Context, path string, recursive bool) (*dropbox.ListFolderResponse, error)
	ListFolderContinue(ctx context.Context, cursor string) (*dropbox.ListFolderResponse, error)
}

// Store is the slice of the catalog store the engine depends on.
type Store interface {
	TextbooksByName(ctx context.Context, names []string) ([]models.Textbook, error)
	CreateTextbooks(ctx context.Context, textbooks []*models.Textbook) error
	UpsertFiles(ctx context.Context, files []models.File) error
	FileExists(ctx context.Context, pathLower string) (bool, error)
	DeactivateFilesNotIn(ctx context.Context, paths []string) (int64, error)
	DeactivateAllFiles(ctx context.Context) (int64, error)
	DeactivateFile(ctx context.Context, pathLower string) error
	Cursor(ctx context.Context) (string, error)
	SaveCursor(ctx context.Context, value string) error
	InsertSyncLog(ctx context.Context, entry *models.SyncLog) error
}

// Engine reconciles the remote Dropbox folder with the catalog. At most one
// sync pass runs at a time; overlapping requests are rejected rather than
// queued, since a webhook burst would otherwise pile up redundant passes.
type Engine struct {
	lister   Lister
	store    Store
	rootPath string
	logger   *logger.Logger
	tracer   trace.Tracer

	mu sync.Mutex
}

// NewEngine creates a sync engine over the given remote lister and store.
// rootPath is the remote folder the catalog mirrors.
func NewEngine(lister Lister, store Store, rootPath string, log *logger.Logger) *Engine {
	return &Engine{
		lister:   lister,
		store:    store,
		rootPath: rootPath,
		logger:   log.WithField("component", "sync_engine"),
		tracer:   otel.Tracer("sync.engine"),
	}
}

// FullSync re-lists the entire remote folder and reconciles the catalog
// against it: missing textbooks are created, every listed PDF is upserted,
// and active files no longer present remotely are deactivated. rootPath
// overrides the configured root when non-empty. The outcome is always
// reported through the result, never a Go error.
func (e *Engine) FullSync(ctx context.Context, rootPath string) *FullSyncResult {
	if !e.mu.TryLock() {
		e.logger.Warn("full sync rejected, another sync is in progress")
		return &FullSyncResult{Success: false, Errors: []string{"sync already in progress"}}
	}
	defer e.mu.Unlock()

	return e.fullSyncLocked(ctx, models.SyncTypeFull, rootPath)
}

// IncrementalSync applies the change feed since the saved cursor. When no
// cursor exists it falls back to a full sync. triggeredByWebhook only
// affects how the pass is recorded in the sync log.
func (e *Engine) IncrementalSync(ctx context.Context, triggeredByWebhook bool) *IncrementalSyncResult {
	if !e.mu.TryLock() {
		e.logger.Warn("incremental sync rejected, another sync is in progress")
		return &IncrementalSyncResult{Success: false, Errors: []string{"sync already in progress"}}
	}
	defer e.mu.Unlock()

	syncType := models.SyncTypeIncremental
	if triggeredByWebhook {
		syncType = models.SyncTypeWebhook
	}
	return e.incrementalSyncLocked(ctx, syncType)
}

func (e *Engine) fullSyncLocked(ctx context.Context, syncType, rootPath string) *FullSyncResult {
	root := e.rootPath
	if rootPath != "" {
		root = rootPath
	}

	ctx, span := e.tracer.Start(ctx, "sync.full", trace.WithAttributes(
		attribute.String("sync.root_path", root),
	))
	defer span.End()

	result := &FullSyncResult{}
	e.logger.WithField("root_path", root).Info("starting full sync")

	entries, cursor, err := e.drainListing(ctx, func(ctx context.Context) (*dropbox.ListFolderResponse, error) {
		return e.lister.ListFolder(ctx, root, true)
	})
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to list remote folder: %v", err))
		e.logger.WithError(err).Error("full sync failed to list remote folder")
		e.recordSync(ctx, syncType, models.SyncStatusError, root, map[string]interface{}{
			"error": err.Error(),
		})
		span.RecordError(err)
		return result
	}

	files := filterPDFEntries(entries)
	span.SetAttributes(
		attribute.Int("sync.entries_total", len(entries)),
		attribute.Int("sync.files_listed", len(files)),
	)

	// The listing drained cleanly, so an empty file set means the remote
	// folder really is empty, not that a page was lost mid-pagination.
	if len(files) == 0 {
		deactivated, err := e.store.DeactivateAllFiles(ctx)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to deactivate files: %v", err))
		} else {
			result.FilesDeleted = int(deactivated)
		}
	} else {
		// Every listed file still exists remotely, whether or not its
		// batch lands, so the reconciliation set covers all of them.
		seen := make([]string, 0, len(files))
		for i := range files {
			seen = append(seen, files[i].PathLower)
		}

		for start := 0; start < len(files); start += batchSize {
			end := start + batchSize
			if end > len(files) {
				end = len(files)
			}
			chunk := files[start:end]

			// Each batch resolves its own textbooks, so one failing
			// batch never takes down the rest of the run.
			textbookIDs, err := e.ensureTextbooks(ctx, root, chunk)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("batch %d-%d: %v", start, end, err))
				continue
			}

			rows := make([]models.File, 0, len(chunk))
			for i := range chunk {
				rows = append(rows, fileRowFromEntry(&chunk[i], textbookIDs[TextbookNameOf(chunk[i].PathDisplay, root)]))
			}
			if err := e.store.UpsertFiles(ctx, rows); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("batch %d-%d: failed to upsert: %v", start, end, err))
				continue
			}
			result.FilesAdded += len(rows)
		}

		deactivated, err := e.store.DeactivateFilesNotIn(ctx, seen)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to deactivate missing files: %v", err))
		} else {
			result.FilesDeleted = int(deactivated)
		}
	}

	if err := e.store.SaveCursor(ctx, cursor); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to save cursor: %v", err))
	}

	result.Success = len(result.Errors) == 0
	e.recordSync(ctx, syncType, statusOf(result.Success), root, map[string]interface{}{
		"files_added":   result.FilesAdded,
		"files_deleted": result.FilesDeleted,
		"errors":        len(result.Errors),
	})

	e.logger.WithFields(map[string]interface{}{
		"files_added":   result.FilesAdded,
		"files_deleted": result.FilesDeleted,
		"errors":        len(result.Errors),
	}).Info("full sync completed")

	return result
}

func (e *Engine) incrementalSyncLocked(ctx context.Context, syncType string) *IncrementalSyncResult {
	ctx, span := e.tracer.Start(ctx, "sync.incremental")
	defer span.End()

	result := &IncrementalSyncResult{}

	cursor, err := e.store.Cursor(ctx)
	if err != nil {
		// An unreadable cursor degrades to a full resync, same as a
		// missing one.
		e.logger.WithError(err).Warn("failed to read sync cursor, falling back to full sync")
		cursor = ""
	}

	if cursor == "" {
		e.logger.Info("no sync cursor saved, falling back to full sync")
		full := e.fullSyncLocked(ctx, syncType, "")
		return &IncrementalSyncResult{
			Success:          full.Success,
			ChangesProcessed: full.FilesAdded + full.FilesDeleted,
			FilesAdded:       full.FilesAdded,
			FilesDeleted:     full.FilesDeleted,
			Errors:           full.Errors,
		}
	}

	entries, newCursor, err := e.drainListing(ctx, func(ctx context.Context) (*dropbox.ListFolderResponse, error) {
		return e.lister.ListFolderContinue(ctx, cursor)
	})
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to read change feed: %v", err))
		e.logger.WithError(err).Error("incremental sync failed to read change feed")
		e.recordSync(ctx, syncType, models.SyncStatusError, e.rootPath, map[string]interface{}{
			"error": err.Error(),
		})
		span.RecordError(err)
		return result
	}

	for i := range entries {
		entry := &entries[i]
		if err := e.applyChange(ctx, entry, result); err != nil {
			// One bad entry must not abort the rest of the feed.
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", entry.PathLower, err))
			e.logger.WithError(err).WithField("path", entry.PathLower).Warn("failed to apply change entry")
		}
	}

	if err := e.store.SaveCursor(ctx, newCursor); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to save cursor: %v", err))
	}

	result.Success = len(result.Errors) == 0
	span.SetAttributes(attribute.Int("sync.changes_processed", result.ChangesProcessed))
	e.recordSync(ctx, syncType, statusOf(result.Success), e.rootPath, map[string]interface{}{
		"changes_processed": result.ChangesProcessed,
		"files_added":       result.FilesAdded,
		"files_updated":     result.FilesUpdated,
		"files_deleted":     result.FilesDeleted,
		"errors":            len(result.Errors),
	})

	e.logger.WithFields(map[string]interface{}{
		"changes_processed": result.ChangesProcessed,
		"files_added":       result.FilesAdded,
		"files_updated":     result.FilesUpdated,
		"files_deleted":     result.FilesDeleted,
	}).Info("incremental sync completed")

	return result
}

// applyChange processes one change feed entry in listing order. Counters
// only move once the entry's write has landed.
func (e *Engine) applyChange(ctx context.Context, entry *dropbox.Entry, result *IncrementalSyncResult) error {
	switch {
	case entry.IsDeleted():
		if err := e.store.DeactivateFile(ctx, entry.PathLower); err != nil {
			return err
		}
		result.ChangesProcessed++
		result.FilesDeleted++
		return nil

	case entry.IsFile():
		if !IsSyncedFileName(entry.Name) {
			return nil
		}

		textbookIDs, err := e.ensureTextbooks(ctx, e.rootPath, []dropbox.Entry{*entry})
		if err != nil {
			return err
		}

		exists, err := e.store.FileExists(ctx, entry.PathLower)
		if err != nil {
			return err
		}

		row := fileRowFromEntry(entry, textbookIDs[TextbookNameOf(entry.PathDisplay, e.rootPath)])
		if err := e.store.UpsertFiles(ctx, []models.File{row}); err != nil {
			return err
		}

		result.ChangesProcessed++
		if exists {
			result.FilesUpdated++
		} else {
			result.FilesAdded++
		}
		return nil

	default:
		// Folder entries carry no catalog state.
		return nil
	}
}

// drainListing fetches the first page with first and then follows has_more
// with ListFolderContinue until the feed is exhausted, returning all entries
// and the final cursor.
func (e *Engine) drainListing(ctx context.Context, first func(context.Context) (*dropbox.ListFolderResponse, error)) ([]dropbox.Entry, string, error) {
	page, err := first(ctx)
	if err != nil {
		return nil, "", err
	}

	entries := page.Entries
	cursor := page.Cursor
	for page.HasMore {
		page, err = e.lister.ListFolderContinue(ctx, cursor)
		if err != nil {
			return nil, "", err
		}
		entries = append(entries, page.Entries...)
		cursor = page.Cursor
	}
	return entries, cursor, nil
}

// ensureTextbooks resolves the textbook ID for every entry, creating
// textbooks that do not exist yet, and returns a name to ID map.
func (e *Engine) ensureTextbooks(ctx context.Context, root string, entries []dropbox.Entry) (map[string]uuid.UUID, error) {
	nameSet := make(map[string]struct{})
	for i := range entries {
		nameSet[TextbookNameOf(entries[i].PathDisplay, root)] = struct{}{}
	}

	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}

	existing, err := e.store.TextbooksByName(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("failed to look up textbooks: %w", err)
	}

	ids := make(map[string]uuid.UUID, len(names))
	for i := range existing {
		ids[existing[i].Name] = existing[i].ID
	}

	var missing []*models.Textbook
	for _, name := range names {
		if _, ok := ids[name]; !ok {
			missing = append(missing, &models.Textbook{
				Name:        name,
				DropboxPath: strings.TrimSuffix(root, "/") + "/" + name,
			})
		}
	}
	if len(missing) > 0 {
		if err := e.store.CreateTextbooks(ctx, missing); err != nil {
			return nil, fmt.Errorf("failed to create textbooks: %w", err)
		}
		for _, tb := range missing {
			ids[tb.Name] = tb.ID
		}
		e.logger.WithField("count", len(missing)).Info("created new textbooks")
	}

	return ids, nil
}

// recordSync appends a sync log entry. Log failures are reported but never
// fail the sync itself.
func (e *Engine) recordSync(ctx context.Context, syncType, status, root string, metadata map[string]interface{}) {
	entry := &models.SyncLog{
		SyncType:    syncType,
		DropboxPath: root,
		Status:      status,
		Metadata:    models.JSONMap(metadata),
	}
	if err := e.store.InsertSyncLog(ctx, entry); err != nil {
		e.logger.WithError(err).Warn("failed to write sync log entry")
	}
}

func statusOf(success bool) string {
	if success {
		return models.SyncStatusSuccess
	}
	return models.SyncStatusError
}

// filterPDFEntries keeps only the file entries the catalog tracks.
func filterPDFEntries(entries []dropbox.Entry) []dropbox.Entry {
	var files []dropbox.Entry
	for i := range entries {
		if entries[i].IsFile() && IsSyncedFileName(entries[i].Name) {
			files = append(files, entries[i])
		}
	}
	return files
}

// fileRowFromEntry maps a remote file entry to its catalog row.
func fileRowFromEntry(entry *dropbox.Entry, textbookID uuid.UUID) models.File {
	return models.File{
		TextbookID:    textbookID,
		Name:          entry.Name,
		FileType:      "pdf",
		DropboxPath:   entry.PathLower,
		DropboxFileID: entry.ID,
		DropboxRev:    entry.Rev,
		FileSize:      entry.Size,
		LastModified:  entry.ModifiedTime(),
		IsActive:      true,
	}
}
