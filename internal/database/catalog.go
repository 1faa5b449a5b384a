package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alwaysssummer/eng-lib/internal/database/models"
)

// CatalogStore provides the persistence operations for the textbook catalog:
// textbook and file rows, the sync cursor singleton, the sync log, and the
// simple CRUD and aggregation queries the HTTP surface needs.
type CatalogStore struct {
	db *gorm.DB
}

// NewCatalogStore creates a new catalog store
func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// TextbooksByName returns the textbooks whose names appear in names.
func (s *CatalogStore) TextbooksByName(ctx context.Context, names []string) ([]models.Textbook, error) {
	if len(names) == 0 {
		return nil, nil
	}

	var textbooks []models.Textbook
	if err := s.db.WithContext(ctx).Where("name IN ?", names).Find(&textbooks).Error; err != nil {
		return nil, fmt.Errorf("failed to look up textbooks: %w", err)
	}
	return textbooks, nil
}

// CreateTextbooks inserts new textbook rows, filling in generated IDs.
func (s *CatalogStore) CreateTextbooks(ctx context.Context, textbooks []*models.Textbook) error {
	if len(textbooks) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Create(textbooks).Error; err != nil {
		return fmt.Errorf("failed to create textbooks: %w", err)
	}
	return nil
}

// TextbooksWithActiveFiles returns all textbooks with their active files
// preloaded, for the viewer's browse tree.
func (s *CatalogStore) TextbooksWithActiveFiles(ctx context.Context) ([]models.Textbook, error) {
	var textbooks []models.Textbook
	err := s.db.WithContext(ctx).
		Preload("Files", "is_active = ?", true).
		Order("name").
		Find(&textbooks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load textbook tree: %w", err)
	}
	return textbooks, nil
}

// upsertFileColumns are the remote-derived columns refreshed on conflict.
// click_count and created_at are deliberately excluded: the former belongs
// to the click tracker, the latter must survive re-syncs.
var upsertFileColumns = []string{
	"textbook_id", "name", "file_type", "dropbox_file_id",
	"dropbox_rev", "file_size", "last_modified", "is_active", "updated_at",
}

// UpsertFiles inserts file rows keyed on dropbox_path, updating the
// remote-derived columns of any row that already exists. This is the
// catalog's idempotency mechanism: re-applying the same listing is a no-op.
func (s *CatalogStore) UpsertFiles(ctx context.Context, files []models.File) error {
	if len(files) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dropbox_path"}},
		DoUpdates: clause.AssignmentColumns(upsertFileColumns),
	}).Create(&files).Error
	if err != nil {
		return fmt.Errorf("failed to upsert files: %w", err)
	}
	return nil
}

// FileExists reports whether a file row exists for the given remote path.
func (s *CatalogStore) FileExists(ctx context.Context, pathLower string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.File{}).
		Where("dropbox_path = ?", pathLower).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return count > 0, nil
}

// FileByID returns the file with the given ID, or nil when none exists.
func (s *CatalogStore) FileByID(ctx context.Context, id uuid.UUID) (*models.File, error) {
	var file models.File
	err := s.db.WithContext(ctx).First(&file, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load file: %w", err)
	}
	return &file, nil
}

// DeactivateFilesNotIn marks every active file whose remote path is absent
// from paths as inactive and returns how many rows flipped.
func (s *CatalogStore) DeactivateFilesNotIn(ctx context.Context, paths []string) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.File{}).
		Where("is_active = ?", true).
		Where("dropbox_path NOT IN ?", paths).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to deactivate missing files: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeactivateAllFiles marks every active file inactive. Used when a fully
// drained remote listing comes back empty.
func (s *CatalogStore) DeactivateAllFiles(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.File{}).
		Where("is_active = ?", true).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to deactivate files: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeactivateFile marks the file with the given remote path inactive.
// A path with no matching row is a no-op, not an error.
func (s *CatalogStore) DeactivateFile(ctx context.Context, pathLower string) error {
	err := s.db.WithContext(ctx).
		Model(&models.File{}).
		Where("dropbox_path = ?", pathLower).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate file %s: %w", pathLower, err)
	}
	return nil
}

// Cursor returns the saved sync cursor, or "" when none has been persisted.
func (s *CatalogStore) Cursor(ctx context.Context) (string, error) {
	var cursor models.SyncCursor
	err := s.db.WithContext(ctx).First(&cursor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load sync cursor: %w", err)
	}
	return cursor.CursorValue, nil
}

// SaveCursor overwrites the singleton cursor row with value.
func (s *CatalogStore) SaveCursor(ctx context.Context, value string) error {
	cursor := models.NewSyncCursor(value)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"cursor_value", "updated_at"}),
	}).Create(cursor).Error
	if err != nil {
		return fmt.Errorf("failed to save sync cursor: %w", err)
	}
	return nil
}

// CursorUpdatedAt returns when the cursor was last written, or nil when no
// cursor exists.
func (s *CatalogStore) CursorUpdatedAt(ctx context.Context) (*time.Time, error) {
	var cursor models.SyncCursor
	err := s.db.WithContext(ctx).First(&cursor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sync cursor: %w", err)
	}
	return &cursor.UpdatedAt, nil
}

// InsertSyncLog appends one sync log entry.
func (s *CatalogStore) InsertSyncLog(ctx context.Context, entry *models.SyncLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to insert sync log: %w", err)
	}
	return nil
}

// LatestSyncLog returns the most recent sync log entry, or nil when the log
// is empty.
func (s *CatalogStore) LatestSyncLog(ctx context.Context) (*models.SyncLog, error) {
	var entry models.SyncLog
	err := s.db.WithContext(ctx).Order("created_at DESC").First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sync log: %w", err)
	}
	return &entry, nil
}

// RecordFileClick appends a click event and bumps the counters on the file
// and its textbook within one transaction.
func (s *CatalogStore) RecordFileClick(ctx context.Context, fileID uuid.UUID, userIP string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		click := &models.FileClick{
			FileID:    fileID,
			UserIP:    userIP,
			ClickedAt: time.Now().UTC(),
		}
		if err := tx.Create(click).Error; err != nil {
			return fmt.Errorf("failed to record click: %w", err)
		}

		if err := tx.Model(&models.File{}).
			Where("id = ?", fileID).
			Update("click_count", gorm.Expr("click_count + 1")).Error; err != nil {
			return fmt.Errorf("failed to increment file clicks: %w", err)
		}

		return tx.Model(&models.Textbook{}).
			Where("id = (?)", tx.Model(&models.File{}).Select("textbook_id").Where("id = ?", fileID)).
			Update("click_count", gorm.Expr("click_count + 1")).Error
	})
}

// LibraryStats aggregates headline counts for the admin dashboard.
type LibraryStats struct {
	Textbooks   int64 `json:"textbooks"`
	ActiveFiles int64 `json:"active_files"`
	TotalClicks int64 `json:"total_clicks"`
	Requests    int64 `json:"requests"`
}

// Stats computes headline counts over the catalog.
func (s *CatalogStore) Stats(ctx context.Context) (*LibraryStats, error) {
	stats := &LibraryStats{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.Textbook{}).Count(&stats.Textbooks).Error; err != nil {
		return nil, fmt.Errorf("failed to count textbooks: %w", err)
	}
	if err := db.Model(&models.File{}).Where("is_active = ?", true).Count(&stats.ActiveFiles).Error; err != nil {
		return nil, fmt.Errorf("failed to count active files: %w", err)
	}
	if err := db.Model(&models.File{}).Select("COALESCE(SUM(click_count), 0)").Scan(&stats.TotalClicks).Error; err != nil {
		return nil, fmt.Errorf("failed to sum clicks: %w", err)
	}
	if err := db.Model(&models.TextbookRequest{}).Count(&stats.Requests).Error; err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}

	return stats, nil
}

// ListNotices returns notices, optionally filtered to active ones, newest
// first.
func (s *CatalogStore) ListNotices(ctx context.Context, activeOnly bool) ([]models.Notice, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var notices []models.Notice
	if err := query.Find(&notices).Error; err != nil {
		return nil, fmt.Errorf("failed to list notices: %w", err)
	}
	return notices, nil
}

// NoticeByID returns the notice with the given ID, or nil when none exists.
func (s *CatalogStore) NoticeByID(ctx context.Context, id uuid.UUID) (*models.Notice, error) {
	var notice models.Notice
	err := s.db.WithContext(ctx).First(&notice, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load notice: %w", err)
	}
	return &notice, nil
}

// CreateNotice inserts a new notice.
func (s *CatalogStore) CreateNotice(ctx context.Context, notice *models.Notice) error {
	if err := s.db.WithContext(ctx).Create(notice).Error; err != nil {
		return fmt.Errorf("failed to create notice: %w", err)
	}
	return nil
}

// UpdateNotice saves changes to an existing notice.
func (s *CatalogStore) UpdateNotice(ctx context.Context, notice *models.Notice) error {
	if err := s.db.WithContext(ctx).Save(notice).Error; err != nil {
		return fmt.Errorf("failed to update notice: %w", err)
	}
	return nil
}

// DeleteNotice removes a notice.
func (s *CatalogStore) DeleteNotice(ctx context.Context, id uuid.UUID) error {
	if err := s.db.WithContext(ctx).Delete(&models.Notice{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete notice: %w", err)
	}
	return nil
}

// ListRequests returns textbook requests, most requested first.
func (s *CatalogStore) ListRequests(ctx context.Context) ([]models.TextbookRequest, error) {
	var requests []models.TextbookRequest
	err := s.db.WithContext(ctx).Order("request_count DESC, created_at DESC").Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return requests, nil
}

// AddRequest records a textbook request, bumping the count when the same
// name has been requested before.
func (s *CatalogStore) AddRequest(ctx context.Context, name, userIP string) (*models.TextbookRequest, error) {
	request := &models.TextbookRequest{
		TextbookName: name,
		RequestCount: 1,
		UserIP:       userIP,
		CreatedAt:    time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "textbook_name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"request_count": gorm.Expr("textbook_requests.request_count + 1")}),
	}).Create(request).Error
	if err != nil {
		return nil, fmt.Errorf("failed to record request: %w", err)
	}

	return request, nil
}
