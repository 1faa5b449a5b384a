package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alwaysssummer/eng-lib/internal/database/models"
	"github.com/alwaysssummer/eng-lib/pkg/logger"
)

type fakeLibraryStore struct {
	textbooks []models.Textbook
	files     map[uuid.UUID]*models.File
	clicks    []uuid.UUID
}

func (f *fakeLibraryStore) TextbooksWithActiveFiles(ctx context.Context) ([]models.Textbook, error) {
	return f.textbooks, nil
}

func (f *fakeLibraryStore) FileByID(ctx context.Context, id uuid.UUID) (*models.File, error) {
	return f.files[id], nil
}

func (f *fakeLibraryStore) RecordFileClick(ctx context.Context, fileID uuid.UUID, userIP string) error {
	f.clicks = append(f.clicks, fileID)
	return nil
}

type fakeFetcher struct {
	content       string
	fetchCalls    int
	downloadCalls int
}

func (f *fakeFetcher) FetchContent(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	f.fetchCalls++
	return io.NopCloser(strings.NewReader(f.content)), int64(len(f.content)), nil
}

func (f *fakeFetcher) Download(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	f.downloadCalls++
	return io.NopCloser(strings.NewReader(f.content)), int64(len(f.content)), nil
}

func newLibraryTestRouter(store *fakeLibraryStore, fetcher *fakeFetcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	controller := NewLibraryController(store, fetcher, logger.NewDefaultLogger("test", "dev"))
	controller.RegisterRoutes(router.Group("/api"))
	return router
}

func TestTreeReturnsTextbooks(t *testing.T) {
	store := &fakeLibraryStore{
		textbooks: []models.Textbook{
			{ID: uuid.New(), Name: "Grammar in Use"},
		},
	}
	router := newLibraryTestRouter(store, &fakeFetcher{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/files/tree", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Grammar in Use")
}

func TestProxyStreamsContentAndCountsClick(t *testing.T) {
	fileID := uuid.New()
	store := &fakeLibraryStore{
		files: map[uuid.UUID]*models.File{
			fileID: {ID: fileID, Name: "unit-01.pdf", DropboxPath: "/library/g/unit-01.pdf", IsActive: true},
		},
	}
	router := newLibraryTestRouter(store, &fakeFetcher{content: "%PDF-1.4 fake"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/files/proxy?fileId="+fileID.String(), nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.4 fake", w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inline")
	assert.Equal(t, []uuid.UUID{fileID}, store.clicks)
}

func TestProxyDownloadDisposition(t *testing.T) {
	fileID := uuid.New()
	store := &fakeLibraryStore{
		files: map[uuid.UUID]*models.File{
			fileID: {ID: fileID, Name: "unit-01.pdf", DropboxPath: "/library/g/unit-01.pdf", IsActive: true},
		},
	}
	fetcher := &fakeFetcher{content: "pdf"}
	router := newLibraryTestRouter(store, fetcher)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/files/proxy?fileId="+fileID.String()+"&download=1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "unit-01.pdf")
	assert.Equal(t, 1, fetcher.downloadCalls)
	assert.Equal(t, 0, fetcher.fetchCalls)
}

func TestProxyRejectsInactiveFile(t *testing.T) {
	fileID := uuid.New()
	store := &fakeLibraryStore{
		files: map[uuid.UUID]*models.File{
			fileID: {ID: fileID, Name: "gone.pdf", IsActive: false},
		},
	}
	router := newLibraryTestRouter(store, &fakeFetcher{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/files/proxy?fileId="+fileID.String(), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, store.clicks)
}

func TestProxyRejectsMalformedID(t *testing.T) {
	router := newLibraryTestRouter(&fakeLibraryStore{}, &fakeFetcher{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/files/proxy?fileId=not-a-uuid", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrackClick(t *testing.T) {
	fileID := uuid.New()
	store := &fakeLibraryStore{
		files: map[uuid.UUID]*models.File{
			fileID: {ID: fileID, Name: "unit-01.pdf", IsActive: true},
		},
	}
	router := newLibraryTestRouter(store, &fakeFetcher{})

	body := []byte(`{"file_id":"` + fileID.String() + `"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/track/click", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uuid.UUID{fileID}, store.clicks)
}

func TestTrackClickUnknownFile(t *testing.T) {
	store := &fakeLibraryStore{files: map[uuid.UUID]*models.File{}}
	router := newLibraryTestRouter(store, &fakeFetcher{})

	body := []byte(`{"file_id":"` + uuid.New().String() + `"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/track/click", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, store.clicks)
}
