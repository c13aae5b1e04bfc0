package ingest

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bevops/truckplan/internal/domain"
	"github.com/bevops/truckplan/internal/importer"
	"github.com/bevops/truckplan/internal/planning"
	"github.com/bevops/truckplan/internal/repository"
	"github.com/bevops/truckplan/internal/storage"
)

type memStorage struct {
	objects map[string][]byte
}

func (m *memStorage) ListObjects(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	infos := make([]storage.ObjectInfo, 0, len(m.objects))
	for key, data := range m.objects {
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		infos = append(infos, storage.ObjectInfo{Key: key, Size: int64(len(data))})
	}
	return infos, nil
}

func (m *memStorage) DownloadObject(_ context.Context, key, destPath string) error {
	return os.WriteFile(destPath, m.objects[key], 0o644)
}

func (m *memStorage) UploadObject(_ context.Context, key string, data []byte) error {
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = data
	return nil
}

type captureRepo struct {
	repository.PlanRepository

	demand []domain.DemandEntry
}

func (c *captureRepo) UpsertDemandEntries(_ context.Context, entries []domain.DemandEntry) error {
	c.demand = append(c.demand, entries...)
	return nil
}

func (c *captureRepo) RecordActuals(context.Context, []domain.DemandEntry) error { return nil }

func (c *captureRepo) ApplyInboundPlan(context.Context, string, planning.Series) error { return nil }

func newTestRouter(t *testing.T) (http.Handler, *memStorage, *captureRepo) {
	t.Helper()
	store := &memStorage{}
	repo := &captureRepo{}
	svc := NewService(store, importer.New(repo, 1), t.TempDir())
	return NewRouter(svc), store, repo
}

func multipartUpload(t *testing.T, kind, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("kind", kind))
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestUploadImportsDemandFile(t *testing.T) {
	router, store, repo := newTestRouter(t)

	body, contentType := multipartUpload(t, "demand", "0500ML-STD_demand.csv",
		"date,cases\n2026-03-02,1500\n2026-03-03,1600\n")

	req := httptest.NewRequest(http.MethodPost, "/ingest/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, repo.demand, 2)
	assert.Len(t, store.objects, 1)
	for key := range store.objects {
		assert.Equal(t, "demand", filepath.Dir(key))
	}
}

func TestUploadRejectsUnknownKind(t *testing.T) {
	router, _, _ := newTestRouter(t)

	body, contentType := multipartUpload(t, "forecast", "x.csv", "date,cases\n")

	req := httptest.NewRequest(http.MethodPost, "/ingest/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListFiles(t *testing.T) {
	router, store, _ := newTestRouter(t)
	require.NoError(t, store.UploadObject(context.Background(), "demand/a.csv", []byte("x")))

	req := httptest.NewRequest(http.MethodGet, "/ingest/files", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "demand/a.csv")
}

func TestHealth(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
