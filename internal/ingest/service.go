// Package ingest exposes a small upload surface for schedule CSVs: files are
// stored in object storage and immediately loaded into the planning store.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/bevops/truckplan/internal/importer"
	"github.com/bevops/truckplan/internal/storage"
)

// Service wires object storage to the schedule importer.
type Service struct {
	store      storage.ObjectStorage
	importer   *importer.Importer
	scratchDir string
}

func NewService(store storage.ObjectStorage, imp *importer.Importer, scratchDir string) *Service {
	return &Service{store: store, importer: imp, scratchDir: scratchDir}
}

// UploadResult reports where an upload landed and how many rows it produced.
type UploadResult struct {
	Key  string `json:"key"`
	Kind string `json:"kind"`
	Rows int    `json:"rows"`
}

// Upload stores the file under <kind>/<timestamp>_<name> and imports it.
func (s *Service) Upload(ctx context.Context, name string, kind importer.Kind, data []byte) (*UploadResult, error) {
	key := fmt.Sprintf("%s/%s_%s", kind, time.Now().UTC().Format("20060102T150405"), path.Base(name))
	if err := s.store.UploadObject(ctx, key, data); err != nil {
		return nil, fmt.Errorf("failed storing upload %s: %w", name, err)
	}

	local := path.Join(s.scratchDir, path.Base(name))
	if err := os.WriteFile(local, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed staging upload %s: %w", name, err)
	}
	defer os.Remove(local)

	rows, err := s.importer.ImportFile(ctx, local, kind)
	if err != nil {
		return nil, err
	}

	return &UploadResult{Key: key, Kind: string(kind), Rows: rows}, nil
}

// ListFiles returns the stored schedule files, optionally filtered by prefix.
func (s *Service) ListFiles(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	return s.store.ListObjects(ctx, prefix)
}
