// Package importer loads demand, actuals and inbound schedule CSVs into the
// planning store, either from local files or from an object-storage drop.
package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/bevops/truckplan/internal/domain"
	"github.com/bevops/truckplan/internal/planning"
	"github.com/bevops/truckplan/internal/repository"
	"github.com/bevops/truckplan/internal/storage"
)

// Kind selects which planning series a file feeds.
type Kind string

const (
	KindDemand  Kind = "demand"
	KindActuals Kind = "actuals"
	KindInbound Kind = "inbound"
)

// valueColumns maps each kind to the header names accepted for its value
// column.
func valueColumns(kind Kind) ([]string, error) {
	switch kind {
	case KindDemand:
		return []string{"cases", "planned cases", "demand"}, nil
	case KindActuals:
		return []string{"cases", "actual cases", "produced"}, nil
	case KindInbound:
		return []string{"trucks", "loads"}, nil
	default:
		return nil, fmt.Errorf("unknown schedule kind %q", kind)
	}
}

const defaultWorkerCount = 4

// Importer writes parsed schedule rows through the plan repository.
type Importer struct {
	repo    repository.PlanRepository
	workers int

	mu    sync.Mutex
	total int
}

func New(repo repository.PlanRepository, workers int) *Importer {
	if workers <= 0 {
		workers = defaultWorkerCount
	}
	return &Importer{repo: repo, workers: workers}
}

// ImportFile parses one CSV and writes its rows. Returns the row count.
func (im *Importer) ImportFile(ctx context.Context, path string, kind Kind) (int, error) {
	columns, err := valueColumns(kind)
	if err != nil {
		return 0, err
	}

	rows, err := readScheduleCSV(path, columns)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		log.Warn().Str("file", path).Msg("schedule file had no usable rows")
		return 0, nil
	}

	if err := im.write(ctx, rows, kind); err != nil {
		return 0, fmt.Errorf("failed writing rows from %s: %w", path, err)
	}

	log.Info().Str("file", path).Str("kind", string(kind)).Int("rows", len(rows)).
		Msg("schedule file imported")
	return len(rows), nil
}

// ImportDir imports every CSV in dir, bounded-parallel.
func (im *Importer) ImportDir(ctx context.Context, dir string, kind Kind) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed reading %s: %w", dir, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(im.workers)

	im.mu.Lock()
	im.total = 0
	im.mu.Unlock()

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		g.Go(func() error {
			n, err := im.ImportFile(ctx, path, kind)
			if err != nil {
				return err
			}
			im.mu.Lock()
			im.total += n
			im.mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	im.mu.Lock()
	defer im.mu.Unlock()
	return im.total, nil
}

// ImportBucket pulls every object under prefix into scratchDir and imports
// the downloaded files.
func (im *Importer) ImportBucket(ctx context.Context, store storage.ObjectStorage, prefix, scratchDir string, kind Kind) (int, error) {
	objects, err := store.ListObjects(ctx, prefix)
	if err != nil {
		return 0, err
	}

	for _, object := range objects {
		dest := filepath.Join(scratchDir, filepath.Base(object.Key))
		if err := store.DownloadObject(ctx, object.Key, dest); err != nil {
			return 0, err
		}
	}

	return im.ImportDir(ctx, scratchDir, kind)
}

func (im *Importer) write(ctx context.Context, rows []scheduleRow, kind Kind) error {
	switch kind {
	case KindDemand:
		entries := make([]domain.DemandEntry, 0, len(rows))
		for _, row := range rows {
			entries = append(entries, domain.DemandEntry{SKU: row.SKU, Date: row.Date, PlannedCases: row.Value})
		}
		return im.repo.UpsertDemandEntries(ctx, entries)

	case KindActuals:
		entries := make([]domain.DemandEntry, 0, len(rows))
		for _, row := range rows {
			cases := row.Value
			entries = append(entries, domain.DemandEntry{SKU: row.SKU, Date: row.Date, ActualCases: &cases})
		}
		return im.repo.RecordActuals(ctx, entries)

	case KindInbound:
		plans := make(map[string]planning.Series)
		for _, row := range rows {
			if plans[row.SKU] == nil {
				plans[row.SKU] = make(planning.Series)
			}
			plans[row.SKU][row.Date] = row.Value
		}
		for sku, plan := range plans {
			if err := im.repo.ApplyInboundPlan(ctx, sku, plan); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown schedule kind %q", kind)
	}
}
