package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bevops/truckplan/internal/domain"
	"github.com/bevops/truckplan/internal/planning"
)

// PlanRepository loads and stores everything the planning engine consumes:
// product specs, counted anchors, yard counts, the demand/actual/inbound
// series and the confirmed purchase-order manifest.
type PlanRepository interface {
	GetProductSpec(ctx context.Context, sku string) (*domain.ProductSpec, error)
	ListProductSpecs(ctx context.Context) ([]domain.ProductSpec, error)
	UpsertProductSpec(ctx context.Context, spec domain.ProductSpec) error

	GetLatestAnchor(ctx context.Context, sku string) (*domain.InventoryAnchor, error)
	RecordAnchor(ctx context.Context, anchor domain.InventoryAnchor) error
	GetLatestYardCount(ctx context.Context, sku string) (*domain.YardCount, error)
	RecordYardCount(ctx context.Context, count domain.YardCount) error

	GetDemandSeries(ctx context.Context, w domain.ScheduleWindow) (planning.Series, error)
	GetActualsSeries(ctx context.Context, w domain.ScheduleWindow) (planning.Series, error)
	GetInboundSeries(ctx context.Context, w domain.ScheduleWindow) (planning.Series, error)
	GetManifest(ctx context.Context, w domain.ScheduleWindow) (planning.Manifest, error)

	UpsertDemandEntries(ctx context.Context, entries []domain.DemandEntry) error
	RecordActuals(ctx context.Context, entries []domain.DemandEntry) error
	ApplyInboundPlan(ctx context.Context, sku string, plan planning.Series) error

	GetSettings(ctx context.Context, sku string) (*domain.PlannerSettings, error)
	SaveSettings(ctx context.Context, settings domain.PlannerSettings) error
}

// TxRunner is the slice of postgres.DB the repository needs; it keeps the
// repository testable against a plain sqlx handle.
type TxRunner interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type planRepository struct {
	db TxRunner
}

func NewPlanRepository(db TxRunner) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) GetProductSpec(ctx context.Context, sku string) (*domain.ProductSpec, error) {
	query := `
		SELECT sku, name, bottles_per_case, bottles_per_truck, cases_per_pallet,
		       scrap_percentage, rate_unit, updated_at
		FROM product_specs
		WHERE sku = $1
	`
	var spec domain.ProductSpec
	if err := r.db.GetContext(ctx, &spec, query, sku); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting product spec for %s: %w", sku, err)
	}
	return &spec, nil
}

func (r *planRepository) ListProductSpecs(ctx context.Context) ([]domain.ProductSpec, error) {
	query := `
		SELECT sku, name, bottles_per_case, bottles_per_truck, cases_per_pallet,
		       scrap_percentage, rate_unit, updated_at
		FROM product_specs
		ORDER BY sku
	`
	var specs []domain.ProductSpec
	if err := r.db.SelectContext(ctx, &specs, query); err != nil {
		return nil, fmt.Errorf("error listing product specs: %w", err)
	}
	return specs, nil
}

func (r *planRepository) UpsertProductSpec(ctx context.Context, spec domain.ProductSpec) error {
	query := `
		INSERT INTO product_specs
			(sku, name, bottles_per_case, bottles_per_truck, cases_per_pallet,
			 scrap_percentage, rate_unit, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (sku) DO UPDATE SET
			name = EXCLUDED.name,
			bottles_per_case = EXCLUDED.bottles_per_case,
			bottles_per_truck = EXCLUDED.bottles_per_truck,
			cases_per_pallet = EXCLUDED.cases_per_pallet,
			scrap_percentage = EXCLUDED.scrap_percentage,
			rate_unit = EXCLUDED.rate_unit,
			updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query,
		spec.SKU, spec.Name, spec.BottlesPerCase, spec.BottlesPerTruck,
		spec.CasesPerPallet, spec.ScrapPercentage, spec.RateUnit); err != nil {
		return fmt.Errorf("error upserting product spec %s: %w", spec.SKU, err)
	}
	return nil
}

func (r *planRepository) GetLatestAnchor(ctx context.Context, sku string) (*domain.InventoryAnchor, error) {
	query := `
		SELECT id, sku, to_char(anchor_date, 'YYYY-MM-DD') AS anchor_date,
		       pallets, counted_by, created_at
		FROM inventory_anchors
		WHERE sku = $1
		ORDER BY anchor_date DESC, created_at DESC
		LIMIT 1
	`
	var anchor domain.InventoryAnchor
	if err := r.db.GetContext(ctx, &anchor, query, sku); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting anchor for %s: %w", sku, err)
	}
	return &anchor, nil
}

func (r *planRepository) RecordAnchor(ctx context.Context, anchor domain.InventoryAnchor) error {
	query := `
		INSERT INTO inventory_anchors (sku, anchor_date, pallets, counted_by)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query,
		anchor.SKU, anchor.Date, anchor.Pallets, anchor.CountedBy); err != nil {
		return fmt.Errorf("error recording anchor for %s: %w", anchor.SKU, err)
	}
	return nil
}

func (r *planRepository) GetLatestYardCount(ctx context.Context, sku string) (*domain.YardCount, error) {
	query := `
		SELECT id, sku, to_char(count_date, 'YYYY-MM-DD') AS count_date, loads, created_at
		FROM yard_counts
		WHERE sku = $1
		ORDER BY count_date DESC, created_at DESC
		LIMIT 1
	`
	var count domain.YardCount
	if err := r.db.GetContext(ctx, &count, query, sku); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting yard count for %s: %w", sku, err)
	}
	return &count, nil
}

func (r *planRepository) RecordYardCount(ctx context.Context, count domain.YardCount) error {
	query := `
		INSERT INTO yard_counts (sku, count_date, loads)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, count.SKU, count.Date, count.Loads); err != nil {
		return fmt.Errorf("error recording yard count for %s: %w", count.SKU, err)
	}
	return nil
}

type seriesRow struct {
	Date  string  `db:"entry_date"`
	Value float64 `db:"value"`
}

func (r *planRepository) GetDemandSeries(ctx context.Context, w domain.ScheduleWindow) (planning.Series, error) {
	query := `
		SELECT to_char(entry_date, 'YYYY-MM-DD') AS entry_date, planned_cases AS value
		FROM demand_entries
		WHERE sku = $1 AND entry_date BETWEEN $2 AND $3
	`
	return r.selectSeries(ctx, query, w, "demand")
}

func (r *planRepository) GetActualsSeries(ctx context.Context, w domain.ScheduleWindow) (planning.Series, error) {
	query := `
		SELECT to_char(entry_date, 'YYYY-MM-DD') AS entry_date, actual_cases AS value
		FROM demand_entries
		WHERE sku = $1 AND entry_date BETWEEN $2 AND $3 AND actual_cases IS NOT NULL
	`
	return r.selectSeries(ctx, query, w, "actuals")
}

func (r *planRepository) GetInboundSeries(ctx context.Context, w domain.ScheduleWindow) (planning.Series, error) {
	query := `
		SELECT to_char(plan_date, 'YYYY-MM-DD') AS entry_date, trucks AS value
		FROM inbound_plans
		WHERE sku = $1 AND plan_date BETWEEN $2 AND $3
	`
	return r.selectSeries(ctx, query, w, "inbound")
}

func (r *planRepository) selectSeries(ctx context.Context, query string, w domain.ScheduleWindow, kind string) (planning.Series, error) {
	var rows []seriesRow
	if err := r.db.SelectContext(ctx, &rows, query, w.SKU, w.From, w.To); err != nil {
		return nil, fmt.Errorf("error getting %s series for %s: %w", kind, w.SKU, err)
	}
	series := make(planning.Series, len(rows))
	for _, row := range rows {
		series[row.Date] = row.Value
	}
	return series, nil
}

func (r *planRepository) GetManifest(ctx context.Context, w domain.ScheduleWindow) (planning.Manifest, error) {
	query := `
		SELECT id, sku, to_char(arrival_date, 'YYYY-MM-DD') AS arrival_date,
		       po_number, supplier, status, reference
		FROM manifest_items
		WHERE sku = $1 AND arrival_date BETWEEN $2 AND $3 AND status != 'cancelled'
		ORDER BY arrival_date, po_number
	`
	var items []domain.ManifestItem
	if err := r.db.SelectContext(ctx, &items, query, w.SKU, w.From, w.To); err != nil {
		return nil, fmt.Errorf("error getting manifest for %s: %w", w.SKU, err)
	}
	manifest := make(planning.Manifest)
	for _, item := range items {
		manifest[item.Date] = append(manifest[item.Date], item)
	}
	return manifest, nil
}

func (r *planRepository) UpsertDemandEntries(ctx context.Context, entries []domain.DemandEntry) error {
	if len(entries) == 0 {
		return nil
	}
	query := `
		INSERT INTO demand_entries (sku, entry_date, planned_cases)
		VALUES ($1, $2, $3)
		ON CONFLICT (sku, entry_date) DO UPDATE SET planned_cases = EXCLUDED.planned_cases
	`
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, entry := range entries {
			if _, err := tx.ExecContext(ctx, query, entry.SKU, entry.Date, entry.PlannedCases); err != nil {
				return fmt.Errorf("error upserting demand for %s %s: %w", entry.SKU, entry.Date, err)
			}
		}
		return nil
	})
}

func (r *planRepository) RecordActuals(ctx context.Context, entries []domain.DemandEntry) error {
	if len(entries) == 0 {
		return nil
	}
	query := `
		INSERT INTO demand_entries (sku, entry_date, planned_cases, actual_cases)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (sku, entry_date) DO UPDATE SET actual_cases = EXCLUDED.actual_cases
	`
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, entry := range entries {
			if entry.ActualCases == nil {
				continue
			}
			if _, err := tx.ExecContext(ctx, query, entry.SKU, entry.Date, *entry.ActualCases); err != nil {
				return fmt.Errorf("error recording actual for %s %s: %w", entry.SKU, entry.Date, err)
			}
		}
		return nil
	})
}

// ApplyInboundPlan writes a solver proposal in one transaction so a reader
// never sees a half-applied plan. Dates patched to zero are removed.
func (r *planRepository) ApplyInboundPlan(ctx context.Context, sku string, plan planning.Series) error {
	if len(plan) == 0 {
		return nil
	}
	upsert := `
		INSERT INTO inbound_plans (sku, plan_date, trucks)
		VALUES ($1, $2, $3)
		ON CONFLICT (sku, plan_date) DO UPDATE SET trucks = EXCLUDED.trucks
	`
	remove := `DELETE FROM inbound_plans WHERE sku = $1 AND plan_date = $2`

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for date, trucks := range plan {
			if trucks <= 0 {
				if _, err := tx.ExecContext(ctx, remove, sku, date); err != nil {
					return fmt.Errorf("error clearing inbound plan %s %s: %w", sku, date, err)
				}
				continue
			}
			if _, err := tx.ExecContext(ctx, upsert, sku, date, trucks); err != nil {
				return fmt.Errorf("error applying inbound plan %s %s: %w", sku, date, err)
			}
		}
		return nil
	})
}

func (r *planRepository) GetSettings(ctx context.Context, sku string) (*domain.PlannerSettings, error) {
	query := `
		SELECT sku, safety_stock_loads, lead_time_days, production_rate,
		       downtime_hours, incoming_trucks, updated_at
		FROM planner_settings
		WHERE sku = $1
	`
	var settings domain.PlannerSettings
	if err := r.db.GetContext(ctx, &settings, query, sku); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting settings for %s: %w", sku, err)
	}
	return &settings, nil
}

func (r *planRepository) SaveSettings(ctx context.Context, settings domain.PlannerSettings) error {
	query := `
		INSERT INTO planner_settings
			(sku, safety_stock_loads, lead_time_days, production_rate,
			 downtime_hours, incoming_trucks, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (sku) DO UPDATE SET
			safety_stock_loads = EXCLUDED.safety_stock_loads,
			lead_time_days = EXCLUDED.lead_time_days,
			production_rate = EXCLUDED.production_rate,
			downtime_hours = EXCLUDED.downtime_hours,
			incoming_trucks = EXCLUDED.incoming_trucks,
			updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query,
		settings.SKU, settings.SafetyStockLoads, settings.LeadTimeDays,
		settings.ProductionRate, settings.DowntimeHours, settings.IncomingTrucks); err != nil {
		return fmt.Errorf("error saving settings for %s: %w", settings.SKU, err)
	}
	return nil
}
