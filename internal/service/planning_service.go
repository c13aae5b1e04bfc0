package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bevops/truckplan/internal/cache"
	"github.com/bevops/truckplan/internal/config"
	"github.com/bevops/truckplan/internal/domain"
	"github.com/bevops/truckplan/internal/planning"
	"github.com/bevops/truckplan/internal/repository"
)

// snapshotLookbackDays bounds how far back the demand/inbound window loads.
// It matches the engine's anchor-replay cap: anything older never affects a
// projection.
const snapshotLookbackDays = 365

// snapshotLookaheadDays covers the projection horizon plus the solver's
// forward reach.
const snapshotLookaheadDays = 60

// PlanningService assembles input snapshots from the repository, runs the
// projection engine, and owns the replan loop plus cache lifecycle.
type PlanningService struct {
	repo     repository.PlanRepository
	cache    cache.ProjectionCache
	defaults config.PlanningConfig
}

func NewPlanningService(repo repository.PlanRepository, cacheImpl cache.ProjectionCache, defaults config.PlanningConfig) *PlanningService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopProjectionCache()
	}
	return &PlanningService{repo: repo, cache: cacheImpl, defaults: defaults}
}

// Today returns the plan date used when a request does not pin one.
func (s *PlanningService) Today() string {
	return time.Now().UTC().Format(planning.DateLayout)
}

// Snapshot loads everything the engine needs for one SKU as of planDate.
func (s *PlanningService) Snapshot(ctx context.Context, sku, planDate string) (planning.ProjectionInput, error) {
	var in planning.ProjectionInput

	today, err := planning.ParseDate(planDate)
	if err != nil {
		return in, err
	}

	spec, err := s.repo.GetProductSpec(ctx, sku)
	if err != nil {
		return in, err
	}
	if spec == nil {
		return in, planning.ErrNoSpec
	}

	settings, err := s.repo.GetSettings(ctx, sku)
	if err != nil {
		return in, err
	}
	if settings == nil {
		settings = &domain.PlannerSettings{
			SKU:              sku,
			SafetyStockLoads: s.defaults.SafetyStockLoads,
			LeadTimeDays:     s.defaults.LeadTimeDays,
		}
	}

	window := domain.ScheduleWindow{
		SKU:  sku,
		From: planning.AddDays(today, -snapshotLookbackDays),
		To:   planning.AddDays(today, snapshotLookaheadDays),
	}

	demand, err := s.repo.GetDemandSeries(ctx, window)
	if err != nil {
		return in, err
	}
	actuals, err := s.repo.GetActualsSeries(ctx, window)
	if err != nil {
		return in, err
	}
	inbound, err := s.repo.GetInboundSeries(ctx, window)
	if err != nil {
		return in, err
	}
	manifest, err := s.repo.GetManifest(ctx, window)
	if err != nil {
		return in, err
	}

	in = planning.ProjectionInput{
		Today:            planDate,
		Spec:             spec,
		ProductionRate:   settings.ProductionRate,
		DowntimeHours:    settings.DowntimeHours,
		IncomingTrucks:   settings.IncomingTrucks,
		Demand:           demand,
		Actuals:          actuals,
		Inbound:          inbound,
		Manifest:         manifest,
		SafetyStockLoads: settings.SafetyStockLoads,
		LeadTimeDays:     settings.LeadTimeDays,
	}

	anchor, err := s.repo.GetLatestAnchor(ctx, sku)
	if err != nil {
		return in, err
	}
	if anchor != nil {
		in.Anchor = planning.Anchor{Date: anchor.Date, Pallets: anchor.Pallets}
	}

	yard, err := s.repo.GetLatestYardCount(ctx, sku)
	if err != nil {
		return in, err
	}
	if yard != nil {
		in.Yard = planning.Yard{Date: yard.Date, Loads: yard.Loads}
	}

	return in, nil
}

// GetProjection runs the ledger projector for a SKU, cache-aside.
func (s *PlanningService) GetProjection(ctx context.Context, sku, planDate string) (*planning.Projection, error) {
	if projection, ok, err := s.cache.Get(ctx, sku, planDate); err == nil && ok {
		return projection, nil
	} else if err != nil {
		log.Warn().Err(err).Str("sku", sku).Msg("projection cache get failed")
	}

	in, err := s.Snapshot(ctx, sku, planDate)
	if err != nil {
		return nil, err
	}

	projection, err := planning.Project(in)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, sku, planDate, projection); err != nil {
		log.Warn().Err(err).Str("sku", sku).Msg("projection cache set failed")
	}

	return projection, nil
}

// Replan runs the project/solve fixed-point loop. With apply set, the patched
// plan is written back and the cache dropped.
func (s *PlanningService) Replan(ctx context.Context, sku, planDate string, apply bool) (*domain.ReplanResult, error) {
	in, err := s.Snapshot(ctx, sku, planDate)
	if err != nil {
		return nil, err
	}

	outcome, err := planning.Replan(in, s.defaults.MaxReplanPasses)
	if err != nil {
		return nil, err
	}

	result := &domain.ReplanResult{
		SKU:        sku,
		PlanDate:   planDate,
		Passes:     outcome.Passes,
		Updates:    outcome.Updates,
		Converged:  outcome.Converged,
		NewInbound: outcome.NewInbound,
	}

	if !apply || outcome.Updates == 0 {
		return result, nil
	}

	if err := s.repo.ApplyInboundPlan(ctx, sku, outcome.NewInbound); err != nil {
		return nil, fmt.Errorf("replan computed but not applied: %w", err)
	}
	result.Applied = true
	s.invalidate(ctx, sku)

	log.Info().
		Str("sku", sku).
		Int("updates", outcome.Updates).
		Int("passes", outcome.Passes).
		Bool("converged", outcome.Converged).
		Msg("inbound plan replanned")

	return result, nil
}

// ListSKUs returns the SKUs with a configured product spec.
func (s *PlanningService) ListSKUs(ctx context.Context) ([]domain.ProductSpec, error) {
	return s.repo.ListProductSpecs(ctx)
}

func (s *PlanningService) UpsertDemand(ctx context.Context, entries []domain.DemandEntry) error {
	if err := s.repo.UpsertDemandEntries(ctx, entries); err != nil {
		return err
	}
	s.invalidateEntries(ctx, entries)
	return nil
}

func (s *PlanningService) RecordActuals(ctx context.Context, entries []domain.DemandEntry) error {
	if err := s.repo.RecordActuals(ctx, entries); err != nil {
		return err
	}
	s.invalidateEntries(ctx, entries)
	return nil
}

func (s *PlanningService) SetInboundPlan(ctx context.Context, sku string, plan planning.Series) error {
	if err := s.repo.ApplyInboundPlan(ctx, sku, plan); err != nil {
		return err
	}
	s.invalidate(ctx, sku)
	return nil
}

func (s *PlanningService) RecordAnchor(ctx context.Context, anchor domain.InventoryAnchor) error {
	if err := s.repo.RecordAnchor(ctx, anchor); err != nil {
		return err
	}
	s.invalidate(ctx, anchor.SKU)
	return nil
}

func (s *PlanningService) RecordYardCount(ctx context.Context, count domain.YardCount) error {
	if err := s.repo.RecordYardCount(ctx, count); err != nil {
		return err
	}
	s.invalidate(ctx, count.SKU)
	return nil
}

func (s *PlanningService) GetSettings(ctx context.Context, sku string) (*domain.PlannerSettings, error) {
	settings, err := s.repo.GetSettings(ctx, sku)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return &domain.PlannerSettings{
			SKU:              sku,
			SafetyStockLoads: s.defaults.SafetyStockLoads,
			LeadTimeDays:     s.defaults.LeadTimeDays,
		}, nil
	}
	return settings, nil
}

func (s *PlanningService) SaveSettings(ctx context.Context, settings domain.PlannerSettings) error {
	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return err
	}
	s.invalidate(ctx, settings.SKU)
	return nil
}

func (s *PlanningService) invalidate(ctx context.Context, sku string) {
	if err := s.cache.Invalidate(ctx, sku); err != nil {
		log.Warn().Err(err).Str("sku", sku).Msg("projection cache invalidate failed")
	}
}

func (s *PlanningService) invalidateEntries(ctx context.Context, entries []domain.DemandEntry) {
	seen := make(map[string]struct{}, 1)
	for _, entry := range entries {
		if _, ok := seen[entry.SKU]; ok {
			continue
		}
		seen[entry.SKU] = struct{}{}
		s.invalidate(ctx, entry.SKU)
	}
}
