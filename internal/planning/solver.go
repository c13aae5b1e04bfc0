package planning

import (
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/bevops/truckplan/internal/domain"
)

// DayState is one projected day the solver evaluates: the ledger balance at
// end of day and an optional per-day safety target in bottles. A nil target
// falls back to the global loads-based target.
type DayState struct {
	Date                  string
	ProjectedEndInventory float64
	SafetyStockTarget     *float64
}

// SolveInput is the solver's full snapshot.
type SolveInput struct {
	Today            string
	Spec             *domain.ProductSpec
	Days             []DayState
	Inbound          Series // current manual truck plan
	Actuals          Series // recorded production; those dates are locked
	SafetyStockLoads float64
	LeadTimeDays     int
}

// Proposal is the solver's patched truck plan. NewInbound holds only the
// dates whose planned count changed, mapped to their new totals.
type Proposal struct {
	NewInbound map[string]float64
	Updates    int
}

// Solve walks the projected ledger beyond the frozen lead-time window and
// greedily patches the inbound plan so every day's adjusted balance lands
// inside the safety band. A rolling accumulator carries each patch forward:
// a truck added on day N raises the starting balance of every later day, so
// later deficits are evaluated against the already-patched plan.
func Solve(in SolveInput) (*Proposal, error) {
	if in.Spec == nil {
		log.Warn().Str("today", in.Today).Msg("solver skipped: no product spec")
		return nil, ErrNoSpec
	}
	if len(in.Days) == 0 {
		log.Warn().Str("today", in.Today).Msg("solver skipped: no projected ledger")
		return nil, ErrNoLedger
	}

	today, err := ParseDate(in.Today)
	if err != nil {
		return nil, err
	}

	leadTime := in.LeadTimeDays
	if leadTime <= 0 {
		leadTime = DefaultLeadTimeDays
	}
	// Orders placed today cannot land before the lead time elapses, so the
	// first leadTime days are untouchable.
	frozenUntil := AddDays(today, max(0, leadTime-1))

	bottlesPerTruck := float64(in.Spec.BottlesPerTruck)
	fallbackTarget := in.SafetyStockLoads * bottlesPerTruck

	days := make([]DayState, len(in.Days))
	copy(days, in.Days)
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	plan := in.Inbound.Clone()
	proposal := &Proposal{NewInbound: make(map[string]float64)}

	// Bottles added (or removed) by this pass on earlier days.
	var rollingWave float64

	for _, day := range days {
		if day.Date <= frozenUntil {
			continue
		}
		if _, recorded := in.Actuals[day.Date]; recorded {
			// Recorded production is history; never replan it.
			continue
		}

		target := fallbackTarget
		if day.SafetyStockTarget != nil {
			target = *day.SafetyStockTarget
		}

		adjusted := day.ProjectedEndInventory + rollingWave

		switch {
		case adjusted < target:
			trucksNeeded := math.Ceil((target - adjusted) / bottlesPerTruck)
			plan[day.Date] += trucksNeeded
			proposal.NewInbound[day.Date] = plan[day.Date]
			rollingWave += trucksNeeded * bottlesPerTruck
			proposal.Updates++

		case adjusted > target+bottlesPerTruck && plan[day.Date] > 0:
			maxRemovable := math.Floor((adjusted - target) / bottlesPerTruck)
			toRemove := math.Min(maxRemovable, plan[day.Date])
			if toRemove > 0 {
				plan[day.Date] -= toRemove
				proposal.NewInbound[day.Date] = plan[day.Date]
				rollingWave -= toRemove * bottlesPerTruck
				proposal.Updates++
			}
		}
	}

	return proposal, nil
}
