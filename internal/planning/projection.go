// Package planning holds the deterministic replenishment engine for inbound
// truck deliveries: a ledger projector that reconstructs floor inventory from
// a counted anchor and projects it forward day by day, and a solver that
// patches the truck plan to keep every projected day inside the safety band.
// Both are pure functions of their input snapshot; persistence and transport
// live in the surrounding packages.
package planning

import (
	"errors"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/bevops/truckplan/internal/domain"
)

var (
	// ErrNoSpec signals that the selected SKU has no product spec configured.
	// It is the engine's only recoverable "can't compute" condition.
	ErrNoSpec = errors.New("planning: product spec not configured")
	// ErrNoLedger signals that the solver was invoked without a projected ledger.
	ErrNoLedger = errors.New("planning: no projected ledger to solve against")
)

const (
	// HorizonDays is the length of the forward ledger.
	HorizonDays = 30
	// DefaultLeadTimeDays applies when the caller passes no lead time.
	DefaultLeadTimeDays = 2
	// maxReplayDays caps the anchor replay window. An anchor older than this
	// is treated as too stale to replay and is used as-is.
	maxReplayDays = 365
	// overflowHeadroomLoads is how many loads above the safety target the
	// ledger may sit before a day is flagged as overflowing.
	overflowHeadroomLoads = 2
)

// Series maps ISO day strings to a quantity. Key order is irrelevant; keys
// are unique per date.
type Series map[string]float64

// Clone returns a shallow copy of the series.
func (s Series) Clone() Series {
	out := make(Series, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Manifest maps ISO day strings to the confirmed purchase-order items
// arriving that day. A non-empty entry overrides the manual truck plan for
// its date: confirmed orders are ground truth.
type Manifest map[string][]domain.ManifestItem

// Anchor is a trusted pallet count on a specific date.
type Anchor struct {
	Date    string // empty when no count has been taken yet
	Pallets float64
}

// Yard is a count of arrived-but-unprocessed trailers.
type Yard struct {
	Date  string
	Loads float64
}

// ProjectionInput is the full snapshot the ledger projector consumes. The
// engine never mutates it.
type ProjectionInput struct {
	Today          string
	Spec           *domain.ProductSpec
	ProductionRate float64 // cases/hour unless Spec.RateUnit says otherwise
	DowntimeHours  float64
	Anchor         Anchor
	Yard           Yard
	// IncomingTrucks is today's manual override of trucks already on the road.
	IncomingTrucks float64
	Demand           Series // planned production, cases
	Actuals          Series // recorded production, cases; presence means recorded
	Inbound          Series // manually planned trucks
	Manifest         Manifest
	SafetyStockLoads float64
	LeadTimeDays     int // 0 means DefaultLeadTimeDays
}

// PlannedOrder is a manually planned delivery not yet backed by a confirmed
// purchase order.
type PlannedOrder struct {
	Count float64               `json:"count"`
	Items []domain.ManifestItem `json:"items"`
}

// Projection is the ledger projector's output.
type Projection struct {
	Today                   string
	LeadTimeDays            int
	CurrentPallets          float64
	FloorBottles            float64
	YardBottles             float64
	NetInventory            float64
	TotalScheduledCases     float64
	EffectiveScheduledCases float64
	SafetyTargetBottles     float64
	Ledger                  []domain.LedgerEntry
	FirstStockoutDate       string
	FirstOverflowDate       string
	DaysOfSupply            float64
	TrucksToOrder           int
	TrucksToCancel          int
	PlannedOrders           map[string]PlannedOrder
}

// effectiveTrucks resolves the truck count for a date: the manifest item
// count when a manifest entry exists, the manual plan otherwise. The solver
// applies the identical rule; the two must never diverge.
func effectiveTrucks(date string, inbound Series, manifest Manifest) float64 {
	if items, ok := manifest[date]; ok && len(items) > 0 {
		return float64(len(items))
	}
	return inbound[date]
}

// effectiveDemandCases resolves a date's case demand. A recorded actual
// overrides the plan, except that a zero actual on a strictly future date
// means "not yet entered", not "no production planned".
func effectiveDemandCases(date, today string, demand, actuals Series) float64 {
	if actual, ok := actuals[date]; ok {
		if !(date > today && actual == 0) {
			return actual
		}
	}
	return demand[date]
}

// Project reconstructs current floor inventory from the anchor, projects a
// 30-day ledger, and derives order/cancel recommendations bounded by the
// lead-time window.
func Project(in ProjectionInput) (*Projection, error) {
	if in.Spec == nil {
		log.Warn().Str("today", in.Today).Msg("projection skipped: no product spec")
		return nil, ErrNoSpec
	}

	today, err := ParseDate(in.Today)
	if err != nil {
		return nil, err
	}

	spec := in.Spec
	bottlesPerTruck := float64(spec.BottlesPerTruck)
	bottlesPerCase := float64(spec.BottlesPerCase)
	scrap := spec.ScrapFactor()

	leadTime := in.LeadTimeDays
	if leadTime <= 0 {
		leadTime = DefaultLeadTimeDays
	}

	// Scheduled cases from today forward, with actuals overriding the plan.
	var totalScheduledCases float64
	for date := range unionDates(in.Demand, in.Actuals) {
		if date < in.Today {
			continue
		}
		totalScheduledCases += effectiveDemandCases(date, in.Today, in.Demand, in.Actuals)
	}
	lostCases := in.DowntimeHours * CasesPerHour(*spec, in.ProductionRate)
	if lostCases < 0 {
		lostCases = 0
	}
	effectiveScheduledCases := totalScheduledCases - lostCases

	// Replay demand and supply deltas from the anchor to reconstruct the
	// current floor count.
	pallets := in.Anchor.Pallets
	if in.Anchor.Date != "" && in.Anchor.Date < in.Today {
		anchorDate, err := ParseDate(in.Anchor.Date)
		if err != nil {
			return nil, err
		}
		diff := DiffDays(anchorDate, today)
		if diff > maxReplayDays {
			log.Warn().
				Str("anchor_date", in.Anchor.Date).
				Int("age_days", diff).
				Msg("anchor older than replay window, using raw count")
		} else {
			for d := 0; d < diff; d++ {
				date := AddDays(anchorDate, d)
				pallets += spec.TrucksToPallets(effectiveTrucks(date, in.Inbound, in.Manifest))
				pallets -= spec.CasesToPallets(effectiveDemandCases(date, in.Today, in.Demand, in.Actuals))
			}
		}
	}

	floorBottles := spec.PalletsToBottles(pallets)
	yardBottles := in.Yard.Loads * bottlesPerTruck

	netInventory := floorBottles + in.IncomingTrucks*bottlesPerTruck + yardBottles -
		effectiveScheduledCases*bottlesPerCase*scrap

	// Forward ledger. The starting balance deliberately excludes the
	// IncomingTrucks override: today's arrivals enter through the per-day
	// effective-truck lookup at index 0, so folding them in here would
	// double-count.
	safetyTarget := in.SafetyStockLoads * bottlesPerTruck
	overflowLimit := safetyTarget + overflowHeadroomLoads*bottlesPerTruck

	balance := floorBottles + yardBottles
	startBalance := balance
	ledger := make([]domain.LedgerEntry, 0, HorizonDays)
	var firstStockout, firstOverflow string
	for i := 0; i < HorizonDays; i++ {
		date := AddDays(today, i)
		demandBottles := effectiveDemandCases(date, in.Today, in.Demand, in.Actuals) * bottlesPerCase * scrap
		supplyBottles := effectiveTrucks(date, in.Inbound, in.Manifest) * bottlesPerTruck
		balance += supplyBottles - demandBottles
		ledger = append(ledger, domain.LedgerEntry{
			Date:             date,
			Balance:          balance,
			Demand:           demandBottles,
			Supply:           supplyBottles,
			ProjectedPallets: balance / spec.BottlesPerPallet(),
		})
		if firstStockout == "" && balance < safetyTarget {
			firstStockout = date
		}
		if firstOverflow == "" && balance > overflowLimit {
			firstOverflow = date
		}
	}

	// Order/cancel recommendation inside the frozen lead-time window. Demand
	// here uses the plan directly: actuals describe the past, and the window
	// decision is about material already committed to arrive.
	var inboundWithinLead, demandWithinLead float64
	for i := 0; i <= leadTime; i++ {
		date := AddDays(today, i)
		inboundWithinLead += effectiveTrucks(date, in.Inbound, in.Manifest)
		demandWithinLead += in.Demand[date] * bottlesPerCase
	}
	inboundWithinLead += in.IncomingTrucks

	available := floorBottles + yardBottles + inboundWithinLead*bottlesPerTruck
	totalNeed := demandWithinLead + safetyTarget

	var trucksToOrder, trucksToCancel int
	if available < totalNeed {
		trucksToOrder = int(math.Ceil((totalNeed - available) / bottlesPerTruck))
	} else if available > safetyTarget+demandWithinLead+bottlesPerTruck {
		immediateExcess := available - (safetyTarget + demandWithinLead)
		if immediateExcess > bottlesPerTruck {
			var totalIncoming float64
			for date := range unionDates(in.Inbound, manifestDates(in.Manifest)) {
				if date < in.Today {
					continue
				}
				totalIncoming += effectiveTrucks(date, in.Inbound, in.Manifest)
			}
			cancellable := math.Floor(immediateExcess / bottlesPerTruck)
			trucksToCancel = int(math.Min(cancellable, totalIncoming))
		}
	}

	// Ghost orders: planned trucks with no confirming purchase order.
	plannedOrders := make(map[string]PlannedOrder)
	for date, count := range in.Inbound {
		if count <= 0 {
			continue
		}
		if items, ok := in.Manifest[date]; ok && len(items) > 0 {
			continue
		}
		ghost := PlannedOrder{Count: count, Items: make([]domain.ManifestItem, 0, int(count))}
		for j := 0; j < int(count); j++ {
			ghost.Items = append(ghost.Items, domain.ManifestItem{
				SKU:    spec.SKU,
				Date:   date,
				Status: "planned",
			})
		}
		plannedOrders[date] = ghost
	}

	return &Projection{
		Today:                   in.Today,
		LeadTimeDays:            leadTime,
		CurrentPallets:          pallets,
		FloorBottles:            floorBottles,
		YardBottles:             yardBottles,
		NetInventory:            netInventory,
		TotalScheduledCases:     totalScheduledCases,
		EffectiveScheduledCases: effectiveScheduledCases,
		SafetyTargetBottles:     safetyTarget,
		Ledger:                  ledger,
		FirstStockoutDate:       firstStockout,
		FirstOverflowDate:       firstOverflow,
		DaysOfSupply:            daysOfSupply(ledger, startBalance),
		TrucksToOrder:           trucksToOrder,
		TrucksToCancel:          trucksToCancel,
		PlannedOrders:           plannedOrders,
	}, nil
}

// daysOfSupply scans the ledger for the first negative balance and credits
// the partial day consumed before it. A horizon with no negative day reports
// the 30-day cap, not an unbounded value.
func daysOfSupply(ledger []domain.LedgerEntry, startBalance float64) float64 {
	for k, entry := range ledger {
		if entry.Balance >= 0 {
			continue
		}
		prev := startBalance
		if k > 0 {
			prev = ledger[k-1].Balance
		}
		partial := 0.0
		if entry.Demand != 0 {
			partial = prev / entry.Demand
		}
		return float64(k) + partial
	}
	return float64(HorizonDays)
}

// KPIs flattens a projection into the dashboard summary shape.
func (p *Projection) KPIs(sku string) domain.PlanKPIs {
	return domain.PlanKPIs{
		SKU:                sku,
		PlanDate:           p.Today,
		CurrentPallets:     p.CurrentPallets,
		FloorBottles:       p.FloorBottles,
		NetInventory:       p.NetInventory,
		DaysOfSupply:       p.DaysOfSupply,
		FirstStockoutDate:  p.FirstStockoutDate,
		FirstOverflowDate:  p.FirstOverflowDate,
		TrucksToOrder:      p.TrucksToOrder,
		TrucksToCancel:     p.TrucksToCancel,
		SafetyTargetBottle: p.SafetyTargetBottles,
	}
}

// LedgerDays adapts the projected ledger into the day states the solver
// walks. The per-day safety target is left unset so the solver falls back to
// the global loads-based target.
func (p *Projection) LedgerDays() []DayState {
	days := make([]DayState, 0, len(p.Ledger))
	for _, entry := range p.Ledger {
		days = append(days, DayState{
			Date:                  entry.Date,
			ProjectedEndInventory: entry.Balance,
		})
	}
	return days
}

func unionDates(a, b Series) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

func manifestDates(m Manifest) Series {
	out := make(Series, len(m))
	for date, items := range m {
		out[date] = float64(len(items))
	}
	return out
}
