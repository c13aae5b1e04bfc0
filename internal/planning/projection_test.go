package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bevops/truckplan/internal/domain"
)

// testSpec: 12 bottles/case, 100 cases/pallet, 24000 bottles/truck. One truck
// is exactly 20 pallets or 2000 cases.
func testSpec() *domain.ProductSpec {
	return &domain.ProductSpec{
		SKU:             "0500ML-STD",
		BottlesPerCase:  12,
		BottlesPerTruck: 24000,
		CasesPerPallet:  100,
		ScrapPercentage: 0,
		RateUnit:        domain.RateUnitCasesPerHour,
	}
}

func baseInput() ProjectionInput {
	return ProjectionInput{
		Today:            "2026-03-02",
		Spec:             testSpec(),
		Anchor:           Anchor{Date: "2026-03-02", Pallets: 50},
		Demand:           Series{},
		Actuals:          Series{},
		Inbound:          Series{},
		Manifest:         Manifest{},
		SafetyStockLoads: 0,
		LeadTimeDays:     2,
	}
}

func TestProjectMissingSpec(t *testing.T) {
	in := baseInput()
	in.Spec = nil

	p, err := Project(in)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrNoSpec)
}

func TestProjectAnchorIdentity(t *testing.T) {
	// An anchor dated today is used verbatim; no replay runs.
	in := baseInput()
	in.Demand = Series{"2026-03-01": 9999} // in the past, must not affect replay

	p, err := Project(in)
	require.NoError(t, err)
	assert.Equal(t, 50.0, p.CurrentPallets)
	assert.Equal(t, 60000.0, p.FloorBottles)
}

func TestProjectDemandDepletion(t *testing.T) {
	in := baseInput()
	in.Demand = Series{"2026-03-02": 100}

	p, err := Project(in)
	require.NoError(t, err)
	require.Len(t, p.Ledger, HorizonDays)
	// 60000 - 100 cases * 12 bottles
	assert.Equal(t, 58800.0, p.Ledger[0].Balance)
	assert.Equal(t, 1200.0, p.Ledger[0].Demand)
}

func TestProjectDemandDepletionWithScrap(t *testing.T) {
	in := baseInput()
	in.Spec.ScrapPercentage = 10
	in.Demand = Series{"2026-03-02": 100}

	p, err := Project(in)
	require.NoError(t, err)
	assert.InDelta(t, 60000-100*12*1.1, p.Ledger[0].Balance, 1e-9)
}

func TestProjectSupplyAddition(t *testing.T) {
	in := baseInput()
	in.Inbound = Series{"2026-03-02": 1}

	p, err := Project(in)
	require.NoError(t, err)
	assert.Equal(t, 84000.0, p.Ledger[0].Balance)
	assert.Equal(t, 24000.0, p.Ledger[0].Supply)
}

func TestProjectManifestOverridesInbound(t *testing.T) {
	// A confirmed manifest with two items beats a manual plan of one truck.
	in := baseInput()
	in.Inbound = Series{"2026-03-02": 1}
	in.Manifest = Manifest{"2026-03-02": {
		{SKU: "0500ML-STD", Date: "2026-03-02", PONumber: "PO-1001"},
		{SKU: "0500ML-STD", Date: "2026-03-02", PONumber: "PO-1002"},
	}}

	p, err := Project(in)
	require.NoError(t, err)
	assert.Equal(t, 48000.0, p.Ledger[0].Supply)
	assert.Equal(t, 60000.0+48000.0, p.Ledger[0].Balance)
}

func TestProjectActualOverridesPlan(t *testing.T) {
	in := baseInput()
	in.Demand = Series{"2026-03-02": 100}
	in.Actuals = Series{"2026-03-02": 40}

	p, err := Project(in)
	require.NoError(t, err)
	assert.Equal(t, 60000-40*12.0, p.Ledger[0].Balance)
}

func TestProjectFutureZeroActualIgnored(t *testing.T) {
	// A zero actual on a future date means "not yet entered", so the plan
	// still applies. A zero actual today is a real zero.
	in := baseInput()
	in.Demand = Series{"2026-03-03": 100}
	in.Actuals = Series{"2026-03-03": 0}

	p, err := Project(in)
	require.NoError(t, err)
	assert.Equal(t, 60000-100*12.0, p.Ledger[1].Balance)

	in.Demand = Series{"2026-03-02": 100}
	in.Actuals = Series{"2026-03-02": 0}
	p, err = Project(in)
	require.NoError(t, err)
	assert.Equal(t, 60000.0, p.Ledger[0].Balance)
}

func TestProjectReconstructionNetZero(t *testing.T) {
	// Anchor five days back; each replayed day consumes exactly one truck's
	// worth of cases and receives one truck. Floor count must not drift.
	in := baseInput()
	in.Anchor = Anchor{Date: "2026-02-25", Pallets: 50}
	for _, d := range []string{"2026-02-25", "2026-02-26", "2026-02-27", "2026-02-28", "2026-03-01"} {
		in.Demand[d] = 2000
		in.Inbound[d] = 1
	}

	p, err := Project(in)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, p.CurrentPallets, 1e-9)
}

func TestProjectReconstructionDrift(t *testing.T) {
	// Two replayed days of 1000 cases each with no inbound: 20 pallets gone.
	in := baseInput()
	in.Anchor = Anchor{Date: "2026-02-28", Pallets: 50}
	in.Demand = Series{"2026-02-28": 1000, "2026-03-01": 1000}

	p, err := Project(in)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, p.CurrentPallets, 1e-9)
}

func TestProjectStaleAnchorSkipsReplay(t *testing.T) {
	in := baseInput()
	in.Anchor = Anchor{Date: "2024-01-01", Pallets: 50}
	in.Demand = Series{"2025-06-01": 5000}

	p, err := Project(in)
	require.NoError(t, err)
	// Raw anchor count used as-is; the old demand is not replayed.
	assert.Equal(t, 50.0, p.CurrentPallets)
}

func TestProjectYardInventory(t *testing.T) {
	in := baseInput()
	in.Yard = Yard{Date: "2026-03-02", Loads: 2}

	p, err := Project(in)
	require.NoError(t, err)
	assert.Equal(t, 48000.0, p.YardBottles)
	assert.Equal(t, 60000.0+48000.0, p.Ledger[0].Balance)
}

func TestProjectFirstStockoutDate(t *testing.T) {
	in := baseInput()
	in.SafetyStockLoads = 1 // target 24000 bottles
	// Day 3 drops the balance below target; day 5 drops further. Only the
	// first crossing is recorded.
	in.Demand = Series{
		"2026-03-05": 3500,
		"2026-03-07": 2000,
	}

	p, err := Project(in)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-05", p.FirstStockoutDate)
}

func TestProjectFirstOverflowDate(t *testing.T) {
	in := baseInput()
	in.SafetyStockLoads = 1
	// Overflow limit = 24000 + 2*24000 = 72000. Floor alone is 60000; one
	// truck on day 2 pushes past it.
	in.Inbound = Series{"2026-03-04": 1}

	p, err := Project(in)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-04", p.FirstOverflowDate)
}

func TestProjectNegativeBalanceIsStockout(t *testing.T) {
	in := baseInput()
	in.Demand = Series{"2026-03-03": 6000} // 72000 bottles vs 60000 floor

	p, err := Project(in)
	require.NoError(t, err)
	assert.Negative(t, p.Ledger[1].Balance)
	assert.Equal(t, "2026-03-03", p.FirstStockoutDate)
}

func TestProjectDaysOfSupplyPartialDay(t *testing.T) {
	in := baseInput()
	// Day 0 consumes 50000 bottles (balance 10000), day 1 another 50000
	// (balance -40000). DOS = 1 + 10000/50000.
	in.Demand = Series{
		"2026-03-02": 50000.0 / 12,
		"2026-03-03": 50000.0 / 12,
	}

	p, err := Project(in)
	require.NoError(t, err)
	assert.InDelta(t, 1.2, p.DaysOfSupply, 1e-9)
}

func TestProjectDaysOfSupplyCap(t *testing.T) {
	in := baseInput()

	p, err := Project(in)
	require.NoError(t, err)
	assert.Equal(t, 30.0, p.DaysOfSupply)
}

func TestProjectDaysOfSupplyZeroDemandGuard(t *testing.T) {
	// A negative ledger whose failing day has zero demand must not divide by
	// zero; the partial-day credit is simply dropped.
	in := baseInput()
	in.Anchor = Anchor{Date: "2026-03-02", Pallets: -1}

	p, err := Project(in)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, p.DaysOfSupply, 1e-9)
}

func TestProjectTrucksToOrder(t *testing.T) {
	in := baseInput()
	in.SafetyStockLoads = 2 // 48000 bottles
	for _, d := range []string{"2026-03-02", "2026-03-03", "2026-03-04"} {
		in.Demand[d] = 2000
	}

	p, err := Project(in)
	require.NoError(t, err)
	// available 60000, need 3*2000*12 + 48000 = 120000 -> 2.5 trucks short.
	assert.Equal(t, 3, p.TrucksToOrder)
	assert.Equal(t, 0, p.TrucksToCancel)
}

func TestProjectTrucksToCancel(t *testing.T) {
	in := baseInput()
	in.SafetyStockLoads = 2
	in.Inbound = Series{
		"2026-03-02": 1,
		"2026-03-03": 1,
		"2026-03-04": 1,
		"2026-03-10": 1, // outside the lead-time window, still cancellable
	}

	p, err := Project(in)
	require.NoError(t, err)
	// available 60000 + 3*24000 = 132000; excess over target 84000 -> 3
	// cancellable, capped by 4 incoming.
	assert.Equal(t, 0, p.TrucksToOrder)
	assert.Equal(t, 3, p.TrucksToCancel)
}

func TestProjectHysteresisBandNoCrossTrigger(t *testing.T) {
	// Inventory exactly inside the band: neither order nor cancel fires.
	in := baseInput()
	in.SafetyStockLoads = 2 // target 48000, floor 60000

	p, err := Project(in)
	require.NoError(t, err)
	assert.Equal(t, 0, p.TrucksToOrder)
	assert.Equal(t, 0, p.TrucksToCancel)
}

func TestProjectNetInventory(t *testing.T) {
	in := baseInput()
	in.IncomingTrucks = 1
	in.Yard = Yard{Loads: 1}
	in.Demand = Series{"2026-03-02": 1000}

	p, err := Project(in)
	require.NoError(t, err)
	// 60000 + 24000 + 24000 - 1000*12
	assert.Equal(t, 96000.0, p.NetInventory)
}

func TestProjectGhostOrders(t *testing.T) {
	in := baseInput()
	in.Inbound = Series{
		"2026-03-05": 2, // no manifest: ghost
		"2026-03-06": 1, // confirmed below: not a ghost
		"2026-03-07": 0, // zero plan never surfaces
	}
	in.Manifest = Manifest{"2026-03-06": {{PONumber: "PO-2001"}}}

	p, err := Project(in)
	require.NoError(t, err)
	require.Len(t, p.PlannedOrders, 1)
	ghost, ok := p.PlannedOrders["2026-03-05"]
	require.True(t, ok)
	assert.Equal(t, 2.0, ghost.Count)
	assert.Len(t, ghost.Items, 2)
	assert.Equal(t, "planned", ghost.Items[0].Status)
}

func TestProjectDowntimeReducesScheduledCases(t *testing.T) {
	in := baseInput()
	in.Demand = Series{"2026-03-02": 1000}
	in.ProductionRate = 50
	in.DowntimeHours = 4

	p, err := Project(in)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, p.TotalScheduledCases)
	assert.Equal(t, 800.0, p.EffectiveScheduledCases)
}

func TestProjectMalformedTodayRejected(t *testing.T) {
	in := baseInput()
	in.Today = "03/02/2026"

	_, err := Project(in)
	assert.Error(t, err)
}
