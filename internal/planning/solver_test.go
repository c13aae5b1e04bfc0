package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseSolveInput() SolveInput {
	return SolveInput{
		Today:            "2026-03-02",
		Spec:             testSpec(),
		Inbound:          Series{},
		Actuals:          Series{},
		SafetyStockLoads: 1, // target 24000 bottles
		LeadTimeDays:     2,
	}
}

func TestSolveMissingPreconditions(t *testing.T) {
	in := baseSolveInput()
	in.Days = []DayState{{Date: "2026-03-05"}}
	in.Spec = nil
	_, err := Solve(in)
	assert.ErrorIs(t, err, ErrNoSpec)

	in = baseSolveInput()
	in.Days = nil
	_, err = Solve(in)
	assert.ErrorIs(t, err, ErrNoLedger)
}

func TestSolveDeficitAddsTrucks(t *testing.T) {
	in := baseSolveInput()
	in.Days = []DayState{
		{Date: "2026-03-05", ProjectedEndInventory: -30000},
	}

	p, err := Solve(in)
	require.NoError(t, err)
	// 54000 bottles short of the 24000 target: ceil to 3 trucks.
	assert.Equal(t, 1, p.Updates)
	assert.Equal(t, 3.0, p.NewInbound["2026-03-05"])
}

func TestSolveDeficitStacksOnExistingPlan(t *testing.T) {
	in := baseSolveInput()
	in.Inbound = Series{"2026-03-05": 2}
	in.Days = []DayState{
		{Date: "2026-03-05", ProjectedEndInventory: 0},
	}

	p, err := Solve(in)
	require.NoError(t, err)
	// One more truck on top of the two already planned.
	assert.Equal(t, 3.0, p.NewInbound["2026-03-05"])
}

func TestSolveFrozenWindowUntouchable(t *testing.T) {
	// Lead time 3: today+0..today+2 are frozen no matter how deep the hole.
	in := baseSolveInput()
	in.LeadTimeDays = 3
	in.Days = []DayState{
		{Date: "2026-03-02", ProjectedEndInventory: -900000},
		{Date: "2026-03-03", ProjectedEndInventory: -900000},
		{Date: "2026-03-04", ProjectedEndInventory: -900000},
		{Date: "2026-03-05", ProjectedEndInventory: -900000},
	}

	p, err := Solve(in)
	require.NoError(t, err)
	for date := range p.NewInbound {
		assert.Greater(t, date, "2026-03-04", "frozen date %s was replanned", date)
	}
	assert.Contains(t, p.NewInbound, "2026-03-05")
}

func TestSolveSkipsRecordedActuals(t *testing.T) {
	in := baseSolveInput()
	in.Actuals = Series{"2026-03-05": 1200}
	in.Days = []DayState{
		{Date: "2026-03-05", ProjectedEndInventory: -50000},
		{Date: "2026-03-06", ProjectedEndInventory: -50000},
	}

	p, err := Solve(in)
	require.NoError(t, err)
	assert.NotContains(t, p.NewInbound, "2026-03-05")
	assert.Contains(t, p.NewInbound, "2026-03-06")
}

func TestSolveRollingWave(t *testing.T) {
	// Day one is 1 bottle short and gets a full truck. Day two is 1000
	// bottles short on its own, but the carried truck covers it: without the
	// rolling wave this would double-order.
	in := baseSolveInput()
	in.Days = []DayState{
		{Date: "2026-03-05", ProjectedEndInventory: 23999},
		{Date: "2026-03-06", ProjectedEndInventory: 23000},
	}

	p, err := Solve(in)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Updates)
	assert.Equal(t, 1.0, p.NewInbound["2026-03-05"])
	assert.NotContains(t, p.NewInbound, "2026-03-06")
}

func TestSolveSurplusRemovesPlannedTrucks(t *testing.T) {
	in := baseSolveInput()
	in.Inbound = Series{"2026-03-05": 2}
	in.Days = []DayState{
		{Date: "2026-03-05", ProjectedEndInventory: 80000},
	}

	p, err := Solve(in)
	require.NoError(t, err)
	// Removable: floor(56000/24000) = 2, plan has 2.
	assert.Equal(t, 1, p.Updates)
	assert.Equal(t, 0.0, p.NewInbound["2026-03-05"])
}

func TestSolveSurplusCappedByPlan(t *testing.T) {
	in := baseSolveInput()
	in.Inbound = Series{"2026-03-05": 1}
	in.Days = []DayState{
		{Date: "2026-03-05", ProjectedEndInventory: 200000},
	}

	p, err := Solve(in)
	require.NoError(t, err)
	// Plenty removable, but only one truck is actually planned.
	assert.Equal(t, 0.0, p.NewInbound["2026-03-05"])
}

func TestSolveSurplusWithoutPlanIsNoop(t *testing.T) {
	in := baseSolveInput()
	in.Days = []DayState{
		{Date: "2026-03-05", ProjectedEndInventory: 500000},
	}

	p, err := Solve(in)
	require.NoError(t, err)
	assert.Zero(t, p.Updates)
	assert.Empty(t, p.NewInbound)
}

func TestSolveWithinBandIsNoop(t *testing.T) {
	in := baseSolveInput()
	in.Inbound = Series{"2026-03-05": 1}
	in.Days = []DayState{
		// Inside (target, target+truck]: neither branch fires.
		{Date: "2026-03-05", ProjectedEndInventory: 40000},
	}

	p, err := Solve(in)
	require.NoError(t, err)
	assert.Zero(t, p.Updates)
}

func TestSolvePerDayTargetOverride(t *testing.T) {
	perDay := 48000.0
	in := baseSolveInput()
	in.Days = []DayState{
		{Date: "2026-03-05", ProjectedEndInventory: 30000, SafetyStockTarget: &perDay},
	}

	p, err := Solve(in)
	require.NoError(t, err)
	// 30000 is fine against the global 24000 but short of the per-day 48000.
	assert.Equal(t, 1.0, p.NewInbound["2026-03-05"])
}

func TestSolveUnsortedDaysHandledChronologically(t *testing.T) {
	in := baseSolveInput()
	in.Days = []DayState{
		{Date: "2026-03-06", ProjectedEndInventory: 23000},
		{Date: "2026-03-05", ProjectedEndInventory: 23999},
	}

	p, err := Solve(in)
	require.NoError(t, err)
	// Same as the rolling-wave case: the earlier day must be patched first.
	assert.Equal(t, 1, p.Updates)
	assert.Contains(t, p.NewInbound, "2026-03-05")
}
