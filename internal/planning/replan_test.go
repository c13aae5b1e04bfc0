package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deficitInput() ProjectionInput {
	in := baseInput()
	in.SafetyStockLoads = 1
	// Heavy production from day 3 on drains the 60000-bottle floor.
	for _, d := range []string{"2026-03-05", "2026-03-06", "2026-03-07", "2026-03-08"} {
		in.Demand[d] = 3000
	}
	return in
}

func TestReplanConverges(t *testing.T) {
	out, err := Replan(deficitInput(), 0)
	require.NoError(t, err)

	assert.True(t, out.Converged)
	assert.Positive(t, out.Updates)

	// Every unfrozen projected day ends inside the safety band.
	frozenUntil := "2026-03-03"
	for _, entry := range out.Projection.Ledger {
		if entry.Date <= frozenUntil {
			continue
		}
		assert.GreaterOrEqual(t, entry.Balance, out.Projection.SafetyTargetBottles,
			"day %s left below safety target", entry.Date)
	}
}

func TestReplanSolverIdempotence(t *testing.T) {
	in := deficitInput()

	first, err := Replan(in, DefaultMaxReplanPasses)
	require.NoError(t, err)
	require.True(t, first.Converged)

	// Feed the patched plan back in: a second solve must propose nothing.
	in.Inbound = first.NewInbound
	projection, err := Project(in)
	require.NoError(t, err)

	proposal, err := Solve(SolveInput{
		Today:            in.Today,
		Spec:             in.Spec,
		Days:             projection.LedgerDays(),
		Inbound:          in.Inbound,
		Actuals:          in.Actuals,
		SafetyStockLoads: in.SafetyStockLoads,
		LeadTimeDays:     in.LeadTimeDays,
	})
	require.NoError(t, err)
	assert.Zero(t, proposal.Updates)
	assert.Empty(t, proposal.NewInbound)
}

func TestReplanDoesNotMutateInput(t *testing.T) {
	in := deficitInput()
	in.Inbound = Series{"2026-03-06": 1}

	_, err := Replan(in, 0)
	require.NoError(t, err)
	assert.Equal(t, Series{"2026-03-06": 1}, in.Inbound)
}

func TestReplanPropagatesEngineErrors(t *testing.T) {
	in := deficitInput()
	in.Spec = nil

	_, err := Replan(in, 0)
	assert.ErrorIs(t, err, ErrNoSpec)
}

func TestReplanNoWorkNeeded(t *testing.T) {
	in := baseInput() // flat 60000 bottles, zero safety target
	out, err := Replan(in, 0)
	require.NoError(t, err)

	assert.True(t, out.Converged)
	assert.Equal(t, 1, out.Passes)
	assert.Zero(t, out.Updates)
}
