package planning

// DefaultMaxReplanPasses bounds the project/solve fixed-point loop.
const DefaultMaxReplanPasses = 5

// ReplanOutcome is the result of iterating projector and solver to a fixed
// point.
type ReplanOutcome struct {
	// Projection is computed against the final patched plan.
	Projection *Projection
	// NewInbound is the fully patched truck plan (all dates, not only changes).
	NewInbound Series
	// Updates is the total number of per-day plan changes across all passes.
	Updates   int
	Passes    int
	Converged bool
}

// Replan runs the rolling-wave loop the solver alone does not own: project
// the ledger, solve against it, fold the proposal back into the inbound plan,
// and repeat until a pass proposes nothing or the pass cap is hit. The input
// snapshot is not mutated; the patched plan comes back in the outcome.
func Replan(in ProjectionInput, maxPasses int) (*ReplanOutcome, error) {
	if maxPasses <= 0 {
		maxPasses = DefaultMaxReplanPasses
	}

	inbound := in.Inbound.Clone()
	outcome := &ReplanOutcome{NewInbound: inbound}

	for pass := 1; pass <= maxPasses; pass++ {
		outcome.Passes = pass

		next := in
		next.Inbound = inbound
		projection, err := Project(next)
		if err != nil {
			return nil, err
		}
		outcome.Projection = projection

		proposal, err := Solve(SolveInput{
			Today:            in.Today,
			Spec:             in.Spec,
			Days:             projection.LedgerDays(),
			Inbound:          inbound,
			Actuals:          in.Actuals,
			SafetyStockLoads: in.SafetyStockLoads,
			LeadTimeDays:     in.LeadTimeDays,
		})
		if err != nil {
			return nil, err
		}

		if proposal.Updates == 0 {
			outcome.Converged = true
			return outcome, nil
		}

		outcome.Updates += proposal.Updates
		for date, trucks := range proposal.NewInbound {
			inbound[date] = trucks
		}
	}

	// Re-project once more so the reported ledger reflects the final plan.
	next := in
	next.Inbound = inbound
	projection, err := Project(next)
	if err != nil {
		return nil, err
	}
	outcome.Projection = projection
	return outcome, nil
}
