package planning

import "github.com/bevops/truckplan/internal/domain"

// CasesPerHour normalizes a production rate to cases/hour using the spec's
// explicit rate unit. Rates are never classified by magnitude; a SKU that
// runs thousands of cases an hour is still cases an hour if its spec says so.
func CasesPerHour(spec domain.ProductSpec, rate float64) float64 {
	if spec.RateUnit == domain.RateUnitBottlesPerHour && spec.BottlesPerCase > 0 {
		return rate / float64(spec.BottlesPerCase)
	}
	return rate
}

// TruckCoverageHours returns how many production hours one truck load feeds
// at the given rate. Zero when the rate is not positive.
func TruckCoverageHours(spec domain.ProductSpec, rate float64) float64 {
	cases := CasesPerHour(spec, rate)
	if cases <= 0 || spec.BottlesPerCase <= 0 {
		return 0
	}
	truckCases := float64(spec.BottlesPerTruck) / float64(spec.BottlesPerCase)
	return truckCases / cases
}
