package domain

import "time"

// ProductSpec describes the packaging geometry of one bottled SKU. All unit
// conversions between bottles, cases, pallets and truck loads derive from it.
type ProductSpec struct {
	SKU             string  `db:"sku" json:"sku"`
	Name            string  `db:"name" json:"name"`
	BottlesPerCase  int     `db:"bottles_per_case" json:"bottles_per_case"`
	BottlesPerTruck int     `db:"bottles_per_truck" json:"bottles_per_truck"`
	CasesPerPallet  int     `db:"cases_per_pallet" json:"cases_per_pallet"`
	ScrapPercentage float64 `db:"scrap_percentage" json:"scrap_percentage"`
	// RateUnit states whether production rates for this SKU are entered in
	// cases/hour or bottles/hour. The unit is explicit rather than guessed
	// from the magnitude of the rate.
	RateUnit  string    `db:"rate_unit" json:"rate_unit"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

const (
	RateUnitCasesPerHour   = "cases_per_hour"
	RateUnitBottlesPerHour = "bottles_per_hour"
)

// ScrapFactor is the multiplicative yield-loss factor applied to demand.
func (s ProductSpec) ScrapFactor() float64 {
	return 1 + s.ScrapPercentage/100
}

// BottlesPerPallet returns the number of bottles on one full pallet.
func (s ProductSpec) BottlesPerPallet() float64 {
	return float64(s.BottlesPerCase) * float64(s.CasesPerPallet)
}

// TrucksToPallets converts a truck count to pallets.
func (s ProductSpec) TrucksToPallets(trucks float64) float64 {
	return trucks * float64(s.BottlesPerTruck) / float64(s.BottlesPerCase) / float64(s.CasesPerPallet)
}

// CasesToPallets converts a case count to pallets.
func (s ProductSpec) CasesToPallets(cases float64) float64 {
	return cases / float64(s.CasesPerPallet)
}

// PalletsToBottles converts a pallet count to bottles.
func (s ProductSpec) PalletsToBottles(pallets float64) float64 {
	return pallets * s.BottlesPerPallet()
}

// InventoryAnchor is a trusted physical count of floor inventory, in pallets,
// taken on a specific date. The engine never mutates it; it only replays
// demand and supply forward from it.
type InventoryAnchor struct {
	ID        int64     `db:"id" json:"id"`
	SKU       string    `db:"sku" json:"sku"`
	Date      string    `db:"anchor_date" json:"date"`
	Pallets   float64   `db:"pallets" json:"pallets"`
	CountedBy string    `db:"counted_by" json:"counted_by,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// YardCount is a count of arrived-but-unprocessed trailers. One load converts
// to bottles without packaging loss.
type YardCount struct {
	ID        int64     `db:"id" json:"id"`
	SKU       string    `db:"sku" json:"sku"`
	Date      string    `db:"count_date" json:"date"`
	Loads     float64   `db:"loads" json:"loads"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DemandEntry is one day of the production schedule for a SKU. PlannedCases is
// the plan; ActualCases is filled in once production for that day is recorded.
type DemandEntry struct {
	SKU          string   `db:"sku" json:"sku"`
	Date         string   `db:"entry_date" json:"date"`
	PlannedCases float64  `db:"planned_cases" json:"planned_cases"`
	ActualCases  *float64 `db:"actual_cases" json:"actual_cases,omitempty"`
}

// InboundPlan is the manually planned truck count for one day. Counts may be
// fractional while a solver proposal is being reviewed.
type InboundPlan struct {
	SKU    string  `db:"sku" json:"sku"`
	Date   string  `db:"plan_date" json:"date"`
	Trucks float64 `db:"trucks" json:"trucks"`
}

// ManifestItem is one confirmed purchase-order line scheduled to arrive as a
// truck load on the manifest date.
type ManifestItem struct {
	ID        int64  `db:"id" json:"id"`
	SKU       string `db:"sku" json:"sku"`
	Date      string `db:"arrival_date" json:"date"`
	PONumber  string `db:"po_number" json:"po_number"`
	Supplier  string `db:"supplier" json:"supplier,omitempty"`
	Status    string `db:"status" json:"status"`
	Reference string `db:"reference" json:"reference,omitempty"`
}

// PlannerSettings holds the per-plant planning parameters. A zero-value row is
// replaced by config defaults at load time.
type PlannerSettings struct {
	SKU              string    `db:"sku" json:"sku"`
	SafetyStockLoads float64   `db:"safety_stock_loads" json:"safety_stock_loads"`
	LeadTimeDays     int       `db:"lead_time_days" json:"lead_time_days"`
	ProductionRate   float64   `db:"production_rate" json:"production_rate"`
	DowntimeHours    float64   `db:"downtime_hours" json:"downtime_hours"`
	IncomingTrucks   float64   `db:"incoming_trucks" json:"incoming_trucks"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// LedgerEntry is one day of the projected inventory ledger, in bottles.
type LedgerEntry struct {
	Date             string  `json:"date"`
	Balance          float64 `json:"balance"`
	Demand           float64 `json:"demand"`
	Supply           float64 `json:"supply"`
	ProjectedPallets float64 `json:"projected_pallets"`
}

// PlanKPIs summarizes a projection for dashboards.
type PlanKPIs struct {
	SKU                string  `json:"sku"`
	PlanDate           string  `json:"plan_date"`
	CurrentPallets     float64 `json:"current_pallets"`
	FloorBottles       float64 `json:"floor_bottles"`
	NetInventory       float64 `json:"net_inventory"`
	DaysOfSupply       float64 `json:"days_of_supply"`
	FirstStockoutDate  string  `json:"first_stockout_date,omitempty"`
	FirstOverflowDate  string  `json:"first_overflow_date,omitempty"`
	TrucksToOrder      int     `json:"trucks_to_order"`
	TrucksToCancel     int     `json:"trucks_to_cancel"`
	SafetyTargetBottle float64 `json:"safety_target_bottles"`
}

// ReplanResult reports the outcome of a fixed-point replan run.
type ReplanResult struct {
	SKU        string             `json:"sku"`
	PlanDate   string             `json:"plan_date"`
	Passes     int                `json:"passes"`
	Updates    int                `json:"updates"`
	Converged  bool               `json:"converged"`
	NewInbound map[string]float64 `json:"new_inbound"`
	Applied    bool               `json:"applied"`
}

// ScheduleWindow bounds the date range a repository query loads.
type ScheduleWindow struct {
	SKU  string
	From string // inclusive, YYYY-MM-DD
	To   string // inclusive, YYYY-MM-DD
}
