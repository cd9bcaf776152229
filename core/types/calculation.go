// Package types - Calculation record and breakdown types.
package types

import "time"

// CalculationKind distinguishes the fast screening from the batch comparison.
type CalculationKind string

const (
	KindExpress  CalculationKind = "express"
	KindDetailed CalculationKind = "detailed"
)

// CalculationStatus is the lifecycle status of a calculation record.
// Transitions are one-directional; terminal states never change.
type CalculationStatus string

const (
	StatusPending    CalculationStatus = "pending"
	StatusProcessing CalculationStatus = "processing"
	StatusCompleted  CalculationStatus = "completed"
	StatusFailed     CalculationStatus = "failed"
	StatusBlocked    CalculationStatus = "blocked"
	StatusOrangeZone CalculationStatus = "orange_zone"
)

// Terminal reports whether the status is final.
func (s CalculationStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusBlocked, StatusOrangeZone:
		return true
	}
	return false
}

// BatchBaseType names the cap that limited the batch size.
type BatchBaseType string

const (
	BaseWeight BatchBaseType = "weight"
	BaseVolume BatchBaseType = "volume"
)

// Channel identifies one of the two competing shipping channels.
type Channel string

const (
	ChannelCargo Channel = "cargo"
	ChannelWhite Channel = "white"
)

// BatchAllocation is the batch sizing derived from per-unit dimensions.
// It is recomputed per call and never persisted on its own.
type BatchAllocation struct {
	// BaseType names the cap that limited the quantity (tie favors weight).
	BaseType BatchBaseType `json:"base_type"`

	// Quantity is the number of units in the batch.
	Quantity int `json:"quantity"`

	BaseWeightKg  float64 `json:"base_weight_kg"`
	BaseVolumeM3  float64 `json:"base_volume_m3"`
	CargoWeightKg float64 `json:"cargo_weight_kg"`
	CargoVolumeM3 float64 `json:"cargo_volume_m3"`
	WhiteWeightKg float64 `json:"white_weight_kg"`
	WhiteVolumeM3 float64 `json:"white_volume_m3"`
}

// TariffMode names how freight is priced for a density.
type TariffMode string

const (
	TariffPerM3 TariffMode = "per_m3"
	TariffPerKg TariffMode = "per_kg"
)

// CargoBreakdown is the cost breakdown for the bulk-freight channel.
// Monetary fields are rounded to 2 decimal places at the presentation
// boundary when the breakdown is built.
type CargoBreakdown struct {
	DensityKgM3           float64    `json:"density_kg_m3"`
	TariffMode            TariffMode `json:"tariff_mode"`
	TariffRateUSD         float64    `json:"tariff_rate_usd"`
	SpecificValueUSDPerKg float64    `json:"specific_value_usd_per_kg"`
	InsuranceRate         float64    `json:"insurance_rate"`
	CommissionRate        float64    `json:"commission_rate"`

	FreightUSD    float64 `json:"freight_usd"`
	InsuranceUSD  float64 `json:"insurance_usd"`
	CommissionUSD float64 `json:"commission_usd"`
	PackagingUSD  float64 `json:"packaging_usd"`
	GoodsValueUSD float64 `json:"goods_value_usd"`
	TotalUSD      float64 `json:"total_usd"`
	TotalRUB      float64 `json:"total_rub"`

	CostPerKgUSD float64 `json:"cost_per_kg_usd"`
	CostPerKgRUB float64 `json:"cost_per_kg_rub"`

	// Per-unit costs are zero when quantity is unknown.
	CostPerUnitUSD float64 `json:"cost_per_unit_usd,omitempty"`
	CostPerUnitRUB float64 `json:"cost_per_unit_rub,omitempty"`
}

// WhiteBreakdown is the cost breakdown for the compliant channel.
type WhiteBreakdown struct {
	LogisticsUSD  float64 `json:"logistics_usd"`
	LogisticsRUB  float64 `json:"logistics_rub"`
	GoodsValueCNY float64 `json:"goods_value_cny"`
	GoodsValueUSD float64 `json:"goods_value_usd"`
	GoodsValueRUB float64 `json:"goods_value_rub"`
	DocsRUB       float64 `json:"docs_rub"`
	BrokerRUB     float64 `json:"broker_rub"`
	DutyRUB       float64 `json:"duty_rub"`
	VATRUB        float64 `json:"vat_rub"`
	TotalRUB      float64 `json:"total_rub"`

	// CustomsFeesRUB is the tiered customs processing fee, reported for
	// reference; it is not part of TotalRUB.
	CustomsFeesRUB float64 `json:"customs_fees_rub"`

	CostPerKgRUB   float64 `json:"cost_per_kg_rub"`
	CostPerUnitRUB float64 `json:"cost_per_unit_rub,omitempty"`
}

// Comparison is the channel comparison of a detailed calculation.
type Comparison struct {
	CargoTotalRUB     float64 `json:"cargo_total_rub"`
	WhiteTotalRUB     float64 `json:"white_total_rub"`
	DifferenceRUB     float64 `json:"difference_rub"`
	DifferencePercent float64 `json:"difference_percent"`

	// CheaperOption is the channel with the smaller total; a tie goes to cargo.
	CheaperOption Channel `json:"cheaper_option"`
}

// DetailedResult is the outcome of a detailed calculation.
type DetailedResult struct {
	Allocation BatchAllocation `json:"allocation"`
	Rates      ChannelRates    `json:"rates"`
	Cargo      CargoBreakdown  `json:"cargo"`
	White      WhiteBreakdown  `json:"white"`
	Comparison Comparison      `json:"comparison"`
}

// AssessmentStatus is the express screening verdict shown to the seller.
type AssessmentStatus string

const (
	AssessmentGreen  AssessmentStatus = "green"
	AssessmentYellow AssessmentStatus = "yellow"
	AssessmentOrange AssessmentStatus = "orange"
	AssessmentRed    AssessmentStatus = "red"
)

// ExpressResult is the outcome of the express screening.
type ExpressResult struct {
	// Code is the selected 10-digit regulatory code.
	Code string `json:"code,omitempty"`

	// Duty is the duty spec the classifier attached to the code.
	Duty *DutySpec `json:"duty,omitempty"`

	ZoneDecision ZoneDecision `json:"zone_decision,omitempty"`
	ZoneReason   string       `json:"zone_reason,omitempty"`
	OrangeReason string       `json:"orange_reason,omitempty"`

	SpecificValueUSDPerKg float64   `json:"specific_value_usd_per_kg,omitempty"`
	Tier                  ValueTier `json:"tier,omitempty"`

	Assessment AssessmentStatus `json:"assessment"`
	Summary    string           `json:"summary"`
}

// CalculationRecord is the persisted state of one calculation. A detailed
// calculation reuses the id of its originating express calculation and
// overwrites its result.
type CalculationRecord struct {
	ID     string            `json:"id"`
	Kind   CalculationKind   `json:"kind"`
	Status CalculationStatus `json:"status"`

	Product  ProductPhysical `json:"product"`
	Context  ProductContext  `json:"context"`
	Express  *ExpressResult  `json:"express,omitempty"`
	Detailed *DetailedResult `json:"detailed,omitempty"`

	// PurchasePriceCNY is the refined unit purchase price supplied with a
	// detailed request; zero means the price is estimated.
	PurchasePriceCNY float64 `json:"purchase_price_cny,omitempty"`

	// Error holds the short failure reason for a failed record.
	Error string `json:"error,omitempty"`

	// Retryable marks failures the caller may resolve by re-enqueueing.
	Retryable bool `json:"retryable,omitempty"`

	// FieldErrors holds the accumulated validation error list.
	FieldErrors []string `json:"field_errors,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
