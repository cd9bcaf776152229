// Package types - Shared domain types for the calculation pipeline.
package types

import (
	"github.com/shopspring/decimal"
)

// Currency represents a currency code.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyCNY Currency = "CNY"
	CurrencyRUB Currency = "RUB"
)

// String returns the string representation.
func (c Currency) String() string {
	return string(c)
}

// Valid reports whether the currency is one the converter supports.
func (c Currency) Valid() bool {
	switch c {
	case CurrencyUSD, CurrencyCNY, CurrencyRUB:
		return true
	}
	return false
}

// Money is a value tagged with its currency. A Money is never interpreted
// without its currency tag; cross-currency arithmetic goes through the
// currency converter.
type Money struct {
	// Amount is the monetary value.
	Amount decimal.Decimal `json:"amount"`

	// Currency is the currency tag.
	Currency Currency `json:"currency"`
}

// NewMoney creates a Money from a float value.
func NewMoney(amount float64, currency Currency) Money {
	return Money{Amount: decimal.NewFromFloat(amount), Currency: currency}
}

// Float returns the amount as a float64.
func (m Money) Float() float64 {
	return m.Amount.InexactFloat64()
}

// Round2 rounds a monetary float to 2 decimal places. Used only at
// presentation boundaries, never mid-calculation.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Round4 rounds a rate or volume to 4 decimal places for presentation.
func Round4(v float64) float64 {
	return decimal.NewFromFloat(v).Round(4).InexactFloat64()
}

// Rates holds the three exchange rates every calculation is supplied with.
// The core never caches or refreshes these itself.
type Rates struct {
	// USDRUB is the USD to RUB rate.
	USDRUB float64 `json:"usd_rub"`

	// USDCNY is the USD to CNY rate.
	USDCNY float64 `json:"usd_cny"`

	// EURRUB is the EUR to RUB rate, used for euro-denominated duties.
	EURRUB float64 `json:"eur_rub"`
}

// Valid reports whether all rates are positive.
func (r Rates) Valid() bool {
	return r.USDRUB > 0 && r.USDCNY > 0 && r.EURRUB > 0
}

// ChannelRates carries the per-channel rate sets used by a detailed
// calculation: the cargo channel and the white channel price their
// currency conversions with different margins.
type ChannelRates struct {
	Cargo Rates `json:"cargo"`
	White Rates `json:"white"`
}

// DutyType identifies how a customs duty is assessed.
type DutyType string

const (
	DutyAdValorem DutyType = "ad_valorem"
	DutyPerWeight DutyType = "per_weight"
	DutyPerUnit   DutyType = "per_unit"
	DutyPerPair   DutyType = "per_pair"
	DutyExempt    DutyType = "exempt"
)

// EuroDenominated reports whether the duty is a fixed euro amount rather
// than a percentage of value.
func (t DutyType) EuroDenominated() bool {
	switch t {
	case DutyPerWeight, DutyPerUnit, DutyPerPair:
		return true
	}
	return false
}

// MinimumDuty is an optional floor on the computed duty.
type MinimumDuty struct {
	// Value is the minimum amount, denominated in EUR per Unit.
	Value float64 `json:"value"`

	// Unit is the basis the minimum multiplies: "kg", "unit" or "pair".
	Unit string `json:"unit"`
}

// DutySpec describes the duty and VAT treatment of a regulatory code.
// It is produced by the external classifier and read-only to the core.
type DutySpec struct {
	// Type is the duty assessment type.
	Type DutyType `json:"duty_type"`

	// Rate is the duty rate; its meaning depends on Type (percent for
	// ad_valorem, EUR per basis unit otherwise).
	Rate float64 `json:"duty_rate"`

	// VATRatePercent is the VAT rate as a percentage, e.g. 20 for 20%.
	VATRatePercent float64 `json:"vat_rate"`

	// Minimum is the optional minimum-duty floor.
	Minimum *MinimumDuty `json:"duty_minimum,omitempty"`
}

// ProductPhysical is the immutable physical snapshot a calculation runs on.
type ProductPhysical struct {
	// UnitWeightKg is the weight of one unit in kg.
	UnitWeightKg float64 `json:"unit_weight_kg"`

	// UnitVolumeM3 is the volume of one unit in m³.
	UnitVolumeM3 float64 `json:"unit_volume_m3"`

	// RetailPriceMinor is the marketplace retail price in minor currency
	// units (kopecks).
	RetailPriceMinor int64 `json:"retail_price_minor"`
}

// ProductContext is the descriptive product data the external classifier
// consumes.
type ProductContext struct {
	// Name is the product name.
	Name string `json:"name"`

	// Description is the optional product description.
	Description string `json:"description,omitempty"`

	// Brand is the optional product brand.
	Brand string `json:"brand,omitempty"`
}

// ZoneDecision is the outcome of matching a regulatory code against the
// red-zone rule table.
type ZoneDecision string

const (
	ZoneBlock ZoneDecision = "BLOCK"
	ZoneRisk  ZoneDecision = "RISK"
	ZoneAllow ZoneDecision = "ALLOW"
)

// ValueTier is the coarse cost tier derived from value per kilogram.
type ValueTier string

const (
	TierLow  ValueTier = "low"
	TierHigh ValueTier = "high"
)
