// Package tariff - Static rate tables for the cargo channel.
//
// Rates are modeled as ordered step tables evaluated by a single lookup,
// so every schedule is testable as data. All rates are per the freight
// operator's published schedule and change rarely.
package tariff

import "customs-cost/core/types"

// DensityThresholdKgM3 splits volumetric from weight-based freight pricing.
const DensityThresholdKgM3 = 100.0

// PerM3RateUSD is the flat volumetric freight rate below the density threshold.
const PerM3RateUSD = 500.0

// rateStep is one row of a step table: the rate applies while the lookup
// key is <= UpTo. An UpTo of 0 marks the unbounded last step.
type rateStep struct {
	UpTo float64
	Rate float64
}

// lookup returns the rate of the first step whose bound covers v.
func lookup(steps []rateStep, v float64) float64 {
	for _, s := range steps {
		if s.UpTo == 0 || v <= s.UpTo {
			return s.Rate
		}
	}
	return 0
}

// freightSteps is the density (kg/m³) → USD/kg schedule. Rates are
// monotonically non-increasing as density grows.
var freightSteps = []rateStep{
	{UpTo: 110, Rate: 4.9},
	{UpTo: 120, Rate: 4.8},
	{UpTo: 130, Rate: 4.7},
	{UpTo: 140, Rate: 4.6},
	{UpTo: 150, Rate: 4.5},
	{UpTo: 160, Rate: 4.4},
	{UpTo: 170, Rate: 4.3},
	{UpTo: 180, Rate: 4.2},
	{UpTo: 190, Rate: 4.1},
	{UpTo: 200, Rate: 4.0},
	{UpTo: 250, Rate: 3.9},
	{UpTo: 300, Rate: 3.8},
	{UpTo: 350, Rate: 3.7},
	{UpTo: 400, Rate: 3.6},
	{UpTo: 500, Rate: 3.5},
	{UpTo: 600, Rate: 3.4},
	{UpTo: 800, Rate: 3.3},
	{UpTo: 1000, Rate: 3.2},
	{UpTo: 0, Rate: 3.1},
}

// insuranceSteps is the specific value (USD/kg) → insurance rate schedule.
var insuranceSteps = []rateStep{
	{UpTo: 30, Rate: 0.01},
	{UpTo: 50, Rate: 0.02},
	{UpTo: 100, Rate: 0.03},
	{UpTo: 200, Rate: 0.05},
	{UpTo: 0, Rate: 0.10},
}

// commissionSteps is the goods value (CNY) → buyer commission rate schedule.
var commissionSteps = []rateStep{
	{UpTo: 1000, Rate: 0.05},
	{UpTo: 5000, Rate: 0.04},
	{UpTo: 10000, Rate: 0.03},
	{UpTo: 50000, Rate: 0.02},
	{UpTo: 0, Rate: 0.01},
}

// customsFeeSteps is the batch value (RUB) → fixed customs processing fee
// schedule. Reported for reference on white breakdowns.
var customsFeeSteps = []rateStep{
	{UpTo: 200_000, Rate: 1_067},
	{UpTo: 450_000, Rate: 2_134},
	{UpTo: 1_200_000, Rate: 4_269},
	{UpTo: 2_700_000, Rate: 11_746},
	{UpTo: 4_200_000, Rate: 16_524},
	{UpTo: 5_500_000, Rate: 21_344},
	{UpTo: 7_000_000, Rate: 27_540},
	{UpTo: 0, Rate: 30_000},
}

// Mode selects the freight pricing mode for a density.
func Mode(densityKgM3 float64) types.TariffMode {
	if densityKgM3 < DensityThresholdKgM3 {
		return types.TariffPerM3
	}
	return types.TariffPerKg
}

// FreightRatePerKg returns the per-kg freight rate for a density at or
// above the threshold. Below the threshold the volumetric rate applies and
// the per-kg equivalent is derived from it.
func FreightRatePerKg(densityKgM3 float64) float64 {
	if densityKgM3 < DensityThresholdKgM3 {
		return PerM3RateUSD / densityKgM3
	}
	return lookup(freightSteps, densityKgM3)
}

// Freight computes the freight charge for a batch, returning the selected
// mode, the applied rate and the freight in USD.
func Freight(weightKg, volumeM3 float64) (types.TariffMode, float64, float64) {
	density := weightKg / volumeM3
	if Mode(density) == types.TariffPerM3 {
		return types.TariffPerM3, PerM3RateUSD, volumeM3 * PerM3RateUSD
	}
	rate := lookup(freightSteps, density)
	return types.TariffPerKg, rate, weightKg * rate
}

// InsuranceRate returns the insurance rate for a specific value in USD/kg.
func InsuranceRate(specificValueUSDPerKg float64) float64 {
	return lookup(insuranceSteps, specificValueUSDPerKg)
}

// CommissionRate returns the buyer commission rate for a goods value in CNY.
func CommissionRate(goodsValueCNY float64) float64 {
	return lookup(commissionSteps, goodsValueCNY)
}

// CustomsFeesRub returns the fixed customs processing fee for a batch value
// in RUB.
func CustomsFeesRub(batchValueRUB float64) float64 {
	return lookup(customsFeeSteps, batchValueRUB)
}
