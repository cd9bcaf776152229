// Package cargo - Cost calculator for the bulk-freight channel.
package cargo

import (
	"go.uber.org/zap"

	"customs-cost/core/currency"
	"customs-cost/core/tariff"
	"customs-cost/core/types"
	"customs-cost/internal/logging"
)

// DefaultPackagingUSD is the fixed packaging fee.
const DefaultPackagingUSD = 120.0

// Input is one batch to price on the cargo channel.
type Input struct {
	// WeightKg is the total batch weight.
	WeightKg float64

	// VolumeM3 is the total batch volume.
	VolumeM3 float64

	// Quantity is the number of units; zero leaves per-unit costs unset.
	Quantity int

	// GoodsValue is the batch goods value in any supported currency.
	GoodsValue types.Money

	// Rates are the exchange rates for this calculation.
	Rates types.Rates
}

// Calculator computes the cargo channel cost breakdown. It is stateless
// apart from configuration and safe for concurrent use.
type Calculator struct {
	packagingUSD float64
	log          *zap.Logger
}

// NewCalculator creates a calculator. A non-positive packaging fee selects
// the default.
func NewCalculator(packagingUSD float64) *Calculator {
	if packagingUSD <= 0 {
		packagingUSD = DefaultPackagingUSD
	}
	return &Calculator{packagingUSD: packagingUSD, log: logging.Named("cargo")}
}

// validate accumulates field errors; a non-empty result means no partial
// breakdown is produced.
func validate(in Input) []string {
	var errs []string
	if in.WeightKg <= 0 {
		errs = append(errs, "weight_kg is required and must be > 0")
	}
	if in.VolumeM3 <= 0 {
		errs = append(errs, "volume_m3 is required and must be > 0")
	}
	if in.GoodsValue.Amount.IsZero() || in.GoodsValue.Amount.IsNegative() {
		errs = append(errs, "goods_value is required and must be > 0")
	}
	if !in.GoodsValue.Currency.Valid() {
		errs = append(errs, "goods_value currency must be USD, CNY or RUB")
	}
	if !in.Rates.Valid() {
		errs = append(errs, "exchange rates must all be > 0")
	}
	return errs
}

// Calculate prices a batch on the cargo channel. On validation failure the
// accumulated field error list is returned and the breakdown is empty.
// Monetary outputs are rounded to 2 decimal places at this presentation
// boundary only.
func (c *Calculator) Calculate(in Input) (types.CargoBreakdown, []string) {
	if errs := validate(in); len(errs) > 0 {
		return types.CargoBreakdown{}, errs
	}

	conv, err := currency.NewConverter(in.Rates)
	if err != nil {
		return types.CargoBreakdown{}, []string{err.Error()}
	}

	goodsValueUSD, err := conv.ToUSD(in.GoodsValue)
	if err != nil {
		return types.CargoBreakdown{}, []string{err.Error()}
	}
	goodsValueCNY := conv.USDToCNY(goodsValueUSD)

	density := in.WeightKg / in.VolumeM3
	mode, rate, freightUSD := tariff.Freight(in.WeightKg, in.VolumeM3)

	specificValue := goodsValueUSD / in.WeightKg
	insuranceRate := tariff.InsuranceRate(specificValue)
	insuranceUSD := goodsValueUSD * insuranceRate

	// Commission is assessed in CNY, then brought back to USD.
	commissionRate := tariff.CommissionRate(goodsValueCNY)
	commissionUSD := conv.CNYToUSD(goodsValueCNY * commissionRate)

	totalUSD := freightUSD + insuranceUSD + commissionUSD + goodsValueUSD + c.packagingUSD
	totalRUB := conv.USDToRUB(totalUSD)

	breakdown := types.CargoBreakdown{
		DensityKgM3:           types.Round2(density),
		TariffMode:            mode,
		TariffRateUSD:         types.Round2(rate),
		SpecificValueUSDPerKg: types.Round2(specificValue),
		InsuranceRate:         insuranceRate,
		CommissionRate:        commissionRate,

		FreightUSD:    types.Round2(freightUSD),
		InsuranceUSD:  types.Round2(insuranceUSD),
		CommissionUSD: types.Round2(commissionUSD),
		PackagingUSD:  types.Round2(c.packagingUSD),
		GoodsValueUSD: types.Round2(goodsValueUSD),
		TotalUSD:      types.Round2(totalUSD),
		TotalRUB:      types.Round2(totalRUB),

		CostPerKgUSD: types.Round2(totalUSD / in.WeightKg),
		CostPerKgRUB: types.Round2(totalRUB / in.WeightKg),
	}
	if in.Quantity > 0 {
		breakdown.CostPerUnitUSD = types.Round2(totalUSD / float64(in.Quantity))
		breakdown.CostPerUnitRUB = types.Round2(totalRUB / float64(in.Quantity))
	}

	c.log.Info("cargo calculation completed",
		zap.Float64("weight_kg", in.WeightKg),
		zap.Float64("volume_m3", in.VolumeM3),
		zap.Float64("density_kg_m3", breakdown.DensityKgM3),
		zap.String("tariff_mode", string(mode)),
		zap.Float64("total_usd", breakdown.TotalUSD))
	return breakdown, nil
}
