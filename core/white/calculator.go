// Package white - Cost calculator for the customs-compliant channel.
//
// The white channel prices a batch through official import: a flat
// logistics fee, document and broker services, customs duty per the code's
// duty spec and import VAT. All RUB amounts derive from the white-channel
// rate set the caller supplies.
package white

import (
	"go.uber.org/zap"

	"customs-cost/core/currency"
	"customs-cost/core/tariff"
	"customs-cost/core/types"
	"customs-cost/internal/errors"
	"customs-cost/internal/logging"
)

// Default service fees.
const (
	DefaultBasePriceUSD    = 1850.0
	DefaultDocsRUB         = 15000.0
	DefaultBrokerRUB       = 25000.0
	DefaultVATReferenceUSD = 900.0
)

// Fees is the fixed service fee set of the white channel.
type Fees struct {
	// BasePriceUSD is the flat logistics fee per batch.
	BasePriceUSD float64

	// DocsRUB is the document preparation fee.
	DocsRUB float64

	// BrokerRUB is the customs broker fee.
	BrokerRUB float64

	// VATReferenceUSD is the fixed logistics reference amount included in
	// the VAT base in place of the actual logistics fee.
	VATReferenceUSD float64
}

// DefaultFees returns the published service fee set.
func DefaultFees() Fees {
	return Fees{
		BasePriceUSD:    DefaultBasePriceUSD,
		DocsRUB:         DefaultDocsRUB,
		BrokerRUB:       DefaultBrokerRUB,
		VATReferenceUSD: DefaultVATReferenceUSD,
	}
}

// Input is one batch to price on the white channel.
type Input struct {
	// WeightKg is the total batch weight.
	WeightKg float64

	// VolumeM3 is the total batch volume. The flat logistics fee does not
	// price by volume, but a batch without one is not shippable.
	VolumeM3 float64

	// Quantity is the number of units; required for per-unit and per-pair
	// duties, otherwise optional.
	Quantity int

	// GoodsValue is the batch goods value in any supported currency.
	GoodsValue types.Money

	// Duty is the duty and VAT treatment of the selected code.
	Duty types.DutySpec

	// Rates are the white-channel exchange rates.
	Rates types.Rates
}

// Calculator computes the white channel cost breakdown.
type Calculator struct {
	fees Fees
	log  *zap.Logger
}

// NewCalculator creates a calculator. Zero fee fields select defaults.
func NewCalculator(fees Fees) *Calculator {
	if fees.BasePriceUSD <= 0 {
		fees.BasePriceUSD = DefaultBasePriceUSD
	}
	if fees.DocsRUB <= 0 {
		fees.DocsRUB = DefaultDocsRUB
	}
	if fees.BrokerRUB <= 0 {
		fees.BrokerRUB = DefaultBrokerRUB
	}
	if fees.VATReferenceUSD <= 0 {
		fees.VATReferenceUSD = DefaultVATReferenceUSD
	}
	return &Calculator{fees: fees, log: logging.Named("white")}
}

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
	if (in.Duty.Type == types.DutyPerUnit || in.Duty.Type == types.DutyPerPair) && in.Quantity <= 0 {
		errs = append(errs, "quantity is required for per-unit and per-pair duties")
	}
	return errs
}

// duty computes the customs duty in RUB for the batch, applying the
// minimum-duty floor when present. An unknown duty type contributes zero
// and is logged as an anomaly rather than failing the calculation.
func (c *Calculator) duty(in Input, conv *currency.Converter, goodsValueRub float64) float64 {
	var dutyRub float64
	switch in.Duty.Type {
	case types.DutyAdValorem:
		dutyRub = goodsValueRub * in.Duty.Rate / 100.0
	case types.DutyPerWeight:
		dutyRub = conv.EURToRUB(in.WeightKg * in.Duty.Rate)
	case types.DutyPerUnit, types.DutyPerPair:
		dutyRub = conv.EURToRUB(float64(in.Quantity) * in.Duty.Rate)
	case types.DutyExempt:
		dutyRub = 0
	default:
		c.log.Warn("unknown duty type treated as zero duty",
			zap.String("duty_type", string(in.Duty.Type)),
			zap.Error(errors.Newf(errors.TypeUnknownDutyType, "unknown duty type %q", in.Duty.Type)))
		dutyRub = 0
	}

	if min := in.Duty.Minimum; min != nil {
		basis := in.WeightKg
		if min.Unit == "unit" || min.Unit == "pair" {
			basis = float64(in.Quantity)
		}
		if floor := conv.EURToRUB(min.Value * basis); floor > dutyRub {
			dutyRub = floor
		}
	}
	return dutyRub
}

// Calculate prices a batch on the white channel. On validation failure the
// accumulated field error list is returned and the breakdown is empty.
func (c *Calculator) Calculate(in Input) (types.WhiteBreakdown, []string) {
	if errs := validate(in); len(errs) > 0 {
		return types.WhiteBreakdown{}, errs
	}

	conv, err := currency.NewConverter(in.Rates)
	if err != nil {
		return types.WhiteBreakdown{}, []string{err.Error()}
	}

	goodsValueUSD, err := conv.ToUSD(in.GoodsValue)
	if err != nil {
		return types.WhiteBreakdown{}, []string{err.Error()}
	}
	goodsValueCNY := conv.USDToCNY(goodsValueUSD)
	goodsValueRUB := conv.USDToRUB(goodsValueUSD)

	logisticsUSD := c.fees.BasePriceUSD
	logisticsRUB := conv.USDToRUB(logisticsUSD)

	dutyRUB := c.duty(in, conv, goodsValueRUB)

	// The VAT base uses a fixed logistics reference amount, not the actual
	// logistics fee.
	vatBase := goodsValueRUB + conv.USDToRUB(c.fees.VATReferenceUSD) + dutyRUB
	vatRUB := vatBase * in.Duty.VATRatePercent / 100.0

	totalRUB := logisticsRUB + goodsValueRUB + c.fees.DocsRUB + c.fees.BrokerRUB + dutyRUB + vatRUB

	breakdown := types.WhiteBreakdown{
		LogisticsUSD:  types.Round2(logisticsUSD),
		LogisticsRUB:  types.Round2(logisticsRUB),
		GoodsValueCNY: types.Round2(goodsValueCNY),
		GoodsValueUSD: types.Round2(goodsValueUSD),
		GoodsValueRUB: types.Round2(goodsValueRUB),
		DocsRUB:       types.Round2(c.fees.DocsRUB),
		BrokerRUB:     types.Round2(c.fees.BrokerRUB),
		DutyRUB:       types.Round2(dutyRUB),
		VATRUB:        types.Round2(vatRUB),
		TotalRUB:      types.Round2(totalRUB),

		CustomsFeesRUB: tariff.CustomsFeesRub(goodsValueRUB),

		CostPerKgRUB: types.Round2(totalRUB / in.WeightKg),
	}
	if in.Quantity > 0 {
		breakdown.CostPerUnitRUB = types.Round2(totalRUB / float64(in.Quantity))
	}

	c.log.Info("white calculation completed",
		zap.Float64("weight_kg", in.WeightKg),
		zap.String("duty_type", string(in.Duty.Type)),
		zap.Float64("duty_rub", breakdown.DutyRUB),
		zap.Float64("total_rub", breakdown.TotalRUB))
	return breakdown, nil
}
