// Package detailed - Batch-level cost comparison of the two channels.
//
// The detailed calculation sizes a batch from the unit dimensions, derives
// the batch goods value from a known or estimated unit purchase price, and
// prices the batch on both channels with their own rate sets. Either
// calculator's validation failure collapses the whole result; partial
// results are never returned.
package detailed

import (
	"go.uber.org/zap"

	"customs-cost/core/batch"
	"customs-cost/core/cargo"
	"customs-cost/core/purchase"
	"customs-cost/core/types"
	"customs-cost/core/white"
	"customs-cost/internal/logging"
)

// Input is one product to compare across channels.
type Input struct {
	// Product is the physical snapshot the batch is sized from.
	Product types.ProductPhysical

	// PurchasePriceCNY is the known unit purchase price; zero means it is
	// estimated from the retail price.
	PurchasePriceCNY float64

	// Duty is the duty spec the express phase attached to the code.
	Duty types.DutySpec

	// Rates are the per-channel exchange rate sets.
	Rates types.ChannelRates
}

// Orchestrator composes the allocator, estimator and the two channel
// calculators into one comparison.
type Orchestrator struct {
	allocator *batch.Allocator
	estimator *purchase.Estimator
	cargo     *cargo.Calculator
	white     *white.Calculator
	log       *zap.Logger
}

// NewOrchestrator wires an orchestrator from its parts.
func NewOrchestrator(allocator *batch.Allocator, estimator *purchase.Estimator, cargoCalc *cargo.Calculator, whiteCalc *white.Calculator) *Orchestrator {
	return &Orchestrator{
		allocator: allocator,
		estimator: estimator,
		cargo:     cargoCalc,
		white:     whiteCalc,
		log:       logging.Named("detailed"),
	}
}

// Calculate runs the full batch comparison. On any validation failure the
// accumulated field error list is returned and the result is nil.
func (o *Orchestrator) Calculate(in Input) (*types.DetailedResult, []string) {
	alloc := o.allocator.Allocate(in.Product.UnitWeightKg, in.Product.UnitVolumeM3)
	if alloc.Quantity == 0 {
		return nil, []string{"unit weight and volume must be > 0 and fit the carrier caps"}
	}

	unitPriceCNY := in.PurchasePriceCNY
	if unitPriceCNY <= 0 {
		retailRub := float64(in.Product.RetailPriceMinor) / 100.0
		estimated, err := o.estimator.Estimate(retailRub, in.Product.UnitWeightKg, in.Product.UnitVolumeM3, in.Rates.Cargo)
		if err != nil {
			return nil, []string{err.Error()}
		}
		unitPriceCNY = estimated
	}
	goodsValue := types.NewMoney(unitPriceCNY*float64(alloc.Quantity), types.CurrencyCNY)

	// The two channels are independent; both run and both error lists are
	// surfaced together.
	cargoBreakdown, cargoErrs := o.cargo.Calculate(cargo.Input{
		WeightKg:   alloc.CargoWeightKg,
		VolumeM3:   alloc.CargoVolumeM3,
		Quantity:   alloc.Quantity,
		GoodsValue: goodsValue,
		Rates:      in.Rates.Cargo,
	})
	whiteBreakdown, whiteErrs := o.white.Calculate(white.Input{
		WeightKg:   alloc.WhiteWeightKg,
		VolumeM3:   alloc.WhiteVolumeM3,
		Quantity:   alloc.Quantity,
		GoodsValue: goodsValue,
		Duty:       in.Duty,
		Rates:      in.Rates.White,
	})
	if len(cargoErrs) > 0 || len(whiteErrs) > 0 {
		return nil, append(cargoErrs, whiteErrs...)
	}

	result := &types.DetailedResult{
		Allocation: alloc,
		Rates:      in.Rates,
		Cargo:      cargoBreakdown,
		White:      whiteBreakdown,
		Comparison: compare(cargoBreakdown.TotalRUB, whiteBreakdown.TotalRUB),
	}

	o.log.Info("detailed comparison completed",
		zap.Int("quantity", alloc.Quantity),
		zap.Float64("cargo_total_rub", result.Comparison.CargoTotalRUB),
		zap.Float64("white_total_rub", result.Comparison.WhiteTotalRUB),
		zap.String("cheaper", string(result.Comparison.CheaperOption)))
	return result, nil
}

// compare builds the channel comparison. The difference is the absolute
// saving of the cheaper channel; the percentage is relative to the more
// expensive one. A tie goes to cargo.
func compare(cargoTotalRub, whiteTotalRub float64) types.Comparison {
	cmp := types.Comparison{
		CargoTotalRUB: cargoTotalRub,
		WhiteTotalRUB: whiteTotalRub,
		CheaperOption: types.ChannelCargo,
	}
	if whiteTotalRub < cargoTotalRub {
		cmp.CheaperOption = types.ChannelWhite
	}

	diff := cargoTotalRub - whiteTotalRub
	if diff < 0 {
		diff = -diff
	}
	cmp.DifferenceRUB = types.Round2(diff)

	expensive := cargoTotalRub
	if whiteTotalRub > expensive {
		expensive = whiteTotalRub
	}
	if expensive > 0 {
		cmp.DifferencePercent = types.Round2(diff / expensive * 100)
	}
	return cmp
}
