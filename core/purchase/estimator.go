// Package purchase - Back-solved unit purchase price estimate.
//
// The express path has no purchase price, only the marketplace retail
// price. The estimator assumes a fixed share of the retail price covers
// purchase plus delivery, subtracts a density-derived delivery cost and
// clamps the remainder to a plausible band.
package purchase

import (
	"go.uber.org/zap"

	"customs-cost/core/currency"
	"customs-cost/core/tariff"
	"customs-cost/core/types"
	"customs-cost/internal/errors"
	"customs-cost/internal/logging"
)

// Heuristic bounds, as fractions of the retail price.
const (
	BudgetShare = 0.38
	MinShare    = 0.08
	MaxShare    = 0.28

	// fallbackDivisor backs the estimate when the unit volume is unknown.
	fallbackDivisor = 4.0
)

// Estimator back-solves a unit purchase price in CNY from a RUB retail
// price.
type Estimator struct {
	log *zap.Logger
}

// NewEstimator creates an estimator.
func NewEstimator() *Estimator {
	return &Estimator{log: logging.Named("purchase")}
}

// Estimate returns the estimated unit purchase price in CNY. The retail
// price and rates must be positive; a non-positive volume falls back to a
// quarter of the retail price with no delivery adjustment.
func (e *Estimator) Estimate(retailPriceRub, unitWeightKg, unitVolumeM3 float64, rates types.Rates) (float64, error) {
	if retailPriceRub <= 0 {
		return 0, errors.Validation("retail price must be > 0")
	}
	if !rates.Valid() {
		return 0, errors.Validation("exchange rates must all be positive")
	}
	conv, err := currency.NewConverter(rates)
	if err != nil {
		return 0, err
	}

	if unitVolumeM3 <= 0 || unitWeightKg <= 0 {
		return conv.RUBToCNY(retailPriceRub / fallbackDivisor), nil
	}

	budget := retailPriceRub * BudgetShare

	_, _, deliveryUSD := tariff.Freight(unitWeightKg, unitVolumeM3)
	deliveryRub := conv.USDToRUB(deliveryUSD)

	raw := budget - deliveryRub
	low, high := retailPriceRub*MinShare, retailPriceRub*MaxShare
	clamped := raw
	if clamped < low {
		clamped = low
	}
	if clamped > high {
		clamped = high
	}

	e.log.Debug("purchase price estimated",
		zap.Float64("retail_rub", retailPriceRub),
		zap.Float64("delivery_rub", types.Round2(deliveryRub)),
		zap.Float64("raw_rub", types.Round2(raw)),
		zap.Float64("clamped_rub", types.Round2(clamped)))
	return conv.RUBToCNY(clamped), nil
}
