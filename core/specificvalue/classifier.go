// Package specificvalue - Value-per-kilogram tiering for express screening.
package specificvalue

import (
	"go.uber.org/zap"

	"customs-cost/core/types"
	"customs-cost/internal/errors"
	"customs-cost/internal/logging"
)

// DefaultThresholdUSDPerKg splits the low and high cost tiers.
const DefaultThresholdUSDPerKg = 20.0

// Classifier buckets a product into a coarse cost tier by its value per
// kilogram.
type Classifier struct {
	thresholdUSDPerKg float64
	log               *zap.Logger
}

// NewClassifier creates a classifier. A non-positive threshold selects the
// default.
func NewClassifier(thresholdUSDPerKg float64) *Classifier {
	if thresholdUSDPerKg <= 0 {
		thresholdUSDPerKg = DefaultThresholdUSDPerKg
	}
	return &Classifier{
		thresholdUSDPerKg: thresholdUSDPerKg,
		log:               logging.Named("specificvalue"),
	}
}

// Compute returns the specific value in USD/kg for a retail price in minor
// units. Non-positive inputs refuse classification: the caller must treat
// the error as a validation failure, never a silent default.
func (c *Classifier) Compute(priceMinor int64, weightKg, usdRub float64) (float64, error) {
	if priceMinor <= 0 {
		return 0, errors.Validation("retail price must be > 0")
	}
	if weightKg <= 0 {
		return 0, errors.Validation("unit weight must be > 0")
	}
	if usdRub <= 0 {
		return 0, errors.Validation("usd_rub rate must be > 0")
	}

	priceRub := float64(priceMinor) / 100.0
	valueUSD := priceRub / usdRub
	return valueUSD / weightKg, nil
}

// Classify computes the specific value and buckets it into a tier.
func (c *Classifier) Classify(priceMinor int64, weightKg, usdRub float64) (types.ValueTier, float64, error) {
	specificValue, err := c.Compute(priceMinor, weightKg, usdRub)
	if err != nil {
		return "", 0, err
	}

	tier := types.TierHigh
	if specificValue < c.thresholdUSDPerKg {
		tier = types.TierLow
	}

	c.log.Debug("specific value classified",
		zap.Float64("usd_per_kg", types.Round2(specificValue)),
		zap.String("tier", string(tier)))
	return tier, specificValue, nil
}

// Threshold returns the configured tier threshold.
func (c *Classifier) Threshold() float64 {
	return c.thresholdUSDPerKg
}
