// Package express - Fast regulatory and cost-tier screening.
//
// The express pipeline answers "can this product go the compliant route,
// and roughly how expensive is it" without pricing a batch: code
// selection, red-zone matching, the orange-zone gate and the specific
// value tier, folded into one verdict.
package express

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"customs-cost/core/orangezone"
	"customs-cost/core/redzone"
	"customs-cost/core/specificvalue"
	"customs-cost/core/types"
	"customs-cost/internal/errors"
	"customs-cost/internal/logging"
)

// CodeSelection is the classifier's code pick with its duty treatment.
type CodeSelection struct {
	// Code is the selected 10-digit regulatory code.
	Code string `json:"code"`

	// Duty is the duty and VAT treatment of the code.
	Duty types.DutySpec `json:"duty"`
}

// CodeSelector is the external classifier capability that picks a
// regulatory code for a product.
type CodeSelector interface {
	SelectRegulatoryCode(ctx context.Context, product types.ProductContext) (CodeSelection, error)
}

// Outcome is the express verdict plus the lifecycle status it maps to.
type Outcome struct {
	// Status is the terminal status the record moves to.
	Status types.CalculationStatus

	// Result is the express result; nil only on validation failure.
	Result *types.ExpressResult

	// Err is the failure cause when Status is failed for a non-validation
	// reason.
	Err error

	// FieldErrors is the accumulated validation error list.
	FieldErrors []string
}

// Pipeline runs the express screening.
type Pipeline struct {
	selector CodeSelector
	matcher  *redzone.Matcher
	gate     *orangezone.Gate
	values   *specificvalue.Classifier
	log      *zap.Logger
}

// NewPipeline wires a pipeline from its parts.
func NewPipeline(selector CodeSelector, matcher *redzone.Matcher, gate *orangezone.Gate, values *specificvalue.Classifier) *Pipeline {
	return &Pipeline{
		selector: selector,
		matcher:  matcher,
		gate:     gate,
		values:   values,
		log:      logging.Named("express"),
	}
}

func validate(product types.ProductPhysical, pctx types.ProductContext) []string {
	var errs []string
	if pctx.Name == "" {
		errs = append(errs, "product name is required")
	}
	if product.UnitWeightKg <= 0 {
		errs = append(errs, "unit_weight_kg is required and must be > 0")
	}
	if product.RetailPriceMinor <= 0 {
		errs = append(errs, "retail_price_minor is required and must be > 0")
	}
	return errs
}

// Run screens one product. Validation failure and classifier
// unavailability map to failed; a red-zone hit to blocked; an orange-zone
// hold to orange_zone; everything else to completed with a cost tier.
func (p *Pipeline) Run(ctx context.Context, product types.ProductPhysical, pctx types.ProductContext, usdRub float64) Outcome {
	if errs := validate(product, pctx); len(errs) > 0 {
		return Outcome{Status: types.StatusFailed, FieldErrors: errs}
	}

	selection, err := p.selector.SelectRegulatoryCode(ctx, pctx)
	if err != nil {
		return Outcome{
			Status: types.StatusFailed,
			Err:    errors.ClassifierUnavailable("regulatory code selection failed", err),
		}
	}

	result := &types.ExpressResult{
		Code: redzone.Normalize(selection.Code),
		Duty: &selection.Duty,
	}

	decision, reason := p.matcher.Classify(result.Code)
	result.ZoneDecision = decision
	result.ZoneReason = reason
	if decision == types.ZoneBlock {
		result.Assessment = types.AssessmentRed
		result.Summary = summarize(result)
		p.log.Info("express screening blocked",
			zap.String("code", result.Code),
			zap.String("reason", reason))
		return Outcome{Status: types.StatusBlocked, Result: result}
	}

	held, orangeReason, err := p.gate.Check(ctx, pctx, result.Code, selection.Duty)
	if err != nil {
		return Outcome{Status: types.StatusFailed, Result: result, Err: err}
	}
	if held {
		result.OrangeReason = orangeReason
		result.Assessment = types.AssessmentOrange
		result.Summary = summarize(result)
		return Outcome{Status: types.StatusOrangeZone, Result: result}
	}

	tier, specificValue, err := p.values.Classify(product.RetailPriceMinor, product.UnitWeightKg, usdRub)
	if err != nil {
		return Outcome{Status: types.StatusFailed, Result: result, Err: err}
	}
	result.SpecificValueUSDPerKg = types.Round2(specificValue)
	result.Tier = tier

	result.Assessment = types.AssessmentGreen
	if decision == types.ZoneRisk || tier == types.TierLow {
		result.Assessment = types.AssessmentYellow
	}
	result.Summary = summarize(result)

	p.log.Info("express screening completed",
		zap.String("code", result.Code),
		zap.String("tier", string(tier)),
		zap.String("assessment", string(result.Assessment)))
	return Outcome{Status: types.StatusCompleted, Result: result}
}

// summarize renders the one-line verdict shown to the seller.
func summarize(r *types.ExpressResult) string {
	switch r.Assessment {
	case types.AssessmentRed:
		return fmt.Sprintf("Code %s is blocked for compliant import: %s", r.Code, r.ZoneReason)
	case types.AssessmentOrange:
		return fmt.Sprintf("Code %s needs extra review before compliant import: %s", r.Code, r.OrangeReason)
	case types.AssessmentYellow:
		if r.ZoneDecision == types.ZoneRisk {
			return fmt.Sprintf("Code %s is importable with elevated regulatory risk: %s", r.Code, r.ZoneReason)
		}
		return fmt.Sprintf("Code %s is importable; the low value per kg (%.2f USD/kg) favors the cargo channel", r.Code, r.SpecificValueUSDPerKg)
	default:
		return fmt.Sprintf("Code %s is importable; value per kg %.2f USD/kg supports the compliant channel", r.Code, r.SpecificValueUSDPerKg)
	}
}
