// Package orangezone - Marking/euro-duty risk gate over the external classifier.
//
// Products allowed by code may still need extra labeling ("orange zone") or
// fall under fixed euro-denominated duties. That judgment belongs to an
// external classifier; this package pins its contract behind a narrow
// interface so the pipeline stays testable with deterministic fakes.
package orangezone

import (
	"context"

	"go.uber.org/zap"

	"customs-cost/core/types"
	"customs-cost/internal/errors"
	"customs-cost/internal/logging"
)

// Review is the collaborator's verdict.
type Review struct {
	// Pass is true when the product clears the orange zone.
	Pass bool `json:"pass"`

	// Reason is the human-readable explanation when Pass is false.
	Reason string `json:"reason"`
}

// ReviewRequest is the input handed to the collaborator.
type ReviewRequest struct {
	Product types.ProductContext `json:"product"`

	// Code is the already-selected 10-digit regulatory code.
	Code string `json:"code"`

	// DutyType is the duty treatment already known for the code.
	DutyType types.DutyType `json:"duty_type"`

	// EuroDutySignal is set when the duty type itself (a fixed euro
	// amount) signals orange-zone risk. The collaborator still renders
	// the final verdict.
	EuroDutySignal bool `json:"euro_duty_signal"`
}

// ZoneReviewer is the external classifier capability the gate consumes.
// Implementations are fallible, latency-bearing and non-deterministic.
type ZoneReviewer interface {
	ReviewOrangeZone(ctx context.Context, req ReviewRequest) (Review, error)
}

// Gate wraps the collaborator call behind a fixed contract.
type Gate struct {
	reviewer ZoneReviewer
	log      *zap.Logger
}

// NewGate creates a gate over a reviewer.
func NewGate(reviewer ZoneReviewer) *Gate {
	return &Gate{reviewer: reviewer, log: logging.Named("orangezone")}
}

// Check reviews a product against the orange zone. It returns whether the
// product is held in the orange zone and the collaborator's reason.
// Collaborator failure is propagated as a distinct classifier-unavailable
// error, never treated as a pass.
func (g *Gate) Check(ctx context.Context, product types.ProductContext, code string, duty types.DutySpec) (bool, string, error) {
	req := ReviewRequest{
		Product:        product,
		Code:           code,
		DutyType:       duty.Type,
		EuroDutySignal: duty.Type.EuroDenominated(),
	}

	review, err := g.reviewer.ReviewOrangeZone(ctx, req)
	if err != nil {
		return false, "", errors.ClassifierUnavailable("orange-zone review failed", err)
	}

	if !review.Pass {
		g.log.Info("product held in orange zone",
			zap.String("code", code),
			zap.String("duty_type", string(duty.Type)),
			zap.Bool("euro_duty_signal", req.EuroDutySignal),
			zap.String("reason", review.Reason))
		return true, review.Reason, nil
	}
	return false, "", nil
}
