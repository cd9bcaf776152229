// Package lifecycle - The calculation state machine over a record store.
//
// A record moves pending -> processing -> one of the terminal states and
// never back. A detailed calculation is a phase transition on the same
// record: the express verdict stays attached while the kind flips and the
// status returns to pending for the next claim. Re-delivery of a terminal
// record is a no-op that never re-invokes the classifier.
package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"customs-cost/core/detailed"
	"customs-cost/core/express"
	"customs-cost/core/types"
	"customs-cost/internal/errors"
	"customs-cost/internal/logging"
)

// Manager drives calculation records through the state machine.
type Manager struct {
	store    Store
	express  *express.Pipeline
	detailed *detailed.Orchestrator
	now      func() time.Time
	log      *zap.Logger
}

// NewManager wires a manager from its parts.
func NewManager(store Store, expressPipeline *express.Pipeline, detailedOrch *detailed.Orchestrator) *Manager {
	return &Manager{
		store:    store,
		express:  expressPipeline,
		detailed: detailedOrch,
		now:      time.Now,
		log:      logging.Named("lifecycle"),
	}
}

// CreateExpress creates a pending express record and returns it.
func (m *Manager) CreateExpress(ctx context.Context, product types.ProductPhysical, pctx types.ProductContext) (*types.CalculationRecord, error) {
	now := m.now().UTC()
	rec := &types.CalculationRecord{
		ID:        uuid.NewString(),
		Kind:      types.KindExpress,
		Status:    types.StatusPending,
		Product:   product,
		Context:   pctx,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Create(ctx, rec); err != nil {
		return nil, err
	}
	m.log.Info("express calculation created", zap.String("id", rec.ID))
	return rec, nil
}

// Get returns the record by id.
func (m *Manager) Get(ctx context.Context, id string) (*types.CalculationRecord, error) {
	return m.store.Get(ctx, id)
}

// RequestDetailed flips a finished express record into a pending detailed
// phase on the same id. Only completed and orange_zone express outcomes
// carry the regulatory code and duty spec the detailed phase needs.
// Refined inputs overwrite the product snapshot when positive.
func (m *Manager) RequestDetailed(ctx context.Context, id string, refined types.ProductPhysical, purchasePriceCNY float64) (*types.CalculationRecord, error) {
	rec, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Kind == types.KindDetailed && !rec.Status.Terminal() {
		// Re-requested while queued or running; nothing to change.
		return rec, nil
	}
	if rec.Status != types.StatusCompleted && rec.Status != types.StatusOrangeZone {
		return nil, errors.Newf(errors.TypeValidation,
			"detailed calculation requires a completed or orange_zone express result, status is %s", rec.Status)
	}
	if rec.Express == nil || rec.Express.Duty == nil {
		return nil, errors.Validation("express result carries no duty spec")
	}

	if refined.UnitWeightKg > 0 {
		rec.Product.UnitWeightKg = refined.UnitWeightKg
	}
	if refined.UnitVolumeM3 > 0 {
		rec.Product.UnitVolumeM3 = refined.UnitVolumeM3
	}
	if refined.RetailPriceMinor > 0 {
		rec.Product.RetailPriceMinor = refined.RetailPriceMinor
	}
	if purchasePriceCNY > 0 {
		rec.PurchasePriceCNY = purchasePriceCNY
	}

	rec.Kind = types.KindDetailed
	rec.Status = types.StatusPending
	rec.Error = ""
	rec.Retryable = false
	rec.FieldErrors = nil
	rec.UpdatedAt = m.now().UTC()
	if err := m.store.Update(ctx, rec); err != nil {
		return nil, err
	}
	m.log.Info("detailed calculation requested", zap.String("id", rec.ID))
	return rec, nil
}

// Process claims a pending record and runs the pipeline for its kind.
// A record already in a terminal state is returned unchanged; the
// collaborators are not re-invoked.
func (m *Manager) Process(ctx context.Context, id string, rates types.ChannelRates) (*types.CalculationRecord, error) {
	rec, claimed, err := m.store.Claim(ctx, id)
	if err != nil {
		return nil, err
	}
	if !claimed {
		if rec.Status.Terminal() {
			m.log.Debug("record already terminal, skipping", zap.String("id", id), zap.String("status", string(rec.Status)))
			return rec, nil
		}
		return rec, errors.Newf(errors.TypeQueue, "calculation %s is already being processed", id)
	}

	switch rec.Kind {
	case types.KindDetailed:
		m.processDetailed(rec, rates)
	default:
		m.processExpress(ctx, rec, rates.White)
	}

	rec.UpdatedAt = m.now().UTC()
	if err := m.store.Update(ctx, rec); err != nil {
		return nil, err
	}
	m.log.Info("calculation processed",
		zap.String("id", rec.ID),
		zap.String("kind", string(rec.Kind)),
		zap.String("status", string(rec.Status)))
	return rec, nil
}

func (m *Manager) processExpress(ctx context.Context, rec *types.CalculationRecord, rates types.Rates) {
	out := m.express.Run(ctx, rec.Product, rec.Context, rates.USDRUB)
	rec.Status = out.Status
	rec.Express = out.Result
	rec.FieldErrors = out.FieldErrors
	if out.Err != nil {
		rec.Error = out.Err.Error()
		rec.Retryable = errors.IsRetryable(out.Err)
	} else if len(out.FieldErrors) > 0 {
		rec.Error = "validation failed"
	}
}

func (m *Manager) processDetailed(rec *types.CalculationRecord, rates types.ChannelRates) {
	if rec.Express == nil || rec.Express.Duty == nil {
		rec.Status = types.StatusFailed
		rec.Error = "express result carries no duty spec"
		return
	}
	result, fieldErrs := m.detailed.Calculate(detailed.Input{
		Product:          rec.Product,
		PurchasePriceCNY: rec.PurchasePriceCNY,
		Duty:             *rec.Express.Duty,
		Rates:            rates,
	})
	if len(fieldErrs) > 0 {
		rec.Status = types.StatusFailed
		rec.FieldErrors = fieldErrs
		rec.Error = "validation failed"
		return
	}
	rec.Status = types.StatusCompleted
	rec.Detailed = result
}
