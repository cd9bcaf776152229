// Package worker - Queue consumer driving the calculation pipeline.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"customs-cost/core/lifecycle"
	"customs-cost/core/types"
	"customs-cost/internal/logging"
)

// JobSource is the queue surface the worker consumes.
type JobSource interface {
	// Dequeue blocks up to timeout; an empty id without an error means the
	// wait timed out.
	Dequeue(ctx context.Context, timeout time.Duration) (string, error)
	Enqueue(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status types.CalculationStatus) error
}

// RateSource supplies the per-channel exchange rates for a calculation.
type RateSource interface {
	ChannelRates(ctx context.Context) (types.ChannelRates, error)
}

// Worker consumes calculation ids and runs them through the lifecycle
// manager one at a time. Run multiple workers for parallelism; the
// store-level claim keeps them off each other's records.
type Worker struct {
	jobs        JobSource
	manager     *lifecycle.Manager
	rates       RateSource
	pollTimeout time.Duration
	log         *zap.Logger
}

// New creates a worker. A non-positive poll timeout defaults to 5s.
func New(jobs JobSource, manager *lifecycle.Manager, rates RateSource, pollTimeout time.Duration) *Worker {
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	return &Worker{
		jobs:        jobs,
		manager:     manager,
		rates:       rates,
		pollTimeout: pollTimeout,
		log:         logging.Named("worker"),
	}
}

// Run consumes the queue until the context is canceled. Cancellation is a
// graceful stop, not an error.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("worker started", zap.Duration("poll_timeout", w.pollTimeout))
	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker stopped")
			return nil
		default:
		}

		id, err := w.jobs.Dequeue(ctx, w.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				w.log.Info("worker stopped")
				return nil
			}
			w.log.Error("dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if id == "" {
			continue
		}
		w.processOne(ctx, id)
	}
}

func (w *Worker) processOne(ctx context.Context, id string) {
	rates, err := w.rates.ChannelRates(ctx)
	if err != nil {
		// The record is still pending; put the id back for a later attempt.
		w.log.Error("rate fetch failed, re-enqueueing", zap.String("id", id), zap.Error(err))
		if err := w.jobs.Enqueue(ctx, id); err != nil {
			w.log.Error("re-enqueue failed", zap.String("id", id), zap.Error(err))
		}
		return
	}

	rec, err := w.manager.Process(ctx, id, rates)
	if err != nil {
		w.log.Error("processing failed", zap.String("id", id), zap.Error(err))
		return
	}
	if err := w.jobs.SetStatus(ctx, id, rec.Status); err != nil {
		w.log.Warn("status publish failed", zap.String("id", id), zap.Error(err))
	}
}
