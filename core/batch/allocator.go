// Package batch - Batch sizing from per-unit dimensions.
//
// A detailed calculation prices a whole shipment, so the per-unit weight
// and volume are first scaled to the largest batch that fits the carrier
// caps. Each channel then sees the base batch inflated by its own handling
// uplift.
package batch

import (
	"math"

	"go.uber.org/zap"

	"customs-cost/core/types"
	"customs-cost/internal/logging"
)

// Carrier caps and channel uplifts.
const (
	DefaultWeightCapKg = 1000.0
	DefaultVolumeCapM3 = 4.6

	CargoUplift = 1.15
	WhiteUplift = 1.05
)

// Allocator sizes a batch against the carrier caps.
type Allocator struct {
	weightCapKg float64
	volumeCapM3 float64
	log         *zap.Logger
}

// NewAllocator creates an allocator. Non-positive caps select defaults.
func NewAllocator(weightCapKg, volumeCapM3 float64) *Allocator {
	if weightCapKg <= 0 {
		weightCapKg = DefaultWeightCapKg
	}
	if volumeCapM3 <= 0 {
		volumeCapM3 = DefaultVolumeCapM3
	}
	return &Allocator{
		weightCapKg: weightCapKg,
		volumeCapM3: volumeCapM3,
		log:         logging.Named("batch"),
	}
}

// Allocate sizes the largest batch of units that fits both caps. The base
// type records which cap bound the quantity; a tie goes to weight.
// Non-positive unit dimensions yield a zero-quantity allocation.
func (a *Allocator) Allocate(unitWeightKg, unitVolumeM3 float64) types.BatchAllocation {
	if unitWeightKg <= 0 || unitVolumeM3 <= 0 {
		return types.BatchAllocation{BaseType: types.BaseWeight}
	}

	byWeight := int(math.Floor(a.weightCapKg / unitWeightKg))
	byVolume := int(math.Floor(a.volumeCapM3 / unitVolumeM3))

	qty := byWeight
	baseType := types.BaseWeight
	if byVolume < byWeight {
		qty = byVolume
		baseType = types.BaseVolume
	}
	if qty < 0 {
		qty = 0
	}

	baseWeight := float64(qty) * unitWeightKg
	baseVolume := float64(qty) * unitVolumeM3

	alloc := types.BatchAllocation{
		BaseType: baseType,
		Quantity: qty,

		BaseWeightKg: types.Round2(baseWeight),
		BaseVolumeM3: types.Round4(baseVolume),

		CargoWeightKg: types.Round2(baseWeight * CargoUplift),
		CargoVolumeM3: types.Round4(baseVolume * CargoUplift),
		WhiteWeightKg: types.Round2(baseWeight * WhiteUplift),
		WhiteVolumeM3: types.Round4(baseVolume * WhiteUplift),
	}

	a.log.Debug("batch allocated",
		zap.Int("quantity", alloc.Quantity),
		zap.String("base_type", string(alloc.BaseType)),
		zap.Float64("base_weight_kg", alloc.BaseWeightKg),
		zap.Float64("base_volume_m3", alloc.BaseVolumeM3))
	return alloc
}
