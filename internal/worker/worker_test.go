package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"customs-cost/core/batch"
	"customs-cost/core/cargo"
	"customs-cost/core/detailed"
	"customs-cost/core/express"
	"customs-cost/core/lifecycle"
	"customs-cost/core/orangezone"
	"customs-cost/core/purchase"
	"customs-cost/core/redzone"
	"customs-cost/core/specificvalue"
	"customs-cost/core/types"
	"customs-cost/core/white"
)

type fakeJobs struct {
	mu       sync.Mutex
	ids      []string
	statuses map[string]types.CalculationStatus
}

func newFakeJobs(ids ...string) *fakeJobs {
	return &fakeJobs{ids: ids, statuses: make(map[string]types.CalculationStatus)}
}

func (f *fakeJobs) Dequeue(_ context.Context, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.ids) == 0 {
		return "", nil
	}
	id := f.ids[0]
	f.ids = f.ids[1:]
	return id, nil
}

func (f *fakeJobs) Enqueue(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
	return nil
}

func (f *fakeJobs) SetStatus(_ context.Context, id string, status types.CalculationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = status
	return nil
}

func (f *fakeJobs) status(id string) types.CalculationStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[id]
}

type fakeRates struct {
	err   error
	calls int
}

func (f *fakeRates) ChannelRates(_ context.Context) (types.ChannelRates, error) {
	f.calls++
	if f.err != nil {
		return types.ChannelRates{}, f.err
	}
	return types.ChannelRates{
		Cargo: types.Rates{USDRUB: 104, USDCNY: 7.49, EURRUB: 114.4},
		White: types.Rates{USDRUB: 102, USDCNY: 7.34, EURRUB: 112.2},
	}, nil
}

type staticSelector struct{}

func (staticSelector) SelectRegulatoryCode(_ context.Context, _ types.ProductContext) (express.CodeSelection, error) {
	return express.CodeSelection{
		Code: "6115950000",
		Duty: types.DutySpec{Type: types.DutyAdValorem, Rate: 10, VATRatePercent: 20},
	}, nil
}

type passReviewer struct{}

func (passReviewer) ReviewOrangeZone(_ context.Context, _ orangezone.ReviewRequest) (orangezone.Review, error) {
	return orangezone.Review{Pass: true}, nil
}

func newManager(t *testing.T) (*lifecycle.Manager, *lifecycle.MemoryStore) {
	t.Helper()
	matcher, err := redzone.New()
	require.NoError(t, err)

	pipeline := express.NewPipeline(staticSelector{}, matcher, orangezone.NewGate(passReviewer{}), specificvalue.NewClassifier(0))
	orch := detailed.NewOrchestrator(
		batch.NewAllocator(0, 0),
		purchase.NewEstimator(),
		cargo.NewCalculator(0),
		white.NewCalculator(white.DefaultFees()),
	)
	store := lifecycle.NewMemoryStore()
	return lifecycle.NewManager(store, pipeline, orch), store
}

func TestWorkerProcessesExpressJob(t *testing.T) {
	manager, _ := newManager(t)
	ctx := context.Background()

	rec, err := manager.CreateExpress(ctx,
		types.ProductPhysical{UnitWeightKg: 1.307, UnitVolumeM3: 0.0138, RetailPriceMinor: 2097},
		types.ProductContext{Name: "wool socks"})
	require.NoError(t, err)

	jobs := newFakeJobs(rec.ID)
	w := New(jobs, manager, &fakeRates{}, time.Millisecond)
	w.processOne(ctx, rec.ID)

	got, err := manager.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, got.Status)
	assert.Equal(t, types.StatusCompleted, jobs.status(rec.ID))
}

func TestWorkerReenqueuesOnRateFailure(t *testing.T) {
	manager, _ := newManager(t)
	ctx := context.Background()

	rec, err := manager.CreateExpress(ctx,
		types.ProductPhysical{UnitWeightKg: 1, UnitVolumeM3: 0.01, RetailPriceMinor: 1000},
		types.ProductContext{Name: "socks"})
	require.NoError(t, err)

	jobs := newFakeJobs()
	w := New(jobs, manager, &fakeRates{err: fmt.Errorf("rate source down")}, time.Millisecond)
	w.processOne(ctx, rec.ID)

	// The record stays pending and the id goes back on the queue.
	got, err := manager.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, got.Status)
	id, err := jobs.Dequeue(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, id)
}

func TestWorkerStopsOnContextCancel(t *testing.T) {
	manager, _ := newManager(t)
	jobs := newFakeJobs()
	w := New(jobs, manager, &fakeRates{}, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err, "cancellation is a graceful stop")
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}

func TestWorkerSkipsTerminalJobWithoutError(t *testing.T) {
	manager, _ := newManager(t)
	ctx := context.Background()

	rec, err := manager.CreateExpress(ctx,
		types.ProductPhysical{UnitWeightKg: 1.307, UnitVolumeM3: 0.0138, RetailPriceMinor: 2097},
		types.ProductContext{Name: "wool socks"})
	require.NoError(t, err)

	jobs := newFakeJobs()
	w := New(jobs, manager, &fakeRates{}, time.Millisecond)
	w.processOne(ctx, rec.ID)
	w.processOne(ctx, rec.ID)

	got, err := manager.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, got.Status)
}
