package orangezone

import (
	"context"
	"fmt"
	"testing"

	"customs-cost/core/types"
	"customs-cost/internal/errors"
)

type fakeReviewer struct {
	review   Review
	err      error
	lastReq  ReviewRequest
	callsCnt int
}

func (f *fakeReviewer) ReviewOrangeZone(_ context.Context, req ReviewRequest) (Review, error) {
	f.lastReq = req
	f.callsCnt++
	if f.err != nil {
		return Review{}, f.err
	}
	return f.review, nil
}

func product() types.ProductContext {
	return types.ProductContext{Name: "wool socks", Brand: "acme"}
}

func TestCheckPass(t *testing.T) {
	reviewer := &fakeReviewer{review: Review{Pass: true}}
	gate := NewGate(reviewer)

	blocked, reason, err := gate.Check(context.Background(), product(), "6115950000", types.DutySpec{Type: types.DutyAdValorem, Rate: 10})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if blocked {
		t.Error("expected pass, got blocked")
	}
	if reason != "" {
		t.Errorf("expected empty reason, got %q", reason)
	}
}

func TestCheckBlockedCarriesReason(t *testing.T) {
	reviewer := &fakeReviewer{review: Review{Pass: false, Reason: "mandatory marking"}}
	gate := NewGate(reviewer)

	blocked, reason, err := gate.Check(context.Background(), product(), "6115950000", types.DutySpec{Type: types.DutyAdValorem})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !blocked {
		t.Fatal("expected blocked")
	}
	if reason != "mandatory marking" {
		t.Errorf("reason = %q", reason)
	}
}

func TestEuroDutySignalSurfacedToReviewer(t *testing.T) {
	reviewer := &fakeReviewer{review: Review{Pass: true}}
	gate := NewGate(reviewer)

	for _, dutyType := range []types.DutyType{types.DutyPerWeight, types.DutyPerUnit, types.DutyPerPair} {
		_, _, err := gate.Check(context.Background(), product(), "6403990000", types.DutySpec{Type: dutyType, Rate: 1.5})
		if err != nil {
			t.Fatalf("Check(%s): %v", dutyType, err)
		}
		if !reviewer.lastReq.EuroDutySignal {
			t.Errorf("duty type %s: euro duty signal not set", dutyType)
		}
	}

	_, _, _ = gate.Check(context.Background(), product(), "6403990000", types.DutySpec{Type: types.DutyAdValorem, Rate: 10})
	if reviewer.lastReq.EuroDutySignal {
		t.Error("ad_valorem duty must not raise the euro duty signal")
	}
}

func TestReviewerFailureIsClassifierUnavailable(t *testing.T) {
	reviewer := &fakeReviewer{err: fmt.Errorf("upstream timeout")}
	gate := NewGate(reviewer)

	_, _, err := gate.Check(context.Background(), product(), "6115950000", types.DutySpec{Type: types.DutyAdValorem})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.IsType(err, errors.TypeClassifierUnavailable) {
		t.Errorf("error type = %v, want CLASSIFIER_UNAVAILABLE", err)
	}
	if !errors.IsRetryable(err) {
		t.Error("classifier unavailability must be retryable")
	}
}
