package express

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"customs-cost/core/orangezone"
	"customs-cost/core/redzone"
	"customs-cost/core/specificvalue"
	"customs-cost/core/types"
	"customs-cost/internal/errors"
)

type fakeSelector struct {
	selection CodeSelection
	err       error
	calls     int
}

func (f *fakeSelector) SelectRegulatoryCode(_ context.Context, _ types.ProductContext) (CodeSelection, error) {
	f.calls++
	if f.err != nil {
		return CodeSelection{}, f.err
	}
	return f.selection, nil
}

type fakeReviewer struct {
	review orangezone.Review
	err    error
}

func (f *fakeReviewer) ReviewOrangeZone(_ context.Context, _ orangezone.ReviewRequest) (orangezone.Review, error) {
	if f.err != nil {
		return orangezone.Review{}, f.err
	}
	return f.review, nil
}

func newPipeline(t *testing.T, selector CodeSelector, reviewer orangezone.ZoneReviewer) *Pipeline {
	t.Helper()
	matcher, err := redzone.New()
	if err != nil {
		t.Fatalf("redzone.New: %v", err)
	}
	return NewPipeline(selector, matcher, orangezone.NewGate(reviewer), specificvalue.NewClassifier(0))
}

func product() types.ProductPhysical {
	return types.ProductPhysical{UnitWeightKg: 1.307, UnitVolumeM3: 0.0138, RetailPriceMinor: 2097}
}

func pctx() types.ProductContext {
	return types.ProductContext{Name: "wool socks", Brand: "acme"}
}

func adValorem() types.DutySpec {
	return types.DutySpec{Type: types.DutyAdValorem, Rate: 10, VATRatePercent: 20}
}

func TestRunCompleted(t *testing.T) {
	selector := &fakeSelector{selection: CodeSelection{Code: "6115950000", Duty: adValorem()}}
	p := newPipeline(t, selector, &fakeReviewer{review: orangezone.Review{Pass: true}})

	out := p.Run(context.Background(), product(), pctx(), 100)
	if out.Status != types.StatusCompleted {
		t.Fatalf("status = %s, want completed", out.Status)
	}
	if out.Result.ZoneDecision != types.ZoneAllow {
		t.Errorf("zone = %s, want ALLOW", out.Result.ZoneDecision)
	}
	// 20.97 RUB retail over 1.307 kg at 100 RUB/USD is far below the
	// 20 USD/kg threshold.
	if out.Result.Tier != types.TierLow {
		t.Errorf("tier = %s, want low", out.Result.Tier)
	}
	if out.Result.Assessment != types.AssessmentYellow {
		t.Errorf("assessment = %s, want yellow for a low-value product", out.Result.Assessment)
	}
	if out.Result.Summary == "" {
		t.Error("summary must not be empty")
	}
}

func TestRunHighTierIsGreen(t *testing.T) {
	selector := &fakeSelector{selection: CodeSelection{Code: "6115950000", Duty: adValorem()}}
	p := newPipeline(t, selector, &fakeReviewer{review: orangezone.Review{Pass: true}})

	// 5_000_000 kopecks = 500 USD over 1.307 kg, well above threshold.
	prod := product()
	prod.RetailPriceMinor = 5_000_000
	out := p.Run(context.Background(), prod, pctx(), 100)
	if out.Status != types.StatusCompleted {
		t.Fatalf("status = %s, want completed", out.Status)
	}
	if out.Result.Tier != types.TierHigh {
		t.Errorf("tier = %s, want high", out.Result.Tier)
	}
	if out.Result.Assessment != types.AssessmentGreen {
		t.Errorf("assessment = %s, want green", out.Result.Assessment)
	}
}

func TestRunBlockedByRedZone(t *testing.T) {
	selector := &fakeSelector{selection: CodeSelection{Code: "3304990000", Duty: adValorem()}}
	p := newPipeline(t, selector, &fakeReviewer{review: orangezone.Review{Pass: true}})

	out := p.Run(context.Background(), product(), pctx(), 100)
	if out.Status != types.StatusBlocked {
		t.Fatalf("status = %s, want blocked", out.Status)
	}
	if out.Result.Assessment != types.AssessmentRed {
		t.Errorf("assessment = %s, want red", out.Result.Assessment)
	}
	if out.Result.ZoneReason == "" {
		t.Error("blocked result must carry the rule reason")
	}
}

func TestRunRiskZoneDegradesToYellow(t *testing.T) {
	selector := &fakeSelector{selection: CodeSelection{Code: "8517120000", Duty: adValorem()}}
	p := newPipeline(t, selector, &fakeReviewer{review: orangezone.Review{Pass: true}})

	prod := product()
	prod.RetailPriceMinor = 5_000_000
	out := p.Run(context.Background(), prod, pctx(), 100)
	if out.Status != types.StatusCompleted {
		t.Fatalf("status = %s, want completed", out.Status)
	}
	if out.Result.ZoneDecision != types.ZoneRisk {
		t.Fatalf("zone = %s, want RISK", out.Result.ZoneDecision)
	}
	if out.Result.Assessment != types.AssessmentYellow {
		t.Errorf("assessment = %s, want yellow", out.Result.Assessment)
	}
}

func TestRunOrangeZoneHold(t *testing.T) {
	selector := &fakeSelector{selection: CodeSelection{
		Code: "6403990000",
		Duty: types.DutySpec{Type: types.DutyPerPair, Rate: 0.34, VATRatePercent: 20},
	}}
	p := newPipeline(t, selector, &fakeReviewer{review: orangezone.Review{Pass: false, Reason: "mandatory marking"}})

	out := p.Run(context.Background(), product(), pctx(), 100)
	if out.Status != types.StatusOrangeZone {
		t.Fatalf("status = %s, want orange_zone", out.Status)
	}
	if out.Result.Assessment != types.AssessmentOrange {
		t.Errorf("assessment = %s, want orange", out.Result.Assessment)
	}
	if !strings.Contains(out.Result.Summary, "mandatory marking") {
		t.Errorf("summary must carry the hold reason, got %q", out.Result.Summary)
	}
}

func TestRunValidationFailure(t *testing.T) {
	selector := &fakeSelector{selection: CodeSelection{Code: "6115950000", Duty: adValorem()}}
	p := newPipeline(t, selector, &fakeReviewer{review: orangezone.Review{Pass: true}})

	out := p.Run(context.Background(), types.ProductPhysical{}, types.ProductContext{}, 100)
	if out.Status != types.StatusFailed {
		t.Fatalf("status = %s, want failed", out.Status)
	}
	if len(out.FieldErrors) < 3 {
		t.Errorf("expected accumulated field errors, got %v", out.FieldErrors)
	}
	if selector.calls != 0 {
		t.Error("classifier must not be called for invalid input")
	}
}

func TestRunClassifierUnavailable(t *testing.T) {
	selector := &fakeSelector{err: fmt.Errorf("upstream timeout")}
	p := newPipeline(t, selector, &fakeReviewer{review: orangezone.Review{Pass: true}})

	out := p.Run(context.Background(), product(), pctx(), 100)
	if out.Status != types.StatusFailed {
		t.Fatalf("status = %s, want failed", out.Status)
	}
	if !errors.IsType(out.Err, errors.TypeClassifierUnavailable) {
		t.Errorf("err = %v, want CLASSIFIER_UNAVAILABLE", out.Err)
	}
	if !errors.IsRetryable(out.Err) {
		t.Error("classifier unavailability must be retryable")
	}
}

func TestRunReviewerUnavailable(t *testing.T) {
	selector := &fakeSelector{selection: CodeSelection{Code: "6115950000", Duty: adValorem()}}
	p := newPipeline(t, selector, &fakeReviewer{err: fmt.Errorf("upstream 503")})

	out := p.Run(context.Background(), product(), pctx(), 100)
	if out.Status != types.StatusFailed {
		t.Fatalf("status = %s, want failed", out.Status)
	}
	if !errors.IsRetryable(out.Err) {
		t.Error("reviewer unavailability must be retryable")
	}
}
