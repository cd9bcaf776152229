package white

import (
	"math"
	"strings"
	"testing"

	"customs-cost/core/types"
)

func rates() types.Rates {
	return types.Rates{USDRUB: 100, USDCNY: 7.2, EURRUB: 110}
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 0.01 {
		t.Errorf("%s = %.4f, want %.4f", name, got, want)
	}
}

func TestCalculateAdValorem(t *testing.T) {
	c := NewCalculator(DefaultFees())

	in := Input{
		WeightKg:   500,
		VolumeM3:   5,
		Quantity:   1000,
		GoodsValue: types.NewMoney(72000, types.CurrencyCNY),
		Duty:       types.DutySpec{Type: types.DutyAdValorem, Rate: 10, VATRatePercent: 20},
		Rates:      rates(),
	}
	got, errs := c.Calculate(in)
	if len(errs) > 0 {
		t.Fatalf("Calculate: %v", errs)
	}

	// 72000 CNY = 10000 USD = 1_000_000 RUB.
	approx(t, "goods value usd", got.GoodsValueUSD, 10000)
	approx(t, "goods value rub", got.GoodsValueRUB, 1_000_000)
	approx(t, "logistics rub", got.LogisticsRUB, 1850*100)

	// Duty: 10% of goods value in RUB.
	approx(t, "duty", got.DutyRUB, 100_000)

	// VAT base: goods value + 900 USD reference + duty.
	wantVAT := (1_000_000 + 900*100.0 + 100_000) * 0.20
	approx(t, "vat", got.VATRUB, wantVAT)

	wantTotal := 185_000 + 1_000_000 + 15_000 + 25_000 + 100_000 + wantVAT
	approx(t, "total", got.TotalRUB, wantTotal)
	approx(t, "per kg", got.CostPerKgRUB, wantTotal/500)
	approx(t, "per unit", got.CostPerUnitRUB, wantTotal/1000)

	// Customs fees reported for reference only: 1M RUB -> 4269 band.
	approx(t, "customs fees", got.CustomsFeesRUB, 4269)
	if got.TotalRUB >= wantTotal+4000 {
		t.Error("customs fees must not be part of the total")
	}
}

func TestCalculatePerWeightDuty(t *testing.T) {
	c := NewCalculator(DefaultFees())

	in := Input{
		WeightKg:   200,
		VolumeM3:   2,
		GoodsValue: types.NewMoney(5000, types.CurrencyUSD),
		Duty:       types.DutySpec{Type: types.DutyPerWeight, Rate: 1.75, VATRatePercent: 20},
		Rates:      rates(),
	}
	got, errs := c.Calculate(in)
	if len(errs) > 0 {
		t.Fatalf("Calculate: %v", errs)
	}
	// 200 kg * 1.75 EUR/kg * 110 RUB/EUR.
	approx(t, "duty", got.DutyRUB, 200*1.75*110)
}

func TestCalculatePerPairDuty(t *testing.T) {
	c := NewCalculator(DefaultFees())

	in := Input{
		WeightKg:   100,
		VolumeM3:   1,
		Quantity:   300,
		GoodsValue: types.NewMoney(5000, types.CurrencyUSD),
		Duty:       types.DutySpec{Type: types.DutyPerPair, Rate: 0.34, VATRatePercent: 20},
		Rates:      rates(),
	}
	got, errs := c.Calculate(in)
	if len(errs) > 0 {
		t.Fatalf("Calculate: %v", errs)
	}
	approx(t, "duty", got.DutyRUB, 300*0.34*110)
}

func TestMinimumDutyFloor(t *testing.T) {
	c := NewCalculator(DefaultFees())

	// Ad valorem 5% of 100_000 RUB = 5000, but the floor is
	// 0.5 EUR/kg * 200 kg * 110 = 11000.
	in := Input{
		WeightKg:   200,
		VolumeM3:   2,
		GoodsValue: types.NewMoney(1000, types.CurrencyUSD),
		Duty: types.DutySpec{
			Type: types.DutyAdValorem, Rate: 5, VATRatePercent: 20,
			Minimum: &types.MinimumDuty{Value: 0.5, Unit: "kg"},
		},
		Rates: rates(),
	}
	got, errs := c.Calculate(in)
	if len(errs) > 0 {
		t.Fatalf("Calculate: %v", errs)
	}
	approx(t, "duty floored", got.DutyRUB, 11000)

	// With a higher goods value the computed duty clears the floor.
	in.GoodsValue = types.NewMoney(10000, types.CurrencyUSD)
	got, errs = c.Calculate(in)
	if len(errs) > 0 {
		t.Fatalf("Calculate: %v", errs)
	}
	approx(t, "duty above floor", got.DutyRUB, 1_000_000*0.05)
}

func TestExemptAndUnknownDutyTypes(t *testing.T) {
	c := NewCalculator(DefaultFees())

	base := Input{
		WeightKg:   100,
		VolumeM3:   1,
		GoodsValue: types.NewMoney(1000, types.CurrencyUSD),
		Rates:      rates(),
	}

	base.Duty = types.DutySpec{Type: types.DutyExempt, VATRatePercent: 20}
	got, errs := c.Calculate(base)
	if len(errs) > 0 {
		t.Fatalf("Calculate: %v", errs)
	}
	approx(t, "exempt duty", got.DutyRUB, 0)

	// Unknown type degrades to zero duty instead of failing.
	base.Duty = types.DutySpec{Type: "combined", Rate: 10, VATRatePercent: 20}
	got, errs = c.Calculate(base)
	if len(errs) > 0 {
		t.Fatalf("Calculate: %v", errs)
	}
	approx(t, "unknown duty", got.DutyRUB, 0)
	if got.VATRUB <= 0 {
		t.Error("VAT must still apply with zero duty")
	}
}

func TestValidation(t *testing.T) {
	c := NewCalculator(DefaultFees())

	_, errs := c.Calculate(Input{
		WeightKg:   0,
		GoodsValue: types.Money{Currency: types.CurrencyUSD},
		Duty:       types.DutySpec{Type: types.DutyPerUnit, Rate: 1},
		Rates:      types.Rates{},
	})
	if len(errs) < 3 {
		t.Fatalf("expected accumulated field errors, got %v", errs)
	}
	joined := strings.Join(errs, "; ")
	for _, want := range []string{"weight_kg", "volume_m3", "goods_value", "rates", "quantity"} {
		if !strings.Contains(joined, want) {
			t.Errorf("field errors missing %q: %v", want, errs)
		}
	}
}
