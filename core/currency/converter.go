// Package currency - Pure conversion between USD, CNY and RUB.
//
// All cross-currency arithmetic in the pipeline goes through a Converter
// built from the three caller-supplied rates. The converter pivots through
// USD: usd_rub and usd_cny define every pair, and eur_rub exists solely for
// euro-denominated duties.
package currency

import (
	"github.com/shopspring/decimal"

	"customs-cost/core/types"
	"customs-cost/internal/errors"
)

// Converter converts between the three supported currencies with a fixed
// set of rates. It holds no mutable state and is safe for concurrent use.
type Converter struct {
	rates types.Rates
}

// NewConverter creates a converter. All three rates must be positive.
func NewConverter(rates types.Rates) (*Converter, error) {
	if !rates.Valid() {
		return nil, errors.Validation("exchange rates must all be positive")
	}
	return &Converter{rates: rates}, nil
}

// Rates returns the rates the converter was built with.
func (c *Converter) Rates() types.Rates {
	return c.rates
}

// Convert converts a Money amount to the target currency.
func (c *Converter) Convert(m types.Money, to types.Currency) (types.Money, error) {
	if !m.Currency.Valid() {
		return types.Money{}, errors.Newf(errors.TypeValidation, "unsupported currency: %s", m.Currency)
	}
	if !to.Valid() {
		return types.Money{}, errors.Newf(errors.TypeValidation, "unsupported currency: %s", to)
	}
	if m.Currency == to {
		return m, nil
	}

	usd := m.Amount.Div(decimal.NewFromFloat(c.usdRate(m.Currency)))
	out := usd.Mul(decimal.NewFromFloat(c.usdRate(to)))
	return types.Money{Amount: out, Currency: to}, nil
}

// usdRate returns how many units of cur one USD buys.
func (c *Converter) usdRate(cur types.Currency) float64 {
	switch cur {
	case types.CurrencyRUB:
		return c.rates.USDRUB
	case types.CurrencyCNY:
		return c.rates.USDCNY
	default:
		return 1
	}
}

// ToUSD returns the float value of m in USD.
func (c *Converter) ToUSD(m types.Money) (float64, error) {
	out, err := c.Convert(m, types.CurrencyUSD)
	if err != nil {
		return 0, err
	}
	return out.Float(), nil
}

// USDToRUB converts a USD float value to RUB.
func (c *Converter) USDToRUB(v float64) float64 {
	return v * c.rates.USDRUB
}

// USDToCNY converts a USD float value to CNY.
func (c *Converter) USDToCNY(v float64) float64 {
	return v * c.rates.USDCNY
}

// CNYToUSD converts a CNY float value to USD.
func (c *Converter) CNYToUSD(v float64) float64 {
	return v / c.rates.USDCNY
}

// RUBToUSD converts a RUB float value to USD.
func (c *Converter) RUBToUSD(v float64) float64 {
	return v / c.rates.USDRUB
}

// RUBToCNY converts a RUB float value to CNY through the USD cross rate.
func (c *Converter) RUBToCNY(v float64) float64 {
	return v / (c.rates.USDRUB / c.rates.USDCNY)
}

// EURToRUB converts a EUR float value to RUB.
func (c *Converter) EURToRUB(v float64) float64 {
	return v * c.rates.EURRUB
}
