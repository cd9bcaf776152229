// Package rates - Central-bank exchange rates with per-channel margins.
//
// The provider fetches the daily bank rates, caches them for a bounded
// interval and derives the two channel rate sets by applying each
// channel's margin to the RUB rates. When the source is unreachable and
// no cached value exists, the configured fallback rates keep calculations
// flowing rather than failing the whole pipeline.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"customs-cost/core/types"
	"customs-cost/internal/logging"
)

// Config configures a Provider.
type Config struct {
	// SourceURL is the daily rates endpoint.
	SourceURL string

	// Fallback is used when the source is unavailable and nothing is cached.
	Fallback types.Rates

	// MarginWhite multiplies the bank RUB rates for the white channel.
	MarginWhite float64

	// MarginCargo multiplies the bank RUB rates for the cargo channel.
	MarginCargo float64

	// CacheTTL is how long a fetched rate set is reused.
	CacheTTL time.Duration

	// Timeout bounds the fetch; zero defaults to 10s.
	Timeout time.Duration
}

// Provider supplies channel rate sets. It is safe for concurrent use.
type Provider struct {
	cfg        Config
	httpClient *http.Client
	log        *zap.Logger

	mu        sync.Mutex
	cached    types.Rates
	fetchedAt time.Time
}

// NewProvider creates a provider. Zero margins default to no margin.
func NewProvider(cfg Config) *Provider {
	if cfg.MarginWhite <= 0 {
		cfg.MarginWhite = 1
	}
	if cfg.MarginCargo <= 0 {
		cfg.MarginCargo = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Provider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logging.Named("rates"),
	}
}

// valute is one currency entry of the bank's daily feed.
type valute struct {
	Nominal float64 `json:"Nominal"`
	Value   float64 `json:"Value"`
}

type dailyFeed struct {
	Valute map[string]valute `json:"Valute"`
}

// ChannelRates returns the two channel rate sets, fetching or reusing the
// bank rates as needed.
func (p *Provider) ChannelRates(ctx context.Context) (types.ChannelRates, error) {
	base := p.baseRates(ctx)
	return types.ChannelRates{
		Cargo: applyMargin(base, p.cfg.MarginCargo),
		White: applyMargin(base, p.cfg.MarginWhite),
	}, nil
}

// BaseRates returns the unmargined bank rates.
func (p *Provider) BaseRates(ctx context.Context) types.Rates {
	return p.baseRates(ctx)
}

func (p *Provider) baseRates(ctx context.Context) types.Rates {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached.Valid() && time.Since(p.fetchedAt) < p.cfg.CacheTTL {
		return p.cached
	}

	fetched, err := p.fetch(ctx)
	if err != nil {
		if p.cached.Valid() {
			p.log.Warn("rate fetch failed, reusing stale cache", zap.Error(err))
			return p.cached
		}
		p.log.Warn("rate fetch failed, using fallback rates", zap.Error(err))
		return p.cfg.Fallback
	}

	p.cached = fetched
	p.fetchedAt = time.Now()
	p.log.Info("bank rates refreshed",
		zap.Float64("usd_rub", fetched.USDRUB),
		zap.Float64("usd_cny", fetched.USDCNY),
		zap.Float64("eur_rub", fetched.EURRUB))
	return fetched
}

func (p *Provider) fetch(ctx context.Context) (types.Rates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.SourceURL, nil)
	if err != nil {
		return types.Rates{}, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return types.Rates{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Rates{}, fmt.Errorf("rate source returned %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return types.Rates{}, err
	}

	var feed dailyFeed
	if err := json.Unmarshal(data, &feed); err != nil {
		return types.Rates{}, fmt.Errorf("rate feed parse: %w", err)
	}

	usd, err := perUnit(feed, "USD")
	if err != nil {
		return types.Rates{}, err
	}
	eur, err := perUnit(feed, "EUR")
	if err != nil {
		return types.Rates{}, err
	}
	cny, err := perUnit(feed, "CNY")
	if err != nil {
		return types.Rates{}, err
	}

	rates := types.Rates{
		USDRUB: usd,
		USDCNY: usd / cny,
		EURRUB: eur,
	}
	if !rates.Valid() {
		return types.Rates{}, fmt.Errorf("rate feed produced non-positive rates")
	}
	return rates, nil
}

// perUnit normalizes a feed entry to RUB per one unit of the currency.
func perUnit(feed dailyFeed, code string) (float64, error) {
	v, ok := feed.Valute[code]
	if !ok {
		return 0, fmt.Errorf("rate feed has no %s entry", code)
	}
	if v.Nominal <= 0 || v.Value <= 0 {
		return 0, fmt.Errorf("rate feed %s entry is malformed", code)
	}
	return v.Value / v.Nominal, nil
}

// applyMargin scales the RUB rates by the channel margin. The USD/CNY
// cross rate is a ratio of two RUB rates and stays unmargined.
func applyMargin(r types.Rates, margin float64) types.Rates {
	return types.Rates{
		USDRUB: r.USDRUB * margin,
		USDCNY: r.USDCNY,
		EURRUB: r.EURRUB * margin,
	}
}
