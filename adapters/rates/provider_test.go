package rates

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"customs-cost/core/types"
)

const feedJSON = `{"Valute":{
	"USD":{"Nominal":1,"Value":95.5},
	"EUR":{"Nominal":1,"Value":104.8},
	"CNY":{"Nominal":10,"Value":131.0}
}}`

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 0.0001 {
		t.Errorf("%s = %.6f, want %.6f", name, got, want)
	}
}

func newProvider(url string, ttl time.Duration) *Provider {
	return NewProvider(Config{
		SourceURL:   url,
		Fallback:    types.Rates{USDRUB: 100, USDCNY: 7.2, EURRUB: 110},
		MarginWhite: 1.02,
		MarginCargo: 1.04,
		CacheTTL:    ttl,
	})
}

func TestChannelRatesFromFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedJSON))
	}))
	defer srv.Close()

	p := newProvider(srv.URL, time.Hour)
	got, err := p.ChannelRates(context.Background())
	if err != nil {
		t.Fatalf("ChannelRates: %v", err)
	}

	// CNY nominal 10: 13.10 RUB per CNY; cross rate 95.5/13.10.
	approx(t, "cargo usd_rub", got.Cargo.USDRUB, 95.5*1.04)
	approx(t, "cargo eur_rub", got.Cargo.EURRUB, 104.8*1.04)
	approx(t, "white usd_rub", got.White.USDRUB, 95.5*1.02)
	approx(t, "white eur_rub", got.White.EURRUB, 104.8*1.02)
	approx(t, "cross rate unmargined", got.Cargo.USDCNY, 95.5/13.1)
	approx(t, "cross rates equal", got.Cargo.USDCNY, got.White.USDCNY)
}

func TestBaseRatesCarryNoMargin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedJSON))
	}))
	defer srv.Close()

	p := newProvider(srv.URL, time.Hour)
	got := p.BaseRates(context.Background())

	approx(t, "bank usd_rub", got.USDRUB, 95.5)
	approx(t, "bank eur_rub", got.EURRUB, 104.8)
	approx(t, "bank usd_cny", got.USDCNY, 95.5/13.1)
}

func TestRatesAreCached(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(feedJSON))
	}))
	defer srv.Close()

	p := newProvider(srv.URL, time.Hour)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := p.ChannelRates(ctx); err != nil {
			t.Fatalf("ChannelRates: %v", err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("fetches = %d, want 1", got)
	}
}

func TestFallbackWhenSourceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := newProvider(srv.URL, time.Hour)
	got, err := p.ChannelRates(context.Background())
	if err != nil {
		t.Fatalf("ChannelRates: %v", err)
	}
	approx(t, "fallback white usd_rub", got.White.USDRUB, 100*1.02)
	approx(t, "fallback cargo usd_rub", got.Cargo.USDRUB, 100*1.04)
	approx(t, "fallback usd_cny", got.Cargo.USDCNY, 7.2)
}

func TestStaleCacheBeatsFallback(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(feedJSON))
	}))
	defer srv.Close()

	// Zero TTL forces a refetch on every call.
	p := newProvider(srv.URL, 0)
	ctx := context.Background()
	if _, err := p.ChannelRates(ctx); err != nil {
		t.Fatalf("ChannelRates: %v", err)
	}

	fail.Store(true)
	got, err := p.ChannelRates(ctx)
	if err != nil {
		t.Fatalf("ChannelRates: %v", err)
	}
	approx(t, "stale cached usd_rub", got.White.USDRUB, 95.5*1.02)
}
