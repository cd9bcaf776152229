// Package cmd - shared wiring between commands
package cmd

import (
	"context"
	"fmt"
	"time"

	"customs-cost/adapters/classifier"
	"customs-cost/adapters/product"
	"customs-cost/adapters/rates"
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
	"customs-cost/internal/config"
	"customs-cost/internal/queue"
	"customs-cost/internal/storage/postgres"
)

// newMatcher loads the red-zone rule table, embedded or from file.
func newMatcher(cfg *config.Config) (*redzone.Matcher, error) {
	if cfg.RulesPath != "" {
		return redzone.NewFromFile(cfg.RulesPath)
	}
	return redzone.New()
}

// newClassifier builds the HTTP classifier client; the classifier service
// is required for express and detailed calculations.
func newClassifier(cfg *config.Config) (*classifier.Client, error) {
	if cfg.Classifier.BaseURL == "" {
		return nil, fmt.Errorf("classifier base_url is not configured (set CLASSIFIER_URL or classifier.base_url)")
	}
	return classifier.New(
		cfg.Classifier.BaseURL,
		time.Duration(cfg.Classifier.TimeoutSeconds)*time.Second,
		classifier.WithMaxRetries(cfg.Classifier.MaxRetries),
	), nil
}

// newProductSource builds the marketplace card client, or nil when no
// card endpoint is configured.
func newProductSource(cfg *config.Config) *product.Client {
	if cfg.Product.BaseURL == "" {
		return nil
	}
	return product.NewClient(cfg.Product.BaseURL,
		time.Duration(cfg.Product.TimeoutSeconds)*time.Second)
}

// newRatesProvider builds the bank-rate provider.
func newRatesProvider(cfg *config.Config) *rates.Provider {
	return rates.NewProvider(rates.Config{
		SourceURL: cfg.Rates.SourceURL,
		Fallback: types.Rates{
			USDRUB: cfg.Rates.FallbackUSDRUB,
			USDCNY: cfg.Rates.FallbackUSDCNY,
			EURRUB: cfg.Rates.FallbackEURRUB,
		},
		MarginWhite: cfg.Rates.MarginWhite,
		MarginCargo: cfg.Rates.MarginCargo,
		CacheTTL:    time.Duration(cfg.Rates.CacheTTLSeconds) * time.Second,
	})
}

// newStore picks the record store: PostgreSQL when configured, in-memory
// otherwise.
func newStore(ctx context.Context, cfg *config.Config) (lifecycle.Store, func(), error) {
	if cfg.Database.URL == "" {
		return lifecycle.NewMemoryStore(), func() {}, nil
	}
	store, err := postgres.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

// newManager wires the full lifecycle manager from configuration.
func newManager(cfg *config.Config, store lifecycle.Store, cls *classifier.Client) (*lifecycle.Manager, error) {
	matcher, err := newMatcher(cfg)
	if err != nil {
		return nil, err
	}

	pipeline := express.NewPipeline(
		cls,
		matcher,
		orangezone.NewGate(cls),
		specificvalue.NewClassifier(cfg.Screening.SpecificValueThresholdUSDPerKg),
	)
	orch := detailed.NewOrchestrator(
		batch.NewAllocator(cfg.Batch.WeightCapKg, cfg.Batch.VolumeCapM3),
		purchase.NewEstimator(),
		cargo.NewCalculator(cfg.Cargo.PackagingUSD),
		white.NewCalculator(white.Fees{
			BasePriceUSD:    cfg.White.BasePriceUSD,
			DocsRUB:         cfg.White.DocsRUB,
			BrokerRUB:       cfg.White.BrokerRUB,
			VATReferenceUSD: cfg.White.VATReferenceUSD,
		}),
	)
	return lifecycle.NewManager(store, pipeline, orch), nil
}

// newQueue connects to the Redis work queue.
func newQueue(ctx context.Context, cfg *config.Config) (*queue.Queue, error) {
	return queue.New(ctx, cfg.Queue.RedisURL, cfg.Queue.QueueKey,
		time.Duration(cfg.Queue.ResultTTLSeconds)*time.Second)
}
