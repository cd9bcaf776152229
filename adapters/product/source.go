// Package product - Marketplace card adapter for product data.
//
// Calculations need a physical snapshot (weight, volume, retail price) and
// a descriptive context (name, description, brand). The marketplace card
// endpoint exposes both; dimensions come in centimeters and weight in
// grams, normalized here to m³ and kg.
package product

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"customs-cost/core/types"
	"customs-cost/internal/errors"
	"customs-cost/internal/logging"
)

// Source supplies product data for an article id.
type Source interface {
	Fetch(ctx context.Context, articleID string) (types.ProductPhysical, types.ProductContext, error)
}

// Client fetches product cards over HTTP. It implements Source.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a client. A non-positive timeout defaults to 15s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        logging.Named("product"),
	}
}

// card is the marketplace card payload, reduced to the fields we read.
type card struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Brand       string `json:"brand"`

	// PriceMinor is the retail price in minor currency units.
	PriceMinor int64 `json:"price_minor"`

	// WeightG is the unit weight in grams.
	WeightG float64 `json:"weight_g"`

	// Dimensions in centimeters.
	WidthCm  float64 `json:"width_cm"`
	HeightCm float64 `json:"height_cm"`
	LengthCm float64 `json:"length_cm"`
}

// Fetch loads one product card.
func (c *Client) Fetch(ctx context.Context, articleID string) (types.ProductPhysical, types.ProductContext, error) {
	url := fmt.Sprintf("%s/cards/%s", c.baseURL, articleID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.ProductPhysical{}, types.ProductContext{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.ProductPhysical{}, types.ProductContext{}, errors.Internal("product card fetch failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return types.ProductPhysical{}, types.ProductContext{}, errors.NotFound("product card", articleID)
	}
	if resp.StatusCode != http.StatusOK {
		return types.ProductPhysical{}, types.ProductContext{},
			errors.Newf(errors.TypeInternal, "product card fetch returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return types.ProductPhysical{}, types.ProductContext{}, errors.Internal("product card read failed", err)
	}

	var cd card
	if err := json.Unmarshal(data, &cd); err != nil {
		return types.ProductPhysical{}, types.ProductContext{}, errors.Internal("product card parse failed", err)
	}

	physical := types.ProductPhysical{
		UnitWeightKg:     cd.WeightG / 1000.0,
		UnitVolumeM3:     cd.WidthCm * cd.HeightCm * cd.LengthCm / 1_000_000.0,
		RetailPriceMinor: cd.PriceMinor,
	}
	pctx := types.ProductContext{
		Name:        cd.Name,
		Description: cd.Description,
		Brand:       cd.Brand,
	}
	c.log.Debug("product card loaded",
		zap.String("article_id", articleID),
		zap.Float64("weight_kg", physical.UnitWeightKg),
		zap.Float64("volume_m3", physical.UnitVolumeM3))
	return physical, pctx, nil
}
