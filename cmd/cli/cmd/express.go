// Package cmd - express command
package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"customs-cost/core/lifecycle"
	"customs-cost/core/types"
	"customs-cost/internal/config"
)

var (
	articleID    string
	productName  string
	productDesc  string
	productBrand string
	unitWeight   float64
	unitVolume   float64
	priceMinor   int64
)

// expressCmd runs a one-shot express screening.
var expressCmd = &cobra.Command{
	Use:   "express",
	Short: "Screen a product for import viability",
	Long: `Run the express screening for one product: pick a regulatory code,
check the red and orange zones and attach a rough cost tier.

Examples:
  customs-cost express --name "wool socks" --weight 1.307 --price 2097
  customs-cost express --name "face cream" --brand acme --weight 0.2 --price 45000
  customs-cost express --article 12345678`,
	RunE: runExpress,
}

func init() {
	expressCmd.Flags().StringVar(&articleID, "article", "", "marketplace article id to load the product from")
	expressCmd.Flags().StringVar(&productName, "name", "", "product name (required without --article)")
	expressCmd.Flags().StringVar(&productDesc, "description", "", "product description")
	expressCmd.Flags().StringVar(&productBrand, "brand", "", "product brand")
	expressCmd.Flags().Float64Var(&unitWeight, "weight", 0, "unit weight in kg (required without --article)")
	expressCmd.Flags().Float64Var(&unitVolume, "volume", 0, "unit volume in m3")
	expressCmd.Flags().Int64Var(&priceMinor, "price", 0, "retail price in minor units (required without --article)")
}

// resolveProduct builds the product inputs from the flags, fetching the
// marketplace card when an article id is given. Explicit flags override
// the fetched card fields.
func resolveProduct(ctx context.Context, cfg *config.Config) (types.ProductPhysical, types.ProductContext, error) {
	if articleID == "" {
		if productName == "" || unitWeight <= 0 || priceMinor <= 0 {
			return types.ProductPhysical{}, types.ProductContext{},
				fmt.Errorf("either --article or --name, --weight and --price are required")
		}
		return types.ProductPhysical{
				UnitWeightKg:     unitWeight,
				UnitVolumeM3:     unitVolume,
				RetailPriceMinor: priceMinor,
			}, types.ProductContext{
				Name:        productName,
				Description: productDesc,
				Brand:       productBrand,
			}, nil
	}

	src := newProductSource(cfg)
	if src == nil {
		return types.ProductPhysical{}, types.ProductContext{},
			fmt.Errorf("product base_url is not configured (set PRODUCT_URL or product.base_url)")
	}
	physical, pctx, err := src.Fetch(ctx, articleID)
	if err != nil {
		return types.ProductPhysical{}, types.ProductContext{}, err
	}
	if unitWeight > 0 {
		physical.UnitWeightKg = unitWeight
	}
	if unitVolume > 0 {
		physical.UnitVolumeM3 = unitVolume
	}
	if priceMinor > 0 {
		physical.RetailPriceMinor = priceMinor
	}
	if productName != "" {
		pctx.Name = productName
	}
	if productDesc != "" {
		pctx.Description = productDesc
	}
	if productBrand != "" {
		pctx.Brand = productBrand
	}
	return physical, pctx, nil
}

func runExpress(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Get()

	cls, err := newClassifier(cfg)
	if err != nil {
		return err
	}
	manager, err := newManager(cfg, lifecycle.NewMemoryStore(), cls)
	if err != nil {
		return err
	}

	physical, pctx, err := resolveProduct(ctx, cfg)
	if err != nil {
		return err
	}
	rec, err := manager.CreateExpress(ctx, physical, pctx)
	if err != nil {
		return err
	}

	channelRates, err := newRatesProvider(cfg).ChannelRates(ctx)
	if err != nil {
		return err
	}
	rec, err = manager.Process(ctx, rec.ID, channelRates)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
