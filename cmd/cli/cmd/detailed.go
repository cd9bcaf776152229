// Package cmd - detailed command
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

var purchaseCny float64

// detailedCmd runs the express screening and the batch comparison in one
// shot.
var detailedCmd = &cobra.Command{
	Use:   "detailed",
	Short: "Compare cargo and white channel costs for a batch",
	Long: `Run the express screening and, when the product is importable, the
detailed batch comparison between the cargo and white channels.

Examples:
  customs-cost detailed --name "wool socks" --weight 1.0 --volume 0.01 --price 500000 --purchase-cny 50
  customs-cost detailed --name "kettle" --weight 1.4 --volume 0.012 --price 350000
  customs-cost detailed --article 12345678 --purchase-cny 50`,
	RunE: runDetailed,
}

func init() {
	detailedCmd.Flags().StringVar(&articleID, "article", "", "marketplace article id to load the product from")
	detailedCmd.Flags().StringVar(&productName, "name", "", "product name (required without --article)")
	detailedCmd.Flags().StringVar(&productDesc, "description", "", "product description")
	detailedCmd.Flags().StringVar(&productBrand, "brand", "", "product brand")
	detailedCmd.Flags().Float64Var(&unitWeight, "weight", 0, "unit weight in kg (required without --article)")
	detailedCmd.Flags().Float64Var(&unitVolume, "volume", 0, "unit volume in m3 (required without --article)")
	detailedCmd.Flags().Int64Var(&priceMinor, "price", 0, "retail price in minor units (required without --article)")
	detailedCmd.Flags().Float64Var(&purchaseCny, "purchase-cny", 0, "unit purchase price in CNY (estimated when omitted)")
}

func runDetailed(cmd *cobra.Command, args []string) error {
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
	ratesProvider := newRatesProvider(cfg)

	physical, pctx, err := resolveProduct(ctx, cfg)
	if err != nil {
		return err
	}
	if physical.UnitVolumeM3 <= 0 {
		return fmt.Errorf("a unit volume is required for the detailed comparison")
	}
	rec, err := manager.CreateExpress(ctx, physical, pctx)
	if err != nil {
		return err
	}

	channelRates, err := ratesProvider.ChannelRates(ctx)
	if err != nil {
		return err
	}
	rec, err = manager.Process(ctx, rec.ID, channelRates)
	if err != nil {
		return err
	}
	if rec.Status != types.StatusCompleted && rec.Status != types.StatusOrangeZone {
		return printRecord(rec)
	}

	if _, err = manager.RequestDetailed(ctx, rec.ID, physical, purchaseCny); err != nil {
		return err
	}
	rec, err = manager.Process(ctx, rec.ID, channelRates)
	if err != nil {
		return err
	}
	return printRecord(rec)
}

func printRecord(rec *types.CalculationRecord) error {
	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
