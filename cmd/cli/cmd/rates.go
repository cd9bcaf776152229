// Package cmd - rates command
package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"customs-cost/core/types"
	"customs-cost/internal/config"
)

// ratesCmd prints the current bank rates and the margined channel rates.
var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Show the current exchange rates",
	Long: `Show the bank exchange rates the calculations run on: the unmargined
daily bank rates and the per-channel rate sets with margins applied.`,
	RunE: runRates,
}

func runRates(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	provider := newRatesProvider(config.Get())

	channels, err := provider.ChannelRates(ctx)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(struct {
		Bank     types.Rates        `json:"bank"`
		Channels types.ChannelRates `json:"channels"`
	}{
		Bank:     provider.BaseRates(ctx),
		Channels: channels,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
