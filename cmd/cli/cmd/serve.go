// Package cmd - serve command
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"customs-cost/api"
	"customs-cost/internal/config"
	"customs-cost/internal/logging"
)

const apiVersion = "0.1.0"

var serveAddr string

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the calculation API server",
	Long: `Run the HTTP API that accepts calculations and exposes their results.

The API only creates records and enqueues work; run at least one worker
alongside it to process the queue.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Get()

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	cls, err := newClassifier(cfg)
	if err != nil {
		return err
	}
	manager, err := newManager(cfg, store, cls)
	if err != nil {
		return err
	}

	q, err := newQueue(ctx, cfg)
	if err != nil {
		return err
	}
	defer q.Close()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	// Typed-nil guard: an interface holding a nil *product.Client is not nil.
	var products api.ProductSource
	if p := newProductSource(cfg); p != nil {
		products = p
	}
	var history api.History
	if h, ok := store.(api.History); ok {
		history = h
	}

	srv := api.NewServer(apiVersion, manager, q, products, history)
	logging.Info("API server listening on " + addr)
	fmt.Printf("customs-cost API v%s on %s\n", apiVersion, addr)
	return srv.ListenAndServe(addr)
}
