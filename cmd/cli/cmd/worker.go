// Package cmd - worker command
package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"customs-cost/internal/config"
	"customs-cost/internal/worker"
)

var workerPollSeconds int

// workerCmd runs the queue consumer.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a calculation worker",
	Long: `Consume queued calculation ids and run them through the pipeline.

Multiple workers may run concurrently; the store-level claim keeps each
calculation on exactly one worker. SIGINT/SIGTERM stop the worker
gracefully.`,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().IntVar(&workerPollSeconds, "poll-seconds", 5, "queue poll timeout in seconds")
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	w := worker.New(q, manager, newRatesProvider(cfg), time.Duration(workerPollSeconds)*time.Second)
	return w.Run(ctx)
}
