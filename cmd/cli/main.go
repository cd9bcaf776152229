// Package main is the entry point for the customs-cost CLI.
package main

import (
	"os"

	"customs-cost/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
