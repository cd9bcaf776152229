// Package cmd - classify command
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"customs-cost/core/redzone"
	"customs-cost/core/types"
	"customs-cost/internal/config"
)

// classifyCmd matches a regulatory code against the red-zone rule table.
var classifyCmd = &cobra.Command{
	Use:   "classify [code]",
	Short: "Match a regulatory code against the red-zone rules",
	Long: `Match a 10-digit regulatory code against the red-zone rule table.

The code is normalized first: non-digits are stripped, the first ten
digits are kept and shorter codes are right-padded with zeros.

Examples:
  customs-cost classify 3304990000
  customs-cost classify 8501010000`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	matcher, err := newMatcher(config.Get())
	if err != nil {
		return err
	}

	code := redzone.Normalize(args[0])
	decision, reason := matcher.Classify(code)

	fmt.Printf("code:     %s\n", code)
	fmt.Printf("decision: %s\n", decision)
	if reason != "" {
		fmt.Printf("reason:   %s\n", reason)
	}
	if decision == types.ZoneAllow {
		fmt.Println("reason:   no restricting rule matched")
	}
	return nil
}
