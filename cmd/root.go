package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "polyarb",
	Short: "Binary prediction-market arbitrage engine",
	Long: `polyarb detects and executes arbitrage across Polymarket and Kalshi
binary prediction markets: it builds a marginal polytope from dependency
relations between markets, runs Frank-Wolfe over it to find mispriced
combinations, and routes the legs of any profitable combination back to
each venue, in paper or live mode.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	// Flags can be added here if needed
}
