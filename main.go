// Command polyarb detects and executes binary prediction-market arbitrage
// across Polymarket and Kalshi. See cmd/root.go for the CLI surface.
package main

import "github.com/mselser95/polymarket-arb/cmd"

func main() {
	cmd.Execute()
}
