package main

import (
	"os"

	_ "time/tzdata"

	"StockSentinel/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
