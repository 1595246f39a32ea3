package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/nestwing/swarmsim/cmd/cli/cmd"
)

func main() {
	// Pick up SWARMSIM_* overrides from a local .env if present.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
