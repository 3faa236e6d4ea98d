package main

import (
	"os"

	"github.com/keepsake-labs/memoir-cli/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
