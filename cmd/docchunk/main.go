// Package main provides the entry point for the docchunk CLI.
package main

import (
	"os"

	"github.com/raphaelgruber/docchunk-go/internal/cli"
)

func main() {
	// Usage errors exit non-zero; job failures are reported through the
	// stdout result object so the stderr event stream stays pure JSON.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
