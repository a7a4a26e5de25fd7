// Package main is the entry point for pgedge-vendorsummary.
package main

import (
	"fmt"
	"os"

	"github.com/pgEdge/pgedge-vendorsummary/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
