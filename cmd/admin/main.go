// Package main is the SOS-911 administration CLI: schema migration, index
// backfill, journal reconciliation and drift sweeps.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
