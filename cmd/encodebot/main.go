// Package main is the entry point for the encodebot CLI.
package main

import (
	"os"

	"github.com/lumenmedia/encodebot/cmd/encodebot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
