// Package main is the production entry point for the nowplaying player.
//
// Build:
//
//	go build -o build/nowplaying ./cmd/nowplaying
//
// Run:
//
//	./build/nowplaying import ~/Music/Album --key album --kind album
//	./build/nowplaying serve --collection album
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	if err := newCLI().rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
