// Package main provides the entry point for cachesim.
// cachesim is a set-associative CPU data cache simulator built on the Akita
// cache directory.
//
// For the full CLI, use: go run ./cmd/cachesim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("cachesim - Set-Associative Data Cache Simulator")
	fmt.Println("Built on the Akita cache directory")
	fmt.Println("")
	fmt.Println("Usage: cachesim <command> [options]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  run        Run the interactive command loop")
	fmt.Println("  exec       Execute commands given as arguments")
	fmt.Println("  config     Print or save the cache configuration")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/cachesim --help' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/cachesim' instead.")
	}
}
