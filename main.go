// Package main provides the entry point for sheepcore.
// sheepcore is a PowerPC block-cache and JIT execution engine with a
// MacOS-style interrupt and exception bridge.
//
// For the full CLI, use: go run ./cmd/sheepsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("sheepcore - PowerPC execution engine")
	fmt.Println("")
	fmt.Println("Usage: sheepsim [options] <program>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to configuration JSON file")
	fmt.Println("  -raw       Treat the program as a raw code image")
	fmt.Println("  -interp    Disable the JIT")
	fmt.Println("  -monitor   Enter the monitor on fatal faults")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/sheepsim' for the full CLI.")
	fmt.Println("Run 'go run ./cmd/benchmark' to compare the interpreter and the JIT.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/sheepsim' instead.")
	}
}
