// Command benchmark compares the interpreter with the JIT backends.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv        Output results in CSV format (default: human-readable)
//	-json       Output results in JSON format
//	-n          Loop iterations per benchmark
//	-core       Run only the core benchmarks
//	-v          Dump engine counters after each run
//
// Example:
//
//	# Run all benchmarks with human-readable output
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/sheepcore/benchmarks"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results in JSON format")
	iterations := flag.Uint("n", 1_000_000, "Loop iterations per benchmark")
	core := flag.Bool("core", false, "Run only the core benchmarks")
	verbose := flag.Bool("v", false, "Dump engine counters after each run")
	flag.Parse()

	if *iterations == 0 {
		fmt.Fprintln(os.Stderr, "Error: -n must be positive")
		os.Exit(1)
	}

	config := benchmarks.DefaultConfig()
	config.Iterations = uint32(*iterations)
	config.Verbose = *verbose
	config.Output = os.Stdout

	harness := benchmarks.NewHarness(config)
	if *core {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	if !*csvOutput && !*jsonOutput {
		fmt.Println("sheepcore Engine Benchmark Harness")
		fmt.Println("==================================")
		fmt.Printf("Iterations: %d\n", config.Iterations)
		fmt.Println("")
	}

	results := harness.RunAll()

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)
	}

	for _, r := range results {
		if !r.Valid {
			os.Exit(1)
		}
	}
}
