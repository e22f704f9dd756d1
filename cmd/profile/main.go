// Package main profiles one engine benchmark to find hot spots in the
// interpreter and the JIT.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/sarchlab/sheepcore/benchmarks"
)

var (
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
	benchName  = flag.String("bench", "arithmetic_loop", "benchmark to run")
	modeName   = flag.String("mode", "native", "engine mode: interpreter, closures or native")
	iterations = flag.Uint("n", 10_000_000, "loop iterations")
)

func find() (benchmarks.Benchmark, benchmarks.Mode, error) {
	var (
		bench benchmarks.Benchmark
		mode  benchmarks.Mode
	)

	for _, b := range benchmarks.GetMicrobenchmarks() {
		if b.Name == *benchName {
			bench = b
		}
	}
	if bench.Program == nil {
		return bench, mode, fmt.Errorf("unknown benchmark %q", *benchName)
	}

	for _, m := range benchmarks.DefaultModes() {
		if m.Name == *modeName {
			mode = m
		}
	}
	if mode.Apply == nil {
		return bench, mode, fmt.Errorf("unknown mode %q", *modeName)
	}

	return bench, mode, nil
}

func main() {
	flag.Parse()

	bench, mode, err := find()
	if err != nil || *iterations == 0 {
		if err == nil {
			err = fmt.Errorf("-n must be positive")
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Start CPU profiling if requested
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	config := benchmarks.DefaultConfig()
	config.Iterations = uint32(*iterations)

	r := benchmarks.NewHarness(config).Run(bench, mode)

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Benchmark: %s (%s)\n", r.Name, r.Mode)
	if r.Err != "" {
		fmt.Printf("Error: %s\n", r.Err)
	}
	fmt.Printf("Result: %d (valid: %v)\n", r.Value, r.Valid)
	fmt.Printf("Instructions executed: %d\n", r.Instructions)
	fmt.Printf("Elapsed time: %v\n", r.WallTime)
	fmt.Printf("MIPS: %.1f\n", r.MIPS)
}
