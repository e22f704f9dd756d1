// Package main checks that the translating backends compute exactly what
// the interpreter computes on every microbenchmark.
package main

import (
	"fmt"
	"os"

	"github.com/google/go-cmp/cmp"

	"github.com/sarchlab/sheepcore/benchmarks"
)

func main() {
	config := benchmarks.DefaultConfig()
	config.Iterations = 50_000
	h := benchmarks.NewHarness(config)

	failed := 0
	for _, bench := range benchmarks.GetMicrobenchmarks() {
		var ref benchmarks.Result

		for i, mode := range benchmarks.DefaultModes() {
			r := h.Run(bench, mode)

			switch {
			case r.Err != "":
				fmt.Printf("FAIL %-20s %-12s %s\n", bench.Name, mode.Name, r.Err)
				failed++
				continue
			case !r.Valid:
				fmt.Printf("FAIL %-20s %-12s result 0x%08x\n", bench.Name, mode.Name, r.Value)
				failed++
				continue
			}

			if i == 0 {
				ref = r
				fmt.Printf("ok   %-20s %-12s %d instructions\n", bench.Name, mode.Name, r.Instructions)
				continue
			}

			if diff := cmp.Diff(ref.Regs, r.Regs); diff != "" {
				fmt.Printf("FAIL %-20s %-12s registers differ (-interpreter +%s):\n%s",
					bench.Name, mode.Name, mode.Name, diff)
				failed++
				continue
			}

			if r.Instructions != ref.Instructions {
				fmt.Printf("FAIL %-20s %-12s retired %d, interpreter %d\n",
					bench.Name, mode.Name, r.Instructions, ref.Instructions)
				failed++
				continue
			}

			fmt.Printf("ok   %-20s %-12s %.2fx\n", bench.Name, mode.Name,
				float64(ref.WallTime)/float64(max(r.WallTime, 1)))
		}
	}

	if failed > 0 {
		fmt.Printf("\n%d checks failed\n", failed)
		os.Exit(1)
	}

	fmt.Println("\nAll backends agree with the interpreter.")
}
