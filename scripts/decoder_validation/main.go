// Validate the decode table: every opcode decodes without allocating and
// every decoded instruction disassembles.
package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/sarchlab/sheepcore/insts"
)

func main() {
	decoder := insts.NewDecoder()

	sample := []uint32{
		insts.EncodeADDI(3, 3, 1),
		insts.EncodeLWZ(4, 1, 8),
		insts.EncodeRLWINM(5, 6, 2, 0, 29),
		insts.EncodeBC(insts.BODNZ, 0, -8),
		insts.EncodeFMADD(1, 2, 3, 4),
		insts.EncodeMFLR(0),
	}

	// Warm up
	for i := 0; i < 1000; i++ {
		for _, op := range sample {
			decoder.Decode(op)
		}
	}

	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	start := time.Now()
	iterations := 1_000_000

	for i := 0; i < iterations; i++ {
		for _, op := range sample {
			decoder.Decode(op)
		}
	}

	elapsed := time.Since(start)
	runtime.ReadMemStats(&m2)

	totalDecodes := iterations * len(sample)
	allocations := m2.Mallocs - m1.Mallocs

	fmt.Printf("Decoder Validation Results:\n")
	fmt.Printf("===========================\n")
	fmt.Printf("Total decode operations: %d\n", totalDecodes)
	fmt.Printf("Time elapsed: %v\n", elapsed)
	fmt.Printf("Decodes per second: %.0f\n", float64(totalDecodes)/elapsed.Seconds())
	fmt.Printf("Allocations: %d\n", allocations)

	// Sweep every primary opcode with a spread of extended opcodes.
	known := 0
	for primary := uint32(0); primary < 64; primary++ {
		for xo := uint32(0); xo < 1024; xo++ {
			op := primary<<26 | xo<<1
			info := decoder.Decode(op)
			if info == nil {
				fmt.Printf("nil entry for 0x%08x\n", op)
				os.Exit(1)
			}

			if info.Op != insts.OpIllegal {
				known++
				if insts.Disassemble(0, op) == "" {
					fmt.Printf("empty disassembly for %s (0x%08x)\n", info.Name, op)
					os.Exit(1)
				}
			}
		}
	}

	fmt.Printf("Decoded encodings: %d\n", known)

	if allocations == 0 {
		fmt.Printf("\nSUCCESS: zero allocations per decode\n")
	} else {
		fmt.Printf("\nWARNING: decode allocates (%.3f per decode)\n",
			float64(allocations)/float64(totalDecodes))
	}
}
