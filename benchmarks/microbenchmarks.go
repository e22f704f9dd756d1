package benchmarks

import "github.com/sarchlab/sheepcore/insts"

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each one
// is a counted loop stressing one part of the engine.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticLoop(),
		dependencyChain(),
		memorySequential(),
		branchHeavy(),
		functionCalls(),
		mixedWorkload(),
	}
}

// GetCoreBenchmarks returns a minimal set for quick validation.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticLoop(),
		branchHeavy(),
		functionCalls(),
	}
}

// loadConst sets r to v with lis/ori.
func loadConst(r uint8, v uint32) []uint32 {
	return []uint32{
		insts.EncodeLIS(r, int16(v>>16)),
		insts.EncodeORI(r, r, uint16(v)),
	}
}

// countedLoop runs body n times (n > 0) between prologue and epilogue,
// then returns.
func countedLoop(n uint32, prologue, body, epilogue []uint32) []uint32 {
	code := append([]uint32{}, prologue...)
	code = append(code, loadConst(4, n)...)
	code = append(code, insts.EncodeMTCTR(4))
	code = append(code, body...)
	code = append(code, insts.EncodeBC(insts.BODNZ, 0, -4*int32(len(body))))
	code = append(code, epilogue...)

	return append(code, insts.EncodeBLR())
}

func arithmeticLoop() Benchmark {
	return Benchmark{
		Name:        "arithmetic_loop",
		Description: "independent adds in a counted loop - measures block dispatch and ALU throughput",
		Program: func(n uint32) []uint32 {
			return countedLoop(n,
				[]uint32{insts.EncodeLI(3, 0), insts.EncodeLI(5, 0), insts.EncodeLI(6, 0)},
				[]uint32{
					insts.EncodeADDI(3, 3, 1),
					insts.EncodeADDI(5, 5, 2),
					insts.EncodeADDI(6, 6, 3),
					insts.EncodeXORI(7, 5, 0x55),
				},
				nil)
		},
		Expected: func(n uint32) uint32 { return n },
	}
}

func dependencyChain() Benchmark {
	return Benchmark{
		Name:        "dependency_chain",
		Description: "dependent adds through r3 - measures register file traffic",
		Program: func(n uint32) []uint32 {
			return countedLoop(n,
				[]uint32{insts.EncodeLI(3, 0), insts.EncodeLI(5, 1)},
				[]uint32{
					insts.EncodeADD(3, 3, 5),
					insts.EncodeADD(3, 3, 5),
					insts.EncodeADD(3, 3, 5),
					insts.EncodeADD(3, 3, 5),
				},
				nil)
		},
		Expected: func(n uint32) uint32 { return 4 * n },
	}
}

// memoryBase is the data area of memory benchmarks, inside guest RAM.
const memoryBase = 0x00100000

func memorySequential() Benchmark {
	return Benchmark{
		Name:        "memory_sequential",
		Description: "store/load pairs walking a buffer - measures guest memory access",
		Program: func(n uint32) []uint32 {
			return countedLoop(n,
				append(append([]uint32{insts.EncodeLI(3, 0)}, loadConst(7, memoryBase)...), loadConst(10, memoryBase)...),
				[]uint32{
					insts.EncodeSTW(3, 7, 0),
					insts.EncodeLWZ(8, 7, 0),
					insts.EncodeADDI(3, 8, 1),
					insts.EncodeRLWINM(9, 3, 2, 18, 29), // 16K wrap
					insts.EncodeADD(7, 9, 10),
				},
				nil)
		},
		Expected: func(n uint32) uint32 { return n },
	}
}

func branchHeavy() Benchmark {
	return Benchmark{
		Name:        "branch_heavy",
		Description: "data-dependent branch every iteration - measures block exits and chaining",
		Program: func(n uint32) []uint32 {
			return countedLoop(n,
				[]uint32{insts.EncodeLI(3, 0), insts.EncodeLI(5, 0)},
				[]uint32{
					insts.EncodeANDI(6, 5, 1),
					insts.EncodeBC(insts.BOTrue, 2, 8), // beq skip
					insts.EncodeADDI(3, 3, 1),
					insts.EncodeADDI(5, 5, 1), // skip:
				},
				nil)
		},
		Expected: func(n uint32) uint32 { return n / 2 },
	}
}

func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "bl/blr pair per iteration - measures call and return dispatch",
		Program: func(n uint32) []uint32 {
			// The callee follows the loop epilogue's blr.
			code := countedLoop(n,
				[]uint32{insts.EncodeMFLR(31), insts.EncodeLI(3, 0)},
				[]uint32{insts.EncodeBL(16)},
				[]uint32{insts.EncodeMTLR(31)})

			// bl sits four words before the callee: bl, bdnz, mtlr, blr.
			return append(code, insts.EncodeADDI(3, 3, 1), insts.EncodeBLR())
		},
		Expected: func(n uint32) uint32 { return n },
	}
}

func mixedWorkload() Benchmark {
	return Benchmark{
		Name:        "mixed_workload",
		Description: "multiply, memory and compare-branch mix",
		Program: func(n uint32) []uint32 {
			return countedLoop(n,
				append([]uint32{insts.EncodeLI(3, 0), insts.EncodeLI(5, 0)}, loadConst(7, memoryBase)...),
				[]uint32{
					insts.EncodeMULLI(6, 5, 3),
					insts.EncodeSTW(6, 7, 0),
					insts.EncodeLWZ(8, 7, 0),
					insts.EncodeCMPLWI(0, 8, 0x8000),
					insts.EncodeBC(insts.BOFalse, 0, 8), // bge skip
					insts.EncodeADDI(3, 3, 1),
					insts.EncodeADDI(5, 5, 1), // skip:
				},
				nil)
		},
		Expected: func(n uint32) uint32 {
			// 3*i < 0x8000 for i < 10923
			if n < 10923 {
				return n
			}

			return 10923
		},
	}
}
